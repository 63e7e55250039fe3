package util

// Envelope is the loose JSON object used for ad hoc response bodies.
type Envelope map[string]any

// Error wraps a client-facing message in the {"error": ...} shape shared by
// every failure response.
func Error(message string) Envelope {
	return Envelope{"error": message}
}
