package mail

import (
	"context"
	"log"
)

// ConsoleMailer is the development delivery channel: it prints the recovery
// code to the server log instead of sending email. Used whenever SMTP is not
// configured.
type ConsoleMailer struct{}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) SendPasswordReset(_ context.Context, email, otp string) error {
	log.Printf("mock mail: password reset code for %s: %s (expires in 10 minutes)", email, otp)
	return nil
}
