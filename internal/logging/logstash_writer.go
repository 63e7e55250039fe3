package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	dialTimeout   = 2 * time.Second
	writeTimeout  = time.Second
	retryCooldown = 5 * time.Second
)

// LogstashWriter mirrors log output to a Logstash TCP input without ever
// blocking the caller. While Logstash is unreachable, writes are dropped and
// reconnection is attempted at most once per cool-down window.
type LogstashWriter struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

// NewLogstashWriter returns a writer safe for concurrent use. The connection
// is established lazily on first write.
func NewLogstashWriter(addr string) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}
	return &LogstashWriter{addr: addr}, nil
}

// Write implements io.Writer. Delivery is best effort: connection failures and
// write errors report success to the caller so local logging keeps flowing.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	line := make([]byte, len(p))
	copy(line, p)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if !w.connectLocked() {
		return len(p), nil
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := w.conn.Write(line); err != nil {
		_ = w.conn.Close()
		w.conn = nil
		w.nextRetry = time.Now().Add(retryCooldown)
	}
	return len(p), nil
}

// Close tears down the underlying TCP connection.
func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *LogstashWriter) connectLocked() bool {
	if w.conn != nil {
		return true
	}
	if !w.nextRetry.IsZero() && time.Now().Before(w.nextRetry) {
		return false
	}
	conn, err := net.DialTimeout("tcp", w.addr, dialTimeout)
	if err != nil {
		w.nextRetry = time.Now().Add(retryCooldown)
		return false
	}
	w.conn = conn
	w.nextRetry = time.Time{}
	return true
}
