// Package mailer delivers outbound email such as signup confirmation codes.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable is returned while the delivery circuit is open.
var ErrUnavailable = errors.New("mail delivery temporarily unavailable")

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP relay is configured. Bodies carry confirmation codes, so they are only
// logged when showBody is set.
type LogSender struct {
	log      zerolog.Logger
	showBody bool
}

func NewLogSender(log zerolog.Logger, showBody bool) *LogSender {
	return &LogSender{log: log.With().Str("component", "mailer").Logger(), showBody: showBody}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject)
	if s.showBody {
		ev = ev.Str("body", msg.Body)
	}
	ev.Msg("mail delivery disabled, message logged")
	return nil
}

func buildMessage(from string, msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

// headerSafe rejects values that would let a caller inject extra headers.
func headerSafe(values ...string) error {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("invalid header value %q", v)
		}
	}
	return nil
}
