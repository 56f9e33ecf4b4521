package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them. Local
// development only: the log ends up holding live codes.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "email not sent (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
