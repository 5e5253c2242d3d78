package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

// Name of the sink
func (LogSink) Name() string { return "log" }

// Deliver logs the event
func (s LogSink) Deliver(ctx context.Context, e Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"kind", e.Kind,
		"card_number", e.CardNumber,
		"job_id", e.JobID,
		"job_title", e.JobTitle,
		"status", e.Status,
	)
	return nil
}

// Publisher is the part of a NATS connection the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events as JSON on "<prefix>.<kind>" for the email and
// SMS senders to pick up.
type NATSSink struct {
	Conn   Publisher
	Prefix string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, prefix string) (*NATSSink, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("jobcard-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSink{Conn: nc, Prefix: prefix}, nc, nil
}

// Name of the sink
func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject an event kind is published on.
func (s *NATSSink) Subject(k Kind) string {
	if s.Prefix == "" {
		return string(k)
	}
	return s.Prefix + "." + string(k)
}

// Deliver publishes the event
func (s *NATSSink) Deliver(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return s.Conn.Publish(s.Subject(e.Kind), data)
}
