package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event is a cross-cutting notification emitted by the finalization pipeline
// and the integrity merger for adjacent collaborators (dashboards, mailers).
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	ContestID uint           `json:"contest_id"`
	UserID    uint           `json:"user_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

// NotificationSink delivers events best-effort; failures never reach callers.
type NotificationSink interface {
	Notify(ctx context.Context, event Event)
}

type natsSink struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSSink publishes events on the given NATS subject.
func NewNATSSink(conn *nats.Conn, subject string, logger zerolog.Logger) NotificationSink {
	return &natsSink{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "notification_sink").Logger(),
	}
}

func (s *natsSink) Notify(_ context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to marshal notification event")
		return
	}

	if err := s.conn.Publish(s.subject+"."+event.Type, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish notification event")
	}
}

type nopSink struct{}

// NewNopSink returns a sink that drops every event; used when NATS is not configured.
func NewNopSink() NotificationSink {
	return nopSink{}
}

func (nopSink) Notify(context.Context, Event) {}
