package outbox

import (
	"context"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

// Sink delivers a stored outbox event to its downstream consumer. Delivery
// errors leave the row unpublished so the dispatcher retries it.
type Sink interface {
	Deliver(ctx context.Context, event models.OutboxEvent) error
}

// LogSink writes events to the structured log. It stands in for a broker in
// environments that have no message bus wired.
type LogSink struct {
	logg *logger.Logger
}

// NewLogSink builds a log-backed sink.
func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Deliver(ctx context.Context, event models.OutboxEvent) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":       event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
	})
	s.logg.Info(logCtx, "domain event published")
	return nil
}
