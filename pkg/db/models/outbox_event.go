package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// OutboxEvent is a domain event persisted in the same transaction as the state
// change it describes. A relay process publishes and marks rows afterwards.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null;index:idx_outbox_aggregate"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index:idx_outbox_aggregate"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	PublishedAt   *time.Time                `gorm:"column:published_at;index"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
