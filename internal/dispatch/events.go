package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saimali7/tour-crm/pkg/logger"
)

// Event types surfaced to external collaborators (notifications, refunds,
// customer email). The core only emits intents; side effects live outside.
const (
	EventDispatchCompleted = "dispatch.completed"
	EventTourRunCancelled  = "tour_run.cancelled"
)

// EventPublisher appends dispatch lifecycle events to a Redis stream.
// Publishing is best-effort: a failed append is logged, never propagated,
// so the dispatch flow cannot be blocked by a slow consumer.
type EventPublisher struct {
	client *redis.Client
	stream string
	now    func() time.Time
}

// NewEventPublisher creates a publisher on the given stream
func NewEventPublisher(client *redis.Client, stream string) *EventPublisher {
	return &EventPublisher{client: client, stream: stream, now: time.Now}
}

func (p *EventPublisher) publish(ctx context.Context, eventType string, payload interface{}) {
	if p == nil || p.client == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithContext(ctx).Error("failed to marshal event payload",
			zap.String("type", eventType), zap.Error(err))
		return
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":        eventType,
			"payload":     string(body),
			"occurred_at": p.now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		logger.WithContext(ctx).Error("failed to publish event",
			zap.String("type", eventType), zap.String("stream", p.stream), zap.Error(err))
	}
}

// DispatchCompletedEvent announces a frozen day to downstream consumers
type DispatchCompletedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Date           string    `json:"date"`
	TotalGuests    int       `json:"total_guests"`
	TotalGuides    int       `json:"total_guides"`
	DispatchedBy   uuid.UUID `json:"dispatched_by"`
}

// PublishDispatchCompleted emits dispatch.completed
func (p *EventPublisher) PublishDispatchCompleted(ctx context.Context, e DispatchCompletedEvent) {
	p.publish(ctx, EventDispatchCompleted, e)
}

// TourRunCancelledEvent announces a run cancelled through a warning
// resolution; refunds and customer messaging hang off this intent
type TourRunCancelledEvent struct {
	OrganizationID uuid.UUID   `json:"organization_id"`
	TourRunKey     string      `json:"tour_run_key"`
	WarningID      uuid.UUID   `json:"warning_id"`
	BookingIDs     []uuid.UUID `json:"booking_ids"`
}

// PublishTourRunCancelled emits tour_run.cancelled
func (p *EventPublisher) PublishTourRunCancelled(ctx context.Context, e TourRunCancelledEvent) {
	p.publish(ctx, EventTourRunCancelled, e)
}
