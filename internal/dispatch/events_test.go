package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDispatchCompleted(t *testing.T) {
	client, mock := redismock.NewClientMock()
	pub := NewEventPublisher(client, "dispatch-events")
	fixed := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	event := DispatchCompletedEvent{
		OrganizationID: uuid.New(),
		Date:           "2026-08-24",
		TotalGuests:    11,
		TotalGuides:    2,
		DispatchedBy:   uuid.New(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "dispatch-events",
		Values: map[string]interface{}{
			"type":        EventDispatchCompleted,
			"payload":     string(payload),
			"occurred_at": "2026-08-24T18:00:00Z",
		},
	}).SetVal("1-0")

	pub.PublishDispatchCompleted(context.Background(), event)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishTourRunCancelled(t *testing.T) {
	client, mock := redismock.NewClientMock()
	pub := NewEventPublisher(client, "dispatch-events")
	fixed := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	event := TourRunCancelledEvent{
		OrganizationID: uuid.New(),
		TourRunKey:     "tour|2026-08-24|09:00",
		WarningID:      uuid.New(),
		BookingIDs:     []uuid.UUID{uuid.New()},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "dispatch-events",
		Values: map[string]interface{}{
			"type":        EventTourRunCancelled,
			"payload":     string(payload),
			"occurred_at": "2026-08-24T18:00:00Z",
		},
	}).SetVal("1-0")

	pub.PublishTourRunCancelled(context.Background(), event)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSurvivesRedisFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	pub := NewEventPublisher(client, "dispatch-events")
	mock.Regexp().ExpectXAdd(&redis.XAddArgs{Stream: "dispatch-events"}).SetErr(assert.AnError)

	// must not panic or propagate
	pub.PublishDispatchCompleted(context.Background(), DispatchCompletedEvent{Date: "2026-08-24"})
}

func TestPublishNilClientIsNoop(t *testing.T) {
	var pub *EventPublisher
	pub.PublishDispatchCompleted(context.Background(), DispatchCompletedEvent{})

	pub = NewEventPublisher(nil, "dispatch-events")
	pub.PublishTourRunCancelled(context.Background(), TourRunCancelledEvent{})
}
