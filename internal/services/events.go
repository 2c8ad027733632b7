package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mergington/announcements/internal/metrics"
	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	EventCreated = "announcement.created"
	EventUpdated = "announcement.updated"
	EventDeleted = "announcement.deleted"

	defaultPublishTimeout = 5 * time.Second
)

// EventPublisher sends raw payloads to a broker channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// AnnouncementEvent describes a change to an announcement.
type AnnouncementEvent struct {
	Type         string              `json:"type"`
	ID           string              `json:"id"`
	Actor        string              `json:"actor,omitempty"`
	Announcement *types.Announcement `json:"announcement,omitempty"`
	OccurredAt   string              `json:"occurred_at"`
}

// EventEmitter publishes announcement change events. A nil emitter drops
// every event.
type EventEmitter struct {
	publisher EventPublisher
	channel   string
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewEventEmitter(publisher EventPublisher, channel string, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		timeout:   defaultPublishTimeout,
		now:       time.Now,
	}
}

// Emit publishes one event. Failures are logged and counted; the caller's
// operation has already succeeded and is not rolled back.
func (e *EventEmitter) Emit(ctx context.Context, eventType, actor string, id primitive.ObjectID, announcement *types.Announcement) {
	if e == nil || e.publisher == nil {
		return
	}

	event := AnnouncementEvent{
		Type:         eventType,
		ID:           id.Hex(),
		Actor:        actor,
		Announcement: announcement,
		OccurredAt:   e.now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(event)
	if err != nil {
		metrics.IncEventPublishError()
		e.logger.Error("encode announcement event failed", zap.String("type", eventType), zap.Error(err))
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	messageID, err := e.publisher.Publish(publishCtx, e.channel, data, map[string]string{
		"type":            eventType,
		"announcement_id": event.ID,
		"content_type":    "application/json",
	})
	if err != nil {
		metrics.IncEventPublishError()
		e.logger.Warn("publish announcement event failed",
			zap.String("type", eventType),
			zap.String("id", event.ID),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("announcement event published",
		zap.String("type", eventType),
		zap.String("id", event.ID),
		zap.String("message_id", messageID),
	)
}

// DecodeAnnouncementEvent parses a payload produced by Emit.
func DecodeAnnouncementEvent(data []byte) (AnnouncementEvent, error) {
	var event AnnouncementEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return AnnouncementEvent{}, err
	}
	return event, nil
}
