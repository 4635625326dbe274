package moderation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

// publish sends the event in the background; failures are logged only
func (e *Engine) publish(event domain.ModerationEvent) {
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Errorf(err, "Failed to marshal %s event for %s", event.Type, event.ItemID)
		return
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.publisher.Publish(ctx, domain.SubjectModeration, data); err != nil {
			e.logger.Errorf(err, "Failed to publish %s event for %s", event.Type, event.ItemID)
		}
	}()
}

func reviewEvent(eventType string, review *domain.Review, from, to domain.ModerationStatus) domain.ModerationEvent {
	ev := domain.ModerationEvent{
		Type:   eventType,
		ItemID: review.ID,
		From:   from,
		To:     to,
	}
	if ref, ok := review.Parent(); ok {
		ev.ParentKind = string(ref.Kind)
		ev.ParentID = ref.ID
	}
	return ev
}

func commentEvent(eventType string, comment *domain.BlogComment, from, to domain.ModerationStatus) domain.ModerationEvent {
	return domain.ModerationEvent{
		Type:       eventType,
		ItemID:     comment.ID,
		ParentKind: domain.ParentKindBlog,
		ParentID:   comment.BlogID,
		From:       from,
		To:         to,
	}
}
