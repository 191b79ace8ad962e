package services

import (
	"context"

	"invoicer/internal/amqp"
	applog "invoicer/internal/log"
)

// notifier fans a committed write out to the sync worker and the dashboard
// cache. Neither can fail the request: the row is already saved and the
// worker's pending sweep picks up anything a lost message missed.
type notifier struct {
	publisher   Publisher
	invalidator Invalidator
	logger      *applog.Logger
}

func (n notifier) changed(ctx context.Context, userID int64, msg *amqp.SyncMessage) {
	if n.invalidator != nil {
		n.invalidator.Invalidate(userID)
	}
	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP client not available, skipping sync message",
			applog.FieldEntity, msg.Entity,
			applog.FieldID, msg.ID)
		return
	}
	if err := n.publisher.PublishSync(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldEntity, msg.Entity,
			applog.FieldID, msg.ID,
			applog.FieldOperation, msg.Operation,
			applog.FieldError, err)
	}
}
