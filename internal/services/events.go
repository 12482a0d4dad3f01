package services

import (
	"context"
	"strings"

	"budgettracker/internal/amqp"
	"budgettracker/internal/log"
)

// Publisher announces committed changes. A nil Publisher disables events.
type Publisher interface {
	Publish(ctx context.Context, event amqp.ChangeEvent) error
}

// notify records a committed write and publishes it. Publish failures are
// logged only: the database is the source of truth and the request has
// already succeeded.
func notify(ctx context.Context, p Publisher, logger *log.Logger, typ amqp.EventType, id, userID int64) {
	event := amqp.NewChangeEvent(typ, id, userID)
	logger.DebugContext(ctx, "Record changed",
		log.FieldOperation, writeOp(typ),
		event.IDField(), id,
		log.FieldUserID, userID)

	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, typ,
			event.IDField(), id,
			log.FieldUserID, userID,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

func writeOp(typ amqp.EventType) string {
	switch {
	case typ.IsDelete():
		return log.OpDelete
	case strings.HasSuffix(string(typ), ".created"):
		return log.OpCreate
	}
	return log.OpUpdate
}
