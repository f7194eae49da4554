package ports

import (
	"context"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event domain.VerificationEvent) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event domain.VerificationEvent, topic string) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt string, errMsg string) error
	MarkDead(ctx context.Context, id int64, attempts int, errMsg string) error
}
