package events

import (
	"context"
	"log"

	"github.com/senepay/verifyapi/internal/core/domain"
)

// LogPublisher is the default sink when no merchant webhook is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, event domain.VerificationEvent) error {
	log.Printf("outbox publish topic=%s event_id=%s tenant=%s payment=%s", topic, event.EventID, event.TenantID, event.PaymentID)
	return nil
}
