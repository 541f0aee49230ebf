package grant

import (
	"context"

	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// EventDispatcher drains the domain events an aggregate raised during a
// mutation and routes the notification-worthy ones to the Notifier. Services
// call it only after the mutation is durable, so events from rolled-back
// transactions are never dispatched.
type EventDispatcher struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewEventDispatcher(notifier Notifier, logger *zap.Logger) *EventDispatcher {
	return &EventDispatcher{notifier: notifier, logger: logger}
}

// Dispatch drains every pending event of the aggregate and routes each one.
// The aggregate's event list is empty afterwards.
func (d *EventDispatcher) Dispatch(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		d.route(ctx, event)
	}
	aggregate.ClearDomainEvents()
}

func (d *EventDispatcher) route(ctx context.Context, event shared.DomainEvent) {
	switch e := event.(type) {
	case *grant.ReportApprovedEvent:
		d.notifier.Notify(ctx, e.UserID, TemplateReportApproved, map[string]any{
			"reference_month": e.ReferenceMonth.String(),
			"version":         e.VersionNumber,
		})
	case *grant.ReportRejectedEvent:
		data := map[string]any{
			"reference_month": e.ReferenceMonth.String(),
			"version":         e.VersionNumber,
			"feedback":        e.Feedback,
		}
		if !e.ResubmissionDeadline.IsZero() {
			data["resubmission_deadline"] = e.ResubmissionDeadline
		}
		d.notifier.Notify(ctx, e.UserID, TemplateReportRejected, data)
	case *grant.PaymentPaidEvent:
		d.notifier.Notify(ctx, e.UserID, TemplatePaymentPaid, map[string]any{
			"reference_month": e.ReferenceMonth.String(),
			"amount":          e.Amount.String(),
		})
	case *grant.BankAccountValidatedEvent:
		d.notifier.Notify(ctx, e.UserID, TemplateBankAccountValidated, nil)
	case *grant.BankAccountReturnedEvent:
		d.notifier.Notify(ctx, e.UserID, TemplateBankAccountReturned, map[string]any{
			"notes": e.Notes,
		})
	default:
		// submissions, cancellations and the like stay internal
		d.logger.Debug("domain event without outbound route",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()))
	}
}
