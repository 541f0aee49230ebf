package grant

import (
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEligibleEvent is raised when an approved report unlocks a payment
type PaymentEligibleEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	UserID         uuid.UUID       `json:"user_id"`
	ReferenceMonth ReferenceMonth  `json:"reference_month"`
	Amount         decimal.Decimal `json:"amount"`
	ReportID       uuid.UUID       `json:"report_id"`
}

// EventType returns the event type name
func (e *PaymentEligibleEvent) EventType() string {
	return "PaymentEligible"
}

// NewPaymentEligibleEvent creates a new PaymentEligibleEvent
func NewPaymentEligibleEvent(p *Payment) *PaymentEligibleEvent {
	var reportID uuid.UUID
	if p.ReportID != nil {
		reportID = *p.ReportID
	}
	return &PaymentEligibleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentEligible", "Payment", p.ID, p.OrganizationID),
		PaymentID:       p.ID,
		UserID:          p.UserID,
		ReferenceMonth:  p.ReferenceMonth,
		Amount:          p.Amount,
		ReportID:        reportID,
	}
}

// PaymentPaidEvent is raised when a manager records the disbursement
type PaymentPaidEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	UserID         uuid.UUID       `json:"user_id"`
	ReferenceMonth ReferenceMonth  `json:"reference_month"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAt         time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *PaymentPaidEvent) EventType() string {
	return "PaymentPaid"
}

// NewPaymentPaidEvent creates a new PaymentPaidEvent
func NewPaymentPaidEvent(p *Payment) *PaymentPaidEvent {
	paidAt := time.Now()
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	return &PaymentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentPaid", "Payment", p.ID, p.OrganizationID),
		PaymentID:       p.ID,
		UserID:          p.UserID,
		ReferenceMonth:  p.ReferenceMonth,
		Amount:          p.Amount,
		PaidAt:          paidAt,
	}
}

// PaymentCancelledEvent is raised when a payment obligation is withdrawn
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID      `json:"payment_id"`
	UserID         uuid.UUID      `json:"user_id"`
	ReferenceMonth ReferenceMonth `json:"reference_month"`
}

// EventType returns the event type name
func (e *PaymentCancelledEvent) EventType() string {
	return "PaymentCancelled"
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCancelled", "Payment", p.ID, p.OrganizationID),
		PaymentID:       p.ID,
		UserID:          p.UserID,
		ReferenceMonth:  p.ReferenceMonth,
	}
}
