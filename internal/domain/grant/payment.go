package grant

import (
	"fmt"
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement status of one disbursement obligation
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // Waiting for an approved report
	PaymentStatusEligible  PaymentStatus = "ELIGIBLE"  // Approved for disbursement, not yet paid
	PaymentStatusPaid      PaymentStatus = "PAID"      // Disbursement recorded
	PaymentStatusCancelled PaymentStatus = "CANCELLED" // Withdrawn before payment
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusEligible, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

// CanCancel returns true if the payment can still be withdrawn
func (s PaymentStatus) CanCancel() bool {
	return s == PaymentStatusPending || s == PaymentStatusEligible
}

// Payment is one disbursement obligation generated at enrollment time, one per
// installment. It moves PENDING -> ELIGIBLE -> PAID linearly, with CANCELLED
// reachable from the first two states as an alternate terminal.
type Payment struct {
	shared.OrgAggregateRoot
	UserID            uuid.UUID       `json:"user_id"`
	EnrollmentID      uuid.UUID       `json:"enrollment_id"`
	InstallmentNumber int             `json:"installment_number"`
	ReferenceMonth    ReferenceMonth  `json:"reference_month"`
	Amount            decimal.Decimal `json:"amount"`
	Status            PaymentStatus   `json:"status"`
	ReportID          *uuid.UUID      `json:"report_id,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	ReceiptKey        string          `json:"receipt_key,omitempty"`
}

// NewPayment creates a pending payment for one installment slot
func NewPayment(
	organizationID uuid.UUID,
	userID uuid.UUID,
	enrollmentID uuid.UUID,
	installmentNumber int,
	month ReferenceMonth,
	amount decimal.Decimal,
) (*Payment, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "User ID cannot be empty")
	}
	if enrollmentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Enrollment ID cannot be empty")
	}
	if installmentNumber < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Installment number must be positive")
	}
	if !month.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid reference month %q", month))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}

	return &Payment{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(organizationID),
		UserID:            userID,
		EnrollmentID:      enrollmentID,
		InstallmentNumber: installmentNumber,
		ReferenceMonth:    month,
		Amount:            amount,
		Status:            PaymentStatusPending,
	}, nil
}

// Key returns the installment key this payment belongs to
func (p *Payment) Key() InstallmentKey {
	return NewInstallmentKey(p.UserID, p.ReferenceMonth)
}

// MarkEligible moves the payment to ELIGIBLE, linking the approved report that
// unlocked it. Only valid from PENDING, which doubles as the idempotency guard:
// approving the same report twice finds the payment already moved.
func (p *Payment) MarkEligible(reportID uuid.UUID) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark payment eligible in %s status", p.Status))
	}
	if reportID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Report ID cannot be empty")
	}

	p.Status = PaymentStatusEligible
	p.ReportID = &reportID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentEligibleEvent(p))

	return nil
}

// MarkPaid records the disbursement. Only valid from ELIGIBLE. The receipt is
// optional and may be attached retroactively with AttachReceipt.
func (p *Payment) MarkPaid(now time.Time, receiptKey string) error {
	if p.Status != PaymentStatusEligible {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark payment paid in %s status", p.Status))
	}

	p.Status = PaymentStatusPaid
	p.PaidAt = &now
	if receiptKey != "" {
		p.ReceiptKey = receiptKey
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentPaidEvent(p))

	return nil
}

// AttachReceipt stores a receipt reference on an already paid payment.
// Pure metadata update: status and PaidAt are untouched.
func (p *Payment) AttachReceipt(receiptKey string) error {
	if p.Status != PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach receipt to payment in %s status", p.Status))
	}
	if receiptKey == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Receipt reference cannot be empty")
	}

	p.ReceiptKey = receiptKey
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Cancel withdraws the payment. Allowed from PENDING or ELIGIBLE; terminal.
func (p *Payment) Cancel() error {
	if !p.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel payment in %s status", p.Status))
	}

	p.Status = PaymentStatusCancelled
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCancelledEvent(p))

	return nil
}

// AmountVisible is the read-side masking policy: the grant amount stays hidden
// from the scholar until the payment is eligible or paid.
func (p *Payment) AmountVisible() bool {
	return p.Status == PaymentStatusEligible || p.Status == PaymentStatusPaid
}

// IsPending returns true if the payment still waits for an approved report
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsEligible returns true if the payment is approved for disbursement
func (p *Payment) IsEligible() bool {
	return p.Status == PaymentStatusEligible
}

// IsPaid returns true if the disbursement has been recorded
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
