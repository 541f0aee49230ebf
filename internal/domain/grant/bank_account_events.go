package grant

import (
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BankAccountSubmittedEvent is raised when a scholar creates or resubmits
// bank account data
type BankAccountSubmittedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID            `json:"account_id"`
	UserID    uuid.UUID            `json:"user_id"`
	Status    BankValidationStatus `json:"status"`
}

// EventType returns the event type name
func (e *BankAccountSubmittedEvent) EventType() string {
	return "BankAccountSubmitted"
}

// NewBankAccountSubmittedEvent creates a new BankAccountSubmittedEvent
func NewBankAccountSubmittedEvent(b *BankAccount) *BankAccountSubmittedEvent {
	return &BankAccountSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankAccountSubmitted", "BankAccount", b.ID, b.OrganizationID),
		AccountID:       b.ID,
		UserID:          b.UserID,
		Status:          b.ValidationStatus,
	}
}

// BankAccountUnderReviewEvent is raised when a manager picks up the account
// for validation
type BankAccountUnderReviewEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// EventType returns the event type name
func (e *BankAccountUnderReviewEvent) EventType() string {
	return "BankAccountUnderReview"
}

// NewBankAccountUnderReviewEvent creates a new BankAccountUnderReviewEvent
func NewBankAccountUnderReviewEvent(b *BankAccount) *BankAccountUnderReviewEvent {
	return &BankAccountUnderReviewEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankAccountUnderReview", "BankAccount", b.ID, b.OrganizationID),
		AccountID:       b.ID,
		UserID:          b.UserID,
	}
}

// BankAccountValidatedEvent is raised when a manager confirms the data
type BankAccountValidatedEvent struct {
	shared.BaseDomainEvent
	AccountID   uuid.UUID `json:"account_id"`
	UserID      uuid.UUID `json:"user_id"`
	ValidatedBy uuid.UUID `json:"validated_by"`
	ValidatedAt time.Time `json:"validated_at"`
}

// EventType returns the event type name
func (e *BankAccountValidatedEvent) EventType() string {
	return "BankAccountValidated"
}

// NewBankAccountValidatedEvent creates a new BankAccountValidatedEvent
func NewBankAccountValidatedEvent(b *BankAccount) *BankAccountValidatedEvent {
	var validatedBy uuid.UUID
	validatedAt := time.Now()
	if b.ValidatedBy != nil {
		validatedBy = *b.ValidatedBy
	}
	if b.ValidatedAt != nil {
		validatedAt = *b.ValidatedAt
	}
	return &BankAccountValidatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankAccountValidated", "BankAccount", b.ID, b.OrganizationID),
		AccountID:       b.ID,
		UserID:          b.UserID,
		ValidatedBy:     validatedBy,
		ValidatedAt:     validatedAt,
	}
}

// BankAccountReturnedEvent is raised when a manager sends the data back
// for correction
type BankAccountReturnedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
	Notes     string    `json:"notes"`
}

// EventType returns the event type name
func (e *BankAccountReturnedEvent) EventType() string {
	return "BankAccountReturned"
}

// NewBankAccountReturnedEvent creates a new BankAccountReturnedEvent
func NewBankAccountReturnedEvent(b *BankAccount) *BankAccountReturnedEvent {
	return &BankAccountReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankAccountReturned", "BankAccount", b.ID, b.OrganizationID),
		AccountID:       b.ID,
		UserID:          b.UserID,
		Notes:           b.ManagerNotes,
	}
}
