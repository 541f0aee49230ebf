package grant

import (
	"fmt"
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BankValidationStatus represents where a bank account sits in the manager
// validation workflow
type BankValidationStatus string

const (
	BankStatusPending     BankValidationStatus = "PENDING"      // Submitted, not yet picked up
	BankStatusUnderReview BankValidationStatus = "UNDER_REVIEW" // A manager is checking the data
	BankStatusValidated   BankValidationStatus = "VALIDATED"    // Confirmed correct; data frozen
	BankStatusReturned    BankValidationStatus = "RETURNED"     // Sent back with notes for correction
)

// IsValid checks if the status is a valid BankValidationStatus
func (s BankValidationStatus) IsValid() bool {
	switch s {
	case BankStatusPending, BankStatusUnderReview, BankStatusValidated, BankStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of BankValidationStatus
func (s BankValidationStatus) String() string {
	return string(s)
}

// LocksEditing returns true when the owning scholar may not mutate bank fields
func (s BankValidationStatus) LocksEditing() bool {
	return s == BankStatusUnderReview || s == BankStatusValidated
}

// BankAccountDetails are the scholar-editable bank fields
type BankAccountDetails struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	BranchNumber  string `json:"branch_number"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	PixKey        string `json:"pix_key"`
}

// Validate checks the minimum fields needed to attempt a disbursement
func (d BankAccountDetails) Validate() error {
	if d.BankCode == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Bank code cannot be empty")
	}
	if d.BranchNumber == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Branch number cannot be empty")
	}
	if d.AccountNumber == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Account number cannot be empty")
	}
	return nil
}

// BankAccount holds the account data funding a scholar's disbursements. The
// scholar owns the account fields; a manager owns the validation status and
// the edit lock. Validation is advisory for settlement: an unvalidated account
// never blocks MarkPaid, it only surfaces a warning.
type BankAccount struct {
	shared.OrgAggregateRoot
	UserID           uuid.UUID            `json:"user_id"`
	Details          BankAccountDetails   `json:"details"`
	ValidationStatus BankValidationStatus `json:"validation_status"`
	LockedForEdit    bool                 `json:"locked_for_edit"`
	ValidatedBy      *uuid.UUID           `json:"validated_by,omitempty"`
	ValidatedAt      *time.Time           `json:"validated_at,omitempty"`
	ManagerNotes     string               `json:"manager_notes,omitempty"`
}

// NewBankAccount creates a bank account in PENDING validation state
func NewBankAccount(organizationID, userID uuid.UUID, details BankAccountDetails) (*BankAccount, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "User ID cannot be empty")
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	b := &BankAccount{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		UserID:           userID,
		Details:          details,
		ValidationStatus: BankStatusPending,
		LockedForEdit:    false,
	}

	b.AddDomainEvent(NewBankAccountSubmittedEvent(b))

	return b, nil
}

// UpdateDetails replaces the scholar-editable fields. Fails with Locked while
// a review is in flight or the data is validated. A resubmission after RETURNED
// resets the workflow to PENDING and clears the manager notes.
func (b *BankAccount) UpdateDetails(details BankAccountDetails) error {
	if b.LockedForEdit {
		return shared.ErrLocked
	}
	if err := details.Validate(); err != nil {
		return err
	}

	b.Details = details
	if b.ValidationStatus == BankStatusReturned {
		b.ValidationStatus = BankStatusPending
		b.ManagerNotes = ""
	}
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBankAccountSubmittedEvent(b))

	return nil
}

// BeginReview moves PENDING or RETURNED to UNDER_REVIEW and locks editing
func (b *BankAccount) BeginReview() error {
	if b.ValidationStatus != BankStatusPending && b.ValidationStatus != BankStatusReturned {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot begin review from %s status", b.ValidationStatus))
	}

	b.ValidationStatus = BankStatusUnderReview
	b.LockedForEdit = true
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBankAccountUnderReviewEvent(b))

	return nil
}

// Validate moves UNDER_REVIEW to VALIDATED. The lock stays on: validated data
// is frozen until a future re-review flow unlocks it.
func (b *BankAccount) Validate(validatorID uuid.UUID, now time.Time) error {
	if b.ValidationStatus != BankStatusUnderReview {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot validate from %s status", b.ValidationStatus))
	}
	if validatorID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Validator ID cannot be empty")
	}

	b.ValidationStatus = BankStatusValidated
	b.ValidatedBy = &validatorID
	b.ValidatedAt = &now
	b.LockedForEdit = true
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBankAccountValidatedEvent(b))

	return nil
}

// Return sends the account back to the scholar with mandatory notes,
// unlocking the fields for correction
func (b *BankAccount) Return(notes string, now time.Time) error {
	if b.ValidationStatus != BankStatusUnderReview {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot return from %s status", b.ValidationStatus))
	}
	if notes == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Notes are required when returning a bank account")
	}

	b.ValidationStatus = BankStatusReturned
	b.ManagerNotes = notes
	b.LockedForEdit = false
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBankAccountReturnedEvent(b))

	return nil
}

// IsValidated returns true when the data is safe to disburse against
func (b *BankAccount) IsValidated() bool {
	return b.ValidationStatus == BankStatusValidated
}
