package grant

import (
	"fmt"
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents a scholar's participation status in a subproject
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid EnrollmentStatus
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusSuspended, EnrollmentStatusCompleted, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of EnrollmentStatus
func (s EnrollmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the enrollment can no longer change status
func (s EnrollmentStatus) IsTerminal() bool {
	return s == EnrollmentStatusCompleted || s == EnrollmentStatusCancelled
}

// Enrollment is a scholar's assignment to a subproject under a modality with a
// monthly grant value. The installment/payment schedule is generated once at
// creation; after payments reference it, only the status may change.
type Enrollment struct {
	shared.OrgAggregateRoot
	UserID            uuid.UUID        `json:"user_id"`
	SubprojectID      uuid.UUID        `json:"subproject_id"`
	Modality          string           `json:"modality"`
	GrantValue        decimal.Decimal  `json:"grant_value"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
	TotalInstallments int              `json:"total_installments"`
	Status            EnrollmentStatus `json:"status"`
}

// NewEnrollment creates an active enrollment
func NewEnrollment(
	organizationID uuid.UUID,
	userID uuid.UUID,
	subprojectID uuid.UUID,
	modality string,
	grantValue decimal.Decimal,
	startDate time.Time,
	endDate time.Time,
	totalInstallments int,
) (*Enrollment, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "User ID cannot be empty")
	}
	if subprojectID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Subproject ID cannot be empty")
	}
	if grantValue.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Grant value must be positive")
	}
	if totalInstallments < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total installments must be at least 1")
	}
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "End date must be after start date")
	}

	e := &Enrollment{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(organizationID),
		UserID:            userID,
		SubprojectID:      subprojectID,
		Modality:          modality,
		GrantValue:        grantValue,
		StartDate:         startDate,
		EndDate:           endDate,
		TotalInstallments: totalInstallments,
		Status:            EnrollmentStatusActive,
	}

	e.AddDomainEvent(NewEnrollmentCreatedEvent(e))

	return e, nil
}

// GeneratePayments builds the pending payment schedule: one payment per
// installment, consecutive reference months starting at the start date's
// month, each for the monthly grant value.
func (e *Enrollment) GeneratePayments() ([]*Payment, error) {
	payments := make([]*Payment, 0, e.TotalInstallments)
	month := NewReferenceMonth(e.StartDate)
	for i := 1; i <= e.TotalInstallments; i++ {
		p, err := NewPayment(e.OrganizationID, e.UserID, e.ID, i, month, e.GrantValue)
		if err != nil {
			return nil, fmt.Errorf("failed to generate payment %d: %w", i, err)
		}
		payments = append(payments, p)
		month = month.Next()
	}
	return payments, nil
}

// Suspend pauses an active enrollment
func (e *Enrollment) Suspend() error {
	if e.Status != EnrollmentStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot suspend enrollment in %s status", e.Status))
	}
	e.setStatus(EnrollmentStatusSuspended)
	return nil
}

// Resume reactivates a suspended enrollment
func (e *Enrollment) Resume() error {
	if e.Status != EnrollmentStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resume enrollment in %s status", e.Status))
	}
	e.setStatus(EnrollmentStatusActive)
	return nil
}

// Complete closes out an enrollment that ran its full course
func (e *Enrollment) Complete() error {
	if e.Status != EnrollmentStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete enrollment in %s status", e.Status))
	}
	e.setStatus(EnrollmentStatusCompleted)
	return nil
}

// Cancel terminates the enrollment early
func (e *Enrollment) Cancel() error {
	if e.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel enrollment in %s status", e.Status))
	}
	e.setStatus(EnrollmentStatusCancelled)
	return nil
}

func (e *Enrollment) setStatus(status EnrollmentStatus) {
	previous := e.Status
	e.Status = status
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	e.AddDomainEvent(NewEnrollmentStatusChangedEvent(e, previous))
}

// IsActive returns true if the enrollment is active
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// TotalGrantAmount returns the grant value over the whole installment schedule
func (e *Enrollment) TotalGrantAmount() valueobject.Money {
	return valueobject.NewMoneyBRL(e.GrantValue).MultiplyByInt(int64(e.TotalInstallments))
}
