package grant

import (
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnrollmentCreatedEvent is raised when a manager assigns a scholar to a subproject
type EnrollmentCreatedEvent struct {
	shared.BaseDomainEvent
	EnrollmentID      uuid.UUID       `json:"enrollment_id"`
	UserID            uuid.UUID       `json:"user_id"`
	SubprojectID      uuid.UUID       `json:"subproject_id"`
	GrantValue        decimal.Decimal `json:"grant_value"`
	TotalInstallments int             `json:"total_installments"`
}

// EventType returns the event type name
func (e *EnrollmentCreatedEvent) EventType() string {
	return "EnrollmentCreated"
}

// NewEnrollmentCreatedEvent creates a new EnrollmentCreatedEvent
func NewEnrollmentCreatedEvent(en *Enrollment) *EnrollmentCreatedEvent {
	return &EnrollmentCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("EnrollmentCreated", "Enrollment", en.ID, en.OrganizationID),
		EnrollmentID:      en.ID,
		UserID:            en.UserID,
		SubprojectID:      en.SubprojectID,
		GrantValue:        en.GrantValue,
		TotalInstallments: en.TotalInstallments,
	}
}

// EnrollmentStatusChangedEvent is raised on every enrollment status transition
type EnrollmentStatusChangedEvent struct {
	shared.BaseDomainEvent
	EnrollmentID   uuid.UUID        `json:"enrollment_id"`
	UserID         uuid.UUID        `json:"user_id"`
	PreviousStatus EnrollmentStatus `json:"previous_status"`
	NewStatus      EnrollmentStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *EnrollmentStatusChangedEvent) EventType() string {
	return "EnrollmentStatusChanged"
}

// NewEnrollmentStatusChangedEvent creates a new EnrollmentStatusChangedEvent
func NewEnrollmentStatusChangedEvent(en *Enrollment, previous EnrollmentStatus) *EnrollmentStatusChangedEvent {
	return &EnrollmentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("EnrollmentStatusChanged", "Enrollment", en.ID, en.OrganizationID),
		EnrollmentID:    en.ID,
		UserID:          en.UserID,
		PreviousStatus:  previous,
		NewStatus:       en.Status,
	}
}
