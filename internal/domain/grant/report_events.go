package grant

import (
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReportSubmittedEvent is raised when a scholar submits a new report version
type ReportSubmittedEvent struct {
	shared.BaseDomainEvent
	ReportID          uuid.UUID      `json:"report_id"`
	UserID            uuid.UUID      `json:"user_id"`
	ReferenceMonth    ReferenceMonth `json:"reference_month"`
	InstallmentNumber int            `json:"installment_number"`
	VersionNumber     int            `json:"version_number"`
	SubmittedAt       time.Time      `json:"submitted_at"`
}

// EventType returns the event type name
func (e *ReportSubmittedEvent) EventType() string {
	return "ReportSubmitted"
}

// NewReportSubmittedEvent creates a new ReportSubmittedEvent
func NewReportSubmittedEvent(r *Report) *ReportSubmittedEvent {
	return &ReportSubmittedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("ReportSubmitted", "Report", r.ID, r.OrganizationID),
		ReportID:          r.ID,
		UserID:            r.UserID,
		ReferenceMonth:    r.ReferenceMonth,
		InstallmentNumber: r.InstallmentNumber,
		VersionNumber:     r.VersionNumber,
		SubmittedAt:       r.SubmittedAt,
	}
}

// ReportApprovedEvent is raised when a manager approves a report
type ReportApprovedEvent struct {
	shared.BaseDomainEvent
	ReportID       uuid.UUID      `json:"report_id"`
	UserID         uuid.UUID      `json:"user_id"`
	ReferenceMonth ReferenceMonth `json:"reference_month"`
	VersionNumber  int            `json:"version_number"`
	ReviewedBy     uuid.UUID      `json:"reviewed_by"`
	ReviewedAt     time.Time      `json:"reviewed_at"`
}

// EventType returns the event type name
func (e *ReportApprovedEvent) EventType() string {
	return "ReportApproved"
}

// NewReportApprovedEvent creates a new ReportApprovedEvent
func NewReportApprovedEvent(r *Report) *ReportApprovedEvent {
	var reviewedBy uuid.UUID
	reviewedAt := time.Now()
	if r.ReviewedBy != nil {
		reviewedBy = *r.ReviewedBy
	}
	if r.ReviewedAt != nil {
		reviewedAt = *r.ReviewedAt
	}
	return &ReportApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReportApproved", "Report", r.ID, r.OrganizationID),
		ReportID:        r.ID,
		UserID:          r.UserID,
		ReferenceMonth:  r.ReferenceMonth,
		VersionNumber:   r.VersionNumber,
		ReviewedBy:      reviewedBy,
		ReviewedAt:      reviewedAt,
	}
}

// ReportRejectedEvent is raised when a manager rejects a report with feedback
type ReportRejectedEvent struct {
	shared.BaseDomainEvent
	ReportID             uuid.UUID      `json:"report_id"`
	UserID               uuid.UUID      `json:"user_id"`
	ReferenceMonth       ReferenceMonth `json:"reference_month"`
	VersionNumber        int            `json:"version_number"`
	Feedback             string         `json:"feedback"`
	ResubmissionDeadline time.Time      `json:"resubmission_deadline"`
	ReviewedBy           uuid.UUID      `json:"reviewed_by"`
}

// EventType returns the event type name
func (e *ReportRejectedEvent) EventType() string {
	return "ReportRejected"
}

// NewReportRejectedEvent creates a new ReportRejectedEvent
func NewReportRejectedEvent(r *Report) *ReportRejectedEvent {
	var reviewedBy uuid.UUID
	var deadline time.Time
	if r.ReviewedBy != nil {
		reviewedBy = *r.ReviewedBy
	}
	if r.ResubmissionDeadline != nil {
		deadline = *r.ResubmissionDeadline
	}
	return &ReportRejectedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent("ReportRejected", "Report", r.ID, r.OrganizationID),
		ReportID:             r.ID,
		UserID:               r.UserID,
		ReferenceMonth:       r.ReferenceMonth,
		VersionNumber:        r.VersionNumber,
		Feedback:             r.Feedback,
		ResubmissionDeadline: deadline,
		ReviewedBy:           reviewedBy,
	}
}
