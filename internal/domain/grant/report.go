package grant

import (
	"fmt"
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReportStatus represents the review status of one submitted report version
type ReportStatus string

const (
	ReportStatusUnderReview ReportStatus = "UNDER_REVIEW" // Submitted, awaiting a manager decision
	ReportStatusApproved    ReportStatus = "APPROVED"     // Accepted; unlocks payment eligibility
	ReportStatusRejected    ReportStatus = "REJECTED"     // Refused with feedback and a resubmission deadline
)

// IsValid checks if the status is a valid ReportStatus
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusUnderReview, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ReportStatus
func (s ReportStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the row has been reviewed. Each Report row
// transitions exactly once; resubmission creates a new row.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusApproved || s == ReportStatusRejected
}

// ReviewDecision is a manager's verdict on a report under review
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// IsValid checks if the decision is one of the allowed verdicts
func (d ReviewDecision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// String returns the string representation of ReviewDecision
func (d ReviewDecision) String() string {
	return string(d)
}

// Report is one submitted document version for an installment. The document
// content is never mutated; a correction supersedes it with a new row whose
// VersionNumber is one higher. Only the review fields change after creation.
type Report struct {
	shared.OrgAggregateRoot
	UserID               uuid.UUID      `json:"user_id"`
	EnrollmentID         uuid.UUID      `json:"enrollment_id"`
	ReferenceMonth       ReferenceMonth `json:"reference_month"`
	InstallmentNumber    int            `json:"installment_number"`
	VersionNumber        int            `json:"version_number"`
	FileKey              string         `json:"file_key"`
	Observations         string         `json:"observations"`
	Status               ReportStatus   `json:"status"`
	Feedback             string         `json:"feedback,omitempty"`
	ResubmissionDeadline *time.Time     `json:"resubmission_deadline,omitempty"`
	SubmittedAt          time.Time      `json:"submitted_at"`
	ReviewedAt           *time.Time     `json:"reviewed_at,omitempty"`
	ReviewedBy           *uuid.UUID     `json:"reviewed_by,omitempty"`
}

// NewReport creates a new report version in UNDER_REVIEW state
func NewReport(
	organizationID uuid.UUID,
	userID uuid.UUID,
	enrollmentID uuid.UUID,
	month ReferenceMonth,
	installmentNumber int,
	versionNumber int,
	fileKey string,
	observations string,
	submittedAt time.Time,
) (*Report, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "User ID cannot be empty")
	}
	if enrollmentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Enrollment ID cannot be empty")
	}
	if !month.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid reference month %q", month))
	}
	if installmentNumber < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Installment number must be positive")
	}
	if versionNumber < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Version number must be positive")
	}
	if fileKey == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Report file reference cannot be empty")
	}

	r := &Report{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(organizationID),
		UserID:            userID,
		EnrollmentID:      enrollmentID,
		ReferenceMonth:    month,
		InstallmentNumber: installmentNumber,
		VersionNumber:     versionNumber,
		FileKey:           fileKey,
		Observations:      observations,
		Status:            ReportStatusUnderReview,
		SubmittedAt:       submittedAt,
	}

	r.AddDomainEvent(NewReportSubmittedEvent(r))

	return r, nil
}

// Key returns the installment key this report version belongs to
func (r *Report) Key() InstallmentKey {
	return NewInstallmentKey(r.UserID, r.ReferenceMonth)
}

// IsUnderReview returns true while the row awaits a decision
func (r *Report) IsUnderReview() bool {
	return r.Status == ReportStatusUnderReview
}

// IsApproved returns true if the report was approved
func (r *Report) IsApproved() bool {
	return r.Status == ReportStatusApproved
}

// IsRejected returns true if the report was rejected
func (r *Report) IsRejected() bool {
	return r.Status == ReportStatusRejected
}

// Approve moves the report to APPROVED. Only valid from UNDER_REVIEW.
func (r *Report) Approve(reviewerID uuid.UUID, now time.Time) error {
	if r.Status != ReportStatusUnderReview {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve report in %s status", r.Status))
	}
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Reviewer ID cannot be empty")
	}

	r.Status = ReportStatusApproved
	r.ReviewedAt = &now
	r.ReviewedBy = &reviewerID
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReportApprovedEvent(r))

	return nil
}

// Reject moves the report to REJECTED with mandatory feedback and stamps the
// resubmission deadline, which lands strictly after ReviewedAt.
func (r *Report) Reject(reviewerID uuid.UUID, feedback string, now time.Time) error {
	if r.Status != ReportStatusUnderReview {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject report in %s status", r.Status))
	}
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Reviewer ID cannot be empty")
	}
	if feedback == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Feedback is required when rejecting a report")
	}

	deadline := ResubmissionDeadline(now)
	r.Status = ReportStatusRejected
	r.Feedback = feedback
	r.ResubmissionDeadline = &deadline
	r.ReviewedAt = &now
	r.ReviewedBy = &reviewerID
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReportRejectedEvent(r))

	return nil
}

// CanResubmitAt reports whether a corrected version may still be submitted at
// the given instant. Only meaningful for rejected rows.
func (r *Report) CanResubmitAt(now time.Time) bool {
	if r.Status != ReportStatusRejected || r.ResubmissionDeadline == nil {
		return false
	}
	return !now.After(*r.ResubmissionDeadline)
}
