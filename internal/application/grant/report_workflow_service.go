package grant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// ReportWorkflowService handles submission and consultation of monthly
// activity reports. Review decisions are applied through the
// DisbursementOrchestrator so that the report and its payment change in the
// same transaction.
type ReportWorkflowService struct {
	reports      grant.ReportRepository
	enrollments  grant.EnrollmentRepository
	tx           TransactionManager
	blobs        BlobStore
	orchestrator *DisbursementOrchestrator
	events       *EventDispatcher
	clock        grant.Clock
	logger       *zap.Logger
}

func NewReportWorkflowService(
	reports grant.ReportRepository,
	enrollments grant.EnrollmentRepository,
	tx TransactionManager,
	blobs BlobStore,
	orchestrator *DisbursementOrchestrator,
	notifier Notifier,
	clock grant.Clock,
	logger *zap.Logger,
) *ReportWorkflowService {
	return &ReportWorkflowService{
		reports:      reports,
		enrollments:  enrollments,
		tx:           tx,
		blobs:        blobs,
		orchestrator: orchestrator,
		events:       NewEventDispatcher(notifier, logger),
		clock:        clock,
		logger:       logger,
	}
}

type SubmitReportRequest struct {
	OrganizationID    uuid.UUID
	UserID            uuid.UUID
	EnrollmentID      uuid.UUID
	ReferenceMonth    string
	InstallmentNumber int
	FileName          string
	FileContent       []byte
	Observations      string
}

// Submit creates a new report version for the installment. The first
// submission for a month must target a past or current month; after a
// rejection a corrected version must arrive before the resubmission deadline.
func (s *ReportWorkflowService) Submit(ctx context.Context, req SubmitReportRequest) (*grant.Report, error) {
	month, err := grant.ParseReferenceMonth(req.ReferenceMonth)
	if err != nil {
		return nil, err
	}
	if len(req.FileContent) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Report file is required")
	}
	if req.FileName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Report file name is required")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if !enrollment.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Enrollment is not active")
	}

	key := grant.NewInstallmentKey(req.UserID, month)
	now := s.clock.Now()

	var report *grant.Report
	err = s.tx.Do(ctx, func(ctx context.Context, repos Repositories) error {
		latest, err := repos.Reports.FindLatestVersion(ctx, key)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if latest != nil {
			switch latest.Status {
			case grant.ReportStatusUnderReview:
				return shared.NewDomainError("CONFLICT", "A report for this month is already under review")
			case grant.ReportStatusApproved:
				return shared.NewDomainError("CONFLICT", "Report for this month is already approved")
			case grant.ReportStatusRejected:
				if !latest.CanResubmitAt(now) {
					return shared.NewDomainError("DEADLINE_EXPIRED", "Resubmission deadline has expired")
				}
			}
		} else if grant.ClassifyReferenceMonth(s.clock, month) == grant.MonthFuture {
			return shared.NewDomainError("OUT_OF_WINDOW", "Cannot submit a report for a future month")
		}

		count, err := repos.Reports.CountVersions(ctx, key)
		if err != nil {
			return err
		}
		version := int(count) + 1

		fileKey := fmt.Sprintf("reports/%s/%s/v%d/%s", req.UserID, month, version, req.FileName)
		if err := s.blobs.Put(ctx, fileKey, req.FileContent, http.DetectContentType(req.FileContent)); err != nil {
			return fmt.Errorf("failed to store report file: %w", err)
		}

		report, err = grant.NewReport(req.OrganizationID, req.UserID, req.EnrollmentID, month, req.InstallmentNumber, version, fileKey, req.Observations, now)
		if err != nil {
			return err
		}
		if err := repos.Reports.Create(ctx, report); err != nil {
			return err
		}

		return repos.Audit.Record(ctx, AuditRecord{
			ActorID:    req.UserID,
			Action:     "report_submitted",
			EntityType: "report",
			EntityID:   report.ID,
			NewValue:   reportSnapshot(report),
			Details:    map[string]any{"reference_month": month.String(), "version": version},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("reference_month", month.String()),
		zap.Int("version", report.VersionNumber))
	s.events.Dispatch(ctx, report)
	return report, nil
}

// Review applies a reviewer decision to a report under review. Approval also
// flips the matching payment to eligible in the same transaction.
func (s *ReportWorkflowService) Review(ctx context.Context, req ReviewDecisionRequest) (*ReviewDecisionResult, error) {
	return s.orchestrator.ApplyReviewDecision(ctx, req)
}

// Get returns a single report by id
func (s *ReportWorkflowService) Get(ctx context.Context, id uuid.UUID) (*grant.Report, error) {
	return s.reports.FindByID(ctx, id)
}

// GetVersions returns every version submitted for the installment, newest
// first
func (s *ReportWorkflowService) GetVersions(ctx context.Context, userID uuid.UUID, referenceMonth string) ([]grant.Report, error) {
	month, err := grant.ParseReferenceMonth(referenceMonth)
	if err != nil {
		return nil, err
	}
	return s.reports.FindVersions(ctx, grant.NewInstallmentKey(userID, month))
}

// List returns reports matching the filter
func (s *ReportWorkflowService) List(ctx context.Context, filter grant.ReportFilter) ([]grant.Report, error) {
	return s.reports.FindAll(ctx, filter)
}

// FileURL returns a pre-signed download URL for the report file
func (s *ReportWorkflowService) FileURL(ctx context.Context, id uuid.UUID) (string, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.blobs.SignedURL(ctx, report.FileKey, signedURLTTL)
}
