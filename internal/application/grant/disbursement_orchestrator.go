package grant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// DisbursementOrchestrator applies review decisions across the report and
// payment aggregates. It is the only component that mutates both inside one
// transaction; everything else writes a single aggregate at a time.
type DisbursementOrchestrator struct {
	tx     TransactionManager
	events *EventDispatcher
	clock  grant.Clock
	logger *zap.Logger
}

func NewDisbursementOrchestrator(
	tx TransactionManager,
	notifier Notifier,
	clock grant.Clock,
	logger *zap.Logger,
) *DisbursementOrchestrator {
	return &DisbursementOrchestrator{
		tx:     tx,
		events: NewEventDispatcher(notifier, logger),
		clock:  clock,
		logger: logger,
	}
}

type ReviewDecisionRequest struct {
	ReportID   uuid.UUID
	ReviewerID uuid.UUID
	Decision   grant.ReviewDecision
	Feedback   string
}

// ReviewDecisionResult carries the post-decision state of both aggregates.
// Payment is nil for rejections, which touch the report alone.
type ReviewDecisionResult struct {
	Report  *grant.Report
	Payment *grant.Payment
}

// ApplyReviewDecision settles a reviewer verdict. Approval flips the report to
// APPROVED and its payment to ELIGIBLE; rejection flips the report to REJECTED
// and stamps the resubmission deadline. Both report and payment status writes
// are compare-and-swap, so a concurrent decision on the same report loses with
// InvalidState and the whole transaction rolls back.
func (o *DisbursementOrchestrator) ApplyReviewDecision(ctx context.Context, req ReviewDecisionRequest) (*ReviewDecisionResult, error) {
	if !req.Decision.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Decision must be APPROVE or REJECT")
	}

	now := o.clock.Now()
	result := &ReviewDecisionResult{}

	err := o.tx.Do(ctx, func(ctx context.Context, repos Repositories) error {
		report, err := repos.Reports.FindByID(ctx, req.ReportID)
		if err != nil {
			return err
		}
		prevReport := reportSnapshot(report)

		var prevPayment, newPayment map[string]any

		switch req.Decision {
		case grant.DecisionApprove:
			if err := report.Approve(req.ReviewerID, now); err != nil {
				return err
			}
			if err := repos.Reports.UpdateStatusIfCurrent(ctx, report, grant.ReportStatusUnderReview); err != nil {
				return err
			}

			payment, err := repos.Payments.FindByKey(ctx, report.Key())
			if err != nil {
				return err
			}
			prevPayment = paymentSnapshot(payment)
			if err := payment.MarkEligible(report.ID); err != nil {
				return err
			}
			if err := repos.Payments.UpdateStatusIfCurrent(ctx, payment, grant.PaymentStatusPending); err != nil {
				return err
			}
			newPayment = paymentSnapshot(payment)
			result.Payment = payment

		case grant.DecisionReject:
			if err := report.Reject(req.ReviewerID, req.Feedback, now); err != nil {
				return err
			}
			if err := repos.Reports.UpdateStatusIfCurrent(ctx, report, grant.ReportStatusUnderReview); err != nil {
				return err
			}
		}

		result.Report = report

		details := map[string]any{
			"decision":        req.Decision.String(),
			"reference_month": report.ReferenceMonth.String(),
			"version":         report.VersionNumber,
		}
		if prevPayment != nil {
			details["payment_previous"] = prevPayment
			details["payment_new"] = newPayment
		}

		// One audit entry covers both mutations; it commits or rolls back
		// with them.
		return repos.Audit.Record(ctx, AuditRecord{
			ActorID:       req.ReviewerID,
			Action:        "report_review_" + string(req.Decision),
			EntityType:    "report",
			EntityID:      report.ID,
			PreviousValue: prevReport,
			NewValue:      reportSnapshot(report),
			Details:       details,
		})
	})
	if err != nil {
		return nil, o.classifyFailure(err)
	}

	o.logger.Info("review decision applied",
		zap.String("report_id", req.ReportID.String()),
		zap.String("decision", req.Decision.String()),
		zap.String("reviewer_id", req.ReviewerID.String()))

	o.events.Dispatch(ctx, result.Report)
	if result.Payment != nil {
		o.events.Dispatch(ctx, result.Payment)
	}

	return result, nil
}

// classifyFailure keeps business outcomes as-is and wraps storage failures so
// the caller sees a single atomic-operation error instead of a half-described
// infrastructure one.
func (o *DisbursementOrchestrator) classifyFailure(err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	o.logger.Error("review decision transaction failed", zap.Error(err))
	return shared.NewDomainError("PARTIAL_FAILURE", "Review decision could not be applied atomically: "+err.Error())
}
