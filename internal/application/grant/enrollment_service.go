package grant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// EnrollmentService manages scholar enrollments and the payment schedules
// generated from them
type EnrollmentService struct {
	enrollments grant.EnrollmentRepository
	tx          TransactionManager
	audit       AuditSink
	events      *EventDispatcher
	logger      *zap.Logger
}

func NewEnrollmentService(
	enrollments grant.EnrollmentRepository,
	tx TransactionManager,
	audit AuditSink,
	notifier Notifier,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		events:      NewEventDispatcher(notifier, logger),
		logger:      logger,
	}
}

type CreateEnrollmentRequest struct {
	OrganizationID    uuid.UUID
	UserID            uuid.UUID
	SubprojectID      uuid.UUID
	Modality          string
	GrantValue        decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	TotalInstallments int
}

// Create registers the enrollment and generates its full pending payment
// schedule in one transaction, one payment per installment month.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*grant.Enrollment, error) {
	enrollment, err := grant.NewEnrollment(
		req.OrganizationID,
		req.UserID,
		req.SubprojectID,
		req.Modality,
		req.GrantValue,
		req.StartDate,
		req.EndDate,
		req.TotalInstallments,
	)
	if err != nil {
		return nil, err
	}

	payments, err := enrollment.GeneratePayments()
	if err != nil {
		return nil, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Enrollments.Create(ctx, enrollment); err != nil {
			return err
		}
		if err := repos.Payments.CreateBatch(ctx, payments); err != nil {
			return err
		}
		return repos.Audit.Record(ctx, AuditRecord{
			ActorID:    req.UserID,
			Action:     "enrollment_created",
			EntityType: "enrollment",
			EntityID:   enrollment.ID,
			NewValue:   enrollmentSnapshot(enrollment),
			Details:    map[string]any{"payments_generated": len(payments)},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.Int("installments", len(payments)))
	s.events.Dispatch(ctx, enrollment)
	return enrollment, nil
}

// EnrollmentUpdateResult pairs the mutated enrollment with advisory warnings
type EnrollmentUpdateResult struct {
	Enrollment   *grant.Enrollment
	AuditWarning bool
}

// ChangeStatus applies a status transition to the enrollment
func (s *EnrollmentService) ChangeStatus(ctx context.Context, enrollmentID, actorID uuid.UUID, target grant.EnrollmentStatus) (*EnrollmentUpdateResult, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	prev := enrollmentSnapshot(enrollment)
	switch target {
	case grant.EnrollmentStatusSuspended:
		err = enrollment.Suspend()
	case grant.EnrollmentStatusActive:
		err = enrollment.Resume()
	case grant.EnrollmentStatusCompleted:
		err = enrollment.Complete()
	case grant.EnrollmentStatusCancelled:
		err = enrollment.Cancel()
	default:
		err = shared.NewDomainError("INVALID_INPUT", "Unknown enrollment status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}

	warn := false
	if err := s.audit.Record(ctx, AuditRecord{
		ActorID:       actorID,
		Action:        "enrollment_status_changed",
		EntityType:    "enrollment",
		EntityID:      enrollment.ID,
		PreviousValue: prev,
		NewValue:      enrollmentSnapshot(enrollment),
	}); err != nil {
		warn = true
		s.logger.Warn("audit record failed",
			zap.String("enrollment_id", enrollment.ID.String()),
			zap.Error(err))
	}

	s.events.Dispatch(ctx, enrollment)
	return &EnrollmentUpdateResult{Enrollment: enrollment, AuditWarning: warn}, nil
}

// Get returns a single enrollment by id
func (s *EnrollmentService) Get(ctx context.Context, id uuid.UUID) (*grant.Enrollment, error) {
	return s.enrollments.FindByID(ctx, id)
}

// List returns enrollments matching the filter
func (s *EnrollmentService) List(ctx context.Context, filter grant.EnrollmentFilter) ([]grant.Enrollment, int64, error) {
	enrollments, err := s.enrollments.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.enrollments.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}
