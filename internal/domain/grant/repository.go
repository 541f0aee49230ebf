package grant

import (
	"context"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReportFilter defines filtering options for report queries
type ReportFilter struct {
	shared.Filter
	UserID         *uuid.UUID
	EnrollmentID   *uuid.UUID
	ReferenceMonth *ReferenceMonth
	Status         *ReportStatus
}

// ReportRepository defines the interface for report persistence. Report rows
// are append-only for content; only the review fields of one row mutate, and
// that mutation goes through the conditional update.
type ReportRepository interface {
	// FindByID finds a report by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// FindVersions returns all report versions for an installment key,
	// newest first
	FindVersions(ctx context.Context, key InstallmentKey) ([]Report, error)

	// FindLatestVersion returns the most recent report version for a key,
	// or shared.ErrNotFound when none exists
	FindLatestVersion(ctx context.Context, key InstallmentKey) (*Report, error)

	// FindUnderReview returns the report currently under review for a key,
	// or shared.ErrNotFound. At most one such row exists per key.
	FindUnderReview(ctx context.Context, key InstallmentKey) (*Report, error)

	// CountVersions counts existing report versions for a key. Called inside
	// the submit transaction so version numbers stay gapless under retries.
	CountVersions(ctx context.Context, key InstallmentKey) (int64, error)

	// Create inserts a new report version
	Create(ctx context.Context, report *Report) error

	// UpdateStatusIfCurrent persists the review fields only if the stored row
	// still has the expected status (compare-and-swap). Returns
	// shared.ErrInvalidState when another reviewer got there first.
	UpdateStatusIfCurrent(ctx context.Context, report *Report, expected ReportStatus) error

	// FindAll lists reports matching the filter
	FindAll(ctx context.Context, filter ReportFilter) ([]Report, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	UserID         *uuid.UUID
	EnrollmentID   *uuid.UUID
	ReferenceMonth *ReferenceMonth
	Status         *PaymentStatus
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByKey finds the payment for an installment key, or shared.ErrNotFound
	FindByKey(ctx context.Context, key InstallmentKey) (*Payment, error)

	// FindByEnrollment returns all payments for an enrollment, ordered by
	// installment number
	FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]Payment, error)

	// CreateBatch inserts the payment schedule generated at enrollment time
	CreateBatch(ctx context.Context, payments []*Payment) error

	// Save persists the payment, stamping optimistic lock failures as
	// shared.ErrConcurrencyConflict
	Save(ctx context.Context, payment *Payment) error

	// UpdateStatusIfCurrent persists a status transition only if the stored
	// row still has the expected status (compare-and-swap). Returns
	// shared.ErrInvalidState when the row already moved.
	UpdateStatusIfCurrent(ctx context.Context, payment *Payment, expected PaymentStatus) error

	// FindAll lists payments matching the filter
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
}

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	// FindByID finds a bank account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// FindByUser finds the bank account owned by a scholar, or shared.ErrNotFound
	FindByUser(ctx context.Context, userID uuid.UUID) (*BankAccount, error)

	// Create inserts a new bank account
	Create(ctx context.Context, account *BankAccount) error

	// Save persists the account with an optimistic lock version check
	Save(ctx context.Context, account *BankAccount) error
}

// EnrollmentFilter defines filtering options for enrollment queries
type EnrollmentFilter struct {
	shared.Filter
	UserID       *uuid.UUID
	SubprojectID *uuid.UUID
	Status       *EnrollmentStatus
}

// EnrollmentRepository defines the interface for enrollment persistence
type EnrollmentRepository interface {
	// FindByID finds an enrollment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Enrollment, error)

	// Create inserts a new enrollment
	Create(ctx context.Context, enrollment *Enrollment) error

	// Save persists the enrollment with an optimistic lock version check
	Save(ctx context.Context, enrollment *Enrollment) error

	// FindAll lists enrollments matching the filter
	FindAll(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)

	// Count counts enrollments matching the filter
	Count(ctx context.Context, filter EnrollmentFilter) (int64, error)
}
