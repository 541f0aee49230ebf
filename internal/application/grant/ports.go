package grant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/grant"
)

// BlobStore is the object storage collaborator used for report files and
// payment receipts. The engine stores bytes under a key and never interprets
// file contents.
type BlobStore interface {
	// Put stores data under the given key
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves the data stored under the key
	Get(ctx context.Context, key string) ([]byte, error)

	// SignedURL returns a pre-signed download URL valid for the given TTL
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AuditRecord is one append-only entry describing a state-changing action
type AuditRecord struct {
	ActorID       uuid.UUID
	Action        string
	EntityType    string
	EntityID      uuid.UUID
	PreviousValue any
	NewValue      any
	Details       map[string]any
}

// AuditSink records state-changing actions. Every operation in the
// disbursement lifecycle calls it exactly once per state change. Outside the
// orchestrator's transaction a failed audit write surfaces as a warning on the
// result, never as a rollback of the primary mutation.
type AuditSink interface {
	Record(ctx context.Context, record AuditRecord) error
}

// Notifier delivers fire-and-forget status-change notifications. Delivery,
// retries and templates are owned by the collaborator; implementations must
// never fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, templateKey string, data map[string]any)
}

// Repositories bundles the repository set bound to one transaction, plus the
// audit sink writing into the same transaction.
type Repositories struct {
	Enrollments  grant.EnrollmentRepository
	Reports      grant.ReportRepository
	Payments     grant.PaymentRepository
	BankAccounts grant.BankAccountRepository
	Audit        AuditSink
}

// TransactionManager runs a function inside a single storage transaction.
// Everything touched through the provided Repositories commits or rolls back
// together.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// signedURLTTL is how long pre-signed download links for report files and
// payment receipts stay valid
const signedURLTTL = 15 * time.Minute

// Notification template keys sent by the services in this package
const (
	TemplateReportApproved       = "report_approved"
	TemplateReportRejected       = "report_rejected"
	TemplatePaymentPaid          = "payment_paid"
	TemplateBankAccountValidated = "bank_account_validated"
	TemplateBankAccountReturned  = "bank_account_returned"
)
