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

// PaymentSettlementService records disbursements and manages payment receipts.
// It writes payment rows only; the pending-to-eligible transition belongs to
// the DisbursementOrchestrator because it pairs with a report update.
type PaymentSettlementService struct {
	payments     grant.PaymentRepository
	bankAccounts grant.BankAccountRepository
	blobs        BlobStore
	audit        AuditSink
	events       *EventDispatcher
	idempotency  shared.IdempotencyStore
	idemConfig   shared.IdempotencyConfig
	clock        grant.Clock
	logger       *zap.Logger
}

func NewPaymentSettlementService(
	payments grant.PaymentRepository,
	bankAccounts grant.BankAccountRepository,
	blobs BlobStore,
	audit AuditSink,
	notifier Notifier,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	clock grant.Clock,
	logger *zap.Logger,
) *PaymentSettlementService {
	return &PaymentSettlementService{
		payments:     payments,
		bankAccounts: bankAccounts,
		blobs:        blobs,
		audit:        audit,
		events:       NewEventDispatcher(notifier, logger),
		idempotency:  idempotency,
		idemConfig:   idemConfig,
		clock:        clock,
		logger:       logger,
	}
}

type MarkPaidRequest struct {
	PaymentID      uuid.UUID
	ActorID        uuid.UUID
	ReceiptName    string
	ReceiptContent []byte
	IdempotencyKey string
}

// MarkPaidResult reports the settled payment plus advisory warnings. An
// unvalidated bank account never blocks the disbursement record; it only
// flags the result.
type MarkPaidResult struct {
	Payment                *grant.Payment
	BankAccountUnvalidated bool
	AuditWarning           bool
}

// PaymentUpdateResult pairs a mutated payment with advisory warnings
type PaymentUpdateResult struct {
	Payment      *grant.Payment
	AuditWarning bool
}

// MarkPaid records the disbursement of an eligible payment. The receipt file
// is optional; it can also be attached later with AttachReceipt. Concurrent
// retries lose the compare-and-swap and observe InvalidState.
func (s *PaymentSettlementService) MarkPaid(ctx context.Context, req MarkPaidRequest) (*MarkPaidResult, error) {
	idemKey := "payment-paid:" + req.IdempotencyKey
	if s.idemConfig.Enabled && req.IdempotencyKey != "" {
		processed, err := s.idempotency.IsProcessed(ctx, idemKey)
		if err != nil {
			s.logger.Warn("idempotency check failed, proceeding", zap.Error(err))
		} else if processed {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "This disbursement was already recorded")
		}
	}

	payment, err := s.payments.FindByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	receiptKey := ""
	if len(req.ReceiptContent) > 0 {
		receiptKey = fmt.Sprintf("receipts/%s/%s/%s", payment.UserID, payment.ReferenceMonth, req.ReceiptName)
		if err := s.blobs.Put(ctx, receiptKey, req.ReceiptContent, http.DetectContentType(req.ReceiptContent)); err != nil {
			return nil, fmt.Errorf("failed to store receipt: %w", err)
		}
	}

	prev := paymentSnapshot(payment)
	if err := payment.MarkPaid(s.clock.Now(), receiptKey); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatusIfCurrent(ctx, payment, grant.PaymentStatusEligible); err != nil {
		return nil, err
	}

	// The key is consumed only once the transition is durable, so a retry
	// after any earlier failure is still accepted. Real duplicates racing
	// past the read check lose the compare-and-swap above.
	if s.idemConfig.Enabled && req.IdempotencyKey != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, idemKey, s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to record idempotency key", zap.Error(err))
		}
	}

	result := &MarkPaidResult{Payment: payment}
	if unvalidated := s.bankAccountUnvalidated(ctx, payment.UserID); unvalidated {
		result.BankAccountUnvalidated = true
		s.logger.Warn("payment marked paid against unvalidated bank account",
			zap.String("payment_id", payment.ID.String()),
			zap.String("user_id", payment.UserID.String()))
	}

	result.AuditWarning = s.recordAudit(ctx, AuditRecord{
		ActorID:       req.ActorID,
		Action:        "payment_paid",
		EntityType:    "payment",
		EntityID:      payment.ID,
		PreviousValue: prev,
		NewValue:      paymentSnapshot(payment),
		Details:       map[string]any{"bank_account_unvalidated": result.BankAccountUnvalidated},
	})

	s.events.Dispatch(ctx, payment)

	return result, nil
}

// bankAccountUnvalidated is the advisory check behind MarkPaid. Missing
// accounts count as unvalidated; lookup failures are logged and treated the
// same so an infrastructure hiccup never blocks a settlement.
func (s *PaymentSettlementService) bankAccountUnvalidated(ctx context.Context, userID uuid.UUID) bool {
	account, err := s.bankAccounts.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("bank account lookup failed during settlement", zap.Error(err))
		}
		return true
	}
	return !account.IsValidated()
}

type AttachReceiptRequest struct {
	PaymentID      uuid.UUID
	ActorID        uuid.UUID
	ReceiptName    string
	ReceiptContent []byte
}

// AttachReceipt stores a receipt file against an already paid payment
func (s *PaymentSettlementService) AttachReceipt(ctx context.Context, req AttachReceiptRequest) (*PaymentUpdateResult, error) {
	if len(req.ReceiptContent) == 0 || req.ReceiptName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt file is required")
	}

	payment, err := s.payments.FindByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	prev := paymentSnapshot(payment)
	receiptKey := fmt.Sprintf("receipts/%s/%s/%s", payment.UserID, payment.ReferenceMonth, req.ReceiptName)
	if err := s.blobs.Put(ctx, receiptKey, req.ReceiptContent, http.DetectContentType(req.ReceiptContent)); err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	if err := payment.AttachReceipt(receiptKey); err != nil {
		return nil, err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}

	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       req.ActorID,
		Action:        "payment_receipt_attached",
		EntityType:    "payment",
		EntityID:      payment.ID,
		PreviousValue: prev,
		NewValue:      paymentSnapshot(payment),
	})

	return &PaymentUpdateResult{Payment: payment, AuditWarning: warn}, nil
}

// Cancel withdraws a pending or eligible payment
func (s *PaymentSettlementService) Cancel(ctx context.Context, paymentID, actorID uuid.UUID) (*PaymentUpdateResult, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	prev := paymentSnapshot(payment)
	expected := payment.Status
	if err := payment.Cancel(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatusIfCurrent(ctx, payment, expected); err != nil {
		return nil, err
	}

	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       actorID,
		Action:        "payment_cancelled",
		EntityType:    "payment",
		EntityID:      payment.ID,
		PreviousValue: prev,
		NewValue:      paymentSnapshot(payment),
	})

	s.events.Dispatch(ctx, payment)

	return &PaymentUpdateResult{Payment: payment, AuditWarning: warn}, nil
}

// Get returns a single payment by id
func (s *PaymentSettlementService) Get(ctx context.Context, id uuid.UUID) (*grant.Payment, error) {
	return s.payments.FindByID(ctx, id)
}

// ListByEnrollment returns the payment schedule of an enrollment
func (s *PaymentSettlementService) ListByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]grant.Payment, error) {
	return s.payments.FindByEnrollment(ctx, enrollmentID)
}

// List returns payments matching the filter
func (s *PaymentSettlementService) List(ctx context.Context, filter grant.PaymentFilter) ([]grant.Payment, error) {
	return s.payments.FindAll(ctx, filter)
}

// ReceiptURL returns a pre-signed download URL for the payment receipt
func (s *PaymentSettlementService) ReceiptURL(ctx context.Context, id uuid.UUID) (string, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if payment.ReceiptKey == "" {
		return "", shared.NewDomainError("NOT_FOUND", "Payment has no receipt attached")
	}
	return s.blobs.SignedURL(ctx, payment.ReceiptKey, signedURLTTL)
}

// recordAudit logs and moves on when the sink fails: a missing audit row is a
// warning, never a reason to undo a committed settlement. The returned flag
// reports the failure so callers can surface it on their result.
func (s *PaymentSettlementService) recordAudit(ctx context.Context, record AuditRecord) bool {
	if err := s.audit.Record(ctx, record); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", record.Action),
			zap.String("entity_id", record.EntityID.String()),
			zap.Error(err))
		return true
	}
	return false
}
