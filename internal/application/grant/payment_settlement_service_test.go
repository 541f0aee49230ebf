package grant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

func newSettlement(f *fixture) *PaymentSettlementService {
	return NewPaymentSettlementService(
		f.payments, f.bankAccounts, f.blobs, f.audit, f.notifier,
		f.idempotency, shared.DefaultIdempotencyConfig(), f.clock, zap.NewNop(),
	)
}

// seedEligible puts one payment into ELIGIBLE the way production does:
// through an approved report.
func seedEligible(t *testing.T, f *fixture, userID uuid.UUID, month grant.ReferenceMonth) *grant.Payment {
	t.Helper()
	enrollment, _ := f.seedInstallment(userID, month)
	report := submitReport(t, f, userID, enrollment.ID, month, 1)
	o := newOrchestrator(f)
	result, err := o.ApplyReviewDecision(context.Background(), ReviewDecisionRequest{
		ReportID:   report.ID,
		ReviewerID: uuid.New(),
		Decision:   grant.DecisionApprove,
	})
	require.NoError(t, err)
	return result.Payment
}

func seedValidatedAccount(t *testing.T, f *fixture, userID uuid.UUID) *grant.BankAccount {
	t.Helper()
	account, err := grant.NewBankAccount(uuid.New(), userID, grant.BankAccountDetails{
		BankCode:      "001",
		BankName:      "Banco do Brasil",
		BranchNumber:  "1234",
		AccountNumber: "56789-0",
		AccountType:   "corrente",
	})
	require.NoError(t, err)
	require.NoError(t, account.BeginReview())
	require.NoError(t, account.Validate(uuid.New(), f.clock.now))
	require.NoError(t, f.bankAccounts.Create(context.Background(), account))
	return account
}

func TestPaymentSettlementMarkPaid(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))
	seedValidatedAccount(t, f, userID)

	result, err := svc.MarkPaid(context.Background(), MarkPaidRequest{
		PaymentID:      payment.ID,
		ActorID:        uuid.New(),
		ReceiptName:    "comprovante.pdf",
		ReceiptContent: []byte("%PDF-1.4 receipt"),
	})
	require.NoError(t, err)

	assert.Equal(t, grant.PaymentStatusPaid, result.Payment.Status)
	assert.False(t, result.BankAccountUnvalidated)
	require.NotNil(t, result.Payment.PaidAt)
	assert.Equal(t, now, *result.Payment.PaidAt)
	assert.NotEmpty(t, result.Payment.ReceiptKey)

	data, err := f.blobs.Get(context.Background(), result.Payment.ReceiptKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 receipt"), data)

	assert.Contains(t, f.audit.actions(), "payment_paid")
	require.NotEmpty(t, f.notifier.sent)
	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, TemplatePaymentPaid, last.Template)
	assert.Equal(t, userID, last.UserID)
	assert.Empty(t, result.Payment.GetDomainEvents())
}

func TestPaymentSettlementMarkPaidUnvalidatedAccount(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))

	// no bank account at all: the settlement still goes through
	result, err := svc.MarkPaid(context.Background(), MarkPaidRequest{
		PaymentID: payment.ID,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, grant.PaymentStatusPaid, result.Payment.Status)
	assert.True(t, result.BankAccountUnvalidated)
	assert.Empty(t, result.Payment.ReceiptKey)
}

func TestPaymentSettlementMarkPaidWrongState(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	_, pending := f.seedInstallment(userID, grant.ReferenceMonth("2025-06"))

	_, err := svc.MarkPaid(context.Background(), MarkPaidRequest{
		PaymentID: pending.ID,
		ActorID:   uuid.New(),
	})
	assertCode(t, err, "INVALID_STATE")
}

func TestPaymentSettlementMarkPaidIdempotencyKey(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))

	req := MarkPaidRequest{
		PaymentID:      payment.ID,
		ActorID:        uuid.New(),
		IdempotencyKey: payment.Key().String(),
	}
	_, err := svc.MarkPaid(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), req)
	assertCode(t, err, "ALREADY_EXISTS")
}

func TestPaymentSettlementFailedAttemptKeepsIdempotencyKey(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	enrollment, pending := f.seedInstallment(userID, grant.ReferenceMonth("2025-06"))

	req := MarkPaidRequest{
		PaymentID:      pending.ID,
		ActorID:        uuid.New(),
		IdempotencyKey: pending.Key().String(),
	}

	// the payment is not eligible yet: the attempt fails and must leave the
	// key unconsumed so the caller can retry once it becomes eligible
	_, err := svc.MarkPaid(context.Background(), req)
	assertCode(t, err, "INVALID_STATE")

	report := submitReport(t, f, userID, enrollment.ID, grant.ReferenceMonth("2025-06"), 1)
	o := newOrchestrator(f)
	_, err = o.ApplyReviewDecision(context.Background(), ReviewDecisionRequest{
		ReportID:   report.ID,
		ReviewerID: uuid.New(),
		Decision:   grant.DecisionApprove,
	})
	require.NoError(t, err)

	result, err := svc.MarkPaid(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, grant.PaymentStatusPaid, result.Payment.Status)

	_, err = svc.MarkPaid(context.Background(), req)
	assertCode(t, err, "ALREADY_EXISTS")
}

func TestPaymentSettlementAttachReceipt(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))

	result, err := svc.MarkPaid(context.Background(), MarkPaidRequest{PaymentID: payment.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	paidAt := *result.Payment.PaidAt

	attached, err := svc.AttachReceipt(context.Background(), AttachReceiptRequest{
		PaymentID:      payment.ID,
		ActorID:        uuid.New(),
		ReceiptName:    "comprovante.pdf",
		ReceiptContent: []byte("%PDF-1.4 late receipt"),
	})
	require.NoError(t, err)
	updated := attached.Payment

	assert.Equal(t, grant.PaymentStatusPaid, updated.Status)
	assert.NotEmpty(t, updated.ReceiptKey)
	require.NotNil(t, updated.PaidAt)
	assert.Equal(t, paidAt, *updated.PaidAt)
	assert.False(t, attached.AuditWarning)

	url, err := svc.ReceiptURL(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.test/"+updated.ReceiptKey, url)
}

func TestPaymentSettlementAttachReceiptBeforePaid(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))

	_, err := svc.AttachReceipt(context.Background(), AttachReceiptRequest{
		PaymentID:      payment.ID,
		ActorID:        uuid.New(),
		ReceiptName:    "comprovante.pdf",
		ReceiptContent: []byte("early"),
	})
	assertCode(t, err, "INVALID_STATE")
}

func TestPaymentSettlementCancel(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)

	t.Run("pending payment", func(t *testing.T) {
		f := newFixture(now)
		svc := newSettlement(f)
		_, pending := f.seedInstallment(uuid.New(), grant.ReferenceMonth("2025-06"))

		cancelled, err := svc.Cancel(context.Background(), pending.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, grant.PaymentStatusCancelled, cancelled.Payment.Status)
	})

	t.Run("eligible payment", func(t *testing.T) {
		f := newFixture(now)
		svc := newSettlement(f)
		payment := seedEligible(t, f, uuid.New(), grant.ReferenceMonth("2025-06"))

		cancelled, err := svc.Cancel(context.Background(), payment.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, grant.PaymentStatusCancelled, cancelled.Payment.Status)
	})

	t.Run("paid payment", func(t *testing.T) {
		f := newFixture(now)
		svc := newSettlement(f)
		payment := seedEligible(t, f, uuid.New(), grant.ReferenceMonth("2025-06"))

		_, err := svc.MarkPaid(context.Background(), MarkPaidRequest{PaymentID: payment.ID, ActorID: uuid.New()})
		require.NoError(t, err)

		_, err = svc.Cancel(context.Background(), payment.ID, uuid.New())
		assertCode(t, err, "INVALID_STATE")
	})
}

func TestPaymentSettlementAuditFailureDoesNotBlock(t *testing.T) {
	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newSettlement(f)

	userID := uuid.New()
	payment := seedEligible(t, f, userID, grant.ReferenceMonth("2025-06"))

	f.audit.failNext = true
	result, err := svc.MarkPaid(context.Background(), MarkPaidRequest{PaymentID: payment.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, grant.PaymentStatusPaid, result.Payment.Status)
	assert.True(t, result.AuditWarning)

	stored, err := f.payments.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, grant.PaymentStatusPaid, stored.Status)

	f.audit.failNext = true
	cancelled, err := svc.Cancel(context.Background(), seedEligible(t, f, userID, grant.ReferenceMonth("2025-07")).ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, cancelled.AuditWarning)
}
