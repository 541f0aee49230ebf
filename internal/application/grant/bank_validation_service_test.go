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

func newBankValidation(f *fixture) *BankValidationService {
	return NewBankValidationService(f.bankAccounts, f.audit, f.notifier, f.clock, zap.NewNop())
}

func bankDetails() grant.BankAccountDetails {
	return grant.BankAccountDetails{
		BankCode:      "260",
		BankName:      "Nubank",
		BranchNumber:  "0001",
		AccountNumber: "1234567-8",
		AccountType:   "corrente",
		PixKey:        "scholar@example.com",
	}
}

func TestBankValidationSubmit(t *testing.T) {
	now := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newBankValidation(f)
	userID := uuid.New()

	submitted, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        bankDetails(),
	})
	require.NoError(t, err)
	account := submitted.Account
	assert.Equal(t, grant.BankStatusPending, account.ValidationStatus)
	assert.False(t, account.LockedForEdit)
	assert.False(t, submitted.AuditWarning)

	t.Run("resubmit updates the same account", func(t *testing.T) {
		details := bankDetails()
		details.AccountNumber = "7654321-0"
		updated, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
			OrganizationID: uuid.New(),
			UserID:         userID,
			Details:        details,
		})
		require.NoError(t, err)
		assert.Equal(t, account.ID, updated.Account.ID)
		assert.Equal(t, "7654321-0", updated.Account.Details.AccountNumber)
	})

	t.Run("audit failure flags the result", func(t *testing.T) {
		f.audit.failNext = true
		flagged, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
			OrganizationID: uuid.New(),
			UserID:         uuid.New(),
			Details:        bankDetails(),
		})
		require.NoError(t, err)
		assert.True(t, flagged.AuditWarning)
		assert.Equal(t, grant.BankStatusPending, flagged.Account.ValidationStatus)
	})
}

func TestBankValidationHappyPath(t *testing.T) {
	now := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newBankValidation(f)
	userID := uuid.New()

	submitted, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        bankDetails(),
	})
	require.NoError(t, err)
	account := submitted.Account

	managerID := uuid.New()
	reviewed, err := svc.BeginReview(context.Background(), account.ID, managerID)
	require.NoError(t, err)
	account = reviewed.Account
	assert.Equal(t, grant.BankStatusUnderReview, account.ValidationStatus)
	assert.True(t, account.LockedForEdit)

	// the scholar cannot edit while the review is in flight
	_, err = svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        bankDetails(),
	})
	assert.ErrorIs(t, err, shared.ErrLocked)

	validated, err := svc.Validate(context.Background(), account.ID, managerID)
	require.NoError(t, err)
	account = validated.Account
	assert.Equal(t, grant.BankStatusValidated, account.ValidationStatus)
	assert.True(t, account.LockedForEdit)
	require.NotNil(t, account.ValidatedBy)
	assert.Equal(t, managerID, *account.ValidatedBy)

	require.NotEmpty(t, f.notifier.sent)
	assert.Equal(t, TemplateBankAccountValidated, f.notifier.sent[len(f.notifier.sent)-1].Template)
}

func TestBankValidationReturnAndCorrect(t *testing.T) {
	now := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newBankValidation(f)
	userID := uuid.New()

	submitted, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        bankDetails(),
	})
	require.NoError(t, err)
	account := submitted.Account

	managerID := uuid.New()
	_, err = svc.BeginReview(context.Background(), account.ID, managerID)
	require.NoError(t, err)

	t.Run("return requires notes", func(t *testing.T) {
		_, err := svc.Return(context.Background(), account.ID, managerID, "")
		assertCode(t, err, "VALIDATION_ERROR")
	})

	returned, err := svc.Return(context.Background(), account.ID, managerID, "banco incorreto")
	require.NoError(t, err)
	account = returned.Account
	assert.Equal(t, grant.BankStatusReturned, account.ValidationStatus)
	assert.False(t, account.LockedForEdit)
	assert.Equal(t, "banco incorreto", account.ManagerNotes)

	returnedNote := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, TemplateBankAccountReturned, returnedNote.Template)
	assert.Equal(t, "banco incorreto", returnedNote.Data["notes"])

	// the correction re-enters the workflow at PENDING with notes cleared
	details := bankDetails()
	details.BankCode = "001"
	resubmitted, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        details,
	})
	require.NoError(t, err)
	account = resubmitted.Account
	assert.Equal(t, grant.BankStatusPending, account.ValidationStatus)
	assert.Empty(t, account.ManagerNotes)
}

func TestBankValidationInvalidTransitions(t *testing.T) {
	now := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	f := newFixture(now)
	svc := newBankValidation(f)
	userID := uuid.New()

	submitted, err := svc.Submit(context.Background(), SubmitBankAccountRequest{
		OrganizationID: uuid.New(),
		UserID:         userID,
		Details:        bankDetails(),
	})
	require.NoError(t, err)
	account := submitted.Account

	t.Run("validate before review", func(t *testing.T) {
		_, err := svc.Validate(context.Background(), account.ID, uuid.New())
		assertCode(t, err, "INVALID_TRANSITION")
	})

	t.Run("return before review", func(t *testing.T) {
		_, err := svc.Return(context.Background(), account.ID, uuid.New(), "nota")
		assertCode(t, err, "INVALID_TRANSITION")
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.BeginReview(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
