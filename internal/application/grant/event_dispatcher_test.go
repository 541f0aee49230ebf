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
)

func TestEventDispatcherRoutesAndDrains(t *testing.T) {
	notifier := &memNotifier{}
	dispatcher := NewEventDispatcher(notifier, zap.NewNop())

	userID := uuid.New()
	account, err := grant.NewBankAccount(uuid.New(), userID, grant.BankAccountDetails{
		BankCode:      "237",
		BankName:      "Banco Teste",
		BranchNumber:  "0001",
		AccountNumber: "1234567-8",
		AccountType:   "corrente",
	})
	require.NoError(t, err)
	require.NoError(t, account.BeginReview())
	require.NoError(t, account.Validate(uuid.New(), time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)))

	// submitted and under-review stay internal; validated reaches the scholar
	require.Len(t, account.GetDomainEvents(), 3)
	dispatcher.Dispatch(context.Background(), account)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, TemplateBankAccountValidated, notifier.sent[0].Template)
	assert.Equal(t, userID, notifier.sent[0].UserID)
	assert.Empty(t, account.GetDomainEvents())
}

func TestEventDispatcherReportDecisionData(t *testing.T) {
	notifier := &memNotifier{}
	dispatcher := NewEventDispatcher(notifier, zap.NewNop())

	now := time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC)
	userID := uuid.New()
	report, err := grant.NewReport(uuid.New(), userID, uuid.New(), grant.ReferenceMonth("2025-06"), 3, 2, "reports/x/v2/r.pdf", "", now)
	require.NoError(t, err)
	require.NoError(t, report.Reject(uuid.New(), "metas incompletas", now))
	deadline := grant.ResubmissionDeadline(now)

	dispatcher.Dispatch(context.Background(), report)

	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, TemplateReportRejected, sent.Template)
	assert.Equal(t, userID, sent.UserID)
	assert.Equal(t, "2025-06", sent.Data["reference_month"])
	assert.Equal(t, 2, sent.Data["version"])
	assert.Equal(t, "metas incompletas", sent.Data["feedback"])
	assert.Equal(t, deadline, sent.Data["resubmission_deadline"])
}
