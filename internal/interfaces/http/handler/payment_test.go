package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantflow/backend/internal/domain/grant"
)

func newPendingPayment(t *testing.T) *grant.Payment {
	t.Helper()
	payment, err := grant.NewPayment(
		uuid.New(), uuid.New(), uuid.New(),
		3, grant.ReferenceMonth("2025-06"),
		decimal.NewFromFloat(4100.00),
	)
	require.NoError(t, err)
	return payment
}

func TestToPaymentResponse_MasksPendingAmountForScholar(t *testing.T) {
	payment := newPendingPayment(t)

	resp := toPaymentResponse(payment, false)

	assert.Nil(t, resp.Amount)
	assert.True(t, resp.AmountMasked)
	assert.Equal(t, string(grant.PaymentStatusPending), resp.Status)
}

func TestToPaymentResponse_ManagerAlwaysSeesAmount(t *testing.T) {
	payment := newPendingPayment(t)

	resp := toPaymentResponse(payment, true)

	require.NotNil(t, resp.Amount)
	assert.Equal(t, "4100.00", *resp.Amount)
	assert.False(t, resp.AmountMasked)
}

func TestToPaymentResponse_EligibleAmountVisibleToScholar(t *testing.T) {
	payment := newPendingPayment(t)
	reportID := uuid.New()
	require.NoError(t, payment.MarkEligible(reportID))

	resp := toPaymentResponse(payment, false)

	require.NotNil(t, resp.Amount)
	assert.Equal(t, "4100.00", *resp.Amount)
	assert.False(t, resp.AmountMasked)
	require.NotNil(t, resp.ReportID)
	assert.Equal(t, reportID.String(), *resp.ReportID)
}

func TestToPaymentResponse_PaidCarriesReceiptFlag(t *testing.T) {
	payment := newPendingPayment(t)
	require.NoError(t, payment.MarkEligible(uuid.New()))

	now := payment.CreatedAt.AddDate(0, 1, 0)
	require.NoError(t, payment.MarkPaid(now, "receipts/2025-06.pdf"))

	resp := toPaymentResponse(payment, false)

	require.NotNil(t, resp.Amount)
	assert.True(t, resp.HasReceipt)
	require.NotNil(t, resp.PaidAt)
	assert.Equal(t, string(grant.PaymentStatusPaid), resp.Status)
}
