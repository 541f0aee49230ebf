package grant

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantflow/backend/internal/domain/shared"
)

func createTestReport(t *testing.T) *Report {
	r, err := NewReport(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		"2025-06",
		1,
		1,
		"reports/2025-06/v1.pdf",
		"monthly activities report",
		time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func TestNewReport(t *testing.T) {
	t.Run("creates report under review", func(t *testing.T) {
		r := createTestReport(t)
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.Equal(t, ReportStatusUnderReview, r.Status)
		assert.Equal(t, 1, r.VersionNumber)
		assert.Nil(t, r.ReviewedAt)
		assert.Nil(t, r.ResubmissionDeadline)
		assert.NotEmpty(t, r.GetDomainEvents())
	})

	t.Run("fails with empty file reference", func(t *testing.T) {
		_, err := NewReport(uuid.New(), uuid.New(), uuid.New(), "2025-06", 1, 1, "", "", time.Now())
		require.Error(t, err)
	})

	t.Run("fails with invalid reference month", func(t *testing.T) {
		_, err := NewReport(uuid.New(), uuid.New(), uuid.New(), "june", 1, 1, "f.pdf", "", time.Now())
		require.Error(t, err)
	})

	t.Run("fails with zero installment number", func(t *testing.T) {
		_, err := NewReport(uuid.New(), uuid.New(), uuid.New(), "2025-06", 0, 1, "f.pdf", "", time.Now())
		require.Error(t, err)
	})
}

func TestReport_Approve(t *testing.T) {
	now := time.Date(2025, 6, 25, 11, 0, 0, 0, time.UTC)

	t.Run("approves report under review", func(t *testing.T) {
		r := createTestReport(t)
		reviewer := uuid.New()

		err := r.Approve(reviewer, now)
		require.NoError(t, err)

		assert.Equal(t, ReportStatusApproved, r.Status)
		assert.Equal(t, reviewer, *r.ReviewedBy)
		assert.Equal(t, now, *r.ReviewedAt)
		assert.Empty(t, r.Feedback)
	})

	t.Run("fails when already approved", func(t *testing.T) {
		r := createTestReport(t)
		require.NoError(t, r.Approve(uuid.New(), now))

		err := r.Approve(uuid.New(), now)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("fails when already rejected", func(t *testing.T) {
		r := createTestReport(t)
		require.NoError(t, r.Reject(uuid.New(), "corrigir data", now))

		err := r.Approve(uuid.New(), now)
		require.Error(t, err)
	})
}

func TestReport_Reject(t *testing.T) {
	now := time.Date(2025, 6, 25, 11, 0, 0, 0, time.UTC)

	t.Run("rejects with feedback and stamps deadline", func(t *testing.T) {
		r := createTestReport(t)
		reviewer := uuid.New()

		err := r.Reject(reviewer, "corrigir data", now)
		require.NoError(t, err)

		assert.Equal(t, ReportStatusRejected, r.Status)
		assert.Equal(t, "corrigir data", r.Feedback)
		require.NotNil(t, r.ResubmissionDeadline)
		assert.Equal(t, now.Add(5*24*time.Hour), *r.ResubmissionDeadline)
		assert.True(t, r.ResubmissionDeadline.After(*r.ReviewedAt))
	})

	t.Run("fails without feedback", func(t *testing.T) {
		r := createTestReport(t)
		err := r.Reject(uuid.New(), "", now)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
		assert.Equal(t, ReportStatusUnderReview, r.Status)
	})

	t.Run("fails when not under review", func(t *testing.T) {
		r := createTestReport(t)
		require.NoError(t, r.Approve(uuid.New(), now))

		err := r.Reject(uuid.New(), "too late", now)
		require.Error(t, err)
	})
}

func TestReport_CanResubmitAt(t *testing.T) {
	now := time.Date(2025, 6, 25, 11, 0, 0, 0, time.UTC)

	r := createTestReport(t)
	require.NoError(t, r.Reject(uuid.New(), "corrigir data", now))
	deadline := *r.ResubmissionDeadline

	assert.True(t, r.CanResubmitAt(deadline.Add(-time.Second)))
	assert.True(t, r.CanResubmitAt(deadline))
	assert.False(t, r.CanResubmitAt(deadline.Add(time.Second)))

	t.Run("approved report has no resubmission window", func(t *testing.T) {
		approved := createTestReport(t)
		require.NoError(t, approved.Approve(uuid.New(), now))
		assert.False(t, approved.CanResubmitAt(now))
	})
}

func TestReviewDecision(t *testing.T) {
	assert.True(t, DecisionApprove.IsValid())
	assert.True(t, DecisionReject.IsValid())
	assert.False(t, ReviewDecision("DEFER").IsValid())

	assert.Equal(t, "APPROVE", DecisionApprove.String())
	assert.Equal(t, "REJECT", DecisionReject.String())
}
