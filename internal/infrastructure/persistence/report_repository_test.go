package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func reportRows(reportID, userID uuid.UUID, month string, version int, status grant.ReportStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization_id", "user_id", "enrollment_id", "reference_month",
		"installment_number", "version_number", "file_key", "status", "submitted_at",
	}).AddRow(
		reportID, uuid.New(), userID, uuid.New(), month,
		1, version, "reports/key/v1/file.pdf", status, time.Now(),
	)
}

func TestGormReportRepository_FindByID(t *testing.T) {
	t.Run("finds existing report", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(gormDB)

		reportID := uuid.New()
		userID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(reportID, 1).
			WillReturnRows(reportRows(reportID, userID, "2025-06", 1, grant.ReportStatusUnderReview))

		report, err := repo.FindByID(context.Background(), reportID)

		assert.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, reportID, report.ID)
		assert.Equal(t, grant.ReferenceMonth("2025-06"), report.ReferenceMonth)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing report", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(gormDB)

		reportID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(reportID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		report, err := repo.FindByID(context.Background(), reportID)

		assert.Nil(t, report)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReportRepository_FindLatestVersion(t *testing.T) {
	t.Run("orders by version number descending", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(gormDB)

		userID := uuid.New()
		key := grant.NewInstallmentKey(userID, grant.ReferenceMonth("2025-06"))

		mock.ExpectQuery(`SELECT \* FROM "reports" WHERE user_id = \$1 AND reference_month = \$2 ORDER BY version_number DESC,.* LIMIT .*`).
			WithArgs(userID, key.ReferenceMonth, 1).
			WillReturnRows(reportRows(uuid.New(), userID, "2025-06", 3, grant.ReportStatusRejected))

		report, err := repo.FindLatestVersion(context.Background(), key)

		assert.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, 3, report.VersionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReportRepository_CountVersions(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormReportRepository(gormDB)

	userID := uuid.New()
	key := grant.NewInstallmentKey(userID, grant.ReferenceMonth("2025-06"))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "reports" WHERE user_id = \$1 AND reference_month = \$2`).
		WithArgs(userID, key.ReferenceMonth).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountVersions(context.Background(), key)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReportRepository_UpdateStatusIfCurrent(t *testing.T) {
	buildApproved := func(t *testing.T) *grant.Report {
		t.Helper()
		report, err := grant.NewReport(uuid.New(), uuid.New(), uuid.New(),
			grant.ReferenceMonth("2025-06"), 1, 1, "reports/key/v1/file.pdf", "", time.Now())
		require.NoError(t, err)
		require.NoError(t, report.Approve(uuid.New(), time.Now()))
		return report
	}

	t.Run("updates when the stored status matches", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(gormDB)
		report := buildApproved(t)

		mock.ExpectExec(`UPDATE "reports" SET .* WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatusIfCurrent(context.Background(), report, grant.ReportStatusUnderReview)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("signals invalid state when the row already moved", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReportRepository(gormDB)
		report := buildApproved(t)

		mock.ExpectExec(`UPDATE "reports" SET .* WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatusIfCurrent(context.Background(), report, grant.ReportStatusUnderReview)

		assert.Equal(t, shared.ErrInvalidState, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
