package persistence

import (
	"context"

	"gorm.io/gorm"

	grantapp "github.com/grantflow/backend/internal/application/grant"
)

// GormTransactionManager runs application-level units of work inside one
// database transaction. Every repository handed to the callback is bound to
// the transaction, so all writes commit or roll back together.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Do executes fn within a transaction
func (m *GormTransactionManager) Do(ctx context.Context, fn func(ctx context.Context, repos grantapp.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, grantapp.Repositories{
			Enrollments:  NewGormEnrollmentRepository(tx),
			Reports:      NewGormReportRepository(tx),
			Payments:     NewGormPaymentRepository(tx),
			BankAccounts: NewGormBankAccountRepository(tx),
			Audit:        NewGormAuditSink(tx),
		})
	})
}
