package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/grantflow/backend/internal/infrastructure/persistence/models"
)

// GormBankAccountRepository implements grant.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by its ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*grant.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser finds the bank account owned by a scholar
func (r *GormBankAccountRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*grant.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new bank account
func (r *GormBankAccountRepository) Create(ctx context.Context, account *grant.BankAccount) error {
	model := models.BankAccountModelFromDomain(account)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists the account with an optimistic lock version check
func (r *GormBankAccountRepository) Save(ctx context.Context, account *grant.BankAccount) error {
	model := models.BankAccountModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
