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

// GormPaymentRepository implements grant.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*grant.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds the payment for an installment key
func (r *GormPaymentRepository) FindByKey(ctx context.Context, key grant.InstallmentKey) (*grant.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND reference_month = ?", key.UserID, key.ReferenceMonth).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEnrollment returns all payments for an enrollment, ordered by
// installment number
func (r *GormPaymentRepository) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]grant.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("installment_number ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]grant.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// CreateBatch inserts the payment schedule generated at enrollment time
func (r *GormPaymentRepository) CreateBatch(ctx context.Context, payments []*grant.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	paymentModels := make([]*models.PaymentModel, len(payments))
	for i, payment := range payments {
		paymentModels[i] = models.PaymentModelFromDomain(payment)
	}
	return r.db.WithContext(ctx).Create(&paymentModels).Error
}

// Save persists the payment with an optimistic lock version check
func (r *GormPaymentRepository) Save(ctx context.Context, payment *grant.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
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

// UpdateStatusIfCurrent persists a status transition only if the stored row
// still has the expected status
func (r *GormPaymentRepository) UpdateStatusIfCurrent(ctx context.Context, payment *grant.Payment, expected grant.PaymentStatus) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND status = ?", payment.ID, expected).
		Updates(map[string]any{
			"status":      model.Status,
			"report_id":   model.ReportID,
			"paid_at":     model.PaidAt,
			"receipt_key": model.ReceiptKey,
			"updated_at":  model.UpdatedAt,
			"version":     model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidState
	}
	return nil
}

// FindAll lists payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter grant.PaymentFilter) ([]grant.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EnrollmentID != nil {
		query = query.Where("enrollment_id = ?", *filter.EnrollmentID)
	}
	if filter.ReferenceMonth != nil {
		query = query.Where("reference_month = ?", *filter.ReferenceMonth)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query = query.Order("reference_month ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]grant.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}
