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

// GormEnrollmentRepository implements grant.EnrollmentRepository using GORM
type GormEnrollmentRepository struct {
	db *gorm.DB
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db}
}

// FindByID finds an enrollment by its ID
func (r *GormEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*grant.Enrollment, error) {
	var model models.EnrollmentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new enrollment
func (r *GormEnrollmentRepository) Create(ctx context.Context, enrollment *grant.Enrollment) error {
	model := models.EnrollmentModelFromDomain(enrollment)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists the enrollment with an optimistic lock version check
func (r *GormEnrollmentRepository) Save(ctx context.Context, enrollment *grant.Enrollment) error {
	model := models.EnrollmentModelFromDomain(enrollment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", enrollment.ID, enrollment.Version-1).
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

func (r *GormEnrollmentRepository) applyFilter(query *gorm.DB, filter grant.EnrollmentFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.SubprojectID != nil {
		query = query.Where("subproject_id = ?", *filter.SubprojectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// FindAll lists enrollments matching the filter
func (r *GormEnrollmentRepository) FindAll(ctx context.Context, filter grant.EnrollmentFilter) ([]grant.Enrollment, error) {
	var enrollmentModels []models.EnrollmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EnrollmentModel{}), filter).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Find(&enrollmentModels).Error; err != nil {
		return nil, err
	}
	enrollments := make([]grant.Enrollment, len(enrollmentModels))
	for i, model := range enrollmentModels {
		enrollments[i] = *model.ToDomain()
	}
	return enrollments, nil
}

// Count counts enrollments matching the filter
func (r *GormEnrollmentRepository) Count(ctx context.Context, filter grant.EnrollmentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EnrollmentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
