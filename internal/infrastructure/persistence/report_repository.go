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

// GormReportRepository implements grant.ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// FindByID finds a report by its ID
func (r *GormReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*grant.Report, error) {
	var model models.ReportModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindVersions returns all report versions for an installment key, newest first
func (r *GormReportRepository) FindVersions(ctx context.Context, key grant.InstallmentKey) ([]grant.Report, error) {
	var reportModels []models.ReportModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND reference_month = ?", key.UserID, key.ReferenceMonth).
		Order("version_number DESC").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}
	reports := make([]grant.Report, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, nil
}

// FindLatestVersion returns the most recent report version for a key
func (r *GormReportRepository) FindLatestVersion(ctx context.Context, key grant.InstallmentKey) (*grant.Report, error) {
	var model models.ReportModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND reference_month = ?", key.UserID, key.ReferenceMonth).
		Order("version_number DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnderReview returns the report currently under review for a key.
// At most one such row exists per key.
func (r *GormReportRepository) FindUnderReview(ctx context.Context, key grant.InstallmentKey) (*grant.Report, error) {
	var model models.ReportModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND reference_month = ? AND status = ?",
			key.UserID, key.ReferenceMonth, grant.ReportStatusUnderReview).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountVersions counts existing report versions for a key
func (r *GormReportRepository) CountVersions(ctx context.Context, key grant.InstallmentKey) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReportModel{}).
		Where("user_id = ? AND reference_month = ?", key.UserID, key.ReferenceMonth).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new report version
func (r *GormReportRepository) Create(ctx context.Context, report *grant.Report) error {
	model := models.ReportModelFromDomain(report)
	return r.db.WithContext(ctx).Create(model).Error
}

// UpdateStatusIfCurrent persists the review fields only if the stored row
// still has the expected status. Zero rows affected means another reviewer
// decided first.
func (r *GormReportRepository) UpdateStatusIfCurrent(ctx context.Context, report *grant.Report, expected grant.ReportStatus) error {
	model := models.ReportModelFromDomain(report)
	result := r.db.WithContext(ctx).
		Model(&models.ReportModel{}).
		Where("id = ? AND status = ?", report.ID, expected).
		Updates(map[string]any{
			"status":                model.Status,
			"feedback":              model.Feedback,
			"resubmission_deadline": model.ResubmissionDeadline,
			"reviewed_at":           model.ReviewedAt,
			"reviewed_by":           model.ReviewedBy,
			"updated_at":            model.UpdatedAt,
			"version":               model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidState
	}
	return nil
}

// FindAll lists reports matching the filter
func (r *GormReportRepository) FindAll(ctx context.Context, filter grant.ReportFilter) ([]grant.Report, error) {
	var reportModels []models.ReportModel
	query := r.db.WithContext(ctx).Model(&models.ReportModel{})
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
	query = query.Order("submitted_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit())

	if err := query.Find(&reportModels).Error; err != nil {
		return nil, err
	}
	reports := make([]grant.Report, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, nil
}
