package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/infrastructure/persistence/models"
)

// GormAuditSink writes audit records into the audit_entries table. When
// constructed from a transaction handle, entries commit or roll back with the
// surrounding mutation.
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GormAuditSink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

// Record appends one audit entry
func (s *GormAuditSink) Record(ctx context.Context, record grantapp.AuditRecord) error {
	previous, err := toJSONMap(record.PreviousValue)
	if err != nil {
		return fmt.Errorf("failed to encode previous value: %w", err)
	}
	next, err := toJSONMap(record.NewValue)
	if err != nil {
		return fmt.Errorf("failed to encode new value: %w", err)
	}

	model := &models.AuditEntryModel{
		ID:            uuid.New(),
		ActorID:       record.ActorID,
		Action:        record.Action,
		EntityType:    record.EntityType,
		EntityID:      record.EntityID,
		PreviousValue: previous,
		NewValue:      next,
		Details:       models.JSONMap(record.Details),
		CreatedAt:     time.Now(),
	}
	return s.db.WithContext(ctx).Create(model).Error
}

// toJSONMap flattens an arbitrary snapshot value into the jsonb column type
func toJSONMap(value any) (models.JSONMap, error) {
	if value == nil {
		return nil, nil
	}
	if m, ok := value.(map[string]any); ok {
		return models.JSONMap(m), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var m models.JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
