package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONMap stores an arbitrary JSON object in a jsonb column
type JSONMap map[string]any

// Value implements driver.Valuer for database storage
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database retrieval
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	return json.Unmarshal(data, j)
}

// AuditEntryModel is one append-only audit trail row. Entries are only ever
// inserted; there is no domain aggregate behind them.
type AuditEntryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Action        string    `gorm:"type:varchar(100);not null;index"`
	EntityType    string    `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID      uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	PreviousValue JSONMap   `gorm:"type:jsonb"`
	NewValue      JSONMap   `gorm:"type:jsonb"`
	Details       JSONMap   `gorm:"type:jsonb"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}
