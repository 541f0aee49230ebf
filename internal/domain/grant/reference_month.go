package grant

import (
	"fmt"
	"time"

	"github.com/grantflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReferenceMonth is the YYYY-MM period an installment and its reports belong to.
// The format is lexically sortable, which allows range queries on the stored
// string without date parsing.
type ReferenceMonth string

const referenceMonthLayout = "2006-01"

// NewReferenceMonth builds the reference month containing the given instant
func NewReferenceMonth(t time.Time) ReferenceMonth {
	return ReferenceMonth(t.Format(referenceMonthLayout))
}

// ParseReferenceMonth validates and returns a reference month from its string form
func ParseReferenceMonth(s string) (ReferenceMonth, error) {
	t, err := time.Parse(referenceMonthLayout, s)
	if err != nil {
		return "", shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid reference month %q, expected YYYY-MM", s))
	}
	return NewReferenceMonth(t), nil
}

// IsValid reports whether the reference month is well-formed
func (rm ReferenceMonth) IsValid() bool {
	_, err := time.Parse(referenceMonthLayout, string(rm))
	return err == nil
}

// String returns the YYYY-MM representation
func (rm ReferenceMonth) String() string {
	return string(rm)
}

// FirstOfMonth returns midnight UTC on the first day of the month
func (rm ReferenceMonth) FirstOfMonth() time.Time {
	t, _ := time.Parse(referenceMonthLayout, string(rm))
	return t
}

// Next returns the following reference month
func (rm ReferenceMonth) Next() ReferenceMonth {
	return NewReferenceMonth(rm.FirstOfMonth().AddDate(0, 1, 0))
}

// AddMonths returns the reference month n months later (or earlier for negative n)
func (rm ReferenceMonth) AddMonths(n int) ReferenceMonth {
	return NewReferenceMonth(rm.FirstOfMonth().AddDate(0, n, 0))
}

// MonthClass classifies a reference month relative to the current one
type MonthClass string

const (
	MonthPast    MonthClass = "past"
	MonthCurrent MonthClass = "current"
	MonthFuture  MonthClass = "future"
)

// InstallmentKey identifies the (scholar, reference month) pairing shared by a
// Payment row and its Report versions. Report Workflow and Payment Settlement
// both look records up by this key; only the Disbursement Orchestrator writes
// on both sides of it.
type InstallmentKey struct {
	UserID         uuid.UUID
	ReferenceMonth ReferenceMonth
}

// NewInstallmentKey creates an installment key
func NewInstallmentKey(userID uuid.UUID, month ReferenceMonth) InstallmentKey {
	return InstallmentKey{UserID: userID, ReferenceMonth: month}
}

// String returns a stable textual form, usable as an idempotency key component
func (k InstallmentKey) String() string {
	return fmt.Sprintf("%s/%s", k.UserID, k.ReferenceMonth)
}
