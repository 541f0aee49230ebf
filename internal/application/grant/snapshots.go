package grant

import (
	"github.com/grantflow/backend/internal/domain/grant"
)

// Snapshot builders for audit entries. Deliberately flat maps rather than the
// aggregates themselves: audit rows must stay readable after the Go types
// evolve.

func reportSnapshot(r *grant.Report) map[string]any {
	m := map[string]any{
		"id":              r.ID.String(),
		"user_id":         r.UserID.String(),
		"reference_month": r.ReferenceMonth.String(),
		"version_number":  r.VersionNumber,
		"status":          r.Status.String(),
		"file_key":        r.FileKey,
	}
	if r.Feedback != "" {
		m["feedback"] = r.Feedback
	}
	if r.ResubmissionDeadline != nil {
		m["resubmission_deadline"] = r.ResubmissionDeadline.UTC()
	}
	if r.ReviewedBy != nil {
		m["reviewed_by"] = r.ReviewedBy.String()
	}
	return m
}

func paymentSnapshot(p *grant.Payment) map[string]any {
	m := map[string]any{
		"id":                 p.ID.String(),
		"user_id":            p.UserID.String(),
		"reference_month":    p.ReferenceMonth.String(),
		"installment_number": p.InstallmentNumber,
		"status":             p.Status.String(),
		"amount":             p.Amount.String(),
	}
	if p.ReportID != nil {
		m["report_id"] = p.ReportID.String()
	}
	if p.PaidAt != nil {
		m["paid_at"] = p.PaidAt.UTC()
	}
	if p.ReceiptKey != "" {
		m["receipt_key"] = p.ReceiptKey
	}
	return m
}

func bankAccountSnapshot(b *grant.BankAccount) map[string]any {
	m := map[string]any{
		"id":                b.ID.String(),
		"user_id":           b.UserID.String(),
		"bank_code":         b.Details.BankCode,
		"branch_number":     b.Details.BranchNumber,
		"account_number":    b.Details.AccountNumber,
		"validation_status": b.ValidationStatus.String(),
		"locked_for_edit":   b.LockedForEdit,
	}
	if b.ManagerNotes != "" {
		m["manager_notes"] = b.ManagerNotes
	}
	if b.ValidatedBy != nil {
		m["validated_by"] = b.ValidatedBy.String()
	}
	return m
}

func enrollmentSnapshot(e *grant.Enrollment) map[string]any {
	return map[string]any{
		"id":                 e.ID.String(),
		"user_id":            e.UserID.String(),
		"subproject_id":      e.SubprojectID.String(),
		"modality":           e.Modality,
		"grant_value":        e.GrantValue.String(),
		"total_installments": e.TotalInstallments,
		"status":             e.Status.String(),
	}
}
