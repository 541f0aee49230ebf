package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grantflow/backend/internal/domain/grant"
)

// ReportModel is the persistence model for the Report aggregate root. Report
// versions share a (user_id, reference_month) key; the version number is
// unique within it.
type ReportModel struct {
	OrgAggregateModel
	UserID               uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_report_key_version,priority:1"`
	EnrollmentID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	ReferenceMonth       grant.ReferenceMonth `gorm:"type:varchar(7);not null;uniqueIndex:idx_report_key_version,priority:2;index"`
	InstallmentNumber    int                  `gorm:"not null"`
	VersionNumber        int                  `gorm:"not null;uniqueIndex:idx_report_key_version,priority:3"`
	FileKey              string               `gorm:"type:varchar(500);not null"`
	Observations         string               `gorm:"type:text"`
	Status               grant.ReportStatus   `gorm:"type:varchar(20);not null;default:'UNDER_REVIEW';index"`
	Feedback             string               `gorm:"type:text"`
	ResubmissionDeadline *time.Time
	SubmittedAt          time.Time `gorm:"not null"`
	ReviewedAt           *time.Time
	ReviewedBy           *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReportModel) TableName() string {
	return "reports"
}

// ToDomain converts the persistence model to a domain Report entity.
func (m *ReportModel) ToDomain() *grant.Report {
	return &grant.Report{
		OrgAggregateRoot:     m.orgAggregateRoot(),
		UserID:               m.UserID,
		EnrollmentID:         m.EnrollmentID,
		ReferenceMonth:       m.ReferenceMonth,
		InstallmentNumber:    m.InstallmentNumber,
		VersionNumber:        m.VersionNumber,
		FileKey:              m.FileKey,
		Observations:         m.Observations,
		Status:               m.Status,
		Feedback:             m.Feedback,
		ResubmissionDeadline: m.ResubmissionDeadline,
		SubmittedAt:          m.SubmittedAt,
		ReviewedAt:           m.ReviewedAt,
		ReviewedBy:           m.ReviewedBy,
	}
}

// FromDomain populates the persistence model from a domain Report entity.
func (m *ReportModel) FromDomain(r *grant.Report) {
	m.FromDomainOrgAggregateRoot(r.OrgAggregateRoot)
	m.UserID = r.UserID
	m.EnrollmentID = r.EnrollmentID
	m.ReferenceMonth = r.ReferenceMonth
	m.InstallmentNumber = r.InstallmentNumber
	m.VersionNumber = r.VersionNumber
	m.FileKey = r.FileKey
	m.Observations = r.Observations
	m.Status = r.Status
	m.Feedback = r.Feedback
	m.ResubmissionDeadline = r.ResubmissionDeadline
	m.SubmittedAt = r.SubmittedAt
	m.ReviewedAt = r.ReviewedAt
	m.ReviewedBy = r.ReviewedBy
}

// ReportModelFromDomain creates a new persistence model from a domain Report.
func ReportModelFromDomain(r *grant.Report) *ReportModel {
	m := &ReportModel{}
	m.FromDomain(r)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root. One
// row per installment slot; the (user_id, reference_month) key is unique.
type PaymentModel struct {
	OrgAggregateModel
	UserID            uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_payment_key,priority:1"`
	EnrollmentID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	InstallmentNumber int                  `gorm:"not null"`
	ReferenceMonth    grant.ReferenceMonth `gorm:"type:varchar(7);not null;uniqueIndex:idx_payment_key,priority:2;index"`
	Amount            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Status            grant.PaymentStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ReportID          *uuid.UUID           `gorm:"type:uuid;index"`
	PaidAt            *time.Time
	ReceiptKey        string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *grant.Payment {
	return &grant.Payment{
		OrgAggregateRoot:  m.orgAggregateRoot(),
		UserID:            m.UserID,
		EnrollmentID:      m.EnrollmentID,
		InstallmentNumber: m.InstallmentNumber,
		ReferenceMonth:    m.ReferenceMonth,
		Amount:            m.Amount,
		Status:            m.Status,
		ReportID:          m.ReportID,
		PaidAt:            m.PaidAt,
		ReceiptKey:        m.ReceiptKey,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *grant.Payment) {
	m.FromDomainOrgAggregateRoot(p.OrgAggregateRoot)
	m.UserID = p.UserID
	m.EnrollmentID = p.EnrollmentID
	m.InstallmentNumber = p.InstallmentNumber
	m.ReferenceMonth = p.ReferenceMonth
	m.Amount = p.Amount
	m.Status = p.Status
	m.ReportID = p.ReportID
	m.PaidAt = p.PaidAt
	m.ReceiptKey = p.ReceiptKey
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *grant.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// BankAccountModel is the persistence model for the BankAccount aggregate
// root. One account per scholar.
type BankAccountModel struct {
	OrgAggregateModel
	UserID           uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex"`
	BankCode         string                     `gorm:"type:varchar(10);not null"`
	BankName         string                     `gorm:"type:varchar(200)"`
	BranchNumber     string                     `gorm:"type:varchar(20);not null"`
	AccountNumber    string                     `gorm:"type:varchar(30);not null"`
	AccountType      string                     `gorm:"type:varchar(20)"`
	PixKey           string                     `gorm:"type:varchar(200)"`
	ValidationStatus grant.BankValidationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	LockedForEdit    bool                       `gorm:"not null;default:false"`
	ValidatedBy      *uuid.UUID                 `gorm:"type:uuid"`
	ValidatedAt      *time.Time
	ManagerNotes     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount entity.
func (m *BankAccountModel) ToDomain() *grant.BankAccount {
	return &grant.BankAccount{
		OrgAggregateRoot: m.orgAggregateRoot(),
		UserID:           m.UserID,
		Details: grant.BankAccountDetails{
			BankCode:      m.BankCode,
			BankName:      m.BankName,
			BranchNumber:  m.BranchNumber,
			AccountNumber: m.AccountNumber,
			AccountType:   m.AccountType,
			PixKey:        m.PixKey,
		},
		ValidationStatus: m.ValidationStatus,
		LockedForEdit:    m.LockedForEdit,
		ValidatedBy:      m.ValidatedBy,
		ValidatedAt:      m.ValidatedAt,
		ManagerNotes:     m.ManagerNotes,
	}
}

// FromDomain populates the persistence model from a domain BankAccount entity.
func (m *BankAccountModel) FromDomain(b *grant.BankAccount) {
	m.FromDomainOrgAggregateRoot(b.OrgAggregateRoot)
	m.UserID = b.UserID
	m.BankCode = b.Details.BankCode
	m.BankName = b.Details.BankName
	m.BranchNumber = b.Details.BranchNumber
	m.AccountNumber = b.Details.AccountNumber
	m.AccountType = b.Details.AccountType
	m.PixKey = b.Details.PixKey
	m.ValidationStatus = b.ValidationStatus
	m.LockedForEdit = b.LockedForEdit
	m.ValidatedBy = b.ValidatedBy
	m.ValidatedAt = b.ValidatedAt
	m.ManagerNotes = b.ManagerNotes
}

// BankAccountModelFromDomain creates a new persistence model from a domain BankAccount.
func BankAccountModelFromDomain(b *grant.BankAccount) *BankAccountModel {
	m := &BankAccountModel{}
	m.FromDomain(b)
	return m
}

// EnrollmentModel is the persistence model for the Enrollment aggregate root.
type EnrollmentModel struct {
	OrgAggregateModel
	UserID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	SubprojectID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Modality          string                 `gorm:"type:varchar(50);not null"`
	GrantValue        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	StartDate         time.Time              `gorm:"not null"`
	EndDate           time.Time              `gorm:"not null"`
	TotalInstallments int                    `gorm:"not null"`
	Status            grant.EnrollmentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (EnrollmentModel) TableName() string {
	return "enrollments"
}

// ToDomain converts the persistence model to a domain Enrollment entity.
func (m *EnrollmentModel) ToDomain() *grant.Enrollment {
	return &grant.Enrollment{
		OrgAggregateRoot:  m.orgAggregateRoot(),
		UserID:            m.UserID,
		SubprojectID:      m.SubprojectID,
		Modality:          m.Modality,
		GrantValue:        m.GrantValue,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		TotalInstallments: m.TotalInstallments,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Enrollment entity.
func (m *EnrollmentModel) FromDomain(e *grant.Enrollment) {
	m.FromDomainOrgAggregateRoot(e.OrgAggregateRoot)
	m.UserID = e.UserID
	m.SubprojectID = e.SubprojectID
	m.Modality = e.Modality
	m.GrantValue = e.GrantValue
	m.StartDate = e.StartDate
	m.EndDate = e.EndDate
	m.TotalInstallments = e.TotalInstallments
	m.Status = e.Status
}

// EnrollmentModelFromDomain creates a new persistence model from a domain Enrollment.
func EnrollmentModelFromDomain(e *grant.Enrollment) *EnrollmentModel {
	m := &EnrollmentModel{}
	m.FromDomain(e)
	return m
}
