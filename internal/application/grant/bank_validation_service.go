package grant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// BankValidationService runs the manager-side validation workflow over scholar
// bank accounts. Scholars submit and correct account data; managers pick it up
// for review and either validate it (freezing the fields) or return it with
// notes.
type BankValidationService struct {
	bankAccounts grant.BankAccountRepository
	audit        AuditSink
	events       *EventDispatcher
	clock        grant.Clock
	logger       *zap.Logger
}

func NewBankValidationService(
	bankAccounts grant.BankAccountRepository,
	audit AuditSink,
	notifier Notifier,
	clock grant.Clock,
	logger *zap.Logger,
) *BankValidationService {
	return &BankValidationService{
		bankAccounts: bankAccounts,
		audit:        audit,
		events:       NewEventDispatcher(notifier, logger),
		clock:        clock,
		logger:       logger,
	}
}

type SubmitBankAccountRequest struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Details        grant.BankAccountDetails
}

// BankAccountResult pairs the mutated account with advisory warnings
type BankAccountResult struct {
	Account      *grant.BankAccount
	AuditWarning bool
}

// Submit creates the scholar's bank account or updates the existing one. An
// update while the account is under review or validated fails with Locked; a
// resubmission after RETURNED re-enters the workflow at PENDING.
func (s *BankValidationService) Submit(ctx context.Context, req SubmitBankAccountRequest) (*BankAccountResult, error) {
	existing, err := s.bankAccounts.FindByUser(ctx, req.UserID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		account, err := grant.NewBankAccount(req.OrganizationID, req.UserID, req.Details)
		if err != nil {
			return nil, err
		}
		if err := s.bankAccounts.Create(ctx, account); err != nil {
			return nil, err
		}
		warn := s.recordAudit(ctx, AuditRecord{
			ActorID:    req.UserID,
			Action:     "bank_account_submitted",
			EntityType: "bank_account",
			EntityID:   account.ID,
			NewValue:   bankAccountSnapshot(account),
		})
		s.events.Dispatch(ctx, account)
		return &BankAccountResult{Account: account, AuditWarning: warn}, nil
	}

	prev := bankAccountSnapshot(existing)
	if err := existing.UpdateDetails(req.Details); err != nil {
		return nil, err
	}
	if err := s.bankAccounts.Save(ctx, existing); err != nil {
		return nil, err
	}
	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       req.UserID,
		Action:        "bank_account_updated",
		EntityType:    "bank_account",
		EntityID:      existing.ID,
		PreviousValue: prev,
		NewValue:      bankAccountSnapshot(existing),
	})
	s.events.Dispatch(ctx, existing)
	return &BankAccountResult{Account: existing, AuditWarning: warn}, nil
}

// BeginReview picks the account up for manager review, locking the fields
func (s *BankValidationService) BeginReview(ctx context.Context, accountID, actorID uuid.UUID) (*BankAccountResult, error) {
	account, err := s.bankAccounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	prev := bankAccountSnapshot(account)
	if err := account.BeginReview(); err != nil {
		return nil, err
	}
	if err := s.bankAccounts.Save(ctx, account); err != nil {
		return nil, err
	}

	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       actorID,
		Action:        "bank_account_review_started",
		EntityType:    "bank_account",
		EntityID:      account.ID,
		PreviousValue: prev,
		NewValue:      bankAccountSnapshot(account),
	})
	s.events.Dispatch(ctx, account)
	return &BankAccountResult{Account: account, AuditWarning: warn}, nil
}

// Validate confirms the account data. The fields stay frozen afterwards.
func (s *BankValidationService) Validate(ctx context.Context, accountID, validatorID uuid.UUID) (*BankAccountResult, error) {
	account, err := s.bankAccounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	prev := bankAccountSnapshot(account)
	if err := account.Validate(validatorID, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.bankAccounts.Save(ctx, account); err != nil {
		return nil, err
	}

	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       validatorID,
		Action:        "bank_account_validated",
		EntityType:    "bank_account",
		EntityID:      account.ID,
		PreviousValue: prev,
		NewValue:      bankAccountSnapshot(account),
	})

	s.events.Dispatch(ctx, account)

	return &BankAccountResult{Account: account, AuditWarning: warn}, nil
}

// Return sends the account back to the scholar with mandatory correction
// notes, unlocking the fields
func (s *BankValidationService) Return(ctx context.Context, accountID, actorID uuid.UUID, notes string) (*BankAccountResult, error) {
	account, err := s.bankAccounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	prev := bankAccountSnapshot(account)
	if err := account.Return(notes, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.bankAccounts.Save(ctx, account); err != nil {
		return nil, err
	}

	warn := s.recordAudit(ctx, AuditRecord{
		ActorID:       actorID,
		Action:        "bank_account_returned",
		EntityType:    "bank_account",
		EntityID:      account.ID,
		PreviousValue: prev,
		NewValue:      bankAccountSnapshot(account),
	})

	s.events.Dispatch(ctx, account)

	return &BankAccountResult{Account: account, AuditWarning: warn}, nil
}

// Get returns a bank account by id
func (s *BankValidationService) Get(ctx context.Context, id uuid.UUID) (*grant.BankAccount, error) {
	return s.bankAccounts.FindByID(ctx, id)
}

// GetByUser returns the scholar's bank account
func (s *BankValidationService) GetByUser(ctx context.Context, userID uuid.UUID) (*grant.BankAccount, error) {
	return s.bankAccounts.FindByUser(ctx, userID)
}

// recordAudit reports a failed audit write as a warning flag for the result
func (s *BankValidationService) recordAudit(ctx context.Context, record AuditRecord) bool {
	if err := s.audit.Record(ctx, record); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", record.Action),
			zap.String("entity_id", record.EntityID.String()),
			zap.Error(err))
		return true
	}
	return false
}
