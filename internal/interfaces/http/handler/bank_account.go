package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/interfaces/http/middleware"
)

// BankAccountHandler handles bank account validation API endpoints
type BankAccountHandler struct {
	BaseHandler
	validation *grantapp.BankValidationService
}

// NewBankAccountHandler creates a new BankAccountHandler
func NewBankAccountHandler(validation *grantapp.BankValidationService) *BankAccountHandler {
	return &BankAccountHandler{validation: validation}
}

// RegisterRoutes registers bank account routes on the given group
func (h *BankAccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/bank-accounts")
	{
		accounts.POST("", h.Submit)
		accounts.GET("/me", h.GetMine)
		accounts.GET("/:id", h.Get)
		accounts.POST("/:id/begin-review", h.BeginReview)
		accounts.POST("/:id/validate", h.Validate)
		accounts.POST("/:id/return", h.Return)
	}
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	BankCode         string     `json:"bank_code"`
	BankName         string     `json:"bank_name"`
	BranchNumber     string     `json:"branch_number"`
	AccountNumber    string     `json:"account_number"`
	AccountType      string     `json:"account_type,omitempty"`
	PixKey           string     `json:"pix_key,omitempty"`
	ValidationStatus string     `json:"validation_status"`
	LockedForEdit    bool       `json:"locked_for_edit"`
	ValidatedAt      *time.Time `json:"validated_at,omitempty"`
	ManagerNotes     string     `json:"manager_notes,omitempty"`
}

func toBankAccountResponse(a *grant.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:               a.ID.String(),
		UserID:           a.UserID.String(),
		BankCode:         a.Details.BankCode,
		BankName:         a.Details.BankName,
		BranchNumber:     a.Details.BranchNumber,
		AccountNumber:    a.Details.AccountNumber,
		AccountType:      a.Details.AccountType,
		PixKey:           a.Details.PixKey,
		ValidationStatus: string(a.ValidationStatus),
		LockedForEdit:    a.LockedForEdit,
		ValidatedAt:      a.ValidatedAt,
		ManagerNotes:     a.ManagerNotes,
	}
}

// SubmitBankAccountRequest represents the scholar's account data submission
type SubmitBankAccountRequest struct {
	BankCode      string `json:"bank_code" binding:"required,max=10"`
	BankName      string `json:"bank_name" binding:"max=100"`
	BranchNumber  string `json:"branch_number" binding:"required,max=20"`
	AccountNumber string `json:"account_number" binding:"required,max=30"`
	AccountType   string `json:"account_type" binding:"max=20"`
	PixKey        string `json:"pix_key" binding:"max=100"`
}

// Submit creates or resubmits the scholar's bank account for validation
func (h *BankAccountHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid X-Organization-ID header")
		return
	}

	var req SubmitBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.validation.Submit(c.Request.Context(), grantapp.SubmitBankAccountRequest{
		OrganizationID: orgID,
		UserID:         userID,
		Details: grant.BankAccountDetails{
			BankCode:      req.BankCode,
			BankName:      req.BankName,
			BranchNumber:  req.BranchNumber,
			AccountNumber: req.AccountNumber,
			AccountType:   req.AccountType,
			PixKey:        req.PixKey,
		},
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toBankAccountResponse(result.Account))
}

// GetMine returns the requesting scholar's bank account
func (h *BankAccountHandler) GetMine(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}

	account, err := h.validation.GetByUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBankAccountResponse(account))
}

// Get returns a bank account by ID
func (h *BankAccountHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	account, err := h.validation.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBankAccountResponse(account))
}

// BeginReview locks the account against edits while a manager reviews it
func (h *BankAccountHandler) BeginReview(c *gin.Context) {
	result, ok := h.managerAction(c, h.validation.BeginReview)
	if !ok {
		return
	}
	h.SuccessAudited(c, toBankAccountResponse(result.Account), result.AuditWarning)
}

// Validate confirms the account data and freezes it
func (h *BankAccountHandler) Validate(c *gin.Context) {
	result, ok := h.managerAction(c, h.validation.Validate)
	if !ok {
		return
	}
	h.SuccessAudited(c, toBankAccountResponse(result.Account), result.AuditWarning)
}

// ReturnRequest carries the correction notes sent back to the scholar
type ReturnRequest struct {
	Notes string `json:"notes" binding:"required,max=2000"`
}

// Return sends the account back to the scholar with correction notes
func (h *BankAccountHandler) Return(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can review bank accounts")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	accountID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.validation.Return(c.Request.Context(), accountID, actorID, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessAudited(c, toBankAccountResponse(result.Account), result.AuditWarning)
}

// managerAction runs a manager-only transition taking (accountID, actorID)
func (h *BankAccountHandler) managerAction(
	c *gin.Context,
	action func(ctx context.Context, accountID, actorID uuid.UUID) (*grantapp.BankAccountResult, error),
) (*grantapp.BankAccountResult, bool) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can review bank accounts")
		return nil, false
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return nil, false
	}
	accountID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return nil, false
	}

	result, err := action(c.Request.Context(), accountID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return nil, false
	}
	return result, true
}
