package handler

import (
	"io"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	settlement *grantapp.PaymentSettlementService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(settlement *grantapp.PaymentSettlementService) *PaymentHandler {
	return &PaymentHandler{settlement: settlement}
}

// RegisterRoutes registers payment routes on the given group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.GET("/:id/receipt-url", h.ReceiptURL)
		payments.GET("/enrollment/:id", h.ListByEnrollment)
		payments.POST("/:id/settle", h.Settle)
		payments.POST("/:id/receipt", h.AttachReceipt)
		payments.POST("/:id/cancel", h.Cancel)
	}
}

// PaymentResponse represents a payment in API responses. Amount is omitted
// while the read-side masking policy hides it from the scholar.
type PaymentResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	EnrollmentID      string     `json:"enrollment_id"`
	InstallmentNumber int        `json:"installment_number"`
	ReferenceMonth    string     `json:"reference_month"`
	Amount            *string    `json:"amount,omitempty"`
	AmountMasked      bool       `json:"amount_masked"`
	Status            string     `json:"status"`
	ReportID          *string    `json:"report_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	HasReceipt        bool       `json:"has_receipt"`
}

func toPaymentResponse(p *grant.Payment, viewerIsManager bool) PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID.String(),
		UserID:            p.UserID.String(),
		EnrollmentID:      p.EnrollmentID.String(),
		InstallmentNumber: p.InstallmentNumber,
		ReferenceMonth:    string(p.ReferenceMonth),
		Status:            string(p.Status),
		PaidAt:            p.PaidAt,
		HasReceipt:        p.ReceiptKey != "",
	}
	if p.ReportID != nil {
		s := p.ReportID.String()
		resp.ReportID = &s
	}
	if viewerIsManager || p.AmountVisible() {
		amount := p.Amount.StringFixed(2)
		resp.Amount = &amount
	} else {
		resp.AmountMasked = true
	}
	return resp
}

func (h *PaymentHandler) toPaymentResponses(c *gin.Context, payments []grant.Payment) []PaymentResponse {
	manager := isManager(c)
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = toPaymentResponse(&payments[i], manager)
	}
	return out
}

// SettleResponse reports the settled payment plus advisory warnings
type SettleResponse struct {
	Payment                PaymentResponse `json:"payment"`
	BankAccountUnvalidated bool            `json:"bank_account_unvalidated"`
	AuditWarning           bool            `json:"audit_warning"`
}

// Settle records the disbursement of an eligible payment. The receipt file
// is optional and can be attached later.
func (h *PaymentHandler) Settle(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can settle payments")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	receiptName, receiptContent, err := optionalFormFile(c, "receipt")
	if err != nil {
		h.InternalError(c, "Failed to read uploaded receipt")
		return
	}

	result, err := h.settlement.MarkPaid(c.Request.Context(), grantapp.MarkPaidRequest{
		PaymentID:      paymentID,
		ActorID:        actorID,
		ReceiptName:    receiptName,
		ReceiptContent: receiptContent,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessAudited(c, SettleResponse{
		Payment:                toPaymentResponse(result.Payment, true),
		BankAccountUnvalidated: result.BankAccountUnvalidated,
		AuditWarning:           result.AuditWarning,
	}, result.AuditWarning)
}

// AttachReceipt stores a receipt file against an already paid payment
func (h *PaymentHandler) AttachReceipt(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can attach receipts")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		h.BadRequest(c, "Receipt file is required")
		return
	}
	content, err := readFormFile(fileHeader)
	if err != nil {
		h.InternalError(c, "Failed to read uploaded receipt")
		return
	}

	result, err := h.settlement.AttachReceipt(c.Request.Context(), grantapp.AttachReceiptRequest{
		PaymentID:      paymentID,
		ActorID:        actorID,
		ReceiptName:    fileHeader.Filename,
		ReceiptContent: content,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessAudited(c, toPaymentResponse(result.Payment, true), result.AuditWarning)
}

// Cancel voids a payment that has not been paid
func (h *PaymentHandler) Cancel(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can cancel payments")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.settlement.Cancel(c.Request.Context(), paymentID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessAudited(c, toPaymentResponse(result.Payment, true), result.AuditWarning)
}

// Get returns a single payment
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.settlement.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment, isManager(c)))
}

// ListByEnrollment returns the full payment schedule of an enrollment
func (h *PaymentHandler) ListByEnrollment(c *gin.Context) {
	enrollmentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.settlement.ListByEnrollment(c.Request.Context(), enrollmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toPaymentResponses(c, payments))
}

// List returns payments matching the query filters
func (h *PaymentHandler) List(c *gin.Context) {
	filter, err := paymentFilterFromQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payments, err := h.settlement.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, h.toPaymentResponses(c, payments))
}

// ReceiptURL returns a pre-signed download URL for the payment receipt
func (h *PaymentHandler) ReceiptURL(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.settlement.ReceiptURL(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"url": url})
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func optionalFormFile(c *gin.Context, field string) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		// Missing file is fine for optional uploads
		return "", nil, nil
	}
	content, err := readFormFile(fileHeader)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, content, nil
}
