package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/interfaces/http/middleware"
)

// ReportHandler handles monthly report API endpoints
type ReportHandler struct {
	BaseHandler
	workflow *grantapp.ReportWorkflowService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(workflow *grantapp.ReportWorkflowService) *ReportHandler {
	return &ReportHandler{workflow: workflow}
}

// RegisterRoutes registers report routes on the given group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.POST("", h.Submit)
		reports.GET("", h.List)
		reports.GET("/versions", h.Versions)
		reports.GET("/:id", h.Get)
		reports.GET("/:id/file-url", h.FileURL)
		reports.POST("/:id/review", h.Review)
	}
}

// ReportResponse represents a report in API responses
type ReportResponse struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	EnrollmentID         string     `json:"enrollment_id"`
	ReferenceMonth       string     `json:"reference_month"`
	InstallmentNumber    int        `json:"installment_number"`
	VersionNumber        int        `json:"version_number"`
	Observations         string     `json:"observations,omitempty"`
	Status               string     `json:"status"`
	Feedback             string     `json:"feedback,omitempty"`
	ResubmissionDeadline *time.Time `json:"resubmission_deadline,omitempty"`
	SubmittedAt          time.Time  `json:"submitted_at"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy           *string    `json:"reviewed_by,omitempty"`
}

func toReportResponse(r *grant.Report) ReportResponse {
	resp := ReportResponse{
		ID:                   r.ID.String(),
		UserID:               r.UserID.String(),
		EnrollmentID:         r.EnrollmentID.String(),
		ReferenceMonth:       string(r.ReferenceMonth),
		InstallmentNumber:    r.InstallmentNumber,
		VersionNumber:        r.VersionNumber,
		Observations:         r.Observations,
		Status:               string(r.Status),
		Feedback:             r.Feedback,
		ResubmissionDeadline: r.ResubmissionDeadline,
		SubmittedAt:          r.SubmittedAt,
		ReviewedAt:           r.ReviewedAt,
	}
	if r.ReviewedBy != nil {
		s := r.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	return resp
}

func toReportResponses(reports []grant.Report) []ReportResponse {
	out := make([]ReportResponse, len(reports))
	for i := range reports {
		out[i] = toReportResponse(&reports[i])
	}
	return out
}

// Submit accepts a multipart form with the report file and submission fields
func (h *ReportHandler) Submit(c *gin.Context) {
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

	enrollmentID, err := uuid.Parse(c.PostForm("enrollment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid enrollment_id")
		return
	}
	installmentNumber, err := strconv.Atoi(c.PostForm("installment_number"))
	if err != nil {
		h.BadRequest(c, "Invalid installment_number")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Report file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}

	report, err := h.workflow.Submit(c.Request.Context(), grantapp.SubmitReportRequest{
		OrganizationID:    orgID,
		UserID:            userID,
		EnrollmentID:      enrollmentID,
		ReferenceMonth:    c.PostForm("reference_month"),
		InstallmentNumber: installmentNumber,
		FileName:          fileHeader.Filename,
		FileContent:       content,
		Observations:      c.PostForm("observations"),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toReportResponse(report))
}

// ReviewRequest represents a reviewer decision on a report version
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Feedback string `json:"feedback" binding:"max=2000"`
}

// ReviewResponse carries the post-decision state of the report and, on
// approval, its payment
type ReviewResponse struct {
	Report  ReportResponse   `json:"report"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// Review applies an APPROVE or REJECT decision to a report under review
func (h *ReportHandler) Review(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can review reports")
		return
	}
	reviewerID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	reportID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.workflow.Review(c.Request.Context(), grantapp.ReviewDecisionRequest{
		ReportID:   reportID,
		ReviewerID: reviewerID,
		Decision:   grant.ReviewDecision(req.Decision),
		Feedback:   req.Feedback,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := ReviewResponse{Report: toReportResponse(result.Report)}
	if result.Payment != nil {
		p := toPaymentResponse(result.Payment, true)
		resp.Payment = &p
	}
	h.Success(c, resp)
}

// Get returns a single report version
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.workflow.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toReportResponse(report))
}

// Versions returns all versions submitted for one installment, newest first
func (h *ReportHandler) Versions(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		h.BadRequest(c, "Invalid user_id")
		return
	}
	month := c.Query("reference_month")
	if month == "" {
		h.BadRequest(c, "reference_month is required")
		return
	}

	reports, err := h.workflow.GetVersions(c.Request.Context(), userID, month)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toReportResponses(reports))
}

// List returns reports matching the query filters
func (h *ReportHandler) List(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reports, err := h.workflow.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toReportResponses(reports))
}

// FileURL returns a pre-signed download URL for the report file
func (h *ReportHandler) FileURL(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.workflow.FileURL(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, gin.H{"url": url})
}
