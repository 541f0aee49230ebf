package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/interfaces/http/middleware"
)

// EnrollmentHandler handles enrollment API endpoints
type EnrollmentHandler struct {
	BaseHandler
	enrollments *grantapp.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(enrollments *grantapp.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// RegisterRoutes registers enrollment routes on the given group
func (h *EnrollmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	enrollments := rg.Group("/enrollments")
	{
		enrollments.POST("", h.Create)
		enrollments.GET("", h.List)
		enrollments.GET("/:id", h.Get)
		enrollments.POST("/:id/status", h.ChangeStatus)
	}
}

// EnrollmentResponse represents an enrollment in API responses
type EnrollmentResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	SubprojectID      string    `json:"subproject_id"`
	Modality          string    `json:"modality"`
	GrantValue        string    `json:"grant_value"`
	TotalGrantValue   string    `json:"total_grant_value"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	TotalInstallments int       `json:"total_installments"`
	Status            string    `json:"status"`
}

func toEnrollmentResponse(e *grant.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:                e.ID.String(),
		UserID:            e.UserID.String(),
		SubprojectID:      e.SubprojectID.String(),
		Modality:          e.Modality,
		GrantValue:        e.GrantValue.StringFixed(2),
		TotalGrantValue:   e.TotalGrantAmount().StringFixed(2),
		StartDate:         e.StartDate,
		EndDate:           e.EndDate,
		TotalInstallments: e.TotalInstallments,
		Status:            string(e.Status),
	}
}

// CreateEnrollmentRequest represents a request to enroll a scholar
type CreateEnrollmentRequest struct {
	UserID            string    `json:"user_id" binding:"required,uuid"`
	SubprojectID      string    `json:"subproject_id" binding:"required,uuid"`
	Modality          string    `json:"modality" binding:"required,max=50"`
	GrantValue        float64   `json:"grant_value" binding:"required,gt=0"`
	StartDate         time.Time `json:"start_date" binding:"required"`
	EndDate           time.Time `json:"end_date" binding:"required"`
	TotalInstallments int       `json:"total_installments" binding:"required,min=1"`
}

// Create enrolls a scholar and generates the pending payment schedule
func (h *EnrollmentHandler) Create(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can create enrollments")
		return
	}
	orgID, err := getOrganizationID(c)
	if err != nil {
		h.BadRequest(c, "Invalid X-Organization-ID header")
		return
	}

	var req CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user_id")
		return
	}
	subprojectID, err := uuid.Parse(req.SubprojectID)
	if err != nil {
		h.BadRequest(c, "Invalid subproject_id")
		return
	}

	enrollment, err := h.enrollments.Create(c.Request.Context(), grantapp.CreateEnrollmentRequest{
		OrganizationID:    orgID,
		UserID:            userID,
		SubprojectID:      subprojectID,
		Modality:          req.Modality,
		GrantValue:        decimal.NewFromFloat(req.GrantValue),
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		TotalInstallments: req.TotalInstallments,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toEnrollmentResponse(enrollment))
}

// ChangeStatusRequest represents a request to move an enrollment's status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED COMPLETED CANCELLED"`
}

// ChangeStatus suspends, resumes, completes or cancels an enrollment
func (h *EnrollmentHandler) ChangeStatus(c *gin.Context) {
	if !isManager(c) {
		h.Forbidden(c, "Only managers can change enrollment status")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	enrollmentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.enrollments.ChangeStatus(c.Request.Context(), enrollmentID, actorID,
		grant.EnrollmentStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessAudited(c, toEnrollmentResponse(result.Enrollment), result.AuditWarning)
}

// Get returns a single enrollment
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toEnrollmentResponse(enrollment))
}

// List returns enrollments matching the query filters
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter, err := enrollmentFilterFromQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	enrollments, total, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]EnrollmentResponse, len(enrollments))
	for i := range enrollments {
		out[i] = toEnrollmentResponse(&enrollments[i])
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}
