package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grantflow/backend/internal/domain/grant"
	"github.com/grantflow/backend/internal/domain/shared"
)

// paginationFromQuery builds the shared filter from page/page_size query
// parameters, applying the defaults for missing values
func paginationFromQuery(c *gin.Context) (shared.Filter, error) {
	filter := shared.DefaultFilter()

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, errors.New("invalid page")
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > 100 {
			return filter, errors.New("invalid page_size")
		}
		filter.PageSize = size
	}

	return filter, nil
}

func uuidQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	return &id, nil
}

func reportFilterFromQuery(c *gin.Context) (grant.ReportFilter, error) {
	var filter grant.ReportFilter

	pagination, err := paginationFromQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Filter = pagination

	if filter.UserID, err = uuidQuery(c, "user_id"); err != nil {
		return filter, err
	}
	if filter.EnrollmentID, err = uuidQuery(c, "enrollment_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("reference_month"); raw != "" {
		month := grant.ReferenceMonth(raw)
		if !month.IsValid() {
			return filter, errors.New("invalid reference_month")
		}
		filter.ReferenceMonth = &month
	}
	if raw := c.Query("status"); raw != "" {
		status := grant.ReportStatus(raw)
		if !status.IsValid() {
			return filter, errors.New("invalid status")
		}
		filter.Status = &status
	}

	return filter, nil
}

func paymentFilterFromQuery(c *gin.Context) (grant.PaymentFilter, error) {
	var filter grant.PaymentFilter

	pagination, err := paginationFromQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Filter = pagination

	if filter.UserID, err = uuidQuery(c, "user_id"); err != nil {
		return filter, err
	}
	if filter.EnrollmentID, err = uuidQuery(c, "enrollment_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("reference_month"); raw != "" {
		month := grant.ReferenceMonth(raw)
		if !month.IsValid() {
			return filter, errors.New("invalid reference_month")
		}
		filter.ReferenceMonth = &month
	}
	if raw := c.Query("status"); raw != "" {
		status := grant.PaymentStatus(raw)
		if !status.IsValid() {
			return filter, errors.New("invalid status")
		}
		filter.Status = &status
	}

	return filter, nil
}

func enrollmentFilterFromQuery(c *gin.Context) (grant.EnrollmentFilter, error) {
	var filter grant.EnrollmentFilter

	pagination, err := paginationFromQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Filter = pagination

	if filter.UserID, err = uuidQuery(c, "user_id"); err != nil {
		return filter, err
	}
	if filter.SubprojectID, err = uuidQuery(c, "subproject_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("status"); raw != "" {
		status := grant.EnrollmentStatus(raw)
		if !status.IsValid() {
			return filter, errors.New("invalid status")
		}
		filter.Status = &status
	}

	return filter, nil
}
