package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/services"
)

type ValidationHandler struct {
	validation services.ValidationService
}

func NewValidationHandler(validation services.ValidationService) *ValidationHandler {
	return &ValidationHandler{validation: validation}
}

// GET /api/projects/:projectId/validation/charts
func (h *ValidationHandler) FindChartsForValidation(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	sets, err := h.validation.FindChartsForValidation(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"charts": sets})
}

// POST /api/validation/references
func (h *ValidationHandler) ExtractReferences(c *gin.Context) {
	var body struct {
		ChartIDs []uuid.UUID `json:"chart_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	sets, err := h.validation.ExtractReferences(dbctx.Context{Ctx: c.Request.Context()}, body.ChartIDs)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"charts": sets})
}

// GET /api/projects/:projectId/validation/custom-fields
func (h *ValidationHandler) FindChartsWithCustomFields(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	sets, err := h.validation.FindChartsWithCustomFields(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"charts": sets})
}

// GET /api/projects/:projectId/field-usage?field_id=a&field_id=b
func (h *ValidationHandler) GetChartCountPerField(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	counts, err := h.validation.GetChartCountPerField(dbctx.Context{Ctx: c.Request.Context()}, projectID, c.QueryArray("field_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"fields": counts})
}
