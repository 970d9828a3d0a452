package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	types "github.com/vizlake/vizlake-backend/internal/domain"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/services"
)

type ChartHandler struct {
	charts services.ChartService
}

func NewChartHandler(charts services.ChartService) *ChartHandler {
	return &ChartHandler{charts: charts}
}

// POST /api/projects/:projectId/charts
func (h *ChartHandler) Create(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}

	var input types.CreateChart
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	doc, err := h.charts.Create(dbctx.Context{Ctx: c.Request.Context()}, projectID, userID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"chart": doc})
}

// POST /api/charts/:id/versions
func (h *ChartHandler) CreateVersion(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	var input types.CreateChartVersion
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	doc, err := h.charts.CreateVersion(dbctx.Context{Ctx: c.Request.Context()}, chartID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"chart": doc})
}

// GET /api/charts/:id?version_id=...
func (h *ChartHandler) Get(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	var versionID *uuid.UUID
	if raw := c.Query("version_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
			return
		}
		versionID = &parsed
	}

	doc, err := h.charts.Get(dbctx.Context{Ctx: c.Request.Context()}, chartID, versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chart": doc})
}

// GET /api/charts/:id/summary
func (h *ChartHandler) GetSummary(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	summary, err := h.charts.GetSummary(dbctx.Context{Ctx: c.Request.Context()}, chartID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chart": summary})
}

// GET /api/projects/:projectId/charts
func (h *ChartHandler) Find(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	filter := charts.SummaryFilter{
		ProjectID:               &projectID,
		Slugs:                   c.QueryArray("slug"),
		SourceTables:            c.QueryArray("source_table"),
		ExcludeSavedInDashboard: c.Query("exclude_saved_in_dashboard") == "true",
	}
	for _, raw := range c.QueryArray("space_id") {
		spaceID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_space_id", err)
			return
		}
		filter.SpaceIDs = append(filter.SpaceIDs, spaceID)
	}

	summaries, err := h.charts.Find(dbctx.Context{Ctx: c.Request.Context()}, filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"charts": summaries})
}

// PATCH /api/charts/:id
func (h *ChartHandler) Update(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	var input types.UpdateChart
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	summary, err := h.charts.Update(dbctx.Context{Ctx: c.Request.Context()}, chartID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chart": summary})
}

// PATCH /api/charts
func (h *ChartHandler) UpdateMultiple(c *gin.Context) {
	var input []types.UpdateMultipleChart
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	summaries, err := h.charts.UpdateMultiple(dbctx.Context{Ctx: c.Request.Context()}, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"charts": summaries})
}

// DELETE /api/charts/:id
func (h *ChartHandler) Delete(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	doc, err := h.charts.Delete(dbctx.Context{Ctx: c.Request.Context()}, chartID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chart": doc})
}

// POST /api/charts/:id/move
func (h *ChartHandler) MoveToSpace(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	var body struct {
		SpaceID *uuid.UUID `json:"space_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := h.charts.MoveToSpace(dbctx.Context{Ctx: c.Request.Context()}, chartID, body.SpaceID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"moved": true})
}

// GET /api/charts/:id/versions/:versionId
func (h *ChartHandler) GetVersionSummary(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}
	versionID, err := uuid.Parse(c.Param("versionId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}

	summary, err := h.charts.GetVersionSummary(dbctx.Context{Ctx: c.Request.Context()}, chartID, versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"version": summary})
}

// GET /api/charts/:id/history
func (h *ChartHandler) GetVersionHistory(c *gin.Context) {
	chartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chart_id", err)
		return
	}

	summaries, err := h.charts.GetVersionHistory(dbctx.Context{Ctx: c.Request.Context()}, chartID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": summaries})
}
