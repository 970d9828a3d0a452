package charts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/vizlake/vizlake-backend/internal/domain"
	pkgerrors "github.com/vizlake/vizlake-backend/internal/pkg/errors"
	"github.com/vizlake/vizlake-backend/internal/platform/dbctx"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

// DetailRow is the joined storage shape behind a chart document: the chart
// row, one version row, and its organization/space/dashboard/user/pin
// context. A chart embedded in a dashboard resolves its space through the
// dashboard.
type DetailRow struct {
	ChartID        uuid.UUID  `gorm:"column:chart_id"`
	VersionID      uuid.UUID  `gorm:"column:version_id"`
	ProjectID      uuid.UUID  `gorm:"column:project_id"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id"`
	Name           string     `gorm:"column:name"`
	Description    *string    `gorm:"column:description"`
	Slug           string     `gorm:"column:slug"`
	DashboardID    *uuid.UUID `gorm:"column:dashboard_id"`
	DashboardName  *string    `gorm:"column:dashboard_name"`
	SpaceID        uuid.UUID  `gorm:"column:space_id"`
	SpaceName      string     `gorm:"column:space_name"`
	PinnedListID   *uuid.UUID `gorm:"column:pinned_list_id"`

	SourceTable     string         `gorm:"column:source_table"`
	RowLimit        int            `gorm:"column:row_limit"`
	Filters         datatypes.JSON `gorm:"column:filters"`
	MetricOverrides datatypes.JSON `gorm:"column:metric_overrides"`
	ChartType       string         `gorm:"column:chart_type"`
	ChartConfig     datatypes.JSON `gorm:"column:chart_config"`
	PivotDimensions datatypes.JSON `gorm:"column:pivot_dimensions"`
	Parameters      datatypes.JSON `gorm:"column:parameters"`
	Timezone        *string        `gorm:"column:timezone"`
	CreatedAt       time.Time      `gorm:"column:created_at"`

	UserID        *uuid.UUID     `gorm:"column:user_id"`
	UserFirstName *string        `gorm:"column:user_first_name"`
	UserLastName  *string        `gorm:"column:user_last_name"`
	OrgPalette    datatypes.JSON `gorm:"column:org_palette"`
}

// LastVersionRow is one entry of the last-version-per-chart read model: the
// union of charts living directly in a project's spaces and charts embedded
// in that project's dashboards, each paired with its highest version.
type LastVersionRow struct {
	ChartID     uuid.UUID      `gorm:"column:chart_id"`
	Name        string         `gorm:"column:name"`
	DashboardID *uuid.UUID     `gorm:"column:dashboard_id"`
	VersionID   uuid.UUID      `gorm:"column:version_id"`
	SourceTable string         `gorm:"column:source_table"`
	Filters     datatypes.JSON `gorm:"column:filters"`
}

type FieldCount struct {
	FieldID string `gorm:"column:field_id"`
	Count   int64  `gorm:"column:count"`
}

// SummaryFilter narrows FindSummaries. Zero values mean "no constraint".
type SummaryFilter struct {
	ProjectID                *uuid.UUID
	SpaceIDs                 []uuid.UUID
	Slugs                    []string
	SourceTables             []string
	ExcludeSavedInDashboard  bool
	IncludeOrphanInDashboard bool
}

type ChartReadModelRepo interface {
	GetDetail(dbc dbctx.Context, chartID uuid.UUID, versionID *uuid.UUID) (*DetailRow, error)
	GetSummaryByID(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartSummary, error)
	FindSummaries(dbc dbctx.Context, filter SummaryFilter) ([]types.ChartSummary, error)
	LastVersionPerChart(dbc dbctx.Context, projectID uuid.UUID) ([]LastVersionRow, error)
	LastVersionForCharts(dbc dbctx.Context, chartIDs []uuid.UUID) ([]LastVersionRow, error)
	ChartsInLatestDashboardVersions(dbc dbctx.Context, dashboardIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
	CountFieldUsage(dbc dbctx.Context, versionIDs []uuid.UUID, fieldIDs []string) ([]FieldCount, error)
}

type chartReadModelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChartReadModelRepo(db *gorm.DB, baseLog *logger.Logger) ChartReadModelRepo {
	repoLog := baseLog.With("repo", "ChartReadModelRepo")
	return &chartReadModelRepo{db: db, log: repoLog}
}

func (r *chartReadModelRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

const detailSelect = `
	chart.id AS chart_id,
	chart_version.id AS version_id,
	project.id AS project_id,
	organization.id AS organization_id,
	chart.name AS name,
	chart.description AS description,
	chart.slug AS slug,
	chart.dashboard_id AS dashboard_id,
	dashboard.name AS dashboard_name,
	space.id AS space_id,
	space.name AS space_name,
	pinned_list.id AS pinned_list_id,
	chart_version.source_table AS source_table,
	chart_version.row_limit AS row_limit,
	chart_version.filters AS filters,
	chart_version.metric_overrides AS metric_overrides,
	chart_version.chart_type AS chart_type,
	chart_version.chart_config AS chart_config,
	chart_version.pivot_dimensions AS pivot_dimensions,
	chart_version.parameters AS parameters,
	chart_version.timezone AS timezone,
	chart_version.created_at AS created_at,
	app_user.id AS user_id,
	app_user.first_name AS user_first_name,
	app_user.last_name AS user_last_name,
	organization_color_palette.colors AS org_palette`

func (r *chartReadModelRepo) detailQuery(dbc dbctx.Context) *gorm.DB {
	return r.handle(dbc).
		Table("chart").
		Select(detailSelect).
		Joins("LEFT JOIN dashboard ON dashboard.id = chart.dashboard_id").
		Joins("INNER JOIN space ON space.id = dashboard.space_id OR space.id = chart.space_id").
		Joins("INNER JOIN project ON project.id = space.project_id").
		Joins("INNER JOIN organization ON organization.id = project.organization_id").
		Joins("LEFT JOIN organization_color_palette ON organization_color_palette.id = organization.color_palette_id").
		Joins("INNER JOIN chart_version ON chart_version.chart_id = chart.id").
		Joins("LEFT JOIN app_user ON app_user.id = chart_version.updated_by_user_id").
		Joins("LEFT JOIN pinned_chart ON pinned_chart.chart_id = chart.id").
		Joins("LEFT JOIN pinned_list ON pinned_list.id = pinned_chart.pinned_list_id")
}

func (r *chartReadModelRepo) GetDetail(dbc dbctx.Context, chartID uuid.UUID, versionID *uuid.UUID) (*DetailRow, error) {
	query := r.detailQuery(dbc).
		Where("chart.id = ?", chartID).
		Order("chart_version.created_at DESC").
		Order("chart_version.seq DESC").
		Limit(1)
	if versionID != nil {
		query = query.Where("chart_version.id = ?", *versionID)
	}

	var row DetailRow
	result := query.Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("chart %s: %w", chartID, pkgerrors.ErrNotFound)
	}
	return &row, nil
}

const summarySelect = `
	chart.id AS id,
	chart.name AS name,
	chart.description AS description,
	space.id AS space_id,
	space.name AS space_name,
	project.id AS project_id,
	organization.id AS organization_id,
	pinned_list.id AS pinned_list_id,
	chart.last_version_chart_kind AS chart_kind,
	chart.dashboard_id AS dashboard_id,
	dashboard.name AS dashboard_name,
	chart.last_version_updated_at AS updated_at,
	chart.slug AS slug`

func (r *chartReadModelRepo) summaryQuery(dbc dbctx.Context) *gorm.DB {
	return r.handle(dbc).
		Table("chart").
		Select(summarySelect).
		Joins("LEFT JOIN dashboard ON dashboard.id = chart.dashboard_id").
		Joins("INNER JOIN space ON space.id = dashboard.space_id OR space.id = chart.space_id").
		Joins("INNER JOIN project ON project.id = space.project_id").
		Joins("INNER JOIN organization ON organization.id = project.organization_id").
		Joins("LEFT JOIN pinned_chart ON pinned_chart.chart_id = chart.id").
		Joins("LEFT JOIN pinned_list ON pinned_list.id = pinned_chart.pinned_list_id")
}

func (r *chartReadModelRepo) GetSummaryByID(dbc dbctx.Context, chartID uuid.UUID) (*types.ChartSummary, error) {
	var summary types.ChartSummary
	result := r.summaryQuery(dbc).
		Where("chart.id = ?", chartID).
		Limit(1).
		Scan(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("chart %s: %w", chartID, pkgerrors.ErrNotFound)
	}
	return &summary, nil
}

func (r *chartReadModelRepo) FindSummaries(dbc dbctx.Context, filter SummaryFilter) ([]types.ChartSummary, error) {
	query := r.summaryQuery(dbc)

	if filter.ProjectID != nil {
		query = query.Where("project.id = ?", *filter.ProjectID)
	}
	if len(filter.SpaceIDs) > 0 {
		query = query.Where("space.id IN ?", filter.SpaceIDs)
	}
	if len(filter.Slugs) > 0 {
		query = query.Where("chart.slug IN ?", filter.Slugs)
	}
	if filter.ExcludeSavedInDashboard {
		query = query.Where("chart.space_id IS NOT NULL")
	}
	if len(filter.SourceTables) > 0 {
		query = query.
			Joins("LEFT JOIN chart_version ON chart_version.chart_id = chart.id").
			Where("chart_version.source_table IN ?", filter.SourceTables).
			Distinct()
	}
	if !filter.IncludeOrphanInDashboard {
		// Keep charts not saved in a dashboard, or embedded charts that the
		// dashboard's latest version still references.
		query = query.Where(`chart.dashboard_id IS NULL OR EXISTS (
			SELECT 1
			FROM dashboard_tile_chart t
			JOIN dashboard_version dv ON dv.id = t.dashboard_version_id
			WHERE t.chart_id = chart.id
			  AND dv.dashboard_id = chart.dashboard_id
			  AND dv.seq = (SELECT MAX(dv2.seq) FROM dashboard_version dv2 WHERE dv2.dashboard_id = dv.dashboard_id)
		)`)
	}

	var summaries []types.ChartSummary
	if err := query.Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

const lastVersionSpaceArm = `
	SELECT chart.id AS chart_id, chart.name AS name, chart.dashboard_id AS dashboard_id,
	       chart_version.id AS version_id, chart_version.source_table AS source_table, chart_version.filters AS filters
	FROM chart
	INNER JOIN space ON space.id = chart.space_id
	INNER JOIN project ON project.id = space.project_id
	INNER JOIN chart_version ON chart_version.chart_id = chart.id
	WHERE project.id = ?
	  AND chart_version.seq = (SELECT MAX(v.seq) FROM chart_version v WHERE v.chart_id = chart.id)`

const lastVersionDashboardArm = `
	SELECT chart.id AS chart_id, chart.name AS name, chart.dashboard_id AS dashboard_id,
	       chart_version.id AS version_id, chart_version.source_table AS source_table, chart_version.filters AS filters
	FROM chart
	INNER JOIN dashboard ON dashboard.id = chart.dashboard_id
	INNER JOIN space ON space.id = dashboard.space_id
	INNER JOIN project ON project.id = space.project_id
	INNER JOIN chart_version ON chart_version.chart_id = chart.id
	WHERE project.id = ?
	  AND chart_version.seq = (SELECT MAX(v.seq) FROM chart_version v WHERE v.chart_id = chart.id)`

func (r *chartReadModelRepo) LastVersionPerChart(dbc dbctx.Context, projectID uuid.UUID) ([]LastVersionRow, error) {
	var rows []LastVersionRow
	sql := lastVersionSpaceArm + "\n\tUNION ALL\n" + lastVersionDashboardArm
	if err := r.handle(dbc).Raw(sql, projectID, projectID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chartReadModelRepo) LastVersionForCharts(dbc dbctx.Context, chartIDs []uuid.UUID) ([]LastVersionRow, error) {
	var rows []LastVersionRow
	if len(chartIDs) == 0 {
		return rows, nil
	}
	sql := `
	SELECT chart.id AS chart_id, chart.name AS name, chart.dashboard_id AS dashboard_id,
	       chart_version.id AS version_id, chart_version.source_table AS source_table, chart_version.filters AS filters
	FROM chart
	INNER JOIN chart_version ON chart_version.chart_id = chart.id
	WHERE chart.id IN ?
	  AND chart_version.seq = (SELECT MAX(v.seq) FROM chart_version v WHERE v.chart_id = chart.id)`
	if err := r.handle(dbc).Raw(sql, chartIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ChartsInLatestDashboardVersions returns the ids of charts referenced by a
// tile in the latest version of any of the given dashboards.
func (r *chartReadModelRepo) ChartsInLatestDashboardVersions(dbc dbctx.Context, dashboardIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	live := make(map[uuid.UUID]struct{})
	if len(dashboardIDs) == 0 {
		return live, nil
	}

	var chartIDs []uuid.UUID
	sql := `
	SELECT DISTINCT t.chart_id
	FROM dashboard_tile_chart t
	JOIN dashboard_version dv ON dv.id = t.dashboard_version_id
	WHERE dv.dashboard_id IN ?
	  AND dv.seq = (SELECT MAX(dv2.seq) FROM dashboard_version dv2 WHERE dv2.dashboard_id = dv.dashboard_id)`
	if err := r.handle(dbc).Raw(sql, dashboardIDs).Scan(&chartIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range chartIDs {
		live[id] = struct{}{}
	}
	return live, nil
}

func (r *chartReadModelRepo) CountFieldUsage(dbc dbctx.Context, versionIDs []uuid.UUID, fieldIDs []string) ([]FieldCount, error) {
	var counts []FieldCount
	if len(versionIDs) == 0 || len(fieldIDs) == 0 {
		return counts, nil
	}
	if err := r.handle(dbc).
		Table("chart_version_field").
		Select("name AS field_id, COUNT(DISTINCT chart_version_id) AS count").
		Where("chart_version_id IN ?", versionIDs).
		Where("name IN ?", fieldIDs).
		Group("name").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
