package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UpdatedBy identifies the user who produced a version. System-generated
// versions carry no user.
type UpdatedBy struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type VersionSummary struct {
	ChartID   uuid.UUID  `json:"chart_id"`
	VersionID uuid.UUID  `json:"version_id"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *UpdatedBy `json:"created_by,omitempty"`
}

type SortField struct {
	FieldID    string `json:"field_id"`
	Descending bool   `json:"descending"`
}

type TableCalculation struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	SQL         string          `json:"sql"`
	Format      json.RawMessage `json:"format,omitempty"`
	Type        string          `json:"type,omitempty"`
}

// CustomDimension is the document form of either custom-dimension variant,
// tagged by Type. Bin dimensions use DimensionID/Bin*; sql dimensions use
// SQL/DimensionType.
type CustomDimension struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SourceTable string `json:"source_table"`

	DimensionID string          `json:"dimension_id,omitempty"`
	BinType     string          `json:"bin_type,omitempty"`
	BinNumber   *int            `json:"bin_number,omitempty"`
	BinWidth    *float64        `json:"bin_width,omitempty"`
	CustomRange json.RawMessage `json:"custom_range,omitempty"`

	SQL           string `json:"sql,omitempty"`
	DimensionType string `json:"dimension_type,omitempty"`
}

// MetricFilterRule is one flattened filter belonging to a custom metric.
type MetricFilterRule struct {
	ID     string `json:"id"`
	Target struct {
		FieldRef string `json:"fieldRef"`
	} `json:"target"`
	Operator string            `json:"operator"`
	Values   []json.RawMessage `json:"values,omitempty"`
}

type AdditionalMetric struct {
	SourceTable string `json:"table"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	SQL         string `json:"sql"`
	Hidden      bool   `json:"hidden"`

	Round      *int     `json:"round,omitempty"`
	Compact    string   `json:"compact,omitempty"`
	Percentile *float64 `json:"percentile,omitempty"`
	Format     string   `json:"format,omitempty"`

	Filters           []MetricFilterRule `json:"filters,omitempty"`
	BaseDimensionName string             `json:"base_dimension_name,omitempty"`
	FormatOptions     json.RawMessage    `json:"format_options,omitempty"`
}

// MetricOverrides maps metric names to opaque numeric/display overrides.
type MetricOverrides map[string]json.RawMessage

type MetricQuery struct {
	Dimensions        []string           `json:"dimensions"`
	Metrics           []string           `json:"metrics"`
	Filters           json.RawMessage    `json:"filters"`
	Sorts             []SortField        `json:"sorts"`
	Limit             int                `json:"limit"`
	MetricOverrides   MetricOverrides    `json:"metric_overrides,omitempty"`
	TableCalculations []TableCalculation `json:"table_calculations"`
	AdditionalMetrics []AdditionalMetric `json:"additional_metrics,omitempty"`
	CustomDimensions  []CustomDimension  `json:"custom_dimensions,omitempty"`
	Timezone          string             `json:"timezone,omitempty"`
}

type ChartConfig struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

type TableConfig struct {
	ColumnOrder []string `json:"column_order"`
}

type PivotConfig struct {
	Columns []string `json:"columns"`
}

// CreateChartVersion is the full input for one immutable version write.
type CreateChartVersion struct {
	SourceTable     string          `json:"source_table"`
	MetricQuery     MetricQuery     `json:"metric_query"`
	ChartConfig     ChartConfig     `json:"chart_config"`
	TableConfig     TableConfig     `json:"table_config"`
	PivotConfig     *PivotConfig    `json:"pivot_config,omitempty"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
	UpdatedByUserID *uuid.UUID      `json:"updated_by_user_id,omitempty"`
}

type CreateChart struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	SpaceID     *uuid.UUID `json:"space_id,omitempty"`
	DashboardID *uuid.UUID `json:"dashboard_id,omitempty"`
	Slug        string     `json:"slug"`
	ForceSlug   bool       `json:"force_slug,omitempty"`

	CreateChartVersion
}

type UpdateChart struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	SpaceID     *uuid.UUID `json:"space_id,omitempty"`
}

// UpdateMultipleChart is one entry of a batch chart update.
type UpdateMultipleChart struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	SpaceID     *uuid.UUID `json:"space_id,omitempty"`
}

// ChartDocument is the reconstructed nested view of one chart version with
// its display context.
type ChartDocument struct {
	ID             uuid.UUID `json:"id"`
	VersionID      uuid.UUID `json:"version_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	OrganizationID uuid.UUID `json:"organization_id"`

	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Slug        string  `json:"slug"`
	SourceTable string  `json:"source_table"`

	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy *UpdatedBy `json:"updated_by,omitempty"`

	MetricQuery MetricQuery     `json:"metric_query"`
	ChartConfig ChartConfig     `json:"chart_config"`
	TableConfig TableConfig     `json:"table_config"`
	PivotConfig *PivotConfig    `json:"pivot_config,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`

	SpaceID       uuid.UUID  `json:"space_id"`
	SpaceName     string     `json:"space_name"`
	DashboardID   *uuid.UUID `json:"dashboard_id,omitempty"`
	DashboardName *string    `json:"dashboard_name,omitempty"`
	PinnedListID  *uuid.UUID `json:"pinned_list_id,omitempty"`

	ColorPalette []string `json:"color_palette"`
}

// ChartSummary is the denormalized listing row.
type ChartSummary struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	SpaceID        uuid.UUID  `json:"space_id"`
	SpaceName      string     `json:"space_name"`
	ProjectID      uuid.UUID  `json:"project_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	PinnedListID   *uuid.UUID `json:"pinned_list_id,omitempty"`
	ChartKind      string     `json:"chart_kind"`
	DashboardID    *uuid.UUID `json:"dashboard_id,omitempty"`
	DashboardName  *string    `json:"dashboard_name,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Slug           string     `json:"slug"`
}

// ReferenceSet is the flat projection of a chart's latest version for the
// external validation engine.
type ReferenceSet struct {
	ChartID     uuid.UUID       `json:"chart_id"`
	Name        string          `json:"name"`
	SourceTable string          `json:"source_table"`
	DashboardID *uuid.UUID      `json:"dashboard_id,omitempty"`
	Filters     json.RawMessage `json:"filters"`

	Dimensions                  []string           `json:"dimensions"`
	Metrics                     []string           `json:"metrics"`
	TableCalculations           []string           `json:"table_calculations"`
	CustomMetrics               []string           `json:"custom_metrics"`
	CustomMetricsBaseDimensions []string           `json:"custom_metrics_base_dimensions"`
	CustomBinDimensions         []string           `json:"custom_bin_dimensions"`
	CustomSQLDimensions         []string           `json:"custom_sql_dimensions"`
	Sorts                       []string           `json:"sorts"`
	CustomMetricsFilters        []MetricFilterRule `json:"custom_metrics_filters"`
}
