package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChartVersion is an immutable snapshot of a chart's query and rendering
// definition. Versions are append-only; the newest one (by CreatedAt, ties
// broken by Seq) is the chart's current state.
type ChartVersion struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Seq     int64     `gorm:"autoIncrement;->;uniqueIndex" json:"seq"`
	ChartID uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_id"`

	SourceTable     string         `gorm:"type:text;not null" json:"source_table"`
	RowLimit        int            `gorm:"not null;default:500" json:"row_limit"`
	Filters         datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"filters"`
	MetricOverrides datatypes.JSON `gorm:"type:jsonb" json:"metric_overrides,omitempty"`
	ChartType       string         `gorm:"type:text;not null" json:"chart_type"`
	ChartConfig     datatypes.JSON `gorm:"type:jsonb" json:"chart_config,omitempty"`
	PivotDimensions datatypes.JSON `gorm:"type:jsonb" json:"pivot_dimensions,omitempty"`
	Parameters      datatypes.JSON `gorm:"type:jsonb" json:"parameters,omitempty"`
	Timezone        *string        `gorm:"type:text" json:"timezone,omitempty"`

	UpdatedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"updated_by_user_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now();index" json:"created_at"`
}

func (ChartVersion) TableName() string { return "chart_version" }
