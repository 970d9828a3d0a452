package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChartKind tags the denormalized rendering style kept on the chart row for
// fast listing. It is derived from the latest version's chart type + config.
const (
	ChartKindVerticalBar   = "vertical_bar"
	ChartKindHorizontalBar = "horizontal_bar"
	ChartKindLine          = "line"
	ChartKindArea          = "area"
	ChartKindScatter       = "scatter"
	ChartKindMixed         = "mixed"
	ChartKindPie           = "pie"
	ChartKindFunnel        = "funnel"
	ChartKindTreemap       = "treemap"
	ChartKindTable         = "table"
	ChartKindBigNumber     = "big_number"
	ChartKindCustom        = "custom"
)

// Chart is the mutable-identity parent of a version history. Exactly one of
// SpaceID / DashboardID is set; moving a chart into a space clears
// DashboardID and vice versa.
type Chart struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpaceID     *uuid.UUID `gorm:"type:uuid;index" json:"space_id,omitempty"`
	DashboardID *uuid.UUID `gorm:"type:uuid;index" json:"dashboard_id,omitempty"`
	Name        string     `gorm:"type:text;not null" json:"name"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	Slug        string     `gorm:"type:text;not null;index" json:"slug"`

	LastVersionChartKind       string     `gorm:"type:text;not null;default:'vertical_bar'" json:"last_version_chart_kind"`
	LastVersionUpdatedAt       time.Time  `gorm:"not null;default:now()" json:"last_version_updated_at"`
	LastVersionUpdatedByUserID *uuid.UUID `gorm:"type:uuid" json:"last_version_updated_by_user_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Chart) TableName() string { return "chart" }
