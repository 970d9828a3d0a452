package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChartVersionAdditionalMetric is a user-derived metric. Optional columns
// stay NULL in storage and are dropped from documents at read time.
type ChartVersionAdditionalMetric struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_version_id"`

	SourceTable string  `gorm:"type:text;not null" json:"source_table"`
	Name        string  `gorm:"type:text;not null" json:"name"`
	MetricType  string  `gorm:"type:text;not null" json:"metric_type"`
	Label       *string `gorm:"type:text" json:"label,omitempty"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	SQL         string  `gorm:"column:sql;type:text;not null" json:"sql"`
	Hidden      bool    `gorm:"not null;default:false" json:"hidden"`

	Round         *int           `gorm:"" json:"round,omitempty"`
	Compact       *string        `gorm:"type:text" json:"compact,omitempty"`
	Percentile    *float64       `gorm:"" json:"percentile,omitempty"`
	Format        *string        `gorm:"type:text" json:"format,omitempty"`
	FormatOptions datatypes.JSON `gorm:"type:jsonb" json:"format_options,omitempty"`

	Filters           datatypes.JSON `gorm:"type:jsonb" json:"filters,omitempty"`
	BaseDimensionName *string        `gorm:"type:text" json:"base_dimension_name,omitempty"`
}

func (ChartVersionAdditionalMetric) TableName() string {
	return "chart_version_additional_metric"
}
