package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CustomDimensionTypeBin = "bin"
	CustomDimensionTypeSQL = "sql"
)

const (
	BinTypeFixedNumber = "fixed_number"
	BinTypeFixedWidth  = "fixed_width"
	BinTypeCustomRange = "custom_range"
)

// ChartVersionCustomBinDimension buckets an existing dimension. The
// (version, custom dimension id) pair is unique; the id also names the
// column in the shared order.
type ChartVersionCustomBinDimension struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_custom_bin_dimension_version_dim,unique,priority:1" json:"chart_version_id"`

	CustomDimensionID string         `gorm:"column:custom_dimension_id;type:text;not null;index:idx_custom_bin_dimension_version_dim,unique,priority:2" json:"custom_dimension_id"`
	Name              string         `gorm:"type:text;not null" json:"name"`
	DimensionID       string         `gorm:"type:text;not null" json:"dimension_id"`
	SourceTable       string         `gorm:"type:text;not null" json:"source_table"`
	BinType           string         `gorm:"type:text;not null" json:"bin_type"`
	BinNumber         *int           `gorm:"" json:"bin_number,omitempty"`
	BinWidth          *float64       `gorm:"" json:"bin_width,omitempty"`
	CustomRange       datatypes.JSON `gorm:"type:jsonb" json:"custom_range,omitempty"`
	Order             int            `gorm:"column:order;not null" json:"order"`
}

func (ChartVersionCustomBinDimension) TableName() string {
	return "chart_version_custom_dimension"
}

// ChartVersionCustomSQLDimension is a dimension defined by a raw expression
// with a declared result type.
type ChartVersionCustomSQLDimension struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_custom_sql_dimension_version_dim,unique,priority:1" json:"chart_version_id"`

	CustomDimensionID string `gorm:"column:custom_dimension_id;type:text;not null;index:idx_custom_sql_dimension_version_dim,unique,priority:2" json:"custom_dimension_id"`
	Name              string `gorm:"type:text;not null" json:"name"`
	SourceTable       string `gorm:"type:text;not null" json:"source_table"`
	SQL               string `gorm:"column:sql;type:text;not null" json:"sql"`
	DimensionType     string `gorm:"type:text;not null" json:"dimension_type"`
	Order             int    `gorm:"column:order;not null" json:"order"`
}

func (ChartVersionCustomSQLDimension) TableName() string {
	return "chart_version_custom_sql_dimension"
}
