package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChartVersionTableCalculation struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_version_id"`

	Name              string         `gorm:"type:text;not null" json:"name"`
	DisplayName       string         `gorm:"type:text;not null" json:"display_name"`
	CalculationRawSQL string         `gorm:"column:calculation_raw_sql;type:text;not null" json:"calculation_raw_sql"`
	Format            datatypes.JSON `gorm:"type:jsonb" json:"format,omitempty"`
	Type              *string        `gorm:"type:text" json:"type,omitempty"`
	Order             int            `gorm:"column:order;not null" json:"order"`
}

func (ChartVersionTableCalculation) TableName() string { return "chart_version_table_calculation" }
