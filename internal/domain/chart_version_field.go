package domain

import "github.com/google/uuid"

const (
	FieldTypeDimension = "dimension"
	FieldTypeMetric    = "metric"
)

// ChartVersionField is a selected dimension or metric. Order participates in
// the column order shared with table calculations and custom dimensions.
type ChartVersionField struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_version_id"`
	Name           string    `gorm:"type:text;not null" json:"name"`
	FieldType      string    `gorm:"type:text;not null" json:"field_type"`
	Order          int       `gorm:"column:order;not null" json:"order"`
}

func (ChartVersionField) TableName() string { return "chart_version_field" }
