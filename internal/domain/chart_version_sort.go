package domain

import "github.com/google/uuid"

// ChartVersionSort orders results by a field. Its Order column is positional
// within the sort list only and does not take part in the column order.
type ChartVersionSort struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChartVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_version_id"`
	FieldName      string    `gorm:"type:text;not null" json:"field_name"`
	Descending     bool      `gorm:"not null;default:false" json:"descending"`
	Order          int       `gorm:"column:order;not null" json:"order"`
}

func (ChartVersionSort) TableName() string { return "chart_version_sort" }
