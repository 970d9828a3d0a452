package domain

import (
	"time"

	"github.com/google/uuid"
)

type PinnedList struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (PinnedList) TableName() string { return "pinned_list" }

type PinnedChart struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PinnedListID uuid.UUID `gorm:"type:uuid;not null;index" json:"pinned_list_id"`
	ChartID      uuid.UUID `gorm:"type:uuid;not null;index:idx_pinned_chart_chart,unique" json:"chart_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (PinnedChart) TableName() string { return "pinned_chart" }
