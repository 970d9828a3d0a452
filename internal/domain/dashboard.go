package domain

import (
	"time"

	"github.com/google/uuid"
)

type Dashboard struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SpaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"space_id"`
	Name    string    `gorm:"type:text;not null" json:"name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Dashboard) TableName() string { return "dashboard" }

// DashboardVersion is an immutable snapshot of a dashboard layout. Only the
// latest version's tiles count when deciding whether an embedded chart is
// still live.
type DashboardVersion struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Seq         int64     `gorm:"autoIncrement;->;uniqueIndex" json:"seq"`
	DashboardID uuid.UUID `gorm:"type:uuid;not null;index" json:"dashboard_id"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (DashboardVersion) TableName() string { return "dashboard_version" }

type DashboardTileChart struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DashboardVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"dashboard_version_id"`
	ChartID            uuid.UUID `gorm:"type:uuid;not null;index" json:"chart_id"`
}

func (DashboardTileChart) TableName() string { return "dashboard_tile_chart" }
