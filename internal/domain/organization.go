package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Organization struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name           string     `gorm:"type:text;not null" json:"name"`
	ColorPaletteID *uuid.UUID `gorm:"type:uuid;index" json:"color_palette_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Organization) TableName() string { return "organization" }

// OrganizationColorPalette holds a named list of hex colors, stored as a
// jsonb array of strings.
type OrganizationColorPalette struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Colors         datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"colors"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (OrganizationColorPalette) TableName() string { return "organization_color_palette" }
