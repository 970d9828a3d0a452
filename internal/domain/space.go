package domain

import (
	"time"

	"github.com/google/uuid"
)

type Space struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Name            string     `gorm:"type:text;not null" json:"name"`
	IsPrivate       bool       `gorm:"not null;default:false" json:"is_private"`
	CreatedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"created_by_user_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Space) TableName() string { return "space" }
