package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns a dream collection and the journal preferences shown on the
// profile screen.
type User struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email                  string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password               string         `gorm:"not null" json:"-"`
	Name                   string         `gorm:"size:100" json:"name"`
	HasCompletedOnboarding bool           `gorm:"default:false" json:"has_completed_onboarding"`
	Notifications          bool           `gorm:"default:true" json:"notifications"`
	PrivateMode            bool           `gorm:"default:false" json:"private_mode"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}
