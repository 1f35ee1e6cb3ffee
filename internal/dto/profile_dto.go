package dto

import (
	"time"

	"github.com/google/uuid"
)

type ProfileResponse struct {
	ID                     uuid.UUID `json:"id"`
	Email                  string    `json:"email"`
	Name                   string    `json:"name"`
	HasCompletedOnboarding bool      `json:"has_completed_onboarding"`
	Notifications          bool      `json:"notifications"`
	PrivateMode            bool      `json:"private_mode"`
	CreatedAt              time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	Name                   *string `json:"name"`
	HasCompletedOnboarding *bool   `json:"has_completed_onboarding"`
	Notifications          *bool   `json:"notifications"`
	PrivateMode            *bool   `json:"private_mode"`
}
