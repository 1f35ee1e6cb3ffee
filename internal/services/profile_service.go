package services

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNameTooLong = errors.New("name must be at most 100 characters")

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(userID uuid.UUID) (*dto.ProfileResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toProfile(&user), nil
}

// Update applies the non-nil fields of req.
func (s *ProfileService) Update(userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len([]rune(name)) > 100 {
			return nil, ErrNameTooLong
		}
		updates["name"] = name
	}
	if req.HasCompletedOnboarding != nil {
		updates["has_completed_onboarding"] = *req.HasCompletedOnboarding
	}
	if req.Notifications != nil {
		updates["notifications"] = *req.Notifications
	}
	if req.PrivateMode != nil {
		updates["private_mode"] = *req.PrivateMode
	}

	if len(updates) > 0 {
		result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return s.Get(userID)
}

func toProfile(u *models.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:                     u.ID,
		Email:                  u.Email,
		Name:                   u.Name,
		HasCompletedOnboarding: u.HasCompletedOnboarding,
		Notifications:          u.Notifications,
		PrivateMode:            u.PrivateMode,
		CreatedAt:              u.CreatedAt,
	}
}
