package services

import (
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService(t *testing.T) {
	auth, db := newTestAuthService(t)
	user := register(t, auth, "dreamer@example.com")
	svc := NewProfileService(db)

	profile, err := svc.Get(user.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Luna", profile.Name)
	assert.True(t, profile.Notifications)
	assert.False(t, profile.HasCompletedOnboarding)

	done, off, name := true, false, "Sol"
	profile, err = svc.Update(user.User.ID, &dto.UpdateProfileRequest{
		Name:                   &name,
		HasCompletedOnboarding: &done,
		Notifications:          &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sol", profile.Name)
	assert.True(t, profile.HasCompletedOnboarding)
	assert.False(t, profile.Notifications)
	assert.False(t, profile.PrivateMode)

	long := strings.Repeat("n", 101)
	_, err = svc.Update(user.User.ID, &dto.UpdateProfileRequest{Name: &long})
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Update(uuid.New(), &dto.UpdateProfileRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
