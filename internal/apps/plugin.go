package apps

import (
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the unique module identifier used in logs.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts module routes on the given Fiber group.
	// The group is already prefixed with /api/p and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}

// UserDataOwner is implemented by plugins that store per-user rows which
// must go when the account is deleted.
type UserDataOwner interface {
	Plugin

	// PurgeUser deletes the user's rows inside the account deletion
	// transaction. The returned finish func, when non-nil, is called once
	// with whether that transaction committed.
	PurgeUser(tx *gorm.DB, userID uuid.UUID) (finish func(committed bool), err error)
}

// Stopper is implemented by plugins holding long-lived resources such as
// open event streams.
type Stopper interface {
	Plugin

	Shutdown()
}
