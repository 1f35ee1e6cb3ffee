package dreams

import (
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DreamsPlugin struct {
	collab Collaborators
	events *Broadcaster
	repo   *GormRepository
}

func New(collab Collaborators) *DreamsPlugin {
	return &DreamsPlugin{collab: collab, events: NewBroadcaster()}
}

func (p *DreamsPlugin) ID() string { return "dreams" }

func (p *DreamsPlugin) Models() []interface{} {
	return []interface{}{
		&Dream{},
	}
}

func (p *DreamsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	p.repo = NewGormRepository(db, p.events)
	svc := NewDreamService(p.repo, p.collab, NewContentFilter(cfg.BlockedWords), cfg.Location())
	handler := NewDreamHandler(svc)

	// Collection routes
	router.Post("/dreams", handler.Create)
	router.Get("/dreams", handler.List)
	router.Delete("/dreams", handler.Clear)
	router.Get("/dreams/stats", handler.Stats)
	router.Get("/dreams/months", handler.Months)
	router.Get("/dreams/export", handler.Export)
	router.Post("/dreams/import", handler.Import)
	router.Get("/dreams/events", handler.Events)

	// AI helpers
	router.Post("/dreams/transcribe", handler.Transcribe)
	router.Post("/dreams/images", handler.GenerateImage)

	// Single dream routes
	router.Get("/dreams/:id", handler.Get)
	router.Put("/dreams/:id", handler.Update)
	router.Delete("/dreams/:id", handler.Delete)
	router.Post("/dreams/:id/analysis", handler.Analyze)
	router.Post("/dreams/:id/recommendations", handler.Recommend)
}

// PurgeUser removes the user's dreams through the repository so the delete
// is serialized with other writers and open event streams hear about it.
func (p *DreamsPlugin) PurgeUser(tx *gorm.DB, userID uuid.UUID) (func(committed bool), error) {
	repo := p.repo
	if repo == nil {
		repo = NewGormRepository(tx, p.events)
	}
	return repo.Purge(tx, userID)
}

// Shutdown ends every open event stream.
func (p *DreamsPlugin) Shutdown() {
	p.events.Close()
}
