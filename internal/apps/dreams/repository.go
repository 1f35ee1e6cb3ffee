package dreams

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/owner"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

var ErrDreamNotFound = errors.New("dream not found")

// Repository is the single owner of every user's dream collection. All
// mutations go through it and are visible to readers only once committed.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Dream, error)
	Get(ctx context.Context, userID uuid.UUID, id string) (*Dream, error)
	Create(ctx context.Context, dream *Dream) error
	Update(ctx context.Context, userID uuid.UUID, id string, mutate func(*Dream) error) (*Dream, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	Replace(ctx context.Context, userID uuid.UUID, dreams []Dream) error
	Subscribe(userID uuid.UUID) (<-chan ChangeEvent, func())
}

type GormRepository struct {
	db     *gorm.DB
	events *Broadcaster
	now    func() time.Time
	// mu serializes writers so a mutate callback always sees the latest row.
	mu sync.Mutex
}

func NewGormRepository(db *gorm.DB, events *Broadcaster) *GormRepository {
	if events == nil {
		events = NewBroadcaster()
	}
	return &GormRepository{db: db, events: events, now: time.Now}
}

// List returns the full collection, newest first.
func (r *GormRepository) List(ctx context.Context, userID uuid.UUID) ([]Dream, error) {
	var dreams []Dream
	err := r.db.WithContext(ctx).Scopes(owner.ForUser(userID)).
		Order("date DESC").Order("id DESC").
		Find(&dreams).Error
	if err != nil {
		return nil, err
	}
	return dreams, nil
}

func (r *GormRepository) Get(ctx context.Context, userID uuid.UUID, id string) (*Dream, error) {
	return findDream(r.db.WithContext(ctx), userID, id)
}

func findDream(tx *gorm.DB, userID uuid.UUID, id string) (*Dream, error) {
	var dream Dream
	if err := tx.Scopes(owner.ForUser(userID)).First(&dream, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDreamNotFound
		}
		return nil, err
	}
	return &dream, nil
}

func (r *GormRepository) Create(ctx context.Context, dream *Dream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Create(dream).Error; err != nil {
		return err
	}
	r.publish(DreamCreated, dream.UserID, dream.ID)
	return nil
}

// Update loads the dream, applies mutate and saves it in one transaction.
// An error from mutate aborts without writing.
func (r *GormRepository) Update(ctx context.Context, userID uuid.UUID, id string, mutate func(*Dream) error) (*Dream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated *Dream
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dream, err := findDream(tx, userID, id)
		if err != nil {
			return err
		}
		if err := mutate(dream); err != nil {
			return err
		}
		// Identity and ownership are immutable.
		dream.ID = id
		dream.UserID = userID
		if err := tx.Save(dream).Error; err != nil {
			return err
		}
		updated = dream
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.publish(DreamUpdated, userID, id)
	return updated, nil
}

func (r *GormRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Scopes(owner.ForUser(userID)).Where("id = ?", id).Delete(&Dream{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDreamNotFound
	}

	r.publish(DreamDeleted, userID, id)
	return nil
}

func (r *GormRepository) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Scopes(owner.ForUser(userID)).Delete(&Dream{})
	if result.Error != nil {
		return 0, result.Error
	}

	r.publish(DreamsCleared, userID, "")
	return result.RowsAffected, nil
}

// Replace swaps the whole collection atomically: readers see either the old
// set or the new one.
func (r *GormRepository) Replace(ctx context.Context, userID uuid.UUID, dreams []Dream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(owner.ForUser(userID)).Delete(&Dream{}).Error; err != nil {
			return err
		}
		if len(dreams) == 0 {
			return nil
		}
		ids := make([]string, len(dreams))
		for i := range dreams {
			dreams[i].UserID = userID
			ids[i] = dreams[i].ID
		}
		// Ids already held by another user's dreams are reissued.
		var taken []string
		if err := tx.Model(&Dream{}).Where("id IN ?", ids).Pluck("id", &taken).Error; err != nil {
			return err
		}
		if len(taken) > 0 {
			reissue := make(map[string]struct{}, len(taken))
			for _, id := range taken {
				reissue[id] = struct{}{}
			}
			for i := range dreams {
				if _, ok := reissue[dreams[i].ID]; ok {
					dreams[i].ID = ulid.Make().String()
				}
			}
		}
		return tx.CreateInBatches(dreams, 100).Error
	})
	if err != nil {
		return err
	}

	r.publish(DreamsReplaced, userID, "")
	return nil
}

// Purge deletes every dream of userID inside tx, a transaction owned by the
// caller. Writers stay locked out until finish is called with the outcome of
// tx; DreamsCleared is published only when it committed.
func (r *GormRepository) Purge(tx *gorm.DB, userID uuid.UUID) (finish func(committed bool), err error) {
	r.mu.Lock()

	if err := tx.Scopes(owner.ForUser(userID)).Delete(&Dream{}).Error; err != nil {
		r.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	return func(committed bool) {
		once.Do(func() {
			defer r.mu.Unlock()
			if committed {
				r.publish(DreamsCleared, userID, "")
			}
		})
	}, nil
}

func (r *GormRepository) Subscribe(userID uuid.UUID) (<-chan ChangeEvent, func()) {
	return r.events.Subscribe(userID)
}

func (r *GormRepository) publish(kind ChangeType, userID uuid.UUID, dreamID string) {
	r.events.Publish(ChangeEvent{Type: kind, UserID: userID, DreamID: dreamID, At: r.now().UTC()})
}
