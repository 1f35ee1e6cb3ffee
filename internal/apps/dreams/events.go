package dreams

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	DreamCreated   ChangeType = "dream.created"
	DreamUpdated   ChangeType = "dream.updated"
	DreamDeleted   ChangeType = "dream.deleted"
	DreamsCleared  ChangeType = "dreams.cleared"
	DreamsReplaced ChangeType = "dreams.replaced"
)

// ChangeEvent is published after a mutation of a user's collection commits.
type ChangeEvent struct {
	Type    ChangeType `json:"type"`
	UserID  uuid.UUID  `json:"-"`
	DreamID string     `json:"dream_id,omitempty"`
	At      time.Time  `json:"at"`
}

const subscriberBuffer = 16

// Broadcaster fans change events out to per-user subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[uint64]chan ChangeEvent
	nextID uint64
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]map[uint64]chan ChangeEvent)}
}

// Subscribe registers a listener for userID. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(userID uuid.UUID) (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan ChangeEvent)
	}
	b.subs[userID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			userSubs, ok := b.subs[userID]
			if !ok {
				return
			}
			if _, ok := userSubs[id]; !ok {
				return
			}
			delete(userSubs, id)
			if len(userSubs) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(event ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many listeners userID has.
func (b *Broadcaster) SubscriberCount(userID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Close closes every subscriber channel and rejects new subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for userID, userSubs := range b.subs {
		for _, ch := range userSubs {
			close(ch)
		}
		delete(b.subs, userID)
	}
}
