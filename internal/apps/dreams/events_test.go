package dreams

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversOnlyToOwner(t *testing.T) {
	b := NewBroadcaster()
	alice, bob := uuid.New(), uuid.New()

	aliceCh, cancelAlice := b.Subscribe(alice)
	defer cancelAlice()
	bobCh, cancelBob := b.Subscribe(bob)
	defer cancelBob()

	b.Publish(ChangeEvent{Type: DreamCreated, UserID: alice, DreamID: "d1"})

	require.Len(t, aliceCh, 1)
	event := <-aliceCh
	assert.Equal(t, DreamCreated, event.Type)
	assert.Equal(t, "d1", event.DreamID)
	assert.Empty(t, bobCh)
}

func TestBroadcaster_PublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster()
	userID := uuid.New()
	ch, cancel := b.Subscribe(userID)
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		b.Publish(ChangeEvent{Type: DreamUpdated, UserID: userID})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcaster_CancelIsIdempotent(t *testing.T) {
	b := NewBroadcaster()
	userID := uuid.New()

	ch, cancel := b.Subscribe(userID)
	assert.Equal(t, 1, b.SubscriberCount(userID))

	cancel()
	cancel()
	assert.Equal(t, 0, b.SubscriberCount(userID))

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	b.Publish(ChangeEvent{Type: DreamDeleted, UserID: userID})
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	userID := uuid.New()
	ch, cancel := b.Subscribe(userID)

	b.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, lateCancel := b.Subscribe(userID)
	defer lateCancel()
	_, open = <-late
	assert.False(t, open, "subscriptions after Close are closed immediately")
	assert.Equal(t, 0, b.SubscriberCount(userID))
}
