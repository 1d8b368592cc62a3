package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

func snapshotOf(ids ...string) Snapshot {
	subs := make([]models.BookSubmission, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, models.BookSubmission{ID: id, Status: models.StatusPending})
	}
	return Snapshot{Submissions: subs, At: time.Now().UTC()}
}

func TestBrokerDeliversFullSnapshots(t *testing.T) {
	broker := NewBroker()
	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	broker.Publish(snapshotOf("sub-2", "sub-1"))

	snap := <-ch
	require.Len(t, snap.Submissions, 2)
	require.Equal(t, "sub-2", snap.Submissions[0].ID)
}

func TestBrokerPrimesNewSubscriberWithLastSnapshot(t *testing.T) {
	broker := NewBroker()
	broker.Publish(snapshotOf("sub-1"))

	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	select {
	case snap := <-ch:
		require.Len(t, snap.Submissions, 1)
	case <-time.After(time.Second):
		t.Fatal("expected primed snapshot")
	}
}

func TestBrokerCoalescesForSlowSubscribers(t *testing.T) {
	broker := NewBroker()
	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	// Nobody reading: the second publish must not block and must win.
	broker.Publish(snapshotOf("sub-1"))
	broker.Publish(snapshotOf("sub-2", "sub-1"))

	snap := <-ch
	require.Len(t, snap.Submissions, 2)
}

func TestBrokerUnsubscribeReleasesSubscription(t *testing.T) {
	broker := NewBroker()
	ch, unsubscribe := broker.Subscribe()
	require.Equal(t, 1, broker.Subscribers())

	unsubscribe()
	require.Equal(t, 0, broker.Subscribers())

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	broker.Publish(snapshotOf("sub-1"))

	// Idempotent unsubscribe.
	unsubscribe()
}

func TestBrokerIndependentSubscribers(t *testing.T) {
	broker := NewBroker()
	chA, unsubA := broker.Subscribe()
	chB, unsubB := broker.Subscribe()
	defer unsubA()
	defer unsubB()

	broker.Publish(snapshotOf("sub-1"))

	snapA := <-chA
	snapB := <-chB
	require.Equal(t, snapA.Submissions, snapB.Submissions)
}
