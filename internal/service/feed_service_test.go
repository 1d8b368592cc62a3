package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/feed"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

func TestFeedNotifyDeliversFullSnapshot(t *testing.T) {
	lister := &fakeLister{subs: []models.BookSubmission{{ID: "a"}, {ID: "b"}}}
	svc := NewFeedService(lister, feed.NewBroker(), nil, zap.NewNop())

	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	svc.NotifyChanged(context.Background())

	select {
	case snap := <-ch:
		require.Len(t, snap.Submissions, 2)
		assert.Equal(t, "a", snap.Submissions[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestFeedLateSubscriberGetsLastSnapshot(t *testing.T) {
	lister := &fakeLister{subs: []models.BookSubmission{{ID: "a"}}}
	svc := NewFeedService(lister, feed.NewBroker(), nil, zap.NewNop())

	svc.NotifyChanged(context.Background())

	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	select {
	case snap := <-ch:
		require.Len(t, snap.Submissions, 1)
	case <-time.After(time.Second):
		t.Fatal("late subscriber got no snapshot")
	}
}

func TestFeedRefreshFailureKeepsLastSnapshot(t *testing.T) {
	lister := &fakeLister{subs: []models.BookSubmission{{ID: "a"}}}
	svc := NewFeedService(lister, feed.NewBroker(), nil, zap.NewNop())

	svc.NotifyChanged(context.Background())

	lister.err = errors.New("connection refused")
	svc.NotifyChanged(context.Background())

	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	select {
	case snap := <-ch:
		// The outage did not replace the view with an empty collection.
		require.Len(t, snap.Submissions, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot retained after refresh failure")
	}
}

func TestFeedRunWithoutRedisBlocksUntilCancelled(t *testing.T) {
	lister := &fakeLister{subs: []models.BookSubmission{{ID: "a"}}}
	svc := NewFeedService(lister, feed.NewBroker(), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	// Run primes the broker before blocking.
	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Run did not prime the feed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
