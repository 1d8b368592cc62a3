package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/feed"
)

// feedChannel is the Redis pub/sub channel used to fan change signals out
// across instances. The payload is irrelevant; every message means
// "reload from the store".
const feedChannel = "submissions:changed"

// FeedService keeps live dashboard clients in sync with the submissions
// collection. Every change republishes the full collection snapshot, so a
// client that misses intermediate states still converges on the latest
// one. With Redis configured, change signals propagate to all instances;
// without it the feed degrades to single-instance delivery.
type FeedService struct {
	repo   submissionLister
	broker *feed.Broker
	redis  *redis.Client
	logger *zap.Logger
}

// NewFeedService constructs the service. redisClient may be nil.
func NewFeedService(repo submissionLister, broker *feed.Broker, redisClient *redis.Client, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if broker == nil {
		broker = feed.NewBroker()
	}
	return &FeedService{
		repo:   repo,
		broker: broker,
		redis:  redisClient,
		logger: logger,
	}
}

// Run primes the broker with the current collection and, when Redis is
// available, consumes cross-instance change signals until ctx is
// cancelled. Blocking; run it in its own goroutine.
func (s *FeedService) Run(ctx context.Context) {
	s.refresh(ctx)

	if s.redis == nil {
		<-ctx.Done()
		return
	}

	pubsub := s.redis.Subscribe(ctx, feedChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			s.refresh(ctx)
		}
	}
}

// Subscribe registers a dashboard client. The channel yields full
// snapshots; the unsubscribe func must be called when the client
// disconnects.
func (s *FeedService) Subscribe() (<-chan feed.Snapshot, func()) {
	return s.broker.Subscribe()
}

// NotifyChanged signals that the collection changed. With Redis the
// signal round-trips through pub/sub so every instance refreshes; the
// local refresh is immediate either way so the publishing instance never
// waits on the broker.
func (s *FeedService) NotifyChanged(ctx context.Context) {
	s.refresh(ctx)
	if s.redis != nil {
		if err := s.redis.Publish(ctx, feedChannel, time.Now().UnixNano()).Err(); err != nil {
			s.logger.Warn("failed to publish feed change signal", zap.Error(err))
		}
	}
}

func (s *FeedService) refresh(ctx context.Context) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		// Keep the previous snapshot; subscribers retain their last
		// known state instead of seeing an empty collection.
		s.logger.Error("failed to refresh feed snapshot", zap.Error(err))
		return
	}
	s.broker.Publish(feed.Snapshot{Submissions: subs, At: time.Now().UTC()})
}
