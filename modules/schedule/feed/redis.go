package feed

import (
	"context"
	"encoding/json"

	"schedule-board/core/cache"
	"schedule-board/core/constants"
	"schedule-board/core/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisFeed implements Feed and Publisher over redis pub/sub. Events are
// JSON-encoded on channel "schedule:feed:<organizationID>".
type RedisFeed struct {
	cache cache.Cache
}

func NewRedisFeed(c cache.Cache) *RedisFeed {
	return &RedisFeed{cache: c}
}

func channelFor(organizationID uuid.UUID) string {
	return constants.RedisScheduleFeedPrefix + organizationID.String()
}

func (f *RedisFeed) Publish(ctx context.Context, organizationID uuid.UUID, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := f.cache.Publish(ctx, channelFor(organizationID), payload); err != nil {
		logger.Error("RedisFeed:Publish:Error", "error", err, "organization_id", organizationID)
		return err
	}
	return nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *redisSubscription) Close() error {
	s.cancel()
	err := s.pubsub.Close()
	<-s.done
	return err
}

func (f *RedisFeed) Subscribe(ctx context.Context, organizationID uuid.UUID, cb Callbacks) (Subscription, error) {
	if cb.OnStateChange != nil {
		cb.OnStateChange(StateSubscribing, nil)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := f.cache.Subscribe(subCtx, channelFor(organizationID))

	// Receive blocks until redis confirms the subscription, so a returned
	// subscription is known to be live.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		if cb.OnStateChange != nil {
			cb.OnStateChange(StateError, err)
		}
		return nil, err
	}

	if cb.OnStateChange != nil {
		cb.OnStateChange(StateLive, nil)
	}

	sub := &redisSubscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}
	go f.consume(subCtx, sub, cb, organizationID)
	return sub, nil
}

func (f *RedisFeed) consume(ctx context.Context, sub *redisSubscription, cb Callbacks, organizationID uuid.UUID) {
	defer close(sub.done)

	for msg := range sub.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("RedisFeed:Consume:BadPayload", "error", err, "organization_id", organizationID)
			continue
		}
		if cb.OnEvent != nil {
			cb.OnEvent(event)
		}
	}

	// Channel closed: deliberate teardown reads as Unsubscribed, anything
	// else is a transport failure.
	if cb.OnStateChange != nil {
		select {
		case <-ctx.Done():
			cb.OnStateChange(StateUnsubscribed, nil)
		default:
			cb.OnStateChange(StateError, nil)
		}
	}
}
