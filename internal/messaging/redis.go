package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"grandpa/internal/cache"
)

const channelPrefix = "grandpa:"

// RedisRelay is a Broker that spreads broadcasts across server instances.
// Publish only hands the payload to Redis; every instance, this one
// included, delivers to its local subscribers from its pattern
// subscription, so each live connection sees a broadcast once.
//
// The relay installs itself as the hub's broker only while its own
// subscription is confirmed. Otherwise the hub delivers locally.
type RedisRelay struct {
	redis *cache.RedisCache
	hub   *Hub
}

func NewRedisRelay(redis *cache.RedisCache, hub *Hub) *RedisRelay {
	return &RedisRelay{redis: redis, hub: hub}
}

func (r *RedisRelay) Publish(ctx context.Context, group string, payload []byte) error {
	if err := r.redis.Publish(ctx, channelPrefix+group, payload); err != nil {
		return fmt.Errorf("publish %s: %w", group, err)
	}
	return nil
}

// Run relays broadcasts until ctx is cancelled, resubscribing with
// exponential backoff whenever the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		err := r.listen(ctx, b.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		slog.Warn("redis relay down, broadcasts stay local", "err", err, "retry_in", wait)
	})
}

// listen holds one pattern subscription. It always returns a non-nil error.
func (r *RedisRelay) listen(ctx context.Context, subscribed func()) error {
	sub := r.redis.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { sub.Close() })
	defer stop()

	r.hub.SetBroker(r)
	defer r.hub.SetBroker(nil)
	subscribed()
	slog.Info("redis relay subscribed", "pattern", channelPrefix+"*")

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}
		group := strings.TrimPrefix(msg.Channel, channelPrefix)
		n := r.hub.Deliver(group, []byte(msg.Payload))
		slog.Debug("relayed broadcast", "group", group, "delivered", n)
	}
}
