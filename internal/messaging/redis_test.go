package messaging

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"grandpa/internal/cache"
)

func brokerOf(h *Hub) Broker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.broker
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// closedAddr returns a local address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	lis.Close()
	return addr
}

func TestRelayWithoutRedisKeepsDeliveryLocal(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: closedAddr(t), DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	hub := NewHub()
	member := newRecorder("member")
	hub.Join("conv_1", member)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewRedisRelay(&cache.RedisCache{Client: client}, hub).Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if b := brokerOf(hub); b != nil {
		t.Fatalf("broker installed without a subscription: %T", b)
	}
	if n := hub.Broadcast(context.Background(), "conv_1", []byte("hi")); n != 1 {
		t.Errorf("delivered = %d, want 1", n)
	}
	if got := member.received(); len(got) != 1 || got[0] != "hi" {
		t.Errorf("received %v, want [hi]", got)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Run = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

// TestRelayAcrossInstances needs a Redis server at GRANDPA_TEST_REDIS_ADDR.
func TestRelayAcrossInstances(t *testing.T) {
	addr := os.Getenv("GRANDPA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GRANDPA_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubs := make([]*Hub, 2)
	members := make([]*recorder, 2)
	done := make(chan error, 2)
	for i := range hubs {
		client := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { client.Close() })
		hubs[i] = NewHub()
		members[i] = newRecorder("member")
		hubs[i].Join("conv_1", members[i])
		relay := NewRedisRelay(&cache.RedisCache{Client: client}, hubs[i])
		go func() { done <- relay.Run(ctx) }()
	}
	for _, h := range hubs {
		waitFor(t, "relay subscription", func() bool { return brokerOf(h) != nil })
	}

	hubs[0].Broadcast(ctx, "conv_1", []byte("hello"))
	for i, m := range members {
		waitFor(t, "relayed broadcast", func() bool { return len(m.received()) == 1 })
		if got := m.received(); got[0] != "hello" {
			t.Errorf("hub %d received %v", i, got)
		}
	}
	time.Sleep(100 * time.Millisecond)
	if got := members[0].received(); len(got) != 1 {
		t.Errorf("publishing hub received %d copies, want 1", len(got))
	}

	cancel()
	for range hubs {
		<-done
	}
	for i, h := range hubs {
		if b := brokerOf(h); b != nil {
			t.Errorf("hub %d still routes through the relay after it stopped", i)
		}
	}
}
