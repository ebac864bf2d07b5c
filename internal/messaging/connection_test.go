package messaging

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type counter struct {
	id string
	n  atomic.Int64
}

func (c *counter) ID() string { return c.id }

func (c *counter) Send([]byte) error {
	c.n.Add(1)
	return nil
}

// attachedConnection upgrades a real socket and returns the server side
// Connection together with a client that never reads.
func attachedConnection(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	accepted := make(chan *Connection, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewConnection(1)
		c.Attach(ws)
		accepted <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-accepted:
		return c, client
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted the socket")
		return nil, nil
	}
}

func TestStuckSocketDoesNotStallGroup(t *testing.T) {
	stuck, _ := attachedConnection(t)

	hub := NewHub()
	healthy := &counter{id: "healthy"}
	hub.Join("conv_1", healthy)
	hub.Join("conv_1", stuck)

	payload := make([]byte, 512<<10)
	var worst time.Duration
	sent := 0
	deliver := func() {
		start := time.Now()
		hub.Deliver("conv_1", payload)
		worst = max(worst, time.Since(start))
		sent++
	}

	for i := 0; i < 2000; i++ {
		deliver()
		select {
		case <-stuck.Done():
			i = 2000
		default:
		}
	}
	select {
	case <-stuck.Done():
	default:
		t.Fatal("connection that never reads was not closed")
	}

	for i := 0; i < 10; i++ {
		deliver()
	}

	if worst > time.Second {
		t.Errorf("slowest Deliver took %v with a stuck subscriber", worst)
	}
	if got := healthy.n.Load(); got != int64(sent) {
		t.Errorf("healthy subscriber got %d of %d broadcasts", got, sent)
	}
}

func TestCloseDoesNotWaitForSocket(t *testing.T) {
	c, _ := attachedConnection(t)

	start := time.Now()
	c.Close(websocket.CloseNormalClosure, "bye")
	c.Close(websocket.CloseNormalClosure, "again")
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Close took %v", d)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done not closed after Close")
	}
}
