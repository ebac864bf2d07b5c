package messaging

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 128
)

// Connection is the hub-facing handle of one websocket. Outbound frames go
// through a bounded buffer drained by a single writer goroutine; a client
// too slow to keep the buffer from filling is disconnected.
//
// A Connection may be created and joined to groups before its socket exists
// (see Attach), so that frames broadcast during the handshake are buffered
// rather than lost.
type Connection struct {
	id     string
	UserID uint

	mu          sync.Mutex
	ws          *websocket.Conn
	send        chan []byte
	closed      bool
	closeCode   int
	closeReason string
	done        chan struct{}
}

func NewConnection(userID uint) *Connection {
	return &Connection{
		id:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Send enqueues payload without blocking.
func (c *Connection) Send(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	select {
	case c.send <- payload:
		c.mu.Unlock()
		return nil
	default:
	}
	c.mu.Unlock()

	c.Close(websocket.ClosePolicyViolation, "send buffer full")
	return ErrBufferFull
}

// Attach binds the upgraded socket and starts the write loop. It must be
// called at most once.
func (c *Connection) Attach(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	closed := c.closed
	c.mu.Unlock()

	if closed {
		_ = ws.Close()
		return
	}

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writeLoop(ws)
}

// ReadMessage returns the next inbound data frame.
func (c *Connection) ReadMessage() ([]byte, error) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	_, data, err := ws.ReadMessage()
	return data, err
}

// Close marks the connection closed and wakes the writer, which sends the
// close frame and releases the socket. It never touches the network and may
// be called more than once.
func (c *Connection) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.done)
}

func (c *Connection) writeLoop(ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.mu.Lock()
		code, reason := c.closeCode, c.closeReason
		c.mu.Unlock()
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = ws.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close(websocket.CloseInternalServerErr, "ping failed")
				return
			}
		}
	}
}
