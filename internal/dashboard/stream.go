package dashboard

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"github.com/opsdeck/opsdeck/internal/store"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard UI is served from arbitrary origins in demo setups; the
	// stream carries synthetic data only.
	CheckOrigin: func(*http.Request) bool { return true },
}

const clientSendBuffer = 64

// Stream fans store events out to connected websocket clients. Slow clients
// are disconnected rather than allowed to backpressure the store.
type Stream struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan store.Event
}

// NewStream creates the fan-out hub and subscribes it to the store.
func NewStream(st *store.Store) *Stream {
	s := &Stream{clients: make(map[*streamClient]struct{})}
	st.Subscribe(s.broadcast)
	return s
}

// ClientCount reports the number of connected clients.
func (s *Stream) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Stream) broadcast(ev store.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
			// Client cannot keep up; drop it.
			close(c.send)
			delete(s.clients, c)
			metrics.StreamClients.Set(float64(len(s.clients)))
		}
	}
}

// ServeHTTP handles GET /stream websocket upgrades.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &streamClient{conn: conn, send: make(chan store.Event, clientSendBuffer)}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	metrics.StreamClients.Set(float64(len(s.clients)))
	s.mu.Unlock()

	go s.writePump(client)
	s.readPump(client)
}

// readPump drains client messages until the connection drops; the stream is
// push-only so inbound payloads are discarded.
func (s *Stream) readPump(c *streamClient) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writePump(c *streamClient) {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			slog.Debug("stream write failed", "error", err)
			return
		}
	}
}

func (s *Stream) drop(c *streamClient) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		close(c.send)
		delete(s.clients, c)
		metrics.StreamClients.Set(float64(len(s.clients)))
	}
	s.mu.Unlock()
	c.conn.Close()
}
