package api

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 5 * time.Second

// Streamer pushes a meter snapshot to each websocket client on connect and
// after every state change.
type Streamer struct {
	meter    MeterBackend
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	done    chan struct{}
	closed  bool
}

// NewStreamer builds a Streamer accepting connections from allowedOrigins ("*" allows any).
func NewStreamer(meterBackend MeterBackend, allowedOrigins []string, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &Streamer{
		meter:  meterBackend,
		logger: logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
		}},
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

func (st *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := st.upgrader.Upgrade(w, r, nil)
	if err != nil {
		st.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	if !st.register(conn) {
		conn.Close()
		return
	}
	defer st.unregister(conn)

	updates, unsubscribe := st.meter.Subscribe()
	defer unsubscribe()

	// Clients never send anything meaningful; reading detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := st.send(conn); err != nil {
		return
	}
	for {
		select {
		case <-st.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-gone:
			return
		case <-updates:
			if err := st.send(conn); err != nil {
				st.logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		}
	}
}

// Clients returns the number of connected websocket clients.
func (st *Streamer) Clients() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.clients)
}

// Close ends every open stream and refuses new ones.
func (st *Streamer) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	close(st.done)
}

func (st *Streamer) send(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(st.meter.Snapshot())
}

func (st *Streamer) register(conn *websocket.Conn) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return false
	}
	st.clients[conn] = struct{}{}
	return true
}

func (st *Streamer) unregister(conn *websocket.Conn) {
	st.mu.Lock()
	delete(st.clients, conn)
	st.mu.Unlock()
	conn.Close()
}
