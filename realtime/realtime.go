package realtime

import (
	"context"
	"sync"
	"time"

	"taikoweb/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventSongIngested = "song_ingested"

	writeWait  = 5 * time.Second
	bufferSize = 64
)

// SongEvent is pushed to feed subscribers and published on the bus
type SongEvent struct {
	Type string      `json:"type"`
	Song models.Song `json:"song"`
}

// Hub fans catalog events out to connected WebSocket clients
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan SongEvent
	log       *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan SongEvent, bufferSize),
		log:       log,
	}
}

// Register adds a client to the feed
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// Unregister removes a client from the feed
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SongIngested queues an event without blocking the ingestion run.
// Events are dropped when the buffer is full.
func (h *Hub) SongIngested(song models.Song) {
	select {
	case h.broadcast <- SongEvent{Type: EventSongIngested, Song: song}:
	default:
		h.log.Warn("feed buffer full, dropping event", zap.String("id", song.ID))
	}
}

// Run delivers queued events until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event SongEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(event); err != nil {
			h.log.Info("websocket write failed, dropping client", zap.Error(err))
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		client.Close()
		delete(h.clients, client)
	}
}
