package songs

import (
	"net/http"
	"net/url"
	"strings"

	"taikoweb/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FeedHandler streams catalog events over WebSocket
type FeedHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewFeedHandler accepts connections from allowedOrigins, or from the serving host when empty
func NewFeedHandler(hub *realtime.Hub, allowedOrigins []string, log *zap.Logger) *FeedHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if len(allowed) > 0 {
					return allowed[origin]
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
		log: log,
	}
}

// SongFeed upgrades the connection and registers it with the hub
// @Summary Song ingestion feed
// @Description WebSocket stream of song_ingested events
// @Tags Songs
// @Success 101
// @Failure 403 {object} ErrorResponse
// @Router /admin/songs/feed [get]
// @Security Bearer
func (f *FeedHandler) SongFeed(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	f.hub.Register(conn)
	defer func() {
		f.hub.Unregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.log.Info("websocket read error", zap.Error(err))
			}
			return
		}
	}
}
