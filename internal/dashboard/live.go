package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveFeed streams mirror events to dashboard sockets.
type LiveFeed struct {
	mirror *Mirror
	logger *logging.Logger
}

func NewLiveFeed(mirror *Mirror, logger *logging.Logger) *LiveFeed {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveFeed{mirror: mirror, logger: logger}
}

// ServeHTTP upgrades the request, sends a snapshot of the current list and
// then one JSON frame per applied change until the client goes away.
func (f *LiveFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("dashboard: live upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := f.mirror.Listen()
	defer cancel()

	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := conn.WriteJSON(map[string]any{"type": "snapshot", "leads": f.mirror.Leads()}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	f.logger.Info("dashboard: live feed connected", "remote_addr", r.RemoteAddr)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				f.logger.Debug("dashboard: live write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			f.logger.Debug("dashboard: live feed disconnected", "remote_addr", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}
