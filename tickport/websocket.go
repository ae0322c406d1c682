package tickport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where serve mounts WebSocketHandler.
const WebSocketPath = "/ws/tick"

const wsReadTimeout = 60 * time.Second

// WebSocketHandler serves the same request/response protocol as the NATS
// subjects over a WebSocket: each text frame is one TickRequest and is
// answered on the same connection with one TickResponse. Ticks from both
// paths share the port's tick counter. While the port is stopped the
// upgrade is refused with 503.
func (p *Port) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(_ *http.Request) bool {
			return true
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.running.Load() {
			http.Error(w, "tick port not started", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			p.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()

		p.logger.Debug("websocket client connected", "remote", r.RemoteAddr)
		p.serveConn(conn)
	})
}

func (p *Port) serveConn(conn *websocket.Conn) {
	for p.running.Load() {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		payload, err := json.Marshal(p.process(data))
		if err != nil {
			p.fail("marshal response", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			p.fail("websocket write", err)
			return
		}
		p.count("out")
	}
}
