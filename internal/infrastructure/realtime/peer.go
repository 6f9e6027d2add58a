package realtime

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// peer is one hub connection. rooms and send are guarded by Hub.mu; send is
// closed by Hub.unregister.
type peer struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	send     chan []byte
	rooms    map[string]struct{}
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.unregister(p)
		_ = p.conn.Close()
	}()

	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, frame, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn().Err(err).Str("peer_id", p.id).Msg("peer read failed")
			}
			return
		}
		h.handleFrame(p, frame)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(h.cfg.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
