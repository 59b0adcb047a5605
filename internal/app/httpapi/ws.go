package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jarvisfi/jarvisfi/internal/app/metrics"
	"github.com/jarvisfi/jarvisfi/internal/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsMaxMessage = 8 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsInbound struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type wsOutbound struct {
	Type    string      `json:"type"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// chatSocket streams chat exchanges over a websocket. Each inbound frame
// carries one user message; the assistant reply is sent back on the same
// connection.
func (h *Handler) chatSocket(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugf("websocket closed: %v", err)
			}
			return
		}

		start := time.Now()
		reply, err := h.services.Chat.Send(r.Context(), u.ID, in.ConversationID, in.Content)

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err != nil {
			if werr := conn.WriteJSON(wsOutbound{Type: "error", Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		metrics.RecordChatMessage("websocket", time.Since(start))
		if werr := conn.WriteJSON(wsOutbound{Type: "message", Message: reply}); werr != nil {
			return
		}
	}
}

func (h *Handler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
