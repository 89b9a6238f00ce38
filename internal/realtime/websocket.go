package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Client frame actions.
const (
	ActionJoin  = "join-event"
	ActionLeave = "leave-event"
)

// ClientFrame is a message sent by a websocket client.
type ClientFrame struct {
	Action  string `json:"action"`
	EventID string `json:"eventId"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxClientFrame = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the websocket endpoint. Clients join and leave events with
// ClientFrames and receive Messages.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.NewSubscriber()
	slog.Info("Websocket client connected", "subscriber_id", sub.ID, "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, sub)
	}()

	h.readLoop(conn, sub)

	h.hub.Close(sub)
	<-writerDone
	slog.Info("Websocket client disconnected", "subscriber_id", sub.ID)
}

func (h *Handler) readLoop(conn *websocket.Conn, sub *Subscriber) {
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket read failed", "subscriber_id", sub.ID, "error", err)
			}
			return
		}
		switch frame.Action {
		case ActionJoin:
			if frame.EventID == "" {
				sub.enqueue(Message{Type: TypeError, Error: "eventId is required"})
				continue
			}
			h.hub.Join(sub, frame.EventID)
			sub.enqueue(Message{Type: TypeJoined, EventID: frame.EventID})
		case ActionLeave:
			h.hub.Leave(sub, frame.EventID)
			sub.enqueue(Message{Type: TypeLeft, EventID: frame.EventID})
		default:
			sub.enqueue(Message{Type: TypeError, EventID: frame.EventID, Error: "unknown action " + frame.Action})
		}
	}
}

// writeLoop is the connection's only writer.
func (h *Handler) writeLoop(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("Websocket write failed", "subscriber_id", sub.ID, "error", err)
				// unblock the reader
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
