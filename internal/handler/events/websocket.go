package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	chatHandler "github.com/Balaji-Udayagiri/ChatLLM/internal/handler/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler streams orchestrator events and accepts send/select
// commands on the same connection.
type WebSocketHandler struct {
	orch     *orchestrator.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a websocket handler.
func NewWebSocketHandler(orch *orchestrator.Service) *WebSocketHandler {
	return &WebSocketHandler{
		orch: orch,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type sendCommand struct {
	Text string `json:"text"`
}

type selectCommand struct {
	ID string `json:"id"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) write(msg outgoingMessage) error {
	data, err := sonic.ConfigStd.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws}
	log.Printf("[ws] new connection from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	events, unsubscribe := h.orch.Bus().Subscribe(subscriberBuffer)
	defer unsubscribe()

	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.forward(ctx, c, events)
	go h.pingLoop(ctx, c)

	h.reply(c, "connected", map[string]any{"state": orchestrator.StateIdle})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		var msg inboundMessage
		if err := sonic.ConfigStd.Unmarshal(raw, &msg); err != nil {
			h.sendError(c, "invalid message")
			continue
		}
		h.handleMessage(ctx, c, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *conn, msg *inboundMessage) {
	switch msg.Type {
	case "send":
		var cmd sendCommand
		if err := sonic.ConfigStd.Unmarshal(msg.Data, &cmd); err != nil {
			h.sendError(c, "invalid send payload")
			return
		}
		// The reply arrives as a message.appended or send.failed event. An
		// issued request outlives the socket.
		sendCtx := context.WithoutCancel(ctx)
		go func() {
			if _, err := h.orch.SendMessage(sendCtx, cmd.Text); err != nil {
				h.sendServiceError(c, err)
			}
		}()
	case "select":
		var cmd selectCommand
		if err := sonic.ConfigStd.Unmarshal(msg.Data, &cmd); err != nil || cmd.ID == "" {
			h.sendError(c, "invalid select payload")
			return
		}
		if _, err := h.orch.SelectConversation(ctx, cmd.ID); err != nil {
			h.sendServiceError(c, err)
		}
	case "ping":
		h.reply(c, "pong", nil)
	default:
		h.sendError(c, "unknown message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) forward(ctx context.Context, c *conn, events <-chan orchestrator.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := c.write(outgoingMessage{Type: "event", Data: e, Timestamp: e.Timestamp.Unix()}); err != nil {
				log.Printf("[ws] forward failed: %v", err)
				return
			}
		}
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) reply(c *conn, kind string, data interface{}) {
	if err := c.write(outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().Unix()}); err != nil {
		log.Printf("[ws] write %s failed: %v", kind, err)
	}
}

// sendServiceError reports a failed command. Empty messages are ignored and
// remote failures already reached the page as send.failed events.
func (h *WebSocketHandler) sendServiceError(c *conn, err error) {
	status := chatHandler.StatusFor(err)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		return
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return
	}
	h.reply(c, "error", map[string]any{"message": err.Error(), "status": status})
}

func (h *WebSocketHandler) sendError(c *conn, message string) {
	h.reply(c, "error", map[string]any{"message": message})
}
