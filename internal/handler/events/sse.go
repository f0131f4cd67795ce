// Package events pushes orchestrator events to the page over Server-Sent
// Events or a WebSocket.
package events

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

const (
	subscriberBuffer  = 64
	keepAliveInterval = 15 * time.Second
)

// Handler serves the event feeds.
type Handler struct {
	orch     *orchestrator.Service
	ws       *WebSocketHandler
	interval time.Duration
}

// New creates an events handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch, ws: NewWebSocketHandler(orch), interval: keepAliveInterval}
}

// RegisterRoutes registers /events and /ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
	r.Get("/ws", h.ws.handleWebSocket)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.orch.Bus().Subscribe(subscriberBuffer)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	log.Printf("[sse] subscriber connected from %s", r.RemoteAddr)

	if err := utils.SendSSEEvent(w, flusher, "connected", map[string]any{
		"state": orchestrator.StateIdle,
		"time":  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] subscriber %s disconnected", r.RemoteAddr)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(e.Type), e); err != nil {
				log.Printf("[sse] write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
