package render

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/render"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// StyleSheet writes the CSS matching highlighted code blocks.
type StyleSheet interface {
	WriteCSS(w io.Writer) error
}

// Handler renders assistant-style markdown on demand.
type Handler struct {
	renderer *render.Renderer
	styles   StyleSheet
}

// New creates a render handler. styles may be nil.
func New(renderer *render.Renderer, styles StyleSheet) *Handler {
	return &Handler{renderer: renderer, styles: styles}
}

// RegisterRoutes registers render routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/render", h.handleRender)
	if h.styles != nil {
		r.Get("/render/highlight.css", h.handleStyles)
	}
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"html": h.renderer.Render(payload.Text)})
}

func (h *Handler) handleStyles(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.styles.WriteCSS(&buf); err != nil {
		log.Printf("[render] write highlight css: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to build stylesheet")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(buf.Bytes())
}
