package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	chatService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// Handler serves conversations and message sending.
type Handler struct {
	orch *orchestrator.Service
}

// New creates a chat handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes registers conversation and message routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/current", h.handleCurrent)
		r.Get("/{id}", h.handleSelect)
		r.Patch("/{id}", h.handleRename)
		r.Delete("/{id}", h.handleDelete)
	})
	r.Post("/messages", h.handleSend)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.orch.ListConversations(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, h.orch.CreateConversation(r.Context()))
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	transcript, err := h.orch.CurrentTranscript(r.Context())
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, transcript)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	transcript, err := h.orch.SelectConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, transcript)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.orch.RenameConversation(r.Context(), chi.URLParam(r, "id"), payload.Title)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, err := h.orch.DeleteConversation(r.Context(), id)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, orchestrator.DeletedPayload{DeletedID: id, Current: current})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A closed tab must not abort a completion that is already billed.
	result, err := h.orch.SendMessage(context.WithoutCancel(r.Context()), payload.Text)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var remote *ai.RemoteCallError
	switch {
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		return http.StatusNoContent
	case errors.Is(err, orchestrator.ErrConfigurationMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, orchestrator.ErrSendInFlight):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrNoConversation),
		errors.Is(err, chatService.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrEmptyContent),
		errors.Is(err, chatService.ErrTitleRequired):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes err with the status from StatusFor. An empty
// message is answered with 204 and no body.
func RespondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	if status == http.StatusInternalServerError {
		log.Printf("[chat] unexpected error: %v", err)
	}
	utils.RespondError(w, status, strings.TrimSpace(err.Error()))
}
