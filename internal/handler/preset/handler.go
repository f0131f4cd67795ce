package preset

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/preset"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// Handler serves the model preset catalog.
type Handler struct {
	presets  preset.Store
	policies ai.PolicyTable
}

// New creates a preset handler. policies annotates each preset with the
// sampling parameters a request for it would carry.
func New(presets preset.Store, policies ai.PolicyTable) *Handler {
	return &Handler{presets: presets, policies: policies}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleList)
	r.Get("/models/{id}", h.handleGet)
}

type entry struct {
	preset.Preset
	Sampling ai.Sampling `json:"sampling"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items := h.presets.List()
	out := make([]entry, len(items))
	for i, item := range items {
		out[i] = entry{Preset: item, Sampling: h.policies.Lookup(item.ID)}
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

// handleGet also answers for models outside the catalog, since any model
// name is accepted.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := h.presets.FindByID(id)
	if !ok {
		item = preset.Preset{ID: id, Name: id}
	}
	utils.RespondJSON(w, http.StatusOK, entry{Preset: item, Sampling: h.policies.Lookup(id)})
}
