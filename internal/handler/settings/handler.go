package settings

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	settingsService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/configfile"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// Handler serves the config mirror endpoints and the settings API.
type Handler struct {
	settings *settingsService.Service
}

// New creates a settings handler.
func New(settings *settingsService.Service) *Handler {
	return &Handler{settings: settings}
}

// RegisterRoutes registers the settings routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/get-config", h.handleGetConfig)
	r.Post("/update-config", h.handleUpdateConfig)

	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleSaveSettings)
	r.Put("/settings/model", h.handleSetModel)
	r.Put("/settings/sidebar", h.handleSetSidebar)
}

type configPayload struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

type settingsResponse struct {
	Model          string `json:"model"`
	SidebarVisible bool   `json:"sidebarVisible"`
	Configured     bool   `json:"configured"`
}

func toResponse(s settingsService.Settings) settingsResponse {
	return settingsResponse{Model: s.Model, SidebarVisible: s.SidebarVisible, Configured: s.Configured()}
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	values, err := h.settings.ReadMirror()
	if err != nil {
		log.Printf("[settings] error reading config: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to read configuration file")
		return
	}
	utils.RespondJSON(w, http.StatusOK, configPayload{APIKey: values.APIKey, Model: values.Model})
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.APIKey == "" || payload.Model == "" {
		utils.RespondError(w, http.StatusBadRequest, "API key and model are required")
		return
	}

	if _, err := h.settings.WriteMirror(r.Context(), configfile.Values{APIKey: payload.APIKey, Model: payload.Model}); err != nil {
		log.Printf("[settings] error updating config: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to update configuration file")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Configuration updated successfully",
		"apiKey":  payload.APIKey,
		"model":   payload.Model,
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, toResponse(h.settings.Get()))
}

func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.settings.Save(r.Context(), payload.APIKey, payload.Model)
	if err != nil {
		respondValidation(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, toResponse(saved))
}

func (h *Handler) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Model string `json:"model"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.settings.SetModel(r.Context(), payload.Model)
	if err != nil {
		respondValidation(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) handleSetSidebar(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Visible *bool `json:"visible"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil || payload.Visible == nil {
		utils.RespondError(w, http.StatusBadRequest, "visible is required")
		return
	}
	utils.RespondJSON(w, http.StatusOK, toResponse(h.settings.SetSidebarVisible(r.Context(), *payload.Visible)))
}

func respondValidation(w http.ResponseWriter, err error) {
	if errors.Is(err, settingsService.ErrAPIKeyRequired) || errors.Is(err, settingsService.ErrModelRequired) {
		utils.RespondError(w, http.StatusBadRequest, strings.TrimSpace(err.Error()))
		return
	}
	log.Printf("[settings] unexpected error: %v", err)
	utils.RespondError(w, http.StatusInternalServerError, "failed to save settings")
}
