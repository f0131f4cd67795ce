package handler

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler/attachment"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler/events"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler/preset"
	renderHandler "github.com/Balaji-Udayagiri/ChatLLM/internal/handler/render"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler/settings"
	middlewarePkg "github.com/Balaji-Udayagiri/ChatLLM/internal/middleware"
	presetModel "github.com/Balaji-Udayagiri/ChatLLM/internal/model/preset"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/render"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	settingsService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/pkg/utils"
)

// Deps are the services exposed over HTTP.
type Deps struct {
	Orchestrator *orchestrator.Service
	Settings     *settingsService.Service
	Presets      presetModel.Store
	Policies     ai.PolicyTable
	Renderer     *render.Renderer
	Styles       renderHandler.StyleSheet
	// StaticDir is served at /. Empty disables static files.
	StaticDir string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		settings.New(deps.Settings).RegisterRoutes(api)
		preset.New(deps.Presets, deps.Policies).RegisterRoutes(api)
		chat.New(deps.Orchestrator).RegisterRoutes(api)
		attachment.New(deps.Orchestrator).RegisterRoutes(api)
		renderHandler.New(deps.Renderer, deps.Styles).RegisterRoutes(api)
		events.New(deps.Orchestrator).RegisterRoutes(api)
	})

	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err != nil || !info.IsDir() {
			log.Printf("[router] static dir %q unavailable, static files disabled", deps.StaticDir)
		} else {
			r.Handle("/*", http.FileServer(http.Dir(deps.StaticDir)))
		}
	}

	return r
}
