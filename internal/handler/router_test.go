package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	presetModel "github.com/Balaji-Udayagiri/ChatLLM/internal/model/preset"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/render"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	chatservice "github.com/Balaji-Udayagiri/ChatLLM/internal/service/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	settingsService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

type okCompleter struct{}

func (okCompleter) Complete(context.Context, string, ai.Request) (string, error) { return "ok", nil }

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	store := kv.NewMemoryStore()
	st := settingsService.NewService(store, nil, settingsService.Defaults{Model: "gpt-3.5-turbo"})
	renderer := render.New()
	orch := orchestrator.NewService(orchestrator.Deps{
		Chats:       chatservice.NewService(store),
		Attachments: attachment.NewManager(0),
		Settings:    st,
		Completer:   okCompleter{},
		Renderer:    renderer,
	})
	if err := orch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	return NewRouter(Deps{
		Orchestrator: orch,
		Settings:     st,
		Presets:      presetModel.NewMemoryStore(presetModel.Seed()),
		Policies:     ai.DefaultPolicies(),
		Renderer:     renderer,
		Styles:       render.NewChromaHighlighter(render.DefaultStyle),
		StaticDir:    staticDir,
	})
}

func TestRoutesAreMounted(t *testing.T) {
	r := newTestRouter(t, "")

	for _, path := range []string{"/api/health", "/api/settings", "/api/models", "/api/conversations", "/api/attachments", "/api/render/highlight.css"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.Code)
		}
		if resp.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Fatalf("GET %s: missing CORS header", path)
		}
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>chat</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := newTestRouter(t, dir)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "chat") {
		t.Fatalf("unexpected static response %d %q", resp.Code, resp.Body.String())
	}
}

func TestStaticDisabledForMissingDir(t *testing.T) {
	r := newTestRouter(t, filepath.Join(t.TempDir(), "nope"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
