package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	settingsService "github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/configfile"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

type failingMirror struct{}

func (failingMirror) Read() (configfile.Values, error) { return configfile.Values{}, errors.New("denied") }
func (failingMirror) Write(configfile.Values) error    { return errors.New("denied") }

func setupRouter(mirror settingsService.Mirror) (*chi.Mux, *settingsService.Service) {
	svc := settingsService.NewService(kv.NewMemoryStore(), mirror, settingsService.Defaults{Model: "gpt-3.5-turbo"})
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r, svc
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestUpdateConfigRoundTrip(t *testing.T) {
	file := configfile.New(filepath.Join(t.TempDir(), "config.toml"))
	r, svc := setupRouter(file)

	resp := send(r, http.MethodPost, "/update-config", `{"apiKey":"sk-1","model":"gpt-4o"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated["success"] != true || updated["message"] != "Configuration updated successfully" || updated["model"] != "gpt-4o" {
		t.Fatalf("unexpected body %v", updated)
	}
	if got := svc.Get(); got.APIKey != "sk-1" || got.Model != "gpt-4o" {
		t.Fatalf("settings not applied: %+v", got)
	}

	resp = send(r, http.MethodGet, "/get-config", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var cfg map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg["apiKey"] != "sk-1" || cfg["model"] != "gpt-4o" {
		t.Fatalf("unexpected config %v", cfg)
	}
}

func TestGetConfigWithoutFile(t *testing.T) {
	r, _ := setupRouter(configfile.New(filepath.Join(t.TempDir(), "missing.toml")))

	resp := send(r, http.MethodGet, "/get-config", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "{\"apiKey\":\"\",\"model\":\"\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestUpdateConfigRequiresBothFields(t *testing.T) {
	r, _ := setupRouter(configfile.New(filepath.Join(t.TempDir(), "config.toml")))

	resp := send(r, http.MethodPost, "/update-config", `{"apiKey":"sk-1"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("API key and model are required")) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestConfigFileFailures(t *testing.T) {
	r, _ := setupRouter(failingMirror{})

	if resp := send(r, http.MethodPost, "/update-config", `{"apiKey":"a","model":"b"}`); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on write, got %d", resp.Code)
	}
	if resp := send(r, http.MethodGet, "/get-config", ""); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on read, got %d", resp.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	r, svc := setupRouter(nil)

	if resp := send(r, http.MethodPut, "/settings", `{"apiKey":"","model":"gpt-4o"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPut, "/settings", `{"apiKey":"sk","model":"gpt-4o"}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPut, "/settings/model", `{"model":"o1-mini"}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPut, "/settings/sidebar", `{}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPut, "/settings/sidebar", `{"visible":false}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	got := svc.Get()
	if got.Model != "o1-mini" || got.SidebarVisible || !got.Configured() {
		t.Fatalf("unexpected settings %+v", got)
	}

	resp := send(r, http.MethodGet, "/settings", "")
	var body settingsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body != (settingsResponse{Model: "o1-mini", SidebarVisible: false, Configured: true}) {
		t.Fatalf("unexpected response %+v", body)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("apiKey")) {
		t.Fatal("settings response must not expose the api key")
	}
}
