package preset

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/preset"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(preset.NewMemoryStore(preset.Seed()), ai.DefaultPolicies()).RegisterRoutes(r)
	return r
}

func TestListModelsCarriesSampling(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/models", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != len(preset.Seed()) {
		t.Fatalf("expected %d models, got %d", len(preset.Seed()), len(items))
	}

	shapes := map[string]string{}
	for _, item := range items {
		sampling := item["sampling"].(map[string]any)
		shapes[item["id"].(string)] = sampling["shape"].(string)
		if item["id"] == "o1-preview" {
			if _, ok := sampling["temperature"]; ok {
				t.Fatal("reasoning models must not carry a temperature")
			}
		}
	}
	if shapes["gpt-3.5-turbo"] != "standard" || shapes["o1-preview"] != "reasoning" || shapes["o3-mini"] != "reasoning" {
		t.Fatalf("unexpected shapes %v", shapes)
	}
}

func TestGetUnknownModel(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/models/o1-custom", nil))

	var item map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item["id"] != "o1-custom" || item["sampling"].(map[string]any)["shape"] != "reasoning" {
		t.Fatalf("unexpected item %v", item)
	}
}
