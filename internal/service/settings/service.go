// Package settings owns the API key, model name and sidebar flag.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/configfile"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

var (
	ErrAPIKeyRequired = errors.New("api key is required")
	ErrModelRequired  = errors.New("model is required")
)

// Settings is the user-level configuration.
type Settings struct {
	APIKey         string `json:"apiKey"`
	Model          string `json:"model"`
	SidebarVisible bool   `json:"sidebarVisible"`
}

// Configured reports whether a completion call can be made.
func (s Settings) Configured() bool {
	return s.APIKey != ""
}

// Mirror is the config file kept in step with the stored key and model.
type Mirror interface {
	Read() (configfile.Values, error)
	Write(configfile.Values) error
}

// Defaults fill in values nothing else provides.
type Defaults struct {
	APIKey string
	Model  string
}

// Service loads and persists settings. Writes go to the kv store first and
// are then mirrored to the config file when one is attached.
type Service struct {
	mu        sync.RWMutex
	store     kv.Store
	mirror    Mirror
	defaults  Defaults
	current   Settings
	listeners []func(Settings)
}

// NewService returns a service. mirror may be nil.
func NewService(store kv.Store, mirror Mirror, defaults Defaults) *Service {
	return &Service{
		store:    store,
		mirror:   mirror,
		defaults: defaults,
		current:  Settings{Model: defaults.Model, APIKey: defaults.APIKey, SidebarVisible: true},
	}
}

// OnChange registers fn to be called after every change.
func (s *Service) OnChange(fn func(Settings)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load resolves settings: the mirror file when it holds both values, then
// the kv store for anything still missing, then the defaults.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	loaded := Settings{SidebarVisible: true}

	if s.mirror != nil {
		values, err := s.mirror.Read()
		if err != nil {
			log.Printf("[settings] read config file failed: %v", err)
		} else if values.Complete() {
			loaded.APIKey = values.APIKey
			loaded.Model = values.Model
		}
	}

	if loaded.APIKey == "" {
		value, _, err := s.store.Get(ctx, kv.KeyAPIKey)
		if err != nil {
			return Settings{}, fmt.Errorf("load api key: %w", err)
		}
		loaded.APIKey = value
	}
	if loaded.Model == "" {
		value, _, err := s.store.Get(ctx, kv.KeyModel)
		if err != nil {
			return Settings{}, fmt.Errorf("load model: %w", err)
		}
		loaded.Model = value
	}
	if raw, ok, err := s.store.Get(ctx, kv.KeySidebarVisible); err != nil {
		return Settings{}, fmt.Errorf("load sidebar flag: %w", err)
	} else if ok {
		if visible, perr := strconv.ParseBool(raw); perr == nil {
			loaded.SidebarVisible = visible
		}
	}

	if loaded.APIKey == "" {
		loaded.APIKey = s.defaults.APIKey
	}
	if loaded.Model == "" {
		loaded.Model = s.defaults.Model
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	log.Printf("[settings] loaded model=%s configured=%t", loaded.Model, loaded.Configured())
	return loaded, nil
}

// Get returns the current settings.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save stores the key and model and mirrors them to the config file.
// Mirror failures are logged only.
func (s *Service) Save(ctx context.Context, apiKey, model string) (Settings, error) {
	apiKey = strings.TrimSpace(apiKey)
	model = strings.TrimSpace(model)
	if apiKey == "" {
		return Settings{}, ErrAPIKeyRequired
	}
	if model == "" {
		return Settings{}, ErrModelRequired
	}

	s.persist(ctx, kv.KeyAPIKey, apiKey)
	s.persist(ctx, kv.KeyModel, model)
	if s.mirror != nil {
		if err := s.mirror.Write(configfile.Values{APIKey: apiKey, Model: model}); err != nil {
			log.Printf("[settings] mirror to config file failed: %v", err)
		}
	}

	return s.update(func(cur *Settings) {
		cur.APIKey = apiKey
		cur.Model = model
	}), nil
}

// SetModel switches the model and persists it immediately.
func (s *Service) SetModel(ctx context.Context, model string) (Settings, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Settings{}, ErrModelRequired
	}
	s.persist(ctx, kv.KeyModel, model)
	return s.update(func(cur *Settings) { cur.Model = model }), nil
}

// SetSidebarVisible persists the sidebar flag.
func (s *Service) SetSidebarVisible(ctx context.Context, visible bool) Settings {
	s.persist(ctx, kv.KeySidebarVisible, strconv.FormatBool(visible))
	return s.update(func(cur *Settings) { cur.SidebarVisible = visible })
}

// WriteMirror rewrites the config file and adopts its values. Unlike Save,
// a file error is returned.
func (s *Service) WriteMirror(ctx context.Context, values configfile.Values) (Settings, error) {
	if s.mirror == nil {
		return Settings{}, errors.New("no config file attached")
	}
	if err := s.mirror.Write(values); err != nil {
		return Settings{}, err
	}
	return s.Apply(ctx, values), nil
}

// ReadMirror returns the config file values.
func (s *Service) ReadMirror() (configfile.Values, error) {
	if s.mirror == nil {
		return configfile.Values{}, errors.New("no config file attached")
	}
	return s.mirror.Read()
}

// Apply adopts complete values read from the config file and copies them
// into the kv store. Incomplete or unchanged values are ignored.
func (s *Service) Apply(ctx context.Context, values configfile.Values) Settings {
	cur := s.Get()
	if !values.Complete() || (values.APIKey == cur.APIKey && values.Model == cur.Model) {
		return cur
	}

	s.persist(ctx, kv.KeyAPIKey, values.APIKey)
	s.persist(ctx, kv.KeyModel, values.Model)
	log.Printf("[settings] applied config file values model=%s", values.Model)
	return s.update(func(cur *Settings) {
		cur.APIKey = values.APIKey
		cur.Model = values.Model
	})
}

func (s *Service) persist(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		log.Printf("[settings] persist %s failed: %v", key, err)
	}
}

func (s *Service) update(mutate func(*Settings)) Settings {
	s.mu.Lock()
	mutate(&s.current)
	updated := s.current
	listeners := append([]func(Settings){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(updated)
	}
	return updated
}
