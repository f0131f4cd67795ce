package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

// MemoryStoragePath selects the in-memory key/value store.
const MemoryStoragePath = ":memory:"

// Config aggregates the process configuration.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	ConfigFile  ConfigFileConfig
	AI          AIConfig
	Attachments AttachmentConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	configFile, err := loadConfigFileConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	attachments, err := loadAttachmentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		Storage:     storage,
		ConfigFile:  configFile,
		AI:          aiCfg,
		Attachments: attachments,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
	// StaticDir is served at /. Empty disables static files.
	StaticDir string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3001"
	}

	staticDir := "."
	if raw, ok := os.LookupEnv("STATIC_DIR"); ok {
		staticDir = strings.TrimSpace(raw)
	}

	if strings.Contains(port, ":") {
		// ":3001" and "127.0.0.1:3001" are taken as-is.
		return ServerConfig{Addr: port, StaticDir: staticDir}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, StaticDir: staticDir}, nil
}

// StorageConfig locates the key/value database.
type StorageConfig struct {
	Path string
}

// InMemory reports whether the in-memory store was requested.
func (c StorageConfig) InMemory() bool {
	return c.Path == MemoryStoragePath
}

func loadStorageConfig() (StorageConfig, error) {
	if path := strings.TrimSpace(os.Getenv("CHAT_DB_PATH")); path != "" {
		return StorageConfig{Path: path}, nil
	}

	path, err := kv.DefaultPath()
	if err != nil {
		return StorageConfig{}, fmt.Errorf("resolve default database path: %w", err)
	}
	return StorageConfig{Path: path}, nil
}

// ConfigFileConfig describes the mirrored key/model file.
type ConfigFileConfig struct {
	Path  string
	Watch bool
}

func loadConfigFileConfig() (ConfigFileConfig, error) {
	watch, err := parseBoolEnv("CONFIG_FILE_WATCH", true)
	if err != nil {
		return ConfigFileConfig{}, err
	}
	return ConfigFileConfig{
		Path:  getEnvOrDefault("CONFIG_FILE", "config.toml"),
		Watch: watch,
	}, nil
}

// AIConfig describes the completion backend.
type AIConfig struct {
	Provider      ai.Provider
	OpenAIBaseURL string
	ArkBaseURL    string
	ArkRegion     string
	DefaultModel  string
	// APIKey seeds the settings when nothing is stored yet.
	APIKey string
	// RequestTimeout of zero leaves completion calls unbounded.
	RequestTimeout time.Duration
}

// CompleterOptions returns the options for ai.NewCompleter.
func (c AIConfig) CompleterOptions() ai.Options {
	return ai.Options{
		Provider:      c.Provider,
		OpenAIBaseURL: c.OpenAIBaseURL,
		ArkBaseURL:    c.ArkBaseURL,
		ArkRegion:     c.ArkRegion,
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := ai.Provider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ai.ProviderOpenAI))))
	switch provider {
	case ai.ProviderOpenAI, ai.ProviderArk:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: %w", provider, ai.ErrUnknownProvider)
	}

	timeoutSeconds, err := parseOptionalIntEnv("AI_REQUEST_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	var timeout time.Duration
	if timeoutSeconds != nil {
		if *timeoutSeconds < 0 {
			return AIConfig{}, fmt.Errorf("invalid AI_REQUEST_TIMEOUT_SECONDS value %d: must not be negative", *timeoutSeconds)
		}
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	return AIConfig{
		Provider:       provider,
		OpenAIBaseURL:  getEnvOrDefault("OPENAI_BASE_URL", ai.DefaultOpenAIBaseURL),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", ai.DefaultArkBaseURL),
		ArkRegion:      getEnvOrDefault("ARK_REGION", ai.DefaultArkRegion),
		DefaultModel:   getEnvOrDefault("DEFAULT_MODEL", "gpt-3.5-turbo"),
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RequestTimeout: timeout,
	}, nil
}

// AttachmentConfig bounds uploads.
type AttachmentConfig struct {
	MaxBytes int64
}

func loadAttachmentConfig() (AttachmentConfig, error) {
	maxBytes, err := parseOptionalInt64Env("MAX_ATTACHMENT_BYTES")
	if err != nil {
		return AttachmentConfig{}, err
	}
	if maxBytes == nil {
		return AttachmentConfig{MaxBytes: attachment.DefaultMaxBytes}, nil
	}
	if *maxBytes <= 0 {
		return AttachmentConfig{}, fmt.Errorf("invalid MAX_ATTACHMENT_BYTES value %d: must be positive", *maxBytes)
	}
	return AttachmentConfig{MaxBytes: *maxBytes}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalInt64Env(key string) (*int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
