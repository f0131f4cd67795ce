package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STATIC_DIR", "CHAT_DB_PATH", "CONFIG_FILE", "CONFIG_FILE_WATCH",
		"AI_PROVIDER", "OPENAI_BASE_URL", "ARK_BASE_URL", "ARK_REGION", "DEFAULT_MODEL",
		"OPENAI_API_KEY", "AI_REQUEST_TIMEOUT_SECONDS", "MAX_ATTACHMENT_BYTES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_DB_PATH", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3001", cfg.Server.Addr)
	require.Equal(t, ".", cfg.Server.StaticDir)
	require.True(t, cfg.Storage.InMemory())
	require.Equal(t, "config.toml", cfg.ConfigFile.Path)
	require.True(t, cfg.ConfigFile.Watch)
	require.Equal(t, ai.ProviderOpenAI, cfg.AI.Provider)
	require.Equal(t, ai.DefaultOpenAIBaseURL, cfg.AI.OpenAIBaseURL)
	require.Equal(t, "gpt-3.5-turbo", cfg.AI.DefaultModel)
	require.Zero(t, cfg.AI.RequestTimeout)
	require.Equal(t, attachment.DefaultMaxBytes, cfg.Attachments.MaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CHAT_DB_PATH", "/tmp/chat.db")
	t.Setenv("CONFIG_FILE_WATCH", "false")
	t.Setenv("AI_PROVIDER", "ARK")
	t.Setenv("DEFAULT_MODEL", "o1-mini")
	t.Setenv("AI_REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("MAX_ATTACHMENT_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.False(t, cfg.Storage.InMemory())
	require.False(t, cfg.ConfigFile.Watch)
	require.Equal(t, ai.ProviderArk, cfg.AI.Provider)
	require.Equal(t, ai.ProviderArk, cfg.AI.CompleterOptions().Provider)
	require.Equal(t, "o1-mini", cfg.AI.DefaultModel)
	require.Equal(t, 30*time.Second, cfg.AI.RequestTimeout)
	require.Equal(t, int64(1024), cfg.Attachments.MaxBytes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                       "eighty",
		"CONFIG_FILE_WATCH":          "maybe",
		"AI_REQUEST_TIMEOUT_SECONDS": "soon",
		"MAX_ATTACHMENT_BYTES":       "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CHAT_DB_PATH", ":memory:")
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_DB_PATH", ":memory:")
	t.Setenv("AI_PROVIDER", "gemini")

	_, err := Load()
	require.True(t, errors.Is(err, ai.ErrUnknownProvider))
}
