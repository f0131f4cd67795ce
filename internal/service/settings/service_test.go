package settings_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/configfile"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

type brokenMirror struct{}

func (brokenMirror) Read() (configfile.Values, error) { return configfile.Values{}, errors.New("disk gone") }
func (brokenMirror) Write(configfile.Values) error    { return errors.New("disk gone") }

func TestLoadPrefersCompleteMirrorFile(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAPIKey, "sk-kv"))
	require.NoError(t, store.Set(ctx, kv.KeyModel, "gpt-4o"))
	require.NoError(t, store.Set(ctx, kv.KeySidebarVisible, "false"))

	file := configfile.New(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, file.Write(configfile.Values{APIKey: "sk-file", Model: "o1-mini"}))

	got, err := settings.NewService(store, file, settings.Defaults{Model: "gpt-3.5-turbo"}).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, settings.Settings{APIKey: "sk-file", Model: "o1-mini", SidebarVisible: false}, got)
}

func TestLoadFallsBackToStoreThenDefaults(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kv.KeyAPIKey, "sk-kv"))

	svc := settings.NewService(store, brokenMirror{}, settings.Defaults{Model: "gpt-3.5-turbo"})
	got, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "sk-kv", got.APIKey)
	require.Equal(t, "gpt-3.5-turbo", got.Model)
	require.True(t, got.SidebarVisible)
	require.True(t, got.Configured())
}

func TestSaveValidatesAndMirrors(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	file := configfile.New(filepath.Join(t.TempDir(), "config.toml"))
	svc := settings.NewService(store, file, settings.Defaults{Model: "gpt-3.5-turbo"})

	_, err := svc.Save(ctx, "", "gpt-4o")
	require.ErrorIs(t, err, settings.ErrAPIKeyRequired)
	_, err = svc.Save(ctx, "sk", " ")
	require.ErrorIs(t, err, settings.ErrModelRequired)

	var notified []settings.Settings
	svc.OnChange(func(s settings.Settings) { notified = append(notified, s) })

	got, err := svc.Save(ctx, " sk-new ", "gpt-4o")
	require.NoError(t, err)
	require.Equal(t, "sk-new", got.APIKey)
	require.Len(t, notified, 1)

	value, _, err := store.Get(ctx, kv.KeyAPIKey)
	require.NoError(t, err)
	require.Equal(t, "sk-new", value)

	mirrored, err := file.Read()
	require.NoError(t, err)
	require.Equal(t, configfile.Values{APIKey: "sk-new", Model: "gpt-4o"}, mirrored)
}

func TestSaveSurvivesMirrorFailure(t *testing.T) {
	svc := settings.NewService(kv.NewMemoryStore(), brokenMirror{}, settings.Defaults{})
	got, err := svc.Save(context.Background(), "sk", "gpt-4o")
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", got.Model)

	_, err = svc.WriteMirror(context.Background(), configfile.Values{APIKey: "a", Model: "b"})
	require.Error(t, err)
}

func TestSetModelAndSidebarPersist(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := settings.NewService(store, nil, settings.Defaults{Model: "gpt-3.5-turbo"})

	got, err := svc.SetModel(ctx, "o3-mini")
	require.NoError(t, err)
	require.Equal(t, "o3-mini", got.Model)
	require.False(t, svc.SetSidebarVisible(ctx, false).SidebarVisible)

	reloaded, err := settings.NewService(store, nil, settings.Defaults{Model: "gpt-3.5-turbo"}).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "o3-mini", reloaded.Model)
	require.False(t, reloaded.SidebarVisible)
}

func TestApplyIgnoresIncompleteAndUnchangedValues(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(kv.NewMemoryStore(), nil, settings.Defaults{Model: "gpt-3.5-turbo"})

	calls := 0
	svc.OnChange(func(settings.Settings) { calls++ })

	svc.Apply(ctx, configfile.Values{APIKey: "sk"})
	require.Zero(t, calls)

	got := svc.Apply(ctx, configfile.Values{APIKey: "sk", Model: "gpt-4o"})
	require.Equal(t, "gpt-4o", got.Model)
	svc.Apply(ctx, configfile.Values{APIKey: "sk", Model: "gpt-4o"})
	require.Equal(t, 1, calls)
}
