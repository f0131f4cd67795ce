package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/config"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/handler"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/preset"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/render"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/orchestrator"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/configfile"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	mirror := configfile.New(cfg.ConfigFile.Path)
	settingsService := settings.NewService(store, mirror, settings.Defaults{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.DefaultModel,
	})
	if _, err := settingsService.Load(ctx); err != nil {
		log.Printf("warning: failed to load settings: %v", err)
	}
	if cfg.ConfigFile.Watch {
		go watchConfigFile(ctx, mirror, settingsService)
	}

	completer, err := ai.NewCompleter(cfg.AI.CompleterOptions())
	if err != nil {
		log.Fatalf("failed to initialize completer: %v", err)
	}
	log.Printf("AI provider %s initialized", cfg.AI.Provider)

	highlighter := render.NewChromaHighlighter(render.DefaultStyle)
	renderer := render.New(
		render.WithHighlighter(highlighter),
		render.WithLanguageGuesser(render.ChainGuess(render.KeywordGuess, render.ChromaGuess)),
	)

	builder := ai.NewBuilder(ai.DefaultPolicies())
	orch := orchestrator.NewService(orchestrator.Deps{
		Chats:          chat.NewService(store),
		Attachments:    attachment.NewManager(cfg.Attachments.MaxBytes),
		Settings:       settingsService,
		Builder:        builder,
		Completer:      completer,
		Renderer:       renderer,
		RequestTimeout: cfg.AI.RequestTimeout,
	})
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("failed to start chat: %v", err)
	}

	router := handler.NewRouter(handler.Deps{
		Orchestrator: orch,
		Settings:     settingsService,
		Presets:      preset.NewMemoryStore(preset.Seed()),
		Policies:     builder.Policies(),
		Renderer:     renderer,
		Styles:       highlighter,
		StaticDir:    cfg.Server.StaticDir,
	})

	startServer(ctx, cfg.Server, router)
}

func openStore(cfg config.StorageConfig) (kv.Store, error) {
	if cfg.InMemory() {
		log.Println("using in-memory storage, conversations will not survive a restart")
		return kv.NewMemoryStore(), nil
	}
	store, err := kv.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, err
	}
	log.Printf("storage opened at %s", cfg.Path)
	return store, nil
}

func watchConfigFile(ctx context.Context, mirror *configfile.File, svc *settings.Service) {
	err := mirror.Watch(ctx, func(values configfile.Values) {
		svc.Apply(ctx, values)
	})
	if err != nil {
		log.Printf("warning: config file watch stopped: %v", err)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("ChatLLM listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
