package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"mc-bridge/internal/ai"
	"mc-bridge/internal/config"
	"mc-bridge/internal/httpapi"
	"mc-bridge/internal/ledger"
	"mc-bridge/internal/llm"
	"mc-bridge/internal/mclog"
	"mc-bridge/internal/memory"
	"mc-bridge/internal/onebot"
	"mc-bridge/internal/panel"
	"mc-bridge/internal/scheduler"
)

func main() {
	if err := config.EnsureEnvFile(".env"); err != nil {
		log.Printf("failed to create sample config: %v", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	store, err := memory.NewStore(cfg.MemoryDir)
	if err != nil {
		log.Fatalf("failed to init memory store: %v", err)
	}

	led, err := ledger.New(cfg.EventsFilePath)
	if err != nil {
		log.Fatalf("failed to init event ledger: %v", err)
	}

	panelClient := panel.NewClient(cfg.FileAPIBaseURL, cfg.FileAPIKey)
	if !panelClient.Configured() {
		log.Printf("⚠️ file API not configured, server features disabled")
	}

	llmClient := newLLMClient(cfg)
	responder := ai.NewResponder(llmClient, cfg.AISystemPrompt, store, panelClient, cfg.DefaultDaemonID, cfg.DefaultUUID)

	registry := onebot.NewRegistry()

	var manager *onebot.Manager
	dispatcher := onebot.NewDispatcher(onebot.Handlers{
		Message: func(ctx context.Context, ev onebot.Event) {
			log.Printf("message event: %s from user %d", ev.MessageType, ev.UserID)
			if !responder.ShouldReply(ev.MessageType, ev.RawMessage, ev.SelfID) {
				return
			}
			reply := responder.Respond(ctx, ev.UserID, ev.RawMessage)
			if reply == "" {
				return
			}
			manager.Send(onebot.Reply(ev, reply))
		},
	})
	manager = onebot.NewManager(cfg.OneBotWSURL, cfg.OneBotToken, registry, dispatcher)

	fetcher := mclog.PanelFetcher{
		Client:   panelClient,
		DaemonID: cfg.DefaultDaemonID,
		UUID:     cfg.DefaultUUID,
		Target:   cfg.MCLogPath,
	}
	tailer := mclog.NewTailer(fetcher, led, manager, cfg.ServerGroupID, cfg.LogPollInterval)
	if cfg.ServerGroupID == 0 {
		log.Printf("⚠️ SERVER_GROUP_ID not set, player event notifications disabled")
	}

	sched := scheduler.New(store.RollupAll, led.CleanupExpired)

	httpServer := httpapi.New(manager, registry, panelClient, cfg.ServerHost, cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		manager.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		tailer.Run(ctx)
	}()

	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("control API server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	if err := httpServer.Stop(); err != nil {
		log.Printf("failed to stop control API server: %v", err)
	}
	sched.Stop()
	wg.Wait()
}

// newLLMClient returns nil when no credential is configured; AI replies are
// then silently disabled rather than treated as an error.
func newLLMClient(cfg *config.Config) llm.Client {
	switch cfg.LLMProvider {
	case config.ProviderYandex:
		if cfg.YandexOAuthToken == "" {
			log.Printf("⚠️ yandex credential not configured, AI replies disabled")
			return nil
		}
	default:
		if cfg.AIAPIKey == "" {
			log.Printf("⚠️ AI_API_KEY not configured, AI replies disabled")
			return nil
		}
	}

	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.AIModel)
	if err != nil {
		log.Printf("⚠️ failed to create llm client, AI replies disabled: %v", err)
		return nil
	}
	return client
}
