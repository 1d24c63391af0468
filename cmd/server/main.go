package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/bridge"
	"github.com/voxlink/slackbridge/internal/config"
	"github.com/voxlink/slackbridge/internal/db"
	"github.com/voxlink/slackbridge/internal/httpapi"
	"github.com/voxlink/slackbridge/internal/search"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/store/rabbitmq"
	"github.com/voxlink/slackbridge/internal/store/redisstore"
	"github.com/voxlink/slackbridge/internal/tools"
	"github.com/voxlink/slackbridge/internal/turn"
)

func buildProviderRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.Model
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.Model
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	return reg
}

func buildToolRegistry(slackClient slack.Client, searchClient *search.Client) (*tools.Registry, error) {
	defs := tools.SlackTools(slackClient)
	defs = append(defs,
		tools.PostToSlackChannel(slackClient),
		tools.GetCurrentDate(),
		tools.WebSearch(searchClient),
	)
	return tools.NewRegistry(defs...)
}

func main() {
	cfg := config.Load()

	// Missing platform credentials are a broken deployment; fail now, not
	// on the first event.
	if strings.TrimSpace(cfg.SlackBotToken) == "" {
		log.Fatalf("SLACK_BOT_TOKEN is required")
	}
	if !search.NewClient(cfg.ExaBaseURL, cfg.ExaAPIKey).Configured() {
		log.Printf("WARN: EXA_API_KEY not set, web search will report itself unavailable")
	}

	gdb := db.Connect(cfg.DBDSN)
	repo := session.NewRepo(gdb)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Printf("WARN: redis unreachable, channel-kind lookups will not be cached: %v", err)
	}
	cancelPing()

	slackClient := slack.NewAPIClient(cfg.SlackBaseURL, cfg.SlackBotToken)
	normalizer := slack.NewNormalizer(slackClient, rds)
	searchClient := search.NewClient(cfg.ExaBaseURL, cfg.ExaAPIKey)

	registry, err := buildToolRegistry(slackClient, searchClient)
	if err != nil {
		log.Fatalf("tool registry: %v", err)
	}

	provider, err := buildProviderRegistry(cfg).Get(context.Background(), cfg.AIProvider, cfg.Model)
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	orchestrator := turn.NewOrchestrator(repo, slackClient, registry, provider, cfg.Model)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit publisher: %v", err)
	}
	defer publisher.Close()

	bridgeSvc := bridge.NewService(repo, normalizer, orchestrator, publisher, cfg.DailyNewsChannel)

	dispatcher := slack.NewDispatcher()
	dispatcher.On(slack.EventAppMention, bridgeSvc.HandleMention)
	dispatcher.On(slack.EventMessage, bridgeSvc.HandleMessage)

	router := httpapi.NewRouter(bridgeSvc, dispatcher)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		log.Printf("server started port=%d provider=%s model=%s", cfg.HTTPPort, cfg.AIProvider, cfg.Model)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
