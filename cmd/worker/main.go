package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/config"
	"github.com/voxlink/slackbridge/internal/db"
	"github.com/voxlink/slackbridge/internal/search"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/store/rabbitmq"
	"github.com/voxlink/slackbridge/internal/tools"
	"github.com/voxlink/slackbridge/internal/turn"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	if strings.TrimSpace(cfg.SlackBotToken) == "" {
		log.Fatalf("SLACK_BOT_TOKEN is required")
	}

	gdb := db.Connect(cfg.DBDSN)
	repo := session.NewRepo(gdb)

	slackClient := slack.NewAPIClient(cfg.SlackBaseURL, cfg.SlackBotToken)
	searchClient := search.NewClient(cfg.ExaBaseURL, cfg.ExaAPIKey)

	defs := tools.SlackTools(slackClient)
	defs = append(defs,
		tools.PostToSlackChannel(slackClient),
		tools.GetCurrentDate(),
		tools.WebSearch(searchClient),
	)
	registry, err := tools.NewRegistry(defs...)
	if err != nil {
		log.Fatalf("tool registry: %v", err)
	}

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

	provider, err := reg.Get(context.Background(), cfg.AIProvider, cfg.Model)
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	orchestrator := turn.NewOrchestrator(repo, slackClient, registry, provider, cfg.Model)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// Arguments must match the publisher's declaration exactly or the
	// broker rejects the redeclare.
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.TurnJobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.TurnJobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleTurnJob(ctx, repo, orchestrator, m.TurnJobID); err != nil {
					log.Printf("worker=%d job %s failed cost=%s err=%v", workerID, m.TurnJobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.TurnJobID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleTurnJob(ctx context.Context, repo *session.Repo, orchestrator *turn.Orchestrator, jobID string) error {
	_ = repo.UpdateTurnJobStatusRunning(ctx, jobID)

	j, err := repo.GetTurnJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get turn job: %w", err)
	}

	sess, err := repo.GetBySessionID(ctx, j.SessionID)
	if err != nil {
		_ = repo.MarkTurnJobFailed(ctx, jobID, err.Error())
		return fmt.Errorf("get session: %w", err)
	}

	var trigger *session.Message
	if j.TriggerMessageID != nil {
		trigger, err = repo.GetMessageByID(ctx, *j.TriggerMessageID)
		if err != nil {
			_ = repo.MarkTurnJobFailed(ctx, jobID, err.Error())
			return fmt.Errorf("get trigger message: %w", err)
		}
	}

	res, err := orchestrator.Run(ctx, sess, trigger)
	if err != nil {
		_ = repo.MarkTurnJobFailed(ctx, jobID, err.Error())
		return err
	}

	if err := repo.MarkTurnJobSucceeded(ctx, jobID, res.MessageID); err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}
	return nil
}
