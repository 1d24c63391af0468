package bridge

import (
	"context"
	"fmt"
	"log"

	"github.com/voxlink/slackbridge/internal/common"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/turn"
)

// TurnPublisher enqueues a turn job for deferred processing.
type TurnPublisher interface {
	PublishTurnJob(ctx context.Context, jobID string) error
}

// Service routes inbound events into sessions and dispatches turns.
// Platform events run their turn immediately in-process; scheduled triggers
// are enqueued for the worker.
type Service struct {
	repo         *session.Repo
	normalizer   *slack.Normalizer
	orchestrator *turn.Orchestrator
	publisher    TurnPublisher

	dailyNewsChannel string
}

func NewService(repo *session.Repo, normalizer *slack.Normalizer, orchestrator *turn.Orchestrator, publisher TurnPublisher, dailyNewsChannel string) *Service {
	return &Service{
		repo:             repo,
		normalizer:       normalizer,
		orchestrator:     orchestrator,
		publisher:        publisher,
		dailyNewsChannel: dailyNewsChannel,
	}
}

// HandleMention handles app_mention events: the session is keyed by channel
// and thread, so every thread is its own conversation.
func (s *Service) HandleMention(ctx context.Context, ev *slack.Event) {
	msg := s.normalizer.FromMention(ev)
	if msg == nil {
		return
	}
	key := session.SlackKey(ev.Channel, slack.ThreadTS(ev))
	s.deliver(ctx, key, msg)
}

// HandleMessage handles direct messages: the session is keyed by channel
// only, so all DM turns in a channel share one conversation.
func (s *Service) HandleMessage(ctx context.Context, ev *slack.Event) {
	msg := s.normalizer.FromMessage(ctx, ev)
	if msg == nil {
		return
	}
	key := session.SlackKey(ev.Channel, "")
	s.deliver(ctx, key, msg)
}

// deliver appends the message in immediate mode and runs the turn. There is
// no response channel for platform events, so failures are logged and the
// turn is dropped.
func (s *Service) deliver(ctx context.Context, key string, msg *session.Message) {
	sess, err := s.repo.Upsert(ctx, key)
	if err != nil {
		log.Printf("session upsert failed key=%s err=%v", key, err)
		return
	}
	if err := s.repo.AppendMessages(ctx, sess.ID, []*session.Message{msg}); err != nil {
		log.Printf("append failed key=%s err=%v", key, err)
		return
	}

	if _, err := s.orchestrator.Run(ctx, sess, msg); err != nil {
		log.Printf("turn failed key=%s err=%v", key, err)
	}
}

// HandleDailyNews creates an isolated session for a scheduled run and
// enqueues its turn. The acknowledgment string is returned on success;
// any failure propagates so the router can answer with an error response.
func (s *Service) HandleDailyNews(ctx context.Context) (string, error) {
	key, err := session.DailyNewsKey()
	if err != nil {
		return "", err
	}

	sess, err := s.repo.Upsert(ctx, key)
	if err != nil {
		return "", err
	}

	instruction := fmt.Sprintf(
		"Generate a daily news summary and post it to Slack channel %s. "+
			"Use your tools to research the latest news and create an engaging summary. "+
			"After analyzing, post the formatted summary to the Slack channel using the postToSlackChannel tool.",
		s.dailyNewsChannel,
	)
	msg := session.NewTextMessage(session.RoleUser, instruction, nil)
	if err := s.repo.AppendMessages(ctx, sess.ID, []*session.Message{msg}); err != nil {
		return "", err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return "", err
	}
	job := &session.TurnJob{
		ID:               jobID,
		SessionID:        sess.ID,
		TriggerMessageID: &msg.ID,
		Status:           session.TurnJobQueued,
	}
	if err := s.repo.CreateTurnJob(ctx, job); err != nil {
		return "", err
	}
	if err := s.publisher.PublishTurnJob(ctx, job.ID); err != nil {
		return "", err
	}

	log.Printf("daily news turn queued key=%s job=%s", key, job.ID)
	return "Summary request queued successfully", nil
}
