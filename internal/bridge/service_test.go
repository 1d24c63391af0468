package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/tools"
	"github.com/voxlink/slackbridge/internal/turn"
)

type fakeSlack struct {
	kind  string
	posts []string
}

func (f *fakeSlack) PostMessage(ctx context.Context, channel, threadTS, text string, unfurl bool) error {
	f.posts = append(f.posts, fmt.Sprintf("%s|%s|%s", channel, threadTS, text))
	return nil
}

func (f *fakeSlack) ChannelKind(ctx context.Context, channel string) (string, error) {
	if f.kind == "" {
		return "channel", nil
	}
	return f.kind, nil
}

func (f *fakeSlack) SetThreadStatus(ctx context.Context, channel, threadTS, status string) error {
	return nil
}

func (f *fakeSlack) AddReaction(ctx context.Context, channel, timestamp, name string) error {
	return nil
}

func (f *fakeSlack) ThreadReplies(ctx context.Context, channel, threadTS string, limit int) ([]slack.ThreadMessage, error) {
	return nil, nil
}

type staticProvider struct {
	content string
}

func (p *staticProvider) Chat(ctx context.Context, req *ai.Request) (*ai.Result, error) {
	return &ai.Result{Content: p.content}, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishTurnJob(ctx context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func newTestService(t *testing.T, client *fakeSlack, pub TurnPublisher) (*Service, *session.Repo) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&session.Session{}, &session.Message{}, &session.TurnJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	repo := session.NewRepo(db)

	registry, err := tools.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	orch := turn.NewOrchestrator(repo, client, registry, &staticProvider{content: "hello!"}, "test-model")
	normalizer := slack.NewNormalizer(client, nil)

	return NewService(repo, normalizer, orch, pub, "C_NEWS"), repo
}

func TestHandleMentionRunsTurn(t *testing.T) {
	client := &fakeSlack{}
	svc, repo := newTestService(t, client, &fakePublisher{})

	svc.HandleMention(context.Background(), &slack.Event{
		Type: slack.EventAppMention, Channel: "C1", TS: "1.0", ThreadTS: "0.5", Text: "@bot hi",
	})

	sess, err := repo.Upsert(context.Background(), session.SlackKey("C1", "0.5"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	msgs, err := repo.ListMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(msgs))
	}
	if msgs[1].Role != session.RoleAssistant || msgs[1].Text() != "hello!" {
		t.Fatalf("assistant reply not persisted: %+v", msgs[1])
	}
	if len(client.posts) != 1 || client.posts[0] != "C1|0.5|hello!" {
		t.Fatalf("reply not relayed: %v", client.posts)
	}
}

func TestHandleMessageCollapsesDMsToOneSession(t *testing.T) {
	client := &fakeSlack{kind: "im"}
	svc, repo := newTestService(t, client, &fakePublisher{})

	svc.HandleMessage(context.Background(), &slack.Event{
		Type: slack.EventMessage, Channel: "D7", TS: "1.0", Text: "first",
	})
	svc.HandleMessage(context.Background(), &slack.Event{
		Type: slack.EventMessage, Channel: "D7", TS: "2.0", Text: "second",
	})

	sess, err := repo.Upsert(context.Background(), session.SlackKey("D7", ""))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	msgs, err := repo.ListMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Two user messages plus two assistant replies, all in one session.
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages in the collapsed session, got %d", len(msgs))
	}
}

func TestHandleMessageIgnoresBotEvents(t *testing.T) {
	client := &fakeSlack{kind: "im"}
	svc, repo := newTestService(t, client, &fakePublisher{})

	svc.HandleMessage(context.Background(), &slack.Event{
		Type: slack.EventMessage, Channel: "D7", TS: "1.0", Text: "echo", BotID: "B1",
	})

	sess, err := repo.Upsert(context.Background(), session.SlackKey("D7", ""))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	msgs, err := repo.ListMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("bot event produced messages: %d", len(msgs))
	}
}

func TestHandleDailyNewsEnqueuesIsolatedSession(t *testing.T) {
	pub := &fakePublisher{}
	svc, repo := newTestService(t, &fakeSlack{}, pub)

	ack, err := svc.HandleDailyNews(context.Background())
	if err != nil {
		t.Fatalf("daily news: %v", err)
	}
	if ack != "Summary request queued successfully" {
		t.Fatalf("unexpected ack: %q", ack)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published job, got %d", len(pub.published))
	}

	job, err := repo.GetTurnJobByID(context.Background(), pub.published[0])
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != session.TurnJobQueued {
		t.Fatalf("unexpected job status: %q", job.Status)
	}

	sess, err := repo.GetBySessionID(context.Background(), job.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !strings.HasPrefix(sess.SessionKey, session.DailyNewsTask+"/") {
		t.Fatalf("unexpected session key: %q", sess.SessionKey)
	}

	msgs, err := repo.ListMessages(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text(), "C_NEWS") {
		t.Fatalf("instruction message missing or wrong: %+v", msgs)
	}

	// A second trigger must land in a fresh session.
	if _, err := svc.HandleDailyNews(context.Background()); err != nil {
		t.Fatalf("second daily news: %v", err)
	}
	second, err := repo.GetTurnJobByID(context.Background(), pub.published[1])
	if err != nil {
		t.Fatalf("get second job: %v", err)
	}
	if second.SessionID == job.SessionID {
		t.Fatalf("scheduled runs shared a session")
	}
}

func TestHandleDailyNewsPublishFailurePropagates(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, &fakeSlack{}, pub)

	if _, err := svc.HandleDailyNews(context.Background()); err == nil {
		t.Fatalf("publish failure did not propagate")
	}
}
