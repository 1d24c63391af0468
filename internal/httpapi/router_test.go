package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/voxlink/slackbridge/internal/ai"
	"github.com/voxlink/slackbridge/internal/bridge"
	"github.com/voxlink/slackbridge/internal/session"
	"github.com/voxlink/slackbridge/internal/slack"
	"github.com/voxlink/slackbridge/internal/tools"
	"github.com/voxlink/slackbridge/internal/turn"
)

type stubSlack struct{}

func (stubSlack) PostMessage(ctx context.Context, channel, threadTS, text string, unfurl bool) error {
	return nil
}

func (stubSlack) ChannelKind(ctx context.Context, channel string) (string, error) {
	return "channel", nil
}

func (stubSlack) SetThreadStatus(ctx context.Context, channel, threadTS, status string) error {
	return nil
}

func (stubSlack) AddReaction(ctx context.Context, channel, timestamp, name string) error {
	return nil
}

func (stubSlack) ThreadReplies(ctx context.Context, channel, threadTS string, limit int) ([]slack.ThreadMessage, error) {
	return nil, nil
}

type stubProvider struct{}

func (stubProvider) Chat(ctx context.Context, req *ai.Request) (*ai.Result, error) {
	return &ai.Result{Content: "ok"}, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishTurnJob(ctx context.Context, jobID string) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&session.Session{}, &session.Message{}, &session.TurnJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	repo := session.NewRepo(db)

	client := stubSlack{}
	registry, err := tools.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	orch := turn.NewOrchestrator(repo, client, registry, stubProvider{}, "test-model")
	svc := bridge.NewService(repo, slack.NewNormalizer(client, nil), orch, noopPublisher{}, "C_NEWS")

	return NewRouter(svc, slack.NewDispatcher()), db
}

func TestDailyNewsHookAcksOnSuccess(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/hooks/daily-news", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %q", w.Code, w.Body.String())
	}
	if w.Body.Len() == 0 {
		t.Fatalf("empty acknowledgment body")
	}
}

func TestDailyNewsHookReportsStoreFailure(t *testing.T) {
	r, db := newTestRouter(t)

	// Simulate an unreachable store.
	if err := db.Exec("DROP TABLE sessions").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/hooks/daily-news", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error posting summary:") {
		t.Fatalf("error body missing detail prefix: %q", w.Body.String())
	}
}

func TestDailyNewsHookNotShadowedAndOthersDelegated(t *testing.T) {
	r, _ := newTestRouter(t)

	// GET on the hook path is not the scheduled trigger; it falls through to
	// the platform dispatcher, which only accepts POST.
	req := httptest.NewRequest(http.MethodGet, "/hooks/daily-news", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status for GET hook path: %d", w.Code)
	}

	// Any other path reaches the Slack dispatcher; URL verification proves
	// the delegation is wired.
	req = httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"type":"url_verification","challenge":"abc"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "abc" {
		t.Fatalf("dispatcher delegation broken: status=%d body=%q", w.Code, w.Body.String())
	}
}
