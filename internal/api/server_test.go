package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/completion"
	"github.com/lingora/lingora/internal/countdown"
	"github.com/lingora/lingora/internal/gate"
	"github.com/lingora/lingora/internal/identity"
	"github.com/lingora/lingora/internal/lesson"
	"github.com/lingora/lingora/internal/notify"
	"github.com/lingora/lingora/internal/quota"
	"github.com/lingora/lingora/internal/storage/memory"
)

type fakeChat struct {
	content string
	calls   int
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

type testEnv struct {
	server *Server
	token  string
	clock  *clock.TestClock
	chat   *fakeChat
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tc := &clock.TestClock{CurrentTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	days, err := clock.NewDayKeeper(tc, "00:00")
	if err != nil {
		t.Fatalf("new day keeper: %v", err)
	}

	store := memory.Open()
	notifier := notify.NewLocal()
	nop := zerolog.Nop()

	q := quota.NewService(store.Counters(), days, nop)
	c := completion.NewService(store.Flags(), days, notifier, nop)
	g := gate.New(q, c, days, notifier, nop)
	cd := countdown.New(store.Timers(), days, nop)

	chat := &fakeChat{content: `{"status": "PERFECT", "feedback": "Nice work!"}`}
	client := lesson.NewClientWithAPI(chat, "", nop)
	definer, err := lesson.NewDefiner(client, 16)
	if err != nil {
		t.Fatalf("new definer: %v", err)
	}

	verifier := identity.NewVerifier("test-secret", time.Hour)
	token, err := verifier.GenerateToken("user-a", "a@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	server := NewServer(
		Config{
			ListenAddr:        "127.0.0.1:0",
			DefinitionsPerDay: 3,
			ReviewsPerDay:     2,
			SessionSeconds:    600,
		},
		verifier, g, q, c, cd, definer, lesson.NewReviewer(client), lesson.NewIdeaGenerator(client), days, nop,
	)

	return &testEnv{server: server, token: token, clock: tc, chat: chat}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDefineRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/define", bytes.NewReader([]byte(`{"word":"cat"}`)))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDefineConsumesQuotaUntilExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.chat.content = "A small feline animal kept"

	words := []string{"cat", "dog", "bird"}
	for i, word := range words {
		rec := env.do(t, http.MethodPost, "/api/define", DefineRequest{Word: word})
		if rec.Code != http.StatusOK {
			t.Fatalf("define %d: expected 200, got %d", i, rec.Code)
		}
		resp := decode[DefineResponse](t, rec)
		if resp.Decision != string(gate.Allowed) {
			t.Fatalf("define %d: expected allowed, got %s", i, resp.Decision)
		}
		if resp.Remaining != int64(2-i) {
			t.Errorf("define %d: expected remaining %d, got %d", i, 2-i, resp.Remaining)
		}
	}

	// Fourth distinct word is denied with 200, not an error status.
	rec := env.do(t, http.MethodPost, "/api/define", DefineRequest{Word: "fish"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for denial, got %d", rec.Code)
	}
	resp := decode[DefineResponse](t, rec)
	if resp.Decision != string(gate.DeniedQuota) {
		t.Fatalf("expected denied_quota, got %s", resp.Decision)
	}
	if resp.Definition != "" {
		t.Error("denied response must not carry a definition")
	}
}

func TestDefineCacheHitIsFree(t *testing.T) {
	env := newTestEnv(t)
	env.chat.content = "A small feline animal kept"

	env.do(t, http.MethodPost, "/api/define", DefineRequest{Word: "cat"})

	rec := env.do(t, http.MethodPost, "/api/define", DefineRequest{Word: "cat"})
	resp := decode[DefineResponse](t, rec)
	if !resp.Cached {
		t.Error("expected cached lookup")
	}
	if resp.Remaining != 2 {
		t.Errorf("cache hit must not consume quota, remaining=%d", resp.Remaining)
	}
	if env.chat.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", env.chat.calls)
	}
}

func TestPerfectReviewMarksCompletion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/review", ReviewRequest{Text: "I went home."})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[ReviewResponse](t, rec)
	if resp.Status != lesson.ReviewPerfect {
		t.Fatalf("expected PERFECT, got %s", resp.Status)
	}

	// Completed-for-today now blocks further reviews even with quota left.
	rec = env.do(t, http.MethodPost, "/api/review", ReviewRequest{Text: "More text."})
	resp = decode[ReviewResponse](t, rec)
	if resp.Decision != string(gate.DeniedCompleted) {
		t.Fatalf("expected denied_completed, got %s", resp.Decision)
	}

	status := decode[FeatureStatus](t, env.do(t, http.MethodGet, "/api/features/writing-review/status", nil))
	if status.Completion != "DONE" {
		t.Errorf("expected completion DONE, got %s", status.Completion)
	}
	if status.Remaining != 0 {
		t.Errorf("expected remaining 0 while completed, got %d", status.Remaining)
	}
}

func TestImperfectReviewDoesNotComplete(t *testing.T) {
	env := newTestEnv(t)
	env.chat.content = `{"status": "ALMOST_THERE", "feedback": "Small mistake."}`

	rec := env.do(t, http.MethodPost, "/api/review", ReviewRequest{Text: "I goed home."})
	resp := decode[ReviewResponse](t, rec)
	if resp.Status != lesson.ReviewAlmostThere {
		t.Fatalf("expected ALMOST_THERE, got %s", resp.Status)
	}

	// Still allowed to try again.
	rec = env.do(t, http.MethodPost, "/api/review", ReviewRequest{Text: "I went home."})
	resp = decode[ReviewResponse](t, rec)
	if resp.Decision != string(gate.Allowed) {
		t.Fatalf("expected allowed retry, got %s", resp.Decision)
	}
}

func TestGenerateIdeaDoesNotConsumeQuota(t *testing.T) {
	env := newTestEnv(t)
	env.chat.content = "Write about a market you visited."

	rec := env.do(t, http.MethodPost, "/api/generate-idea", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[IdeaResponse](t, rec)
	if resp.Idea != "Write about a market you visited." {
		t.Fatalf("unexpected idea: %q", resp.Idea)
	}

	// Prompts are free.
	status := decode[FeatureStatus](t, env.do(t, http.MethodGet, "/api/features/writing-review/status", nil))
	if status.Count != 0 {
		t.Errorf("expected writing count 0 after idea, got %d", status.Count)
	}
}

func TestFeatureStatusRollover(t *testing.T) {
	env := newTestEnv(t)
	env.chat.content = "A small feline animal kept"

	env.do(t, http.MethodPost, "/api/define", DefineRequest{Word: "cat"})

	status := decode[FeatureStatus](t, env.do(t, http.MethodGet, "/api/features/definition-lookup/status", nil))
	if status.Count != 1 || status.Day != "2024-03-01" {
		t.Fatalf("unexpected status: %+v", status)
	}

	env.clock.Advance(24 * time.Hour)

	status = decode[FeatureStatus](t, env.do(t, http.MethodGet, "/api/features/definition-lookup/status", nil))
	if status.Count != 0 || status.Day != "2024-03-02" {
		t.Fatalf("expected fresh day, got %+v", status)
	}
	if status.SecondsUntilRollover <= 0 || status.SecondsUntilRollover > 86400 {
		t.Errorf("seconds until rollover out of range: %d", status.SecondsUntilRollover)
	}
}

func TestUnknownFeature(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/features/nope/status", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTimerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/features/reading-session/timer/start", nil)
	resp := decode[TimerResponse](t, rec)
	if resp.RemainingSeconds != 600 {
		t.Fatalf("expected 600s session, got %d", resp.RemainingSeconds)
	}

	rec = env.do(t, http.MethodPost, "/api/features/reading-session/timer/tick", nil)
	resp = decode[TimerResponse](t, rec)
	if resp.RemainingSeconds != 599 || resp.Expired {
		t.Fatalf("unexpected tick response: %+v", resp)
	}
}

func TestTimerTickWithoutStart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/features/reading-session/timer/tick", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
