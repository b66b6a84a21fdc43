package lesson

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// fakeChat returns a canned completion and counts calls.
type fakeChat struct {
	content string
	err     error
	calls   int
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestDefiner(t *testing.T, fake *fakeChat) *Definer {
	t.Helper()
	client := NewClientWithAPI(fake, "", zerolog.Nop())
	definer, err := NewDefiner(client, 16)
	if err != nil {
		t.Fatalf("new definer: %v", err)
	}
	return definer
}

func TestDefineCachesPerWord(t *testing.T) {
	fake := &fakeChat{content: "A small domesticated feline animal"}
	definer := newTestDefiner(t, fake)
	ctx := context.Background()

	definition, cached, err := definer.Define(ctx, "cat")
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if cached {
		t.Error("first lookup should not be cached")
	}
	if definition != "A small domesticated feline animal" {
		t.Errorf("unexpected definition: %q", definition)
	}

	// Case-insensitive repeat hits the cache without a backend call.
	_, cached, err = definer.Define(ctx, "Cat")
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	if !cached {
		t.Error("repeat lookup should be cached")
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", fake.calls)
	}
}

func TestDefineRejectsEmptyWord(t *testing.T) {
	definer := newTestDefiner(t, &fakeChat{content: "x"})

	if _, _, err := definer.Define(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty word")
	}
}

func TestDefineBackendError(t *testing.T) {
	fake := &fakeChat{err: errors.New("backend down")}
	definer := newTestDefiner(t, fake)

	if _, _, err := definer.Define(context.Background(), "cat"); err == nil {
		t.Fatal("expected backend error to propagate")
	}
	// Failures are not cached.
	fake.err = nil
	fake.content = "A definition"
	if _, cached, err := definer.Define(context.Background(), "cat"); err != nil || cached {
		t.Fatalf("expected fresh lookup after failure, cached=%v err=%v", cached, err)
	}
}

func TestReviewPerfect(t *testing.T) {
	fake := &fakeChat{content: `{"status": "PERFECT", "feedback": "Great writing!"}`}
	reviewer := NewReviewer(NewClientWithAPI(fake, "", zerolog.Nop()))

	review, err := reviewer.Review(context.Background(), "I went to the store yesterday.")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !review.Perfect() {
		t.Errorf("expected perfect, got %q", review.Status)
	}
	if review.Feedback != "Great writing!" {
		t.Errorf("unexpected feedback: %q", review.Feedback)
	}
	if fake.lastReq.ResponseFormat == nil || fake.lastReq.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Error("expected JSON response format to be requested")
	}
}

func TestReviewMalformedVerdictDegrades(t *testing.T) {
	fake := &fakeChat{content: `{"status": "PERFECT", "feed`}
	reviewer := NewReviewer(NewClientWithAPI(fake, "", zerolog.Nop()))

	review, err := reviewer.Review(context.Background(), "Some text")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.Status != ReviewAlmostThere {
		t.Errorf("expected degraded ALMOST_THERE, got %q", review.Status)
	}
	if review.Feedback == "" {
		t.Error("expected fallback feedback")
	}
}

func TestReviewUnknownStatusNormalized(t *testing.T) {
	fake := &fakeChat{content: `{"status": "GREAT", "feedback": "ok"}`}
	reviewer := NewReviewer(NewClientWithAPI(fake, "", zerolog.Nop()))

	review, err := reviewer.Review(context.Background(), "Some text")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.Status != ReviewAlmostThere {
		t.Errorf("expected normalized ALMOST_THERE, got %q", review.Status)
	}
}

func TestReviewRejectsEmptyText(t *testing.T) {
	reviewer := NewReviewer(NewClientWithAPI(&fakeChat{}, "", zerolog.Nop()))

	if _, err := reviewer.Review(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestGenerateIdea(t *testing.T) {
	fake := &fakeChat{content: "  Write about your favorite meal.\n"}
	ideas := NewIdeaGenerator(NewClientWithAPI(fake, "", zerolog.Nop()))

	idea, err := ideas.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if idea != "Write about your favorite meal." {
		t.Errorf("unexpected idea: %q", idea)
	}
	if fake.lastReq.MaxTokens != ideaMaxTokens {
		t.Errorf("expected max tokens %d, got %d", ideaMaxTokens, fake.lastReq.MaxTokens)
	}
}

func TestGenerateIdeaBackendError(t *testing.T) {
	fake := &fakeChat{err: errors.New("backend down")}
	ideas := NewIdeaGenerator(NewClientWithAPI(fake, "", zerolog.Nop()))

	if _, err := ideas.Generate(context.Background()); err == nil {
		t.Fatal("expected backend error to propagate")
	}
}

func TestGenerateIdeaEmptyResponse(t *testing.T) {
	fake := &fakeChat{content: "   "}
	ideas := NewIdeaGenerator(NewClientWithAPI(fake, "", zerolog.Nop()))

	if _, err := ideas.Generate(context.Background()); err == nil {
		t.Fatal("expected error for empty idea")
	}
}
