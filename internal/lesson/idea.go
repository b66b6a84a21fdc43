package lesson

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lingora/lingora/internal/metrics"
)

const ideaMaxTokens = 50

const ideaSystemMessage = "You are a creative assistant. Provide a short help to a user who wants to write something, it could be a story idea, a song or even about their life."

const ideaUserMessage = `Generate a short writing prompt starting with the following instruction: "Write about". The prompt should be simple, creative, and suitable for someone practicing a new language. Do not include any introductory phrases like "Sure". Just provide the instruction and example directly. Normal things.`

// IdeaGenerator produces short writing prompts for the writing feature.
// Prompts are not cached or quota-gated; each request should yield a
// fresh idea.
type IdeaGenerator struct {
	client *Client
}

// NewIdeaGenerator creates an IdeaGenerator over the given client.
func NewIdeaGenerator(client *Client) *IdeaGenerator {
	return &IdeaGenerator{client: client}
}

// Generate returns a writing prompt starting with "Write about".
func (g *IdeaGenerator) Generate(ctx context.Context) (string, error) {
	start := time.Now()
	idea, err := g.client.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: ideaSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: ideaUserMessage},
		},
		MaxTokens: ideaMaxTokens,
	})
	metrics.RemoteCallDuration.WithLabelValues("generate_idea").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteCalls.WithLabelValues("generate_idea", "error").Inc()
		return "", err
	}
	metrics.RemoteCalls.WithLabelValues("generate_idea", "ok").Inc()

	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", fmt.Errorf("empty idea from backend")
	}
	return idea, nil
}
