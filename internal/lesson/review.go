package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lingora/lingora/internal/metrics"
)

// Review statuses as returned by the writing reviewer.
const (
	ReviewPerfect     = "PERFECT"
	ReviewAlmostThere = "ALMOST_THERE"
)

const reviewMaxTokens = 500

const reviewSystemMessage = `You are a friendly and experienced language teacher who specializes in teaching beginners. Your goal is to provide clear, simple, and encouraging feedback to help students improve their language skills. Analyze the text and provide detailed feedback in this EXACT JSON format:
{
  "status": "PERFECT" | "ALMOST_THERE",
  "feedback": "Your detailed feedback here."
}

Rules:
1. Always use double quotes
2. Never include markdown
3. Escape special characters
4. Use simple and natural language, suitable for a beginner level.
5. Be friendly, encouraging, and supportive in your tone.
6. Provide detailed feedback with at least 2-3 sentences, explaining the strengths and areas for improvement.
7. If the text is perfect, explain why it is excellent in a positive and encouraging way.
8. If there are errors, use the status "ALMOST_THERE" and provide specific examples and suggestions for correction.
9. Highlight the most important parts of the feedback by wrapping them in <span class="highlight"> tags.`

// A Review is the reviewer's verdict on a piece of writing. Perfect
// reports whether the text passed without corrections.
type Review struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// Perfect reports whether the review passed the text as-is.
func (r Review) Perfect() bool { return r.Status == ReviewPerfect }

// Reviewer grades free-form writing submissions.
type Reviewer struct {
	client *Client
}

// NewReviewer creates a Reviewer over the given client.
func NewReviewer(client *Client) *Reviewer {
	return &Reviewer{client: client}
}

// Review grades the text. A malformed backend verdict degrades to
// ALMOST_THERE with generic feedback rather than failing the request.
func (r *Reviewer) Review(ctx context.Context, text string) (Review, error) {
	if strings.TrimSpace(text) == "" {
		return Review{}, fmt.Errorf("no text provided")
	}

	start := time.Now()
	content, err := r.client.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reviewSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: reviewMaxTokens,
	})
	metrics.RemoteCallDuration.WithLabelValues("review").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteCalls.WithLabelValues("review", "error").Inc()
		return Review{}, err
	}
	metrics.RemoteCalls.WithLabelValues("review", "ok").Inc()

	return parseReview(content, r.client.logger), nil
}

// parseReview decodes the verdict, tolerating the malformed output the
// backend occasionally produces.
func parseReview(content string, logger zerolog.Logger) Review {
	var review Review
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &review); err != nil {
		logger.Warn().Err(err).Str("content", trimmed).Msg("Malformed review verdict")
		return Review{
			Status:   ReviewAlmostThere,
			Feedback: "No detailed feedback available. Please check the input text or try again.",
		}
	}
	if review.Status != ReviewPerfect && review.Status != ReviewAlmostThere {
		review.Status = ReviewAlmostThere
	}
	if strings.TrimSpace(review.Feedback) == "" {
		review.Feedback = "No detailed feedback available. Please check the input text or try again."
	}
	return review
}
