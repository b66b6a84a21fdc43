package lesson

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lingora/lingora/internal/metrics"
)

const defaultDefinitionCacheSize = 1024

// Definer produces short dictionary definitions. Responses are cached
// per word so repeated lookups do not hit the backend, and only cache
// misses should be charged against the daily quota.
type Definer struct {
	client *Client
	cache  *lru.Cache[string, string]
}

// NewDefiner creates a Definer with a cache of the given size. A size
// of zero or less uses the default.
func NewDefiner(client *Client, cacheSize int) (*Definer, error) {
	if cacheSize <= 0 {
		cacheSize = defaultDefinitionCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create definition cache: %w", err)
	}
	return &Definer{client: client, cache: cache}, nil
}

// Define returns a short definition of the word. The second return
// value reports whether it was served from cache.
func (d *Definer) Define(ctx context.Context, word string) (string, bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", false, fmt.Errorf("no word provided")
	}

	cacheKey := strings.ToLower(word)
	if cached, ok := d.cache.Get(cacheKey); ok {
		metrics.DefinitionCacheHits.Inc()
		return cached, true, nil
	}
	metrics.DefinitionCacheMisses.Inc()

	start := time.Now()
	definition, err := d.client.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Give a short, 5-word definition of %q.", word),
			},
		},
	})
	metrics.RemoteCallDuration.WithLabelValues("define").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteCalls.WithLabelValues("define", "error").Inc()
		return "", false, err
	}
	metrics.RemoteCalls.WithLabelValues("define", "ok").Inc()

	definition = strings.TrimSpace(definition)
	if definition == "" {
		definition = "Definition not found."
	}
	d.cache.Add(cacheKey, definition)
	return definition, false, nil
}
