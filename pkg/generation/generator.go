package generation

import (
	"context"
	"log/slog"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Result is the outcome of one generation attempt.
type Result struct {
	Text string
	// ModelUsed is the chat model name, or "fallback" when the local
	// template produced the text.
	ModelUsed string
}

// Generator produces the response text for a formatted prompt. Any chat
// call failure degrades to a deterministic local template built from the
// retrieved documents; errors never propagate past this boundary when
// documents are available.
type Generator struct {
	client      ChatClient
	temperature float64
	maxTokens   int
	fallback    *FallbackTemplate
	logger      *slog.Logger
}

// NewGenerator creates a generator. client may be nil when no chat
// endpoint is configured; every call then uses the template fallback.
func NewGenerator(client ChatClient, temperature float64, maxTokens int, fallback *FallbackTemplate) *Generator {
	if fallback == nil {
		fallback = NewLegalFallbackTemplate()
	}
	return &Generator{
		client:      client,
		temperature: temperature,
		maxTokens:   maxTokens,
		fallback:    fallback,
		logger:      slog.Default().With("component", "response-generator"),
	}
}

// Generate sends the prompt to the chat model and returns the response
// text. docs back the fallback template; the pipeline guarantees docs is
// non-empty here (the no-match case short-circuits upstream).
func (g *Generator) Generate(ctx context.Context, systemRole, userPrompt, query string, docs []types.Document) Result {
	if g.client == nil {
		g.logger.Warn("no chat client configured, using template fallback", "query", query)
		return Result{Text: g.fallback.Render(query, docs), ModelUsed: "fallback"}
	}

	text, err := g.client.Complete(ctx, ChatRequest{
		SystemMessage: systemRole,
		UserMessage:   userPrompt,
		Temperature:   g.temperature,
		MaxTokens:     g.maxTokens,
	})
	if err != nil {
		g.logger.Warn("chat completion failed, using template fallback",
			"query", query,
			"kind", types.KindOf(err),
			"error", err,
		)
		return Result{Text: g.fallback.Render(query, docs), ModelUsed: "fallback"}
	}

	return Result{Text: text, ModelUsed: g.client.Model()}
}
