// Package pipeline contains the RAG response orchestrator: the single
// public entry point gluing retrieval, prompt formatting, and response
// generation together, and the single error boundary for the subsystem.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linksaudi/market-intelligence/pkg/generation"
	"github.com/linksaudi/market-intelligence/pkg/monitoring"
	"github.com/linksaudi/market-intelligence/pkg/prompt"
	"github.com/linksaudi/market-intelligence/pkg/retrieval"
	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Profile fixes the domain-specific pipeline texts and limits.
type Profile struct {
	// Name labels metrics and logs: "market" or "legal".
	Name string
	// NoMatchMessage is the canonical response when nothing matched.
	NoMatchMessage string
	// ErrorMessage is the sanitized user-safe text for internal failures.
	ErrorMessage string
	// ContextLimit is the default retrieval size.
	ContextLimit int
}

// MarketProfile is the market research pipeline profile.
func MarketProfile() Profile {
	return Profile{
		Name: "market",
		NoMatchMessage: "I couldn't find relevant information to answer your question. " +
			"Please try a different query or provide more context.",
		ErrorMessage: "I encountered an error while generating a response. " +
			"Please try again or contact support.",
		ContextLimit: 5,
	}
}

// LegalProfile is the legal compliance pipeline profile.
func LegalProfile() Profile {
	return Profile{
		Name: "legal",
		NoMatchMessage: "I couldn't find specific legal documents to answer your question. " +
			"However, I can provide general guidance that you should consult with a qualified attorney " +
			"licensed in Saudi Arabia for specific legal matters.",
		ErrorMessage: "I encountered an error while analyzing your legal question. " +
			"Please try again or contact support for assistance with legal matters in Saudi Arabia.",
		ContextLimit: 10,
	}
}

// Engine is the pipeline orchestrator for one domain profile. Concurrent
// invocations are independent; the query history is the only shared
// mutable state and is internally synchronized.
type Engine struct {
	profile   Profile
	retriever *retrieval.Retriever
	formatter *prompt.Formatter
	generator *generation.Generator
	history   *QueryHistory
	metrics   *monitoring.Metrics
	logger    *slog.Logger
}

// EngineOption customizes Engine construction.
type EngineOption func(*Engine)

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *monitoring.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithHistorySize bounds the audit log.
func WithHistorySize(n int) EngineOption {
	return func(e *Engine) { e.history = NewQueryHistory(n) }
}

// NewEngine assembles the orchestrator from its stages.
func NewEngine(profile Profile, retriever *retrieval.Retriever, formatter *prompt.Formatter, generator *generation.Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		profile:   profile,
		retriever: retriever,
		formatter: formatter,
		generator: generator,
		history:   NewQueryHistory(0),
		logger:    slog.Default().With("component", "rag-pipeline", "profile", profile.Name),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateResponse runs the full pipeline for one query. It never returns
// a nil response and never lets an error escape: any failure inside the
// pipeline is converted into a response with a sanitized Error field.
func (e *Engine) GenerateResponse(ctx context.Context, query string, filters types.SearchFilters, includeCitations bool) (resp *types.RAGResponse) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.QueriesTotal.WithLabelValues(e.profile.Name).Inc()
	}

	// The audit trail records attempts, not just successes.
	e.history.Append(types.QueryHistoryEntry{
		Query:     query,
		Timestamp: start,
		Filters:   filters,
	})

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pipeline panic recovered", "query", query, "panic", fmt.Sprintf("%v", r))
			resp = e.errorResponse(query, filters)
		}
		if e.metrics != nil {
			e.metrics.QueryLatency.WithLabelValues(e.profile.Name).Observe(time.Since(start).Seconds())
			if resp != nil {
				e.metrics.DocumentsPerQuery.WithLabelValues(e.profile.Name).Observe(float64(len(resp.Documents)))
			}
		}
	}()

	e.logger.Info("generating response", "query", query, "filters", filters)

	docs, err := e.retriever.Retrieve(ctx, query, e.profile.ContextLimit, filters)
	if err != nil {
		e.logger.Error("retrieval failed", "query", query, "error", err)
		return e.errorResponse(query, filters)
	}

	if len(docs) == 0 {
		e.logger.Info("no documents matched", "query", query)
		if e.metrics != nil {
			e.metrics.NoMatchTotal.WithLabelValues(e.profile.Name).Inc()
		}
		return &types.RAGResponse{
			ResponseText:   e.profile.NoMatchMessage,
			Documents:      []types.Document{},
			Citations:      []types.Citation{},
			Query:          query,
			Timestamp:      time.Now(),
			FiltersApplied: filters,
			Warning:        "No documents found",
		}
	}

	userPrompt := e.formatter.Format(query, docs, includeCitations)
	result := e.generator.Generate(ctx, e.formatter.SystemRole(), userPrompt, query, docs)

	response := &types.RAGResponse{
		ResponseText:   result.Text,
		Documents:      docs,
		Citations:      []types.Citation{},
		Query:          query,
		Timestamp:      time.Now(),
		FiltersApplied: filters,
		ModelUsed:      result.ModelUsed,
		SearchMethod:   "weaviate_semantic_search",
	}
	if includeCitations {
		response.Citations = types.CitationsFor(docs)
	}

	e.recordDegradation(response)

	e.logger.Info("response generated",
		"query", query,
		"documents", len(docs),
		"model", result.ModelUsed,
		"took", time.Since(start),
	)
	return response
}

// History returns the recorded invocation attempts for auditing.
func (e *Engine) History() []types.QueryHistoryEntry {
	return e.history.Entries()
}

func (e *Engine) recordDegradation(resp *types.RAGResponse) {
	if e.metrics == nil {
		return
	}
	if resp.ModelUsed == "fallback" {
		e.metrics.DegradedTotal.WithLabelValues(e.profile.Name, "generation").Inc()
	}
	for i := range resp.Documents {
		if resp.Documents[i].IsMock() {
			e.metrics.DegradedTotal.WithLabelValues(e.profile.Name, "retrieval").Inc()
			break
		}
	}
}

// errorResponse builds the sanitized error response. Raw error text is
// logged but never surfaced to end users.
func (e *Engine) errorResponse(query string, filters types.SearchFilters) *types.RAGResponse {
	if e.metrics != nil {
		e.metrics.QueryErrors.WithLabelValues(e.profile.Name).Inc()
	}
	return &types.RAGResponse{
		ResponseText:   e.profile.ErrorMessage,
		Documents:      []types.Document{},
		Citations:      []types.Citation{},
		Query:          query,
		Timestamp:      time.Now(),
		FiltersApplied: filters,
		Error:          "internal pipeline error",
	}
}
