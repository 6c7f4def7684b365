package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linksaudi/market-intelligence/pkg/types"
	"github.com/linksaudi/market-intelligence/pkg/vectorstore"
)

// Embedder is the slice of the embedding engine the retriever needs.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Retriever orchestrates embedding generation and document search with a
// strict three-tier fallback: vector search, then keyword search, then a
// genuinely empty result. A store that cannot be reached at all yields a
// single synthetic document tagged as mock data, so downstream stages
// always have something to reason about.
type Retriever struct {
	store    vectorstore.Store
	embedder Embedder
	mockDoc  func(query string) types.Document
	logger   *slog.Logger
}

// NewRetriever creates a retriever. store may be nil when no vector
// database is configured; every call then returns the mock tier.
func NewRetriever(store vectorstore.Store, embedder Embedder, mockDoc func(query string) types.Document) *Retriever {
	if mockDoc == nil {
		mockDoc = DefaultMockDocument
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		mockDoc:  mockDoc,
		logger:   slog.Default().With("component", "retriever"),
	}
}

// Retrieve returns up to limit documents relevant to query, in relevance
// order. The returned slice is empty only when the store is healthy and
// nothing matched; total store failure produces one mock-tagged document
// instead.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int, filters types.SearchFilters) ([]types.Document, error) {
	if r.store == nil {
		r.logger.Warn("no document store configured, serving mock document", "query", query)
		return []types.Document{r.mockDoc(query)}, nil
	}

	vector := r.encodeQuery(ctx, query)

	if vector != nil {
		docs, err := r.store.SemanticSearch(ctx, vector, limit, filters)
		if err != nil {
			r.logger.Warn("semantic search failed, store unreachable", "query", query, "error", err)
			return []types.Document{r.mockDoc(query)}, nil
		}
		if len(docs) > 0 {
			return docs, nil
		}
		r.logger.Debug("semantic search matched nothing, trying keyword search", "query", query)
	}

	docs, err := r.store.KeywordSearch(ctx, query, limit, filters)
	if err != nil {
		r.logger.Warn("keyword search failed, store unreachable", "query", query, "error", err)
		return []types.Document{r.mockDoc(query)}, nil
	}

	// Zero keyword matches on a healthy store is the only path allowed to
	// produce an empty result: it means "no matching content", not
	// "system unavailable".
	return docs, nil
}

// encodeQuery returns nil when no embedding is available, routing the
// caller to keyword-only search.
func (r *Retriever) encodeQuery(ctx context.Context, query string) []float32 {
	if r.embedder == nil {
		return nil
	}
	vector, err := r.embedder.Encode(ctx, query)
	if err != nil {
		r.logger.Warn("embedding generation failed, falling back to keyword search",
			"kind", types.KindOf(err),
			"error", err,
		)
		return nil
	}
	return vector
}

// DefaultMockDocument is the synthetic document served when the store is
// unreachable and no domain-specific mock is configured.
func DefaultMockDocument(query string) types.Document {
	return types.Document{
		Content: fmt.Sprintf("The document database is currently unavailable. This placeholder summarizes "+
			"general guidance related to %q; results will improve once the database connection is restored.", query),
		Title:        "Database Unavailable",
		DocumentType: "Placeholder",
		Jurisdiction: "Unknown",
		SourceFile:   "",
		Source:       types.SourceMockDatabase,
	}
}

// LegalMockDocument serves a legal-profile mock when the store is down.
func LegalMockDocument(query string) types.Document {
	docs := vectorstore.MockLegalDocuments(query, 1)
	return docs[0]
}

// MarketMockDocument serves a market-profile mock when the store is down.
func MarketMockDocument(query string) types.Document {
	docs := vectorstore.MockMarketDocuments(query, 1)
	return docs[0]
}
