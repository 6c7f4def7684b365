package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// fakeStore scripts each search tier independently.
type fakeStore struct {
	semanticDocs []types.Document
	semanticErr  error
	keywordDocs  []types.Document
	keywordErr   error

	semanticCalls int
	keywordCalls  int
}

func (s *fakeStore) SemanticSearch(_ context.Context, _ []float32, _ int, _ types.SearchFilters) ([]types.Document, error) {
	s.semanticCalls++
	return s.semanticDocs, s.semanticErr
}

func (s *fakeStore) KeywordSearch(_ context.Context, _ string, _ int, _ types.SearchFilters) ([]types.Document, error) {
	s.keywordCalls++
	return s.keywordDocs, s.keywordErr
}

func (s *fakeStore) Ready(context.Context) error { return nil }
func (s *fakeStore) Close() error                { return nil }

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) Encode(context.Context, string) ([]float32, error) {
	return e.vector, e.err
}

func realDoc(title string) types.Document {
	return types.Document{Title: title, Source: types.SourceRealDatabase}
}

func TestRetrieveVectorTier(t *testing.T) {
	store := &fakeStore{semanticDocs: []types.Document{realDoc("vector hit")}}
	r := NewRetriever(store, &fakeEmbedder{vector: []float32{0.1}}, nil)

	docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "vector hit", docs[0].Title)
	assert.Equal(t, 1, store.semanticCalls)
	assert.Zero(t, store.keywordCalls, "keyword tier must not run when vectors matched")
}

func TestRetrieveKeywordFallback(t *testing.T) {
	t.Run("after empty vector results", func(t *testing.T) {
		store := &fakeStore{keywordDocs: []types.Document{realDoc("keyword hit")}}
		r := NewRetriever(store, &fakeEmbedder{vector: []float32{0.1}}, nil)

		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "keyword hit", docs[0].Title)
		assert.Equal(t, 1, store.semanticCalls)
		assert.Equal(t, 1, store.keywordCalls)
	})

	t.Run("after embedding failure", func(t *testing.T) {
		store := &fakeStore{keywordDocs: []types.Document{realDoc("keyword hit")}}
		r := NewRetriever(store, &fakeEmbedder{err: errors.New("no provider")}, nil)

		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Zero(t, store.semanticCalls, "no vector means no semantic search")
	})
}

func TestRetrieveMockTier(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		r := NewRetriever(nil, nil, nil)
		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.True(t, docs[0].IsMock())
	})

	t.Run("semantic search error", func(t *testing.T) {
		store := &fakeStore{semanticErr: errors.New("connection refused")}
		r := NewRetriever(store, &fakeEmbedder{vector: []float32{0.1}}, nil)

		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.True(t, docs[0].IsMock())
		assert.Zero(t, store.keywordCalls, "store is treated as unreachable")
	})

	t.Run("keyword search error", func(t *testing.T) {
		store := &fakeStore{keywordErr: errors.New("connection refused")}
		r := NewRetriever(store, &fakeEmbedder{vector: []float32{0.1}}, nil)

		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.True(t, docs[0].IsMock())
	})

	t.Run("domain mock document is used", func(t *testing.T) {
		r := NewRetriever(nil, nil, LegalMockDocument)
		docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Legal Guide: Employment Law in Saudi Arabia", docs[0].Title)
	})
}

func TestRetrieveHealthyEmpty(t *testing.T) {
	// Both tiers answer with zero matches on a reachable store. This is
	// the only path allowed to return an empty result.
	store := &fakeStore{}
	r := NewRetriever(store, &fakeEmbedder{vector: []float32{0.1}}, nil)

	docs, err := r.Retrieve(context.Background(), "query", 5, types.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, store.semanticCalls)
	assert.Equal(t, 1, store.keywordCalls)
}
