package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

func TestLegalCollectionParse(t *testing.T) {
	collection := LegalCollection()
	assert.Equal(t, "LegalDocument", collection.ClassName)

	t.Run("full item", func(t *testing.T) {
		doc := collection.Parse(map[string]interface{}{
			"content":       "Article 77 of the Labor Law governs termination.",
			"documentTitle": "Labor Law Commentary",
			"documentType":  "Commentary",
			"jurisdiction":  "Saudi Arabia",
			"practiceArea":  "Employment Law",
			"filename":      "labor_law_commentary.pdf",
			"pageNumber":    float64(12),
			"totalPages":    float64(340),
		})

		assert.Equal(t, "Labor Law Commentary", doc.Title)
		assert.Equal(t, "Commentary", doc.DocumentType)
		assert.Equal(t, "Saudi Arabia", doc.Jurisdiction)
		assert.Equal(t, "Employment Law", doc.PracticeArea)
		assert.Equal(t, "labor_law_commentary.pdf", doc.SourceFile)
		assert.Equal(t, 12, doc.PageNumber)
		assert.Equal(t, 340, doc.TotalPages)
		assert.Equal(t, types.SourceRealDatabase, doc.Source)
	})

	t.Run("missing properties fall back to placeholders", func(t *testing.T) {
		doc := collection.Parse(map[string]interface{}{
			"content": "Bare content only.",
		})

		assert.Equal(t, "Untitled Legal Document", doc.Title)
		assert.Equal(t, "Unknown", doc.DocumentType)
		assert.Equal(t, "Unknown", doc.Jurisdiction)
		assert.Equal(t, "General Practice", doc.PracticeArea)
		assert.Empty(t, doc.SourceFile)
		assert.Zero(t, doc.PageNumber)
	})
}

func TestMarketCollectionParse(t *testing.T) {
	collection := MarketCollection()
	assert.Equal(t, "MarketReportText", collection.ClassName)

	doc := collection.Parse(map[string]interface{}{
		"content":     "Tourism revenue grew 14% year over year.",
		"reportTitle": "Hospitality Sector Report",
		"section":     "Executive Summary",
		"filename":    "hospitality_q2.pdf",
		"page":        float64(3),
	})

	assert.Equal(t, "Hospitality Sector Report", doc.Title)
	assert.Equal(t, "Executive Summary", doc.DocumentType)
	assert.Equal(t, "Saudi Arabia", doc.Jurisdiction)
	assert.Equal(t, 3, doc.PageNumber)
	assert.Equal(t, types.SourceRealDatabase, doc.Source)

	t.Run("empty item", func(t *testing.T) {
		doc := collection.Parse(map[string]interface{}{})
		assert.Equal(t, "Untitled", doc.Title)
		assert.Equal(t, "Market Report", doc.DocumentType)
	})
}

func TestMockStore(t *testing.T) {
	ctx := context.Background()

	t.Run("legal documents carry the mock tag", func(t *testing.T) {
		store := NewMockLegalStore()
		docs, err := store.KeywordSearch(ctx, "employment contracts", 10, types.SearchFilters{})
		require.NoError(t, err)
		require.NotEmpty(t, docs)
		for _, doc := range docs {
			assert.True(t, doc.IsMock())
			assert.Equal(t, "Saudi Arabia", doc.Jurisdiction)
		}
		assert.Contains(t, docs[0].Content, "employment contracts")
	})

	t.Run("limit is honored", func(t *testing.T) {
		store := NewMockLegalStore()
		docs, err := store.SemanticSearch(ctx, []float32{0.1}, 1, types.SearchFilters{})
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("market variant", func(t *testing.T) {
		store := NewMockMarketStore()
		docs, err := store.KeywordSearch(ctx, "tourism", 5, types.SearchFilters{})
		require.NoError(t, err)
		require.NotEmpty(t, docs)
		assert.True(t, docs[0].IsMock())
		assert.Contains(t, docs[0].Content, "Vision 2030")
	})

	t.Run("always ready", func(t *testing.T) {
		store := NewMockMarketStore()
		assert.NoError(t, store.Ready(ctx))
		assert.NoError(t, store.Close())
	})
}
