package vectorstore

import (
	"context"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Store is the vector database contract consumed by the retriever.
// SemanticSearch ranks by vector distance, KeywordSearch by the store's
// BM25 relevance. Both return documents in relevance order.
type Store interface {
	SemanticSearch(ctx context.Context, vector []float32, limit int, filters types.SearchFilters) ([]types.Document, error)
	KeywordSearch(ctx context.Context, query string, limit int, filters types.SearchFilters) ([]types.Document, error)
	Ready(ctx context.Context) error
	Close() error
}

// Collection describes one Weaviate class and how its native properties
// map onto the canonical Document shape.
type Collection struct {
	ClassName  string
	Properties []string
	Parse      func(item map[string]interface{}) types.Document
}

// MarketCollection is the MarketReportText class used by the market
// research profile.
func MarketCollection() Collection {
	return Collection{
		ClassName: "MarketReportText",
		Properties: []string{
			"content", "filename", "reportTitle", "reportDate", "section", "page",
		},
		Parse: func(item map[string]interface{}) types.Document {
			return types.Document{
				Content:      stringProp(item, "content", ""),
				Title:        stringProp(item, "reportTitle", "Untitled"),
				DocumentType: stringProp(item, "section", "Market Report"),
				Jurisdiction: "Saudi Arabia",
				SourceFile:   stringProp(item, "filename", ""),
				PageNumber:   intProp(item, "page"),
				Source:       types.SourceRealDatabase,
			}
		},
	}
}

// LegalCollection is the LegalDocument class used by the legal compliance
// profile.
func LegalCollection() Collection {
	return Collection{
		ClassName: "LegalDocument",
		Properties: []string{
			"content", "documentTitle", "documentType", "jurisdiction",
			"practiceArea", "filename", "pageNumber", "totalPages",
		},
		Parse: func(item map[string]interface{}) types.Document {
			return types.Document{
				Content:      stringProp(item, "content", ""),
				Title:        stringProp(item, "documentTitle", "Untitled Legal Document"),
				DocumentType: stringProp(item, "documentType", "Unknown"),
				Jurisdiction: stringProp(item, "jurisdiction", "Unknown"),
				PracticeArea: stringProp(item, "practiceArea", "General Practice"),
				SourceFile:   stringProp(item, "filename", ""),
				PageNumber:   intProp(item, "pageNumber"),
				TotalPages:   intProp(item, "totalPages"),
				Source:       types.SourceRealDatabase,
			}
		},
	}
}

// stringProp reads a string property, substituting the documented
// placeholder so downstream formatting never needs per-field nil guards.
func stringProp(item map[string]interface{}, key, placeholder string) string {
	if val, ok := item[key].(string); ok && val != "" {
		return val
	}
	return placeholder
}

func intProp(item map[string]interface{}, key string) int {
	switch val := item[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	}
	return 0
}
