package vectorstore

import (
	"context"
	"fmt"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// MockStore serves synthetic documents when no real Weaviate deployment
// is configured. It is selected explicitly by configuration, never
// detected at runtime, and every document it returns carries the mock
// source tag so callers can surface a degraded-mode banner.
type MockStore struct {
	documents func(query string, limit int) []types.Document
}

// NewMockLegalStore creates a mock store serving legal guidance samples.
func NewMockLegalStore() *MockStore {
	return &MockStore{documents: MockLegalDocuments}
}

// NewMockMarketStore creates a mock store serving market report samples.
func NewMockMarketStore() *MockStore {
	return &MockStore{documents: MockMarketDocuments}
}

func (ms *MockStore) SemanticSearch(_ context.Context, _ []float32, limit int, _ types.SearchFilters) ([]types.Document, error) {
	return ms.documents("", limit), nil
}

func (ms *MockStore) KeywordSearch(_ context.Context, query string, limit int, _ types.SearchFilters) ([]types.Document, error) {
	return ms.documents(query, limit), nil
}

func (ms *MockStore) Ready(context.Context) error { return nil }
func (ms *MockStore) Close() error                { return nil }

// MockLegalDocuments returns the synthetic legal fallback set, truncated
// to limit.
func MockLegalDocuments(query string, limit int) []types.Document {
	docs := []types.Document{
		{
			Content: fmt.Sprintf("Saudi Arabian legal framework regarding %s. This document outlines the key "+
				"legal requirements and compliance procedures that must be followed according to Saudi law. "+
				"Employment regulations in Saudi Arabia are governed by the Labor Law and related ministerial decisions.", query),
			Title:        "Legal Guide: Employment Law in Saudi Arabia",
			DocumentType: "Legal Guidance",
			Jurisdiction: "Saudi Arabia",
			PracticeArea: "Employment Law",
			SourceFile:   "employment_law_guide.pdf",
			PageNumber:   1,
			TotalPages:   10,
			Source:       types.SourceMockDatabase,
		},
		{
			Content: fmt.Sprintf("Commercial regulations in Saudi Arabia require compliance with various "+
				"ministerial decisions and royal decrees. Companies must register with the Ministry of Commerce "+
				"and Investment and obtain necessary licenses for commercial activities related to %s.", query),
			Title:        "Commercial Regulations Guide",
			DocumentType: "Regulatory Guide",
			Jurisdiction: "Saudi Arabia",
			PracticeArea: "Commercial Law",
			SourceFile:   "commercial_regulations.pdf",
			PageNumber:   1,
			TotalPages:   15,
			Source:       types.SourceMockDatabase,
		},
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// MockMarketDocuments returns the synthetic market research fallback set.
func MockMarketDocuments(query string, limit int) []types.Document {
	docs := []types.Document{
		{
			Content: fmt.Sprintf("Overview of the Saudi Arabian market relevant to %s. The Kingdom's Vision 2030 "+
				"program continues to drive diversification away from oil, with significant growth in technology, "+
				"tourism, and financial services sectors.", query),
			Title:        "Saudi Market Overview",
			DocumentType: "Market Summary",
			Jurisdiction: "Saudi Arabia",
			SourceFile:   "saudi_market_overview.pdf",
			PageNumber:   1,
			TotalPages:   12,
			Source:       types.SourceMockDatabase,
		},
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
