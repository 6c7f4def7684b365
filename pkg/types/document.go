package types

import (
	"time"
)

// SourceTag marks the provenance of a retrieved document so callers can
// distinguish genuine database results from synthetic fallback content.
type SourceTag string

const (
	SourceRealDatabase SourceTag = "real_database"
	SourceMockDatabase SourceTag = "mock_database"
)

// Document represents a retrieved content chunk from the knowledge base.
// Documents are constructed fresh on every retrieval and are read-only
// through the rest of the pipeline.
type Document struct {
	Content      string    `json:"content"`
	Title        string    `json:"title"`
	DocumentType string    `json:"document_type"`
	Jurisdiction string    `json:"jurisdiction"`
	PracticeArea string    `json:"practice_area,omitempty"`
	SourceFile   string    `json:"source_file"`
	PageNumber   int       `json:"page_number"`
	TotalPages   int       `json:"total_pages"`
	Source       SourceTag `json:"source"`
}

// IsMock reports whether this document is synthetic fallback content.
func (d *Document) IsMock() bool {
	return d.Source == SourceMockDatabase
}

// Citation is a display-oriented reduction of a Document.
type Citation struct {
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
	Jurisdiction string `json:"jurisdiction"`
	PracticeArea string `json:"practice_area,omitempty"`
	SourceFile   string `json:"source_file"`
	PageNumber   int    `json:"page_number"`
}

// CitationsFor derives one citation per document, preserving order.
func CitationsFor(docs []Document) []Citation {
	citations := make([]Citation, 0, len(docs))
	for _, doc := range docs {
		citations = append(citations, Citation{
			Title:        doc.Title,
			DocumentType: doc.DocumentType,
			Jurisdiction: doc.Jurisdiction,
			PracticeArea: doc.PracticeArea,
			SourceFile:   doc.SourceFile,
			PageNumber:   doc.PageNumber,
		})
	}
	return citations
}

// SearchFilters holds the optional equality filters supported by the
// document store. Filters combine with logical AND.
type SearchFilters struct {
	DocumentType string `json:"document_type,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	PracticeArea string `json:"practice_area,omitempty"`
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.DocumentType == "" && f.Jurisdiction == "" && f.PracticeArea == ""
}

// RAGResponse is the result of one pipeline invocation.
type RAGResponse struct {
	ResponseText   string        `json:"response"`
	Documents      []Document    `json:"documents"`
	Citations      []Citation    `json:"citations"`
	Query          string        `json:"query"`
	Timestamp      time.Time     `json:"timestamp"`
	FiltersApplied SearchFilters `json:"filters_applied"`
	ModelUsed      string        `json:"model_used"`
	SearchMethod   string        `json:"search_method,omitempty"`
	Warning        string        `json:"warning,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Degraded reports whether any document in the response came from the
// mock fallback, or generation fell back to the local template.
func (r *RAGResponse) Degraded() bool {
	if r.ModelUsed == "fallback" {
		return true
	}
	for i := range r.Documents {
		if r.Documents[i].IsMock() {
			return true
		}
	}
	return false
}

// QueryHistoryEntry is an append-only audit record of one pipeline
// invocation attempt. Recorded before retrieval begins.
type QueryHistoryEntry struct {
	Query     string        `json:"query"`
	Timestamp time.Time     `json:"timestamp"`
	Filters   SearchFilters `json:"filters"`
}
