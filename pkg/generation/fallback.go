package generation

import (
	"fmt"
	"strings"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// fallbackTopDocs bounds how many documents feed the template summary.
const fallbackTopDocs = 3

// fallbackExcerptChars bounds each document excerpt in the template.
const fallbackExcerptChars = 300

// FallbackTemplate builds a deterministic response directly from the
// retrieved documents, with no network call. It always succeeds for a
// non-empty document list.
type FallbackTemplate struct {
	intro  string
	notice string
}

// NewLegalFallbackTemplate creates the legal profile's offline template.
func NewLegalFallbackTemplate() *FallbackTemplate {
	return &FallbackTemplate{
		intro: "Based on the legal documents in our database regarding %q, here are the key findings:",
		notice: "**Legal Disclaimer:** This analysis is based on legal documents in our database and is for " +
			"informational purposes only. For specific legal advice applicable to your situation, please consult " +
			"with a qualified attorney licensed to practice in Saudi Arabia.",
	}
}

// NewMarketFallbackTemplate creates the market profile's offline template.
func NewMarketFallbackTemplate() *FallbackTemplate {
	return &FallbackTemplate{
		intro: "Based on the market reports in our database regarding %q, here are the key findings:",
		notice: "**Notice:** This summary was assembled directly from stored market reports without AI analysis. " +
			"For investment decisions, please consult a qualified financial professional.",
	}
}

// Render produces the templated response: the document types and
// jurisdictions consulted, excerpts from the top documents, and the fixed
// consult-a-professional notice.
func (t *FallbackTemplate) Render(query string, docs []types.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, t.intro+"\n\n", query)

	docTypes := orderedUnique(docs, func(d types.Document) string { return d.DocumentType })
	jurisdictions := orderedUnique(docs, func(d types.Document) string { return d.Jurisdiction })

	fmt.Fprintf(&b, "**Document Types Consulted:** %s\n", strings.Join(docTypes, ", "))
	fmt.Fprintf(&b, "**Jurisdictions:** %s\n\n", strings.Join(jurisdictions, ", "))
	b.WriteString("**Key Information:**\n")

	top := docs
	if len(top) > fallbackTopDocs {
		top = top[:fallbackTopDocs]
	}
	for _, doc := range top {
		excerpt := doc.Content
		// Rune-based cut so Arabic content survives the excerpt.
		if runes := []rune(excerpt); len(runes) > fallbackExcerptChars {
			excerpt = string(runes[:fallbackExcerptChars])
		}
		fmt.Fprintf(&b, "• From %s: %s...\n", doc.Title, excerpt)
	}

	b.WriteString("\n")
	b.WriteString(t.notice)
	return b.String()
}

func orderedUnique(docs []types.Document, field func(types.Document) string) []string {
	seen := make(map[string]struct{}, len(docs))
	var values []string
	for _, doc := range docs {
		v := field(doc)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
