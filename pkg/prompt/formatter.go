// Package prompt renders retrieved documents and the user query into the
// structured prompts sent to the chat model. Formatting is pure and
// deterministic: the same query and document list always produce
// byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// DefaultTruncateChars bounds per-document content in the prompt so the
// total prompt size stays within the chat model's token ceiling.
const DefaultTruncateChars = 2000

// Formatter renders prompts for one domain profile.
type Formatter struct {
	truncateChars int
	legal         bool
}

// NewMarketFormatter creates the market research prompt formatter.
func NewMarketFormatter(truncateChars int) *Formatter {
	return newFormatter(truncateChars, false)
}

// NewLegalFormatter creates the legal compliance prompt formatter.
func NewLegalFormatter(truncateChars int) *Formatter {
	return newFormatter(truncateChars, true)
}

func newFormatter(truncateChars int, legal bool) *Formatter {
	if truncateChars <= 0 {
		truncateChars = DefaultTruncateChars
	}
	return &Formatter{truncateChars: truncateChars, legal: legal}
}

// SystemRole is the fixed system message for this profile.
func (f *Formatter) SystemRole() string {
	if f.legal {
		return legalSystemRole
	}
	return marketSystemRole
}

// Format renders the full user prompt: the document context block followed
// by the fixed analysis instructions for the profile.
func (f *Formatter) Format(query string, docs []types.Document, includeCitations bool) string {
	if f.legal {
		return f.formatLegal(query, docs, includeCitations)
	}
	return f.formatMarket(query, docs)
}

func (f *Formatter) formatMarket(query string, docs []types.Document) string {
	var b strings.Builder

	b.WriteString("You are an expert market analyst specializing in Saudi Arabian markets. ")
	b.WriteString("Answer the following question based on the provided context.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	b.WriteString("Context:\n")

	for i, doc := range docs {
		fmt.Fprintf(&b, "Document %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", doc.Title)
		fmt.Fprintf(&b, "Section: %s\n", doc.DocumentType)
		fmt.Fprintf(&b, "Content: %s\n\n", f.truncate(doc.Content))
	}

	b.WriteString("Provide a detailed, informative response based solely on the information in the context. ")
	b.WriteString("If the context doesn't contain enough information to answer the question fully, ")
	b.WriteString("acknowledge the limitations of the available information. ")
	b.WriteString("Use a professional, analytical tone suitable for investment reports.")

	return b.String()
}

func (f *Formatter) formatLegal(query string, docs []types.Document, includeCitations bool) string {
	var b strings.Builder

	b.WriteString("Based on the legal documents from our legal database, please provide a comprehensive ")
	b.WriteString("legal analysis for the following question:\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n\n", query)

	b.WriteString(f.legalContext(docs))
	b.WriteString("\n")
	b.WriteString(legalAnalysisRequirements)
	if includeCitations {
		b.WriteString("9. Include proper citations to the specific legal documents referenced\n")
	}
	b.WriteString("\n")
	b.WriteString(legalAnalysisStructure)

	return b.String()
}

// legalContext renders the fixed-structure block per document.
func (f *Formatter) legalContext(docs []types.Document) string {
	if len(docs) == 0 {
		return "=== NO LEGAL DOCUMENTS AVAILABLE ===\n"
	}

	var b strings.Builder
	b.WriteString("=== LEGAL DOCUMENTS ===\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "--- Legal Document %d ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", doc.Title)
		fmt.Fprintf(&b, "Document Type: %s\n", doc.DocumentType)
		fmt.Fprintf(&b, "Jurisdiction: %s\n", doc.Jurisdiction)
		fmt.Fprintf(&b, "Practice Area: %s\n", doc.PracticeArea)
		fmt.Fprintf(&b, "File: %s\n", doc.SourceFile)
		if doc.PageNumber > 0 {
			fmt.Fprintf(&b, "Page: %d/%d\n", doc.PageNumber, doc.TotalPages)
		}
		fmt.Fprintf(&b, "Content: %s\n\n", f.truncate(doc.Content))
	}
	return b.String()
}

// truncate cuts content to the character limit. Counting runes rather
// than bytes keeps Arabic and other multi-byte text intact.
func (f *Formatter) truncate(content string) string {
	runes := []rune(content)
	if len(runes) > f.truncateChars {
		return string(runes[:f.truncateChars]) + "..."
	}
	return content
}

const marketSystemRole = "You are an expert market analyst specializing in Saudi Arabian markets."

const legalSystemRole = "You are an expert legal analyst specializing in Saudi Arabian law and regulations. " +
	"You provide accurate, well-researched legal analysis based on the provided legal documents from our database. " +
	"Always include appropriate disclaimers about seeking professional legal advice for specific situations. " +
	"Be precise with citations and clearly distinguish between mandatory requirements and recommendations."

const legalAnalysisRequirements = `ANALYSIS REQUIREMENTS:
1. Provide a direct, precise answer to the legal question
2. Reference specific legal provisions, articles, or sections when available
3. Explain the relevant legal principles and their practical implications
4. Distinguish between mandatory requirements and recommendations
5. Include relevant procedural requirements or compliance steps
6. Address any potential penalties or consequences if applicable
7. Highlight any recent changes or updates in the law
8. Provide practical guidance for implementation or compliance
`

const legalAnalysisStructure = `LEGAL ANALYSIS STRUCTURE:
**Legal Framework:**
[Identify the relevant laws, regulations, or legal framework]

**Key Requirements:**
[List the main legal requirements or obligations]

**Compliance Procedures:**
[Outline the steps needed for compliance]

**Penalties/Consequences:**
[Describe any penalties for non-compliance]

**Practical Recommendations:**
[Provide actionable recommendations]

**Legal Disclaimer:**
This analysis is based on legal documents in our database and is for informational purposes only. For specific legal advice applicable to your situation, please consult with a qualified attorney licensed to practice in Saudi Arabia.

LEGAL ANALYSIS:
`
