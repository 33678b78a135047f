package engine

import (
	"strings"
	"unicode"
)

// maxExcerptChars bounds the citation excerpt shown in the UI.
const maxExcerptChars = 150

// Citation is the user-facing attribution of a response snippet to a source
// fragment, consumed by the UI layer.
type Citation struct {
	Index      int     `json:"index"` // 1-based
	MemoryID   string  `json:"memory_id"`
	Tier       Tier    `json:"tier"`
	Confidence float64 `json:"confidence"`
	Excerpt    string  `json:"excerpt"`
	DocID      string  `json:"doc_id,omitempty"`
}

// BuildCitations converts ranked search results into citation export rows,
// preserving result order.
func BuildCitations(results []SearchResult) []Citation {
	citations := make([]Citation, 0, len(results))
	for i, r := range results {
		citations = append(citations, Citation{
			Index:      i + 1,
			MemoryID:   r.Fragment.ID,
			Tier:       r.Fragment.Meta.Tier,
			Confidence: r.Confidence,
			Excerpt:    excerpt(r.Fragment.Content, maxExcerptChars),
			DocID:      r.Fragment.Meta.DocID,
		})
	}
	return citations
}

// excerpt truncates content to maxLen runes, cutting at the last word
// boundary to avoid mid-word breaks. Rune-based so multi-byte scripts never
// split inside a character.
func excerpt(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	truncated := string(runes[:maxLen])
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > 0 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
