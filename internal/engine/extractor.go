package engine

import "unicode"

// EntityExtractor pulls candidate entity names out of fragment content. The
// default is a cheap heuristic; swap in a real NLP component here without
// touching the ranker or the graph.
type EntityExtractor interface {
	Entities(text string) []string
}

// HeuristicExtractor is the default extractor. A token is an entity candidate
// if it starts with an uppercase letter, or if it contains letters from a
// non-Latin script block (Hebrew, Arabic, CJK, ...). This is intentionally
// approximate: no NER, no disambiguation.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates the default entity extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Entities returns the deduplicated entity candidates found in text, in first
// occurrence order.
func (HeuristicExtractor) Entities(text string) []string {
	var entities []string
	seen := make(map[string]bool)

	for _, tok := range splitWords(text) {
		if !isEntityCandidate(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		entities = append(entities, tok)
	}
	return entities
}

// isEntityCandidate applies the capitalization / script-range heuristic.
func isEntityCandidate(tok string) bool {
	runes := []rune(tok)
	if len(runes) < 2 {
		return false
	}
	if unicode.IsUpper(runes[0]) {
		return true
	}
	for _, r := range runes {
		if isLetterRune(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// isLetterRune reports whether r is a letter in any script.
func isLetterRune(r rune) bool {
	return unicode.IsLetter(r)
}

// splitWords breaks text into word tokens on anything that is not a letter,
// digit, hyphen, or underscore. Surrounding punctuation is stripped so
// "Python," and "Python" extract identically.
func splitWords(text string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
		}
		current = current[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()
	return words
}
