package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Boost multipliers applied on top of cosine similarity.
const (
	graphBoost   = 1.2 // per matched entity, compounds
	contextBoost = 1.1 // query context appears in fragment content
)

// SearchResult is a single ranked retrieval row. BaseScore is raw cosine
// similarity; AdjustedScore folds in the knowledge-graph boost, the learning
// weight, and the context boost. Confidence is the Wilson confidence from the
// outcome tracker — an independent signal, reported alongside rather than
// merged into the score.
type SearchResult struct {
	Fragment      Fragment `json:"fragment"`
	BaseScore     float64  `json:"base_score"`
	AdjustedScore float64  `json:"adjusted_score"`
	Confidence    float64  `json:"confidence"`
	Boosted       bool     `json:"boosted"`
}

// SearchOpts controls search behavior.
type SearchOpts struct {
	// Context is an optional relevance hint: fragments containing it as a
	// case-insensitive substring score ×1.1.
	Context string
}

// Search embeds the query, scores every stored fragment by cosine similarity
// (linear scan — fine at the corpus sizes this engine targets), applies the
// multiplicative boosts inside a 2×limit candidate window, and returns the
// top results sorted by adjusted score descending with insertion-order ties.
//
// An empty store returns an empty slice. limit <= 0 returns an empty slice.
// A limit beyond the corpus size returns everything available.
func (e *Engine) Search(ctx context.Context, query string, limit int, opts SearchOpts) ([]SearchResult, error) {
	if limit <= 0 {
		return []SearchResult{}, nil
	}

	frags := e.store.All()
	if len(frags) == 0 {
		return []SearchResult{}, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type candidate struct {
		frag Fragment
		base float64
	}
	candidates := make([]candidate, 0, len(frags))
	for _, f := range frags {
		candidates = append(candidates, candidate{
			frag: f,
			base: CosineSimilarity(queryVec, f.Embedding),
		})
	}

	// Rank by raw similarity first, then over-fetch 2×limit so boosts can
	// reorder within the window without losing eligible results.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].base != candidates[j].base {
			return candidates[i].base > candidates[j].base
		}
		return candidates[i].frag.seq < candidates[j].frag.seq
	})
	// Guard the doubling against overflow: any limit past half the corpus
	// already covers every candidate.
	window := len(candidates)
	if limit <= len(candidates)/2 {
		window = limit * 2
	}
	candidates = candidates[:window]

	related := e.graph.relatedSet(e.extractor.Entities(query))
	ctxNeedle := strings.ToLower(opts.Context)

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score := c.base
		boosted := false

		// Knowledge-graph boost, compounding per matched entity.
		for _, ent := range e.graph.FragmentEntities(c.frag.ID) {
			if related[ent] {
				score *= graphBoost
				boosted = true
			}
		}

		// Outcome learning weight (default 1.0).
		if w := e.tracker.Weight(c.frag.ID); w != 1.0 {
			score *= w
			boosted = true
		}

		// Context relevance.
		if ctxNeedle != "" && strings.Contains(strings.ToLower(c.frag.Content), ctxNeedle) {
			score *= contextBoost
			boosted = true
		}

		results = append(results, SearchResult{
			Fragment:      c.frag,
			BaseScore:     c.base,
			AdjustedScore: score,
			Confidence:    e.tracker.Confidence(c.frag.ID),
			Boosted:       boosted,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].AdjustedScore != results[j].AdjustedScore {
			return results[i].AdjustedScore > results[j].AdjustedScore
		}
		return results[i].Fragment.seq < results[j].Fragment.seq
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
