package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dictachat/memcore/internal/engine"
)

// Over-fetch factor for context packing: retrieve more than will fit so the
// budget allocator has lower-priority spares to pull forward.
const contextFetchLimit = 30

// handleGetContext assembles a prompt-ready context block: search, pack the
// results into the token budget by tier priority, and attach citations.
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	budget := s.budget
	if b := r.URL.Query().Get("budget"); b != "" {
		if n, err := strconv.Atoi(b); err == nil && n > 0 {
			budget = n
		}
	}

	opts := engine.SearchOpts{Context: r.URL.Query().Get("context")}
	resp := s.res.Search(r.Context(), query, contextFetchLimit, opts)

	byID := make(map[string]engine.SearchResult, len(resp.Results))
	items := make([]engine.BudgetItem, 0, len(resp.Results))
	for _, res := range resp.Results {
		byID[res.Fragment.ID] = res
		items = append(items, engine.BudgetItem{
			ID:       res.Fragment.ID,
			Text:     res.Fragment.Content,
			Priority: tierPriority(res.Fragment.Meta.Tier),
		})
	}

	packed := engine.Allocate(items, budget, engine.DefaultPriorityOrder)

	kept := make([]engine.SearchResult, 0, len(packed))
	used := 0
	for _, item := range packed {
		kept = append(kept, byID[item.ID])
		used += engine.TokenEstimate(item.Text)
	}
	citations := engine.BuildCitations(kept)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":        query,
		"context":      renderContext(kept, citations),
		"citations":    citations,
		"degraded":     resp.Degraded,
		"token_budget": budget,
		"tokens_used":  used,
	})
}

// tierPriority maps storage tiers onto packing priority: durable knowledge
// first, scratch content last.
func tierPriority(tier engine.Tier) string {
	switch tier {
	case engine.TierMemoryBank, engine.TierPatterns:
		return "high"
	case engine.TierBooks, engine.TierHistory:
		return "medium"
	default:
		return "low"
	}
}

// renderContext produces the markdown block injected into prompts. Each
// fragment is numbered to match its citation index.
func renderContext(results []engine.SearchResult, citations []engine.Citation) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<context>\n## Retrieved Memory\n")
	for i, res := range results {
		b.WriteString(fmt.Sprintf("\n[%d] (%s) %s\n", i+1, res.Fragment.Meta.Tier, res.Fragment.Content))
	}

	b.WriteString("\n### Sources\n")
	for _, c := range citations {
		b.WriteString(fmt.Sprintf("- [%d] %s", c.Index, c.MemoryID))
		if c.DocID != "" {
			b.WriteString(" (" + c.DocID + ")")
		}
		b.WriteString("\n")
	}
	b.WriteString("</context>")
	return b.String()
}
