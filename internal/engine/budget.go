package engine

import (
	"math"
	"sort"
	"unicode"
)

// Characters per token by script. Non-Latin scripts (Hebrew in particular)
// pack fewer characters into each token than Latin text does.
const (
	latinCharsPerToken    = 4.0
	nonLatinCharsPerToken = 2.5
)

// TokenEstimate approximates the token cost of a text. Pure function,
// language-aware: runs of non-Latin letters are charged at a denser rate.
func TokenEstimate(text string) int {
	if text == "" {
		return 0
	}
	var latin, nonLatin int
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			nonLatin++
		} else {
			latin++
		}
	}
	est := float64(latin)/latinCharsPerToken + float64(nonLatin)/nonLatinCharsPerToken
	return int(math.Ceil(est))
}

// BudgetItem is one packable unit of prompt content.
type BudgetItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Priority string `json:"priority"` // e.g. "high", "medium", "low"
}

// DefaultPriorityOrder ranks priorities from most to least important.
var DefaultPriorityOrder = []string{"high", "medium", "low"}

// Allocate greedily packs items into the token budget. Items are stable-sorted
// by priority tier (per priorityOrder; unknown priorities sort last), then
// included while the cumulative estimated cost fits. An item that would
// overflow is skipped and packing continues with smaller or lower-priority
// items — best-effort, not optimal bin packing. Any high-priority item that
// individually fits is guaranteed a slot before lower tiers are considered.
func Allocate(items []BudgetItem, budget int, priorityOrder []string) []BudgetItem {
	if budget <= 0 || len(items) == 0 {
		return []BudgetItem{}
	}
	if len(priorityOrder) == 0 {
		priorityOrder = DefaultPriorityOrder
	}

	rank := make(map[string]int, len(priorityOrder))
	for i, p := range priorityOrder {
		rank[p] = i
	}
	tier := func(it BudgetItem) int {
		if r, ok := rank[it.Priority]; ok {
			return r
		}
		return len(priorityOrder)
	}

	sorted := append([]BudgetItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tier(sorted[i]) < tier(sorted[j])
	})

	packed := make([]BudgetItem, 0, len(sorted))
	used := 0
	for _, it := range sorted {
		cost := TokenEstimate(it.Text)
		if used+cost > budget {
			continue
		}
		packed = append(packed, it)
		used += cost
	}
	return packed
}
