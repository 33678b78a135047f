package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrTransient marks a retryable write failure. Wrap provider or storage
// errors with it to opt into the bounded retry.
var ErrTransient = errors.New("transient store failure")

// corruptedKey flags a fragment as corrupted in its extension map. Corrupted
// entries are filtered from degraded reads rather than surfaced.
const corruptedKey = "_corrupted"

// AddResult reports how a resilient write went. Recovered means it succeeded
// after at least one failed attempt.
type AddResult struct {
	Fragment  Fragment `json:"fragment"`
	Success   bool     `json:"success"`
	Recovered bool     `json:"recovered"`
	Attempts  int      `json:"attempts"`
}

// SearchResponse distinguishes degraded retrieval from a genuinely empty
// result set, so callers can signal reduced quality instead of failure.
type SearchResponse struct {
	Results  []SearchResult `json:"results"`
	Degraded bool           `json:"degraded"`
}

// WriteStats aggregates resilient writes. Attempts counts logical write
// operations (retries within one operation are reported on its AddResult),
// so Rate is the fraction of operations that ultimately landed.
type WriteStats struct {
	Attempts  int     `json:"attempts"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
}

// Resilient wraps an Engine with bounded write retries and graceful read
// degradation. Reads never throw: failures come back as empty, degraded
// responses.
type Resilient struct {
	eng         *Engine
	maxAttempts int
	readTimeout time.Duration

	mu        sync.Mutex
	attempts  int
	successes int
}

// NewResilient wraps the engine. maxAttempts defaults to 3; readTimeout
// bounds search latency (0 disables the cap).
func NewResilient(eng *Engine, maxAttempts int, readTimeout time.Duration) *Resilient {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Resilient{eng: eng, maxAttempts: maxAttempts, readTimeout: readTimeout}
}

// Engine returns the wrapped engine.
func (r *Resilient) Engine() *Engine { return r.eng }

// Add writes a fragment with up to maxAttempts immediate retries. Transient
// failures retry without backoff; exhausting attempts reports Success=false
// instead of returning the error to the caller.
func (r *Resilient) Add(ctx context.Context, f Fragment) AddResult {
	r.countAttempt()

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		stored, err := r.eng.Add(ctx, f)
		if err == nil {
			r.countSuccess()
			return AddResult{
				Fragment:  stored,
				Success:   true,
				Recovered: attempt > 1,
				Attempts:  attempt,
			}
		}
		lastErr = err
	}

	log.Printf("resilient: add %s failed after %d attempts: %v", f.ID, r.maxAttempts, lastErr)
	return AddResult{Success: false, Attempts: r.maxAttempts}
}

// Search runs a degradation-aware search. Failures return an empty degraded
// response; exceeding the read timeout caps the results at ceil(limit/2);
// corrupted fragments are silently filtered and reflected via Degraded.
func (r *Resilient) Search(ctx context.Context, query string, limit int, opts SearchOpts) SearchResponse {
	start := time.Now()

	results, err := r.eng.Search(ctx, query, limit, opts)
	if err != nil {
		log.Printf("resilient: search degraded: %v", err)
		return SearchResponse{Results: []SearchResult{}, Degraded: true}
	}

	resp := SearchResponse{Results: results}

	// Corruption filter.
	filtered := resp.Results[:0]
	for _, res := range resp.Results {
		if isCorrupted(res.Fragment) {
			resp.Degraded = true
			continue
		}
		filtered = append(filtered, res)
	}
	resp.Results = filtered

	// Timeout cap: partial results instead of cooperative cancellation.
	timedOut := ctx.Err() != nil || (r.readTimeout > 0 && time.Since(start) > r.readTimeout)
	if timedOut {
		keep := (limit + 1) / 2
		if len(resp.Results) > keep {
			resp.Results = resp.Results[:keep]
		}
		resp.Degraded = true
	}

	if resp.Results == nil {
		resp.Results = []SearchResult{}
	}
	return resp
}

// Stats returns the aggregate write statistics.
func (r *Resilient) Stats() WriteStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := 0.0
	if r.attempts > 0 {
		rate = float64(r.successes) / float64(r.attempts)
	}
	return WriteStats{Attempts: r.attempts, Successes: r.successes, Rate: rate}
}

func (r *Resilient) countAttempt() {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
}

func (r *Resilient) countSuccess() {
	r.mu.Lock()
	r.successes++
	r.mu.Unlock()
}

func isCorrupted(f Fragment) bool {
	v, ok := f.Meta.Extra[corruptedKey]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
