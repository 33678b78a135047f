package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Engine is the tiered memory retrieval and learning engine. It owns the
// fragment store, the relationship graph, and the outcome tracker, and is the
// explicit context object callers thread through every operation — no
// package-level state, so independent engines coexist cleanly.
type Engine struct {
	store     *Store
	graph     *Graph
	tracker   *Tracker
	embedder  Embedder
	extractor EntityExtractor
	stopCh    chan struct{}
}

// New creates an Engine using the given embedding provider and the default
// heuristic entity extractor.
func New(embedder Embedder) *Engine {
	return &Engine{
		store:     NewStore(),
		graph:     NewGraph(),
		tracker:   NewTracker(),
		embedder:  embedder,
		extractor: NewHeuristicExtractor(),
		stopCh:    make(chan struct{}),
	}
}

// SetExtractor swaps the entity extractor. Fragments added earlier keep their
// existing entity index.
func (e *Engine) SetExtractor(x EntityExtractor) {
	e.extractor = x
}

// Store exposes the underlying fragment store (read paths for the API layer).
func (e *Engine) Store() *Store { return e.store }

// Graph exposes the relationship graph.
func (e *Engine) Graph() *Graph { return e.graph }

// Tracker exposes the outcome learning tracker.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Embedder returns the configured embedding provider.
func (e *Engine) Embedder() Embedder { return e.embedder }

// Add embeds the fragment's content, stores it (overwriting any fragment with
// the same id, last-write-wins), and indexes its entities. Empty content,
// multi-kilobyte content, and arbitrary Unicode are all valid. An empty id
// gets a generated UUID. Returns the stored fragment.
func (e *Engine) Add(ctx context.Context, f Fragment) (Fragment, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Meta.Tier == "" {
		f.Meta.Tier = TierWorking
	}
	if !validTiers[f.Meta.Tier] {
		return Fragment{}, fmt.Errorf("invalid tier %q", f.Meta.Tier)
	}
	if f.Meta.Status == "" {
		f.Meta.Status = StatusActive
	}
	if f.Meta.CreatedAt == 0 {
		f.Meta.CreatedAt = time.Now().UnixMilli()
	}
	if f.Meta.TTLMs == 0 {
		f.Meta.TTLMs = DefaultTTL(f.Meta.Tier)
	}
	if f.Meta.TTLMs > 0 && f.Meta.ExpiresAt == 0 {
		f.Meta.ExpiresAt = f.Meta.CreatedAt + f.Meta.TTLMs
	}
	if f.Meta.WilsonScore == 0 && f.Meta.Confidence == 0 {
		f.Meta.WilsonScore = 0.5
		f.Meta.Confidence = 0.5
	}

	// Embed outside the store lock. Embedding is computed once, at add time.
	vec, err := e.embedder.Embed(ctx, f.Content)
	if err != nil {
		return Fragment{}, fmt.Errorf("embed fragment %s: %w", f.ID, err)
	}
	f.Embedding = vec

	if err := e.store.Put(f); err != nil {
		return Fragment{}, fmt.Errorf("store fragment %s: %w", f.ID, err)
	}

	e.graph.Index(f.ID, e.extractor.Entities(f.Content))
	return f, nil
}

// Restore stores a fragment that already carries its embedding, skipping the
// embedding call. Used when reloading persisted fragments.
func (e *Engine) Restore(f Fragment) error {
	if err := e.store.Put(f); err != nil {
		return fmt.Errorf("restore fragment %s: %w", f.ID, err)
	}
	e.graph.Index(f.ID, e.extractor.Entities(f.Content))
	return nil
}

// Get returns the fragment for an id, or nil if not found. Not-found is not
// an error.
func (e *Engine) Get(id string) *Fragment {
	return e.store.Get(id)
}

// Delete physically removes a fragment and its graph entry. Learning state is
// kept so a re-add under the same id resumes its history.
func (e *Engine) Delete(id string) bool {
	if !e.store.Delete(id) {
		return false
	}
	e.graph.Remove(id)
	return true
}

// Count returns the current number of stored fragments.
func (e *Engine) Count() int {
	return e.store.Count()
}

// UpdateMetadata shallow-merges a patch into one fragment's metadata.
// Content and every other fragment stay untouched. Unknown ids return false.
func (e *Engine) UpdateMetadata(id string, patch MetadataPatch) bool {
	return e.store.UpdateMetadata(id, patch)
}

// RecordOutcome feeds a retrieval outcome into the tracker and mirrors the
// updated Wilson confidence onto the fragment's metadata. Safe no-op for an
// unknown id's metadata mirror; the counter still accumulates so history is
// not lost if the fragment arrives later.
func (e *Engine) RecordOutcome(id string, outcome Outcome) {
	e.tracker.RecordOutcome(id, outcome)
	conf := e.tracker.Confidence(id)
	e.store.mutateMeta(id, func(m *Metadata) {
		m.WilsonScore = conf
		m.Confidence = conf
		m.UseCount++
		if outcome == OutcomePositive {
			m.SuccessCount++
		}
	})
}

// RecordFeedback applies the multiplicative learning-weight update. Safe
// no-op for unknown ids.
func (e *Engine) RecordFeedback(id string, positive bool) {
	e.tracker.RecordFeedback(id, positive)
}

// Tombstone logically deletes a fragment: the original stays retrievable and
// a separate tombstone fragment pointing back at it is added. Returns the
// tombstone, or an error if the target does not exist.
func (e *Engine) Tombstone(ctx context.Context, id string) (Fragment, error) {
	orig := e.store.Get(id)
	if orig == nil {
		return Fragment{}, fmt.Errorf("tombstone: fragment %s not found", id)
	}

	ts := Fragment{
		ID:      id + ":tombstone",
		Content: orig.Content,
		Meta: Metadata{
			Tier:       orig.Meta.Tier,
			Language:   orig.Meta.Language,
			Source:     orig.Meta.Source,
			Status:     StatusTombstone,
			OriginalID: id,
		},
	}
	return e.Add(ctx, ts)
}

// Supersede adds a replacement fragment carrying supersedes=oldID and marks
// the old fragment superseded_by. Neither fragment is removed or deactivated;
// resolving the contradiction is the caller's job.
func (e *Engine) Supersede(ctx context.Context, oldID string, replacement Fragment) (Fragment, error) {
	replacement.Meta.Supersedes = oldID

	stored, err := e.Add(ctx, replacement)
	if err != nil {
		return Fragment{}, err
	}

	newID := stored.ID
	e.store.mutateMeta(oldID, func(m *Metadata) {
		m.SupersededBy = newID
	})
	return stored, nil
}

// SweepExpired counts fragments whose freshness has reached its floor. Nothing
// is removed: the sweep only reports, since expiry filtering is a caller
// policy decision.
func (e *Engine) SweepExpired(now time.Time) int {
	expired := 0
	for _, f := range e.store.All() {
		if Expired(&f, now) {
			expired++
		}
	}
	return expired
}

// StartSweepTimer logs an expiry sweep on startup and then at the given
// interval until Stop is called.
func (e *Engine) StartSweepTimer(interval time.Duration) {
	if n := e.SweepExpired(time.Now()); n > 0 {
		log.Printf("sweep: %d fragments past TTL", n)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := e.SweepExpired(time.Now()); n > 0 {
					log.Printf("sweep: %d fragments past TTL", n)
				}
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
