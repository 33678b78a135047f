package store

import (
	"context"
	"fmt"
	"log"

	"github.com/dictachat/memcore/internal/engine"
)

// SaveSnapshot persists the engine's fragments, embeddings, and outcome
// counters. Each write is an upsert, so repeated snapshots converge.
func (db *DB) SaveSnapshot(eng *engine.Engine) error {
	model := eng.Embedder().Model()

	for _, f := range eng.Store().All() {
		rec := &FragmentRecord{
			ID:           f.ID,
			Content:      f.Content,
			Tier:         string(f.Meta.Tier),
			Status:       string(f.Meta.Status),
			Language:     f.Meta.Language,
			Source:       f.Meta.Source,
			DocID:        f.Meta.DocID,
			CreatedAt:    f.Meta.CreatedAt,
			TTLMs:        f.Meta.TTLMs,
			ExpiresAt:    f.Meta.ExpiresAt,
			WilsonScore:  f.Meta.WilsonScore,
			Confidence:   f.Meta.Confidence,
			UseCount:     f.Meta.UseCount,
			SuccessCount: f.Meta.SuccessCount,
			Supersedes:   f.Meta.Supersedes,
			SupersededBy: f.Meta.SupersededBy,
			OriginalID:   f.Meta.OriginalID,
			Extra:        f.Meta.Extra,
			Seq:          f.Seq(),
		}
		if err := db.SaveFragment(rec); err != nil {
			return err
		}
		if len(f.Embedding) > 0 {
			if err := db.SaveVector(f.ID, f.Embedding, model); err != nil {
				return err
			}
		}
	}

	for _, id := range eng.Tracker().TrackedIDs() {
		pos, neg, neu, weight := eng.Tracker().Counters(id)
		o := &OutcomeRecord{
			FragmentID: id,
			Positive:   pos,
			Negative:   neg,
			Neutral:    neu,
			Weight:     weight,
		}
		if err := db.SaveOutcome(o); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot restores persisted fragments and outcome counters into the
// engine. Fragments whose stored embedding dimensions no longer match the
// configured embedder are re-embedded on load.
func (db *DB) LoadSnapshot(ctx context.Context, eng *engine.Engine) (int, error) {
	records, err := db.AllFragments()
	if err != nil {
		return 0, err
	}

	vectors, err := db.AllVectors()
	if err != nil {
		return 0, err
	}
	byID := make(map[string][]float64, len(vectors))
	for _, v := range vectors {
		byID[v.FragmentID] = v.Embedding
	}

	dims := eng.Embedder().Dimensions()
	loaded := 0
	for _, rec := range records {
		f := engine.Fragment{
			ID:        rec.ID,
			Content:   rec.Content,
			Embedding: byID[rec.ID],
			Meta: engine.Metadata{
				Tier:         engine.Tier(rec.Tier),
				Status:       engine.Status(rec.Status),
				Language:     rec.Language,
				Source:       rec.Source,
				DocID:        rec.DocID,
				CreatedAt:    rec.CreatedAt,
				TTLMs:        rec.TTLMs,
				ExpiresAt:    rec.ExpiresAt,
				WilsonScore:  rec.WilsonScore,
				Confidence:   rec.Confidence,
				UseCount:     rec.UseCount,
				SuccessCount: rec.SuccessCount,
				Supersedes:   rec.Supersedes,
				SupersededBy: rec.SupersededBy,
				OriginalID:   rec.OriginalID,
				Extra:        rec.Extra,
			},
		}
		if len(f.Embedding) != dims {
			log.Printf("snapshot: re-embedding %s (stored dims %d, want %d)", f.ID, len(f.Embedding), dims)
			vec, err := eng.Embedder().Embed(ctx, f.Content)
			if err != nil {
				return loaded, fmt.Errorf("re-embed fragment %s: %w", rec.ID, err)
			}
			f.Embedding = vec
		}
		if err := eng.Restore(f); err != nil {
			return loaded, fmt.Errorf("load fragment %s: %w", rec.ID, err)
		}
		loaded++
	}

	outcomes, err := db.AllOutcomes()
	if err != nil {
		return loaded, err
	}
	for _, o := range outcomes {
		eng.Tracker().Restore(o.FragmentID, o.Positive, o.Negative, o.Neutral, o.Weight)
	}
	return loaded, nil
}
