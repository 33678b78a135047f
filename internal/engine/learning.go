package engine

import (
	"math"
	"sync"
)

// Outcome classifies how a retrieved fragment worked out for the caller.
type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeNeutral  Outcome = "neutral"
)

// Learning weight multipliers for the feedback signal.
const (
	feedbackUp   = 1.1
	feedbackDown = 0.9
)

// Wilson returns the 95%-confidence lower bound for a Bernoulli proportion
// with the given successes out of total trials, clamped to [0,1]. Zero trials
// return 0.5, a neutral prior. The lower bound is robust at small samples: a
// strong positive history keeps well over half its confidence through a
// modest burst of negatives.
func Wilson(successes, total int) float64 {
	if total <= 0 {
		return 0.5
	}
	const z = 1.96 // 95% confidence
	n := float64(total)
	p := float64(successes) / n

	z2 := z * z
	denom := 1 + z2/n
	center := p + z2/(2*n)
	margin := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n))

	score := (center - margin) / denom
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Effectiveness summarizes the positive/negative outcome history of a
// fragment. Neutral outcomes are excluded from the denominator, which makes
// this distinct from Confidence.
type Effectiveness struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples"`
}

// MaturityLevel names a point on a fragment's use-count/score trajectory.
type MaturityLevel string

const (
	MaturityColdStart   MaturityLevel = "cold_start"
	MaturityEarly       MaturityLevel = "early"
	MaturityEstablished MaturityLevel = "established"
	MaturityProven      MaturityLevel = "proven"
	MaturityMature      MaturityLevel = "mature"
)

// Maturity classifies a fragment by outcome sample count and success score.
// Poorly-scoring fragments stay at established regardless of volume.
func Maturity(samples int, score float64) MaturityLevel {
	switch {
	case samples < 3:
		return MaturityColdStart
	case samples < 10:
		return MaturityEarly
	case samples < 25 || score < 0.6:
		return MaturityEstablished
	case samples < 50:
		return MaturityProven
	default:
		return MaturityMature
	}
}

// outcomeRecord holds the per-fragment counters and the multiplicative
// learning weight. The Wilson counters and the weight are two independent
// signals; they are combined only at the ranker.
type outcomeRecord struct {
	positive int
	negative int
	neutral  int
	weight   float64
}

// Tracker accumulates outcome history and feedback weights per fragment id.
// Unknown ids are always safe: reads return neutral defaults, writes create
// a record lazily.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*outcomeRecord
	enabled bool
}

// NewTracker creates an enabled outcome tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*outcomeRecord),
		enabled: true,
	}
}

// SetEnabled toggles outcome learning globally. When disabled, RecordOutcome
// is a no-op; existing history is kept.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *Tracker) record(id string) *outcomeRecord {
	rec, ok := t.records[id]
	if !ok {
		rec = &outcomeRecord{weight: 1.0}
		t.records[id] = rec
	}
	return rec
}

// RecordOutcome increments the matching counter for the fragment. Unrecognized
// outcome values are ignored.
func (t *Tracker) RecordOutcome(id string, outcome Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}
	rec := t.record(id)
	switch outcome {
	case OutcomePositive:
		rec.positive++
	case OutcomeNegative:
		rec.negative++
	case OutcomeNeutral:
		rec.neutral++
	}
}

// RecordFeedback applies the multiplicative learning weight update: ×1.1 on
// positive, ×0.9 on negative. Independent from the outcome counters.
func (t *Tracker) RecordFeedback(id string, positive bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(id)
	if positive {
		rec.weight *= feedbackUp
	} else {
		rec.weight *= feedbackDown
	}
}

// Confidence returns the Wilson lower bound of positive outcomes over all
// outcomes (neutral included). 0.5 for an unknown id.
func (t *Tracker) Confidence(id string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return 0.5
	}
	total := rec.positive + rec.negative + rec.neutral
	return Wilson(rec.positive, total)
}

// Effectiveness returns the positive/negative success summary for a fragment.
// Neutral outcomes do not count toward the denominator.
func (t *Tracker) Effectiveness(id string) Effectiveness {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return Effectiveness{Confidence: Wilson(0, 0)}
	}
	samples := rec.positive + rec.negative
	score := 0.0
	if samples > 0 {
		score = float64(rec.positive) / float64(samples)
	}
	return Effectiveness{
		Score:      score,
		Confidence: Wilson(rec.positive, samples),
		Samples:    samples,
	}
}

// Weight returns the learning weight for a fragment, 1.0 for an unknown id.
func (t *Tracker) Weight(id string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return 1.0
	}
	return rec.weight
}

// Counters returns the raw outcome counters, all zero for an unknown id.
// Used by the persistence adapter.
func (t *Tracker) Counters(id string) (positive, negative, neutral int, weight float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return 0, 0, 0, 1.0
	}
	return rec.positive, rec.negative, rec.neutral, rec.weight
}

// Restore replaces the counters for a fragment, used when loading a snapshot.
func (t *Tracker) Restore(id string, positive, negative, neutral int, weight float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if weight <= 0 {
		weight = 1.0
	}
	t.records[id] = &outcomeRecord{
		positive: positive,
		negative: negative,
		neutral:  neutral,
		weight:   weight,
	}
}

// Forget drops all learning state for a fragment.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	delete(t.records, id)
	t.mu.Unlock()
}

// TrackedIDs returns every fragment id with learning state.
func (t *Tracker) TrackedIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	return ids
}
