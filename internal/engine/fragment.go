package engine

import "time"

// Tier is the lifecycle bucket a fragment belongs to. Each tier carries its
// own default TTL: working content decays fastest, memory_bank never decays.
type Tier string

const (
	TierWorking    Tier = "working"
	TierHistory    Tier = "history"
	TierPatterns   Tier = "patterns"
	TierBooks      Tier = "books"
	TierMemoryBank Tier = "memory_bank"
)

// validTiers defines the allowed fragment tiers.
var validTiers = map[Tier]bool{
	TierWorking: true, TierHistory: true, TierPatterns: true,
	TierBooks: true, TierMemoryBank: true,
}

// Status marks a fragment as live or logically deleted. Tombstones stay
// queryable; filtering them out is the caller's job.
type Status string

const (
	StatusActive    Status = "active"
	StatusTombstone Status = "tombstone"
)

// Metadata holds the structured per-fragment fields plus a bounded
// open-extension map for caller-defined keys.
type Metadata struct {
	Tier         Tier           `json:"tier"`
	Language     string         `json:"language,omitempty"`
	Source       string         `json:"source,omitempty"`
	Status       Status         `json:"status"`
	CreatedAt    int64          `json:"created_at"` // epoch millis
	TTLMs        int64          `json:"ttl_ms,omitempty"`
	ExpiresAt    int64          `json:"expires_at,omitempty"`
	WilsonScore  float64        `json:"wilson_score"`
	Confidence   float64        `json:"confidence"`
	UseCount     int            `json:"use_count"`
	SuccessCount int            `json:"success_count"`
	Supersedes   string         `json:"supersedes,omitempty"`
	SupersededBy string         `json:"superseded_by,omitempty"`
	OriginalID   string         `json:"original_id,omitempty"` // set on tombstones
	DocID        string         `json:"doc_id,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Fragment is a stored unit of memory content. Content is immutable after Add
// except via a full re-add under the same id (overwrite, not merge).
type Fragment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"-"`
	Meta      Metadata  `json:"metadata"`

	seq int64 // insertion order, used for stable ranking ties
}

// MetadataPatch is a shallow-merge update for UpdateMetadata. Nil fields are
// left untouched; Extra keys are merged into the existing extension map.
type MetadataPatch struct {
	Tier         *Tier          `json:"tier,omitempty"`
	Language     *string        `json:"language,omitempty"`
	Source       *string        `json:"source,omitempty"`
	Status       *Status        `json:"status,omitempty"`
	TTLMs        *int64         `json:"ttl_ms,omitempty"`
	ExpiresAt    *int64         `json:"expires_at,omitempty"`
	Supersedes   *string        `json:"supersedes,omitempty"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	OriginalID   *string        `json:"original_id,omitempty"`
	DocID        *string        `json:"doc_id,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// apply merges the patch into m. Only set fields change; nothing else on the
// fragment is touched.
func (p MetadataPatch) apply(m *Metadata) {
	if p.Tier != nil {
		m.Tier = *p.Tier
	}
	if p.Language != nil {
		m.Language = *p.Language
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.TTLMs != nil {
		m.TTLMs = *p.TTLMs
	}
	if p.ExpiresAt != nil {
		m.ExpiresAt = *p.ExpiresAt
	}
	if p.Supersedes != nil {
		m.Supersedes = *p.Supersedes
	}
	if p.SupersededBy != nil {
		m.SupersededBy = *p.SupersededBy
	}
	if p.OriginalID != nil {
		m.OriginalID = *p.OriginalID
	}
	if p.DocID != nil {
		m.DocID = *p.DocID
	}
	if len(p.Extra) > 0 {
		if m.Extra == nil {
			m.Extra = make(map[string]any, len(p.Extra))
		}
		for k, v := range p.Extra {
			m.Extra[k] = v
		}
	}
}

// clone returns a deep-enough copy: embedding and extension map are copied so
// callers can't mutate stored state through a returned fragment.
func (f *Fragment) clone() Fragment {
	out := *f
	if f.Embedding != nil {
		out.Embedding = make([]float64, len(f.Embedding))
		copy(out.Embedding, f.Embedding)
	}
	if f.Meta.Extra != nil {
		out.Meta.Extra = make(map[string]any, len(f.Meta.Extra))
		for k, v := range f.Meta.Extra {
			out.Meta.Extra[k] = v
		}
	}
	return out
}

// Seq returns the fragment's insertion sequence number.
func (f *Fragment) Seq() int64 { return f.seq }

// Age returns the fragment's age at the given instant.
func (f *Fragment) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-f.Meta.CreatedAt) * time.Millisecond
}
