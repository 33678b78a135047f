package engine

import "time"

// Default TTLs by tier. Working content ages out within a session, history
// within a week, patterns and books over longer horizons. memory_bank holds
// identity/fact content and never decays.
var tierTTL = map[Tier]time.Duration{
	TierWorking:    6 * time.Hour,
	TierHistory:    7 * 24 * time.Hour,
	TierPatterns:   30 * 24 * time.Hour,
	TierBooks:      90 * 24 * time.Hour,
	TierMemoryBank: 0, // no decay
}

// DefaultTTL returns the default TTL for a tier in milliseconds. Zero means
// the tier does not decay.
func DefaultTTL(tier Tier) int64 {
	return tierTTL[tier].Milliseconds()
}

// Freshness computes the normalized [0,1] recency score:
// max(0, 1 - (now-createdAt)/ttl). A zero or negative TTL means the content
// never goes stale (always 1). Monotonically non-increasing with age, floored
// at 0 at and after the TTL.
func Freshness(createdAt, now, ttlMs int64) float64 {
	if ttlMs <= 0 {
		return 1
	}
	age := now - createdAt
	if age <= 0 {
		return 1
	}
	score := 1 - float64(age)/float64(ttlMs)
	if score < 0 {
		return 0
	}
	return score
}

// FragmentFreshness evaluates a fragment's freshness at the given instant
// using its own TTL, falling back to the tier default.
func FragmentFreshness(f *Fragment, now time.Time) float64 {
	ttl := f.Meta.TTLMs
	if ttl == 0 {
		ttl = DefaultTTL(f.Meta.Tier)
	}
	return Freshness(f.Meta.CreatedAt, now.UnixMilli(), ttl)
}

// Expired reports whether the fragment's freshness has hit its floor.
func Expired(f *Fragment, now time.Time) bool {
	if f.Meta.ExpiresAt > 0 {
		return now.UnixMilli() >= f.Meta.ExpiresAt
	}
	return FragmentFreshness(f, now) <= 0
}
