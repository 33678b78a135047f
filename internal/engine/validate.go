package engine

import (
	"fmt"
	"strings"
)

// Boundary limits for caller-supplied input. Content itself is unrestricted
// (empty through multi-kilobyte, any script); only the open-extension map is
// bounded so a single fragment can't smuggle an unbounded payload.
const (
	maxIDChars       = 256
	maxExtraKeys     = 32
	maxExtraKeyChars = 128
)

// FragmentInput is the wire-level add contract: an id, arbitrary content, and
// an optional open metadata bag. The API layer converts it into a Fragment
// via ValidateInput.
type FragmentInput struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Structured metadata keys lifted out of the open bag into named fields.
// Everything else lands in Meta.Extra.
var structuredKeys = map[string]bool{
	"tier": true, "language": true, "source": true, "status": true,
	"ttl_ms": true, "expires_at": true, "supersedes": true,
	"superseded_by": true, "original_id": true, "doc_id": true,
}

// ValidateInput checks a wire-level fragment against the boundary limits and
// converts it to a Fragment. Edge inputs (empty id, empty content, duplicate
// id) are valid; only genuinely malformed metadata is rejected.
func ValidateInput(in FragmentInput) (Fragment, error) {
	if len(in.ID) > maxIDChars {
		return Fragment{}, fmt.Errorf("id too long (%d chars, max %d)", len(in.ID), maxIDChars)
	}

	f := Fragment{ID: strings.TrimSpace(in.ID), Content: in.Content}

	extraCount := 0
	for k, v := range in.Metadata {
		if len(k) > maxExtraKeyChars {
			return Fragment{}, fmt.Errorf("metadata key too long (%d chars, max %d)", len(k), maxExtraKeyChars)
		}
		if structuredKeys[k] {
			if err := applyStructured(&f.Meta, k, v); err != nil {
				return Fragment{}, err
			}
			continue
		}
		extraCount++
		if extraCount > maxExtraKeys {
			return Fragment{}, fmt.Errorf("metadata has more than %d extension keys", maxExtraKeys)
		}
		if f.Meta.Extra == nil {
			f.Meta.Extra = make(map[string]any)
		}
		f.Meta.Extra[k] = v
	}

	return f, nil
}

// applyStructured assigns one named metadata field from an untyped bag value.
func applyStructured(m *Metadata, key string, v any) error {
	switch key {
	case "tier":
		s, ok := v.(string)
		if !ok || !validTiers[Tier(s)] {
			return fmt.Errorf("invalid tier %v", v)
		}
		m.Tier = Tier(s)
	case "language":
		m.Language, _ = v.(string)
	case "source":
		m.Source, _ = v.(string)
	case "status":
		s, ok := v.(string)
		if !ok || (Status(s) != StatusActive && Status(s) != StatusTombstone) {
			return fmt.Errorf("invalid status %v", v)
		}
		m.Status = Status(s)
	case "ttl_ms":
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("ttl_ms: %w", err)
		}
		m.TTLMs = n
	case "expires_at":
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("expires_at: %w", err)
		}
		m.ExpiresAt = n
	case "supersedes":
		m.Supersedes, _ = v.(string)
	case "superseded_by":
		m.SupersededBy, _ = v.(string)
	case "original_id":
		m.OriginalID, _ = v.(string)
	case "doc_id":
		m.DocID, _ = v.(string)
	}
	return nil
}

// toInt64 accepts the numeric shapes JSON decoding produces.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
