package engine

import "testing"

func TestStoreDimensionInvariant(t *testing.T) {
	s := NewStore()

	if err := s.Put(Fragment{ID: "a", Embedding: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if s.Dimensions() != 3 {
		t.Errorf("dims = %d, want 3", s.Dimensions())
	}
	if err := s.Put(Fragment{ID: "b", Embedding: []float64{1, 2}}); err == nil {
		t.Error("mismatched embedding dimension accepted")
	}
}

func TestStoreOverwriteKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Put(Fragment{ID: "first", Content: "1"})
	s.Put(Fragment{ID: "second", Content: "2"})
	s.Put(Fragment{ID: "first", Content: "1 again"})

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != "first" || all[1].ID != "second" {
		t.Errorf("order = %s,%s — re-add must keep original position", all[0].ID, all[1].ID)
	}
	if all[0].Content != "1 again" {
		t.Errorf("content = %q, overwrite lost", all[0].Content)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Put(Fragment{ID: "a", Embedding: []float64{1, 2},
		Meta: Metadata{Extra: map[string]any{"k": "v"}}})

	got := s.Get("a")
	got.Embedding[0] = 99
	got.Meta.Extra["k"] = "mutated"

	again := s.Get("a")
	if again.Embedding[0] != 1 {
		t.Error("caller mutated stored embedding through returned fragment")
	}
	if again.Meta.Extra["k"] != "v" {
		t.Error("caller mutated stored extension map through returned fragment")
	}
}

func TestStoreDeleteAndCount(t *testing.T) {
	s := NewStore()
	s.Put(Fragment{ID: "a"})
	s.Put(Fragment{ID: "b"})

	if !s.Delete("a") || s.Count() != 1 {
		t.Errorf("delete/count mismatch: count = %d", s.Count())
	}
	if s.Delete("a") {
		t.Error("second delete returned true")
	}
}
