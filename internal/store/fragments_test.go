package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetFragment(t *testing.T) {
	db := testDB(t)

	rec := &FragmentRecord{
		ID:          "f1",
		Content:     "המשתמש מעדיף עברית",
		Tier:        "memory_bank",
		Status:      "active",
		Language:    "he",
		Source:      "chat",
		DocID:       "doc-1",
		CreatedAt:   1000,
		WilsonScore: 0.5,
		Confidence:  0.5,
		Extra:       map[string]any{"topic": "preferences"},
		Seq:         1,
	}
	if err := db.SaveFragment(rec); err != nil {
		t.Fatalf("SaveFragment: %v", err)
	}

	got, err := db.GetFragment("f1")
	if err != nil {
		t.Fatalf("GetFragment: %v", err)
	}
	if got == nil {
		t.Fatal("fragment not found")
	}
	if got.Content != rec.Content || got.Tier != "memory_bank" || got.Language != "he" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Extra["topic"] != "preferences" {
		t.Errorf("extra not restored: %v", got.Extra)
	}
}

func TestGetFragmentNotFound(t *testing.T) {
	db := testDB(t)

	got, err := db.GetFragment("missing")
	if err != nil {
		t.Fatalf("GetFragment: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing fragment, got %+v", got)
	}
}

func TestSaveFragmentUpsert(t *testing.T) {
	db := testDB(t)

	rec := &FragmentRecord{ID: "f1", Content: "v1", Tier: "working", Status: "active", CreatedAt: 1000, Seq: 1}
	if err := db.SaveFragment(rec); err != nil {
		t.Fatalf("first save: %v", err)
	}
	rec.Content = "v2"
	rec.Tier = "history"
	if err := db.SaveFragment(rec); err != nil {
		t.Fatalf("second save: %v", err)
	}

	n, err := db.CountFragments()
	if err != nil {
		t.Fatalf("CountFragments: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	got, _ := db.GetFragment("f1")
	if got.Content != "v2" || got.Tier != "history" {
		t.Errorf("upsert did not replace: %+v", got)
	}
}

func TestAllFragmentsOrderedBySeq(t *testing.T) {
	db := testDB(t)

	for i, id := range []string{"c", "a", "b"} {
		rec := &FragmentRecord{ID: id, Content: id, Tier: "working", Status: "active", CreatedAt: 1000, Seq: int64(i + 1)}
		if err := db.SaveFragment(rec); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	all, err := db.AllFragments()
	if err != nil {
		t.Fatalf("AllFragments: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	want := []string{"c", "a", "b"}
	for i, rec := range all {
		if rec.ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, rec.ID, want[i])
		}
	}
}

func TestDeleteFragmentCascadesVector(t *testing.T) {
	db := testDB(t)

	rec := &FragmentRecord{ID: "f1", Content: "hello", Tier: "working", Status: "active", CreatedAt: 1000, Seq: 1}
	if err := db.SaveFragment(rec); err != nil {
		t.Fatalf("SaveFragment: %v", err)
	}
	if err := db.SaveVector("f1", []float64{0.1, 0.2}, "hash"); err != nil {
		t.Fatalf("SaveVector: %v", err)
	}

	if err := db.DeleteFragment("f1"); err != nil {
		t.Fatalf("DeleteFragment: %v", err)
	}

	v, err := db.GetVector("f1")
	if err != nil {
		t.Fatalf("GetVector: %v", err)
	}
	if v != nil {
		t.Error("vector survived fragment delete")
	}
}
