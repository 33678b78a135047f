package store

import (
	"context"
	"testing"

	"github.com/dictachat/memcore/internal/engine"
)

func snapshotEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(engine.NewHashEmbedder(64))
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	eng := snapshotEngine(t)
	contents := map[string]string{
		"f1": "Dicta serves Hebrew language models",
		"f2": "the cache layer uses an in-process index",
		"f3": "עיבוד שפה עברית",
	}
	for id, content := range contents {
		if _, err := eng.Add(ctx, engine.Fragment{ID: id, Content: content}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	eng.Tracker().SetEnabled(true)
	eng.RecordOutcome("f1", engine.OutcomePositive)
	eng.RecordOutcome("f1", engine.OutcomePositive)
	eng.RecordOutcome("f2", engine.OutcomeNegative)
	eng.RecordFeedback("f1", true)

	if err := db.SaveSnapshot(eng); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := snapshotEngine(t)
	loaded, err := db.LoadSnapshot(ctx, restored)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded != 3 {
		t.Errorf("loaded = %d, want 3", loaded)
	}

	for id, content := range contents {
		f := restored.Get(id)
		if f == nil {
			t.Fatalf("fragment %s missing after restore", id)
		}
		if f.Content != content {
			t.Errorf("fragment %s content = %q, want %q", id, f.Content, content)
		}
		if len(f.Embedding) != 64 {
			t.Errorf("fragment %s embedding dims = %d, want 64", id, len(f.Embedding))
		}
	}

	pos, neg, _, weight := restored.Tracker().Counters("f1")
	if pos != 2 || neg != 0 {
		t.Errorf("f1 counters = %d/%d, want 2/0", pos, neg)
	}
	if weight <= 1.0 {
		t.Errorf("f1 weight = %v, want > 1 after positive feedback", weight)
	}
	if _, neg, _, _ := restored.Tracker().Counters("f2"); neg != 1 {
		t.Errorf("f2 negative = %d, want 1", neg)
	}
}

func TestSnapshotSearchAfterRestore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	eng := snapshotEngine(t)
	if _, err := eng.Add(ctx, engine.Fragment{ID: "py", Content: "Python programming tips and tricks"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := eng.Add(ctx, engine.Fragment{ID: "soup", Content: "grandmother's chicken soup recipe"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := db.SaveSnapshot(eng); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := snapshotEngine(t)
	if _, err := db.LoadSnapshot(ctx, restored); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	results, err := restored.Search(ctx, "Python programming", 1, engine.SearchOpts{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Fragment.ID != "py" {
		t.Errorf("search after restore ranked wrong: %+v", results)
	}
}

func TestSnapshotReEmbedsOnDimensionChange(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	eng := snapshotEngine(t)
	if _, err := eng.Add(ctx, engine.Fragment{ID: "f1", Content: "hello world"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := db.SaveSnapshot(eng); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	// Restore into an engine with a different embedding width.
	restored := engine.New(engine.NewHashEmbedder(128))
	if _, err := db.LoadSnapshot(ctx, restored); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	f := restored.Get("f1")
	if f == nil {
		t.Fatal("fragment missing")
	}
	if len(f.Embedding) != 128 {
		t.Errorf("embedding dims = %d, want 128 after re-embed", len(f.Embedding))
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	eng := snapshotEngine(t)
	if _, err := eng.Add(ctx, engine.Fragment{ID: "f1", Content: "hello"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := db.SaveSnapshot(eng); err != nil {
		t.Fatalf("first SaveSnapshot: %v", err)
	}
	if err := db.SaveSnapshot(eng); err != nil {
		t.Fatalf("second SaveSnapshot: %v", err)
	}

	n, err := db.CountFragments()
	if err != nil {
		t.Fatalf("CountFragments: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
