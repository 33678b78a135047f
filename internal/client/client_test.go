package client

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dictachat/memcore/internal/engine"
	"github.com/dictachat/memcore/internal/server"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	eng := engine.New(engine.NewHashEmbedder(64))
	eng.Tracker().SetEnabled(true)
	t.Cleanup(eng.Stop)
	res := engine.NewResilient(eng, 3, 2*time.Second)
	srv := httptest.NewServer(server.New(res, nil, 2000, "test"))
	t.Cleanup(srv.Close)
	return NewWithURL(srv.URL)
}

func TestHealthy(t *testing.T) {
	c := testClient(t)
	if !c.Healthy() {
		t.Error("server should be healthy")
	}

	dead := NewWithURL("http://127.0.0.1:1")
	if dead.Healthy() {
		t.Error("unreachable server reported healthy")
	}
}

func TestAddAndSearch(t *testing.T) {
	c := testClient(t)

	frag, err := c.Add(engine.FragmentInput{
		ID:      "py",
		Content: "Python programming tips and tricks",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if frag.ID != "py" {
		t.Errorf("id = %q", frag.ID)
	}
	if _, err := c.Add(engine.FragmentInput{ID: "soup", Content: "chicken soup recipe"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	resp, err := c.Search("Python programming", 1, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].Fragment.ID != "py" {
		t.Errorf("results = %+v", resp.Results)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].MemoryID != "py" {
		t.Errorf("citations = %+v", resp.Citations)
	}
}

func TestAddGeneratesID(t *testing.T) {
	c := testClient(t)

	frag, err := c.Add(engine.FragmentInput{Content: "anonymous fact"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if frag.ID == "" {
		t.Error("expected generated id")
	}
}

func TestContext(t *testing.T) {
	c := testClient(t)

	if _, err := c.Add(engine.FragmentInput{
		ID:       "fact",
		Content:  "the user prefers metric units",
		Metadata: map[string]any{"tier": "memory_bank"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	resp, err := c.Context("metric units", 0)
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if resp.Context == "" {
		t.Error("expected non-empty context block")
	}
	if resp.TokensUsed <= 0 {
		t.Errorf("tokens_used = %d", resp.TokensUsed)
	}
}

func TestRecordOutcomeAndFeedback(t *testing.T) {
	c := testClient(t)

	if _, err := c.Add(engine.FragmentInput{ID: "f1", Content: "a fact"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.RecordOutcome("f1", engine.OutcomePositive); err != nil {
		t.Errorf("RecordOutcome: %v", err)
	}
	if err := c.RecordFeedback("f1", true); err != nil {
		t.Errorf("RecordFeedback: %v", err)
	}
	// Unknown ids are safe no-ops server-side.
	if err := c.RecordOutcome("ghost", engine.OutcomeNeutral); err != nil {
		t.Errorf("RecordOutcome unknown id: %v", err)
	}
}
