package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dictachat/memcore/internal/engine"
)

const (
	defaultServerURL = "http://127.0.0.1:38600"
	httpTimeout      = 10 * time.Second
)

// Client talks to a running memcore server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates an API client. Respects the MEMCORE_URL env var, falls back to
// http://127.0.0.1:38600.
func New() *Client {
	u := os.Getenv("MEMCORE_URL")
	if u == "" {
		u = defaultServerURL
	}
	return NewWithURL(u)
}

// NewWithURL creates an API client against an explicit base URL.
func NewWithURL(serverURL string) *Client {
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

func (c *Client) post(path string, body []byte) ([]byte, error) {
	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Add stores a fragment and returns the stored form (id filled in).
func (c *Client) Add(in engine.FragmentInput) (engine.Fragment, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return engine.Fragment{}, fmt.Errorf("marshal fragment: %w", err)
	}

	data, err := c.post("/api/fragments", body)
	if err != nil {
		return engine.Fragment{}, err
	}

	var resp struct {
		Fragment engine.Fragment `json:"fragment"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return engine.Fragment{}, fmt.Errorf("decode add response: %w", err)
	}
	return resp.Fragment, nil
}

// SearchResponse is the wire form of a ranked retrieval.
type SearchResponse struct {
	Query     string                `json:"query"`
	Count     int                   `json:"count"`
	Degraded  bool                  `json:"degraded"`
	Results   []engine.SearchResult `json:"results"`
	Citations []engine.Citation     `json:"citations"`
}

// Search runs a ranked retrieval on the server.
func (c *Client) Search(query string, limit int, contextHint string) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	if contextHint != "" {
		q.Set("context", contextHint)
	}

	data, err := c.get("/api/search?" + q.Encode())
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// ContextResponse is a budget-packed prompt context block with citations.
type ContextResponse struct {
	Query       string            `json:"query"`
	Context     string            `json:"context"`
	Citations   []engine.Citation `json:"citations"`
	Degraded    bool              `json:"degraded"`
	TokenBudget int               `json:"token_budget"`
	TokensUsed  int               `json:"tokens_used"`
}

// Context fetches a prompt-ready context block. budget <= 0 uses the server
// default.
func (c *Client) Context(query string, budget int) (*ContextResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if budget > 0 {
		q.Set("budget", strconv.Itoa(budget))
	}

	data, err := c.get("/api/context?" + q.Encode())
	if err != nil {
		return nil, err
	}

	var resp ContextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode context response: %w", err)
	}
	return &resp, nil
}

// RecordOutcome reports a retrieval outcome for a fragment.
func (c *Client) RecordOutcome(id string, outcome engine.Outcome) error {
	body, _ := json.Marshal(map[string]string{"outcome": string(outcome)})
	_, err := c.post("/api/fragments/"+url.PathEscape(id)+"/outcome", body)
	return err
}

// RecordFeedback reports explicit user feedback for a fragment.
func (c *Client) RecordFeedback(id string, positive bool) error {
	body, _ := json.Marshal(map[string]bool{"positive": positive})
	_, err := c.post("/api/fragments/"+url.PathEscape(id)+"/feedback", body)
	return err
}
