package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/dictachat/memcore/internal/engine"
)

// Exchange is a user turn paired with the assistant turn that answered it.
// Unpaired trailing turns become single-sided exchanges.
type Exchange struct {
	User      string
	Assistant string
}

// PairExchanges groups messages into user/assistant exchanges. Consecutive
// same-role messages are joined with newlines.
func PairExchanges(msgs []Message) []Exchange {
	var exchanges []Exchange
	var cur *Exchange

	for _, m := range msgs {
		switch m.Role {
		case "user":
			// An assistant reply closes the previous exchange.
			if cur != nil && cur.Assistant != "" {
				exchanges = append(exchanges, *cur)
				cur = nil
			}
			if cur == nil {
				cur = &Exchange{}
			}
			cur.User = joinTurn(cur.User, m.Content)
		case "assistant":
			if cur == nil {
				cur = &Exchange{}
			}
			cur.Assistant = joinTurn(cur.Assistant, m.Content)
		}
	}
	if cur != nil {
		exchanges = append(exchanges, *cur)
	}
	return exchanges
}

func joinTurn(existing, content string) string {
	if existing == "" {
		return content
	}
	return existing + "\n" + content
}

// render flattens an exchange into fragment content.
func (e Exchange) render() string {
	var b strings.Builder
	if e.User != "" {
		b.WriteString("User: ")
		b.WriteString(e.User)
	}
	if e.Assistant != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Assistant: ")
		b.WriteString(e.Assistant)
	}
	return b.String()
}

// IngestFile parses a JSONL conversation and adds each exchange to the engine
// as a working-tier fragment. Returns the number of fragments added.
func IngestFile(ctx context.Context, res *engine.Resilient, path, source string) (int, error) {
	msgs, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	return IngestMessages(ctx, res, msgs, source)
}

// IngestMessages adds paired exchanges as working-tier fragments.
func IngestMessages(ctx context.Context, res *engine.Resilient, msgs []Message, source string) (int, error) {
	added := 0
	for _, ex := range PairExchanges(msgs) {
		frag := engine.Fragment{
			Content: ex.render(),
			Meta: engine.Metadata{
				Tier:   engine.TierWorking,
				Source: source,
			},
		}
		result := res.Add(ctx, frag)
		if !result.Success {
			return added, fmt.Errorf("ingest: add failed after %d attempts", result.Attempts)
		}
		added++
	}
	return added, nil
}
