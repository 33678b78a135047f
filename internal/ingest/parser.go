package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Message is a single line in a JSONL conversation export.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ParseFile reads a JSONL conversation file and returns its messages.
// Malformed lines are skipped, not fatal.
func ParseFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	defer f.Close()

	var msgs []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if m, ok := parseLine(line); ok {
			msgs = append(msgs, m)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return msgs, nil
}

// ParseLines parses conversation content from a string (for testing).
func ParseLines(content string) []Message {
	var msgs []Message
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m, ok := parseLine([]byte(line)); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func parseLine(line []byte) (Message, bool) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, false
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Role != "user" && m.Role != "assistant" {
		return Message{}, false
	}
	if m.Content == "" {
		return Message{}, false
	}
	return m, true
}
