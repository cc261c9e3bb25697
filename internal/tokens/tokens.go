// Package tokens estimates how many model tokens item text occupies.
package tokens

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/hpungsan/pillbox/internal/item"
)

// Counter counts tokens with a tiktoken encoding, falling back to the
// word-based heuristic when no encoding is configured or it cannot load
// (offline machines may lack the BPE cache).
type Counter struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	mu           sync.Mutex
}

// New creates a Counter for encodingName ("" selects the heuristic).
// The returned error reports why a named encoding could not load; the
// Counter is usable either way.
func New(encodingName string) (*Counter, error) {
	c := &Counter{encodingName: encodingName}
	if encodingName == "" {
		return c, nil
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return c, err
	}
	c.encoder = enc
	return c, nil
}

// Count implements item.TokenCounter.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.encoder == nil {
		return item.EstimateTokens(text)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoder.Encode(text, nil, nil))
}

// IsPrecise reports whether counts come from a real encoding.
func (c *Counter) IsPrecise() bool {
	return c.encoder != nil
}

// EncodingName returns the configured encoding name.
func (c *Counter) EncodingName() string {
	return c.encodingName
}

var _ item.TokenCounter = (*Counter)(nil)
