package item

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the tab an item lives in.
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindResponse Kind = "response"
	KindSummary  Kind = "summary"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindPrompt, KindResponse, KindSummary}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("unknown kind %q (want prompt, response, or summary)", s)
	}
	return k, nil
}

// Item is a pill: a prompt, response, or summary with organizational metadata.
type Item struct {
	// ID is a ULID that uniquely identifies this item; never reused
	ID string

	// Kind is the item's tab; changes only through a move
	Kind Kind

	// Title is a short display label derived from Text unless set explicitly
	Title string

	// Text is the template text (prompt) or captured text (response, summary)
	Text string

	Category Category
	Color    Color

	// Order is the 0-based position within Kind's sequence
	Order int

	// SourcePlatform names the platform that produced the text (nullable)
	SourcePlatform *string

	// SourceItems lists the response ids a summary was built from
	SourceItems []string

	// Pending marks a summary dispatched but not yet completed
	Pending bool

	// Fingerprint is the dedup hash of Text and SourcePlatform
	Fingerprint string

	// TextChars is the character count (runes, not bytes)
	TextChars int

	// TokensEstimate is the estimated token count for context budgeting
	TokensEstimate int

	// CaptureSeq is the item's position in its platform's capture history;
	// 0 when it was never recorded
	CaptureSeq int64

	// CreatedAt is the Unix timestamp when the item was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the item was last updated
	UpdatedAt int64
}

// Platform returns the source platform or "" when unset.
func (it *Item) Platform() string {
	if it.SourcePlatform == nil {
		return ""
	}
	return *it.SourcePlatform
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	if it.SourcePlatform != nil {
		p := *it.SourcePlatform
		c.SourcePlatform = &p
	}
	c.SourceItems = slices.Clone(it.SourceItems)
	return &c
}

// SetText replaces the text and recomputes every derived field.
func (it *Item) SetText(text string, counter TokenCounter) {
	it.Text = text
	it.Fingerprint = Fingerprint(text, it.Platform())
	it.TextChars = CountChars(text)
	it.TokensEstimate = counter.Count(text)
}

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

// TokenCounterFunc adapts a function to TokenCounter.
type TokenCounterFunc func(string) int

// Count implements TokenCounter.
func (f TokenCounterFunc) Count(text string) int { return f(text) }
