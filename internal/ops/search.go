package ops

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// Search limits
const (
	MaxQueryLength  = 200
	MaxSnippetChars = 300

	// snippetContext is how many runes of text are kept before the first match.
	snippetContext = 60

	// titleWeight ranks a title match above several text matches.
	titleWeight = 5
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query    string  // required
	Kind     string  // optional filter
	Category *string // optional filter
	Platform *string // optional filter
	Limit    int     // default: 20, max: 100
	Offset   int     // default: 0
}

// SearchResultItem wraps an item summary with a match snippet.
type SearchResultItem struct {
	item.ItemSummary
	// Snippet is HTML-safe: user-controlled content is escaped; only <b>...</b>
	// highlight tags are present.
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"` // "relevance"
}

// Search finds items whose title or text contains the query, case-insensitively.
// Results are ranked by match count with title matches weighted 5x.
func Search(st *store.Store, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	kind, err := parseOptionalKind(input.Kind)
	if err != nil {
		return nil, err
	}
	f := store.Filter{Query: query}
	if c := cleanOptionalString(input.Category); c != nil {
		f.Category = *c
	}
	if p := cleanOptionalString(input.Platform); p != nil {
		f.Platform = *p
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))

	type hit struct {
		it    *item.Item
		score int
		rank  int
	}
	matches := st.List(kind, f)
	hits := make([]hit, len(matches))
	for i, it := range matches {
		hits[i] = hit{
			it:    it,
			score: titleWeight*len(re.FindAllStringIndex(it.Title, -1)) + len(re.FindAllStringIndex(it.Text, -1)),
			rank:  i,
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rank < hits[j].rank
	})

	page, start, end := paginate(len(hits), input.Limit, input.Offset, DefaultSearchLimit, MaxSearchLimit)
	items := make([]SearchResultItem, 0, end-start)
	for _, h := range hits[start:end] {
		snippet := escapeSnippetHTML(markMatches(h.it.Text, re))
		items = append(items, SearchResultItem{
			ItemSummary: h.it.ToSummary(),
			Snippet:     truncateSnippet(snippet, MaxSnippetChars),
		})
	}

	return &SearchOutput{
		Items:      items,
		Pagination: page,
		Sort:       "relevance",
	}, nil
}

const (
	openMarker  = "[[[B]]]"
	closeMarker = "[[[/B]]]"
)

// markMatches returns text starting shortly before the first match, with
// every match wrapped in highlight markers.
func markMatches(text string, re *regexp.Regexp) string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	start := locs[0][0]
	for n := 0; n < snippetContext && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("...")
	}
	pos := start
	for _, loc := range locs {
		sb.WriteString(text[pos:loc[0]])
		sb.WriteString(openMarker)
		sb.WriteString(text[loc[0]:loc[1]])
		sb.WriteString(closeMarker)
		pos = loc[1]
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// truncateSnippet truncates a snippet to approximately maxChars while:
// 1. Preserving valid UTF-8 (never splits multi-byte runes)
// 2. Preserving markup integrity (closes any open <b> tags)
// 3. Preferring word boundaries when possible
func truncateSnippet(s string, maxChars int) string {
	if maxChars <= 0 {
		return "..."
	}

	if len(s) <= maxChars {
		return s
	}

	// Find a safe truncation point that doesn't split UTF-8 runes
	truncateAt := maxChars
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}

	if truncateAt == 0 {
		return "..."
	}

	truncated := s[:truncateAt]

	// Trim any partial tag or entity suffix. The only tags present are <b>
	// and </b>; user content may contain entities such as &lt;.
	if lastLT := strings.LastIndex(truncated, "<"); lastLT != -1 && !strings.Contains(truncated[lastLT:], ">") {
		truncated = truncated[:lastLT]
	}
	if lastAmp := strings.LastIndex(truncated, "&"); lastAmp != -1 && !strings.Contains(truncated[lastAmp:], ";") {
		truncated = truncated[:lastAmp]
	}

	// Cut at a word boundary if that keeps at least half the content
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > truncateAt/2 {
		truncated = truncated[:lastSpace]
	}

	unclosed := strings.Count(truncated, "<b>") - strings.Count(truncated, "</b>")
	for range unclosed {
		truncated += "</b>"
	}

	return truncated + "..."
}

// escapeSnippetHTML escapes user content in a snippet while turning the
// highlight markers into <b> tags.
func escapeSnippetHTML(s string) string {
	const (
		openPlaceholder  = "\x00PILLBOX_B_OPEN\x00"
		closePlaceholder = "\x00PILLBOX_B_CLOSE\x00"
	)

	s = strings.ReplaceAll(s, openMarker, openPlaceholder)
	s = strings.ReplaceAll(s, closeMarker, closePlaceholder)

	s = html.EscapeString(s)

	s = strings.ReplaceAll(s, openPlaceholder, "<b>")
	s = strings.ReplaceAll(s, closePlaceholder, "</b>")

	return s
}
