package item

import (
	"regexp"
	"slices"
	"strings"
)

// Section is one markdown heading and the text under it, as byte offsets
// into the item text.
type Section struct {
	Heading string // full heading line, e.g. "## Findings"
	Name    string // heading text, e.g. "Findings"
	Start   int    // offset of the heading line
	Body    int    // offset of the first byte after the heading line
	End     int    // offset of the next heading or len(text)

	// Blank is true when the body is empty or a filler such as "(tbd)".
	Blank bool
}

var (
	headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+([^\n]+?)[ \t]*$`)

	// fenceLine matches ``` or ~~~ fences indented by at most three spaces.
	fenceLine = regexp.MustCompile("(?m)^[ ]{0,3}(`{3,}|~{3,})")
)

var fillers = []string{"(pending)", "(none)", "(empty)", "(tbd)", "(n/a)", "tbd", "n/a", "none", "pending", "-"}

// Sections splits markdown text at its headings. Headings inside fenced code
// blocks are ignored. It returns nil when the text has no headings.
func Sections(text string) []Section {
	fences := fencedSpans(text)
	var heads [][]int
	for _, m := range headingPattern.FindAllStringSubmatchIndex(text, -1) {
		if !within(m[0], fences) {
			heads = append(heads, m)
		}
	}
	if len(heads) == 0 {
		return nil
	}

	out := make([]Section, len(heads))
	for i, m := range heads {
		s := Section{
			Heading: text[m[0]:m[1]],
			Name:    text[m[4]:m[5]],
			Start:   m[0],
			Body:    m[1],
			End:     len(text),
		}
		if s.Body < len(text) && text[s.Body] == '\n' {
			s.Body++
		}
		if i+1 < len(heads) {
			s.End = heads[i+1][0]
		}
		body := ""
		if s.Body < s.End {
			body = text[s.Body:s.End]
		}
		s.Blank = isFiller(body)
		out[i] = s
	}
	return out
}

// FindSection returns the section whose heading text equals name,
// case-insensitively, or nil.
func FindSection(sections []Section, name string) *Section {
	name = strings.TrimSpace(name)
	for i := range sections {
		if strings.EqualFold(strings.TrimSpace(sections[i].Name), name) {
			return &sections[i]
		}
	}
	return nil
}

// SectionNames lists the heading texts of sections in order.
func SectionNames(sections []Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

// InsertIntoSection adds content to s within text. A blank section's filler
// is replaced; otherwise content follows the existing body after a blank line.
func InsertIntoSection(text string, s *Section, content string) string {
	if s.Blank {
		return text[:s.Body] + content + "\n" + text[s.End:]
	}
	body := strings.TrimRight(text[s.Body:s.End], " \t\n")
	return text[:s.Body] + body + "\n\n" + content + "\n" + text[s.End:]
}

// fencedSpans returns [start, end) offsets of fenced code blocks. A fence
// closes only on the same character repeated at least as many times.
func fencedSpans(text string) [][2]int {
	var (
		spans  [][2]int
		open   bool
		char   byte
		length int
		start  int
	)
	for _, m := range fenceLine.FindAllStringSubmatchIndex(text, -1) {
		fence := text[m[2]:m[3]]
		switch {
		case !open:
			open, char, length, start = true, fence[0], len(fence), m[0]
		case fence[0] == char && len(fence) >= length:
			spans = append(spans, [2]int{start, m[1]})
			open = false
		}
	}
	return spans
}

func within(pos int, spans [][2]int) bool {
	for _, sp := range spans {
		if pos >= sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}

func isFiller(body string) bool {
	body = strings.ToLower(strings.TrimSpace(body))
	return body == "" || slices.Contains(fillers, body)
}
