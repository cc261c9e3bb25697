package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hpungsan/pillbox/internal/config"
)

var (
	zeroWidth    = strings.NewReplacer("\ufeff", "", "\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "")
	nbsp         = strings.NewReplacer("\u00a0", " ")
	lineEndings  = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	tabRun       = regexp.MustCompile(`\t+`)
	spaceRun     = regexp.MustCompile(` {2,}`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// Clean applies the normalization every platform shares: invisible
// characters and non-breaking spaces go, line endings become \n, tabs and
// space runs collapse to one space, trailing spaces on each line and runs of
// blank lines are removed, and the result is trimmed.
func Clean(raw string) string {
	text := zeroWidth.Replace(raw)
	text = nbsp.Replace(text)
	text = lineEndings.Replace(text)
	text = tabRun.ReplaceAllString(text, " ")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text = strings.Join(lines, "\n")

	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Normalizer cleans captured text, then strips each platform's boilerplate lines.
type Normalizer struct {
	boilerplate map[string][]*regexp.Regexp
}

// NewNormalizer compiles the boilerplate patterns of every platform.
func NewNormalizer(platforms map[string]config.Platform) (*Normalizer, error) {
	n := &Normalizer{boilerplate: make(map[string][]*regexp.Regexp)}
	for name, p := range platforms {
		key := strings.ToLower(name)
		for _, expr := range p.Boilerplate {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("platform %s: boilerplate %q: %w", name, expr, err)
			}
			n.boilerplate[key] = append(n.boilerplate[key], re)
		}
	}
	return n, nil
}

// Normalize returns raw as it is stored and fingerprinted for platform.
// A nil Normalizer only cleans.
func (n *Normalizer) Normalize(platform, raw string) string {
	text := Clean(raw)
	if n == nil {
		return text
	}
	patterns := n.boilerplate[strings.ToLower(strings.TrimSpace(platform))]
	if len(patterns) == 0 || text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !matchesAny(patterns, strings.TrimSpace(line)) {
			kept = append(kept, line)
		}
	}
	return Clean(strings.Join(kept, "\n"))
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
