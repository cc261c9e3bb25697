// Package placeholder parses and fills [/NAME] slots in prompt text.
//
// A placeholder name is one uppercase ASCII letter or underscore followed by
// any number of uppercase ASCII letters, digits, or underscores:
//
//	[/TOPIC]  [/START_YEAR]  [/_DRAFT2]
//
// Anything else in brackets, such as [/topic], [/ X] or [/2024], is ordinary
// text and is never reported, resolved, or altered.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
)

// tokenPattern matches a [/NAME] placeholder token.
var tokenPattern = regexp.MustCompile(`\[/([A-Z_][A-Z0-9_]*)\]`)

// namePattern matches a bare placeholder name.
var namePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// valueEntryPattern matches a [/NAME]="value" entry in free text.
var valueEntryPattern = regexp.MustCompile(`\[/([A-Z_][A-Z0-9_]*)\]="([^"]*)"`)

// blankRunPattern matches three or more consecutive newlines.
var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// Token returns the placeholder token for name, e.g. "TOPIC" -> "[/TOPIC]".
func Token(name string) string {
	return "[/" + name + "]"
}

// IsValidName reports whether name is a legal placeholder name.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Extract returns placeholder names in first-occurrence order, de-duplicated.
func Extract(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing returns the placeholders of text that have no entry in values,
// in first-occurrence order.
func Missing(text string, values map[string]string) []string {
	var missing []string
	for _, name := range Extract(text) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Resolve replaces every placeholder with its value. It fails with
// UNRESOLVED_PLACEHOLDER if any placeholder has no value; nothing is
// substituted in that case. Values are inserted literally, so a value that
// itself looks like a placeholder is not expanded again.
func Resolve(text string, values map[string]string) (string, error) {
	if missing := Missing(text, values); len(missing) > 0 {
		return "", errors.NewUnresolvedPlaceholder(missing[0], missing)
	}
	return substitute(text, values), nil
}

// Render is the non-failing variant of Resolve used for live previews.
// Placeholders without a value stay in the output as [/NAME]; their names
// are returned in first-occurrence order.
func Render(text string, values map[string]string) (string, []string) {
	return substitute(text, values), Missing(text, values)
}

// substitute performs a single left-to-right replacement pass.
func substitute(text string, values map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[2 : len(tok)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}

// ParseValues collects [/NAME]="value" entries from free text. When a name
// appears more than once the last entry wins.
func ParseValues(text string) map[string]string {
	matches := valueEntryPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	values := make(map[string]string, len(matches))
	for _, m := range matches {
		values[m[1]] = m[2]
	}
	return values
}

// StripValueEntries removes [/NAME]="value" entries from free text and
// tidies the blank lines they leave behind.
func StripValueEntries(text string) string {
	result := valueEntryPattern.ReplaceAllString(text, "")
	result = blankRunPattern.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
