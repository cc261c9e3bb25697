package item

import (
	"regexp"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/placeholder"
)

// LintInput contains parameters for linting item text.
type LintInput struct {
	Text     string
	Kind     Kind
	MaxChars int
}

// LintResult contains the results of linting item text.
type LintResult struct {
	Valid       bool
	TooLarge    bool
	ActualChars int
	MaxChars    int

	// Placeholders lists the [/NAME] slots found in a prompt.
	Placeholders []string

	// MalformedTokens lists [/...] tokens that look like placeholders but do
	// not follow the naming rules, so they will be sent verbatim.
	MalformedTokens []string
}

// looseTokenPattern matches anything shaped like [/...] on one line.
var looseTokenPattern = regexp.MustCompile(`\[/([^\]\n]*)\]`)

// Lint validates item text and returns a LintResult. Malformed tokens are
// reported but do not make the text invalid.
func Lint(input LintInput) *LintResult {
	result := &LintResult{
		Valid:       true,
		ActualChars: CountChars(input.Text),
		MaxChars:    input.MaxChars,
	}

	if input.MaxChars > 0 && result.ActualChars > input.MaxChars {
		result.TooLarge = true
		result.Valid = false
	}

	if input.Kind == KindPrompt {
		result.Placeholders = placeholder.Extract(input.Text)
		result.MalformedTokens = findMalformedTokens(input.Text)
	}

	return result
}

// CheckSize returns ITEM_TOO_LARGE when text exceeds maxChars (0 disables).
func CheckSize(text string, maxChars int) error {
	if maxChars <= 0 {
		return nil
	}
	if n := CountChars(text); n > maxChars {
		return errors.NewItemTooLarge(maxChars, n)
	}
	return nil
}

func findMalformedTokens(text string) []string {
	var malformed []string
	seen := make(map[string]bool)
	for _, m := range looseTokenPattern.FindAllStringSubmatch(text, -1) {
		if placeholder.IsValidName(m[1]) || seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		malformed = append(malformed, m[0])
	}
	return malformed
}
