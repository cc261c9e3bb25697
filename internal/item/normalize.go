package item

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// TitleMaxChars is the length of a derived title before truncation.
const TitleMaxChars = 80

// Canonical reduces text to the form compared for duplicate detection:
// 1. Collapse all whitespace runs to single spaces
// 2. Lowercase
// 3. Strip trailing punctuation and whitespace
func Canonical(text string) string {
	s := whitespaceRegex.ReplaceAllString(text, " ")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Fingerprint hashes the canonical text together with the platform.
func Fingerprint(text, platform string) string {
	sum := sha256.Sum256([]byte(Canonical(text) + "\x00" + strings.ToLower(platform)))
	return hex.EncodeToString(sum[:])
}

// ContentKey hashes the canonical text alone, for cross-platform comparison.
func ContentKey(text string) string {
	sum := sha256.Sum256([]byte(Canonical(text)))
	return hex.EncodeToString(sum[:])
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens estimates token count using a word-based heuristic
// (1.3 tokens per word).
func EstimateTokens(text string) int {
	words := strings.Fields(strings.TrimSpace(text))
	return int(math.Ceil(float64(len(words)) * 1.3))
}

// HeuristicCounter counts tokens with EstimateTokens.
var HeuristicCounter TokenCounter = TokenCounterFunc(EstimateTokens)

// DeriveTitle builds a display title from the first TitleMaxChars
// characters of text with newlines flattened.
func DeriveTitle(text string) string {
	flat := strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text))
	runes := []rune(flat)
	if len(runes) <= TitleMaxChars {
		return flat
	}
	return string(runes[:TitleMaxChars]) + "..."
}
