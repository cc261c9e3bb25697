package item

import (
	"strings"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase",
			input: "The Answer",
			want:  "the answer",
		},
		{
			name:  "padding",
			input: "  The answer is 42.  ",
			want:  "the answer is 42",
		},
		{
			name:  "collapse internal whitespace",
			input: "the\n\nanswer\t is",
			want:  "the answer is",
		},
		{
			name:  "trailing punctuation run",
			input: "done!!! ...",
			want:  "done",
		},
		{
			name:  "inner punctuation kept",
			input: "a.b, c",
			want:  "a.b, c",
		},
		{
			name:  "only punctuation",
			input: " ... ",
			want:  "",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonical(tt.input)
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("The answer is 42.", "chatgpt")

	if got := Fingerprint("  The answer is 42.  ", "chatgpt"); got != base {
		t.Error("whitespace padding should not change the fingerprint")
	}
	if got := Fingerprint("The answer is 42", "ChatGPT"); got != base {
		t.Error("trailing punctuation and platform case should not change the fingerprint")
	}
	if got := Fingerprint("The answer is 42.", "gemini"); got == base {
		t.Error("different platform should change the fingerprint")
	}
	if got := Fingerprint("The answer is 43.", "chatgpt"); got == base {
		t.Error("different text should change the fingerprint")
	}
	if len(base) != 64 {
		t.Errorf("len(Fingerprint) = %d, want 64", len(base))
	}
}

func TestContentKey(t *testing.T) {
	if ContentKey("Same text.") != ContentKey("same   text") {
		t.Error("ContentKey should ignore case, spacing, and trailing punctuation")
	}
	if ContentKey("one") == ContentKey("two") {
		t.Error("ContentKey should differ for different text")
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"日本語", 3},
	}

	for _, tt := range tests {
		if got := CountChars(tt.input); got != tt.want {
			t.Errorf("CountChars(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"one", 2},
		{"one two three", 4},
		{"  spaced   out  words  ", 4},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.input); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	t.Run("short text kept", func(t *testing.T) {
		if got := DeriveTitle("Explain X"); got != "Explain X" {
			t.Errorf("DeriveTitle() = %q", got)
		}
	})

	t.Run("newlines flattened", func(t *testing.T) {
		if got := DeriveTitle("line one\nline two\r\nthree"); got != "line one line two three" {
			t.Errorf("DeriveTitle() = %q", got)
		}
	})

	t.Run("long text truncated", func(t *testing.T) {
		text := strings.Repeat("a", 100)
		got := DeriveTitle(text)
		if got != strings.Repeat("a", TitleMaxChars)+"..." {
			t.Errorf("DeriveTitle() = %q", got)
		}
	})

	t.Run("exactly max not truncated", func(t *testing.T) {
		text := strings.Repeat("é", TitleMaxChars)
		if got := DeriveTitle(text); got != text {
			t.Errorf("DeriveTitle() = %q", got)
		}
	})
}
