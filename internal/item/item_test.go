package item

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hpungsan/pillbox/internal/errors"
)

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"prompt":    KindPrompt,
		"Response":  KindResponse,
		" SUMMARY ": KindSummary,
	} {
		got, err := ParseKind(input)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseKind("note"); err == nil {
		t.Error("ParseKind(note) should fail")
	}
}

func TestItem_Clone(t *testing.T) {
	platform := "chatgpt"
	orig := &Item{ID: "a", SourcePlatform: &platform, SourceItems: []string{"r1"}}

	c := orig.Clone()
	*c.SourcePlatform = "gemini"
	c.SourceItems[0] = "r2"

	if orig.Platform() != "chatgpt" {
		t.Errorf("clone shares SourcePlatform: %q", orig.Platform())
	}
	if orig.SourceItems[0] != "r1" {
		t.Errorf("clone shares SourceItems: %v", orig.SourceItems)
	}
}

func TestItem_SetText(t *testing.T) {
	platform := "gemini"
	it := &Item{SourcePlatform: &platform}
	it.SetText("Hello there world", HeuristicCounter)

	if it.TextChars != 17 {
		t.Errorf("TextChars = %d, want 17", it.TextChars)
	}
	if it.TokensEstimate != 4 {
		t.Errorf("TokensEstimate = %d, want 4", it.TokensEstimate)
	}
	if it.Fingerprint != Fingerprint("Hello there world", "gemini") {
		t.Error("Fingerprint not computed with platform")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{"Blue", Labeled(ColorBlue), false},
		{"purple", Labeled(ColorPurple), false},
		{"#a1b2c3", Custom("#A1B2C3"), false},
		{"#ABC", Color{}, true},
		{"#GGGGGG", Color{}, true},
		{"Orange", Color{}, true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestColor_HexValue(t *testing.T) {
	if got := Labeled(ColorGreen).HexValue(); got != "#2DA44E" {
		t.Errorf("Green HexValue() = %q", got)
	}
	if got := Custom("#112233").HexValue(); got != "#112233" {
		t.Errorf("custom HexValue() = %q", got)
	}
	if got := Labeled("Mauve").HexValue(); got != Palette[ColorGray] {
		t.Errorf("unknown label HexValue() = %q, want gray", got)
	}
}

func TestColor_JSON(t *testing.T) {
	data, err := json.Marshal(Custom("#abcdef"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"#ABCDEF"` {
		t.Errorf("Marshal = %s", data)
	}

	var c Color
	if err := json.Unmarshal([]byte(`"red"`), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if c != Labeled(ColorRed) {
		t.Errorf("Unmarshal = %+v", c)
	}

	if err := json.Unmarshal([]byte(`"chartreuse"`), &c); err == nil {
		t.Error("Unmarshal should reject unknown labels")
	}
}

func TestDefaultColor(t *testing.T) {
	if DefaultColor(KindPrompt).Label != ColorPurple {
		t.Error("prompt default should be Purple")
	}
	if DefaultColor(KindResponse).Label != ColorBlue {
		t.Error("response default should be Blue")
	}
	if DefaultColor(KindSummary).Label != ColorGreen {
		t.Error("summary default should be Green")
	}
}

func TestCategorySet(t *testing.T) {
	s := NewCategorySet("Grant Writing", "grant writing", "", "Data Extraction")

	if len(s.Custom()) != 1 {
		t.Fatalf("Custom() = %v, want 1 entry", s.Custom())
	}

	c, err := s.Resolve("grant WRITING")
	if err != nil || c != "Grant Writing" {
		t.Errorf("Resolve(custom) = %q, %v", c, err)
	}

	c, err = s.Resolve("")
	if err != nil || c != CategoryUncategorized {
		t.Errorf("Resolve(\"\") = %q, %v", c, err)
	}

	c, err = s.Resolve("results synthesis")
	if err != nil || c != CategoryResultsSynthesis {
		t.Errorf("Resolve(preset) = %q, %v", c, err)
	}

	if _, err := s.Resolve("Astrology"); err == nil {
		t.Error("Resolve(unknown) should fail")
	}

	next, added, ok := s.With("Astrology")
	if !ok || added != "Astrology" {
		t.Errorf("With() = %q, %v", added, ok)
	}
	if _, err := s.Resolve("Astrology"); err == nil {
		t.Error("With() must not mutate the receiver")
	}
	if _, err := next.Resolve("astrology"); err != nil {
		t.Errorf("new set should contain Astrology: %v", err)
	}
	if got := len(next.All()); got != len(PresetCategories)+2 {
		t.Errorf("len(All()) = %d", got)
	}
}

func TestValidateCategoryName(t *testing.T) {
	if _, err := ValidateCategoryName("   "); err == nil {
		t.Error("blank name should fail")
	}
	if _, err := ValidateCategoryName(strings.Repeat("x", MaxCategoryChars+1)); err == nil {
		t.Error("long name should fail")
	}
	if _, err := ValidateCategoryName("bad\x07name"); err == nil {
		t.Error("control characters should fail")
	}
	if got, err := ValidateCategoryName("  Field Notes "); err != nil || got != "Field Notes" {
		t.Errorf("ValidateCategoryName() = %q, %v", got, err)
	}
}

func TestLint(t *testing.T) {
	t.Run("prompt placeholders and malformed tokens", func(t *testing.T) {
		result := Lint(LintInput{
			Text:     "Explain [/TOPIC] to [/audience] with [/TOPIC] and [/ X]",
			Kind:     KindPrompt,
			MaxChars: 1000,
		})
		if !result.Valid {
			t.Error("expected valid")
		}
		if len(result.Placeholders) != 1 || result.Placeholders[0] != "TOPIC" {
			t.Errorf("Placeholders = %v", result.Placeholders)
		}
		if len(result.MalformedTokens) != 2 {
			t.Errorf("MalformedTokens = %v, want 2", result.MalformedTokens)
		}
	})

	t.Run("too large", func(t *testing.T) {
		result := Lint(LintInput{Text: strings.Repeat("a", 11), Kind: KindResponse, MaxChars: 10})
		if result.Valid || !result.TooLarge {
			t.Errorf("expected too large, got %+v", result)
		}
		if result.Placeholders != nil {
			t.Error("responses are not scanned for placeholders")
		}
	})
}

func TestCheckSize(t *testing.T) {
	if err := CheckSize("abc", 3); err != nil {
		t.Errorf("CheckSize at limit: %v", err)
	}
	if err := CheckSize("abcd", 0); err != nil {
		t.Errorf("CheckSize disabled: %v", err)
	}
	err := CheckSize("abcd", 3)
	if !errors.Is(err, errors.ErrItemTooLarge) {
		t.Errorf("CheckSize over limit = %v, want ITEM_TOO_LARGE", err)
	}
}

func TestExportRecord_ToItem(t *testing.T) {
	platform := "perplexity"
	r := &ExportRecord{
		ID:             "01HX",
		Kind:           KindResponse,
		Title:          "t",
		Text:           "Some response text",
		Category:       CategoryAnalysis,
		Color:          Labeled(ColorRed),
		SourcePlatform: &platform,
		Fingerprint:    "stale",
		TextChars:      999,
	}

	it := r.ToItem(HeuristicCounter)

	if it.Fingerprint != Fingerprint("Some response text", "perplexity") {
		t.Error("Fingerprint should be recomputed")
	}
	if it.TextChars != 18 {
		t.Errorf("TextChars = %d, want 18", it.TextChars)
	}

	back := ToExportRecord(it)
	if back.ID != "01HX" || back.Kind != KindResponse || back.Color != Labeled(ColorRed) {
		t.Errorf("ToExportRecord() = %+v", back)
	}
}
