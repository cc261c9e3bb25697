package item

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Predefined color labels.
const (
	ColorBlue   = "Blue"
	ColorGreen  = "Green"
	ColorYellow = "Yellow"
	ColorRed    = "Red"
	ColorPurple = "Purple"
	ColorGray   = "Gray"
)

// Palette maps each predefined label to its display hex.
var Palette = map[string]string{
	ColorBlue:   "#528BFF",
	ColorGreen:  "#2DA44E",
	ColorYellow: "#F2C94C",
	ColorRed:    "#EB5757",
	ColorPurple: "#9B6DFF",
	ColorGray:   "#8B8FA3",
}

// paletteOrder lists labels in display order.
var paletteOrder = []string{ColorBlue, ColorGreen, ColorYellow, ColorRed, ColorPurple, ColorGray}

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Color is either a predefined label (Label set) or a custom hex value
// (Hex set, Label empty).
type Color struct {
	Label string
	Hex   string
}

// Labeled returns the predefined color for label.
func Labeled(label string) Color {
	return Color{Label: label}
}

// Custom returns a custom color for hex.
func Custom(hex string) Color {
	return Color{Hex: strings.ToUpper(hex)}
}

// DefaultColor returns the color new items of kind receive.
func DefaultColor(k Kind) Color {
	switch k {
	case KindResponse:
		return Labeled(ColorBlue)
	case KindSummary:
		return Labeled(ColorGreen)
	default:
		return Labeled(ColorPurple)
	}
}

// ParseColor accepts a predefined label (case-insensitive) or "#RRGGBB".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if !hexPattern.MatchString(s) {
			return Color{}, fmt.Errorf("invalid hex color %q (want #RRGGBB)", s)
		}
		return Custom(s), nil
	}
	for _, label := range paletteOrder {
		if strings.EqualFold(label, s) {
			return Labeled(label), nil
		}
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

// IsCustom reports whether c carries a raw hex value.
func (c Color) IsCustom() bool {
	return c.Label == "" && c.Hex != ""
}

// IsZero reports whether no color is set.
func (c Color) IsZero() bool {
	return c.Label == "" && c.Hex == ""
}

// HexValue returns the display hex for c.
func (c Color) HexValue() string {
	if c.IsCustom() {
		return c.Hex
	}
	if hex, ok := Palette[c.Label]; ok {
		return hex
	}
	return Palette[ColorGray]
}

// String returns the label, or the hex for custom colors.
func (c Color) String() string {
	if c.IsCustom() {
		return c.Hex
	}
	return c.Label
}

// MarshalJSON encodes a color as its String form.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a label or hex string.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Color{}
		return nil
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
