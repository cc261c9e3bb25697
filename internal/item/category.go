package item

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is an organizational label. It is either one of the presets or a
// custom name registered in a CategorySet.
type Category string

const (
	CategoryLiteratureReview  Category = "Literature Review"
	CategoryMethodology       Category = "Methodology / Methods"
	CategoryDataExtraction    Category = "Data Extraction"
	CategoryAnalysis          Category = "Analysis / Interpretation"
	CategoryResultsSynthesis  Category = "Results Synthesis"
	CategoryLimitations       Category = "Limitations / Risks"
	CategoryFutureWork        Category = "Future Work / Ideas"
	CategoryProjectManagement Category = "Project Management"
	CategoryBackground        Category = "Background / Theory"
	CategoryUncategorized     Category = "Uncategorized"
)

// PresetCategories lists the built-in categories in display order.
var PresetCategories = []Category{
	CategoryLiteratureReview,
	CategoryMethodology,
	CategoryDataExtraction,
	CategoryAnalysis,
	CategoryResultsSynthesis,
	CategoryLimitations,
	CategoryFutureWork,
	CategoryProjectManagement,
	CategoryBackground,
	CategoryUncategorized,
}

// MaxCategoryChars bounds custom category names.
const MaxCategoryChars = 64

// IsPreset reports whether c is a built-in category.
func (c Category) IsPreset() bool {
	return slices.Contains(PresetCategories, c)
}

// ValidateCategoryName checks a custom category name and returns its trimmed form.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("category name is empty")
	}
	if utf8.RuneCountInString(name) > MaxCategoryChars {
		return "", fmt.Errorf("category name exceeds %d characters", MaxCategoryChars)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("category name contains control characters")
		}
	}
	return name, nil
}

// CategorySet is the set of categories items may use: the presets plus
// registered custom names. The zero value holds only the presets.
type CategorySet struct {
	custom []Category
}

// NewCategorySet builds a set from custom names, skipping invalid or
// duplicate ones.
func NewCategorySet(custom ...string) CategorySet {
	var s CategorySet
	for _, name := range custom {
		s, _, _ = s.With(name)
	}
	return s
}

// Lookup resolves name case-insensitively to a member of the set.
func (s CategorySet) Lookup(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.All() {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}

// Resolve maps name to a member of the set; "" means Uncategorized.
func (s CategorySet) Resolve(name string) (Category, error) {
	if strings.TrimSpace(name) == "" {
		return CategoryUncategorized, nil
	}
	if c, ok := s.Lookup(name); ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// With returns a copy of the set including name. added is false when the
// name was already a member.
func (s CategorySet) With(name string) (CategorySet, Category, bool) {
	valid, err := ValidateCategoryName(name)
	if err != nil {
		return s, "", false
	}
	if c, ok := s.Lookup(valid); ok {
		return s, c, false
	}
	c := Category(valid)
	return CategorySet{custom: append(slices.Clone(s.custom), c)}, c, true
}

// Custom returns the custom categories in registration order.
func (s CategorySet) Custom() []Category {
	return slices.Clone(s.custom)
}

// All returns presets followed by custom categories.
func (s CategorySet) All() []Category {
	all := make([]Category, 0, len(PresetCategories)+len(s.custom))
	all = append(all, PresetCategories...)
	return append(all, s.custom...)
}
