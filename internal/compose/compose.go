// Package compose merges an ordered selection of prompts into one outbound text.
//
// Composition is pure: it reads the items it is given and never touches a
// store. The output preserves selection order exactly.
package compose

import (
	"fmt"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/placeholder"
)

// DefaultSeparator joins composed parts when no separator is given.
const DefaultSeparator = "\n\n"

// Compose resolves each selected prompt against values and joins the results
// with sep, in selection order. Every item must be a Prompt. It fails with
// UNRESOLVED_PLACEHOLDER naming the first open placeholder across the
// selection when any placeholder has no value.
func Compose(selection []*item.Item, values map[string]string, sep string) (string, error) {
	if len(selection) == 0 {
		return "", errors.NewInvalidRequest("selection must not be empty")
	}
	if err := requirePrompts(selection); err != nil {
		return "", err
	}

	if missing := missingAcross(selection, values); len(missing) > 0 {
		return "", errors.NewUnresolvedPlaceholder(missing[0], missing)
	}

	parts := make([]string, len(selection))
	for i, it := range selection {
		text, err := placeholder.Resolve(it.Text, values)
		if err != nil {
			return "", fmt.Errorf("selection[%d]: %w", i, err)
		}
		parts[i] = text
	}
	return strings.Join(parts, separator(sep)), nil
}

// PreviewPlaceholders returns the union of the selection's placeholders in
// first-occurrence order across the selection.
func PreviewPlaceholders(selection []*item.Item) []string {
	var names []string
	seen := make(map[string]bool)
	for _, it := range selection {
		for _, name := range placeholder.Extract(it.Text) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Preview is the non-failing variant of Compose used while values are still
// being entered. Open placeholders stay as [/NAME] and are returned as
// missing. Only a non-Prompt item in the selection is an error.
func Preview(selection []*item.Item, values map[string]string, sep string) (string, []string, error) {
	if err := requirePrompts(selection); err != nil {
		return "", nil, err
	}
	parts := make([]string, len(selection))
	for i, it := range selection {
		parts[i], _ = placeholder.Render(it.Text, values)
	}
	return strings.Join(parts, separator(sep)), missingAcross(selection, values), nil
}

func requirePrompts(selection []*item.Item) error {
	for _, it := range selection {
		if it.Kind != item.KindPrompt {
			return errors.NewInvalidKind(it.ID, string(it.Kind), string(item.KindPrompt))
		}
	}
	return nil
}

func missingAcross(selection []*item.Item, values map[string]string) []string {
	var missing []string
	for _, name := range PreviewPlaceholders(selection) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func separator(sep string) string {
	if sep == "" {
		return DefaultSeparator
	}
	return sep
}
