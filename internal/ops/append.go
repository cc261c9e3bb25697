package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// AppendInput contains parameters for the Append operation.
type AppendInput struct {
	ID      string // required
	Content string // required

	// Section targets a markdown heading in the item text. Empty appends
	// to the end of the text.
	Section string
}

// AppendOutput contains the result of the Append operation.
type AppendOutput struct {
	ID         string `json:"id"`
	SectionHit string `json:"section_hit,omitempty"` // heading line matched
	Replaced   bool   `json:"replaced"`              // a filler body was replaced
	TextChars  int    `json:"text_chars"`
}

// Append adds content to an item's text. With a section, the content goes
// under that heading (exact, case-insensitive match), replacing a filler body
// such as "(tbd)". The result must still fit the item size limit.
func Append(ctx context.Context, st *store.Store, input AppendInput) (*AppendOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}

	it, err := st.Get(input.ID)
	if err != nil {
		return nil, err
	}

	out := &AppendOutput{ID: it.ID}
	var text string
	if strings.TrimSpace(input.Section) == "" {
		text = strings.TrimRight(it.Text, " \t\n")
		if text != "" {
			text += "\n\n"
		}
		text += content
	} else {
		sections := item.Sections(it.Text)
		if len(sections) == 0 {
			return nil, errors.NewInvalidRequest("item text has no markdown headings; omit section to append at the end")
		}
		sec := item.FindSection(sections, input.Section)
		if sec == nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("section %q not found; available: %v", input.Section, item.SectionNames(sections)))
		}
		text = item.InsertIntoSection(it.Text, sec, content)
		out.SectionHit = sec.Heading
		out.Replaced = sec.Blank
	}

	updated, err := st.Update(ctx, it.ID, store.UpdateInput{Text: &text})
	if err != nil {
		return nil, err
	}
	out.TextChars = updated.TextChars
	return out, nil
}
