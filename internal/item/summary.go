package item

// ItemSummary represents an item's metadata without the full text.
// Used for list operations to reduce data transfer.
type ItemSummary struct {
	ID             string   `json:"id"`
	Kind           Kind     `json:"kind"`
	Title          string   `json:"title"`
	Category       Category `json:"category"`
	Color          Color    `json:"color"`
	ColorHex       string   `json:"color_hex"`
	Order          int      `json:"order"`
	SourcePlatform *string  `json:"source_platform,omitempty"`
	Pending        bool     `json:"pending,omitempty"`
	TextChars      int      `json:"text_chars"`
	TokensEstimate int      `json:"tokens_estimate"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

// ToSummary converts an Item to an ItemSummary by stripping the text.
func (it *Item) ToSummary() ItemSummary {
	return ItemSummary{
		ID:             it.ID,
		Kind:           it.Kind,
		Title:          it.Title,
		Category:       it.Category,
		Color:          it.Color,
		ColorHex:       it.Color.HexValue(),
		Order:          it.Order,
		SourcePlatform: it.SourcePlatform,
		Pending:        it.Pending,
		TextChars:      it.TextChars,
		TokensEstimate: it.TokensEstimate,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}

// Changeset is the set of row changes one store mutation produces. It is
// persisted in a single transaction.
type Changeset struct {
	// Upserts are items whose rows are inserted or replaced
	Upserts []*Item

	// Deletes are ids whose rows are removed
	Deletes []string

	// Categories are custom category names to register
	Categories []Category
}

// Empty reports whether the changeset has nothing to persist.
func (c *Changeset) Empty() bool {
	return len(c.Upserts) == 0 && len(c.Deletes) == 0 && len(c.Categories) == 0
}
