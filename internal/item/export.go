package item

// ExportRecord represents an item record in JSONL export format.
// It is used for parsing export files during import.
type ExportRecord struct {
	// Header detection field - true only for header line
	PillboxExport bool `json:"_pillbox_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Item fields
	ID             string   `json:"id,omitempty"`
	Kind           Kind     `json:"kind,omitempty"`
	Title          string   `json:"title,omitempty"`
	Text           string   `json:"text,omitempty"`
	Category       Category `json:"category,omitempty"`
	Color          Color    `json:"color,omitempty"`
	Order          int      `json:"order"`
	SourcePlatform *string  `json:"source_platform,omitempty"`
	SourceItems    []string `json:"source_items,omitempty"`
	Pending        bool     `json:"pending,omitempty"`
	Fingerprint    string   `json:"fingerprint,omitempty"`     // IGNORED on import, recomputed
	TextChars      int      `json:"text_chars,omitempty"`      // IGNORED on import, recomputed
	TokensEstimate int      `json:"tokens_estimate,omitempty"` // IGNORED on import, recomputed
	CreatedAt      int64    `json:"created_at,omitempty"`
	UpdatedAt      int64    `json:"updated_at,omitempty"`
}

// ToItem converts an ExportRecord to an Item, recomputing derived fields.
func (r *ExportRecord) ToItem(counter TokenCounter) *Item {
	it := &Item{
		ID:             r.ID,
		Kind:           r.Kind,
		Title:          r.Title,
		Category:       r.Category,
		Color:          r.Color,
		Order:          r.Order,
		SourcePlatform: r.SourcePlatform,
		SourceItems:    r.SourceItems,
		Pending:        r.Pending,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	it.SetText(r.Text, counter)
	return it
}

// ToExportRecord converts an Item to an ExportRecord for export.
func ToExportRecord(it *Item) *ExportRecord {
	return &ExportRecord{
		ID:             it.ID,
		Kind:           it.Kind,
		Title:          it.Title,
		Text:           it.Text,
		Category:       it.Category,
		Color:          it.Color,
		Order:          it.Order,
		SourcePlatform: it.SourcePlatform,
		SourceItems:    it.SourceItems,
		Pending:        it.Pending,
		Fingerprint:    it.Fingerprint,
		TextChars:      it.TextChars,
		TokensEstimate: it.TokensEstimate,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}
