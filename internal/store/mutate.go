package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
)

// CreateInput describes a new item.
type CreateInput struct {
	Kind item.Kind
	Text string

	// Title overrides the title derived from Text.
	Title string

	// Category is resolved against the category set; "" means Uncategorized.
	Category string

	// Color defaults to the kind's color when zero.
	Color item.Color

	SourcePlatform string
	SourceItems    []string

	// SourceRefs index earlier or later inputs of the same CreateMany call;
	// their new ids are appended to SourceItems.
	SourceRefs []int
}

// Create adds an item at the end of its kind's sequence.
func (s *Store) Create(ctx context.Context, in CreateInput) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.begin()
	it, err := s.create(t, in, false)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	return it.Clone(), nil
}

// CreateMany adds items in the given order, all or nothing. Unknown
// categories are registered instead of rejected.
func (s *Store) CreateMany(ctx context.Context, ins []CreateInput) ([]*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.begin()
	created := make([]*item.Item, 0, len(ins))
	for i, in := range ins {
		it, err := s.create(t, in, true)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, it)
	}
	for i, in := range ins {
		for _, ref := range in.SourceRefs {
			if ref < 0 || ref >= len(created) || ref == i {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("item %d: source ref %d out of range", i, ref))
			}
			created[i].SourceItems = append(created[i].SourceItems, created[ref].ID)
		}
	}
	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}

	out := make([]*item.Item, len(created))
	for i, it := range created {
		out[i] = it.Clone()
	}
	return out, nil
}

func (s *Store) create(t *txn, in CreateInput, registerCategories bool) (*item.Item, error) {
	if !slices.Contains(item.Kinds, in.Kind) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown kind %q", in.Kind))
	}
	if err := item.CheckSize(in.Text, s.maxChars); err != nil {
		return nil, err
	}

	cat, err := t.category(in.Category, registerCategories)
	if err != nil {
		return nil, err
	}

	it := &item.Item{
		ID:          s.newID(),
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		Category:    cat,
		Color:       in.Color,
		Order:       len(t.next.seqs[in.Kind]),
		SourceItems: slices.Clone(in.SourceItems),
		CreatedAt:   t.now,
		UpdatedAt:   t.now,
	}
	if it.Title == "" {
		it.Title = item.DeriveTitle(in.Text)
	}
	if it.Color.IsZero() {
		it.Color = item.DefaultColor(in.Kind)
	}
	if p := strings.TrimSpace(in.SourcePlatform); p != "" {
		it.SourcePlatform = &p
	}
	it.SetText(in.Text, s.tokens)

	t.put(it)
	t.appendTo(it.Kind, it.ID)
	t.next.recordCapture(it)
	return it, nil
}

// category resolves name in the next state's set, optionally registering it.
func (t *txn) category(name string, register bool) (item.Category, error) {
	cat, err := t.next.categories.Resolve(name)
	if err == nil {
		return cat, nil
	}
	if !register {
		return "", errors.NewInvalidRequest(err.Error())
	}
	valid, verr := item.ValidateCategoryName(name)
	if verr != nil {
		return "", errors.NewInvalidRequest(verr.Error())
	}
	next, cat, added := t.next.categories.With(valid)
	if added {
		t.next.categories = next
		t.cs.Categories = append(t.cs.Categories, cat)
	}
	return cat, nil
}

// UpdateInput lists the fields to change; nil fields are left alone.
type UpdateInput struct {
	Text     *string
	Title    *string
	Category *string
	Color    *item.Color
}

// Update changes an item's text, title, category, or color. Changing the
// text recomputes the fingerprint and, unless a title is supplied, the title.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.items[id]; !ok {
		return nil, errors.NewNotFound(id)
	}

	t := s.begin()
	it := t.edit(id)

	if in.Text != nil {
		if err := item.CheckSize(*in.Text, s.maxChars); err != nil {
			return nil, err
		}
		if it.Title == item.DeriveTitle(it.Text) && in.Title == nil {
			it.Title = item.DeriveTitle(*in.Text)
		}
		it.SetText(*in.Text, s.tokens)
		if it.Pending && strings.TrimSpace(*in.Text) != "" {
			it.Pending = false
		}
	}
	if in.Title != nil {
		it.Title = strings.TrimSpace(*in.Title)
		if it.Title == "" {
			it.Title = item.DeriveTitle(it.Text)
		}
	}
	if in.Category != nil {
		cat, err := t.category(*in.Category, false)
		if err != nil {
			return nil, err
		}
		it.Category = cat
	}
	if in.Color != nil {
		it.Color = *in.Color
		if it.Color.IsZero() {
			it.Color = item.DefaultColor(it.Kind)
		}
	}
	it.UpdatedAt = t.now

	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	return it.Clone(), nil
}

// Move changes an item's kind, appending it to the destination sequence and
// closing the gap in the source sequence. Moving to the current kind is a no-op.
func (s *Store) Move(ctx context.Context, id string, to item.Kind) (*item.Item, error) {
	moved, err := s.BulkMove(ctx, []string{id}, to)
	if err != nil {
		return nil, err
	}
	return moved[0], nil
}

// BulkMove moves every id to kind, all or nothing. Items are appended in the
// order given; items already of kind keep their position.
func (s *Store) BulkMove(ctx context.Context, ids []string, to item.Kind) ([]*item.Item, error) {
	if !slices.Contains(item.Kinds, to) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown kind %q", to))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids = dedupe(ids)
	if err := s.requireAll(ids); err != nil {
		return nil, err
	}

	t := s.begin()
	sources := make(map[item.Kind]bool)
	for _, id := range ids {
		from := t.next.items[id].Kind
		if from == to {
			continue
		}
		t.next.seqs[from] = slices.DeleteFunc(t.next.seqs[from], func(x string) bool { return x == id })
		t.appendTo(to, id)
		it := t.edit(id)
		it.Kind = to
		it.UpdatedAt = t.now
		sources[from] = true
	}
	for k := range sources {
		t.repack(k)
	}
	t.repack(to)

	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	return cloneIDs(s.st, ids), nil
}

// Reorder replaces kind's sequence with ids. ids must name exactly the
// items currently of kind, each once.
func (s *Store) Reorder(ctx context.Context, kind item.Kind, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.st.seqs[kind]
	if missing, unexpected := diffSets(current, ids); len(missing) > 0 || len(unexpected) > 0 || len(ids) != len(current) {
		if len(missing) == 0 && len(unexpected) == 0 {
			unexpected = duplicates(ids)
		}
		return errors.NewInvalidReorder(string(kind), missing, unexpected)
	}

	t := s.begin()
	t.next.seqs[kind] = slices.Clone(ids)
	t.repack(kind)
	for _, it := range t.cs.Upserts {
		it.UpdatedAt = t.now
	}
	return s.commit(ctx, t)
}

// Delete removes one item and closes the gap in its kind's sequence.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DeleteMany(ctx, []string{id})
	return err
}

// DeleteMany removes every id, all or nothing, and returns how many were deleted.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids = dedupe(ids)
	if err := s.requireAll(ids); err != nil {
		return 0, err
	}

	t := s.begin()
	kinds := make(map[item.Kind]bool)
	for _, id := range ids {
		kinds[t.next.items[id].Kind] = true
		t.remove(id)
	}
	for k := range kinds {
		t.repack(k)
	}
	t.next.pruneRecent()

	if err := s.commit(ctx, t); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// BulkDelete is DeleteMany.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int, error) {
	return s.DeleteMany(ctx, ids)
}

// BulkUpdateInput lists the metadata to apply; nil fields are left alone.
type BulkUpdateInput struct {
	Category *string
	Color    *item.Color
}

// BulkUpdate applies category and color changes to every id, all or nothing.
func (s *Store) BulkUpdate(ctx context.Context, ids []string, in BulkUpdateInput) ([]*item.Item, error) {
	if in.Category == nil && in.Color == nil {
		return nil, errors.NewInvalidRequest("at least one of category or color is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids = dedupe(ids)
	if err := s.requireAll(ids); err != nil {
		return nil, err
	}

	t := s.begin()
	var cat item.Category
	if in.Category != nil {
		var err error
		if cat, err = t.category(*in.Category, false); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		it := t.edit(id)
		if in.Category != nil {
			it.Category = cat
		}
		if in.Color != nil {
			it.Color = *in.Color
			if it.Color.IsZero() {
				it.Color = item.DefaultColor(it.Kind)
			}
		}
		it.UpdatedAt = t.now
	}

	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	return cloneIDs(s.st, ids), nil
}

// BulkExport returns copies of the items in the order of ids. With no ids
// it returns every item, grouped by kind and sorted by order.
func (s *Store) BulkExport(ids []string) ([]*item.Item, error) {
	if len(ids) == 0 {
		return s.List("", Filter{}), nil
	}
	return s.GetMany(dedupe(ids))
}

// AddCategory registers a custom category. added is false when it already existed.
func (s *Store) AddCategory(ctx context.Context, name string) (cat item.Category, added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid, err := item.ValidateCategoryName(name)
	if err != nil {
		return "", false, errors.NewInvalidRequest(err.Error())
	}
	if c, ok := s.st.categories.Lookup(valid); ok {
		return c, false, nil
	}

	t := s.begin()
	cat, err = t.category(valid, true)
	if err != nil {
		return "", false, err
	}
	if err := s.commit(ctx, t); err != nil {
		return "", false, err
	}
	return cat, true, nil
}

// requireAll returns NOT_FOUND for the first id missing from the current state.
func (s *Store) requireAll(ids []string) error {
	if len(ids) == 0 {
		return errors.NewInvalidRequest("ids must not be empty")
	}
	for _, id := range ids {
		if _, ok := s.st.items[id]; !ok {
			return errors.NewNotFound(id)
		}
	}
	return nil
}

func cloneIDs(st *state, ids []string) []*item.Item {
	out := make([]*item.Item, len(ids))
	for i, id := range ids {
		out[i] = st.items[id].Clone()
	}
	return out
}

// dedupe drops repeated ids, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// diffSets returns ids in want but not got, and ids in got but not want.
func diffSets(want, got []string) (missing, unexpected []string) {
	wantSet := make(map[string]bool, len(want))
	for _, id := range want {
		wantSet[id] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, id := range got {
		gotSet[id] = true
		if !wantSet[id] {
			unexpected = append(unexpected, id)
		}
	}
	for _, id := range want {
		if !gotSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, unexpected
}

func duplicates(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var dups []string
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	return dups
}
