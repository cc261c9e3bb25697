// Package store holds the organized collection of items.
//
// A Store is the single owner of item state. Every mutation runs under one
// write lock: it builds the next state from a copy of the current one,
// persists the resulting changeset in a single transaction, and only then
// publishes the new state. Readers take the read lock and always observe a
// complete state with contiguous order values per kind.
package store

import (
	"cmp"
	"context"
	"crypto/rand"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
)

// Persister is the durable storage behind a Store.
type Persister interface {
	Apply(ctx context.Context, cs *item.Changeset) error
	LoadAll(ctx context.Context) ([]*item.Item, error)
	LoadCategories(ctx context.Context) ([]item.Category, error)
}

// Scope selects which captured items a new capture is compared against.
type Scope string

const (
	// ScopePlatform compares against the capturing platform's recent items.
	ScopePlatform Scope = "platform"
	// ScopeGlobal compares against every platform's recent items.
	ScopeGlobal Scope = "global"
)

// DefaultDedupWindow is the number of recent captures per platform checked
// for duplicates when Options.DedupWindow is zero.
const DefaultDedupWindow = 20

// Options configures a Store.
type Options struct {
	Logger *zap.Logger

	// Tokens estimates token counts; nil uses the word heuristic.
	Tokens item.TokenCounter

	// MaxChars bounds item text; 0 disables the check.
	MaxChars int

	// DedupWindow is N in "the N most recent captures per platform".
	DedupWindow int
	DedupScope  Scope

	// CustomCategories are available in memory without being persisted.
	CustomCategories []string

	// Now returns the current time; nil uses time.Now.
	Now func() time.Time
}

// Store is the in-memory, write-through collection of items.
type Store struct {
	mu      sync.RWMutex
	st      *state
	p       Persister
	log     *zap.Logger
	tokens  item.TokenCounter
	entropy *ulid.MonotonicEntropy
	now     func() time.Time

	maxChars    int
	dedupWindow int
	dedupScope  Scope
}

// state is an immutable snapshot. Item pointers in a published state are
// never modified; mutations replace them with clones.
type state struct {
	items map[string]*item.Item

	// seqs holds each kind's ids in order; seqs[k][i].Order == i.
	seqs map[item.Kind][]string

	categories item.CategorySet

	// recent holds captured ids per lowercased platform, oldest first.
	recent map[string][]string

	// captureSeq is the last CaptureSeq handed out.
	captureSeq int64
}

func (s *state) clone() *state {
	next := &state{
		items:      make(map[string]*item.Item, len(s.items)),
		seqs:       make(map[item.Kind][]string, len(s.seqs)),
		categories: s.categories,
		recent:     make(map[string][]string, len(s.recent)),
		captureSeq: s.captureSeq,
	}
	for id, it := range s.items {
		next.items[id] = it
	}
	for k, ids := range s.seqs {
		next.seqs[k] = slices.Clone(ids)
	}
	for p, ids := range s.recent {
		next.recent[p] = slices.Clone(ids)
	}
	return next
}

// Open loads every item from p and returns a ready Store. Order gaps left
// by an earlier crash or manual edit are repaired and persisted.
func Open(ctx context.Context, p Persister, opts Options) (*Store, error) {
	s := &Store{
		p:           p,
		log:         opts.Logger,
		tokens:      opts.Tokens,
		entropy:     ulid.Monotonic(rand.Reader, 0),
		now:         opts.Now,
		maxChars:    opts.MaxChars,
		dedupWindow: opts.DedupWindow,
		dedupScope:  opts.DedupScope,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.tokens == nil {
		s.tokens = item.HeuristicCounter
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.dedupWindow == 0 {
		s.dedupWindow = DefaultDedupWindow
	}
	if s.dedupScope == "" {
		s.dedupScope = ScopePlatform
	}

	items, err := p.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	persisted, err := p.LoadCategories(ctx)
	if err != nil {
		return nil, err
	}

	cats := item.NewCategorySet(opts.CustomCategories...)
	for _, c := range persisted {
		cats, _, _ = cats.With(string(c))
	}

	st := &state{
		items:      make(map[string]*item.Item, len(items)),
		seqs:       make(map[item.Kind][]string),
		categories: cats,
		recent:     make(map[string][]string),
	}
	for _, it := range items {
		st.items[it.ID] = it
		st.seqs[it.Kind] = append(st.seqs[it.Kind], it.ID)
		if key := platformKey(it.Platform()); key != "" {
			st.recent[key] = append(st.recent[key], it.ID)
		}
		st.captureSeq = max(st.captureSeq, it.CaptureSeq)
	}
	// Rebuild capture history in capture order; rows written before
	// capture_seq existed fall back to creation order.
	for _, ids := range st.recent {
		slices.SortStableFunc(ids, func(a, b string) int {
			x, y := st.items[a], st.items[b]
			return cmp.Or(
				cmp.Compare(x.CaptureSeq, y.CaptureSeq),
				cmp.Compare(x.CreatedAt, y.CreatedAt),
				strings.Compare(x.ID, y.ID),
			)
		})
	}
	for k, ids := range st.seqs {
		sort.SliceStable(ids, func(i, j int) bool {
			return st.items[ids[i]].Order < st.items[ids[j]].Order
		})
		st.seqs[k] = ids
	}
	s.st = st

	// Repair non-contiguous orders.
	t := s.begin()
	for _, k := range item.Kinds {
		t.repack(k)
	}
	if !t.cs.Empty() {
		s.log.Warn("repairing item order", zap.Int("items", len(t.cs.Upserts)))
		if err := s.commit(ctx, t); err != nil {
			return nil, err
		}
	}

	s.log.Info("store opened",
		zap.Int("items", len(items)),
		zap.Int("custom_categories", len(persisted)),
		zap.Int("dedup_window", s.dedupWindow),
		zap.String("dedup_scope", string(s.dedupScope)),
	)
	return s, nil
}

func platformKey(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// txn accumulates one mutation against a private copy of the state.
type txn struct {
	next    *state
	cs      item.Changeset
	upserts map[string]int
	now     int64
}

func (s *Store) begin() *txn {
	return &txn{
		next:    s.st.clone(),
		upserts: make(map[string]int),
		now:     s.now().Unix(),
	}
}

// put stores it in the next state and records it for persistence.
func (t *txn) put(it *item.Item) {
	t.next.items[it.ID] = it
	if i, ok := t.upserts[it.ID]; ok {
		t.cs.Upserts[i] = it
		return
	}
	t.upserts[it.ID] = len(t.cs.Upserts)
	t.cs.Upserts = append(t.cs.Upserts, it)
}

// edit returns a writable copy of id's item, already recorded as changed.
func (t *txn) edit(id string) *item.Item {
	if i, ok := t.upserts[id]; ok {
		return t.cs.Upserts[i]
	}
	it := t.next.items[id].Clone()
	t.put(it)
	return it
}

// remove deletes id from the next state and its kind's sequence.
func (t *txn) remove(id string) {
	it := t.next.items[id]
	delete(t.next.items, id)
	t.next.seqs[it.Kind] = slices.DeleteFunc(t.next.seqs[it.Kind], func(x string) bool { return x == id })
	if i, ok := t.upserts[id]; ok {
		t.cs.Upserts = slices.Delete(t.cs.Upserts, i, i+1)
		delete(t.upserts, id)
		for j := i; j < len(t.cs.Upserts); j++ {
			t.upserts[t.cs.Upserts[j].ID] = j
		}
	}
	t.cs.Deletes = append(t.cs.Deletes, id)
}

// appendTo places id at the end of kind's sequence.
func (t *txn) appendTo(k item.Kind, id string) {
	t.next.seqs[k] = append(t.next.seqs[k], id)
}

// repack rewrites Order so kind's sequence is exactly 0..n-1.
func (t *txn) repack(k item.Kind) {
	for i, id := range t.next.seqs[k] {
		if t.next.items[id].Order != i {
			t.edit(id).Order = i
		}
	}
}

// commit persists t and publishes its state. On failure nothing changes.
func (s *Store) commit(ctx context.Context, t *txn) error {
	if err := s.p.Apply(ctx, &t.cs); err != nil {
		s.log.Error("persist changeset failed",
			zap.Int("upserts", len(t.cs.Upserts)),
			zap.Int("deletes", len(t.cs.Deletes)),
			zap.Error(err),
		)
		return err
	}
	s.st = t.next
	return nil
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.st.items[id]
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return it.Clone(), nil
}

// GetMany returns copies of the items in the order of ids. Every id must exist.
func (s *Store) GetMany(ids []string) ([]*item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*item.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := s.st.items[id]
		if !ok {
			return nil, errors.NewNotFound(id)
		}
		out = append(out, it.Clone())
	}
	return out, nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Category string
	Color    *item.Color
	Platform string

	// Query is a case-insensitive substring matched against title and text.
	Query string
}

func (f Filter) match(it *item.Item, query string) bool {
	if f.Category != "" && !strings.EqualFold(string(it.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	if f.Color != nil && it.Color != *f.Color {
		return false
	}
	if f.Platform != "" && platformKey(it.Platform()) != platformKey(f.Platform) {
		return false
	}
	if query != "" &&
		!strings.Contains(strings.ToLower(it.Title), query) &&
		!strings.Contains(strings.ToLower(it.Text), query) {
		return false
	}
	return true
}

// List returns items of kind sorted by order. An empty kind lists every
// kind in display order.
func (s *Store) List(kind item.Kind, f Filter) []*item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := item.Kinds
	if kind != "" {
		kinds = []item.Kind{kind}
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var out []*item.Item
	for _, k := range kinds {
		for _, id := range s.st.seqs[k] {
			it := s.st.items[id]
			if f.match(it, query) {
				out = append(out, it.Clone())
			}
		}
	}
	return out
}

// Count returns the number of items of kind.
func (s *Store) Count(kind item.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.seqs[kind])
}

// Categories returns every category items may use.
func (s *Store) Categories() []item.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.categories.All()
}
