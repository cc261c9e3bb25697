package store

import (
	"context"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
)

// PendingInput describes a summary awaiting its text.
type PendingInput struct {
	Platform    string
	SourceItems []string
	Title       string
	Category    string
}

// CreatePending adds an empty Summary item marked pending.
func (s *Store) CreatePending(ctx context.Context, in PendingInput) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range in.SourceItems {
		if _, ok := s.st.items[id]; !ok {
			return nil, errors.NewNotFound(id)
		}
	}

	t := s.begin()
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = "Summary (pending)"
	}
	it, err := s.create(t, CreateInput{
		Kind:           item.KindSummary,
		Title:          title,
		Category:       in.Category,
		SourcePlatform: in.Platform,
		SourceItems:    in.SourceItems,
	}, false)
	if err != nil {
		return nil, err
	}
	it.Pending = true

	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}
	return it.Clone(), nil
}

// CaptureCommit is a normalized capture ready to be stored.
type CaptureCommit struct {
	// Kind of item to create; Response when empty. Ignored with PendingID.
	Kind item.Kind

	Platform string
	Text     string

	// PendingID completes that pending Summary in place instead of
	// creating a new item.
	PendingID string

	// Claim is called under the store lock once every check has passed and
	// right before the commit. Returning false aborts with CANCELLED and no
	// mutation. It lets a grab's cancellation and its commit exclude each other.
	Claim func() bool
}

// CommitCapture stores captured text as one atomic step: empty check,
// duplicate check against the recent window, and create or complete.
func (s *Store) CommitCapture(ctx context.Context, c CaptureCommit) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform := strings.TrimSpace(c.Platform)

	if strings.TrimSpace(c.Text) == "" {
		return nil, errors.NewEmptyResponse(platform)
	}
	if err := item.CheckSize(c.Text, s.maxChars); err != nil {
		return nil, err
	}

	pending, err := s.captureTarget(c.Kind, c.PendingID)
	if err != nil {
		return nil, err
	}
	kind := c.Kind
	if kind == "" {
		kind = item.KindResponse
	}

	if dup := s.findDuplicate(c.Text, platform); dup != "" {
		return nil, errors.NewDuplicateResponse(platform, dup)
	}

	if c.Claim != nil && !c.Claim() {
		return nil, errors.NewCancelled("capture")
	}

	t := s.begin()
	var it *item.Item
	if pending != nil {
		it = t.edit(pending.ID)
		if p := platform; p != "" {
			it.SourcePlatform = &p
		}
		it.Title = item.DeriveTitle(c.Text)
		it.SetText(c.Text, s.tokens)
		it.Pending = false
		it.UpdatedAt = t.now
	} else {
		it, err = s.create(t, CreateInput{Kind: kind, Text: c.Text, SourcePlatform: platform}, false)
		if err != nil {
			return nil, err
		}
	}
	t.next.recordCapture(it)

	if err := s.commit(ctx, t); err != nil {
		return nil, err
	}

	s.log.Debug("capture committed",
		zap.String("id", it.ID),
		zap.String("kind", string(it.Kind)),
		zap.String("platform", platform),
		zap.Int("chars", it.TextChars),
	)
	return it.Clone(), nil
}

// CheckCapture reports whether a capture of kind, or into pendingID when
// set, could be committed now. A grab calls it before polling so a bad
// request fails without consuming the session's response. CommitCapture
// repeats the check.
func (s *Store) CheckCapture(kind item.Kind, pendingID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.captureTarget(kind, pendingID)
	return err
}

// captureTarget validates the capture kind and returns the pending summary
// to complete, if any. The caller holds the lock.
func (s *Store) captureTarget(kind item.Kind, pendingID string) (*item.Item, error) {
	if kind == "" {
		kind = item.KindResponse
	}
	if !slices.Contains(item.Kinds, kind) || kind == item.KindPrompt {
		return nil, errors.NewInvalidKind("", string(kind), string(item.KindResponse))
	}
	if pendingID == "" {
		return nil, nil
	}
	p, ok := s.st.items[pendingID]
	if !ok {
		return nil, errors.NewNotFound(pendingID)
	}
	if p.Kind != item.KindSummary {
		return nil, errors.NewInvalidKind(p.ID, string(p.Kind), string(item.KindSummary))
	}
	if !p.Pending {
		return nil, errors.NewInvalidRequest("summary " + p.ID + " is not pending")
	}
	return p, nil
}

// IsDuplicate reports the id of a recent capture that text would duplicate,
// or "" if there is none.
func (s *Store) IsDuplicate(text, platform string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findDuplicate(text, platform)
}

// findDuplicate scans the dedup window. The caller holds the lock.
func (s *Store) findDuplicate(text, platform string) string {
	if s.dedupScope == ScopeGlobal {
		key := item.ContentKey(text)
		for _, p := range slices.Sorted(maps.Keys(s.st.recent)) {
			for _, it := range s.st.window(p, s.dedupWindow) {
				if item.ContentKey(it.Text) == key {
					return it.ID
				}
			}
		}
		return ""
	}

	fp := item.Fingerprint(text, platform)
	for _, it := range s.st.window(platformKey(platform), s.dedupWindow) {
		if it.Fingerprint == fp {
			return it.ID
		}
	}
	return ""
}

// window returns up to n of the platform's most recent captured items that
// still exist as completed responses or summaries, newest first.
func (st *state) window(platform string, n int) []*item.Item {
	ids := st.recent[platform]
	out := make([]*item.Item, 0, min(n, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(out) < n; i-- {
		it, ok := st.items[ids[i]]
		if !ok || it.Pending || it.Kind == item.KindPrompt {
			continue
		}
		out = append(out, it)
	}
	return out
}

// recordCapture appends it to its platform's capture history and stamps it
// with the next capture sequence. it must be the next state's own copy.
func (st *state) recordCapture(it *item.Item) {
	key := platformKey(it.Platform())
	if key == "" {
		return
	}
	st.captureSeq++
	it.CaptureSeq = st.captureSeq
	ids := slices.DeleteFunc(st.recent[key], func(x string) bool { return x == it.ID })
	st.recent[key] = append(ids, it.ID)
}

// pruneRecent drops deleted ids from the capture history.
func (st *state) pruneRecent() {
	for p, ids := range st.recent {
		ids = slices.DeleteFunc(ids, func(id string) bool {
			_, ok := st.items[id]
			return !ok
		})
		if len(ids) == 0 {
			delete(st.recent, p)
			continue
		}
		st.recent[p] = ids
	}
}
