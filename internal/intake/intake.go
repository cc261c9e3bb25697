// Package intake turns text observed in platform sessions into stored items.
//
// Captured text is normalized per platform and handed to the store, which
// checks it against recent captures and creates the item in one step. A grab
// polls a session until a response appears, its timeout passes, or it is
// cancelled; a cancelled grab never commits.
package intake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/session"
	"github.com/hpungsan/pillbox/internal/store"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 180 * time.Second

	// maxFinished bounds how many finished grabs stay queryable.
	maxFinished = 64
)

// Options configures an Intake.
type Options struct {
	Logger     *zap.Logger
	Normalizer *Normalizer

	PollInterval time.Duration
	Timeout      time.Duration

	// MinChars is the shortest normalized text accepted; shorter is EMPTY_RESPONSE.
	MinChars int
}

// Intake runs captures against one store.
type Intake struct {
	store        *store.Store
	norm         *Normalizer
	log          *zap.Logger
	pollInterval time.Duration
	timeout      time.Duration
	minChars     int

	mu       sync.Mutex
	grabs    map[string]*Grab
	active   map[string]*Grab // by session id
	finished []string
	wg       sync.WaitGroup
}

// New returns an Intake writing to st.
func New(st *store.Store, opts Options) *Intake {
	in := &Intake{
		store:        st,
		norm:         opts.Normalizer,
		log:          opts.Logger,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
		minChars:     opts.MinChars,
		grabs:        make(map[string]*Grab),
		active:       make(map[string]*Grab),
	}
	if in.log == nil {
		in.log = zap.NewNop()
	}
	if in.pollInterval <= 0 {
		in.pollInterval = DefaultPollInterval
	}
	if in.timeout <= 0 {
		in.timeout = DefaultTimeout
	}
	if in.minChars <= 0 {
		in.minChars = 1
	}
	return in
}

// TextInput is captured text that is already in hand.
type TextInput struct {
	Platform string
	Text     string

	// Kind is Response when empty.
	Kind item.Kind

	// PendingID completes a pending Summary instead of creating an item.
	PendingID string
}

// CommitText normalizes and stores text captured outside a grab, such as a
// pasted answer. DUPLICATE_RESPONSE and EMPTY_RESPONSE are informational.
func (in *Intake) CommitText(ctx context.Context, t TextInput) (*item.Item, error) {
	platform := strings.TrimSpace(t.Platform)
	if platform == "" {
		return nil, errors.NewInvalidRequest("platform is required")
	}
	it, err := in.commit(ctx, platform, t.Text, t.Kind, t.PendingID, nil)
	in.logOutcome("", platform, it, err)
	return it, err
}

func (in *Intake) commit(ctx context.Context, platform, raw string, kind item.Kind, pendingID string, claim func() bool) (*item.Item, error) {
	text := in.norm.Normalize(platform, raw)
	if text != "" && item.CountChars(text) < in.minChars {
		text = ""
	}
	return in.store.CommitCapture(ctx, store.CaptureCommit{
		Kind:      kind,
		Platform:  platform,
		Text:      text,
		PendingID: pendingID,
		Claim:     claim,
	})
}

// CaptureInput describes a grab.
type CaptureInput struct {
	SessionID string
	Platform  string
	Kind      item.Kind
	PendingID string

	// Timeout overrides the Intake default when positive.
	Timeout time.Duration
}

// Start begins polling p for the session's next response and returns at
// once. The grab ends when ctx is done, so callers that outlive ctx should
// pass a detached context. Only one grab may be active per session. The kind
// and pending summary are validated before polling begins.
func (in *Intake) Start(ctx context.Context, p session.Poller, ci CaptureInput) (*Grab, error) {
	ci.Platform = strings.TrimSpace(ci.Platform)
	if ci.SessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	if ci.Platform == "" {
		return nil, errors.NewInvalidRequest("platform is required")
	}
	if err := in.store.CheckCapture(ci.Kind, ci.PendingID); err != nil {
		return nil, err
	}
	timeout := ci.Timeout
	if timeout <= 0 {
		timeout = in.timeout
	}

	gctx, cancel := context.WithTimeout(ctx, timeout)
	g := &Grab{
		ID:        uuid.NewString(),
		SessionID: ci.SessionID,
		Platform:  ci.Platform,
		StartedAt: time.Now(),
		timeout:   timeout,
		ctx:       gctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	in.mu.Lock()
	if prev, ok := in.active[ci.SessionID]; ok {
		in.mu.Unlock()
		cancel()
		return nil, errors.NewInvalidRequest("a capture is already in progress for session " + ci.SessionID + " (grab " + prev.ID + ")")
	}
	in.grabs[g.ID] = g
	in.active[ci.SessionID] = g
	in.wg.Add(1)
	in.mu.Unlock()

	g.setState(StatePolling)
	in.log.Debug("grab started",
		zap.String("grab_id", g.ID),
		zap.String("session_id", g.SessionID),
		zap.String("platform", g.Platform),
		zap.Duration("timeout", timeout),
	)
	go in.run(g, p, ci)
	return g, nil
}

// Capture runs a grab to completion. Cancelling ctx cancels the grab.
func (in *Intake) Capture(ctx context.Context, p session.Poller, ci CaptureInput) (*item.Item, error) {
	g, err := in.Start(ctx, p, ci)
	if err != nil {
		return nil, err
	}
	return g.Wait()
}

func (in *Intake) run(g *Grab, p session.Poller, ci CaptureInput) {
	defer in.wg.Done()
	defer g.cancel()

	ticker := time.NewTicker(in.pollInterval)
	defer ticker.Stop()

	for {
		raw, err := p.Poll(g.ctx, g.SessionID)
		if g.ctx.Err() != nil {
			in.interrupt(g)
			return
		}
		if err != nil {
			if _, ok := errors.As(err); !ok {
				err = errors.NewSendError(g.SessionID, "poll", err)
			}
			in.end(g, StateFailed, nil, err)
			return
		}
		if raw != nil {
			in.settle(g, raw.Text, ci)
			return
		}

		select {
		case <-g.ctx.Done():
			in.interrupt(g)
			return
		case <-ticker.C:
		}
	}
}

// settle commits an observed response. The commit itself is not bound to
// the grab's deadline; claim decides whether it may happen at all.
func (in *Intake) settle(g *Grab, raw string, ci CaptureInput) {
	it, err := in.commit(context.WithoutCancel(g.ctx), g.Platform, raw, ci.Kind, ci.PendingID, g.claim)
	switch {
	case err == nil:
		in.end(g, StateCaptured, it, nil)
	case errors.Is(err, errors.ErrCancelled):
		in.interrupt(g)
	case g.ctx.Err() != nil && !g.wasClaimed():
		// Rejected after the grab was stopped: report the stop, not the rejection.
		in.interrupt(g)
	case errors.Is(err, errors.ErrDuplicateResponse):
		in.end(g, StateDuplicate, nil, err)
	case errors.Is(err, errors.ErrEmptyResponse):
		in.end(g, StateEmpty, nil, err)
	default:
		in.end(g, StateFailed, nil, err)
	}
}

// interrupt ends g as CANCELLED or TIMED_OUT.
func (in *Intake) interrupt(g *Grab) {
	g.mu.Lock()
	cancelled := g.cancelled
	g.mu.Unlock()

	if !cancelled && g.ctx.Err() == context.DeadlineExceeded {
		in.end(g, StateTimedOut, nil, errors.NewTimedOut(g.SessionID, g.timeout.Seconds()))
		return
	}
	in.end(g, StateCancelled, nil, errors.NewCancelled("capture"))
}

func (in *Intake) end(g *Grab, s State, it *item.Item, err error) {
	in.retire(g)
	g.finish(s, it, err)
	in.logOutcome(g.ID, g.Platform, it, err, zap.String("session_id", g.SessionID), zap.String("state", s.String()))
}

func (in *Intake) logOutcome(grabID, platform string, it *item.Item, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("platform", platform))
	if grabID != "" {
		fields = append(fields, zap.String("grab_id", grabID))
	}
	switch {
	case err == nil:
		in.log.Info("response captured", append(fields, zap.String("item_id", it.ID), zap.Int("chars", it.TextChars))...)
	case errors.IsInformational(err):
		in.log.Info("nothing new captured", append(fields, zap.Error(err))...)
	case errors.Is(err, errors.ErrCancelled):
		in.log.Info("capture cancelled", fields...)
	case errors.Is(err, errors.ErrTimedOut):
		in.log.Warn("capture timed out", fields...)
	default:
		in.log.Error("capture failed", append(fields, zap.Error(err))...)
	}
}

func (g *Grab) wasClaimed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claimed
}

// retire moves g from active to the bounded finished list.
func (in *Intake) retire(g *Grab) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.active[g.SessionID] == g {
		delete(in.active, g.SessionID)
	}
	in.finished = append(in.finished, g.ID)
	for len(in.finished) > maxFinished {
		delete(in.grabs, in.finished[0])
		in.finished = in.finished[1:]
	}
}

// Get returns a grab by id.
func (in *Intake) Get(grabID string) (*Grab, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	g, ok := in.grabs[grabID]
	if !ok {
		return nil, errors.NewInvalidRequest("unknown grab: " + grabID)
	}
	return g, nil
}

// Cancel cancels a grab by id.
func (in *Intake) Cancel(grabID string) error {
	g, err := in.Get(grabID)
	if err != nil {
		return err
	}
	g.Cancel()
	return nil
}

// Active returns the grabs still polling.
func (in *Intake) Active() []*Grab {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*Grab, 0, len(in.active))
	for _, g := range in.active {
		out = append(out, g)
	}
	return out
}

// Close cancels every active grab and waits for them to finish.
func (in *Intake) Close() {
	for _, g := range in.Active() {
		g.Cancel()
	}
	in.wg.Wait()
}
