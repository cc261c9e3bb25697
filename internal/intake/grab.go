package intake

import (
	"context"
	"sync"
	"time"

	"github.com/hpungsan/pillbox/internal/item"
)

// State is where a grab is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateCaptured
	StateDuplicate
	StateEmpty
	StateTimedOut
	StateCancelled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StatePolling:   "polling",
	StateCaptured:  "captured",
	StateDuplicate: "duplicate",
	StateEmpty:     "empty",
	StateTimedOut:  "timed_out",
	StateCancelled: "cancelled",
	StateFailed:    "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s >= StateCaptured
}

// Grab is one outstanding request to capture a session's next response.
type Grab struct {
	ID        string
	SessionID string
	Platform  string
	StartedAt time.Time

	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	state     State
	claimed   bool
	cancelled bool
	result    *item.Item
	err       error
}

// Cancel stops the grab. A grab whose result is already being committed
// finishes normally; otherwise it ends CANCELLED and any later observation
// is discarded.
func (g *Grab) Cancel() {
	g.mu.Lock()
	if !g.claimed && !g.state.Terminal() {
		g.cancelled = true
	}
	g.mu.Unlock()
	g.cancel()
}

// Done is closed when the grab reaches a terminal state.
func (g *Grab) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the grab finishes and returns the captured item or the
// reason nothing was captured.
func (g *Grab) Wait() (*item.Item, error) {
	<-g.done
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.result != nil {
		return g.result.Clone(), nil
	}
	return nil, g.err
}

// State returns the grab's current state.
func (g *Grab) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Status is a snapshot of a grab for reporting.
type Status struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Platform  string `json:"platform"`
	State     string `json:"state"`
	ItemID    string `json:"item_id,omitempty"`
	Error     error  `json:"-"`
}

// Status returns a snapshot of the grab.
func (g *Grab) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Status{
		ID:        g.ID,
		SessionID: g.SessionID,
		Platform:  g.Platform,
		State:     g.state.String(),
		Error:     g.err,
	}
	if g.result != nil {
		s.ItemID = g.result.ID
	}
	return s
}

// claim marks the grab as committing. It fails once the grab is cancelled
// or past its deadline.
func (g *Grab) claim() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelled || g.ctx.Err() != nil {
		return false
	}
	g.claimed = true
	return true
}

func (g *Grab) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Grab) finish(s State, it *item.Item, err error) {
	g.mu.Lock()
	g.state = s
	g.result = it
	g.err = err
	g.mu.Unlock()
	close(g.done)
}
