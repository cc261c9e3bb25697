package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Inbox is a Driver fed by hand. Sent text is recorded and responses are
// queued with Push, for example by a browser extension posting to the HTTP
// API or by a user pasting an answer.
type Inbox struct {
	mu      sync.Mutex
	boxes   map[string]*box
	nowFunc func() time.Time
}

type box struct {
	platform string
	sent     []string
	queue    []RawResponse
}

// NewInbox returns an empty Inbox.
func NewInbox() *Inbox {
	return &Inbox{boxes: make(map[string]*box), nowFunc: time.Now}
}

// Attach implements Driver.
func (in *Inbox) Attach(_ context.Context, sessionID, platform string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.boxes[sessionID]; ok {
		return fmt.Errorf("session %s already attached", sessionID)
	}
	in.boxes[sessionID] = &box{platform: platform}
	return nil
}

// Detach implements Driver.
func (in *Inbox) Detach(sessionID string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.boxes, sessionID)
	return nil
}

// Send implements Sender.
func (in *Inbox) Send(ctx context.Context, sessionID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	b, ok := in.boxes[sessionID]
	if !ok {
		return fmt.Errorf("session %s not attached", sessionID)
	}
	b.sent = append(b.sent, text)
	return nil
}

// Poll implements Poller, returning queued responses oldest first.
func (in *Inbox) Poll(ctx context.Context, sessionID string) (*RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	b, ok := in.boxes[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not attached", sessionID)
	}
	if len(b.queue) == 0 {
		return nil, nil
	}
	next := b.queue[0]
	b.queue = b.queue[1:]
	return &next, nil
}

// Push queues text as the next response observed in sessionID.
func (in *Inbox) Push(sessionID, text string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	b, ok := in.boxes[sessionID]
	if !ok {
		return fmt.Errorf("session %s not attached", sessionID)
	}
	b.queue = append(b.queue, RawResponse{Text: text, ObservedAt: in.nowFunc()})
	return nil
}

// Sent returns the texts delivered to sessionID, oldest first.
func (in *Inbox) Sent(sessionID string) []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	b, ok := in.boxes[sessionID]
	if !ok {
		return nil
	}
	return append([]string(nil), b.sent...)
}

var _ Driver = (*Inbox)(nil)
