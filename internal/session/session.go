// Package session connects prompts and captures to live platform sessions.
//
// The core only ever sees a session id. Drivers do the actual work of
// delivering text to a platform and observing what it answers.
package session

import (
	"context"
	"time"
)

// RawResponse is one observation of a session's output area.
type RawResponse struct {
	Text       string
	ObservedAt time.Time
}

// Sender delivers text into a platform session.
type Sender interface {
	Send(ctx context.Context, sessionID, text string) error
}

// Poller observes a platform session for a new response. Poll returns nil
// with no error while nothing new is available. Polling may be repeated
// indefinitely and restarted at any time.
type Poller interface {
	Poll(ctx context.Context, sessionID string) (*RawResponse, error)
}

// Driver backs sessions on one kind of transport.
type Driver interface {
	Sender
	Poller

	// Attach prepares sessionID for platform.
	Attach(ctx context.Context, sessionID, platform string) error

	// Detach releases whatever Attach acquired.
	Detach(sessionID string) error
}
