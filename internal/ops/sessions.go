package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/session"
)

// SessionOpenInput contains parameters for the SessionOpen operation.
type SessionOpenInput struct {
	Platform string // required
	Driver   string // default: inbox
}

// SessionOpen attaches a new session for a platform.
func SessionOpen(ctx context.Context, rt *Runtime, input SessionOpenInput) (*session.Info, error) {
	driver := strings.ToLower(strings.TrimSpace(input.Driver))
	if driver == "" {
		driver = DriverInbox
	}
	return rt.Sessions.Open(ctx, driver, input.Platform)
}

// SessionIDInput names a session.
type SessionIDInput struct {
	SessionID string
}

// SessionCloseOutput contains the result of the SessionClose operation.
type SessionCloseOutput struct {
	Closed        bool   `json:"closed"`
	SessionID     string `json:"session_id"`
	CancelledGrab string `json:"cancelled_grab,omitempty"`
}

// SessionClose cancels the session's active grab, if any, and detaches it.
func SessionClose(rt *Runtime, input SessionIDInput) (*SessionCloseOutput, error) {
	if _, err := rt.Sessions.Get(input.SessionID); err != nil {
		return nil, err
	}
	out := &SessionCloseOutput{SessionID: input.SessionID}
	for _, g := range rt.Intake.Active() {
		if g.SessionID == input.SessionID {
			g.Cancel()
			<-g.Done()
			out.CancelledGrab = g.ID
		}
	}
	if err := rt.Sessions.Close(input.SessionID); err != nil {
		return nil, err
	}
	out.Closed = true
	return out, nil
}

// SessionListOutput contains the result of the SessionList operation.
type SessionListOutput struct {
	Sessions []session.Info `json:"sessions"`
	Drivers  []string       `json:"drivers"`
}

// SessionList reports open sessions, oldest first, and the available drivers.
func SessionList(rt *Runtime) *SessionListOutput {
	return &SessionListOutput{
		Sessions: rt.Sessions.List(),
		Drivers:  rt.Sessions.Drivers(),
	}
}

// SessionSendInput contains parameters for the SessionSend operation.
type SessionSendInput struct {
	SessionID string // required

	// Text is sent as is. Exactly one of Text and Compose is required.
	Text    string
	Compose *ComposeInput

	// Capture starts a grab for the reply once the text is sent.
	Capture        bool
	Kind           string // kind of the captured item; default: response
	TimeoutSeconds int
}

// SessionSendOutput contains the result of the SessionSend operation.
type SessionSendOutput struct {
	SessionID string               `json:"session_id"`
	Chars     int                  `json:"chars"`
	Composed  *ComposeOutput       `json:"composed,omitempty"`
	Capture   *CaptureStatusOutput `json:"capture,omitempty"`
}

// SessionSend delivers text, or a fresh composition, to a session. With
// Capture it then starts polling for the reply.
func SessionSend(ctx context.Context, rt *Runtime, input SessionSendInput) (*SessionSendOutput, error) {
	if _, err := rt.Sessions.Get(input.SessionID); err != nil {
		return nil, err
	}
	hasText := strings.TrimSpace(input.Text) != ""
	if hasText == (input.Compose != nil) {
		return nil, errors.NewInvalidRequest("exactly one of text or compose is required")
	}

	out := &SessionSendOutput{SessionID: input.SessionID}
	text := input.Text
	if input.Compose != nil {
		composed, err := Compose(ctx, rt.Store, rt.Config, *input.Compose)
		if err != nil {
			return nil, err
		}
		out.Composed = composed
		text = composed.Text
	}

	if err := rt.Sessions.Send(ctx, input.SessionID, text); err != nil {
		return nil, err
	}
	out.Chars = item.CountChars(text)

	if input.Capture {
		status, err := CaptureStart(ctx, rt, CaptureStartInput{
			SessionID:      input.SessionID,
			Kind:           input.Kind,
			TimeoutSeconds: input.TimeoutSeconds,
		})
		if err != nil {
			return nil, err
		}
		out.Capture = status
	}
	return out, nil
}

// SessionPushInput contains parameters for the SessionPush operation.
type SessionPushInput struct {
	SessionID string
	Text      string
}

// SessionPush queues text as the next response of an inbox session, where
// a running or future grab will observe it.
func SessionPush(rt *Runtime, input SessionPushInput) error {
	info, err := rt.Sessions.Get(input.SessionID)
	if err != nil {
		return err
	}
	if info.Driver != DriverInbox {
		return errors.NewInvalidRequest("session " + info.ID + " uses the " + info.Driver + " driver; only inbox sessions accept pushed responses")
	}
	if err := rt.Inbox.Push(info.ID, input.Text); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
