package ops

import (
	"context"
	"time"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/intake"
	"github.com/hpungsan/pillbox/internal/item"
)

// CaptureStatusOutput reports a grab.
type CaptureStatusOutput struct {
	GrabID    string    `json:"grab_id"`
	SessionID string    `json:"session_id"`
	Platform  string    `json:"platform"`
	State     string    `json:"state"`
	Item      *ItemView `json:"item,omitempty"`

	// ErrorCode and Error explain a grab that ended without an item.
	ErrorCode  errors.ErrorCode `json:"error_code,omitempty"`
	Error      string           `json:"error,omitempty"`
	ExistingID string           `json:"existing_id,omitempty"`
}

func grabStatus(rt *Runtime, g *intake.Grab) *CaptureStatusOutput {
	s := g.Status()
	out := &CaptureStatusOutput{
		GrabID:    s.ID,
		SessionID: s.SessionID,
		Platform:  s.Platform,
		State:     s.State,
	}
	if s.ItemID != "" {
		if it, err := rt.Store.Get(s.ItemID); err == nil {
			v := NewItemView(it, true)
			out.Item = &v
		}
	}
	if pErr, ok := errors.As(s.Error); ok {
		out.ErrorCode = pErr.Code
		out.Error = pErr.Message
		if id, ok := pErr.Details["existing_id"].(string); ok {
			out.ExistingID = id
		}
	} else if s.Error != nil {
		out.ErrorCode = errors.ErrInternal
		out.Error = s.Error.Error()
	}
	return out
}

// CaptureStartInput contains parameters for the CaptureStart operation.
type CaptureStartInput struct {
	SessionID string // required

	// Kind of item to create; default: response.
	Kind string

	// PendingID completes that pending summary instead of creating an item.
	PendingID string

	// TimeoutSeconds overrides capture_timeout_seconds when positive.
	TimeoutSeconds int
}

// CaptureStart begins polling a session for its next response and returns
// at once. The grab outlives ctx.
func CaptureStart(ctx context.Context, rt *Runtime, input CaptureStartInput) (*CaptureStatusOutput, error) {
	info, err := rt.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	kind := item.KindResponse
	if input.Kind != "" {
		if kind, err = parseKind(input.Kind); err != nil {
			return nil, err
		}
	}
	if input.TimeoutSeconds < 0 {
		return nil, errors.NewInvalidRequest("timeout_seconds must not be negative")
	}

	g, err := rt.Intake.Start(context.WithoutCancel(ctx), rt.Sessions, intake.CaptureInput{
		SessionID: info.ID,
		Platform:  info.Platform,
		Kind:      kind,
		PendingID: input.PendingID,
		Timeout:   time.Duration(input.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return grabStatus(rt, g), nil
}

// CaptureGrabInput names a grab.
type CaptureGrabInput struct {
	GrabID string
}

// CaptureStatus reports a grab without waiting.
func CaptureStatus(rt *Runtime, input CaptureGrabInput) (*CaptureStatusOutput, error) {
	g, err := rt.Intake.Get(input.GrabID)
	if err != nil {
		return nil, err
	}
	return grabStatus(rt, g), nil
}

// CaptureWait blocks until the grab finishes or ctx is done, then reports it.
// Giving up the wait does not cancel the grab.
func CaptureWait(ctx context.Context, rt *Runtime, input CaptureGrabInput) (*CaptureStatusOutput, error) {
	g, err := rt.Intake.Get(input.GrabID)
	if err != nil {
		return nil, err
	}
	select {
	case <-g.Done():
	case <-ctx.Done():
	}
	return grabStatus(rt, g), nil
}

// CaptureCancel cancels a grab. A grab that already finished is unaffected.
func CaptureCancel(rt *Runtime, input CaptureGrabInput) (*CaptureStatusOutput, error) {
	g, err := rt.Intake.Get(input.GrabID)
	if err != nil {
		return nil, err
	}
	g.Cancel()
	<-g.Done()
	return grabStatus(rt, g), nil
}

// CaptureListOutput lists the grabs still polling.
type CaptureListOutput struct {
	Grabs []*CaptureStatusOutput `json:"grabs"`
}

// CaptureList reports every active grab.
func CaptureList(rt *Runtime) *CaptureListOutput {
	active := rt.Intake.Active()
	out := &CaptureListOutput{Grabs: make([]*CaptureStatusOutput, len(active))}
	for i, g := range active {
		out.Grabs[i] = grabStatus(rt, g)
	}
	return out
}

// CaptureTextInput contains parameters for the CaptureText operation.
type CaptureTextInput struct {
	Platform  string // required
	Text      string
	Kind      string // default: response
	PendingID string
}

// CaptureTextOutput contains the result of the CaptureText operation.
type CaptureTextOutput struct {
	// Status is captured, duplicate, or empty.
	Status     string    `json:"status"`
	Item       *ItemView `json:"item,omitempty"`
	ExistingID string    `json:"existing_id,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// CaptureText stores text obtained outside a session, such as a pasted
// answer. Duplicates and empty text are reported in Status, not as errors.
func CaptureText(ctx context.Context, rt *Runtime, input CaptureTextInput) (*CaptureTextOutput, error) {
	kind := item.KindResponse
	if input.Kind != "" {
		var err error
		if kind, err = parseKind(input.Kind); err != nil {
			return nil, err
		}
	}

	it, err := rt.Intake.CommitText(ctx, intake.TextInput{
		Platform:  input.Platform,
		Text:      input.Text,
		Kind:      kind,
		PendingID: input.PendingID,
	})
	if err != nil {
		return informational(err)
	}
	v := NewItemView(it, false)
	return &CaptureTextOutput{Status: intake.StateCaptured.String(), Item: &v}, nil
}

// informational turns DUPLICATE_RESPONSE and EMPTY_RESPONSE into a status
// and passes every other error through.
func informational(err error) (*CaptureTextOutput, error) {
	pErr, ok := errors.As(err)
	if !ok || !pErr.Informational() {
		return nil, err
	}
	out := &CaptureTextOutput{Message: pErr.Message}
	switch pErr.Code {
	case errors.ErrDuplicateResponse:
		out.Status = intake.StateDuplicate.String()
		out.ExistingID, _ = pErr.Details["existing_id"].(string)
	default:
		out.Status = intake.StateEmpty.String()
	}
	return out, nil
}
