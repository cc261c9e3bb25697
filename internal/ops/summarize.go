package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/intake"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/summarize"
)

// SummarizeInput contains parameters for the Summarize operation.
type SummarizeInput struct {
	SessionID string   // required
	ItemIDs   []string // required, Response items in order

	Title    string
	Category string

	// Capture starts a grab that fills the pending summary.
	Capture        bool
	TimeoutSeconds int
}

// SummarizeOutput contains the result of the Summarize operation.
type SummarizeOutput struct {
	PendingID string               `json:"pending_id"`
	Chars     int                  `json:"chars"`
	Capture   *CaptureStatusOutput `json:"capture,omitempty"`
}

// Summarize sends a merge request for the selected responses to a session
// and creates the pending Summary that will receive the answer.
func Summarize(ctx context.Context, rt *Runtime, input SummarizeInput) (*SummarizeOutput, error) {
	if len(input.ItemIDs) > MaxSummarizeItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many items: %d (max %d)", len(input.ItemIDs), MaxSummarizeItems))
	}
	info, err := rt.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	if input.TimeoutSeconds < 0 {
		return nil, errors.NewInvalidRequest("timeout_seconds must not be negative")
	}

	res, err := rt.Summaries.Dispatch(ctx, summarize.DispatchInput{
		SessionID: info.ID,
		Platform:  info.Platform,
		ItemIDs:   input.ItemIDs,
		Title:     input.Title,
		Category:  input.Category,
		Capture:   input.Capture,
		Timeout:   time.Duration(input.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	out := &SummarizeOutput{
		PendingID: res.Pending.ID,
		Chars:     item.CountChars(res.Request),
	}
	if res.Grab != nil {
		out.Capture = grabStatus(rt, res.Grab)
	}
	return out, nil
}

// SummaryRequestInput contains parameters for the SummaryRequest operation.
type SummaryRequestInput struct {
	ItemIDs []string
}

// SummaryRequestOutput is the text a summary request would send.
type SummaryRequestOutput struct {
	Text  string `json:"text"`
	Parts int    `json:"parts"`
}

// SummaryRequest builds the merge request for the selected responses
// without sending anything.
func SummaryRequest(rt *Runtime, input SummaryRequestInput) (*SummaryRequestOutput, error) {
	if len(input.ItemIDs) > MaxSummarizeItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many items: %d (max %d)", len(input.ItemIDs), MaxSummarizeItems))
	}
	selection, err := rt.Store.GetMany(input.ItemIDs)
	if err != nil {
		return nil, err
	}
	text, err := summarize.BuildRequest(selection)
	if err != nil {
		return nil, err
	}
	return &SummaryRequestOutput{Text: text, Parts: len(selection)}, nil
}

// SummaryCompleteInput contains parameters for the SummaryComplete operation.
type SummaryCompleteInput struct {
	PendingID string // required
	Text      string
	Platform  string // default: the platform recorded on the pending summary
}

// SummaryComplete fills a pending summary with text obtained outside a grab.
// Duplicate and empty text are reported in Status.
func SummaryComplete(ctx context.Context, rt *Runtime, input SummaryCompleteInput) (*CaptureTextOutput, error) {
	if input.PendingID == "" {
		return nil, errors.NewInvalidRequest("pending_id is required")
	}
	it, err := rt.Summaries.Complete(ctx, input.PendingID, input.Platform, input.Text)
	if err != nil {
		return informational(err)
	}
	v := NewItemView(it, false)
	return &CaptureTextOutput{Status: intake.StateCaptured.String(), Item: &v}, nil
}
