// Package summarize builds merge requests from captured responses and tracks
// the pending Summary item that receives the answer.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/intake"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/session"
	"github.com/hpungsan/pillbox/internal/store"
)

const (
	requestPreamble = "Please provide a comprehensive summary of the following responses:\n"
	requestClosing  = "\n\n---\n\nPlease synthesize the key points, identify common themes, and highlight any contradictions or unique insights from these responses."
)

// BuildRequest concatenates the selected responses in selection order, each
// under a header naming its platform. Every item must be a Response.
func BuildRequest(selection []*item.Item) (string, error) {
	if len(selection) == 0 {
		return "", errors.NewInvalidRequest("select at least one response to summarize")
	}
	for _, it := range selection {
		if it.Kind != item.KindResponse {
			return "", errors.NewInvalidKind(it.ID, string(it.Kind), string(item.KindResponse))
		}
	}

	parts := make([]string, 0, 2*len(selection)+2)
	parts = append(parts, requestPreamble)
	for i, it := range selection {
		source := ""
		if p := it.Platform(); p != "" {
			source = " (from " + p + ")"
		}
		parts = append(parts, fmt.Sprintf("\n--- Response %d%s ---\n", i+1, source), it.Text)
	}
	parts = append(parts, requestClosing)
	return strings.Join(parts, "\n"), nil
}

// Dispatcher sends summary requests and records their pending summaries.
type Dispatcher struct {
	store  *store.Store
	sender session.Sender
	poller session.Poller
	intake *intake.Intake
	log    *zap.Logger
}

// NewDispatcher returns a Dispatcher. poller and in may be nil when results
// are only ever delivered through Complete.
func NewDispatcher(st *store.Store, sender session.Sender, poller session.Poller, in *intake.Intake, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: st, sender: sender, poller: poller, intake: in, log: logger}
}

// DispatchInput describes one summary request.
type DispatchInput struct {
	SessionID string
	Platform  string

	// ItemIDs are the responses to summarize, in order.
	ItemIDs []string

	Title    string
	Category string

	// Capture starts a grab that completes the pending summary.
	Capture bool
	Timeout time.Duration
}

// DispatchOutput is the result of Dispatch.
type DispatchOutput struct {
	Request string
	Pending *item.Item
	Grab    *intake.Grab
}

// Dispatch builds the request, sends it, and creates the pending Summary.
// Nothing is created when the request cannot be built or sent.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) (*DispatchOutput, error) {
	if in.SessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	if strings.TrimSpace(in.Platform) == "" {
		return nil, errors.NewInvalidRequest("platform is required")
	}
	if in.Capture && (d.poller == nil || d.intake == nil) {
		return nil, errors.NewInvalidRequest("capture is not available")
	}

	selection, err := d.store.GetMany(in.ItemIDs)
	if err != nil {
		return nil, err
	}
	text, err := BuildRequest(selection)
	if err != nil {
		return nil, err
	}

	if err := d.sender.Send(ctx, in.SessionID, text); err != nil {
		return nil, err
	}

	pending, err := d.store.CreatePending(ctx, store.PendingInput{
		Platform:    in.Platform,
		SourceItems: in.ItemIDs,
		Title:       in.Title,
		Category:    in.Category,
	})
	if err != nil {
		d.log.Error("summary request sent but pending summary not created",
			zap.String("session_id", in.SessionID),
			zap.Error(err),
		)
		return nil, err
	}
	d.log.Info("summary requested",
		zap.String("pending_id", pending.ID),
		zap.String("session_id", in.SessionID),
		zap.String("platform", in.Platform),
		zap.Int("responses", len(selection)),
	)

	out := &DispatchOutput{Request: text, Pending: pending}
	if in.Capture {
		g, err := d.intake.Start(context.WithoutCancel(ctx), d.poller, intake.CaptureInput{
			SessionID: in.SessionID,
			Platform:  in.Platform,
			Kind:      item.KindSummary,
			PendingID: pending.ID,
			Timeout:   in.Timeout,
		})
		if err != nil {
			return nil, err
		}
		out.Grab = g
	}
	return out, nil
}

// Complete fills a pending summary with text obtained outside a grab.
func (d *Dispatcher) Complete(ctx context.Context, pendingID, platform, text string) (*item.Item, error) {
	if d.intake == nil {
		return nil, errors.NewInvalidRequest("capture is not available")
	}
	if platform == "" {
		p, err := d.store.Get(pendingID)
		if err != nil {
			return nil, err
		}
		platform = p.Platform()
	}
	return d.intake.CommitText(ctx, intake.TextInput{
		Platform:  platform,
		Text:      text,
		Kind:      item.KindSummary,
		PendingID: pendingID,
	})
}
