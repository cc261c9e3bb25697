// Package api backs sessions with an OpenAI-compatible chat completions API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/session"
)

// Config configures the API driver.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// Timeout bounds one completion request; 0 means no limit.
	Timeout time.Duration
}

// Driver is a session.Driver where each session is one chat conversation.
// Send starts a completion in the background; Poll reports it once done.
type Driver struct {
	client *openai.Client
	model  string
	log    *zap.Logger

	mu    sync.Mutex
	convs map[string]*conversation
}

type conversation struct {
	platform string
	history  []openai.ChatCompletionMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	inFlight bool
	ready    []session.RawResponse
	err      error
}

// New returns a Driver talking to cfg.BaseURL.
func New(cfg Config, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Driver{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		log:    logger,
		convs:  make(map[string]*conversation),
	}
}

// Attach implements session.Driver.
func (d *Driver) Attach(_ context.Context, sessionID, platform string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.convs[sessionID]; ok {
		return fmt.Errorf("session %s already attached", sessionID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.convs[sessionID] = &conversation{platform: platform, ctx: ctx, cancel: cancel}
	return nil
}

// Detach implements session.Driver. It cancels any request in flight and
// waits for it to finish.
func (d *Driver) Detach(sessionID string) error {
	d.mu.Lock()
	c, ok := d.convs[sessionID]
	delete(d.convs, sessionID)
	d.mu.Unlock()
	if !ok {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	return nil
}

// Close detaches every session.
func (d *Driver) Close() error {
	d.mu.Lock()
	ids := make([]string, 0, len(d.convs))
	for id := range d.convs {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	for _, id := range ids {
		_ = d.Detach(id)
	}
	return nil
}

// Send implements session.Sender. The request outlives ctx; it is bound to
// the session and stops on Detach.
func (d *Driver) Send(ctx context.Context, sessionID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.convs[sessionID]
	if !ok {
		return fmt.Errorf("session %s not attached", sessionID)
	}
	if c.inFlight {
		return fmt.Errorf("session %s is still waiting for a reply", sessionID)
	}

	c.history = append(c.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
	req := openai.ChatCompletionRequest{
		Model:    d.model,
		Messages: append([]openai.ChatCompletionMessage(nil), c.history...),
	}
	c.inFlight = true
	c.wg.Add(1)
	go d.complete(sessionID, c, req)
	return nil
}

func (d *Driver) complete(sessionID string, c *conversation, req openai.ChatCompletionRequest) {
	defer c.wg.Done()

	resp, err := d.client.CreateChatCompletion(c.ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	c.inFlight = false
	if err != nil {
		if c.ctx.Err() == nil {
			c.err = err
			d.log.Warn("completion failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return
	}
	if len(resp.Choices) == 0 {
		c.err = fmt.Errorf("completion returned no choices")
		return
	}

	msg := resp.Choices[0].Message
	c.history = append(c.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content})
	c.ready = append(c.ready, session.RawResponse{Text: msg.Content, ObservedAt: time.Now()})
	d.log.Debug("completion received",
		zap.String("session_id", sessionID),
		zap.String("platform", c.platform),
		zap.Int("chars", len(msg.Content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
}

// Poll implements session.Poller. A failed completion is reported once.
func (d *Driver) Poll(ctx context.Context, sessionID string) (*session.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.convs[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not attached", sessionID)
	}
	if c.err != nil {
		err := c.err
		c.err = nil
		return nil, err
	}
	if len(c.ready) == 0 {
		return nil, nil
	}
	next := c.ready[0]
	c.ready = c.ready[1:]
	return &next, nil
}

var _ session.Driver = (*Driver)(nil)
