// Package browser drives platform chat pages in Chrome through the DevTools
// protocol.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/session"
)

const (
	elementTimeout    = 5 * time.Second
	navigationTimeout = 30 * time.Second
)

// Driver is a session.Driver backed by one Chrome instance with a page per session.
type Driver struct {
	cfg       config.Browser
	platforms map[string]config.Platform
	log       *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	pages   map[string]*page
}

type page struct {
	platform string
	p        *rod.Page

	// baseline is the response text present when the last prompt was sent.
	baseline string

	// last and stable track a streaming answer until it stops changing.
	last   string
	stable int
}

// New returns a Driver; Chrome is started on the first Attach.
func New(cfg config.Browser, platforms map[string]config.Platform, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StablePolls <= 0 {
		cfg.StablePolls = 2
	}
	return &Driver{
		cfg:       cfg,
		platforms: platforms,
		log:       logger,
		pages:     make(map[string]*page),
	}
}

func (d *Driver) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	if d.browser != nil {
		if _, err := d.browser.Version(); err == nil {
			return d.browser, nil
		}
		d.log.Warn("stale browser connection, reconnecting")
		_ = d.browser.Close()
		d.browser = nil
		d.pages = make(map[string]*page)
	}

	controlURL := d.cfg.DebuggerURL
	if controlURL == "" {
		u, err := launcher.New().Headless(d.cfg.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	d.browser = b
	d.log.Info("browser connected", zap.Bool("headless", d.cfg.Headless))
	return b, nil
}

// Attach implements session.Driver by opening the platform's chat page.
func (d *Driver) Attach(ctx context.Context, sessionID, platform string) error {
	pc, ok := d.platforms[platform]
	if !ok || pc.URL == "" {
		return fmt.Errorf("no url configured for platform %q", platform)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.ensureBrowser(ctx)
	if err != nil {
		return err
	}
	p, err := b.Page(proto.TargetCreateTarget{URL: pc.URL})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	if err := p.Context(ctx).Timeout(navigationTimeout).WaitLoad(); err != nil {
		d.log.Debug("page load wait failed", zap.String("platform", platform), zap.Error(err))
	}
	d.pages[sessionID] = &page{platform: platform, p: p}
	return nil
}

// Detach implements session.Driver.
func (d *Driver) Detach(sessionID string) error {
	d.mu.Lock()
	pg, ok := d.pages[sessionID]
	delete(d.pages, sessionID)
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return pg.p.Close()
}

// Close closes every page and the browser.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, pg := range d.pages {
		_ = pg.p.Close()
		delete(d.pages, id)
	}
	if d.browser == nil {
		return nil
	}
	err := d.browser.Close()
	d.browser = nil
	return err
}

func (d *Driver) page(sessionID string) (*page, config.Platform, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pg, ok := d.pages[sessionID]
	if !ok {
		return nil, config.Platform{}, fmt.Errorf("session %s not attached", sessionID)
	}
	return pg, d.platforms[pg.platform], nil
}

// Send implements session.Sender: it fills the input box and clicks send,
// falling back to the Enter key when no send button is found.
func (d *Driver) Send(ctx context.Context, sessionID, text string) error {
	pg, pc, err := d.page(sessionID)
	if err != nil {
		return err
	}
	p := pg.p.Context(ctx)

	el, err := findElement(p, pc.InputSelectors)
	if err != nil {
		return fmt.Errorf("input box: %w", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus input: %w", err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("fill input: %w", err)
	}

	// Responses already on the page are not new.
	current, _ := lastText(p, pc.ResponseSelectors)
	d.mu.Lock()
	pg.baseline, pg.last, pg.stable = current, "", 0
	d.mu.Unlock()

	if btn, err := findElement(p, pc.SendSelectors); err == nil {
		return btn.Click(proto.InputMouseButtonLeft, 1)
	}
	return p.Keyboard.Press(input.Enter)
}

// Poll implements session.Poller. A response is reported once its text has
// differed from the pre-send baseline and stayed unchanged for StablePolls
// consecutive polls, so streaming answers are read when complete.
func (d *Driver) Poll(ctx context.Context, sessionID string) (*session.RawResponse, error) {
	pg, pc, err := d.page(sessionID)
	if err != nil {
		return nil, err
	}

	text, err := lastText(pg.p.Context(ctx), pc.ResponseSelectors)
	if err != nil || text == "" {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if text == pg.baseline {
		return nil, nil
	}
	if text != pg.last {
		pg.last, pg.stable = text, 1
		return nil, nil
	}
	pg.stable++
	if pg.stable < d.cfg.StablePolls {
		return nil, nil
	}
	pg.baseline = text
	return &session.RawResponse{Text: text, ObservedAt: time.Now()}, nil
}

// findElement returns the first element matching any selector, in order.
func findElement(p *rod.Page, selectors []string) (*rod.Element, error) {
	for _, sel := range selectors {
		el, err := p.Timeout(elementTimeout).Element(sel)
		if err == nil {
			return el.CancelTimeout(), nil
		}
	}
	return nil, fmt.Errorf("no element matches %s", strings.Join(selectors, ", "))
}

// lastText returns the text of the last element matching the first selector
// that matches anything.
func lastText(p *rod.Page, selectors []string) (string, error) {
	for _, sel := range selectors {
		els, err := p.Elements(sel)
		if err != nil || els.Empty() {
			continue
		}
		return els.Last().Text()
	}
	return "", fmt.Errorf("no response element")
}

var _ session.Driver = (*Driver)(nil)
