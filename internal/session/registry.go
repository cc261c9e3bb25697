package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
)

// Info describes an open session.
type Info struct {
	ID       string    `json:"id"`
	Platform string    `json:"platform"`
	Driver   string    `json:"driver"`
	OpenedAt time.Time `json:"opened_at"`
}

type record struct {
	info   Info
	driver Driver
}

// Registry tracks open sessions and routes Send and Poll to their drivers.
// It satisfies Sender and Poller itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*record
	drivers  map[string]Driver
	log      *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*record),
		drivers:  make(map[string]Driver),
		log:      logger,
	}
}

// Register makes a driver available under name.
func (r *Registry) Register(name string, d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[name] = d
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open attaches a new session for platform using the named driver.
func (r *Registry) Open(ctx context.Context, driverName, platform string) (*Info, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return nil, errors.NewInvalidRequest("platform is required")
	}

	r.mu.RLock()
	d, ok := r.drivers[driverName]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewInvalidRequest("unknown session driver: " + driverName)
	}

	id := uuid.NewString()
	if err := d.Attach(ctx, id, platform); err != nil {
		return nil, errors.NewSendError(id, "attach", err)
	}

	info := Info{ID: id, Platform: platform, Driver: driverName, OpenedAt: time.Now().UTC()}
	r.mu.Lock()
	r.sessions[id] = &record{info: info, driver: d}
	r.mu.Unlock()

	r.log.Info("session opened",
		zap.String("session_id", id),
		zap.String("platform", platform),
		zap.String("driver", driverName),
	)
	return &info, nil
}

// Close detaches and forgets a session.
func (r *Registry) Close(sessionID string) error {
	r.mu.Lock()
	rec, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if !ok {
		return errors.NewSessionNotFound(sessionID)
	}

	r.log.Info("session closed", zap.String("session_id", sessionID))
	if err := rec.driver.Detach(sessionID); err != nil {
		return errors.NewSendError(sessionID, "detach", err)
	}
	return nil
}

// CloseAll detaches every session. Detach failures are logged.
func (r *Registry) CloseAll() {
	for _, info := range r.List() {
		if err := r.Close(info.ID); err != nil {
			r.log.Warn("session close failed", zap.String("session_id", info.ID), zap.Error(err))
		}
	}
}

// Get returns a session's info.
func (r *Registry) Get(sessionID string) (*Info, error) {
	rec, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	info := rec.info
	return &info, nil
}

// List returns open sessions, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.sessions))
	for _, rec := range r.sessions {
		out = append(out, rec.info)
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := a.OpenedAt.Compare(b.OpenedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Send implements Sender.
func (r *Registry) Send(ctx context.Context, sessionID, text string) error {
	rec, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := rec.driver.Send(ctx, sessionID, text); err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled("send")
		}
		return errors.NewSendError(sessionID, "send", err)
	}
	r.log.Debug("text sent",
		zap.String("session_id", sessionID),
		zap.String("platform", rec.info.Platform),
		zap.Int("chars", len(text)),
	)
	return nil
}

// Poll implements Poller.
func (r *Registry) Poll(ctx context.Context, sessionID string) (*RawResponse, error) {
	rec, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return rec.driver.Poll(ctx, sessionID)
}

func (r *Registry) lookup(sessionID string) (*record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return nil, errors.NewSessionNotFound(sessionID)
	}
	return rec, nil
}
