package ops

import (
	"context"
	"database/sql"
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/intake"
	"github.com/hpungsan/pillbox/internal/session"
	"github.com/hpungsan/pillbox/internal/session/api"
	"github.com/hpungsan/pillbox/internal/session/browser"
	"github.com/hpungsan/pillbox/internal/store"
	"github.com/hpungsan/pillbox/internal/summarize"
	"github.com/hpungsan/pillbox/internal/tokens"
)

// Session driver names.
const (
	DriverInbox   = "inbox"
	DriverBrowser = "browser"
	DriverAPI     = "api"
)

// Runtime holds the long-lived components the operations run against.
type Runtime struct {
	Store     *store.Store
	Config    *config.Config
	Intake    *intake.Intake
	Sessions  *session.Registry
	Summaries *summarize.Dispatcher

	// Inbox backs sessions whose responses are pushed in by a client.
	Inbox *session.Inbox

	Log *zap.Logger

	closers []func() error
}

// NewRuntime opens the store over database and wires capture, sessions, and
// summaries from cfg. The browser driver is always registered and connects
// to Chrome on first use; the api driver is registered only when the API key
// environment variable is set.
func NewRuntime(ctx context.Context, database *sql.DB, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	counter, err := tokens.New(cfg.TokenizerEncoding)
	if err != nil {
		logger.Warn("tokenizer unavailable, using heuristic",
			zap.String("encoding", cfg.TokenizerEncoding),
			zap.Error(err),
		)
	}

	st, err := store.Open(ctx, db.NewRepository(database), store.Options{
		Logger:           logger.Named("store"),
		Tokens:           counter,
		MaxChars:         cfg.ItemMaxChars,
		DedupWindow:      cfg.DedupWindow,
		DedupScope:       store.Scope(cfg.DedupScope),
		CustomCategories: cfg.CustomCategories,
	})
	if err != nil {
		return nil, err
	}

	norm, err := intake.NewNormalizer(cfg.Platforms)
	if err != nil {
		return nil, err
	}
	in := intake.New(st, intake.Options{
		Logger:       logger.Named("intake"),
		Normalizer:   norm,
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.CaptureTimeout(),
		MinChars:     cfg.MinResponseChars,
	})

	rt := &Runtime{
		Store:    st,
		Config:   cfg,
		Intake:   in,
		Sessions: session.NewRegistry(logger.Named("session")),
		Inbox:    session.NewInbox(),
		Log:      logger,
	}
	rt.Sessions.Register(DriverInbox, rt.Inbox)

	bd := browser.New(cfg.Browser, cfg.Platforms, logger.Named("browser"))
	rt.Sessions.Register(DriverBrowser, bd)
	rt.closers = append(rt.closers, bd.Close)

	if key := os.Getenv(cfg.OpenAI.APIKeyEnv); cfg.OpenAI.APIKeyEnv != "" && key != "" {
		ad := api.New(api.Config{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  key,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.CaptureTimeout(),
		}, logger.Named("api"))
		rt.Sessions.Register(DriverAPI, ad)
		rt.closers = append(rt.closers, ad.Close)
	}

	rt.Summaries = summarize.NewDispatcher(st, rt.Sessions, rt.Sessions, in, logger.Named("summarize"))
	return rt, nil
}

// Close cancels running grabs and releases every session and driver.
func (rt *Runtime) Close() {
	rt.Intake.Close()
	rt.Sessions.CloseAll()
	for _, c := range rt.closers {
		if err := c(); err != nil {
			rt.Log.Warn("driver close failed", zap.Error(err))
		}
	}
}
