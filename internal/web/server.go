// Package web serves the local JSON HTTP API and item previews.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server over rt.
func NewServer(rt *ops.Runtime, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(rt, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, logged handler tree.
func NewHandler(rt *ops.Runtime, version string) http.Handler {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("template sub-FS: %v", err))
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static sub-FS: %v", err))
	}

	log := rt.Log.Named("web")
	h := &Handlers{
		rt:       rt,
		log:      log,
		renderer: NewRenderer(templateSub, version, log),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/items", http.StatusFound)
	})

	// Items
	mux.HandleFunc("GET /api/items", h.HandleList)
	mux.HandleFunc("POST /api/items", h.HandleCreate)
	mux.HandleFunc("GET /api/items/search", h.HandleSearch)
	mux.HandleFunc("GET /api/items/inventory", h.HandleInventory)
	mux.HandleFunc("GET /api/items/latest", h.HandleLatest)
	mux.HandleFunc("POST /api/items/move", h.HandleMove)
	mux.HandleFunc("POST /api/items/reorder", h.HandleReorder)
	mux.HandleFunc("POST /api/items/bulk-delete", h.HandleBulkDelete)
	mux.HandleFunc("POST /api/items/bulk-update", h.HandleBulkUpdate)
	mux.HandleFunc("POST /api/items/purge", h.HandlePurge)
	mux.HandleFunc("GET /api/items/{id}", h.HandleFetch)
	mux.HandleFunc("PATCH /api/items/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /api/items/{id}", h.HandleDelete)
	mux.HandleFunc("POST /api/items/{id}/append", h.HandleAppend)
	mux.HandleFunc("GET /api/items/{id}/html", h.HandleItemHTML)

	mux.HandleFunc("GET /api/categories", h.HandleCategories)
	mux.HandleFunc("POST /api/categories", h.HandleAddCategory)

	mux.HandleFunc("POST /api/export", h.HandleExport)
	mux.HandleFunc("GET /api/export/html", h.HandleExportHTML)
	mux.HandleFunc("POST /api/import", h.HandleImport)

	// Composition
	mux.HandleFunc("POST /api/compose", h.HandleCompose)
	mux.HandleFunc("POST /api/compose/preview", h.HandlePreview)

	// Sessions and capture
	mux.HandleFunc("GET /api/sessions", h.HandleSessionList)
	mux.HandleFunc("POST /api/sessions", h.HandleSessionOpen)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleSessionClose)
	mux.HandleFunc("POST /api/sessions/{id}/send", h.HandleSessionSend)
	mux.HandleFunc("POST /api/sessions/{id}/push", h.HandleSessionPush)
	mux.HandleFunc("POST /api/sessions/{id}/capture", h.HandleCaptureStart)

	mux.HandleFunc("GET /api/captures", h.HandleCaptureList)
	mux.HandleFunc("POST /api/captures/text", h.HandleCaptureText)
	mux.HandleFunc("GET /api/captures/{id}", h.HandleCaptureStatus)
	mux.HandleFunc("GET /api/captures/{id}/wait", h.HandleCaptureWait)
	mux.HandleFunc("DELETE /api/captures/{id}", h.HandleCaptureCancel)

	// Summaries
	mux.HandleFunc("POST /api/summaries/request", h.HandleSummaryRequest)
	mux.HandleFunc("POST /api/summaries", h.HandleSummarySend)
	mux.HandleFunc("POST /api/summaries/{id}/complete", h.HandleSummaryComplete)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return requestLogger(log, securityHeaders(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// requestLogger logs one line per request. Bodies are never logged.
func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			log.Warn("request", fields...)
			return
		}
		log.Info("request", fields...)
	})
}

// Run serves srv until ctx is done, then shuts it down gracefully.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("pillbox API listening", zap.String("addr", "http://"+srv.Addr))
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
