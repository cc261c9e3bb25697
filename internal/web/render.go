package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ItemPageData is the template data for the item preview page.
type ItemPageData struct {
	PageData
	Item         *ops.FetchOutput
	RenderedHTML template.HTML
}

// BundlePageData is the template data for the rendered export bundle.
type BundlePageData struct {
	PageData
	Kind         string
	Count        int
	ExportedAt   int64
	RenderedHTML template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	markdown  goldmark.Markdown
	log       *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"formatTime":  formatTime,
		"formatChars": formatChars,
		"deref":       deref,
		"hasValue":    hasValue,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"item":   "item.html",
		"bundle": "bundle.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		// Raw HTML in item text is escaped: goldmark's unsafe mode stays off.
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log:      logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err with content negotiation: an HTML page for browsers,
// JSON otherwise. Duplicate and empty capture outcomes are not failures and
// are written as 200 with an outcome field.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	pErr, ok := errors.As(err)
	if !ok {
		r.log.Error("unexpected error", zap.String("path", req.URL.Path), zap.Error(err))
		pErr = errors.NewInternal(err)
	}

	if pErr.Informational() {
		renderJSON(w, http.StatusOK, map[string]any{
			"outcome": outcomeFor(pErr.Code),
			"code":    pErr.Code,
			"message": pErr.Message,
			"details": pErr.Details,
		})
		return
	}

	status := pErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if wantsHTML(req) {
		r.renderPageStatus(w, status, "error", ErrorPageData{
			PageData: PageData{
				Title:   fmt.Sprintf("Error %d", status),
				Version: r.version,
			},
			StatusCode: status,
			Message:    pErr.Message,
		})
		return
	}

	errorObj := map[string]any{
		"code":    string(pErr.Code),
		"message": pErr.Message,
		"status":  status,
	}
	if pErr.Code != errors.ErrInternal && pErr.Details != nil {
		errorObj["details"] = pErr.Details
	}
	renderJSON(w, status, map[string]any{"error": errorObj})
}

// renderMarkdown converts markdown text to HTML.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// wantsHTML reports whether the client prefers an HTML page over JSON.
func wantsHTML(req *http.Request) bool {
	accept := req.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func outcomeFor(code errors.ErrorCode) string {
	if code == errors.ErrDuplicateResponse {
		return "duplicate"
	}
	return "empty"
}

// markdownBundle renders items as one markdown document, grouped by kind in
// the order given.
func markdownBundle(items []ops.ItemView) string {
	var b strings.Builder
	var kind string
	for _, it := range items {
		if string(it.Kind) != kind {
			kind = string(it.Kind)
			fmt.Fprintf(&b, "# %s\n\n", kindHeading(kind))
		}
		fmt.Fprintf(&b, "## %s\n\n", strings.TrimSpace(it.Title))
		fmt.Fprintf(&b, "*%s*", it.Category)
		if it.SourcePlatform != nil {
			fmt.Fprintf(&b, " · %s", *it.SourcePlatform)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(it.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func kindHeading(kind string) string {
	switch kind {
	case "prompt":
		return "Prompts"
	case "response":
		return "Responses"
	case "summary":
		return "Summaries"
	}
	return kind
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatChars formats an integer with comma thousands separators.
func formatChars(n int) string {
	if n < 0 {
		return "-" + formatChars(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// deref dereferences a pointer, returning the zero value if nil.
func deref(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()).Interface()
		}
		return rv.Elem().Interface()
	}
	return v
}

// hasValue checks if a pointer value is non-nil.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return !rv.IsNil()
	}
	return true
}
