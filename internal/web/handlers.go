package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 8 << 20

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	rt       *ops.Runtime
	log      *zap.Logger
	renderer *Renderer
}

// Request bodies

type createBody struct {
	Kind           string  `json:"kind"`
	Text           string  `json:"text"`
	Title          *string `json:"title"`
	Category       string  `json:"category"`
	Color          *string `json:"color"`
	SourcePlatform string  `json:"source_platform"`
}

type updateBody struct {
	Text     *string `json:"text"`
	Title    *string `json:"title"`
	Category *string `json:"category"`
	Color    *string `json:"color"`
}

type idsBody struct {
	IDs  []string `json:"ids"`
	To   string   `json:"to"`
	Kind string   `json:"kind"`
}

type bulkUpdateBody struct {
	IDs         []string `json:"ids"`
	Kind        *string  `json:"kind"`
	Category    *string  `json:"category"`
	Platform    *string  `json:"platform"`
	SetCategory *string  `json:"set_category"`
	SetColor    *string  `json:"set_color"`
}

type purgeBody struct {
	Kind          string `json:"kind"`
	OlderThanDays *int   `json:"older_than_days"`
	Confirm       bool   `json:"confirm"`
}

type appendBody struct {
	Content string `json:"content"`
	Section string `json:"section"`
}

type nameBody struct {
	Name string `json:"name"`
}

type exportBody struct {
	Path string   `json:"path"`
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

type importBody struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

type composeBody struct {
	IDs          []string          `json:"ids"`
	FreeText     string            `json:"free_text"`
	Values       map[string]string `json:"values"`
	FilePaths    []string          `json:"file_paths"`
	FileGlob     string            `json:"file_glob"`
	FileRoot     string            `json:"file_root"`
	Separator    *string           `json:"separator"`
	AllowMissing bool              `json:"allow_missing"`
	StoreAs      *struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	} `json:"store_as"`
}

func (b composeBody) input() ops.ComposeInput {
	in := ops.ComposeInput{
		ItemIDs:      b.IDs,
		FreeText:     b.FreeText,
		Values:       b.Values,
		FilePaths:    b.FilePaths,
		FileGlob:     b.FileGlob,
		FileRoot:     b.FileRoot,
		Separator:    b.Separator,
		AllowMissing: b.AllowMissing,
	}
	if b.StoreAs != nil {
		in.StoreAs = &ops.ComposeStoreAs{Title: b.StoreAs.Title, Category: b.StoreAs.Category}
	}
	return in
}

type sessionOpenBody struct {
	Platform string `json:"platform"`
	Driver   string `json:"driver"`
}

type sendBody struct {
	Text           string       `json:"text"`
	Compose        *composeBody `json:"compose"`
	Capture        bool         `json:"capture"`
	Kind           string       `json:"kind"`
	TimeoutSeconds int          `json:"timeout_seconds"`
}

type textBody struct {
	Text string `json:"text"`
}

type captureStartBody struct {
	Kind           string `json:"kind"`
	PendingID      string `json:"pending_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type captureTextBody struct {
	Platform  string `json:"platform"`
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	PendingID string `json:"pending_id"`
}

type summaryBody struct {
	SessionID      string   `json:"session_id"`
	IDs            []string `json:"ids"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Capture        bool     `json:"capture"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

type completeBody struct {
	Text     string `json:"text"`
	Platform string `json:"platform"`
}

// captureTextResponse adds the outcome field to a capture_text result.
type captureTextResponse struct {
	Outcome string `json:"outcome"`
	*ops.CaptureTextOutput
}

// captureStatusResponse adds the outcome field to a grab status.
type captureStatusResponse struct {
	Outcome string `json:"outcome"`
	*ops.CaptureStatusOutput
}

func withOutcome(s *ops.CaptureStatusOutput) captureStatusResponse {
	return captureStatusResponse{Outcome: s.State, CaptureStatusOutput: s}
}

// Items

// HandleList handles GET /api/items.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.List(h.rt.Store, ops.ListInput{
		Kind:        q.Get("kind"),
		Category:    ptrString(q.Get("category")),
		Color:       ptrString(q.Get("color")),
		Platform:    ptrString(q.Get("platform")),
		Query:       ptrString(q.Get("q")),
		Limit:       parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:      parseIntParam(r, "offset", 0),
		IncludeText: parseBoolParam(r, "include_text"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleCreate handles POST /api/items.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Create(r.Context(), h.rt.Store, ops.CreateInput(body))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleSearch handles GET /api/items/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.Search(h.rt.Store, ops.SearchInput{
		Query:    q.Get("q"),
		Kind:     q.Get("kind"),
		Category: ptrString(q.Get("category")),
		Platform: ptrString(q.Get("platform")),
		Limit:    parseIntParam(r, "limit", ops.DefaultSearchLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleInventory handles GET /api/items/inventory.
func (h *Handlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Inventory(h.rt.Store, ops.InventoryInput{Kind: r.URL.Query().Get("kind")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleLatest handles GET /api/items/latest.
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	includeText := parseBoolParam(r, "include_text")
	result, err := ops.Latest(h.rt.Store, ops.LatestInput{
		Kind:        r.URL.Query().Get("kind"),
		Platform:    ptrString(r.URL.Query().Get("platform")),
		IncludeText: &includeText,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleFetch handles GET /api/items/{id}.
func (h *Handlers) HandleFetch(w http.ResponseWriter, r *http.Request) {
	input := ops.FetchInput{ID: r.PathValue("id")}
	if r.URL.Query().Has("include_text") {
		includeText := parseBoolParam(r, "include_text")
		input.IncludeText = &includeText
	}
	result, err := ops.Fetch(h.rt.Store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleItemHTML handles GET /api/items/{id}/html, rendering the item text
// as markdown.
func (h *Handlers) HandleItemHTML(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Fetch(h.rt.Store, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		r.Header.Set("Accept", "text/html")
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "item", ItemPageData{
		PageData: PageData{
			Title:   result.Title,
			Version: h.renderer.version,
		},
		Item:         result,
		RenderedHTML: h.renderer.renderMarkdown(result.Text),
	})
}

// HandleUpdate handles PATCH /api/items/{id}.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Update(r.Context(), h.rt.Store, ops.UpdateInput{
		ID:       r.PathValue("id"),
		Text:     body.Text,
		Title:    body.Title,
		Category: body.Category,
		Color:    body.Color,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDelete handles DELETE /api/items/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.rt.Store, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAppend handles POST /api/items/{id}/append.
func (h *Handlers) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var body appendBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Append(r.Context(), h.rt.Store, ops.AppendInput{
		ID:      r.PathValue("id"),
		Content: body.Content,
		Section: body.Section,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleMove handles POST /api/items/move.
func (h *Handlers) HandleMove(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Move(r.Context(), h.rt.Store, ops.MoveInput{IDs: body.IDs, To: body.To})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleReorder handles POST /api/items/reorder.
func (h *Handlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Reorder(r.Context(), h.rt.Store, ops.ReorderInput{Kind: body.Kind, IDs: body.IDs})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBulkDelete handles POST /api/items/bulk-delete.
func (h *Handlers) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.BulkDelete(r.Context(), h.rt.Store, ops.BulkDeleteInput{IDs: body.IDs})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBulkUpdate handles POST /api/items/bulk-update.
func (h *Handlers) HandleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var body bulkUpdateBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.BulkUpdate(r.Context(), h.rt.Store, ops.BulkUpdateInput(body))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandlePurge handles POST /api/items/purge. The body must carry confirm: true.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	var body purgeBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	if !body.Confirm {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm must be true"))
		return
	}
	result, err := ops.Purge(r.Context(), h.rt.Store, ops.PurgeInput{
		Kind:          body.Kind,
		OlderThanDays: body.OlderThanDays,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleCategories handles GET /api/categories.
func (h *Handlers) HandleCategories(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, ops.ListCategories(h.rt.Store))
}

// HandleAddCategory handles POST /api/categories.
func (h *Handlers) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.AddCategory(r.Context(), h.rt.Store, ops.AddCategoryInput{Name: body.Name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleExport handles POST /api/export, writing a JSONL bundle to disk.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var body exportBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Export(r.Context(), h.rt.Store, h.rt.Config, ops.ExportInput(body))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleExportHTML handles GET /api/export/html: the items of a kind (or
// every item) rendered as one markdown document.
func (h *Handlers) HandleExportHTML(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	result, err := ops.List(h.rt.Store, ops.ListInput{
		Kind:        kind,
		Limit:       ops.MaxListLimit,
		IncludeText: true,
	})
	if err != nil {
		r.Header.Set("Accept", "text/html")
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "bundle", BundlePageData{
		PageData: PageData{
			Title:   "Export",
			Version: h.renderer.version,
		},
		Kind:         kind,
		Count:        len(result.Items),
		ExportedAt:   time.Now().Unix(),
		RenderedHTML: h.renderer.renderMarkdown(markdownBundle(result.Items)),
	})
}

// HandleImport handles POST /api/import.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	var body importBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Import(r.Context(), h.rt.Store, h.rt.Config, ops.ImportInput{
		Path: body.Path,
		Mode: ops.ImportMode(body.Mode),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// Composition

// HandleCompose handles POST /api/compose.
func (h *Handlers) HandleCompose(w http.ResponseWriter, r *http.Request) {
	var body composeBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Compose(r.Context(), h.rt.Store, h.rt.Config, body.input())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandlePreview handles POST /api/compose/preview.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var body composeBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.ComposePreview(h.rt.Store, h.rt.Config, ops.ComposePreviewInput{
		ItemIDs:   body.IDs,
		Values:    body.Values,
		Separator: body.Separator,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// Sessions

// HandleSessionList handles GET /api/sessions.
func (h *Handlers) HandleSessionList(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, ops.SessionList(h.rt))
}

// HandleSessionOpen handles POST /api/sessions.
func (h *Handlers) HandleSessionOpen(w http.ResponseWriter, r *http.Request) {
	var body sessionOpenBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.SessionOpen(r.Context(), h.rt, ops.SessionOpenInput(body))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleSessionClose handles DELETE /api/sessions/{id}.
func (h *Handlers) HandleSessionClose(w http.ResponseWriter, r *http.Request) {
	result, err := ops.SessionClose(h.rt, ops.SessionIDInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSessionSend handles POST /api/sessions/{id}/send.
func (h *Handlers) HandleSessionSend(w http.ResponseWriter, r *http.Request) {
	var body sendBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	input := ops.SessionSendInput{
		SessionID:      r.PathValue("id"),
		Text:           body.Text,
		Capture:        body.Capture,
		Kind:           body.Kind,
		TimeoutSeconds: body.TimeoutSeconds,
	}
	if body.Compose != nil {
		c := body.Compose.input()
		input.Compose = &c
	}
	result, err := ops.SessionSend(r.Context(), h.rt, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSessionPush handles POST /api/sessions/{id}/push, delivering a
// response into an inbox session.
func (h *Handlers) HandleSessionPush(w http.ResponseWriter, r *http.Request) {
	var body textBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	sessionID := r.PathValue("id")
	if err := ops.SessionPush(h.rt, ops.SessionPushInput{SessionID: sessionID, Text: body.Text}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusAccepted, map[string]any{"pushed": true, "session_id": sessionID})
}

// Capture

// HandleCaptureStart handles POST /api/sessions/{id}/capture.
func (h *Handlers) HandleCaptureStart(w http.ResponseWriter, r *http.Request) {
	var body captureStartBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.CaptureStart(r.Context(), h.rt, ops.CaptureStartInput{
		SessionID:      r.PathValue("id"),
		Kind:           body.Kind,
		PendingID:      body.PendingID,
		TimeoutSeconds: body.TimeoutSeconds,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusAccepted, withOutcome(result))
}

// HandleCaptureList handles GET /api/captures.
func (h *Handlers) HandleCaptureList(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, ops.CaptureList(h.rt))
}

// HandleCaptureStatus handles GET /api/captures/{id}.
func (h *Handlers) HandleCaptureStatus(w http.ResponseWriter, r *http.Request) {
	result, err := ops.CaptureStatus(h.rt, ops.CaptureGrabInput{GrabID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, withOutcome(result))
}

// HandleCaptureWait handles GET /api/captures/{id}/wait. It blocks until the
// grab ends or the client disconnects.
func (h *Handlers) HandleCaptureWait(w http.ResponseWriter, r *http.Request) {
	result, err := ops.CaptureWait(r.Context(), h.rt, ops.CaptureGrabInput{GrabID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, withOutcome(result))
}

// HandleCaptureCancel handles DELETE /api/captures/{id}.
func (h *Handlers) HandleCaptureCancel(w http.ResponseWriter, r *http.Request) {
	result, err := ops.CaptureCancel(h.rt, ops.CaptureGrabInput{GrabID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, withOutcome(result))
}

// HandleCaptureText handles POST /api/captures/text. Duplicate and empty
// text return 200 with the outcome set accordingly.
func (h *Handlers) HandleCaptureText(w http.ResponseWriter, r *http.Request) {
	var body captureTextBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.CaptureText(r.Context(), h.rt, ops.CaptureTextInput(body))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Item != nil {
		status = http.StatusCreated
	}
	renderJSON(w, status, captureTextResponse{Outcome: result.Status, CaptureTextOutput: result})
}

// Summaries

// HandleSummaryRequest handles POST /api/summaries/request.
func (h *Handlers) HandleSummaryRequest(w http.ResponseWriter, r *http.Request) {
	var body summaryBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.SummaryRequest(h.rt, ops.SummaryRequestInput{ItemIDs: body.IDs})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSummarySend handles POST /api/summaries.
func (h *Handlers) HandleSummarySend(w http.ResponseWriter, r *http.Request) {
	var body summaryBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.Summarize(r.Context(), h.rt, ops.SummarizeInput{
		SessionID:      body.SessionID,
		ItemIDs:        body.IDs,
		Title:          body.Title,
		Category:       body.Category,
		Capture:        body.Capture,
		TimeoutSeconds: body.TimeoutSeconds,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleSummaryComplete handles POST /api/summaries/{id}/complete.
func (h *Handlers) HandleSummaryComplete(w http.ResponseWriter, r *http.Request) {
	var body completeBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	result, err := ops.SummaryComplete(r.Context(), h.rt, ops.SummaryCompleteInput{
		PendingID: r.PathValue("id"),
		Text:      body.Text,
		Platform:  body.Platform,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, captureTextResponse{Outcome: result.Status, CaptureTextOutput: result})
}

// decodeBody reads a JSON body into v. An empty body leaves v zero. On
// failure it writes an INVALID_REQUEST response and returns false.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := strings.ToLower(r.URL.Query().Get(name))
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
