package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/ops"
)

func setupTest(t *testing.T) (*ops.Runtime, http.Handler) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	cfg.PollIntervalMS = 5
	cfg.CaptureTimeoutSeconds = 5
	cfg.OpenAI.APIKeyEnv = ""

	rt, err := ops.NewRuntime(context.Background(), database, cfg, nil)
	if err != nil {
		t.Fatalf("ops.NewRuntime: %v", err)
	}
	t.Cleanup(rt.Close)
	return rt, NewHandler(rt, "test")
}

// do sends a request through the router and returns the recorder.
func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := decodeJSON(t, w)["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %s", w.Body.String())
	}
	return errObj["code"].(string)
}

// seedItem stores an item and returns its ID.
func seedItem(t *testing.T, rt *ops.Runtime, kind, text string) string {
	t.Helper()
	out, err := ops.Create(context.Background(), rt.Store, ops.CreateInput{Kind: kind, Text: text})
	if err != nil {
		t.Fatalf("seed %s: %v", kind, err)
	}
	return out.ID
}

// --- Items ---

func TestHandleCreate(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "POST", "/api/items", `{"text":"Explain [/TOPIC] simply","category":"data extraction"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decodeJSON(t, w)
	if out["kind"] != "prompt" {
		t.Errorf("kind = %v, want prompt", out["kind"])
	}
	placeholders, _ := out["placeholders"].([]any)
	if len(placeholders) != 1 || placeholders[0] != "TOPIC" {
		t.Errorf("placeholders = %v", out["placeholders"])
	}
}

func TestHandleCreate_Errors(t *testing.T) {
	_, h := setupTest(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty text", `{"text":""}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad kind", `{"kind":"note","text":"x"}`, http.StatusUnprocessableEntity, "INVALID_KIND"},
		{"bad json", `{"text":`, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/items", tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := errorCode(t, w); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestHandleList(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "prompt", "first prompt")
	seedItem(t, rt, "prompt", "second prompt")
	seedItem(t, rt, "response", "an answer")

	w := do(t, h, "GET", "/api/items?kind=prompt", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	out := decodeJSON(t, w)
	if items := out["items"].([]any); len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	w = do(t, h, "GET", "/api/items?limit=1", "")
	pagination := decodeJSON(t, w)["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["has_more"] != true {
		t.Errorf("pagination = %v", pagination)
	}
}

func TestHandleList_InvalidLimitFallsBack(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "prompt", "only one")

	w := do(t, h, "GET", "/api/items?limit=abc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if items := decodeJSON(t, w)["items"].([]any); len(items) != 1 {
		t.Errorf("items = %d", len(items))
	}
}

func TestHandleSearch(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "response", "Photosynthesis converts light into energy")
	seedItem(t, rt, "response", "Unrelated text")

	w := do(t, h, "GET", "/api/items/search?q=photosynthesis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	items := decodeJSON(t, w)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	w = do(t, h, "GET", "/api/items/search?q=", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d", w.Code)
	}
}

func TestHandleFetchUpdateDelete(t *testing.T) {
	rt, h := setupTest(t)
	id := seedItem(t, rt, "prompt", "Summarize [/DOC]")

	w := do(t, h, "GET", "/api/items/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d", w.Code)
	}
	if out := decodeJSON(t, w); out["text"] != "Summarize [/DOC]" {
		t.Errorf("text = %v", out["text"])
	}

	w = do(t, h, "GET", "/api/items/"+id+"?include_text=false", "")
	if _, ok := decodeJSON(t, w)["text"]; ok {
		t.Error("text should be omitted")
	}

	w = do(t, h, "PATCH", "/api/items/"+id, `{"title":"Doc summary","category":"Methodology / Methods"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["title"] != "Doc summary" {
		t.Errorf("title = %v", out["title"])
	}

	w = do(t, h, "DELETE", "/api/items/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = do(t, h, "GET", "/api/items/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("fetch after delete status = %d", w.Code)
	}
	if got := errorCode(t, w); got != "NOT_FOUND" {
		t.Errorf("code = %s", got)
	}
}

func TestHandleMoveReorder(t *testing.T) {
	rt, h := setupTest(t)
	a := seedItem(t, rt, "prompt", "a")
	b := seedItem(t, rt, "prompt", "b")

	w := do(t, h, "POST", "/api/items/reorder", `{"kind":"prompt","ids":["`+b+`","`+a+`"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("reorder status = %d, body = %s", w.Code, w.Body.String())
	}
	order := decodeJSON(t, w)["order"].([]any)
	if order[0] != b {
		t.Errorf("order = %v", order)
	}

	w = do(t, h, "POST", "/api/items/move", `{"ids":["`+a+`"],"to":"response"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d, body = %s", w.Code, w.Body.String())
	}
	moved := decodeJSON(t, w)["moved"].([]any)
	if len(moved) != 1 || moved[0].(map[string]any)["kind"] != "response" {
		t.Errorf("moved = %v", moved)
	}
}

func TestHandleBulkOperations(t *testing.T) {
	rt, h := setupTest(t)
	a := seedItem(t, rt, "response", "one")
	b := seedItem(t, rt, "response", "two")

	w := do(t, h, "POST", "/api/items/bulk-update", `{"kind":"response","set_category":"Data Extraction"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk update status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["updated"] != float64(2) {
		t.Errorf("updated = %v", out["updated"])
	}

	w = do(t, h, "POST", "/api/items/bulk-delete", `{"ids":["`+a+`","`+b+`"]}`)
	if out := decodeJSON(t, w); out["deleted"] != float64(2) {
		t.Errorf("deleted = %v", out["deleted"])
	}
}

func TestHandleAppend(t *testing.T) {
	rt, h := setupTest(t)
	id := seedItem(t, rt, "summary", "## Findings\n(tbd)\n\n## Sources\nnone")

	w := do(t, h, "POST", "/api/items/"+id+"/append", `{"section":"Findings","content":"Results agree."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decodeJSON(t, w)
	if out["section_hit"] == nil || out["replaced"] != true {
		t.Errorf("append = %v", out)
	}
}

func TestHandleInventoryLatestCategories(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "response", "older")
	newest := seedItem(t, rt, "response", "newer")

	w := do(t, h, "GET", "/api/items/inventory", "")
	if w.Code != http.StatusOK {
		t.Fatalf("inventory status = %d", w.Code)
	}
	if kinds := decodeJSON(t, w)["kinds"].([]any); len(kinds) == 0 {
		t.Error("expected kind stats")
	}

	w = do(t, h, "GET", "/api/items/latest?kind=response", "")
	latest := decodeJSON(t, w)["item"].(map[string]any)
	if latest["id"] != newest {
		t.Errorf("latest = %v, want %s", latest["id"], newest)
	}

	w = do(t, h, "POST", "/api/categories", `{"name":"Travel"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add category status = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, h, "GET", "/api/categories", "")
	found := false
	for _, c := range decodeJSON(t, w)["categories"].([]any) {
		if c.(map[string]any)["name"] == "Travel" {
			found = true
		}
	}
	if !found {
		t.Error("Travel category not listed")
	}
}

func TestHandlePurge_RequiresConfirm(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "response", "old answer")

	w := do(t, h, "POST", "/api/items/purge", `{"kind":"response"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = do(t, h, "POST", "/api/items/purge", `{"kind":"response","confirm":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["purged"] != float64(1) {
		t.Errorf("purged = %v", out["purged"])
	}
}

func TestHandleExportImport(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "prompt", "Translate [/TEXT]")
	path := filepath.Join(t.TempDir(), "bundle.jsonl")

	w := do(t, h, "POST", "/api/export", `{"path":"`+path+`","kind":"prompt"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["count"] != float64(1) {
		t.Errorf("count = %v", out["count"])
	}

	w = do(t, h, "POST", "/api/import", `{"path":"`+path+`","mode":"skip"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["skipped"] != float64(1) {
		t.Errorf("import = %v", out)
	}
}

// --- HTML previews ---

func TestHandleItemHTML(t *testing.T) {
	rt, h := setupTest(t)
	id := seedItem(t, rt, "response", "# Heading\n\n**bold** <script>alert(1)</script>")

	w := do(t, h, "GET", "/api/items/"+id+"/html", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("markdown was not rendered")
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML should not pass through")
	}
}

func TestHandleItemHTML_NotFound(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "GET", "/api/items/missing/html", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<html") {
		t.Error("expected an HTML error page")
	}
}

func TestHandleExportHTML(t *testing.T) {
	rt, h := setupTest(t)
	seedItem(t, rt, "response", "Answer one")
	seedItem(t, rt, "response", "Answer two")

	w := do(t, h, "GET", "/api/export/html?kind=response", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Responses") || !strings.Contains(body, "Answer two") {
		t.Errorf("bundle body missing content: %s", body)
	}
}

// --- Composition ---

func TestHandleCompose(t *testing.T) {
	rt, h := setupTest(t)
	id := seedItem(t, rt, "prompt", "Compare [/A] and [/B]")

	w := do(t, h, "POST", "/api/compose", `{"ids":["`+id+`"],"values":{"A":"cats","B":"dogs"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["text"] != "Compare cats and dogs" {
		t.Errorf("text = %v", out["text"])
	}

	w = do(t, h, "POST", "/api/compose", `{"ids":["`+id+`"],"values":{"A":"cats"}}`)
	if got := errorCode(t, w); got != "UNRESOLVED_PLACEHOLDER" {
		t.Errorf("code = %s, want UNRESOLVED_PLACEHOLDER", got)
	}

	w = do(t, h, "POST", "/api/compose/preview", `{"ids":["`+id+`"],"values":{"A":"cats"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d, body = %s", w.Code, w.Body.String())
	}
	missing := decodeJSON(t, w)["missing"].([]any)
	if len(missing) != 1 || missing[0] != "B" {
		t.Errorf("missing = %v", missing)
	}
}

// --- Capture and sessions ---

func TestHandleCaptureText_Outcomes(t *testing.T) {
	_, h := setupTest(t)
	body := `{"platform":"claude","text":"The answer is 42."}`

	w := do(t, h, "POST", "/api/captures/text", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["outcome"] != "captured" {
		t.Errorf("outcome = %v", out["outcome"])
	}

	w = do(t, h, "POST", "/api/captures/text", body)
	if w.Code != http.StatusOK {
		t.Errorf("duplicate status = %d", w.Code)
	}
	out := decodeJSON(t, w)
	if out["outcome"] != "duplicate" || out["existing_id"] == "" {
		t.Errorf("duplicate = %v", out)
	}

	w = do(t, h, "POST", "/api/captures/text", `{"platform":"claude","text":"\u200b \n"}`)
	if out := decodeJSON(t, w); out["outcome"] != "empty" {
		t.Errorf("empty = %v", out)
	}
}

func TestHandleSessionCaptureFlow(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "POST", "/api/sessions", `{"platform":"claude"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("open status = %d, body = %s", w.Code, w.Body.String())
	}
	sid := decodeJSON(t, w)["id"].(string)

	w = do(t, h, "POST", "/api/sessions/"+sid+"/capture", `{}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("capture status = %d, body = %s", w.Code, w.Body.String())
	}
	grabID := decodeJSON(t, w)["grab_id"].(string)

	w = do(t, h, "GET", "/api/captures", "")
	if grabs := decodeJSON(t, w)["grabs"].([]any); len(grabs) != 1 {
		t.Errorf("active grabs = %d, want 1", len(grabs))
	}

	w = do(t, h, "POST", "/api/sessions/"+sid+"/push", `{"text":"Pushed answer"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("push status = %d, body = %s", w.Code, w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := httptest.NewRequest("GET", "/api/captures/"+grabID+"/wait", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := decodeJSON(t, rec)
	if out["outcome"] != "captured" || out["state"] != "captured" {
		t.Fatalf("wait = %v", out)
	}

	w = do(t, h, "GET", "/api/captures/"+grabID, "")
	if out := decodeJSON(t, w); out["state"] != "captured" {
		t.Errorf("status = %v", out)
	}

	w = do(t, h, "DELETE", "/api/sessions/"+sid, "")
	if w.Code != http.StatusOK {
		t.Errorf("close status = %d", w.Code)
	}
	w = do(t, h, "DELETE", "/api/sessions/"+sid, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second close status = %d", w.Code)
	}
}

func TestHandleCaptureCancel(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "POST", "/api/sessions", `{"platform":"gemini"}`)
	sid := decodeJSON(t, w)["id"].(string)
	w = do(t, h, "POST", "/api/sessions/"+sid+"/capture", `{}`)
	grabID := decodeJSON(t, w)["grab_id"].(string)

	w = do(t, h, "DELETE", "/api/captures/"+grabID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["outcome"] != "cancelled" {
		t.Errorf("outcome = %v", out["outcome"])
	}
}

func TestHandleSessionSend(t *testing.T) {
	rt, h := setupTest(t)
	id := seedItem(t, rt, "prompt", "Define [/TERM]")

	w := do(t, h, "POST", "/api/sessions", `{"platform":"chatgpt"}`)
	sid := decodeJSON(t, w)["id"].(string)

	w = do(t, h, "POST", "/api/sessions/"+sid+"/send", `{"compose":{"ids":["`+id+`"],"values":{"TERM":"entropy"}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", w.Code, w.Body.String())
	}
	out := decodeJSON(t, w)
	if out["composed"] != true || out["chars"] != float64(len("Define entropy")) {
		t.Errorf("send = %v", out)
	}

	w = do(t, h, "POST", "/api/sessions", `{"platform":"chatgpt","driver":"carrier-pigeon"}`)
	if got := errorCode(t, w); got != "INVALID_REQUEST" {
		t.Errorf("code = %s", got)
	}

	w = do(t, h, "GET", "/api/sessions", "")
	if sessions := decodeJSON(t, w)["sessions"].([]any); len(sessions) != 1 {
		t.Errorf("sessions = %d", len(sessions))
	}
}

// --- Summaries ---

func TestHandleSummaryFlow(t *testing.T) {
	rt, h := setupTest(t)
	a := seedItem(t, rt, "response", "First answer")
	b := seedItem(t, rt, "response", "Second answer")
	ids := `["` + a + `","` + b + `"]`

	w := do(t, h, "POST", "/api/summaries/request", `{"ids":`+ids+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("request status = %d, body = %s", w.Code, w.Body.String())
	}
	if out := decodeJSON(t, w); out["parts"] != float64(2) {
		t.Errorf("parts = %v", out["parts"])
	}

	w = do(t, h, "POST", "/api/sessions", `{"platform":"claude"}`)
	sid := decodeJSON(t, w)["id"].(string)

	w = do(t, h, "POST", "/api/summaries", `{"session_id":"`+sid+`","ids":`+ids+`}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("send status = %d, body = %s", w.Code, w.Body.String())
	}
	pendingID := decodeJSON(t, w)["pending_id"].(string)

	w = do(t, h, "POST", "/api/summaries/"+pendingID+"/complete", `{"text":"They agree."}`)
	if out := decodeJSON(t, w); out["outcome"] != "captured" {
		t.Errorf("complete = %v", out)
	}
}

// --- Middleware and helpers ---

func TestSecurityHeaders(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "GET", "/api/items", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRootRedirects(t *testing.T) {
	_, h := setupTest(t)

	w := do(t, h, "GET", "/", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/api/items" {
		t.Errorf("status = %d, location = %s", w.Code, w.Header().Get("Location"))
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"limit=5", 5},
		{"limit=abc", 10},
		{"limit=-1", -1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/?"+tt.query, nil)
		if got := parseIntParam(r, "limit", 10); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseBoolParam(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"x=true", true},
		{"x=TRUE", true},
		{"x=1", true},
		{"x=no", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/?"+tt.query, nil)
		if got := parseBoolParam(r, "x"); got != tt.want {
			t.Errorf("parseBoolParam(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestPtrString(t *testing.T) {
	if ptrString("") != nil {
		t.Error("empty string should give nil")
	}
	if p := ptrString("x"); p == nil || *p != "x" {
		t.Errorf("ptrString(x) = %v", p)
	}
}

func TestFormatChars(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -1500: "-1,500"}
	for n, want := range tests {
		if got := formatChars(n); got != want {
			t.Errorf("formatChars(%d) = %q, want %q", n, got, want)
		}
	}
}
