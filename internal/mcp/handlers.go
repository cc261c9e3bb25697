package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	rt  *ops.Runtime
	log *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rt *ops.Runtime) *Handlers {
	return &Handlers{rt: rt, log: rt.Log.Named("mcp")}
}

// Request types for each tool

// CreateRequest represents the arguments for item_create.
type CreateRequest struct {
	Kind           string  `json:"kind,omitempty"`
	Text           string  `json:"text"`
	Title          *string `json:"title,omitempty"`
	Category       string  `json:"category,omitempty"`
	Color          *string `json:"color,omitempty"`
	SourcePlatform string  `json:"source_platform,omitempty"`
}

// FetchRequest represents the arguments for item_fetch.
type FetchRequest struct {
	ID          string `json:"id"`
	IncludeText *bool  `json:"include_text,omitempty"`
}

// FetchManyRequest represents the arguments for item_fetch_many.
type FetchManyRequest struct {
	IDs         []string `json:"ids"`
	IncludeText *bool    `json:"include_text,omitempty"`
}

// UpdateRequest represents the arguments for item_update.
type UpdateRequest struct {
	ID       string  `json:"id"`
	Text     *string `json:"text,omitempty"`
	Title    *string `json:"title,omitempty"`
	Category *string `json:"category,omitempty"`
	Color    *string `json:"color,omitempty"`
}

// MoveRequest represents the arguments for item_move.
type MoveRequest struct {
	IDs []string `json:"ids"`
	To  string   `json:"to"`
}

// ReorderRequest represents the arguments for item_reorder.
type ReorderRequest struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// DeleteRequest represents the arguments for item_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// BulkDeleteRequest represents the arguments for item_bulk_delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkUpdateRequest represents the arguments for item_bulk_update.
type BulkUpdateRequest struct {
	IDs         []string `json:"ids,omitempty"`
	Kind        *string  `json:"kind,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Platform    *string  `json:"platform,omitempty"`
	SetCategory *string  `json:"set_category,omitempty"`
	SetColor    *string  `json:"set_color,omitempty"`
}

// ListRequest represents the arguments for item_list.
type ListRequest struct {
	Kind        string  `json:"kind,omitempty"`
	Category    *string `json:"category,omitempty"`
	Color       *string `json:"color,omitempty"`
	Platform    *string `json:"platform,omitempty"`
	Query       *string `json:"query,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	Offset      int     `json:"offset,omitempty"`
	IncludeText bool    `json:"include_text,omitempty"`
}

// SearchRequest represents the arguments for item_search.
type SearchRequest struct {
	Query    string  `json:"query"`
	Kind     string  `json:"kind,omitempty"`
	Category *string `json:"category,omitempty"`
	Platform *string `json:"platform,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// InventoryRequest represents the arguments for item_inventory.
type InventoryRequest struct {
	Kind string `json:"kind,omitempty"`
}

// LatestRequest represents the arguments for item_latest.
type LatestRequest struct {
	Kind        string  `json:"kind,omitempty"`
	Platform    *string `json:"platform,omitempty"`
	IncludeText *bool   `json:"include_text,omitempty"`
}

// AppendRequest represents the arguments for item_append.
type AppendRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Section string `json:"section,omitempty"`
}

// ExportRequest represents the arguments for item_export.
type ExportRequest struct {
	Path string   `json:"path,omitempty"`
	Kind string   `json:"kind,omitempty"`
	IDs  []string `json:"ids,omitempty"`
}

// ImportRequest represents the arguments for item_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PurgeRequest represents the arguments for item_purge.
type PurgeRequest struct {
	Kind          string `json:"kind"`
	OlderThanDays *int   `json:"older_than_days,omitempty"`
}

// AddCategoryRequest represents the arguments for item_add_category.
type AddCategoryRequest struct {
	Name string `json:"name"`
}

// ComposeRequest represents the arguments for prompt_compose.
type ComposeRequest struct {
	IDs           []string          `json:"ids,omitempty"`
	FreeText      string            `json:"free_text,omitempty"`
	Values        map[string]string `json:"values,omitempty"`
	FilePaths     []string          `json:"file_paths,omitempty"`
	FileGlob      string            `json:"file_glob,omitempty"`
	FileRoot      string            `json:"file_root,omitempty"`
	Separator     *string           `json:"separator,omitempty"`
	AllowMissing  bool              `json:"allow_missing,omitempty"`
	StoreTitle    string            `json:"store_title,omitempty"`
	StoreCategory string            `json:"store_category,omitempty"`
}

// PreviewRequest represents the arguments for prompt_preview.
type PreviewRequest struct {
	IDs       []string          `json:"ids"`
	Values    map[string]string `json:"values,omitempty"`
	Separator *string           `json:"separator,omitempty"`
}

// CaptureStartRequest represents the arguments for capture_start.
type CaptureStartRequest struct {
	SessionID      string `json:"session_id"`
	Kind           string `json:"kind,omitempty"`
	PendingID      string `json:"pending_id,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// GrabRequest represents the arguments for the capture tools that take a grab id.
type GrabRequest struct {
	GrabID string `json:"grab_id"`
}

// CaptureTextRequest represents the arguments for capture_text.
type CaptureTextRequest struct {
	Platform  string `json:"platform"`
	Text      string `json:"text"`
	Kind      string `json:"kind,omitempty"`
	PendingID string `json:"pending_id,omitempty"`
}

// SummaryRequestRequest represents the arguments for summary_request.
type SummaryRequestRequest struct {
	IDs []string `json:"ids"`
}

// SummarySendRequest represents the arguments for summary_send.
type SummarySendRequest struct {
	SessionID      string   `json:"session_id"`
	IDs            []string `json:"ids"`
	Title          string   `json:"title,omitempty"`
	Category       string   `json:"category,omitempty"`
	Capture        bool     `json:"capture,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

// SummaryCompleteRequest represents the arguments for summary_complete.
type SummaryCompleteRequest struct {
	PendingID string `json:"pending_id"`
	Text      string `json:"text"`
	Platform  string `json:"platform,omitempty"`
}

// SessionOpenRequest represents the arguments for session_open.
type SessionOpenRequest struct {
	Platform string `json:"platform"`
	Driver   string `json:"driver,omitempty"`
}

// SessionIDRequest represents the arguments for tools that take a session id.
type SessionIDRequest struct {
	SessionID string `json:"session_id"`
}

// SessionSendRequest represents the arguments for session_send.
type SessionSendRequest struct {
	SessionID      string            `json:"session_id"`
	Text           string            `json:"text,omitempty"`
	IDs            []string          `json:"ids,omitempty"`
	FreeText       string            `json:"free_text,omitempty"`
	Values         map[string]string `json:"values,omitempty"`
	FilePaths      []string          `json:"file_paths,omitempty"`
	Capture        bool              `json:"capture,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

// SessionPushRequest represents the arguments for session_push.
type SessionPushRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// HandleCreate handles the item_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Create(ctx, h.rt.Store, ops.CreateInput{
		Kind:           input.Kind,
		Text:           input.Text,
		Title:          input.Title,
		Category:       input.Category,
		Color:          input.Color,
		SourcePlatform: input.SourcePlatform,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the item_fetch tool call.
func (h *Handlers) HandleFetch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(h.rt.Store, ops.FetchInput{
		ID:          input.ID,
		IncludeText: input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetchMany handles the item_fetch_many tool call.
func (h *Handlers) HandleFetchMany(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchManyRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchMany(h.rt.Store, ops.FetchManyInput{
		IDs:         input.IDs,
		IncludeText: input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the item_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Update(ctx, h.rt.Store, ops.UpdateInput{
		ID:       input.ID,
		Text:     input.Text,
		Title:    input.Title,
		Category: input.Category,
		Color:    input.Color,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMove handles the item_move tool call.
func (h *Handlers) HandleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MoveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Move(ctx, h.rt.Store, ops.MoveInput{IDs: input.IDs, To: input.To})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReorder handles the item_reorder tool call.
func (h *Handlers) HandleReorder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReorderRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Reorder(ctx, h.rt.Store, ops.ReorderInput{Kind: input.Kind, IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the item_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.rt.Store, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBulkDelete handles the item_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.BulkDelete(ctx, h.rt.Store, ops.BulkDeleteInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBulkUpdate handles the item_bulk_update tool call.
func (h *Handlers) HandleBulkUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkUpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.BulkUpdate(ctx, h.rt.Store, ops.BulkUpdateInput{
		IDs:         input.IDs,
		Kind:        input.Kind,
		Category:    input.Category,
		Platform:    input.Platform,
		SetCategory: input.SetCategory,
		SetColor:    input.SetColor,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the item_list tool call.
func (h *Handlers) HandleList(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(h.rt.Store, ops.ListInput{
		Kind:        input.Kind,
		Category:    input.Category,
		Color:       input.Color,
		Platform:    input.Platform,
		Query:       input.Query,
		Limit:       input.Limit,
		Offset:      input.Offset,
		IncludeText: input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the item_search tool call.
func (h *Handlers) HandleSearch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Search(h.rt.Store, ops.SearchInput{
		Query:    input.Query,
		Kind:     input.Kind,
		Category: input.Category,
		Platform: input.Platform,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInventory handles the item_inventory tool call.
func (h *Handlers) HandleInventory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InventoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Inventory(h.rt.Store, ops.InventoryInput{Kind: input.Kind})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLatest handles the item_latest tool call.
func (h *Handlers) HandleLatest(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LatestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Latest(h.rt.Store, ops.LatestInput{
		Kind:        input.Kind,
		Platform:    input.Platform,
		IncludeText: input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAppend handles the item_append tool call.
func (h *Handlers) HandleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AppendRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Append(ctx, h.rt.Store, ops.AppendInput{
		ID:      input.ID,
		Content: input.Content,
		Section: input.Section,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the item_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.rt.Store, h.rt.Config, ops.ExportInput{
		Path: input.Path,
		Kind: input.Kind,
		IDs:  input.IDs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the item_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.rt.Store, h.rt.Config, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the item_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Purge(ctx, h.rt.Store, ops.PurgeInput{
		Kind:          input.Kind,
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategories handles the item_categories tool call.
func (h *Handlers) HandleCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.ListCategories(h.rt.Store))
}

// HandleAddCategory handles the item_add_category tool call.
func (h *Handlers) HandleAddCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddCategoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.AddCategory(ctx, h.rt.Store, ops.AddCategoryInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCompose handles the prompt_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	composeInput := ops.ComposeInput{
		ItemIDs:      input.IDs,
		FreeText:     input.FreeText,
		Values:       input.Values,
		FilePaths:    input.FilePaths,
		FileGlob:     input.FileGlob,
		FileRoot:     input.FileRoot,
		Separator:    input.Separator,
		AllowMissing: input.AllowMissing,
	}
	if input.StoreTitle != "" || input.StoreCategory != "" {
		composeInput.StoreAs = &ops.ComposeStoreAs{
			Title:    input.StoreTitle,
			Category: input.StoreCategory,
		}
	}

	result, err := ops.Compose(ctx, h.rt.Store, h.rt.Config, composeInput)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePreview handles the prompt_preview tool call.
func (h *Handlers) HandlePreview(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PreviewRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ComposePreview(h.rt.Store, h.rt.Config, ops.ComposePreviewInput{
		ItemIDs:   input.IDs,
		Values:    input.Values,
		Separator: input.Separator,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureStart handles the capture_start tool call.
func (h *Handlers) HandleCaptureStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureStartRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CaptureStart(ctx, h.rt, ops.CaptureStartInput{
		SessionID:      input.SessionID,
		Kind:           input.Kind,
		PendingID:      input.PendingID,
		TimeoutSeconds: input.TimeoutSeconds,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureStatus handles the capture_status tool call.
func (h *Handlers) HandleCaptureStatus(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GrabRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CaptureStatus(h.rt, ops.CaptureGrabInput{GrabID: input.GrabID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureWait handles the capture_wait tool call. The call returns
// when the grab ends or the client cancels the request.
func (h *Handlers) HandleCaptureWait(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GrabRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CaptureWait(ctx, h.rt, ops.CaptureGrabInput{GrabID: input.GrabID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureCancel handles the capture_cancel tool call.
func (h *Handlers) HandleCaptureCancel(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GrabRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CaptureCancel(h.rt, ops.CaptureGrabInput{GrabID: input.GrabID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCaptureList handles the capture_list tool call.
func (h *Handlers) HandleCaptureList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.CaptureList(h.rt))
}

// HandleCaptureText handles the capture_text tool call.
func (h *Handlers) HandleCaptureText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureTextRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CaptureText(ctx, h.rt, ops.CaptureTextInput{
		Platform:  input.Platform,
		Text:      input.Text,
		Kind:      input.Kind,
		PendingID: input.PendingID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummaryRequest handles the summary_request tool call.
func (h *Handlers) HandleSummaryRequest(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryRequestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SummaryRequest(h.rt, ops.SummaryRequestInput{ItemIDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummarySend handles the summary_send tool call.
func (h *Handlers) HandleSummarySend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummarySendRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Summarize(ctx, h.rt, ops.SummarizeInput{
		SessionID:      input.SessionID,
		ItemIDs:        input.IDs,
		Title:          input.Title,
		Category:       input.Category,
		Capture:        input.Capture,
		TimeoutSeconds: input.TimeoutSeconds,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummaryComplete handles the summary_complete tool call.
func (h *Handlers) HandleSummaryComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryCompleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SummaryComplete(ctx, h.rt, ops.SummaryCompleteInput{
		PendingID: input.PendingID,
		Text:      input.Text,
		Platform:  input.Platform,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionOpen handles the session_open tool call.
func (h *Handlers) HandleSessionOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionOpenRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SessionOpen(ctx, h.rt, ops.SessionOpenInput{
		Platform: input.Platform,
		Driver:   input.Driver,
	})
	if err != nil {
		return errorResult(err), nil
	}

	h.log.Info("session opened",
		zap.String("session_id", result.ID),
		zap.String("platform", result.Platform),
		zap.String("driver", result.Driver),
	)
	return successResult(result)
}

// HandleSessionClose handles the session_close tool call.
func (h *Handlers) HandleSessionClose(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionIDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SessionClose(h.rt, ops.SessionIDInput{SessionID: input.SessionID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.SessionList(h.rt))
}

// HandleSessionSend handles the session_send tool call. ids, free_text,
// values, and file_paths compose the message; text sends it as is.
func (h *Handlers) HandleSessionSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionSendRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	sendInput := ops.SessionSendInput{
		SessionID:      input.SessionID,
		Text:           input.Text,
		Capture:        input.Capture,
		Kind:           input.Kind,
		TimeoutSeconds: input.TimeoutSeconds,
	}
	if len(input.IDs) > 0 || input.FreeText != "" || len(input.FilePaths) > 0 {
		sendInput.Compose = &ops.ComposeInput{
			ItemIDs:   input.IDs,
			FreeText:  input.FreeText,
			Values:    input.Values,
			FilePaths: input.FilePaths,
		}
	}

	result, err := ops.SessionSend(ctx, h.rt, sendInput)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionPush handles the session_push tool call.
func (h *Handlers) HandleSessionPush(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionPushRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := ops.SessionPush(h.rt, ops.SessionPushInput{
		SessionID: input.SessionID,
		Text:      input.Text,
	}); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"pushed":     true,
		"session_id": input.SessionID,
	})
}

// Result helpers

// errorResult creates an MCP result from an operation error.
// Duplicate and empty responses are outcomes, not failures, and come back
// as regular results with a status. Everything else uses IsError: true.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	pErr, ok := errors.As(err)
	switch {
	case ok && pErr.Informational():
		outcome := map[string]any{
			"status":  informationalStatus(pErr.Code),
			"code":    pErr.Code,
			"message": pErr.Message,
		}
		if pErr.Details != nil {
			outcome["details"] = pErr.Details
		}
		content, _ := json.Marshal(outcome)
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		}

	case ok:
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": messageOf(err, pErr),
			"status":  pErr.Status,
		}
		// Details may carry file paths or driver errors for internal failures
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}

	default:
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// messageOf keeps the context of errors that wrap pErr, such as
// "items[2]: item not found: x".
func messageOf(err error, pErr *errors.PillboxError) string {
	if err == error(pErr) {
		return pErr.Message
	}
	return strings.Replace(err.Error(), pErr.Error(), pErr.Message, 1)
}

func informationalStatus(code errors.ErrorCode) string {
	if code == errors.ErrDuplicateResponse {
		return "duplicate"
	}
	return "empty"
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
