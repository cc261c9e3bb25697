package mcp

import (
	"context"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"item", "prompt", "capture", "summary", "session"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"item_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"item_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"item_fetch_many": {
		def:     fetchManyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetchMany },
	},
	"item_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"item_move": {
		def:     moveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMove },
	},
	"item_reorder": {
		def:     reorderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReorder },
	},
	"item_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"item_bulk_delete": {
		def:     bulkDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkDelete },
	},
	"item_bulk_update": {
		def:     bulkUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkUpdate },
	},
	"item_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"item_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"item_inventory": {
		def:     inventoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInventory },
	},
	"item_latest": {
		def:     latestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLatest },
	},
	"item_append": {
		def:     appendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAppend },
	},
	"item_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"item_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"item_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"item_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"item_add_category": {
		def:     addCategoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddCategory },
	},
	"prompt_compose": {
		def:     composeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompose },
	},
	"prompt_preview": {
		def:     previewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePreview },
	},
	"capture_start": {
		def:     captureStartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureStart },
	},
	"capture_status": {
		def:     captureStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureStatus },
	},
	"capture_wait": {
		def:     captureWaitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureWait },
	},
	"capture_cancel": {
		def:     captureCancelToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureCancel },
	},
	"capture_list": {
		def:     captureListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureList },
	},
	"capture_text": {
		def:     captureTextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureText },
	},
	"summary_request": {
		def:     summaryRequestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryRequest },
	},
	"summary_send": {
		def:     summarySendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarySend },
	},
	"summary_complete": {
		def:     summaryCompleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryComplete },
	},
	"session_open": {
		def:     sessionOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionOpen },
	},
	"session_close": {
		def:     sessionCloseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionClose },
	},
	"session_list": {
		def:     sessionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList },
	},
	"session_send": {
		def:     sessionSendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionSend },
	},
	"session_push": {
		def:     sessionPushToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionPush },
	},
}

// AllToolNames returns every valid tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "capture_wait" → "capture").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	slices.Sort(tools)
	return tools
}

// NewServer creates a new MCP server with Pillbox tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes of the
// runtime's config are excluded from registration.
func NewServer(rt *ops.Runtime, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pillbox",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(rt)
	cfg := rt.Config

	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		h.log.Warn("unknown disabled_tools entries", zap.Strings("tools", unknown))
	}
	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		h.log.Warn("unknown disabled_types entries", zap.Strings("types", unknown))
	}

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP protocol over stdio until the client disconnects or
// the process is signalled.
func Run(rt *ops.Runtime, version string) error {
	s := NewServer(rt, version)
	return server.ServeStdio(s, server.WithErrorLogger(zap.NewStdLog(rt.Log)))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
