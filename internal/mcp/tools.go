package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var kindEnum = mcp.Enum("prompt", "response", "summary")

var createToolDef = mcp.NewTool("item_create",
	mcp.WithDescription("Create a prompt, response, or summary item. Prompts may contain [/NAME] placeholders that are filled at compose time."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Item text")),
	mcp.WithString("kind", kindEnum, mcp.Description("Item kind (default: prompt)")),
	mcp.WithString("title", mcp.Description("Title (default: derived from the first line of text)")),
	mcp.WithString("category", mcp.Description("Category name (default: Uncategorized)")),
	mcp.WithString("color", mcp.Description("Color label (red, orange, yellow, green, blue, purple, gray) or #RRGGBB")),
	mcp.WithString("source_platform", mcp.Description("Platform a response came from")),
)

var fetchToolDef = mcp.NewTool("item_fetch",
	mcp.WithDescription("Fetch one item by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithBoolean("include_text", mcp.Description("Include the item text (default: true)")),
)

var fetchManyToolDef = mcp.NewTool("item_fetch_many",
	mcp.WithDescription("Fetch several items by id. Missing ids are reported per item instead of failing the call."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Item ids (max 50)")),
	mcp.WithBoolean("include_text", mcp.Description("Include item text (default: true)")),
)

var updateToolDef = mcp.NewTool("item_update",
	mcp.WithDescription("Edit an item's text, title, category, or color. Omitted fields are left unchanged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithString("text", mcp.Description("New text")),
	mcp.WithString("title", mcp.Description("New title; empty re-derives it from the text")),
	mcp.WithString("category", mcp.Description("New category")),
	mcp.WithString("color", mcp.Description("New color; empty restores the kind's default")),
)

var moveToolDef = mcp.NewTool("item_move",
	mcp.WithDescription("Move items to another kind. Moved items go to the end of the destination order."),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Item ids to move")),
	mcp.WithString("to", mcp.Required(), kindEnum, mcp.Description("Destination kind")),
)

var reorderToolDef = mcp.NewTool("item_reorder",
	mcp.WithDescription("Set the display order of a kind. ids must list every item of the kind exactly once."),
	mcp.WithString("kind", mcp.Required(), kindEnum, mcp.Description("Kind to reorder")),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Every item id of the kind, in the new order")),
)

var deleteToolDef = mcp.NewTool("item_delete",
	mcp.WithDescription("Delete one item."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
)

var bulkDeleteToolDef = mcp.NewTool("item_bulk_delete",
	mcp.WithDescription("Delete several items by id."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Item ids")),
)

var bulkUpdateToolDef = mcp.NewTool("item_bulk_update",
	mcp.WithDescription("Set the category or color of many items, selected by ids or by filters."),
	mcp.WithArray("ids", stringItems, mcp.Description("Explicit item ids")),
	mcp.WithString("kind", kindEnum, mcp.Description("Filter by kind")),
	mcp.WithString("category", mcp.Description("Filter by category")),
	mcp.WithString("platform", mcp.Description("Filter by source platform")),
	mcp.WithString("set_category", mcp.Description("New category")),
	mcp.WithString("set_color", mcp.Description("New color; empty restores each kind's default")),
)

var listToolDef = mcp.NewTool("item_list",
	mcp.WithDescription("List items in display order with optional filters."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("kind", kindEnum, mcp.Description("Filter by kind")),
	mcp.WithString("category", mcp.Description("Filter by category")),
	mcp.WithString("color", mcp.Description("Filter by color")),
	mcp.WithString("platform", mcp.Description("Filter by source platform")),
	mcp.WithString("query", mcp.Description("Case-insensitive substring of title or text")),
	mcp.WithNumber("limit", mcp.Description("Max results (default: 50, max: 500)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
	mcp.WithBoolean("include_text", mcp.Description("Include item text (default: false)")),
)

var searchToolDef = mcp.NewTool("item_search",
	mcp.WithDescription("Search item titles and text. Title matches rank first; results carry a snippet around the first match."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
	mcp.WithString("kind", kindEnum, mcp.Description("Filter by kind")),
	mcp.WithString("category", mcp.Description("Filter by category")),
	mcp.WithString("platform", mcp.Description("Filter by source platform")),
	mcp.WithNumber("limit", mcp.Description("Max results (default: 20, max: 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var inventoryToolDef = mcp.NewTool("item_inventory",
	mcp.WithDescription("Count items per kind, category, and platform, with text size and token estimates."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("kind", kindEnum, mcp.Description("Limit to one kind")),
)

var latestToolDef = mcp.NewTool("item_latest",
	mcp.WithDescription("Return the most recently created item of a kind."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("kind", kindEnum, mcp.Description("Kind (default: response)")),
	mcp.WithString("platform", mcp.Description("Filter by source platform")),
	mcp.WithBoolean("include_text", mcp.Description("Include item text (default: false)")),
)

var appendToolDef = mcp.NewTool("item_append",
	mcp.WithDescription("Append content to an item, optionally under a markdown heading."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Text to append")),
	mcp.WithString("section", mcp.Description("Heading to append under; empty appends to the end")),
)

var exportToolDef = mcp.NewTool("item_export",
	mcp.WithDescription("Export items to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination path (default: ~/.pillbox/exports/<kind>-<timestamp>.jsonl)")),
	mcp.WithString("kind", kindEnum, mcp.Description("Export only this kind")),
	mcp.WithArray("ids", stringItems, mcp.Description("Export only these items, in this order")),
)

var importToolDef = mcp.NewTool("item_import",
	mcp.WithDescription("Import items from a JSONL export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source path")),
	mcp.WithString("mode", mcp.Enum("error", "skip", "keep"), mcp.Description("error aborts on any problem; skip drops bad lines and duplicates; keep drops bad lines and imports duplicates (default: error)")),
)

var purgeToolDef = mcp.NewTool("item_purge",
	mcp.WithDescription("Permanently delete every item of a kind. Pending summaries are kept."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("kind", mcp.Required(), kindEnum, mcp.Description("Kind to purge")),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge items not updated for this many days")),
)

var categoriesToolDef = mcp.NewTool("item_categories",
	mcp.WithDescription("List preset and custom categories with item counts."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var addCategoryToolDef = mcp.NewTool("item_add_category",
	mcp.WithDescription("Register a custom category."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Category name")),
)

var composeToolDef = mcp.NewTool("prompt_compose",
	mcp.WithDescription("Compose prompts and free text into one message, filling [/NAME] placeholders and attaching file context."),
	mcp.WithArray("ids", stringItems, mcp.Description("Prompt ids in send order")),
	mcp.WithString("free_text", mcp.Description(`Text after the prompts. [/NAME]="value" entries supply placeholder values and are removed`)),
	mcp.WithObject("values", mcp.Description("Placeholder values by name")),
	mcp.WithArray("file_paths", stringItems, mcp.Description("Files to attach as context")),
	mcp.WithString("file_glob", mcp.Description("Attach files matching this pattern, e.g. notes/**/*.md")),
	mcp.WithString("file_root", mcp.Description("Directory file_glob is matched under")),
	mcp.WithString("separator", mcp.Description("Separator between parts")),
	mcp.WithBoolean("allow_missing", mcp.Description("Leave unfilled placeholders instead of failing")),
	mcp.WithString("store_title", mcp.Description("Save the composed text as a new prompt with this title")),
	mcp.WithString("store_category", mcp.Description("Category of the saved prompt")),
)

var previewToolDef = mcp.NewTool("prompt_preview",
	mcp.WithDescription("Preview composed prompts with placeholders marked, and list which ones still need values."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Prompt ids")),
	mcp.WithObject("values", mcp.Description("Placeholder values by name")),
	mcp.WithString("separator", mcp.Description("Separator between parts")),
)

var captureStartToolDef = mcp.NewTool("capture_start",
	mcp.WithDescription("Start waiting for the next response in a session. Returns a grab id to poll."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("kind", mcp.Enum("response", "summary"), mcp.Description("Kind of item to create (default: response)")),
	mcp.WithString("pending_id", mcp.Description("Fill this pending summary instead of creating an item")),
	mcp.WithNumber("timeout_seconds", mcp.Description("Override the capture timeout")),
)

var captureStatusToolDef = mcp.NewTool("capture_status",
	mcp.WithDescription("Report the state of a grab."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("grab_id", mcp.Required(), mcp.Description("Grab id")),
)

var captureWaitToolDef = mcp.NewTool("capture_wait",
	mcp.WithDescription("Block until a grab finishes and report its outcome."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("grab_id", mcp.Required(), mcp.Description("Grab id")),
)

var captureCancelToolDef = mcp.NewTool("capture_cancel",
	mcp.WithDescription("Cancel a running grab."),
	mcp.WithString("grab_id", mcp.Required(), mcp.Description("Grab id")),
)

var captureListToolDef = mcp.NewTool("capture_list",
	mcp.WithDescription("List running and recently finished grabs."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var captureTextToolDef = mcp.NewTool("capture_text",
	mcp.WithDescription("Capture response text obtained outside a session. Duplicate and empty text are reported in status, not as errors."),
	mcp.WithString("platform", mcp.Required(), mcp.Description("Platform the text came from")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Response text")),
	mcp.WithString("kind", mcp.Enum("response", "summary"), mcp.Description("Kind of item to create (default: response)")),
	mcp.WithString("pending_id", mcp.Description("Fill this pending summary instead of creating an item")),
)

var summaryRequestToolDef = mcp.NewTool("summary_request",
	mcp.WithDescription("Build the summarization request for a set of responses without sending it."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Response ids in order")),
)

var summarySendToolDef = mcp.NewTool("summary_send",
	mcp.WithDescription("Send a summarization request to a session and create a pending summary that a capture fills."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Response ids in order")),
	mcp.WithString("title", mcp.Description("Title of the pending summary")),
	mcp.WithString("category", mcp.Description("Category of the summary")),
	mcp.WithBoolean("capture", mcp.Description("Start a grab that fills the pending summary")),
	mcp.WithNumber("timeout_seconds", mcp.Description("Override the capture timeout")),
)

var summaryCompleteToolDef = mcp.NewTool("summary_complete",
	mcp.WithDescription("Fill a pending summary with text obtained outside a session."),
	mcp.WithString("pending_id", mcp.Required(), mcp.Description("Pending summary id")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Summary text")),
	mcp.WithString("platform", mcp.Description("Platform the text came from (default: the pending summary's)")),
)

var sessionOpenToolDef = mcp.NewTool("session_open",
	mcp.WithDescription("Open a chat session on a platform."),
	mcp.WithString("platform", mcp.Required(), mcp.Description("Platform name, e.g. chatgpt")),
	mcp.WithString("driver", mcp.Enum("inbox", "browser", "api"), mcp.Description("Session driver (default: inbox)")),
)

var sessionCloseToolDef = mcp.NewTool("session_close",
	mcp.WithDescription("Close a session and cancel its grab."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List open sessions and available drivers."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionSendToolDef = mcp.NewTool("session_send",
	mcp.WithDescription("Send text, or a composition of prompts, to a session and optionally capture the reply."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("text", mcp.Description("Text to send as is")),
	mcp.WithArray("ids", stringItems, mcp.Description("Prompt ids to compose and send")),
	mcp.WithString("free_text", mcp.Description("Free text composed after the prompts")),
	mcp.WithObject("values", mcp.Description("Placeholder values by name")),
	mcp.WithArray("file_paths", stringItems, mcp.Description("Files to attach as context")),
	mcp.WithBoolean("capture", mcp.Description("Start a grab for the reply")),
	mcp.WithString("kind", mcp.Enum("response", "summary"), mcp.Description("Kind of the captured item (default: response)")),
	mcp.WithNumber("timeout_seconds", mcp.Description("Override the capture timeout")),
)

var sessionPushToolDef = mcp.NewTool("session_push",
	mcp.WithDescription("Deliver a response into an inbox session, as if the platform had replied."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Response text")),
)
