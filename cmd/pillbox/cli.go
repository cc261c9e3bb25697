package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/extract"
	"github.com/hpungsan/pillbox/internal/ops"
	"github.com/hpungsan/pillbox/internal/web"
)

// maxStdinBytes bounds text read from stdin.
const maxStdinBytes = 16 << 20

// notice is the style for informational outcomes such as duplicates.
var notice = color.New(color.FgYellow)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *ops.Runtime) *cli.App {
	app := &cli.App{
		Name:    "pillbox",
		Usage:   "Prompt composition and response capture",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(rt),
			fetchCmd(rt),
			updateCmd(rt),
			deleteCmd(rt),
			listCmd(rt),
			searchCmd(rt),
			inventoryCmd(rt),
			latestCmd(rt),
			composeCmd(rt),
			captureCmd(rt),
			exportCmd(rt),
			importCmd(rt),
			purgeCmd(rt),
			extractCmd(),
			watchCmd(rt),
			serveCmd(rt),
		},
		// Placeholder values may contain commas
		DisableSliceFlagSeparator: true,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an item (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "prompt", Usage: "Item kind: prompt|response|summary"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (defaults to the first line)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category (default: Uncategorized)"},
			&cli.StringFlag{Name: "color", Usage: "Color label or #RRGGBB"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Source platform"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin(maxStdinBytes)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			input := ops.CreateInput{
				Kind:           c.String("kind"),
				Text:           text,
				Category:       c.String("category"),
				SourcePlatform: c.String("platform"),
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("color") {
				col := c.String("color")
				input.Color = &col
			}

			output, err := ops.Create(c.Context, rt.Store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch an item by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-text", Usage: "Exclude text from output"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{ID: c.Args().First()}
			if c.Bool("no-text") {
				includeText := false
				input.IncludeText = &includeText
			}

			output, err := ops.Fetch(rt.Store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update an item (optionally reads new text from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title (empty re-derives it)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category"},
			&cli.StringFlag{Name: "color", Usage: "New color (empty restores the default)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				if text != "" {
					input.Text = &text
				}
			}
			for name, dst := range map[string]**string{
				"title":    &input.Title,
				"category": &input.Category,
				"color":    &input.Color,
			} {
				if c.IsSet(name) {
					v := c.String(name)
					*dst = &v
				}
			}

			output, err := ops.Update(c.Context, rt.Store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one or more items",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			ids := c.Args().Slice()
			if len(ids) == 1 {
				output, err := ops.Delete(c.Context, rt.Store, ops.DeleteInput{ID: ids[0]})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.BulkDelete(c.Context, rt.Store, ops.BulkDeleteInput{IDs: ids})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List items in display order",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.StringFlag{Name: "color", Usage: "Filter by color"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by source platform"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring of title or text"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-text", Usage: "Include item text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(rt.Store, ops.ListInput{
				Kind:        c.String("kind"),
				Category:    optString(c, "category"),
				Color:       optString(c, "color"),
				Platform:    optString(c, "platform"),
				Query:       optString(c, "query"),
				Limit:       c.Int("limit"),
				Offset:      c.Int("offset"),
				IncludeText: c.Bool("include-text"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search item titles and text",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by source platform"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Search(rt.Store, ops.SearchInput{
				Query:    strings.Join(c.Args().Slice(), " "),
				Kind:     c.String("kind"),
				Category: optString(c, "category"),
				Platform: optString(c, "platform"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// inventoryCmd creates the inventory command.
func inventoryCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Show item counts and sizes per kind",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Inventory(rt.Store, ops.InventoryInput{Kind: c.String("kind")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the most recently created item of a kind",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "response", Usage: "Item kind"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by source platform"},
			&cli.BoolFlag{Name: "include-text", Usage: "Include item text"},
		},
		Action: func(c *cli.Context) error {
			includeText := c.Bool("include-text")
			output, err := ops.Latest(rt.Store, ops.LatestInput{
				Kind:        c.String("kind"),
				Platform:    optString(c, "platform"),
				IncludeText: &includeText,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// composeCmd creates the compose command.
func composeCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "compose",
		Usage:     "Merge prompts into one text (free text may be piped via stdin)",
		ArgsUsage: "[id...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "value", Aliases: []string{"V"}, Usage: "Placeholder value NAME=value (repeatable)"},
			&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "File to include as context (repeatable)"},
			&cli.StringFlag{Name: "glob", Usage: "Include files matching a pattern such as notes/**/*.md"},
			&cli.StringFlag{Name: "root", Value: ".", Usage: "Root directory for --glob"},
			&cli.StringFlag{Name: "separator", Usage: "Fragment separator (default from config)"},
			&cli.BoolFlag{Name: "allow-missing", Usage: "Keep unresolved placeholders instead of failing"},
			&cli.StringFlag{Name: "store-title", Usage: "Save the result as a new prompt with this title"},
			&cli.StringFlag{Name: "store-category", Usage: "Category for the saved prompt"},
			&cli.BoolFlag{Name: "text", Usage: "Print only the composed text"},
		},
		Action: func(c *cli.Context) error {
			values, err := parseValues(c.StringSlice("value"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			input := ops.ComposeInput{
				ItemIDs:      c.Args().Slice(),
				Values:       values,
				FilePaths:    c.StringSlice("file"),
				FileGlob:     c.String("glob"),
				FileRoot:     c.String("root"),
				Separator:    optString(c, "separator"),
				AllowMissing: c.Bool("allow-missing"),
			}
			if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.FreeText = text
			}
			if c.IsSet("store-title") || c.IsSet("store-category") {
				input.StoreAs = &ops.ComposeStoreAs{
					Title:    c.String("store-title"),
					Category: c.String("store-category"),
				}
			}

			output, err := ops.Compose(c.Context, rt.Store, rt.Config, input)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text") {
				fmt.Println(output.Text)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// captureCmd creates the capture command.
func captureCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Store a pasted response (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Required: true, Usage: "Platform the text came from"},
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "response", Usage: "Item kind"},
			&cli.StringFlag{Name: "pending", Usage: "Pending summary ID to fill"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin(maxStdinBytes)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			output, err := ops.CaptureText(c.Context, rt, ops.CaptureTextInput{
				Platform:  c.String("platform"),
				Text:      text,
				Kind:      c.String("kind"),
				PendingID: c.String("pending"),
			})
			if err != nil {
				return outputError(err)
			}
			if output.Status != "captured" {
				notice.Fprintf(os.Stderr, "%s: %s\n", output.Status, output.Message)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export items to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.pillbox/exports/<kind>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter by kind"},
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated item IDs, exported in this order"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, rt.Store, rt.Config, ops.ExportInput{
				Path: c.String("path"),
				Kind: c.String("kind"),
				IDs:  parseList(c.String("ids")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import items from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Duplicate handling: error|skip|keep"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, rt.Store, rt.Config, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete every item of a kind",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Required: true, Usage: "Item kind"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge items not updated for N days (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{Kind: c.String("kind")}
			if s := c.String("older-than"); s != "" {
				days, err := parseDuration(s)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, rt.Store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// extractedFile is one entry of the extract command output.
type extractedFile struct {
	Path   string         `json:"path"`
	Format extract.Format `json:"format,omitempty"`
	Chars  int            `json:"chars"`
	Text   string         `json:"text,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// extractCmd creates the extract command.
func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract plain text from files",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "glob", Usage: "Also extract files matching a pattern under --root"},
			&cli.StringFlag{Name: "root", Value: ".", Usage: "Root directory for --glob"},
			&cli.IntFlag{Name: "workers", Value: extract.DefaultWorkers, Usage: "Concurrent extractions"},
			&cli.BoolFlag{Name: "text", Usage: "Include extracted text"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if pattern := c.String("glob"); pattern != "" {
				matches, err := extract.Glob(c.String("root"), pattern)
				if err != nil {
					return outputError(err)
				}
				paths = append(paths, matches...)
			}
			if len(paths) == 0 {
				return outputError(errors.NewInvalidRequest("no files given"))
			}

			results, err := extract.ExtractAll(c.Context, paths, c.Int("workers"))
			if err != nil {
				return outputError(err)
			}
			files := make([]extractedFile, len(results))
			for i, r := range results {
				files[i] = extractedFile{Path: r.Path}
				if r.Err != nil {
					files[i].Error = r.Err.Error()
					continue
				}
				files[i].Format = r.Doc.Format
				files[i].Chars = len([]rune(r.Doc.Text))
				if c.Bool("text") {
					files[i].Text = r.Doc.Text
				}
			}
			return outputJSON(map[string]any{"files": files})
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Create a prompt from every file dropped into a directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category for created prompts"},
			&cli.BoolFlag{Name: "existing", Usage: "Also import files already in the directory"},
			&cli.DurationFlag{Name: "settle", Value: extract.DefaultSettle, Usage: "Quiet period before a file is read"},
		},
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				dir = filepath.Join(home, ".pillbox", "inbox")
				if err := os.MkdirAll(dir, 0700); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if name := c.String("category"); name != "" {
				if _, err := ops.AddCategory(ctx, rt.Store, ops.AddCategoryInput{Name: name}); err != nil {
					return outputError(err)
				}
			}

			log := rt.Log.Named("watch")
			err := extract.Watch(ctx, dir, extract.WatchOptions{
				Logger:   log,
				Settle:   c.Duration("settle"),
				Existing: c.Bool("existing"),
			}, promptFromFile(rt, c.String("category"), log))
			if err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// promptFromFile returns a watch handler that stores each document as a
// Prompt titled after its file name.
func promptFromFile(rt *ops.Runtime, category string, log *zap.Logger) extract.Handler {
	return func(ctx context.Context, doc *extract.Document) error {
		if strings.TrimSpace(doc.Text) == "" {
			log.Debug("skipping empty file", zap.String("path", doc.Path))
			return nil
		}
		title := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
		out, err := ops.Create(ctx, rt.Store, ops.CreateInput{
			Kind:     "prompt",
			Text:     doc.Text,
			Title:    &title,
			Category: category,
		})
		if err != nil {
			return err
		}
		log.Info("prompt created",
			zap.String("id", out.ID),
			zap.String("path", doc.Path),
			zap.Int("chars", len([]rune(doc.Text))),
		)
		return nil
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8734, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(rt, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(ctx, srv, rt.Log.Named("web")); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. Informational outcomes are printed as a
// notice and do not fail the command.
func outputError(err error) error {
	if pErr, ok := errors.As(err); ok {
		if pErr.Informational() {
			notice.Fprintf(os.Stderr, "[%s] %s\n", pErr.Code, pErr.Message)
			return nil
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most maxBytes from stdin.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// optString returns the flag value when it was set, nil otherwise.
func optString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

// parseList splits a comma-separated string, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseValues turns NAME=value pairs into a placeholder value map.
func parseValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("value %q must be NAME=value", p)
		}
		values[name] = value
	}
	return values, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
