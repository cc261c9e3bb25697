package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/mcp"
	"github.com/hpungsan/pillbox/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"create": true, "fetch": true, "update": true, "delete": true,
	"list": true, "search": true, "inventory": true, "latest": true,
	"compose": true, "capture": true,
	"export": true, "import": true, "purge": true,
	"extract": true, "watch": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	color.New(color.FgCyan).Println(`
   ___  _  _  _  _
  | _ \(_)| || || |__  ___ __ __
  |  _/| || || || '_ \/ _ \\ \ /
  |_|  |_||_||_||_.__/\___//_\_\`)
	fmt.Println(`
  Prompt composition and response capture

  Usage: pillbox <command> [options]
         pillbox --help

  MCP server mode requires piped input.`)
}

// newLogger builds a JSON logger on stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// fatal prints err in red and exits.
func fatal(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no database
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode() && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'pillbox --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".pillbox")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fatal("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	rt, err := ops.NewRuntime(context.Background(), database, cfg, logger)
	if err != nil {
		fatal("failed to load items: %v", err)
	}
	defer rt.Close()

	if isCLIMode() {
		app := newCLIApp(rt)
		if err := app.Run(os.Args); err != nil {
			color.New(color.FgRed).Fprintln(os.Stderr, err)
			rt.Close()
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(rt, Version); err != nil {
		logger.Error("mcp server stopped", zap.Error(err))
		rt.Close()
		os.Exit(1)
	}
}
