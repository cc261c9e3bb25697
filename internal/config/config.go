package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configNames lists the config file names tried in each directory, in order.
var configNames = []string{"config.json", "config.yaml", "config.yml"}

// Config holds application configuration.
type Config struct {
	// ItemMaxChars is the maximum character count for item text
	ItemMaxChars int `json:"item_max_chars" yaml:"item_max_chars"`

	// DedupWindow is how many of the most recently captured items per
	// platform a new capture is compared against.
	DedupWindow int `json:"dedup_window" yaml:"dedup_window"`

	// DedupScope is "platform" (compare within the capturing platform) or
	// "global" (compare against every platform's window).
	DedupScope string `json:"dedup_scope" yaml:"dedup_scope"`

	// CaptureTimeoutSeconds bounds how long a grab waits for a response.
	CaptureTimeoutSeconds int `json:"capture_timeout_seconds" yaml:"capture_timeout_seconds"`

	// PollIntervalMS is the delay between polls of a session.
	PollIntervalMS int `json:"poll_interval_ms" yaml:"poll_interval_ms"`

	// MinResponseChars is the shortest normalized text accepted as a response.
	MinResponseChars int `json:"min_response_chars" yaml:"min_response_chars"`

	// ComposeSeparator joins composed prompt fragments.
	ComposeSeparator string `json:"compose_separator,omitempty" yaml:"compose_separator,omitempty"`

	// CustomCategories are registered in addition to the presets.
	CustomCategories []string `json:"custom_categories,omitempty" yaml:"custom_categories,omitempty"`

	// Platforms configures each chat platform by name.
	Platforms map[string]Platform `json:"platforms,omitempty" yaml:"platforms,omitempty"`

	Browser Browser `json:"browser" yaml:"browser"`
	OpenAI  OpenAI  `json:"openai" yaml:"openai"`

	// TokenizerEncoding selects a tiktoken encoding; empty uses the heuristic.
	TokenizerEncoding string `json:"tokenizer_encoding,omitempty" yaml:"tokenizer_encoding,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.pillbox/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "item", "prompt", "capture", "summary", "session".
	// Unknown names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty" yaml:"disabled_types,omitempty"`
}

// Platform describes how to reach and scrape one chat platform.
type Platform struct {
	URL               string   `json:"url,omitempty" yaml:"url,omitempty"`
	InputSelectors    []string `json:"input_selectors,omitempty" yaml:"input_selectors,omitempty"`
	SendSelectors     []string `json:"send_selectors,omitempty" yaml:"send_selectors,omitempty"`
	ResponseSelectors []string `json:"response_selectors,omitempty" yaml:"response_selectors,omitempty"`

	// Boilerplate holds regular expressions; whole lines matching any of
	// them are stripped from captured text before fingerprinting.
	Boilerplate []string `json:"boilerplate,omitempty" yaml:"boilerplate,omitempty"`
}

// Browser configures the Chrome instance used by browser sessions.
type Browser struct {
	// DebuggerURL connects to an already running Chrome; empty launches one.
	DebuggerURL string `json:"debugger_url,omitempty" yaml:"debugger_url,omitempty"`
	Headless    bool   `json:"headless,omitempty" yaml:"headless,omitempty"`

	// StablePolls is how many consecutive identical observations make a
	// streaming response count as finished.
	StablePolls int `json:"stable_polls,omitempty" yaml:"stable_polls,omitempty"`
}

// OpenAI configures API-backed sessions.
type OpenAI struct {
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
}

// DefaultPlatforms returns the built-in platform table.
func DefaultPlatforms() map[string]Platform {
	return map[string]Platform{
		"chatgpt": {
			URL:               "https://chatgpt.com",
			InputSelectors:    []string{`textarea[id="prompt-textarea"]`, `div[contenteditable="true"]`, `textarea`},
			SendSelectors:     []string{`button[data-testid="send-button"]`, `button[aria-label="Send prompt"]`},
			ResponseSelectors: []string{`div[data-message-author-role="assistant"]`, `div[class*="markdown"]`, `div.agent-turn`},
		},
		"gemini": {
			URL:               "https://gemini.google.com",
			InputSelectors:    []string{`div[contenteditable="true"]`, `rich-textarea`, `textarea`},
			SendSelectors:     []string{`button[aria-label="Send message"]`, `button[mattooltip="Send message"]`, `button.send-button`},
			ResponseSelectors: []string{`message-content`, `div[class*="response"]`, `div.model-response`},
		},
		"perplexity": {
			URL:               "https://www.perplexity.ai",
			InputSelectors:    []string{`textarea[placeholder="Ask anything..."]`, `textarea[placeholder="Ask follow-up..."]`, `div[contenteditable="true"]`},
			SendSelectors:     []string{`button[aria-label="Submit"]`, `button[type="submit"]`},
			ResponseSelectors: []string{`div[data-testid="response-container"]`, `div.prose`, `div[class*="answer"]`},
		},
		"claude": {
			URL:               "https://claude.ai",
			InputSelectors:    []string{`div[contenteditable="true"]`},
			SendSelectors:     []string{`button[aria-label="Send message"]`},
			ResponseSelectors: []string{`div.font-claude-message`},
		},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ItemMaxChars:          50000,
		DedupWindow:           20,
		DedupScope:            "platform",
		CaptureTimeoutSeconds: 180,
		PollIntervalMS:        2000,
		MinResponseChars:      1,
		ComposeSeparator:      "\n\n",
		Platforms:             DefaultPlatforms(),
		Browser:               Browser{StablePolls: 2},
		OpenAI:                OpenAI{Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
		LogLevel:              "info",
	}
}

// CaptureTimeout returns the grab timeout as a duration.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSeconds) * time.Second
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Validate checks values that cannot be corrected by defaults.
func (c *Config) Validate() error {
	switch c.DedupScope {
	case "platform", "global":
	default:
		return fmt.Errorf("dedup_scope must be platform or global, got %q", c.DedupScope)
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("dedup_window must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}

// Load loads configuration from baseDir/config.{json,yaml,yml}.
// Returns default config if no file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pillbox.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findConfigIn(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.pillbox) and repo (.pillbox) directories.
// Repo config is found by walking upward from startDir to find the nearest .pillbox/config file.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findConfigIn(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .pillbox config file.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		if path := findConfigIn(filepath.Join(dir, ".pillbox")); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findConfigIn returns the first existing config file in dir, or "".
func findConfigIn(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated;
// platforms are merged by name with overlay fields winning.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.ItemMaxChars = firstInt(overlay.ItemMaxChars, base.ItemMaxChars)
	result.DedupWindow = firstInt(overlay.DedupWindow, base.DedupWindow)
	result.CaptureTimeoutSeconds = firstInt(overlay.CaptureTimeoutSeconds, base.CaptureTimeoutSeconds)
	result.PollIntervalMS = firstInt(overlay.PollIntervalMS, base.PollIntervalMS)
	result.MinResponseChars = firstInt(overlay.MinResponseChars, base.MinResponseChars)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.DedupScope = firstString(overlay.DedupScope, base.DedupScope)
	result.ComposeSeparator = firstString(overlay.ComposeSeparator, base.ComposeSeparator)
	result.TokenizerEncoding = firstString(overlay.TokenizerEncoding, base.TokenizerEncoding)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)

	result.Browser = Browser{
		DebuggerURL: firstString(overlay.Browser.DebuggerURL, base.Browser.DebuggerURL),
		Headless:    base.Browser.Headless || overlay.Browser.Headless,
		StablePolls: firstInt(overlay.Browser.StablePolls, base.Browser.StablePolls),
	}
	result.OpenAI = OpenAI{
		BaseURL:   firstString(overlay.OpenAI.BaseURL, base.OpenAI.BaseURL),
		Model:     firstString(overlay.OpenAI.Model, base.OpenAI.Model),
		APIKeyEnv: firstString(overlay.OpenAI.APIKeyEnv, base.OpenAI.APIKeyEnv),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.CustomCategories = mergeStringSlice(base.CustomCategories, overlay.CustomCategories)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	result.Platforms = mergePlatforms(base.Platforms, overlay.Platforms)

	return result
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func firstString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergePlatforms merges platform tables by lowercased name. For a platform in
// both, non-empty overlay fields replace the base fields.
func mergePlatforms(base, overlay map[string]Platform) map[string]Platform {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]Platform, len(base)+len(overlay))
	for name, p := range base {
		result[strings.ToLower(name)] = p
	}
	for name, o := range overlay {
		name = strings.ToLower(name)
		p := result[name]
		p.URL = firstString(o.URL, p.URL)
		if len(o.InputSelectors) > 0 {
			p.InputSelectors = o.InputSelectors
		}
		if len(o.SendSelectors) > 0 {
			p.SendSelectors = o.SendSelectors
		}
		if len(o.ResponseSelectors) > 0 {
			p.ResponseSelectors = o.ResponseSelectors
		}
		p.Boilerplate = mergeStringSlice(p.Boilerplate, o.Boilerplate)
		result[name] = p
	}
	return result
}

// PlatformNames returns configured platform names in sorted order.
func (c *Config) PlatformNames() []string {
	return slices.Sorted(maps.Keys(c.Platforms))
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
