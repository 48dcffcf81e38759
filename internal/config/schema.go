// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for megan.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir is the base directory for persisted state (history files,
	// SQLite database).
	DataDir string `yaml:"data_dir"`

	// Logging controls the process-wide slog handler.
	Logging LoggingConfig `yaml:"logging"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.messenger").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Router configures the dispatch layer and turn policies.
	Router RouterConfig `yaml:"router"`

	// History selects and configures the transcript backend.
	History HistoryConfig `yaml:"history"`

	// Continuation configures reply-continuation retention.
	Continuation ContinuationConfig `yaml:"continuation"`

	// Gateway configures the HTTP surface.
	Gateway GatewayConfig `yaml:"gateway"`

	// Cron configures the background maintenance jobs.
	Cron CronConfig `yaml:"cron"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// RouterConfig configures the dispatch layer.
type RouterConfig struct {
	Workers   int `yaml:"workers"`
	InboxSize int `yaml:"inbox_size"`

	// Serialize switches the request guard to per-(thread,sender) lane
	// queuing instead of duplicate-delivery filtering.
	Serialize bool `yaml:"serialize"`

	// TriggerPrefixes override the words that summon the assistant.
	TriggerPrefixes []string `yaml:"trigger_prefixes"`

	// ClearCommands override the admin wipe phrases.
	ClearCommands []string `yaml:"clear_commands"`

	// Admins lists the user IDs allowed to run the wipe command.
	Admins []string `yaml:"admins"`

	// ReplyHeader overrides the banner prepended to assistant replies.
	ReplyHeader string `yaml:"reply_header"`
}

// History backends.
const (
	HistoryBackendFile   = "file"
	HistoryBackendSQLite = "sqlite"
)

// HistoryConfig selects the transcript backend.
type HistoryConfig struct {
	// Backend is "file" (default) or "sqlite".
	Backend string `yaml:"backend"`

	// Dir is the directory for per-user JSON files (file backend).
	// Defaults to <data_dir>/uids.
	Dir string `yaml:"dir"`

	// Path is the database file (sqlite backend).
	// Defaults to <data_dir>/history.db.
	Path string `yaml:"path"`

	// MaxHistory caps the persisted turns per user.
	MaxHistory int `yaml:"max_history"`
}

// Continuation eviction modes.
const (
	EvictionNone = "none"
	EvictionTTL  = "ttl"
	EvictionLRU  = "lru"
)

// ContinuationConfig configures continuation retention.
type ContinuationConfig struct {
	// Eviction is "none" (default), "ttl", or "lru".
	Eviction string `yaml:"eviction"`

	// TTL is the entry lifetime for the ttl mode.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries is the entry cap for the lru mode.
	MaxEntries int `yaml:"max_entries"`
}

// GatewayConfig configures the HTTP surface.
type GatewayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`

	// WebhookSecret is the HMAC key validating /webhooks/{source} payloads.
	WebhookSecret string `yaml:"webhook_secret"`

	// AdminToken authorizes the admin endpoints.
	AdminToken string `yaml:"admin_token"`
}

// CronConfig configures the maintenance scheduler.
type CronConfig struct {
	Enabled bool `yaml:"enabled"`

	// ContinuationSweep is the cron expression for the continuation purge
	// job. Empty disables the job.
	ContinuationSweep string `yaml:"continuation_sweep"`

	// LaneCleanup is the cron expression for the lane-map cleanup job.
	// Empty disables the job.
	LaneCleanup string `yaml:"lane_cleanup"`
}
