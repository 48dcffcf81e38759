// Package app provides the shared entry point for the megan binary.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/metoushela/megan/internal/config"
	"github.com/metoushela/megan/internal/core"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, wires the router, gateway, and cron scheduler,
// starts all modules, and blocks until a shutdown signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	logger.Info("megan starting",
		"version", params.Version, "commit", params.Commit, "config", cfgPath)

	appCtx := core.NewAppContext(logger, cfg.DataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		return err
	}

	// Wire between LoadModules and Start: discover channels and providers,
	// build the pipeline, and append the runtime components to the app
	// lifecycle.
	if err := wire(application, appCtx, cfg, ids, logger); err != nil {
		return err
	}

	return application.Run()
}

// logLevel maps the configured level name to a slog.Level. Unknown names
// fall back to info; config.Validate rejects them before this runs.
func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/megan/megan.yaml → ./megan.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "megan", "megan.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "megan", "megan.yaml"))
	}

	candidates = append(candidates, "megan.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
