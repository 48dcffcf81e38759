package config

import (
	"errors"
	"fmt"

	"github.com/metoushela/megan/internal/core"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, checks that all referenced module IDs
// exist in the registry, and validates the enumerated settings.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	// Modules that accept configuration must have an entry, even an empty one,
	// so a missing section fails fast instead of silently running on zero values.
	for _, info := range core.GetModules() {
		if _, isConfigurable := info.New().(core.Configurable); !isConfigurable {
			continue
		}
		if _, ok := cfg.Modules[string(info.ID)]; !ok {
			errs = append(errs, fmt.Errorf("config: module %q requires configuration but has no entry", info.ID))
		}
	}

	switch cfg.History.Backend {
	case HistoryBackendFile, HistoryBackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: history.backend %q is not supported (file, sqlite)", cfg.History.Backend))
	}
	if cfg.History.MaxHistory < 0 {
		errs = append(errs, errors.New("config: history.max_history must not be negative"))
	}

	switch cfg.Continuation.Eviction {
	case EvictionNone, EvictionTTL, EvictionLRU:
	default:
		errs = append(errs, fmt.Errorf("config: continuation.eviction %q is not supported (none, ttl, lru)", cfg.Continuation.Eviction))
	}
	if cfg.Continuation.Eviction == EvictionTTL && cfg.Continuation.TTL <= 0 {
		errs = append(errs, errors.New("config: continuation.ttl is required for the ttl eviction mode"))
	}
	if cfg.Continuation.Eviction == EvictionLRU && cfg.Continuation.MaxEntries <= 0 {
		errs = append(errs, errors.New("config: continuation.max_entries is required for the lru eviction mode"))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: logging.level %q is not supported", cfg.Logging.Level))
	}

	return errors.Join(errs...)
}
