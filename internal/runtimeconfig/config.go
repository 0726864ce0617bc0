package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrDefaultLocaleRequired = errors.New("translations config: default locale is required")
var ErrDefaultLocaleNotEnabled = errors.New("translations config: default locale must be listed in enabled locales")
var ErrCacheTTLInvalid = errors.New("translations config: cache TTLs must be positive")
var ErrRebuildTimeoutInvalid = errors.New("translations config: cache rebuild timeout must be positive")
var ErrReplayRetentionInvalid = errors.New("translations config: notifier replay retention must be positive")
var ErrReplayCapacityInvalid = errors.New("translations config: notifier replay capacity must be positive")
var ErrSessionQueueInvalid = errors.New("translations config: notifier session queue size must be positive")
var ErrNotifierTimingInvalid = errors.New("translations config: notifier ping interval must be shorter than the idle timeout")
var ErrContentLimitInvalid = errors.New("translations config: content limits must be positive")
var ErrLoggingLevelInvalid = errors.New("translations config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("translations config: logging format is invalid")

// Config aggregates runtime tunables and feature flags for the translations
// module. Fields intentionally use simple types so host applications can
// extend them later.
type Config struct {
	Enabled  bool
	Locales  LocalesConfig
	Cache    CacheConfig
	Notifier NotifierConfig
	Workflow WorkflowConfig
	Content  ContentConfig
	Features Features
	Logging  LoggingConfig
}

// LocalesConfig declares the locales the catalog accepts content for.
type LocalesConfig struct {
	Default string
	Enabled []string
}

// CacheConfig tunes the three snapshot tiers and the rebuild guard.
type CacheConfig struct {
	HotTTL         time.Duration
	SharedTTL      time.Duration
	DurableTTL     time.Duration
	RebuildTimeout time.Duration
}

// NotifierConfig tunes fan-out, replay, and session lifetimes.
type NotifierConfig struct {
	ReplayRetention  time.Duration
	ReplayCapacity   int
	SessionQueueSize int
	PingInterval     time.Duration
	IdleTimeout      time.Duration
	WriteTimeout     time.Duration
}

// WorkflowConfig controls editorial policy knobs.
type WorkflowConfig struct {
	// RequireChangeReason enforces an audit reason on transitions whose
	// source status is not draft (approve, publish, deprecate).
	RequireChangeReason bool
}

// ContentConfig bounds accepted payloads.
type ContentConfig struct {
	MaxValueBytes int
	MaxVariables  int
}

// Features toggles module functionality.
type Features struct {
	Realtime    bool
	SharedCache bool
	Activity    bool
	Scheduler   bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults: English-only catalog, the
// documented tier TTLs, and a five minute replay window.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Locales: LocalesConfig{
			Default: "en",
			Enabled: []string{"en"},
		},
		Cache: CacheConfig{
			HotTTL:         15 * time.Minute,
			SharedTTL:      time.Hour,
			DurableTTL:     time.Hour,
			RebuildTimeout: 2 * time.Second,
		},
		Notifier: NotifierConfig{
			ReplayRetention:  5 * time.Minute,
			ReplayCapacity:   1024,
			SessionQueueSize: 64,
			PingInterval:     30 * time.Second,
			IdleTimeout:      90 * time.Second,
			WriteTimeout:     10 * time.Second,
		},
		Workflow: WorkflowConfig{
			RequireChangeReason: true,
		},
		Content: ContentConfig{
			MaxValueBytes: 16 * 1024,
			MaxVariables:  16,
		},
		Features: Features{
			Realtime:    true,
			SharedCache: true,
			Activity:    false,
			Scheduler:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	def := strings.TrimSpace(cfg.Locales.Default)
	if def == "" {
		return ErrDefaultLocaleRequired
	}
	found := false
	for _, code := range cfg.Locales.Enabled {
		if strings.EqualFold(strings.TrimSpace(code), def) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotEnabled, def)
	}
	if cfg.Cache.HotTTL <= 0 || cfg.Cache.SharedTTL <= 0 || cfg.Cache.DurableTTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Cache.RebuildTimeout <= 0 {
		return ErrRebuildTimeoutInvalid
	}
	if cfg.Notifier.ReplayRetention <= 0 {
		return ErrReplayRetentionInvalid
	}
	if cfg.Notifier.ReplayCapacity <= 0 {
		return ErrReplayCapacityInvalid
	}
	if cfg.Notifier.SessionQueueSize <= 0 {
		return ErrSessionQueueInvalid
	}
	if cfg.Features.Realtime {
		if cfg.Notifier.PingInterval <= 0 || cfg.Notifier.IdleTimeout <= cfg.Notifier.PingInterval {
			return ErrNotifierTimingInvalid
		}
	}
	if cfg.Content.MaxValueBytes <= 0 || cfg.Content.MaxVariables <= 0 {
		return ErrContentLimitInvalid
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
