package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-translations/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales.Default = "  "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestConfigValidate_DefaultLocaleMustBeEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales.Default = "es"
	cfg.Locales.Enabled = []string{"en", "fr"}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleNotEnabled) {
		t.Fatalf("expected ErrDefaultLocaleNotEnabled, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveTTL(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.SharedTTL = 0

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrCacheTTLInvalid) {
		t.Fatalf("expected ErrCacheTTLInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveRebuildTimeout(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.RebuildTimeout = -time.Second

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrRebuildTimeoutInvalid) {
		t.Fatalf("expected ErrRebuildTimeoutInvalid, got %v", err)
	}
}

func TestConfigValidate_PingMustBeShorterThanIdle(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Notifier.PingInterval = 2 * time.Minute
	cfg.Notifier.IdleTimeout = time.Minute

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrNotifierTimingInvalid) {
		t.Fatalf("expected ErrNotifierTimingInvalid, got %v", err)
	}
}

func TestConfigValidate_NotifierTimingIgnoredWhenRealtimeDisabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Realtime = false
	cfg.Notifier.PingInterval = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}
