package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-translations/pkg/interfaces"
)

const (
	rootModule     = "translations"
	registryModule = "translations.registry"
	storeModule    = "translations.store"
	historyModule  = "translations.history"
	snapshotModule = "translations.snapshot"
	notifierModule = "translations.notifier"
	queryModule    = "translations.query"
	mutationModule = "translations.mutation"
	workerModule   = "translations.worker"
	httpModule     = "translations.http"
)

const (
	fieldKeyName = "key"
	fieldLocale  = "locale"
	fieldAction  = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RegistryLogger returns the logger namespace reserved for the key registry.
func RegistryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, registryModule)
}

// StoreLogger returns the logger namespace reserved for the translation store.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// HistoryLogger returns the logger namespace reserved for the audit log.
func HistoryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, historyModule)
}

// SnapshotLogger returns the logger namespace reserved for the cache manager.
func SnapshotLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, snapshotModule)
}

// NotifierLogger returns the logger namespace reserved for the change notifier.
func NotifierLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, notifierModule)
}

// QueryLogger returns the logger namespace reserved for the read path.
func QueryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, queryModule)
}

// MutationLogger returns the logger namespace reserved for the write path.
func MutationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mutationModule)
}

// WorkerLogger returns the logger namespace reserved for background jobs.
func WorkerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, workerModule)
}

// HTTPLogger returns the logger namespace reserved for the API surface.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithTranslationContext enriches the provided logger with common fields such
// as key name, locale, and action. Empty values are ignored.
func WithTranslationContext(logger interfaces.Logger, key, locale string, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		fields[fieldKeyName] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
