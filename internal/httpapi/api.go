// Package httpapi exposes the translation core over HTTP: REST endpoints for
// reads, editorial mutations, key registry and history, plus the websocket
// change feed. Identity arrives as the opaque X-User-ID/X-User-Role assertion
// issued by the host's auth system; the API trusts it and never issues one.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-translations/internal/history"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/runtimeconfig"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/gorilla/websocket"
)

// API registers the translation endpoints on a ServeMux.
type API struct {
	basePath  string
	queries   query.Service
	mutations mutation.Service
	registry  registry.Service
	store     store.Service
	history   history.Service
	broker    *notifier.Broker
	logger    interfaces.Logger
	identity  IdentityResolver
	realtime  runtimeconfig.NotifierConfig
	upgrader  websocket.Upgrader
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance. Handlers whose service is left unwired
// answer 503 so partial deployments stay diagnosable.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath: "",
		logger:   logging.NoOp(),
		identity: HeaderIdentity,
		realtime: runtimeconfig.DefaultConfig().Notifier,
	}
	api.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Subscribers are native clients and embedded devices, not browsers;
		// origin enforcement belongs to the host when it fronts this API.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath prefixes every route (defaults to the mux root).
func WithBasePath(path string) Option {
	return func(api *API) {
		if api == nil {
			return
		}
		api.basePath = strings.TrimSpace(path)
	}
}

// WithQueryService wires the published-read service.
func WithQueryService(service query.Service) Option {
	return func(api *API) {
		if api != nil {
			api.queries = service
		}
	}
}

// WithMutationService wires editorial writes.
func WithMutationService(service mutation.Service) Option {
	return func(api *API) {
		if api != nil {
			api.mutations = service
		}
	}
}

// WithRegistryService wires the key and locale catalog.
func WithRegistryService(service registry.Service) Option {
	return func(api *API) {
		if api != nil {
			api.registry = service
		}
	}
}

// WithStoreService wires editor reads against current rows.
func WithStoreService(service store.Service) Option {
	return func(api *API) {
		if api != nil {
			api.store = service
		}
	}
}

// WithHistoryService wires the audit trail reads.
func WithHistoryService(service history.Service) Option {
	return func(api *API) {
		if api != nil {
			api.history = service
		}
	}
}

// WithBroker wires the realtime change feed. Without it /realtime answers 503.
func WithBroker(broker *notifier.Broker) Option {
	return func(api *API) {
		if api != nil {
			api.broker = broker
		}
	}
}

// WithLogger overrides the API logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// WithIdentityResolver replaces the header-based identity resolution.
func WithIdentityResolver(resolver IdentityResolver) Option {
	return func(api *API) {
		if api != nil && resolver != nil {
			api.identity = resolver
		}
	}
}

// WithRealtimeConfig tunes websocket ping, idle, and write deadlines.
func WithRealtimeConfig(cfg runtimeconfig.NotifierConfig) Option {
	return func(api *API) {
		if api == nil {
			return
		}
		if cfg.PingInterval > 0 {
			api.realtime.PingInterval = cfg.PingInterval
		}
		if cfg.IdleTimeout > 0 {
			api.realtime.IdleTimeout = cfg.IdleTimeout
		}
		if cfg.WriteTimeout > 0 {
			api.realtime.WriteTimeout = cfg.WriteTimeout
		}
	}
}

// Register attaches every endpoint to the provided mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("httpapi: mux is required")
	}
	if api == nil {
		return fmt.Errorf("httpapi: api is nil")
	}

	translations := joinPath(api.basePath, "translations")
	keys := joinPath(api.basePath, "keys")
	histories := joinPath(api.basePath, "history")

	mux.HandleFunc("GET "+translations+"/{locale}", api.handleTranslationsGet)
	mux.HandleFunc("GET "+translations+"/{locale}/{key}", api.handleTranslationCurrent)
	mux.HandleFunc("POST "+translations, api.handleUpsertDraft)
	mux.HandleFunc("POST "+translations+"/{id}/transition", api.handleTransition)
	mux.HandleFunc("POST "+translations+"/{locale}/{key}/rollback", api.handleRollback)

	mux.HandleFunc("GET "+keys, api.handleKeysList)
	mux.HandleFunc("POST "+keys, api.handleKeyRegister)
	mux.HandleFunc("DELETE "+keys+"/{name}", api.handleKeyDeactivate)

	mux.HandleFunc("GET "+histories+"/{key}/{locale}", api.handleHistoryList)

	mux.HandleFunc("GET "+joinPath(api.basePath, "realtime"), api.handleRealtime)

	return nil
}
