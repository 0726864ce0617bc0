package translations

import (
	"context"
	"net/http"

	translationscmd "github.com/goliatone/go-translations/internal/commands/translations"
	"github.com/goliatone/go-translations/internal/di"
	"github.com/goliatone/go-translations/internal/history"
	"github.com/goliatone/go-translations/internal/httpapi"
	"github.com/goliatone/go-translations/internal/jobs"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/internal/workflow"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// QueryService exports the read-path contract for consumers of the module.
type QueryService = query.Service

// MutationService exports the write-path contract.
type MutationService = mutation.Service

// RegistryService exports the key and locale registry contract.
type RegistryService = registry.Service

// StoreService exports the editorial store contract.
type StoreService = store.Service

// HistoryService exports the change history contract.
type HistoryService = history.Service

// SnapshotManager exports the tiered snapshot cache.
type SnapshotManager = snapshot.Manager

// Broker exports the realtime change broker.
type Broker = notifier.Broker

// Worker exports the snapshot refresh worker.
type Worker = jobs.Worker

// WorkflowEngine exports the editorial transition rules.
type WorkflowEngine = workflow.Engine

// API exports the HTTP surface.
type API = httpapi.API

// IdentityResolver exports the hook the HTTP surface uses to extract the
// caller identity from a request.
type IdentityResolver = httpapi.IdentityResolver

// Scheduler exports the job scheduler contract.
type Scheduler = interfaces.Scheduler

// CommandRegistry is the dispatcher-side contract command handlers are
// registered against.
type CommandRegistry = translationscmd.CommandRegistry

// CommandHandlers bundles the registered command handlers for direct use.
type CommandHandlers = translationscmd.HandlerSet

// CommandOption customizes command handler registration.
type CommandOption = translationscmd.Option

// Command messages accepted by the registered handlers.
type (
	UpsertDraftCommand      = translationscmd.UpsertDraftCommand
	TransitionCommand       = translationscmd.TransitionCommand
	RollbackCommand         = translationscmd.RollbackCommand
	RebuildSnapshotsCommand = translationscmd.RebuildSnapshotsCommand
)

// Module represents the top level translations runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a translations module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns a copy of the validated configuration the module runs with.
func (m *Module) Config() Config {
	return m.container.Config
}

// Enabled reports whether the module is globally enabled.
func (m *Module) Enabled() bool {
	if m == nil || m.container == nil {
		return false
	}
	return m.container.Config.Enabled
}

// EnsureDefaults seeds the configured locales. Hosts that supply a database
// call this once their schema exists; memory-backed modules are already
// seeded.
func (m *Module) EnsureDefaults(ctx context.Context) error {
	return m.container.EnsureDefaults(ctx)
}

// Queries returns the read-path service.
func (m *Module) Queries() QueryService {
	return m.container.Queries()
}

// Mutations returns the write-path service.
func (m *Module) Mutations() MutationService {
	return m.container.Mutations()
}

// Registry returns the key and locale registry.
func (m *Module) Registry() RegistryService {
	return m.container.Registry()
}

// Store returns the editorial store.
func (m *Module) Store() StoreService {
	return m.container.Store()
}

// History returns the change history service.
func (m *Module) History() HistoryService {
	return m.container.History()
}

// Snapshots returns the tiered snapshot cache.
func (m *Module) Snapshots() *SnapshotManager {
	return m.container.Snapshots()
}

// Notifier returns the realtime broker, nil when the feature is disabled.
func (m *Module) Notifier() *Broker {
	return m.container.Notifier()
}

// Scheduler returns the scheduler used for snapshot refresh jobs.
func (m *Module) Scheduler() Scheduler {
	return m.container.Scheduler()
}

// Worker returns the snapshot refresh worker. Hosts run it themselves so
// they control its lifecycle.
func (m *Module) Worker() *Worker {
	return m.container.Worker()
}

// API returns the HTTP surface.
func (m *Module) API() *API {
	return m.container.API()
}

// RegisterCommands wires the module's command handlers into the supplied
// dispatcher registry and returns the handler set for direct invocation.
func (m *Module) RegisterCommands(reg CommandRegistry, opts ...CommandOption) (*CommandHandlers, error) {
	c := m.container
	return translationscmd.RegisterTranslationCommands(reg, c.Mutations(), c.Snapshots(), c.Registry(), c.LoggerProvider(), opts...)
}

// RegisterRoutes mounts the HTTP surface on the supplied mux.
func (m *Module) RegisterRoutes(mux *http.ServeMux) error {
	return m.container.API().Register(mux)
}

// Close releases the module's background resources: the realtime broker and
// its sessions. Safe to call on a module without realtime.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	if broker := m.container.Notifier(); broker != nil {
		return broker.Close()
	}
	return nil
}
