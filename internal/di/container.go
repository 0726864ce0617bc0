// Package di assembles the translation module. The container starts from
// in-memory repositories so the module works out of the box, swaps in
// bun-backed repositories when a database is supplied, and wires the
// editorial store, snapshot tiers, notifier, and HTTP surface from a single
// validated configuration.
package di

import (
	"context"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/internal/history"
	"github.com/goliatone/go-translations/internal/httpapi"
	"github.com/goliatone/go-translations/internal/jobs"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/logging/gologger"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/runtimeconfig"
	"github.com/goliatone/go-translations/internal/scheduler"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/internal/workflow"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	sharedCache   interfaces.CacheProvider
	provider      interfaces.LoggerProvider
	hooks         activity.Hooks
	identity      httpapi.IdentityResolver
	auditRecorder jobs.AuditRecorder
	clock         func() time.Time

	keyRepo      registry.KeyRepository
	localeRepo   registry.LocaleRepository
	historyRepo  history.Repository
	rowRepo      store.Repository
	snapshotRepo snapshot.Repository

	engine     *workflow.Engine
	scheduler  interfaces.Scheduler
	broker     *notifier.Broker
	emitter    *activity.Emitter
	dispatcher mutation.Dispatcher

	registrySvc registry.Service
	storeSvc    store.Service
	historySvc  history.Service
	snapshots   *snapshot.Manager
	querySvc    query.Service
	mutationSvc mutation.Service
	worker      *jobs.Worker
	api         *httpapi.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB switches every repository to its bun-backed implementation. The
// schema must already exist; run EnsureDefaults after migrations to seed the
// configured locales.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository read-through cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithSharedCache supplies the snapshot shared tier, typically a Redis or
// memcached adapter shared across processes.
func WithSharedCache(cache interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.sharedCache = cache
	}
}

// WithLoggerProvider routes module loggers through the supplied provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.provider = provider
	}
}

// WithActivityHooks registers sinks for editorial activity events.
func WithActivityHooks(hooks ...activity.Hook) Option {
	return func(c *Container) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithScheduler overrides the snapshot refresh scheduler.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = sched
	}
}

// WithWorkflowEngine overrides the editorial transition rules.
func WithWorkflowEngine(engine *workflow.Engine) Option {
	return func(c *Container) {
		c.engine = engine
	}
}

// WithIdentityResolver overrides how the HTTP surface extracts the caller
// identity from a request.
func WithIdentityResolver(resolver httpapi.IdentityResolver) Option {
	return func(c *Container) {
		c.identity = resolver
	}
}

// WithJobAudit records job outcomes from the snapshot refresh worker.
func WithJobAudit(recorder jobs.AuditRecorder) Option {
	return func(c *Container) {
		c.auditRecorder = recorder
	}
}

// WithEffectDispatcher overrides where post-commit side effects run. The
// default detaches them onto goroutines; inject the synchronous dispatcher
// when broadcasts and refresh jobs must land before the mutation returns.
func WithEffectDispatcher(d mutation.Dispatcher) Option {
	return func(c *Container) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithClock overrides the time source used across services.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRegistryService overrides the default key registry binding.
func WithRegistryService(svc registry.Service) Option {
	return func(c *Container) {
		c.registrySvc = svc
	}
}

// WithStoreService overrides the default translation store binding.
func WithStoreService(svc store.Service) Option {
	return func(c *Container) {
		c.storeSvc = svc
	}
}

// WithHistoryService overrides the default history binding.
func WithHistoryService(svc history.Service) Option {
	return func(c *Container) {
		c.historySvc = svc
	}
}

// WithQueryService overrides the default read-path binding.
func WithQueryService(svc query.Service) Option {
	return func(c *Container) {
		c.querySvc = svc
	}
}

// WithMutationService overrides the default write-path binding.
func WithMutationService(svc mutation.Service) Option {
	return func(c *Container) {
		c.mutationSvc = svc
	}
}

func WithBroker(broker *notifier.Broker) Option {
	return func(c *Container) {
		c.broker = broker
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	memoryHistory := history.NewMemoryRepository()

	c := &Container{
		Config:       cfg,
		clock:        time.Now,
		keyRepo:      registry.NewMemoryKeyRepository(),
		localeRepo:   registry.NewMemoryLocaleRepository(),
		historyRepo:  memoryHistory,
		rowRepo:      store.NewMemoryTranslationRepository(memoryHistory),
		snapshotRepo: snapshot.NewMemoryRepository(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.provider == nil {
		provider, err := gologger.NewProvider(gologger.FromRuntime(cfg.Logging))
		if err != nil {
			return nil, err
		}
		c.provider = provider
	}

	c.configureCacheDefaults()
	c.configureRepositories()

	if c.engine == nil {
		c.engine = workflow.New(
			workflow.WithChangeReasonRequired(cfg.Workflow.RequireChangeReason),
		)
	}

	if c.registrySvc == nil {
		c.registrySvc = registry.NewService(
			c.keyRepo,
			c.localeRepo,
			registry.WithLocales(cfg.Locales.Default, cfg.Locales.Enabled),
			registry.WithMaxVariables(cfg.Content.MaxVariables),
			registry.WithClock(c.clock),
		)
	}

	if c.storeSvc == nil {
		c.storeSvc = store.NewService(
			c.rowRepo,
			c.historyRepo,
			c.registrySvc,
			c.registrySvc,
			c.engine,
			store.WithMaxValueBytes(cfg.Content.MaxValueBytes),
			store.WithClock(c.clock),
		)
	}

	if c.historySvc == nil {
		c.historySvc = history.NewService(
			c.historyRepo,
			history.WithLogger(logging.HistoryLogger(c.provider)),
		)
	}

	if c.snapshots == nil {
		snapshotOpts := []snapshot.Option{
			snapshot.WithDurableTier(c.snapshotRepo),
			snapshot.WithTTLs(cfg.Cache.HotTTL, cfg.Cache.SharedTTL, cfg.Cache.DurableTTL),
			snapshot.WithRebuildTimeout(cfg.Cache.RebuildTimeout),
			snapshot.WithLogger(logging.SnapshotLogger(c.provider)),
			snapshot.WithClock(c.clock),
		}
		if cfg.Features.SharedCache {
			if c.sharedCache == nil {
				c.sharedCache = snapshot.NewMemoryCache()
			}
			snapshotOpts = append(snapshotOpts, snapshot.WithSharedTier(c.sharedCache))
		}
		c.snapshots = snapshot.NewManager(c.storeSvc, snapshotOpts...)
	}

	if c.broker == nil && cfg.Features.Realtime {
		c.broker = notifier.New(
			notifier.WithReplayCapacity(cfg.Notifier.ReplayCapacity),
			notifier.WithReplayRetention(cfg.Notifier.ReplayRetention),
			notifier.WithQueueSize(cfg.Notifier.SessionQueueSize),
			notifier.WithLogger(logging.NotifierLogger(c.provider)),
			notifier.WithClock(c.clock),
		)
	}

	if c.scheduler == nil {
		provider := "no-op"
		if cfg.Features.Scheduler {
			c.scheduler = scheduler.NewInMemory(scheduler.WithClock(c.clock))
			provider = "in-memory"
		} else {
			c.scheduler = scheduler.NewNoOp()
		}
		logging.ModuleLogger(c.provider, "translations.scheduler").Debug("scheduler.configured", "provider", provider)
	}

	if c.emitter == nil {
		c.emitter = activity.NewEmitter(
			c.hooks,
			activity.Config{Enabled: cfg.Features.Activity, Channel: "translations"},
			activity.WithClock(c.clock),
		)
	}

	if c.mutationSvc == nil {
		mutationOpts := []mutation.ServiceOption{
			mutation.WithInvalidator(c.snapshots),
			mutation.WithScheduler(c.scheduler),
			mutation.WithActivityEmitter(c.emitter),
			mutation.WithLogger(logging.MutationLogger(c.provider)),
			mutation.WithClock(c.clock),
		}
		if c.broker != nil {
			mutationOpts = append(mutationOpts, mutation.WithPublisher(c.broker))
		}
		if c.dispatcher != nil {
			mutationOpts = append(mutationOpts, mutation.WithDispatcher(c.dispatcher))
		}
		c.mutationSvc = mutation.NewService(c.storeSvc, mutationOpts...)
	}

	if c.querySvc == nil {
		c.querySvc = query.NewService(
			c.snapshots,
			c.registrySvc,
			c.storeSvc,
			query.WithLogger(logging.QueryLogger(c.provider)),
			query.WithClock(c.clock),
		)
	}

	if c.worker == nil {
		workerOpts := []jobs.Option{
			jobs.WithLogger(logging.WorkerLogger(c.provider)),
			jobs.WithActivityEmitter(c.emitter),
			jobs.WithClock(c.clock),
		}
		if c.auditRecorder != nil {
			workerOpts = append(workerOpts, jobs.WithAuditRecorder(c.auditRecorder))
		}
		c.worker = jobs.NewWorker(c.scheduler, c.snapshots, workerOpts...)
	}

	if c.api == nil {
		apiOpts := []httpapi.Option{
			httpapi.WithQueryService(c.querySvc),
			httpapi.WithMutationService(c.mutationSvc),
			httpapi.WithRegistryService(c.registrySvc),
			httpapi.WithStoreService(c.storeSvc),
			httpapi.WithHistoryService(c.historySvc),
			httpapi.WithLogger(logging.HTTPLogger(c.provider)),
			httpapi.WithRealtimeConfig(cfg.Notifier),
		}
		if c.broker != nil {
			apiOpts = append(apiOpts, httpapi.WithBroker(c.broker))
		}
		if c.identity != nil {
			apiOpts = append(apiOpts, httpapi.WithIdentityResolver(c.identity))
		}
		c.api = httpapi.NewAPI(apiOpts...)
	}

	// Memory-backed catalogs are seeded immediately so the module answers
	// reads without a bootstrap step. Database-backed catalogs seed via
	// EnsureDefaults once the host has run its migrations.
	if c.bunDB == nil {
		if _, err := c.registrySvc.EnsureDefaults(context.Background()); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Container) configureCacheDefaults() {
	if c.bunDB == nil {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.SharedTTL > 0 {
			cfg.TTL = c.Config.Cache.SharedTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		return
	}

	c.keyRepo = registry.NewBunKeyRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.localeRepo = registry.NewBunLocaleRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.historyRepo = history.NewBunRepository(c.bunDB)
	c.rowRepo = store.NewBunTranslationRepository(c.bunDB, c.historyRepo)
	c.snapshotRepo = snapshot.NewBunRepository(c.bunDB)

	logging.ModuleLogger(c.provider, "translations.di").Debug("repositories.configured",
		"backend", "bun",
		"cache", c.cacheService != nil,
	)
}

// EnsureDefaults seeds the configured locales. Hosts using a database call
// this once after migrations; memory-backed containers are already seeded.
func (c *Container) EnsureDefaults(ctx context.Context) error {
	_, err := c.registrySvc.EnsureDefaults(ctx)
	return err
}

// Registry returns the configured key registry.
func (c *Container) Registry() registry.Service {
	return c.registrySvc
}

// Store returns the configured editorial store.
func (c *Container) Store() store.Service {
	return c.storeSvc
}

// History returns the configured change history service.
func (c *Container) History() history.Service {
	return c.historySvc
}

// Snapshots returns the tiered snapshot manager.
func (c *Container) Snapshots() *snapshot.Manager {
	return c.snapshots
}

// Notifier returns the realtime broker, nil when the feature is off.
func (c *Container) Notifier() *notifier.Broker {
	return c.broker
}

// Queries returns the read-path service.
func (c *Container) Queries() query.Service {
	return c.querySvc
}

// Mutations returns the write-path service.
func (c *Container) Mutations() mutation.Service {
	return c.mutationSvc
}

// Scheduler returns the job scheduler used for snapshot refreshes.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// Worker returns the snapshot refresh worker. The host decides whether to
// run it; without the scheduler feature the queue stays empty.
func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// WorkflowEngine returns the configured transition rules.
func (c *Container) WorkflowEngine() *workflow.Engine {
	return c.engine
}

// Activity returns the activity emitter.
func (c *Container) Activity() *activity.Emitter {
	return c.emitter
}

// API returns the HTTP surface for mounting on a mux.
func (c *Container) API() *httpapi.API {
	return c.api
}

// KeyRepository exposes the configured key repository.
func (c *Container) KeyRepository() registry.KeyRepository {
	return c.keyRepo
}

// LocaleRepository exposes the configured locale repository.
func (c *Container) LocaleRepository() registry.LocaleRepository {
	return c.localeRepo
}

// TranslationRepository exposes the configured row repository.
func (c *Container) TranslationRepository() store.Repository {
	return c.rowRepo
}

// HistoryRepository exposes the configured history repository.
func (c *Container) HistoryRepository() history.Repository {
	return c.historyRepo
}

// SnapshotRepository exposes the durable snapshot tier.
func (c *Container) SnapshotRepository() snapshot.Repository {
	return c.snapshotRepo
}

// Logger returns a module-scoped logger from the configured provider.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.provider, module)
}

// LoggerProvider exposes the configured provider for consumers that build
// their own module-scoped loggers, such as command handlers.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.provider
}
