package translations

import (
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/internal/di"
	"github.com/goliatone/go-translations/internal/jobs"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/activity/usersink"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// Option mutates the module container before it is finalised.
type Option = di.Option

// JobAuditRecorder exports the worker's job outcome sink.
type JobAuditRecorder = jobs.AuditRecorder

// WithDatabase switches every repository to its bun-backed implementation.
// The schema must already exist; see CreateSchema and Module.EnsureDefaults.
func WithDatabase(db *bun.DB) Option {
	return di.WithBunDB(db)
}

// WithRepositoryCache overrides the read-through cache wrapped around the
// bun repositories.
func WithRepositoryCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return di.WithCache(service, serializer)
}

// WithSharedCache supplies the snapshot shared tier, typically a Redis or
// memcached adapter shared across processes.
func WithSharedCache(cache interfaces.CacheProvider) Option {
	return di.WithSharedCache(cache)
}

// WithLoggerProvider routes module loggers through the supplied provider
// instead of the configured go-logger adapter.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithActivityHooks registers sinks for editorial activity events.
func WithActivityHooks(hooks ...activity.Hook) Option {
	return di.WithActivityHooks(hooks...)
}

// WithActivitySink bridges editorial activity events into a go-users
// activity sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return di.WithActivityHooks(usersink.Hook{Sink: sink})
}

// WithScheduler overrides the snapshot refresh scheduler.
func WithScheduler(sched Scheduler) Option {
	return di.WithScheduler(sched)
}

// WithWorkflowEngine overrides the editorial transition rules.
func WithWorkflowEngine(engine *WorkflowEngine) Option {
	return di.WithWorkflowEngine(engine)
}

// WithIdentityResolver overrides how the HTTP surface extracts the caller
// identity from a request.
func WithIdentityResolver(resolver IdentityResolver) Option {
	return di.WithIdentityResolver(resolver)
}

// WithJobAudit records job outcomes from the snapshot refresh worker.
func WithJobAudit(recorder JobAuditRecorder) Option {
	return di.WithJobAudit(recorder)
}

// WithClock overrides the time source used across services.
func WithClock(clock func() time.Time) Option {
	return di.WithClock(clock)
}
