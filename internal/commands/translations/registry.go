package translationscmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-translations/internal/commands"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the translation command handlers produced by RegisterTranslationCommands.
type HandlerSet struct {
	UpsertDraft      *UpsertDraftHandler
	Transition       *TransitionHandler
	Rollback         *RollbackHandler
	RebuildSnapshots *RebuildSnapshotsHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	upsertOpts     []commands.HandlerOption[UpsertDraftCommand]
	transitionOpts []commands.HandlerOption[TransitionCommand]
	rollbackOpts   []commands.HandlerOption[RollbackCommand]
	rebuildOpts    []commands.HandlerOption[RebuildSnapshotsCommand]
}

// WithUpsertDraftOptions forwards options to the UpsertDraftHandler constructor.
func WithUpsertDraftOptions(opts ...commands.HandlerOption[UpsertDraftCommand]) Option {
	return func(cfg *options) {
		cfg.upsertOpts = append(cfg.upsertOpts, opts...)
	}
}

// WithTransitionOptions forwards options to the TransitionHandler constructor.
func WithTransitionOptions(opts ...commands.HandlerOption[TransitionCommand]) Option {
	return func(cfg *options) {
		cfg.transitionOpts = append(cfg.transitionOpts, opts...)
	}
}

// WithRollbackOptions forwards options to the RollbackHandler constructor.
func WithRollbackOptions(opts ...commands.HandlerOption[RollbackCommand]) Option {
	return func(cfg *options) {
		cfg.rollbackOpts = append(cfg.rollbackOpts, opts...)
	}
}

// WithRebuildOptions forwards options to the RebuildSnapshotsHandler constructor.
func WithRebuildOptions(opts ...commands.HandlerOption[RebuildSnapshotsCommand]) Option {
	return func(cfg *options) {
		cfg.rebuildOpts = append(cfg.rebuildOpts, opts...)
	}
}

// RegisterTranslationCommands builds the translation command handlers and
// registers them with the provided registry. The HandlerSet is returned so
// callers can wire additional integrations (dispatcher, cron) as needed.
func RegisterTranslationCommands(reg CommandRegistry, mutations mutation.Service, snapshots SnapshotRefresher, namespaces NamespaceLister, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if mutations == nil {
		return nil, errors.New("translation command registration: mutation service is nil")
	}
	if snapshots == nil {
		return nil, errors.New("translation command registration: snapshot refresher is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "translations")

	set := &HandlerSet{
		UpsertDraft:      NewUpsertDraftHandler(mutations, logger, cfg.upsertOpts...),
		Transition:       NewTransitionHandler(mutations, logger, cfg.transitionOpts...),
		Rollback:         NewRollbackHandler(mutations, logger, cfg.rollbackOpts...),
		RebuildSnapshots: NewRebuildSnapshotsHandler(snapshots, namespaces, logger, cfg.rebuildOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.UpsertDraft, set.Transition, set.Rollback, set.RebuildSnapshots} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}

// RegisterRebuildCron wires the rebuild handler into a cron registrar using
// the supplied command configuration and message payload. The handler is
// executed with a background context.
func RegisterRebuildCron(reg CronRegistrar, handler *RebuildSnapshotsHandler, cfg command.HandlerConfig, msg RebuildSnapshotsCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
