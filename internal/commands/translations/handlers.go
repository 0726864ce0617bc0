package translationscmd

import (
	"context"
	"fmt"

	"github.com/goliatone/go-translations/internal/commands"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// SnapshotRefresher rebuilds one (locale, namespace) scope from published
// rows. snapshot.Manager satisfies it.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, locale, namespace string) (*snapshot.Snapshot, error)
}

// NamespaceLister enumerates registered namespaces; the registry service
// satisfies it.
type NamespaceLister interface {
	Namespaces(ctx context.Context) ([]string, error)
}

// UpsertDraftHandler writes draft values through the mutation service.
type UpsertDraftHandler struct {
	inner *commands.Handler[UpsertDraftCommand]
}

// NewUpsertDraftHandler constructs a handler wired to the provided mutation service.
func NewUpsertDraftHandler(service mutation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UpsertDraftCommand]) *UpsertDraftHandler {
	exec := func(ctx context.Context, msg UpsertDraftCommand) error {
		_, err := service.UpsertDraft(ctx, store.UpsertDraftRequest{
			Identity:        msg.Identity,
			KeyName:         msg.Key,
			Locale:          msg.Locale,
			Value:           msg.Value,
			Plural:          msg.Plural,
			ExpectedVersion: msg.ExpectedVersion,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[UpsertDraftCommand]{
		commands.WithLogger[UpsertDraftCommand](logger),
		commands.WithOperation[UpsertDraftCommand]("catalog.upsert_draft"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UpsertDraftHandler{
		inner: commands.NewHandler[UpsertDraftCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UpsertDraftCommand].Execute.
func (h *UpsertDraftHandler) Execute(ctx context.Context, msg UpsertDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

// TransitionHandler moves rows along the editorial lifecycle.
type TransitionHandler struct {
	inner *commands.Handler[TransitionCommand]
}

// NewTransitionHandler constructs a handler wired to the provided mutation service.
func NewTransitionHandler(service mutation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[TransitionCommand]) *TransitionHandler {
	exec := func(ctx context.Context, msg TransitionCommand) error {
		_, err := service.Transition(ctx, store.TransitionRequest{
			Identity:        msg.Identity,
			ID:              msg.ID,
			KeyName:         msg.Key,
			Locale:          msg.Locale,
			Action:          msg.Action,
			ExpectedVersion: msg.ExpectedVersion,
			Reason:          msg.Reason,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[TransitionCommand]{
		commands.WithLogger[TransitionCommand](logger),
		commands.WithOperation[TransitionCommand]("catalog.transition"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &TransitionHandler{
		inner: commands.NewHandler[TransitionCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[TransitionCommand].Execute.
func (h *TransitionHandler) Execute(ctx context.Context, msg TransitionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RollbackHandler restores historical versions as fresh drafts.
type RollbackHandler struct {
	inner *commands.Handler[RollbackCommand]
}

// NewRollbackHandler constructs a handler wired to the provided mutation service.
func NewRollbackHandler(service mutation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RollbackCommand]) *RollbackHandler {
	exec := func(ctx context.Context, msg RollbackCommand) error {
		_, err := service.Rollback(ctx, store.RollbackRequest{
			Identity:  msg.Identity,
			KeyName:   msg.Key,
			Locale:    msg.Locale,
			ToVersion: msg.ToVersion,
			Reason:    msg.Reason,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[RollbackCommand]{
		commands.WithLogger[RollbackCommand](logger),
		commands.WithOperation[RollbackCommand]("catalog.rollback"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RollbackHandler{
		inner: commands.NewHandler[RollbackCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RollbackCommand].Execute.
func (h *RollbackHandler) Execute(ctx context.Context, msg RollbackCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RebuildSnapshotsHandler forces snapshot rebuilds, fanning out across every
// registered namespace when the message names none.
type RebuildSnapshotsHandler struct {
	inner *commands.Handler[RebuildSnapshotsCommand]
}

// NewRebuildSnapshotsHandler constructs a handler wired to the snapshot manager.
func NewRebuildSnapshotsHandler(snapshots SnapshotRefresher, namespaces NamespaceLister, logger interfaces.Logger, opts ...commands.HandlerOption[RebuildSnapshotsCommand]) *RebuildSnapshotsHandler {
	exec := func(ctx context.Context, msg RebuildSnapshotsCommand) error {
		scopes := msg.Namespaces
		if len(scopes) == 0 {
			if namespaces == nil {
				return fmt.Errorf("rebuild %s: no namespaces given and no lister wired", msg.Locale)
			}
			listed, err := namespaces.Namespaces(ctx)
			if err != nil {
				return fmt.Errorf("rebuild %s: list namespaces: %w", msg.Locale, err)
			}
			scopes = listed
		}
		for _, ns := range scopes {
			if _, err := snapshots.Refresh(ctx, msg.Locale, ns); err != nil {
				return fmt.Errorf("rebuild %s/%s: %w", msg.Locale, ns, err)
			}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RebuildSnapshotsCommand]{
		commands.WithLogger[RebuildSnapshotsCommand](logger),
		commands.WithOperation[RebuildSnapshotsCommand]("snapshot.rebuild"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RebuildSnapshotsHandler{
		inner: commands.NewHandler[RebuildSnapshotsCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RebuildSnapshotsCommand].Execute.
func (h *RebuildSnapshotsHandler) Execute(ctx context.Context, msg RebuildSnapshotsCommand) error {
	return h.inner.Execute(ctx, msg)
}
