package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/internal/workflow"
)

const (
	commandValidationCode  = "TRANSLATION_COMMAND_INVALID"
	commandContextCanceled = "TRANSLATION_COMMAND_CANCELED"
	commandContextTimeout  = "TRANSLATION_COMMAND_TIMEOUT"
	commandContextFailed   = "TRANSLATION_COMMAND_CONTEXT"
	commandConflictCode    = "TRANSLATION_VERSION_CONFLICT"
	commandDeniedCode      = "TRANSLATION_TRANSITION_DENIED"
	commandExecuteFailed   = "TRANSLATION_COMMAND_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch err {
	case context.Canceled:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case context.DeadlineExceeded:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextFailed)
	}
}

// wrapExecuteError keeps the editorial error taxonomy visible through the
// command layer: CAS misses surface as conflicts and workflow refusals as
// authorization failures, so dispatcher-side callers can branch without
// unwrapping down to the sentinels.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}

	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "translation version conflict").
			WithTextCode(commandConflictCode)
	}
	if errors.Is(err, workflow.ErrRoleDenied) ||
		errors.Is(err, workflow.ErrSelfApproval) ||
		errors.Is(err, workflow.ErrInvalidTransition) ||
		errors.Is(err, workflow.ErrChangeReasonRequired) {
		return goerrors.Wrap(err, goerrors.CategoryAuthz, "transition denied").
			WithTextCode(commandDeniedCode)
	}

	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}
