package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

type failureStage int

const (
	stageValidate failureStage = iota
	stageContext
	stageExecute
)

// Text codes for errors raised by the handler. Errors the content services
// already categorised keep their own category and code.
const (
	CodeInvalidCommand   = "PORTAL_COMMAND_INVALID"
	CodeCommandCanceled  = "PORTAL_COMMAND_CANCELED"
	CodeCommandTimeout   = "PORTAL_COMMAND_TIMEOUT"
	CodeCommandInterrupt = "PORTAL_COMMAND_INTERRUPTED"
	CodeCommandFailed    = "PORTAL_COMMAND_FAILED"
)

func classify(stage failureStage, err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}

	category, message, code := goerrors.CategoryCommand, "command failed", CodeCommandFailed
	switch stage {
	case stageValidate:
		category, message, code = goerrors.CategoryValidation, "command is invalid", CodeInvalidCommand
	case stageContext:
		switch {
		case errors.Is(err, context.Canceled):
			message, code = "command canceled", CodeCommandCanceled
		case errors.Is(err, context.DeadlineExceeded):
			message, code = "command timed out", CodeCommandTimeout
		default:
			message, code = "command interrupted", CodeCommandInterrupt
		}
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
