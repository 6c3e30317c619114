package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// TelemetryStatus captures the result category for command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes one command outcome.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	// Logger already carries Fields.
	Logger interfaces.Logger
}

// Telemetry is invoked after every execution that reached the handler
// function.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs outcomes: success at info, cancellations and
// timeouts at warn, anything else at error. Categorised domain errors such as
// validation or not found are caller mistakes and log at info.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := info.Logger
		if entry == nil {
			entry = logging.WithFields(logger, info.Fields)
		}
		args := []any{"status", string(info.Status), "duration_ms", info.Duration.Milliseconds()}
		switch {
		case info.Status == TelemetryStatusSuccess:
			entry.Info("command.completed", args...)
		case info.Status == TelemetryStatusContextError:
			entry.Warn("command.interrupted", append(args, "error", info.Error)...)
		case callerError(info.Error):
			entry.Info("command.rejected", append(args, "error", info.Error)...)
		default:
			entry.Error("command.failed", append(args, "error", info.Error)...)
		}
	}
}

func callerError(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation) ||
		goerrors.IsCategory(err, goerrors.CategoryNotFound) ||
		goerrors.IsCategory(err, goerrors.CategoryConflict)
}
