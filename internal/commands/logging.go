package commands

import (
	"strings"

	"github.com/goliatone/go-portal/internal/logging"
	"github.com/goliatone/go-portal/pkg/interfaces"
)

// Logger returns the logger for command handlers of one kind, namespaced
// under portal.commands.
func Logger(provider interfaces.LoggerProvider, kind string) interfaces.Logger {
	name := strings.TrimSpace(kind)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, logging.CommandsModule+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":    "command",
		"command_kind": name,
	})
}
