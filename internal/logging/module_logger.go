package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-portal/pkg/interfaces"
)

const rootModule = "portal"

// Module namespaces handed to the logger provider.
const (
	StorageModule  = "portal.storage"
	SearchModule   = "portal.search"
	CommandsModule = "portal.commands"
	FixturesModule = "portal.fixtures"
)

// ModuleLogger returns the logger for module, annotated with a "module"
// field. A nil provider, or one returning nil, yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = rootModule
	}

	var logger interfaces.Logger = noopLogger{}
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// KindLogger returns the logger reserved for a translatable entity kind,
// namespaced as portal.<kind>.
func KindLogger(provider interfaces.LoggerProvider, kind string) interfaces.Logger {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return ModuleLogger(provider, rootModule)
	}
	return WithFields(ModuleLogger(provider, rootModule+"."+kind), map[string]any{"kind": kind})
}

// NoOp returns a logger that discards every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
