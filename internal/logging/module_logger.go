package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	RootModule     = "pagebuilder"
	PagesModule    = "pagebuilder.pages"
	SectionsModule = "pagebuilder.sections"
	BlocksModule   = "pagebuilder.blocks"
	MenusModule    = "pagebuilder.menus"
	ContentModule  = "pagebuilder.content"
	StorageModule  = "pagebuilder.storage"
	CommandsModule = "pagebuilder.commands"
)

// ModuleLogger resolves a named logger from provider and tags every entry with
// the module name. A nil provider yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = RootModule
	}

	var logger interfaces.Logger = noopLogger{}
	if provider != nil {
		if named := provider.GetLogger(module); named != nil {
			logger = named
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// PagesLogger is the logger used by the composition engine and transformer.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, PagesModule)
}

// MenusLogger is the logger used by the menu synchronizer and service.
func MenusLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, MenusModule)
}

// ContentLogger is the logger used by the post/media/html content service.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ContentModule)
}

// CommandLogger is the logger of the command handlers of one service area,
// named CommandsModule.<area>. Entries carry the area as command_module.
func CommandLogger(provider interfaces.LoggerProvider, area string) interfaces.Logger {
	area = strings.TrimSpace(area)
	if area == "" {
		area = "core"
	}
	return WithFields(ModuleLogger(provider, CommandsModule+"."+area), map[string]any{
		"component":      "command",
		"command_module": area,
	})
}

// NoOp returns a logger that discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
