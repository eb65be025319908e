package pagebuilder

import (
	"context"

	"github.com/goliatone/go-pagebuilder/commands"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/di"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
)

// ContentService exports the post, media and inline content contract.
type ContentService = content.Service

// PageService exports the page lookup contract.
type PageService = pages.Service

// MenuService exports the menu tree contract.
type MenuService = menus.Service

// PageEngine exports the page composition engine.
type PageEngine = *pages.Engine

// PageTransformer exports the editable and published page read models.
type PageTransformer = *pages.Transformer

// Commands exports the registered command handlers.
type Commands = *commands.RegistrationResult

// Option customises the module wiring.
type Option = di.Option

// Module is the top level page builder runtime façade.
type Module struct {
	container *di.Container
	commands  *commands.RegistrationResult
}

// New constructs a module from cfg. The embedded SQL migrations run when
// Storage.AutoMigrate is set, unless opts supply other migrations. Command
// handlers are built when Commands.Enabled is set.
func New(cfg Config, opts ...Option) (*Module, error) {
	return NewWithContext(context.Background(), cfg, opts...)
}

// NewWithContext is New with a caller supplied context for opening storage
// and running migrations.
func NewWithContext(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, di.WithMigrations(MigrationsDir()))
	all = append(all, opts...)

	container, err := di.NewContainer(ctx, cfg, all...)
	if err != nil {
		return nil, err
	}

	module := &Module{container: container}
	if cfg.Commands.Enabled {
		result, err := commands.RegisterContainerCommands(container, commands.RegistrationOptions{})
		if err != nil {
			_ = container.Close()
			return nil, err
		}
		module.commands = result
	}
	return module, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Content() ContentService {
	return m.container.ContentService()
}

func (m *Module) Pages() PageService {
	return m.container.PageService()
}

func (m *Module) Menus() MenuService {
	return m.container.MenuService()
}

// Engine returns the page composition engine.
func (m *Module) Engine() PageEngine {
	return m.container.PageEngine()
}

// Transformer returns the page read model transformer.
func (m *Module) Transformer() PageTransformer {
	return m.container.PageTransformer()
}

// Commands returns the command handlers, or nil when commands are disabled.
func (m *Module) Commands() Commands {
	return m.commands
}

// Close releases storage opened by the module.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	m.commands.Unsubscribe()
	return m.container.Close()
}
