package commands

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	contentcmd "github.com/goliatone/go-pagebuilder/internal/commands/content"
	menuscmd "github.com/goliatone/go-pagebuilder/internal/commands/menus"
	pagescmd "github.com/goliatone/go-pagebuilder/internal/commands/pages"
	"github.com/goliatone/go-pagebuilder/internal/di"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or queues.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	LoggerProvider interfaces.LoggerProvider
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription

	SavePage              *pagescmd.SavePageHandler
	DeletePage            *pagescmd.DeletePageHandler
	PublishPage           *pagescmd.LifecycleHandler[pagescmd.PublishPageCommand]
	UnpublishPage         *pagescmd.LifecycleHandler[pagescmd.UnpublishPageCommand]
	ArchivePage           *pagescmd.LifecycleHandler[pagescmd.ArchivePageCommand]
	RestorePage           *pagescmd.LifecycleHandler[pagescmd.RestorePageCommand]
	InvalidateRenderCache *pagescmd.InvalidateRenderCacheHandler

	SyncMenuTree        *menuscmd.SyncMenuTreeHandler
	AddMenuItem         *menuscmd.AddMenuItemHandler
	UpdateMenuItem      *menuscmd.UpdateMenuItemHandler
	DeleteMenuItem      *menuscmd.DeleteMenuItemHandler
	InvalidateMenuCache *menuscmd.InvalidateMenuCacheHandler

	SavePost           *contentcmd.SavePostHandler
	ImportMarkdownPost *contentcmd.ImportMarkdownPostHandler
	PublishPost        *contentcmd.PostLifecycleHandler[contentcmd.PublishPostCommand]
	UnpublishPost      *contentcmd.PostLifecycleHandler[contentcmd.UnpublishPostCommand]
	ArchivePost        *contentcmd.PostLifecycleHandler[contentcmd.ArchivePostCommand]
	RestorePost        *contentcmd.PostLifecycleHandler[contentcmd.RestorePostCommand]
}

// Unsubscribe tears down every dispatcher subscription.
func (r *RegistrationResult) Unsubscribe() {
	if r == nil {
		return
	}
	for _, sub := range r.Subscriptions {
		sub.Unsubscribe()
	}
	r.Subscriptions = nil
}

// RegisterContainerCommands builds the command handlers over the container's
// services and optionally registers them with a registry and dispatcher.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}
	if container == nil {
		return result, nil
	}

	cfg := container.Config
	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	var errs error
	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return logging.CommandLogger(provider, module)
	}
	timeout := cfg.Commands.Timeout

	// Page commands.
	if engine := container.PageEngine(); engine != nil {
		gates := pagescmd.FeatureGates{
			SchemaValidation: func() bool { return cfg.Pages.ValidatePayloadSchema },
			PruneOrphans:     func() bool { return cfg.Pages.PruneOrphans },
		}
		pagesLogger := loggerFor("pages")
		result.SavePage = pagescmd.NewSavePageHandler(engine, pagesLogger, gates,
			commands.WithTimeout[pagescmd.SavePageCommand](timeout))
		result.DeletePage = pagescmd.NewDeletePageHandler(engine, pagesLogger, gates,
			commands.WithTimeout[pagescmd.DeletePageCommand](timeout))
		result.PublishPage = pagescmd.NewLifecycleHandler(engine, pagesLogger,
			commands.WithTimeout[pagescmd.PublishPageCommand](timeout))
		result.UnpublishPage = pagescmd.NewLifecycleHandler(engine, pagesLogger,
			commands.WithTimeout[pagescmd.UnpublishPageCommand](timeout))
		result.ArchivePage = pagescmd.NewLifecycleHandler(engine, pagesLogger,
			commands.WithTimeout[pagescmd.ArchivePageCommand](timeout))
		result.RestorePage = pagescmd.NewLifecycleHandler(engine, pagesLogger,
			commands.WithTimeout[pagescmd.RestorePageCommand](timeout))
		result.InvalidateRenderCache = pagescmd.NewInvalidateRenderCacheHandler(engine, pagesLogger,
			commands.WithTimeout[pagescmd.InvalidateRenderCacheCommand](timeout))
		register(result.SavePage)
		register(result.DeletePage)
		register(result.PublishPage)
		register(result.UnpublishPage)
		register(result.ArchivePage)
		register(result.RestorePage)
		register(result.InvalidateRenderCache)
	}

	// Menu commands.
	if service := container.MenuService(); service != nil {
		gates := menuscmd.FeatureGates{
			MenusEnabled: func() bool { return service != nil },
		}
		menusLogger := loggerFor("menus")
		result.SyncMenuTree = menuscmd.NewSyncMenuTreeHandler(service, menusLogger, gates,
			commands.WithTimeout[menuscmd.SyncMenuTreeCommand](timeout))
		result.AddMenuItem = menuscmd.NewAddMenuItemHandler(service, menusLogger, gates,
			commands.WithTimeout[menuscmd.AddMenuItemCommand](timeout))
		result.UpdateMenuItem = menuscmd.NewUpdateMenuItemHandler(service, menusLogger, gates,
			commands.WithTimeout[menuscmd.UpdateMenuItemCommand](timeout))
		result.DeleteMenuItem = menuscmd.NewDeleteMenuItemHandler(service, menusLogger, gates,
			commands.WithTimeout[menuscmd.DeleteMenuItemCommand](timeout))
		result.InvalidateMenuCache = menuscmd.NewInvalidateMenuCacheHandler(service, menusLogger, gates,
			commands.WithTimeout[menuscmd.InvalidateMenuCacheCommand](timeout))
		register(result.SyncMenuTree)
		register(result.AddMenuItem)
		register(result.UpdateMenuItem)
		register(result.DeleteMenuItem)
		register(result.InvalidateMenuCache)
	}

	// Content commands.
	if service := container.ContentService(); service != nil {
		contentLogger := loggerFor("content")
		result.SavePost = contentcmd.NewSavePostHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.SavePostCommand](timeout))
		result.ImportMarkdownPost = contentcmd.NewImportMarkdownPostHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.ImportMarkdownPostCommand](timeout))
		result.PublishPost = contentcmd.NewPostLifecycleHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.PublishPostCommand](timeout))
		result.UnpublishPost = contentcmd.NewPostLifecycleHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.UnpublishPostCommand](timeout))
		result.ArchivePost = contentcmd.NewPostLifecycleHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.ArchivePostCommand](timeout))
		result.RestorePost = contentcmd.NewPostLifecycleHandler(service, contentLogger,
			commands.WithTimeout[contentcmd.RestorePostCommand](timeout))
		register(result.SavePost)
		register(result.ImportMarkdownPost)
		register(result.PublishPost)
		register(result.UnpublishPost)
		register(result.ArchivePost)
		register(result.RestorePost)
	}

	if len(result.Handlers) == 0 {
		return result, errors.Join(errs, errors.New("no command handlers registered; ensure services are configured"))
	}
	return result, errs
}

// GlobalDispatcher subscribes handlers to go-command's process-wide
// dispatcher so hosts can publish messages with dispatcher.Dispatch.
type GlobalDispatcher struct {
	// MaxRetries is forwarded to runner.WithMaxRetries.
	MaxRetries int
}

// RegisterCommand satisfies CommandDispatcher.
func (d GlobalDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	retries := runner.WithMaxRetries(max(d.MaxRetries, 0))

	switch h := handler.(type) {
	case *pagescmd.SavePageHandler:
		return dispatcher.SubscribeCommand[pagescmd.SavePageCommand](h, retries), nil
	case *pagescmd.DeletePageHandler:
		return dispatcher.SubscribeCommand[pagescmd.DeletePageCommand](h, retries), nil
	case *pagescmd.LifecycleHandler[pagescmd.PublishPageCommand]:
		return dispatcher.SubscribeCommand[pagescmd.PublishPageCommand](h, retries), nil
	case *pagescmd.LifecycleHandler[pagescmd.UnpublishPageCommand]:
		return dispatcher.SubscribeCommand[pagescmd.UnpublishPageCommand](h, retries), nil
	case *pagescmd.LifecycleHandler[pagescmd.ArchivePageCommand]:
		return dispatcher.SubscribeCommand[pagescmd.ArchivePageCommand](h, retries), nil
	case *pagescmd.LifecycleHandler[pagescmd.RestorePageCommand]:
		return dispatcher.SubscribeCommand[pagescmd.RestorePageCommand](h, retries), nil
	case *pagescmd.InvalidateRenderCacheHandler:
		return dispatcher.SubscribeCommand[pagescmd.InvalidateRenderCacheCommand](h, retries), nil
	case *menuscmd.SyncMenuTreeHandler:
		return dispatcher.SubscribeCommand[menuscmd.SyncMenuTreeCommand](h, retries), nil
	case *menuscmd.AddMenuItemHandler:
		return dispatcher.SubscribeCommand[menuscmd.AddMenuItemCommand](h, retries), nil
	case *menuscmd.UpdateMenuItemHandler:
		return dispatcher.SubscribeCommand[menuscmd.UpdateMenuItemCommand](h, retries), nil
	case *menuscmd.DeleteMenuItemHandler:
		return dispatcher.SubscribeCommand[menuscmd.DeleteMenuItemCommand](h, retries), nil
	case *menuscmd.InvalidateMenuCacheHandler:
		return dispatcher.SubscribeCommand[menuscmd.InvalidateMenuCacheCommand](h, retries), nil
	case *contentcmd.SavePostHandler:
		return dispatcher.SubscribeCommand[contentcmd.SavePostCommand](h, retries), nil
	case *contentcmd.ImportMarkdownPostHandler:
		return dispatcher.SubscribeCommand[contentcmd.ImportMarkdownPostCommand](h, retries), nil
	case *contentcmd.PostLifecycleHandler[contentcmd.PublishPostCommand]:
		return dispatcher.SubscribeCommand[contentcmd.PublishPostCommand](h, retries), nil
	case *contentcmd.PostLifecycleHandler[contentcmd.UnpublishPostCommand]:
		return dispatcher.SubscribeCommand[contentcmd.UnpublishPostCommand](h, retries), nil
	case *contentcmd.PostLifecycleHandler[contentcmd.ArchivePostCommand]:
		return dispatcher.SubscribeCommand[contentcmd.ArchivePostCommand](h, retries), nil
	case *contentcmd.PostLifecycleHandler[contentcmd.RestorePostCommand]:
		return dispatcher.SubscribeCommand[contentcmd.RestorePostCommand](h, retries), nil
	default:
		return nil, fmt.Errorf("commands: unsupported handler %T", handler)
	}
}
