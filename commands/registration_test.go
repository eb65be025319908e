package commands

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-command/dispatcher"

	pagescmd "github.com/goliatone/go-pagebuilder/internal/commands/pages"
	menuscmd "github.com/goliatone/go-pagebuilder/internal/commands/menus"
	"github.com/goliatone/go-pagebuilder/internal/di"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

var dsnCounter atomic.Int64

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger { return logging.NoOp() }

type recordingRegistry struct {
	handlers []any
	err      error
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

func newContainer(t *testing.T) *di.Container {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.DSN = fmt.Sprintf("file:commands_%d?mode=memory&cache=shared", dsnCounter.Add(1))
	container, err := di.NewContainer(context.Background(), cfg, di.WithLoggerProvider(noopProvider{}))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func TestRegisterContainerCommandsBuildsHandlers(t *testing.T) {
	registry := &recordingRegistry{}
	result, err := RegisterContainerCommands(newContainer(t), RegistrationOptions{Registry: registry})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 18 {
		t.Fatalf("expected 18 handlers, got %d", len(result.Handlers))
	}
	if len(registry.handlers) != len(result.Handlers) {
		t.Fatalf("expected registry to record all handlers, got %d of %d", len(registry.handlers), len(result.Handlers))
	}
	if result.SavePage == nil || result.RestorePage == nil || result.SyncMenuTree == nil ||
		result.DeleteMenuItem == nil || result.ImportMarkdownPost == nil || result.ArchivePost == nil {
		t.Fatalf("expected typed handler accessors to be set")
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterContainerCommandsJoinsRegistryErrors(t *testing.T) {
	registry := &recordingRegistry{err: errors.New("registry closed")}
	result, err := RegisterContainerCommands(newContainer(t), RegistrationOptions{Registry: registry})
	if err == nil {
		t.Fatal("expected registry errors to surface")
	}
	if len(result.Handlers) != 18 {
		t.Fatalf("expected handlers to be built despite registry errors, got %d", len(result.Handlers))
	}
}

func TestRegisterContainerCommandsNilContainer(t *testing.T) {
	result, err := RegisterContainerCommands(nil, RegistrationOptions{})
	if err != nil || len(result.Handlers) != 0 {
		t.Fatalf("expected empty result, got %d handlers (%v)", len(result.Handlers), err)
	}
}

func TestGlobalDispatcherRoutesMessages(t *testing.T) {
	ctx := context.Background()
	container := newContainer(t)

	result, err := RegisterContainerCommands(container, RegistrationOptions{Dispatcher: GlobalDispatcher{}})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	t.Cleanup(result.Unsubscribe)
	if len(result.Subscriptions) != len(result.Handlers) {
		t.Fatalf("expected a subscription per handler, got %d of %d", len(result.Subscriptions), len(result.Handlers))
	}

	err = dispatcher.Dispatch(ctx, pagescmd.SavePageCommand{Request: pages.SavePageRequest{
		Title:  "Pricing",
		Status: "published",
	}})
	if err != nil {
		t.Fatalf("dispatch save page: %v", err)
	}
	page, err := container.PageService().GetBySlug(ctx, "pricing")
	if err != nil {
		t.Fatalf("expected dispatched save to create the page: %v", err)
	}

	err = dispatcher.Dispatch(ctx, menuscmd.SyncMenuTreeCommand{
		Slug:  "primary",
		Items: []menus.Node{{Label: "Pricing", URL: "/pricing"}},
	})
	if err != nil {
		t.Fatalf("dispatch sync menu: %v", err)
	}
	if err := dispatcher.Dispatch(ctx, menuscmd.AddMenuItemCommand{
		MenuSlug: "primary",
		Item:     menus.ItemRequest{Label: "Blog", URL: "/blog"},
	}); err != nil {
		t.Fatalf("dispatch add item: %v", err)
	}
	items, err := container.MenuService().Items(ctx, "primary")
	if err != nil || len(items) != 2 {
		t.Fatalf("expected two menu items, got %d (%v)", len(items), err)
	}

	if err := dispatcher.Dispatch(ctx, pagescmd.UnpublishPageCommand{PageID: page.ID}); err != nil {
		t.Fatalf("dispatch unpublish: %v", err)
	}
	if draft, err := container.PageService().Get(ctx, page.ID); err != nil || draft.IsPublished {
		t.Fatalf("expected draft page, got %+v (%v)", draft, err)
	}
	if err := dispatcher.Dispatch(ctx, pagescmd.ArchivePageCommand{PageID: page.ID}); err != nil {
		t.Fatalf("dispatch archive: %v", err)
	}
	if err := dispatcher.Dispatch(ctx, pagescmd.RestorePageCommand{PageID: page.ID}); err != nil {
		t.Fatalf("dispatch restore: %v", err)
	}

	if err := dispatcher.Dispatch(ctx, pagescmd.DeletePageCommand{PageID: page.ID}); err != nil {
		t.Fatalf("dispatch delete: %v", err)
	}
	if _, err := container.PageService().Get(ctx, page.ID); !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected deleted page, got %v", err)
	}
}

func TestGlobalDispatcherRejectsUnknownHandlers(t *testing.T) {
	if _, err := (GlobalDispatcher{}).RegisterCommand(struct{}{}); err == nil {
		t.Fatal("expected unsupported handler error")
	}
}
