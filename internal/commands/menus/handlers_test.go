package menuscmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/pkg/testsupport"
)

type trackingMenuService struct {
	menus.Service
	invalidated []string
}

func (t *trackingMenuService) InvalidateCache(ctx context.Context, slug string) error {
	t.invalidated = append(t.invalidated, slug)
	return t.Service.InvalidateCache(ctx, slug)
}

func newMenuService(t *testing.T) menus.Service {
	t.Helper()
	db := testsupport.NewBunDB(t)
	return menus.NewService(db, menus.NewMenuRepository(db), menus.WithCache(testsupport.NewCacheService(t)))
}

func TestSyncMenuTreeHandlerSavesTree(t *testing.T) {
	ctx := context.Background()
	service := newMenuService(t)
	handler := NewSyncMenuTreeHandler(service, logging.NoOp(), FeatureGates{})

	err := handler.Execute(ctx, SyncMenuTreeCommand{
		Slug: "footer",
		Items: []menus.Node{
			{Label: "About", URL: "/about"},
			{Label: "Legal", Children: []menus.Node{{Label: "Privacy", URL: "/privacy"}}},
		},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	items, err := service.Items(ctx, "footer")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 stored items, got %d", len(items))
	}
}

func TestSyncMenuTreeHandlerValidatesLabels(t *testing.T) {
	service := newMenuService(t)
	handler := NewSyncMenuTreeHandler(service, logging.NoOp(), FeatureGates{})

	err := handler.Execute(context.Background(), SyncMenuTreeCommand{
		Slug:  "footer",
		Items: []menus.Node{{Label: "About"}, {Label: "About"}},
	})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected duplicate sibling labels to fail validation, got %v", err)
	}

	err = handler.Execute(context.Background(), SyncMenuTreeCommand{Items: []menus.Node{{Label: "About"}}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected missing slug to fail validation, got %v", err)
	}

	if _, err := service.Get(context.Background(), "footer"); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected nothing to be saved, got %v", err)
	}
}

func TestInvalidateMenuCacheHandler(t *testing.T) {
	tracking := &trackingMenuService{Service: newMenuService(t)}
	handler := NewInvalidateMenuCacheHandler(tracking, logging.NoOp(), FeatureGates{
		MenusEnabled: func() bool { return true },
	})

	if err := handler.Execute(context.Background(), InvalidateMenuCacheCommand{Slug: "primary"}); err != nil {
		t.Fatalf("execute invalidate: %v", err)
	}
	if len(tracking.invalidated) != 1 || tracking.invalidated[0] != "primary" {
		t.Fatalf("expected one invalidation for primary, got %v", tracking.invalidated)
	}
}

func TestInvalidateMenuCacheHandlerFeatureDisabled(t *testing.T) {
	tracking := &trackingMenuService{Service: newMenuService(t)}
	handler := NewInvalidateMenuCacheHandler(tracking, logging.NoOp(), FeatureGates{
		MenusEnabled: func() bool { return false },
	})

	err := handler.Execute(context.Background(), InvalidateMenuCacheCommand{Slug: "primary"})
	if !errors.Is(err, ErrMenusModuleDisabled) {
		t.Fatalf("expected ErrMenusModuleDisabled, got %v", err)
	}
	if len(tracking.invalidated) != 0 {
		t.Fatalf("expected no invalidation calls, got %d", len(tracking.invalidated))
	}
}

func TestMenuItemHandlers(t *testing.T) {
	ctx := context.Background()
	service := newMenuService(t)
	if _, err := service.SaveTree(ctx, menus.SaveTreeRequest{Slug: "primary", Items: []menus.Node{{Label: "Home", URL: "/"}}}); err != nil {
		t.Fatalf("save tree: %v", err)
	}
	add := NewAddMenuItemHandler(service, logging.NoOp(), FeatureGates{})
	update := NewUpdateMenuItemHandler(service, logging.NoOp(), FeatureGates{})
	remove := NewDeleteMenuItemHandler(service, logging.NoOp(), FeatureGates{})

	first := 0
	if err := add.Execute(ctx, AddMenuItemCommand{MenuSlug: "primary", Item: menus.ItemRequest{Label: "Pricing", URL: "/pricing", Position: &first}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := service.Items(ctx, "primary")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 || items[0].Label != "Pricing" {
		t.Fatalf("expected Pricing first, got %+v", items)
	}
	pricing := items[0].ID

	if err := update.Execute(ctx, UpdateMenuItemCommand{MenuSlug: "primary", ItemID: pricing, Item: menus.ItemRequest{Label: "Plans", URL: "/plans"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := remove.Execute(ctx, DeleteMenuItemCommand{MenuSlug: "primary", ItemID: items[1].ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err = service.Items(ctx, "primary")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Label != "Plans" || items[0].Position != 0 {
		t.Fatalf("expected only Plans at 0, got %+v", items)
	}

	negative := -1
	if err := add.Execute(ctx, AddMenuItemCommand{MenuSlug: "primary", Item: menus.ItemRequest{Label: "Blog", Position: &negative}}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected negative position to fail validation, got %v", err)
	}
	if err := update.Execute(ctx, UpdateMenuItemCommand{MenuSlug: "primary", Item: menus.ItemRequest{Label: "Plans"}}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected missing item id to fail validation, got %v", err)
	}
	if err := remove.Execute(ctx, DeleteMenuItemCommand{ItemID: pricing}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected missing menu slug to fail validation, got %v", err)
	}
	if err := add.Execute(ctx, AddMenuItemCommand{MenuSlug: "primary", Item: menus.ItemRequest{Label: "Plans"}}); !errors.Is(err, menus.ErrLabelTaken) {
		t.Fatalf("expected the service to reject a duplicate label, got %v", err)
	}

	disabled := NewDeleteMenuItemHandler(service, logging.NoOp(), FeatureGates{MenusEnabled: func() bool { return false }})
	if err := disabled.Execute(ctx, DeleteMenuItemCommand{MenuSlug: "primary", ItemID: pricing}); !errors.Is(err, ErrMenusModuleDisabled) {
		t.Fatalf("expected ErrMenusModuleDisabled, got %v", err)
	}
}
