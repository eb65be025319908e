package menus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/pkg/testsupport"
)

func labels(t *testing.T, svc menus.Service, slug string, parent *uuid.UUID) []string {
	t.Helper()
	items, err := svc.Items(context.Background(), slug)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	var out []string
	for _, item := range items {
		if (parent == nil && item.ParentID == nil) || (parent != nil && item.ParentID != nil && *item.ParentID == *parent) {
			out = append(out, item.Label)
		}
	}
	return out
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddItemPlacesAndRenumbers(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db),
		menus.WithClock(func() time.Time { return fixedNow }),
		menus.WithCache(testsupport.NewCacheService(t)),
	)

	if _, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "Home"}); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected missing menu to be not found, got %v", err)
	}
	if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "primary", Items: []menus.Node{
		{Label: "Home", URL: "/"}, {Label: "Contact", URL: "/contact"},
	}}); err != nil {
		t.Fatalf("save tree: %v", err)
	}
	if _, err := svc.PublicTree(ctx, "primary"); err != nil {
		t.Fatalf("warm tree: %v", err)
	}

	last, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "Blog", URL: "/blog"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if last.Position != 2 || !last.IsVisible {
		t.Fatalf("expected appended visible item at 2, got %+v", last)
	}
	first := 0
	if _, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "News", URL: "/news", Position: &first}); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if got := labels(t, svc, "primary", nil); !equalLabels(got, []string{"News", "Home", "Contact", "Blog"}) {
		t.Fatalf("unexpected order %v", got)
	}

	tree, err := svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if len(tree) != 4 || tree[0].Label != "News" {
		t.Fatalf("expected adds to refresh the cached tree, got %+v", tree)
	}
	menu, err := svc.Get(ctx, "primary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(menu.Settings.Tree) != 4 || menu.Settings.Tree[0].Label != "News" {
		t.Fatalf("expected the stored tree snapshot to follow, got %+v", menu.Settings.Tree)
	}

	if _, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "Home"}); !errors.Is(err, menus.ErrLabelTaken) {
		t.Fatalf("expected duplicate root label to be rejected, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: " "}); !errors.Is(err, menus.ErrLabelMissing) {
		t.Fatalf("expected ErrLabelMissing, got %v", err)
	}
	missing := uuid.New()
	if _, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "Orphan", ParentID: &missing}); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected unknown parent to be not found, got %v", err)
	}

	child, err := svc.AddItem(ctx, "primary", menus.ItemRequest{Label: "Home", ParentID: &last.ID, LinkableType: domain.LinkPage, LinkableID: &missing})
	if err != nil {
		t.Fatalf("a sibling label may repeat under another parent: %v", err)
	}
	if child.LinkableType != domain.LinkPage || child.LinkableID == nil || *child.LinkableID != missing {
		t.Fatalf("expected link to be stored, got %+v", child)
	}
}

func TestUpdateItemMovesBetweenParents(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db))

	saved, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "docs", Items: []menus.Node{
		{Label: "Guides", Children: []menus.Node{{Label: "Install"}, {Label: "Deploy"}}},
		{Label: "Reference"},
	}})
	if err != nil {
		t.Fatalf("save tree: %v", err)
	}
	guides, install, deploy, reference := saved.ItemIDs[0], saved.ItemIDs[1], saved.ItemIDs[2], saved.ItemIDs[3]

	moved, err := svc.UpdateItem(ctx, "docs", install, menus.ItemRequest{Label: "Installation", ParentID: &reference, IsVisible: hidden()})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Label != "Installation" || moved.IsVisible || moved.Position != 0 {
		t.Fatalf("unexpected moved item %+v", moved)
	}
	if got := labels(t, svc, "docs", &guides); !equalLabels(got, []string{"Deploy"}) {
		t.Fatalf("expected old siblings to close the gap, got %v", got)
	}
	items, err := svc.Items(ctx, "docs")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	for _, item := range items {
		if item.ID == deploy && item.Position != 0 {
			t.Fatalf("expected Deploy renumbered to 0, got %d", item.Position)
		}
	}

	renamed, err := svc.UpdateItem(ctx, "docs", reference, menus.ItemRequest{Label: "API"})
	if err != nil {
		t.Fatalf("rename in place: %v", err)
	}
	if renamed.Position != 1 || renamed.ParentID != nil {
		t.Fatalf("expected rename to keep the slot, got %+v", renamed)
	}

	if _, err := svc.UpdateItem(ctx, "docs", guides, menus.ItemRequest{Label: "Guides", ParentID: &deploy}); !errors.Is(err, menus.ErrParentCycle) {
		t.Fatalf("expected moving under a descendant to fail, got %v", err)
	}
	if _, err := svc.UpdateItem(ctx, "docs", guides, menus.ItemRequest{Label: "Guides", ParentID: &guides}); !errors.Is(err, menus.ErrParentCycle) {
		t.Fatalf("expected self parent to fail, got %v", err)
	}
	if _, err := svc.UpdateItem(ctx, "docs", guides, menus.ItemRequest{Label: "API"}); !errors.Is(err, menus.ErrLabelTaken) {
		t.Fatalf("expected label clash to fail, got %v", err)
	}
	if _, err := svc.UpdateItem(ctx, "docs", uuid.New(), menus.ItemRequest{Label: "Ghost"}); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected unknown item to be not found, got %v", err)
	}

	other, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "footer", Items: []menus.Node{{Label: "Legal"}}})
	if err != nil {
		t.Fatalf("save footer: %v", err)
	}
	if _, err := svc.UpdateItem(ctx, "docs", other.ItemIDs[0], menus.ItemRequest{Label: "Legal"}); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected an item of another menu to be not found, got %v", err)
	}
}

func TestDeleteItemRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db))

	saved, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "primary", Items: []menus.Node{
		{Label: "Home"},
		{Label: "Company", Children: []menus.Node{{Label: "Team", Children: []menus.Node{{Label: "Jobs"}}}}},
		{Label: "Contact"},
	}})
	if err != nil {
		t.Fatalf("save tree: %v", err)
	}
	company := saved.ItemIDs[1]

	removed, err := svc.DeleteItem(ctx, "primary", company)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected the subtree of 3 to go, got %d", removed)
	}
	items, err := svc.Items(ctx, "primary")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 || items[0].Label != "Home" || items[1].Label != "Contact" || items[1].Position != 1 {
		t.Fatalf("unexpected remaining items %+v", items)
	}
	if _, err := svc.DeleteItem(ctx, "primary", company); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected second delete to be not found, got %v", err)
	}
}
