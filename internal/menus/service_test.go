package menus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/identity"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/pkg/testsupport"
)

func newRouteManager() *urlkit.RouteManager {
	return urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "frontend",
				BaseURL: "https://example.com",
				Paths: map[string]string{
					"page": "/pages/:slug",
					"post": "/blog/:slug",
				},
			},
		},
	})
}

func seedPage(t *testing.T, db bun.IDB, slug string) uuid.UUID {
	t.Helper()
	page := &pages.Page{
		ID:          uuid.New(),
		Title:       slug,
		Slug:        slug,
		Type:        pages.DefaultType,
		Status:      domain.StatusPublished,
		IsPublished: true,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
	if _, err := db.NewInsert().Model(page).Exec(context.Background()); err != nil {
		t.Fatalf("seed page: %v", err)
	}
	return page.ID
}

func seedPost(t *testing.T, db bun.IDB, slug string) uuid.UUID {
	t.Helper()
	post := &content.Post{
		ID:        uuid.New(),
		Title:     slug,
		Slug:      slug,
		Status:    domain.StatusPublished,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	if _, err := db.NewInsert().Model(post).Exec(context.Background()); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post.ID
}

func renamePage(t *testing.T, db bun.IDB, id uuid.UUID, slug string) {
	t.Helper()
	if _, err := db.NewUpdate().
		Model((*pages.Page)(nil)).
		Set("slug = ?", slug).
		Where("id = ?", id).
		Exec(context.Background()); err != nil {
		t.Fatalf("rename page: %v", err)
	}
}

func hidden() *bool {
	v := false
	return &v
}

func TestSaveTreeAndPublicTree(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	resolver := menus.NewURLKitResolver(menus.URLKitResolverOptions{Manager: newRouteManager(), Group: "frontend"})
	svc := menus.NewService(db, menus.NewMenuRepository(db),
		menus.WithClock(func() time.Time { return fixedNow }),
		menus.WithCache(testsupport.NewCacheService(t)),
		menus.WithHrefResolver(resolver),
	)

	companyID := seedPage(t, db, "company")
	postID := seedPost(t, db, "launch")
	goneID := uuid.New()

	result, err := svc.SaveTree(ctx, menus.SaveTreeRequest{
		Slug: "Primary",
		Name: "Primary navigation",
		Items: []menus.Node{
			{Label: "Company", URL: "/old-company", LinkableType: domain.LinkPage, LinkableID: &companyID},
			{Label: "Launch", LinkableType: domain.LinkPost, LinkableID: &postID},
			{Label: "Internal", IsVisible: hidden(), Children: []menus.Node{{Label: "Secret", URL: "/secret"}}},
			{Label: "Docs", URL: "https://docs.example.com", Children: []menus.Node{{Label: "API", URL: "/api"}}},
			{Label: "Gone", URL: "/gone", LinkableType: domain.LinkPage, LinkableID: &goneID},
		},
	})
	if err != nil {
		t.Fatalf("save tree: %v", err)
	}
	if result.Menu.ID != identity.MenuUUID("primary") || result.Menu.Slug != "primary" {
		t.Fatalf("unexpected menu %+v", result.Menu)
	}
	if len(result.ItemIDs) != 7 || result.Pruned != 0 {
		t.Fatalf("expected 7 items, got %d (pruned %d)", len(result.ItemIDs), result.Pruned)
	}

	tree, err := svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if len(tree) != 4 {
		t.Fatalf("expected hidden item to be dropped, got %d nodes", len(tree))
	}
	wantHrefs := []string{
		"https://example.com/pages/company",
		"https://example.com/blog/launch",
		"https://docs.example.com",
		"/gone",
	}
	for i, node := range tree {
		if node.Href != wantHrefs[i] {
			t.Fatalf("node %d (%s): expected %q, got %q", i, node.Label, wantHrefs[i], node.Href)
		}
	}
	if len(tree[2].Children) != 1 || tree[2].Children[0].Href != "/api" {
		t.Fatalf("expected nested child, got %+v", tree[2].Children)
	}
	renamePage(t, db, companyID, "company-renamed")
	cached, err := svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree again: %v", err)
	}
	if cached[0].Href != "https://example.com/pages/company" {
		t.Fatalf("expected the cached tree to be served, got %q", cached[0].Href)
	}

	companyItem := result.ItemIDs[0]
	if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{
		Slug:  "primary",
		Items: []menus.Node{{ID: menus.ItemID(companyItem), Label: "About us", LinkableType: domain.LinkPage, LinkableID: &companyID}},
	}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	tree, err = svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if len(tree) != 1 || tree[0].ID != companyItem || tree[0].Label != "About us" || tree[0].Href != "https://example.com/pages/company-renamed" {
		t.Fatalf("unexpected tree after resave %+v", tree)
	}

	menu, err := svc.Get(ctx, "primary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if menu.Name != "primary" || len(menu.Settings.Tree) != 1 {
		t.Fatalf("expected name to default to the slug and the tree to be stored, got %q / %d", menu.Name, len(menu.Settings.Tree))
	}
}

func TestInvalidateTreesDropsEveryMenu(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db), menus.WithCache(testsupport.NewCacheService(t)))

	pageID := seedPage(t, db, "about")
	postID := seedPost(t, db, "news")
	for _, slug := range []string{"primary", "footer"} {
		if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: slug, Items: []menus.Node{
			{Label: "About", LinkableType: domain.LinkPage, LinkableID: &pageID},
			{Label: "News", LinkableType: domain.LinkPost, LinkableID: &postID},
		}}); err != nil {
			t.Fatalf("save %s: %v", slug, err)
		}
		if _, err := svc.PublicTree(ctx, slug); err != nil {
			t.Fatalf("warm %s: %v", slug, err)
		}
	}

	renamePage(t, db, pageID, "about-us")
	if err := svc.InvalidateTrees(ctx); err != nil {
		t.Fatalf("invalidate trees: %v", err)
	}
	for _, slug := range []string{"primary", "footer"} {
		tree, err := svc.PublicTree(ctx, slug)
		if err != nil {
			t.Fatalf("public tree %s: %v", slug, err)
		}
		if tree[0].Href != "/about-us" {
			t.Fatalf("%s: expected fresh page href, got %q", slug, tree[0].Href)
		}
	}

	if _, err := db.NewUpdate().
		Model((*content.Post)(nil)).
		Set("slug = ?", "updates").
		Where("id = ?", postID).
		Exec(ctx); err != nil {
		t.Fatalf("rename post: %v", err)
	}
	if err := svc.ContentChanged(ctx, content.Change{Kind: domain.KindMedia, ID: uuid.New()}); err != nil {
		t.Fatalf("media change: %v", err)
	}
	tree, err := svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if tree[1].Href != "/posts/news" {
		t.Fatalf("expected media changes to leave trees cached, got %q", tree[1].Href)
	}
	if err := svc.ContentChanged(ctx, content.Change{Kind: domain.KindPost, ID: postID}); err != nil {
		t.Fatalf("post change: %v", err)
	}
	tree, err = svc.PublicTree(ctx, "primary")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if tree[1].Href != "/posts/updates" {
		t.Fatalf("expected fresh post href, got %q", tree[1].Href)
	}
}

func TestPublicTreeEdgeCases(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db))

	if _, err := svc.PublicTree(ctx, "missing"); !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "  "}); !errors.Is(err, menus.ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}

	if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "empty"}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	tree, err := svc.PublicTree(ctx, "empty")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if tree == nil || len(tree) != 0 {
		t.Fatalf("expected an empty, non-nil tree")
	}

	pageID := seedPage(t, db, "pricing")
	if _, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "empty", Items: []menus.Node{
		{Label: "Pricing", LinkableType: domain.LinkPage, LinkableID: &pageID},
	}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	tree, err = svc.PublicTree(ctx, "empty")
	if err != nil {
		t.Fatalf("public tree: %v", err)
	}
	if len(tree) != 1 || tree[0].Href != "/pricing" {
		t.Fatalf("expected path fallback href, got %+v", tree)
	}
}

func TestSaveTreeRollsBackOnForeignItem(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t)
	svc := menus.NewService(db, menus.NewMenuRepository(db))

	footer, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "footer", Items: []menus.Node{{Label: "Legal"}}})
	if err != nil {
		t.Fatalf("save footer: %v", err)
	}
	primary, err := svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "primary", Items: []menus.Node{{Label: "Home"}}})
	if err != nil {
		t.Fatalf("save primary: %v", err)
	}

	_, err = svc.SaveTree(ctx, menus.SaveTreeRequest{Slug: "primary", Items: []menus.Node{
		{ID: menus.ItemID(footer.ItemIDs[0]), Label: "Legal"},
	}})
	if !errors.Is(err, menus.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	items, err := svc.Items(ctx, "primary")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].ID != primary.ItemIDs[0] || items[0].Label != "Home" {
		t.Fatalf("expected the failed save to roll back, got %+v", items)
	}
}

func TestURLKitResolverFallsBack(t *testing.T) {
	ctx := context.Background()

	resolver := menus.NewURLKitResolver(menus.URLKitResolverOptions{Manager: newRouteManager(), Group: "missing"})
	href, err := resolver.Href(ctx, domain.LinkPage, "company")
	if err == nil {
		t.Fatalf("expected unknown group to report an error")
	}
	if href != "/company" {
		t.Fatalf("expected fallback href, got %q", href)
	}

	resolver = menus.NewURLKitResolver(menus.URLKitResolverOptions{Manager: newRouteManager(), Group: "frontend"})
	if href, err := resolver.Href(ctx, domain.LinkPage, ""); err != nil || href != "" {
		t.Fatalf("expected empty slug to produce no href, got %q %v", href, err)
	}
	if href, err := resolver.Href(ctx, domain.LinkPage, "company"); err != nil || href != "https://example.com/pages/company" {
		t.Fatalf("expected page route, got %q %v", href, err)
	}

	if href, _ := (menus.PathResolver{}).Href(ctx, domain.LinkPost, "/launch/"); href != "/posts/launch" {
		t.Fatalf("unexpected path href %q", href)
	}
}
