package menus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/identity"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/slugs"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// CacheKeyPrefix namespaces cached public menu trees.
const CacheKeyPrefix = "menus.shared:"

func CacheKey(slug string) string {
	return CacheKeyPrefix + slug
}

// Service saves menu trees and serves the public navigation.
type Service interface {
	SaveTree(ctx context.Context, req SaveTreeRequest) (*SaveTreeResult, error)
	Get(ctx context.Context, slug string) (*Menu, error)
	Items(ctx context.Context, slug string) ([]*MenuItem, error)
	PublicTree(ctx context.Context, slug string) ([]PublicNode, error)

	AddItem(ctx context.Context, menuSlug string, req ItemRequest) (*MenuItem, error)
	UpdateItem(ctx context.Context, menuSlug string, itemID uuid.UUID, req ItemRequest) (*MenuItem, error)
	DeleteItem(ctx context.Context, menuSlug string, itemID uuid.UUID) (int64, error)

	InvalidateCache(ctx context.Context, slug string) error
	InvalidateTrees(ctx context.Context) error
	ContentChanged(ctx context.Context, change content.Change) error
}

// SaveTreeRequest replaces the whole item tree of the menu named by Slug.
// The menu is created on first save.
type SaveTreeRequest struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Items []Node `json:"items"`
}

type SaveTreeResult struct {
	Menu    *Menu
	ItemIDs []uuid.UUID
	Pruned  int64
}

type ServiceOption func(*service)

func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache serves PublicTree through service under CacheKey(slug).
func WithCache(cacheService cache.CacheService) ServiceOption {
	return func(s *service) {
		s.cache = cacheService
	}
}

// WithRepositoryCache lets SaveTree drop go-repository-cache entries of the
// menu repository after commit.
func WithRepositoryCache(cacheService cache.CacheService) ServiceOption {
	return func(s *service) {
		s.repoCache = cacheService
	}
}

func WithHrefResolver(resolver HrefResolver) ServiceOption {
	return func(s *service) {
		if resolver != nil {
			s.hrefs = resolver
		}
	}
}

func WithSynchronizer(sync *TreeSynchronizer) ServiceOption {
	return func(s *service) {
		if sync != nil {
			s.sync = sync
		}
	}
}

type service struct {
	db        *bun.DB
	repo      repository.Repository[*Menu]
	sync      *TreeSynchronizer
	cache     cache.CacheService
	repoCache cache.CacheService
	hrefs     HrefResolver
	now       func() time.Time
	logger    interfaces.Logger
}

func NewService(db *bun.DB, repo repository.Repository[*Menu], opts ...ServiceOption) Service {
	s := &service{
		db:     db,
		repo:   repo,
		hrefs:  PathResolver{},
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sync == nil {
		s.sync = NewTreeSynchronizer(WithSyncClock(s.now), WithSyncLogger(s.logger))
	}
	return s
}

func (s *service) SaveTree(ctx context.Context, req SaveTreeRequest) (*SaveTreeResult, error) {
	slug := slugs.Normalize(req.Slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = slug
	}

	result := &SaveTreeResult{}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		menu, err := s.upsertMenu(ctx, tx, slug, name, req.Items)
		if err != nil {
			return err
		}
		kept, err := s.sync.Sync(ctx, tx, menu.ID, req.Items)
		if err != nil {
			return err
		}
		pruned, err := PruneItems(ctx, tx, menu.ID, kept)
		if err != nil {
			return err
		}
		result.Menu = menu
		result.ItemIDs = kept
		result.Pruned = pruned
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.InvalidateCache(ctx, slug); err != nil {
		s.logger.Warn("menus.cache.invalidate_failed", "slug", slug, "error", err)
	}
	if result.Pruned > 0 {
		s.logger.Info("menus.sync.pruned", "menu_id", result.Menu.ID, "items", result.Pruned)
	}
	s.logger.Info("menus.sync.saved", "menu_id", result.Menu.ID, "slug", slug, "items", len(result.ItemIDs))
	return result, nil
}

func (s *service) upsertMenu(ctx context.Context, tx bun.IDB, slug, name string, tree []Node) (*Menu, error) {
	now := s.now()
	menu := new(Menu)
	err := tx.NewSelect().
		Model(menu).
		Where("?TableAlias.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		menu = &Menu{
			ID:        identity.MenuUUID(slug),
			Name:      name,
			Slug:      slug,
			Settings:  MenuSettings{Tree: tree},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NewInsert().Model(menu).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert menu %q: %w", slug, err)
		}
		return menu, nil
	case err != nil:
		return nil, fmt.Errorf("load menu %q: %w", slug, err)
	}

	menu.Name = name
	menu.Settings = MenuSettings{Tree: tree}
	menu.UpdatedAt = now
	if _, err := tx.NewUpdate().
		Model(menu).
		Column("name", "settings", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("update menu %q: %w", slug, err)
	}
	return menu, nil
}

func (s *service) Get(ctx context.Context, slug string) (*Menu, error) {
	slug = slugs.Normalize(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	menu, err := s.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "menu", slug)
	}
	return menu, nil
}

func (s *service) Items(ctx context.Context, slug string) ([]*MenuItem, error) {
	menu, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return Items(ctx, s.db, menu.ID)
}

// PublicTree returns the visible items of a menu as a nested tree. Hidden
// items drop their whole subtree.
func (s *service) PublicTree(ctx context.Context, slug string) ([]PublicNode, error) {
	slug = slugs.Normalize(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	fetch := func(ctx context.Context) ([]PublicNode, error) {
		return s.buildPublicTree(ctx, slug)
	}
	if s.cache == nil {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, s.cache, CacheKey(slug), fetch)
}

func (s *service) buildPublicTree(ctx context.Context, slug string) ([]PublicNode, error) {
	items, err := s.Items(ctx, slug)
	if err != nil {
		return nil, err
	}
	targets, err := s.linkTargets(ctx, items)
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]*MenuItem, len(items))
	var roots []*MenuItem
	for _, item := range items {
		if item.ParentID == nil {
			roots = append(roots, item)
			continue
		}
		children[*item.ParentID] = append(children[*item.ParentID], item)
	}

	var build func(level []*MenuItem) []PublicNode
	build = func(level []*MenuItem) []PublicNode {
		out := make([]PublicNode, 0, len(level))
		for _, item := range level {
			if !item.IsVisible {
				continue
			}
			out = append(out, PublicNode{
				ID:       item.ID,
				Label:    item.Label,
				Href:     s.href(ctx, item, targets),
				Children: build(children[item.ID]),
			})
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	tree := build(roots)
	if tree == nil {
		tree = []PublicNode{}
	}
	return tree, nil
}

type linkKey struct {
	kind domain.LinkableType
	id   uuid.UUID
}

// linkTargets loads the slugs of the live pages and posts items link to.
func (s *service) linkTargets(ctx context.Context, items []*MenuItem) (map[linkKey]string, error) {
	var pageIDs, postIDs []uuid.UUID
	for _, item := range items {
		if item.LinkableID == nil {
			continue
		}
		switch item.LinkableType {
		case domain.LinkPage:
			pageIDs = append(pageIDs, *item.LinkableID)
		case domain.LinkPost:
			postIDs = append(postIDs, *item.LinkableID)
		}
	}

	out := make(map[linkKey]string, len(pageIDs)+len(postIDs))
	if len(pageIDs) > 0 {
		var rows []pages.Page
		if err := s.db.NewSelect().
			Model(&rows).
			Column("id", "slug").
			Where("?TableAlias.id IN (?)", bun.In(pageIDs)).
			Where("?TableAlias.deleted_at IS NULL").
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("load linked pages: %w", err)
		}
		for _, row := range rows {
			out[linkKey{domain.LinkPage, row.ID}] = row.Slug
		}
	}
	posts, err := content.PostsByID(ctx, s.db, postIDs)
	if err != nil {
		return nil, fmt.Errorf("load linked posts: %w", err)
	}
	for id, post := range posts {
		out[linkKey{domain.LinkPost, id}] = post.Slug
	}
	return out, nil
}

// href prefers the linked entity's route. Items whose target is gone keep
// their stored url.
func (s *service) href(ctx context.Context, item *MenuItem, targets map[linkKey]string) string {
	if item.LinkableID == nil || item.LinkableType == domain.LinkNone {
		return item.URL
	}
	slug, ok := targets[linkKey{item.LinkableType, *item.LinkableID}]
	if !ok {
		return item.URL
	}
	href, err := s.hrefs.Href(ctx, item.LinkableType, slug)
	if err != nil {
		s.logger.Warn("menus.href.resolve_failed", "item_id", item.ID, "kind", string(item.LinkableType), "error", err)
	}
	if href == "" {
		return item.URL
	}
	return href
}

// InvalidateCache drops the cached public tree of slug and any cached
// repository lookups of menus.
func (s *service) InvalidateCache(ctx context.Context, slug string) error {
	slug = slugs.Normalize(slug)
	if slug != "" && s.cache != nil {
		if err := s.cache.Delete(ctx, CacheKey(slug)); err != nil {
			return err
		}
	}
	if s.repoCache == nil {
		return nil
	}
	return s.repoCache.DeleteByPrefix(ctx, menuNamespace+cache.KeySeparator)
}

// InvalidateTrees drops every cached public tree. Hrefs are derived from
// page and post slugs, so any write to those can change any menu.
func (s *service) InvalidateTrees(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteByPrefix(ctx, CacheKeyPrefix)
}

// ContentChanged drops the public trees when a post changes. Media never
// backs a menu link.
func (s *service) ContentChanged(ctx context.Context, change content.Change) error {
	if change.Kind != domain.KindPost {
		return nil
	}
	return s.InvalidateTrees(ctx)
}
