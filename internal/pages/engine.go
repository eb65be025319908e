package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	cache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/sections"
	"github.com/goliatone/go-pagebuilder/internal/slugs"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// SectionWriter is the section side of a page write.
type SectionWriter interface {
	Materialize(ctx context.Context, tx bun.IDB, payload sections.Payload) (*sections.Section, error)
	ReplaceBlocks(ctx context.Context, tx bun.IDB, section *sections.Section, columns []sections.Column) error
}

// RenderCacheKeyPrefix namespaces cached published renders.
const RenderCacheKeyPrefix = "page_rendered:"

func RenderCacheKey(slug string) string {
	return RenderCacheKeyPrefix + slug
}

// maxParentDepth bounds the ancestor walk when checking for parent cycles.
const maxParentDepth = 64

type EngineOption func(*Engine)

func WithEngineClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

func WithEngineIDGenerator(generator func() uuid.UUID) EngineOption {
	return func(e *Engine) {
		if generator != nil {
			e.id = generator
		}
	}
}

func WithEngineLogger(logger interfaces.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineCache sets the render cache the engine invalidates after commit.
func WithEngineCache(service cache.CacheService) EngineOption {
	return func(e *Engine) {
		e.cache = service
	}
}

// CacheInvalidator is implemented by read services that cache anything
// derived from pages.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// InvalidatorFunc adapts a plain function to CacheInvalidator.
type InvalidatorFunc func(ctx context.Context) error

func (f InvalidatorFunc) InvalidateCache(ctx context.Context) error { return f(ctx) }

// WithEngineInvalidators registers read caches to drop after every commit.
func WithEngineInvalidators(invalidators ...CacheInvalidator) EngineOption {
	return func(e *Engine) {
		for _, inv := range invalidators {
			if inv != nil {
				e.invalidators = append(e.invalidators, inv)
			}
		}
	}
}

// Engine reconciles a submitted page tree with the stored page, its section
// pivots and their block pivots. Each call is a single transaction.
type Engine struct {
	db           *bun.DB
	sections     SectionWriter
	cache        cache.CacheService
	invalidators []CacheInvalidator
	now          func() time.Time
	id           func() uuid.UUID
	logger       interfaces.Logger
}

func NewEngine(db *bun.DB, writer SectionWriter, opts ...EngineOption) *Engine {
	e := &Engine{
		db:       db,
		sections: writer,
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create stores a new page and its composition.
func (e *Engine) Create(ctx context.Context, req SavePageRequest, author *uuid.UUID) (*Page, error) {
	status, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	now := e.now()
	page := &Page{ID: e.id(), AuthorID: author, CreatedAt: now}
	var stats writeStats
	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		candidate := strings.TrimSpace(req.Title)
		if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
			candidate = *req.Slug
		}
		slug, err := slugs.NewAllocator(tx).MakeUnique(ctx, pageSlugScope(page.ID), candidate, req.Title)
		if err != nil {
			return err
		}
		page.Slug = slug
		if err := e.applyScalars(ctx, tx, page, req, status, now); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(page).Exec(ctx); err != nil {
			return fmt.Errorf("insert page: %w", err)
		}
		stats, err = e.compose(ctx, tx, page, req.Sections, nil, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, page.Slug)
	e.logger.Info("pages.engine.saved",
		"page_id", page.ID, "slug", page.Slug, "created", true,
		"sections", stats.sections, "blocks", stats.blocks)
	return page, nil
}

// Update rewrites the page scalars and replaces its composition. The slug is
// regenerated only when req.Slug is present and differs from the stored one.
func (e *Engine) Update(ctx context.Context, pageID uuid.UUID, req SavePageRequest, opts UpdateOptions) (*Page, error) {
	status, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var (
		page    *Page
		oldSlug string
		stats   writeStats
	)
	err = e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := findPage(ctx, tx, pageID)
		if err != nil {
			return err
		}
		page = existing
		oldSlug = page.Slug

		if req.Slug != nil && strings.TrimSpace(*req.Slug) != page.Slug {
			slug, err := slugs.NewAllocator(tx).MakeUnique(ctx, pageSlugScope(page.ID), *req.Slug, req.Title)
			if err != nil {
				return err
			}
			page.Slug = slug
		}
		if err := e.applyScalars(ctx, tx, page, req, status, now); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model(page).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update page %s: %w", page.ID, err)
		}

		previous, err := attachedSections(ctx, tx, page.ID)
		if err != nil {
			return err
		}
		stats, err = e.compose(ctx, tx, page, req.Sections, previous, opts.PruneOrphans)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, oldSlug, page.Slug)
	e.logger.Info("pages.engine.saved",
		"page_id", page.ID, "slug", page.Slug, "created", false,
		"sections", stats.sections, "blocks", stats.blocks, "pruned", stats.pruned)
	return page, nil
}

// Delete soft-deletes the page and detaches its sections.
func (e *Engine) Delete(ctx context.Context, pageID uuid.UUID, opts DeleteOptions) error {
	now := e.now()
	var (
		slug   string
		pruned int64
	)
	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		page, err := findPage(ctx, tx, pageID)
		if err != nil {
			return err
		}
		slug = page.Slug

		previous, err := attachedSections(ctx, tx, page.ID)
		if err != nil {
			return err
		}
		if err := detachSections(ctx, tx, page.ID); err != nil {
			return err
		}
		page.DeletedAt = &now
		page.UpdatedAt = now
		if _, err := tx.NewUpdate().
			Model(page).
			Column("deleted_at", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page %s: %w", page.ID, err)
		}
		if opts.PruneOrphans {
			pruned, err = sections.PruneOrphans(ctx, tx, previous, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidate(ctx, slug)
	e.logger.Info("pages.engine.deleted", "page_id", pageID, "slug", slug, "pruned", pruned)
	return nil
}

type writeStats struct {
	sections int
	blocks   int
	pruned   int64
}

// compose replaces the page's section pivots with the submitted sections in
// array order, rebuilds each section's blocks, then prunes previously
// attached sections that ended up unreferenced.
func (e *Engine) compose(ctx context.Context, tx bun.Tx, page *Page, payloads []sections.Payload, previous []uuid.UUID, prune bool) (writeStats, error) {
	var stats writeStats
	if err := detachSections(ctx, tx, page.ID); err != nil {
		return stats, err
	}

	for i, payload := range payloads {
		section, err := e.sections.Materialize(ctx, tx, payload)
		if err != nil {
			return stats, err
		}
		pivot := &PageSection{PageID: page.ID, SortOrder: i + 1, SectionID: section.ID}
		if _, err := tx.NewInsert().Model(pivot).Exec(ctx); err != nil {
			return stats, fmt.Errorf("attach section %s to page %s: %w", section.ID, page.ID, err)
		}
		if err := e.sections.ReplaceBlocks(ctx, tx, section, payload.Layout.Columns); err != nil {
			return stats, err
		}
		stats.sections++
		for _, column := range payload.Layout.Columns {
			stats.blocks += len(column.Blocks)
		}
	}

	if prune && len(previous) > 0 {
		pruned, err := sections.PruneOrphans(ctx, tx, previous, e.now())
		if err != nil {
			return stats, err
		}
		stats.pruned = pruned
	}
	return stats, nil
}

func (e *Engine) applyScalars(ctx context.Context, tx bun.IDB, page *Page, req SavePageRequest, status domain.Status, now time.Time) error {
	if req.ParentID != nil {
		if err := checkParent(ctx, tx, page.ID, *req.ParentID); err != nil {
			return err
		}
	}
	page.Title = strings.TrimSpace(req.Title)
	page.Excerpt = strings.TrimSpace(req.Excerpt)
	page.Type = strings.TrimSpace(req.Type)
	if page.Type == "" {
		page.Type = DefaultType
	}
	page.PublishedAt = domain.PublishedAt(status, page.PublishedAt, now)
	page.Status = status
	page.IsPublished = status.IsPublished()
	page.ParentID = req.ParentID
	if req.Settings != nil {
		page.Settings = req.Settings
	}
	page.UpdatedAt = now
	return nil
}

func (e *Engine) invalidate(ctx context.Context, values ...string) {
	seen := make(map[string]struct{}, len(values))
	for _, slug := range values {
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		if err := e.InvalidateRender(ctx, slug); err != nil {
			e.logger.Warn("pages.engine.cache_invalidate_failed", "slug", slug, "error", err)
		}
	}
	for _, inv := range e.invalidators {
		if err := inv.InvalidateCache(ctx); err != nil {
			e.logger.Warn("pages.engine.cache_invalidate_failed", "error", err)
		}
	}
}

// InvalidateRender drops the cached published render of slug.
func (e *Engine) InvalidateRender(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" || e.cache == nil {
		return nil
	}
	return e.cache.Delete(ctx, RenderCacheKey(slug))
}

// ContentChanged drops the cached renders of every live page with a block
// that points at the changed post or media.
func (e *Engine) ContentChanged(ctx context.Context, change content.Change) error {
	if e.cache == nil {
		return nil
	}
	found, err := EmbeddingSlugs(ctx, e.db, change.Kind, change.ID)
	if err != nil {
		return err
	}
	for _, slug := range found {
		if err := e.InvalidateRender(ctx, slug); err != nil {
			return err
		}
	}
	if len(found) > 0 {
		e.logger.Debug("pages.engine.content_invalidated",
			"kind", string(change.Kind), "id", change.ID, "pages", len(found))
	}
	return nil
}

// EmbeddingSlugs lists the slugs of live pages whose sections hold a block
// of kind pointing at targetID.
func EmbeddingSlugs(ctx context.Context, db bun.IDB, kind domain.ContentKind, targetID uuid.UUID) ([]string, error) {
	var found []string
	err := db.NewSelect().
		Model((*Page)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.slug").
		Join("JOIN page_sections AS pgs ON pgs.page_id = ?TableAlias.id").
		Join("JOIN section_blocks AS sbk ON sbk.section_id = pgs.section_id").
		Join("JOIN blocks AS blk ON blk.id = sbk.block_id").
		Where("blk.kind = ?", kind).
		Where("blk.target_id = ?", targetID).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx, &found)
	if err != nil {
		return nil, fmt.Errorf("load pages embedding %s %s: %w", kind, targetID, err)
	}
	return found, nil
}

func validateRequest(req SavePageRequest) (domain.Status, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrTitleRequired
	}
	if req.Slug != nil && strings.TrimSpace(*req.Slug) == "" {
		return "", ErrSlugRequired
	}
	status := domain.ParseStatus(req.Status)
	if !status.Valid() {
		return "", ErrStatusInvalid
	}
	return status, nil
}

func pageSlugScope(id uuid.UUID) interfaces.SlugScope {
	return interfaces.SlugScope{Table: "pages", Column: "slug", ExcludeID: id.String()}
}

// checkParent requires parent to be a live page that is not page itself or
// one of its descendants.
func checkParent(ctx context.Context, db bun.IDB, pageID, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxParentDepth; depth++ {
		if current == pageID {
			return ErrParentInvalid
		}
		parent, err := findPage(ctx, db, current)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return ErrParentInvalid
}

func findPage(ctx context.Context, db bun.IDB, id uuid.UUID) (*Page, error) {
	page := new(Page)
	err := db.NewSelect().
		Model(page).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "page", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", id, err)
	}
	return page, nil
}

func attachedSections(ctx context.Context, db bun.IDB, pageID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := db.NewSelect().
		Model((*PageSection)(nil)).
		Column("section_id").
		Where("page_id = ?", pageID).
		Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("load sections of page %s: %w", pageID, err)
	}
	return ids, nil
}

func detachSections(ctx context.Context, db bun.IDB, pageID uuid.UUID) error {
	if _, err := db.NewDelete().
		Model((*PageSection)(nil)).
		Where("page_id = ?", pageID).
		Exec(ctx); err != nil {
		return fmt.Errorf("detach sections of page %s: %w", pageID, err)
	}
	return nil
}
