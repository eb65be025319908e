package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	cache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/blocks"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/markdown"
	"github.com/goliatone/go-pagebuilder/internal/sections"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// UntitledContent labels post and media blocks whose target has no name.
const UntitledContent = "Untitled"

type TransformerOption func(*Transformer)

// WithRenderCache serves RenderBySlug through service. Entries expire with
// the service TTL or when the engine drops them after a write.
func WithRenderCache(service cache.CacheService) TransformerOption {
	return func(t *Transformer) {
		t.cache = service
	}
}

func WithTransformerLogger(logger interfaces.Logger) TransformerOption {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithHTMLRenderer overrides the renderer used for markdown inline blocks.
func WithHTMLRenderer(renderer interfaces.MarkdownRenderer) TransformerOption {
	return func(t *Transformer) {
		if renderer != nil {
			t.renderer = renderer
		}
	}
}

// Transformer builds read models from stored pages.
type Transformer struct {
	db       bun.IDB
	cache    cache.CacheService
	renderer interfaces.MarkdownRenderer
	logger   interfaces.Logger
}

func NewTransformer(db bun.IDB, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		db:       db,
		renderer: markdown.Default(),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToEditableDTO returns the page in the shape the editor submits.
func (t *Transformer) ToEditableDTO(ctx context.Context, pageID uuid.UUID) (*EditablePage, error) {
	page, err := findPage(ctx, t.db, pageID)
	if err != nil {
		return nil, err
	}
	composed, err := t.compose(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	dto := &EditablePage{
		ID:          page.ID,
		Title:       page.Title,
		Slug:        page.Slug,
		Type:        page.Type,
		Status:      page.Status,
		IsPublished: page.IsPublished,
		PublishedAt: page.PublishedAt,
		ParentID:    page.ParentID,
		Excerpt:     page.Excerpt,
		Sections:    make([]EditableSection, 0, len(composed.sections)),
	}
	for _, cs := range composed.sections {
		section := EditableSection{
			ID:     cs.section.ID,
			Title:  cs.section.Title,
			UIType: cs.uiType(),
			DBType: cs.section.DBType,
			Color:  cs.section.Color,
			Order:  cs.order,
			Layout: EditableLayout{
				ColumnsCount: cs.count,
				Columns:      make([]EditableColumn, cs.count),
			},
		}
		for idx, placed := range cs.columns {
			column := EditableColumn{Index: idx, Blocks: make([]EditableBlock, 0, len(placed))}
			for _, pb := range placed {
				column.Blocks = append(column.Blocks, composed.editable(pb))
			}
			section.Layout.Columns[idx] = column
		}
		dto.Sections = append(dto.Sections, section)
	}
	return dto, nil
}

// RenderBySlug returns the published page with resolved block payloads.
// Results are cached under RenderCacheKey(slug); drafts are not found and
// lookups that fail are never cached.
func (t *Transformer) RenderBySlug(ctx context.Context, slug string) (*RenderedPage, error) {
	fetch := func(ctx context.Context) (*RenderedPage, error) {
		return t.render(ctx, slug)
	}
	if t.cache == nil {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, t.cache, RenderCacheKey(slug), fetch)
}

func (t *Transformer) render(ctx context.Context, slug string) (*RenderedPage, error) {
	page, err := findPublishedBySlug(ctx, t.db, slug)
	if err != nil {
		return nil, err
	}
	composed, err := t.compose(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	rendered := &RenderedPage{
		ID:          page.ID,
		Title:       page.Title,
		Slug:        page.Slug,
		Type:        page.Type,
		Excerpt:     page.Excerpt,
		PublishedAt: page.PublishedAt,
		Sections:    make([]RenderedSection, 0, len(composed.sections)),
	}
	for _, cs := range composed.sections {
		section := RenderedSection{
			ID:           cs.section.ID,
			Title:        cs.section.Title,
			UIType:       cs.uiType(),
			DBType:       cs.section.DBType,
			Color:        cs.section.Color,
			Order:        cs.order,
			ColumnsCount: cs.count,
			Columns:      make([]RenderedColumn, cs.count),
		}
		for idx, placed := range cs.columns {
			column := RenderedColumn{Index: idx, Blocks: make([]RenderedBlock, 0, len(placed))}
			for _, pb := range placed {
				block, err := t.renderBlock(composed, pb)
				if err != nil {
					return nil, err
				}
				column.Blocks = append(column.Blocks, block)
			}
			section.Columns[idx] = column
		}
		rendered.Sections = append(rendered.Sections, section)
	}

	t.logger.Debug("pages.render.built", "page_id", page.ID, "slug", page.Slug, "sections", len(rendered.Sections))
	return rendered, nil
}

func (t *Transformer) renderBlock(composed *composition, pb placedBlock) (RenderedBlock, error) {
	out := RenderedBlock{EditableBlock: composed.editable(pb)}
	switch pb.block.Kind {
	case domain.KindPost:
		if post := composed.posts[pb.block.TargetID]; post != nil {
			out.HTML = post.ContentHTML
			out.Slug = post.Slug
			out.Excerpt = post.Excerpt
		}
	case domain.KindMedia:
		if media := composed.media[pb.block.TargetID]; media != nil {
			out.URL = media.URL
			out.MimeType = media.MimeType
		}
	case domain.KindHTML:
		if html := composed.html[pb.block.TargetID]; html != nil {
			out.HTML = html.Body
			if html.Format == content.FormatMarkdown {
				body, err := t.renderer.Render([]byte(html.Body))
				if err != nil {
					return out, fmt.Errorf("render block %s: %w", pb.block.ID, err)
				}
				out.HTML = string(body)
			}
		}
	}
	return out, nil
}

type placedBlock struct {
	pivot sections.SectionBlock
	block *blocks.Block
}

type composedSection struct {
	section *sections.Section
	order   int
	count   int
	columns [][]placedBlock
}

func (cs composedSection) uiType() string {
	if cs.section.Settings.UIType != "" {
		return cs.section.Settings.UIType
	}
	return sections.UIType(cs.section.DBType, cs.count)
}

type composition struct {
	sections []composedSection
	posts    map[uuid.UUID]*content.Post
	media    map[uuid.UUID]*content.Media
	html     map[uuid.UUID]*content.HTMLContent
}

func (c *composition) editable(pb placedBlock) EditableBlock {
	block := EditableBlock{
		ID:          pb.block.ID,
		ContentID:   pb.block.ID,
		ContentType: domain.ContentTypeBlock,
		Title:       pb.block.Settings.DisplayTitle(),
		Order:       pb.pivot.SortOrder,
	}
	switch pb.block.Kind {
	case domain.KindPost:
		block.ContentType = domain.ContentTypePost
		block.ContentID = pb.block.TargetID
		block.Title = UntitledContent
		if post := c.posts[pb.block.TargetID]; post != nil && post.Title != "" {
			block.Title = post.Title
		}
	case domain.KindMedia:
		block.ContentType = domain.ContentTypeMedia
		block.ContentID = pb.block.TargetID
		block.Title = UntitledContent
		if media := c.media[pb.block.TargetID]; media != nil && media.DisplayName() != "" {
			block.Title = media.DisplayName()
		}
	}
	return block
}

// compose loads the page's sections in pivot order with their blocks
// bucketed by column and sorted by pivot order, plus every block target.
func (t *Transformer) compose(ctx context.Context, pageID uuid.UUID) (*composition, error) {
	var pivots []PageSection
	if err := t.db.NewSelect().
		Model(&pivots).
		Where("?TableAlias.page_id = ?", pageID).
		OrderExpr("?TableAlias.sort_order ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load page sections: %w", err)
	}

	sectionIDs := make([]uuid.UUID, 0, len(pivots))
	for _, pivot := range pivots {
		sectionIDs = append(sectionIDs, pivot.SectionID)
	}
	sectionRows, err := loadSections(ctx, t.db, sectionIDs)
	if err != nil {
		return nil, err
	}
	blockPivots, err := sections.Pivots(ctx, t.db, sectionIDs)
	if err != nil {
		return nil, err
	}

	bySection := make(map[uuid.UUID][]sections.SectionBlock, len(sectionIDs))
	blockIDs := make([]uuid.UUID, 0, len(blockPivots))
	for _, pivot := range blockPivots {
		bySection[pivot.SectionID] = append(bySection[pivot.SectionID], pivot)
		blockIDs = append(blockIDs, pivot.BlockID)
	}
	wrappers, err := blocks.Load(ctx, t.db, blockIDs)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}

	targets := map[domain.ContentKind][]uuid.UUID{}
	for _, wrapper := range wrappers {
		targets[wrapper.Kind] = append(targets[wrapper.Kind], wrapper.TargetID)
	}
	out := &composition{}
	if out.posts, err = content.PostsByID(ctx, t.db, targets[domain.KindPost]); err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	if out.media, err = content.MediaByID(ctx, t.db, targets[domain.KindMedia]); err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	if out.html, err = content.HTMLContentsByID(ctx, t.db, targets[domain.KindHTML]); err != nil {
		return nil, fmt.Errorf("load html content: %w", err)
	}

	for _, pivot := range pivots {
		section := sectionRows[pivot.SectionID]
		if section == nil {
			continue
		}
		placements := bySection[section.ID]
		count := section.Settings.ColumnsCount(placements)
		cs := composedSection{
			section: section,
			order:   pivot.SortOrder,
			count:   count,
			columns: make([][]placedBlock, count),
		}
		for _, placement := range placements {
			wrapper := wrappers[placement.BlockID]
			if wrapper == nil {
				continue
			}
			col := placement.ColumnIndex
			if col < 0 || col >= count {
				col = 0
			}
			cs.columns[col] = append(cs.columns[col], placedBlock{pivot: placement, block: wrapper})
		}
		for _, column := range cs.columns {
			slices.SortStableFunc(column, func(a, b placedBlock) int {
				return a.pivot.SortOrder - b.pivot.SortOrder
			})
		}
		out.sections = append(out.sections, cs)
	}
	return out, nil
}

func loadSections(ctx context.Context, db bun.IDB, ids []uuid.UUID) (map[uuid.UUID]*sections.Section, error) {
	out := make(map[uuid.UUID]*sections.Section, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*sections.Section
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func findPublishedBySlug(ctx context.Context, db bun.IDB, slug string) (*Page, error) {
	page := new(Page)
	err := db.NewSelect().
		Model(page).
		Where("?TableAlias.slug = ?", slug).
		Where("?TableAlias.status = ?", domain.StatusPublished).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	if err != nil {
		return nil, fmt.Errorf("load page %q: %w", slug, err)
	}
	return page, nil
}
