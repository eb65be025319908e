package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// Publish marks a live page published and stamps published_at with the
// current time.
func (e *Engine) Publish(ctx context.Context, pageID uuid.UUID) (*Page, error) {
	return e.setStatus(ctx, pageID, domain.StatusPublished)
}

// Unpublish puts a live page back to draft. RenderBySlug stops serving it.
func (e *Engine) Unpublish(ctx context.Context, pageID uuid.UUID) (*Page, error) {
	return e.setStatus(ctx, pageID, domain.StatusDraft)
}

func (e *Engine) setStatus(ctx context.Context, pageID uuid.UUID, status domain.Status) (*Page, error) {
	page, err := findPage(ctx, e.db, pageID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	page.Status = status
	page.IsPublished = status.IsPublished()
	page.PublishedAt = nil
	if page.IsPublished {
		page.PublishedAt = &now
	}
	page.UpdatedAt = now
	if _, err := e.db.NewUpdate().
		Model(page).
		Column("status", "is_published", "published_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("set status of page %s: %w", pageID, err)
	}

	e.invalidate(ctx, page.Slug)
	e.logger.Info("pages.engine.status_changed", "page_id", page.ID, "slug", page.Slug, "status", string(status))
	return page, nil
}

// Archive soft-deletes a live page. Unlike Delete it keeps the section
// pivots, so Restore brings the page back with its composition.
func (e *Engine) Archive(ctx context.Context, pageID uuid.UUID) error {
	page, err := findPage(ctx, e.db, pageID)
	if err != nil {
		return err
	}
	now := e.now()
	page.DeletedAt = &now
	page.UpdatedAt = now
	if _, err := e.db.NewUpdate().
		Model(page).
		Column("deleted_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}

	e.invalidate(ctx, page.Slug)
	e.logger.Info("pages.engine.archived", "page_id", page.ID, "slug", page.Slug)
	return nil
}

// Restore brings a page back, archived or not, as an unpublished draft.
func (e *Engine) Restore(ctx context.Context, pageID uuid.UUID) (*Page, error) {
	page, err := findPageWithArchived(ctx, e.db, pageID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	page.DeletedAt = nil
	page.Status = domain.StatusDraft
	page.IsPublished = false
	page.PublishedAt = nil
	page.UpdatedAt = now
	if _, err := e.db.NewUpdate().
		Model(page).
		Column("deleted_at", "status", "is_published", "published_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("restore page %s: %w", pageID, err)
	}

	e.invalidate(ctx, page.Slug)
	e.logger.Info("pages.engine.restored", "page_id", page.ID, "slug", page.Slug)
	return page, nil
}

func findPageWithArchived(ctx context.Context, db bun.IDB, id uuid.UUID) (*Page, error) {
	page := new(Page)
	err := db.NewSelect().
		Model(page).
		Where("?TableAlias.id = ?", id).
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
