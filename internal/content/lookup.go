package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// The functions below read through any bun.IDB so the composition engine can
// call them with its open transaction.

// FindPost returns the live post with id or a *NotFoundError.
func FindPost(ctx context.Context, db bun.IDB, id uuid.UUID) (*Post, error) {
	post := new(Post)
	err := db.NewSelect().
		Model(post).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	return post, nil
}

// FindMedia returns the live media row with id or a *NotFoundError.
func FindMedia(ctx context.Context, db bun.IDB, id uuid.UUID) (*Media, error) {
	media := new(Media)
	err := db.NewSelect().
		Model(media).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "media", id.String())
	}
	return media, nil
}

// PostsByID loads live posts keyed by id. Missing ids are simply absent.
func PostsByID(ctx context.Context, db bun.IDB, ids []uuid.UUID) (map[uuid.UUID]*Post, error) {
	out := make(map[uuid.UUID]*Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*Post
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// MediaByID loads live media keyed by id.
func MediaByID(ctx context.Context, db bun.IDB, ids []uuid.UUID) (map[uuid.UUID]*Media, error) {
	out := make(map[uuid.UUID]*Media, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*Media
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// HTMLContentsByID loads inline content rows keyed by id.
func HTMLContentsByID(ctx context.Context, db bun.IDB, ids []uuid.UUID) (map[uuid.UUID]*HTMLContent, error) {
	out := make(map[uuid.UUID]*HTMLContent, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*HTMLContent
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// CreateHTMLContent inserts a new inline content row. Format defaults to html.
func CreateHTMLContent(ctx context.Context, db bun.IDB, id uuid.UUID, body, format string, now time.Time) (*HTMLContent, error) {
	if format != FormatMarkdown {
		format = FormatHTML
	}
	row := &HTMLContent{ID: id, Body: body, Format: format, CreatedAt: now, UpdatedAt: now}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, err
	}
	return row, nil
}
