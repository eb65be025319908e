package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// PublishPost marks a live post published and stamps published_at with the
// current time.
func (s *service) PublishPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.setPostStatus(ctx, id, domain.StatusPublished)
}

// UnpublishPost puts a live post back to draft and clears published_at.
func (s *service) UnpublishPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.setPostStatus(ctx, id, domain.StatusDraft)
}

func (s *service) setPostStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*Post, error) {
	post, err := FindPost(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	post.Status = status
	post.IsPublished = status.IsPublished()
	post.PublishedAt = nil
	if post.IsPublished {
		post.PublishedAt = &now
	}
	post.UpdatedAt = now
	if _, err := s.db.NewUpdate().
		Model(post).
		Column("status", "is_published", "published_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("set status of post %s: %w", id, err)
	}

	s.changed(ctx, Change{Kind: domain.KindPost, ID: post.ID, Slug: post.Slug})
	s.logger.Info("content.post.status_changed", "post_id", post.ID, "status", string(status))
	return post, nil
}

// ArchivePost soft-deletes a live post. Blocks that point at it render as
// missing content until the post is restored.
func (s *service) ArchivePost(ctx context.Context, id uuid.UUID) error {
	post, err := FindPost(ctx, s.db, id)
	if err != nil {
		return err
	}
	now := s.now()
	post.DeletedAt = &now
	post.UpdatedAt = now
	if _, err := s.db.NewUpdate().
		Model(post).
		Column("deleted_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("archive post %s: %w", id, err)
	}

	s.changed(ctx, Change{Kind: domain.KindPost, ID: post.ID, Slug: post.Slug})
	s.logger.Info("content.post.archived", "post_id", post.ID, "slug", post.Slug)
	return nil
}

// RestorePost brings a post back, archived or not, as an unpublished draft.
func (s *service) RestorePost(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := findPostWithArchived(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	post.DeletedAt = nil
	post.Status = domain.StatusDraft
	post.IsPublished = false
	post.PublishedAt = nil
	post.UpdatedAt = now
	if _, err := s.db.NewUpdate().
		Model(post).
		Column("deleted_at", "status", "is_published", "published_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("restore post %s: %w", id, err)
	}

	s.changed(ctx, Change{Kind: domain.KindPost, ID: post.ID, Slug: post.Slug})
	s.logger.Info("content.post.restored", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

func findPostWithArchived(ctx context.Context, db bun.IDB, id uuid.UUID) (*Post, error) {
	post := new(Post)
	err := db.NewSelect().
		Model(post).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	return post, nil
}
