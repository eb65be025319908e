package content

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/identity"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/markdown"
	"github.com/goliatone/go-pagebuilder/internal/slugs"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Service manages the content items blocks point at.
type Service interface {
	FindPostByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindPostBySlug(ctx context.Context, slug string) (*Post, error)
	FindMediaByID(ctx context.Context, id uuid.UUID) (*Media, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]*Post, int, error)
	ListMedia(ctx context.Context, opts ListOptions) ([]*Media, int, error)
	PostTags(ctx context.Context, postID uuid.UUID) ([]*Tag, error)

	SavePost(ctx context.Context, req SavePostRequest) (*Post, error)
	ImportMarkdownPost(ctx context.Context, req ImportMarkdownRequest) (*Post, error)
	IngestMedia(ctx context.Context, upload MediaUpload) (*Media, error)

	PublishPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UnpublishPost(ctx context.Context, id uuid.UUID) (*Post, error)
	ArchivePost(ctx context.Context, id uuid.UUID) error
	RestorePost(ctx context.Context, id uuid.UUID) (*Post, error)

	InvalidateCache(ctx context.Context) error
}

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

// ListOptions paginates the editor pickers. Status and Search only apply to posts.
type ListOptions struct {
	Limit  int
	Offset int
	Status string
	Search string
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	o.Status = strings.TrimSpace(o.Status)
	o.Search = strings.TrimSpace(o.Search)
	return o
}

// SavePostRequest creates a post when ID is nil and updates it otherwise.
// Content is markdown source.
type SavePostRequest struct {
	ID            *uuid.UUID
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	CoverMediaID  *uuid.UUID
	ImagePosition string
	Status        string
	Tags          []string
	Meta          map[string]any
	AuthorID      *uuid.UUID
}

// ImportMarkdownRequest carries a markdown document with a front matter block.
type ImportMarkdownRequest struct {
	Source   []byte
	AuthorID *uuid.UUID
}

// MediaUpload is a raw asset handed to IngestMedia.
type MediaUpload struct {
	Filename string
	MimeType string
	Data     []byte
	IsPublic bool
	Meta     map[string]any
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
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

// WithBlobStore enables IngestMedia. disk is recorded on every media row.
func WithBlobStore(store interfaces.BlobStore, disk string) ServiceOption {
	return func(s *service) {
		s.blobs = store
		if disk = strings.TrimSpace(disk); disk != "" {
			s.disk = disk
		}
	}
}

// WithMarkdownRenderer overrides the goldmark renderer used for post bodies.
func WithMarkdownRenderer(renderer interfaces.MarkdownRenderer) ServiceOption {
	return func(s *service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

type service struct {
	db        *bun.DB
	repos     Repositories
	slugs     *slugs.Allocator
	renderer  interfaces.MarkdownRenderer
	blobs     interfaces.BlobStore
	disk      string
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
	listeners []ChangeListener
}

// NewService wires the content service over db. Reads go through repos;
// writes run in their own transaction.
func NewService(db *bun.DB, repos Repositories, opts ...ServiceOption) Service {
	s := &service{
		db:       db,
		repos:    repos,
		slugs:    slugs.NewAllocator(db),
		renderer: markdown.Default(),
		disk:     "memory",
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) FindPostByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record, err := s.repos.Posts.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return record, nil
}

func (s *service) FindPostBySlug(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	record, err := s.repos.Posts.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "post", slug)
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	return record, nil
}

func (s *service) FindMediaByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	record, err := s.repos.Media.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "media", id.String())
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "media", Key: id.String()}
	}
	return record, nil
}

func (s *service) ListPosts(ctx context.Context, opts ListOptions) ([]*Post, int, error) {
	opts = opts.normalized()
	records, total, err := s.repos.Posts.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.deleted_at IS NULL")
			if opts.Status != "" {
				q = q.Where("?TableAlias.status = ?", domain.ParseStatus(opts.Status))
			}
			if opts.Search != "" {
				q = q.Where("LOWER(?TableAlias.title) LIKE ?", "%"+strings.ToLower(opts.Search)+"%")
			}
			return q.OrderExpr("?TableAlias.title ASC")
		}),
		repository.SelectPaginate(opts.Limit, opts.Offset),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return records, total, nil
}

func (s *service) ListMedia(ctx context.Context, opts ListOptions) ([]*Media, int, error) {
	opts = opts.normalized()
	records, total, err := s.repos.Media.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.deleted_at IS NULL")
			if opts.Search != "" {
				q = q.Where("LOWER(?TableAlias.original_name) LIKE ?", "%"+strings.ToLower(opts.Search)+"%")
			}
			return q.OrderExpr("?TableAlias.created_at DESC")
		}),
		repository.SelectPaginate(opts.Limit, opts.Offset),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	return records, total, nil
}

func (s *service) PostTags(ctx context.Context, postID uuid.UUID) ([]*Tag, error) {
	return loadPostTags(ctx, s.db, postID)
}

func loadPostTags(ctx context.Context, db bun.IDB, postID uuid.UUID) ([]*Tag, error) {
	var tags []*Tag
	err := db.NewSelect().
		Model(&tags).
		Join("JOIN post_tags AS pt ON pt.tag_id = t.id").
		Where("pt.post_id = ?", postID).
		OrderExpr("t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tags for post %s: %w", postID, err)
	}
	return tags, nil
}

func (s *service) SavePost(ctx context.Context, req SavePostRequest) (*Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	status := domain.ParseStatus(req.Status)
	if !status.Valid() {
		return nil, ErrStatusInvalid
	}

	html, err := s.renderer.Render([]byte(req.Content))
	if err != nil {
		return nil, fmt.Errorf("render post content: %w", err)
	}

	var (
		saved        *Post
		previousSlug string
	)
	created := false
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := s.now()
		post := &Post{ID: s.id(), CreatedAt: now}
		if req.ID != nil {
			existing, err := FindPost(ctx, tx, *req.ID)
			if err != nil {
				return err
			}
			post = existing
			previousSlug = existing.Slug
		} else {
			created = true
		}

		candidate := strings.TrimSpace(req.Slug)
		if created || (candidate != "" && candidate != post.Slug) {
			if candidate == "" {
				candidate = title
			}
			slug, err := s.slugs.WithDB(tx).MakeUnique(ctx, interfaces.SlugScope{
				Table:     "posts",
				Column:    "slug",
				ExcludeID: post.ID.String(),
			}, candidate, title)
			if err != nil {
				return err
			}
			post.Slug = slug
		}

		if req.CoverMediaID != nil {
			if _, err := FindMedia(ctx, tx, *req.CoverMediaID); err != nil {
				return err
			}
		}

		post.Title = title
		post.Excerpt = strings.TrimSpace(req.Excerpt)
		post.Content = req.Content
		post.ContentHTML = string(html)
		post.CoverMediaID = req.CoverMediaID
		post.ImagePosition = strings.TrimSpace(req.ImagePosition)
		post.PublishedAt = domain.PublishedAt(status, post.PublishedAt, now)
		post.Status = status
		post.IsPublished = status.IsPublished()
		post.Meta = req.Meta
		if req.AuthorID != nil {
			post.AuthorID = req.AuthorID
		}
		post.UpdatedAt = now

		if created {
			if _, err := tx.NewInsert().Model(post).Exec(ctx); err != nil {
				return fmt.Errorf("insert post: %w", err)
			}
		} else {
			if _, err := tx.NewUpdate().Model(post).WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update post %s: %w", post.ID, err)
			}
		}

		tags, err := s.syncTags(ctx, tx, post.ID, req.Tags, now)
		if err != nil {
			return err
		}
		post.Tags = tags
		saved = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, Change{Kind: domain.KindPost, ID: saved.ID, Slug: saved.Slug, PreviousSlug: previousSlug})
	s.logger.Info("content.post.saved", "post_id", saved.ID, "slug", saved.Slug, "created", created, "tags", len(saved.Tags))
	return saved, nil
}

// syncTags finds or creates a tag per distinct name and replaces the post's
// tag links with them. Names match case-insensitively.
func (s *service) syncTags(ctx context.Context, tx bun.Tx, postID uuid.UUID, names []string, now time.Time) ([]*Tag, error) {
	if _, err := tx.NewDelete().
		Model((*PostTag)(nil)).
		Where("post_id = ?", postID).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("clear post tags: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	tags := make([]*Tag, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		tag, err := s.findOrCreateTag(ctx, tx, name, now)
		if err != nil {
			return nil, err
		}
		link := &PostTag{PostID: postID, TagID: tag.ID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *service) findOrCreateTag(ctx context.Context, tx bun.Tx, name string, now time.Time) (*Tag, error) {
	tag, err := selectTag(ctx, tx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	slug, err := s.slugs.WithDB(tx).MakeUnique(ctx, interfaces.SlugScope{Table: "tags", Column: "slug"}, name, "tag")
	if err != nil {
		return nil, err
	}
	tag = &Tag{ID: identity.TagUUID(name), Name: name, Slug: slug, CreatedAt: now}
	if _, err := tx.NewInsert().
		Model(tag).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert tag %q: %w", name, err)
	}
	return selectTag(ctx, tx, name)
}

func selectTag(ctx context.Context, db bun.IDB, name string) (*Tag, error) {
	tag := new(Tag)
	err := db.NewSelect().
		Model(tag).
		Where("LOWER(?TableAlias.name) = ?", strings.ToLower(name)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "tag", name)
	}
	return tag, nil
}

// ImportMarkdownPost upserts a post by slug from a front matter document.
// Tags, status and excerpt come from the metadata; the body is the content.
func (s *service) ImportMarkdownPost(ctx context.Context, req ImportMarkdownRequest) (*Post, error) {
	meta, body, err := markdown.ParseFrontMatter(req.Source)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	save := SavePostRequest{
		Title:    title,
		Slug:     strings.TrimSpace(meta.Slug),
		Excerpt:  meta.EffectiveExcerpt(),
		Content:  strings.TrimSpace(string(body)),
		Status:   meta.EffectiveStatus(),
		Tags:     meta.Tags,
		Meta:     meta.Extra,
		AuthorID: req.AuthorID,
	}

	lookup := slugs.Normalize(save.Slug)
	if lookup == "" {
		lookup = slugs.Normalize(title)
	}
	if lookup != "" {
		existing, err := FindPostBySlug(ctx, s.db, lookup)
		switch {
		case err == nil:
			save.ID = &existing.ID
			save.Slug = existing.Slug
			if save.CoverMediaID == nil {
				save.CoverMediaID = existing.CoverMediaID
			}
		case errors.Is(err, ErrNotFound):
		default:
			return nil, err
		}
	}

	post, err := s.SavePost(ctx, save)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("content.post.imported", "post_id", post.ID, "slug", post.Slug, "updated", save.ID != nil)
	return post, nil
}

// FindPostBySlug reads a live post by slug through db.
func FindPostBySlug(ctx context.Context, db bun.IDB, slug string) (*Post, error) {
	post := new(Post)
	err := db.NewSelect().
		Model(post).
		Where("?TableAlias.slug = ?", slug).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "post", slug)
	}
	return post, nil
}

// IngestMedia stores upload.Data in the blob store under
// media/<yyyy>/<mm>/<id>-<name> and records the asset.
func (s *service) IngestMedia(ctx context.Context, upload MediaUpload) (*Media, error) {
	if s.blobs == nil {
		return nil, ErrBlobStoreUnset
	}
	if len(upload.Data) == 0 {
		return nil, ErrUploadEmpty
	}
	original := strings.TrimSpace(upload.Filename)
	if original == "" {
		return nil, ErrFilenameNeeded
	}

	now := s.now()
	id := s.id()
	filename := storedFilename(original)
	key := fmt.Sprintf("media/%04d/%02d/%s-%s", now.Year(), int(now.Month()), id, filename)

	mimeType := strings.TrimSpace(upload.MimeType)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(filename))
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(upload.Data)
	}

	url, err := s.blobs.Put(ctx, key, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("store media %q: %w", original, err)
	}

	record := &Media{
		ID:           id,
		Type:         mediaType(mimeType),
		Disk:         s.disk,
		Filename:     filename,
		OriginalName: original,
		MimeType:     mimeType,
		Size:         int64(len(upload.Data)),
		Path:         key,
		URL:          url,
		Meta:         upload.Meta,
		IsPublic:     upload.IsPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.repos.Media.Create(ctx, record)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("content.media.cleanup_failed", "path", key, "error", delErr)
		}
		return nil, fmt.Errorf("record media %q: %w", original, err)
	}
	s.changed(ctx, Change{Kind: domain.KindMedia, ID: created.ID})
	s.logger.Info("content.media.ingested", "media_id", created.ID, "path", key, "size", created.Size)
	return created, nil
}

func (s *service) InvalidateCache(ctx context.Context) error {
	return s.repos.InvalidateCache(ctx)
}

// storedFilename slugifies the base name and keeps a lowercased extension.
func storedFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	base := slugs.Normalize(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		base = "file"
	}
	return base + ext
}

func mediaType(mimeType string) string {
	major, _, _ := strings.Cut(strings.ToLower(mimeType), "/")
	switch major {
	case "image", "video", "audio":
		return major
	}
	return "document"
}
