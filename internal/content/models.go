package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// Post is an article that pages can embed as a block.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:po"`

	ID            uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Title         string         `bun:"title,notnull" json:"title"`
	Slug          string         `bun:"slug,notnull,unique" json:"slug"`
	Excerpt       string         `bun:"excerpt" json:"excerpt,omitempty"`
	Content       string         `bun:"content" json:"content,omitempty"`
	ContentHTML   string         `bun:"content_html" json:"content_html,omitempty"`
	CoverMediaID  *uuid.UUID     `bun:"cover_media_id,type:uuid" json:"cover_media_id,omitempty"`
	ImagePosition string         `bun:"image_position" json:"image_position,omitempty"`
	Status        domain.Status  `bun:"status,notnull" json:"status"`
	IsPublished   bool           `bun:"is_published,notnull" json:"is_published"`
	PublishedAt   *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	Meta          map[string]any `bun:"meta,type:jsonb" json:"meta,omitempty"`
	AuthorID      *uuid.UUID     `bun:"author_id,type:uuid" json:"author_id,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt     time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time      `bun:"updated_at,notnull" json:"updated_at"`

	Tags []*Tag `bun:"-" json:"tags,omitempty"`
}

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type PostTag struct {
	bun.BaseModel `bun:"table:post_tags,alias:pt"`

	PostID uuid.UUID `bun:"post_id,pk,type:uuid" json:"post_id"`
	TagID  uuid.UUID `bun:"tag_id,pk,type:uuid" json:"tag_id"`
}

// Media is an uploaded asset. URL is whatever the blob store reported.
type Media struct {
	bun.BaseModel `bun:"table:media,alias:me"`

	ID           uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Type         string         `bun:"type,notnull" json:"type"`
	Disk         string         `bun:"disk,notnull" json:"disk"`
	Filename     string         `bun:"filename,notnull" json:"filename"`
	OriginalName string         `bun:"original_name" json:"original_name,omitempty"`
	MimeType     string         `bun:"mime_type" json:"mime_type,omitempty"`
	Size         int64          `bun:"size,notnull" json:"size"`
	Path         string         `bun:"path,notnull,unique" json:"path"`
	URL          string         `bun:"url" json:"url"`
	Meta         map[string]any `bun:"meta,type:jsonb" json:"meta,omitempty"`
	IsPublic     bool           `bun:"is_public,notnull" json:"is_public"`
	DeletedAt    *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time      `bun:"updated_at,notnull" json:"updated_at"`
}

// DisplayName is the label editors see for the asset.
func (m *Media) DisplayName() string {
	switch {
	case m == nil:
		return ""
	case m.OriginalName != "":
		return m.OriginalName
	case m.Filename != "":
		return m.Filename
	}
	return ""
}

// HTML formats stored in HTMLContent.Format.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// HTMLContent is inline block content. Rows are never shared between blocks.
type HTMLContent struct {
	bun.BaseModel `bun:"table:html_contents,alias:hc"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Body      string    `bun:"body" json:"body"`
	Format    string    `bun:"format,notnull" json:"format"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}
