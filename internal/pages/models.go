package pages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// DefaultType is stored when a payload omits the page type.
const DefaultType = "page"

type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Title       string         `bun:"title,notnull" json:"title"`
	Slug        string         `bun:"slug,notnull,unique" json:"slug"`
	Excerpt     string         `bun:"excerpt" json:"excerpt,omitempty"`
	Type        string         `bun:"type,notnull" json:"type"`
	Status      domain.Status  `bun:"status,notnull" json:"status"`
	IsPublished bool           `bun:"is_published,notnull" json:"is_published"`
	PublishedAt *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	ParentID    *uuid.UUID     `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	AuthorID    *uuid.UUID     `bun:"author_id,type:uuid" json:"author_id,omitempty"`
	Settings    map[string]any `bun:"settings,type:jsonb" json:"settings,omitempty"`
	DeletedAt   *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull" json:"updated_at"`
}

// PageSection attaches a section to a page at a 1-based position.
type PageSection struct {
	bun.BaseModel `bun:"table:page_sections,alias:ps"`

	PageID    uuid.UUID `bun:"page_id,pk,type:uuid" json:"page_id"`
	SortOrder int       `bun:"sort_order,pk" json:"sort_order"`
	SectionID uuid.UUID `bun:"section_id,notnull,type:uuid" json:"section_id"`
}
