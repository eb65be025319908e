package sections

import (
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/blocks"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// Payload is one section of a submitted page tree. A section carrying ID is
// updated in place; one without is created. DBType is what the editable view
// reports and is read as a hint when DBTypeHint is empty, so a view can be
// submitted back unchanged.
type Payload struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Title      string     `json:"title"`
	UIType     string     `json:"ui_type,omitempty"`
	DBTypeHint string     `json:"db_type_hint,omitempty"`
	DBType     string     `json:"db_type,omitempty"`
	Color      string     `json:"color,omitempty"`
	Slug       *string    `json:"slug,omitempty"`
	Layout     Layout     `json:"layout"`
}

// LayoutHint is DBTypeHint, falling back to DBType.
func (p Payload) LayoutHint() string {
	if strings.TrimSpace(p.DBTypeHint) != "" {
		return p.DBTypeHint
	}
	return p.DBType
}

type Layout struct {
	ColumnsCount int      `json:"columns_count,omitempty"`
	Columns      []Column `json:"columns"`
}

// EffectiveColumns is the submitted count, otherwise one past the highest
// submitted column index.
func (l Layout) EffectiveColumns() int {
	if l.ColumnsCount > 0 {
		return l.ColumnsCount
	}
	highest := 0
	for _, column := range l.Columns {
		highest = max(highest, column.Index)
	}
	return highest + 1
}

type Column struct {
	Index  int            `json:"index"`
	Blocks []BlockPayload `json:"blocks"`
}

// BlockPayload is a block as editors send it. ContentType selects how
// ContentID is read: post and media name the content row, block names an
// existing wrapper, html creates inline content from HTML.
type BlockPayload struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	ContentID   *uuid.UUID `json:"contentId,omitempty"`
	ContentType string     `json:"contentType"`
	Title       string     `json:"title,omitempty"`
	Order       int        `json:"order,omitempty"`
	HTML        string     `json:"html,omitempty"`
	Format      string     `json:"format,omitempty"`
}

// Ref converts the payload to a resolver reference.
func (b BlockPayload) Ref() blocks.Ref {
	switch strings.ToLower(strings.TrimSpace(b.ContentType)) {
	case domain.ContentTypePost:
		return blocks.Target(domain.KindPost, derefID(b.ContentID))
	case domain.ContentTypeMedia:
		return blocks.Target(domain.KindMedia, derefID(b.ContentID))
	case domain.ContentTypeBlock:
		switch {
		case b.ContentID != nil:
			return blocks.Reuse(*b.ContentID, b.Title)
		case b.ID != nil:
			return blocks.Reuse(*b.ID, b.Title)
		}
	case domain.ContentTypeHTML:
		format := b.Format
		if format == "" {
			format = content.FormatHTML
		}
		return blocks.HTML(b.HTML, format, b.Title)
	}
	return blocks.Ref{Kind: domain.ContentKind(b.ContentType), Title: b.Title}
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
