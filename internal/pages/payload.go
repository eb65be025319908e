package pages

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/sections"
)

// SavePageRequest is the editor's page tree. A nil Slug keeps the current
// slug on update and derives one from the title on create.
type SavePageRequest struct {
	Title    string             `json:"title"`
	Slug     *string            `json:"slug,omitempty"`
	Type     string             `json:"type,omitempty"`
	Status   string             `json:"status,omitempty"`
	ParentID *uuid.UUID         `json:"parent_id,omitempty"`
	Excerpt  string             `json:"excerpt,omitempty"`
	Settings map[string]any     `json:"settings,omitempty"`
	Sections []sections.Payload `json:"sections"`
}

type UpdateOptions struct {
	PruneOrphans bool
}

type DeleteOptions struct {
	PruneOrphans bool
}

// EditablePage mirrors SavePageRequest so the editor can submit it back.
type EditablePage struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Type        string            `json:"type"`
	Status      domain.Status     `json:"status"`
	IsPublished bool              `json:"is_published"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	ParentID    *uuid.UUID        `json:"parent_id,omitempty"`
	Excerpt     string            `json:"excerpt,omitempty"`
	Sections    []EditableSection `json:"sections"`
}

type EditableSection struct {
	ID     uuid.UUID         `json:"id"`
	Title  string            `json:"title"`
	UIType string            `json:"ui_type"`
	DBType domain.LayoutType `json:"db_type"`
	Color  string            `json:"color"`
	Order  int               `json:"order"`
	Layout EditableLayout    `json:"layout"`
}

type EditableLayout struct {
	ColumnsCount int              `json:"columns_count"`
	Columns      []EditableColumn `json:"columns"`
}

type EditableColumn struct {
	Index  int             `json:"index"`
	Blocks []EditableBlock `json:"blocks"`
}

// EditableBlock carries the content id for post and media blocks and the
// wrapper id otherwise, matching what the write payload expects.
type EditableBlock struct {
	ID          uuid.UUID `json:"id"`
	ContentID   uuid.UUID `json:"contentId"`
	ContentType string    `json:"contentType"`
	Title       string    `json:"title"`
	Order       int       `json:"order"`
}

// RenderedPage is the published read model served by RenderBySlug.
type RenderedPage struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Type        string            `json:"type"`
	Excerpt     string            `json:"excerpt,omitempty"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	Sections    []RenderedSection `json:"sections"`
}

type RenderedSection struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	UIType       string            `json:"ui_type"`
	DBType       domain.LayoutType `json:"db_type"`
	Color        string            `json:"color"`
	Order        int               `json:"order"`
	ColumnsCount int               `json:"columns_count"`
	Columns      []RenderedColumn  `json:"columns"`
}

type RenderedColumn struct {
	Index  int             `json:"index"`
	Blocks []RenderedBlock `json:"blocks"`
}

// RenderedBlock adds the resolved payload to the editable block: rendered
// HTML for posts and inline content, the asset URL for media.
type RenderedBlock struct {
	EditableBlock
	HTML     string `json:"html,omitempty"`
	URL      string `json:"url,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// SaveRequest converts the editable view back into a write payload. Saving
// it unchanged leaves the stored page as it was.
func (p EditablePage) SaveRequest() SavePageRequest {
	slug := p.Slug
	req := SavePageRequest{
		Title:    p.Title,
		Slug:     &slug,
		Type:     p.Type,
		Status:   string(p.Status),
		ParentID: p.ParentID,
		Excerpt:  p.Excerpt,
		Sections: make([]sections.Payload, 0, len(p.Sections)),
	}
	for _, es := range p.Sections {
		id := es.ID
		payload := sections.Payload{
			ID:     &id,
			Title:  es.Title,
			UIType: es.UIType,
			DBType: string(es.DBType),
			Color:  es.Color,
			Layout: sections.Layout{
				ColumnsCount: es.Layout.ColumnsCount,
				Columns:      make([]sections.Column, 0, len(es.Layout.Columns)),
			},
		}
		for _, ec := range es.Layout.Columns {
			column := sections.Column{Index: ec.Index, Blocks: make([]sections.BlockPayload, 0, len(ec.Blocks))}
			for _, eb := range ec.Blocks {
				blockID, contentID := eb.ID, eb.ContentID
				column.Blocks = append(column.Blocks, sections.BlockPayload{
					ID:          &blockID,
					ContentID:   &contentID,
					ContentType: eb.ContentType,
					Title:       eb.Title,
					Order:       eb.Order,
				})
			}
			payload.Layout.Columns = append(payload.Layout.Columns, column)
		}
		req.Sections = append(req.Sections, payload)
	}
	return req
}
