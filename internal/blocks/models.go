package blocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// FallbackTitle labels wrappers that carry no title of their own.
const FallbackTitle = "Untitled block"

// Settings is the typed JSON bag stored on a wrapper.
type Settings struct {
	Title string `json:"title,omitempty"`
	// Fallback marks wrappers created for an unknown or empty content type.
	Fallback bool           `json:"fallback,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// DisplayTitle is the settings title or FallbackTitle.
func (s Settings) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return FallbackTitle
}

// Block is a thin wrapper around one content item. (kind, target_id) is
// unique so a post or media row has at most one canonical wrapper.
type Block struct {
	bun.BaseModel `bun:"table:blocks,alias:b"`

	ID           uuid.UUID          `bun:",pk,type:uuid" json:"id"`
	Kind         domain.ContentKind `bun:"kind,notnull,unique:blocks_kind_target_idx" json:"kind"`
	TargetID     uuid.UUID          `bun:"target_id,notnull,type:uuid,unique:blocks_kind_target_idx" json:"target_id"`
	TemplateHint string             `bun:"template_hint" json:"template_hint,omitempty"`
	Settings     Settings           `bun:"settings,type:jsonb" json:"settings"`
	DeletedAt    *time.Time         `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt    time.Time          `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time          `bun:"updated_at,notnull" json:"updated_at"`
}

// Inline is html block content submitted with the page.
type Inline struct {
	Body   string
	Format string
}

// Ref tells the resolver which wrapper a payload block wants.
//
// A BlockID reuses that wrapper. Kind post or media with a TargetID resolves
// the canonical wrapper for the item. Kind html with Inline creates fresh
// content. Anything else becomes a fallback wrapper.
type Ref struct {
	BlockID  *uuid.UUID
	Kind     domain.ContentKind
	TargetID uuid.UUID
	Inline   *Inline
	Title    string
}

// Reuse builds a Ref that points at an existing wrapper.
func Reuse(id uuid.UUID, title string) Ref {
	return Ref{BlockID: &id, Title: title}
}

// Target builds a Ref for the canonical wrapper of a content item.
func Target(kind domain.ContentKind, id uuid.UUID) Ref {
	return Ref{Kind: kind, TargetID: id}
}

// HTML builds a Ref that creates inline content.
func HTML(body, format, title string) Ref {
	return Ref{Kind: domain.KindHTML, Inline: &Inline{Body: body, Format: format}, Title: title}
}
