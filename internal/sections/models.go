package sections

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// DefaultColor is applied when a payload omits the section color.
const DefaultColor = "#ffffff"

// Settings is the typed layout metadata stored on a section.
type Settings struct {
	ColumnCount int    `json:"columns_count,omitempty"`
	UILabel     string `json:"ui_label,omitempty"`
	UIType      string `json:"ui_type,omitempty"`
	// ColumnsLayoutBlockIDs maps column index to the wrapper ids placed in
	// it, in pivot order. It is rewritten after every block sync.
	ColumnsLayoutBlockIDs map[int][]uuid.UUID `json:"columns_layout_block_ids,omitempty"`
}

// ColumnsCount is the stored count, otherwise one past the highest pivot
// column index, never less than 1.
func (s Settings) ColumnsCount(pivots []SectionBlock) int {
	if s.ColumnCount > 0 {
		return s.ColumnCount
	}
	highest := 0
	for _, pivot := range pivots {
		if pivot.ColumnIndex > highest {
			highest = pivot.ColumnIndex
		}
	}
	return max(1, highest+1)
}

// Section is a reusable, titled group of block columns.
type Section struct {
	bun.BaseModel `bun:"table:sections,alias:s"`

	ID        uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	Title     string            `bun:"title" json:"title"`
	DBType    domain.LayoutType `bun:"db_type,notnull" json:"db_type"`
	Color     string            `bun:"color,notnull" json:"color"`
	Slug      *string           `bun:"slug,unique" json:"slug,omitempty"`
	Settings  Settings          `bun:"settings,type:jsonb" json:"settings"`
	DeletedAt *time.Time        `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// SectionBlock places a wrapper in a section. SortOrder is 1-based and
// monotonic across all columns of the section.
type SectionBlock struct {
	bun.BaseModel `bun:"table:section_blocks,alias:sb"`

	SectionID   uuid.UUID `bun:"section_id,pk,type:uuid" json:"section_id"`
	SortOrder   int       `bun:"sort_order,pk" json:"sort_order"`
	BlockID     uuid.UUID `bun:"block_id,notnull,type:uuid" json:"block_id"`
	ColumnIndex int       `bun:"column_index,notnull" json:"column_index"`
}
