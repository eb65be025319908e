package menus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// Menu is a named navigation tree. Settings keeps the last submitted tree.
type Menu struct {
	bun.BaseModel `bun:"table:menus,alias:m"`

	ID        uuid.UUID    `bun:",pk,type:uuid" json:"id"`
	Name      string       `bun:"name,notnull" json:"name"`
	Slug      string       `bun:"slug,notnull,unique" json:"slug"`
	Settings  MenuSettings `bun:"settings,type:jsonb" json:"settings"`
	CreatedAt time.Time    `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time    `bun:"updated_at,notnull" json:"updated_at"`
}

type MenuSettings struct {
	Tree []Node `json:"tree,omitempty"`
}

// MenuItem is one node of the adjacency list. Labels are unique per
// (menu_id, parent_id).
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID           uuid.UUID           `bun:",pk,type:uuid" json:"id"`
	MenuID       uuid.UUID           `bun:"menu_id,notnull,type:uuid,unique:menu_items_scope_idx" json:"menu_id"`
	ParentID     *uuid.UUID          `bun:"parent_id,type:uuid,unique:menu_items_scope_idx" json:"parent_id,omitempty"`
	Label        string              `bun:"label,notnull,unique:menu_items_scope_idx" json:"label"`
	URL          string              `bun:"url" json:"url,omitempty"`
	Position     int                 `bun:"position,notnull" json:"position"`
	IsVisible    bool                `bun:"is_visible,notnull" json:"is_visible"`
	Meta         map[string]any      `bun:"meta,type:jsonb" json:"meta,omitempty"`
	LinkableType domain.LinkableType `bun:"linkable_type" json:"linkable_type,omitempty"`
	LinkableID   *uuid.UUID          `bun:"linkable_id,type:uuid" json:"linkable_id,omitempty"`
	CreatedAt    time.Time           `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time           `bun:"updated_at,notnull" json:"updated_at"`
}

// NodeID is a menu node id as submitted by the editor. Editors send stored
// ids back as strings and number freshly added nodes, so both forms decode.
// Only a string holding a UUID can match a stored item.
type NodeID struct {
	raw     string
	numeric bool
}

func StringID(value string) NodeID { return NodeID{raw: strings.TrimSpace(value)} }

func NumericID(value int64) NodeID { return NodeID{raw: fmt.Sprint(value), numeric: true} }

func ItemID(id uuid.UUID) NodeID { return NodeID{raw: id.String()} }

func (n NodeID) String() string { return n.raw }

func (n NodeID) IsZero() bool { return n.raw == "" }

// UUID returns the stored item id this node refers to, if any.
func (n NodeID) UUID() (uuid.UUID, bool) {
	if n.numeric || n.raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(n.raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (n NodeID) MarshalJSON() ([]byte, error) {
	switch {
	case n.raw == "":
		return []byte("null"), nil
	case n.numeric:
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}

func (n *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = NodeID{}
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*n = StringID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("menus: node id must be a string or number: %w", err)
	}
	*n = NodeID{raw: number.String(), numeric: true}
	return nil
}

// Node is one entry of a submitted menu tree.
type Node struct {
	ID           NodeID              `json:"id"`
	Label        string              `json:"label"`
	URL          string              `json:"url,omitempty"`
	IsVisible    *bool               `json:"is_visible,omitempty"`
	LinkableType domain.LinkableType `json:"linkable_type,omitempty"`
	LinkableID   *uuid.UUID          `json:"linkable_id,omitempty"`
	Meta         map[string]any      `json:"meta,omitempty"`
	Children     []Node              `json:"children,omitempty"`
}

func (n Node) Visible() bool {
	return n.IsVisible == nil || *n.IsVisible
}

// PublicNode is a visible item with its href resolved.
type PublicNode struct {
	ID       uuid.UUID    `json:"id"`
	Label    string       `json:"label"`
	Href     string       `json:"href"`
	Children []PublicNode `json:"children,omitempty"`
}
