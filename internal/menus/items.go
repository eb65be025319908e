package menus

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/slugs"
)

// ItemRequest adds or edits a single menu item. A nil Position appends the
// item after its siblings; a nil IsVisible means visible on add and
// unchanged on update.
type ItemRequest struct {
	ParentID     *uuid.UUID          `json:"parent_id,omitempty"`
	Label        string              `json:"label"`
	URL          string              `json:"url,omitempty"`
	Position     *int                `json:"position,omitempty"`
	IsVisible    *bool               `json:"is_visible,omitempty"`
	LinkableType domain.LinkableType `json:"linkable_type,omitempty"`
	LinkableID   *uuid.UUID          `json:"linkable_id,omitempty"`
	Meta         map[string]any      `json:"meta,omitempty"`
}

// AddItem inserts one item into an existing menu and renumbers its
// siblings.
func (s *service) AddItem(ctx context.Context, menuSlug string, req ItemRequest) (*MenuItem, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, ErrLabelMissing
	}

	var item *MenuItem
	menu, err := s.writeItems(ctx, menuSlug, func(ctx context.Context, tx bun.Tx, menu *Menu, items map[uuid.UUID]*MenuItem) error {
		if err := checkItemParent(items, uuid.Nil, req.ParentID); err != nil {
			return err
		}
		now := s.now()
		item = &MenuItem{
			ID:        s.sync.id(),
			MenuID:    menu.ID,
			IsVisible: true,
			CreatedAt: now,
		}
		applyItemRequest(item, req, label, now)
		if err := checkLabel(items, item); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
			return fmt.Errorf("insert menu item %q: %w", label, err)
		}
		items[item.ID] = item
		return placeItem(ctx, tx, items, item, req.Position)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("menus.item.added", "menu_id", menu.ID, "item_id", item.ID, "label", item.Label)
	return item, nil
}

// UpdateItem rewrites one item of the menu. Moving it under a new parent
// renumbers both the old and the new siblings.
func (s *service) UpdateItem(ctx context.Context, menuSlug string, itemID uuid.UUID, req ItemRequest) (*MenuItem, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, ErrLabelMissing
	}

	var item *MenuItem
	menu, err := s.writeItems(ctx, menuSlug, func(ctx context.Context, tx bun.Tx, menu *Menu, items map[uuid.UUID]*MenuItem) error {
		item = items[itemID]
		if item == nil {
			return &NotFoundError{Resource: "menu item", Key: itemID.String()}
		}
		if err := checkItemParent(items, item.ID, req.ParentID); err != nil {
			return err
		}
		oldParent := item.ParentID
		applyItemRequest(item, req, label, s.now())
		if err := checkLabel(items, item); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model(item).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update menu item %s: %w", item.ID, err)
		}
		if !sameParent(oldParent, item.ParentID) {
			if err := renumber(ctx, tx, siblings(items, oldParent, item.ID)); err != nil {
				return err
			}
		}
		position := req.Position
		if position == nil && sameParent(oldParent, item.ParentID) {
			keep := item.Position
			position = &keep
		}
		return placeItem(ctx, tx, items, item, position)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("menus.item.updated", "menu_id", menu.ID, "item_id", item.ID, "label", item.Label)
	return item, nil
}

// DeleteItem removes the item and its whole subtree and returns how many
// rows went.
func (s *service) DeleteItem(ctx context.Context, menuSlug string, itemID uuid.UUID) (int64, error) {
	var removed int64
	menu, err := s.writeItems(ctx, menuSlug, func(ctx context.Context, tx bun.Tx, menu *Menu, items map[uuid.UUID]*MenuItem) error {
		item := items[itemID]
		if item == nil {
			return &NotFoundError{Resource: "menu item", Key: itemID.String()}
		}
		subtree := descendants(items, item.ID)
		res, err := tx.NewDelete().
			Model((*MenuItem)(nil)).
			Where("menu_id = ?", menu.ID).
			Where("id IN (?)", bun.In(subtree)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete menu item %s: %w", item.ID, err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		for _, id := range subtree {
			delete(items, id)
		}
		return renumber(ctx, tx, siblings(items, item.ParentID, uuid.Nil))
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("menus.item.deleted", "menu_id", menu.ID, "item_id", itemID, "removed", removed)
	return removed, nil
}

type itemWrite func(ctx context.Context, tx bun.Tx, menu *Menu, items map[uuid.UUID]*MenuItem) error

// writeItems runs write against the loaded items of the menu, then stores
// the resulting tree as the menu's snapshot and drops cached reads.
func (s *service) writeItems(ctx context.Context, menuSlug string, write itemWrite) (*Menu, error) {
	slug := slugs.Normalize(menuSlug)
	if slug == "" {
		return nil, ErrSlugRequired
	}

	menu := new(Menu)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(menu).
			Where("?TableAlias.slug = ?", slug).
			Limit(1).
			Scan(ctx); err != nil {
			return mapRepositoryError(err, "menu", slug)
		}
		stored, err := Items(ctx, tx, menu.ID)
		if err != nil {
			return err
		}
		items := make(map[uuid.UUID]*MenuItem, len(stored))
		for _, item := range stored {
			items[item.ID] = item
		}
		if err := write(ctx, tx, menu, items); err != nil {
			return err
		}

		menu.Settings = MenuSettings{Tree: snapshotTree(items)}
		menu.UpdatedAt = s.now()
		if _, err := tx.NewUpdate().
			Model(menu).
			Column("settings", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update menu %q: %w", slug, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.InvalidateCache(ctx, slug); err != nil {
		s.logger.Warn("menus.cache.invalidate_failed", "slug", slug, "error", err)
	}
	return menu, nil
}

func applyItemRequest(item *MenuItem, req ItemRequest, label string, now time.Time) {
	item.Label = label
	item.URL = strings.TrimSpace(req.URL)
	item.ParentID = req.ParentID
	if req.IsVisible != nil {
		item.IsVisible = *req.IsVisible
	}
	item.LinkableType = domain.ParseLinkableType(string(req.LinkableType))
	item.LinkableID = nil
	if item.LinkableType != domain.LinkNone && req.LinkableID != nil && *req.LinkableID != uuid.Nil {
		id := *req.LinkableID
		item.LinkableID = &id
	}
	if req.Meta != nil {
		item.Meta = req.Meta
	}
	item.UpdatedAt = now
}

// checkItemParent requires parent to be an item of the same menu that is
// neither self nor one of self's descendants.
func checkItemParent(items map[uuid.UUID]*MenuItem, self uuid.UUID, parent *uuid.UUID) error {
	if parent == nil {
		return nil
	}
	current := *parent
	for range len(items) + 1 {
		if current == self {
			return ErrParentCycle
		}
		node := items[current]
		if node == nil {
			return &NotFoundError{Resource: "menu item parent", Key: parent.String()}
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
	return ErrParentCycle
}

func checkLabel(items map[uuid.UUID]*MenuItem, item *MenuItem) error {
	for _, other := range items {
		if other.ID != item.ID && other.Label == item.Label && sameParent(other.ParentID, item.ParentID) {
			return fmt.Errorf("%w: %q", ErrLabelTaken, item.Label)
		}
	}
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// siblings returns the children of parent ordered by position, without skip.
func siblings(items map[uuid.UUID]*MenuItem, parent *uuid.UUID, skip uuid.UUID) []*MenuItem {
	var out []*MenuItem
	for _, item := range items {
		if item.ID != skip && sameParent(item.ParentID, parent) {
			out = append(out, item)
		}
	}
	slices.SortStableFunc(out, func(a, b *MenuItem) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// placeItem puts item at position among its siblings, or last when
// position is nil, and renumbers the level from zero.
func placeItem(ctx context.Context, tx bun.IDB, items map[uuid.UUID]*MenuItem, item *MenuItem, position *int) error {
	level := siblings(items, item.ParentID, item.ID)
	at := len(level)
	if position != nil {
		at = min(max(*position, 0), len(level))
	}
	level = slices.Insert(level, at, item)
	item.Position = -1
	return renumber(ctx, tx, level)
}

func renumber(ctx context.Context, tx bun.IDB, level []*MenuItem) error {
	for i, item := range level {
		if item.Position == i {
			continue
		}
		item.Position = i
		if _, err := tx.NewUpdate().
			Model((*MenuItem)(nil)).
			Set("position = ?", i).
			Where("id = ?", item.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("reorder menu item %s: %w", item.ID, err)
		}
	}
	return nil
}

func descendants(items map[uuid.UUID]*MenuItem, root uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{root}
	for i := 0; i < len(out); i++ {
		for _, item := range items {
			if item.ParentID != nil && *item.ParentID == out[i] {
				out = append(out, item.ID)
			}
		}
	}
	return out
}

// snapshotTree rebuilds the submitted-tree form of the stored items.
func snapshotTree(items map[uuid.UUID]*MenuItem) []Node {
	var build func(parent *uuid.UUID) []Node
	build = func(parent *uuid.UUID) []Node {
		level := siblings(items, parent, uuid.Nil)
		if len(level) == 0 {
			return nil
		}
		nodes := make([]Node, 0, len(level))
		for _, item := range level {
			visible := item.IsVisible
			id := item.ID
			nodes = append(nodes, Node{
				ID:           ItemID(item.ID),
				Label:        item.Label,
				URL:          item.URL,
				IsVisible:    &visible,
				LinkableType: item.LinkableType,
				LinkableID:   item.LinkableID,
				Meta:         item.Meta,
				Children:     build(&id),
			})
		}
		return nodes
	}
	return build(nil)
}
