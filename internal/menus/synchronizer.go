package menus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

type SyncOption func(*TreeSynchronizer)

func WithSyncClock(clock func() time.Time) SyncOption {
	return func(s *TreeSynchronizer) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithSyncIDGenerator(generator func() uuid.UUID) SyncOption {
	return func(s *TreeSynchronizer) {
		if generator != nil {
			s.id = generator
		}
	}
}

func WithSyncLogger(logger interfaces.Logger) SyncOption {
	return func(s *TreeSynchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// TreeSynchronizer writes a submitted node tree onto the menu_items
// adjacency list of one menu.
type TreeSynchronizer struct {
	now    func() time.Time
	id     func() uuid.UUID
	logger interfaces.Logger
}

func NewTreeSynchronizer(opts ...SyncOption) *TreeSynchronizer {
	s := &TreeSynchronizer{
		now:    time.Now,
		id:     uuid.New,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type syncState struct {
	menuID uuid.UUID
	now    time.Time
	kept   []uuid.UUID
	seen   map[uuid.UUID]struct{}
}

// Sync upserts nodes under menuID and returns the ids of every item it
// wrote, in depth-first submission order. Siblings get position = index.
// Items missing from the tree are left for the caller to prune.
func (s *TreeSynchronizer) Sync(ctx context.Context, tx bun.IDB, menuID uuid.UUID, nodes []Node) ([]uuid.UUID, error) {
	exists, err := tx.NewSelect().
		Model((*Menu)(nil)).
		Where("?TableAlias.id = ?", menuID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load menu %s: %w", menuID, err)
	}
	if !exists {
		return nil, &NotFoundError{Resource: "menu", Key: menuID.String()}
	}

	// Renames and moves would trip the (menu_id, parent_id, label) index
	// mid-write, so every stored label is first replaced by the row id.
	if _, err := tx.NewUpdate().
		Model((*MenuItem)(nil)).
		Set("label = CAST(id AS VARCHAR(64))").
		Where("menu_id = ?", menuID).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("park labels of menu %s: %w", menuID, err)
	}

	state := &syncState{
		menuID: menuID,
		now:    s.now(),
		seen:   make(map[uuid.UUID]struct{}),
	}
	if err := s.syncLevel(ctx, tx, state, nil, nodes); err != nil {
		return nil, err
	}
	return state.kept, nil
}

func (s *TreeSynchronizer) syncLevel(ctx context.Context, tx bun.IDB, state *syncState, parentID *uuid.UUID, nodes []Node) error {
	for i, node := range nodes {
		item, err := s.findOrNew(ctx, tx, state, node)
		if err != nil {
			return err
		}
		item.Label = strings.TrimSpace(node.Label)
		if item.Label == "" {
			return fmt.Errorf("%w: node %q", ErrLabelMissing, node.ID.String())
		}
		item.URL = strings.TrimSpace(node.URL)
		item.IsVisible = node.Visible()
		item.ParentID = parentID
		item.Position = i
		item.LinkableType = domain.ParseLinkableType(string(node.LinkableType))
		item.LinkableID = nil
		if item.LinkableType != domain.LinkNone && node.LinkableID != nil && *node.LinkableID != uuid.Nil {
			id := *node.LinkableID
			item.LinkableID = &id
		}
		if node.Meta != nil {
			item.Meta = node.Meta
		}
		item.UpdatedAt = state.now

		if item.CreatedAt.IsZero() {
			item.CreatedAt = state.now
			if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
				return fmt.Errorf("insert menu item %q: %w", item.Label, err)
			}
		} else if _, err := tx.NewUpdate().Model(item).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update menu item %s: %w", item.ID, err)
		}

		state.seen[item.ID] = struct{}{}
		state.kept = append(state.kept, item.ID)

		if len(node.Children) > 0 {
			id := item.ID
			if err := s.syncLevel(ctx, tx, state, &id, node.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// findOrNew loads the stored item a node refers to. Numeric ids, unknown
// UUIDs and ids already used earlier in the same tree start a new item. A
// UUID that belongs to another menu is rejected.
func (s *TreeSynchronizer) findOrNew(ctx context.Context, tx bun.IDB, state *syncState, node Node) (*MenuItem, error) {
	fresh := &MenuItem{ID: s.id(), MenuID: state.menuID}
	id, ok := node.ID.UUID()
	if !ok {
		return fresh, nil
	}
	if _, dup := state.seen[id]; dup {
		s.logger.Warn("menus.sync.duplicate_id", "menu_id", state.menuID, "item_id", id)
		return fresh, nil
	}

	item := new(MenuItem)
	err := tx.NewSelect().
		Model(item).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load menu item %s: %w", id, err)
	}
	if item.MenuID != state.menuID {
		return nil, &NotFoundError{Resource: "menu item", Key: id.String()}
	}
	return item, nil
}

// PruneItems deletes every item of menuID whose id is not in kept.
func PruneItems(ctx context.Context, tx bun.IDB, menuID uuid.UUID, kept []uuid.UUID) (int64, error) {
	query := tx.NewDelete().
		Model((*MenuItem)(nil)).
		Where("menu_id = ?", menuID)
	if len(kept) > 0 {
		query = query.Where("id NOT IN (?)", bun.In(kept))
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune items of menu %s: %w", menuID, err)
	}
	return res.RowsAffected()
}

// Items returns the stored items of a menu ordered for tree building.
func Items(ctx context.Context, db bun.IDB, menuID uuid.UUID) ([]*MenuItem, error) {
	var items []*MenuItem
	if err := db.NewSelect().
		Model(&items).
		Where("?TableAlias.menu_id = ?", menuID).
		OrderExpr("?TableAlias.position ASC, ?TableAlias.created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load items of menu %s: %w", menuID, err)
	}
	return items, nil
}
