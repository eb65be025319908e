package sections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/blocks"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/slugs"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// BlockResolver is the part of blocks.Resolver the materializer needs.
type BlockResolver interface {
	Resolve(ctx context.Context, tx bun.IDB, ref blocks.Ref) (uuid.UUID, error)
}

type Option func(*Materializer)

func WithClock(clock func() time.Time) Option {
	return func(m *Materializer) {
		if clock != nil {
			m.now = clock
		}
	}
}

func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(m *Materializer) {
		if generator != nil {
			m.id = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Materializer writes section rows and their block pivots inside a caller
// owned transaction.
type Materializer struct {
	resolver BlockResolver
	now      func() time.Time
	id       func() uuid.UUID
	logger   interfaces.Logger
}

func NewMaterializer(resolver BlockResolver, opts ...Option) *Materializer {
	m := &Materializer{
		resolver: resolver,
		now:      time.Now,
		id:       uuid.New,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize creates the section described by payload, or updates it in
// place when payload.ID names a live section.
func (m *Materializer) Materialize(ctx context.Context, tx bun.IDB, payload Payload) (*Section, error) {
	now := m.now()
	columns := payload.Layout.EffectiveColumns()
	label := strings.TrimSpace(payload.UIType)
	color := strings.TrimSpace(payload.Color)
	if color == "" {
		color = DefaultColor
	}

	section := &Section{ID: m.id(), CreatedAt: now}
	creating := true
	if payload.ID != nil {
		existing, err := Find(ctx, tx, *payload.ID)
		if err != nil {
			return nil, err
		}
		section = existing
		creating = false
	}

	section.Title = strings.TrimSpace(payload.Title)
	section.DBType = DeriveLayoutType(payload.LayoutHint(), label, columns)
	section.Color = color
	section.Settings.ColumnCount = columns
	section.Settings.UILabel = ColumnsLabel(min(max(columns, 1), 4))
	section.Settings.UIType = label
	if label == "" {
		section.Settings.UIType = UIType(section.DBType, columns)
	}
	section.UpdatedAt = now

	if payload.Slug != nil {
		value, err := slugs.NewAllocator(tx).MakeUnique(ctx, interfaces.SlugScope{
			Table:     "sections",
			Column:    "slug",
			ExcludeID: section.ID.String(),
		}, *payload.Slug, section.Title)
		if err != nil {
			return nil, err
		}
		section.Slug = &value
	}

	if creating {
		if _, err := tx.NewInsert().Model(section).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert section: %w", err)
		}
	} else {
		if _, err := tx.NewUpdate().Model(section).WherePK().Exec(ctx); err != nil {
			return nil, fmt.Errorf("update section %s: %w", section.ID, err)
		}
	}
	return section, nil
}

// ReplaceBlocks drops the section's pivots and rebuilds them from columns.
// Sort orders run 1..N across all columns in submission order. The
// resulting per-column layout is written back to the section settings.
func (m *Materializer) ReplaceBlocks(ctx context.Context, tx bun.IDB, section *Section, columns []Column) error {
	if _, err := tx.NewDelete().
		Model((*SectionBlock)(nil)).
		Where("section_id = ?", section.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("clear blocks of section %s: %w", section.ID, err)
	}

	// Sort orders are assigned in column order so that reading the pivots
	// back and resubmitting them reproduces the same rows.
	ordered := slices.Clone(columns)
	slices.SortStableFunc(ordered, func(a, b Column) int { return a.Index - b.Index })

	layout := make(map[int][]uuid.UUID, len(ordered))
	counter := 0
	for _, column := range ordered {
		if _, ok := layout[column.Index]; !ok {
			layout[column.Index] = []uuid.UUID{}
		}
		for _, payload := range column.Blocks {
			blockID, err := m.resolver.Resolve(ctx, tx, payload.Ref())
			if err != nil {
				return err
			}
			counter++
			pivot := &SectionBlock{
				SectionID:   section.ID,
				SortOrder:   counter,
				BlockID:     blockID,
				ColumnIndex: column.Index,
			}
			if _, err := tx.NewInsert().Model(pivot).Exec(ctx); err != nil {
				return fmt.Errorf("attach block %s to section %s: %w", blockID, section.ID, err)
			}
			layout[column.Index] = append(layout[column.Index], blockID)
		}
	}

	section.Settings.ColumnsLayoutBlockIDs = layout
	section.UpdatedAt = m.now()
	if _, err := tx.NewUpdate().
		Model(section).
		Column("settings", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("store layout of section %s: %w", section.ID, err)
	}
	m.logger.Debug("sections.blocks.replaced", "section_id", section.ID, "blocks", counter, "columns", len(layout))
	return nil
}

// PruneOrphans soft-deletes the sections in ids that no page references.
// The attachment check runs inside the same statement as the delete.
func PruneOrphans(ctx context.Context, tx bun.IDB, ids []uuid.UUID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.NewUpdate().
		Model((*Section)(nil)).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("id IN (?)", bun.In(ids)).
		Where("deleted_at IS NULL").
		Where("id NOT IN (SELECT section_id FROM page_sections WHERE section_id IN (?))", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune orphan sections: %w", err)
	}
	return res.RowsAffected()
}

// Find returns the live section with id.
func Find(ctx context.Context, db bun.IDB, id uuid.UUID) (*Section, error) {
	section := new(Section)
	err := db.NewSelect().
		Model(section).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "section", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("load section %s: %w", id, err)
	}
	return section, nil
}

// Pivots returns the block placements of the given sections ordered by
// section then sort order.
func Pivots(ctx context.Context, db bun.IDB, sectionIDs []uuid.UUID) ([]SectionBlock, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	var rows []SectionBlock
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.section_id IN (?)", bun.In(sectionIDs)).
		OrderExpr("?TableAlias.section_id ASC, ?TableAlias.sort_order ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load section blocks: %w", err)
	}
	return rows, nil
}
