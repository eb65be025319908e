package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// TargetLoader checks that the content row a wrapper points at exists.
type TargetLoader func(ctx context.Context, db bun.IDB, id uuid.UUID) error

// DefaultLoaders covers the shareable kinds.
func DefaultLoaders() map[domain.ContentKind]TargetLoader {
	return map[domain.ContentKind]TargetLoader{
		domain.KindPost: func(ctx context.Context, db bun.IDB, id uuid.UUID) error {
			_, err := content.FindPost(ctx, db, id)
			return err
		},
		domain.KindMedia: func(ctx context.Context, db bun.IDB, id uuid.UUID) error {
			_, err := content.FindMedia(ctx, db, id)
			return err
		},
	}
}

type ResolverOption func(*Resolver)

func WithClock(clock func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

func WithIDGenerator(generator func() uuid.UUID) ResolverOption {
	return func(r *Resolver) {
		if generator != nil {
			r.id = generator
		}
	}
}

func WithLogger(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTargetLoader registers or replaces the loader for kind.
func WithTargetLoader(kind domain.ContentKind, loader TargetLoader) ResolverOption {
	return func(r *Resolver) {
		if loader == nil {
			delete(r.loaders, kind)
			return
		}
		r.loaders[kind] = loader
	}
}

// Resolver turns payload block references into wrapper ids. It never opens
// its own transaction; callers pass the one they are writing in.
type Resolver struct {
	loaders map[domain.ContentKind]TargetLoader
	now     func() time.Time
	id      func() uuid.UUID
	logger  interfaces.Logger
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		loaders: DefaultLoaders(),
		now:     time.Now,
		id:      uuid.New,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the wrapper id for ref, creating rows as needed.
func (r *Resolver) Resolve(ctx context.Context, tx bun.IDB, ref Ref) (uuid.UUID, error) {
	if ref.BlockID != nil {
		return r.reuse(ctx, tx, *ref.BlockID, ref.Title)
	}
	if ref.Kind == domain.KindHTML {
		inline := Inline{Format: content.FormatHTML}
		if ref.Inline != nil {
			inline = *ref.Inline
		}
		return r.createInline(ctx, tx, inline, Settings{Title: ref.Title})
	}

	loader, ok := r.loaders[ref.Kind]
	if !ok || ref.TargetID == uuid.Nil {
		return r.fallback(ctx, tx, ref)
	}
	if err := loader(ctx, tx, ref.TargetID); err != nil {
		return uuid.Nil, err
	}
	return r.canonical(ctx, tx, ref.Kind, ref.TargetID)
}

func (r *Resolver) reuse(ctx context.Context, tx bun.IDB, id uuid.UUID, title string) (uuid.UUID, error) {
	block := new(Block)
	err := tx.NewSelect().
		Model(block).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, &NotFoundError{Resource: "block", Key: id.String()}
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load block %s: %w", id, err)
	}

	if title != "" && title != block.Settings.DisplayTitle() {
		block.Settings.Title = title
		block.UpdatedAt = r.now()
		if _, err := tx.NewUpdate().
			Model(block).
			Column("settings", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return uuid.Nil, fmt.Errorf("update block %s settings: %w", id, err)
		}
	}
	return block.ID, nil
}

// canonical finds or creates the single wrapper for (kind, target). A
// soft-deleted wrapper is restored instead of duplicated.
func (r *Resolver) canonical(ctx context.Context, tx bun.IDB, kind domain.ContentKind, target uuid.UUID) (uuid.UUID, error) {
	existing, err := findByTarget(ctx, tx, kind, target)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("load %s wrapper for %s: %w", kind, target, err)
	}
	if err == nil {
		if existing.DeletedAt != nil {
			if err := r.restore(ctx, tx, existing); err != nil {
				return uuid.Nil, err
			}
		}
		return existing.ID, nil
	}

	now := r.now()
	block := &Block{
		ID:        r.id(),
		Kind:      kind,
		TargetID:  target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := tx.NewInsert().
		Model(block).
		On("CONFLICT (kind, target_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert %s wrapper for %s: %w", kind, target, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return block.ID, nil
	}

	// Another writer inserted the wrapper between our select and insert.
	winner, err := findByTarget(ctx, tx, kind, target)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %s: %v", ErrWrapperConflict, kind, target, err)
	}
	r.logger.Debug("blocks.resolver.conflict_recovered", "kind", kind, "target_id", target, "block_id", winner.ID)
	if winner.DeletedAt != nil {
		if err := r.restore(ctx, tx, winner); err != nil {
			return uuid.Nil, err
		}
	}
	return winner.ID, nil
}

func (r *Resolver) restore(ctx context.Context, tx bun.IDB, block *Block) error {
	block.DeletedAt = nil
	block.UpdatedAt = r.now()
	if _, err := tx.NewUpdate().
		Model(block).
		Column("deleted_at", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("restore block %s: %w", block.ID, err)
	}
	r.logger.Info("blocks.resolver.restored", "block_id", block.ID, "kind", block.Kind)
	return nil
}

func (r *Resolver) createInline(ctx context.Context, tx bun.IDB, inline Inline, settings Settings) (uuid.UUID, error) {
	now := r.now()
	html, err := content.CreateHTMLContent(ctx, tx, r.id(), inline.Body, inline.Format, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create inline content: %w", err)
	}
	block := &Block{
		ID:        r.id(),
		Kind:      domain.KindHTML,
		TargetID:  html.ID,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.NewInsert().Model(block).Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("insert html wrapper: %w", err)
	}
	return block.ID, nil
}

// fallback wraps an empty inline row so an unrecognised block never fails the
// page write.
func (r *Resolver) fallback(ctx context.Context, tx bun.IDB, ref Ref) (uuid.UUID, error) {
	r.logger.Warn("blocks.resolver.fallback", "kind", string(ref.Kind), "target_id", ref.TargetID)
	return r.createInline(ctx, tx, Inline{Format: content.FormatHTML}, Settings{
		Title:    FallbackTitle,
		Fallback: true,
	})
}

func findByTarget(ctx context.Context, db bun.IDB, kind domain.ContentKind, target uuid.UUID) (*Block, error) {
	block := new(Block)
	err := db.NewSelect().
		Model(block).
		Where("?TableAlias.kind = ?", kind).
		Where("?TableAlias.target_id = ?", target).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Load returns live wrappers keyed by id.
func Load(ctx context.Context, db bun.IDB, ids []uuid.UUID) (map[uuid.UUID]*Block, error) {
	out := make(map[uuid.UUID]*Block, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*Block
	if err := db.NewSelect().
		Model(&rows).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
