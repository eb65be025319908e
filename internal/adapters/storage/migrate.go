package storage

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	migrationsTable      = "pagebuilder_migrations"
	migrationsLocksTable = "pagebuilder_migration_locks"
)

func newMigrator(db *bun.DB, fsys fs.FS) (*migrate.Migrator, error) {
	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return nil, fmt.Errorf("storage: discover migrations: %w", err)
	}
	return migrate.NewMigrator(db, migrations,
		migrate.WithTableName(migrationsTable),
		migrate.WithLocksTableName(migrationsLocksTable),
	), nil
}

// Migrate applies the pending SQL migrations found in fsys. Files follow
// bun's naming: <version>_<name>.up.sql and .down.sql.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS, logger interfaces.Logger) error {
	logger = logging.Ensure(logger)
	migrator, err := newMigrator(db, fsys)
	if err != nil {
		return err
	}
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("storage: init migrations: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("storage: lock migrations: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.Warn("storage.migrate.unlock_failed", "error", err)
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	if group.IsZero() {
		logger.Debug("storage.migrate.up_to_date")
		return nil
	}
	logger.Info("storage.migrate.applied", "group", group.ID, "migrations", len(group.Migrations))
	return nil
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB, fsys fs.FS, logger interfaces.Logger) error {
	logger = logging.Ensure(logger)
	migrator, err := newMigrator(db, fsys)
	if err != nil {
		return err
	}
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("storage: init migrations: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("storage: lock migrations: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.Warn("storage.migrate.unlock_failed", "error", err)
		}
	}()

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("storage: rollback: %w", err)
	}
	if group.IsZero() {
		logger.Debug("storage.migrate.nothing_to_rollback")
		return nil
	}
	logger.Info("storage.migrate.rolled_back", "group", group.ID, "migrations", len(group.Migrations))
	return nil
}
