package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/goliatone/go-pagebuilder/internal/blocks"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
	"github.com/goliatone/go-pagebuilder/internal/sections"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrDriverUnsupported = errors.New("storage: unsupported driver")

// Driver maps the accepted spellings of a driver name onto DriverSQLite or
// DriverPostgres.
func Driver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("%w: %s", ErrDriverUnsupported, name)
}

// Open connects to the configured database and returns a bun handle. In
// memory SQLite databases are pinned to a single connection so every query
// sees the same database.
func Open(ctx context.Context, cfg runtimeconfig.StorageConfig, logger interfaces.Logger) (*bun.DB, error) {
	logger = logging.Ensure(logger)
	driver, err := Driver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, runtimeconfig.ErrStorageDSNRequired
	}

	var db *bun.DB
	switch driver {
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", driver, err)
	}
	logger.Debug("storage.opened", "driver", driver, "debug", cfg.Debug)
	return db, nil
}

// Models lists every table the module writes, parents before children.
func Models() []any {
	return []any{
		(*content.Media)(nil),
		(*content.Post)(nil),
		(*content.Tag)(nil),
		(*content.PostTag)(nil),
		(*content.HTMLContent)(nil),
		(*blocks.Block)(nil),
		(*sections.Section)(nil),
		(*sections.SectionBlock)(nil),
		(*pages.Page)(nil),
		(*pages.PageSection)(nil),
		(*menus.Menu)(nil),
		(*menus.MenuItem)(nil),
	}
}

type index struct {
	name    string
	model   any
	columns []string
	unique  bool
	where   string
}

func indexes() []index {
	return []index{
		{name: "section_blocks_block_idx", model: (*sections.SectionBlock)(nil), columns: []string{"block_id"}},
		{name: "page_sections_section_idx", model: (*pages.PageSection)(nil), columns: []string{"section_id"}},
		{name: "pages_parent_idx", model: (*pages.Page)(nil), columns: []string{"parent_id"}},
		{name: "menu_items_menu_position_idx", model: (*menus.MenuItem)(nil), columns: []string{"menu_id", "position"}},
		// NULL parents never collide under the (menu_id, parent_id, label)
		// constraint, so root labels need their own partial index.
		{name: "menu_items_root_label_idx", model: (*menus.MenuItem)(nil), columns: []string{"menu_id", "label"}, unique: true, where: "parent_id IS NULL"},
	}
}

// EnsureSchema creates missing tables and lookup indexes straight from the
// models. Tests and the example binary use it. Deployed databases go
// through Migrate.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table %T: %w", model, err)
		}
	}
	for _, idx := range indexes() {
		query := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists()
		if idx.unique {
			query = query.Unique()
		}
		if idx.where != "" {
			query = query.Where(idx.where)
		}
		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("storage: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
