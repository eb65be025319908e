package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/adapters/blob"
	"github.com/goliatone/go-pagebuilder/internal/adapters/noop"
	"github.com/goliatone/go-pagebuilder/internal/adapters/storage"
	"github.com/goliatone/go-pagebuilder/internal/blocks"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/logging/console"
	"github.com/goliatone/go-pagebuilder/internal/logging/gologger"
	"github.com/goliatone/go-pagebuilder/internal/markdown"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
	"github.com/goliatone/go-pagebuilder/internal/sections"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Container wires the storage, caches and services of the page builder.
type Container struct {
	Config runtimeconfig.Config

	bunDB      *bun.DB
	ownsDB     bool
	migrations fs.FS

	loggerProvider interfaces.LoggerProvider
	renderCache    repocache.CacheService
	menuCache      repocache.CacheService
	blobs          interfaces.BlobStore
	markdown       interfaces.MarkdownRenderer
	clock          func() time.Time

	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	routeManager *urlkit.RouteManager
	hrefResolver menus.HrefResolver

	contentRepos content.Repositories
	pageRepo     repository.Repository[*pages.Page]
	menuRepo     repository.Repository[*menus.Menu]

	blockResolver *blocks.Resolver
	materializer  *sections.Materializer
	engine        *pages.Engine
	transformer   *pages.Transformer

	contentSvc content.Service
	pageSvc    pages.Service
	menuSvc    menus.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an open database. The container will not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMigrations sets the SQL migrations applied when Storage.AutoMigrate is
// on. Without migrations the schema is created from the bun models.
func WithMigrations(fsys fs.FS) Option {
	return func(c *Container) {
		c.migrations = fsys
	}
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithReadModelCaches overrides the caches holding rendered pages and
// public menu trees. Either may be nil to keep the configured default.
func WithReadModelCaches(renders, menus repocache.CacheService) Option {
	return func(c *Container) {
		c.renderCache = renders
		c.menuCache = menus
	}
}

// WithRepositoryCache overrides the go-repository-cache service wrapping the
// bun repositories.
func WithRepositoryCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

func WithBlobStore(store interfaces.BlobStore) Option {
	return func(c *Container) {
		c.blobs = store
	}
}

func WithMarkdownRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(c *Container) {
		c.markdown = renderer
	}
}

// WithHrefResolver replaces the navigation config driven menu href resolver.
func WithHrefResolver(resolver menus.HrefResolver) Option {
	return func(c *Container) {
		c.hrefResolver = resolver
	}
}

// WithClock fixes the time source of every service. Used by tests and seeds.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// NewContainer validates cfg, opens storage when no database was supplied,
// and builds every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.clock == nil {
		c.clock = time.Now
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	if err := c.configureMedia(); err != nil {
		c.closeOwned()
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	c.configureNavigation()
	c.configureServices()

	logging.ModuleLogger(c.loggerProvider, logging.RootModule).Info("pagebuilder.container.ready",
		"driver", c.Config.Storage.Driver,
		"cache", c.Config.Cache.Enabled,
		"routes", c.routeManager != nil,
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logging: %w", err)
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{
			Writer:   os.Stderr,
			MinLevel: &level,
		})
	}
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	logger := logging.ModuleLogger(c.loggerProvider, logging.StorageModule)
	if c.bunDB == nil {
		db, err := storage.Open(ctx, c.Config.Storage, logger)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if !c.Config.Storage.AutoMigrate {
		return nil
	}

	var err error
	if c.migrations != nil {
		err = storage.Migrate(ctx, c.bunDB, c.migrations, logger)
	} else {
		err = storage.EnsureSchema(ctx, c.bunDB)
	}
	if err != nil {
		c.closeOwned()
		return err
	}
	return nil
}

func (c *Container) configureMedia() error {
	if c.markdown == nil {
		c.markdown = markdown.Default()
	}
	if c.blobs != nil {
		return nil
	}
	media := c.Config.Media
	switch strings.ToLower(strings.TrimSpace(media.Provider)) {
	case "filesystem":
		store, err := blob.NewFilesystem(media.BaseDir, media.BaseURL)
		if err != nil {
			return fmt.Errorf("di: configure media: %w", err)
		}
		c.blobs = store
	case "none":
		c.blobs = noop.Blobs()
	default:
		c.blobs = blob.NewMemory(media.BaseURL)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	logger := logging.ModuleLogger(c.loggerProvider, logging.RootModule)

	if c.renderCache == nil {
		c.renderCache = c.newReadModelCache("render", c.Config.Cache.RenderTTL)
	}
	if c.menuCache == nil {
		c.menuCache = c.newReadModelCache("menu", c.Config.Cache.MenuTTL)
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Cache.DefaultTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			logger.Warn("pagebuilder.container.repository_cache_disabled", "error", err)
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

// newReadModelCache builds a cache for values the services invalidate
// explicitly. Early refreshes and cached misses are off so a deleted page or
// menu is looked up again on the next read.
func (c *Container) newReadModelCache(name string, ttl time.Duration) repocache.CacheService {
	cfg := repocache.DefaultConfig()
	if ttl <= 0 {
		ttl = c.Config.Cache.DefaultTTL
	}
	if ttl > 0 {
		cfg.TTL = ttl
	}
	cfg.EarlyRefresh = nil
	cfg.MissingRecordStorage = false
	service, err := repocache.NewCacheService(cfg)
	if err != nil {
		logging.ModuleLogger(c.loggerProvider, logging.RootModule).
			Warn("pagebuilder.container.read_cache_disabled", "cache", name, "error", err)
		return nil
	}
	return service
}

func (c *Container) configureRepositories() {
	c.contentRepos = content.NewBunRepositoriesWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.pageRepo = pages.NewPageRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.menuRepo = menus.NewMenuRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
}

func (c *Container) configureNavigation() {
	if c.hrefResolver != nil {
		return
	}
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		c.hrefResolver = menus.PathResolver{}
		return
	}

	c.routeManager = urlkit.NewRouteManager(navCfg.RouteConfig)
	c.hrefResolver = menus.NewURLKitResolver(menus.URLKitResolverOptions{
		Manager:   c.routeManager,
		Group:     strings.TrimSpace(navCfg.Group),
		PageRoute: strings.TrimSpace(navCfg.PageRoute),
		PostRoute: strings.TrimSpace(navCfg.PostRoute),
		SlugParam: strings.TrimSpace(navCfg.SlugParam),
	})
}

func (c *Container) configureServices() {
	provider := c.loggerProvider
	pagesLogger := logging.PagesLogger(provider)

	c.contentSvc = content.NewService(c.bunDB, c.contentRepos,
		content.WithClock(c.clock),
		content.WithLogger(logging.ContentLogger(provider)),
		content.WithBlobStore(c.blobs, c.Config.Media.Provider),
		content.WithMarkdownRenderer(c.markdown),
		content.WithChangeListeners(content.ChangeListenerFunc(c.contentChanged)),
	)
	c.pageSvc = pages.NewService(c.pageRepo, c.cacheService)

	c.blockResolver = blocks.NewResolver(
		blocks.WithClock(c.clock),
		blocks.WithLogger(pagesLogger),
	)
	c.materializer = sections.NewMaterializer(c.blockResolver,
		sections.WithClock(c.clock),
		sections.WithLogger(pagesLogger),
	)
	c.menuSvc = menus.NewService(c.bunDB, c.menuRepo,
		menus.WithClock(c.clock),
		menus.WithLogger(logging.MenusLogger(provider)),
		menus.WithCache(c.menuCache),
		menus.WithRepositoryCache(c.cacheService),
		menus.WithHrefResolver(c.hrefResolver),
	)

	// Menu hrefs are derived from page slugs, so every page write drops the
	// cached trees as well as the page reads.
	c.engine = pages.NewEngine(c.bunDB, c.materializer,
		pages.WithEngineClock(c.clock),
		pages.WithEngineLogger(pagesLogger),
		pages.WithEngineCache(c.renderCache),
		pages.WithEngineInvalidators(c.pageSvc, c.contentSvc, pages.InvalidatorFunc(c.menuSvc.InvalidateTrees)),
	)
	c.transformer = pages.NewTransformer(c.bunDB,
		pages.WithRenderCache(c.renderCache),
		pages.WithTransformerLogger(pagesLogger),
		pages.WithHTMLRenderer(c.markdown),
	)
}

// contentChanged fans a post or media write out to the read models built
// from it.
func (c *Container) contentChanged(ctx context.Context, change content.Change) error {
	var errs []error
	if c.engine != nil {
		errs = append(errs, c.engine.ContentChanged(ctx, change))
	}
	if c.menuSvc != nil {
		errs = append(errs, c.menuSvc.ContentChanged(ctx, change))
	}
	return errors.Join(errs...)
}

func (c *Container) closeOwned() {
	if c.ownsDB && c.bunDB != nil {
		_ = c.bunDB.Close()
		c.bunDB = nil
	}
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

func (c *Container) DB() *bun.DB { return c.bunDB }

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// RenderCache is nil when caching is disabled.
func (c *Container) RenderCache() repocache.CacheService { return c.renderCache }

// MenuCache is nil when caching is disabled.
func (c *Container) MenuCache() repocache.CacheService { return c.menuCache }

func (c *Container) BlobStore() interfaces.BlobStore { return c.blobs }

// RouteManager is nil unless Navigation.RouteConfig is set.
func (c *Container) RouteManager() *urlkit.RouteManager { return c.routeManager }

func (c *Container) ContentService() content.Service { return c.contentSvc }

func (c *Container) PageService() pages.Service { return c.pageSvc }

func (c *Container) MenuService() menus.Service { return c.menuSvc }

func (c *Container) PageEngine() *pages.Engine { return c.engine }

func (c *Container) PageTransformer() *pages.Transformer { return c.transformer }
