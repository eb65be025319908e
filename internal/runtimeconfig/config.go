package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

var (
	ErrStorageDriverUnknown   = errors.New("pagebuilder config: storage driver is invalid")
	ErrStorageDSNRequired     = errors.New("pagebuilder config: storage dsn is required")
	ErrCacheTTLInvalid        = errors.New("pagebuilder config: cache ttl must be zero or positive")
	ErrCommandTimeoutInvalid  = errors.New("pagebuilder config: command timeout must be zero or positive")
	ErrLoggingProviderUnknown = errors.New("pagebuilder config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("pagebuilder config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("pagebuilder config: logging format is invalid")
	ErrMediaProviderUnknown   = errors.New("pagebuilder config: media blob provider is invalid")
	ErrMediaBaseDirRequired   = errors.New("pagebuilder config: media base directory is required for the filesystem provider")
)

// Config aggregates everything the module needs at construction time.
type Config struct {
	Storage    StorageConfig
	Cache      CacheConfig
	Navigation NavigationConfig
	Pages      PagesConfig
	Media      MediaConfig
	Commands   CommandsConfig
	Logging    LoggingConfig
}

// StorageConfig selects the bun dialect and connection.
type StorageConfig struct {
	Driver string // sqlite or postgres
	DSN    string
	// Debug installs bundebug's query hook.
	Debug bool
	// AutoMigrate runs the embedded migrations when the module starts.
	AutoMigrate bool
}

type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
	// RenderTTL bounds how long a published page render is served from cache.
	RenderTTL time.Duration
	// MenuTTL bounds how long a public menu tree is served from cache.
	MenuTTL time.Duration
}

// NavigationConfig drives href resolution for menu items linking to pages
// and posts. When RouteConfig is nil the plain /{slug} and /posts/{slug}
// paths are used.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
	Group       string
	PageRoute   string
	PostRoute   string
	SlugParam   string
}

type PagesConfig struct {
	// PruneOrphans is the default used by commands that do not set it.
	PruneOrphans bool
	// ValidatePayloadSchema checks page payloads against the JSON schema
	// before the composition engine runs.
	ValidatePayloadSchema bool
}

type MediaConfig struct {
	Provider string // memory, filesystem or none
	BaseDir  string
	BaseURL  string
}

type CommandsConfig struct {
	Enabled bool
	Timeout time.Duration
}

type LoggingConfig struct {
	Provider  string // console or gologger
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns an in-memory SQLite setup suitable for development.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver:      "sqlite",
			DSN:         "file::memory:?cache=shared",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
			RenderTTL:  30 * time.Minute,
			MenuTTL:    30 * time.Minute,
		},
		Navigation: NavigationConfig{
			Group:     "frontend",
			PageRoute: "page",
			PostRoute: "post",
			SlugParam: "slug",
		},
		Pages: PagesConfig{
			ValidatePayloadSchema: true,
		},
		Media: MediaConfig{
			Provider: "memory",
			BaseURL:  "/media",
		},
		Commands: CommandsConfig{
			Enabled: true,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks across sections.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Driver) {
	case "sqlite", "sqlite3", "postgres", "pg":
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Cache.DefaultTTL < 0 || cfg.Cache.RenderTTL < 0 || cfg.Cache.MenuTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	switch normalize(cfg.Media.Provider) {
	case "", "memory", "none":
	case "filesystem":
		if strings.TrimSpace(cfg.Media.BaseDir) == "" {
			return ErrMediaBaseDirRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrMediaProviderUnknown, cfg.Media.Provider)
	}

	provider := normalize(cfg.Logging.Provider)
	switch provider {
	case "", "console", "gologger":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	switch level := normalize(cfg.Logging.Level); level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		switch format := normalize(cfg.Logging.Format); format {
		case "", "json", "console", "pretty":
		default:
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
