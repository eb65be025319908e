package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{
			name:   "unknown driver",
			mutate: func(c *runtimeconfig.Config) { c.Storage.Driver = "mysql" },
			want:   runtimeconfig.ErrStorageDriverUnknown,
		},
		{
			name:   "missing dsn",
			mutate: func(c *runtimeconfig.Config) { c.Storage.DSN = " " },
			want:   runtimeconfig.ErrStorageDSNRequired,
		},
		{
			name:   "negative render ttl",
			mutate: func(c *runtimeconfig.Config) { c.Cache.RenderTTL = -1 },
			want:   runtimeconfig.ErrCacheTTLInvalid,
		},
		{
			name:   "negative command timeout",
			mutate: func(c *runtimeconfig.Config) { c.Commands.Timeout = -1 },
			want:   runtimeconfig.ErrCommandTimeoutInvalid,
		},
		{
			name:   "filesystem media without dir",
			mutate: func(c *runtimeconfig.Config) { c.Media.Provider = "filesystem" },
			want:   runtimeconfig.ErrMediaBaseDirRequired,
		},
		{
			name:   "unknown media provider",
			mutate: func(c *runtimeconfig.Config) { c.Media.Provider = "s3" },
			want:   runtimeconfig.ErrMediaProviderUnknown,
		},
		{
			name:   "unknown logging provider",
			mutate: func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" },
			want:   runtimeconfig.ErrLoggingProviderUnknown,
		},
		{
			name:   "bad level",
			mutate: func(c *runtimeconfig.Config) { c.Logging.Level = "loud" },
			want:   runtimeconfig.ErrLoggingLevelInvalid,
		},
		{
			name: "bad gologger format",
			mutate: func(c *runtimeconfig.Config) {
				c.Logging.Provider = "gologger"
				c.Logging.Format = "xml"
			},
			want: runtimeconfig.ErrLoggingFormatInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateAcceptsPostgres(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = "postgres://localhost/pagebuilder?sslmode=disable"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
