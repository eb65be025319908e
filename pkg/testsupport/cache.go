package testsupport

import (
	"testing"
	"time"

	cache "github.com/goliatone/go-repository-cache/cache"
)

// NewCacheService returns a go-repository-cache service whose entries only
// leave through explicit invalidation for the length of a test.
func NewCacheService(t testing.TB) cache.CacheService {
	t.Helper()
	cfg := cache.DefaultConfig()
	cfg.TTL = time.Hour
	cfg.EarlyRefresh = nil
	cfg.MissingRecordStorage = false
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
