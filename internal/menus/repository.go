package menus

import (
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const menuNamespace = "menu"

// NewMenuRepository builds the generic menu repository, keyed by slug.
func NewMenuRepository(db *bun.DB) repository.Repository[*Menu] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Menu]{
		NewRecord:          func() *Menu { return &Menu{} },
		GetID:              func(m *Menu) uuid.UUID { return m.ID },
		SetID:              func(m *Menu, id uuid.UUID) { m.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(m *Menu) string { return m.Slug },
	})
}

func NewMenuRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) repository.Repository[*Menu] {
	base := NewMenuRepository(db)
	if cacheService == nil || serializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, serializer)
}
