package content

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPostRepository builds the generic repository for posts, keyed by slug.
func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord:          func() *Post { return &Post{} },
		GetID:              func(p *Post) uuid.UUID { return p.ID },
		SetID:              func(p *Post, id uuid.UUID) { p.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(p *Post) string { return p.Slug },
	})
}

// NewMediaRepository builds the generic repository for media, keyed by path.
func NewMediaRepository(db *bun.DB) repository.Repository[*Media] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Media]{
		NewRecord:          func() *Media { return &Media{} },
		GetID:              func(m *Media) uuid.UUID { return m.ID },
		SetID:              func(m *Media, id uuid.UUID) { m.ID = id },
		GetIdentifier:      func() string { return "path" },
		GetIdentifierValue: func(m *Media) string { return m.Path },
	})
}

// NewTagRepository builds the generic repository for tags, keyed by slug.
func NewTagRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord:          func() *Tag { return &Tag{} },
		GetID:              func(t *Tag) uuid.UUID { return t.ID },
		SetID:              func(t *Tag, id uuid.UUID) { t.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(t *Tag) string { return t.Slug },
	})
}

// Repositories groups the read/write repositories the service uses outside
// transactions, plus the cache they may be wrapped in.
type Repositories struct {
	Posts repository.Repository[*Post]
	Media repository.Repository[*Media]
	Tags  repository.Repository[*Tag]

	cacheService cache.CacheService
}

// NewBunRepositories creates uncached repositories.
func NewBunRepositories(db *bun.DB) Repositories {
	return NewBunRepositoriesWithCache(db, nil, nil)
}

// NewBunRepositoriesWithCache wraps every repository with go-repository-cache
// when both cacheService and serializer are provided.
func NewBunRepositoriesWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) Repositories {
	repos := Repositories{
		Posts: NewPostRepository(db),
		Media: NewMediaRepository(db),
		Tags:  NewTagRepository(db),
	}
	if cacheService == nil || serializer == nil {
		return repos
	}
	repos.Posts = repositorycache.New(repos.Posts, cacheService, serializer)
	repos.Media = repositorycache.New(repos.Media, cacheService, serializer)
	repos.Tags = repositorycache.New(repos.Tags, cacheService, serializer)
	repos.cacheService = cacheService
	return repos
}

var cachedNamespaces = []string{"post", "media", "tag"}

// InvalidateCache drops cached lookups after writes made through transactions
// that bypass the cached repositories.
func (r Repositories) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil {
		return nil
	}
	for _, ns := range cachedNamespaces {
		if err := r.cacheService.DeleteByPrefix(ctx, ns+cache.KeySeparator); err != nil {
			return err
		}
	}
	return nil
}
