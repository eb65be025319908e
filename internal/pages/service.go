package pages

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

const pageNamespace = "page"

// Service exposes page reads for admin listings and lookups.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context, opts ListOptions) ([]*Page, int, error)
	InvalidateCache(ctx context.Context) error
}

type ListOptions struct {
	Limit    int
	Offset   int
	Status   string
	ParentID *uuid.UUID
	Search   string
}

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

type service struct {
	repo         repository.Repository[*Page]
	cacheService cache.CacheService
}

// NewService reads through repo. cacheService is only used for
// InvalidateCache and may be nil.
func NewService(repo repository.Repository[*Page], cacheService cache.CacheService) Service {
	return &service{repo: repo, cacheService: cacheService}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	record, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "page", Key: id.String()}
	}
	return record, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	slug = strings.TrimSpace(slug)
	record, err := s.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "page", slug)
	}
	if record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	return record, nil
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]*Page, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset := max(opts.Offset, 0)
	status := strings.TrimSpace(opts.Status)
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	records, total, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.deleted_at IS NULL")
			if status != "" {
				q = q.Where("?TableAlias.status = ?", domain.ParseStatus(status))
			}
			if opts.ParentID != nil {
				q = q.Where("?TableAlias.parent_id = ?", *opts.ParentID)
			}
			if search != "" {
				q = q.Where("LOWER(?TableAlias.title) LIKE ?", "%"+search+"%")
			}
			return q.OrderExpr("?TableAlias.title ASC")
		}),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	return records, total, nil
}

// InvalidateCache drops cached page lookups. The engine writes through its
// own transaction, so callers run this after each save.
func (s *service) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, pageNamespace+cache.KeySeparator)
}
