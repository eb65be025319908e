// Package slugs allocates slugs that are unique within a table column.
package slugs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// DefaultBase is used when neither the candidate nor the fallback produce a slug.
const DefaultBase = "item"

var ErrScopeInvalid = errors.New("slugs: scope requires table and column")

// Allocator checks candidates against the rows visible through db. Bind it
// to a transaction with WithDB so the check sees uncommitted rows.
type Allocator struct {
	db bun.IDB
}

var _ interfaces.SlugAllocator = (*Allocator)(nil)

func NewAllocator(db bun.IDB) *Allocator {
	return &Allocator{db: db}
}

func (a *Allocator) WithDB(db bun.IDB) *Allocator {
	return &Allocator{db: db}
}

// MakeUnique returns base, base-2, base-3... picking the first value not
// already stored in scope.Column.
func (a *Allocator) MakeUnique(ctx context.Context, scope interfaces.SlugScope, candidate, fallback string) (string, error) {
	if strings.TrimSpace(scope.Table) == "" || strings.TrimSpace(scope.Column) == "" {
		return "", ErrScopeInvalid
	}
	base := Normalize(candidate)
	if base == "" {
		base = Normalize(fallback)
	}
	if base == "" {
		base = DefaultBase
	}

	var taken []string
	q := a.db.NewSelect().
		Table(scope.Table).
		Column(scope.Column).
		Where("? = ? OR ? LIKE ?", bun.Ident(scope.Column), base, bun.Ident(scope.Column), base+"-%")
	if scope.ExcludeID != "" {
		q = q.Where("? <> ?", bun.Ident("id"), scope.ExcludeID)
	}
	if err := q.Scan(ctx, &taken); err != nil {
		return "", fmt.Errorf("slugs: lookup %s.%s: %w", scope.Table, scope.Column, err)
	}

	used := make(map[string]struct{}, len(taken))
	for _, value := range taken {
		used[value] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base, nil
	}
	for n := 2; ; n++ {
		next := base + "-" + strconv.Itoa(n)
		if _, ok := used[next]; !ok {
			return next, nil
		}
	}
}

// Normalize lowercases and slugifies value with go-slug. It returns "" when
// nothing usable remains.
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	normalized, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return strings.Trim(strings.ToLower(normalized), "-")
}
