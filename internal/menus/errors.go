package menus

import (
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

var (
	ErrNotFound     = fmt.Errorf("menus: %w", domain.ErrNotFound)
	ErrSlugRequired = errors.New("menus: slug is required")
	ErrLabelMissing = errors.New("menus: item label is required")
	ErrLabelTaken   = errors.New("menus: a sibling already uses this label")
	ErrParentCycle  = errors.New("menus: parent would create a cycle")
)

// NotFoundError reports a menu, parent or item reference that does not
// resolve inside the menu being written.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("menus: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
