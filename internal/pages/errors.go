package pages

import (
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

var (
	ErrPageNotFound  = fmt.Errorf("pages: %w", domain.ErrNotFound)
	ErrTitleRequired = errors.New("pages: title is required")
	ErrStatusInvalid = errors.New("pages: status is invalid")
	ErrParentInvalid = errors.New("pages: parent would create a cycle")
	ErrSlugRequired  = errors.New("pages: slug is required")
)

// NotFoundError reports a missing or soft-deleted page.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("pages: %s not found", e.Resource)
	}
	return fmt.Sprintf("pages: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrPageNotFound }

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
