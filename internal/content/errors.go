package content

import (
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

var (
	ErrNotFound       = fmt.Errorf("content: %w", domain.ErrNotFound)
	ErrTitleRequired  = errors.New("content: title is required")
	ErrStatusInvalid  = errors.New("content: status is invalid")
	ErrUploadEmpty    = errors.New("content: upload has no data")
	ErrFilenameNeeded = errors.New("content: upload filename is required")
	ErrBlobStoreUnset = errors.New("content: blob store not configured")
)

// NotFoundError reports a post, media, tag or html row that does not exist
// or was soft deleted.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content: %s %q not found", e.Resource, e.Key)
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
