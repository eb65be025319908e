package sections

import (
	"fmt"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

var ErrNotFound = fmt.Errorf("sections: %w", domain.ErrNotFound)

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sections: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
