package blocks

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

var (
	ErrNotFound = fmt.Errorf("blocks: %w", domain.ErrNotFound)
	// ErrWrapperConflict is returned when an insert lost the race on
	// (kind, target_id) and the winning row could not be read back.
	ErrWrapperConflict = errors.New("blocks: wrapper conflict could not be resolved")
)

// NotFoundError reports a missing wrapper or block target.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blocks: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
