package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// Change describes a committed write to a post or media asset. Slug holds
// the slug after the write and PreviousSlug the one before it; both are
// empty for media.
type Change struct {
	Kind         domain.ContentKind
	ID           uuid.UUID
	Slug         string
	PreviousSlug string
}

func (c Change) SlugChanged() bool {
	return c.PreviousSlug != "" && c.PreviousSlug != c.Slug
}

// ChangeListener is told about every committed content write. Read models
// that embed posts or media use it to drop stale entries.
type ChangeListener interface {
	ContentChanged(ctx context.Context, change Change) error
}

type ChangeListenerFunc func(ctx context.Context, change Change) error

func (f ChangeListenerFunc) ContentChanged(ctx context.Context, change Change) error {
	return f(ctx, change)
}

// WithChangeListeners registers listeners called after each commit.
func WithChangeListeners(listeners ...ChangeListener) ServiceOption {
	return func(s *service) {
		for _, listener := range listeners {
			if listener != nil {
				s.listeners = append(s.listeners, listener)
			}
		}
	}
}

// changed drops the repository cache and fans the change out. Listener
// failures are logged; the write has already committed.
func (s *service) changed(ctx context.Context, change Change) {
	if err := s.repos.InvalidateCache(ctx); err != nil {
		s.logger.Warn("content.cache.invalidate_failed", "error", err)
	}
	for _, listener := range s.listeners {
		if err := listener.ContentChanged(ctx, change); err != nil {
			s.logger.Warn("content.change.listener_failed",
				"kind", string(change.Kind), "id", change.ID, "error", err)
		}
	}
}
