package pagescmd

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	publishPageMessageType   = "pagebuilder.pages.publish"
	unpublishPageMessageType = "pagebuilder.pages.unpublish"
	archivePageMessageType   = "pagebuilder.pages.archive"
	restorePageMessageType   = "pagebuilder.pages.restore"
)

// PageLifecycle moves a page between draft, published and archived.
type PageLifecycle interface {
	Publish(ctx context.Context, pageID uuid.UUID) (*pages.Page, error)
	Unpublish(ctx context.Context, pageID uuid.UUID) (*pages.Page, error)
	Archive(ctx context.Context, pageID uuid.UUID) error
	Restore(ctx context.Context, pageID uuid.UUID) (*pages.Page, error)
}

var (
	_ command.Commander[PublishPageCommand]   = (*LifecycleHandler[PublishPageCommand])(nil)
	_ command.Commander[UnpublishPageCommand] = (*LifecycleHandler[UnpublishPageCommand])(nil)
	_ command.Commander[ArchivePageCommand]   = (*LifecycleHandler[ArchivePageCommand])(nil)
	_ command.Commander[RestorePageCommand]   = (*LifecycleHandler[RestorePageCommand])(nil)
)

// PublishPageCommand makes a page live and stamps published_at.
type PublishPageCommand struct {
	PageID uuid.UUID
}

func (PublishPageCommand) Type() string { return publishPageMessageType }

func (m PublishPageCommand) Validate() error { return validatePageID(m.PageID, "pagebuilder.pages.publish.page_id_required") }

func (m PublishPageCommand) pageID() uuid.UUID { return m.PageID }

// UnpublishPageCommand returns a page to draft.
type UnpublishPageCommand struct {
	PageID uuid.UUID
}

func (UnpublishPageCommand) Type() string { return unpublishPageMessageType }

func (m UnpublishPageCommand) Validate() error { return validatePageID(m.PageID, "pagebuilder.pages.unpublish.page_id_required") }

func (m UnpublishPageCommand) pageID() uuid.UUID { return m.PageID }

// ArchivePageCommand soft-deletes a page but keeps its sections attached so
// RestorePageCommand brings it back whole.
type ArchivePageCommand struct {
	PageID uuid.UUID
}

func (ArchivePageCommand) Type() string { return archivePageMessageType }

func (m ArchivePageCommand) Validate() error { return validatePageID(m.PageID, "pagebuilder.pages.archive.page_id_required") }

func (m ArchivePageCommand) pageID() uuid.UUID { return m.PageID }

// RestorePageCommand brings an archived page back as a draft.
type RestorePageCommand struct {
	PageID uuid.UUID
}

func (RestorePageCommand) Type() string { return restorePageMessageType }

func (m RestorePageCommand) Validate() error { return validatePageID(m.PageID, "pagebuilder.pages.restore.page_id_required") }

func (m RestorePageCommand) pageID() uuid.UUID { return m.PageID }

// LifecycleCommand is any of the page status transitions.
type LifecycleCommand interface {
	PublishPageCommand | UnpublishPageCommand | ArchivePageCommand | RestorePageCommand
	command.Message
	pageID() uuid.UUID
}

// LifecycleHandler runs one page status transition.
type LifecycleHandler[T LifecycleCommand] struct {
	inner *commands.Handler[T]
}

// NewLifecycleHandler builds the handler of transition T, for example
// NewLifecycleHandler[PublishPageCommand](engine, logger).
func NewLifecycleHandler[T LifecycleCommand](lifecycle PageLifecycle, logger interfaces.Logger, opts ...commands.HandlerOption[T]) *LifecycleHandler[T] {
	baseLogger := logging.Ensure(logger)
	var zero T
	operation := zero.Type()

	exec := func(ctx context.Context, msg T) error {
		page, err := transition(ctx, lifecycle, msg)
		if err != nil {
			return err
		}
		fields := map[string]any{"page_id": msg.pageID(), "transition": operation}
		if page != nil {
			fields["slug"] = page.Slug
			fields["status"] = page.Status
		}
		logging.WithFields(baseLogger, fields).Info("pages.command.lifecycle.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[T]{
		commands.WithLogger[T](baseLogger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(func(msg T) map[string]any {
			return map[string]any{"page_id": msg.pageID()}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[T](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LifecycleHandler[T]{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[T].
func (h *LifecycleHandler[T]) Execute(ctx context.Context, msg T) error {
	return h.inner.Execute(ctx, msg)
}

func transition[T LifecycleCommand](ctx context.Context, lifecycle PageLifecycle, msg T) (*pages.Page, error) {
	switch m := any(msg).(type) {
	case PublishPageCommand:
		return lifecycle.Publish(ctx, m.PageID)
	case UnpublishPageCommand:
		return lifecycle.Unpublish(ctx, m.PageID)
	case ArchivePageCommand:
		return nil, lifecycle.Archive(ctx, m.PageID)
	case RestorePageCommand:
		return lifecycle.Restore(ctx, m.PageID)
	}
	return nil, fmt.Errorf("pages command: unknown transition %T", msg)
}

func validatePageID(id uuid.UUID, code string) error {
	return validation.Errors{
		"page_id": validation.Validate(id, validation.By(requireUUID(code))),
	}.Filter()
}
