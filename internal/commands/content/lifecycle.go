package contentcmd

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	publishPostMessageType   = "pagebuilder.content.post.publish"
	unpublishPostMessageType = "pagebuilder.content.post.unpublish"
	archivePostMessageType   = "pagebuilder.content.post.archive"
	restorePostMessageType   = "pagebuilder.content.post.restore"
)

// PostLifecycle is the status side of content.Service.
type PostLifecycle interface {
	PublishPost(ctx context.Context, id uuid.UUID) (*content.Post, error)
	UnpublishPost(ctx context.Context, id uuid.UUID) (*content.Post, error)
	ArchivePost(ctx context.Context, id uuid.UUID) error
	RestorePost(ctx context.Context, id uuid.UUID) (*content.Post, error)
}

var (
	_ command.Commander[PublishPostCommand] = (*PostLifecycleHandler[PublishPostCommand])(nil)
	_ command.Commander[RestorePostCommand] = (*PostLifecycleHandler[RestorePostCommand])(nil)
)

type PublishPostCommand struct {
	PostID uuid.UUID
}

func (PublishPostCommand) Type() string      { return publishPostMessageType }
func (m PublishPostCommand) Validate() error { return validatePostID(m.PostID) }
func (m PublishPostCommand) postID() uuid.UUID {
	return m.PostID
}

type UnpublishPostCommand struct {
	PostID uuid.UUID
}

func (UnpublishPostCommand) Type() string      { return unpublishPostMessageType }
func (m UnpublishPostCommand) Validate() error { return validatePostID(m.PostID) }
func (m UnpublishPostCommand) postID() uuid.UUID {
	return m.PostID
}

// ArchivePostCommand soft-deletes a post. Pages embedding it stop rendering
// the block until it is restored.
type ArchivePostCommand struct {
	PostID uuid.UUID
}

func (ArchivePostCommand) Type() string      { return archivePostMessageType }
func (m ArchivePostCommand) Validate() error { return validatePostID(m.PostID) }
func (m ArchivePostCommand) postID() uuid.UUID {
	return m.PostID
}

// RestorePostCommand brings an archived post back as a draft.
type RestorePostCommand struct {
	PostID uuid.UUID
}

func (RestorePostCommand) Type() string      { return restorePostMessageType }
func (m RestorePostCommand) Validate() error { return validatePostID(m.PostID) }
func (m RestorePostCommand) postID() uuid.UUID {
	return m.PostID
}

// PostLifecycleCommand is any of the post status transitions.
type PostLifecycleCommand interface {
	PublishPostCommand | UnpublishPostCommand | ArchivePostCommand | RestorePostCommand
	command.Message
	postID() uuid.UUID
}

type PostLifecycleHandler[T PostLifecycleCommand] struct {
	inner *commands.Handler[T]
}

func NewPostLifecycleHandler[T PostLifecycleCommand](lifecycle PostLifecycle, logger interfaces.Logger, opts ...commands.HandlerOption[T]) *PostLifecycleHandler[T] {
	baseLogger := logging.Ensure(logger)
	var zero T
	operation := zero.Type()

	exec := func(ctx context.Context, msg T) error {
		var (
			post *content.Post
			err  error
		)
		switch m := any(msg).(type) {
		case PublishPostCommand:
			post, err = lifecycle.PublishPost(ctx, m.PostID)
		case UnpublishPostCommand:
			post, err = lifecycle.UnpublishPost(ctx, m.PostID)
		case ArchivePostCommand:
			err = lifecycle.ArchivePost(ctx, m.PostID)
		case RestorePostCommand:
			post, err = lifecycle.RestorePost(ctx, m.PostID)
		default:
			err = fmt.Errorf("content command: unknown transition %T", msg)
		}
		if err != nil {
			return err
		}
		fields := map[string]any{"post_id": msg.postID(), "transition": operation}
		if post != nil {
			fields["slug"] = post.Slug
			fields["status"] = post.Status
		}
		logging.WithFields(baseLogger, fields).Info("content.command.post.lifecycle")
		return nil
	}

	handlerOpts := []commands.HandlerOption[T]{
		commands.WithLogger[T](baseLogger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(func(msg T) map[string]any {
			return map[string]any{"post_id": msg.postID()}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[T](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PostLifecycleHandler[T]{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[T].
func (h *PostLifecycleHandler[T]) Execute(ctx context.Context, msg T) error {
	return h.inner.Execute(ctx, msg)
}

func validatePostID(id uuid.UUID) error {
	return validation.Errors{
		"post_id": validation.Validate(id, validation.By(func(value any) error {
			if id, _ := value.(uuid.UUID); id == uuid.Nil {
				return validation.NewError("pagebuilder.content.post.id_required", "post id is required")
			}
			return nil
		})),
	}.Filter()
}
