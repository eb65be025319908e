package contentcmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	rules "github.com/goliatone/go-pagebuilder/internal/validation"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	savePostMessageType           = "pagebuilder.content.post.save"
	importMarkdownPostMessageType = "pagebuilder.content.post.import_markdown"
)

var (
	_ command.Commander[SavePostCommand]           = (*SavePostHandler)(nil)
	_ command.Commander[ImportMarkdownPostCommand] = (*ImportMarkdownPostHandler)(nil)
)

// SavePostCommand creates or updates a post.
type SavePostCommand struct {
	Request content.SavePostRequest
}

// Type implements command.Message.
func (SavePostCommand) Type() string { return savePostMessageType }

// Validate satisfies command.Message.
func (m SavePostCommand) Validate() error {
	if m.Request.ID != nil && *m.Request.ID == uuid.Nil {
		return validation.Errors{
			"id": validation.NewError("pagebuilder.content.post.id_invalid", "post id must not be the nil uuid"),
		}
	}
	return rules.PostRequest(m.Request)
}

type SavePostHandler struct {
	inner *commands.Handler[SavePostCommand]
}

func NewSavePostHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SavePostCommand]) *SavePostHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg SavePostCommand) error {
		post, err := service.SavePost(ctx, msg.Request)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"post_id": post.ID,
			"slug":    post.Slug,
		}).Info("content.command.post.saved")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SavePostCommand]{
		commands.WithLogger[SavePostCommand](baseLogger),
		commands.WithOperation[SavePostCommand]("content.post.save"),
		commands.WithMessageFields(func(msg SavePostCommand) map[string]any {
			return map[string]any{"title": strings.TrimSpace(msg.Request.Title)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SavePostCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SavePostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SavePostCommand].
func (h *SavePostHandler) Execute(ctx context.Context, msg SavePostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportMarkdownPostCommand upserts a post from a markdown document with
// front matter. The post is matched by slug.
type ImportMarkdownPostCommand struct {
	Source   []byte
	AuthorID *uuid.UUID
}

// Type implements command.Message.
func (ImportMarkdownPostCommand) Type() string { return importMarkdownPostMessageType }

// Validate satisfies command.Message.
func (m ImportMarkdownPostCommand) Validate() error {
	if len(strings.TrimSpace(string(m.Source))) == 0 {
		return validation.Errors{
			"source": validation.NewError("pagebuilder.content.post.source_required", "markdown source is required"),
		}
	}
	return nil
}

type ImportMarkdownPostHandler struct {
	inner *commands.Handler[ImportMarkdownPostCommand]
}

func NewImportMarkdownPostHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ImportMarkdownPostCommand]) *ImportMarkdownPostHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg ImportMarkdownPostCommand) error {
		post, err := service.ImportMarkdownPost(ctx, content.ImportMarkdownRequest{
			Source:   msg.Source,
			AuthorID: msg.AuthorID,
		})
		if err != nil {
			if errors.Is(err, content.ErrTitleRequired) {
				return commands.WrapValidation(err)
			}
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"post_id": post.ID,
			"slug":    post.Slug,
		}).Info("content.command.post.imported")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportMarkdownPostCommand]{
		commands.WithLogger[ImportMarkdownPostCommand](baseLogger),
		commands.WithOperation[ImportMarkdownPostCommand]("content.post.import_markdown"),
		commands.WithMessageFields(func(msg ImportMarkdownPostCommand) map[string]any {
			return map[string]any{"source_bytes": len(msg.Source)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportMarkdownPostCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportMarkdownPostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportMarkdownPostCommand].
func (h *ImportMarkdownPostHandler) Execute(ctx context.Context, msg ImportMarkdownPostCommand) error {
	return h.inner.Execute(ctx, msg)
}
