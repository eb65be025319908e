package pagescmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const invalidateRenderCacheMessageType = "pagebuilder.pages.render_cache.invalidate"

// RenderCache drops cached published renders.
type RenderCache interface {
	InvalidateRender(ctx context.Context, slug string) error
}

// InvalidateRenderCacheCommand forces the next public read of Slug to
// render from storage.
type InvalidateRenderCacheCommand struct {
	Slug string
}

// Type implements command.Message.
func (InvalidateRenderCacheCommand) Type() string { return invalidateRenderCacheMessageType }

// Validate satisfies command.Message.
func (m InvalidateRenderCacheCommand) Validate() error {
	return validation.Errors{
		"slug": validation.Validate(strings.TrimSpace(m.Slug), validation.Required),
	}.Filter()
}

type InvalidateRenderCacheHandler struct {
	inner *commands.Handler[InvalidateRenderCacheCommand]
}

func NewInvalidateRenderCacheHandler(cache RenderCache, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateRenderCacheCommand]) *InvalidateRenderCacheHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg InvalidateRenderCacheCommand) error {
		slug := strings.TrimSpace(msg.Slug)
		if err := cache.InvalidateRender(ctx, slug); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"slug": slug,
		}).Info("pages.command.render_cache.invalidated")
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateRenderCacheCommand]{
		commands.WithLogger[InvalidateRenderCacheCommand](baseLogger),
		commands.WithOperation[InvalidateRenderCacheCommand]("pages.render_cache.invalidate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateRenderCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InvalidateRenderCacheCommand].
func (h *InvalidateRenderCacheHandler) Execute(ctx context.Context, msg InvalidateRenderCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}
