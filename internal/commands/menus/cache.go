package menuscmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const invalidateMenuCacheMessageType = "pagebuilder.menus.cache.invalidate"

var ErrMenusModuleDisabled = errors.New("menus command: module disabled")

// FeatureGates exposes the runtime toggle required by menu command handlers.
type FeatureGates struct {
	MenusEnabled func() bool
}

func (g FeatureGates) menusEnabled() bool {
	if g.MenusEnabled == nil {
		return true
	}
	return g.MenusEnabled()
}

// InvalidateMenuCacheCommand clears the cached public tree of a menu.
type InvalidateMenuCacheCommand struct {
	Slug string
}

// Type implements command.Message.
func (InvalidateMenuCacheCommand) Type() string { return invalidateMenuCacheMessageType }

// Validate satisfies command.Message.
func (m InvalidateMenuCacheCommand) Validate() error {
	return validation.Errors{
		"slug": validation.Validate(strings.TrimSpace(m.Slug), validation.Required),
	}.Filter()
}

// InvalidateMenuCacheHandler orchestrates menu cache invalidation.
type InvalidateMenuCacheHandler struct {
	inner *commands.Handler[InvalidateMenuCacheCommand]
}

// NewInvalidateMenuCacheHandler constructs a handler wired to the provided menu service.
func NewInvalidateMenuCacheHandler(service menus.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[InvalidateMenuCacheCommand]) *InvalidateMenuCacheHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg InvalidateMenuCacheCommand) error {
		if !gates.menusEnabled() {
			return ErrMenusModuleDisabled
		}
		if err := service.InvalidateCache(ctx, msg.Slug); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"operation": "invalidate",
			"menu_slug": strings.TrimSpace(msg.Slug),
		}).Info("menus.command.cache.invalidated")
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateMenuCacheCommand]{
		commands.WithLogger[InvalidateMenuCacheCommand](baseLogger),
		commands.WithOperation[InvalidateMenuCacheCommand]("menus.cache.invalidate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateMenuCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InvalidateMenuCacheCommand].
func (h *InvalidateMenuCacheHandler) Execute(ctx context.Context, msg InvalidateMenuCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}
