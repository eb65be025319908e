package menuscmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	rules "github.com/goliatone/go-pagebuilder/internal/validation"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const syncMenuTreeMessageType = "pagebuilder.menus.sync"

var _ command.Commander[SyncMenuTreeCommand] = (*SyncMenuTreeHandler)(nil)

// SyncMenuTreeCommand replaces the item tree of the menu named by Slug.
type SyncMenuTreeCommand struct {
	Slug  string
	Name  string
	Items []menus.Node
}

// Type implements command.Message.
func (SyncMenuTreeCommand) Type() string { return syncMenuTreeMessageType }

// Validate satisfies command.Message.
func (m SyncMenuTreeCommand) Validate() error {
	errs := validation.Errors{
		"slug": validation.Validate(strings.TrimSpace(m.Slug), validation.Required),
	}
	if err := rules.MenuTree(m.Items); err != nil {
		var itemErrs validation.Errors
		if !errors.As(err, &itemErrs) {
			return err
		}
		for key, value := range itemErrs {
			errs[key] = value
		}
	}
	return errs.Filter()
}

// SyncMenuTreeHandler saves menu trees through the menu service.
type SyncMenuTreeHandler struct {
	inner *commands.Handler[SyncMenuTreeCommand]
}

func NewSyncMenuTreeHandler(service menus.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SyncMenuTreeCommand]) *SyncMenuTreeHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg SyncMenuTreeCommand) error {
		if !gates.menusEnabled() {
			return ErrMenusModuleDisabled
		}
		result, err := service.SaveTree(ctx, menus.SaveTreeRequest{
			Slug:  msg.Slug,
			Name:  msg.Name,
			Items: msg.Items,
		})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"menu_id": result.Menu.ID,
			"items":   len(result.ItemIDs),
			"pruned":  result.Pruned,
		}).Info("menus.command.sync.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SyncMenuTreeCommand]{
		commands.WithLogger[SyncMenuTreeCommand](baseLogger),
		commands.WithOperation[SyncMenuTreeCommand]("menus.sync"),
		commands.WithMessageFields(func(msg SyncMenuTreeCommand) map[string]any {
			return map[string]any{"menu_slug": strings.TrimSpace(msg.Slug)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncMenuTreeCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncMenuTreeHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SyncMenuTreeCommand].
func (h *SyncMenuTreeHandler) Execute(ctx context.Context, msg SyncMenuTreeCommand) error {
	return h.inner.Execute(ctx, msg)
}
