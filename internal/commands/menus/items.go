package menuscmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	rules "github.com/goliatone/go-pagebuilder/internal/validation"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	addMenuItemMessageType    = "pagebuilder.menus.item.add"
	updateMenuItemMessageType = "pagebuilder.menus.item.update"
	deleteMenuItemMessageType = "pagebuilder.menus.item.delete"
)

var (
	_ command.Commander[AddMenuItemCommand]    = (*AddMenuItemHandler)(nil)
	_ command.Commander[UpdateMenuItemCommand] = (*UpdateMenuItemHandler)(nil)
	_ command.Commander[DeleteMenuItemCommand] = (*DeleteMenuItemHandler)(nil)
)

// AddMenuItemCommand inserts one item into the menu named by MenuSlug.
type AddMenuItemCommand struct {
	MenuSlug string
	Item     menus.ItemRequest
}

// Type implements command.Message.
func (AddMenuItemCommand) Type() string { return addMenuItemMessageType }

// Validate satisfies command.Message.
func (m AddMenuItemCommand) Validate() error {
	return itemErrors(m.MenuSlug, nil, &m.Item)
}

// UpdateMenuItemCommand rewrites one item, moving it when Item.ParentID or
// Item.Position differ from the stored values.
type UpdateMenuItemCommand struct {
	MenuSlug string
	ItemID   uuid.UUID
	Item     menus.ItemRequest
}

// Type implements command.Message.
func (UpdateMenuItemCommand) Type() string { return updateMenuItemMessageType }

// Validate satisfies command.Message.
func (m UpdateMenuItemCommand) Validate() error {
	return itemErrors(m.MenuSlug, &m.ItemID, &m.Item)
}

// DeleteMenuItemCommand removes one item together with its descendants.
type DeleteMenuItemCommand struct {
	MenuSlug string
	ItemID   uuid.UUID
}

// Type implements command.Message.
func (DeleteMenuItemCommand) Type() string { return deleteMenuItemMessageType }

// Validate satisfies command.Message.
func (m DeleteMenuItemCommand) Validate() error {
	return itemErrors(m.MenuSlug, &m.ItemID, nil)
}

func itemErrors(slug string, itemID *uuid.UUID, item *menus.ItemRequest) error {
	errs := validation.Errors{
		"menu_slug": validation.Validate(strings.TrimSpace(slug), validation.Required),
	}
	if itemID != nil && *itemID == uuid.Nil {
		errs["item_id"] = validation.NewError("pagebuilder.menus.item.id_required", "item id is required")
	}
	if item != nil {
		if err := rules.MenuItem(*item); err != nil {
			var fieldErrs validation.Errors
			if !errors.As(err, &fieldErrs) {
				return err
			}
			for key, value := range fieldErrs {
				errs["item."+key] = value
			}
		}
	}
	return errs.Filter()
}

// AddMenuItemHandler adds single items through the menu service.
type AddMenuItemHandler struct {
	inner *commands.Handler[AddMenuItemCommand]
}

func NewAddMenuItemHandler(service menus.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[AddMenuItemCommand]) *AddMenuItemHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg AddMenuItemCommand) error {
		if !gates.menusEnabled() {
			return ErrMenusModuleDisabled
		}
		item, err := service.AddItem(ctx, msg.MenuSlug, msg.Item)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"item_id":  item.ID,
			"position": item.Position,
		}).Info("menus.command.item.added")
		return nil
	}

	handlerOpts := []commands.HandlerOption[AddMenuItemCommand]{
		commands.WithLogger[AddMenuItemCommand](baseLogger),
		commands.WithOperation[AddMenuItemCommand]("menus.item.add"),
		commands.WithMessageFields(func(msg AddMenuItemCommand) map[string]any {
			return map[string]any{"menu_slug": strings.TrimSpace(msg.MenuSlug), "label": strings.TrimSpace(msg.Item.Label)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[AddMenuItemCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &AddMenuItemHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[AddMenuItemCommand].
func (h *AddMenuItemHandler) Execute(ctx context.Context, msg AddMenuItemCommand) error {
	return h.inner.Execute(ctx, msg)
}

type UpdateMenuItemHandler struct {
	inner *commands.Handler[UpdateMenuItemCommand]
}

func NewUpdateMenuItemHandler(service menus.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[UpdateMenuItemCommand]) *UpdateMenuItemHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg UpdateMenuItemCommand) error {
		if !gates.menusEnabled() {
			return ErrMenusModuleDisabled
		}
		item, err := service.UpdateItem(ctx, msg.MenuSlug, msg.ItemID, msg.Item)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"item_id":  item.ID,
			"position": item.Position,
		}).Info("menus.command.item.updated")
		return nil
	}

	handlerOpts := []commands.HandlerOption[UpdateMenuItemCommand]{
		commands.WithLogger[UpdateMenuItemCommand](baseLogger),
		commands.WithOperation[UpdateMenuItemCommand]("menus.item.update"),
		commands.WithMessageFields(func(msg UpdateMenuItemCommand) map[string]any {
			return map[string]any{"menu_slug": strings.TrimSpace(msg.MenuSlug), "item_id": msg.ItemID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UpdateMenuItemCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UpdateMenuItemHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UpdateMenuItemCommand].
func (h *UpdateMenuItemHandler) Execute(ctx context.Context, msg UpdateMenuItemCommand) error {
	return h.inner.Execute(ctx, msg)
}

type DeleteMenuItemHandler struct {
	inner *commands.Handler[DeleteMenuItemCommand]
}

func NewDeleteMenuItemHandler(service menus.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DeleteMenuItemCommand]) *DeleteMenuItemHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg DeleteMenuItemCommand) error {
		if !gates.menusEnabled() {
			return ErrMenusModuleDisabled
		}
		removed, err := service.DeleteItem(ctx, msg.MenuSlug, msg.ItemID)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"item_id": msg.ItemID,
			"removed": removed,
		}).Info("menus.command.item.deleted")
		return nil
	}

	handlerOpts := []commands.HandlerOption[DeleteMenuItemCommand]{
		commands.WithLogger[DeleteMenuItemCommand](baseLogger),
		commands.WithOperation[DeleteMenuItemCommand]("menus.item.delete"),
		commands.WithMessageFields(func(msg DeleteMenuItemCommand) map[string]any {
			return map[string]any{"menu_slug": strings.TrimSpace(msg.MenuSlug), "item_id": msg.ItemID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DeleteMenuItemCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeleteMenuItemHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DeleteMenuItemCommand].
func (h *DeleteMenuItemHandler) Execute(ctx context.Context, msg DeleteMenuItemCommand) error {
	return h.inner.Execute(ctx, msg)
}
