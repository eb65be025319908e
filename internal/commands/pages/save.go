package pagescmd

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	rules "github.com/goliatone/go-pagebuilder/internal/validation"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	savePageMessageType   = "pagebuilder.pages.save"
	deletePageMessageType = "pagebuilder.pages.delete"
)

// PageWriter is the composition side of the page module.
type PageWriter interface {
	Create(ctx context.Context, req pages.SavePageRequest, author *uuid.UUID) (*pages.Page, error)
	Update(ctx context.Context, pageID uuid.UUID, req pages.SavePageRequest, opts pages.UpdateOptions) (*pages.Page, error)
	Delete(ctx context.Context, pageID uuid.UUID, opts pages.DeleteOptions) error
}

var (
	_ command.Commander[SavePageCommand]   = (*SavePageHandler)(nil)
	_ command.Commander[DeletePageCommand] = (*DeletePageHandler)(nil)
)

// SavePageCommand creates a page when PageID is nil and updates it otherwise.
type SavePageCommand struct {
	PageID   *uuid.UUID
	Request  pages.SavePageRequest
	AuthorID *uuid.UUID
	// PruneOrphans falls back to the configured default when nil.
	PruneOrphans *bool
}

// Type implements command.Message.
func (SavePageCommand) Type() string { return savePageMessageType }

// Validate satisfies command.Message.
func (m SavePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID != nil && *m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("pagebuilder.pages.save.page_id_invalid", "page id must not be the nil uuid")
	}
	if err := rules.PageRequest(m.Request); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for key, value := range fieldErrs {
			errs[key] = value
		}
	}
	return errs.Filter()
}

// SavePageHandler runs the composition engine for SavePageCommand messages.
type SavePageHandler struct {
	inner *commands.Handler[SavePageCommand]
}

// NewSavePageHandler constructs a handler wired to the composition engine.
func NewSavePageHandler(writer PageWriter, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SavePageCommand]) *SavePageHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg SavePageCommand) error {
		if gates.schemaValidation() {
			if err := rules.ValidatePagePayload(msg.Request); err != nil {
				return commands.WrapValidation(err)
			}
		}

		var (
			page *pages.Page
			err  error
		)
		if msg.PageID == nil {
			page, err = writer.Create(ctx, msg.Request, msg.AuthorID)
		} else {
			page, err = writer.Update(ctx, *msg.PageID, msg.Request, pages.UpdateOptions{
				PruneOrphans: gates.pruneOrphans(msg.PruneOrphans),
			})
		}
		if err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"page_id":  page.ID,
			"slug":     page.Slug,
			"sections": len(msg.Request.Sections),
		}).Info("pages.command.save.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SavePageCommand]{
		commands.WithLogger[SavePageCommand](baseLogger),
		commands.WithOperation[SavePageCommand]("pages.save"),
		commands.WithMessageFields(func(msg SavePageCommand) map[string]any {
			fields := map[string]any{"title": msg.Request.Title}
			if msg.PageID != nil {
				fields["page_id"] = *msg.PageID
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SavePageCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SavePageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SavePageCommand].
func (h *SavePageHandler) Execute(ctx context.Context, msg SavePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeletePageCommand soft-deletes a page and detaches its sections.
type DeletePageCommand struct {
	PageID       uuid.UUID
	PruneOrphans *bool
}

// Type implements command.Message.
func (DeletePageCommand) Type() string { return deletePageMessageType }

// Validate satisfies command.Message.
func (m DeletePageCommand) Validate() error {
	return validation.Errors{
		"page_id": validation.Validate(m.PageID, validation.By(requireUUID("pagebuilder.pages.delete.page_id_required"))),
	}.Filter()
}

// DeletePageHandler removes pages through the composition engine.
type DeletePageHandler struct {
	inner *commands.Handler[DeletePageCommand]
}

func NewDeletePageHandler(writer PageWriter, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DeletePageCommand]) *DeletePageHandler {
	baseLogger := logging.Ensure(logger)

	exec := func(ctx context.Context, msg DeletePageCommand) error {
		prune := gates.pruneOrphans(msg.PruneOrphans)
		if err := writer.Delete(ctx, msg.PageID, pages.DeleteOptions{PruneOrphans: prune}); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"page_id": msg.PageID,
			"pruned":  prune,
		}).Info("pages.command.delete.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[DeletePageCommand]{
		commands.WithLogger[DeletePageCommand](baseLogger),
		commands.WithOperation[DeletePageCommand]("pages.delete"),
		commands.WithMessageFields(func(msg DeletePageCommand) map[string]any {
			return map[string]any{"page_id": msg.PageID}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DeletePageCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeletePageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DeletePageCommand].
func (h *DeletePageHandler) Execute(ctx context.Context, msg DeletePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

func requireUUID(code string) validation.RuleFunc {
	return func(value any) error {
		id, _ := value.(uuid.UUID)
		if id == uuid.Nil {
			return validation.NewError(code, "is required")
		}
		return nil
	}
}
