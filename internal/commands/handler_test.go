package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "pagebuilder.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "pagebuilder.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

type fieldsMessage struct {
	Slug string
}

func (fieldsMessage) Type() string { return "pagebuilder.test.fields" }

func (fieldsMessage) Validate() error { return nil }

func TestHandlerReportsTelemetry(t *testing.T) {
	var infos []TelemetryInfo
	h := NewHandler[fieldsMessage](func(ctx context.Context, msg fieldsMessage) error {
		if msg.Slug == "broken" {
			return errors.New("boom")
		}
		return nil
	},
		WithOperation[fieldsMessage]("test.fields"),
		WithMessageFields(func(msg fieldsMessage) map[string]any {
			return map[string]any{"slug": msg.Slug}
		}),
		WithTelemetry[fieldsMessage](func(_ context.Context, _ fieldsMessage, info TelemetryInfo) {
			infos = append(infos, info)
		}),
	)

	if err := h.Execute(context.Background(), fieldsMessage{Slug: "about"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := h.Execute(context.Background(), fieldsMessage{Slug: "broken"}); err == nil {
		t.Fatal("expected execution error")
	}

	if len(infos) != 2 {
		t.Fatalf("expected two telemetry reports, got %d", len(infos))
	}
	first := infos[0]
	if first.Status != TelemetryStatusSuccess || first.Command != "pagebuilder.test.fields" || first.Operation != "test.fields" {
		t.Fatalf("unexpected success report %+v", first)
	}
	if first.Fields["slug"] != "about" {
		t.Fatalf("expected message fields in report, got %v", first.Fields)
	}
	if infos[1].Status != TelemetryStatusFailed || infos[1].Error == nil {
		t.Fatalf("unexpected failure report %+v", infos[1])
	}
}

func TestHandlerReportsContextErrors(t *testing.T) {
	var status TelemetryStatus
	h := NewHandler[fieldsMessage](func(ctx context.Context, msg fieldsMessage) error {
		<-ctx.Done()
		return ctx.Err()
	},
		WithTimeout[fieldsMessage](5*time.Millisecond),
		WithTelemetry[fieldsMessage](func(_ context.Context, _ fieldsMessage, info TelemetryInfo) {
			status = info.Status
		}),
	)

	err := h.Execute(context.Background(), fieldsMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if status != TelemetryStatusContextError {
		t.Fatalf("expected context error status, got %q", status)
	}
}

func TestWrapValidationTagsCategory(t *testing.T) {
	if WrapValidation(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
	err := WrapValidation(errors.New("bad payload"))
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

type republishMessage struct {
	Slug string
}

func (republishMessage) Type() string { return "pagebuilder.test.republish" }

func (m republishMessage) Validate() error {
	if m.Slug == "" {
		return validationError()
	}
	return nil
}

func TestDispatchedHandlerRetriesUntilTheWriteLands(t *testing.T) {
	var slugs []string
	failures := 2
	h := NewHandler(func(ctx context.Context, msg republishMessage) error {
		slugs = append(slugs, msg.Slug)
		if failures > 0 {
			failures--
			return errors.New("database is locked")
		}
		return nil
	}, WithTimeout[republishMessage](time.Second))

	sub := dispatcher.SubscribeCommand(h, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), republishMessage{Slug: "about"}); err != nil {
		t.Fatalf("expected the third attempt to succeed, got %v", err)
	}
	if len(slugs) != 3 || slugs[2] != "about" {
		t.Fatalf("expected 3 attempts for about, got %v", slugs)
	}

	slugs = nil
	if err := dispatcher.Dispatch(context.Background(), republishMessage{}); err == nil {
		t.Fatal("expected an invalid message to fail dispatch")
	}
	if len(slugs) != 0 {
		t.Fatalf("expected invalid messages to never reach the write, got %v", slugs)
	}
}
