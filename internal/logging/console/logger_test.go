package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/logging/console"
)

func TestConsoleLoggerFormatsSortedFields(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 2, 3, 10, 30, 0, 0, time.UTC)
	level := console.LevelDebug

	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
		MinLevel: &level,
	})

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "r-1"})
	logger := provider.GetLogger("pagebuilder.pages").
		WithContext(ctx)
	logger = logging.WithFields(logger, map[string]any{"module": "pagebuilder.pages"})

	pageID := uuid.MustParse("0b8d2f7c-4f3b-4e4e-9b7f-0f8c4d6a1a11")
	logger.Info("pages.engine.saved", "page_id", pageID, "slug", "about us")

	got := strings.TrimSpace(buf.String())
	want := `2025-02-03T10:30:00Z INFO pages.engine.saved logger=pagebuilder.pages module=pagebuilder.pages page_id=0b8d2f7c-4f3b-4e4e-9b7f-0f8c4d6a1a11 request_id=r-1 slug="about us"`
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	level := console.ParseLevel("warn")
	logger := console.NewProvider(console.Options{Writer: &buf, MinLevel: &level}).GetLogger("t")

	logger.Info("dropped")
	logger.Error("kept", "error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info entry should be filtered: %s", out)
	}
	if !strings.Contains(out, "ERROR kept") || !strings.Contains(out, "error=boom") {
		t.Fatalf("expected error entry, got %s", out)
	}
}

func TestConsoleLoggerKeepsDanglingArgument(t *testing.T) {
	var buf bytes.Buffer
	console.NewProvider(console.Options{Writer: &buf}).GetLogger("t").Debug("odd", "lonely")
	if !strings.Contains(buf.String(), "arg_0=lonely") {
		t.Fatalf("expected positional field, got %s", buf.String())
	}
}
