package pages_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/sections"
)

func TestRenderBySlugResolvesBlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.seedPost(t, "Our story", "<p>story</p>")
	media := f.seedMedia(t, "team.jpg")

	req := aboutRequest(post, media)
	req.Sections = append(req.Sections, sections.Payload{
		Title: "Notes",
		Layout: sections.Layout{Columns: []sections.Column{{Index: 0, Blocks: []sections.BlockPayload{
			{ContentType: "html", HTML: "Some **bold** text", Format: content.FormatMarkdown},
			{ContentType: "html", HTML: "<em>raw</em>"},
		}}}},
	})
	if _, err := f.engine.Create(ctx, req, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	rendered, err := f.transformer.RenderBySlug(ctx, "about")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(rendered.Sections) != 2 || rendered.Sections[0].ColumnsCount != 2 {
		t.Fatalf("unexpected sections %+v", rendered.Sections)
	}
	story := rendered.Sections[0].Columns
	if got := story[0].Blocks[0]; got.HTML != "<p>story</p>" || got.Slug != post.Slug {
		t.Fatalf("unexpected post block %+v", got)
	}
	if got := story[1].Blocks[0]; got.URL != media.URL || got.MimeType != "image/jpeg" {
		t.Fatalf("unexpected media block %+v", got)
	}
	notes := rendered.Sections[1].Columns[0].Blocks
	if !strings.Contains(notes[0].HTML, "<strong>bold</strong>") {
		t.Fatalf("expected markdown to be rendered, got %q", notes[0].HTML)
	}
	if notes[1].HTML != "<em>raw</em>" {
		t.Fatalf("expected html to pass through, got %q", notes[1].HTML)
	}
}

func TestRenderBySlugCachesUntilNextWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	page, err := f.engine.Create(ctx, pages.SavePageRequest{Title: "Home", Status: "published"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.transformer.RenderBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// Writes that bypass the engine are not seen until the entry goes.
	if _, err := f.db.NewUpdate().
		Model((*pages.Page)(nil)).
		Set("title = ?", "Sneaky").
		Where("id = ?", page.ID).
		Exec(ctx); err != nil {
		t.Fatalf("direct update: %v", err)
	}
	second, err := f.transformer.RenderBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("render again: %v", err)
	}
	if first != second || second.Title != "Home" {
		t.Fatalf("expected the cached render to be returned, got %q", second.Title)
	}

	if _, err := f.engine.Update(ctx, page.ID, pages.SavePageRequest{Title: "Welcome", Status: "published"}, pages.UpdateOptions{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	third, err := f.transformer.RenderBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("render after update: %v", err)
	}
	if third.Title != "Welcome" {
		t.Fatalf("expected fresh render, got %q", third.Title)
	}
}

func TestRenderBySlugHidesUnpublishedPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	page, err := f.engine.Create(ctx, pages.SavePageRequest{Title: "Draft"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if page.Status != domain.StatusDraft || page.PublishedAt != nil {
		t.Fatalf("expected a draft without published_at, got %q %v", page.Status, page.PublishedAt)
	}

	_, err = f.transformer.RenderBySlug(ctx, "draft")
	var notFound *pages.NotFoundError
	if !errors.As(err, &notFound) || !errors.Is(err, pages.ErrPageNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	// Publishing behind the engine's back proves the miss was not cached.
	if _, err := f.db.NewUpdate().
		Model((*pages.Page)(nil)).
		Set("status = ?", domain.StatusPublished).
		Where("id = ?", page.ID).
		Exec(ctx); err != nil {
		t.Fatalf("direct publish: %v", err)
	}
	if _, err := f.transformer.RenderBySlug(ctx, "draft"); err != nil {
		t.Fatalf("expected published page to render: %v", err)
	}

	if err := f.engine.Delete(ctx, page.ID, pages.DeleteOptions{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.transformer.RenderBySlug(ctx, "draft"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted page to be not found, got %v", err)
	}
}

func TestEditableViewLabelsMissingTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.seedPost(t, "Retired", "<p>old</p>")

	page, err := f.engine.Create(ctx, pages.SavePageRequest{Title: "Blog", Sections: []sections.Payload{{
		Title: "Feed",
		Layout: sections.Layout{Columns: []sections.Column{{Index: 0, Blocks: []sections.BlockPayload{
			{ContentType: "post", ContentID: &post.ID},
		}}}},
	}}}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.db.NewUpdate().
		Model((*content.Post)(nil)).
		Set("deleted_at = ?", fixedNow).
		Where("id = ?", post.ID).
		Exec(ctx); err != nil {
		t.Fatalf("soft delete post: %v", err)
	}
	dto, err := f.transformer.ToEditableDTO(ctx, page.ID)
	if err != nil {
		t.Fatalf("editable: %v", err)
	}
	if got := dto.Sections[0].Layout.Columns[0].Blocks[0].Title; got != pages.UntitledContent {
		t.Fatalf("expected %q, got %q", pages.UntitledContent, got)
	}
}

func TestContentChangedDropsRendersOfEmbeddingPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.seedPost(t, "Our story", "<p>story</p>")
	media := f.seedMedia(t, "team.jpg")
	other := f.seedPost(t, "Elsewhere", "<p>elsewhere</p>")

	if _, err := f.engine.Create(ctx, aboutRequest(post, media), nil); err != nil {
		t.Fatalf("create about: %v", err)
	}
	otherReq := pages.SavePageRequest{Title: "Other", Status: "published", Sections: []sections.Payload{{
		Title:  "Body",
		Layout: sections.Layout{Columns: []sections.Column{{Index: 0, Blocks: []sections.BlockPayload{{ContentType: "post", ContentID: &other.ID}}}}},
	}}}
	if _, err := f.engine.Create(ctx, otherReq, nil); err != nil {
		t.Fatalf("create other: %v", err)
	}
	for _, slug := range []string{"about", "other"} {
		if _, err := f.transformer.RenderBySlug(ctx, slug); err != nil {
			t.Fatalf("render %s: %v", slug, err)
		}
	}

	found, err := pages.EmbeddingSlugs(ctx, f.db, domain.KindPost, post.ID)
	if err != nil {
		t.Fatalf("embedding slugs: %v", err)
	}
	if len(found) != 1 || found[0] != "about" {
		t.Fatalf("expected only about to embed the post, got %v", found)
	}

	for _, id := range []uuid.UUID{post.ID, other.ID} {
		if _, err := f.db.NewUpdate().
			Model((*content.Post)(nil)).
			Set("content_html = ?", "<p>edited</p>").
			Where("id = ?", id).
			Exec(ctx); err != nil {
			t.Fatalf("edit post: %v", err)
		}
	}
	if err := f.engine.ContentChanged(ctx, content.Change{Kind: domain.KindPost, ID: post.ID}); err != nil {
		t.Fatalf("content changed: %v", err)
	}

	about, err := f.transformer.RenderBySlug(ctx, "about")
	if err != nil {
		t.Fatalf("render about: %v", err)
	}
	if got := about.Sections[0].Columns[0].Blocks[0].HTML; got != "<p>edited</p>" {
		t.Fatalf("expected the embedding page to re-render, got %q", got)
	}
	stale, err := f.transformer.RenderBySlug(ctx, "other")
	if err != nil {
		t.Fatalf("render other: %v", err)
	}
	if got := stale.Sections[0].Columns[0].Blocks[0].HTML; got != "<p>elsewhere</p>" {
		t.Fatalf("expected unrelated page to stay cached, got %q", got)
	}

	if err := f.engine.ContentChanged(ctx, content.Change{Kind: domain.KindMedia, ID: media.ID}); err != nil {
		t.Fatalf("media changed: %v", err)
	}
}
