package validation_test

import (
	"errors"
	"strings"
	"testing"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/sections"
	"github.com/goliatone/go-pagebuilder/internal/validation"
)

func validPage() pages.SavePageRequest {
	postID := uuid.New()
	return pages.SavePageRequest{
		Title:  "About",
		Status: "Published",
		Sections: []sections.Payload{{
			Title: "Story",
			Layout: sections.Layout{ColumnsCount: 2, Columns: []sections.Column{
				{Index: 0, Blocks: []sections.BlockPayload{{ContentType: "post", ContentID: &postID}}},
				{Index: 1, Blocks: []sections.BlockPayload{{ContentType: "html", HTML: "<p>x</p>", Format: "markdown"}}},
			}},
		}},
	}
}

func TestPagePayloadSchemaCompiles(t *testing.T) {
	if err := validation.ValidateSchema(validation.PagePayloadSchema()); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

func TestValidatePagePayloadAcceptsRequests(t *testing.T) {
	if err := validation.ValidatePagePayload(validPage()); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
	raw := []byte(`{"title":"Home","sections":[{"title":"Hero","layout":{"columns":[{"index":0,"blocks":[{"contentType":"carousel"}]}]}}]}`)
	if err := validation.ValidatePagePayload(raw); err != nil {
		t.Fatalf("expected unknown content types to pass the schema, got %v", err)
	}
}

func TestValidatePagePayloadReportsLocations(t *testing.T) {
	cases := map[string]string{
		"missing title":     `{"sections":[]}`,
		"columns count":     `{"title":"x","sections":[{"layout":{"columns_count":5}}]}`,
		"column index":      `{"title":"x","sections":[{"layout":{"columns":[{"index":4}]}}]}`,
		"status":            `{"title":"x","status":"archived"}`,
		"missing type":      `{"title":"x","sections":[{"layout":{"columns":[{"index":0,"blocks":[{}]}]}}]}`,
		"unknown format":    `{"title":"x","sections":[{"layout":{"columns":[{"index":0,"blocks":[{"contentType":"html","format":"rst"}]}]}}]}`,
		"fractional column": `{"title":"x","sections":[{"layout":{"columns":[{"index":0.5}]}}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := validation.ValidatePagePayload([]byte(payload))
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected schema validation error, got %v", err)
			}
			if len(validation.Issues(err)) == 0 {
				t.Fatalf("expected issues for %s", payload)
			}
		})
	}
}

func TestPageRequestRules(t *testing.T) {
	if err := validation.PageRequest(validPage()); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req := validPage()
	req.Title = "  "
	req.Status = "archived"
	req.Sections[0].Layout.ColumnsCount = 6
	req.Sections[0].Layout.Columns[1].Index = 4
	req.Sections[0].Layout.Columns[0].Blocks[0].ContentID = nil
	req.Sections[0].Layout.Columns[1].Blocks = append(req.Sections[0].Layout.Columns[1].Blocks, sections.BlockPayload{})

	err := validation.PageRequest(req)
	var errs ozzo.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ozzo errors, got %T %v", err, err)
	}
	for _, key := range []string{
		"title",
		"status",
		"sections.0.layout.columns_count",
		"sections.0.layout.columns.1.index",
		"sections.0.layout.columns.0.blocks.0.contentId",
		"sections.0.layout.columns.1.blocks.1.contentType",
	} {
		if errs[key] == nil {
			t.Fatalf("expected error for %s, got %v", key, errs)
		}
	}

	blank := " "
	if err := validation.PageRequest(pages.SavePageRequest{Title: "x", Slug: &blank}); err == nil {
		t.Fatalf("expected blank slug to be rejected")
	}
}

func TestMenuTreeRules(t *testing.T) {
	nodes := []menus.Node{
		{Label: "Company", Children: []menus.Node{{Label: "Team"}, {Label: "Jobs"}}},
		{Label: "Team"},
	}
	if err := validation.MenuTree(nodes); err != nil {
		t.Fatalf("expected labels unique per sibling scope to pass, got %v", err)
	}

	nodes = []menus.Node{
		{Label: "Company", Children: []menus.Node{{Label: "Team"}, {Label: " Team "}}},
		{Label: ""},
		{Label: strings.Repeat("a", validation.MaxMenuLabelLength+1)},
	}
	err := validation.MenuTree(nodes)
	var errs ozzo.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ozzo errors, got %v", err)
	}
	for _, key := range []string{"items.0.children.1.label", "items.1.label", "items.2.label"} {
		if errs[key] == nil {
			t.Fatalf("expected error for %s, got %v", key, errs)
		}
	}
	if errs["items.0.children.0.label"] != nil {
		t.Fatalf("the first occurrence must not be flagged")
	}
}

func TestPostRequestRules(t *testing.T) {
	if err := validation.PostRequest(content.SavePostRequest{Title: "Launch", Status: "draft"}); err != nil {
		t.Fatalf("expected valid post, got %v", err)
	}
	err := validation.PostRequest(content.SavePostRequest{Status: "live", Tags: []string{strings.Repeat("t", 65)}})
	var errs ozzo.Errors
	if !errors.As(err, &errs) || errs["title"] == nil || errs["status"] == nil || errs["tags"] == nil {
		t.Fatalf("expected title, status and tags errors, got %v", err)
	}
}
