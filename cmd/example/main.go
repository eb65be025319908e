package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	urlkit "github.com/goliatone/go-urlkit"

	pagebuilder "github.com/goliatone/go-pagebuilder"
	menuscmd "github.com/goliatone/go-pagebuilder/internal/commands/menus"
	"github.com/goliatone/go-pagebuilder/internal/content"
	"github.com/goliatone/go-pagebuilder/internal/domain"
	"github.com/goliatone/go-pagebuilder/internal/menus"
	"github.com/goliatone/go-pagebuilder/internal/pages"
	"github.com/goliatone/go-pagebuilder/internal/sections"
)

const launchPost = `---
title: Launch notes
excerpt: What shipped this quarter.
status: published
tags: [release, product]
---
# Launch notes

We shipped the **page builder**.
`

func main() {
	ctx := context.Background()

	cfg := pagebuilder.DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Navigation.RouteConfig = &urlkit.Config{
		Groups: []urlkit.GroupConfig{{
			Name:    "frontend",
			BaseURL: "https://example.com",
			Paths: map[string]string{
				"page": "/:slug",
				"post": "/blog/:slug",
			},
		}},
	}

	module, err := pagebuilder.New(cfg)
	if err != nil {
		log.Fatalf("initialise page builder: %v", err)
	}
	defer module.Close()

	post, err := module.Content().ImportMarkdownPost(ctx, content.ImportMarkdownRequest{Source: []byte(launchPost)})
	if err != nil {
		log.Fatalf("import post: %v", err)
	}

	banner, err := module.Content().IngestMedia(ctx, content.MediaUpload{
		Filename: "team.png",
		MimeType: "image/png",
		Data:     []byte{0x89, 'P', 'N', 'G'},
		IsPublic: true,
	})
	if err != nil {
		log.Fatalf("ingest media: %v", err)
	}

	about, err := module.Engine().Create(ctx, pages.SavePageRequest{
		Title:  "About Us",
		Status: "published",
		Sections: []sections.Payload{
			{
				Title: "Intro",
				Layout: sections.Layout{Columns: []sections.Column{{
					Index: 0,
					Blocks: []sections.BlockPayload{{
						ContentType: domain.ContentTypeHTML,
						HTML:        "We build **tools** for editors.",
						Format:      "markdown",
					}},
				}}},
			},
			{
				Title:  "Latest",
				UIType: "split",
				Layout: sections.Layout{ColumnsCount: 2, Columns: []sections.Column{
					{Index: 0, Blocks: []sections.BlockPayload{{ContentType: domain.ContentTypePost, ContentID: &post.ID}}},
					{Index: 1, Blocks: []sections.BlockPayload{{ContentType: domain.ContentTypeMedia, ContentID: &banner.ID}}},
				}},
			},
		},
	}, nil)
	if err != nil {
		log.Fatalf("compose page: %v", err)
	}

	sync := module.Commands().SyncMenuTree
	if err := sync.Execute(ctx, menuscmd.SyncMenuTreeCommand{
		Slug: "main",
		Name: "Main navigation",
		Items: []menus.Node{
			{ID: menus.StringID("home"), Label: "Home", URL: "/"},
			{ID: menus.StringID("company"), Label: "Company", Children: []menus.Node{
				{ID: menus.StringID("about"), Label: "About", LinkableType: domain.LinkPage, LinkableID: &about.ID},
				{ID: menus.StringID("launch"), Label: "Launch", LinkableType: domain.LinkPost, LinkableID: &post.ID},
			}},
		},
	}); err != nil {
		log.Fatalf("sync menu: %v", err)
	}

	editable, err := module.Transformer().ToEditableDTO(ctx, about.ID)
	if err != nil {
		log.Fatalf("editable dto: %v", err)
	}
	rendered, err := module.Transformer().RenderBySlug(ctx, about.Slug)
	if err != nil {
		log.Fatalf("render page: %v", err)
	}
	tree, err := module.Menus().PublicTree(ctx, "main")
	if err != nil {
		log.Fatalf("menu tree: %v", err)
	}

	dump("editable", editable)
	dump("rendered", rendered)
	dump("menu", tree)
}

func dump(label string, value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	fmt.Printf("== %s\n", label)
	if err := encoder.Encode(value); err != nil {
		log.Printf("encode %s: %v", label, err)
	}
}
