package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Options configures the goldmark engine.
type Options struct {
	Extensions []string
	HardWraps  bool
	// Unsafe lets raw HTML in markdown through. Post bodies are authored by
	// trusted editors so the module enables it by default.
	Unsafe bool
}

// Renderer implements interfaces.MarkdownRenderer. The engine is built once
// and is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

var _ interfaces.MarkdownRenderer = (*Renderer)(nil)

func NewRenderer(opts Options) *Renderer {
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	engine := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(extensionsFor(opts.Extensions)...),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Renderer{engine: engine}
}

// Default renders GFM with raw HTML allowed.
func Default() *Renderer {
	return NewRenderer(Options{Unsafe: true})
}

func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

var knownExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

func extensionsFor(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}
	seen := map[string]bool{}
	var out []goldmark.Extender
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := knownExtensions[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out
}
