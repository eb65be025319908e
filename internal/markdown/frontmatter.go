package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// PostFrontMatter is the metadata block accepted at the top of a markdown post.
type PostFrontMatter struct {
	Title   string         `yaml:"title" toml:"title" json:"title"`
	Slug    string         `yaml:"slug" toml:"slug" json:"slug"`
	Excerpt string         `yaml:"excerpt" toml:"excerpt" json:"excerpt"`
	Summary string         `yaml:"summary" toml:"summary" json:"summary"`
	Status  string         `yaml:"status" toml:"status" json:"status"`
	Draft   bool           `yaml:"draft" toml:"draft" json:"draft"`
	Tags    []string       `yaml:"tags" toml:"tags" json:"tags"`
	Date    time.Time      `yaml:"date" toml:"date" json:"date"`
	Extra   map[string]any `yaml:",inline" json:"-"`
}

// EffectiveExcerpt prefers excerpt over the older summary key.
func (fm PostFrontMatter) EffectiveExcerpt() string {
	if excerpt := strings.TrimSpace(fm.Excerpt); excerpt != "" {
		return excerpt
	}
	return strings.TrimSpace(fm.Summary)
}

// EffectiveStatus maps draft: true to "draft" when no status is given.
func (fm PostFrontMatter) EffectiveStatus() string {
	if status := strings.TrimSpace(fm.Status); status != "" {
		return status
	}
	if fm.Draft {
		return "draft"
	}
	return ""
}

// ParseFrontMatter splits source into metadata and markdown body. Sources
// without a front matter block yield empty metadata and the whole input.
func ParseFrontMatter(source []byte) (PostFrontMatter, []byte, error) {
	var meta PostFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return PostFrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}
