package domain

import "strings"

// ContentKind tags the entity a block wrapper points at.
type ContentKind string

const (
	KindPost  ContentKind = "post"
	KindMedia ContentKind = "media"
	KindHTML  ContentKind = "html"
)

// ContentType values are what editors send and receive in page payloads.
// "block" addresses an existing wrapper rather than a content row.
const (
	ContentTypePost  = "post"
	ContentTypeMedia = "media"
	ContentTypeBlock = "block"
	ContentTypeHTML  = "html"
)

// SharedKind reports whether wrappers of this kind are deduplicated on
// (kind, target_id). Inline HTML has no identity worth sharing.
func (k ContentKind) SharedKind() bool {
	return k == KindPost || k == KindMedia
}

// LayoutType is the stored section layout classification.
type LayoutType string

const (
	LayoutOneColumn    LayoutType = "one_column"
	LayoutTwoColumns   LayoutType = "two_columns"
	LayoutThreeColumns LayoutType = "three_columns"
	LayoutFourColumns  LayoutType = "four_columns"
	LayoutHero         LayoutType = "hero"
	LayoutGallery      LayoutType = "gallery"
)

// LayoutTypes lists every stored layout type.
func LayoutTypes() []LayoutType {
	return []LayoutType{LayoutOneColumn, LayoutTwoColumns, LayoutThreeColumns, LayoutFourColumns, LayoutHero, LayoutGallery}
}

// ParseLayoutType accepts a hint, repairing the two misspellings editors
// have historically sent. ok is false for anything outside LayoutTypes.
func ParseLayoutType(hint string) (LayoutType, bool) {
	value := strings.ToLower(strings.TrimSpace(hint))
	switch value {
	case "tree_columns":
		value = string(LayoutThreeColumns)
	case "for_columns":
		value = string(LayoutFourColumns)
	}
	for _, candidate := range LayoutTypes() {
		if string(candidate) == value {
			return candidate, true
		}
	}
	return "", false
}

// LinkableType tags the entity a menu item links to.
type LinkableType string

const (
	LinkNone LinkableType = ""
	LinkPage LinkableType = "page"
	LinkPost LinkableType = "post"
)

func ParseLinkableType(input string) LinkableType {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "page", "pages":
		return LinkPage
	case "post", "posts":
		return LinkPost
	}
	return LinkNone
}
