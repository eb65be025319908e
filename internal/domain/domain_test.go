package domain

import (
	"testing"
	"time"
)

func TestParseLayoutTypeRepairsHints(t *testing.T) {
	cases := []struct {
		input string
		want  LayoutType
		ok    bool
	}{
		{"hero", LayoutHero, true},
		{" Gallery ", LayoutGallery, true},
		{"tree_columns", LayoutThreeColumns, true},
		{"for_columns", LayoutFourColumns, true},
		{"two_columns", LayoutTwoColumns, true},
		{"five_columns", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLayoutType(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLayoutType(%q) = %q,%v want %q,%v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus("") != StatusDraft {
		t.Fatalf("empty status should be draft")
	}
	if !ParseStatus(" Published ").IsPublished() {
		t.Fatalf("expected published")
	}
	if ParseStatus("archived").Valid() {
		t.Fatalf("archived is not a page status")
	}
}

func TestParseLinkableType(t *testing.T) {
	if ParseLinkableType("Pages") != LinkPage || ParseLinkableType("post") != LinkPost || ParseLinkableType("App\\Models\\Tag") != LinkNone {
		t.Fatalf("unexpected linkable mapping")
	}
}

func TestPublishedAt(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	first := PublishedAt(StatusPublished, nil, now)
	if first == nil || !first.Equal(now) {
		t.Fatalf("expected first publish to stamp now, got %v", first)
	}
	later := PublishedAt(StatusPublished, first, now.Add(time.Hour))
	if later == nil || !later.Equal(now) {
		t.Fatalf("expected existing stamp to be kept, got %v", later)
	}
	if PublishedAt(StatusReview, first, now) != nil {
		t.Fatalf("expected review to clear publication")
	}
}
