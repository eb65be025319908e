package domain

import (
	"strings"
	"time"
)

// Status is the editorial state of a page or post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

// Statuses lists every accepted status in editorial order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusReview, StatusPublished}
}

// ParseStatus normalises input. Empty input is a draft; unknown values are
// returned as-is so validation can reject them with the original spelling.
func ParseStatus(input string) Status {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return StatusDraft
	}
	return Status(trimmed)
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished:
		return true
	}
	return false
}

func (s Status) IsPublished() bool { return s == StatusPublished }

// PublishedAt derives the publication timestamp for a status change: the
// first publish stamps now, later saves while published keep the existing
// value, and leaving published clears it.
func PublishedAt(status Status, existing *time.Time, now time.Time) *time.Time {
	if !status.IsPublished() {
		return nil
	}
	if existing != nil && !existing.IsZero() {
		stamp := *existing
		return &stamp
	}
	stamp := now
	return &stamp
}
