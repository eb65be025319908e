package domain

import "errors"

// ErrNotFound is the root of every package-level not-found sentinel, so
// callers can test for a missing reference without knowing which module
// raised it.
var ErrNotFound = errors.New("not found")
