package interfaces

import "context"

// SlugAllocator returns a slug that is unique inside scope. The candidate is
// normalised first; when it normalises to nothing the fallback seed is used.
type SlugAllocator interface {
	MakeUnique(ctx context.Context, scope SlugScope, candidate, fallback string) (string, error)
}

// SlugScope names the table/column pair a slug must be unique in. ExcludeID
// skips the row being renamed so an unchanged slug does not collide with itself.
type SlugScope struct {
	Table     string
	Column    string
	ExcludeID string
}
