package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a stable UUID from key with go-hashid, falling back to a
// SHA-1 name-based UUID. Keys must be namespaced by entity type.
func UUID(key string) uuid.UUID {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil
	}
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || id == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return id
}

// MenuUUID is the id a menu gets when it is first saved under slug.
func MenuUUID(slug string) uuid.UUID {
	return UUID("pagebuilder:menu:" + strings.ToLower(strings.TrimSpace(slug)))
}

// TagUUID keys a tag by its normalised name so concurrent posts agree on it.
func TagUUID(name string) uuid.UUID {
	return UUID("pagebuilder:tag:" + strings.ToLower(strings.TrimSpace(name)))
}

// SeedUUID is used by fixtures and the example binary for reproducible content.
func SeedUUID(kind, key string) uuid.UUID {
	return UUID("pagebuilder:seed:" + strings.TrimSpace(kind) + ":" + strings.TrimSpace(key))
}
