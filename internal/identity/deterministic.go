package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

func LocaleUUID(localeCode string) uuid.UUID {
	return UUID("go-translations:locale:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

func KeyUUID(name string) uuid.UUID {
	return UUID("go-translations:key:" + strings.ToLower(strings.TrimSpace(name)))
}

// TranslationUUID pins one row per (key, locale): the pair, not a random
// value, is the row identity.
func TranslationUUID(keyID uuid.UUID, localeCode string) uuid.UUID {
	return UUID("go-translations:translation:" + keyID.String() + ":" + strings.ToLower(strings.TrimSpace(localeCode)))
}

func SnapshotUUID(localeCode, namespace string) uuid.UUID {
	return UUID("go-translations:snapshot:" + strings.ToLower(strings.TrimSpace(localeCode)) + ":" + strings.ToLower(strings.TrimSpace(namespace)))
}
