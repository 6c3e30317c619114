// Package identity derives stable identifiers for seeded records.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "go-portal:"

// UUID derives a deterministic UUID from a stable key using go-hashid.
// Callers prefix keys by kind so identifiers never collide across kinds.
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

// RecordUUID identifies the record of kind seeded under key.
func RecordUUID(kind, key string) uuid.UUID {
	kind = strings.ToLower(strings.TrimSpace(kind))
	key = strings.ToLower(strings.TrimSpace(key))
	if kind == "" || key == "" {
		return uuid.Nil
	}
	return UUID(namespace + kind + ":" + key)
}

// TranslationUUID identifies the translation of recordID in language.
func TranslationUUID(recordID uuid.UUID, language string) uuid.UUID {
	language = strings.ToLower(strings.TrimSpace(language))
	if recordID == uuid.Nil || language == "" {
		return uuid.Nil
	}
	return UUID(namespace + "translation:" + recordID.String() + ":" + language)
}
