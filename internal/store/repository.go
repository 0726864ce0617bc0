package store

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewTranslationRepository(db *bun.DB) repository.Repository[*catalog.Translation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*catalog.Translation]{
		NewRecord: func() *catalog.Translation { return &catalog.Translation{} },
		GetID: func(t *catalog.Translation) uuid.UUID {
			return t.ID
		},
		SetID: func(t *catalog.Translation, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(t *catalog.Translation) string {
			return t.ID.String()
		},
	})
}
