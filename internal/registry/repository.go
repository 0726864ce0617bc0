package registry

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewKeyRepository(db *bun.DB) repository.Repository[*catalog.Key] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*catalog.Key]{
		NewRecord: func() *catalog.Key { return &catalog.Key{} },
		GetID: func(k *catalog.Key) uuid.UUID {
			return k.ID
		},
		SetID: func(k *catalog.Key, id uuid.UUID) {
			k.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(k *catalog.Key) string {
			return k.Name
		},
	})
}

func NewLocaleRepository(db *bun.DB) repository.Repository[*catalog.Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*catalog.Locale]{
		NewRecord: func() *catalog.Locale { return &catalog.Locale{} },
		GetID: func(l *catalog.Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *catalog.Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *catalog.Locale) string {
			return l.Code
		},
	})
}
