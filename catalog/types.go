package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale represents a target language/region translations can be authored in.
type Locale struct {
	bun.BaseModel `bun:"table:translation_locales,alias:tl"`

	ID        uuid.UUID  `bun:",pk,type:uuid"        json:"id"`
	Code      string     `bun:"code,notnull,unique"  json:"code"`
	Display   string     `bun:"display_name,notnull" json:"display_name"`
	IsActive  bool       `bun:"is_active,notnull,default:true"   json:"is_active"`
	IsDefault bool       `bun:"is_default,notnull,default:false" json:"is_default"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero"  json:"deleted_at,omitempty"`
	CreatedAt time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Key is the canonical catalog entry for one translatable identifier.
// The name is immutable once registered; renames are modeled as
// deprecate+create so history stays attached to the original name.
type Key struct {
	bun.BaseModel `bun:"table:translation_keys,alias:tk"`

	ID        uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Name      string     `bun:"name,notnull,unique" json:"name"`
	Namespace string     `bun:"namespace,notnull" json:"namespace"`
	Category  string     `bun:"category" json:"category,omitempty"`
	Variables []string   `bun:"variables,type:jsonb" json:"variables,omitempty"`
	Plural    bool       `bun:"plural,notnull,default:false" json:"plural"`
	Active    bool       `bun:"active,notnull,default:true" json:"active"`
	CreatedBy uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Translation is the current row for one (key, locale) pair. Prior states
// live in translation_history; at most one row exists per pair and it is
// the only place a `published` value is ever read from.
type Translation struct {
	bun.BaseModel `bun:"table:translations,alias:t"`

	ID          uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	KeyID       uuid.UUID         `bun:"key_id,notnull,type:uuid,unique:translations_key_locale" json:"key_id"`
	KeyName     string            `bun:"key_name,notnull" json:"key"`
	Locale      string            `bun:"locale,notnull,unique:translations_key_locale" json:"locale"`
	Namespace   string            `bun:"namespace,notnull" json:"namespace"`
	Value       string            `bun:"value,notnull" json:"value"`
	Plural      map[string]string `bun:"plural,type:jsonb" json:"plural,omitempty"`
	Version     int64             `bun:"version,notnull,default:1" json:"version"`
	Status      Status            `bun:"status,notnull,default:'draft'" json:"status"`
	CreatedBy   uuid.UUID         `bun:"created_by,notnull,type:uuid" json:"created_by"`
	UpdatedBy   uuid.UUID         `bun:"updated_by,notnull,type:uuid" json:"updated_by"`
	// AuthoredBy tracks who last wrote the content while it was a draft.
	// Transitions carry it forward unchanged so the approval gate compares
	// against the content author, not whoever submitted the row for review.
	AuthoredBy uuid.UUID `bun:"authored_by,notnull,type:uuid" json:"authored_by"`
	ReviewedBy  *uuid.UUID        `bun:"reviewed_by,type:uuid" json:"reviewed_by,omitempty"`
	ApprovedBy  *uuid.UUID        `bun:"approved_by,type:uuid" json:"approved_by,omitempty"`
	PublishedBy *uuid.UUID        `bun:"published_by,type:uuid" json:"published_by,omitempty"`
	ReviewedAt  *time.Time        `bun:"reviewed_at,nullzero" json:"reviewed_at,omitempty"`
	ApprovedAt  *time.Time        `bun:"approved_at,nullzero" json:"approved_at,omitempty"`
	PublishedAt *time.Time        `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt   time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Key *Key `bun:"rel:belongs-to,join:key_id=id" json:"key_meta,omitempty"`
}

// HistoryEntry is the immutable audit record for a single mutation.
// Entries are append-only; the repository layer exposes no update or
// delete path for them.
type HistoryEntry struct {
	bun.BaseModel `bun:"table:translation_history,alias:th"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	KeyName    string    `bun:"key_name,notnull" json:"key"`
	Locale     string    `bun:"locale,notnull" json:"locale"`
	Action     Action    `bun:"action,notnull" json:"action"`
	FromStatus Status    `bun:"from_status" json:"from_status,omitempty"`
	ToStatus   Status    `bun:"to_status,notnull" json:"to_status"`
	FromValue  string    `bun:"from_value" json:"from_value,omitempty"`
	ToValue    string    `bun:"to_value,notnull" json:"to_value"`
	// Plural mirrors the row's plural forms at ToVersion so rollback can
	// restore structured messages, not just the flat value.
	Plural      map[string]string `bun:"plural,type:jsonb" json:"plural,omitempty"`
	FromVersion int64             `bun:"from_version,notnull" json:"from_version"`
	ToVersion   int64             `bun:"to_version,notnull" json:"to_version"`
	Actor       uuid.UUID         `bun:"actor,notnull,type:uuid" json:"actor"`
	Reason      string            `bun:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// SnapshotRecord is the durable cache tier: the serialized published map
// for one (locale, namespace), tagged with its version token. It doubles
// as the rebuild source after a cold start.
type SnapshotRecord struct {
	bun.BaseModel `bun:"table:translation_snapshots,alias:ts"`

	ID          uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	Locale      string            `bun:"locale,notnull,unique:translation_snapshots_scope" json:"locale"`
	Namespace   string            `bun:"namespace,notnull,unique:translation_snapshots_scope" json:"namespace"`
	Token       int64             `bun:"token,notnull" json:"token"`
	Entries     map[string]string `bun:"entries,type:jsonb,notnull" json:"entries"`
	GeneratedAt time.Time         `bun:"generated_at,nullzero,default:current_timestamp" json:"generated_at"`
}
