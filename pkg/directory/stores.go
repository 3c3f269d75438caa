package directory

import (
	"context"
	"time"
)

// Field identifies a groupable record field for duplicate scans.
type Field string

// Groupable fields.
const (
	FieldTitle        Field = "title"
	FieldTitleCity    Field = "title_city"
	FieldTitleAddress Field = "title_address"
)

// Optional data sources a store may or may not provide. Strategies that
// depend on a missing table degrade to an empty result.
const (
	TableLocations = "locations"
	TableReviews   = "reviews"
)

// FieldGroup is one bucket of record ids sharing the same field value(s).
// Values carries the grouped-by values in field order, e.g. [title, city]
// for FieldTitleCity.
type FieldGroup struct {
	Values []string
	IDs    []int64
}

// RecordStore is the persistence collaborator that owns records. The engine
// reads via GetByIDs/Scan/GroupByField and writes via Save/Delete during a
// merge; everything else about record lifecycle belongs to the caller.
type RecordStore interface {
	// GetByIDs returns the records for the given ids, skipping unknown ids.
	GetByIDs(ctx context.Context, ids []int64) ([]*Record, error)

	// Scan returns up to limit visible records.
	Scan(ctx context.Context, limit int) ([]*Record, error)

	// GroupByField buckets visible records by the given field, returning
	// only buckets with at least two members, largest first, capped at
	// limit buckets. Grouping on a field backed by a missing optional
	// table returns an empty result.
	GroupByField(ctx context.Context, field Field, limit int) ([]FieldGroup, error)

	// Save persists the full state of a record.
	Save(ctx context.Context, record *Record) error

	// Delete permanently removes a record.
	Delete(ctx context.Context, id int64) error

	// TableExists reports whether an optional data source is available.
	TableExists(ctx context.Context, name string) bool
}

// ReviewStore is the satellite store for reviews.
type ReviewStore interface {
	// Reassign moves every review owned by the from records to the new
	// owner in a single batch, returning the number moved.
	Reassign(ctx context.Context, fromIDs []int64, toID int64) (int, error)

	// Count returns the total number of reviews owned by the given records.
	Count(ctx context.Context, ids []int64) (int, error)

	// Stats returns the approved-review aggregate per record id.
	Stats(ctx context.Context, ids []int64) (map[int64]ReviewStats, error)

	// DeleteByRecord removes all reviews owned by a record.
	DeleteByRecord(ctx context.Context, id int64) error
}

// Taxonomy names a term set a record can be assigned to.
type Taxonomy string

// Taxonomies.
const (
	TaxonomyCategory Taxonomy = "category"
	TaxonomyTag      Taxonomy = "tag"
)

// TaxonomyStore is the satellite store for taxonomy assignment.
type TaxonomyStore interface {
	// Terms returns the term ids assigned to a record.
	Terms(ctx context.Context, recordID int64, taxonomy Taxonomy) ([]int64, error)

	// TermsMany returns term ids per record id in one batch.
	TermsMany(ctx context.Context, recordIDs []int64, taxonomy Taxonomy) (map[int64][]int64, error)

	// UnionAssign adds the given terms to a record's assignment, keeping
	// existing terms, and returns how many were newly added.
	UnionAssign(ctx context.Context, recordID int64, taxonomy Taxonomy, termIDs []int64) (int, error)

	// Names resolves term ids to display names.
	Names(ctx context.Context, taxonomy Taxonomy, termIDs []int64) (map[int64]string, error)
}

// ClaimStore is the satellite store for ownership claims.
type ClaimStore interface {
	// Get returns a record's claim, or nil if unclaimed.
	Get(ctx context.Context, recordID int64) (*Claim, error)

	// GetMany returns claims for the given record ids, omitting unclaimed.
	GetMany(ctx context.Context, recordIDs []int64) (map[int64]*Claim, error)

	// Transfer moves the claim from one record to another.
	Transfer(ctx context.Context, fromID, toID int64) error

	// Clear removes a record's claim.
	Clear(ctx context.Context, recordID int64) error
}

// Cache is the TTL cache collaborator. Reads must tolerate concurrent
// access; writes are last-write-wins.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	DeletePrefix(prefix string)
}
