// Package directory defines the domain types for directory records and the
// collaborator interfaces the dedup engine consumes. The engine only reads
// records and selectively mutates them during a merge; creation and editing
// belong to the surrounding application.
package directory

import (
	"github.com/agentstation/utc"
)

// Status is the lifecycle status of a record.
type Status string

// Record statuses.
const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusDisabled  Status = "disabled"
)

// Visible reports whether a record in this status participates in duplicate
// detection and is shown to visitors.
func (s Status) Visible() bool {
	switch s {
	case StatusPublished, StatusDraft, StatusPending:
		return true
	default:
		return false
	}
}

// Location is a record's physical address.
type Location struct {
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip     string `json:"zip,omitempty" yaml:"zip,omitempty"`
}

// Social holds social profile links for a record.
type Social struct {
	Facebook  string `json:"facebook,omitempty" yaml:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" yaml:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	Yelp      string `json:"yelp,omitempty" yaml:"yelp,omitempty"`
}

// Record is a single directory entry (a business).
type Record struct {
	ID         int64    `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Status     Status   `json:"status" yaml:"status"`
	CreatedAt  utc.Time `json:"created_at" yaml:"created_at"`
	ModifiedAt utc.Time `json:"modified_at" yaml:"modified_at"`

	Location *Location `json:"location,omitempty" yaml:"location,omitempty"`

	Phone      string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website    string `json:"website,omitempty" yaml:"website,omitempty"`
	Email      string `json:"email,omitempty" yaml:"email,omitempty"`
	Hours      string `json:"hours,omitempty" yaml:"hours,omitempty"`
	PriceLevel string `json:"price_level,omitempty" yaml:"price_level,omitempty"`
	PlaceID    string `json:"place_id,omitempty" yaml:"place_id,omitempty"`

	Social Social `json:"social,omitempty" yaml:"social,omitempty"`

	// Photos are attachment ids, Cover the featured attachment (0 = none).
	Photos []int64 `json:"photos,omitempty" yaml:"photos,omitempty"`
	Cover  int64   `json:"cover,omitempty" yaml:"cover,omitempty"`

	// Cached review aggregate, recomputed after review reassignment.
	ReviewCount int     `json:"review_count" yaml:"review_count"`
	AvgRating   float64 `json:"avg_rating" yaml:"avg_rating"`

	// RedirectTo points at the surviving primary after a redirect disposal
	// (0 = no redirect).
	RedirectTo int64    `json:"redirect_to,omitempty" yaml:"redirect_to,omitempty"`
	MergedAt   utc.Time `json:"merged_at,omitzero" yaml:"merged_at,omitempty"`

	// MergeHistory is the append-only merge log kept on primary records.
	MergeHistory []MergeLogEntry `json:"merge_history,omitempty" yaml:"merge_history,omitempty"`
}

// HasCover reports whether the record has a featured image.
func (r *Record) HasCover() bool { return r.Cover != 0 }

// HasAddress reports whether the record has any street address.
func (r *Record) HasAddress() bool {
	return r.Location != nil && r.Location.Address != ""
}

// Clone returns a deep copy of the record. Stores hand out clones so callers
// cannot mutate shared state behind the store's back.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Location != nil {
		loc := *r.Location
		clone.Location = &loc
	}
	if r.Photos != nil {
		clone.Photos = append([]int64(nil), r.Photos...)
	}
	if r.MergeHistory != nil {
		clone.MergeHistory = make([]MergeLogEntry, len(r.MergeHistory))
		for i, entry := range r.MergeHistory {
			clone.MergeHistory[i] = *entry.Clone()
		}
	}
	return &clone
}
