package merge

import (
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

// Option configures a Merger.
type Option func(*Merger) error

// WithReviewStore wires the review satellite store. Without it the review
// step is skipped.
func WithReviewStore(reviews directory.ReviewStore) Option {
	return func(m *Merger) error {
		m.reviews = reviews
		return nil
	}
}

// WithTaxonomyStore wires the taxonomy satellite store. Without it the
// category/tag steps are skipped.
func WithTaxonomyStore(taxonomies directory.TaxonomyStore) Option {
	return func(m *Merger) error {
		m.taxonomies = taxonomies
		return nil
	}
}

// WithClaimStore wires the claim satellite store. Without it the claim
// transfer step is skipped.
func WithClaimStore(claims directory.ClaimStore) Option {
	return func(m *Merger) error {
		m.claims = claims
		return nil
	}
}

// WithCache wires the finder's cache so merges invalidate stale duplicate
// groups.
func WithCache(cache directory.Cache) Option {
	return func(m *Merger) error {
		m.cache = cache
		return nil
	}
}

// mergeOptions carries per-call Merge configuration. Every consolidation
// step defaults to on.
type mergeOptions struct {
	action     directory.Action
	actorID    int64
	reviews    bool
	photos     bool
	meta       bool
	categories bool
	tags       bool
	claims     bool
}

func defaultMergeOptions() mergeOptions {
	return mergeOptions{
		action:     directory.ActionDisable,
		reviews:    true,
		photos:     true,
		meta:       true,
		categories: true,
		tags:       true,
		claims:     true,
	}
}

func (o *mergeOptions) validate() error {
	if !o.action.Valid() {
		return errors.NewValidationError("action", o.action, "must be delete, disable, or redirect")
	}
	return nil
}

// MergeOption configures a single Merge call.
type MergeOption func(*mergeOptions)

// WithAction sets the disposition action for the duplicates. Defaults to
// ActionDisable, the only undoable action.
func WithAction(action directory.Action) MergeOption {
	return func(o *mergeOptions) { o.action = action }
}

// WithActor records who performed the merge in the log entry.
func WithActor(actorID int64) MergeOption {
	return func(o *mergeOptions) { o.actorID = actorID }
}

// WithoutReviews skips reassigning the duplicates' reviews.
func WithoutReviews() MergeOption {
	return func(o *mergeOptions) { o.reviews = false }
}

// WithoutPhotos skips merging photo galleries.
func WithoutPhotos() MergeOption {
	return func(o *mergeOptions) { o.photos = false }
}

// WithoutMeta skips the fill-blanks scalar field merge.
func WithoutMeta() MergeOption {
	return func(o *mergeOptions) { o.meta = false }
}

// WithoutCategories skips the category union.
func WithoutCategories() MergeOption {
	return func(o *mergeOptions) { o.categories = false }
}

// WithoutTags skips the tag union.
func WithoutTags() MergeOption {
	return func(o *mergeOptions) { o.tags = false }
}

// WithoutClaims skips transferring ownership claims.
func WithoutClaims() MergeOption {
	return func(o *mergeOptions) { o.claims = false }
}
