// Package merge consolidates a set of duplicate directory records into a
// chosen primary record. Consolidation is best-effort and non-atomic:
// each step applies independently, disposal failures are collected in the
// result, and nothing is rolled back. The merge is recorded in the
// primary's append-only history so the disposal step can be undone.
package merge

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/localindex/dedupe/pkg/dedup"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
	"github.com/localindex/dedupe/pkg/logging"
)

// Merger consolidates duplicate records into a primary.
type Merger struct {
	records    directory.RecordStore
	reviews    directory.ReviewStore
	taxonomies directory.TaxonomyStore
	claims     directory.ClaimStore
	cache      directory.Cache
	locks      *keyedLocks
}

// New creates a Merger over the given record store. Satellite stores are
// optional; steps without a wired store are skipped.
func New(records directory.RecordStore, opts ...Option) (*Merger, error) {
	if records == nil {
		return nil, errors.NewValidationError("records", nil, "cannot be nil")
	}
	m := &Merger{
		records: records,
		locks:   newKeyedLocks(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// metaField is one entry in the fill-blanks allow-list. Values are copied
// from a duplicate only when the primary's value is empty; the first
// duplicate supplying a non-empty value wins.
type metaField struct {
	name string
	get  func(*directory.Record) string
	set  func(*directory.Record, string)
}

func metaFields() []metaField {
	return []metaField{
		{"phone", func(r *directory.Record) string { return r.Phone }, func(r *directory.Record, v string) { r.Phone = v }},
		{"website", func(r *directory.Record) string { return r.Website }, func(r *directory.Record, v string) { r.Website = v }},
		{"email", func(r *directory.Record) string { return r.Email }, func(r *directory.Record, v string) { r.Email = v }},
		{"hours", func(r *directory.Record) string { return r.Hours }, func(r *directory.Record, v string) { r.Hours = v }},
		{"price_level", func(r *directory.Record) string { return r.PriceLevel }, func(r *directory.Record, v string) { r.PriceLevel = v }},
		{"place_id", func(r *directory.Record) string { return r.PlaceID }, func(r *directory.Record, v string) { r.PlaceID = v }},
		{"social_facebook", func(r *directory.Record) string { return r.Social.Facebook }, func(r *directory.Record, v string) { r.Social.Facebook = v }},
		{"social_instagram", func(r *directory.Record) string { return r.Social.Instagram }, func(r *directory.Record, v string) { r.Social.Instagram = v }},
		{"social_twitter", func(r *directory.Record) string { return r.Social.Twitter }, func(r *directory.Record, v string) { r.Social.Twitter = v }},
		{"social_yelp", func(r *directory.Record) string { return r.Social.Yelp }, func(r *directory.Record, v string) { r.Social.Yelp = v }},
	}
}

// Merge consolidates the duplicates into the primary and disposes of them
// per the configured action. Holds the per-primary advisory lock for the
// whole write phase.
func (m *Merger) Merge(ctx context.Context, primaryID int64, duplicateIDs []int64, opts ...MergeOption) (*Result, error) {
	options := defaultMergeOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	m.locks.Lock(primaryID)
	defer m.locks.Unlock(primaryID)

	primary, duplicates, err := m.validate(ctx, primaryID, duplicateIDs)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	dupIDs := recordIDs(duplicates)
	result := &Result{
		PrimaryID: primaryID,
		Merged:    dupIDs,
		Action:    options.action,
	}

	if options.reviews {
		if err := m.mergeReviews(ctx, primary, dupIDs, &result.Outcome); err != nil {
			return result, err
		}
	}
	if options.photos {
		result.Outcome.PhotosMerged = mergePhotos(primary, duplicates)
	}
	if options.meta {
		result.Outcome.FieldsFilled = fillBlanks(primary, duplicates)
	}
	if options.categories {
		added, err := m.mergeTaxonomy(ctx, primaryID, dupIDs, directory.TaxonomyCategory)
		if err != nil {
			return result, err
		}
		result.Outcome.CategoriesAdded = added
	}
	if options.tags {
		added, err := m.mergeTaxonomy(ctx, primaryID, dupIDs, directory.TaxonomyTag)
		if err != nil {
			return result, err
		}
		result.Outcome.TagsAdded = added
	}
	if options.claims {
		transferred, err := m.transferClaims(ctx, primaryID, dupIDs)
		if err != nil {
			return result, err
		}
		result.Outcome.ClaimsTransferred = transferred
	}

	priorStatus := make(map[int64]directory.Status, len(duplicates))
	for _, duplicate := range duplicates {
		priorStatus[duplicate.ID] = duplicate.Status
		if err := m.dispose(ctx, duplicate, primaryID, options.action); err != nil {
			result.Failures = append(result.Failures, Failure{
				DuplicateID: duplicate.ID,
				Message:     err.Error(),
			})
		}
	}

	entry := directory.MergeLogEntry{
		ID:          uuid.NewString(),
		PrimaryID:   primaryID,
		MergedIDs:   dupIDs,
		Action:      options.action,
		Outcome:     result.Outcome,
		PriorStatus: priorStatus,
		MergedAt:    utc.Now(),
		ActorID:     options.actorID,
	}
	primary.MergeHistory = append(primary.MergeHistory, entry)
	primary.ModifiedAt = utc.Now()
	if err := m.records.Save(ctx, primary); err != nil {
		return result, errors.WrapStore("record", "save primary", err)
	}
	result.LogEntryID = entry.ID

	m.invalidate()
	result.Duration = time.Since(started)

	logging.Ctx(ctx).Info().
		Int64("primary_id", primaryID).
		Ints64("merged", dupIDs).
		Str("action", string(options.action)).
		Int("failures", len(result.Failures)).
		Msg("merged duplicate records")

	return result, nil
}

// validate loads the primary and filters the duplicate set down to
// existing, non-self records.
func (m *Merger) validate(ctx context.Context, primaryID int64, duplicateIDs []int64) (*directory.Record, []*directory.Record, error) {
	found, err := m.records.GetByIDs(ctx, []int64{primaryID})
	if err != nil {
		return nil, nil, errors.WrapStore("record", "get primary", err)
	}
	if len(found) == 0 {
		return nil, nil, errors.NewNotFoundError("record", primaryID)
	}
	primary := found[0]

	seen := map[int64]bool{primaryID: true}
	candidates := make([]int64, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		if id > 0 && !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}

	duplicates, err := m.records.GetByIDs(ctx, candidates)
	if err != nil {
		return nil, nil, errors.WrapStore("record", "get duplicates", err)
	}
	if len(duplicates) == 0 {
		return nil, nil, errors.NewValidationError("duplicate_ids", duplicateIDs, "no valid duplicate records to merge")
	}
	return primary, duplicates, nil
}

// mergeReviews reassigns every duplicate-owned review to the primary in a
// single batch, then refreshes the primary's cached review aggregate.
func (m *Merger) mergeReviews(ctx context.Context, primary *directory.Record, dupIDs []int64, outcome *directory.MergeOutcome) error {
	if m.reviews == nil || !m.records.TableExists(ctx, directory.TableReviews) {
		return nil
	}

	moved, err := m.reviews.Reassign(ctx, dupIDs, primary.ID)
	if err != nil {
		return errors.WrapStore("review", "reassign", err)
	}
	outcome.ReviewsMoved = moved

	stats, err := m.reviews.Stats(ctx, []int64{primary.ID})
	if err != nil {
		return errors.WrapStore("review", "stats", err)
	}
	if stat, ok := stats[primary.ID]; ok {
		primary.ReviewCount = stat.Count
		primary.AvgRating = stat.AvgRating
	} else {
		primary.ReviewCount = 0
		primary.AvgRating = 0
	}
	return nil
}

// mergePhotos unions the duplicates' photo lists into the primary,
// de-duplicated by attachment id, primary's photos first. Adopts the first
// cover found if the primary has none.
func mergePhotos(primary *directory.Record, duplicates []*directory.Record) int {
	merged := 0
	seen := make(map[int64]bool, len(primary.Photos))
	for _, photo := range primary.Photos {
		seen[photo] = true
	}

	for _, duplicate := range duplicates {
		for _, photo := range duplicate.Photos {
			if photo == 0 || seen[photo] {
				continue
			}
			seen[photo] = true
			primary.Photos = append(primary.Photos, photo)
			merged++
		}
		if !primary.HasCover() && duplicate.HasCover() {
			primary.Cover = duplicate.Cover
			merged++
		}
	}
	return merged
}

// fillBlanks copies scalar fields from duplicates into the primary only
// where the primary's value is empty. The location is copied wholesale only
// when the primary has no address at all.
func fillBlanks(primary *directory.Record, duplicates []*directory.Record) []string {
	var filled []string

	for _, field := range metaFields() {
		if field.get(primary) != "" {
			continue
		}
		for _, duplicate := range duplicates {
			if value := field.get(duplicate); value != "" {
				field.set(primary, value)
				filled = append(filled, field.name)
				break
			}
		}
	}

	if !primary.HasAddress() {
		for _, duplicate := range duplicates {
			if duplicate.HasAddress() {
				loc := *duplicate.Location
				primary.Location = &loc
				filled = append(filled, "location")
				break
			}
		}
	}
	return filled
}

// mergeTaxonomy unions term assignments from every duplicate into the
// primary, returning how many terms were newly added.
func (m *Merger) mergeTaxonomy(ctx context.Context, primaryID int64, dupIDs []int64, taxonomy directory.Taxonomy) (int, error) {
	if m.taxonomies == nil {
		return 0, nil
	}

	terms, err := m.taxonomies.TermsMany(ctx, dupIDs, taxonomy)
	if err != nil {
		return 0, errors.WrapStore("taxonomy", "terms", err)
	}

	var union []int64
	seen := make(map[int64]bool)
	for _, id := range dupIDs {
		for _, term := range terms[id] {
			if !seen[term] {
				seen[term] = true
				union = append(union, term)
			}
		}
	}
	if len(union) == 0 {
		return 0, nil
	}

	added, err := m.taxonomies.UnionAssign(ctx, primaryID, taxonomy, union)
	if err != nil {
		return 0, errors.WrapStore("taxonomy", "union assign", err)
	}
	return added, nil
}

// transferClaims adopts the first duplicate's claim if the primary is
// unclaimed, and clears claims from every duplicate regardless.
func (m *Merger) transferClaims(ctx context.Context, primaryID int64, dupIDs []int64) (int, error) {
	if m.claims == nil {
		return 0, nil
	}

	primaryClaim, err := m.claims.Get(ctx, primaryID)
	if err != nil {
		return 0, errors.WrapStore("claim", "get", err)
	}

	claims, err := m.claims.GetMany(ctx, dupIDs)
	if err != nil {
		return 0, errors.WrapStore("claim", "get many", err)
	}

	transferred := 0
	for _, dupID := range dupIDs {
		claim := claims[dupID]
		if claim == nil {
			continue
		}
		if primaryClaim == nil {
			if err := m.claims.Transfer(ctx, dupID, primaryID); err != nil {
				return transferred, errors.WrapStore("claim", "transfer", err)
			}
			primaryClaim = claim
			transferred++
			continue
		}
		if err := m.claims.Clear(ctx, dupID); err != nil {
			return transferred, errors.WrapStore("claim", "clear", err)
		}
	}
	return transferred, nil
}

// dispose applies the disposition action to one duplicate.
func (m *Merger) dispose(ctx context.Context, duplicate *directory.Record, primaryID int64, action directory.Action) error {
	switch action {
	case directory.ActionDelete:
		if m.reviews != nil && m.records.TableExists(ctx, directory.TableReviews) {
			if err := m.reviews.DeleteByRecord(ctx, duplicate.ID); err != nil {
				return errors.WrapStore("review", "delete by record", err)
			}
		}
		if m.claims != nil {
			if err := m.claims.Clear(ctx, duplicate.ID); err != nil {
				return errors.WrapStore("claim", "clear", err)
			}
		}
		return m.records.Delete(ctx, duplicate.ID)

	case directory.ActionDisable:
		duplicate.Status = directory.StatusDisabled
		duplicate.ModifiedAt = utc.Now()
		return m.records.Save(ctx, duplicate)

	case directory.ActionRedirect:
		duplicate.Status = directory.StatusDisabled
		duplicate.RedirectTo = primaryID
		duplicate.MergedAt = utc.Now()
		duplicate.ModifiedAt = utc.Now()
		return m.records.Save(ctx, duplicate)

	default:
		return errors.NewValidationError("action", action, "unknown disposition action")
	}
}

// invalidate drops the finder's cached duplicate groups.
func (m *Merger) invalidate() {
	if m.cache != nil {
		m.cache.DeletePrefix(dedup.CachePrefix)
	}
}

func recordIDs(records []*directory.Record) []int64 {
	ids := make([]int64, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	return ids
}
