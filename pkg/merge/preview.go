package merge

import (
	"context"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

// ChangeCategory classifies one entry in a merge preview.
type ChangeCategory string

// Change categories.
const (
	ChangeReviews  ChangeCategory = "reviews"
	ChangePhotos   ChangeCategory = "photos"
	ChangeField    ChangeCategory = "field"
	ChangeLocation ChangeCategory = "location"
	ChangeTaxonomy ChangeCategory = "taxonomy"
	ChangeClaim    ChangeCategory = "claim"
)

// Change is one thing a merge would do, tagged by category.
type Change struct {
	Category ChangeCategory `json:"category"`
	Field    string         `json:"field,omitempty"`
	Value    string         `json:"value,omitempty"`
	Count    int            `json:"count,omitempty"`
	FromID   int64          `json:"from_id,omitempty"`
}

// Diff is a dry-run of a merge: the records involved and every change the
// merge would apply, computed with the same decision logic but zero writes.
type Diff struct {
	Primary    *directory.Record   `json:"primary"`
	Duplicates []*directory.Record `json:"duplicates"`
	Changes    []Change            `json:"changes"`
}

// Preview reports what Merge would do for the given primary and duplicate
// set without mutating anything.
func (m *Merger) Preview(ctx context.Context, primaryID int64, duplicateIDs []int64) (*Diff, error) {
	primary, duplicates, err := m.validate(ctx, primaryID, duplicateIDs)
	if err != nil {
		return nil, err
	}

	diff := &Diff{
		Primary:    primary,
		Duplicates: duplicates,
		Changes:    []Change{},
	}
	dupIDs := recordIDs(duplicates)

	if m.reviews != nil && m.records.TableExists(ctx, directory.TableReviews) {
		count, err := m.reviews.Count(ctx, dupIDs)
		if err != nil {
			return nil, errors.WrapStore("review", "count", err)
		}
		if count > 0 {
			diff.Changes = append(diff.Changes, Change{Category: ChangeReviews, Count: count})
		}
	}

	// Photo merging mutates its target, so it runs against a clone to keep
	// the preview read-only.
	if photos := mergePhotos(primary.Clone(), duplicates); photos > 0 {
		diff.Changes = append(diff.Changes, Change{Category: ChangePhotos, Count: photos})
	}

	for _, field := range metaFields() {
		if field.get(primary) != "" {
			continue
		}
		for _, duplicate := range duplicates {
			if value := field.get(duplicate); value != "" {
				diff.Changes = append(diff.Changes, Change{
					Category: ChangeField,
					Field:    field.name,
					Value:    value,
					FromID:   duplicate.ID,
				})
				break
			}
		}
	}
	if !primary.HasAddress() {
		for _, duplicate := range duplicates {
			if duplicate.HasAddress() {
				diff.Changes = append(diff.Changes, Change{
					Category: ChangeLocation,
					Field:    "location",
					Value:    duplicate.Location.Address,
					FromID:   duplicate.ID,
				})
				break
			}
		}
	}

	if m.taxonomies != nil {
		for _, taxonomy := range []directory.Taxonomy{directory.TaxonomyCategory, directory.TaxonomyTag} {
			added, err := m.previewTaxonomy(ctx, primaryID, dupIDs, taxonomy)
			if err != nil {
				return nil, err
			}
			if added > 0 {
				diff.Changes = append(diff.Changes, Change{
					Category: ChangeTaxonomy,
					Field:    string(taxonomy),
					Count:    added,
				})
			}
		}
	}

	if m.claims != nil {
		primaryClaim, err := m.claims.Get(ctx, primaryID)
		if err != nil {
			return nil, errors.WrapStore("claim", "get", err)
		}
		if primaryClaim == nil {
			claims, err := m.claims.GetMany(ctx, dupIDs)
			if err != nil {
				return nil, errors.WrapStore("claim", "get many", err)
			}
			for _, dupID := range dupIDs {
				if claim := claims[dupID]; claim != nil {
					diff.Changes = append(diff.Changes, Change{
						Category: ChangeClaim,
						FromID:   dupID,
						Count:    1,
					})
					break
				}
			}
		}
	}

	return diff, nil
}

// previewTaxonomy counts how many terms a merge would add to the primary
// without assigning them.
func (m *Merger) previewTaxonomy(ctx context.Context, primaryID int64, dupIDs []int64, taxonomy directory.Taxonomy) (int, error) {
	existing, err := m.taxonomies.Terms(ctx, primaryID, taxonomy)
	if err != nil {
		return 0, errors.WrapStore("taxonomy", "terms", err)
	}
	have := make(map[int64]bool, len(existing))
	for _, term := range existing {
		have[term] = true
	}

	terms, err := m.taxonomies.TermsMany(ctx, dupIDs, taxonomy)
	if err != nil {
		return 0, errors.WrapStore("taxonomy", "terms", err)
	}

	added := 0
	for _, termIDs := range terms {
		for _, term := range termIDs {
			if !have[term] {
				have[term] = true
				added++
			}
		}
	}
	return added, nil
}
