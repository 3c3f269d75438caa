package dedup

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"

	"github.com/localindex/dedupe/pkg/directory"
)

// RecordDetail is the human-readable view of one group member, assembled
// for admin display.
type RecordDetail struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	CreatedAt  utc.Time `json:"created_at"`
	ModifiedAt utc.Time `json:"modified_at"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`

	Categories []string `json:"categories,omitempty"`

	ReviewCount int     `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`

	IsClaimed bool   `json:"is_claimed"`
	ClaimedBy *int64 `json:"claimed_by,omitempty"`

	Thumbnail int64  `json:"thumbnail,omitempty"`
	EditLink  string `json:"edit_link,omitempty"`
	ViewLink  string `json:"view_link,omitempty"`
}

// GroupDetails batch-loads display details for a group's member ids. All
// store access is bulk (one record fetch, one review aggregate, one claim
// lookup, one taxonomy name resolution), never one query per record.
func (f *Finder) GroupDetails(ctx context.Context, recordIDs []int64) ([]RecordDetail, error) {
	ids := make([]int64, 0, len(recordIDs))
	for _, id := range recordIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []RecordDetail{}, nil
	}

	records, err := f.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	stats := map[int64]directory.ReviewStats{}
	if f.reviews != nil && f.store.TableExists(ctx, directory.TableReviews) {
		if stats, err = f.reviews.Stats(ctx, ids); err != nil {
			return nil, err
		}
	}

	claims := map[int64]*directory.Claim{}
	if f.claims != nil {
		if claims, err = f.claims.GetMany(ctx, ids); err != nil {
			return nil, err
		}
	}

	categories := map[int64][]string{}
	if f.taxonomies != nil {
		if categories, err = f.categoryNames(ctx, ids); err != nil {
			return nil, err
		}
	}

	details := make([]RecordDetail, 0, len(records))
	for _, record := range records {
		detail := RecordDetail{
			ID:          record.ID,
			Title:       record.Title,
			Status:      string(record.Status),
			CreatedAt:   record.CreatedAt,
			ModifiedAt:  record.ModifiedAt,
			Phone:       record.Phone,
			Website:     record.Website,
			Email:       record.Email,
			ReviewCount: record.ReviewCount,
			AvgRating:   record.AvgRating,
			Thumbnail:   record.Cover,
		}
		if record.Location != nil {
			detail.Address = record.Location.Address
			detail.City = record.Location.City
		}
		if stat, ok := stats[record.ID]; ok {
			detail.ReviewCount = stat.Count
			detail.AvgRating = stat.AvgRating
		}
		if claim, ok := claims[record.ID]; ok && claim != nil {
			detail.IsClaimed = true
			owner := claim.OwnerID
			detail.ClaimedBy = &owner
		}
		if f.linkBase != "" {
			detail.EditLink = fmt.Sprintf("%s/admin/records/%d/edit", f.linkBase, record.ID)
			detail.ViewLink = fmt.Sprintf("%s/records/%d", f.linkBase, record.ID)
		}
		detail.Categories = categories[record.ID]
		details = append(details, detail)
	}
	return details, nil
}

// categoryNames resolves category names per record in two batch calls:
// one for term assignments, one for term names.
func (f *Finder) categoryNames(ctx context.Context, recordIDs []int64) (map[int64][]string, error) {
	terms, err := f.taxonomies.TermsMany(ctx, recordIDs, directory.TaxonomyCategory)
	if err != nil {
		return nil, err
	}

	var allTerms []int64
	seen := make(map[int64]bool)
	for _, termIDs := range terms {
		for _, id := range termIDs {
			if !seen[id] {
				seen[id] = true
				allTerms = append(allTerms, id)
			}
		}
	}
	if len(allTerms) == 0 {
		return map[int64][]string{}, nil
	}

	names, err := f.taxonomies.Names(ctx, directory.TaxonomyCategory, allTerms)
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]string, len(terms))
	for recordID, termIDs := range terms {
		for _, id := range termIDs {
			if name, ok := names[id]; ok {
				out[recordID] = append(out[recordID], name)
			}
		}
	}
	return out, nil
}
