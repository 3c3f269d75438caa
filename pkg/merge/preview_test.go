package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localindex/dedupe/internal/stores/memory"
	"github.com/localindex/dedupe/pkg/directory"
)

func TestPreviewReportsChanges(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza"))
	store.AddRecord(testRecord(2, "Joe's Pizza", func(r *directory.Record) {
		r.Email = "joe@example.com"
		r.Photos = []int64{100}
		r.Location = &directory.Location{Address: "200 Oak Ave", City: "Portland"}
	}))
	store.AddReview(&directory.Review{ID: 10, RecordID: 2, Rating: 5, Status: directory.ReviewApproved})
	store.AssignTerms(2, directory.TaxonomyCategory, []int64{10})
	store.SetClaim(2, &directory.Claim{OwnerID: 7})

	merger := newTestMerger(t, store)
	diff, err := merger.Preview(context.Background(), 1, []int64{2})
	require.NoError(t, err)

	require.NotNil(t, diff.Primary)
	require.Len(t, diff.Duplicates, 1)

	byCategory := make(map[ChangeCategory][]Change)
	for _, change := range diff.Changes {
		byCategory[change.Category] = append(byCategory[change.Category], change)
	}

	require.Len(t, byCategory[ChangeReviews], 1)
	assert.Equal(t, 1, byCategory[ChangeReviews][0].Count)

	require.Len(t, byCategory[ChangePhotos], 1)
	assert.Equal(t, 1, byCategory[ChangePhotos][0].Count)

	require.Len(t, byCategory[ChangeField], 1)
	assert.Equal(t, "email", byCategory[ChangeField][0].Field)
	assert.Equal(t, "joe@example.com", byCategory[ChangeField][0].Value)
	assert.Equal(t, int64(2), byCategory[ChangeField][0].FromID)

	require.Len(t, byCategory[ChangeLocation], 1)
	assert.Equal(t, "200 Oak Ave", byCategory[ChangeLocation][0].Value)

	require.Len(t, byCategory[ChangeTaxonomy], 1)
	assert.Equal(t, "category", byCategory[ChangeTaxonomy][0].Field)
	assert.Equal(t, 1, byCategory[ChangeTaxonomy][0].Count)

	require.Len(t, byCategory[ChangeClaim], 1)
	assert.Equal(t, int64(2), byCategory[ChangeClaim][0].FromID)
}

func TestPreviewIsReadOnly(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza"))
	store.AddRecord(testRecord(2, "Joe's Pizza", func(r *directory.Record) {
		r.Email = "joe@example.com"
		r.Photos = []int64{100}
	}))
	store.AddReview(&directory.Review{ID: 10, RecordID: 2, Rating: 5, Status: directory.ReviewApproved})

	merger := newTestMerger(t, store)
	_, err := merger.Preview(context.Background(), 1, []int64{2})
	require.NoError(t, err)

	primary := mustGet(t, store, 1)
	assert.Empty(t, primary.Email)
	assert.Empty(t, primary.Photos)
	assert.Empty(t, primary.MergeHistory)

	duplicate := mustGet(t, store, 2)
	assert.Equal(t, directory.StatusPublished, duplicate.Status)

	count, err := store.Count(context.Background(), []int64{2})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "reviews must not move during preview")
}

func TestPreviewNothingToMerge(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza", func(r *directory.Record) {
		r.Phone = "555-111-1111"
	}))
	store.AddRecord(testRecord(2, "Joe's Pizza", func(r *directory.Record) {
		r.Phone = "555-222-2222"
	}))

	merger := newTestMerger(t, store)
	diff, err := merger.Preview(context.Background(), 1, []int64{2})
	require.NoError(t, err)
	assert.Empty(t, diff.Changes)
}
