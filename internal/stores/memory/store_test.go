package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

func record(id int64, title string, status directory.Status) *directory.Record {
	return &directory.Record{ID: id, Title: title, Status: status}
}

func TestGetByIDs(t *testing.T) {
	store := New()
	store.AddRecord(record(1, "A", directory.StatusPublished))
	store.AddRecord(record(2, "B", directory.StatusPublished))

	found, err := store.GetByIDs(context.Background(), []int64{2, 999, 1})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(2), found[0].ID)
	assert.Equal(t, int64(1), found[1].ID)
}

func TestGetByIDsReturnsClones(t *testing.T) {
	store := New()
	store.AddRecord(record(1, "A", directory.StatusPublished))

	found, err := store.GetByIDs(context.Background(), []int64{1})
	require.NoError(t, err)
	found[0].Title = "mutated"

	again, err := store.GetByIDs(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, "A", again[0].Title)
}

func TestScanVisibleOnly(t *testing.T) {
	store := New()
	store.AddRecord(record(1, "A", directory.StatusPublished))
	store.AddRecord(record(2, "B", directory.StatusDisabled))
	store.AddRecord(record(3, "C", directory.StatusDraft))
	store.AddRecord(record(4, "D", directory.StatusPending))

	records, err := store.Scan(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(3), records[1].ID)
	assert.Equal(t, int64(4), records[2].ID)

	limited, err := store.Scan(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGroupByField(t *testing.T) {
	store := New()
	store.AddRecord(record(1, "Joe's Pizza", directory.StatusPublished))
	store.AddRecord(record(2, "Joe's Pizza", directory.StatusPublished))
	store.AddRecord(record(3, "Joe's Pizza", directory.StatusDisabled))
	store.AddRecord(record(4, "Solo Cafe", directory.StatusPublished))

	groups, err := store.GroupByField(context.Background(), directory.FieldTitle, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Joe's Pizza"}, groups[0].Values)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs, "hidden records excluded")
}

func TestGroupByFieldTitleCity(t *testing.T) {
	withLocation := func(id int64, title, city string) *directory.Record {
		r := record(id, title, directory.StatusPublished)
		r.Location = &directory.Location{City: city}
		return r
	}

	store := New()
	store.AddRecord(withLocation(1, "Corner Cafe", "Portland"))
	store.AddRecord(withLocation(2, "Corner Cafe", "Portland"))
	store.AddRecord(withLocation(3, "Corner Cafe", "Austin"))
	store.AddRecord(record(4, "Corner Cafe", directory.StatusPublished)) // no location

	groups, err := store.GroupByField(context.Background(), directory.FieldTitleCity, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Corner Cafe", "Portland"}, groups[0].Values)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs)
}

func TestGroupByFieldMissingTable(t *testing.T) {
	store := New(WithoutTable(directory.TableLocations))

	groups, err := store.GroupByField(context.Background(), directory.FieldTitleCity, 0)
	require.NoError(t, err)
	assert.Empty(t, groups)

	assert.False(t, store.TableExists(context.Background(), directory.TableLocations))
	assert.True(t, store.TableExists(context.Background(), directory.TableReviews))
}

func TestDelete(t *testing.T) {
	store := New()
	store.AddRecord(record(1, "A", directory.StatusPublished))

	require.NoError(t, store.Delete(context.Background(), 1))
	err := store.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestReviewStats(t *testing.T) {
	store := New()
	store.AddReview(&directory.Review{ID: 1, RecordID: 1, Rating: 5, Status: directory.ReviewApproved})
	store.AddReview(&directory.Review{ID: 2, RecordID: 1, Rating: 4, Status: directory.ReviewApproved})
	store.AddReview(&directory.Review{ID: 3, RecordID: 1, Rating: 1, Status: directory.ReviewRejected})
	store.AddReview(&directory.Review{ID: 4, RecordID: 2, Rating: 3, Status: directory.ReviewApproved})

	stats, err := store.Stats(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 4.5, stats[1].AvgRating, 0.01)
	assert.Equal(t, 1, stats[2].Count)
	assert.Zero(t, stats[3].Count, "unknown records get a zero entry")
}

func TestReassign(t *testing.T) {
	store := New()
	store.AddReview(&directory.Review{ID: 1, RecordID: 2, Rating: 5, Status: directory.ReviewApproved})
	store.AddReview(&directory.Review{ID: 2, RecordID: 3, Rating: 4, Status: directory.ReviewApproved})
	store.AddReview(&directory.Review{ID: 3, RecordID: 4, Rating: 3, Status: directory.ReviewApproved})

	moved, err := store.Reassign(context.Background(), []int64{2, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	count, err := store.Count(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUnionAssign(t *testing.T) {
	store := New()
	store.AssignTerms(1, directory.TaxonomyCategory, []int64{10})

	added, err := store.UnionAssign(context.Background(), 1, directory.TaxonomyCategory, []int64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	terms, err := store.Terms(context.Background(), 1, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, terms)
}

func TestClaimTransfer(t *testing.T) {
	store := New()
	store.SetClaim(2, &directory.Claim{OwnerID: 7})

	require.NoError(t, store.Transfer(context.Background(), 2, 1))

	claim, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, int64(7), claim.OwnerID)

	cleared, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	// Transferring from an unclaimed record is a no-op.
	require.NoError(t, store.Transfer(context.Background(), 5, 1))
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	data := `
records:
  - id: 1
    title: "Joe's Pizza"
  - id: 2
    title: "Joe's Pizza"
    status: draft
    phone: "555-123-4567"
reviews:
  - id: 10
    record_id: 1
    rating: 5
claims:
  - record_id: 2
    owner_id: 7
terms:
  - taxonomy: category
    id: 20
    name: Pizza
    records: [1, 2]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store, err := LoadSeed(path)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())

	records, err := store.GetByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, directory.StatusPublished, records[0].Status, "status defaults to published")
	assert.Equal(t, directory.StatusDraft, records[1].Status)
	assert.Equal(t, "555-123-4567", records[1].Phone)

	stats, err := store.Stats(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats[1].Count, "review status defaults to approved")

	claim, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, int64(7), claim.OwnerID)

	terms, err := store.Terms(context.Background(), 1, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, terms)

	names, err := store.Names(context.Background(), directory.TaxonomyCategory, []int64{20})
	require.NoError(t, err)
	assert.Equal(t, "Pizza", names[20])
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed("/nonexistent/seed.yaml")
	require.Error(t, err)
}
