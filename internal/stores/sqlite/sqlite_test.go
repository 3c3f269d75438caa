package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localindex/dedupe/internal/seed"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id int64, title string, mods ...func(*directory.Record)) *directory.Record {
	r := &directory.Record{
		ID:         id,
		Title:      title,
		Status:     directory.StatusPublished,
		CreatedAt:  utc.Now(),
		ModifiedAt: utc.Now(),
	}
	for _, mod := range mods {
		mod(r)
	}
	return r
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved := record(1, "Joe's Pizza", func(r *directory.Record) {
		r.Phone = "555-123-4567"
		r.Photos = []int64{100, 101}
		r.Location = &directory.Location{Address: "100 Main St", City: "Portland"}
	})
	require.NoError(t, store.Save(ctx, saved))

	found, err := store.GetByIDs(ctx, []int64{1, 999})
	require.NoError(t, err)
	require.Len(t, found, 1)

	got := found[0]
	assert.Equal(t, "Joe's Pizza", got.Title)
	assert.Equal(t, "555-123-4567", got.Phone)
	assert.Equal(t, []int64{100, 101}, got.Photos)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Portland", got.Location.City)
}

func TestSaveUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "Old Title")))
	require.NoError(t, store.Save(ctx, record(1, "New Title")))

	found, err := store.GetByIDs(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "New Title", found[0].Title)
}

func TestWritesCompleteOnSingleConnection(t *testing.T) {
	// The pool is capped at one connection, so Save and Delete must not
	// issue a pool-level query while their own transaction holds it. A
	// watchdog catches the write parking forever in connection wait.
	store := openTestStore(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		if err := store.Save(ctx, record(1, "Joe's Pizza", func(r *directory.Record) {
			r.Location = &directory.Location{City: "Portland"}
		})); err != nil {
			done <- err
			return
		}
		done <- store.Delete(ctx, 1)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("record write blocked waiting on the pool's only connection")
	}
}

func TestScanVisibleOnly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "A")))
	require.NoError(t, store.Save(ctx, record(2, "B", func(r *directory.Record) {
		r.Status = directory.StatusDisabled
	})))
	require.NoError(t, store.Save(ctx, record(3, "C")))

	records, err := store.Scan(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(3), records[1].ID)

	limited, err := store.Scan(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGroupByFieldTitle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "Joe's Pizza")))
	require.NoError(t, store.Save(ctx, record(2, "Joe's Pizza")))
	require.NoError(t, store.Save(ctx, record(3, "Joe's Pizza", func(r *directory.Record) {
		r.Status = directory.StatusDisabled
	})))
	require.NoError(t, store.Save(ctx, record(4, "Solo Cafe")))

	groups, err := store.GroupByField(ctx, directory.FieldTitle, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Joe's Pizza"}, groups[0].Values)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs)
}

func TestGroupByFieldTitleCity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	withCity := func(city string) func(*directory.Record) {
		return func(r *directory.Record) {
			r.Location = &directory.Location{City: city}
		}
	}

	require.NoError(t, store.Save(ctx, record(1, "Corner Cafe", withCity("Portland"))))
	require.NoError(t, store.Save(ctx, record(2, "Corner Cafe", withCity("Portland"))))
	require.NoError(t, store.Save(ctx, record(3, "Corner Cafe", withCity("Austin"))))
	require.NoError(t, store.Save(ctx, record(4, "Corner Cafe")))

	groups, err := store.GroupByField(ctx, directory.FieldTitleCity, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Corner Cafe", "Portland"}, groups[0].Values)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs)
}

func TestGroupByFieldMissingTable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DropTable(ctx, directory.TableLocations))
	assert.False(t, store.TableExists(ctx, directory.TableLocations))

	groups, err := store.GroupByField(ctx, directory.FieldTitleCity, 0)
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Saving still works without the locations table.
	require.NoError(t, store.Save(ctx, record(1, "A", func(r *directory.Record) {
		r.Location = &directory.Location{City: "Portland"}
	})))
}

func TestDeleteCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(1, "A", func(r *directory.Record) {
		r.Location = &directory.Location{Address: "100 Main St"}
	})))
	_, err := store.UnionAssign(ctx, 1, directory.TaxonomyCategory, []int64{10})
	require.NoError(t, err)
	require.NoError(t, store.SetClaim(ctx, 1, &directory.Claim{OwnerID: 7, ClaimedAt: utc.Now()}))

	require.NoError(t, store.Delete(ctx, 1))

	found, err := store.GetByIDs(ctx, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, found)

	terms, err := store.Terms(ctx, 1, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Empty(t, terms)

	claim, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, claim)

	err = store.Delete(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestReviews(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	reviews := []*directory.Review{
		{ID: 1, RecordID: 2, Rating: 5, Status: directory.ReviewApproved},
		{ID: 2, RecordID: 2, Rating: 4, Status: directory.ReviewApproved},
		{ID: 3, RecordID: 3, Rating: 2, Status: directory.ReviewApproved},
		{ID: 4, RecordID: 3, Rating: 1, Status: directory.ReviewPending},
	}
	for _, review := range reviews {
		require.NoError(t, store.AddReview(ctx, review))
	}

	count, err := store.Count(ctx, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	moved, err := store.Reassign(ctx, []int64{2, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, moved)

	stats, err := store.Stats(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, stats[1].Count, "pending review excluded from aggregate")
	assert.InDelta(t, 3.7, stats[1].AvgRating, 0.01)
	assert.Zero(t, stats[2].Count)

	require.NoError(t, store.DeleteByRecord(ctx, 1))
	count, err = store.Count(ctx, []int64{1})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTaxonomy(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DefineTerm(ctx, directory.TaxonomyCategory, 10, "Pizza"))
	require.NoError(t, store.DefineTerm(ctx, directory.TaxonomyCategory, 11, "Italian"))

	added, err := store.UnionAssign(ctx, 1, directory.TaxonomyCategory, []int64{10})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Re-assigning an existing term adds nothing.
	added, err = store.UnionAssign(ctx, 1, directory.TaxonomyCategory, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	terms, err := store.Terms(ctx, 1, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, terms)

	many, err := store.TermsMany(ctx, []int64{1, 2}, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, many[1])
	assert.Empty(t, many[2])

	names, err := store.Names(ctx, directory.TaxonomyCategory, []int64{10, 11, 99})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{10: "Pizza", 11: "Italian"}, names)
}

func TestClaims(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetClaim(ctx, 2, &directory.Claim{OwnerID: 7, ClaimedAt: utc.Now()}))

	claim, err := store.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, int64(7), claim.OwnerID)
	assert.False(t, claim.ClaimedAt.IsZero())

	require.NoError(t, store.Transfer(ctx, 2, 1))
	moved, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, int64(7), moved.OwnerID)

	cleared, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	// Transfer from an unclaimed record is a no-op.
	require.NoError(t, store.Transfer(ctx, 5, 1))
}

func TestImportSeed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	file := &seed.File{
		Records: []*directory.Record{
			record(1, "Joe's Pizza"),
			record(2, "Joe's Pizza"),
		},
		Reviews: []*directory.Review{
			{ID: 10, RecordID: 1, Rating: 5, Status: directory.ReviewApproved},
		},
		Claims: []seed.Claim{{RecordID: 2, OwnerID: 7}},
		Terms: []seed.Term{
			{Taxonomy: directory.TaxonomyCategory, ID: 20, Name: "Pizza", Records: []int64{1, 2}},
		},
	}
	require.NoError(t, store.Import(ctx, file))

	groups, err := store.GroupByField(ctx, directory.FieldTitle, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs)

	stats, err := store.Stats(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats[1].Count)

	claim, err := store.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, claim)

	terms, err := store.Terms(ctx, 1, directory.TaxonomyCategory)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, terms)
}
