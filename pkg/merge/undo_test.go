package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localindex/dedupe/internal/stores/memory"
	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
)

func TestUndoRestoresPriorStatus(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza"))
	store.AddRecord(testRecord(2, "Joe's Pizza"))
	store.AddRecord(testRecord(3, "Joe's Pizza", func(r *directory.Record) {
		r.Status = directory.StatusDraft
	}))

	merger := newTestMerger(t, store)
	_, err := merger.Merge(context.Background(), 1, []int64{2, 3})
	require.NoError(t, err)

	result, err := merger.Undo(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, result.Restored)
	assert.Empty(t, result.Failures)
	assert.NotEmpty(t, result.Note)

	// Each duplicate returns to the status it had before the merge.
	assert.Equal(t, directory.StatusPublished, mustGet(t, store, 2).Status)
	assert.Equal(t, directory.StatusDraft, mustGet(t, store, 3).Status)

	// The history entry is consumed.
	primary := mustGet(t, store, 1)
	assert.Empty(t, primary.MergeHistory)
}

func TestUndoDoesNotReverseFieldMerges(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza"))
	store.AddRecord(testRecord(2, "Joe's Pizza", func(r *directory.Record) {
		r.Email = "joe@example.com"
	}))
	store.AddReview(&directory.Review{ID: 10, RecordID: 2, Rating: 5, Status: directory.ReviewApproved})

	merger := newTestMerger(t, store)
	_, err := merger.Merge(context.Background(), 1, []int64{2})
	require.NoError(t, err)

	_, err = merger.Undo(context.Background(), 1)
	require.NoError(t, err)

	// The merged field and review stay with the primary.
	primary := mustGet(t, store, 1)
	assert.Equal(t, "joe@example.com", primary.Email)
	count, err := store.Count(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUndoOnlyLastMerge(t *testing.T) {
	store := memory.New()
	store.AddRecord(testRecord(1, "Joe's Pizza"))
	store.AddRecord(testRecord(2, "Joe's Pizza"))
	store.AddRecord(testRecord(3, "Joe's Pizza"))

	merger := newTestMerger(t, store)
	_, err := merger.Merge(context.Background(), 1, []int64{2})
	require.NoError(t, err)
	_, err = merger.Merge(context.Background(), 1, []int64{3})
	require.NoError(t, err)

	result, err := merger.Undo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, result.Restored)

	// The earlier merge's duplicate stays disabled until its own undo.
	assert.Equal(t, directory.StatusDisabled, mustGet(t, store, 2).Status)

	result, err = merger.Undo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, result.Restored)
}

func TestUndoErrors(t *testing.T) {
	t.Run("unknown primary", func(t *testing.T) {
		merger := newTestMerger(t, memory.New())
		_, err := merger.Undo(context.Background(), 999)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("no history", func(t *testing.T) {
		store := memory.New()
		store.AddRecord(testRecord(1, "Joe's Pizza"))

		merger := newTestMerger(t, store)
		_, err := merger.Undo(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsNoHistory(err))
	})

	t.Run("deleted duplicates cannot be restored", func(t *testing.T) {
		store := memory.New()
		store.AddRecord(testRecord(1, "Joe's Pizza"))
		store.AddRecord(testRecord(2, "Joe's Pizza"))

		merger := newTestMerger(t, store)
		_, err := merger.Merge(context.Background(), 1, []int64{2},
			WithAction(directory.ActionDelete))
		require.NoError(t, err)

		_, err = merger.Undo(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsCannotUndo(err))
	})

	t.Run("redirected duplicates cannot be restored", func(t *testing.T) {
		store := memory.New()
		store.AddRecord(testRecord(1, "Joe's Pizza"))
		store.AddRecord(testRecord(2, "Joe's Pizza"))

		merger := newTestMerger(t, store)
		_, err := merger.Merge(context.Background(), 1, []int64{2},
			WithAction(directory.ActionRedirect))
		require.NoError(t, err)

		_, err = merger.Undo(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsCannotUndo(err))
	})
}
