package merge

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/localindex/dedupe/pkg/directory"
	"github.com/localindex/dedupe/pkg/errors"
	"github.com/localindex/dedupe/pkg/logging"
)

// Undo reverses the disposal step of the primary's most recent merge.
// Only merges disposed with ActionDisable can be undone: deleted records
// are gone and redirects must be cleared deliberately. Reviews, fields,
// and taxonomy merged into the primary are never moved back; this is a
// documented partial undo.
func (m *Merger) Undo(ctx context.Context, primaryID int64) (*UndoResult, error) {
	m.locks.Lock(primaryID)
	defer m.locks.Unlock(primaryID)

	found, err := m.records.GetByIDs(ctx, []int64{primaryID})
	if err != nil {
		return nil, errors.WrapStore("record", "get primary", err)
	}
	if len(found) == 0 {
		return nil, errors.NewNotFoundError("record", primaryID)
	}
	primary := found[0]

	if len(primary.MergeHistory) == 0 {
		return nil, &errors.NoHistoryError{PrimaryID: primaryID}
	}
	last := primary.MergeHistory[len(primary.MergeHistory)-1]
	if last.Action != directory.ActionDisable {
		return nil, &errors.CannotUndoError{PrimaryID: primaryID, Action: string(last.Action)}
	}

	result := &UndoResult{PrimaryID: primaryID, Note: undoNote}

	duplicates, err := m.records.GetByIDs(ctx, last.MergedIDs)
	if err != nil {
		return nil, errors.WrapStore("record", "get duplicates", err)
	}
	for _, duplicate := range duplicates {
		status := directory.StatusPublished
		if prior, ok := last.PriorStatus[duplicate.ID]; ok {
			status = prior
		}
		duplicate.Status = status
		duplicate.ModifiedAt = utc.Now()
		if err := m.records.Save(ctx, duplicate); err != nil {
			result.Failures = append(result.Failures, Failure{
				DuplicateID: duplicate.ID,
				Message:     err.Error(),
			})
			continue
		}
		result.Restored = append(result.Restored, duplicate.ID)
	}

	primary.MergeHistory = primary.MergeHistory[:len(primary.MergeHistory)-1]
	primary.ModifiedAt = utc.Now()
	if err := m.records.Save(ctx, primary); err != nil {
		return result, errors.WrapStore("record", "save primary", err)
	}

	m.invalidate()

	logging.Ctx(ctx).Info().
		Int64("primary_id", primaryID).
		Ints64("restored", result.Restored).
		Msg("undid most recent merge")

	return result, nil
}
