package merge

import (
	"fmt"
	"time"

	"github.com/localindex/dedupe/pkg/directory"
)

// Failure records one duplicate the merger could not dispose of. Failures
// are returned inside the Result, never as an error: completed steps are
// not rolled back.
type Failure struct {
	DuplicateID int64  `json:"duplicate_id"`
	Message     string `json:"message"`
}

// Result is the outcome of a merge.
type Result struct {
	PrimaryID int64                  `json:"primary_id"`
	Merged    []int64                `json:"merged"`
	Action    directory.Action       `json:"action"`
	Outcome   directory.MergeOutcome `json:"outcome"`
	Failures  []Failure              `json:"failures,omitempty"`

	LogEntryID string        `json:"log_entry_id"`
	Duration   time.Duration `json:"duration"`
}

// IsSuccess reports whether every duplicate was disposed of cleanly.
func (r *Result) IsSuccess() bool {
	return len(r.Failures) == 0
}

// Summary returns a human-readable one-liner for the result.
func (r *Result) Summary() string {
	if !r.IsSuccess() {
		return fmt.Sprintf("merged %d duplicates into record %d with %d failures",
			len(r.Merged), r.PrimaryID, len(r.Failures))
	}
	return fmt.Sprintf("merged %d duplicates into record %d (%s)",
		len(r.Merged), r.PrimaryID, r.Action)
}

// UndoResult is the outcome of undoing the most recent merge.
type UndoResult struct {
	PrimaryID int64     `json:"primary_id"`
	Restored  []int64   `json:"restored"`
	Failures  []Failure `json:"failures,omitempty"`

	// Note documents the partial-undo contract for display surfaces.
	Note string `json:"note"`
}

// undoNote is returned on every successful undo: the disposal is reversed
// but field-level merges are not.
const undoNote = "duplicates restored; reviews, fields, and taxonomy merged into the primary were not moved back"
