package directory

import (
	"github.com/agentstation/utc"
)

// Action is what happens to a duplicate record after its data has been
// consolidated into the primary.
type Action string

// Disposition actions.
const (
	// ActionDelete removes the duplicate and its dependent rows permanently.
	ActionDelete Action = "delete"
	// ActionDisable soft-hides the duplicate. The only undoable action.
	ActionDisable Action = "disable"
	// ActionRedirect hides the duplicate and points it at the primary.
	ActionRedirect Action = "redirect"
)

// AllowedActions returns the valid disposition actions.
func AllowedActions() []Action {
	return []Action{ActionDelete, ActionDisable, ActionRedirect}
}

// Valid reports whether the action is one of the allowed dispositions.
func (a Action) Valid() bool {
	switch a {
	case ActionDelete, ActionDisable, ActionRedirect:
		return true
	default:
		return false
	}
}

// MergeOutcome records what each consolidation step actually did.
type MergeOutcome struct {
	ReviewsMoved      int      `json:"reviews_moved" yaml:"reviews_moved"`
	PhotosMerged      int      `json:"photos_merged" yaml:"photos_merged"`
	FieldsFilled      []string `json:"fields_filled,omitempty" yaml:"fields_filled,omitempty"`
	CategoriesAdded   int      `json:"categories_added" yaml:"categories_added"`
	TagsAdded         int      `json:"tags_added" yaml:"tags_added"`
	ClaimsTransferred int      `json:"claims_transferred" yaml:"claims_transferred"`
}

// MergeLogEntry is one entry in a primary record's merge history. The history
// is append-only; only the most recent entry may be popped by an undo.
type MergeLogEntry struct {
	ID        string       `json:"id" yaml:"id"`
	PrimaryID int64        `json:"primary_id" yaml:"primary_id"`
	MergedIDs []int64      `json:"merged_ids" yaml:"merged_ids"`
	Action    Action       `json:"action" yaml:"action"`
	Outcome   MergeOutcome `json:"outcome" yaml:"outcome"`

	// PriorStatus keeps each duplicate's status before disposal so an undo
	// can restore it exactly.
	PriorStatus map[int64]Status `json:"prior_status,omitempty" yaml:"prior_status,omitempty"`

	MergedAt utc.Time `json:"merged_at" yaml:"merged_at"`
	ActorID  int64    `json:"actor_id,omitempty" yaml:"actor_id,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e *MergeLogEntry) Clone() *MergeLogEntry {
	clone := *e
	if e.MergedIDs != nil {
		clone.MergedIDs = append([]int64(nil), e.MergedIDs...)
	}
	if e.Outcome.FieldsFilled != nil {
		clone.Outcome.FieldsFilled = append([]string(nil), e.Outcome.FieldsFilled...)
	}
	if e.PriorStatus != nil {
		clone.PriorStatus = make(map[int64]Status, len(e.PriorStatus))
		for id, status := range e.PriorStatus {
			clone.PriorStatus[id] = status
		}
	}
	return &clone
}
