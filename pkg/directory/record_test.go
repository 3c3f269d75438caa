package directory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatusVisible(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPublished, true},
		{StatusDraft, true},
		{StatusPending, true},
		{StatusDisabled, false},
		{Status("trash"), false},
	}
	for _, tt := range tests {
		if got := tt.status.Visible(); got != tt.want {
			t.Errorf("Status(%q).Visible() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestActionValid(t *testing.T) {
	for _, action := range AllowedActions() {
		if !action.Valid() {
			t.Errorf("allowed action %q reported invalid", action)
		}
	}
	if Action("archive").Valid() {
		t.Error("unknown action reported valid")
	}
}

func TestRecordClone(t *testing.T) {
	original := &Record{
		ID:       1,
		Title:    "Joe's Pizza",
		Status:   StatusPublished,
		Location: &Location{Address: "100 Main St", City: "Portland"},
		Photos:   []int64{100, 101},
		MergeHistory: []MergeLogEntry{{
			ID:          "entry-1",
			PrimaryID:   1,
			MergedIDs:   []int64{2, 3},
			Action:      ActionDisable,
			PriorStatus: map[int64]Status{2: StatusPublished, 3: StatusDraft},
		}},
	}

	clone := original.Clone()
	if diff := cmp.Diff(original, clone); diff != "" {
		t.Fatalf("clone differs from original (-want +got):\n%s", diff)
	}

	// Mutating the clone must not leak into the original.
	clone.Location.City = "Austin"
	clone.Photos[0] = 999
	clone.MergeHistory[0].MergedIDs[0] = 999
	clone.MergeHistory[0].PriorStatus[2] = StatusDisabled

	if original.Location.City != "Portland" {
		t.Error("location mutation leaked into original")
	}
	if original.Photos[0] != 100 {
		t.Error("photo mutation leaked into original")
	}
	if original.MergeHistory[0].MergedIDs[0] != 2 {
		t.Error("merge history mutation leaked into original")
	}
	if original.MergeHistory[0].PriorStatus[2] != StatusPublished {
		t.Error("prior status mutation leaked into original")
	}
}

func TestRecordCloneNil(t *testing.T) {
	var record *Record
	if record.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}

func TestHasAddress(t *testing.T) {
	record := &Record{}
	if record.HasAddress() {
		t.Error("record without location should not have an address")
	}
	record.Location = &Location{City: "Portland"}
	if record.HasAddress() {
		t.Error("city alone should not count as an address")
	}
	record.Location.Address = "100 Main St"
	if !record.HasAddress() {
		t.Error("record with street address should have an address")
	}
}
