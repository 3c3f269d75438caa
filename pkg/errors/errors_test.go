package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("record", 42)

	if got := err.Error(); got != "record with ID 42 not found" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report true")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound should report false for unrelated errors")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("action", "archive", "must be delete, disable, or redirect")

	if !IsValidation(err) {
		t.Error("IsValidation should report true")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatal("errors.As should unpack ValidationError")
	}
	if validation.Field != "action" {
		t.Errorf("Field = %q, want action", validation.Field)
	}
}

func TestUndoErrors(t *testing.T) {
	noHistory := &NoHistoryError{PrimaryID: 7}
	if !IsNoHistory(noHistory) {
		t.Error("IsNoHistory should report true")
	}
	if IsCannotUndo(noHistory) {
		t.Error("no-history error should not match cannot-undo")
	}

	cannotUndo := &CannotUndoError{PrimaryID: 7, Action: "delete"}
	if !IsCannotUndo(cannotUndo) {
		t.Error("IsCannotUndo should report true")
	}
	want := `cannot undo merge on record 7: duplicates were disposed with action "delete"`
	if got := cannotUndo.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapStore(t *testing.T) {
	if WrapStore("record", "save", nil) != nil {
		t.Error("wrapping nil should return nil")
	}

	inner := NewNotFoundError("record", 1)
	wrapped := WrapStore("record", "save", inner)

	var storeErr *StoreError
	if !errors.As(wrapped, &storeErr) {
		t.Fatal("errors.As should unpack StoreError")
	}
	if storeErr.Operation != "save" {
		t.Errorf("Operation = %q", storeErr.Operation)
	}
	if !IsNotFound(wrapped) {
		t.Error("wrapped sentinel should still be visible through StoreError")
	}
}
