package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("load bus: %w", NotFoundError{Resource: "bus", Msg: "Bus not found."})
	if !IsNotFound(wrapped) {
		t.Fatalf("expected wrapped NotFoundError to be detected")
	}
	if wrapped.Error() != "load bus: Bus not found." {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
	if IsValidation(wrapped) || IsConflict(wrapped) || IsUnauthorized(wrapped) {
		t.Fatalf("NotFoundError matched another kind")
	}

	base := errors.New("driver exploded")
	internal := InternalError{Msg: "Server Error", Err: base}
	if !IsInternal(internal) || !errors.Is(internal, base) {
		t.Fatalf("InternalError should unwrap to base error")
	}
}

func TestEnumValidation(t *testing.T) {
	if !NotificationType("bus_delay").Valid() || NotificationType("spam").Valid() {
		t.Fatalf("notification type validation wrong")
	}
	if !Priority("urgent").Valid() || Priority("critical").Valid() {
		t.Fatalf("priority validation wrong")
	}
	if JoinPriorities() != "low, medium, high, urgent" {
		t.Fatalf("unexpected priorities list %q", JoinPriorities())
	}
}
