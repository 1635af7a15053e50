package deckfs

import (
	"errors"
	"testing"
)

func TestKind_Removal(t *testing.T) {
	cases := []struct {
		kind    Kind
		removal bool
	}{
		{KindCreated, false},
		{KindModified, false},
		{KindDeleted, true},
		{KindMovedTo, false},
		{KindMovedFrom, true},
	}
	for _, tc := range cases {
		if tc.kind.removal() != tc.removal {
			t.Errorf("%s: removal=%v, expected %v", tc.kind, tc.kind.removal(), tc.removal)
		}
	}
}

func TestStringers(t *testing.T) {
	if KindMovedTo.String() != "moved-to" {
		t.Errorf("kind: %s", KindMovedTo)
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("kind: %s", Kind(99))
	}
	if CategoryStructural.String() != "structural" {
		t.Errorf("category: %s", CategoryStructural)
	}
	if StatusLoading.String() != "loading" {
		t.Errorf("status: %s", StatusLoading)
	}
	if SlotStatus(99).String() != "unknown" {
		t.Errorf("status: %s", SlotStatus(99))
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("cause")

	for _, err := range []error{
		&DecodeError{Path: "/x/image.png", Err: cause},
		&RenderError{Slot: 1, Err: cause},
		&ScriptError{Slot: 1, Path: "/x/action.sh", Err: cause},
		&WatchError{Err: cause},
	} {
		if !errors.Is(err, cause) {
			t.Errorf("%T does not unwrap to its cause", err)
		}
		if err.Error() == "" {
			t.Errorf("%T has empty message", err)
		}
	}
}
