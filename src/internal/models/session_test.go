package models

import "testing"

func TestHasPosition(t *testing.T) {
	var s Session
	if s.HasPosition() {
		t.Error("expected no position on a fresh session")
	}

	s.Latitude = NewCoordinate(41.0082)
	if s.HasPosition() {
		t.Error("latitude alone is not a position")
	}

	s.Longitude = NewCoordinate(28.9784)
	if !s.HasPosition() {
		t.Error("expected position after both coordinates are set")
	}
}
