package models

import (
	"testing"

	"github.com/google/uuid"
)

func waypoints(n int) []*Waypoint {
	wps := make([]*Waypoint, 0, n)
	for i := 0; i < n; i++ {
		wps = append(wps, &Waypoint{ID: uuid.New(), Order: i})
	}
	return wps
}

func assertDenseOrder(t *testing.T, wps []*Waypoint) {
	t.Helper()
	for i, wp := range wps {
		if wp.Order != i {
			t.Errorf("waypoint %d has order %d, want %d", i, wp.Order, i)
		}
	}
}

func TestNormalizeWaypoints(t *testing.T) {
	wps := []*Waypoint{
		{ID: uuid.New(), Order: 7},
		{ID: uuid.New(), Order: 2},
		{ID: uuid.New(), Order: 5},
	}
	NormalizeWaypoints(wps)
	assertDenseOrder(t, wps)
	if wps[0].Order != 0 || wps[2].Order != 2 {
		t.Error("expected dense 0..n-1 ordering")
	}
}

func TestMoveWaypoint(t *testing.T) {
	t.Run("move down swaps with the next waypoint", func(t *testing.T) {
		wps := waypoints(3)
		first := wps[0].ID
		second := wps[1].ID

		if !MoveWaypoint(wps, first, +1) {
			t.Fatal("expected move to succeed")
		}
		if wps[0].ID != second || wps[1].ID != first {
			t.Error("expected first two waypoints swapped")
		}
		assertDenseOrder(t, wps)
	})

	t.Run("move up swaps with the previous waypoint", func(t *testing.T) {
		wps := waypoints(3)
		last := wps[2].ID

		if !MoveWaypoint(wps, last, -1) {
			t.Fatal("expected move to succeed")
		}
		if wps[1].ID != last {
			t.Error("expected last waypoint moved to the middle")
		}
		assertDenseOrder(t, wps)
	})

	t.Run("move past either end is a no-op", func(t *testing.T) {
		wps := waypoints(2)
		if MoveWaypoint(wps, wps[0].ID, -1) {
			t.Error("expected moving first waypoint up to fail")
		}
		if MoveWaypoint(wps, wps[1].ID, +1) {
			t.Error("expected moving last waypoint down to fail")
		}
		assertDenseOrder(t, wps)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		wps := waypoints(2)
		if MoveWaypoint(wps, uuid.New(), +1) {
			t.Error("expected unknown id to fail")
		}
	})
}

func TestRemoveWaypoint(t *testing.T) {
	t.Run("removal renumbers densely without gaps", func(t *testing.T) {
		wps := waypoints(4)
		removedID := wps[1].ID

		out, ok := RemoveWaypoint(wps, removedID)
		if !ok {
			t.Fatal("expected removal to succeed")
		}
		if len(out) != 3 {
			t.Fatalf("expected 3 waypoints, got %d", len(out))
		}
		assertDenseOrder(t, out)
		for _, wp := range out {
			if wp.ID == removedID {
				t.Error("removed waypoint still present")
			}
		}
	})

	t.Run("unknown id leaves the slice untouched", func(t *testing.T) {
		wps := waypoints(2)
		out, ok := RemoveWaypoint(wps, uuid.New())
		if ok {
			t.Error("expected removal to fail")
		}
		if len(out) != 2 {
			t.Errorf("expected 2 waypoints, got %d", len(out))
		}
	})
}
