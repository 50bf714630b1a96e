package pathfind

import (
	"testing"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
)

func TestFindPath_Diagonal(t *testing.T) {
	f := galaxytest.New(t)
	_, fl := f.Ship(galaxytest.Federation, "SCOUT", galaxy.MapLocation{X: 0, Y: 0})
	dest := galaxy.MapLocation{X: 4, Y: 4}
	r := (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{}, dest)
	if len(r.Steps) != 4 {
		t.Fatalf("steps: got %d want 4 (%v)", len(r.Steps), r.Steps)
	}
	if last, _ := r.LastWaypoint(); last != dest {
		t.Fatalf("last waypoint: got %v want %v", last, dest)
	}
	if r.Steps[3] != dest {
		t.Fatalf("route should end at the destination: %v", r.Steps)
	}
}

func TestFindPath_AvoidsDeathStars(t *testing.T) {
	f := galaxytest.New(t)
	hole := f.AddSystem("Cygnus X-1", galaxy.MapLocation{X: 6, Y: 10}, galaxy.StarBlackHole, 0)
	_, fl := f.Ship(galaxytest.Federation, "SCOUT", galaxy.MapLocation{X: 5, Y: 10})
	dest := galaxy.MapLocation{X: 7, Y: 10}

	direct := (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{}, dest)
	if len(direct.Steps) != 2 || direct.Steps[0] != hole.Location {
		t.Fatalf("direct route should cross the black hole: %v", direct.Steps)
	}
	safe := (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{AvoidDeathStars: true}, dest)
	if len(safe.Steps) != 2 {
		t.Fatalf("detour length: got %d want 2", len(safe.Steps))
	}
	for _, s := range safe.Steps {
		if s == hole.Location {
			t.Fatalf("safe route crossed the black hole: %v", safe.Steps)
		}
	}
}

func TestFindPath_UnreachableIsEmpty(t *testing.T) {
	f := galaxytest.New(t)
	_, fl := f.Ship(galaxytest.Federation, "SCOUT", galaxy.MapLocation{X: 0, Y: 0})
	r := (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{WithinFuelRange: true}, galaxy.MapLocation{X: 9, Y: 9})
	if !r.IsEmpty() {
		t.Fatalf("no fuel anywhere: expected empty route, got %v", r.Steps)
	}
	f.FuelEverywhere(galaxytest.Federation)
	r = (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{WithinFuelRange: true}, galaxy.MapLocation{X: 9, Y: 9})
	if len(r.Steps) != 9 {
		t.Fatalf("fueled route: got %d steps want 9", len(r.Steps))
	}
}

func TestFindPath_ChainsWaypoints(t *testing.T) {
	f := galaxytest.New(t)
	_, fl := f.Ship(galaxytest.Federation, "SCOUT", galaxy.MapLocation{X: 0, Y: 0})
	r := (&AStar{}).FindPath(f.Game, fl, galaxy.PathOptions{}, galaxy.MapLocation{X: 2, Y: 0}, galaxy.MapLocation{X: 2, Y: 3})
	if len(r.Steps) != 5 || len(r.Waypoints) != 2 {
		t.Fatalf("steps=%d waypoints=%d", len(r.Steps), len(r.Waypoints))
	}
}
