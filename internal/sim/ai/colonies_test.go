package ai

import (
	"testing"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
	"supremacy.ai/internal/sim/tuning"
)

func TestDoColonies_QueuesShipAndCheapestBuilding(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()

	p := NewPlayers(tuning.Defaults(), nil, nil)
	if err := p.DoColonies(g, g.Civilizations[galaxytest.Federation]); err != nil {
		t.Fatalf("DoColonies: %v", err)
	}
	sol := g.ColonyOfSystem(f.Sol)
	if len(sol.Shipyard.Queue) != 1 {
		t.Fatalf("shipyard queue: got %d items want 1", len(sol.Shipyard.Queue))
	}
	if got := sol.Shipyard.Queue[0].Project.DesignKey; got != "COLONY_SHIP" {
		t.Fatalf("first ship: got %s want COLONY_SHIP", got)
	}
	if len(sol.BuildQueue) != 1 || sol.BuildQueue[0].Project.DesignKey != "MONUMENT" {
		t.Fatalf("expected the monument queued as the cheapest building")
	}

	// A busy colony is left alone.
	if err := p.DoColonies(g, g.Civilizations[galaxytest.Federation]); err != nil {
		t.Fatalf("DoColonies: %v", err)
	}
	if len(sol.Shipyard.Queue) != 1 || len(sol.BuildQueue) != 1 {
		t.Fatalf("busy colony got more work: ships=%d buildings=%d", len(sol.Shipyard.Queue), len(sol.BuildQueue))
	}
}

func TestDoColonies_ShipMixFollowsCounts(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	tun := tuning.Defaults()
	for i := 0; i < tun.AI.Colony.MaxColonizers; i++ {
		f.Ship(galaxytest.Federation, "COLONY_SHIP", f.Sol.Location)
	}

	p := NewPlayers(tun, nil, nil)
	sol := g.ColonyOfSystem(f.Sol)
	want := []string{"SCOUT", "CONSTRUCTION_SHIP", "CRUISER"}
	for _, key := range want {
		if err := p.DoColonies(g, g.Civilizations[galaxytest.Federation]); err != nil {
			t.Fatalf("DoColonies: %v", err)
		}
		if got := sol.Shipyard.Queue[0].Project.DesignKey; got != key {
			t.Fatalf("queued ship: got %s want %s", got, key)
		}
		if _, _, err := g.SpawnShip(galaxytest.Federation, key, f.Sol.Location); err != nil {
			t.Fatalf("SpawnShip: %v", err)
		}
		sol.Shipyard.Queue = nil
	}
}

func TestDoColonies_MinorPowerBuildsNoShips(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()

	p := NewPlayers(tuning.Defaults(), nil, nil)
	if err := p.DoColonies(g, g.Civilizations[galaxytest.Bajorans]); err != nil {
		t.Fatalf("DoColonies: %v", err)
	}
	bajor := g.ColonyOfSystem(f.Bajor)
	if len(bajor.Shipyard.Queue) != 0 {
		t.Fatalf("minor power queued %d ships", len(bajor.Shipyard.Queue))
	}
	if len(bajor.BuildQueue) != 1 {
		t.Fatalf("minor power should still queue a building")
	}
}

func TestDoColonies_UnknownDesign(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	tun := tuning.Defaults()
	tun.AI.Colony.ColonyShip = "NO_SUCH_SHIP"

	p := NewPlayers(tun, nil, nil)
	if err := p.DoColonies(g, g.Civilizations[galaxytest.Federation]); err == nil {
		t.Fatalf("expected an error for a missing ship design")
	}
}

func TestDoTurn_MemberSkipsProduction(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Contact(galaxytest.Federation, galaxytest.Bajorans)
	f.Registry.SetStatus(galaxytest.Bajorans, galaxytest.Federation, galaxy.StatusOwnerIsMember)

	p := NewPlayers(tuning.Defaults(), nil, nil)
	if err := p.DoTurn(g, g.Civilizations[galaxytest.Bajorans], nil); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if bajor := g.ColonyOfSystem(f.Bajor); bajor.HasBuildWork() {
		t.Fatalf("member civ should not plan production")
	}
}

func TestDoTurn_NoManager(t *testing.T) {
	f := galaxytest.New(t)
	ghost := &galaxy.Civilization{ID: 9, Key: "GHOST", Type: galaxy.CivEmpire}
	p := NewPlayers(tuning.Defaults(), nil, nil)
	if err := p.DoTurn(f.Game, ghost, nil); err == nil {
		t.Fatalf("expected ErrNoManager")
	}
}

func TestChooseTarget_WeakestEnemy(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Colonize(galaxytest.Klingons, f.AddSystem("Khitomer", galaxy.MapLocation{X: 15, Y: 15}, galaxy.StarRed, 80), 20)
	f.Contact(galaxytest.Federation, galaxytest.Klingons, galaxytest.Bajorans)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Bajorans)

	p := NewPlayers(tuning.Defaults(), nil, nil)
	fed := g.Civilizations[galaxytest.Federation]
	p.ChooseTarget(g, fed)
	if fed.TargetCivilization == nil || fed.TargetCivilization.ID != galaxytest.Bajorans {
		t.Fatalf("expected the Bajorans as the weakest enemy")
	}
}

func TestCreateDesiredBorders_RowMajor(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	for _, l := range g.Map().Within(f.Sol.Location, 1) {
		g.Claims.AddClaim(l, galaxytest.Federation, 10)
	}

	p := NewPlayers(tuning.Defaults(), nil, nil)
	out := p.CreateDesiredBorders(g, g.Civilizations[galaxytest.Federation])
	if len(out) != 9 {
		t.Fatalf("border sectors: got %d want 9", len(out))
	}
	for i := 1; i < len(out); i++ {
		a, b := out[i-1], out[i]
		if a.Y > b.Y || (a.Y == b.Y && a.X >= b.X) {
			t.Fatalf("borders out of order at %d: %v then %v", i, a, b)
		}
	}
}
