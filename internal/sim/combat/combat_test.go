package combat

import (
	"testing"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
)

func TestFindArenas_OnlyHostileSectors(t *testing.T) {
	f := galaxytest.New(t)
	f.Contact(galaxytest.Federation, galaxytest.Klingons, galaxytest.Bajorans)
	here := galaxy.MapLocation{X: 8, Y: 8}
	there := galaxy.MapLocation{X: 12, Y: 12}
	f.Ship(galaxytest.Federation, "CRUISER", here)
	f.Ship(galaxytest.Klingons, "CRUISER", here)
	f.Ship(galaxytest.Federation, "CRUISER", there)
	f.Ship(galaxytest.Bajorans, "SCOUT", there)

	combats, _ := FindArenas(f.Game)
	if len(combats) != 0 {
		t.Fatalf("neutral civs should not fight: got %d arenas", len(combats))
	}

	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	combats, _ = FindArenas(f.Game)
	if len(combats) != 1 {
		t.Fatalf("arenas: got %d want 1", len(combats))
	}
	a := combats[0]
	if a.Location != here || len(a.Assets) != 2 {
		t.Fatalf("arena at %v with %d groups", a.Location, len(a.Assets))
	}
	if owners := a.Owners(); owners[0] != galaxytest.Federation || owners[1] != galaxytest.Klingons {
		t.Fatalf("owners: %v", owners)
	}
}

func TestFindArenas_AlliesDoNotFight(t *testing.T) {
	f := galaxytest.New(t)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.SetStatus(galaxytest.Federation, galaxytest.Klingons, galaxy.StatusAllied)
	l := galaxy.MapLocation{X: 4, Y: 4}
	f.Ship(galaxytest.Federation, "CRUISER", l)
	f.Ship(galaxytest.Klingons, "CRUISER", l)
	if combats, _ := FindArenas(f.Game); len(combats) != 0 {
		t.Fatalf("allies fought: %d arenas", len(combats))
	}
}

func TestAutoResolver_CombatDamagesHulls(t *testing.T) {
	f := galaxytest.New(t)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	l := galaxy.MapLocation{X: 8, Y: 8}
	fed, _ := f.Ship(galaxytest.Federation, "CRUISER", l)
	scout, _ := f.Ship(galaxytest.Klingons, "SCOUT", l)

	combats, _ := FindArenas(f.Game)
	if len(combats) != 1 {
		t.Fatalf("arenas: got %d want 1", len(combats))
	}
	res := NewAutoResolver(nil).ResolveCombat(f.Game, combats[0])
	if !scout.Hull.IsMinimized() {
		t.Fatalf("scout should be wrecked, hull=%d", scout.Hull.Current())
	}
	if res.ShipsDestroyed[galaxytest.Klingons] != 1 {
		t.Fatalf("klingon losses: got %d want 1", res.ShipsDestroyed[galaxytest.Klingons])
	}
	if fed.Hull.IsMinimized() {
		t.Fatalf("cruiser should survive a scout")
	}
}

func TestAutoResolver_InvasionCapturesColony(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	g := f.Game
	target := f.AddSystem("Khitomer", galaxy.MapLocation{X: 14, Y: 14}, galaxy.StarRed, 100)
	colony := f.Colonize(galaxytest.Klingons, target, 10)

	for i := 0; i < 2; i++ {
		_, fl := f.Ship(galaxytest.Federation, "CRUISER", target.Location)
		fl.Order = &galaxy.AssaultSystemOrder{}
	}
	_, invasions := FindArenas(g)
	if len(invasions) != 1 {
		t.Fatalf("invasions: got %d want 1", len(invasions))
	}
	ia := invasions[0]
	if len(ia.Fleets) != 2 || ia.InvaderID != galaxytest.Federation {
		t.Fatalf("invasion fleets=%d invader=%d", len(ia.Fleets), ia.InvaderID)
	}
	res := NewAutoResolver(nil).ResolveInvasion(g, ia)
	if !res.Captured {
		t.Fatalf("expected capture: %+v", res)
	}
	if colony.OwnerID != galaxytest.Federation || target.OwnerID != galaxytest.Federation {
		t.Fatalf("colony owner %d system owner %d", colony.OwnerID, target.OwnerID)
	}
}
