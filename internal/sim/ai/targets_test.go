package ai

import (
	"testing"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
	"supremacy.ai/internal/sim/tuning"
)

func newPlanner(t *testing.T, f *galaxytest.Fixture, civID int) *planner {
	t.Helper()
	p := NewPlayers(tuning.Defaults(), nil, nil)
	return p.planner(f.Game, f.Game.Civilizations[civID], p.Snapshot(f.Game))
}

func TestPickBest_TieGoesToLowestID(t *testing.T) {
	got, ok := pickBest([]candidate[string]{
		{item: "seven", id: 7, score: 3},
		{item: "three", id: 3, score: 3},
		{item: "five", id: 5, score: 3},
		{item: "low", id: 1, score: 2},
	})
	if !ok || got != "three" {
		t.Fatalf("tie: got %q want %q", got, "three")
	}

	got, _ = pickBest([]candidate[string]{{item: "a", id: 1, score: 1}, {item: "b", id: 9, score: 4}})
	if got != "b" {
		t.Fatalf("highest score: got %q want %q", got, "b")
	}

	if _, ok := pickBest[string](nil); ok {
		t.Fatalf("empty candidates should report false")
	}
}

func TestGetBestSystemToColonize_RanksByValueAlone(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	near := f.AddSystem("Alpha Centauri", galaxy.MapLocation{X: 3, Y: 3}, galaxy.StarYellow, 100)
	far := f.AddSystem("Andoria", galaxy.MapLocation{X: 16, Y: 2}, galaxy.StarBlue, 300)
	_, fl := f.Ship(galaxytest.Federation, "COLONY_SHIP", f.Sol.Location)

	pl := newPlanner(t, f, galaxytest.Federation)
	race := pl.civ.Race
	if got, want := pl.GetColonizeValue(far), 300*far.GrowthRate(race); got != want {
		t.Fatalf("colonize value: got %v want %v", got, want)
	}
	if pl.GetColonizeValue(near) >= pl.GetColonizeValue(far) {
		t.Fatalf("larger system should be worth more")
	}
	sys, ok := pl.GetBestSystemToColonize(fl)
	if !ok || sys != far {
		t.Fatalf("colonize target: got %v want Andoria", sys)
	}

	near.HasDilithiumBonus = true
	sys, _ = pl.GetBestSystemToColonize(fl)
	if sys != near {
		t.Fatalf("dilithium bonus: got %v want Alpha Centauri", sys)
	}
}

func TestGetBestSystemToColonize_EqualScoreTakesLowestID(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	alpha := f.AddSystem("Alpha", galaxy.MapLocation{X: 2, Y: 5}, galaxy.StarYellow, 100)
	f.AddSystem("Beta", galaxy.MapLocation{X: 5, Y: 2}, galaxy.StarYellow, 100)
	_, fl := f.Ship(galaxytest.Federation, "COLONY_SHIP", f.Sol.Location)

	sys, ok := newPlanner(t, f, galaxytest.Federation).GetBestSystemToColonize(fl)
	if !ok || sys != alpha {
		t.Fatalf("colonize target: got %v want Alpha", sys)
	}
}

func TestGetBestSystemToColonize_SkipsContestedAndUnexplored(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)

	vulcan := f.AddSystem("Vulcan", galaxy.MapLocation{X: 4, Y: 4}, galaxy.StarOrange, 100)
	vulcan.HasDilithiumBonus = true
	andoria := f.AddSystem("Andoria", galaxy.MapLocation{X: 5, Y: 2}, galaxy.StarBlue, 100)
	hidden := f.AddSystem("Rigel", galaxy.MapLocation{X: 3, Y: 3}, galaxy.StarBlue, 200)
	f.Game.Manager(galaxytest.Federation).MapData.SetExplored(hidden.Location, false)
	f.Ship(galaxytest.Klingons, "CRUISER", vulcan.Location)
	_, fl := f.Ship(galaxytest.Federation, "COLONY_SHIP", f.Sol.Location)

	sys, ok := newPlanner(t, f, galaxytest.Federation).GetBestSystemToColonize(fl)
	if !ok || sys != andoria {
		t.Fatalf("colonize target: got %v want Andoria", sys)
	}
}

func TestGetBestColonyForSpying_SkipsExistingNetworks(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	_, spy := f.Ship(galaxytest.Federation, "SPY_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)

	c, ok := pl.GetBestColonyForSpying(spy)
	if !ok || c.OwnerID != galaxytest.Klingons {
		t.Fatalf("spy target: got %v want the Klingon home colony", c)
	}
	if got, want := pl.GetSpyValue(c), pl.tun.Spy.HomeSystem; got != want {
		t.Fatalf("home system spy value: got %d want %d", got, want)
	}

	f.Registry.EstablishSpyNetwork(galaxytest.Federation, galaxytest.Klingons)
	if c, ok := pl.GetBestColonyForSpying(spy); ok {
		t.Fatalf("expected no spy target once the network exists, got %s", c.Name)
	}
}

func TestGetBestColonyForSpying_EmpiresOnlyOneSpyEach(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	f.Contact(galaxytest.Federation, galaxytest.Klingons, galaxytest.Bajorans)
	_, spy := f.Ship(galaxytest.Federation, "SPY_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)

	c, ok := pl.GetBestColonyForSpying(spy)
	if !ok || c.OwnerID != galaxytest.Klingons {
		t.Fatalf("spy target: got %v want the Klingon home colony", c)
	}

	_, other := f.Ship(galaxytest.Federation, "SPY_SHIP", f.QonoS.Location)
	other.Order = &galaxy.SpyOnOrder{}
	if c, ok := pl.GetBestColonyForSpying(spy); ok {
		t.Fatalf("Qo'noS is covered and Bajor is a minor power, got %s", c.Name)
	}
}

func TestGetBestSystemForScience_WormholeOverColoredStar(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	worm := f.AddSystem("Bajoran Wormhole", galaxy.MapLocation{X: 6, Y: 6}, galaxy.StarWormhole, 0)
	_, sci := f.Ship(galaxytest.Federation, "SCIENCE_SHIP", f.Sol.Location)

	sys, ok := newPlanner(t, f, galaxytest.Federation).GetBestSystemForScience(sci)
	if !ok || sys != worm {
		t.Fatalf("science target: got %v want the wormhole", sys)
	}
}

func TestGetBestSystemForScience_SkipsStudiedAndUnreachable(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	worm := f.AddSystem("Bajoran Wormhole", galaxy.MapLocation{X: 6, Y: 6}, galaxy.StarWormhole, 0)
	md := f.Game.Manager(galaxytest.Federation).MapData
	md.UpgradeFuelRange(f.Bajor.Location, 0)
	md.UpgradeFuelRange(worm.Location, 0)
	_, sci := f.Ship(galaxytest.Federation, "SCIENCE_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)

	_, other := f.Ship(galaxytest.Federation, "SCIENCE_SHIP", worm.Location)
	other.UnitAIType = galaxy.UnitAIScience
	sys, ok := pl.GetBestSystemForScience(sci)
	if !ok || sys != f.Bajor {
		t.Fatalf("science target: got %v want Bajor", sys)
	}

	md.SetExplored(f.Bajor.Location, false)
	if sys, ok := pl.GetBestSystemForScience(sci); ok {
		t.Fatalf("Qo'noS is out of fuel range and Bajor unexplored, got %s", sys.Name)
	}
}

func TestGetBestColonyForMedical_SkipsClaimedAndUnreachable(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	vulcan := f.AddSystem("Vulcan", galaxy.MapLocation{X: 4, Y: 4}, galaxy.StarOrange, 100)
	sick := f.Colonize(galaxytest.Federation, vulcan, 50)
	sick.Health.SetCurrent(40)
	_, med := f.Ship(galaxytest.Federation, "MEDICAL_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)

	if got, want := pl.GetMedicalValue(sick), pl.tun.Medical.Own+60; got != want {
		t.Fatalf("medical value: got %d want %d", got, want)
	}
	c, ok := pl.GetBestColonyForMedical(med)
	if !ok || c.Location != f.Sol.Location {
		t.Fatalf("medical target: got %v want Sol", c)
	}

	_, other := f.Ship(galaxytest.Federation, "MEDICAL_SHIP", f.Sol.Location)
	other.Order = &galaxy.MedicalOrder{}
	c, ok = pl.GetBestColonyForMedical(med)
	if !ok || c != sick {
		t.Fatalf("medical target with Sol covered: got %v want Vulcan", c)
	}

	f.Game.Claims.AddClaim(vulcan.Location, galaxytest.Klingons, 10)
	if c, ok := pl.GetBestColonyForMedical(med); ok && c == sick {
		t.Fatalf("Vulcan lies in Klingon space without open borders")
	}
}

func TestGetBestColonyForDiplomacy(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	f.Contact(galaxytest.Federation, galaxytest.Klingons, galaxytest.Bajorans)
	_, envoy := f.Ship(galaxytest.Federation, "DIPLOMATIC_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)

	bajorans := f.Game.Civ(galaxytest.Bajorans)
	w := pl.tun.Diplomatic
	if got, want := pl.GetDiplomacyValue(bajorans), w.SimilarTraits/2+w.Neutral; got != want {
		t.Fatalf("diplomacy value: got %d want %d", got, want)
	}
	c, ok := pl.GetBestColonyForDiplomacy(envoy)
	if !ok || c.OwnerID != galaxytest.Bajorans {
		t.Fatalf("envoy target: got %v want Bajor", c)
	}

	_, other := f.Ship(galaxytest.Federation, "DIPLOMATIC_SHIP", f.Sol.Location)
	other.SetRoute(galaxy.Route{Steps: []galaxy.MapLocation{f.Bajor.Location}})
	c, ok = pl.GetBestColonyForDiplomacy(envoy)
	if !ok || c.OwnerID != galaxytest.Klingons {
		t.Fatalf("envoy target with Bajor covered: got %v want Qo'noS", c)
	}

	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	if c, ok := pl.GetBestColonyForDiplomacy(envoy); ok {
		t.Fatalf("no envoy goes to an enemy capital, got %s", c.Name)
	}
}

func TestGetStationValue(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	_, builder := f.Ship(galaxytest.Federation, "CONSTRUCTION_SHIP", f.Sol.Location)
	pl := newPlanner(t, f, galaxytest.Federation)
	w := pl.tun.Station

	empty := galaxy.MapLocation{X: 6, Y: 2}
	if got, want := pl.GetStationValue(builder, empty), w.Base+4*w.PerDistanceFromHome; got != want {
		t.Fatalf("empty sector: got %d want %d", got, want)
	}

	deneb := f.AddSystem("Deneb", galaxy.MapLocation{X: 6, Y: 6}, galaxy.StarWhite, 0)
	want := w.Base + w.UnownedSystem + w.InterestingStar + 4*w.PerDistanceFromHome
	if got := pl.GetStationValue(builder, deneb.Location); got != want {
		t.Fatalf("unowned colored star: got %d want %d", got, want)
	}

	s, _ := f.Ship(galaxytest.Federation, "SCOUT", deneb.Location)
	s.Fuel.Drain()
	if got := pl.GetStationValue(builder, deneb.Location); got != want+w.StrandedFleet {
		t.Fatalf("stranded fleet bonus: got %d want %d", got, want+w.StrandedFleet)
	}

	if _, err := f.Game.SpawnStation(galaxytest.Federation, "OUTPOST", deneb.Location); err != nil {
		t.Fatalf("SpawnStation: %v", err)
	}
	if got := pl.GetStationValue(builder, deneb.Location); got != w.Excluded {
		t.Fatalf("existing station: got %d want %d", got, w.Excluded)
	}

	hole := f.AddSystem("Cygnus X-1", galaxy.MapLocation{X: 7, Y: 3}, galaxy.StarBlackHole, 0)
	if got := pl.GetStationValue(builder, hole.Location); got != w.Excluded {
		t.Fatalf("black hole: got %d want %d", got, w.Excluded)
	}

	f.Game.Claims.AddClaim(empty, galaxytest.Klingons, 10)
	if got := pl.GetStationValue(builder, empty); got != w.Excluded {
		t.Fatalf("foreign empire sector: got %d want %d", got, w.Excluded)
	}
}

func TestGetBestSectorForStation_StaysInRegion(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	f.FuelEverywhere(galaxytest.Federation)
	ring := f.AddSystem("Deneb", galaxy.MapLocation{X: 6, Y: 6}, galaxy.StarWhite, 0)
	f.AddSystem("Rigel", galaxy.MapLocation{X: 18, Y: 3}, galaxy.StarBlue, 0)
	_, builder := f.Ship(galaxytest.Federation, "CONSTRUCTION_SHIP", f.Sol.Location)

	l, ok := newPlanner(t, f, galaxytest.Federation).GetBestSectorForStation(builder)
	if !ok || l != ring.Location {
		t.Fatalf("station site: got %v want %v", l, ring.Location)
	}

	if _, err := f.Game.SpawnStation(galaxytest.Federation, "OUTPOST", ring.Location); err != nil {
		t.Fatalf("SpawnStation: %v", err)
	}
	if l, _ := newPlanner(t, f, galaxytest.Federation).GetBestSectorForStation(builder); l == ring.Location {
		t.Fatalf("sector with a station picked again")
	}

	_, minor := f.Ship(galaxytest.Bajorans, "CONSTRUCTION_SHIP", f.Bajor.Location)
	if l, ok := newPlanner(t, f, galaxytest.Bajorans).GetBestSectorForStation(minor); ok {
		t.Fatalf("civ without a region should not build, got %v", l)
	}
}

func TestGetExploreValue(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	pl := newPlanner(t, f, galaxytest.Federation)
	md := pl.m.MapData
	w := pl.tun.Explore

	empty := galaxy.MapLocation{X: 12, Y: 12}
	if got := pl.GetExploreValue(empty); got != w.Unexplored {
		t.Fatalf("unexplored sector: got %d want %d", got, w.Unexplored)
	}
	md.SetScanned(f.Bajor.Location, true)
	want := w.Unexplored + w.HasSystem + w.FirstContact
	if got := pl.GetExploreValue(f.Bajor.Location); got != want {
		t.Fatalf("scanned foreign system: got %d want %d", got, want)
	}
	md.SetExplored(empty, true)
	if got := pl.GetExploreValue(empty); got != 0 {
		t.Fatalf("explored empty sector: got %d want 0", got)
	}
}
