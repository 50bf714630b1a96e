package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
	"supremacy.ai/internal/sim/tuning"
)

func TestColonizeAcrossTurns(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Reveal(galaxytest.Federation)
	vulcan := f.AddSystem("Vulcan", galaxy.MapLocation{X: 4, Y: 4}, galaxy.StarOrange, 100)
	f.Ship(galaxytest.Federation, "COLONY_SHIP", f.Sol.Location)

	e := newEngine(t, tuning.Defaults())
	ctx := context.Background()
	if err := e.DoPreGameSetup(ctx, g); err != nil {
		t.Fatalf("DoPreGameSetup: %v", err)
	}
	for i := 0; i < 4 && g.ColonyOfSystem(vulcan) == nil; i++ {
		if err := e.DoAIPlayers(ctx, g, nil); err != nil {
			t.Fatalf("turn %d ai: %v", g.TurnNumber, err)
		}
		if err := e.DoTurn(ctx, g); err != nil {
			t.Fatalf("turn %d: %v", g.TurnNumber, err)
		}
	}
	c := g.ColonyOfSystem(vulcan)
	if c == nil || c.OwnerID != galaxytest.Federation {
		t.Fatalf("expected the federation to settle Vulcan by turn %d", g.TurnNumber)
	}
	if vulcan.OwnerID != galaxytest.Federation {
		t.Fatalf("system owner: got %d want %d", vulcan.OwnerID, galaxytest.Federation)
	}
}

func TestWarDeclarationAcrossTurns(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.ApplyRegardChange(galaxytest.Klingons, galaxytest.Federation, -900)

	e := newEngine(t, tuning.Defaults())
	ctx := context.Background()
	if err := e.DoAIPlayers(ctx, g, nil); err != nil {
		t.Fatalf("DoAIPlayers: %v", err)
	}
	if f.Registry.AreAtWar(galaxytest.Federation, galaxytest.Klingons) {
		t.Fatalf("war should wait for the diplomacy phase")
	}
	if err := e.DoTurn(ctx, g); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if !f.Registry.AreAtWar(galaxytest.Federation, galaxytest.Klingons) {
		t.Fatalf("expected war after the turn")
	}
}

func TestDoAIPlayers_HumansNeedAutoTurn(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	g.Civilizations[galaxytest.Federation].IsHuman = true
	sol := g.ColonyOfSystem(f.Sol)
	qonos := g.ColonyOfSystem(f.QonoS)

	e := newEngine(t, tuning.Defaults())
	ctx := context.Background()
	if err := e.DoAIPlayers(ctx, g, nil); err != nil {
		t.Fatalf("DoAIPlayers: %v", err)
	}
	if len(sol.Shipyard.Queue) != 0 {
		t.Fatalf("human colony was planned by the ai")
	}
	if len(qonos.Shipyard.Queue) == 0 {
		t.Fatalf("ai colony should have a ship queued")
	}

	if err := e.DoAIPlayers(ctx, g, []int{galaxytest.Federation}); err != nil {
		t.Fatalf("DoAIPlayers: %v", err)
	}
	if len(sol.Shipyard.Queue) == 0 {
		t.Fatalf("auto-turn human colony should have a ship queued")
	}
}

func TestDoAIPlayers_KeepsErrors(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	tun := tuning.Defaults()
	tun.AI.Colony.ColonyShip = "NO_SUCH_SHIP"
	e := newEngine(t, tun)

	err := e.DoAIPlayers(context.Background(), f.Game, nil)
	if err == nil {
		t.Fatalf("expected an error for a missing design")
	}
	if e.LastAIErrors() == nil {
		t.Fatalf("LastAIErrors should hold the failure")
	}
}

func TestDoPreGameSetup(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.Colonize(galaxytest.Federation, f.Sol, 100)
	m := g.Manager(galaxytest.Federation)
	m.HomeColonyID, m.SeatOfGovernmentID = 0, 0

	e := newEngine(t, tuning.Defaults())
	if err := e.DoPreGameSetup(context.Background(), g); err != nil {
		t.Fatalf("DoPreGameSetup: %v", err)
	}
	home := g.ColonyOfSystem(f.Sol)
	if m.HomeColonyID != home.ID || m.SeatOfGovernmentID != home.ID {
		t.Fatalf("home=%d seat=%d want %d", m.HomeColonyID, m.SeatOfGovernmentID, home.ID)
	}
	if g.TurnNumber != 1 {
		t.Fatalf("turn: got %d want 1", g.TurnNumber)
	}
	if m.MapData.GetScanStrength(f.Sol.Location) <= 0 {
		t.Fatalf("home sector should be scanned after setup")
	}
	if m.MapData.GetFuelRange(f.Sol.Location) != 0 {
		t.Fatalf("shipyard sector fuel range: got %d want 0", m.MapData.GetFuelRange(f.Sol.Location))
	}

	if err := e.DoPreGameSetup(context.Background(), nil); !errors.Is(err, ErrNilArgument) {
		t.Fatalf("nil game: got %v want ErrNilArgument", err)
	}
}

func TestDoMapUpdates_SensorContact(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Ship(galaxytest.Klingons, "CRUISER", galaxy.MapLocation{X: 3, Y: 2})
	e := newEngine(t, tuning.Defaults())

	if err := e.doMapUpdates(context.Background(), g, &TurnReport{}); err != nil {
		t.Fatalf("doMapUpdates: %v", err)
	}
	if !f.Registry.IsContactMade(galaxytest.Federation, galaxytest.Klingons) {
		t.Fatalf("a ship next to Sol should make contact")
	}
	if f.Registry.IsContactMade(galaxytest.Federation, galaxytest.Bajorans) {
		t.Fatalf("Bajor is out of sensor range")
	}
	if got := f.Registry.Status(galaxytest.Federation, galaxytest.Klingons); got != galaxy.StatusNeutral {
		t.Fatalf("first contact status: got %s want %s", got, galaxy.StatusNeutral)
	}
	var sawContact bool
	for _, s := range g.Manager(galaxytest.Klingons).SitReps() {
		if s.Category == galaxy.SitRepFirstContact {
			sawContact = true
		}
	}
	if !sawContact {
		t.Fatalf("expected a first contact sit-rep for the Klingons")
	}
}

func TestDoFleetMovement_StopsWhenFuelRunsOut(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	s, fl := f.Ship(galaxytest.Federation, "CRUISER", galaxy.MapLocation{X: 5, Y: 5})
	s.Fuel.SetCurrent(1)
	fl.SetRoute(galaxy.Route{
		Waypoints: []galaxy.MapLocation{{X: 8, Y: 5}},
		Steps:     []galaxy.MapLocation{{X: 6, Y: 5}, {X: 7, Y: 5}, {X: 8, Y: 5}},
	})
	e := newEngine(t, tuning.Defaults())
	moves := 0
	e.OnFleetLocationChanged(func(*galaxy.Game, *galaxy.Fleet) { moves++ })

	var rep TurnReport
	if err := e.doFleetMovement(context.Background(), g, &rep); err != nil {
		t.Fatalf("doFleetMovement: %v", err)
	}
	if want := (galaxy.MapLocation{X: 6, Y: 5}); fl.Location != want {
		t.Fatalf("location: got %v want %v", fl.Location, want)
	}
	if got := s.Fuel.Current(); got != 0 {
		t.Fatalf("fuel: got %d want 0", got)
	}
	if got := len(fl.Route.Steps); got != 2 {
		t.Fatalf("steps left: got %d want 2", got)
	}
	if moves != 1 || rep.FleetsMoved != 1 {
		t.Fatalf("moves=%d fleets moved=%d want 1/1", moves, rep.FleetsMoved)
	}

	// Stranded outside fuel range: the route is dropped.
	if err := e.doFleetMovement(context.Background(), g, &rep); err != nil {
		t.Fatalf("doFleetMovement: %v", err)
	}
	if !fl.Route.IsEmpty() {
		t.Fatalf("stranded fleet should lose its route")
	}
}

func TestDoFleetMovement_RefuelsInRange(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.FuelEverywhere(galaxytest.Federation)
	g.Manager(galaxytest.Federation).Resources.Deuterium.SetCurrent(100)
	s, _ := f.Ship(galaxytest.Federation, "CRUISER", galaxy.MapLocation{X: 5, Y: 5})
	s.Fuel.SetCurrent(2)

	e := newEngine(t, tuning.Defaults())
	if err := e.doFleetMovement(context.Background(), g, &TurnReport{}); err != nil {
		t.Fatalf("doFleetMovement: %v", err)
	}
	if got, want := s.Fuel.Current(), s.Fuel.Max(); got != want {
		t.Fatalf("fuel: got %d want %d", got, want)
	}
	if got, want := g.Manager(galaxytest.Federation).Resources.Deuterium.Current(), 100-(s.Fuel.Max()-2); got != want {
		t.Fatalf("deuterium: got %d want %d", got, want)
	}
}

func TestDoFleetMovement_BlackHole(t *testing.T) {
	for _, safe := range []bool{false, true} {
		f := galaxytest.New(t)
		g := f.Game
		hole := f.AddSystem("Cygnus X-1", galaxy.MapLocation{X: 12, Y: 12}, galaxy.StarBlackHole, 0)
		s, _ := f.Ship(galaxytest.Federation, "SCOUT", hole.Location)
		tun := tuning.Defaults()
		tun.Movement.SafeBlackHoles = safe
		e := newEngine(t, tun)

		var rep TurnReport
		if err := e.doFleetMovement(context.Background(), g, &rep); err != nil {
			t.Fatalf("doFleetMovement: %v", err)
		}
		_, alive := galaxy.Lookup[*galaxy.Ship](g.Universe, s.ID)
		hurt := !alive || s.Hull.Current() < s.Hull.Max()
		if hurt == safe {
			t.Fatalf("safe=%v: ship alive=%v hull=%d", safe, alive, s.Hull.Current())
		}
		if !alive && rep.ShipsLost != 1 {
			t.Fatalf("ships lost: got %d want 1", rep.ShipsLost)
		}
	}
}

// forcedAdvances returns the advance count logged for each force-finished project.
func forcedAdvances(logs *observer.ObservedLogs) []int64 {
	var out []int64
	for _, e := range logs.FilterMessage("project force-finished").All() {
		n, _ := e.ContextMap()["advances"].(int64)
		out = append(out, n)
	}
	return out
}

func TestDoProduction_ForceFinishesStalledProject(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	c := f.Colonize(galaxytest.Federation, f.Sol, 100)
	monument := g.Designs.Buildings["MONUMENT"]
	c.Enqueue(galaxy.NewBuildingProject(monument, c), 1)

	tun := tuning.Defaults()
	core, logs := observer.New(zap.DebugLevel)
	e := New(Options{Tuning: tun, Logger: zap.New(core)})
	var rep TurnReport
	if err := e.doProduction(context.Background(), g, &rep); err != nil {
		t.Fatalf("doProduction: %v", err)
	}
	if rep.ProjectsForced != 1 {
		t.Fatalf("forced projects: got %d want 1", rep.ProjectsForced)
	}
	want := int64(tun.Economy.ForceFinishAdvances + 1)
	if got := forcedAdvances(logs); len(got) != 1 || got[0] != want {
		t.Fatalf("advances before force-finish: got %v want [%d]", got, want)
	}
	var built bool
	for _, b := range c.Buildings {
		if b.Design == monument {
			built = true
		}
	}
	if !built {
		t.Fatalf("stalled monument should be force-finished")
	}
	if c.HasBuildWork() {
		t.Fatalf("build queue should be empty")
	}
}

func TestDoProduction_CancelledProjectDoesNotCountTowardsForceFinish(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	c := f.Colonize(galaxytest.Federation, f.Sol, 100)
	shrine := &galaxy.BuildingDesign{Key: "SHRINE", Name: "Shrine", BuildCost: 10, BuildLimit: 1}
	g.Designs.Buildings[shrine.Key] = shrine
	c.Buildings = append(c.Buildings, &galaxy.Building{Design: shrine, IsActive: true})
	monument := g.Designs.Buildings["MONUMENT"]
	c.Enqueue(galaxy.NewBuildingProject(shrine, c), 1)
	c.Enqueue(galaxy.NewBuildingProject(monument, c), 1)

	tun := tuning.Defaults()
	core, logs := observer.New(zap.DebugLevel)
	e := New(Options{Tuning: tun, Logger: zap.New(core)})
	var rep TurnReport
	if err := e.doProduction(context.Background(), g, &rep); err != nil {
		t.Fatalf("doProduction: %v", err)
	}
	want := int64(tun.Economy.ForceFinishAdvances + 1)
	if got := forcedAdvances(logs); len(got) != 1 || got[0] != want {
		t.Fatalf("monument advances after a cancelled shrine: got %v want [%d]", got, want)
	}
	if n := g.OwnedCount(galaxytest.Federation, galaxy.BuildBuilding, shrine.Key); n != 1 {
		t.Fatalf("shrines: got %d want 1", n)
	}
	if c.HasBuildWork() {
		t.Fatalf("build queue should be empty")
	}
}

func TestMoraleDrift(t *testing.T) {
	cases := []struct{ cur, base, rate, want int }{
		{100, 100, 5, 0},
		{80, 100, 5, 5},
		{98, 100, 5, 2},
		{120, 100, 5, -5},
		{102, 100, 5, -2},
	}
	for _, tc := range cases {
		if got := moraleDrift(tc.cur, tc.base, tc.rate); got != tc.want {
			t.Fatalf("moraleDrift(%d, %d, %d): got %d want %d", tc.cur, tc.base, tc.rate, got, tc.want)
		}
	}
}
