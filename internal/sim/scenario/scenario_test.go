package scenario

import (
	"context"
	"errors"
	"testing"

	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
)

func loadRepo(t *testing.T) (*galaxy.Game, *diplomacy.Registry) {
	t.Helper()
	cat, err := catalogs.Load("../../../configs/catalogs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	sc, err := Load("../../../configs/scenario.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g, reg, err := sc.Build(cat.Designs, diplomacy.DefaultSettings())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, reg
}

func TestBuild_RepoScenario(t *testing.T) {
	g, reg := loadRepo(t)
	if len(g.Civilizations) != 4 {
		t.Fatalf("civs: got %d want 4", len(g.Civilizations))
	}
	fed := g.CivByKey("FEDERATION")
	if fed == nil || !fed.IsHuman || fed.ID != 0 {
		t.Fatalf("federation: got %+v", fed)
	}
	if got := g.Manager(fed.ID).Credits.Current(); got != 1000 {
		t.Fatalf("federation credits: got %d want 1000", got)
	}
	sol := g.HomeColony(fed.ID)
	if sol == nil || sol.Name != "Sol" || sol.Population.Current() != 150 {
		t.Fatalf("home colony: got %+v", sol)
	}
	if sol.Shipyard == nil || len(sol.Buildings) != 1 {
		t.Fatalf("sol should have a shipyard and one building")
	}
	if got := sol.Facility(galaxy.ProdIndustry).Active; got != 5 {
		t.Fatalf("sol industry: got %d want 5", got)
	}

	kl := g.CivByKey("KLINGONS")
	fleets := g.FleetsOf(kl.ID)
	if len(fleets) != 1 || len(fleets[0].Ships) != 3 || fleets[0].UnitAIType != galaxy.UnitAISystemAttack {
		t.Fatalf("klingon fleets: got %d", len(fleets))
	}
	if fleets[0].Name != "Home Guard" {
		t.Fatalf("fleet name: got %q", fleets[0].Name)
	}

	baj := g.CivByKey("BAJORANS")
	if got := reg.Status(fed.ID, baj.ID); got != galaxy.StatusFriendly {
		t.Fatalf("federation/bajorans: got %v want Friendly", got)
	}
	if got := reg.Regard(baj.ID, fed.ID); got != 60 {
		t.Fatalf("bajoran regard: got %d want 60", got)
	}
	if reg.IsContactMade(fed.ID, kl.ID) {
		t.Fatalf("federation and klingons start without contact")
	}
}

func TestBuild_RunsTurns(t *testing.T) {
	g, _ := loadRepo(t)
	e := engine.New(engine.Options{})
	ctx := context.Background()
	if err := e.DoPreGameSetup(ctx, g); err != nil {
		t.Fatalf("DoPreGameSetup: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := e.DoAIPlayers(ctx, g, nil); err != nil {
			t.Fatalf("DoAIPlayers: %v", err)
		}
		if err := e.DoTurn(ctx, g); err != nil {
			t.Fatalf("DoTurn %d: %v", i, err)
		}
	}
	if g.TurnNumber != 4 {
		t.Fatalf("turn: got %d want 4", g.TurnNumber)
	}
}

func TestBuild_Rejects(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Map:     galaxy.SectorMap{Width: 10, Height: 10},
			Races:   []galaxy.Race{{Key: "HUMAN", HabitablePlanets: []galaxy.PlanetType{galaxy.PlanetTerran}}},
			Civs:    []Civ{{Key: "FED", Race: "HUMAN"}},
			Systems: []System{{Name: "Sol", Location: galaxy.MapLocation{X: 1, Y: 1}, Planets: []galaxy.Planet{{Name: "Earth", PlanetType: galaxy.PlanetTerran, MaxPop: 100}}}},
		}
	}
	cases := []struct {
		name string
		edit func(s *Scenario)
	}{
		{"no map", func(s *Scenario) { s.Map = galaxy.SectorMap{} }},
		{"no civs", func(s *Scenario) { s.Civs = nil }},
		{"unknown race", func(s *Scenario) { s.Civs[0].Race = "VULCAN" }},
		{"duplicate civ", func(s *Scenario) { s.Civs = append(s.Civs, s.Civs[0]) }},
		{"off map system", func(s *Scenario) { s.Systems[0].Location = galaxy.MapLocation{X: 10, Y: 0} }},
		{"unknown colony owner", func(s *Scenario) { s.Colonies = []Colony{{System: "Sol", Owner: "KLINGONS", Population: 10}} }},
		{"unknown colony system", func(s *Scenario) { s.Colonies = []Colony{{System: "Vulcan", Owner: "FED", Population: 10}} }},
		{"double colony", func(s *Scenario) {
			s.Colonies = []Colony{{System: "Sol", Owner: "FED", Population: 10}, {System: "Sol", Owner: "FED", Population: 10}}
		}},
		{"too little labor", func(s *Scenario) {
			s.Colonies = []Colony{{System: "Sol", Owner: "FED", Population: 10,
				Facilities: []Facility{{Category: galaxy.ProdFood, Total: 5, Active: 3}}}}
		}},
		{"unknown building", func(s *Scenario) {
			s.Colonies = []Colony{{System: "Sol", Owner: "FED", Population: 10, Buildings: []string{"CASINO"}}}
		}},
		{"unknown ship", func(s *Scenario) {
			s.Fleets = []Fleet{{Owner: "FED", Location: galaxy.MapLocation{X: 1, Y: 1}, Ships: []string{"BORG_CUBE"}}}
		}},
		{"empty fleet", func(s *Scenario) { s.Fleets = []Fleet{{Owner: "FED"}} }},
		{"unknown station", func(s *Scenario) { s.Stations = []Station{{Owner: "FED", Design: "DS9"}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.edit(s)
			if _, _, err := s.Build(galaxytest.Designs(), diplomacy.DefaultSettings()); !errors.Is(err, ErrInvalidScenario) {
				t.Fatalf("got %v want ErrInvalidScenario", err)
			}
		})
	}
}

func TestBuild_FleetMergesShips(t *testing.T) {
	s := &Scenario{
		Map:   galaxy.SectorMap{Width: 10, Height: 10},
		Races: []galaxy.Race{{Key: "HUMAN"}},
		Civs:  []Civ{{Key: "FED", Race: "HUMAN"}},
		Fleets: []Fleet{{Owner: "FED", Location: galaxy.MapLocation{X: 2, Y: 2},
			Ships: []string{"CRUISER", "SCOUT", "CRUISER"}, UnitAI: galaxy.UnitAIReserve}},
	}
	g, _, err := s.Build(galaxytest.Designs(), diplomacy.DefaultSettings())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fleets := g.FleetsOf(0)
	if len(fleets) != 1 || len(fleets[0].Ships) != 3 {
		t.Fatalf("fleets: got %d", len(fleets))
	}
	for _, sh := range fleets[0].Ships {
		if sh.FleetID != fleets[0].ID {
			t.Fatalf("ship %d points at fleet %d want %d", sh.ID, sh.FleetID, fleets[0].ID)
		}
	}
}
