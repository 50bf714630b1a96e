// Package galaxytest builds small deterministic galaxies for package tests.
package galaxytest

import (
	"testing"

	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/galaxy"
)

const (
	Federation = 0
	Klingons   = 1
	Bajorans   = 2
)

// Fixture is a 20x20 galaxy with two empires and one minor power. Nothing
// is colonized until a test asks for it.
type Fixture struct {
	T        testing.TB
	Game     *galaxy.Game
	Registry *diplomacy.Registry

	Sol, QonoS, Bajor *galaxy.StarSystem
}

var habitable = []galaxy.PlanetType{galaxy.PlanetTerran, galaxy.PlanetOceanic, galaxy.PlanetJungle}

// Designs returns the catalog every fixture uses.
func Designs() *galaxy.Designs {
	d := galaxy.NewDesigns()
	ship := func(sd *galaxy.ShipDesign) { d.Ships[sd.Key] = sd }
	ship(&galaxy.ShipDesign{Key: "COLONY_SHIP", Name: "Colony Ship", ShipType: galaxy.ShipColony, BuildCost: 100,
		Resources: galaxy.Resources{Deuterium: 10}, Hull: 20, Fuel: 10, Speed: 2, Range: 3, ScanStrength: 1,
		Maintenance: 1, ColonistCapacity: 10})
	ship(&galaxy.ShipDesign{Key: "CONSTRUCTION_SHIP", Name: "Construction Ship", ShipType: galaxy.ShipConstruction,
		BuildCost: 80, Hull: 20, Fuel: 10, Speed: 2, Range: 3, ScanStrength: 1, Maintenance: 1, BuildOutput: 50})
	ship(&galaxy.ShipDesign{Key: "SCOUT", Name: "Scout", ShipType: galaxy.ShipScout, BuildCost: 60, Hull: 10,
		Fuel: 12, Speed: 4, Range: 4, ScanStrength: 2, Firepower: 2, Maintenance: 1})
	ship(&galaxy.ShipDesign{Key: "CRUISER", Name: "Cruiser", ShipType: galaxy.ShipCruiser, BuildCost: 200,
		Resources: galaxy.Resources{Dilithium: 5}, Hull: 60, Fuel: 8, Speed: 2, Range: 3, ScanStrength: 1,
		Firepower: 12, TroopStrength: 20, Maintenance: 3})
	ship(&galaxy.ShipDesign{Key: "FAST_ATTACK", Name: "Fast Attack", ShipType: galaxy.ShipFastAttack, BuildCost: 150,
		Hull: 40, Fuel: 8, Speed: 3, Range: 3, ScanStrength: 1, Firepower: 8, Maintenance: 2})
	ship(&galaxy.ShipDesign{Key: "SCIENCE_SHIP", Name: "Science Ship", ShipType: galaxy.ShipScience, BuildCost: 90,
		Hull: 15, Fuel: 10, Speed: 2, Range: 4, ScanStrength: 2, ScienceAbility: 0.5, Maintenance: 1})
	ship(&galaxy.ShipDesign{Key: "MEDICAL_SHIP", Name: "Medical Ship", ShipType: galaxy.ShipMedical, BuildCost: 90,
		Hull: 15, Fuel: 10, Speed: 2, Range: 3, ScanStrength: 1, Maintenance: 1, MedicalCapacity: 10})
	ship(&galaxy.ShipDesign{Key: "DIPLOMATIC_SHIP", Name: "Envoy", ShipType: galaxy.ShipDiplomatic, BuildCost: 90,
		Hull: 15, Fuel: 10, Speed: 2, Range: 3, ScanStrength: 1, Maintenance: 1})
	ship(&galaxy.ShipDesign{Key: "SPY_SHIP", Name: "Spy Ship", ShipType: galaxy.ShipSpy, BuildCost: 90,
		Hull: 15, Fuel: 10, Speed: 3, Range: 3, ScanStrength: 1, Maintenance: 1, CanCloak: true})

	d.Stations["OUTPOST"] = &galaxy.StationDesign{Key: "OUTPOST", Name: "Outpost", BuildCost: 100,
		Resources: galaxy.Resources{RawMaterials: 20}, Hull: 100, ScanStrength: 2, ScanRange: 2, Firepower: 5, Maintenance: 2}

	d.Buildings["MONUMENT"] = &galaxy.BuildingDesign{Key: "MONUMENT", Name: "Monument", BuildCost: 50,
		Resources: galaxy.Resources{RawMaterials: 10}, EnergyCost: 5, Maintenance: 1,
		Bonuses: []galaxy.Bonus{{Type: galaxy.BonusMorale, Amount: 5}}}
	d.Buildings["TRADE_HUB"] = &galaxy.BuildingDesign{Key: "TRADE_HUB", Name: "Trade Hub", BuildCost: 80,
		EnergyCost: 5, Bonuses: []galaxy.Bonus{{Type: galaxy.BonusTradeRoutes, Amount: 1}}}

	d.Shipyards["BASIC_YARD"] = &galaxy.ShipyardDesign{Key: "BASIC_YARD", Name: "Basic Shipyard", BuildSlots: 1,
		BuildSlotOutput: 40, OutputType: galaxy.ShipyardOutputStatic}

	d.Facilities[galaxy.ProdFood] = &galaxy.FacilityDesign{Key: "FARM", Category: galaxy.ProdFood, LaborCost: 10, Output: 15}
	d.Facilities[galaxy.ProdIndustry] = &galaxy.FacilityDesign{Key: "FACTORY", Category: galaxy.ProdIndustry, LaborCost: 10, Output: 10}
	d.Facilities[galaxy.ProdEnergy] = &galaxy.FacilityDesign{Key: "REACTOR", Category: galaxy.ProdEnergy, LaborCost: 10, Output: 10}
	d.Facilities[galaxy.ProdResearch] = &galaxy.FacilityDesign{Key: "LAB", Category: galaxy.ProdResearch, LaborCost: 10, Output: 5}
	d.Facilities[galaxy.ProdIntelligence] = &galaxy.FacilityDesign{Key: "INTEL", Category: galaxy.ProdIntelligence, LaborCost: 10, Output: 3}
	return d
}

// Civs returns the three fixture civilizations.
func Civs() []*galaxy.Civilization {
	human := &galaxy.Race{Key: "HUMAN", HabitablePlanets: habitable, CombatEffectiveness: 1}
	klingon := &galaxy.Race{Key: "KLINGON", HabitablePlanets: habitable, CombatEffectiveness: 1.2}
	bajoran := &galaxy.Race{Key: "BAJORAN", HabitablePlanets: habitable, CombatEffectiveness: 0.8}
	return []*galaxy.Civilization{
		{ID: Federation, Key: "FEDERATION", Name: "Federation", Race: human, Traits: []string{"Peaceful", "Scientific"},
			Type: galaxy.CivEmpire, BaseMoraleLevel: 100, MoraleDriftRate: 5, HomeSystemName: "Sol"},
		{ID: Klingons, Key: "KLINGONS", Name: "Klingon Empire", Race: klingon, Traits: []string{"Warlike", "Honorable"},
			Type: galaxy.CivEmpire, BaseMoraleLevel: 90, MoraleDriftRate: 5, HomeSystemName: "Qo'noS"},
		{ID: Bajorans, Key: "BAJORANS", Name: "Bajorans", Race: bajoran, Traits: []string{"Spiritual", "Peaceful"},
			Type: galaxy.CivMinorPower, BaseMoraleLevel: 100, MoraleDriftRate: 3, HomeSystemName: "Bajor"},
	}
}

// New builds the fixture with home systems placed but uncolonized.
func New(t testing.TB) *Fixture {
	t.Helper()
	civs := Civs()
	g := galaxy.NewGame(galaxy.SectorMap{Width: 20, Height: 20}, civs, Designs(), 42)
	for _, c := range civs {
		g.SetManager(galaxy.NewCivilizationManager(c, g.Map()))
	}
	reg := diplomacy.NewRegistry(civs, diplomacy.DefaultSettings())
	g.Relations = reg
	f := &Fixture{T: t, Game: g, Registry: reg}
	f.Sol = f.AddSystem("Sol", galaxy.MapLocation{X: 2, Y: 2}, galaxy.StarYellow, 200)
	f.QonoS = f.AddSystem("Qo'noS", galaxy.MapLocation{X: 17, Y: 17}, galaxy.StarRed, 200)
	f.Bajor = f.AddSystem("Bajor", galaxy.MapLocation{X: 10, Y: 3}, galaxy.StarOrange, 150)
	return f
}

// AddSystem places a star system with one terran planet of the given
// capacity; maxPop 0 makes it uninhabitable.
func (f *Fixture) AddSystem(name string, l galaxy.MapLocation, star galaxy.StarType, maxPop int) *galaxy.StarSystem {
	s := &galaxy.StarSystem{Base: galaxy.Base{Name: name, Location: l, OwnerID: galaxy.NoOwner}, StarType: star}
	if maxPop > 0 {
		s.Planets = []galaxy.Planet{{Name: name + " I", PlanetType: galaxy.PlanetTerran, MaxPop: maxPop}}
	} else {
		s.Planets = []galaxy.Planet{{Name: name + " I", PlanetType: galaxy.PlanetGasGiant}}
	}
	f.Game.Universe.Add(s)
	return s
}

// Colonize founds a colony with staffed facilities and a shipyard. The
// first colony of a civ becomes its home colony.
func (f *Fixture) Colonize(civID int, sys *galaxy.StarSystem, pop int) *galaxy.Colony {
	f.T.Helper()
	c := f.Game.FoundColony(civID, sys, pop)
	for _, fp := range c.Facilities {
		fp.Total = 5
	}
	c.ActivateFacility(galaxy.ProdFood)
	c.ActivateFacility(galaxy.ProdFood)
	c.ActivateFacility(galaxy.ProdIndustry)
	c.ActivateFacility(galaxy.ProdResearch)
	c.Shipyard = galaxy.NewShipyard(f.Game.Designs.Shipyards["BASIC_YARD"])
	if m := f.Game.Manager(civID); m != nil && m.HomeColonyID == 0 {
		m.HomeColonyID = c.ID
		m.SeatOfGovernmentID = c.ID
	}
	return c
}

// ColonizeHomes settles every civ's home system with pop 100.
func (f *Fixture) ColonizeHomes() {
	f.Colonize(Federation, f.Sol, 100)
	f.Colonize(Klingons, f.QonoS, 100)
	f.Colonize(Bajorans, f.Bajor, 100)
}

// Ship spawns a ship of design key in its own fleet.
func (f *Fixture) Ship(civID int, key string, l galaxy.MapLocation) (*galaxy.Ship, *galaxy.Fleet) {
	f.T.Helper()
	s, fl, err := f.Game.SpawnShip(civID, key, l)
	if err != nil {
		f.T.Fatalf("SpawnShip %s: %v", key, err)
	}
	return s, fl
}

// Contact puts every pair of the given civs in contact.
func (f *Fixture) Contact(ids ...int) {
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			f.Registry.MakeContact(a, b, f.Game.TurnNumber)
		}
	}
}

// Reveal marks the whole map scanned and explored for civID.
func (f *Fixture) Reveal(civID int) {
	m := f.Game.Manager(civID)
	f.Game.Map().Each(func(l galaxy.MapLocation) {
		m.MapData.SetScanned(l, true)
		m.MapData.SetExplored(l, true)
	})
}

// FuelEverywhere puts every sector at fuel range 0 for civID.
func (f *Fixture) FuelEverywhere(civID int) {
	m := f.Game.Manager(civID)
	f.Game.Map().Each(func(l galaxy.MapLocation) { m.MapData.UpgradeFuelRange(l, 0) })
}
