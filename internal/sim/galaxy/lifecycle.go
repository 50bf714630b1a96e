package galaxy

import "fmt"

// SpawnFleet registers an empty fleet at l.
func (g *Game) SpawnFleet(owner int, l MapLocation, name string) *Fleet {
	f := &Fleet{Base: Base{Name: name, Location: l, OwnerID: owner}}
	g.Universe.Add(f)
	return f
}

// SpawnShip registers a ship from design and places it in a new fleet
// with the default order.
func (g *Game) SpawnShip(owner int, designKey string, l MapLocation) (*Ship, *Fleet, error) {
	d := g.Designs.Ships[designKey]
	if d == nil {
		return nil, nil, fmt.Errorf("unknown ship design %q", designKey)
	}
	s := NewShipFromDesign(d, owner, l)
	g.Universe.Add(s)
	f := g.SpawnFleet(owner, l, d.Name)
	f.AddShip(s)
	f.Order = GetDefaultOrder(f)
	return s, f, nil
}

func (g *Game) SpawnStation(owner int, designKey string, l MapLocation) (*Station, error) {
	d := g.Designs.Stations[designKey]
	if d == nil {
		return nil, fmt.Errorf("unknown station design %q", designKey)
	}
	st := NewStationFromDesign(d, owner, l)
	g.Universe.Add(st)
	return st, nil
}

// FoundColony settles sys for owner with the given starting population.
func (g *Game) FoundColony(owner int, sys *StarSystem, pop int) *Colony {
	civ := g.Civ(owner)
	var race *Race
	if civ != nil {
		race = civ.Race
	}
	maxPop := sys.MaxPopulation(race)
	if pop > maxPop {
		pop = maxPop
	}
	c := NewColony(owner, sys, pop, maxPop)
	for cat, fd := range g.Designs.Facilities {
		c.Facilities[cat] = &FacilityPool{Design: fd}
	}
	if sys.HasDilithiumBonus {
		c.ResourceOutput.Dilithium = 5
	}
	if sys.HasRawMaterialBonus {
		c.ResourceOutput.RawMaterials = 10
	}
	c.ResourceOutput.Deuterium = 5
	g.Universe.Add(c)
	sys.ColonyID = c.ID
	sys.OwnerID = owner
	if m := g.Manager(owner); m != nil && m.SeatOfGovernmentID == 0 {
		m.SeatOfGovernmentID = c.ID
	}
	return c
}

func (g *Game) DestroyShip(s *Ship) {
	if f, ok := Lookup[*Fleet](g.Universe, s.FleetID); ok {
		f.RemoveShip(s)
	}
	g.Universe.Remove(s.ID)
}

// DestroyFleet removes the fleet and every ship still aboard.
func (g *Game) DestroyFleet(f *Fleet) {
	for _, s := range append([]*Ship(nil), f.Ships...) {
		g.Universe.Remove(s.ID)
	}
	f.Ships = nil
	g.Universe.Remove(f.ID)
}

func (g *Game) DestroyStation(st *Station) { g.Universe.Remove(st.ID) }

// DestroyColony removes the colony and releases its system.
func (g *Game) DestroyColony(c *Colony) {
	if sys, ok := Lookup[*StarSystem](g.Universe, c.SystemID); ok && sys.ColonyID == c.ID {
		sys.ColonyID = 0
		sys.OwnerID = NoOwner
	}
	owner := c.OwnerID
	c.OwnerID = NoOwner
	g.Universe.Remove(c.ID)
	if m := g.Manager(owner); m != nil {
		if m.HomeColonyID == c.ID {
			m.HomeColonyID = 0
		}
		if m.SeatOfGovernmentID == c.ID {
			m.SeatOfGovernmentID = 0
		}
	}
}

// TransferColony hands c to newOwner (invasion, absorption).
func (g *Game) TransferColony(c *Colony, newOwner int) {
	old := c.OwnerID
	c.OwnerID = newOwner
	if sys, ok := Lookup[*StarSystem](g.Universe, c.SystemID); ok {
		sys.OwnerID = newOwner
	}
	for _, r := range c.TradeRoutes {
		r.SetTargetColony(nil, DefaultTradeMultipliers)
	}
	if m := g.Manager(old); m != nil {
		if m.HomeColonyID == c.ID {
			m.HomeColonyID = 0
		}
		if m.SeatOfGovernmentID == c.ID {
			m.SeatOfGovernmentID = 0
		}
	}
	g.EnsureSeatOfGovernment(old)
	g.EnsureSeatOfGovernment(newOwner)
}

// TransferShip moves s out of its fleet into a fresh fleet owned by newOwner.
func (g *Game) TransferShip(s *Ship, newOwner int) *Fleet {
	if f, ok := Lookup[*Fleet](g.Universe, s.FleetID); ok {
		f.RemoveShip(s)
	}
	s.OwnerID = newOwner
	f := g.SpawnFleet(newOwner, s.Location, s.Name)
	f.AddShip(s)
	return f
}

// EnsureSeatOfGovernment keeps exactly one seat while the civ has colonies:
// the home colony if it survives, else the most populous colony.
func (g *Game) EnsureSeatOfGovernment(civID int) {
	m := g.Manager(civID)
	if m == nil {
		return
	}
	colonies := g.ColoniesOf(civID)
	if len(colonies) == 0 {
		m.SeatOfGovernmentID = 0
		return
	}
	for _, c := range colonies {
		if c.ID == m.SeatOfGovernmentID {
			return
		}
	}
	best := colonies[0]
	for _, c := range colonies {
		if c.ID == m.HomeColonyID {
			best = c
			break
		}
		if c.Population.Current() > best.Population.Current() {
			best = c
		}
	}
	m.SeatOfGovernmentID = best.ID
}

// GlobalBonuses sums empire-wide bonuses of type t over active buildings.
func (g *Game) GlobalBonuses(civID int, t BonusType) int {
	total := 0
	for _, c := range g.ColoniesOf(civID) {
		total += c.ActiveBonus(t)
	}
	return total
}

// OwnedCount counts objects of civID built from designKey (build limits).
func (g *Game) OwnedCount(civID int, kind BuildKind, designKey string) int {
	n := 0
	switch kind {
	case BuildShip:
		for _, s := range FindOwned[*Ship](g.Universe, civID) {
			if s.DesignKey == designKey {
				n++
			}
		}
	case BuildStation:
		for _, s := range FindOwned[*Station](g.Universe, civID) {
			if s.DesignKey == designKey {
				n++
			}
		}
	case BuildBuilding:
		for _, c := range g.ColoniesOf(civID) {
			for _, b := range c.Buildings {
				if b.Design != nil && b.Design.Key == designKey {
					n++
				}
			}
		}
	}
	return n
}

// IsBuildLimitReached reports a project whose design is capped and already at cap.
func (g *Game) IsBuildLimitReached(p *BuildProject) bool {
	return p.BuildLimit > 0 && g.OwnedCount(p.OwnerID, p.Kind, p.DesignKey) >= p.BuildLimit
}

// FinishProject materializes a completed project at its colony.
func (g *Game) FinishProject(p *BuildProject) error {
	c, _ := Lookup[*Colony](g.Universe, p.ColonyID)
	switch p.Kind {
	case BuildShip:
		if _, _, err := g.SpawnShip(p.OwnerID, p.DesignKey, p.Location); err != nil {
			return err
		}
	case BuildStation:
		if _, err := g.SpawnStation(p.OwnerID, p.DesignKey, p.Location); err != nil {
			return err
		}
	case BuildBuilding:
		d := g.Designs.Buildings[p.DesignKey]
		if d == nil {
			return fmt.Errorf("unknown building design %q", p.DesignKey)
		}
		if c == nil {
			return fmt.Errorf("building %q: colony %d gone", p.DesignKey, p.ColonyID)
		}
		c.Buildings = append(c.Buildings, &Building{Design: d})
		c.PowerIdleBuildings()
	case BuildFacility:
		if c == nil {
			return fmt.Errorf("facility: colony %d gone", p.ColonyID)
		}
		pool := c.Facilities[p.Category]
		if pool == nil {
			pool = &FacilityPool{Design: g.Designs.Facilities[p.Category]}
			c.Facilities[p.Category] = pool
		}
		pool.Total++
	}
	g.PostSitRep(p.OwnerID, SitRepItemBuilt, &p.Location, "%s completed", p.Name)
	return nil
}

// NewShipProject prepares a ship build at colony c.
func NewShipProject(d *ShipDesign, c *Colony) *BuildProject {
	return &BuildProject{
		Kind: BuildShip, DesignKey: d.Key, Name: d.Name, OwnerID: c.OwnerID, ColonyID: c.ID,
		Location: c.Location, IndustryCost: d.BuildCost, ResourceCost: d.Resources, BuildLimit: d.BuildLimit,
	}
}

func NewStationProject(d *StationDesign, owner int, l MapLocation) *BuildProject {
	return &BuildProject{
		Kind: BuildStation, DesignKey: d.Key, Name: d.Name, OwnerID: owner,
		Location: l, IndustryCost: d.BuildCost, ResourceCost: d.Resources, BuildLimit: d.BuildLimit,
	}
}

func NewBuildingProject(d *BuildingDesign, c *Colony) *BuildProject {
	return &BuildProject{
		Kind: BuildBuilding, DesignKey: d.Key, Name: d.Name, OwnerID: c.OwnerID, ColonyID: c.ID,
		Location: c.Location, IndustryCost: d.BuildCost, ResourceCost: d.Resources, BuildLimit: d.BuildLimit,
	}
}
