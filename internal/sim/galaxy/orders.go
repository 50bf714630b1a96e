package galaxy

// Order is a fleet's standing instruction. Hooks run at fixed points of
// the turn: OnTurnBeginning during PreTurnOperations, OnTurnEnding during
// PostTurnOperations, OnOrderCancelled when the fleet is dissolved.
type Order interface {
	Name() string
	IsValidOrder(g *Game, f *Fleet) bool
	OnTurnBeginning(g *Game, f *Fleet)
	OnTurnEnding(g *Game, f *Fleet)
	OnOrderCancelled(g *Game, f *Fleet)
}

type noopHooks struct{}

func (noopHooks) OnTurnBeginning(*Game, *Fleet)  {}
func (noopHooks) OnTurnEnding(*Game, *Fleet)     {}
func (noopHooks) OnOrderCancelled(*Game, *Fleet) {}

// GetDefaultOrder is Engage for fleets with combat hulls and Avoid otherwise.
func GetDefaultOrder(f *Fleet) Order {
	if f.IsCombatant() {
		return &EngageOrder{}
	}
	return &AvoidOrder{}
}

type EngageOrder struct{ noopHooks }

func (*EngageOrder) Name() string                    { return "engage" }
func (*EngageOrder) IsValidOrder(*Game, *Fleet) bool { return true }

type AvoidOrder struct{ noopHooks }

func (*AvoidOrder) Name() string                    { return "avoid" }
func (*AvoidOrder) IsValidOrder(*Game, *Fleet) bool { return true }

// ExploreOrder charts the sector the fleet ends its turn in.
type ExploreOrder struct{ noopHooks }

func (*ExploreOrder) Name() string                    { return "explore" }
func (*ExploreOrder) IsValidOrder(*Game, *Fleet) bool { return true }

func (*ExploreOrder) OnTurnEnding(g *Game, f *Fleet) {
	if m := g.Manager(f.InferredOwner()); m != nil {
		m.MapData.SetExplored(f.Location, true)
		m.MapData.SetScanned(f.Location, true)
	}
}

// ColonizeOrder settles the system under the fleet using its colony ships.
type ColonizeOrder struct{ noopHooks }

func (*ColonizeOrder) Name() string { return "colonize" }

func (*ColonizeOrder) IsValidOrder(g *Game, f *Fleet) bool {
	if !f.HasShipType(ShipColony) {
		return false
	}
	sys := g.SystemAt(f.Location)
	if sys == nil || sys.HasColony() {
		return false
	}
	civ := g.Civ(f.InferredOwner())
	return civ != nil && sys.IsHabitable(civ.Race)
}

func (o *ColonizeOrder) OnTurnEnding(g *Game, f *Fleet) {
	if !o.IsValidOrder(g, f) {
		return
	}
	owner := f.InferredOwner()
	sys := g.SystemAt(f.Location)
	pop := 0
	for _, s := range append([]*Ship(nil), f.Ships...) {
		if s.ShipType == ShipColony {
			pop += s.ColonistCapacity
			g.DestroyShip(s)
		}
	}
	if pop <= 0 {
		pop = 1
	}
	c := g.FoundColony(owner, sys, pop)
	g.PostSitRep(owner, SitRepNewColony, &c.Location, "New colony founded at %s", c.Name)
	f.Order = GetDefaultOrder(f)
	f.UnitAIType = UnitAINone
	f.Activity = ActivityNone
}

// AssaultSystemOrder invades the colony under the fleet; it stays valid
// while the colony belongs to a civ the fleet's owner is at war with.
type AssaultSystemOrder struct{ noopHooks }

func (*AssaultSystemOrder) Name() string { return "assault_system" }

func (*AssaultSystemOrder) IsValidOrder(g *Game, f *Fleet) bool {
	c := g.ColonyAt(f.Location)
	if c == nil || !c.IsOwned() {
		return false
	}
	owner := f.InferredOwner()
	if c.OwnerID == owner {
		return false
	}
	return g.Relations != nil && g.Relations.AreAtWar(owner, c.OwnerID)
}

// MedicalOrder treats the population of the colony under the fleet.
type MedicalOrder struct{ noopHooks }

func (*MedicalOrder) Name() string { return "medical" }

func (*MedicalOrder) IsValidOrder(g *Game, f *Fleet) bool {
	return f.HasShipType(ShipMedical)
}

func (*MedicalOrder) OnTurnEnding(g *Game, f *Fleet) {
	c := g.ColonyAt(f.Location)
	if c == nil {
		return
	}
	heal := 0
	for _, s := range f.Ships {
		heal += s.MedicalCapacity
	}
	c.Health.AdjustCurrent(heal)
	c.Health.UpdateAndReset()
	owner := f.InferredOwner()
	if c.IsOwned() && c.OwnerID != owner && g.Relations != nil {
		g.Relations.ApplyRegardChange(c.OwnerID, owner, heal/2)
	}
}

// InfluenceOrder improves the standing of the fleet's owner with the colony owner.
type InfluenceOrder struct{ noopHooks }

func (*InfluenceOrder) Name() string { return "influence" }

func (*InfluenceOrder) IsValidOrder(g *Game, f *Fleet) bool {
	c := g.ColonyAt(f.Location)
	return f.HasShipType(ShipDiplomatic) && c != nil && c.IsOwned() && c.OwnerID != f.InferredOwner()
}

func (o *InfluenceOrder) OnTurnEnding(g *Game, f *Fleet) {
	if !o.IsValidOrder(g, f) || g.Relations == nil {
		return
	}
	c := g.ColonyAt(f.Location)
	owner := f.InferredOwner()
	if !g.Relations.IsContactMade(c.OwnerID, owner) {
		g.Relations.MakeContact(c.OwnerID, owner, g.TurnNumber)
	}
	g.Relations.ApplyRegardChange(c.OwnerID, owner, 25)
	g.Relations.ApplyTrustChange(c.OwnerID, owner, 10)
}

// SpyOnOrder plants a spy network in the colony owner's empire.
type SpyOnOrder struct{ noopHooks }

func (*SpyOnOrder) Name() string { return "spy_on" }

func (*SpyOnOrder) IsValidOrder(g *Game, f *Fleet) bool {
	c := g.ColonyAt(f.Location)
	return f.HasShipType(ShipSpy) && c != nil && c.IsOwned() && c.OwnerID != f.InferredOwner()
}

func (o *SpyOnOrder) OnTurnEnding(g *Game, f *Fleet) {
	if !o.IsValidOrder(g, f) || g.Relations == nil {
		return
	}
	c := g.ColonyAt(f.Location)
	g.Relations.EstablishSpyNetwork(f.InferredOwner(), c.OwnerID)
}

// BuildStationOrder builds a station at the fleet's location with the
// industry of its construction ships; the ships are used up on completion.
type BuildStationOrder struct {
	noopHooks
	Project *BuildProject
}

func (*BuildStationOrder) Name() string { return "build_station" }

func (o *BuildStationOrder) IsValidOrder(g *Game, f *Fleet) bool {
	return o.Project != nil && f.HasShipType(ShipConstruction) && g.StationAt(f.Location) == nil
}

func (o *BuildStationOrder) OnTurnEnding(g *Game, f *Fleet) {
	if !o.IsValidOrder(g, f) {
		return
	}
	owner := f.InferredOwner()
	m := g.Manager(owner)
	if m == nil {
		return
	}
	o.Project.Location = f.Location
	industry := 0
	for _, s := range f.Ships {
		if s.ShipType == ShipConstruction {
			industry += s.BuildOutput
		}
	}
	pool := m.Resources.Snapshot()
	used := o.Project.Advance(&industry, &pool)
	m.Resources.Debit(used)
	if !o.Project.IsCompleted() {
		return
	}
	st, err := g.SpawnStation(owner, o.Project.DesignKey, f.Location)
	if err != nil {
		return
	}
	for _, s := range append([]*Ship(nil), f.Ships...) {
		if s.ShipType == ShipConstruction {
			g.DestroyShip(s)
		}
	}
	g.PostSitRep(owner, SitRepStationBuilt, &st.Location, "%s completed", st.Name)
	for _, other := range FindAt[*Fleet](g.Universe, f.Location) {
		if other.InferredOwner() == owner && other.UnitAIType == UnitAIBuilding {
			other.UnitAIType = UnitAIConstructor
			other.Activity = ActivityNone
			other.Order = GetDefaultOrder(other)
		}
	}
	f.Order = GetDefaultOrder(f)
	f.UnitAIType = UnitAINone
	f.Activity = ActivityNone
}
