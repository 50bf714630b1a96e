package galaxy

import (
	"fmt"
	"sync"
)

// Relations answers diplomatic questions about pairs of civs. It is
// implemented by the diplomacy registry.
type Relations interface {
	Status(owner, counterparty int) DiplomacyStatus
	IsContactMade(a, b int) bool
	MakeContact(a, b, turn int)
	AreAtWar(a, b int) bool
	AreAllied(a, b int) bool
	AreFriendly(a, b int) bool
	AreNeutral(a, b int) bool
	ArePotentialEnemies(a, b int) bool
	WillEngage(a, b int) bool
	WillFightAlongside(a, b int) bool
	IsMember(a, b int) bool
	IsTradeEstablished(a, b int) bool
	HasTreaty(a, b int, t Treaty) bool
	HasSpyNetwork(spy, target int) bool
	EstablishSpyNetwork(spy, target int)
	Regard(owner, counterparty int) int
	ApplyRegardChange(owner, counterparty, delta int)
	ApplyTrustChange(owner, counterparty, delta int)
}

type PathOptions struct {
	AvoidDeathStars bool
	// SafeTerritory restricts the path to sectors travel is allowed in.
	SafeTerritory   bool
	// WithinFuelRange keeps the path inside sectors the fleet can refuel in.
	WithinFuelRange bool
	Avoid           []MapLocation
}

// Pathfinder computes routes for fleets.
type Pathfinder interface {
	FindPath(g *Game, f *Fleet, opts PathOptions, destinations ...MapLocation) Route
}

// Game is the explicit world-state handle every phase mutates.
type Game struct {
	Seed          int64
	TurnNumber    int
	Universe      *Universe
	Civilizations []*Civilization
	Relations     Relations
	Claims        *SectorClaimGrid
	Designs       *Designs

	mu       sync.RWMutex
	managers map[int]*CivilizationManager
	queued   []SitRep
}

func NewGame(m SectorMap, civs []*Civilization, designs *Designs, seed int64) *Game {
	sorted := append([]*Civilization(nil), civs...)
	sortCivs(sorted)
	if designs == nil {
		designs = NewDesigns()
	}
	return &Game{
		Seed:          seed,
		Universe:      NewUniverse(m),
		Civilizations: sorted,
		Claims:        NewSectorClaimGrid(m),
		Designs:       designs,
		managers:      map[int]*CivilizationManager{},
	}
}

func (g *Game) Map() SectorMap { return g.Universe.Map }

func (g *Game) Civ(id int) *Civilization {
	for _, c := range g.Civilizations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (g *Game) CivByKey(key string) *Civilization {
	for _, c := range g.Civilizations {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func (g *Game) Manager(civID int) *CivilizationManager {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.managers[civID]
}

func (g *Game) SetManager(m *CivilizationManager) {
	g.mu.Lock()
	g.managers[m.Civ.ID] = m
	g.mu.Unlock()
}

// Managers returns every manager in civ id order.
func (g *Game) Managers() []*CivilizationManager {
	out := make([]*CivilizationManager, 0, len(g.Civilizations))
	for _, c := range g.Civilizations {
		if m := g.Manager(c.ID); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// QueueSitRep stores an entry produced outside a turn; PreTurn delivers it.
func (g *Game) QueueSitRep(s SitRep) {
	g.mu.Lock()
	g.queued = append(g.queued, s)
	g.mu.Unlock()
}

func (g *Game) DrainQueuedSitReps() []SitRep {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.queued
	g.queued = nil
	return out
}

// PostSitRep adds an entry to civID's report for this turn.
func (g *Game) PostSitRep(civID int, cat SitRepCategory, loc *MapLocation, format string, args ...any) {
	m := g.Manager(civID)
	if m == nil {
		return
	}
	m.AddSitRep(NewSitRep(g.TurnNumber, civID, cat, fmt.Sprintf(format, args...), loc))
}

func (g *Game) SystemAt(l MapLocation) *StarSystem {
	if s := FindAt[*StarSystem](g.Universe, l); len(s) > 0 {
		return s[0]
	}
	return nil
}

func (g *Game) ColonyAt(l MapLocation) *Colony {
	if c := FindAt[*Colony](g.Universe, l); len(c) > 0 {
		return c[0]
	}
	return nil
}

func (g *Game) StationAt(l MapLocation) *Station {
	if s := FindAt[*Station](g.Universe, l); len(s) > 0 {
		return s[0]
	}
	return nil
}

func (g *Game) ColoniesOf(civID int) []*Colony { return FindOwned[*Colony](g.Universe, civID) }

func (g *Game) FleetsOf(civID int) []*Fleet { return FindOwned[*Fleet](g.Universe, civID) }

func (g *Game) ColonyOfSystem(s *StarSystem) *Colony {
	if s == nil || s.ColonyID == 0 {
		return nil
	}
	c, _ := Lookup[*Colony](g.Universe, s.ColonyID)
	return c
}

func (g *Game) HomeColony(civID int) *Colony {
	m := g.Manager(civID)
	if m == nil || m.HomeColonyID == 0 {
		return nil
	}
	c, _ := Lookup[*Colony](g.Universe, m.HomeColonyID)
	return c
}

// HomeSystem falls back to the system named by the civ when the home colony is gone.
func (g *Game) HomeSystem(civID int) *StarSystem {
	if c := g.HomeColony(civID); c != nil {
		if s, ok := Lookup[*StarSystem](g.Universe, c.SystemID); ok {
			return s
		}
	}
	civ := g.Civ(civID)
	if civ == nil || civ.HomeSystemName == "" {
		return nil
	}
	for _, s := range Find[*StarSystem](g.Universe) {
		if s.Name == civ.HomeSystemName {
			return s
		}
	}
	return nil
}

// HomeLocation is the home sector, or the map center for homeless civs.
func (g *Game) HomeLocation(civID int) MapLocation {
	if s := g.HomeSystem(civID); s != nil {
		return s.Location
	}
	return g.Map().Center()
}

func (g *Game) SectorOwner(l MapLocation) (int, bool) { return g.Claims.Owner(l) }

// IsTravelAllowed: own or unclaimed space is open; foreign space is open
// when at war, allied, a member, or under an open borders treaty.
func (g *Game) IsTravelAllowed(civID int, l MapLocation) bool {
	owner, ok := g.SectorOwner(l)
	if !ok || owner == civID || g.Relations == nil {
		return true
	}
	r := g.Relations
	return r.AreAtWar(civID, owner) || r.AreAllied(civID, owner) || r.IsMember(civID, owner) ||
		r.HasTreaty(civID, owner, TreatyOpenBorders)
}

// IsInFuelRange reports whether the fleet's owner can refuel it where it stands.
func (g *Game) IsInFuelRange(f *Fleet) bool {
	m := g.Manager(f.InferredOwner())
	if m == nil {
		return false
	}
	return f.Range() >= m.MapData.GetFuelRange(f.Location)
}
