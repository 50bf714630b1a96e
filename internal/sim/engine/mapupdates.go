package engine

import (
	"context"

	"supremacy.ai/internal/sim/galaxy"
)

// doMapUpdates recomputes territorial claims, then every civ's scan
// coverage and fuel ranges.
func (e *GameEngine) doMapUpdates(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	interference := make(chan []int, 1)
	go func() { interference <- e.interferenceGrid(g) }()

	if err := e.doSectorClaims(ctx, g); err != nil {
		<-interference
		return err
	}
	grid := <-interference
	err := parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		e.updateCoverage(g, m, grid)
		return nil
	})
	e.detectContacts(g)
	return err
}

// detectContacts makes first contact between civs whose sensors cover
// the other's colonies, stations or uncloaked ships.
func (e *GameEngine) detectContacts(g *galaxy.Game) {
	rel := g.Relations
	if rel == nil {
		return
	}
	type sighting struct {
		loc   galaxy.MapLocation
		owner int
	}
	var seen []sighting
	for _, o := range g.Universe.All() {
		if o.Owner() == galaxy.NoOwner {
			continue
		}
		switch v := o.(type) {
		case *galaxy.Colony, *galaxy.Station:
			seen = append(seen, sighting{o.Loc(), o.Owner()})
		case *galaxy.Ship:
			if !v.IsCloaked {
				seen = append(seen, sighting{v.Location, v.OwnerID})
			}
		}
	}
	for _, m := range g.Managers() {
		civID := m.Civ.ID
		for _, s := range seen {
			other := s.owner
			if other == civID || m.MapData.GetScanStrength(s.loc) <= 0 || rel.IsContactMade(civID, other) {
				continue
			}
			rel.MakeContact(civID, other, g.TurnNumber)
			loc := s.loc
			if c := g.Civ(other); c != nil {
				g.PostSitRep(civID, galaxy.SitRepFirstContact, &loc, "First contact with %s", c.Name)
			}
			g.PostSitRep(other, galaxy.SitRepFirstContact, &loc, "First contact with %s", m.Civ.Name)
		}
	}
}

// doSectorClaims spreads each empire colony's population over the sectors
// around it. Weight falls off with distance.
func (e *GameEngine) doSectorClaims(ctx context.Context, g *galaxy.Game) error {
	g.Claims.ClearClaims()
	var empires []*galaxy.CivilizationManager
	for _, m := range g.Managers() {
		if m.Civ.IsEmpire() {
			empires = append(empires, m)
		}
	}
	mp := e.tun.Map
	err := parallelForEach(ctx, e.workers(), empires, func(m *galaxy.CivilizationManager) error {
		for _, c := range g.ColoniesOf(m.Civ.ID) {
			pop := c.Population.Current()
			radius := pop / mp.ClaimPopDivisor
			if radius > mp.ClaimRadiusCap {
				radius = mp.ClaimRadiusCap
			}
			for _, l := range g.Map().Within(c.Location, radius) {
				w := pop / (l.Distance(c.Location) + 1)
				if w <= 0 {
					continue
				}
				g.Claims.AddClaim(l, m.Civ.ID, w)
				m.MapData.SetScanned(l, true)
			}
		}
		if m.Civ.IsHuman {
			m.DesiredBorders = nil
		}
		return nil
	})
	e.checkNonAggression(g)
	return err
}

// checkNonAggression penalizes each civ with fleets inside territory of a
// civ it holds a non-aggression treaty with, once per pair per turn.
func (e *GameEngine) checkNonAggression(g *galaxy.Game) {
	rel := g.Relations
	if rel == nil {
		return
	}
	penalty := e.tun.Diplomacy.NonAggressionViolation
	for _, owner := range g.Civilizations {
		for _, other := range g.Civilizations {
			if owner.ID == other.ID || !rel.HasTreaty(owner.ID, other.ID, galaxy.TreatyNonAggression) {
				continue
			}
			for _, f := range g.FleetsOf(other.ID) {
				if claimant, ok := g.SectorOwner(f.Location); ok && claimant == owner.ID {
					rel.ApplyRegardChange(owner.ID, other.ID, -penalty)
					rel.ApplyTrustChange(owner.ID, other.ID, -penalty)
					break
				}
			}
		}
	}
}

// interferenceGrid is the row-major scan interference radiated by stars:
// full strength in the star's sector, half in the ring around it.
func (e *GameEngine) interferenceGrid(g *galaxy.Game) []int {
	mp := g.Map()
	grid := make([]int, mp.Width*mp.Height)
	for _, s := range galaxy.Find[*galaxy.StarSystem](g.Universe) {
		v := e.tun.Interference(s.StarType)
		if v <= 0 {
			continue
		}
		for _, l := range mp.Within(s.Location, 1) {
			add := v / 2
			if l == s.Location {
				add = v
			}
			grid[l.Y*mp.Width+l.X] += add
		}
	}
	return grid
}

func (e *GameEngine) updateCoverage(g *galaxy.Game, m *galaxy.CivilizationManager, interference []int) {
	civID := m.Civ.ID
	md := m.MapData
	md.ResetScanStrengthAndFuelRange()

	for _, f := range g.FleetsOf(civID) {
		scan := 0
		for _, s := range f.Ships {
			if s.ScanStrength > scan {
				scan = s.ScanStrength
			}
		}
		md.UpgradeScanStrength(f.Location, scan, 1)
	}

	fuel := map[galaxy.MapLocation]bool{}
	for _, st := range galaxy.FindOwned[*galaxy.Station](g.Universe, civID) {
		md.UpgradeScanStrength(st.Location, st.ScanStrength, st.ScanRange)
		fuel[st.Location] = true
	}
	if rel := g.Relations; rel != nil {
		for _, other := range g.Civilizations {
			if other.ID == civID || !sharesFuel(rel, civID, other.ID) {
				continue
			}
			for _, st := range galaxy.FindOwned[*galaxy.Station](g.Universe, other.ID) {
				fuel[st.Location] = true
			}
		}
	}
	mp := e.tun.Map
	for _, c := range g.ColoniesOf(civID) {
		bonus := c.ActiveBonus(galaxy.BonusScanRange)
		md.UpgradeScanStrength(c.Location, mp.ColonyScanStrength+bonus, mp.ColonyScanRange+bonus)
		if c.Shipyard != nil {
			fuel[c.Location] = true
		}
	}

	g.Map().Each(func(l galaxy.MapLocation) {
		for src := range fuel {
			md.UpgradeFuelRange(l, l.Distance(src))
		}
	})
	md.ApplyScanInterference(interference)
}

func sharesFuel(rel galaxy.Relations, a, b int) bool {
	return rel.HasTreaty(a, b, galaxy.TreatyDefensiveAlliance) ||
		rel.HasTreaty(a, b, galaxy.TreatyFullAlliance) ||
		rel.HasTreaty(a, b, galaxy.TreatyAffiliation)
}
