package engine

import (
	"context"
	"fmt"
	"strings"

	"supremacy.ai/internal/sim/galaxy"
)

// doPostTurnOperations clears wrecks and empty fleets, runs end-of-turn
// order hooks, commits per-civ meters and advances the turn counter.
func (e *GameEngine) doPostTurnOperations(_ context.Context, g *galaxy.Game, rep *TurnReport) error {
	for _, o := range g.Universe.All() {
		switch v := o.(type) {
		case *galaxy.Ship:
			if v.Hull.IsMinimized() {
				loc := v.Location
				g.PostSitRep(v.OwnerID, galaxy.SitRepOrbitalDestroyed, &loc, "%s was destroyed", v.Name)
				g.DestroyShip(v)
				rep.ShipsLost++
			}
		case *galaxy.Station:
			if v.Hull.IsMinimized() {
				loc := v.Location
				g.PostSitRep(v.OwnerID, galaxy.SitRepOrbitalDestroyed, &loc, "%s was destroyed", v.Name)
				g.DestroyStation(v)
			}
		}
	}

	for _, f := range galaxy.Find[*galaxy.Fleet](g.Universe) {
		if !f.HasShips() {
			if f.Order != nil {
				f.Order.OnOrderCancelled(g, f)
			}
			g.DestroyFleet(f)
			continue
		}
		if f.Order != nil {
			f.Order.OnTurnEnding(g, f)
		}
	}

	for _, m := range g.Managers() {
		civID := m.Civ.ID
		postFleetSummary(g, civID)

		colonies := g.ColoniesOf(civID)
		pop := 0
		for _, c := range colonies {
			pop += c.Population.Current()
		}
		m.Resources.UpdateAndReset()
		m.Credits.UpdateAndReset()
		m.Research.CumulativePoints.UpdateAndReset()
		m.History = append(m.History, galaxy.HistoryRecord{
			Turn:        g.TurnNumber,
			Credits:     m.Credits.Current(),
			Colonies:    len(colonies),
			Population:  pop,
			Maintenance: m.MaintenanceCostLastTurn,
			Research:    m.Research.LastTurnPoints,
		})
	}

	g.TurnNumber++
	return nil
}

var summaryGroups = []struct {
	label string
	types []galaxy.ShipType
}{
	{"Command", []galaxy.ShipType{galaxy.ShipCommand}},
	{"Cruiser", []galaxy.ShipType{galaxy.ShipCruiser, galaxy.ShipHeavyCruiser, galaxy.ShipStrikeCruiser}},
	{"Attack", []galaxy.ShipType{galaxy.ShipFastAttack}},
	{"Scout", []galaxy.ShipType{galaxy.ShipScout}},
	{"Science", []galaxy.ShipType{galaxy.ShipScience}},
	{"Spy", []galaxy.ShipType{galaxy.ShipSpy}},
	{"Diplomatic", []galaxy.ShipType{galaxy.ShipDiplomatic}},
	{"Medical", []galaxy.ShipType{galaxy.ShipMedical}},
	{"Transport", []galaxy.ShipType{galaxy.ShipTransport}},
	{"Construction", []galaxy.ShipType{galaxy.ShipConstruction}},
	{"Colony", []galaxy.ShipType{galaxy.ShipColony}},
}

// postFleetSummary reports ship counts and firepower by class, plus the
// condition of damaged ships and stations.
func postFleetSummary(g *galaxy.Game, civID int) {
	ships := galaxy.FindOwned[*galaxy.Ship](g.Universe, civID)
	count := map[galaxy.ShipType]int{}
	fire := map[galaxy.ShipType]int{}
	for _, s := range ships {
		count[s.ShipType]++
		fire[s.ShipType] += s.Firepower
		if s.Hull.Current() < s.Hull.Max() {
			loc := s.Location
			g.PostSitRep(civID, galaxy.SitRepShipStatus, &loc, "%s hull at %d/%d", s.Name, s.Hull.Current(), s.Hull.Max())
		}
	}
	var parts []string
	total := 0
	for _, grp := range summaryGroups {
		n, fp := 0, 0
		for _, t := range grp.types {
			n += count[t]
			fp += fire[t]
		}
		if n == 0 {
			continue
		}
		total += fp
		if fp > 0 {
			parts = append(parts, fmt.Sprintf("%s %dx (FP:%d)", grp.label, n, fp))
		} else {
			parts = append(parts, fmt.Sprintf("%s %dx", grp.label, n))
		}
	}
	if len(parts) > 0 {
		g.PostSitRep(civID, galaxy.SitRepShipSummary, nil, "%s; total FP %d", strings.Join(parts, "; "), total)
	}

	for _, st := range galaxy.FindOwned[*galaxy.Station](g.Universe, civID) {
		if st.Hull.Current() < st.Hull.Max() {
			loc := st.Location
			g.PostSitRep(civID, galaxy.SitRepStationStatus, &loc, "%s hull at %d/%d", st.Name, st.Hull.Current(), st.Hull.Max())
		}
	}
}
