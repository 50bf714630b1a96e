package engine

import (
	"context"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/logic/mathx"
)

const saltBlackHole = 0xb1ac

// doFleetMovement moves every fleet along its route, burning one unit of
// fuel per ship per sector. Fleets inside fuel range refill from the
// owner's deuterium stock.
func (e *GameEngine) doFleetMovement(ctx context.Context, g *galaxy.Game, rep *TurnReport) error {
	for _, f := range galaxy.Find[*galaxy.Fleet](g.Universe) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := g.Manager(f.InferredOwner())
		if m == nil || !f.HasShips() {
			continue
		}

		inRange := g.IsInFuelRange(f)
		if f.IsStranded() && !inRange {
			f.ClearRoute()
		}
		if !f.IsInTow && inRange {
			for _, s := range f.Ships {
				refuel(m, s, s.Fuel.Max()-s.Fuel.Current())
			}
		}

		moved := false
		for i := 0; i < f.Speed(); i++ {
			if f.IsStranded() && !g.IsInFuelRange(f) {
				break
			}
			if !f.MoveAlongRoute() {
				break
			}
			moved = true
			inRange = g.IsInFuelRange(f)
			for _, s := range f.Ships {
				spent := -s.Fuel.AdjustCurrent(-1)
				if inRange {
					refuel(m, s, spent)
				}
			}
			e.fireFleetLocationChanged(g, f)
		}
		if moved {
			rep.FleetsMoved++
		}

		if e.tun.Movement.SafeBlackHoles {
			continue
		}
		if sys := g.SystemAt(f.Location); sys != nil && sys.StarType == galaxy.StarBlackHole {
			rep.ShipsLost += blackHoleEncounter(g, f)
		}
	}
	return nil
}

// refuel moves up to need units from the owner's deuterium into s.
func refuel(m *galaxy.CivilizationManager, s *galaxy.Ship, need int) {
	if need <= 0 {
		return
	}
	got := -m.Resources.Deuterium.AdjustCurrent(-need)
	s.Fuel.AdjustCurrent(got)
}

// blackHoleEncounter rolls damage in [1, hull] for each ship; a roll that
// reaches the hull destroys the ship. Returns the number destroyed.
func blackHoleEncounter(g *galaxy.Game, f *galaxy.Fleet) int {
	owner := f.InferredOwner()
	damaged, destroyed := 0, 0
	for _, s := range append([]*galaxy.Ship(nil), f.Ships...) {
		hull := s.Hull.Current()
		if hull <= 0 {
			continue
		}
		roll := 1 + mathx.Roll(g.Seed, hull, g.TurnNumber, s.ID, saltBlackHole)
		if roll >= hull {
			g.DestroyShip(s)
			destroyed++
			continue
		}
		s.Hull.AdjustCurrent(-roll)
		damaged++
	}
	if damaged+destroyed > 0 {
		loc := f.Location
		g.PostSitRep(owner, galaxy.SitRepBlackHole, &loc,
			"%s encountered a black hole: %d ships damaged, %d destroyed", f.Name, damaged, destroyed)
	}
	return destroyed
}
