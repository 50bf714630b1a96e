package engine

import (
	"context"

	"supremacy.ai/internal/sim/galaxy"
)

// doResearch credits science-ship surveys and colony research output.
func (e *GameEngine) doResearch(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	return parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		m.Research.LastTurnPoints = 0
		home := g.HomeLocation(m.Civ.ID)
		for _, s := range galaxy.FindOwned[*galaxy.Ship](g.Universe, m.Civ.ID) {
			if s.ShipType != galaxy.ShipScience || s.Location == home {
				continue
			}
			sys := g.SystemAt(s.Location)
			if sys == nil {
				continue
			}
			gained := e.surveyPoints(s, sys.StarType)
			m.Research.UpdateResearch(gained)
			loc := s.Location
			g.PostSitRep(m.Civ.ID, galaxy.SitRepScienceShip, &loc,
				"%s gathered %d research points studying the %s star at %s", s.Name, gained, sys.StarType, loc)
		}

		total := 0
		for _, c := range g.ColoniesOf(m.Civ.ID) {
			total += c.NetResearch()
		}
		m.Research.UpdateResearch(total)
		return nil
	})
}

// surveyPoints is (scan*ability + 1) times the star multiplier; stars
// without a multiplier yield a flat amount.
func (e *GameEngine) surveyPoints(s *galaxy.Ship, st galaxy.StarType) int {
	mult, ok := e.tun.StarMultiplier(st)
	if !ok {
		return e.tun.Research.UnlistedStarPoints
	}
	return (int(float64(s.ScanStrength)*s.ScienceAbility) + 1) * mult
}
