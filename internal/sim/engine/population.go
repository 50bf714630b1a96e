package engine

import (
	"context"
	"math"

	"supremacy.ai/internal/sim/galaxy"
)

// doPopulation feeds, starves and grows every colony, then re-staffs food
// and industry facilities for the new population.
func (e *GameEngine) doPopulation(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	return parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		e.growCiv(g, m)
		return nil
	})
}

func (e *GameEngine) growCiv(g *galaxy.Game, m *galaxy.CivilizationManager) {
	civID := m.Civ.ID
	m.TotalPopulation.SetCurrent(0)
	for _, c := range g.ColoniesOf(civID) {
		loc := c.Location
		c.Population.SetMax(c.MaxPopulation)
		pop := c.Population.Current()

		c.FoodReserves.AdjustCurrent(c.NetFood())
		deficit := c.FoodReserves.Current() - pop
		if deficit > 0 {
			deficit = 0
		}
		c.FoodReserves.AdjustCurrent(-pop)
		c.FoodReserves.UpdateAndReset()

		growth := c.GrowthRate()
		change := 0
		if deficit < 0 {
			change = -int(math.Floor(e.tun.Economy.StarvationFactor * math.Sqrt(math.Abs(float64(pop*deficit)))))
			g.PostSitRep(civID, galaxy.SitRepStarvation, &loc, "%s is starving", c.Name)
		} else {
			change = int(math.Ceil(growth * float64(pop)))
		}
		if change < 0 {
			g.PostSitRep(civID, galaxy.SitRepPopulationDying, &loc, "Population of %s is dying", c.Name)
		}
		c.Population.AdjustCurrent(change)

		if c.Population.Current() == 0 {
			g.PostSitRep(civID, galaxy.SitRepPopulationDied, &loc, "The population of %s has died out", c.Name)
			g.DestroyColony(c)
			g.EnsureSeatOfGovernment(civID)
			continue
		}
		c.Population.UpdateAndReset()
		m.TotalPopulation.AdjustCurrent(c.Population.Current())

		if c.Population.Current() < c.Population.Max() {
			projected := float64(c.Population.Current()) * math.Pow(1+growth, float64(e.tun.Economy.GrowthProjectionTurns))
			want := int(math.Min(float64(c.Population.Max()), projected))
			for want > c.NetFood() && c.ActivateFacility(galaxy.ProdFood) {
			}
		}
		for c.ActivateFacility(galaxy.ProdIndustry) {
		}
	}
	m.TotalPopulation.UpdateAndReset()
	g.EnsureSeatOfGovernment(civID)
}
