package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/logic/mathx"
)

const (
	saltProduction     = 0x9d01
	saltShipProduction = 0x9d02
)

// doScrapping removes flagged ships and stations, then flagged buildings
// and facilities, refunding a share of their resources.
func (e *GameEngine) doScrapping(_ context.Context, g *galaxy.Game, _ *TurnReport) error {
	pct := e.tun.Economy.ScrapRefundPercent
	refund := func(owner int, r galaxy.Resources) {
		if m := g.Manager(owner); m != nil {
			m.Resources.Credit(galaxy.Resources{
				Deuterium:    r.Deuterium * pct / 100,
				Dilithium:    r.Dilithium * pct / 100,
				RawMaterials: r.RawMaterials * pct / 100,
			})
		}
	}
	for _, o := range g.Universe.All() {
		switch v := o.(type) {
		case *galaxy.Ship:
			if !v.Scrap {
				continue
			}
			if d := g.Designs.Ships[v.DesignKey]; d != nil {
				refund(v.OwnerID, d.Resources)
			}
			g.DestroyShip(v)
		case *galaxy.Station:
			if !v.Scrap {
				continue
			}
			if d := g.Designs.Stations[v.DesignKey]; d != nil {
				refund(v.OwnerID, d.Resources)
			}
			g.DestroyStation(v)
		}
	}
	for _, m := range g.Managers() {
		for _, c := range g.ColoniesOf(m.Civ.ID) {
			m.Resources.Credit(c.ScrapNonStructures(pct))
		}
	}
	return nil
}

// doMaintenance balances colony energy and charges ship and station upkeep.
func (e *GameEngine) doMaintenance(_ context.Context, g *galaxy.Game, _ *TurnReport) error {
	for _, m := range g.Managers() {
		civID := m.Civ.ID
		upkeep := 0
		for _, c := range g.ColoniesOf(civID) {
			if shut := c.EnsureEnergyForBuildings(); shut > 0 {
				loc := c.Location
				g.PostSitRep(civID, galaxy.SitRepEnergyShortage, &loc,
					"Energy shortage at %s: %d buildings powered down", c.Name, shut)
			}
		}
		for _, s := range galaxy.FindOwned[*galaxy.Ship](g.Universe, civID) {
			upkeep += s.Maintenance
		}
		for _, st := range galaxy.FindOwned[*galaxy.Station](g.Universe, civID) {
			upkeep += st.Maintenance
		}
		m.Credits.AdjustCurrent(-upkeep)
		m.MaintenanceCostLastTurn = upkeep
	}
	return nil
}

// doProduction collects colony income and spends colony industry on the
// colony build slot. Colonies are visited in a seeded random order so no
// colony always gets first claim on the shared resource pool.
func (e *GameEngine) doProduction(ctx context.Context, g *galaxy.Game, rep *TurnReport) error {
	managers := g.Managers()
	forced := make([]int, len(managers))
	order := make([]int, len(managers))
	for i := range order {
		order[i] = i
	}
	err := parallelForEach(ctx, e.workers(), order, func(i int) error {
		n, err := e.produceCiv(g, managers[i])
		forced[i] = n
		return err
	})
	for _, n := range forced {
		rep.ProjectsForced += n
	}
	return err
}

func (e *GameEngine) shuffledColonies(g *galaxy.Game, civID, salt int, keep func(*galaxy.Colony) bool) []*galaxy.Colony {
	var out []*galaxy.Colony
	for _, c := range g.ColoniesOf(civID) {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	mathx.Shuffle(g.Seed, g.TurnNumber*1000+civID*7+salt, len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func (e *GameEngine) produceCiv(g *galaxy.Game, m *galaxy.CivilizationManager) (int, error) {
	civID := m.Civ.ID
	colonies := g.ColoniesOf(civID)
	var income galaxy.Resources
	credits := 0
	for _, c := range colonies {
		credits += c.TaxCredits()
		income = income.Add(c.ResourceOutput)
	}
	m.Credits.AdjustCurrent(credits)
	m.Resources.Credit(income)

	eco := e.tun.Economy
	forced := 0
	var errs []error
	for _, c := range e.shuffledColonies(g, civID, saltProduction, nil) {
		loc := c.Location
		if !c.HasBuildWork() {
			g.PostSitRep(civID, galaxy.SitRepBuildQueueEmpty, &loc, "Build queue at %s is empty", c.Name)
			continue
		}
		industry := c.NetIndustry()
		// advances counts passes spent on the project in the slot.
		advances := 0
		for industry > 0 && c.HasBuildWork() {
			c.ProcessQueue()
			p := c.BuildSlot.Project
			if p == nil {
				break
			}
			if g.IsBuildLimitReached(p) {
				p.Cancel()
				advances = 0
				continue
			}
			advances++

			if p.IsRushed {
				m.Credits.AdjustCurrent(-p.RushCost(eco.RushCreditsPerIndustry))
				p.CompleteUnlimited()
			} else {
				if industry < eco.MinIndustry {
					industry = eco.MinIndustry
				}
				pool := m.Resources.Snapshot()
				m.Resources.Debit(p.Advance(&industry, &pool))
				if advances > eco.ForceFinishAdvances {
					p.CompleteUnlimited()
					forced++
					e.log.Debug("project force-finished",
						zap.String("project", p.Name),
						zap.String("colony", c.Name),
						zap.Int("civ", civID),
						zap.Int("advances", advances),
					)
				}
			}

			if p.IsCompleted() {
				if err := g.FinishProject(p); err != nil {
					errs = append(errs, fmt.Errorf("%s at %s: %w", p.Name, c.Name, err))
				}
				c.BuildSlot.Project = nil
				advances = 0
			}
		}
		if !c.HasBuildWork() {
			g.PostSitRep(civID, galaxy.SitRepBuildQueueEmpty, &loc, "Build queue at %s is empty", c.Name)
		}
	}
	return forced, errors.Join(errs...)
}

// doShipProduction advances every active shipyard slot with the slot's own
// output.
func (e *GameEngine) doShipProduction(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	return parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		civID := m.Civ.ID
		var errs []error
		hasYard := func(c *galaxy.Colony) bool { return c.Shipyard != nil }
		for _, c := range e.shuffledColonies(g, civID, saltShipProduction, hasYard) {
			yard := c.Shipyard
			if !c.Population.IsMaximized() && c.GrowthRate() == 0 {
				loc := c.Location
				g.PostSitRep(civID, galaxy.SitRepGrowthByHealth, &loc, "%s is not growing: poor health", c.Name)
			}
			for i, slot := range yard.Slots {
				if !slot.IsActive || slot.OnHold {
					continue
				}
				output := yard.GetBuildOutput(c, i)
				for output > 0 && (slot.HasProject() || len(yard.Queue) > 0) {
					yard.ProcessQueue()
					p := slot.Project
					if p == nil {
						break
					}
					pool := m.Resources.Snapshot()
					m.Resources.Debit(p.Advance(&output, &pool))
					if !p.IsCompleted() {
						break
					}
					if err := g.FinishProject(p); err != nil {
						errs = append(errs, fmt.Errorf("%s at %s: %w", p.Name, c.Name, err))
					}
					slot.Project = nil
				}
			}
		}
		return errors.Join(errs...)
	})
}

// doTrade reassigns trade route capacity and books trade income.
func (e *GameEngine) doTrade(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	return parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		e.tradeCiv(g, m)
		return nil
	})
}

func (e *GameEngine) tradeCiv(g *galaxy.Game, m *galaxy.CivilizationManager) {
	civID := m.Civ.ID
	eco := e.tun.Economy
	mods := eco.TradeMultipliers
	popReq := e.tun.TradeRoutePopReq(m.Civ.Key)
	turnIncome := 0

	for _, c := range g.ColoniesOf(civID) {
		for _, r := range c.TradeRoutes {
			if !r.IsValidTargetColony(g.Relations, r.Target()) {
				r.SetTargetColony(nil, mods)
			}
			if t := r.Target(); t != nil {
				r.Credits = eco.TradeCreditsFactor * int(mods.Source*float64(c.NetIndustry()+1)+mods.Target*float64(t.NetIndustry()+1))
			}
		}

		allowed := c.Population.Current()/popReq + c.ActiveBonus(galaxy.BonusTradeRoutes)
		if allowed < 0 {
			allowed = 0
		}
		for len(c.TradeRoutes) < allowed {
			c.TradeRoutes = append(c.TradeRoutes, galaxy.NewTradeRoute(c))
		}
		if len(c.TradeRoutes) > allowed {
			sort.SliceStable(c.TradeRoutes, func(i, j int) bool {
				return c.TradeRoutes[i].Credits > c.TradeRoutes[j].Credits
			})
			for _, r := range c.TradeRoutes[allowed:] {
				r.SetTargetColony(nil, mods)
			}
			c.TradeRoutes = c.TradeRoutes[:allowed]
		}

		for _, r := range c.TradeRoutes {
			c.CreditsFromTrade.AdjustCurrent(r.Credits)
			if !r.IsAssigned() {
				loc := c.Location
				g.PostSitRep(civID, galaxy.SitRepUnassignedTrade, &loc, "A trade route from %s is unassigned", c.Name)
			}
		}
		pct := c.ActiveBonus(galaxy.BonusPercentTradeIncome) + c.ActiveBonus(galaxy.BonusPercentCredits)
		c.CreditsFromTrade.AdjustCurrent(c.CreditsFromTrade.Current() * pct / 100)

		income := c.CreditsFromTrade.Current()
		m.Credits.AdjustCurrent(income)
		turnIncome += income
		c.CreditsFromTrade.SetCurrent(0)
		c.CreditsFromTrade.UpdateAndReset()
	}

	if pct := g.GlobalBonuses(civID, galaxy.BonusPercentTotalCredits); pct != 0 {
		m.Credits.AdjustCurrent(turnIncome * pct / 100)
	}
}

// doMorale applies morale bonuses; colonies without any change drift
// toward the founding civ's base morale.
func (e *GameEngine) doMorale(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	return parallelForEach(ctx, e.workers(), g.Managers(), func(m *galaxy.CivilizationManager) error {
		civID := m.Civ.ID
		global := g.GlobalBonuses(civID, galaxy.BonusMoraleEmpireWide)
		for _, c := range g.ColoniesOf(civID) {
			c.Morale.AdjustCurrent(global)
			c.Morale.AdjustCurrent(c.ActiveBonus(galaxy.BonusMorale))
			if c.Morale.CurrentChange() == 0 {
				founder := g.Civ(c.OriginalOwnerID)
				if founder == nil {
					founder = m.Civ
				}
				c.Morale.AdjustCurrent(moraleDrift(c.Morale.Current(), founder.BaseMoraleLevel, founder.MoraleDriftRate))
			}
			c.Morale.UpdateAndReset()
		}
		return nil
	})
}

// moraleDrift moves cur toward base by at most rate without overshooting.
func moraleDrift(cur, base, rate int) int {
	switch {
	case cur < base:
		return mathx.MinInt(rate, base-cur)
	case cur > base:
		return -mathx.MinInt(rate, cur-base)
	}
	return 0
}
