package ai

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
)

// shipCounts tallies ships by type, including builds already queued.
type shipCounts map[galaxy.ShipType]int

func (p *Players) countShips(g *galaxy.Game, civID int) shipCounts {
	n := shipCounts{}
	for _, s := range galaxy.FindOwned[*galaxy.Ship](g.Universe, civID) {
		n[s.ShipType]++
	}
	for _, c := range g.ColoniesOf(civID) {
		if c.Shipyard == nil {
			continue
		}
		for _, slot := range c.Shipyard.Slots {
			if slot.Project != nil {
				if d := g.Designs.Ships[slot.Project.DesignKey]; d != nil {
					n[d.ShipType]++
				}
			}
		}
		for _, item := range c.Shipyard.Queue {
			if d := g.Designs.Ships[item.Project.DesignKey]; d != nil {
				n[d.ShipType] += item.Count
			}
		}
	}
	return n
}

// DoColonies keeps every colony busy: idle shipyards of empires get the
// next ship the civ is short of, idle colonies the cheapest building they
// lack.
func (p *Players) DoColonies(g *galaxy.Game, civ *galaxy.Civilization) error {
	var errs []error
	counts := p.countShips(g, civ.ID)
	for _, c := range g.ColoniesOf(civ.ID) {
		if civ.IsEmpire() && c.Shipyard != nil && shipyardIdle(c.Shipyard) {
			if err := p.queueShip(g, civ, c, counts); err != nil {
				errs = append(errs, err)
			}
		}
		if !c.HasBuildWork() {
			if d := p.cheapestBuilding(g, c); d != nil {
				c.Enqueue(galaxy.NewBuildingProject(d, c), 1)
				p.log.Debug("building queued", zap.String("civ", civ.Key), zap.String("colony", c.Name), zap.String("building", d.Key))
			}
		}
	}
	return errors.Join(errs...)
}

func shipyardIdle(y *galaxy.Shipyard) bool {
	if len(y.Queue) > 0 {
		return false
	}
	for _, s := range y.Slots {
		if s.HasProject() {
			return false
		}
	}
	return true
}

func (p *Players) queueShip(g *galaxy.Game, civ *galaxy.Civilization, c *galaxy.Colony, counts shipCounts) error {
	cfg := p.tun.AI.Colony
	key := cfg.CombatShip
	switch {
	case counts[galaxy.ShipColony] < cfg.MaxColonizers:
		key = cfg.ColonyShip
	case counts[galaxy.ShipScout] == 0:
		key = cfg.ScoutShip
	case counts[galaxy.ShipConstruction] == 0 && p.tun.AI.Regions[civ.Key] != "":
		key = cfg.ConstructionShip
	}
	d := g.Designs.Ships[key]
	if d == nil {
		return fmt.Errorf("ai: unknown ship design %q", key)
	}
	proj := galaxy.NewShipProject(d, c)
	if g.IsBuildLimitReached(proj) {
		return nil
	}
	c.Shipyard.Enqueue(proj, 1)
	counts[d.ShipType]++
	return nil
}

// cheapestBuilding is the lowest-cost building the colony does not have
// yet and the civ may still build. Ties go to the design key.
func (p *Players) cheapestBuilding(g *galaxy.Game, c *galaxy.Colony) *galaxy.BuildingDesign {
	have := map[string]bool{}
	for _, b := range c.Buildings {
		if b.Design != nil {
			have[b.Design.Key] = true
		}
	}
	var ds []*galaxy.BuildingDesign
	for _, d := range g.Designs.Buildings {
		if have[d.Key] {
			continue
		}
		if d.BuildLimit > 0 && g.OwnedCount(c.OwnerID, galaxy.BuildBuilding, d.Key) >= d.BuildLimit {
			continue
		}
		ds = append(ds, d)
	}
	if len(ds) == 0 {
		return nil
	}
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].BuildCost != ds[j].BuildCost {
			return ds[i].BuildCost < ds[j].BuildCost
		}
		return ds[i].Key < ds[j].Key
	})
	return ds[0]
}
