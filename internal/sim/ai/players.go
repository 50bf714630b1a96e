// Package ai drives computer-controlled civilizations between turns:
// diplomacy, colony production, strategic targeting and fleet orders.
package ai

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/pathfind"
	"supremacy.ai/internal/sim/tuning"
)

var ErrNoManager = errors.New("ai: civilization has no manager")

// Players runs every AI stage for one civ at a time. A Players value is
// safe to use for several civs in parallel as long as each civ is handled
// by a single goroutine.
type Players struct {
	tun tuning.Tuning
	pf  galaxy.Pathfinder
	log *zap.Logger
}

func NewPlayers(tun tuning.Tuning, pf galaxy.Pathfinder, log *zap.Logger) *Players {
	if log == nil {
		log = zap.NewNop()
	}
	if pf == nil {
		pf = &pathfind.AStar{}
	}
	return &Players{tun: tun, pf: pf, log: log}
}

// Sighting is what Intel records about one fleet.
type Sighting struct {
	FleetID     int
	Owner       int
	Combatant   bool
	Constructor bool
}

// Intel is a read-only picture of every fleet, taken before the civs run
// in parallel. AI code consults it instead of other civs' live fleets,
// which their own AI may be rearranging.
type Intel struct {
	Turn   int
	fleets map[galaxy.MapLocation][]Sighting
}

func (p *Players) Snapshot(g *galaxy.Game) *Intel {
	in := &Intel{Turn: g.TurnNumber, fleets: map[galaxy.MapLocation][]Sighting{}}
	for _, f := range galaxy.Find[*galaxy.Fleet](g.Universe) {
		if !f.HasShips() {
			continue
		}
		in.fleets[f.Location] = append(in.fleets[f.Location], Sighting{
			FleetID:     f.ID,
			Owner:       f.InferredOwner(),
			Combatant:   f.IsCombatant(),
			Constructor: f.HasShipType(galaxy.ShipConstruction),
		})
	}
	return in
}

// At lists fleets seen at l, in fleet id order.
func (in *Intel) At(l galaxy.MapLocation) []Sighting {
	if in == nil {
		return nil
	}
	return in.fleets[l]
}

// DoTurn runs one civ's AI: borders, diplomacy, then production, target
// selection and unit orders for civs that are not members of another.
func (p *Players) DoTurn(g *galaxy.Game, civ *galaxy.Civilization, intel *Intel) error {
	m := g.Manager(civ.ID)
	if m == nil {
		return fmt.Errorf("%w: %d", ErrNoManager, civ.ID)
	}
	if intel == nil {
		intel = p.Snapshot(g)
	}
	m.DesiredBorders = p.CreateDesiredBorders(g, civ)

	if reg, ok := g.Relations.(*diplomacy.Registry); ok {
		p.DoDiplomacy(g, reg, civ)
	}
	if !isIndependent(g, civ) {
		return nil
	}

	var errs []error
	if err := p.DoColonies(g, civ); err != nil {
		errs = append(errs, err)
	}
	p.ChooseTarget(g, civ)
	if civ.IsEmpire() {
		p.DoUnits(g, civ, intel)
	}
	return errors.Join(errs...)
}

func isIndependent(g *galaxy.Game, civ *galaxy.Civilization) bool {
	if g.Relations == nil {
		return true
	}
	for _, other := range g.Civilizations {
		if other.ID != civ.ID && g.Relations.Status(civ.ID, other.ID) == galaxy.StatusOwnerIsMember {
			return false
		}
	}
	return true
}

// CreateDesiredBorders lists the sectors the civ claims within two steps
// of any of its colonies, row-major.
func (p *Players) CreateDesiredBorders(g *galaxy.Game, civ *galaxy.Civilization) []galaxy.MapLocation {
	seen := map[galaxy.MapLocation]bool{}
	var out []galaxy.MapLocation
	for _, c := range g.ColoniesOf(civ.ID) {
		for _, l := range g.Map().Within(c.Location, 2) {
			if seen[l] {
				continue
			}
			if owner, ok := g.SectorOwner(l); ok && owner == civ.ID {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// ChooseTarget points the civ at the weakest contacted civ it is at war
// with: fewest colonies, then lowest id. Without a war the target is nil.
func (p *Players) ChooseTarget(g *galaxy.Game, civ *galaxy.Civilization) {
	prev := civ.TargetCivilization
	civ.TargetCivilization = nil
	rel := g.Relations
	if rel == nil {
		return
	}
	best, bestColonies := (*galaxy.Civilization)(nil), 0
	for _, other := range g.Civilizations {
		if other.ID == civ.ID || !rel.IsContactMade(civ.ID, other.ID) || !rel.AreAtWar(civ.ID, other.ID) {
			continue
		}
		n := len(g.ColoniesOf(other.ID))
		if best == nil || n < bestColonies {
			best, bestColonies = other, n
		}
	}
	if best != nil && best != prev {
		p.log.Debug("war target chosen", zap.String("civ", civ.Key), zap.String("target", best.Key))
	}
	civ.TargetCivilization = best
}
