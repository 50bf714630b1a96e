// Package combat finds where fighting happens each turn and, for hosts
// without a human at the table, resolves it.
package combat

import (
	"sort"

	"github.com/google/uuid"

	"supremacy.ai/internal/sim/galaxy"
)

// Assets are one civ's orbitals in a sector.
type Assets struct {
	OwnerID  int
	Location galaxy.MapLocation
	Fleets   []*galaxy.Fleet
	Station  *galaxy.Station
}

func (a *Assets) Ships() []*galaxy.Ship {
	var out []*galaxy.Ship
	for _, f := range a.Fleets {
		out = append(out, f.Ships...)
	}
	return out
}

func (a *Assets) HasCombatShips() bool {
	for _, f := range a.Fleets {
		if f.IsCombatant() {
			return true
		}
	}
	return false
}

func (a *Assets) IsEmpty() bool { return a.Station == nil && len(a.Ships()) == 0 }

// Arena is a sector where at least two owners will fight.
type Arena struct {
	ID       string
	Location galaxy.MapLocation
	Assets   []*Assets
}

func (a *Arena) Owners() []int {
	out := make([]int, 0, len(a.Assets))
	for _, as := range a.Assets {
		out = append(out, as.OwnerID)
	}
	return out
}

// HasHuman reports whether any participant is human controlled.
func (a *Arena) HasHuman(g *galaxy.Game) bool {
	for _, id := range a.Owners() {
		if c := g.Civ(id); c != nil && c.IsHuman {
			return true
		}
	}
	return false
}

// InvasionArena is an assault on one colony by one civ.
type InvasionArena struct {
	ID        string
	Location  galaxy.MapLocation
	Colony    *galaxy.Colony
	InvaderID int
	Fleets    []*galaxy.Fleet
}

func (ia *InvasionArena) IsInvaderHuman(g *galaxy.Game) bool {
	c := g.Civ(ia.InvaderID)
	return c != nil && c.IsHuman
}

// AssetsAt groups the orbitals at l by owner, lowest owner first.
func AssetsAt(g *galaxy.Game, l galaxy.MapLocation) []*Assets {
	byOwner := map[int]*Assets{}
	get := func(owner int) *Assets {
		a := byOwner[owner]
		if a == nil {
			a = &Assets{OwnerID: owner, Location: l}
			byOwner[owner] = a
		}
		return a
	}
	for _, f := range galaxy.FindAt[*galaxy.Fleet](g.Universe, l) {
		if !f.HasShips() || f.IsInTow {
			continue
		}
		a := get(f.InferredOwner())
		a.Fleets = append(a.Fleets, f)
	}
	if st := g.StationAt(l); st != nil && st.IsOwned() {
		get(st.OwnerID).Station = st
	}
	out := make([]*Assets, 0, len(byOwner))
	for _, a := range byOwner {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out
}

// Hostile reports whether two owners will trade fire.
func Hostile(rel galaxy.Relations, a, b int) bool {
	if a == b || rel == nil {
		return false
	}
	return rel.WillEngage(a, b) && !rel.WillFightAlongside(a, b)
}

func hasHostilePair(rel galaxy.Relations, assets []*Assets) bool {
	for i, a := range assets {
		for _, b := range assets[i+1:] {
			if Hostile(rel, a.OwnerID, b.OwnerID) {
				return true
			}
		}
	}
	return false
}

// FindArenas scans fleets in id order and returns the combats and
// invasions for this turn. Each sector yields at most one of each.
func FindArenas(g *galaxy.Game) ([]*Arena, []*InvasionArena) {
	var combats []*Arena
	var invasions []*InvasionArena
	seenCombat := map[galaxy.MapLocation]bool{}
	seenInvasion := map[galaxy.MapLocation]bool{}

	for _, f := range galaxy.Find[*galaxy.Fleet](g.Universe) {
		if !f.HasShips() {
			continue
		}
		l := f.Location
		if !seenCombat[l] {
			seenCombat[l] = true
			assets := AssetsAt(g, l)
			if len(assets) > 1 && hasHostilePair(g.Relations, assets) {
				combats = append(combats, &Arena{ID: uuid.NewString(), Location: l, Assets: assets})
			}
		}
		if seenInvasion[l] {
			continue
		}
		if _, ok := f.Order.(*galaxy.AssaultSystemOrder); !ok {
			continue
		}
		c := g.ColonyAt(l)
		if c == nil {
			continue
		}
		seenInvasion[l] = true
		invader := f.InferredOwner()
		ia := &InvasionArena{ID: uuid.NewString(), Location: l, Colony: c, InvaderID: invader}
		for _, other := range galaxy.FindAt[*galaxy.Fleet](g.Universe, l) {
			if _, ok := other.Order.(*galaxy.AssaultSystemOrder); ok && other.InferredOwner() == invader && other.HasShips() {
				ia.Fleets = append(ia.Fleets, other)
			}
		}
		invasions = append(invasions, ia)
	}
	return combats, invasions
}
