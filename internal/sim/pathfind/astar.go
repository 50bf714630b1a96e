// Package pathfind routes fleets across the sector grid.
package pathfind

import (
	"container/heap"

	"supremacy.ai/internal/sim/galaxy"
)

// AStar is a galaxy.Pathfinder over the 8-connected sector grid with unit
// step cost. Neighbor order is fixed so equal-cost paths are stable.
type AStar struct {
	// MaxExpanded bounds the search per leg; 0 means the whole map.
	MaxExpanded int
}

var _ galaxy.Pathfinder = (*AStar)(nil)

var dirs = []galaxy.MapLocation{
	{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0},
	{X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

type node struct {
	loc   galaxy.MapLocation
	g, f  int
	seq   int
	index int
}

type openSet []*node

func (h openSet) Len() int { return len(h) }
func (h openSet) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openSet) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *openSet) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// FindPath chains legs through every destination in order. An unreachable
// leg yields an empty route.
func (a *AStar) FindPath(g *galaxy.Game, f *galaxy.Fleet, opts galaxy.PathOptions, destinations ...galaxy.MapLocation) galaxy.Route {
	if g == nil || f == nil || len(destinations) == 0 {
		return galaxy.Route{}
	}
	pass := a.passable(g, f, opts)
	var steps []galaxy.MapLocation
	from := f.Location
	for _, dest := range destinations {
		if dest == from {
			continue
		}
		leg, ok := a.leg(g.Map(), from, dest, pass)
		if !ok {
			return galaxy.Route{}
		}
		steps = append(steps, leg...)
		from = dest
	}
	if len(steps) == 0 {
		return galaxy.Route{}
	}
	return galaxy.Route{Waypoints: append([]galaxy.MapLocation(nil), destinations...), Steps: steps}
}

func (a *AStar) passable(g *galaxy.Game, f *galaxy.Fleet, opts galaxy.PathOptions) func(galaxy.MapLocation) bool {
	avoid := make(map[galaxy.MapLocation]bool, len(opts.Avoid))
	for _, l := range opts.Avoid {
		avoid[l] = true
	}
	owner := f.InferredOwner()
	fleetRange := f.Range()
	var md *galaxy.MapData
	if m := g.Manager(owner); m != nil {
		md = m.MapData
	}
	return func(l galaxy.MapLocation) bool {
		if avoid[l] {
			return false
		}
		if opts.AvoidDeathStars {
			if s := g.SystemAt(l); s != nil && s.StarType.IsDeathStar() {
				return false
			}
		}
		if opts.SafeTerritory && !g.IsTravelAllowed(owner, l) {
			return false
		}
		if opts.WithinFuelRange && md != nil && md.GetFuelRange(l) > fleetRange {
			return false
		}
		return true
	}
}

// leg returns the steps from start (exclusive) to goal (inclusive). The
// goal itself is always enterable.
func (a *AStar) leg(m galaxy.SectorMap, start, goal galaxy.MapLocation, pass func(galaxy.MapLocation) bool) ([]galaxy.MapLocation, bool) {
	limit := a.MaxExpanded
	if limit <= 0 {
		limit = m.Width * m.Height
	}
	open := &openSet{}
	best := map[galaxy.MapLocation]int{start: 0}
	parent := map[galaxy.MapLocation]galaxy.MapLocation{}
	closed := map[galaxy.MapLocation]bool{}
	seq := 0
	heap.Push(open, &node{loc: start, f: start.Distance(goal)})

	for expanded := 0; open.Len() > 0 && expanded < limit; expanded++ {
		cur := heap.Pop(open).(*node)
		if closed[cur.loc] {
			continue
		}
		if cur.loc == goal {
			return unwind(parent, start, goal), true
		}
		closed[cur.loc] = true
		for _, d := range dirs {
			next := galaxy.MapLocation{X: cur.loc.X + d.X, Y: cur.loc.Y + d.Y}
			if !m.Contains(next) || closed[next] {
				continue
			}
			if next != goal && !pass(next) {
				continue
			}
			cost := cur.g + 1
			if prev, ok := best[next]; ok && prev <= cost {
				continue
			}
			best[next] = cost
			parent[next] = cur.loc
			seq++
			heap.Push(open, &node{loc: next, g: cost, f: cost + next.Distance(goal), seq: seq})
		}
	}
	return nil, false
}

func unwind(parent map[galaxy.MapLocation]galaxy.MapLocation, start, goal galaxy.MapLocation) []galaxy.MapLocation {
	var rev []galaxy.MapLocation
	for l := goal; l != start; l = parent[l] {
		rev = append(rev, l)
	}
	out := make([]galaxy.MapLocation, len(rev))
	for i, l := range rev {
		out[len(rev)-1-i] = l
	}
	return out
}
