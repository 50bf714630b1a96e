package ai

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/tuning"
)

type candidate[T any] struct {
	item  T
	id    int
	score float64
}

// pickBest sorts ascending by score and, on equal score, by descending id,
// then takes the last entry: the highest score wins and ties go to the
// lowest id.
func pickBest[T any](cs []candidate[T]) (T, bool) {
	if len(cs) == 0 {
		var zero T
		return zero, false
	}
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score < cs[j].score
		}
		return cs[i].id > cs[j].id
	})
	return cs[len(cs)-1].item, true
}

// distanceModifier discounts targets far from home.
func distanceModifier(home, l galaxy.MapLocation) float64 {
	return 1 / float64(home.Distance(l)+1)
}

func sectorID(m galaxy.SectorMap, l galaxy.MapLocation) int { return l.Y*m.Width + l.X }

// planner holds what every decision procedure needs about the civ whose
// turn it is.
type planner struct {
	g     *galaxy.Game
	civ   *galaxy.Civilization
	m     *galaxy.CivilizationManager
	rel   galaxy.Relations
	home  galaxy.MapLocation
	tun   tuning.AI
	intel *Intel
	pf    galaxy.Pathfinder
	log   *zap.Logger

	// hostileKey names the faction that also avoids other civs' constructors.
	hostileKey string
}

func (p *Players) planner(g *galaxy.Game, civ *galaxy.Civilization, intel *Intel) *planner {
	return &planner{
		g:     g,
		civ:   civ,
		m:     g.Manager(civ.ID),
		rel:   g.Relations,
		home:  g.HomeLocation(civ.ID),
		tun:   p.tun.AI,
		intel: intel,
		pf:    p.pf,
		log:   p.log.With(zap.String("civ", civ.Key)),

		hostileKey: p.tun.Diplomacy.HostileFactionKey,
	}
}

func (pl *planner) potentialEnemy(other int) bool {
	return pl.rel != nil && other != pl.civ.ID && other != galaxy.NoOwner && pl.rel.ArePotentialEnemies(pl.civ.ID, other)
}

func (pl *planner) atWar(other int) bool {
	return pl.rel != nil && pl.rel.AreAtWar(pl.civ.ID, other)
}

func (pl *planner) inFuelRange(f *galaxy.Fleet, l galaxy.MapLocation) bool {
	return pl.m.MapData.GetFuelRange(l) <= f.Range()
}

// GetColonizeValue rates a system for settlement.
func (pl *planner) GetColonizeValue(sys *galaxy.StarSystem) float64 {
	v := float64(sys.MaxPopulation(pl.civ.Race)) * sys.GrowthRate(pl.civ.Race)
	if sys.HasDilithiumBonus {
		v += float64(pl.tun.Colonize.DilithiumBonus)
	}
	if sys.HasRawMaterialBonus {
		v += float64(pl.tun.Colonize.RawMaterialBonus)
	}
	return v
}

// SystemNotAlreadyTaken reports a system that can still be settled by the civ.
func (pl *planner) SystemNotAlreadyTaken(sys *galaxy.StarSystem) bool {
	if sys == nil || sys.HasColony() {
		return false
	}
	return sys.OwnerID == galaxy.NoOwner || sys.OwnerID == pl.civ.ID
}

// claimedTargets collects the destinations of the civ's other fleets of one
// kind, plus the sectors where one of them is already at work.
func (pl *planner) claimedTargets(except *galaxy.Fleet, sibling, working func(*galaxy.Fleet) bool) map[galaxy.MapLocation]bool {
	out := map[galaxy.MapLocation]bool{}
	for _, f := range pl.g.FleetsOf(pl.civ.ID) {
		if f == except || !sibling(f) {
			continue
		}
		if l, ok := f.Route.LastWaypoint(); ok {
			out[l] = true
		}
		if working(f) {
			out[f.Location] = true
		}
	}
	return out
}

func onlyType(t galaxy.ShipType) func(*galaxy.Fleet) bool {
	return func(f *galaxy.Fleet) bool { return f.IsOnlyType(t) }
}

func hasOrder[T galaxy.Order](f *galaxy.Fleet) bool {
	_, ok := f.Order.(T)
	return ok
}

func (pl *planner) colonizeTargets(except *galaxy.Fleet) map[galaxy.MapLocation]bool {
	return pl.claimedTargets(except, func(f *galaxy.Fleet) bool { return f.HasShipType(galaxy.ShipColony) }, hasOrder[*galaxy.ColonizeOrder])
}

// reachable reports a known sector f can reach on its own fuel and may enter.
func (pl *planner) reachable(f *galaxy.Fleet, l galaxy.MapLocation) bool {
	md := pl.m.MapData
	return md.IsExplored(l) && md.IsScanned(l) && pl.inFuelRange(f, l) && pl.g.IsTravelAllowed(pl.civ.ID, l)
}

func (pl *planner) contested(l galaxy.MapLocation) bool {
	for _, s := range pl.intel.At(l) {
		if pl.potentialEnemy(s.Owner) {
			return true
		}
	}
	return false
}

// GetBestSystemToColonize picks the most valuable explored, habitable and
// uncontested system the fleet can reach. Distance does not matter.
func (pl *planner) GetBestSystemToColonize(f *galaxy.Fleet) (*galaxy.StarSystem, bool) {
	taken := pl.colonizeTargets(f)
	md := pl.m.MapData
	var cs []candidate[*galaxy.StarSystem]
	for _, sys := range galaxy.Find[*galaxy.StarSystem](pl.g.Universe) {
		l := sys.Location
		switch {
		case !md.IsExplored(l) || !md.IsScanned(l):
			continue
		case !pl.SystemNotAlreadyTaken(sys) || !sys.IsHabitable(pl.civ.Race):
			continue
		case sys.StarType == galaxy.StarRadioPulsar || sys.StarType == galaxy.StarNeutronStar:
			continue
		case !pl.inFuelRange(f, l) || taken[l] || pl.contested(l):
			continue
		}
		v := pl.GetColonizeValue(sys)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[*galaxy.StarSystem]{item: sys, id: sys.ID, score: v})
	}
	return pickBest(cs)
}

// stationRegion returns the sectors a civ searches for station sites.
// Civs without a region never build stations.
func (pl *planner) stationRegion() []galaxy.MapLocation {
	mp := pl.g.Map()
	var out []galaxy.MapLocation
	switch pl.tun.Regions[pl.civ.Key] {
	case tuning.RegionQuadrant:
		c := mp.Center()
		x0, x1 := minMax(pl.home.X, c.X)
		y0, y1 := minMax(pl.home.Y, c.Y)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				out = append(out, galaxy.MapLocation{X: x, Y: y})
			}
		}
	case tuning.RegionRing:
		diag := math.Hypot(float64(mp.Width), float64(mp.Height))
		inner, outer := diag/4/2, diag/3
		mp.Each(func(l galaxy.MapLocation) {
			d := pl.home.EuclidDistance(l)
			if d <= inner || d >= outer {
				return
			}
			if _, owned := pl.g.SectorOwner(l); owned {
				return
			}
			out = append(out, l)
		})
	}
	return out
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// GetStationValue rates l as a station site for fleet f. Excluded sites
// score the configured negative weight.
func (pl *planner) GetStationValue(f *galaxy.Fleet, l galaxy.MapLocation) int {
	w := pl.tun.Station
	g := pl.g
	if g.StationAt(l) != nil {
		return w.Excluded
	}
	for _, other := range g.FleetsOf(pl.civ.ID) {
		if other == f || other.Location != l {
			continue
		}
		if _, ok := other.Order.(*galaxy.BuildStationOrder); ok || other.UnitAIType == galaxy.UnitAIBuilding {
			return w.Excluded
		}
	}
	sys := g.SystemAt(l)
	if sys != nil {
		switch sys.StarType {
		case galaxy.StarBlackHole, galaxy.StarNeutronStar, galaxy.StarRadioPulsar, galaxy.StarXRayPulsar:
			return w.Excluded
		}
	}
	if owner, ok := g.SectorOwner(l); ok && owner != pl.civ.ID {
		if c := g.Civ(owner); c != nil && c.IsEmpire() {
			return w.Excluded
		}
	}
	if pl.civ.Key == pl.hostileKey {
		for _, s := range pl.intel.At(l) {
			if s.Owner != pl.civ.ID && s.Constructor {
				return w.Excluded
			}
		}
	}

	v := w.Base
	if !pl.inFuelRange(f, l) {
		v += w.OutOfFuelRange
	}
	if sys != nil && !sys.IsOwned() {
		v += w.UnownedSystem
		if sys.StarType.IsColored() || sys.StarType == galaxy.StarWormhole {
			v += w.InterestingStar
		}
	}
	v += w.PerDistanceFromHome * pl.home.Distance(l)
	for _, other := range g.FleetsOf(pl.civ.ID) {
		if other != f && other.Location == l && other.HasShips() && other.IsStranded() {
			v += w.StrandedFleet
			break
		}
	}
	return v
}

// GetBestSectorForStation picks the best station site in the civ's region.
func (pl *planner) GetBestSectorForStation(f *galaxy.Fleet) (galaxy.MapLocation, bool) {
	mp := pl.g.Map()
	var cs []candidate[galaxy.MapLocation]
	for _, l := range pl.stationRegion() {
		v := pl.GetStationValue(f, l)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[galaxy.MapLocation]{item: l, id: sectorID(mp, l), score: float64(v)})
	}
	return pickBest(cs)
}

// GetExploreValue rates a sector for a scout.
func (pl *planner) GetExploreValue(l galaxy.MapLocation) int {
	w := pl.tun.Explore
	md := pl.m.MapData
	v := 0
	if !md.IsExplored(l) {
		v += w.Unexplored
		if md.IsScanned(l) && pl.g.SystemAt(l) != nil {
			v += w.HasSystem
		}
	}
	if c := pl.g.ColonyAt(l); c != nil && md.IsScanned(l) && c.IsOwned() && c.OwnerID != pl.civ.ID {
		if pl.rel != nil && !pl.rel.IsContactMade(pl.civ.ID, c.OwnerID) {
			v += w.FirstContact
		}
	}
	return v
}

// GetBestSectorToExplore ranks reachable sectors by value - 1/(d+1).
func (pl *planner) GetBestSectorToExplore(f *galaxy.Fleet) (galaxy.MapLocation, bool) {
	mp := pl.g.Map()
	var cs []candidate[galaxy.MapLocation]
	mp.Each(func(l galaxy.MapLocation) {
		if l == f.Location || !pl.inFuelRange(f, l) {
			return
		}
		v := pl.GetExploreValue(l)
		if v <= 0 {
			return
		}
		score := float64(v) - 1/float64(f.Location.Distance(l)+1)
		cs = append(cs, candidate[galaxy.MapLocation]{item: l, id: sectorID(mp, l), score: score})
	})
	return pickBest(cs)
}

// GetMedicalValue rates a colony for a medical fleet; 0 means no interest.
func (pl *planner) GetMedicalValue(c *galaxy.Colony) int {
	w := pl.tun.Medical
	var v int
	switch {
	case c.OwnerID == pl.civ.ID:
		v = w.Own
	case pl.rel == nil || !pl.rel.IsContactMade(pl.civ.ID, c.OwnerID):
		return 0
	case pl.rel.AreAllied(pl.civ.ID, c.OwnerID):
		v = w.Allied
	case pl.rel.AreFriendly(pl.civ.ID, c.OwnerID):
		v = w.Friendly
	case pl.rel.AreNeutral(pl.civ.ID, c.OwnerID):
		v = w.Neutral
	default:
		return 0
	}
	return v + 100 - c.Health.Current()
}

// GetBestColonyForMedical picks the colony most in need of fleet f that no
// other medical fleet is treating or headed for.
func (pl *planner) GetBestColonyForMedical(f *galaxy.Fleet) (*galaxy.Colony, bool) {
	taken := pl.claimedTargets(f, onlyType(galaxy.ShipMedical), hasOrder[*galaxy.MedicalOrder])
	var cs []candidate[*galaxy.Colony]
	for _, c := range galaxy.Find[*galaxy.Colony](pl.g.Universe) {
		if !c.IsOwned() || taken[c.Location] || !pl.reachable(f, c.Location) {
			continue
		}
		v := pl.GetMedicalValue(c)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[*galaxy.Colony]{item: c, id: c.ID, score: float64(v) * distanceModifier(pl.home, c.Location)})
	}
	return pickBest(cs)
}

// GetDiplomacyValue rates another civ's home colony for an envoy.
func (pl *planner) GetDiplomacyValue(other *galaxy.Civilization) int {
	w := pl.tun.Diplomatic
	id := other.ID
	if pl.rel.AreAtWar(pl.civ.ID, id) {
		return 0
	}
	v := 0
	fewest := len(pl.civ.Traits)
	if n := len(other.Traits); n < fewest {
		fewest = n
	}
	if fewest > 0 {
		v = pl.civ.CommonTraits(other) * w.SimilarTraits / fewest
	}
	switch {
	case pl.rel.AreAllied(pl.civ.ID, id) || pl.rel.AreFriendly(pl.civ.ID, id):
		v += w.FriendlyOrAllied
	case pl.rel.AreNeutral(pl.civ.ID, id):
		v += w.Neutral
	}
	return v
}

func (pl *planner) GetBestColonyForDiplomacy(f *galaxy.Fleet) (*galaxy.Colony, bool) {
	if pl.rel == nil {
		return nil, false
	}
	taken := pl.claimedTargets(f, onlyType(galaxy.ShipDiplomatic), hasOrder[*galaxy.InfluenceOrder])
	var cs []candidate[*galaxy.Colony]
	for _, other := range pl.g.Civilizations {
		if other.ID == pl.civ.ID || !pl.rel.IsContactMade(pl.civ.ID, other.ID) || pl.rel.IsMember(pl.civ.ID, other.ID) {
			continue
		}
		home := pl.g.HomeColony(other.ID)
		if home == nil || home.OwnerID != other.ID || taken[home.Location] || !pl.reachable(f, home.Location) {
			continue
		}
		v := pl.GetDiplomacyValue(other)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[*galaxy.Colony]{item: home, id: home.ID, score: float64(v) * distanceModifier(pl.home, home.Location)})
	}
	return pickBest(cs)
}

// GetSpyValue rates a foreign colony for a spy ship.
func (pl *planner) GetSpyValue(c *galaxy.Colony) int {
	w := pl.tun.Spy
	owner := c.OwnerID
	if !pl.rel.IsContactMade(pl.civ.ID, owner) {
		return 0
	}
	if home := pl.g.HomeColony(owner); home != nil && home.ID == c.ID {
		return w.HomeSystem
	}
	switch {
	case pl.rel.AreAtWar(pl.civ.ID, owner):
		return w.War
	case pl.rel.AreNeutral(pl.civ.ID, owner):
		return w.Neutral
	case pl.rel.AreFriendly(pl.civ.ID, owner):
		return w.Friendly
	}
	return 0
}

// GetBestColonyForSpying only considers empires the civ has no spy network
// with yet.
func (pl *planner) GetBestColonyForSpying(f *galaxy.Fleet) (*galaxy.Colony, bool) {
	if pl.rel == nil {
		return nil, false
	}
	taken := pl.claimedTargets(f, onlyType(galaxy.ShipSpy), hasOrder[*galaxy.SpyOnOrder])
	var cs []candidate[*galaxy.Colony]
	for _, c := range galaxy.Find[*galaxy.Colony](pl.g.Universe) {
		if !c.IsOwned() || c.OwnerID == pl.civ.ID || pl.rel.HasSpyNetwork(pl.civ.ID, c.OwnerID) {
			continue
		}
		if owner := pl.g.Civ(c.OwnerID); owner == nil || !owner.IsEmpire() || taken[c.Location] || !pl.reachable(f, c.Location) {
			continue
		}
		v := pl.GetSpyValue(c)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[*galaxy.Colony]{item: c, id: c.ID, score: float64(v) * distanceModifier(pl.home, c.Location)})
	}
	return pickBest(cs)
}

// GetScienceValue rates a star for a science ship.
func (pl *planner) GetScienceValue(sys *galaxy.StarSystem) int {
	w := pl.tun.Science
	if sys.IsOwned() && sys.OwnerID != pl.civ.ID && pl.atWar(sys.OwnerID) {
		return 0
	}
	switch st := sys.StarType; {
	case st == galaxy.StarNebula:
		return w.Nebula
	case st.IsColored():
		return w.Colored
	case st == galaxy.StarXRayPulsar || st == galaxy.StarRadioPulsar || st == galaxy.StarQuasar:
		return w.Pulsar
	case st.IsDeathStar():
		return w.DeathStar
	case st == galaxy.StarWormhole:
		return w.Wormhole
	}
	return 0
}

// GetBestSystemForScience skips any system another science fleet is
// studying or headed for.
func (pl *planner) GetBestSystemForScience(f *galaxy.Fleet) (*galaxy.StarSystem, bool) {
	taken := pl.claimedTargets(f, onlyType(galaxy.ShipScience), func(*galaxy.Fleet) bool { return true })
	var cs []candidate[*galaxy.StarSystem]
	for _, sys := range galaxy.Find[*galaxy.StarSystem](pl.g.Universe) {
		l := sys.Location
		if l == pl.home || taken[l] || !pl.reachable(f, l) {
			continue
		}
		v := pl.GetScienceValue(sys)
		if v <= 0 {
			continue
		}
		cs = append(cs, candidate[*galaxy.StarSystem]{item: sys, id: sys.ID, score: float64(v) * distanceModifier(pl.home, sys.Location)})
	}
	return pickBest(cs)
}
