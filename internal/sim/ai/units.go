package ai

import (
	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
)

// DoUnits gives standing orders to every fleet of an empire.
func (p *Players) DoUnits(g *galaxy.Game, civ *galaxy.Civilization, intel *Intel) {
	pl := p.planner(g, civ, intel)
	if pl.m == nil {
		return
	}
	for _, f := range pl.fleets() {
		for _, s := range f.Ships {
			if s.CanCloak {
				s.IsCloaked = true
			}
		}
	}

	if target := civ.TargetCivilization; target != nil {
		pl.warFooting(target)
	} else {
		pl.peacetime()
	}

	for _, f := range pl.fleets() {
		switch {
		case f.HasShipType(galaxy.ShipColony):
			pl.colonizer(f)
		case f.HasShipType(galaxy.ShipConstruction):
			pl.constructor(f)
		case f.IsOnlyType(galaxy.ShipMedical):
			c, ok := pl.GetBestColonyForMedical(f)
			pl.mission(f, galaxy.UnitAIMedical, colonyLoc(c), ok, &galaxy.MedicalOrder{})
		case f.IsOnlyType(galaxy.ShipDiplomatic):
			c, ok := pl.GetBestColonyForDiplomacy(f)
			pl.mission(f, galaxy.UnitAIDiplomatic, colonyLoc(c), ok, &galaxy.InfluenceOrder{})
		case f.IsOnlyType(galaxy.ShipSpy):
			c, ok := pl.GetBestColonyForSpying(f)
			pl.mission(f, galaxy.UnitAISpy, colonyLoc(c), ok, &galaxy.SpyOnOrder{})
		case f.IsOnlyType(galaxy.ShipScience):
			sys, ok := pl.GetBestSystemForScience(f)
			var l galaxy.MapLocation
			if ok {
				l = sys.Location
			}
			pl.mission(f, galaxy.UnitAIScience, l, ok, &galaxy.AvoidOrder{})
		}
	}
}

func colonyLoc(c *galaxy.Colony) galaxy.MapLocation {
	if c == nil {
		return galaxy.MapLocation{}
	}
	return c.Location
}

// fleets returns the civ's fleets that still carry ships.
func (pl *planner) fleets() []*galaxy.Fleet {
	all := pl.g.FleetsOf(pl.civ.ID)
	out := all[:0]
	for _, f := range all {
		if f.HasShips() {
			out = append(out, f)
		}
	}
	return out
}

// travel routes f to dest, relaxing the path constraints until one works.
func (pl *planner) travel(f *galaxy.Fleet, dest galaxy.MapLocation) bool {
	if f.Location == dest {
		f.ClearRoute()
		return true
	}
	for _, opts := range []galaxy.PathOptions{
		{AvoidDeathStars: true, WithinFuelRange: true},
		{AvoidDeathStars: true},
	} {
		if r := pl.pf.FindPath(pl.g, f, opts, dest); !r.IsEmpty() {
			f.SetRoute(r)
			return true
		}
	}
	return false
}

// sendHome routes f home through territory it may enter, around death stars.
func (pl *planner) sendHome(f *galaxy.Fleet) {
	if f.Location == pl.home {
		f.ClearRoute()
		return
	}
	if l, ok := f.Route.LastWaypoint(); ok && l == pl.home {
		return
	}
	r := pl.pf.FindPath(pl.g, f, galaxy.PathOptions{SafeTerritory: true, AvoidDeathStars: true}, pl.home)
	if r.IsEmpty() {
		r = pl.pf.FindPath(pl.g, f, galaxy.PathOptions{AvoidDeathStars: true}, pl.home)
	}
	f.SetRoute(r)
}

func (pl *planner) splitOff(f *galaxy.Fleet, ships []*galaxy.Ship) *galaxy.Fleet {
	nf := pl.g.SpawnFleet(pl.civ.ID, f.Location, f.Name)
	for _, s := range ships {
		f.RemoveShip(s)
		nf.AddShip(s)
	}
	return nf
}

// RemoveEscortShips moves every ship keep rejects into a new reserve fleet
// headed home. It returns nil when nothing moved.
func (pl *planner) RemoveEscortShips(f *galaxy.Fleet, keep func(*galaxy.Ship) bool) *galaxy.Fleet {
	var out []*galaxy.Ship
	for _, s := range f.Ships {
		if !keep(s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 || len(out) == len(f.Ships) {
		return nil
	}
	nf := pl.splitOff(f, out)
	nf.Order = &galaxy.AvoidOrder{}
	nf.UnitAIType = galaxy.UnitAIReserve
	nf.Activity = galaxy.ActivityNone
	pl.sendHome(nf)
	return nf
}

func (pl *planner) isEscortType(t galaxy.ShipType) bool {
	for _, e := range pl.tun.EscortTypes {
		if e == t {
			return true
		}
	}
	return false
}

// GetFleetEscort moves the weakest escort-class ship from an idle fleet at
// home into f.
func (pl *planner) GetFleetEscort(f *galaxy.Fleet) bool {
	var best *galaxy.Ship
	var donor *galaxy.Fleet
	for _, other := range pl.fleets() {
		if other == f || other.Location != pl.home || other.Activity == galaxy.ActivityMission || !other.Route.IsEmpty() {
			continue
		}
		for _, s := range other.Ships {
			if pl.isEscortType(s.ShipType) && (best == nil || s.Firepower < best.Firepower) {
				best, donor = s, other
			}
		}
	}
	if best == nil {
		return false
	}
	donor.RemoveShip(best)
	f.AddShip(best)
	return true
}

// isHomeGuard reports a combat fleet that can join the home defense.
func isHomeGuard(f *galaxy.Fleet) bool {
	return f.AllCombatants() && !f.IsOnlyType(galaxy.ShipScout) && f.Activity != galaxy.ActivityMission
}

func (pl *planner) attackFleetAtHome() *galaxy.Fleet {
	for _, f := range pl.fleets() {
		if f.Location == pl.home && f.UnitAIType == galaxy.UnitAISystemAttack && f.Activity != galaxy.ActivityMission {
			return f
		}
	}
	return nil
}

func (pl *planner) holdsAllCombatShipsAtHome(attack *galaxy.Fleet) bool {
	for _, f := range pl.fleets() {
		if f != attack && f.Location == pl.home && isHomeGuard(f) {
			return false
		}
	}
	return true
}

func (pl *planner) warFooting(target *galaxy.Civilization) {
	if attack := pl.attackFleetAtHome(); attack != nil && attack.Activity == galaxy.ActivityHold &&
		len(attack.Ships) >= pl.tun.War.MinAttackFleet && pl.holdsAllCombatShipsAtHome(attack) {
		dest := pl.g.HomeLocation(target.ID)
		if pl.BreakDownTransitFleet(attack, dest) {
			attack.Order = &galaxy.EngageOrder{}
			attack.Activity = galaxy.ActivityMission
			pl.log.Info("attack fleet launched",
				zap.Int("fleet", attack.ID),
				zap.Int("ships", len(attack.Ships)),
				zap.String("target", target.Key),
			)
		}
	}

	for _, f := range pl.fleets() {
		if f.IsCombatant() && (f.HasShipType(galaxy.ShipColony) || f.HasShipType(galaxy.ShipConstruction)) {
			pl.RemoveEscortShips(f, func(s *galaxy.Ship) bool { return !s.IsCombatant() })
		}
	}

	for _, f := range pl.fleets() {
		if !f.IsOnlyType(galaxy.ShipScout) {
			continue
		}
		f.UnitAIType = galaxy.UnitAIReserve
		f.Activity = galaxy.ActivityNone
		f.Order = galaxy.GetDefaultOrder(f)
		pl.sendHome(f)
	}

	attack := pl.attackFleetAtHome()
	for _, f := range pl.fleets() {
		if f == attack || f.Location != pl.home || !isHomeGuard(f) {
			continue
		}
		if attack == nil {
			attack = f
			continue
		}
		for _, s := range append([]*galaxy.Ship(nil), f.Ships...) {
			f.RemoveShip(s)
			attack.AddShip(s)
		}
	}
	if attack != nil {
		attack.UnitAIType = galaxy.UnitAISystemAttack
		attack.Activity = galaxy.ActivityHold
		attack.Order = &galaxy.EngageOrder{}
		attack.ClearRoute()
	}
}

// BreakDownTransitFleet routes f to dest. Ships without the fuel to cross
// the stretch of the route beyond their range stay home in a reserve
// fleet. It reports false, leaving f in place, when no ship can make it.
func (pl *planner) BreakDownTransitFleet(f *galaxy.Fleet, dest galaxy.MapLocation) bool {
	r := pl.pf.FindPath(pl.g, f, galaxy.PathOptions{AvoidDeathStars: true}, dest)
	if r.IsEmpty() {
		return false
	}
	md := pl.m.MapData
	var stay []*galaxy.Ship
	for _, s := range f.Ships {
		dry := 0
		for _, l := range r.Steps {
			if md.GetFuelRange(l) > s.Range {
				dry++
			}
		}
		if dry > s.Fuel.Current() {
			stay = append(stay, s)
		}
	}
	if len(stay) == len(f.Ships) {
		return false
	}
	if len(stay) > 0 {
		nf := pl.splitOff(f, stay)
		nf.UnitAIType = galaxy.UnitAIReserve
		nf.Activity = galaxy.ActivityHold
		nf.Order = &galaxy.EngageOrder{}
	}
	f.SetRoute(r)
	return true
}

func (pl *planner) peacetime() {
	for _, f := range pl.fleets() {
		if f.UnitAIType == galaxy.UnitAISystemAttack {
			pl.standDown(f)
		}
	}

	for _, f := range pl.fleets() {
		if f.IsOnlyType(galaxy.ShipScout) {
			pl.explore(f)
		}
	}

	if pl.g.TurnNumber < pl.tun.War.PeacetimeRecallTurn {
		return
	}
	for _, f := range pl.fleets() {
		if f.UnitAIType != galaxy.UnitAINone || !isHomeGuard(f) || f.Location == pl.home {
			continue
		}
		f.UnitAIType = galaxy.UnitAIReserve
		pl.sendHome(f)
	}
}

// standDown breaks an attack fleet into single combat ships headed home.
func (pl *planner) standDown(f *galaxy.Fleet) {
	var combat []*galaxy.Ship
	for _, s := range f.Ships {
		if s.IsCombatant() {
			combat = append(combat, s)
		}
	}
	for _, s := range combat {
		nf := pl.splitOff(f, []*galaxy.Ship{s})
		nf.UnitAIType = galaxy.UnitAINone
		nf.Activity = galaxy.ActivityNone
		nf.Order = galaxy.GetDefaultOrder(nf)
		pl.sendHome(nf)
	}
	f.UnitAIType = galaxy.UnitAINone
	f.Activity = galaxy.ActivityNone
	f.ClearRoute()
	if f.HasShips() {
		f.Order = galaxy.GetDefaultOrder(f)
		pl.sendHome(f)
	}
}

func (pl *planner) explore(f *galaxy.Fleet) {
	if f.UnitAIType == galaxy.UnitAIExplorer && f.Activity == galaxy.ActivityMission && !f.Route.IsEmpty() {
		return
	}
	if l, ok := pl.GetBestSectorToExplore(f); ok && pl.travel(f, l) {
		f.Order = &galaxy.ExploreOrder{}
		f.UnitAIType = galaxy.UnitAIExplorer
		f.Activity = galaxy.ActivityMission
		return
	}
	f.UnitAIType = galaxy.UnitAIReserve
	f.Activity = galaxy.ActivityNone
	f.Order = galaxy.GetDefaultOrder(f)
	pl.sendHome(f)
}

func (pl *planner) colonizer(f *galaxy.Fleet) {
	if f.UnitAIType == galaxy.UnitAIColonizer && f.Activity == galaxy.ActivityMission {
		if f.Route.IsEmpty() {
			order := &galaxy.ColonizeOrder{}
			if pl.SystemNotAlreadyTaken(pl.g.SystemAt(f.Location)) && order.IsValidOrder(pl.g, f) {
				f.Order = order
				return
			}
			pl.retargetColonizer(f)
			return
		}
		if l, ok := f.Route.LastWaypoint(); ok && !pl.SystemNotAlreadyTaken(pl.g.SystemAt(l)) {
			pl.retargetColonizer(f)
		}
		return
	}

	if f.Location != pl.home {
		pl.sendHome(f)
		return
	}
	sys, ok := pl.GetBestSystemToColonize(f)
	if !ok || !pl.travel(f, sys.Location) {
		return
	}
	f.UnitAIType = galaxy.UnitAIColonizer
	f.Activity = galaxy.ActivityMission
	f.Order = &galaxy.AvoidOrder{}
	if pl.civ.TargetCivilization == nil && !f.IsCombatant() {
		pl.GetFleetEscort(f)
	}
	pl.log.Debug("colony ship dispatched", zap.Int("fleet", f.ID), zap.String("system", sys.Name))
}

func (pl *planner) retargetColonizer(f *galaxy.Fleet) {
	if sys, ok := pl.GetBestSystemToColonize(f); ok && pl.travel(f, sys.Location) {
		f.Order = &galaxy.AvoidOrder{}
		return
	}
	f.UnitAIType = galaxy.UnitAINone
	f.Activity = galaxy.ActivityNone
	f.Order = galaxy.GetDefaultOrder(f)
	pl.sendHome(f)
}

// stationBuilderAt returns another of the civ's fleets building a station at l.
func (pl *planner) stationBuilderAt(l galaxy.MapLocation, except *galaxy.Fleet) *galaxy.Fleet {
	for _, f := range pl.fleets() {
		if f == except || f.Location != l {
			continue
		}
		if _, ok := f.Order.(*galaxy.BuildStationOrder); ok {
			return f
		}
	}
	return nil
}

func (pl *planner) constructor(f *galaxy.Fleet) {
	if o, ok := f.Order.(*galaxy.BuildStationOrder); ok && o.IsValidOrder(pl.g, f) {
		return
	}
	if f.UnitAIType == galaxy.UnitAIBuilding {
		if pl.stationBuilderAt(f.Location, f) != nil {
			return
		}
		f.UnitAIType = galaxy.UnitAIConstructor
		f.Activity = galaxy.ActivityNone
	}

	if f.UnitAIType == galaxy.UnitAIConstructor && f.Activity == galaxy.ActivityMission {
		if !f.Route.IsEmpty() {
			return
		}
		if pl.stationBuilderAt(f.Location, f) != nil {
			f.UnitAIType = galaxy.UnitAIBuilding
			f.Activity = galaxy.ActivityHold
			return
		}
		if pl.GetStationValue(f, f.Location) > 0 {
			pl.buildStation(f)
			return
		}
	}

	l, ok := pl.GetBestSectorForStation(f)
	switch {
	case !ok:
		f.Activity = galaxy.ActivityNone
		pl.sendHome(f)
	case l == f.Location:
		pl.buildStation(f)
	case pl.travel(f, l):
		f.UnitAIType = galaxy.UnitAIConstructor
		f.Activity = galaxy.ActivityMission
		f.Order = &galaxy.AvoidOrder{}
	}
}

func (pl *planner) buildStation(f *galaxy.Fleet) {
	d := pl.g.Designs.Stations[pl.tun.Colony.StationDesign]
	if d == nil {
		pl.log.Warn("station design missing", zap.String("design", pl.tun.Colony.StationDesign))
		return
	}
	f.ClearRoute()
	f.Order = &galaxy.BuildStationOrder{Project: galaxy.NewStationProject(d, pl.civ.ID, f.Location)}
	f.UnitAIType = galaxy.UnitAIConstructor
	f.Activity = galaxy.ActivityBuildStation
}

// mission sends a single-purpose fleet to dest with order. Fleets already
// under way keep going; without a target they return home.
func (pl *planner) mission(f *galaxy.Fleet, kind galaxy.UnitAIType, dest galaxy.MapLocation, ok bool, order galaxy.Order) {
	if f.UnitAIType == kind && f.Activity == galaxy.ActivityMission && !f.Route.IsEmpty() {
		return
	}
	if !ok {
		f.UnitAIType = kind
		f.Activity = galaxy.ActivityNone
		f.Order = galaxy.GetDefaultOrder(f)
		pl.sendHome(f)
		return
	}
	if !pl.travel(f, dest) {
		return
	}
	f.UnitAIType = kind
	f.Activity = galaxy.ActivityMission
	f.Order = order
}
