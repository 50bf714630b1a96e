package galaxy

import "sort"

// Route is the path a fleet is following. Waypoints are the destinations
// picked by the player or AI; Steps is the expanded sector-by-sector path.
type Route struct {
	Waypoints []MapLocation
	Steps     []MapLocation
}

func (r Route) IsEmpty() bool { return len(r.Steps) == 0 }

// LastWaypoint is the final destination, if any.
func (r Route) LastWaypoint() (MapLocation, bool) {
	if len(r.Waypoints) > 0 {
		return r.Waypoints[len(r.Waypoints)-1], true
	}
	if len(r.Steps) > 0 {
		return r.Steps[len(r.Steps)-1], true
	}
	return MapLocation{}, false
}

type Fleet struct {
	Base
	Ships      []*Ship
	Route      Route
	Order      Order
	UnitAIType UnitAIType
	Activity   UnitActivity
	IsInTow    bool
}

func (f *Fleet) HasShips() bool { return len(f.Ships) > 0 }

// InferredOwner is the owner of the first owned ship, else the fleet's own owner.
func (f *Fleet) InferredOwner() int {
	for _, s := range f.Ships {
		if s != nil && s.IsOwned() {
			return s.OwnerID
		}
	}
	return f.OwnerID
}

// Speed is limited by the slowest ship.
func (f *Fleet) Speed() int {
	if len(f.Ships) == 0 {
		return 0
	}
	v := f.Ships[0].Speed
	for _, s := range f.Ships[1:] {
		if s.Speed < v {
			v = s.Speed
		}
	}
	return v
}

// Range is limited by the shortest-legged ship.
func (f *Fleet) Range() int {
	if len(f.Ships) == 0 {
		return 0
	}
	v := f.Ships[0].Range
	for _, s := range f.Ships[1:] {
		if s.Range < v {
			v = s.Range
		}
	}
	return v
}

// IsStranded reports a ship with empty tanks.
func (f *Fleet) IsStranded() bool {
	for _, s := range f.Ships {
		if s.Fuel.IsMinimized() {
			return true
		}
	}
	return false
}

func (f *Fleet) IsCombatant() bool {
	for _, s := range f.Ships {
		if s.IsCombatant() {
			return true
		}
	}
	return false
}

func (f *Fleet) HasShipType(t ShipType) bool {
	for _, s := range f.Ships {
		if s.ShipType == t {
			return true
		}
	}
	return false
}

// IsOnlyType reports a non-empty fleet made of one ship type.
func (f *Fleet) IsOnlyType(t ShipType) bool {
	if len(f.Ships) == 0 {
		return false
	}
	for _, s := range f.Ships {
		if s.ShipType != t {
			return false
		}
	}
	return true
}

// AllCombatants reports a non-empty fleet of combat hulls only.
func (f *Fleet) AllCombatants() bool {
	if len(f.Ships) == 0 {
		return false
	}
	for _, s := range f.Ships {
		if !s.IsCombatant() {
			return false
		}
	}
	return true
}

func (f *Fleet) Firepower() int {
	total := 0
	for _, s := range f.Ships {
		total += s.Firepower
	}
	return total
}

func (f *Fleet) AddShip(s *Ship) {
	for _, existing := range f.Ships {
		if existing == s {
			return
		}
	}
	s.FleetID = f.ID
	s.Location = f.Location
	f.Ships = append(f.Ships, s)
	sort.Slice(f.Ships, func(i, j int) bool { return f.Ships[i].ID < f.Ships[j].ID })
}

func (f *Fleet) RemoveShip(s *Ship) bool {
	for i, existing := range f.Ships {
		if existing == s {
			f.Ships = append(f.Ships[:i], f.Ships[i+1:]...)
			s.FleetID = 0
			return true
		}
	}
	return false
}

// SetLocation moves the fleet and every ship aboard.
func (f *Fleet) SetLocation(l MapLocation) {
	f.Location = l
	for _, s := range f.Ships {
		s.Location = l
	}
}

// SetRoute replaces the route; a route whose first step is the current
// location has it trimmed.
func (f *Fleet) SetRoute(r Route) {
	if len(r.Steps) > 0 && r.Steps[0] == f.Location {
		r.Steps = r.Steps[1:]
	}
	f.Route = r
}

func (f *Fleet) ClearRoute() { f.Route = Route{} }

// MoveAlongRoute advances one sector. It returns false when there is
// nowhere left to go.
func (f *Fleet) MoveAlongRoute() bool {
	if len(f.Route.Steps) == 0 {
		return false
	}
	next := f.Route.Steps[0]
	f.Route.Steps = f.Route.Steps[1:]
	f.SetLocation(next)
	for len(f.Route.Waypoints) > 0 && f.Route.Waypoints[0] == next {
		f.Route.Waypoints = f.Route.Waypoints[1:]
	}
	if len(f.Route.Steps) == 0 {
		f.Route.Waypoints = nil
	}
	return true
}

func (f *Fleet) SetOrder(o Order) { f.Order = o }
