package galaxy

import "supremacy.ai/internal/sim/meter"

// NoOwner marks unowned objects.
const NoOwner = -1

// Object is anything stored in the Universe.
type Object interface {
	ObjectID() int
	Loc() MapLocation
	Owner() int
	// ResetTurnState discards per-turn transient values at the start of a turn.
	ResetTurnState()
	base() *Base
}

type Base struct {
	ID       int
	Name     string
	Location MapLocation
	OwnerID  int
	Scrap    bool
}

func (b *Base) ObjectID() int    { return b.ID }
func (b *Base) Loc() MapLocation { return b.Location }
func (b *Base) Owner() int       { return b.OwnerID }
func (b *Base) IsOwned() bool    { return b.OwnerID != NoOwner }
func (b *Base) base() *Base      { return b }
func (b *Base) ResetTurnState()  {}

type Planet struct {
	Name       string     `json:"name" yaml:"name"`
	PlanetType PlanetType `json:"planet_type" yaml:"planet_type"`
	MaxPop     int        `json:"max_pop" yaml:"max_pop"`
}

type StarSystem struct {
	Base
	StarType            StarType
	Planets             []Planet
	HasDilithiumBonus   bool
	HasRawMaterialBonus bool
	ColonyID            int // 0 when uncolonized
}

// HasColony also covers native populations, which are modeled as colonies.
func (s *StarSystem) HasColony() bool { return s.ColonyID != 0 }

// IsHabitable reports whether any planet can sustain the race.
func (s *StarSystem) IsHabitable(r *Race) bool {
	if r == nil {
		return false
	}
	for _, p := range s.Planets {
		if r.CanSustainLifeOn(p.PlanetType) {
			return true
		}
	}
	return false
}

// MaxPopulation is the sum of planet capacities habitable by race.
func (s *StarSystem) MaxPopulation(r *Race) int {
	total := 0
	for _, p := range s.Planets {
		if r != nil && r.CanSustainLifeOn(p.PlanetType) {
			total += p.MaxPop
		}
	}
	return total
}

// GrowthRate is the population-weighted growth rate of the planets the
// race can live on, 0 when there are none.
func (s *StarSystem) GrowthRate(r *Race) float64 {
	if r == nil {
		return 0
	}
	var weighted float64
	total := 0
	for _, p := range s.Planets {
		if !r.CanSustainLifeOn(p.PlanetType) {
			continue
		}
		weighted += float64(p.MaxPop) * r.GrowthRateOn(p.PlanetType)
		total += p.MaxPop
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

type Station struct {
	Base
	DesignKey    string
	Hull         meter.Meter
	ScanStrength int
	ScanRange    int
	Firepower    int
	Maintenance  int
}

type Ship struct {
	Base
	FleetID          int
	DesignKey        string
	ShipType         ShipType
	Hull             meter.Meter
	Fuel             meter.Meter
	Speed            int
	Range            int
	ScanStrength     int
	ScienceAbility   float64
	Firepower        int
	TroopStrength    int
	Maintenance      int
	CanCloak         bool
	IsCloaked        bool
	IsCamouflaged    bool
	BuildOutput      int
	MedicalCapacity  int
	ColonistCapacity int
}

func (s *Ship) IsCombatant() bool { return s.ShipType.IsCombatant() }

// NewShipFromDesign builds an unregistered ship with full hull and fuel.
func NewShipFromDesign(d *ShipDesign, owner int, loc MapLocation) *Ship {
	return &Ship{
		Base:             Base{Name: d.Name, Location: loc, OwnerID: owner},
		DesignKey:        d.Key,
		ShipType:         d.ShipType,
		Hull:             meter.New(d.Hull, 0, d.Hull),
		Fuel:             meter.New(d.Fuel, 0, d.Fuel),
		Speed:            d.Speed,
		Range:            d.Range,
		ScanStrength:     d.ScanStrength,
		ScienceAbility:   d.ScienceAbility,
		Firepower:        d.Firepower,
		TroopStrength:    d.TroopStrength,
		Maintenance:      d.Maintenance,
		CanCloak:         d.CanCloak,
		BuildOutput:      d.BuildOutput,
		MedicalCapacity:  d.MedicalCapacity,
		ColonistCapacity: d.ColonistCapacity,
	}
}

// NewStationFromDesign builds an unregistered station with full hull.
func NewStationFromDesign(d *StationDesign, owner int, loc MapLocation) *Station {
	return &Station{
		Base:         Base{Name: d.Name, Location: loc, OwnerID: owner},
		DesignKey:    d.Key,
		Hull:         meter.New(d.Hull, 0, d.Hull),
		ScanStrength: d.ScanStrength,
		ScanRange:    d.ScanRange,
		Firepower:    d.Firepower,
		Maintenance:  d.Maintenance,
	}
}
