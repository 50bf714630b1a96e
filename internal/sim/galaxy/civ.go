package galaxy

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"supremacy.ai/internal/sim/meter"
)

type Race struct {
	Key                 string       `json:"key" yaml:"key"`
	HabitablePlanets    []PlanetType `json:"habitable_planets" yaml:"habitable_planets"`
	CombatEffectiveness float64      `json:"combat_effectiveness" yaml:"combat_effectiveness"`
}

func (r *Race) CanSustainLifeOn(p PlanetType) bool {
	for _, h := range r.HabitablePlanets {
		if h == p {
			return true
		}
	}
	return false
}

const (
	idealGrowthRate       = 0.03
	comfortableGrowthRate = 0.025
)

// GrowthRateOn grades p by its place in HabitablePlanets: the first entry is
// ideal, the second comfortable, the rest grow at DefaultGrowthRate.
func (r *Race) GrowthRateOn(p PlanetType) float64 {
	for i, h := range r.HabitablePlanets {
		if h != p {
			continue
		}
		switch i {
		case 0:
			return idealGrowthRate
		case 1:
			return comfortableGrowthRate
		}
		return DefaultGrowthRate
	}
	return 0
}

type Civilization struct {
	ID              int
	Key             string
	Name            string
	Race            *Race
	Traits          []string
	Type            CivType
	IsHuman         bool
	BaseMoraleLevel int
	MoraleDriftRate int
	HomeSystemName  string

	// TargetCivilization is the only field AI may change after setup.
	TargetCivilization *Civilization
}

func (c *Civilization) IsEmpire() bool { return c.Type == CivEmpire }

// CommonTraits counts traits shared with other.
func (c *Civilization) CommonTraits(other *Civilization) int {
	n := 0
	for _, a := range c.Traits {
		for _, b := range other.Traits {
			if a == b {
				n++
				break
			}
		}
	}
	return n
}

type SitRepCategory string

const (
	SitRepBlackHole        SitRepCategory = "black_hole"
	SitRepCombat           SitRepCategory = "combat"
	SitRepInvasion         SitRepCategory = "invasion"
	SitRepStarvation       SitRepCategory = "starvation"
	SitRepPopulationDying  SitRepCategory = "population_dying"
	SitRepPopulationDied   SitRepCategory = "population_died"
	SitRepScienceShip      SitRepCategory = "science_ship"
	SitRepBuildQueueEmpty  SitRepCategory = "build_queue_empty"
	SitRepItemBuilt        SitRepCategory = "item_built"
	SitRepGrowthByHealth   SitRepCategory = "growth_by_health"
	SitRepUnassignedTrade  SitRepCategory = "unassigned_trade_route"
	SitRepOrbitalDestroyed SitRepCategory = "orbital_destroyed"
	SitRepShipSummary      SitRepCategory = "ship_summary"
	SitRepShipStatus       SitRepCategory = "ship_status"
	SitRepStationStatus    SitRepCategory = "station_status"
	SitRepDiplomatic       SitRepCategory = "diplomatic"
	SitRepWarDeclared      SitRepCategory = "war_declared"
	SitRepNewColony        SitRepCategory = "new_colony"
	SitRepStationBuilt     SitRepCategory = "station_built"
	SitRepFirstContact     SitRepCategory = "first_contact"
	SitRepScripted         SitRepCategory = "scripted"
	SitRepEnergyShortage   SitRepCategory = "energy_shortage"
	SitRepAbsorbed         SitRepCategory = "minor_absorbed"
)

type SitRep struct {
	ID       string         `json:"id"`
	Turn     int            `json:"turn"`
	CivID    int            `json:"civ_id"`
	Category SitRepCategory `json:"category"`
	Summary  string         `json:"summary"`
	Location *MapLocation   `json:"location,omitempty"`
}

func NewSitRep(turn, civID int, cat SitRepCategory, summary string, loc *MapLocation) SitRep {
	return SitRep{ID: uuid.New().String(), Turn: turn, CivID: civID, Category: cat, Summary: summary, Location: loc}
}

type ResourcePool struct {
	Deuterium    meter.Meter
	Dilithium    meter.Meter
	RawMaterials meter.Meter
}

func (p *ResourcePool) Snapshot() Resources {
	return Resources{Deuterium: p.Deuterium.Current(), Dilithium: p.Dilithium.Current(), RawMaterials: p.RawMaterials.Current()}
}

// Debit removes used resources from the stock.
func (p *ResourcePool) Debit(used Resources) {
	p.Deuterium.AdjustCurrent(-used.Deuterium)
	p.Dilithium.AdjustCurrent(-used.Dilithium)
	p.RawMaterials.AdjustCurrent(-used.RawMaterials)
}

func (p *ResourcePool) Credit(r Resources) {
	p.Deuterium.AdjustCurrent(r.Deuterium)
	p.Dilithium.AdjustCurrent(r.Dilithium)
	p.RawMaterials.AdjustCurrent(r.RawMaterials)
}

func (p *ResourcePool) UpdateAndReset() {
	p.Deuterium.UpdateAndReset()
	p.Dilithium.UpdateAndReset()
	p.RawMaterials.UpdateAndReset()
}

type ResearchPool struct {
	CumulativePoints meter.Meter
	LastTurnPoints   int
}

func (r *ResearchPool) UpdateResearch(points int) {
	r.CumulativePoints.AdjustCurrent(points)
	r.LastTurnPoints += points
}

type HistoryRecord struct {
	Turn        int `json:"turn"`
	Credits     int `json:"credits"`
	Colonies    int `json:"colonies"`
	Population  int `json:"population"`
	Maintenance int `json:"maintenance"`
	Research    int `json:"research"`
}

// CivilizationManager is the mutable per-civ state. Phases that run in
// parallel by civ only touch the manager of the civ they are processing.
type CivilizationManager struct {
	Civ *Civilization

	Credits                 meter.Meter
	Resources               ResourcePool
	Research                ResearchPool
	TotalPopulation         meter.Meter
	HomeColonyID            int
	SeatOfGovernmentID      int
	MapData                 *MapData
	MaintenanceCostLastTurn int
	DesiredBorders          []MapLocation
	History                 []HistoryRecord

	mu      sync.Mutex
	sitReps []SitRep
}

func NewCivilizationManager(civ *Civilization, m SectorMap) *CivilizationManager {
	return &CivilizationManager{
		Civ:     civ,
		Credits: meter.New(0, -meter.Unbounded, meter.Unbounded),
		Resources: ResourcePool{
			Deuterium:    meter.NewUnbounded(0),
			Dilithium:    meter.NewUnbounded(0),
			RawMaterials: meter.NewUnbounded(0),
		},
		Research:        ResearchPool{CumulativePoints: meter.NewUnbounded(0)},
		TotalPopulation: meter.NewUnbounded(0),
		MapData:         NewMapData(m),
	}
}

func (m *CivilizationManager) AddSitRep(s SitRep) {
	m.mu.Lock()
	m.sitReps = append(m.sitReps, s)
	m.mu.Unlock()
}

func (m *CivilizationManager) SitReps() []SitRep {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SitRep, len(m.sitReps))
	copy(out, m.sitReps)
	return out
}

func (m *CivilizationManager) ClearSitReps() {
	m.mu.Lock()
	m.sitReps = nil
	m.mu.Unlock()
}

func (m *CivilizationManager) IsDesiredBorder(l MapLocation) bool {
	for _, d := range m.DesiredBorders {
		if d == l {
			return true
		}
	}
	return false
}

func sortCivs(civs []*Civilization) {
	sort.Slice(civs, func(i, j int) bool { return civs[i].ID < civs[j].ID })
}
