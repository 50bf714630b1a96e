package galaxy

// Resources is a bundle of the stockpiled strategic resources.
type Resources struct {
	Deuterium    int `json:"deuterium" yaml:"deuterium"`
	Dilithium    int `json:"dilithium" yaml:"dilithium"`
	RawMaterials int `json:"raw_materials" yaml:"raw_materials"`
}

func (r Resources) Add(o Resources) Resources {
	return Resources{Deuterium: r.Deuterium + o.Deuterium, Dilithium: r.Dilithium + o.Dilithium, RawMaterials: r.RawMaterials + o.RawMaterials}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{Deuterium: r.Deuterium - o.Deuterium, Dilithium: r.Dilithium - o.Dilithium, RawMaterials: r.RawMaterials - o.RawMaterials}
}

func (r Resources) IsZero() bool { return r == Resources{} }

type Bonus struct {
	Type   BonusType `json:"type"`
	Amount int       `json:"amount"`
}

type ShipDesign struct {
	Key              string    `json:"key"`
	Name             string    `json:"name"`
	ShipType         ShipType  `json:"ship_type"`
	BuildCost        int       `json:"build_cost"`
	Resources        Resources `json:"resources"`
	BuildLimit       int       `json:"build_limit,omitempty"`
	Hull             int       `json:"hull"`
	Fuel             int       `json:"fuel"`
	Speed            int       `json:"speed"`
	Range            int       `json:"range"`
	ScanStrength     int       `json:"scan_strength"`
	ScienceAbility   float64   `json:"science_ability,omitempty"`
	Firepower        int       `json:"firepower,omitempty"`
	TroopStrength    int       `json:"troop_strength,omitempty"`
	Maintenance      int       `json:"maintenance"`
	CanCloak         bool      `json:"can_cloak,omitempty"`
	BuildOutput      int       `json:"build_output,omitempty"`
	MedicalCapacity  int       `json:"medical_capacity,omitempty"`
	ColonistCapacity int       `json:"colonist_capacity,omitempty"`
}

type StationDesign struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	BuildCost    int       `json:"build_cost"`
	Resources    Resources `json:"resources"`
	BuildLimit   int       `json:"build_limit,omitempty"`
	Hull         int       `json:"hull"`
	ScanStrength int       `json:"scan_strength"`
	ScanRange    int       `json:"scan_range"`
	Firepower    int       `json:"firepower,omitempty"`
	Maintenance  int       `json:"maintenance"`
}

type BuildingDesign struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	BuildCost   int       `json:"build_cost"`
	Resources   Resources `json:"resources"`
	BuildLimit  int       `json:"build_limit,omitempty"`
	EnergyCost  int       `json:"energy_cost"`
	Maintenance int       `json:"maintenance"`
	Bonuses     []Bonus   `json:"bonuses,omitempty"`
}

type ShipyardOutputType string

const (
	ShipyardOutputStatic          ShipyardOutputType = "static"
	ShipyardOutputPopulationRatio ShipyardOutputType = "population_ratio"
	ShipyardOutputIndustryRatio   ShipyardOutputType = "industry_ratio"
)

type ShipyardDesign struct {
	Key             string             `json:"key"`
	Name            string             `json:"name"`
	BuildSlots      int                `json:"build_slots"`
	BuildSlotOutput int                `json:"build_slot_output"`
	OutputType      ShipyardOutputType `json:"output_type"`
	MaxOutput       int                `json:"max_output,omitempty"`
}

// FacilityDesign is the per-category production facility a colony staffs.
type FacilityDesign struct {
	Key       string             `json:"key"`
	Category  ProductionCategory `json:"category"`
	LaborCost int                `json:"labor_cost"`
	Output    int                `json:"output"`
}

// Designs is the read-only design catalog shared by every civ.
type Designs struct {
	Ships      map[string]*ShipDesign
	Stations   map[string]*StationDesign
	Buildings  map[string]*BuildingDesign
	Shipyards  map[string]*ShipyardDesign
	Facilities map[ProductionCategory]*FacilityDesign
}

func NewDesigns() *Designs {
	return &Designs{
		Ships:      map[string]*ShipDesign{},
		Stations:   map[string]*StationDesign{},
		Buildings:  map[string]*BuildingDesign{},
		Shipyards:  map[string]*ShipyardDesign{},
		Facilities: map[ProductionCategory]*FacilityDesign{},
	}
}
