// Package scenario builds a starting galaxy from a YAML description.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/galaxy"
)

type Scenario struct {
	Name      string           `yaml:"name"`
	Seed      int64            `yaml:"seed"`
	Turn      int              `yaml:"turn"`
	Map       galaxy.SectorMap `yaml:"map"`
	Races     []galaxy.Race    `yaml:"races"`
	Civs      []Civ            `yaml:"civs"`
	Systems   []System         `yaml:"systems"`
	Colonies  []Colony         `yaml:"colonies"`
	Stations  []Station        `yaml:"stations"`
	Fleets    []Fleet          `yaml:"fleets"`
	Relations []Relation       `yaml:"relations"`
}

type Civ struct {
	Key         string           `yaml:"key"`
	Name        string           `yaml:"name"`
	Race        string           `yaml:"race"`
	Type        galaxy.CivType   `yaml:"type"`
	Human       bool             `yaml:"human"`
	Traits      []string         `yaml:"traits"`
	BaseMorale  int              `yaml:"base_morale"`
	MoraleDrift int              `yaml:"morale_drift"`
	Home        string           `yaml:"home"`
	Credits     int              `yaml:"credits"`
	Resources   galaxy.Resources `yaml:"resources"`
}

type System struct {
	Name         string             `yaml:"name"`
	Location     galaxy.MapLocation `yaml:"location"`
	Star         galaxy.StarType    `yaml:"star"`
	Dilithium    bool               `yaml:"dilithium"`
	RawMaterials bool               `yaml:"raw_materials"`
	Planets      []galaxy.Planet    `yaml:"planets"`
}

type Facility struct {
	Category galaxy.ProductionCategory `yaml:"category"`
	Total    int                       `yaml:"total"`
	Active   int                       `yaml:"active"`
}

type Colony struct {
	System     string     `yaml:"system"`
	Owner      string     `yaml:"owner"`
	Population int        `yaml:"population"`
	Shipyard   string     `yaml:"shipyard"`
	Facilities []Facility `yaml:"facilities"`
	Buildings  []string   `yaml:"buildings"`
}

type Station struct {
	Owner    string             `yaml:"owner"`
	Design   string             `yaml:"design"`
	Location galaxy.MapLocation `yaml:"location"`
}

type Fleet struct {
	Owner    string             `yaml:"owner"`
	Name     string             `yaml:"name"`
	Location galaxy.MapLocation `yaml:"location"`
	Ships    []string           `yaml:"ships"`
	UnitAI   galaxy.UnitAIType  `yaml:"unit_ai"`
}

type Relation struct {
	A      string                 `yaml:"a"`
	B      string                 `yaml:"b"`
	Status galaxy.DiplomacyStatus `yaml:"status"`
	Regard int                    `yaml:"regard"`
}

var ErrInvalidScenario = errors.New("invalid scenario")

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("scenario.yaml: %w", err)
	}
	return &s, nil
}

// Build creates the game and its diplomacy registry. Civ IDs follow the
// order of the civs list.
func (s *Scenario) Build(designs *galaxy.Designs, settings diplomacy.Settings) (*galaxy.Game, *diplomacy.Registry, error) {
	if s.Map.Width <= 0 || s.Map.Height <= 0 {
		return nil, nil, fmt.Errorf("%w: map size %dx%d", ErrInvalidScenario, s.Map.Width, s.Map.Height)
	}
	if len(s.Civs) == 0 {
		return nil, nil, fmt.Errorf("%w: no civs", ErrInvalidScenario)
	}

	races := map[string]*galaxy.Race{}
	for i := range s.Races {
		r := s.Races[i]
		races[r.Key] = &r
	}
	civs := make([]*galaxy.Civilization, 0, len(s.Civs))
	byKey := map[string]int{}
	for i, c := range s.Civs {
		if _, dup := byKey[c.Key]; dup || c.Key == "" {
			return nil, nil, fmt.Errorf("%w: civ key %q", ErrInvalidScenario, c.Key)
		}
		race := races[c.Race]
		if race == nil {
			return nil, nil, fmt.Errorf("%w: civ %s: unknown race %q", ErrInvalidScenario, c.Key, c.Race)
		}
		byKey[c.Key] = i
		civs = append(civs, &galaxy.Civilization{
			ID: i, Key: c.Key, Name: c.Name, Race: race, Traits: c.Traits, Type: c.Type,
			IsHuman: c.Human, BaseMoraleLevel: c.BaseMorale, MoraleDriftRate: c.MoraleDrift,
			HomeSystemName: c.Home,
		})
	}
	owner := func(key string) (int, error) {
		id, ok := byKey[key]
		if !ok {
			return 0, fmt.Errorf("%w: unknown civ %q", ErrInvalidScenario, key)
		}
		return id, nil
	}

	g := galaxy.NewGame(s.Map, civs, designs, s.Seed)
	g.TurnNumber = s.Turn
	for i, civ := range civs {
		m := galaxy.NewCivilizationManager(civ, g.Map())
		m.Credits.SetCurrent(s.Civs[i].Credits)
		m.Credits.UpdateAndReset()
		m.Resources.Credit(s.Civs[i].Resources)
		m.Resources.UpdateAndReset()
		g.SetManager(m)
	}
	reg := diplomacy.NewRegistry(civs, settings)
	g.Relations = reg

	systems := map[string]*galaxy.StarSystem{}
	for _, sd := range s.Systems {
		if !s.Map.Contains(sd.Location) {
			return nil, nil, fmt.Errorf("%w: system %s at %v is off the map", ErrInvalidScenario, sd.Name, sd.Location)
		}
		if _, dup := systems[sd.Name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate system %s", ErrInvalidScenario, sd.Name)
		}
		sys := &galaxy.StarSystem{
			Base:                galaxy.Base{Name: sd.Name, Location: sd.Location, OwnerID: galaxy.NoOwner},
			StarType:            sd.Star,
			Planets:             sd.Planets,
			HasDilithiumBonus:   sd.Dilithium,
			HasRawMaterialBonus: sd.RawMaterials,
		}
		g.Universe.Add(sys)
		systems[sd.Name] = sys
	}

	for _, cd := range s.Colonies {
		civID, err := owner(cd.Owner)
		if err != nil {
			return nil, nil, err
		}
		sys := systems[cd.System]
		if sys == nil {
			return nil, nil, fmt.Errorf("%w: colony in unknown system %q", ErrInvalidScenario, cd.System)
		}
		if sys.HasColony() {
			return nil, nil, fmt.Errorf("%w: system %s colonized twice", ErrInvalidScenario, cd.System)
		}
		if err := buildColony(g, civID, sys, cd); err != nil {
			return nil, nil, err
		}
	}

	for _, st := range s.Stations {
		civID, err := owner(st.Owner)
		if err != nil {
			return nil, nil, err
		}
		if _, err := g.SpawnStation(civID, st.Design, st.Location); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
	}

	for _, fd := range s.Fleets {
		civID, err := owner(fd.Owner)
		if err != nil {
			return nil, nil, err
		}
		if err := buildFleet(g, civID, fd); err != nil {
			return nil, nil, err
		}
	}

	for _, rd := range s.Relations {
		a, err := owner(rd.A)
		if err != nil {
			return nil, nil, err
		}
		b, err := owner(rd.B)
		if err != nil {
			return nil, nil, err
		}
		reg.MakeContact(a, b, g.TurnNumber)
		if rd.Status != galaxy.StatusNoContact {
			reg.SetStatus(a, b, rd.Status)
		}
		if rd.Regard != 0 {
			reg.ApplyRegardChange(a, b, rd.Regard-reg.Regard(a, b))
			reg.ApplyRegardChange(b, a, rd.Regard-reg.Regard(b, a))
		}
	}
	return g, reg, nil
}

func buildColony(g *galaxy.Game, civID int, sys *galaxy.StarSystem, cd Colony) error {
	c := g.FoundColony(civID, sys, cd.Population)
	for _, fd := range cd.Facilities {
		fp := c.Facility(fd.Category)
		if fp == nil {
			return fmt.Errorf("%w: %s: no %s facility design", ErrInvalidScenario, sys.Name, fd.Category)
		}
		fp.Total = fd.Total
		for i := 0; i < fd.Active; i++ {
			if !c.ActivateFacility(fd.Category) {
				return fmt.Errorf("%w: %s: not enough labor for %d %s facilities", ErrInvalidScenario, sys.Name, fd.Active, fd.Category)
			}
		}
	}
	for _, key := range cd.Buildings {
		d := g.Designs.Buildings[key]
		if d == nil {
			return fmt.Errorf("%w: %s: unknown building %q", ErrInvalidScenario, sys.Name, key)
		}
		c.Buildings = append(c.Buildings, &galaxy.Building{Design: d, IsActive: true})
	}
	if cd.Shipyard != "" {
		d := g.Designs.Shipyards[cd.Shipyard]
		if d == nil {
			return fmt.Errorf("%w: %s: unknown shipyard %q", ErrInvalidScenario, sys.Name, cd.Shipyard)
		}
		c.Shipyard = galaxy.NewShipyard(d)
	}
	return nil
}

func buildFleet(g *galaxy.Game, civID int, fd Fleet) error {
	if len(fd.Ships) == 0 {
		return fmt.Errorf("%w: empty fleet at %v", ErrInvalidScenario, fd.Location)
	}
	if !g.Map().Contains(fd.Location) {
		return fmt.Errorf("%w: fleet at %v is off the map", ErrInvalidScenario, fd.Location)
	}
	var fleet *galaxy.Fleet
	for _, key := range fd.Ships {
		s, f, err := g.SpawnShip(civID, key, fd.Location)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
		if fleet == nil {
			fleet = f
			continue
		}
		f.RemoveShip(s)
		g.DestroyFleet(f)
		fleet.AddShip(s)
	}
	if fd.Name != "" {
		fleet.Name = fd.Name
	}
	fleet.UnitAIType = fd.UnitAI
	fleet.Order = galaxy.GetDefaultOrder(fleet)
	return nil
}
