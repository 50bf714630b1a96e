// Package scripting implements data-driven game events. Each event names
// the turn point it acts at, an expr condition and an effect applied to
// every civ or colony the condition matches.
package scripting

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
)

// Turn points other than phase names.
const (
	AtTurnStarted  = "turn_started"
	AtTurnFinished = "turn_finished"
)

const (
	ScopeCiv    = "civ"
	ScopeColony = "colony"
)

type File struct {
	Events []Def `yaml:"events"`
}

type Def struct {
	ID string `yaml:"id"`
	// At is turn_started, turn_finished or the name of a phase; phase
	// events act when the phase finishes.
	At    string `yaml:"at"`
	Scope string `yaml:"scope"`
	When  string `yaml:"when"`
	// Occurrences caps how often the event fires; 0 is unlimited.
	Occurrences int    `yaml:"occurrences"`
	Cooldown    int    `yaml:"cooldown"`
	Effect      Effect `yaml:"effect"`
}

type Effect struct {
	Credits    int              `yaml:"credits"`
	Morale     int              `yaml:"morale"`
	Population int              `yaml:"population"`
	Health     int              `yaml:"health"`
	Resources  galaxy.Resources `yaml:"resources"`
	// SitRep is posted to the affected civ; {name} is replaced by the
	// colony or civ name.
	SitRep string `yaml:"sitrep"`
}

// Env is what conditions see. Colony is zero for civ-scoped events.
type Env struct {
	Turn   int
	Civ    CivEnv
	Colony ColonyEnv
}

type CivEnv struct {
	Key        string
	Name       string
	IsHuman    bool
	IsEmpire   bool
	Credits    int
	Colonies   int
	Population int
	Research   int
	AtWar      bool
}

type ColonyEnv struct {
	Name          string
	Star          string
	Population    int
	MaxPopulation int
	Morale        int
	Health        int
	Food          int
	IsHome        bool
}

var ErrInvalidEvent = errors.New("invalid event")

// Event is one compiled event definition.
type Event struct {
	def     Def
	at      engine.TurnPhase
	atPhase bool
	program *vm.Program
	log     *zap.Logger

	fired     int
	lastFired int
}

var _ engine.ScriptedEvent = (*Event)(nil)

func Compile(def Def, log *zap.Logger) (*Event, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(def.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	ev := &Event{def: def, log: log.With(zap.String("event", def.ID)), lastFired: -1}
	switch def.At {
	case AtTurnStarted, AtTurnFinished:
	default:
		if err := ev.at.UnmarshalText([]byte(def.At)); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEvent, def.ID, err)
		}
		ev.atPhase = true
	}
	switch def.Scope {
	case "":
		ev.def.Scope = ScopeCiv
	case ScopeCiv, ScopeColony:
	default:
		return nil, fmt.Errorf("%w: %s: unknown scope %q", ErrInvalidEvent, def.ID, def.Scope)
	}
	cond := def.When
	if strings.TrimSpace(cond) == "" {
		cond = "true"
	}
	prog, err := expr.Compile(cond, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile event %q: %w", def.ID, err)
	}
	ev.program = prog
	return ev, nil
}

// Load reads an events file and compiles every event in it.
func Load(path string, log *zap.Logger) ([]engine.ScriptedEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("events.yaml: %w", err)
	}
	seen := map[string]bool{}
	out := make([]engine.ScriptedEvent, 0, len(f.Events))
	for _, def := range f.Events {
		if seen[def.ID] {
			return nil, fmt.Errorf("events.yaml: %w: duplicate id %q", ErrInvalidEvent, def.ID)
		}
		seen[def.ID] = true
		ev, err := Compile(def, log)
		if err != nil {
			return nil, fmt.Errorf("events.yaml: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (e *Event) EventID() string { return e.def.ID }
func (e *Event) Fired() int      { return e.fired }

func (e *Event) CanExecute() bool {
	return e.def.Occurrences == 0 || e.fired < e.def.Occurrences
}

func (e *Event) OnTurnStarted(g *galaxy.Game) {
	if e.def.At == AtTurnStarted {
		e.run(g)
	}
}

func (e *Event) OnTurnPhaseStarted(*galaxy.Game, engine.TurnPhase) {}

func (e *Event) OnTurnPhaseFinished(g *galaxy.Game, phase engine.TurnPhase) {
	if e.atPhase && phase == e.at {
		e.run(g)
	}
}

func (e *Event) OnTurnFinished(g *galaxy.Game) {
	if e.def.At == AtTurnFinished {
		e.run(g)
	}
}

func (e *Event) coolingDown(turn int) bool {
	return e.lastFired >= 0 && e.def.Cooldown > 0 && turn-e.lastFired < e.def.Cooldown
}

// run evaluates the condition against every civ (or colony) in ID order.
// Reaching the occurrence cap stops the pass.
func (e *Event) run(g *galaxy.Game) {
	if !e.CanExecute() || e.coolingDown(g.TurnNumber) {
		return
	}
	hit := false
	for _, civ := range g.Civilizations {
		m := g.Manager(civ.ID)
		if m == nil {
			continue
		}
		base := Env{Turn: g.TurnNumber, Civ: civEnv(g, civ, m)}
		if e.def.Scope == ScopeCiv {
			if e.match(base) {
				e.applyCiv(g, m)
				hit = true
				if !e.CanExecute() {
					break
				}
			}
			continue
		}
		for _, c := range g.ColoniesOf(civ.ID) {
			env := base
			env.Colony = colonyEnv(g, m, c)
			if !e.match(env) {
				continue
			}
			e.applyColony(g, m, c)
			hit = true
			if !e.CanExecute() {
				break
			}
		}
		if !e.CanExecute() {
			break
		}
	}
	if hit {
		e.lastFired = g.TurnNumber
	}
}

func (e *Event) match(env Env) bool {
	out, err := vm.Run(e.program, env)
	if err != nil {
		e.log.Warn("event condition error", zap.Error(err))
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (e *Event) applyCiv(g *galaxy.Game, m *galaxy.CivilizationManager) {
	e.fired++
	fx := e.def.Effect
	if fx.Credits != 0 {
		m.Credits.AdjustCurrent(fx.Credits)
	}
	if !fx.Resources.IsZero() {
		m.Resources.Credit(fx.Resources)
	}
	if fx.Morale != 0 || fx.Population != 0 || fx.Health != 0 {
		for _, c := range g.ColoniesOf(m.Civ.ID) {
			adjustColony(c, fx)
		}
	}
	e.post(g, m.Civ.ID, m.Civ.Name, nil)
}

func (e *Event) applyColony(g *galaxy.Game, m *galaxy.CivilizationManager, c *galaxy.Colony) {
	e.fired++
	fx := e.def.Effect
	if fx.Credits != 0 {
		m.Credits.AdjustCurrent(fx.Credits)
	}
	if !fx.Resources.IsZero() {
		m.Resources.Credit(fx.Resources)
	}
	adjustColony(c, fx)
	loc := c.Location
	e.post(g, m.Civ.ID, c.Name, &loc)
}

// adjustColony changes meters permanently so the effect survives the
// next meter reset.
func adjustColony(c *galaxy.Colony, fx Effect) {
	if fx.Morale != 0 {
		c.Morale.AdjustCurrent(fx.Morale)
		c.Morale.UpdateAndReset()
	}
	if fx.Population != 0 {
		c.Population.AdjustCurrent(fx.Population)
		c.Population.UpdateAndReset()
	}
	if fx.Health != 0 {
		c.Health.AdjustCurrent(fx.Health)
		c.Health.UpdateAndReset()
	}
}

func (e *Event) post(g *galaxy.Game, civID int, name string, loc *galaxy.MapLocation) {
	if e.def.Effect.SitRep == "" {
		return
	}
	g.PostSitRep(civID, galaxy.SitRepScripted, loc, "%s", strings.ReplaceAll(e.def.Effect.SitRep, "{name}", name))
}

func civEnv(g *galaxy.Game, civ *galaxy.Civilization, m *galaxy.CivilizationManager) CivEnv {
	atWar := false
	if g.Relations != nil {
		for _, other := range g.Civilizations {
			if g.Relations.AreAtWar(civ.ID, other.ID) {
				atWar = true
				break
			}
		}
	}
	return CivEnv{
		Key:        civ.Key,
		Name:       civ.Name,
		IsHuman:    civ.IsHuman,
		IsEmpire:   civ.IsEmpire(),
		Credits:    m.Credits.Current(),
		Colonies:   len(g.ColoniesOf(civ.ID)),
		Population: m.TotalPopulation.Current(),
		Research:   m.Research.CumulativePoints.Current(),
		AtWar:      atWar,
	}
}

func colonyEnv(g *galaxy.Game, m *galaxy.CivilizationManager, c *galaxy.Colony) ColonyEnv {
	star := ""
	if sys := g.SystemAt(c.Location); sys != nil {
		star = sys.StarType.String()
	}
	return ColonyEnv{
		Name:          c.Name,
		Star:          star,
		Population:    c.Population.Current(),
		MaxPopulation: c.MaxPopulation,
		Morale:        c.Morale.Current(),
		Health:        c.Health.Current(),
		Food:          c.FoodReserves.Current(),
		IsHome:        c.ID == m.HomeColonyID,
	}
}
