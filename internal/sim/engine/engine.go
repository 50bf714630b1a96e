// Package engine runs a game turn: fifteen ordered phases over an explicit
// *galaxy.Game, with per-civ phases fanned out to a bounded worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/ai"
	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/pathfind"
	"supremacy.ai/internal/sim/tuning"
)

var ErrNilArgument = errors.New("engine: nil argument")

// ScriptedEvent is a game event driven by turn hooks. Events that stop
// reporting CanExecute are dropped at the start of the next turn.
type ScriptedEvent interface {
	EventID() string
	CanExecute() bool
	OnTurnStarted(g *galaxy.Game)
	OnTurnPhaseStarted(g *galaxy.Game, phase TurnPhase)
	OnTurnPhaseFinished(g *galaxy.Game, phase TurnPhase)
	OnTurnFinished(g *galaxy.Game)
}

type (
	PhaseFunc    func(g *galaxy.Game, phase TurnPhase)
	CombatFunc   func(g *galaxy.Game, a *combat.Arena)
	InvasionFunc func(g *galaxy.Game, ia *combat.InvasionArena)
	FleetFunc    func(g *galaxy.Game, f *galaxy.Fleet)
)

type Options struct {
	Logger     *zap.Logger
	Tuning     tuning.Tuning
	Pathfinder galaxy.Pathfinder
	Events     []ScriptedEvent
	// Resolver settles arenas nobody else handles. Defaults to an
	// AutoResolver.
	Resolver   *combat.AutoResolver
}

type GameEngine struct {
	log        *zap.Logger
	tun        tuning.Tuning
	pathfinder galaxy.Pathfinder
	resolver   *combat.AutoResolver
	players    *ai.Players

	combatDone chan struct{}

	mu                   sync.Mutex
	events               []ScriptedEvent
	phaseChanged         []PhaseFunc
	phaseFinished        []PhaseFunc
	combatOccurring      []CombatFunc
	invasionOccurring    []InvasionFunc
	fleetLocationChanged []FleetFunc

	lastAIErr  error
	lastDigest string
	lastReport TurnReport
}

// TurnReport counts what happened during the last DoTurn.
type TurnReport struct {
	Turn           int
	Combats        int
	Invasions      int
	FleetsMoved    int
	ShipsLost      int
	ColoniesLost   int
	ProjectsForced int
	Digest         string
	Elapsed        time.Duration
}

func New(opts Options) *GameEngine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tun := opts.Tuning
	if tun.Engine.ParallelismFactor == 0 {
		tun = tuning.Defaults()
	}
	pf := opts.Pathfinder
	if pf == nil {
		pf = &pathfind.AStar{}
	}
	res := opts.Resolver
	if res == nil {
		res = combat.NewAutoResolver(log.Named("combat"))
	}
	return &GameEngine{
		log:        log,
		tun:        tun,
		pathfinder: pf,
		resolver:   res,
		players:    ai.NewPlayers(tun, pf, log.Named("ai")),
		combatDone: make(chan struct{}, 1),
		events:     append([]ScriptedEvent(nil), opts.Events...),
	}
}

func (e *GameEngine) Tuning() tuning.Tuning { return e.tun }

func (e *GameEngine) AddEvent(ev ScriptedEvent) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *GameEngine) Events() []ScriptedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ScriptedEvent(nil), e.events...)
}

func (e *GameEngine) OnPhaseChanged(fn PhaseFunc) {
	e.mu.Lock()
	e.phaseChanged = append(e.phaseChanged, fn)
	e.mu.Unlock()
}

func (e *GameEngine) OnPhaseFinished(fn PhaseFunc) {
	e.mu.Lock()
	e.phaseFinished = append(e.phaseFinished, fn)
	e.mu.Unlock()
}

// OnCombatOccurring registers a combat handler. The engine waits for
// NotifyCombatFinished after firing each combat.
func (e *GameEngine) OnCombatOccurring(fn CombatFunc) {
	e.mu.Lock()
	e.combatOccurring = append(e.combatOccurring, fn)
	e.mu.Unlock()
}

// OnInvasionOccurring registers an invasion handler. The engine waits for
// NotifyCombatFinished only when the invader is human.
func (e *GameEngine) OnInvasionOccurring(fn InvasionFunc) {
	e.mu.Lock()
	e.invasionOccurring = append(e.invasionOccurring, fn)
	e.mu.Unlock()
}

func (e *GameEngine) OnFleetLocationChanged(fn FleetFunc) {
	e.mu.Lock()
	e.fleetLocationChanged = append(e.fleetLocationChanged, fn)
	e.mu.Unlock()
}

// NotifyCombatFinished releases the combat phase. It never blocks; extra
// signals are dropped.
func (e *GameEngine) NotifyCombatFinished() {
	select {
	case e.combatDone <- struct{}{}:
	default:
	}
}

// LastAIErrors returns the aggregate error of the last DoAIPlayers call.
func (e *GameEngine) LastAIErrors() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAIErr
}

// LastDigest is the state digest recorded at the end of the last turn.
func (e *GameEngine) LastDigest() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDigest
}

func (e *GameEngine) LastReport() TurnReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReport
}

func (e *GameEngine) firePhaseChanged(g *galaxy.Game, p TurnPhase) {
	e.mu.Lock()
	fns := append([]PhaseFunc(nil), e.phaseChanged...)
	events := append([]ScriptedEvent(nil), e.events...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(g, p)
	}
	if p == PhaseSendUpdates {
		return
	}
	for _, ev := range events {
		ev.OnTurnPhaseStarted(g, p)
	}
}

func (e *GameEngine) firePhaseFinished(g *galaxy.Game, p TurnPhase) {
	e.mu.Lock()
	fns := append([]PhaseFunc(nil), e.phaseFinished...)
	events := append([]ScriptedEvent(nil), e.events...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(g, p)
	}
	if g.TurnNumber <= 2 {
		return
	}
	for _, ev := range events {
		ev.OnTurnPhaseFinished(g, p)
	}
}

func (e *GameEngine) fireFleetLocationChanged(g *galaxy.Game, f *galaxy.Fleet) {
	e.mu.Lock()
	fns := e.fleetLocationChanged
	e.mu.Unlock()
	for _, fn := range fns {
		fn(g, f)
	}
}

// dropSpentEvents removes events that can no longer execute and returns
// the survivors.
func (e *GameEngine) dropSpentEvents() []ScriptedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.events[:0]
	for _, ev := range e.events {
		if ev.CanExecute() {
			kept = append(kept, ev)
		} else {
			e.log.Debug("scripted event dropped", zap.String("event", ev.EventID()))
		}
	}
	for i := len(kept); i < len(e.events); i++ {
		e.events[i] = nil
	}
	e.events = kept
	return append([]ScriptedEvent(nil), kept...)
}

type phaseStep struct {
	phase TurnPhase
	run   func(ctx context.Context, g *galaxy.Game, rep *TurnReport) error
}

func (e *GameEngine) steps() []phaseStep {
	return []phaseStep{
		{PhasePreTurnOperations, e.doPreTurnOperations},
		{PhaseFleetMovement, e.doFleetMovement},
		{PhaseDiplomacy, e.doDiplomacy},
		{PhaseCombat, e.doCombat},
		{PhasePopulationGrowth, e.doPopulation},
		{PhaseResearch, e.doResearch},
		{PhaseScrapping, e.doScrapping},
		{PhaseMaintenance, e.doMaintenance},
		{PhaseProduction, e.doProduction},
		{PhaseShipProduction, e.doShipProduction},
		{PhaseTrade, e.doTrade},
		{PhaseMorale, e.doMorale},
		{PhaseMapUpdates, e.doMapUpdates},
		{PhasePostTurnOperations, e.doPostTurnOperations},
	}
}

// DoTurn advances g by one turn. Phase failures are logged and returned
// joined after the turn completes; only cancellation of ctx stops a turn
// part way, which leaves g mid-turn.
func (e *GameEngine) DoTurn(ctx context.Context, g *galaxy.Game) error {
	if g == nil {
		return fmt.Errorf("%w: game", ErrNilArgument)
	}
	start := time.Now()
	rep := TurnReport{Turn: g.TurnNumber}

	events := e.dropSpentEvents()
	if g.TurnNumber >= 1 {
		for _, ev := range events {
			ev.OnTurnStarted(g)
		}
	}

	var errs []error
	for _, st := range e.steps() {
		e.firePhaseChanged(g, st.phase)
		err := st.run(ctx, g, &rep)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("turn %d %s: %w", rep.Turn, st.phase, ctxErr)
			}
			e.log.Error("phase failed", zap.Int("turn", rep.Turn), zap.Stringer("phase", st.phase), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", st.phase, err))
		}
		e.firePhaseFinished(g, st.phase)
	}

	e.firePhaseChanged(g, PhaseSendUpdates)
	for _, ev := range e.Events() {
		ev.OnTurnFinished(g)
	}

	rep.Digest = Digest(g)
	rep.Elapsed = time.Since(start)
	e.mu.Lock()
	e.lastDigest = rep.Digest
	e.lastReport = rep
	e.mu.Unlock()
	e.log.Info("turn processed",
		zap.Int("turn", rep.Turn),
		zap.Int("combats", rep.Combats),
		zap.Int("invasions", rep.Invasions),
		zap.Int("ships_lost", rep.ShipsLost),
		zap.String("digest", rep.Digest),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return errors.Join(errs...)
}
