package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
	"supremacy.ai/internal/sim/tuning"
)

type recordingEvent struct {
	id        string
	spent     bool
	started   int
	finished  int
	phaseIn   []TurnPhase
	phaseDone []TurnPhase
}

func (ev *recordingEvent) EventID() string             { return ev.id }
func (ev *recordingEvent) CanExecute() bool            { return !ev.spent }
func (ev *recordingEvent) OnTurnStarted(*galaxy.Game)  { ev.started++ }
func (ev *recordingEvent) OnTurnFinished(*galaxy.Game) { ev.finished++ }

func (ev *recordingEvent) OnTurnPhaseStarted(_ *galaxy.Game, p TurnPhase) {
	ev.phaseIn = append(ev.phaseIn, p)
}

func (ev *recordingEvent) OnTurnPhaseFinished(_ *galaxy.Game, p TurnPhase) {
	ev.phaseDone = append(ev.phaseDone, p)
}

func newEngine(t *testing.T, tun tuning.Tuning) *GameEngine {
	t.Helper()
	return New(Options{Tuning: tun})
}

func TestDoTurn_PhaseOrder(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	e := newEngine(t, tuning.Defaults())

	var changed, finished []TurnPhase
	e.OnPhaseChanged(func(_ *galaxy.Game, p TurnPhase) { changed = append(changed, p) })
	e.OnPhaseFinished(func(_ *galaxy.Game, p TurnPhase) { finished = append(finished, p) })

	if err := e.DoTurn(context.Background(), f.Game); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	want := Phases()
	if len(changed) != len(want) {
		t.Fatalf("phase changes: got %d want %d", len(changed), len(want))
	}
	for i, p := range want {
		if changed[i] != p {
			t.Fatalf("phase %d: got %s want %s", i, changed[i], p)
		}
	}
	if len(finished) != len(want)-1 {
		t.Fatalf("phase finishes: got %d want %d", len(finished), len(want)-1)
	}
	if finished[len(finished)-1] != PhasePostTurnOperations {
		t.Fatalf("last finished phase: got %s want %s", finished[len(finished)-1], PhasePostTurnOperations)
	}
}

func TestDoTurn_ScriptedEventHooks(t *testing.T) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Game.TurnNumber = 3
	live := &recordingEvent{id: "live"}
	spent := &recordingEvent{id: "spent", spent: true}
	e := New(Options{Tuning: tuning.Defaults(), Events: []ScriptedEvent{live, spent}})

	if err := e.DoTurn(context.Background(), f.Game); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if got := len(e.Events()); got != 1 {
		t.Fatalf("events after turn: got %d want 1", got)
	}
	if spent.started != 0 || len(spent.phaseIn) != 0 {
		t.Fatalf("spent event should not receive hooks")
	}
	if live.started != 1 || live.finished != 1 {
		t.Fatalf("turn hooks: started=%d finished=%d want 1/1", live.started, live.finished)
	}
	if got, want := len(live.phaseIn), len(Phases())-1; got != want {
		t.Fatalf("phase started hooks: got %d want %d", got, want)
	}
	if got, want := len(live.phaseDone), len(Phases())-1; got != want {
		t.Fatalf("phase finished hooks: got %d want %d", got, want)
	}
}

func TestDoTurn_EarlyTurnsSkipPhaseFinishedHook(t *testing.T) {
	f := galaxytest.New(t)
	f.Game.TurnNumber = 1
	ev := &recordingEvent{id: "early"}
	e := New(Options{Tuning: tuning.Defaults(), Events: []ScriptedEvent{ev}})

	if err := e.DoTurn(context.Background(), f.Game); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if len(ev.phaseDone) != 0 {
		t.Fatalf("phase finished hooks on turn 1: got %d want 0", len(ev.phaseDone))
	}
	if len(ev.phaseIn) == 0 {
		t.Fatalf("phase started hooks should still fire")
	}
}

func TestDoTurn_NilGame(t *testing.T) {
	e := newEngine(t, tuning.Defaults())
	if err := e.DoTurn(context.Background(), nil); !errors.Is(err, ErrNilArgument) {
		t.Fatalf("nil game: got %v want ErrNilArgument", err)
	}
}

func TestDoTurn_AdvancesTurnAndDropsEmptyFleets(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	g.TurnNumber = 1
	empty := g.SpawnFleet(galaxytest.Federation, galaxy.MapLocation{X: 9, Y: 9}, "Empty")

	e := newEngine(t, tuning.Defaults())
	if err := e.DoTurn(context.Background(), g); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if g.TurnNumber != 2 {
		t.Fatalf("turn: got %d want 2", g.TurnNumber)
	}
	if _, ok := galaxy.Lookup[*galaxy.Fleet](g.Universe, empty.ID); ok {
		t.Fatalf("empty fleet should be removed")
	}
	if got := len(g.Manager(galaxytest.Federation).History); got != 1 {
		t.Fatalf("history records: got %d want 1", got)
	}
}

func TestDoTurn_DeadColonyLosesSeat(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	home := f.Colonize(galaxytest.Federation, f.Sol, 100)
	vulcan := f.Colonize(galaxytest.Federation, f.AddSystem("Vulcan", galaxy.MapLocation{X: 5, Y: 5}, galaxy.StarOrange, 80), 40)
	home.Population.SetCurrent(0)
	home.Population.UpdateAndReset()

	e := newEngine(t, tuning.Defaults())
	if err := e.DoTurn(context.Background(), g); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if g.ColonyOfSystem(f.Sol) != nil {
		t.Fatalf("a colony with no population should be destroyed")
	}
	if got := g.Manager(galaxytest.Federation).SeatOfGovernmentID; got != vulcan.ID {
		t.Fatalf("seat of government: got %d want %d", got, vulcan.ID)
	}
}

func TestDoPreTurnOperations_Idempotent(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	f.ColonizeHomes()
	f.Ship(galaxytest.Federation, "CRUISER", galaxy.MapLocation{X: 4, Y: 4})
	e := newEngine(t, tuning.Defaults())

	var rep TurnReport
	if err := e.doPreTurnOperations(context.Background(), g, &rep); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	once := Digest(g)
	if err := e.doPreTurnOperations(context.Background(), g, &rep); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if twice := Digest(g); twice != once {
		t.Fatalf("second pre-turn pass changed state: %s vs %s", twice, once)
	}
}

func TestDigest_Deterministic(t *testing.T) {
	run := func() string {
		f := galaxytest.New(t)
		f.ColonizeHomes()
		f.Contact(galaxytest.Federation, galaxytest.Klingons)
		f.Ship(galaxytest.Federation, "SCOUT", f.Sol.Location)
		f.Ship(galaxytest.Klingons, "CRUISER", f.QonoS.Location)
		e := newEngine(t, tuning.Defaults())
		ctx := context.Background()
		if err := e.DoPreGameSetup(ctx, f.Game); err != nil {
			t.Fatalf("DoPreGameSetup: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := e.DoAIPlayers(ctx, f.Game, nil); err != nil {
				t.Fatalf("DoAIPlayers: %v", err)
			}
			if err := e.DoTurn(ctx, f.Game); err != nil {
				t.Fatalf("DoTurn: %v", err)
			}
		}
		if e.LastDigest() != Digest(f.Game) {
			t.Fatalf("recorded digest differs from current state")
		}
		return e.LastDigest()
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("digests differ: %s vs %s", a, b)
	}
}

// warZone sets up two hostile cruisers sharing a sector.
func warZone(t *testing.T) (*galaxytest.Fixture, *galaxy.Ship) {
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	l := galaxy.MapLocation{X: 9, Y: 9}
	fed, _ := f.Ship(galaxytest.Federation, "CRUISER", l)
	f.Ship(galaxytest.Klingons, "CRUISER", l)
	return f, fed
}

func TestDoCombat_HandlerReleasesWait(t *testing.T) {
	f, fed := warZone(t)
	tun := tuning.Defaults()
	tun.Engine.CombatWaitTimeoutMs = 0
	e := newEngine(t, tun)
	calls := 0
	e.OnCombatOccurring(func(*galaxy.Game, *combat.Arena) {
		calls++
		e.NotifyCombatFinished()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.DoTurn(ctx, f.Game); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if calls != 1 || e.LastReport().Combats != 1 {
		t.Fatalf("combat handler calls=%d combats=%d want 1/1", calls, e.LastReport().Combats)
	}
	if got := fed.Hull.Current(); got != fed.Hull.Max() {
		t.Fatalf("handled combat should not be auto-resolved: hull %d", got)
	}
}

func TestDoCombat_TimeoutAutoResolves(t *testing.T) {
	f, fed := warZone(t)
	tun := tuning.Defaults()
	tun.Engine.CombatWaitTimeoutMs = 20
	e := newEngine(t, tun)
	e.OnCombatOccurring(func(*galaxy.Game, *combat.Arena) {})

	if err := e.DoTurn(context.Background(), f.Game); err != nil {
		t.Fatalf("DoTurn: %v", err)
	}
	if _, ok := galaxy.Lookup[*galaxy.Ship](f.Game.Universe, fed.ID); ok && fed.Hull.Current() == fed.Hull.Max() {
		t.Fatalf("timed out combat should be auto-resolved")
	}
}

func TestDoCombat_CancelStopsTurn(t *testing.T) {
	f, _ := warZone(t)
	tun := tuning.Defaults()
	tun.Engine.CombatWaitTimeoutMs = 0
	e := newEngine(t, tun)
	e.OnCombatOccurring(func(*galaxy.Game, *combat.Arena) {})
	turn := f.Game.TurnNumber

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := e.DoTurn(ctx, f.Game)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cancelled turn: got %v want DeadlineExceeded", err)
	}
	if f.Game.TurnNumber != turn {
		t.Fatalf("cancelled turn should not advance the counter")
	}
}

func TestParallelForEach_CollectsFailuresAndPanics(t *testing.T) {
	boom := errors.New("boom")
	ran := make([]bool, 5)
	err := parallelForEach(context.Background(), 2, []int{0, 1, 2, 3, 4}, func(i int) error {
		ran[i] = true
		switch i {
		case 1:
			return boom
		case 3:
			panic("bad item")
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the item error, got %v", err)
	}
	for i, ok := range ran {
		if !ok {
			t.Fatalf("item %d did not run", i)
		}
	}
	if err == nil || len(err.Error()) == len(boom.Error()) {
		t.Fatalf("expected the panic to be reported too: %v", err)
	}
}
