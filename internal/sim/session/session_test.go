package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/protocol"
	"supremacy.ai/internal/sim/encoding"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
	"supremacy.ai/internal/sim/tuning"
)

type memTurnLog struct {
	mu      sync.Mutex
	entries []turnlog.TurnEntry
}

func (l *memTurnLog) WriteTurn(e turnlog.TurnEntry) error {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return nil
}

func (l *memTurnLog) turns() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Turn)
	}
	return out
}

func newFixture(t *testing.T, humans ...int) *galaxytest.Fixture {
	t.Helper()
	f := galaxytest.New(t)
	f.ColonizeHomes()
	f.Game.TurnNumber = 1
	for _, id := range humans {
		f.Game.Civ(id).IsHuman = true
	}
	return f
}

func newSession(t *testing.T, f *galaxytest.Fixture, tun tuning.Tuning, opts Options) *Session {
	t.Helper()
	opts.ID = "test"
	opts.Game = f.Game
	opts.Engine = engine.New(engine.Options{Tuning: tun})
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func start(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run: %v", err)
		}
	})
}

func join(t *testing.T, s *Session, name, civKey string) (JoinResponse, chan []byte) {
	t.Helper()
	out := make(chan []byte, 256)
	resp := make(chan JoinResponse, 1)
	s.Join() <- JoinRequest{Name: name, CivKey: civKey, Out: out, Resp: resp}
	select {
	case r := <-resp:
		return r, out
	case <-time.After(5 * time.Second):
		t.Fatalf("join timed out")
	}
	return JoinResponse{}, nil
}

// next reads messages from out until one of type typ arrives and decodes
// it into v.
func next(t *testing.T, out chan []byte, typ string, v any) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if base.Type != typ {
				continue
			}
			if err := json.Unmarshal(b, v); err != nil {
				t.Fatalf("unmarshal %s: %v", typ, err)
			}
			return
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func endTurn(s *Session, playerID string, turn int) {
	s.Inbox() <- Envelope{PlayerID: playerID, EndTurn: &protocol.EndTurnMsg{
		Type: protocol.TypeEndTurn, ProtocolVersion: protocol.Version, Turn: turn,
	}}
}

func TestSession_EndTurnRunsTurn(t *testing.T) {
	f := newFixture(t, galaxytest.Federation)
	logs := &memTurnLog{}
	s := newSession(t, f, tuning.Defaults(), Options{TurnLoggers: []TurnLogger{logs}})
	start(t, s)

	resp, out := join(t, s, "picard", "")
	if resp.Code != "" {
		t.Fatalf("join rejected: %s %s", resp.Code, resp.Message)
	}
	w := resp.Welcome
	if w.CivKey != "FEDERATION" || w.GameParams.Turn != 1 || w.GameParams.MapWidth != 20 {
		t.Fatalf("welcome: got %+v", w)
	}
	if len(w.Civs) != 3 || w.Civs[0].Player != "picard" {
		t.Fatalf("welcome civs: got %+v", w.Civs)
	}

	endTurn(s, w.PlayerID, 1)
	var ack protocol.AckMsg
	next(t, out, protocol.TypeAck, &ack)
	if !ack.Accepted || ack.Turn != 1 {
		t.Fatalf("ack: got %+v", ack)
	}

	var turn protocol.TurnMsg
	next(t, out, protocol.TypeTurn, &turn)
	if turn.Turn != 2 {
		t.Fatalf("turn: got %d want 2", turn.Turn)
	}
	if turn.Civ.Key != "FEDERATION" || len(turn.Colonies) != 1 || turn.Colonies[0].Name != "Sol" {
		t.Fatalf("turn view: got %+v", turn)
	}
	vis, err := encoding.DecodeRLE(turn.Map.Visibility, 20*20)
	if err != nil {
		t.Fatalf("visibility: %v", err)
	}
	if vis[2*20+2] == galaxy.VisUnknown {
		t.Fatalf("home sector should be scanned")
	}
	if got := logs.turns(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("logged turns: got %v want [1]", got)
	}
}

func TestSession_RejectsStaleAndRepeatedEndTurn(t *testing.T) {
	f := newFixture(t, galaxytest.Federation, galaxytest.Klingons)
	s := newSession(t, f, tuning.Defaults(), Options{})
	start(t, s)

	resp, out := join(t, s, "picard", "FEDERATION")
	_, _ = join(t, s, "worf", "KLINGONS")
	id := resp.Welcome.PlayerID

	endTurn(s, id, 7)
	var ack protocol.AckMsg
	next(t, out, protocol.TypeAck, &ack)
	if ack.Accepted || ack.Code != protocol.ErrStale {
		t.Fatalf("stale end turn: got %+v", ack)
	}

	endTurn(s, id, 1)
	next(t, out, protocol.TypeAck, &ack)
	if !ack.Accepted {
		t.Fatalf("end turn: got %+v", ack)
	}
	endTurn(s, id, 1)
	next(t, out, protocol.TypeAck, &ack)
	if ack.Accepted || ack.Code != protocol.ErrConflict {
		t.Fatalf("repeated end turn: got %+v", ack)
	}
}

func TestSession_JoinRulesAndResume(t *testing.T) {
	f := newFixture(t, galaxytest.Federation)
	s := newSession(t, f, tuning.Defaults(), Options{})
	start(t, s)

	if r, _ := join(t, s, "kor", "KLINGONS"); r.Code != protocol.ErrCivNotFound {
		t.Fatalf("computer civ: got %q want %q", r.Code, protocol.ErrCivNotFound)
	}
	first, _ := join(t, s, "picard", "")
	if first.Code != "" {
		t.Fatalf("join: %s", first.Code)
	}
	if r, _ := join(t, s, "riker", ""); r.Code != protocol.ErrGameFull {
		t.Fatalf("full game: got %q want %q", r.Code, protocol.ErrGameFull)
	}
	if r, _ := join(t, s, "riker", "FEDERATION"); r.Code != protocol.ErrCivTaken {
		t.Fatalf("taken civ: got %q want %q", r.Code, protocol.ErrCivTaken)
	}

	s.Leave() <- first.Welcome.PlayerID
	out := make(chan []byte, 16)
	resp := make(chan JoinResponse, 1)
	s.Attach() <- AttachRequest{ResumeToken: first.Welcome.ResumeToken, Out: out, Resp: resp}
	r := <-resp
	if r.Code != "" || r.Welcome.PlayerID != first.Welcome.PlayerID {
		t.Fatalf("resume: got %+v", r)
	}
	if r.Welcome.ResumeToken == first.Welcome.ResumeToken {
		t.Fatalf("resume token should rotate")
	}

	s.Attach() <- AttachRequest{ResumeToken: first.Welcome.ResumeToken, Out: out, Resp: resp}
	if r := <-resp; r.Code != protocol.ErrBadResume {
		t.Fatalf("old token: got %q want %q", r.Code, protocol.ErrBadResume)
	}
}

func TestSession_CombatWaitsForPlayers(t *testing.T) {
	f := newFixture(t, galaxytest.Federation, galaxytest.Klingons)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	l := galaxy.MapLocation{X: 9, Y: 9}
	f.Ship(galaxytest.Federation, "CRUISER", l)
	f.Ship(galaxytest.Klingons, "CRUISER", l)

	tun := tuning.Defaults()
	tun.Session.CombatAckTimeoutMs = 60000
	s := newSession(t, f, tun, Options{})
	start(t, s)

	fed, fedOut := join(t, s, "picard", "FEDERATION")
	kli, kliOut := join(t, s, "worf", "KLINGONS")
	endTurn(s, fed.Welcome.PlayerID, 1)
	endTurn(s, kli.Welcome.PlayerID, 1)

	var ev protocol.EventMsg
	for {
		ev = protocol.EventMsg{}
		next(t, fedOut, protocol.TypeEvent, &ev)
		if ev.Event["type"] == "COMBAT" {
			break
		}
	}
	id, _ := ev.Event["combat_id"].(string)
	if id == "" {
		t.Fatalf("combat event without id: %+v", ev)
	}
	s.CombatFinished(fed.Welcome.PlayerID, id)
	s.CombatFinished(kli.Welcome.PlayerID, id)

	var turn protocol.TurnMsg
	next(t, kliOut, protocol.TypeTurn, &turn)
	if turn.Summary.Combats != 1 {
		t.Fatalf("combats: got %d want 1", turn.Summary.Combats)
	}
}

// nextAck skips ACKs for other message types.
func nextAck(t *testing.T, out chan []byte, ackFor string) protocol.AckMsg {
	t.Helper()
	for {
		var ack protocol.AckMsg
		next(t, out, protocol.TypeAck, &ack)
		if ack.AckFor == ackFor {
			return ack
		}
	}
}

func TestSession_CombatAckRejections(t *testing.T) {
	f := newFixture(t, galaxytest.Federation, galaxytest.Klingons, galaxytest.Bajorans)
	f.Contact(galaxytest.Federation, galaxytest.Klingons)
	f.Registry.DeclareWar(galaxytest.Federation, galaxytest.Klingons)
	l := galaxy.MapLocation{X: 9, Y: 9}
	f.Ship(galaxytest.Federation, "CRUISER", l)
	f.Ship(galaxytest.Klingons, "CRUISER", l)

	tun := tuning.Defaults()
	tun.Session.CombatAckTimeoutMs = 60000
	s := newSession(t, f, tun, Options{})
	start(t, s)

	fed, fedOut := join(t, s, "picard", "FEDERATION")
	kli, kliOut := join(t, s, "worf", "KLINGONS")
	baj, bajOut := join(t, s, "kira", "BAJORANS")
	for _, id := range []string{fed.Welcome.PlayerID, kli.Welcome.PlayerID, baj.Welcome.PlayerID} {
		endTurn(s, id, 1)
	}

	var ev protocol.EventMsg
	for {
		ev = protocol.EventMsg{}
		next(t, fedOut, protocol.TypeEvent, &ev)
		if ev.Event["type"] == "COMBAT" {
			break
		}
	}
	id, _ := ev.Event["combat_id"].(string)

	s.CombatFinished(baj.Welcome.PlayerID, id)
	if ack := nextAck(t, bajOut, protocol.TypeCombatFinished); ack.Accepted || ack.Code != protocol.ErrNoPermission {
		t.Fatalf("bystander ack: got %+v", ack)
	}
	s.CombatFinished(fed.Welcome.PlayerID, "no-such-combat")
	if ack := nextAck(t, fedOut, protocol.TypeCombatFinished); ack.Code != protocol.ErrInvalidTarget {
		t.Fatalf("unknown combat ack: got %+v", ack)
	}

	s.CombatFinished(fed.Welcome.PlayerID, id)
	s.CombatFinished(kli.Welcome.PlayerID, id)
	var turn protocol.TurnMsg
	next(t, kliOut, protocol.TypeTurn, &turn)

	s.CombatFinished(kli.Welcome.PlayerID, id)
	if ack := nextAck(t, kliOut, protocol.TypeCombatFinished); ack.Code != protocol.ErrInvalidTarget {
		t.Fatalf("late ack: got %+v", ack)
	}
}

func TestSession_TurnTimerRunsTurn(t *testing.T) {
	f := newFixture(t, galaxytest.Federation)
	tun := tuning.Defaults()
	tun.Session.TurnTimerSec = 1
	s := newSession(t, f, tun, Options{})
	start(t, s)

	_, out := join(t, s, "picard", "")
	var turn protocol.TurnMsg
	next(t, out, protocol.TypeTurn, &turn)
	if turn.Turn != 2 || turn.TurnDeadlineMs == 0 {
		t.Fatalf("timed turn: got turn %d deadline %d", turn.Turn, turn.TurnDeadlineMs)
	}
}

func TestSession_StepOnceWritesLogs(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	turns := turnlog.NewTurnLogger(dir)
	sitreps := turnlog.NewSitRepLogger(dir)
	s := newSession(t, f, tuning.Defaults(), Options{
		TurnLoggers:   []TurnLogger{turns},
		SitRepLoggers: []SitRepLogger{sitreps},
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		turn, digest, err := s.StepOnce(ctx)
		if err != nil {
			t.Fatalf("StepOnce: %v", err)
		}
		if turn != i+1 || digest == "" {
			t.Fatalf("step %d: got turn %d digest %q", i, turn, digest)
		}
	}
	if err := turns.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sitreps.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := turnlog.ReadJSONL[turnlog.TurnEntry](turns.PathForTurn(1))
	if err != nil {
		t.Fatalf("read turns: %v", err)
	}
	if len(entries) != 3 || entries[2].Turn != 3 {
		t.Fatalf("turn entries: got %d", len(entries))
	}
	if len(entries[0].Civs) != 3 {
		t.Fatalf("civ rows: got %d want 3", len(entries[0].Civs))
	}
	if f.Game.TurnNumber != 4 {
		t.Fatalf("game turn: got %d want 4", f.Game.TurnNumber)
	}
}

func TestSession_StepOnceAfterStop(t *testing.T) {
	f := newFixture(t)
	s := newSession(t, f, tuning.Defaults(), Options{})
	s.Stop()
	if _, _, err := s.StepOnce(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("StepOnce after Stop: got %v want ErrClosed", err)
	}
	if f.Game.TurnNumber != 1 {
		t.Fatalf("turn advanced after Stop: %d", f.Game.TurnNumber)
	}
}

func TestEventLog_SinceFiltersAudience(t *testing.T) {
	l := newEventLog(3)
	l.add(protocol.Event{"n": 1}, nil)
	l.add(protocol.Event{"n": 2}, []int{1})
	l.add(protocol.Event{"n": 3}, []int{0})
	l.add(protocol.Event{"n": 4}, nil)

	items, next, gap := l.since(0, 0, 10, nil)
	if len(items) != 2 || items[0].Cursor != 3 || items[1].Cursor != 4 {
		t.Fatalf("since 0: got %+v", items)
	}
	if next != 4 || !gap {
		t.Fatalf("next cursor: got %d gap %v want 4 true", next, gap)
	}
	items, next, _ = l.since(0, 1, 1, nil)
	if len(items) != 1 || items[0].Cursor != 2 || next != 2 {
		t.Fatalf("limit 1: got %+v next %d", items, next)
	}
	items, next, gap = l.since(next, 1, 1, nil)
	if len(items) != 1 || items[0].Cursor != 4 || next != 4 || gap {
		t.Fatalf("after 2 for civ 1: got %+v next %d gap %v", items, next, gap)
	}
}

func TestEventLog_SinceFiltersTypes(t *testing.T) {
	l := newEventLog(10)
	l.add(protocol.Event{"type": "PHASE"}, nil)
	l.add(protocol.Event{"type": "COMBAT"}, nil)
	l.add(protocol.Event{"type": "PHASE"}, nil)

	items, next, _ := l.since(0, 0, 10, []string{"COMBAT"})
	if len(items) != 1 || items[0].Cursor != 2 {
		t.Fatalf("combat only: got %+v", items)
	}
	if next != 3 {
		t.Fatalf("next cursor: got %d want 3", next)
	}
}
