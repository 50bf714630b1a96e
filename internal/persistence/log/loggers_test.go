package log

import (
	"os"
	"path/filepath"
	"testing"

	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/galaxy/galaxytest"
)

func TestJSONLZstdWriter_SegmentsByTurn(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x", 10)
	for _, turn := range []int{1, 9, 10, 11, 25} {
		if err := w.Write(turn, map[string]int{"turn": turn}); err != nil {
			t.Fatalf("Write %d: %v", turn, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := map[string]int{"x-000000.jsonl.zst": 2, "x-000010.jsonl.zst": 2, "x-000020.jsonl.zst": 1}
	for name, n := range want {
		got, err := ReadJSONL[map[string]int](filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("ReadJSONL %s: %v", name, err)
		}
		if len(got) != n {
			t.Fatalf("%s: got %d lines want %d", name, len(got), n)
		}
	}
}

func TestJSONLZstdWriter_ReopenAppends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "x", 0)
		if err := w.Write(5, map[string]int{"i": i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	got, err := ReadJSONL[map[string]int](filepath.Join(dir, "x-000000.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(got) != 2 || got[1]["i"] != 1 {
		t.Fatalf("lines: got %v", got)
	}
}

func TestTurnLogger_WritesHistory(t *testing.T) {
	f := galaxytest.New(t)
	g := f.Game
	for _, m := range g.Managers() {
		m.History = append(m.History, galaxy.HistoryRecord{Turn: 4, Credits: 100 + m.Civ.ID})
	}
	g.Manager(galaxytest.Bajorans).History[0].Turn = 3

	dir := t.TempDir()
	l := NewTurnLogger(dir)
	entry := NewTurnEntry(engine.TurnReport{Turn: 4, Digest: "abc", Combats: 2}, g)
	if len(entry.Civs) != 2 {
		t.Fatalf("civ rows: got %d want 2", len(entry.Civs))
	}
	if err := l.WriteTurn(entry); err != nil {
		t.Fatalf("WriteTurn: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := ReadJSONL[TurnEntry](l.PathForTurn(4))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(got) != 1 || got[0].Digest != "abc" || got[0].Combats != 2 || got[0].Civs[1].Credits != 101 {
		t.Fatalf("entry: got %+v", got)
	}
}

func TestSitRepLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewSitRepLogger(dir)
	loc := galaxy.MapLocation{X: 1, Y: 2}
	if err := l.WriteSitRep(galaxy.NewSitRep(7, 1, galaxy.SitRepCombat, "battle", &loc)); err != nil {
		t.Fatalf("WriteSitRep: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(l.PathForTurn(7)); err != nil {
		t.Fatalf("segment missing: %v", err)
	}
	got, err := ReadJSONL[galaxy.SitRep](l.PathForTurn(7))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(got) != 1 || got[0].Summary != "battle" || got[0].Location == nil || *got[0].Location != loc {
		t.Fatalf("sitrep: got %+v", got)
	}
}
