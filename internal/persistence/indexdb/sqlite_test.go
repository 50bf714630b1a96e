package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/tuning"
)

func TestSQLiteIndex_TurnsAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for turn := 1; turn <= 3; turn++ {
		_ = idx.WriteTurn(turnlog.TurnEntry{
			Turn: turn, Digest: "d", Combats: turn,
			Civs: []turnlog.CivTurn{
				{CivID: 0, Key: "FEDERATION", HistoryRecord: galaxy.HistoryRecord{Turn: turn, Credits: 100 * turn, Colonies: 1}},
				{CivID: 1, Key: "KLINGONS", HistoryRecord: galaxy.HistoryRecord{Turn: turn, Credits: 50}},
			},
		})
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	latest, err := idx.LatestTurn(ctx)
	if err != nil || latest != 3 {
		t.Fatalf("LatestTurn: got %d, %v want 3", latest, err)
	}
	row, ok, err := idx.Turn(ctx, 2)
	if err != nil || !ok || row.Combats != 2 {
		t.Fatalf("Turn 2: got %+v ok=%v err=%v", row, ok, err)
	}
	if _, ok, err := idx.Turn(ctx, 9); ok || err != nil {
		t.Fatalf("Turn 9: ok=%v err=%v", ok, err)
	}

	hist, err := idx.CivHistory(ctx, 0)
	if err != nil {
		t.Fatalf("CivHistory: %v", err)
	}
	if len(hist) != 3 || hist[2].Credits != 300 || hist[0].CivKey != "FEDERATION" {
		t.Fatalf("history: got %+v", hist)
	}
}

func TestSQLiteIndex_SitReps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	loc := galaxy.MapLocation{X: 4, Y: 5}
	_ = idx.WriteSitRep(galaxy.NewSitRep(1, 0, galaxy.SitRepNewColony, "Vulcan founded", &loc))
	_ = idx.WriteSitRep(galaxy.NewSitRep(2, 0, galaxy.SitRepCombat, "battle", nil))
	_ = idx.WriteSitRep(galaxy.NewSitRep(2, 1, galaxy.SitRepCombat, "battle", nil))
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	rows, err := idx.SitRepsForCiv(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("SitRepsForCiv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d want 2", len(rows))
	}
	if !rows[0].X.Valid || rows[0].X.Int64 != 4 || rows[0].Category != "new_colony" {
		t.Fatalf("first row: got %+v", rows[0])
	}
	if rows[1].X.Valid {
		t.Fatalf("second row should have no location")
	}
	rows, err = idx.SitRepsForCiv(context.Background(), 0, 2)
	if err != nil || len(rows) != 1 {
		t.Fatalf("from turn 2: got %d rows, %v", len(rows), err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTurn}

	_ = s.WriteTurn(turnlog.TurnEntry{Turn: 2})
	_ = s.WriteSitRep(galaxy.SitRep{Turn: 2})

	st := s.Stats()
	if st.DropTurnTotal != 1 {
		t.Fatalf("DropTurnTotal=%d want=1", st.DropTurnTotal)
	}
	if st.DropSitRepTotal != 1 {
		t.Fatalf("DropSitRepTotal=%d want=1", st.DropSitRepTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	const configDir = "../../../configs/catalogs"
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	if err := idx.UpsertCatalogs(configDir, cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	got, err := idx.CatalogDigest(context.Background(), "ships.json")
	if err != nil || got != cats.Digests["ships.json"] {
		t.Fatalf("ships digest: got %q, %v want %q", got, err, cats.Digests["ships.json"])
	}
	if got, _ := idx.CatalogDigest(context.Background(), "tuning"); len(got) != 64 {
		t.Fatalf("tuning digest: got %q", got)
	}
}
