package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of the turn and sit-rep logs.
// Writes are queued to one writer goroutine and dropped when it falls
// behind; the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTurn   atomic.Uint64
	dropSitRep atomic.Uint64
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqSitRep
)

type req struct {
	kind reqKind

	turn   turnlog.TurnEntry
	sitrep galaxy.SitRep
}

type Stats struct {
	DropTurnTotal   uint64
	DropSitRepTotal uint64
	QueueDepth      int
	QueueCapacity   int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			turn INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			combats INTEGER NOT NULL,
			invasions INTEGER NOT NULL,
			fleets_moved INTEGER NOT NULL,
			ships_lost INTEGER NOT NULL,
			colonies_lost INTEGER NOT NULL,
			projects_forced INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS civ_history (
			turn INTEGER NOT NULL,
			civ_id INTEGER NOT NULL,
			civ_key TEXT NOT NULL,
			credits INTEGER NOT NULL,
			colonies INTEGER NOT NULL,
			population INTEGER NOT NULL,
			maintenance INTEGER NOT NULL,
			research INTEGER NOT NULL,
			PRIMARY KEY (turn, civ_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_civ_history_civ_turn ON civ_history(civ_id, turn);`,
		`CREATE TABLE IF NOT EXISTS sitreps (
			id TEXT PRIMARY KEY,
			turn INTEGER NOT NULL,
			civ_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			summary TEXT NOT NULL,
			x INTEGER,
			y INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sitreps_civ_turn ON sitreps(civ_id, turn);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropTurnTotal:   s.dropTurn.Load(),
		DropSitRepTotal: s.dropSitRep.Load(),
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
	}
}

func (s *SQLiteIndex) WriteTurn(entry turnlog.TurnEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, turn: entry}:
	default:
		s.dropTurn.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteSitRep(entry galaxy.SitRep) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqSitRep, sitrep: entry}:
	default:
		s.dropSitRep.Add(1)
	}
	return nil
}

// UpsertCatalogs stores the raw catalogs and the applied tuning so a
// turn index can be matched to the rules it was produced under.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" && cats != nil {
		for name, digest := range cats.Digests {
			b, err := os.ReadFile(filepath.Join(configDir, name))
			if err != nil {
				continue
			}
			rows = append(rows, kv{name: name, digest: digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTxx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if cats != nil {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('catalogs_digest',?)`, cats.Digest); err != nil {
			return err
		}
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(turn,digest,elapsed_ms,combats,invasions,fleets_moved,ships_lost,colonies_lost,projects_forced,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertCiv, _ := s.db.Prepare(`INSERT OR REPLACE INTO civ_history(turn,civ_id,civ_key,credits,colonies,population,maintenance,research) VALUES(?,?,?,?,?,?,?,?)`)
	insertSitRep, _ := s.db.Prepare(`INSERT OR REPLACE INTO sitreps(id,turn,civ_id,category,summary,x,y) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTurn != nil {
			_ = insertTurn.Close()
		}
		if insertCiv != nil {
			_ = insertCiv.Close()
		}
		if insertSitRep != nil {
			_ = insertSitRep.Close()
		}
	}()

	var (
		tx            *sqlx.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTurn:
			t := r.turn
			b, _ := json.Marshal(t)
			if insertTurn != nil {
				if _, err := tx.Stmt(insertTurn).Exec(
					t.Turn,
					t.Digest,
					t.ElapsedMs,
					t.Combats,
					t.Invasions,
					t.FleetsMoved,
					t.ShipsLost,
					t.ColoniesLost,
					t.ProjectsForced,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, c := range t.Civs {
				if insertCiv == nil {
					break
				}
				if _, err := tx.Stmt(insertCiv).Exec(t.Turn, c.CivID, c.Key, c.Credits, c.Colonies, c.Population, c.Maintenance, c.Research); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSitRep:
			sr := r.sitrep
			var x, y any
			if sr.Location != nil {
				x, y = sr.Location.X, sr.Location.Y
			}
			if insertSitRep != nil {
				if _, err := tx.Stmt(insertSitRep).Exec(sr.ID, sr.Turn, sr.CivID, string(sr.Category), sr.Summary, x, y); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
