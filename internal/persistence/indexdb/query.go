package indexdb

import (
	"context"
	"database/sql"
	"errors"
)

type TurnRow struct {
	Turn           int    `db:"turn"`
	Digest         string `db:"digest"`
	ElapsedMs      int64  `db:"elapsed_ms"`
	Combats        int    `db:"combats"`
	Invasions      int    `db:"invasions"`
	FleetsMoved    int    `db:"fleets_moved"`
	ShipsLost      int    `db:"ships_lost"`
	ColoniesLost   int    `db:"colonies_lost"`
	ProjectsForced int    `db:"projects_forced"`
}

type CivHistoryRow struct {
	Turn        int    `db:"turn"`
	CivID       int    `db:"civ_id"`
	CivKey      string `db:"civ_key"`
	Credits     int    `db:"credits"`
	Colonies    int    `db:"colonies"`
	Population  int    `db:"population"`
	Maintenance int    `db:"maintenance"`
	Research    int    `db:"research"`
}

type SitRepRow struct {
	ID       string        `db:"id"`
	Turn     int           `db:"turn"`
	CivID    int           `db:"civ_id"`
	Category string        `db:"category"`
	Summary  string        `db:"summary"`
	X        sql.NullInt64 `db:"x"`
	Y        sql.NullInt64 `db:"y"`
}

// LatestTurn returns the highest indexed turn, or 0 for an empty index.
func (s *SQLiteIndex) LatestTurn(ctx context.Context) (int, error) {
	var turn sql.NullInt64
	if err := s.db.GetContext(ctx, &turn, `SELECT MAX(turn) FROM turns`); err != nil {
		return 0, err
	}
	return int(turn.Int64), nil
}

func (s *SQLiteIndex) Turn(ctx context.Context, turn int) (TurnRow, bool, error) {
	var row TurnRow
	err := s.db.GetContext(ctx, &row, `SELECT turn,digest,elapsed_ms,combats,invasions,fleets_moved,ships_lost,colonies_lost,projects_forced FROM turns WHERE turn = ?`, turn)
	if errors.Is(err, sql.ErrNoRows) {
		return row, false, nil
	}
	return row, err == nil, err
}

// CivHistory lists a civ's per-turn rows in turn order.
func (s *SQLiteIndex) CivHistory(ctx context.Context, civID int) ([]CivHistoryRow, error) {
	var rows []CivHistoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM civ_history WHERE civ_id = ? ORDER BY turn`, civID)
	return rows, err
}

// SitRepsForCiv lists a civ's sit-reps from fromTurn on, oldest first.
func (s *SQLiteIndex) SitRepsForCiv(ctx context.Context, civID, fromTurn int) ([]SitRepRow, error) {
	var rows []SitRepRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM sitreps WHERE civ_id = ? AND turn >= ? ORDER BY turn, rowid`, civID, fromTurn)
	return rows, err
}

func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var digest string
	err := s.db.GetContext(ctx, &digest, `SELECT digest FROM catalogs WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return digest, err
}
