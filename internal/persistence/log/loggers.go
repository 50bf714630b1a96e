package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
)

// DefaultTurnsPerFile is how many turns share one compressed segment.
const DefaultTurnsPerFile = 100

// JSONLZstdWriter appends JSON lines to zstd segments named after the
// first turn they cover.
type JSONLZstdWriter struct {
	baseDir      string
	prefix       string
	turnsPerFile int

	mu     sync.Mutex
	curSeg int
	open   bool
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string, turnsPerFile int) *JSONLZstdWriter {
	if turnsPerFile <= 0 {
		turnsPerFile = DefaultTurnsPerFile
	}
	return &JSONLZstdWriter{
		baseDir:      baseDir,
		prefix:       prefix,
		turnsPerFile: turnsPerFile,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(turn int, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seg := w.segment(turn)
	if !w.open || seg != w.curSeg {
		if err := w.rotateLocked(seg); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) segment(turn int) int {
	if turn < 0 {
		turn = 0
	}
	return turn / w.turnsPerFile * w.turnsPerFile
}

// Reopening a segment starts a new zstd frame; readers see one stream.
func (w *JSONLZstdWriter) rotateLocked(seg int) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForTurn(seg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curSeg = seg
	w.open = true
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.open = false
	return err1
}

// PathForTurn is the segment file holding turn.
func (w *JSONLZstdWriter) PathForTurn(turn int) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%06d.jsonl.zst", w.prefix, w.segment(turn)))
}

// ReadJSONL decodes every line of a segment into T.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return decodeLines[T](dec)
}

func decodeLines[T any](r io.Reader) ([]T, error) {
	var out []T
	jd := json.NewDecoder(r)
	for {
		var v T
		if err := jd.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

type CivTurn struct {
	CivID int    `json:"civ_id"`
	Key   string `json:"key"`
	galaxy.HistoryRecord
}

// TurnEntry is the summary of one processed turn.
type TurnEntry struct {
	Turn           int       `json:"turn"`
	Digest         string    `json:"digest"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	Combats        int       `json:"combats"`
	Invasions      int       `json:"invasions"`
	FleetsMoved    int       `json:"fleets_moved"`
	ShipsLost      int       `json:"ships_lost"`
	ColoniesLost   int       `json:"colonies_lost"`
	ProjectsForced int       `json:"projects_forced"`
	Civs           []CivTurn `json:"civs"`
}

// NewTurnEntry builds the entry for the turn rep describes from the
// history rows PostTurnOperations appended.
func NewTurnEntry(rep engine.TurnReport, g *galaxy.Game) TurnEntry {
	e := TurnEntry{
		Turn:           rep.Turn,
		Digest:         rep.Digest,
		ElapsedMs:      rep.Elapsed.Milliseconds(),
		Combats:        rep.Combats,
		Invasions:      rep.Invasions,
		FleetsMoved:    rep.FleetsMoved,
		ShipsLost:      rep.ShipsLost,
		ColoniesLost:   rep.ColoniesLost,
		ProjectsForced: rep.ProjectsForced,
	}
	for _, m := range g.Managers() {
		n := len(m.History)
		if n == 0 || m.History[n-1].Turn != rep.Turn {
			continue
		}
		e.Civs = append(e.Civs, CivTurn{CivID: m.Civ.ID, Key: m.Civ.Key, HistoryRecord: m.History[n-1]})
	}
	return e
}

// TurnLogger writes one JSONL entry per turn (compressed).
type TurnLogger struct{ w *JSONLZstdWriter }

func NewTurnLogger(gameDir string) *TurnLogger {
	return &TurnLogger{w: NewJSONLZstdWriter(filepath.Join(gameDir, "turns"), "turns", DefaultTurnsPerFile)}
}

func (l *TurnLogger) WriteTurn(v TurnEntry) error { return l.w.Write(v.Turn, v) }
func (l *TurnLogger) PathForTurn(turn int) string { return l.w.PathForTurn(turn) }
func (l *TurnLogger) Close() error                { return l.w.Close() }

// SitRepLogger writes every sit-rep entry (compressed).
type SitRepLogger struct{ w *JSONLZstdWriter }

func NewSitRepLogger(gameDir string) *SitRepLogger {
	return &SitRepLogger{w: NewJSONLZstdWriter(filepath.Join(gameDir, "sitreps"), "sitreps", DefaultTurnsPerFile)}
}

func (l *SitRepLogger) WriteSitRep(v galaxy.SitRep) error { return l.w.Write(v.Turn, v) }
func (l *SitRepLogger) PathForTurn(turn int) string       { return l.w.PathForTurn(turn) }
func (l *SitRepLogger) Close() error                      { return l.w.Close() }
