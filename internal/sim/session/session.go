// Package session runs a game for connected players: it seats players on
// human civs, waits for every one of them to end the turn (or for the turn
// timer), then plays the computer civs and processes the turn.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/protocol"
	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/tuning"
)

var ErrClosed = errors.New("session: closed")

type TurnLogger interface {
	WriteTurn(entry turnlog.TurnEntry) error
}

type SitRepLogger interface {
	WriteSitRep(entry galaxy.SitRep) error
}

type Options struct {
	ID     string
	Logger *zap.Logger
	Game   *galaxy.Game
	Engine *engine.GameEngine
	// Resolver settles the arenas this session is notified of. It should
	// be the one the engine falls back to.
	Resolver *combat.AutoResolver

	Catalogs     *catalogs.Catalogs
	TuningDigest string
	EventsDigest string

	TurnLoggers   []TurnLogger
	SitRepLoggers []SitRepLogger
}

type JoinRequest struct {
	Name   string
	CivKey string
	Out    chan []byte
	Resp   chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

// JoinResponse carries either a welcome or a rejection code.
type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
	Code     string
	Message  string
}

// Envelope is one inbound player message routed through the loop.
type Envelope struct {
	PlayerID string
	EndTurn  *protocol.EndTurnMsg
	EventReq *protocol.EventBatchReqMsg
}

type combatAck struct {
	PlayerID string
	CombatID string
}

// Status is a snapshot published by the loop for readers on other
// goroutines.
type Status struct {
	SessionID string    `json:"session_id"`
	Turn      int       `json:"turn"`
	Digest    string    `json:"digest,omitempty"`
	Players   []string  `json:"players"`
	Waiting   []string  `json:"waiting"`
	Deadline  time.Time `json:"deadline,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type player struct {
	ID    string
	Name  string
	CivID int
	Token string
	// Out is nil while the player is disconnected.
	Out   chan []byte
	Ended bool
}

type Session struct {
	id       string
	log      *zap.Logger
	game     *galaxy.Game
	eng      *engine.GameEngine
	resolver *combat.AutoResolver
	tun      tuning.Session

	welcomeCatalogs protocol.CatalogDigests
	catalogMsgs     []protocol.CatalogMsg

	turnLoggers   []TurnLogger
	sitRepLoggers []SitRepLogger

	join      chan JoinRequest
	attach    chan AttachRequest
	leave     chan string
	inbox     chan Envelope
	combatAck chan combatAck
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}

	status atomic.Pointer[Status]

	// Owned by the loop goroutine.
	players  map[string]*player
	events   *eventLog
	turnCtx  context.Context
	deadline time.Time
	timer    *time.Timer
}

func New(opts Options) (*Session, error) {
	if opts.Game == nil || opts.Engine == nil {
		return nil, fmt.Errorf("%w: session needs a game and an engine", engine.ErrNilArgument)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := strings.TrimSpace(opts.ID)
	if id == "" {
		id = "game-" + uuid.NewString()[:8]
	}
	res := opts.Resolver
	if res == nil {
		res = combat.NewAutoResolver(log.Named("combat"))
	}
	tun := opts.Engine.Tuning().Session
	s := &Session{
		id:            id,
		log:           log.With(zap.String("session", id)),
		game:          opts.Game,
		eng:           opts.Engine,
		resolver:      res,
		tun:           tun,
		turnLoggers:   opts.TurnLoggers,
		sitRepLoggers: opts.SitRepLoggers,

		join:      make(chan JoinRequest, 16),
		attach:    make(chan AttachRequest, 16),
		leave:     make(chan string, 64),
		inbox:     make(chan Envelope, 1024),
		combatAck: make(chan combatAck, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),

		players: map[string]*player{},
		events:  newEventLog(tun.EventBufferSize),
		turnCtx: context.Background(),
	}
	s.welcomeCatalogs, s.catalogMsgs = buildCatalogMsgs(opts.Catalogs)
	s.welcomeCatalogs.TuningDigest = opts.TuningDigest
	s.welcomeCatalogs.EventsDigest = opts.EventsDigest
	s.subscribe()
	s.publishStatus()
	return s, nil
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Join() chan<- JoinRequest     { return s.join }
func (s *Session) Attach() chan<- AttachRequest { return s.attach }
func (s *Session) Leave() chan<- string         { return s.leave }
func (s *Session) Inbox() chan<- Envelope       { return s.inbox }
func (s *Session) Done() <-chan struct{}        { return s.done }
func (s *Session) Stop()                        { s.stopOnce.Do(func() { close(s.stop) }) }
func (s *Session) TurnSettings() tuning.Session { return s.tun }

func (s *Session) Status() Status {
	if st := s.status.Load(); st != nil {
		return *st
	}
	return Status{SessionID: s.id}
}

// publishStatus runs on the loop goroutine after anything a status reader
// can see changes.
func (s *Session) publishStatus() {
	st := &Status{
		SessionID: s.id,
		Turn:      s.game.TurnNumber,
		Digest:    s.eng.LastDigest(),
		Players:   []string{},
		Waiting:   []string{},
		Deadline:  s.deadline,
		UpdatedAt: time.Now().UTC(),
	}
	for _, p := range s.connected() {
		key := s.game.Civ(p.CivID).Key
		st.Players = append(st.Players, key)
		if !p.Ended {
			st.Waiting = append(st.Waiting, key)
		}
	}
	s.status.Store(st)
}

// CombatFinished records that a player is done watching a combat. It is
// safe to call from any goroutine and never blocks.
func (s *Session) CombatFinished(playerID, combatID string) {
	select {
	case s.combatAck <- combatAck{PlayerID: playerID, CombatID: combatID}:
	default:
		s.log.Warn("combat ack dropped", zap.String("player", playerID), zap.String("combat", combatID))
	}
}

// Run owns the game until ctx is done or Stop is called. Turns run on
// this goroutine.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.turnCtx = ctx
	s.resetTurnTimer()
	defer func() {
		if s.timer != nil {
			s.timer.Stop()
		}
	}()

	for {
		var timerC <-chan time.Time
		if s.timer != nil {
			timerC = s.timer.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.join:
			s.handleJoin(req)
		case req := <-s.attach:
			s.handleAttach(req)
		case id := <-s.leave:
			s.handleLeave(id)
		case env := <-s.inbox:
			s.handleEnvelope(env)
		case ack := <-s.combatAck:
			s.rejectCombatAck(ack, protocol.ErrInvalidTarget, "no combat is in progress")
		case <-timerC:
			s.timer = nil
			s.log.Info("turn timer expired", zap.Int("turn", s.game.TurnNumber))
			if err := s.runTurn(ctx); err != nil {
				return err
			}
			continue
		}
		if s.allPlayersEnded() {
			if err := s.runTurn(ctx); err != nil {
				return err
			}
			continue
		}
		s.publishStatus()
	}
}

// StepOnce processes a single turn on the caller's goroutine. It must not
// be used while Run is active.
func (s *Session) StepOnce(ctx context.Context) (turn int, digest string, err error) {
	turn = s.game.TurnNumber
	select {
	case <-s.stop:
		return turn, "", ErrClosed
	default:
	}
	s.turnCtx = ctx
	if err := s.runTurn(ctx); err != nil {
		return turn, "", err
	}
	return turn, s.eng.LastDigest(), nil
}

func (s *Session) resetTurnTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
	if s.tun.TurnTimerSec <= 0 {
		return
	}
	d := time.Duration(s.tun.TurnTimerSec) * time.Second
	s.deadline = time.Now().Add(d)
	s.timer = time.NewTimer(d)
}

func (s *Session) connected() []*player {
	out := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		if p.Out != nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CivID < out[j].CivID })
	return out
}

func (s *Session) allPlayersEnded() bool {
	conn := s.connected()
	if len(conn) == 0 {
		return false
	}
	for _, p := range conn {
		if !p.Ended {
			return false
		}
	}
	return true
}

func (s *Session) playerForCiv(civID int) *player {
	for _, p := range s.players {
		if p.CivID == civID {
			return p
		}
	}
	return nil
}

// autoTurnCivs are the human civs nobody is connected to.
func (s *Session) autoTurnCivs() []int {
	var out []int
	for _, civ := range s.game.Civilizations {
		if !civ.IsHuman {
			continue
		}
		if p := s.playerForCiv(civ.ID); p == nil || p.Out == nil {
			out = append(out, civ.ID)
		}
	}
	return out
}

func (s *Session) handleJoin(req JoinRequest) {
	resp := s.joinPlayer(req)
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (s *Session) joinPlayer(req JoinRequest) JoinResponse {
	if req.Out == nil {
		return JoinResponse{Code: protocol.ErrProtoBadRequest, Message: "missing output channel"}
	}
	var civ *galaxy.Civilization
	if key := strings.TrimSpace(req.CivKey); key != "" {
		civ = s.game.CivByKey(key)
		if civ == nil || !civ.IsHuman {
			return JoinResponse{Code: protocol.ErrCivNotFound, Message: fmt.Sprintf("no human civ %q", key)}
		}
		if p := s.playerForCiv(civ.ID); p != nil && p.Out != nil {
			return JoinResponse{Code: protocol.ErrCivTaken, Message: fmt.Sprintf("%s is already played by %s", key, p.Name)}
		}
	} else {
		for _, c := range s.game.Civilizations {
			if !c.IsHuman {
				continue
			}
			if p := s.playerForCiv(c.ID); p == nil || p.Out == nil {
				civ = c
				break
			}
		}
		if civ == nil {
			return JoinResponse{Code: protocol.ErrGameFull, Message: "no free human civ"}
		}
	}

	// A disconnected player's seat goes to the newcomer.
	if old := s.playerForCiv(civ.ID); old != nil {
		delete(s.players, old.ID)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "player"
	}
	p := &player{
		ID:    "P" + uuid.NewString()[:8],
		Name:  name,
		CivID: civ.ID,
		Token: s.newResumeToken(),
		Out:   req.Out,
	}
	s.players[p.ID] = p
	s.log.Info("player joined", zap.String("player", p.ID), zap.String("name", name), zap.String("civ", civ.Key))
	return JoinResponse{Welcome: s.buildWelcome(p), Catalogs: s.catalogMsgs}
}

func (s *Session) newResumeToken() string {
	return "resume_" + s.id + "_" + uuid.NewString()
}

func (s *Session) handleAttach(req AttachRequest) {
	token := strings.TrimSpace(req.ResumeToken)
	var p *player
	if token != "" && req.Out != nil {
		for _, pp := range s.players {
			if pp.Token == token {
				p = pp
				break
			}
		}
	}
	if p == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{Code: protocol.ErrBadResume, Message: "unknown resume token"}
		}
		return
	}
	p.Out = req.Out
	p.Token = s.newResumeToken()
	s.log.Info("player resumed", zap.String("player", p.ID))
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: s.buildWelcome(p), Catalogs: s.catalogMsgs}
	}
}

func (s *Session) handleLeave(playerID string) {
	p := s.players[playerID]
	if p == nil {
		return
	}
	p.Out = nil
	p.Ended = false
	s.log.Info("player left", zap.String("player", playerID))
}

func (s *Session) handleEnvelope(env Envelope) {
	p := s.players[env.PlayerID]
	if p == nil || p.Out == nil {
		return
	}
	switch {
	case env.EndTurn != nil:
		s.handleEndTurn(p, *env.EndTurn)
	case env.EventReq != nil:
		req := env.EventReq
		items, next, gap := s.events.since(req.SinceCursor, p.CivID, req.Limit, req.Types)
		s.sendTo(p, protocol.EventBatchMsg{
			Type:            protocol.TypeEventBatch,
			ProtocolVersion: protocol.Version,
			ReqID:           req.ReqID,
			Turn:            s.game.TurnNumber,
			Events:          items,
			NextCursor:      next,
			Gap:             gap,
		})
	}
}

func (s *Session) handleEndTurn(p *player, msg protocol.EndTurnMsg) {
	turn := s.game.TurnNumber
	ack := protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: protocol.TypeEndTurn, Turn: turn}
	switch {
	case msg.Turn != turn:
		ack.Code = protocol.ErrStale
		ack.Message = fmt.Sprintf("turn %d is not the current turn", msg.Turn)
	case p.Ended:
		ack.Code = protocol.ErrConflict
		ack.Message = "turn already ended"
	default:
		p.Ended = true
		ack.Accepted = true
	}
	s.sendTo(p, ack)
	if ack.Accepted {
		civ := s.game.Civ(p.CivID)
		s.publish(protocol.Event{"type": "TURN_ENDED_BY", "turn": turn, "civ": civ.Key})
	}
}

// publish logs an event and pushes it to the connected players of the
// audience (everyone when civs is empty).
// rejectCombatAck answers a COMBAT_FINISHED that releases nothing.
func (s *Session) rejectCombatAck(ack combatAck, code, message string) {
	s.log.Debug("combat ack rejected", zap.String("player", ack.PlayerID), zap.String("combat", ack.CombatID), zap.String("code", code))
	p := s.players[ack.PlayerID]
	if p == nil {
		return
	}
	s.sendTo(p, protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          protocol.TypeCombatFinished,
		Turn:            s.game.TurnNumber,
		Code:            code,
		Message:         message,
	})
}

func (s *Session) publish(ev protocol.Event, civs ...int) {
	cursor := s.events.add(ev, civs)
	msg := protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, Cursor: cursor, Event: ev}
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal event", zap.Error(err))
		return
	}
	for _, p := range s.connected() {
		if (loggedEvent{civs: civs}).visibleTo(p.CivID) {
			sendLatest(p.Out, b)
		}
	}
}

func (s *Session) sendTo(p *player, v any) {
	if p.Out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal message", zap.Error(err))
		return
	}
	sendLatest(p.Out, b)
}

// sendLatest drops the oldest queued message when the client lags.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
