package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	turnlog "supremacy.ai/internal/persistence/log"
	"supremacy.ai/internal/protocol"
	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
)

// subscribe turns engine notifications into player events. Every handler
// runs on the goroutine processing the turn.
func (s *Session) subscribe() {
	s.eng.OnPhaseChanged(func(g *galaxy.Game, p engine.TurnPhase) {
		s.publish(protocol.Event{"type": "PHASE", "turn": g.TurnNumber, "phase": p.String()})
	})
	s.eng.OnFleetLocationChanged(func(g *galaxy.Game, f *galaxy.Fleet) {
		s.publish(protocol.Event{
			"type":     "FLEET_MOVED",
			"turn":     g.TurnNumber,
			"fleet_id": f.ID,
			"pos":      pos(f.Location),
		}, f.OwnerID)
	})
	s.eng.OnCombatOccurring(s.onCombat)
	s.eng.OnInvasionOccurring(s.onInvasion)
}

func (s *Session) onCombat(g *galaxy.Game, a *combat.Arena) {
	owners := a.Owners()
	keys := make([]string, 0, len(owners))
	for _, id := range owners {
		if civ := g.Civ(id); civ != nil {
			keys = append(keys, civ.Key)
		}
	}
	s.publish(protocol.Event{
		"type":      "COMBAT",
		"turn":      g.TurnNumber,
		"combat_id": a.ID,
		"pos":       pos(a.Location),
		"civs":      keys,
	}, owners...)
	s.awaitAcks(a.ID, owners)

	res := s.resolver.ResolveCombat(g, a)
	lost := 0
	for _, n := range res.ShipsDestroyed {
		lost += n
	}
	s.log.Info("combat resolved", zap.String("combat", a.ID), zap.Stringer("location", a.Location), zap.Int("ships_destroyed", lost))
	s.eng.NotifyCombatFinished()
}

func (s *Session) onInvasion(g *galaxy.Game, ia *combat.InvasionArena) {
	audience := []int{ia.InvaderID}
	if ia.Colony != nil {
		audience = append(audience, ia.Colony.OwnerID)
	}
	s.publish(protocol.Event{
		"type":      "INVASION",
		"turn":      g.TurnNumber,
		"combat_id": ia.ID,
		"pos":       pos(ia.Location),
	}, audience...)
	if ia.IsInvaderHuman(g) {
		s.awaitAcks(ia.ID, []int{ia.InvaderID})
	}

	res := s.resolver.ResolveInvasion(g, ia)
	s.log.Info("invasion resolved", zap.String("combat", ia.ID), zap.Bool("captured", res.Captured), zap.Int("troops", res.TroopsLanded))
	s.eng.NotifyCombatFinished()
}

// awaitAcks blocks until every connected player of civs has sent
// COMBAT_FINISHED for combatID, or the ack timeout passes.
func (s *Session) awaitAcks(combatID string, civs []int) {
	waiting := map[string]bool{}
	for _, id := range civs {
		if p := s.playerForCiv(id); p != nil && p.Out != nil {
			waiting[p.ID] = true
		}
	}
	if len(waiting) == 0 {
		return
	}
	var timeout <-chan time.Time
	if ms := s.tun.CombatAckTimeoutMs; ms > 0 {
		t := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer t.Stop()
		timeout = t.C
	}
	involved := map[int]bool{}
	for _, id := range civs {
		involved[id] = true
	}
	for len(waiting) > 0 {
		select {
		case ack := <-s.combatAck:
			switch p := s.players[ack.PlayerID]; {
			case ack.CombatID != combatID:
				s.rejectCombatAck(ack, protocol.ErrInvalidTarget, fmt.Sprintf("combat %s is not in progress", ack.CombatID))
			case p == nil || !involved[p.CivID]:
				s.rejectCombatAck(ack, protocol.ErrNoPermission, "not a party to this combat")
			default:
				delete(waiting, ack.PlayerID)
			}
		case id := <-s.leave:
			s.handleLeave(id)
			delete(waiting, id)
		case <-s.turnCtx.Done():
			return
		case <-s.stop:
			return
		case <-timeout:
			s.log.Warn("combat ack timed out", zap.String("combat", combatID), zap.Int("missing", len(waiting)))
			return
		}
	}
}

func (s *Session) runTurn(ctx context.Context) error {
	g := s.game
	if err := s.eng.DoAIPlayers(ctx, g, s.autoTurnCivs()); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	err := s.eng.DoTurn(ctx, g)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn("turn finished with errors", zap.Int("turn", g.TurnNumber-1), zap.Error(err))
	}

	rep := s.eng.LastReport()
	s.persist(rep)
	for _, p := range s.players {
		p.Ended = false
	}
	s.resetTurnTimer()
	for _, p := range s.connected() {
		s.sendTo(p, s.buildTurnMsg(p.CivID, rep))
	}
	s.publishStatus()
	return nil
}

// persist writes the turn entry and every sit-rep. Sink errors are logged
// and otherwise ignored.
func (s *Session) persist(rep engine.TurnReport) {
	entry := turnlog.NewTurnEntry(rep, s.game)
	for _, l := range s.turnLoggers {
		if err := l.WriteTurn(entry); err != nil {
			s.log.Warn("write turn", zap.Int("turn", rep.Turn), zap.Error(err))
		}
	}
	if len(s.sitRepLoggers) == 0 {
		return
	}
	for _, m := range s.game.Managers() {
		for _, sr := range m.SitReps() {
			for _, l := range s.sitRepLoggers {
				if err := l.WriteSitRep(sr); err != nil {
					s.log.Warn("write sitrep", zap.String("id", sr.ID), zap.Error(err))
				}
			}
		}
	}
}
