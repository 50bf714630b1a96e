package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/combat"
	"supremacy.ai/internal/sim/galaxy"
)

// doCombat fires every combat and invasion arena in turn. Handlers are
// expected to call NotifyCombatFinished; with no handler registered the
// engine resolves the arena itself.
func (e *GameEngine) doCombat(ctx context.Context, g *galaxy.Game, rep *TurnReport) error {
	arenas, invasions := combat.FindArenas(g)

	e.mu.Lock()
	onCombat := append([]CombatFunc(nil), e.combatOccurring...)
	onInvasion := append([]InvasionFunc(nil), e.invasionOccurring...)
	e.mu.Unlock()

	for _, a := range arenas {
		e.drainCombatSignal()
		rep.Combats++
		for _, owner := range a.Owners() {
			loc := a.Location
			g.PostSitRep(owner, galaxy.SitRepCombat, &loc, "Combat at %s", loc)
		}
		if len(onCombat) == 0 {
			e.resolveCombat(g, a)
			continue
		}
		for _, fn := range onCombat {
			fn(g, a)
		}
		if err := e.waitCombat(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			e.log.Warn("combat wait timed out, auto-resolving", zap.String("arena", a.ID), zap.Stringer("location", a.Location))
			e.resolveCombat(g, a)
		}
	}

	for _, ia := range invasions {
		e.drainCombatSignal()
		rep.Invasions++
		if len(onInvasion) == 0 {
			e.resolveInvasion(g, ia, rep)
			continue
		}
		for _, fn := range onInvasion {
			fn(g, ia)
		}
		if !ia.IsInvaderHuman(g) {
			continue
		}
		if err := e.waitCombat(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			e.log.Warn("invasion wait timed out, auto-resolving", zap.String("arena", ia.ID), zap.Stringer("location", ia.Location))
			e.resolveInvasion(g, ia, rep)
		}
	}

	for _, ia := range invasions {
		for _, f := range ia.Fleets {
			live, ok := galaxy.Lookup[*galaxy.Fleet](g.Universe, f.ID)
			if !ok || !live.HasShips() {
				continue
			}
			if o, ok := live.Order.(*galaxy.AssaultSystemOrder); ok && !o.IsValidOrder(g, live) {
				live.SetOrder(galaxy.GetDefaultOrder(live))
			}
		}
	}

	return parallelForEach(ctx, e.workers(), galaxy.Find[*galaxy.Colony](g.Universe), func(c *galaxy.Colony) error {
		c.RefreshShielding()
		return nil
	})
}

func (e *GameEngine) drainCombatSignal() {
	select {
	case <-e.combatDone:
	default:
	}
}

var errCombatTimeout = errors.New("engine: combat wait timed out")

// waitCombat blocks until NotifyCombatFinished, ctx is done, or the
// configured timeout passes.
func (e *GameEngine) waitCombat(ctx context.Context) error {
	var timeout <-chan time.Time
	if ms := e.tun.Engine.CombatWaitTimeoutMs; ms > 0 {
		t := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-e.combatDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return errCombatTimeout
	}
}

func (e *GameEngine) resolveCombat(g *galaxy.Game, a *combat.Arena) {
	res := e.resolver.ResolveCombat(g, a)
	lost := 0
	for _, n := range res.ShipsDestroyed {
		lost += n
	}
	e.log.Debug("combat resolved", zap.String("arena", a.ID), zap.Int("ships_destroyed", lost))
}

func (e *GameEngine) resolveInvasion(g *galaxy.Game, ia *combat.InvasionArena, rep *TurnReport) {
	if res := e.resolver.ResolveInvasion(g, ia); res.Captured {
		rep.ColoniesLost++
	}
}
