package engine

import (
	"context"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/galaxy"
)

func (e *GameEngine) doDiplomacy(_ context.Context, g *galaxy.Game, _ *TurnReport) error {
	reg, ok := g.Relations.(*diplomacy.Registry)
	if !ok || reg == nil {
		e.log.Warn("diplomacy skipped: no registry", zap.Int("turn", g.TurnNumber))
		return nil
	}
	r := diplomacy.Resolve(g, reg)
	e.log.Debug("diplomacy resolved",
		zap.Int("turn", g.TurnNumber),
		zap.Int("accepted", r.Accepted),
		zap.Int("rejected", r.Rejected),
		zap.Int("proposals", r.ProposalsDelivered),
		zap.Int("statements", r.StatementsDelivered),
		zap.Int("wars", r.WarsDeclared),
		zap.Int("fulfilled", r.AgreementsFulfilled),
		zap.Int("expired", r.AgreementsExpired),
	)
	return nil
}

// DiplomacySettings maps tuning onto registry settings.
func (e *GameEngine) DiplomacySettings() diplomacy.Settings {
	d := e.tun.Diplomacy
	return diplomacy.Settings{
		WarPenalty:          d.WarPenalty,
		HostileFactionKey:   d.HostileFactionKey,
		AcceptRegardBonus:   d.AcceptRegardBonus,
		RejectRegardPenalty: d.RejectRegardPenalty,
	}
}
