package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
)

// DoAIPlayers runs the computer players for every civ that is not human,
// plus the human civs listed in autoTurnCivs. Civs are processed in
// parallel against a snapshot of everyone's fleets taken up front.
// Failures are logged and also kept for LastAIErrors.
func (e *GameEngine) DoAIPlayers(ctx context.Context, g *galaxy.Game, autoTurnCivs []int) error {
	if g == nil {
		return fmt.Errorf("%w: game", ErrNilArgument)
	}
	auto := make(map[int]bool, len(autoTurnCivs))
	for _, id := range autoTurnCivs {
		auto[id] = true
	}
	var civs []*galaxy.Civilization
	for _, civ := range g.Civilizations {
		if civ.IsHuman && !auto[civ.ID] {
			continue
		}
		if g.Manager(civ.ID) == nil {
			continue
		}
		civs = append(civs, civ)
	}

	intel := e.players.Snapshot(g)
	err := parallelForEach(ctx, e.workers(), civs, func(civ *galaxy.Civilization) error {
		if err := e.players.DoTurn(g, civ, intel); err != nil {
			return fmt.Errorf("%s: %w", civ.Key, err)
		}
		return nil
	})
	if err != nil {
		e.log.Error("ai players failed", zap.Int("turn", g.TurnNumber), zap.Error(err))
	}
	e.mu.Lock()
	e.lastAIErr = err
	e.mu.Unlock()
	return err
}
