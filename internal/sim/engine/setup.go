package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
)

// DoPreGameSetup prepares a freshly loaded game: every civ gets a manager,
// a seat of government and initial scan and fuel coverage.
func (e *GameEngine) DoPreGameSetup(ctx context.Context, g *galaxy.Game) error {
	if g == nil {
		return fmt.Errorf("%w: game", ErrNilArgument)
	}
	for _, civ := range g.Civilizations {
		if g.Manager(civ.ID) == nil {
			g.SetManager(galaxy.NewCivilizationManager(civ, g.Map()))
		}
		m := g.Manager(civ.ID)
		if m.HomeColonyID == 0 {
			if sys := g.HomeSystem(civ.ID); sys != nil {
				if c := g.ColonyOfSystem(sys); c != nil && c.OwnerID == civ.ID {
					m.HomeColonyID = c.ID
				}
			}
		}
		g.EnsureSeatOfGovernment(civ.ID)
	}
	if err := e.doMapUpdates(ctx, g, &TurnReport{}); err != nil {
		return fmt.Errorf("setup map updates: %w", err)
	}
	if g.TurnNumber == 0 {
		g.TurnNumber = 1
	}
	e.log.Info("game ready",
		zap.Int("civs", len(g.Civilizations)),
		zap.Int("objects", g.Universe.Len()),
		zap.Int("turn", g.TurnNumber),
	)
	return nil
}
