package engine

import (
	"context"
	"fmt"

	"supremacy.ai/internal/sim/galaxy"
)

// doPreTurnOperations resets per-turn state. Running it twice on an
// unchanged game leaves the same state as running it once.
func (e *GameEngine) doPreTurnOperations(ctx context.Context, g *galaxy.Game, _ *TurnReport) error {
	err := parallelForEach(ctx, e.workers(), g.Universe.All(), func(o galaxy.Object) error {
		o.ResetTurnState()
		return nil
	})

	for _, m := range g.Managers() {
		m.ClearSitReps()
	}
	for _, s := range g.DrainQueuedSitReps() {
		if m := g.Manager(s.CivID); m != nil {
			m.AddSitRep(s)
		}
	}

	for _, f := range galaxy.Find[*galaxy.Fleet](g.Universe) {
		if f.Order != nil {
			f.Order.OnTurnBeginning(g, f)
		}
	}
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
