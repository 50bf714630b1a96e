package engine

import "fmt"

// TurnPhase names one step of DoTurn. Phases always run in declaration order.
type TurnPhase int

const (
	PhasePreTurnOperations TurnPhase = iota
	PhaseFleetMovement
	PhaseDiplomacy
	PhaseCombat
	PhasePopulationGrowth
	PhaseResearch
	PhaseScrapping
	PhaseMaintenance
	PhaseProduction
	PhaseShipProduction
	PhaseTrade
	PhaseMorale
	PhaseMapUpdates
	PhasePostTurnOperations
	PhaseSendUpdates
)

var phaseNames = []string{
	"PreTurnOperations", "FleetMovement", "Diplomacy", "Combat", "PopulationGrowth",
	"Research", "Scrapping", "Maintenance", "Production", "ShipProduction", "Trade",
	"Morale", "MapUpdates", "PostTurnOperations", "SendUpdates",
}

// Phases lists every phase in execution order.
func Phases() []TurnPhase {
	out := make([]TurnPhase, len(phaseNames))
	for i := range out {
		out[i] = TurnPhase(i)
	}
	return out
}

func (p TurnPhase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("TurnPhase(%d)", int(p))
}

func (p TurnPhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *TurnPhase) UnmarshalText(b []byte) error {
	for i, n := range phaseNames {
		if n == string(b) {
			*p = TurnPhase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown turn phase %q", string(b))
}
