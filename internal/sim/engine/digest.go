package engine

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"

	"supremacy.ai/internal/sim/galaxy"
)

// Digest hashes the simulation-relevant state of g. Two games that took
// the same inputs from the same seed produce the same digest.
func Digest(g *galaxy.Game) string {
	h := blake3.New(32, nil)
	fmt.Fprintf(h, "turn %d\n", g.TurnNumber)
	for _, o := range g.Universe.All() {
		writeObject(h, o)
	}
	for _, m := range g.Managers() {
		r := m.Resources.Snapshot()
		fmt.Fprintf(h, "civ %d credits=%d deut=%d dil=%d raw=%d research=%d pop=%d\n",
			m.Civ.ID, m.Credits.Current(), r.Deuterium, r.Dilithium, r.RawMaterials,
			m.Research.CumulativePoints.Current(), m.TotalPopulation.Current())
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeObject(w io.Writer, o galaxy.Object) {
	switch v := o.(type) {
	case *galaxy.Ship:
		fmt.Fprintf(w, "ship %d %d %s fleet=%d hull=%d fuel=%d\n",
			v.ID, v.OwnerID, v.Location, v.FleetID, v.Hull.Current(), v.Fuel.Current())
	case *galaxy.Fleet:
		order := ""
		if v.Order != nil {
			order = v.Order.Name()
		}
		fmt.Fprintf(w, "fleet %d %d %s steps=%d order=%s ai=%s\n",
			v.ID, v.OwnerID, v.Location, len(v.Route.Steps), order, v.UnitAIType)
	case *galaxy.Colony:
		fmt.Fprintf(w, "colony %d %d %s pop=%d food=%d morale=%d shields=%d\n",
			v.ID, v.OwnerID, v.Location, v.Population.Current(), v.FoodReserves.Current(),
			v.Morale.Current(), v.ShieldStrength.Current())
	case *galaxy.Station:
		fmt.Fprintf(w, "station %d %d %s hull=%d\n", v.ID, v.OwnerID, v.Location, v.Hull.Current())
	case *galaxy.StarSystem:
		fmt.Fprintf(w, "system %d %d %s colony=%d\n", v.ID, v.OwnerID, v.Location, v.ColonyID)
	default:
		fmt.Fprintf(w, "object %d %d %s\n", o.ObjectID(), o.Owner(), o.Loc())
	}
}
