package combat

import (
	"go.uber.org/zap"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/logic/mathx"
)

// AutoResolver settles arenas without a player in the loop. Damage is
// deterministic for a given game seed, turn and arena.
type AutoResolver struct {
	Rounds int
	Logger *zap.Logger
}

func NewAutoResolver(log *zap.Logger) *AutoResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &AutoResolver{Rounds: 3, Logger: log}
}

type CombatResult struct {
	ShipsDestroyed    map[int]int
	StationsDestroyed map[int]int
}

type InvasionResult struct {
	Captured       bool
	TroopsLanded   int
	Defense        int
	ShieldsDamaged int
}

func effectiveness(g *galaxy.Game, civID int) float64 {
	if c := g.Civ(civID); c != nil && c.Race != nil && c.Race.CombatEffectiveness > 0 {
		return c.Race.CombatEffectiveness
	}
	return 1
}

type target struct {
	ship    *galaxy.Ship
	station *galaxy.Station
}

func (t target) alive() bool {
	if t.ship != nil {
		return !t.ship.Hull.IsMinimized()
	}
	return !t.station.Hull.IsMinimized()
}

func (t target) damage(n int) {
	if t.ship != nil {
		t.ship.Hull.AdjustCurrent(-n)
		t.ship.Hull.UpdateAndReset()
		return
	}
	t.station.Hull.AdjustCurrent(-n)
	t.station.Hull.UpdateAndReset()
}

func (t target) remaining() int {
	if t.ship != nil {
		return t.ship.Hull.Current()
	}
	return t.station.Hull.Current()
}

func targetsOf(a *Assets) []target {
	var out []target
	for _, s := range a.Ships() {
		out = append(out, target{ship: s})
	}
	if a.Station != nil {
		out = append(out, target{station: a.Station})
	}
	return out
}

func firepowerOf(a *Assets) int {
	total := 0
	for _, s := range a.Ships() {
		if !s.Hull.IsMinimized() {
			total += s.Firepower
		}
	}
	if a.Station != nil && !a.Station.Hull.IsMinimized() {
		total += a.Station.Firepower
	}
	return total
}

// ResolveCombat runs simultaneous volleys: every side's fire is computed
// before any damage lands. Wrecks stay in place with an empty hull and are
// cleared at the end of the turn.
func (r *AutoResolver) ResolveCombat(g *galaxy.Game, a *Arena) CombatResult {
	res := CombatResult{ShipsDestroyed: map[int]int{}, StationsDestroyed: map[int]int{}}
	rounds := r.Rounds
	if rounds <= 0 {
		rounds = 3
	}
	for round := 0; round < rounds; round++ {
		volleys := make([]int, len(a.Assets))
		for i, as := range a.Assets {
			jitter := 90 + mathx.Roll(g.Seed, 21, g.TurnNumber, as.OwnerID*31+round, a.Location.X*1000+a.Location.Y)
			volleys[i] = int(float64(firepowerOf(as)) * effectiveness(g, as.OwnerID) * float64(jitter) / 100)
		}
		fired := false
		for i, as := range a.Assets {
			dmg := volleys[i]
			for _, enemy := range a.Assets {
				if dmg <= 0 {
					break
				}
				if !Hostile(g.Relations, as.OwnerID, enemy.OwnerID) {
					continue
				}
				for _, t := range targetsOf(enemy) {
					if dmg <= 0 {
						break
					}
					if !t.alive() {
						continue
					}
					hit := mathx.MinInt(dmg, t.remaining())
					t.damage(hit)
					dmg -= hit
					fired = true
					if !t.alive() {
						if t.ship != nil {
							res.ShipsDestroyed[enemy.OwnerID]++
						} else {
							res.StationsDestroyed[enemy.OwnerID]++
						}
					}
				}
			}
		}
		if !fired {
			break
		}
	}
	for _, as := range a.Assets {
		lost := res.ShipsDestroyed[as.OwnerID] + res.StationsDestroyed[as.OwnerID]
		g.PostSitRep(as.OwnerID, galaxy.SitRepCombat, &a.Location, "Battle at %s: %d of our vessels lost", a.Location, lost)
	}
	r.Logger.Debug("combat resolved",
		zap.String("arena", a.ID),
		zap.Stringer("location", a.Location),
		zap.Int("owners", len(a.Assets)),
	)
	return res
}

// ResolveInvasion bombards the colony shields with the invaders' firepower,
// then lands troops against a militia proportional to population. A
// successful landing hands the colony to the invader.
func (r *AutoResolver) ResolveInvasion(g *galaxy.Game, ia *InvasionArena) InvasionResult {
	var res InvasionResult
	c := ia.Colony
	if c == nil || !c.IsOwned() || c.OwnerID == ia.InvaderID {
		return res
	}
	defender := c.OwnerID
	eff := effectiveness(g, ia.InvaderID)
	fire, troops := 0, 0
	for _, f := range ia.Fleets {
		for _, s := range f.Ships {
			if s.Hull.IsMinimized() {
				continue
			}
			fire += s.Firepower
			troops += s.TroopStrength
		}
	}
	fire = int(float64(fire) * eff)
	troops = int(float64(troops) * eff)

	res.ShieldsDamaged = -c.ShieldStrength.AdjustCurrent(-fire)
	c.ShieldStrength.UpdateAndReset()
	if !c.ShieldStrength.IsMinimized() {
		g.PostSitRep(ia.InvaderID, galaxy.SitRepInvasion, &ia.Location, "Shields at %s held", c.Name)
		return res
	}
	res.TroopsLanded = troops
	res.Defense = int(float64(c.Population.Current()) * effectiveness(g, defender) / 2)
	if troops <= res.Defense {
		g.PostSitRep(ia.InvaderID, galaxy.SitRepInvasion, &ia.Location, "Invasion of %s repelled", c.Name)
		g.PostSitRep(defender, galaxy.SitRepInvasion, &ia.Location, "We repelled an invasion of %s", c.Name)
		return res
	}
	c.Population.AdjustCurrent(-res.Defense)
	c.Population.UpdateAndReset()
	g.TransferColony(c, ia.InvaderID)
	res.Captured = true
	g.PostSitRep(ia.InvaderID, galaxy.SitRepInvasion, &ia.Location, "We captured %s", c.Name)
	g.PostSitRep(defender, galaxy.SitRepInvasion, &ia.Location, "%s was lost to invaders", c.Name)
	r.Logger.Info("colony captured",
		zap.String("colony", c.Name),
		zap.Int("invader", ia.InvaderID),
		zap.Int("defender", defender),
	)
	return res
}
