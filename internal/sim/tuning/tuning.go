package tuning

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"supremacy.ai/internal/sim/galaxy"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Engine    Engine    `yaml:"engine"`
	Economy   Economy   `yaml:"economy"`
	Research  Research  `yaml:"research"`
	Movement  Movement  `yaml:"movement"`
	Diplomacy Diplomacy `yaml:"diplomacy"`
	AI        AI        `yaml:"ai"`
	Map       Map       `yaml:"map"`
	Session   Session   `yaml:"session"`
}

type Engine struct {
	// ParallelismFactor multiplies runtime.NumCPU() for the worker limit.
	ParallelismFactor int `yaml:"parallelism_factor"`
	// CombatWaitTimeoutMs bounds each combat wait; 0 waits until cancelled.
	CombatWaitTimeoutMs int `yaml:"combat_wait_timeout_ms"`
}

type Economy struct {
	TradeRoutePopReq        map[string]int          `yaml:"trade_route_pop_req"`
	DefaultTradeRoutePopReq int                     `yaml:"default_trade_route_pop_req"`
	TradeMultipliers        galaxy.TradeMultipliers `yaml:"trade_multipliers"`
	TradeCreditsFactor      int                     `yaml:"trade_credits_factor"`
	MinIndustry             int                     `yaml:"min_industry"`
	ForceFinishAdvances     int                     `yaml:"force_finish_advances"`
	ScrapRefundPercent      int                     `yaml:"scrap_refund_percent"`
	RushCreditsPerIndustry  int                     `yaml:"rush_credits_per_industry"`
	GrowthProjectionTurns   int                     `yaml:"growth_projection_turns"`
	StarvationFactor        float64                 `yaml:"starvation_factor"`
}

type Research struct {
	StarMultipliers map[string]int `yaml:"star_multipliers"`
	// UnlistedStarPoints is the flat gain at stars without a multiplier.
	UnlistedStarPoints int `yaml:"unlisted_star_points"`
}

type Movement struct {
	// SafeBlackHoles turns off black hole damage.
	SafeBlackHoles bool `yaml:"safe_black_holes"`
}

type Diplomacy struct {
	WarPenalty               int    `yaml:"war_penalty"`
	HostileFactionKey        string `yaml:"hostile_faction_key"`
	NonAggressionViolation   int    `yaml:"non_aggression_violation"`
	AcceptRegardBonus        int    `yaml:"accept_regard_bonus"`
	RejectRegardPenalty      int    `yaml:"reject_regard_penalty"`
	AIAcceptRegardThreshold  int    `yaml:"ai_accept_regard_threshold"`
	AIWarDeclareRegardCutoff int    `yaml:"ai_war_declare_regard_cutoff"`
}

type AI struct {
	Colonize    ColonizeWeights   `yaml:"colonize"`
	Station     StationWeights    `yaml:"station"`
	Explore     ExploreWeights    `yaml:"explore"`
	Medical     MedicalWeights    `yaml:"medical"`
	Diplomatic  DiplomaticWeights `yaml:"diplomatic"`
	Spy         SpyWeights        `yaml:"spy"`
	Science     ScienceWeights    `yaml:"science"`
	Colony      ColonyAI          `yaml:"colony"`
	War         WarFooting        `yaml:"war"`
	EscortTypes []galaxy.ShipType `yaml:"escort_types"`
	Regions     map[string]string `yaml:"regions"`
}

type ColonizeWeights struct {
	DilithiumBonus   int `yaml:"dilithium_bonus"`
	RawMaterialBonus int `yaml:"raw_material_bonus"`
}

type StationWeights struct {
	Excluded            int `yaml:"excluded"`
	Base                int `yaml:"base"`
	OutOfFuelRange      int `yaml:"out_of_fuel_range"`
	UnownedSystem       int `yaml:"unowned_system"`
	InterestingStar     int `yaml:"interesting_star"`
	PerDistanceFromHome int `yaml:"per_distance_from_home"`
	StrandedFleet       int `yaml:"stranded_fleet"`
}

type ExploreWeights struct {
	Unexplored   int `yaml:"unexplored"`
	HasSystem    int `yaml:"has_system"`
	FirstContact int `yaml:"first_contact"`
}

type MedicalWeights struct {
	Own      int `yaml:"own"`
	Allied   int `yaml:"allied"`
	Friendly int `yaml:"friendly"`
	Neutral  int `yaml:"neutral"`
}

type DiplomaticWeights struct {
	SimilarTraits    int `yaml:"similar_traits"`
	FriendlyOrAllied int `yaml:"friendly_or_allied"`
	Neutral          int `yaml:"neutral"`
}

type SpyWeights struct {
	HomeSystem int `yaml:"home_system"`
	War        int `yaml:"war"`
	Neutral    int `yaml:"neutral"`
	Friendly   int `yaml:"friendly"`
}

type ScienceWeights struct {
	Nebula    int `yaml:"nebula"`
	Colored   int `yaml:"colored"`
	Pulsar    int `yaml:"pulsar"`
	DeathStar int `yaml:"death_star"`
	Wormhole  int `yaml:"wormhole"`
}

type ColonyAI struct {
	MaxColonizers    int    `yaml:"max_colonizers"`
	ColonyShip       string `yaml:"colony_ship"`
	ScoutShip        string `yaml:"scout_ship"`
	ConstructionShip string `yaml:"construction_ship"`
	CombatShip       string `yaml:"combat_ship"`
	StationDesign    string `yaml:"station_design"`
}

type WarFooting struct {
	// MinAttackFleet is the ship count a home fleet needs before it sorties.
	MinAttackFleet int `yaml:"min_attack_fleet"`
	// PeacetimeRecallTurn is the first turn idle combat fleets are recalled.
	PeacetimeRecallTurn int `yaml:"peacetime_recall_turn"`
}

type Map struct {
	ClaimRadiusCap     int            `yaml:"claim_radius_cap"`
	ClaimPopDivisor    int            `yaml:"claim_pop_divisor"`
	ColonyScanStrength int            `yaml:"colony_scan_strength"`
	ColonyScanRange    int            `yaml:"colony_scan_range"`
	InterferenceByStar map[string]int `yaml:"interference_by_star"`
}

type Session struct {
	// TurnTimerSec runs the turn without waiting for every player; 0 waits.
	TurnTimerSec int `yaml:"turn_timer_sec"`
	// CombatAckTimeoutMs bounds how long a combat waits for its players.
	CombatAckTimeoutMs int `yaml:"combat_ack_timeout_ms"`
	EventBufferSize    int `yaml:"event_buffer_size"`
	// InboundRatePerSec limits messages per websocket connection.
	InboundRatePerSec int `yaml:"inbound_rate_per_sec"`
	InboundBurst      int `yaml:"inbound_burst"`
}

// Defaults returns the standard tuning.
func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func Load(path string) (Tuning, error) {
	var t Tuning
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func setInt(v *int, d int) {
	if *v == 0 {
		*v = d
	}
}

func (t *Tuning) applyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	setInt(&t.Engine.ParallelismFactor, 4)

	e := &t.Economy
	if e.TradeRoutePopReq == nil {
		e.TradeRoutePopReq = map[string]int{}
	}
	setInt(&e.DefaultTradeRoutePopReq, 100)
	if e.TradeMultipliers == (galaxy.TradeMultipliers{}) {
		e.TradeMultipliers = galaxy.DefaultTradeMultipliers
	}
	setInt(&e.TradeCreditsFactor, 10)
	setInt(&e.MinIndustry, 10)
	setInt(&e.ForceFinishAdvances, 4)
	setInt(&e.ScrapRefundPercent, 50)
	setInt(&e.RushCreditsPerIndustry, 2)
	setInt(&e.GrowthProjectionTurns, 3)
	if e.StarvationFactor == 0 {
		e.StarvationFactor = 0.1
	}

	r := &t.Research
	if r.StarMultipliers == nil {
		r.StarMultipliers = map[string]int{
			"Nebula":      20,
			"Blue":        10,
			"Orange":      10,
			"Red":         10,
			"White":       10,
			"Yellow":      10,
			"XRayPulsar":  15,
			"RadioPulsar": 15,
			"NeutronStar": 15,
			"BlackHole":   20,
			"Quasar":      20,
			"Wormhole":    30,
		}
	}
	setInt(&r.UnlistedStarPoints, 1)

	d := &t.Diplomacy
	setInt(&d.WarPenalty, -1000)
	if d.HostileFactionKey == "" {
		d.HostileFactionKey = "BORG"
	}
	setInt(&d.NonAggressionViolation, 200)
	setInt(&d.AcceptRegardBonus, 25)
	setInt(&d.RejectRegardPenalty, -10)
	setInt(&d.AIAcceptRegardThreshold, 50)
	setInt(&d.AIWarDeclareRegardCutoff, -500)

	a := &t.AI
	setInt(&a.Colonize.DilithiumBonus, 20)
	setInt(&a.Colonize.RawMaterialBonus, 20)
	setInt(&a.Station.Excluded, -4000)
	setInt(&a.Station.Base, 1)
	setInt(&a.Station.OutOfFuelRange, 1000)
	setInt(&a.Station.UnownedSystem, 1500)
	setInt(&a.Station.InterestingStar, 1500)
	setInt(&a.Station.PerDistanceFromHome, 100)
	setInt(&a.Station.StrandedFleet, 2500)
	setInt(&a.Explore.Unexplored, 200)
	setInt(&a.Explore.HasSystem, 300)
	setInt(&a.Explore.FirstContact, 400)
	setInt(&a.Medical.Own, 100)
	setInt(&a.Medical.Allied, 15)
	setInt(&a.Medical.Friendly, 10)
	setInt(&a.Medical.Neutral, 5)
	setInt(&a.Diplomatic.SimilarTraits, 10)
	setInt(&a.Diplomatic.FriendlyOrAllied, 5)
	setInt(&a.Diplomatic.Neutral, 10)
	setInt(&a.Spy.HomeSystem, 1000)
	setInt(&a.Spy.War, 50)
	setInt(&a.Spy.Neutral, 25)
	setInt(&a.Spy.Friendly, 10)
	setInt(&a.Science.Nebula, 5)
	setInt(&a.Science.Colored, 10)
	setInt(&a.Science.Pulsar, 15)
	setInt(&a.Science.DeathStar, -20)
	setInt(&a.Science.Wormhole, 30)
	setInt(&a.Colony.MaxColonizers, 2)
	if a.Colony.ColonyShip == "" {
		a.Colony.ColonyShip = "COLONY_SHIP"
	}
	if a.Colony.ScoutShip == "" {
		a.Colony.ScoutShip = "SCOUT"
	}
	if a.Colony.ConstructionShip == "" {
		a.Colony.ConstructionShip = "CONSTRUCTION_SHIP"
	}
	if a.Colony.CombatShip == "" {
		a.Colony.CombatShip = "CRUISER"
	}
	if a.Colony.StationDesign == "" {
		a.Colony.StationDesign = "OUTPOST"
	}
	setInt(&a.War.MinAttackFleet, 5)
	setInt(&a.War.PeacetimeRecallTurn, 5)
	if len(a.EscortTypes) == 0 {
		a.EscortTypes = []galaxy.ShipType{galaxy.ShipCruiser, galaxy.ShipHeavyCruiser, galaxy.ShipFastAttack}
	}
	if a.Regions == nil {
		a.Regions = map[string]string{
			"BORG":         RegionQuadrant,
			"DOMINION":     RegionQuadrant,
			"KLINGONS":     RegionRing,
			"TERRANEMPIRE": RegionRing,
			"FEDERATION":   RegionRing,
			"ROMULANS":     RegionRing,
			"CARDASSIANS":  RegionRing,
		}
	}

	m := &t.Map
	setInt(&m.ClaimRadiusCap, 3)
	setInt(&m.ClaimPopDivisor, 100)
	setInt(&m.ColonyScanStrength, 1)
	setInt(&m.ColonyScanRange, 1)
	if m.InterferenceByStar == nil {
		m.InterferenceByStar = map[string]int{
			"Nebula":      1,
			"XRayPulsar":  2,
			"RadioPulsar": 2,
			"NeutronStar": 1,
			"BlackHole":   3,
			"Quasar":      2,
		}
	}

	s := &t.Session
	setInt(&s.CombatAckTimeoutMs, 30000)
	setInt(&s.EventBufferSize, 4096)
	setInt(&s.InboundRatePerSec, 10)
	setInt(&s.InboundBurst, 20)
}

// Station search regions.
const (
	RegionQuadrant = "quadrant"
	RegionRing     = "ring"
)

var ErrInvalid = errors.New("invalid tuning")

func (t *Tuning) Validate() error {
	var errs []error
	if t.Engine.ParallelismFactor < 1 {
		errs = append(errs, fmt.Errorf("engine.parallelism_factor must be >= 1"))
	}
	if t.Engine.CombatWaitTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("engine.combat_wait_timeout_ms must be >= 0"))
	}
	if t.Economy.DefaultTradeRoutePopReq < 1 {
		errs = append(errs, fmt.Errorf("economy.default_trade_route_pop_req must be >= 1"))
	}
	for k, v := range t.Economy.TradeRoutePopReq {
		if v < 1 {
			errs = append(errs, fmt.Errorf("economy.trade_route_pop_req[%s] must be >= 1", k))
		}
	}
	if t.Economy.ForceFinishAdvances < 1 {
		errs = append(errs, fmt.Errorf("economy.force_finish_advances must be >= 1"))
	}
	if p := t.Economy.ScrapRefundPercent; p < 0 || p > 100 {
		errs = append(errs, fmt.Errorf("economy.scrap_refund_percent out of range: %d", p))
	}
	for k := range t.Research.StarMultipliers {
		var st galaxy.StarType
		if err := st.UnmarshalText([]byte(k)); err != nil {
			errs = append(errs, fmt.Errorf("research.star_multipliers: %w", err))
		}
	}
	if t.Session.TurnTimerSec < 0 {
		errs = append(errs, fmt.Errorf("session.turn_timer_sec must be >= 0"))
	}
	if t.Session.CombatAckTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("session.combat_ack_timeout_ms must be >= 0"))
	}
	for k, v := range t.AI.Regions {
		if v != RegionQuadrant && v != RegionRing {
			errs = append(errs, fmt.Errorf("ai.regions[%s]: unknown region %q", k, v))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// TradeRoutePopReq is the population a civ needs per trade route.
func (t *Tuning) TradeRoutePopReq(civKey string) int {
	if v, ok := t.Economy.TradeRoutePopReq[civKey]; ok && v > 0 {
		return v
	}
	return t.Economy.DefaultTradeRoutePopReq
}

// StarMultiplier returns the science-ship multiplier and whether the star
// type is listed.
func (t *Tuning) StarMultiplier(st galaxy.StarType) (int, bool) {
	v, ok := t.Research.StarMultipliers[st.String()]
	return v, ok
}

// Interference returns the scan interference radiated by a star type.
func (t *Tuning) Interference(st galaxy.StarType) int {
	return t.Map.InterferenceByStar[st.String()]
}
