package galaxy

import "fmt"

type StarType int

const (
	StarNebula StarType = iota
	StarBlue
	StarOrange
	StarRed
	StarWhite
	StarYellow
	StarXRayPulsar
	StarRadioPulsar
	StarNeutronStar
	StarBlackHole
	StarQuasar
	StarWormhole
	StarNone
)

var starTypeNames = []string{
	"Nebula", "Blue", "Orange", "Red", "White", "Yellow",
	"XRayPulsar", "RadioPulsar", "NeutronStar", "BlackHole", "Quasar", "Wormhole", "None",
}

// IsColored reports the ordinary main-sequence stars.
func (s StarType) IsColored() bool {
	switch s {
	case StarBlue, StarOrange, StarRed, StarWhite, StarYellow:
		return true
	}
	return false
}

// IsDeathStar reports stars that fleets route around.
func (s StarType) IsDeathStar() bool { return s == StarBlackHole || s == StarNeutronStar }

func (s StarType) String() string                { return enumName(starTypeNames, int(s)) }
func (s StarType) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s *StarType) UnmarshalText(b []byte) error { return parseEnum(starTypeNames, "star type", b, (*int)(s)) }

type PlanetType int

const (
	PlanetTerran PlanetType = iota
	PlanetOceanic
	PlanetDesert
	PlanetArctic
	PlanetJungle
	PlanetBarren
	PlanetVolcanic
	PlanetRogue
	PlanetDemon
	PlanetCrystalline
	PlanetGasGiant
	PlanetAsteroids
)

var planetTypeNames = []string{
	"Terran", "Oceanic", "Desert", "Arctic", "Jungle", "Barren",
	"Volcanic", "Rogue", "Demon", "Crystalline", "GasGiant", "Asteroids",
}

func (p PlanetType) String() string                { return enumName(planetTypeNames, int(p)) }
func (p PlanetType) MarshalText() ([]byte, error)  { return []byte(p.String()), nil }
func (p *PlanetType) UnmarshalText(b []byte) error { return parseEnum(planetTypeNames, "planet type", b, (*int)(p)) }

// ShipType is ordered: everything from ShipScout upward is a combat hull.
type ShipType int

const (
	ShipColony ShipType = iota
	ShipConstruction
	ShipMedical
	ShipTransport
	ShipDiplomatic
	ShipScience
	ShipSpy
	ShipScout
	ShipFastAttack
	ShipCruiser
	ShipHeavyCruiser
	ShipStrikeCruiser
	ShipCommand
)

var shipTypeNames = []string{
	"Colony", "Construction", "Medical", "Transport", "Diplomatic", "Science", "Spy",
	"Scout", "FastAttack", "Cruiser", "HeavyCruiser", "StrikeCruiser", "Command",
}

func (t ShipType) IsCombatant() bool             { return t >= ShipScout }
func (t ShipType) String() string                { return enumName(shipTypeNames, int(t)) }
func (t ShipType) MarshalText() ([]byte, error)  { return []byte(t.String()), nil }
func (t *ShipType) UnmarshalText(b []byte) error { return parseEnum(shipTypeNames, "ship type", b, (*int)(t)) }

type UnitAIType int

const (
	UnitAINone UnitAIType = iota
	UnitAIReserve
	UnitAIColonizer
	UnitAIConstructor
	UnitAISystemAttack
	UnitAIExplorer
	UnitAIMedical
	UnitAIDiplomatic
	UnitAISpy
	UnitAIScience
	UnitAIBuilding
)

var unitAINames = []string{
	"NoUnitAI", "Reserve", "Colonizer", "Constructor", "SystemAttack", "Explorer",
	"Medical", "Diplomatic", "Spy", "Science", "Building",
}

func (t UnitAIType) String() string               { return enumName(unitAINames, int(t)) }
func (t UnitAIType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *UnitAIType) UnmarshalText(b []byte) error {
	return parseEnum(unitAINames, "unit ai type", b, (*int)(t))
}

type UnitActivity int

const (
	ActivityNone UnitActivity = iota
	ActivityMission
	ActivityHold
	ActivityBuildStation
)

var activityNames = []string{"NoActivity", "Mission", "Hold", "BuildStation"}

func (a UnitActivity) String() string               { return enumName(activityNames, int(a)) }
func (a UnitActivity) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

type CivType int

const (
	CivEmpire CivType = iota
	CivMinorPower
)

var civTypeNames = []string{"Empire", "MinorPower"}

func (c CivType) String() string                { return enumName(civTypeNames, int(c)) }
func (c CivType) MarshalText() ([]byte, error)  { return []byte(c.String()), nil }
func (c *CivType) UnmarshalText(b []byte) error { return parseEnum(civTypeNames, "civ type", b, (*int)(c)) }

type ProductionCategory int

const (
	ProdFood ProductionCategory = iota
	ProdIndustry
	ProdEnergy
	ProdResearch
	ProdIntelligence
)

var prodNames = []string{"Food", "Industry", "Energy", "Research", "Intelligence"}

func (p ProductionCategory) String() string                { return enumName(prodNames, int(p)) }
func (p ProductionCategory) MarshalText() ([]byte, error)  { return []byte(p.String()), nil }
func (p *ProductionCategory) UnmarshalText(b []byte) error { return parseEnum(prodNames, "production category", b, (*int)(p)) }

type BonusType int

const (
	BonusMorale BonusType = iota
	BonusMoraleEmpireWide
	BonusScanRange
	BonusTradeRoutes
	BonusPercentTradeIncome
	BonusPercentCredits
	BonusPercentTotalCredits
	BonusPercentShipBuilding
	BonusFood
	BonusIndustry
	BonusEnergy
	BonusResearch
)

var bonusNames = []string{
	"Morale", "MoraleEmpireWide", "ScanRange", "TradeRoutes", "PercentTradeIncome",
	"PercentCredits", "PercentTotalCredits", "PercentShipBuilding",
	"Food", "Industry", "Energy", "Research",
}

// IsGlobal reports bonuses that apply empire-wide rather than at their colony.
func (b BonusType) IsGlobal() bool {
	return b == BonusMoraleEmpireWide || b == BonusPercentTotalCredits
}

func (b BonusType) String() string                 { return enumName(bonusNames, int(b)) }
func (b BonusType) MarshalText() ([]byte, error)   { return []byte(b.String()), nil }
func (b *BonusType) UnmarshalText(bs []byte) error { return parseEnum(bonusNames, "bonus type", bs, (*int)(b)) }

// DiplomacyStatus is one civ's standing towards another, lowest first.
type DiplomacyStatus int

const (
	StatusNoContact DiplomacyStatus = iota
	StatusAtWar
	StatusCold
	StatusNeutral
	StatusPeace
	StatusFriendly
	StatusAffiliated
	StatusAllied
	StatusOwnerIsMember
	StatusCounterpartyIsMember
)

var statusNames = []string{
	"NoContact", "AtWar", "Cold", "Neutral", "Peace", "Friendly",
	"Affiliated", "Allied", "OwnerIsMember", "CounterpartyIsMember",
}

func (s DiplomacyStatus) IsMembership() bool {
	return s == StatusOwnerIsMember || s == StatusCounterpartyIsMember
}

func (s DiplomacyStatus) String() string                { return enumName(statusNames, int(s)) }
func (s DiplomacyStatus) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s *DiplomacyStatus) UnmarshalText(b []byte) error { return parseEnum(statusNames, "diplomacy status", b, (*int)(s)) }

// Treaty names the standing agreements other systems ask about.
type Treaty int

const (
	TreatyNonAggression Treaty = iota
	TreatyOpenBorders
	TreatyAffiliation
	TreatyDefensiveAlliance
	TreatyFullAlliance
	TreatyMembership
	TreatyWarPact
	TreatyCeaseFire
	TreatyResearchPact
	TreatyTradePact
)

func enumName(names []string, v int) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("Unknown(%d)", v)
}

func parseEnum(names []string, kind string, b []byte, out *int) error {
	s := string(b)
	for i, n := range names {
		if n == s {
			*out = i
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, s)
}
