package galaxy

import "supremacy.ai/internal/sim/meter"

// DefaultGrowthRate is the base growth rate of a newly founded colony.
const DefaultGrowthRate = 0.02

type FacilityPool struct {
	Design       *FacilityDesign
	Total        int
	Active       int
	ScrapPending int
}

type Building struct {
	Design   *BuildingDesign
	IsActive bool
	Scrap    bool
}

type Colony struct {
	Base
	SystemID        int
	OriginalOwnerID int

	Population       meter.Meter
	FoodReserves     meter.Meter
	Morale           meter.Meter
	Health           meter.Meter
	ShieldStrength   meter.Meter
	CreditsFromTrade meter.Meter

	BaseGrowthRate float64
	MaxPopulation  int
	TaxRate        float64
	ShieldCapacity int
	// ResourceOutput is what the system yields per turn (bonus deposits).
	ResourceOutput Resources

	Facilities  map[ProductionCategory]*FacilityPool
	Buildings   []*Building
	BuildSlot   BuildSlot
	BuildQueue  []*BuildQueueItem
	Shipyard    *Shipyard
	TradeRoutes []*TradeRoute
}

// NewColony returns an unregistered colony with standard meters.
func NewColony(owner int, sys *StarSystem, pop, maxPop int) *Colony {
	return &Colony{
		Base:             Base{Name: sys.Name, Location: sys.Location, OwnerID: owner},
		SystemID:         sys.ID,
		OriginalOwnerID:  owner,
		Population:       meter.New(pop, 0, maxPop),
		FoodReserves:     meter.NewUnbounded(0),
		Morale:           meter.New(100, 0, 200),
		Health:           meter.New(100, 0, 100),
		ShieldStrength:   meter.New(0, 0, 0),
		CreditsFromTrade: meter.NewUnbounded(0),
		MaxPopulation:    maxPop,
		TaxRate:          0.1,
		BaseGrowthRate:   DefaultGrowthRate,
		Facilities:       map[ProductionCategory]*FacilityPool{},
		BuildSlot:        BuildSlot{IsActive: true},
	}
}

func (c *Colony) ResetTurnState() {
	c.Morale.Reset()
	c.CreditsFromTrade.SetCurrent(0)
	c.CreditsFromTrade.UpdateAndReset()
}

// GrowthRate scales the base growth by colony health.
func (c *Colony) GrowthRate() float64 {
	return c.BaseGrowthRate * float64(c.Health.Current()) / 100
}

func (c *Colony) Facility(cat ProductionCategory) *FacilityPool {
	return c.Facilities[cat]
}

// UsedLabor is the population tied up in active facilities.
func (c *Colony) UsedLabor() int {
	used := 0
	for _, f := range c.Facilities {
		if f.Design != nil {
			used += f.Active * f.Design.LaborCost
		}
	}
	return used
}

func (c *Colony) AvailableLabor() int { return c.Population.Current() - c.UsedLabor() }

// CanActivateFacility reports an idle facility and enough free labor to staff it.
func (c *Colony) CanActivateFacility(cat ProductionCategory) bool {
	f := c.Facilities[cat]
	if f == nil || f.Design == nil || f.Active >= f.Total {
		return false
	}
	return c.AvailableLabor() >= f.Design.LaborCost
}

func (c *Colony) ActivateFacility(cat ProductionCategory) bool {
	if !c.CanActivateFacility(cat) {
		return false
	}
	c.Facilities[cat].Active++
	return true
}

func (c *Colony) DeactivateFacility(cat ProductionCategory) bool {
	f := c.Facilities[cat]
	if f == nil || f.Active == 0 {
		return false
	}
	f.Active--
	return true
}

// DeactivateAllFacilities releases labor before a population-driven reallocation.
func (c *Colony) DeactivateAllFacilities() {
	for _, f := range c.Facilities {
		f.Active = 0
	}
}

// ActiveBonus sums the given bonus over active buildings.
func (c *Colony) ActiveBonus(t BonusType) int {
	total := 0
	for _, b := range c.Buildings {
		if !b.IsActive || b.Design == nil {
			continue
		}
		for _, bonus := range b.Design.Bonuses {
			if bonus.Type == t {
				total += bonus.Amount
			}
		}
	}
	return total
}

func (c *Colony) output(cat ProductionCategory, bonus BonusType) int {
	f := c.Facilities[cat]
	if f == nil || f.Design == nil {
		return 0
	}
	base := f.Active * f.Design.Output
	return base + base*c.ActiveBonus(bonus)/100
}

func (c *Colony) NetFood() int         { return c.output(ProdFood, BonusFood) }
func (c *Colony) NetIndustry() int     { return c.output(ProdIndustry, BonusIndustry) }
func (c *Colony) NetEnergy() int       { return c.output(ProdEnergy, BonusEnergy) }
func (c *Colony) NetResearch() int     { return c.output(ProdResearch, BonusResearch) }
func (c *Colony) NetIntelligence() int { return c.output(ProdIntelligence, BonusType(-1)) }

func (c *Colony) TaxCredits() int {
	return int(float64(c.Population.Current()) * c.TaxRate)
}

// ActiveBuildingEnergy is the energy drawn by powered buildings.
func (c *Colony) ActiveBuildingEnergy() int {
	total := 0
	for _, b := range c.Buildings {
		if b.IsActive && b.Design != nil {
			total += b.Design.EnergyCost
		}
	}
	return total
}

// EnsureEnergyForBuildings staffs energy facilities until powered buildings
// are covered, then powers down buildings from the back of the list. It
// returns the number of buildings shut down.
func (c *Colony) EnsureEnergyForBuildings() int {
	for c.ActiveBuildingEnergy() > c.NetEnergy() && c.ActivateFacility(ProdEnergy) {
	}
	shut := 0
	for i := len(c.Buildings) - 1; i >= 0 && c.ActiveBuildingEnergy() > c.NetEnergy(); i-- {
		b := c.Buildings[i]
		if b.IsActive && b.Design != nil && b.Design.EnergyCost > 0 {
			b.IsActive = false
			shut++
		}
	}
	return shut
}

// PowerIdleBuildings switches unpowered buildings back on while energy allows.
func (c *Colony) PowerIdleBuildings() {
	for _, b := range c.Buildings {
		if b.IsActive || b.Scrap || b.Design == nil {
			continue
		}
		if c.ActiveBuildingEnergy()+b.Design.EnergyCost <= c.NetEnergy() {
			b.IsActive = true
		}
	}
}

// ScrapNonStructures removes buildings and facilities flagged for scrapping
// and returns the resources refunded by percent of their build cost.
func (c *Colony) ScrapNonStructures(refundPercent int) Resources {
	var refund Resources
	kept := c.Buildings[:0]
	for _, b := range c.Buildings {
		if b.Scrap {
			if b.Design != nil {
				refund.RawMaterials += b.Design.Resources.RawMaterials * refundPercent / 100
			}
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(c.Buildings); i++ {
		c.Buildings[i] = nil
	}
	c.Buildings = kept
	for _, f := range c.Facilities {
		if f.ScrapPending <= 0 {
			continue
		}
		n := f.ScrapPending
		if n > f.Total {
			n = f.Total
		}
		f.Total -= n
		if f.Active > f.Total {
			f.Active = f.Total
		}
		f.ScrapPending = 0
	}
	return refund
}

// RefreshShielding restores shields to capacity after combat.
func (c *Colony) RefreshShielding() {
	c.ShieldStrength.SetMax(c.ShieldCapacity)
	c.ShieldStrength.Saturate()
}

func (c *Colony) HasBuildWork() bool {
	return c.BuildSlot.Project != nil || len(c.BuildQueue) > 0
}

// ProcessQueue clears a cancelled slot project and pulls the next queued item.
func (c *Colony) ProcessQueue() {
	fillSlot(&c.BuildSlot, &c.BuildQueue)
}

func (c *Colony) Enqueue(p *BuildProject, count int) {
	if count < 1 {
		count = 1
	}
	c.BuildQueue = append(c.BuildQueue, &BuildQueueItem{Project: p, Count: count})
}
