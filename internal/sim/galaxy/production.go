package galaxy

type BuildKind int

const (
	BuildShip BuildKind = iota
	BuildStation
	BuildBuilding
	BuildFacility
)

// BuildProject tracks industry and resources invested toward one design.
type BuildProject struct {
	Kind         BuildKind
	DesignKey    string
	Name         string
	OwnerID      int
	ColonyID     int
	Location     MapLocation
	IndustryCost int
	ResourceCost Resources
	BuildLimit   int
	Category     ProductionCategory // BuildFacility only

	IsRushed    bool
	IsCancelled bool

	progress int
	invested Resources
}

func (p *BuildProject) Progress() int       { return p.progress }
func (p *BuildProject) Invested() Resources { return p.invested }
func (p *BuildProject) Cancel()             { p.IsCancelled = true }

func (p *BuildProject) IsCompleted() bool {
	return p.progress >= p.IndustryCost &&
		p.invested.Deuterium >= p.ResourceCost.Deuterium &&
		p.invested.Dilithium >= p.ResourceCost.Dilithium &&
		p.invested.RawMaterials >= p.ResourceCost.RawMaterials
}

func (p *BuildProject) PercentComplete() float64 {
	if p.IndustryCost <= 0 {
		return 1
	}
	return float64(p.progress) / float64(p.IndustryCost)
}

// RushCost is the credit price for completing the remaining industry.
func (p *BuildProject) RushCost(creditsPerIndustry int) int {
	remaining := p.IndustryCost - p.progress
	if remaining < 0 {
		remaining = 0
	}
	return remaining * creditsPerIndustry
}

// CloneEquivalent returns a fresh project for the same design.
func (p *BuildProject) CloneEquivalent() *BuildProject {
	c := *p
	c.progress = 0
	c.invested = Resources{}
	c.IsRushed = false
	c.IsCancelled = false
	return &c
}

// resourceNeededFor is the total of one resource the project must hold
// once progress reaches the given industry level.
func resourceNeededFor(cost, industryCost, progress int) int {
	if industryCost <= 0 || progress >= industryCost {
		return cost
	}
	return (cost*progress + industryCost - 1) / industryCost
}

// affordableProgress is the highest progress level a resource stock supports.
func affordableProgress(cost, industryCost, have int) int {
	if cost <= 0 {
		return industryCost
	}
	if have >= cost {
		return industryCost
	}
	return have * industryCost / cost
}

// Advance spends industry from *industry and resources from *pool on the
// project. Resources are drawn in proportion to industry progress so a
// short pool stalls the project rather than overdrawing. It returns the
// resources consumed.
func (p *BuildProject) Advance(industry *int, pool *Resources) Resources {
	if p.IsCompleted() || p.IsCancelled {
		return Resources{}
	}
	target := p.progress + *industry
	if target > p.IndustryCost {
		target = p.IndustryCost
	}
	limit := affordableProgress(p.ResourceCost.Deuterium, p.IndustryCost, p.invested.Deuterium+pool.Deuterium)
	if v := affordableProgress(p.ResourceCost.Dilithium, p.IndustryCost, p.invested.Dilithium+pool.Dilithium); v < limit {
		limit = v
	}
	if v := affordableProgress(p.ResourceCost.RawMaterials, p.IndustryCost, p.invested.RawMaterials+pool.RawMaterials); v < limit {
		limit = v
	}
	if target > limit {
		target = limit
	}
	if target < p.progress {
		target = p.progress
	}

	need := Resources{
		Deuterium:    resourceNeededFor(p.ResourceCost.Deuterium, p.IndustryCost, target),
		Dilithium:    resourceNeededFor(p.ResourceCost.Dilithium, p.IndustryCost, target),
		RawMaterials: resourceNeededFor(p.ResourceCost.RawMaterials, p.IndustryCost, target),
	}
	used := need.Sub(p.invested)
	if used.Deuterium < 0 {
		used.Deuterium = 0
	}
	if used.Dilithium < 0 {
		used.Dilithium = 0
	}
	if used.RawMaterials < 0 {
		used.RawMaterials = 0
	}

	*industry -= target - p.progress
	p.progress = target
	p.invested = p.invested.Add(used)
	*pool = pool.Sub(used)
	return used
}

// CompleteUnlimited finishes the project without drawing on any pool.
func (p *BuildProject) CompleteUnlimited() {
	p.progress = p.IndustryCost
	p.invested = p.ResourceCost
}

type BuildQueueItem struct {
	Project *BuildProject
	Count   int
}

type BuildSlot struct {
	Project  *BuildProject
	IsActive bool
	OnHold   bool
}

func (s *BuildSlot) HasProject() bool { return s.Project != nil }

func fillSlot(slot *BuildSlot, queue *[]*BuildQueueItem) {
	if slot.Project != nil && slot.Project.IsCancelled {
		slot.Project = nil
	}
	if slot.Project != nil || !slot.IsActive || len(*queue) == 0 {
		return
	}
	item := (*queue)[0]
	if item.Count > 1 {
		slot.Project = item.Project.CloneEquivalent()
		item.Count--
		return
	}
	slot.Project = item.Project
	*queue = (*queue)[1:]
}

type Shipyard struct {
	Design *ShipyardDesign
	Slots  []*BuildSlot
	Queue  []*BuildQueueItem
}

func NewShipyard(d *ShipyardDesign) *Shipyard {
	s := &Shipyard{Design: d}
	for i := 0; i < d.BuildSlots; i++ {
		s.Slots = append(s.Slots, &BuildSlot{IsActive: true})
	}
	return s
}

// ProcessQueue drops cancelled slot projects and fills idle slots from the queue.
func (s *Shipyard) ProcessQueue() {
	for _, slot := range s.Slots {
		fillSlot(slot, &s.Queue)
	}
}

func (s *Shipyard) Enqueue(p *BuildProject, count int) {
	if count < 1 {
		count = 1
	}
	s.Queue = append(s.Queue, &BuildQueueItem{Project: p, Count: count})
}

// GetBuildOutput is the industry a slot contributes this turn.
func (s *Shipyard) GetBuildOutput(c *Colony, slot int) int {
	if slot < 0 || slot >= len(s.Slots) {
		return 0
	}
	output := float64(s.Design.BuildSlotOutput)
	switch s.Design.OutputType {
	case ShipyardOutputPopulationRatio:
		output = output / 100 * float64(c.Population.Current())
	case ShipyardOutputIndustryRatio:
		output = output / 100 * float64(c.NetIndustry())
	}
	if s.Design.MaxOutput > 0 && output > float64(s.Design.MaxOutput) {
		output = float64(s.Design.MaxOutput)
	}
	output *= 1 + float64(c.ActiveBonus(BonusPercentShipBuilding))*0.01
	return int(output)
}
