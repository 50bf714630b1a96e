package galaxy

import (
	"math"
	"sort"
	"sync"
)

// NoFuel is the fuel range reported for sectors no fuel source reaches.
const NoFuel = math.MaxInt32

// MapData is one civ's knowledge of the map: what it has scanned and
// explored, its sensor coverage and the distance to the nearest fuel source.
type MapData struct {
	Map SectorMap

	scanned      []bool
	explored     []bool
	scanStrength []int
	fuelRange    []int
}

func NewMapData(m SectorMap) *MapData {
	d := &MapData{
		Map:          m,
		scanned:      make([]bool, m.cells()),
		explored:     make([]bool, m.cells()),
		scanStrength: make([]int, m.cells()),
		fuelRange:    make([]int, m.cells()),
	}
	for i := range d.fuelRange {
		d.fuelRange[i] = NoFuel
	}
	return d
}

func (d *MapData) IsScanned(l MapLocation) bool {
	return d.Map.Contains(l) && d.scanned[d.Map.index(l)]
}

func (d *MapData) SetScanned(l MapLocation, v bool) {
	if d.Map.Contains(l) {
		d.scanned[d.Map.index(l)] = v
	}
}

func (d *MapData) IsExplored(l MapLocation) bool {
	return d.Map.Contains(l) && d.explored[d.Map.index(l)]
}

func (d *MapData) SetExplored(l MapLocation, v bool) {
	if d.Map.Contains(l) {
		d.explored[d.Map.index(l)] = v
	}
}

func (d *MapData) GetScanStrength(l MapLocation) int {
	if !d.Map.Contains(l) {
		return 0
	}
	return d.scanStrength[d.Map.index(l)]
}

// UpgradeScanStrength raises coverage to strength within scanRange of
// center and marks those sectors scanned.
func (d *MapData) UpgradeScanStrength(center MapLocation, strength, scanRange int) {
	for _, l := range d.Map.Within(center, scanRange) {
		i := d.Map.index(l)
		if strength > d.scanStrength[i] {
			d.scanStrength[i] = strength
		}
		d.scanned[i] = true
	}
}

// GetFuelRange is the distance from l to the nearest fuel source.
func (d *MapData) GetFuelRange(l MapLocation) int {
	if !d.Map.Contains(l) {
		return NoFuel
	}
	return d.fuelRange[d.Map.index(l)]
}

// UpgradeFuelRange keeps the smaller of the current and offered distance.
func (d *MapData) UpgradeFuelRange(l MapLocation, distance int) {
	if !d.Map.Contains(l) {
		return
	}
	i := d.Map.index(l)
	if distance < d.fuelRange[i] {
		d.fuelRange[i] = distance
	}
}

func (d *MapData) ResetScanStrengthAndFuelRange() {
	for i := range d.scanStrength {
		d.scanStrength[i] = 0
		d.fuelRange[i] = NoFuel
	}
}

// ApplyScanInterference subtracts a per-sector interference grid from coverage.
func (d *MapData) ApplyScanInterference(grid []int) {
	for i := range d.scanStrength {
		if i >= len(grid) {
			break
		}
		v := d.scanStrength[i] - grid[i]
		if v < 0 {
			v = 0
		}
		d.scanStrength[i] = v
	}
}

// Visibility levels reported by VisibilityLayer.
const (
	VisUnknown uint16 = iota
	VisScanned
	VisExplored
)

// VisibilityLayer returns the row-major visibility level of every sector.
func (d *MapData) VisibilityLayer() []uint16 {
	out := make([]uint16, len(d.scanned))
	for i := range out {
		switch {
		case d.explored[i]:
			out[i] = VisExplored
		case d.scanned[i]:
			out[i] = VisScanned
		}
	}
	return out
}

// SectorClaimGrid accumulates territorial claims for the current turn.
type SectorClaimGrid struct {
	Map SectorMap

	mu     sync.Mutex
	claims map[MapLocation]map[int]int
}

func NewSectorClaimGrid(m SectorMap) *SectorClaimGrid {
	return &SectorClaimGrid{Map: m, claims: map[MapLocation]map[int]int{}}
}

func (g *SectorClaimGrid) ClearClaims() {
	g.mu.Lock()
	g.claims = map[MapLocation]map[int]int{}
	g.mu.Unlock()
}

func (g *SectorClaimGrid) AddClaim(l MapLocation, civID, weight int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	byCiv := g.claims[l]
	if byCiv == nil {
		byCiv = map[int]int{}
		g.claims[l] = byCiv
	}
	byCiv[civID] += weight
}

// Owner is the heaviest claimant; ties go to the lowest civ id.
func (g *SectorClaimGrid) Owner(l MapLocation) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	best, bestW := NoOwner, 0
	for civ, w := range g.claims[l] {
		if w > bestW || (w == bestW && best != NoOwner && civ < best) {
			best, bestW = civ, w
		}
	}
	return best, best != NoOwner
}

func (g *SectorClaimGrid) Weight(l MapLocation, civID int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claims[l][civID]
}

// OwnedBy lists sectors owned by civID, row-major.
func (g *SectorClaimGrid) OwnedBy(civID int) []MapLocation {
	g.mu.Lock()
	locs := make([]MapLocation, 0, len(g.claims))
	for l := range g.claims {
		locs = append(locs, l)
	}
	g.mu.Unlock()
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Y != locs[j].Y {
			return locs[i].Y < locs[j].Y
		}
		return locs[i].X < locs[j].X
	})
	out := locs[:0]
	for _, l := range locs {
		if owner, ok := g.Owner(l); ok && owner == civID {
			out = append(out, l)
		}
	}
	return out
}

// OwnerLayer returns the row-major sector owners as civ ID + 1, with 0 for
// unclaimed sectors.
func (g *SectorClaimGrid) OwnerLayer() []uint16 {
	out := make([]uint16, g.Map.cells())
	g.Map.Each(func(l MapLocation) {
		if owner, ok := g.Owner(l); ok {
			out[g.Map.index(l)] = uint16(owner + 1)
		}
	})
	return out
}
