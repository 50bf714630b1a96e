package galaxy

import (
	"fmt"
	"math"

	"supremacy.ai/internal/sim/logic/mathx"
)

// MapLocation addresses one sector of the galaxy grid.
type MapLocation struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (l MapLocation) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }

// Distance is the number of sector steps between two locations (8-neighborhood).
func (l MapLocation) Distance(o MapLocation) int {
	return mathx.MaxInt(mathx.AbsInt(l.X-o.X), mathx.AbsInt(l.Y-o.Y))
}

// EuclidDistance is used by placement heuristics that care about straight-line reach.
func (l MapLocation) EuclidDistance(o MapLocation) float64 {
	dx := float64(l.X - o.X)
	dy := float64(l.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

type SectorMap struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (m SectorMap) Contains(l MapLocation) bool {
	return l.X >= 0 && l.Y >= 0 && l.X < m.Width && l.Y < m.Height
}

func (m SectorMap) Center() MapLocation { return MapLocation{X: m.Width / 2, Y: m.Height / 2} }

func (m SectorMap) index(l MapLocation) int { return l.Y*m.Width + l.X }

func (m SectorMap) cells() int { return m.Width * m.Height }

// Each visits every location in row-major order.
func (m SectorMap) Each(fn func(MapLocation)) {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			fn(MapLocation{X: x, Y: y})
		}
	}
}

// Within returns the in-bounds locations at most radius steps from center, row-major.
func (m SectorMap) Within(center MapLocation, radius int) []MapLocation {
	out := make([]MapLocation, 0, (2*radius+1)*(2*radius+1))
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			l := MapLocation{X: x, Y: y}
			if m.Contains(l) {
				out = append(out, l)
			}
		}
	}
	return out
}
