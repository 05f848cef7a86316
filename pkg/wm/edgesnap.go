package wm

import (
	"fmt"
	"math"
)

// EdgeSnapThreshold is the distance in pixels within which a dragged or
// resized edge is pulled onto a sibling's edge.
const EdgeSnapThreshold = 12

// Edge identifies a window edge that snapped.
type Edge int

const (
	// EdgeNone means no edge snapped on that axis.
	EdgeNone Edge = iota
	EdgeLeft
	EdgeRight
	EdgeTop
	EdgeBottom
)

// String returns the edge name.
func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// SnappedEdges reports which edge snapped on each axis.
type SnappedEdges struct {
	Horizontal Edge `json:"horizontal" yaml:"horizontal"`
	Vertical   Edge `json:"vertical" yaml:"vertical"`
}

// EdgeSnapResult is the magnetically adjusted geometry.
type EdgeSnapResult struct {
	Geometry Rect         `json:"geometry" yaml:"geometry"`
	Snapped  SnappedEdges `json:"snappedEdges" yaml:"snappedEdges"`
}

// ResizeDirection is the handle a window is being resized from.
type ResizeDirection int

// Resize handles, named by compass direction.
const (
	ResizeNorth ResizeDirection = iota + 1
	ResizeSouth
	ResizeEast
	ResizeWest
	ResizeNorthEast
	ResizeNorthWest
	ResizeSouthEast
	ResizeSouthWest
)

var resizeNames = map[ResizeDirection]string{
	ResizeNorth:     "n",
	ResizeSouth:     "s",
	ResizeEast:      "e",
	ResizeWest:      "w",
	ResizeNorthEast: "ne",
	ResizeNorthWest: "nw",
	ResizeSouthEast: "se",
	ResizeSouthWest: "sw",
}

// String returns the compass abbreviation of the direction.
func (d ResizeDirection) String() string {
	if name, ok := resizeNames[d]; ok {
		return name
	}
	return "unknown"
}

// ParseResizeDirection accepts compass abbreviations ("se") and full
// names ("southeast").
func ParseResizeDirection(name string) (ResizeDirection, error) {
	switch name {
	case "n", "north":
		return ResizeNorth, nil
	case "s", "south":
		return ResizeSouth, nil
	case "e", "east":
		return ResizeEast, nil
	case "w", "west":
		return ResizeWest, nil
	case "ne", "northeast":
		return ResizeNorthEast, nil
	case "nw", "northwest":
		return ResizeNorthWest, nil
	case "se", "southeast":
		return ResizeSouthEast, nil
	case "sw", "southwest":
		return ResizeSouthWest, nil
	default:
		return 0, fmt.Errorf("unknown resize direction %q", name)
	}
}

func (d ResizeDirection) east() bool {
	return d == ResizeEast || d == ResizeNorthEast || d == ResizeSouthEast
}

func (d ResizeDirection) west() bool {
	return d == ResizeWest || d == ResizeNorthWest || d == ResizeSouthWest
}

func (d ResizeDirection) north() bool {
	return d == ResizeNorth || d == ResizeNorthEast || d == ResizeNorthWest
}

func (d ResizeDirection) south() bool {
	return d == ResizeSouth || d == ResizeSouthEast || d == ResizeSouthWest
}

// axisBest tracks the closest snap found so far on one axis.
type axisBest struct {
	dist float64
}

func newAxisBest() axisBest { return axisBest{dist: math.Inf(1)} }

// accept reports whether delta is within threshold and strictly closer
// than anything seen before, recording it if so.
func (b *axisBest) accept(delta float64) bool {
	d := math.Abs(delta)
	if d > EdgeSnapThreshold || d >= b.dist {
		return false
	}
	b.dist = d
	return true
}

// ComputeEdgeSnap adjusts the position of a window being dragged so its
// edges stick to nearby candidate edges. Horizontal relationships are
// only considered against candidates that overlap g vertically by at
// least one pixel, and vice versa. Each axis independently takes the
// closest match across all candidates.
func ComputeEdgeSnap(g Rect, candidates []Rect) EdgeSnapResult {
	res := EdgeSnapResult{Geometry: g}
	bx, by := newAxisBest(), newAxisBest()

	for _, c := range candidates {
		if g.verticalOverlap(c) >= 1 {
			if bx.accept(c.X - g.Right()) {
				res.Geometry.X = c.X - g.Width
				res.Snapped.Horizontal = EdgeRight
			}
			if bx.accept(c.Right() - g.X) {
				res.Geometry.X = c.Right()
				res.Snapped.Horizontal = EdgeLeft
			}
			if bx.accept(c.X - g.X) {
				res.Geometry.X = c.X
				res.Snapped.Horizontal = EdgeLeft
			}
			if bx.accept(c.Right() - g.Right()) {
				res.Geometry.X = c.Right() - g.Width
				res.Snapped.Horizontal = EdgeRight
			}
		}
		if g.horizontalOverlap(c) >= 1 {
			if by.accept(c.Y - g.Bottom()) {
				res.Geometry.Y = c.Y - g.Height
				res.Snapped.Vertical = EdgeBottom
			}
			if by.accept(c.Bottom() - g.Y) {
				res.Geometry.Y = c.Bottom()
				res.Snapped.Vertical = EdgeTop
			}
			if by.accept(c.Y - g.Y) {
				res.Geometry.Y = c.Y
				res.Snapped.Vertical = EdgeTop
			}
			if by.accept(c.Bottom() - g.Bottom()) {
				res.Geometry.Y = c.Bottom() - g.Height
				res.Snapped.Vertical = EdgeBottom
			}
		}
	}
	return res
}

// ComputeResizeEdgeSnap adjusts the moving edges of a window being
// resized from dir. The opposite edge of each axis stays where it is.
//
// Distances are measured from the moving edge as it was on entry, never
// from a value already corrected towards an earlier candidate. Snaps that
// would shrink the window below minW×minH are ignored. For diagonal
// directions the horizontal axis is resolved first and the vertical
// overlap gate uses the corrected geometry.
func ComputeResizeEdgeSnap(g Rect, dir ResizeDirection, candidates []Rect, minW, minH float64) EdgeSnapResult {
	res := EdgeSnapResult{Geometry: g}
	minW = math.Max(minW, 1)
	minH = math.Max(minH, 1)

	origLeft, origRight := g.X, g.Right()
	origTop, origBottom := g.Y, g.Bottom()

	if dir.east() || dir.west() {
		cur := res.Geometry
		best := newAxisBest()
		for _, c := range candidates {
			if cur.verticalOverlap(c) < 1 {
				continue
			}
			for _, target := range []float64{c.X, c.Right()} {
				if dir.east() {
					if target-origLeft < minW || !best.accept(target-origRight) {
						continue
					}
					res.Geometry.X = origLeft
					res.Geometry.Width = target - origLeft
					res.Snapped.Horizontal = EdgeRight
				} else {
					if origRight-target < minW || !best.accept(target-origLeft) {
						continue
					}
					res.Geometry.X = target
					res.Geometry.Width = origRight - target
					res.Snapped.Horizontal = EdgeLeft
				}
			}
		}
	}

	if dir.north() || dir.south() {
		cur := res.Geometry
		best := newAxisBest()
		for _, c := range candidates {
			if cur.horizontalOverlap(c) < 1 {
				continue
			}
			for _, target := range []float64{c.Y, c.Bottom()} {
				if dir.south() {
					if target-origTop < minH || !best.accept(target-origBottom) {
						continue
					}
					res.Geometry.Y = origTop
					res.Geometry.Height = target - origTop
					res.Snapped.Vertical = EdgeBottom
				} else {
					if origBottom-target < minH || !best.accept(target-origTop) {
						continue
					}
					res.Geometry.Y = target
					res.Geometry.Height = origBottom - target
					res.Snapped.Vertical = EdgeTop
				}
			}
		}
	}
	return res
}
