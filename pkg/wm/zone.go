package wm

import (
	"fmt"
	"math"
)

const (
	// EdgeThreshold is the distance in pixels from a viewport edge within
	// which a drop snaps to a side or corner zone.
	EdgeThreshold = 20

	// MaximizeThreshold is the distance from the top edge within which a
	// drop outside the corners maximizes the window.
	MaximizeThreshold = 8
)

// Zone is a screen region that snaps a dropped window.
type Zone int

const (
	// ZoneNone means the point is not in any snap zone.
	ZoneNone Zone = iota
	// ZoneLeft snaps to the left half of the viewport.
	ZoneLeft
	// ZoneRight snaps to the right half of the viewport.
	ZoneRight
	// ZoneTop maximizes the window.
	ZoneTop
	// ZoneTopLeft snaps to the top-left quadrant.
	ZoneTopLeft
	// ZoneTopRight snaps to the top-right quadrant.
	ZoneTopRight
	// ZoneBottomLeft snaps to the bottom-left quadrant.
	ZoneBottomLeft
	// ZoneBottomRight snaps to the bottom-right quadrant.
	ZoneBottomRight
)

// String returns the zone id used by the shell.
func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	case ZoneTop:
		return "top"
	case ZoneTopLeft:
		return "top-left"
	case ZoneTopRight:
		return "top-right"
	case ZoneBottomLeft:
		return "bottom-left"
	case ZoneBottomRight:
		return "bottom-right"
	default:
		return "none"
	}
}

// ParseZone converts a zone id to a Zone.
func ParseZone(name string) (Zone, error) {
	for z := ZoneLeft; z <= ZoneBottomRight; z++ {
		if z.String() == name {
			return z, nil
		}
	}
	return ZoneNone, fmt.Errorf("unknown snap zone %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (z *Zone) UnmarshalText(text []byte) error {
	if string(text) == "none" || len(text) == 0 {
		*z = ZoneNone
		return nil
	}
	parsed, err := ParseZone(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// ComputeSnapZone classifies a pointer position inside a vw×vh viewport.
// Corners win over edges, and a point exactly at a threshold is inside
// the zone. It reports false when the point is in no zone.
func ComputeSnapZone(x, y, vw, vh float64) (Zone, Rect, bool) {
	left := x <= EdgeThreshold
	right := x >= vw-EdgeThreshold
	top := y <= EdgeThreshold
	bottom := y >= vh-EdgeThreshold

	var z Zone
	switch {
	case top && left:
		z = ZoneTopLeft
	case top && right:
		z = ZoneTopRight
	case bottom && left:
		z = ZoneBottomLeft
	case bottom && right:
		z = ZoneBottomRight
	case left:
		z = ZoneLeft
	case right:
		z = ZoneRight
	case y <= MaximizeThreshold:
		z = ZoneTop
	default:
		return ZoneNone, Rect{}, false
	}
	return z, ResolveZoneGeometry(z, vw, vh), true
}

// ResolveZoneGeometry converts a zone to pixels. Halves are floored; the
// right and bottom halves take the remaining pixel of an odd dimension.
func ResolveZoneGeometry(z Zone, vw, vh float64) Rect {
	hw := math.Floor(vw / 2)
	hh := math.Floor(vh / 2)

	switch z {
	case ZoneLeft:
		return Rect{X: 0, Y: 0, Width: hw, Height: vh}
	case ZoneRight:
		return Rect{X: hw, Y: 0, Width: vw - hw, Height: vh}
	case ZoneTop:
		return Rect{X: 0, Y: 0, Width: vw, Height: vh}
	case ZoneTopLeft:
		return Rect{X: 0, Y: 0, Width: hw, Height: hh}
	case ZoneTopRight:
		return Rect{X: hw, Y: 0, Width: vw - hw, Height: hh}
	case ZoneBottomLeft:
		return Rect{X: 0, Y: hh, Width: hw, Height: vh - hh}
	case ZoneBottomRight:
		return Rect{X: hw, Y: hh, Width: vw - hw, Height: vh - hh}
	default:
		return Rect{}
	}
}

// InferLayoutFromZone returns the layout and slot a window dropped in z
// occupies.
func InferLayoutFromZone(z Zone) (LayoutID, SlotID, bool) {
	switch z {
	case ZoneLeft:
		return LayoutSplitEven, SlotLeft, true
	case ZoneRight:
		return LayoutSplitEven, SlotRight, true
	case ZoneTop:
		return LayoutFull, SlotFull, true
	case ZoneTopLeft:
		return LayoutGrid4, SlotTopLeft, true
	case ZoneTopRight:
		return LayoutGrid4, SlotTopRight, true
	case ZoneBottomLeft:
		return LayoutGrid4, SlotBottomLeft, true
	case ZoneBottomRight:
		return LayoutGrid4, SlotBottomRight, true
	default:
		return "", "", false
	}
}
