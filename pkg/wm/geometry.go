package wm

import "math"

const (
	// MinVisible is the number of pixels of a window that must stay inside
	// the viewport horizontally, and below the top edge vertically.
	MinVisible = 50

	// DefaultMinWidth and DefaultMinHeight apply when a window declares no
	// minimum size.
	DefaultMinWidth  = 320
	DefaultMinHeight = 240

	defaultWidthRatio  = 0.75
	defaultHeightRatio = 0.8
)

// Rect is a window geometry in viewport pixels.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Valid reports whether all four fields are finite numbers.
func (r Rect) Valid() bool {
	return finite(r.X) && finite(r.Y) && finite(r.Width) && finite(r.Height)
}

// Contains checks if a point is within the rect, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// verticalOverlap returns how many pixels r and o share on the y axis.
func (r Rect) verticalOverlap(o Rect) float64 {
	return math.Min(r.Bottom(), o.Bottom()) - math.Max(r.Y, o.Y)
}

// horizontalOverlap returns how many pixels r and o share on the x axis.
func (r Rect) horizontalOverlap(o Rect) float64 {
	return math.Min(r.Right(), o.Right()) - math.Max(r.X, o.X)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ClampGeometry validates r and fits it to a vw×vh viewport. The whole
// record is rejected when any field is NaN or infinite. Width and height
// are clamped into [min, viewport]; the minimum wins when the viewport is
// smaller. The position keeps MinVisible pixels on screen horizontally and
// the top edge within [0, vh-MinVisible].
func ClampGeometry(r Rect, vw, vh, minW, minH float64) (Rect, bool) {
	if !r.Valid() {
		return Rect{}, false
	}

	r.Width = clampSize(r.Width, minW, vw)
	r.Height = clampSize(r.Height, minH, vh)

	r.X = clamp(r.X, MinVisible-r.Width, vw-MinVisible)
	r.Y = clamp(r.Y, 0, math.Max(0, vh-MinVisible))
	return r, true
}

// DefaultGeometry returns a centered rect sized to 75%×80% of the
// viewport, never smaller than the given minimums.
func DefaultGeometry(vw, vh, minW, minH float64) Rect {
	w := clampSize(math.Round(vw*defaultWidthRatio), minW, vw)
	h := clampSize(math.Round(vh*defaultHeightRatio), minH, vh)
	r := Rect{
		X:      math.Round((vw - w) / 2),
		Y:      math.Round((vh - h) / 2),
		Width:  w,
		Height: h,
	}
	r.X = clamp(r.X, MinVisible-r.Width, vw-MinVisible)
	r.Y = clamp(r.Y, 0, math.Max(0, vh-MinVisible))
	return r
}

func clampSize(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
