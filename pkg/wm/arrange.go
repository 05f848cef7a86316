package wm

import (
	"fmt"
	"math"
)

// TileMode selects how Tile splits the viewport.
type TileMode int

const (
	// TileGrid arranges windows in a near-square grid.
	TileGrid TileMode = iota
	// TileColumns places windows side by side.
	TileColumns
	// TileRows stacks windows top to bottom.
	TileRows
)

// CascadeStep is the offset between cascaded windows.
const CascadeStep = 30

func (t TileMode) String() string {
	switch t {
	case TileGrid:
		return "grid"
	case TileColumns:
		return "columns"
	case TileRows:
		return "rows"
	default:
		return "unknown"
	}
}

// ParseTileMode converts a mode name to a TileMode.
func ParseTileMode(name string) (TileMode, error) {
	switch name {
	case "grid", "":
		return TileGrid, nil
	case "columns":
		return TileColumns, nil
	case "rows":
		return TileRows, nil
	default:
		return 0, fmt.Errorf("unknown tile mode %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t TileMode) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TileMode) UnmarshalText(text []byte) error {
	parsed, err := ParseTileMode(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Tile splits the viewport evenly between all visible windows.
func (m *Manager) Tile(mode TileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vw, vh := m.viewport.Size()
	return m.arrangeLocked(func(i, n int) Rect { return tileCell(mode, i, n, vw, vh) })
}

// Cascade stacks all visible windows diagonally.
func (m *Manager) Cascade() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vw, vh := m.viewport.Size()
	w := math.Round(vw * 0.6)
	h := math.Round(vh * 0.6)
	steps := max(1, int(math.Min(vw-w, vh-h)/CascadeStep))
	return m.arrangeLocked(func(i, _ int) Rect {
		off := float64(CascadeStep * (1 + i%steps))
		return Rect{X: off, Y: off, Width: w, Height: h}
	})
}

// arrangeLocked positions the visible windows in z order using place,
// forcing them normal and out of any snap group. The last one placed
// ends up on top and active.
func (m *Manager) arrangeLocked(place func(i, n int) Rect) error {
	var visible []*Window
	for _, w := range m.orderedLocked() {
		if w.State != WindowStateMinimized {
			visible = append(visible, w)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	vw, vh := m.viewport.Size()
	for i, w := range visible {
		m.removeFromGroupLocked(w)
		g, ok := ClampGeometry(place(i, len(visible)), vw, vh, w.MinWidth, w.MinHeight)
		if !ok {
			g = DefaultGeometry(vw, vh, w.MinWidth, w.MinHeight)
		}
		w.State = WindowStateNormal
		w.setGeometry(g)
		w.Placed = false
		w.ZIndex = m.takeZLocked()
		m.prefs.Geometries[w.ID] = g
		m.prefs.States[w.ID] = WindowStateNormal
	}
	m.activeID = visible[len(visible)-1].ID
	m.scheduleWriteLocked()
	m.persistSessionLocked()
	m.log.Debug("windows arranged", "count", len(visible), "active", m.activeID)
	return nil
}

// tileCell returns the i-th of n cells. The last cell on each axis takes
// the rounding remainder; a short last grid row is split evenly.
func tileCell(mode TileMode, i, n int, vw, vh float64) Rect {
	switch mode {
	case TileColumns:
		x, w := span(i, n, vw)
		return Rect{X: x, Y: 0, Width: w, Height: vh}
	case TileRows:
		y, h := span(i, n, vh)
		return Rect{X: 0, Y: y, Width: vw, Height: h}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	row, col := i/cols, i%cols
	inRow := cols
	if row == rows-1 {
		inRow = n - row*cols
	}
	x, w := span(col, inRow, vw)
	y, h := span(row, rows, vh)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func span(i, n int, total float64) (float64, float64) {
	size := math.Floor(total / float64(n))
	start := size * float64(i)
	if i == n-1 {
		return start, total - start
	}
	return start, size
}
