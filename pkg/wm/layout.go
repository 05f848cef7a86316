package wm

import "math"

// LayoutID names a tiling template in the layout catalog.
type LayoutID string

// SlotID names a region inside a layout.
type SlotID string

// Catalog layouts.
const (
	LayoutFull            LayoutID = "full"
	LayoutSplitEven       LayoutID = "split-even"
	LayoutSplit6040       LayoutID = "split-60-40"
	LayoutSplitHorizontal LayoutID = "split-horizontal"
	LayoutThreeLeftWide   LayoutID = "three-left-wide"
	LayoutThreeRightWide  LayoutID = "three-right-wide"
	LayoutGrid4           LayoutID = "grid-4"
)

// Slot ids used by the catalog layouts.
const (
	SlotFull        SlotID = "full"
	SlotLeft        SlotID = "left"
	SlotRight       SlotID = "right"
	SlotTop         SlotID = "top"
	SlotBottom      SlotID = "bottom"
	SlotTopLeft     SlotID = "top-left"
	SlotTopRight    SlotID = "top-right"
	SlotBottomLeft  SlotID = "bottom-left"
	SlotBottomRight SlotID = "bottom-right"
)

// LayoutSlot is a rectangle expressed as fractions (0-1) of the viewport.
type LayoutSlot struct {
	ID     SlotID  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Layout is an immutable tiling template.
type Layout struct {
	ID    LayoutID     `json:"id" yaml:"id"`
	Label string       `json:"label" yaml:"label"`
	Slots []LayoutSlot `json:"slots" yaml:"slots"`
}

// Slot returns the slot with the given id.
func (l Layout) Slot(id SlotID) (LayoutSlot, bool) {
	for _, s := range l.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return LayoutSlot{}, false
}

var catalog = []Layout{
	{
		ID:    LayoutFull,
		Label: "Full Screen",
		Slots: []LayoutSlot{{ID: SlotFull, X: 0, Y: 0, Width: 1, Height: 1}},
	},
	{
		ID:    LayoutSplitEven,
		Label: "Side by Side",
		Slots: []LayoutSlot{
			{ID: SlotLeft, X: 0, Y: 0, Width: 0.5, Height: 1},
			{ID: SlotRight, X: 0.5, Y: 0, Width: 0.5, Height: 1},
		},
	},
	{
		ID:    LayoutSplit6040,
		Label: "Side by Side 60/40",
		Slots: []LayoutSlot{
			{ID: SlotLeft, X: 0, Y: 0, Width: 0.6, Height: 1},
			{ID: SlotRight, X: 0.6, Y: 0, Width: 0.4, Height: 1},
		},
	},
	{
		ID:    LayoutSplitHorizontal,
		Label: "Top and Bottom",
		Slots: []LayoutSlot{
			{ID: SlotTop, X: 0, Y: 0, Width: 1, Height: 0.5},
			{ID: SlotBottom, X: 0, Y: 0.5, Width: 1, Height: 0.5},
		},
	},
	{
		ID:    LayoutThreeLeftWide,
		Label: "Wide Left, Two Right",
		Slots: []LayoutSlot{
			{ID: SlotLeft, X: 0, Y: 0, Width: 0.6, Height: 1},
			{ID: SlotTopRight, X: 0.6, Y: 0, Width: 0.4, Height: 0.5},
			{ID: SlotBottomRight, X: 0.6, Y: 0.5, Width: 0.4, Height: 0.5},
		},
	},
	{
		ID:    LayoutThreeRightWide,
		Label: "Two Left, Wide Right",
		Slots: []LayoutSlot{
			{ID: SlotTopLeft, X: 0, Y: 0, Width: 0.4, Height: 0.5},
			{ID: SlotBottomLeft, X: 0, Y: 0.5, Width: 0.4, Height: 0.5},
			{ID: SlotRight, X: 0.4, Y: 0, Width: 0.6, Height: 1},
		},
	},
	{
		ID:    LayoutGrid4,
		Label: "Four Quadrants",
		Slots: []LayoutSlot{
			{ID: SlotTopLeft, X: 0, Y: 0, Width: 0.5, Height: 0.5},
			{ID: SlotTopRight, X: 0.5, Y: 0, Width: 0.5, Height: 0.5},
			{ID: SlotBottomLeft, X: 0, Y: 0.5, Width: 0.5, Height: 0.5},
			{ID: SlotBottomRight, X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5},
		},
	},
}

// Layouts returns a copy of the layout catalog.
func Layouts() []Layout {
	out := make([]Layout, len(catalog))
	for i, l := range catalog {
		out[i] = copyLayout(l)
	}
	return out
}

// LookupLayout returns the catalog entry for id.
func LookupLayout(id LayoutID) (Layout, bool) {
	for _, l := range catalog {
		if l.ID == id {
			return copyLayout(l), true
		}
	}
	return Layout{}, false
}

func copyLayout(l Layout) Layout {
	slots := make([]LayoutSlot, len(l.Slots))
	copy(slots, l.Slots)
	l.Slots = slots
	return l
}

// ResolveSlotGeometry converts a fractional slot to pixels. Each value is
// rounded on its own, so slot widths need not sum exactly to vw.
func ResolveSlotGeometry(slot LayoutSlot, vw, vh float64) Rect {
	return Rect{
		X:      math.Round(slot.X * vw),
		Y:      math.Round(slot.Y * vh),
		Width:  math.Round(slot.Width * vw),
		Height: math.Round(slot.Height * vh),
	}
}

// EmptySlots returns the slots of layoutID not present in filled, in
// catalog order. It returns nil for an unknown layout.
func EmptySlots(layoutID LayoutID, filled []SlotID) []SlotID {
	l, ok := LookupLayout(layoutID)
	if !ok {
		return nil
	}
	taken := make(map[SlotID]bool, len(filled))
	for _, id := range filled {
		taken[id] = true
	}
	empty := make([]SlotID, 0, len(l.Slots))
	for _, s := range l.Slots {
		if !taken[s.ID] {
			empty = append(empty, s.ID)
		}
	}
	return empty
}
