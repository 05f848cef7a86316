package wm

import (
	"errors"
	"fmt"
)

// WindowState represents the current state of a window.
type WindowState int

const (
	// WindowStateNormal indicates the window has its own geometry.
	WindowStateNormal WindowState = iota
	// WindowStateMaximized indicates the window fills the viewport.
	WindowStateMaximized
	// WindowStateMinimized indicates the window is hidden in the taskbar.
	WindowStateMinimized
)

// String returns a string representation of the window state.
func (s WindowState) String() string {
	switch s {
	case WindowStateNormal:
		return "normal"
	case WindowStateMaximized:
		return "maximized"
	case WindowStateMinimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the declared states.
func (s WindowState) Valid() bool {
	return s >= WindowStateNormal && s <= WindowStateMinimized
}

// ParseWindowState converts a state name to a WindowState.
func ParseWindowState(name string) (WindowState, error) {
	switch name {
	case "normal":
		return WindowStateNormal, nil
	case "maximized":
		return WindowStateMaximized, nil
	case "minimized":
		return WindowStateMinimized, nil
	default:
		return 0, fmt.Errorf("unknown window state %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s WindowState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid window state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *WindowState) UnmarshalText(text []byte) error {
	parsed, err := ParseWindowState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Window is one open window. Geometry is set only while the window is in
// the normal state.
type Window struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Icon        string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	State       WindowState `json:"state" yaml:"state"`
	ZIndex      int         `json:"zIndex" yaml:"zIndex"`
	Geometry    *Rect       `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	MinWidth    float64     `json:"minWidth" yaml:"minWidth"`
	MinHeight   float64     `json:"minHeight" yaml:"minHeight"`
	Resizable   bool        `json:"resizable" yaml:"resizable"`
	SnapGroupID string      `json:"snapGroupId,omitempty" yaml:"snapGroupId,omitempty"`
	SnapSlotID  SlotID      `json:"snapSlotId,omitempty" yaml:"snapSlotId,omitempty"`
	// Placed marks geometry set by a zone or slot placement rather than
	// by the user. It holds the pre-snap snapshot until the window is
	// moved, resized, restored or arranged.
	Placed      bool        `json:"placed,omitempty" yaml:"placed,omitempty"`
}

// clone returns a copy that shares no memory with w.
func (w *Window) clone() Window {
	c := *w
	if w.Geometry != nil {
		g := *w.Geometry
		c.Geometry = &g
	}
	return c
}

func (w *Window) setGeometry(r Rect) {
	w.Geometry = &r
}

// WindowSpec describes a window to open.
type WindowSpec struct {
	ID        string       `json:"id" yaml:"id"`
	Title     string       `json:"title" yaml:"title"`
	Icon      string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	State     *WindowState `json:"state,omitempty" yaml:"state,omitempty"`
	Geometry  *Rect        `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	MinWidth  float64      `json:"minWidth,omitempty" yaml:"minWidth,omitempty"`
	MinHeight float64      `json:"minHeight,omitempty" yaml:"minHeight,omitempty"`
	Resizable *bool        `json:"resizable,omitempty" yaml:"resizable,omitempty"`
}

// ErrWindowNotFound is returned when a window is not found.
var ErrWindowNotFound = errors.New("window not found")

// ErrInvalidWindowID is returned when a window ID is empty.
var ErrInvalidWindowID = errors.New("invalid window ID")

// ErrLayoutNotFound is returned for an id missing from the layout catalog.
var ErrLayoutNotFound = errors.New("layout not found")

// ErrSlotNotFound is returned for a slot id missing from its layout.
var ErrSlotNotFound = errors.New("slot not found")

// ErrGroupNotFound is returned when a snap group is not found.
var ErrGroupNotFound = errors.New("snap group not found")

// ErrGroupTooSmall is returned when fewer than two windows can be placed
// in a new snap group.
var ErrGroupTooSmall = errors.New("snap group needs at least two windows")
