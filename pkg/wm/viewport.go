package wm

import (
	"math"
	"sync"
)

// Viewport reports the usable area windows are laid out in.
type Viewport interface {
	Size() (width, height float64)
}

// Screen is a Viewport for a browser window of a given size with fixed
// chrome (the taskbar) taken off the bottom. It is safe for concurrent
// use, so the shell can report resizes while the manager reads it.
type Screen struct {
	mu     sync.RWMutex
	width  float64
	height float64
	chrome float64
}

// NewScreen returns a Screen of width×height with chrome pixels reserved.
func NewScreen(width, height, chrome float64) *Screen {
	return &Screen{width: width, height: height, chrome: chrome}
}

// Size returns the screen size minus chrome.
func (s *Screen) Size() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, math.Max(0, s.height-s.chrome)
}

// SetSize records a new browser window size.
func (s *Screen) SetSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

// Chrome returns the reserved height.
func (s *Screen) Chrome() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chrome
}
