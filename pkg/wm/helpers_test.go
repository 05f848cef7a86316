package wm

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"deskshell/pkg/clock"
)

var errStoreDown = errors.New("store down")

type testStore struct {
	mu      sync.Mutex
	data    map[string]string
	sets    map[string]int
	failSet bool
	failGet bool
}

func newTestStore() *testStore {
	return &testStore{data: map[string]string{}, sets: map[string]int{}}
}

func (s *testStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", false, errStoreDown
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *testStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errStoreDown
	}
	s.data[key] = value
	s.sets[key]++
	return nil
}

func (s *testStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func (s *testStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *testStore) writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	m      *Manager
	store  *testStore
	events *recorder
	clock  *clock.FakeClock
	screen *Screen
	cfg    Config
}

// newFixture builds a manager over a 1280×680 viewport with a fake clock.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newTestStore(),
		events: &recorder{},
		clock:  clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		screen: NewScreen(1280, 720, 40),
	}
	groups := 0
	f.cfg = Config{
		Store:    f.store,
		Events:   f.events,
		Viewport: f.screen,
		Clock:    f.clock,
		NewGroupID: func() string {
			groups++
			return fmt.Sprintf("group-%d", groups)
		},
	}
	f.m = NewManager(f.cfg)
	return f
}

// reopen builds a second manager over the same store, as after a reload.
func (f *fixture) reopen() *Manager {
	return NewManager(f.cfg)
}

func stateRef(s WindowState) *WindowState { return &s }

func rectRef(r Rect) *Rect { return &r }

func mustOpen(t *testing.T, m *Manager, spec WindowSpec) Window {
	t.Helper()
	w, err := m.OpenWindow(spec)
	if err != nil {
		t.Fatalf("OpenWindow(%q): %v", spec.ID, err)
	}
	return w
}

func openNormal(t *testing.T, m *Manager, id string, r Rect) Window {
	t.Helper()
	return mustOpen(t, m, WindowSpec{ID: id, Title: id, State: stateRef(WindowStateNormal), Geometry: rectRef(r)})
}

func mustWindow(t *testing.T, m *Manager, id string) Window {
	t.Helper()
	w, err := m.Window(id)
	if err != nil {
		t.Fatalf("Window(%q): %v", id, err)
	}
	return w
}

func geometryOf(t *testing.T, m *Manager, id string) Rect {
	t.Helper()
	w := mustWindow(t, m, id)
	if w.Geometry == nil {
		t.Fatalf("expected %q to have geometry in state %v", id, w.State)
	}
	return *w.Geometry
}

func activeID(m *Manager) string {
	w, ok := m.ActiveWindow()
	if !ok {
		return ""
	}
	return w.ID
}

// checkInvariants verifies the registry invariants that must hold
// between any two operations.
func checkInvariants(t *testing.T, m *Manager) {
	t.Helper()
	windows := m.Windows()
	byID := map[string]Window{}
	zs := map[int]string{}
	for _, w := range windows {
		byID[w.ID] = w
		if (w.Geometry != nil) != (w.State == WindowStateNormal) {
			t.Errorf("window %q: geometry present=%v in state %v", w.ID, w.Geometry != nil, w.State)
		}
		if other, dup := zs[w.ZIndex]; dup {
			t.Errorf("windows %q and %q share z-index %d", other, w.ID, w.ZIndex)
		}
		zs[w.ZIndex] = w.ID
		if w.Geometry != nil && (w.Geometry.Width < w.MinWidth || w.Geometry.Height < w.MinHeight) {
			t.Errorf("window %q: geometry %+v below minimum %vx%v", w.ID, *w.Geometry, w.MinWidth, w.MinHeight)
		}
	}
	members := map[string]string{}
	for _, g := range m.SnapGroups() {
		if len(g.Slots) < 2 {
			t.Errorf("group %q has %d slots", g.ID, len(g.Slots))
		}
		for _, s := range g.Slots {
			w, ok := byID[s.WindowID]
			if !ok {
				t.Errorf("group %q references closed window %q", g.ID, s.WindowID)
				continue
			}
			if w.SnapGroupID != g.ID {
				t.Errorf("window %q in group %q is tagged %q", w.ID, g.ID, w.SnapGroupID)
			}
			if prev, dup := members[w.ID]; dup {
				t.Errorf("window %q in groups %q and %q", w.ID, prev, g.ID)
			}
			members[w.ID] = g.ID
		}
	}
	for _, w := range windows {
		if w.SnapGroupID != "" && members[w.ID] != w.SnapGroupID {
			t.Errorf("window %q tagged with missing group %q", w.ID, w.SnapGroupID)
		}
	}
}
