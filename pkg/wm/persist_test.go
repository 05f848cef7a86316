package wm

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"pkt.systems/pslog"
)

func TestMoveWritesAreDebounced(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	before := f.store.writes(DefaultPrefsKey)

	_ = f.m.MoveWindow("a", 110, 100)
	f.clock.Advance(50 * time.Millisecond)
	_ = f.m.MoveWindow("a", 120, 100)
	f.clock.Advance(50 * time.Millisecond)
	_ = f.m.MoveWindow("a", 130, 100)

	if got := f.store.writes(DefaultPrefsKey); got != before {
		t.Fatalf("expected no write while moving, got %d", got-before)
	}
	f.clock.Advance(199 * time.Millisecond)
	if got := f.store.writes(DefaultPrefsKey); got != before {
		t.Fatalf("expected no write before the delay, got %d", got-before)
	}
	f.clock.Advance(time.Millisecond)
	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Fatalf("expected exactly one write, got %d", got-before)
	}

	prefs := decodePrefs(f.store.value(DefaultPrefsKey))
	if prefs.Geometries["a"].X != 130 {
		t.Errorf("expected last position to be written, got %+v", prefs.Geometries["a"])
	}
	if f.clock.PendingCount() != 0 {
		t.Errorf("expected no pending timers, got %d", f.clock.PendingCount())
	}
}

func TestFlushCancelsPendingWrite(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	before := f.store.writes(DefaultPrefsKey)

	_ = f.m.MoveWindow("a", 300, 200)
	_ = f.m.CloseWindow("a")
	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Fatalf("expected close to write synchronously, got %d", got-before)
	}

	f.clock.Advance(time.Second)
	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Errorf("expected the pending write to be cancelled, got %d", got-before)
	}
	if prefs := decodePrefs(f.store.value(DefaultPrefsKey)); prefs.Geometries["a"].X != 300 {
		t.Errorf("expected flushed geometry to include the move, got %+v", prefs.Geometries["a"])
	}
}

func TestShutdownFlushesPendingWrite(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	before := f.store.writes(DefaultPrefsKey)

	_ = f.m.ResizeWindow("a", 700, 500)
	f.m.Shutdown()

	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Fatalf("expected shutdown to write, got %d", got-before)
	}
	f.clock.Advance(time.Second)
	f.m.Shutdown()
	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Errorf("expected no further writes, got %d", got-before)
	}
}

func TestNegativeWriteDelayWritesImmediately(t *testing.T) {
	f := newFixture(t)
	f.cfg.WriteDelay = -1
	m := NewManager(f.cfg)
	openNormal(t, m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	before := f.store.writes(DefaultPrefsKey)

	_ = m.MoveWindow("a", 10, 10)

	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Errorf("expected an immediate write, got %d", got-before)
	}
}

func TestDecodePrefsIsTolerant(t *testing.T) {
	blob := `{
		"geometries": {
			"good": {"x": 1, "y": 2, "width": 400, "height": 300},
			"text": {"x": "1", "y": 2, "width": 400, "height": 300},
			"partial": {"x": 1, "y": 2, "width": 400},
			"null": null,
			"list": [1, 2, 3, 4]
		},
		"states": {"good": "normal", "odd": "fullscreen", "number": 2},
		"preMaxGeometries": {"good": {"x": 5, "y": 6, "width": 500, "height": 350}, "bad": "x"}
	}`

	prefs := decodePrefs(blob)

	if len(prefs.Geometries) != 1 || prefs.Geometries["good"] != (Rect{X: 1, Y: 2, Width: 400, Height: 300}) {
		t.Errorf("expected only the good geometry, got %+v", prefs.Geometries)
	}
	if len(prefs.States) != 1 || prefs.States["good"] != WindowStateNormal {
		t.Errorf("expected only the good state, got %+v", prefs.States)
	}
	if len(prefs.PreMaxGeometries) != 1 {
		t.Errorf("expected only the good snapshot, got %+v", prefs.PreMaxGeometries)
	}

	for _, junk := range []string{"", "not json", "[]", "42"} {
		p := decodePrefs(junk)
		if p.Geometries == nil || len(p.Geometries) != 0 {
			t.Errorf("%q: expected empty prefs, got %+v", junk, p)
		}
	}
}

func TestPrefsRoundTripThroughStore(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	_ = f.m.MaximizeWindow("a")
	f.m.Shutdown()

	var raw map[string]map[string]any
	if err := json.Unmarshal([]byte(f.store.value(DefaultPrefsKey)), &raw); err != nil {
		t.Fatalf("prefs blob is not JSON: %v", err)
	}
	if raw["states"]["a"] != "maximized" {
		t.Errorf("expected state stored by name, got %v", raw["states"]["a"])
	}

	m := f.reopen()
	if got := m.Prefs().PreMaxGeometries["a"]; got != (Rect{X: 100, Y: 100, Width: 500, Height: 400}) {
		t.Errorf("expected snapshot to survive reload, got %+v", got)
	}
}

func TestHydrateSession(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	mustOpen(t, f.m, WindowSpec{ID: "b", Title: "B"})
	mustOpen(t, f.m, WindowSpec{ID: "c"})
	g, _ := f.m.CreateSnapGroup(LayoutSplitEven, []SlotAssignment{{SlotLeft, "b"}, {SlotRight, "c"}})
	_ = f.m.FocusWindow("a")
	want := f.m.Windows()

	m := f.reopen()

	got := m.Windows()
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].ZIndex != want[i].ZIndex || got[i].State != want[i].State || got[i].Title != want[i].Title {
			t.Errorf("window %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if activeID(m) != "a" {
		t.Errorf("expected active a, got %q", activeID(m))
	}
	restored, err := m.SnapGroup(g.ID)
	if err != nil || len(restored.Slots) != 2 {
		t.Errorf("expected group to survive reload, got %+v (%v)", restored, err)
	}
	d := mustOpen(t, m, WindowSpec{ID: "d"})
	if d.ZIndex <= want[len(want)-1].ZIndex {
		t.Errorf("expected new z above %d, got %d", want[len(want)-1].ZIndex, d.ZIndex)
	}
	checkInvariants(t, m)
}

func TestHydrateRepairsSession(t *testing.T) {
	f := newFixture(t)
	f.store.put(DefaultSessionKey, `{
		"windows": [
			{"id": "a", "title": "A", "state": "normal", "zIndex": 5,
			 "geometry": {"x": 100, "y": 100, "width": 500, "height": 400},
			 "minWidth": 320, "minHeight": 240, "resizable": true,
			 "snapGroupId": "g1", "snapSlotId": "left"},
			{"id": "b", "title": "B", "state": "maximized", "zIndex": 5, "resizable": true},
			{"id": "c", "title": "C", "state": "normal", "zIndex": 2, "minWidth": 320, "minHeight": 240},
			{"id": "", "state": "normal", "zIndex": 9}
		],
		"activeWindowId": "ghost",
		"nextZIndex": 3,
		"snapGroups": [
			{"id": "g1", "layoutId": "split-even", "locked": true, "slots": [
				{"slotId": "left", "windowId": "a", "geometry": {"x": 0, "y": 0, "width": 640, "height": 680}},
				{"slotId": "right", "windowId": "ghost", "geometry": {"x": 640, "y": 0, "width": 640, "height": 680}}
			]}
		]
	}`)

	m := f.reopen()

	if n := len(m.Windows()); n != 3 {
		t.Fatalf("expected 3 windows, got %d", n)
	}
	if n := len(m.SnapGroups()); n != 0 {
		t.Errorf("expected the broken group to be dropped, got %d", n)
	}
	if w := mustWindow(t, m, "a"); w.SnapGroupID != "" {
		t.Errorf("expected a untagged, got %q", w.SnapGroupID)
	}
	if got := geometryOf(t, m, "c"); got != (Rect{X: 160, Y: 68, Width: 960, Height: 544}) {
		t.Errorf("expected c to get the default geometry, got %+v", got)
	}
	if w := mustWindow(t, m, "b"); w.MinWidth != DefaultMinWidth || w.ZIndex != 6 {
		t.Errorf("expected b repaired to min width %v and z 6, got %+v", DefaultMinWidth, w)
	}
	if activeID(m) != "b" {
		t.Errorf("expected topmost window active, got %q", activeID(m))
	}
	if d := mustOpen(t, m, WindowSpec{ID: "d"}); d.ZIndex != 7 {
		t.Errorf("expected next z 7, got %d", d.ZIndex)
	}
	checkInvariants(t, m)
}

func TestHydrateIgnoresGarbage(t *testing.T) {
	f := newFixture(t)
	f.store.put(DefaultSessionKey, "{not json")
	f.store.put(DefaultPrefsKey, "[1,2,3]")

	m := f.reopen()

	if n := len(m.Windows()); n != 0 {
		t.Errorf("expected an empty session, got %d windows", n)
	}
	mustOpen(t, m, WindowSpec{ID: "a"})
}

func TestHydrateClampsToSmallerViewport(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 1000, Y: 400, Width: 800, Height: 600})

	f.screen.SetSize(800, 640)
	m := f.reopen()

	if got := geometryOf(t, m, "a"); got != (Rect{X: 750, Y: 400, Width: 800, Height: 600}) {
		t.Errorf("expected geometry clamped to 800x600, got %+v", got)
	}
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.cfg.Logger = pslog.NewWithOptions(&buf, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.InfoLevel,
	})
	f.cfg.WriteDelay = -1
	f.store.failGet = true
	m := f.reopen()
	if !bytes.Contains(buf.Bytes(), []byte("storage read failed")) {
		t.Errorf("expected a read failure to be logged, got %q", buf.String())
	}

	f.store.failGet = false
	f.store.failSet = true
	openNormal(t, m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	if err := m.MoveWindow("a", 200, 200); err != nil {
		t.Errorf("expected move to succeed, got %v", err)
	}
	if err := m.MaximizeWindow("a"); err != nil {
		t.Errorf("expected maximize to succeed, got %v", err)
	}
	if err := m.CloseWindow("a"); err != nil {
		t.Errorf("expected close to succeed, got %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("storage write failed")) {
		t.Errorf("expected a write failure to be logged, got %q", buf.String())
	}
	if got := m.Prefs().Geometries["a"]; got.X != 200 {
		t.Errorf("expected memory to stay authoritative, got %+v", got)
	}
}
