package wm

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNewManager(t *testing.T) {
	f := newFixture(t)

	if n := len(f.m.Windows()); n != 0 {
		t.Errorf("expected no windows, got %d", n)
	}
	if _, ok := f.m.ActiveWindow(); ok {
		t.Error("expected no active window")
	}
	w, h := f.m.Viewport()
	if w != 1280 || h != 680 {
		t.Errorf("expected viewport 1280x680, got %vx%v", w, h)
	}
}

func TestOpenWindowDefaults(t *testing.T) {
	f := newFixture(t)

	win := mustOpen(t, f.m, WindowSpec{ID: "files", Title: "Files", Icon: "folder"})

	if win.State != WindowStateMaximized {
		t.Errorf("expected state maximized, got %v", win.State)
	}
	if win.Geometry != nil {
		t.Errorf("expected no geometry, got %+v", *win.Geometry)
	}
	if win.MinWidth != DefaultMinWidth || win.MinHeight != DefaultMinHeight {
		t.Errorf("expected default minimums, got %vx%v", win.MinWidth, win.MinHeight)
	}
	if !win.Resizable {
		t.Error("expected window to be resizable by default")
	}
	if win.ZIndex != 1 {
		t.Errorf("expected z-index 1, got %d", win.ZIndex)
	}
	if got := activeID(f.m); got != "files" {
		t.Errorf("expected active files, got %q", got)
	}
	if types := f.events.types(); len(types) != 1 || types[0] != EventWindowOpened {
		t.Errorf("expected one window.opened event, got %v", types)
	}
	if f.store.writes(DefaultSessionKey) == 0 {
		t.Error("expected session to be persisted")
	}
}

func TestOpenWindowInvalidID(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "   "} {
		if _, err := f.m.OpenWindow(WindowSpec{ID: id}); !errors.Is(err, ErrInvalidWindowID) {
			t.Errorf("expected ErrInvalidWindowID for %q, got %v", id, err)
		}
	}
	if n := len(f.m.Windows()); n != 0 {
		t.Errorf("expected no windows, got %d", n)
	}
}

func TestOpenWindowIsIdempotent(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	mustOpen(t, f.m, WindowSpec{ID: "b"})
	if err := f.m.MinimizeWindow("a"); err != nil {
		t.Fatalf("MinimizeWindow: %v", err)
	}

	again := mustOpen(t, f.m, WindowSpec{ID: "a", Title: "ignored"})

	if n := len(f.m.Windows()); n != 2 {
		t.Errorf("expected 2 windows, got %d", n)
	}
	if again.State != WindowStateMaximized {
		t.Errorf("expected reopened window to be maximized, got %v", again.State)
	}
	if again.Title != "" {
		t.Errorf("expected title to be unchanged, got %q", again.Title)
	}
	if b := mustWindow(t, f.m, "b"); again.ZIndex <= b.ZIndex {
		t.Errorf("expected a above b, got %d <= %d", again.ZIndex, b.ZIndex)
	}
	if got := activeID(f.m); got != "a" {
		t.Errorf("expected active a, got %q", got)
	}
	checkInvariants(t, f.m)
}

func TestOpenWindowNormalClampsGeometry(t *testing.T) {
	f := newFixture(t)

	win := openNormal(t, f.m, "tiny", Rect{X: -1000, Y: 10, Width: 100, Height: 100})

	want := Rect{X: -270, Y: 10, Width: 320, Height: 240}
	if win.Geometry == nil || *win.Geometry != want {
		t.Errorf("expected %+v, got %+v", want, win.Geometry)
	}
}

func TestOpenWindowNormalWithoutGeometryIsCentered(t *testing.T) {
	f := newFixture(t)

	win := mustOpen(t, f.m, WindowSpec{ID: "a", State: stateRef(WindowStateNormal)})

	want := Rect{X: 160, Y: 68, Width: 960, Height: 544}
	if win.Geometry == nil || *win.Geometry != want {
		t.Errorf("expected %+v, got %+v", want, win.Geometry)
	}
}

func TestOpenWindowReusesGeometryAfterClose(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "notes", Rect{X: 100, Y: 200, Width: 500, Height: 400})
	if err := f.m.CloseWindow("notes"); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}

	win := mustOpen(t, f.m, WindowSpec{ID: "notes"})

	want := Rect{X: 100, Y: 200, Width: 500, Height: 400}
	if win.State != WindowStateNormal {
		t.Errorf("expected saved normal state, got %v", win.State)
	}
	if win.Geometry == nil || *win.Geometry != want {
		t.Errorf("expected %+v, got %+v", want, win.Geometry)
	}
}

func TestOpenWindowSeedsGeometryForMaximized(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a", Geometry: rectRef(Rect{X: 10, Y: 20, Width: 600, Height: 400})})

	if err := f.m.RestoreWindow("a"); err != nil {
		t.Fatalf("RestoreWindow: %v", err)
	}

	want := Rect{X: 10, Y: 20, Width: 600, Height: 400}
	if got := geometryOf(t, f.m, "a"); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestOpenWindowSavedMinimizedOpensMaximized(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	_ = f.m.MinimizeWindow("a")
	_ = f.m.CloseWindow("a")

	win := mustOpen(t, f.m, WindowSpec{ID: "a"})
	if win.State != WindowStateMaximized {
		t.Errorf("expected maximized, got %v", win.State)
	}
}

func TestOpenWindowMinimizedKeepsActive(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})

	w := mustOpen(t, f.m, WindowSpec{ID: "b", State: stateRef(WindowStateMinimized)})
	if w.State != WindowStateMinimized {
		t.Fatalf("expected b minimized, got %v", w.State)
	}
	if got := activeID(f.m); got != "a" {
		t.Errorf("expected a to stay active, got %q", got)
	}

	f2 := newFixture(t)
	mustOpen(t, f2.m, WindowSpec{ID: "only", State: stateRef(WindowStateMinimized)})
	if got := activeID(f2.m); got != "" {
		t.Errorf("expected no active window, got %q", got)
	}
	checkInvariants(t, f.m)
}

func TestCloseWindow(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	mustOpen(t, f.m, WindowSpec{ID: "b"})
	mustOpen(t, f.m, WindowSpec{ID: "c"})
	_ = f.m.FocusWindow("a")

	if err := f.m.CloseWindow("a"); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if got := activeID(f.m); got != "c" {
		t.Errorf("expected active c, got %q", got)
	}

	_ = f.m.CloseWindow("b")
	_ = f.m.CloseWindow("c")
	if _, ok := f.m.ActiveWindow(); ok {
		t.Error("expected no active window after closing the last one")
	}
	if n := len(f.m.Windows()); n != 0 {
		t.Errorf("expected no windows, got %d", n)
	}

	types := f.events.types()
	if last := types[len(types)-1]; last != EventWindowClosed {
		t.Errorf("expected window.closed last, got %v", last)
	}
}

func TestCloseWindowFlushesPrefs(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 400, Height: 300})
	before := f.store.writes(DefaultPrefsKey)

	_ = f.m.CloseWindow("a")

	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Errorf("expected a synchronous prefs write, got %d writes", got-before)
	}
	prefs := f.m.Prefs()
	if prefs.States["a"] != WindowStateNormal {
		t.Errorf("expected saved state normal, got %v", prefs.States["a"])
	}
	if prefs.Geometries["a"] != (Rect{X: 100, Y: 100, Width: 400, Height: 300}) {
		t.Errorf("unexpected saved geometry %+v", prefs.Geometries["a"])
	}
}

func TestUnknownWindow(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	before := f.m.Windows()

	ops := map[string]func() error{
		"close":      func() error { return f.m.CloseWindow("x") },
		"focus":      func() error { return f.m.FocusWindow("x") },
		"minimize":   func() error { return f.m.MinimizeWindow("x") },
		"maximize":   func() error { return f.m.MaximizeWindow("x") },
		"restore":    func() error { return f.m.RestoreWindow("x") },
		"toggle":     func() error { return f.m.ToggleMaximized("x") },
		"move":       func() error { return f.m.MoveWindow("x", 1, 1) },
		"resize":     func() error { return f.m.ResizeWindow("x", 500, 500) },
		"moveResize": func() error { return f.m.MoveResizeWindow("x", 1, 1, 500, 500) },
		"title":      func() error { return f.m.SetWindowTitle("x", "t") },
		"unsnap":     func() error { return f.m.UnsnapWindow("x") },
		"window":     func() error { _, err := f.m.Window("x"); return err },
		"snap":       func() error { _, err := f.m.SnapToZone("x", ZoneLeft); return err },
		"slot":       func() error { _, err := f.m.AssignToSlot("x", LayoutSplitEven, SlotLeft); return err },
		"siblings":   func() error { _, err := f.m.SnapGroupSiblings("x"); return err },
		"candidates": func() error { _, err := f.m.EdgeSnapCandidates("x"); return err },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrWindowNotFound) {
			t.Errorf("%s: expected ErrWindowNotFound, got %v", name, err)
		}
	}
	after := f.m.Windows()
	if len(after) != len(before) || after[0].ZIndex != before[0].ZIndex || after[0].State != before[0].State {
		t.Errorf("expected state unchanged, got %+v", after)
	}
}

func TestFocusWindow(t *testing.T) {
	f := newFixture(t)
	a := mustOpen(t, f.m, WindowSpec{ID: "a"})
	b := mustOpen(t, f.m, WindowSpec{ID: "b"})

	if err := f.m.FocusWindow("a"); err != nil {
		t.Fatalf("FocusWindow: %v", err)
	}

	got := mustWindow(t, f.m, "a")
	if got.ZIndex <= b.ZIndex || got.ZIndex <= a.ZIndex {
		t.Errorf("expected a to be raised above %d, got %d", b.ZIndex, got.ZIndex)
	}
	if activeID(f.m) != "a" {
		t.Errorf("expected active a, got %q", activeID(f.m))
	}
	checkInvariants(t, f.m)
}

func TestMinimizeWindow(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	openNormal(t, f.m, "b", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	mustOpen(t, f.m, WindowSpec{ID: "c"})

	// Minimizing a background window leaves focus alone.
	if err := f.m.MinimizeWindow("b"); err != nil {
		t.Fatalf("MinimizeWindow: %v", err)
	}
	if activeID(f.m) != "c" {
		t.Errorf("expected active c, got %q", activeID(f.m))
	}
	b := mustWindow(t, f.m, "b")
	if b.State != WindowStateMinimized || b.Geometry != nil {
		t.Errorf("expected b minimized without geometry, got %v %+v", b.State, b.Geometry)
	}
	if f.m.Prefs().PreMaxGeometries["b"] != (Rect{X: 100, Y: 100, Width: 500, Height: 400}) {
		t.Error("expected b geometry to be snapshotted")
	}

	// Minimizing the active window focuses the highest visible one.
	_ = f.m.MinimizeWindow("c")
	if activeID(f.m) != "a" {
		t.Errorf("expected active a, got %q", activeID(f.m))
	}
	_ = f.m.MinimizeWindow("a")
	if _, ok := f.m.ActiveWindow(); ok {
		t.Error("expected no active window when everything is minimized")
	}
	checkInvariants(t, f.m)
}

func TestMaximizeRestoreKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	want := Rect{X: 120, Y: 80, Width: 600, Height: 400}
	openNormal(t, f.m, "a", want)

	if err := f.m.MaximizeWindow("a"); err != nil {
		t.Fatalf("MaximizeWindow: %v", err)
	}
	if w := mustWindow(t, f.m, "a"); w.State != WindowStateMaximized || w.Geometry != nil {
		t.Fatalf("expected maximized without geometry, got %v %+v", w.State, w.Geometry)
	}

	for i := 0; i < 2; i++ {
		if err := f.m.RestoreWindow("a"); err != nil {
			t.Fatalf("RestoreWindow: %v", err)
		}
		if got := geometryOf(t, f.m, "a"); got != want {
			t.Errorf("restore %d: expected %+v, got %+v", i+1, want, got)
		}
	}
}

func TestMaximizeFlushesSnapshot(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 120, Y: 80, Width: 600, Height: 400})
	before := f.store.writes(DefaultPrefsKey)

	_ = f.m.MaximizeWindow("a")

	if got := f.store.writes(DefaultPrefsKey); got != before+1 {
		t.Errorf("expected one synchronous prefs write, got %d", got-before)
	}
}

func TestToggleMaximized(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})

	_ = f.m.ToggleMaximized("a")
	if w := mustWindow(t, f.m, "a"); w.State != WindowStateMaximized {
		t.Errorf("expected maximized, got %v", w.State)
	}
	_ = f.m.ToggleMaximized("a")
	if w := mustWindow(t, f.m, "a"); w.State != WindowStateNormal {
		t.Errorf("expected normal, got %v", w.State)
	}

	_ = f.m.MinimizeWindow("a")
	_ = f.m.ToggleMaximized("a")
	if w := mustWindow(t, f.m, "a"); w.State != WindowStateMaximized {
		t.Errorf("expected minimized window to toggle to maximized, got %v", w.State)
	}
	checkInvariants(t, f.m)
}

func TestMoveAndResizeWindow(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})

	if err := f.m.MoveWindow("a", 200, 150); err != nil {
		t.Fatalf("MoveWindow: %v", err)
	}
	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 200, Y: 150, Width: 500, Height: 400}) {
		t.Errorf("unexpected geometry after move: %+v", got)
	}

	_ = f.m.ResizeWindow("a", 100, 5000)
	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 200, Y: 150, Width: 320, Height: 680}) {
		t.Errorf("unexpected geometry after resize: %+v", got)
	}

	_ = f.m.MoveResizeWindow("a", 5000, -20, 700, 500)
	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 1230, Y: 0, Width: 700, Height: 500}) {
		t.Errorf("unexpected geometry after move-resize: %+v", got)
	}

	if f.m.Prefs().Geometries["a"] != geometryOf(t, f.m, "a") {
		t.Error("expected durable geometry to follow the window")
	}
}

func TestMoveWindowNoOps(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "max"})
	locked := false
	mustOpen(t, f.m, WindowSpec{ID: "fixed", State: stateRef(WindowStateNormal), Geometry: rectRef(Rect{X: 10, Y: 10, Width: 400, Height: 300}), Resizable: &locked})
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})

	_ = f.m.MoveWindow("max", 10, 10)
	if w := mustWindow(t, f.m, "max"); w.Geometry != nil {
		t.Errorf("expected maximized window to stay without geometry, got %+v", *w.Geometry)
	}
	_ = f.m.MoveWindow("fixed", 500, 500)
	if got := geometryOf(t, f.m, "fixed"); got.X != 10 || got.Y != 10 {
		t.Errorf("expected non-resizable window to stay put, got %+v", got)
	}
	_ = f.m.MoveWindow("a", math.NaN(), 10)
	_ = f.m.ResizeWindow("a", math.Inf(1), 300)
	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 100, Y: 100, Width: 500, Height: 400}) {
		t.Errorf("expected non-finite input to be ignored, got %+v", got)
	}
}

func TestSetWindowTitle(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a", Title: "Old"})

	if err := f.m.SetWindowTitle("a", "New"); err != nil {
		t.Fatalf("SetWindowTitle: %v", err)
	}
	if w := mustWindow(t, f.m, "a"); w.Title != "New" {
		t.Errorf("expected title New, got %q", w.Title)
	}
}

func TestWindowsOrderedByZ(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		mustOpen(t, f.m, WindowSpec{ID: id})
	}
	_ = f.m.FocusWindow("a")

	var ids []string
	for _, w := range f.m.Windows() {
		ids = append(ids, w.ID)
	}
	want := []string{"b", "c", "a"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestReturnedWindowsAreCopies(t *testing.T) {
	f := newFixture(t)
	w := openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})

	w.Geometry.X = 999
	w.Title = "changed"

	if got := mustWindow(t, f.m, "a"); got.Geometry.X != 100 || got.Title != "a" {
		t.Errorf("expected registry to be unaffected, got %+v", got)
	}
}

func TestSnapToZone(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})
	mustOpen(t, f.m, WindowSpec{ID: "b"})
	mustOpen(t, f.m, WindowSpec{ID: "c"})
	_ = f.m.MinimizeWindow("c")

	assist, err := f.m.SnapToZone("a", ZoneLeft)
	if err != nil {
		t.Fatalf("SnapToZone: %v", err)
	}

	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 0, Y: 0, Width: 640, Height: 680}) {
		t.Errorf("unexpected snapped geometry %+v", got)
	}
	if activeID(f.m) != "a" {
		t.Errorf("expected snapped window to be active, got %q", activeID(f.m))
	}
	if assist.LayoutID != LayoutSplitEven || assist.SlotID != SlotLeft {
		t.Errorf("unexpected assist layout %q slot %q", assist.LayoutID, assist.SlotID)
	}
	if len(assist.EmptySlots) != 1 || assist.EmptySlots[0] != SlotRight {
		t.Errorf("expected empty slot right, got %v", assist.EmptySlots)
	}
	if len(assist.Candidates) != 1 || assist.Candidates[0] != "b" {
		t.Errorf("expected candidate b, got %v", assist.Candidates)
	}

	// The pre-snap geometry comes back on restore.
	_ = f.m.RestoreWindow("a")
	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 100, Y: 100, Width: 500, Height: 400}) {
		t.Errorf("expected pre-snap geometry, got %+v", got)
	}
}

func TestSnapToZoneTopMaximizes(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "a", Rect{X: 100, Y: 100, Width: 500, Height: 400})

	assist, err := f.m.SnapToZone("a", ZoneTop)
	if err != nil {
		t.Fatalf("SnapToZone: %v", err)
	}
	if w := mustWindow(t, f.m, "a"); w.State != WindowStateMaximized {
		t.Errorf("expected maximized, got %v", w.State)
	}
	if assist.LayoutID != LayoutFull {
		t.Errorf("expected full layout, got %q", assist.LayoutID)
	}
	if _, err := f.m.SnapToZone("a", ZoneNone); !errors.Is(err, ErrInvalidZone) {
		t.Errorf("expected ErrInvalidZone, got %v", err)
	}
}

func TestTileColumns(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		mustOpen(t, f.m, WindowSpec{ID: id})
	}
	mustOpen(t, f.m, WindowSpec{ID: "hidden"})
	_ = f.m.MinimizeWindow("hidden")

	if err := f.m.Tile(TileColumns); err != nil {
		t.Fatalf("Tile: %v", err)
	}

	want := map[string]Rect{
		"a": {X: 0, Y: 0, Width: 426, Height: 680},
		"b": {X: 426, Y: 0, Width: 426, Height: 680},
		"c": {X: 852, Y: 0, Width: 428, Height: 680},
	}
	for id, r := range want {
		if got := geometryOf(t, f.m, id); got != r {
			t.Errorf("%s: expected %+v, got %+v", id, r, got)
		}
	}
	if w := mustWindow(t, f.m, "hidden"); w.State != WindowStateMinimized {
		t.Errorf("expected minimized window to be left alone, got %v", w.State)
	}
	if activeID(f.m) != "c" {
		t.Errorf("expected last tiled window active, got %q", activeID(f.m))
	}
	checkInvariants(t, f.m)
}

func TestTileGrid(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		mustOpen(t, f.m, WindowSpec{ID: id})
	}

	_ = f.m.Tile(TileGrid)

	want := map[string]Rect{
		"a": {X: 0, Y: 0, Width: 640, Height: 340},
		"b": {X: 640, Y: 0, Width: 640, Height: 340},
		"c": {X: 0, Y: 340, Width: 1280, Height: 340},
	}
	for id, r := range want {
		if got := geometryOf(t, f.m, id); got != r {
			t.Errorf("%s: expected %+v, got %+v", id, r, got)
		}
	}
}

func TestTileDissolvesGroups(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	mustOpen(t, f.m, WindowSpec{ID: "b"})
	if _, err := f.m.CreateSnapGroup(LayoutSplitEven, []SlotAssignment{{SlotLeft, "a"}, {SlotRight, "b"}}); err != nil {
		t.Fatalf("CreateSnapGroup: %v", err)
	}

	_ = f.m.Tile(TileRows)

	if n := len(f.m.SnapGroups()); n != 0 {
		t.Errorf("expected groups to be dissolved, got %d", n)
	}
	if got := geometryOf(t, f.m, "b"); got != (Rect{X: 0, Y: 340, Width: 1280, Height: 340}) {
		t.Errorf("unexpected row geometry %+v", got)
	}
	checkInvariants(t, f.m)
}

func TestCascade(t *testing.T) {
	f := newFixture(t)
	mustOpen(t, f.m, WindowSpec{ID: "a"})
	mustOpen(t, f.m, WindowSpec{ID: "b"})

	if err := f.m.Cascade(); err != nil {
		t.Fatalf("Cascade: %v", err)
	}

	if got := geometryOf(t, f.m, "a"); got != (Rect{X: 30, Y: 30, Width: 768, Height: 408}) {
		t.Errorf("unexpected geometry for a: %+v", got)
	}
	if got := geometryOf(t, f.m, "b"); got != (Rect{X: 60, Y: 60, Width: 768, Height: 408}) {
		t.Errorf("unexpected geometry for b: %+v", got)
	}
	if activeID(f.m) != "b" {
		t.Errorf("expected b active, got %q", activeID(f.m))
	}
}

func TestTileModeParse(t *testing.T) {
	for _, mode := range []TileMode{TileGrid, TileColumns, TileRows} {
		got, err := ParseTileMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("round trip %v: got %v, %v", mode, got, err)
		}
	}
	if _, err := ParseTileMode("spiral"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestDragSnapUsesOtherWindows(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "anchor", Rect{X: 400, Y: 50, Width: 200, Height: 200})
	openNormal(t, f.m, "drag", Rect{X: 10, Y: 50, Width: 320, Height: 240})
	mustOpen(t, f.m, WindowSpec{ID: "max"})

	res, err := f.m.DragSnap("drag", Rect{X: 75, Y: 50, Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("DragSnap: %v", err)
	}
	if res.Geometry.X != 80 || res.Snapped.Horizontal != EdgeRight {
		t.Errorf("expected snap to x=80 on the right edge, got %+v", res)
	}

	cands, _ := f.m.EdgeSnapCandidates("drag")
	if len(cands) != 1 || cands[0] != (Rect{X: 400, Y: 50, Width: 200, Height: 200}) {
		t.Errorf("expected only the anchor as candidate, got %+v", cands)
	}
}

func TestResizeSnapHonorsMinimums(t *testing.T) {
	f := newFixture(t)
	openNormal(t, f.m, "anchor", Rect{X: 405, Y: 100, Width: 200, Height: 300})
	openNormal(t, f.m, "win", Rect{X: 100, Y: 100, Width: 320, Height: 300})

	res, err := f.m.ResizeSnap("win", Rect{X: 100, Y: 100, Width: 310, Height: 300}, ResizeEast)
	if err != nil {
		t.Fatalf("ResizeSnap: %v", err)
	}
	// Snapping to 405 would make the window 305 wide, below its 320 minimum.
	if res.Snapped.Horizontal != EdgeNone {
		t.Errorf("expected no snap, got %+v", res)
	}
}

func TestConcurrentAccess(t *testing.T) {
	f := newFixture(t)
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		openNormal(t, f.m, id, Rect{X: 100, Y: 100, Width: 400, Height: 300})
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := ids[n%len(ids)]
			for j := 0; j < 50; j++ {
				_ = f.m.MoveWindow(id, float64(j), float64(j))
				_ = f.m.FocusWindow(id)
				_ = f.m.ToggleMaximized(id)
				_ = f.m.Windows()
				_, _ = f.m.DragSnap(id, Rect{X: 1, Y: 1, Width: 400, Height: 300})
			}
		}(i)
	}
	wg.Wait()
	checkInvariants(t, f.m)
}
