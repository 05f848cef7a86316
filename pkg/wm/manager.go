package wm

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"deskshell/pkg/clock"
	"deskshell/pkg/kv"

	"github.com/google/uuid"
	"pkt.systems/pslog"
)

// ErrInvalidZone is returned when a window is snapped to ZoneNone.
var ErrInvalidZone = errors.New("invalid snap zone")

// Manager owns every open window, the focus order and the snap groups.
// All methods are safe for concurrent use; each runs to completion under
// a single lock.
type Manager struct {
	mu       sync.Mutex
	windows  []*Window
	index    map[string]*Window
	groups   []*SnapGroup
	activeID string
	nextZ    int
	prefs    WindowPrefs

	store      Store
	events     Publisher
	viewport   Viewport
	clock      clock.Clock
	log        pslog.Logger
	sessionKey string
	prefsKey   string
	writeDelay time.Duration
	newGroupID func() string

	pending    *clock.Timer
	pendingSeq uint64
}

// Config holds configuration for the window manager.
type Config struct {
	// Store persists the session and window prefs. Defaults to an
	// in-memory store.
	Store Store
	// Events receives lifecycle and snap group events.
	Events Publisher
	// Viewport defaults to a 1280×720 screen with a 40px taskbar.
	Viewport   Viewport
	Clock      clock.Clock
	Logger     pslog.Logger
	SessionKey string
	PrefsKey   string
	// WriteDelay debounces geometry writes. Zero means DefaultWriteDelay;
	// a negative value writes synchronously.
	WriteDelay time.Duration
	// NewGroupID overrides snap group id generation.
	NewGroupID func() string
}

// NewManager creates a window manager and restores the last session
// from cfg.Store.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		index:      make(map[string]*Window),
		nextZ:      1,
		prefs:      newWindowPrefs(),
		store:      cfg.Store,
		events:     cfg.Events,
		viewport:   cfg.Viewport,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		sessionKey: cfg.SessionKey,
		prefsKey:   cfg.PrefsKey,
		writeDelay: cfg.WriteDelay,
		newGroupID: cfg.NewGroupID,
	}
	if m.store == nil {
		m.store = kv.NewMemory()
	}
	if m.events == nil {
		m.events = nopPublisher{}
	}
	if m.viewport == nil {
		m.viewport = NewScreen(1280, 720, 40)
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if m.log == nil {
		m.log = pslog.Ctx(context.Background())
	}
	m.log = m.log.With("component", "wm")
	if m.sessionKey == "" {
		m.sessionKey = DefaultSessionKey
	}
	if m.prefsKey == "" {
		m.prefsKey = DefaultPrefsKey
	}
	if m.writeDelay == 0 {
		m.writeDelay = DefaultWriteDelay
	}
	if m.newGroupID == nil {
		m.newGroupID = newGroupID
	}

	m.mu.Lock()
	m.hydrateLocked()
	m.mu.Unlock()
	return m
}

func newGroupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Shutdown writes any pending geometry change and stops the debounce
// timer.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return
	}
	m.cancelPendingLocked()
	m.writeLocked()
}

// OpenWindow opens a window, or focuses it if spec.ID is already open.
func (m *Manager) OpenWindow(spec WindowSpec) (Window, error) {
	if strings.TrimSpace(spec.ID) == "" {
		return Window{}, ErrInvalidWindowID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if w := m.index[spec.ID]; w != nil {
		m.focusLocked(w)
		m.persistSessionLocked()
		return w.clone(), nil
	}

	w := &Window{
		ID:        spec.ID,
		Title:     spec.Title,
		Icon:      spec.Icon,
		State:     WindowStateMaximized,
		MinWidth:  spec.MinWidth,
		MinHeight: spec.MinHeight,
		Resizable: true,
	}
	if w.MinWidth <= 0 {
		w.MinWidth = DefaultMinWidth
	}
	if w.MinHeight <= 0 {
		w.MinHeight = DefaultMinHeight
	}
	if spec.Resizable != nil {
		w.Resizable = *spec.Resizable
	}
	switch saved, ok := m.prefs.States[w.ID]; {
	case spec.State != nil && spec.State.Valid():
		w.State = *spec.State
	case ok && saved != WindowStateMinimized:
		w.State = saved
	}

	vw, vh := m.viewport.Size()
	var (
		geom Rect
		has  bool
	)
	saved, durable := m.prefs.Geometries[w.ID]
	if durable {
		geom, has = ClampGeometry(saved, vw, vh, w.MinWidth, w.MinHeight)
	}
	if !has && spec.Geometry != nil {
		geom, has = ClampGeometry(*spec.Geometry, vw, vh, w.MinWidth, w.MinHeight)
	}
	switch {
	case w.State == WindowStateNormal && has:
		w.setGeometry(geom)
	case w.State == WindowStateNormal:
		w.setGeometry(m.restoreGeometryLocked(w))
	case has && !durable:
		m.prefs.Geometries[w.ID] = geom
		m.scheduleWriteLocked()
	}

	w.ZIndex = m.takeZLocked()
	m.addLocked(w)
	// A window opened minimized stays in the taskbar and leaves focus alone.
	if w.State != WindowStateMinimized {
		m.activeID = w.ID
	}
	m.persistSessionLocked()
	m.events.Publish(Event{Type: EventWindowOpened, WindowID: w.ID})
	m.log.Debug("window opened", "window", w.ID, "state", w.State.String(), "z", w.ZIndex)
	return w.clone(), nil
}

// CloseWindow closes and removes a window, saving its state and geometry
// first.
func (m *Manager) CloseWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}

	m.prefs.States[id] = w.State
	if w.Geometry != nil {
		m.prefs.Geometries[id] = *w.Geometry
	}
	m.flushNowLocked()

	m.removeFromGroupLocked(w)
	m.windows = slices.DeleteFunc(m.windows, func(o *Window) bool { return o.ID == id })
	delete(m.index, id)
	m.activeID = m.topWindowIDLocked(false)

	m.persistSessionLocked()
	m.events.Publish(Event{Type: EventWindowClosed, WindowID: id})
	m.log.Debug("window closed", "window", id, "active", m.activeID)
	return nil
}

// FocusWindow raises a window and makes it active. A minimized window is
// shown again: maximized, or in its slot when it belongs to a snap group.
func (m *Manager) FocusWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	m.focusLocked(w)
	m.persistSessionLocked()
	return nil
}

func (m *Manager) focusLocked(w *Window) {
	if w.State == WindowStateMinimized {
		m.unminimizeLocked(w)
	}
	w.ZIndex = m.takeZLocked()
	m.activeID = w.ID
}

func (m *Manager) unminimizeLocked(w *Window) {
	if g := m.groupLocked(w.SnapGroupID); g != nil {
		for _, slot := range g.Slots {
			if slot.WindowID == w.ID {
				w.State = WindowStateNormal
				w.setGeometry(slot.Geometry)
				return
			}
		}
	}
	w.State = WindowStateMaximized
	w.Geometry = nil
}

// MinimizeWindow hides a window. When it was the active window, the
// topmost visible window becomes active.
func (m *Manager) MinimizeWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	if w.State == WindowStateMinimized {
		return nil
	}
	if m.snapshotLocked(w) {
		m.flushNowLocked()
	}
	w.State = WindowStateMinimized
	w.Geometry = nil
	if m.activeID == id {
		m.activeID = m.topWindowIDLocked(true)
	}
	m.persistSessionLocked()
	m.log.Debug("window minimized", "window", id, "active", m.activeID)
	return nil
}

// MaximizeWindow fills the viewport with a window, detaching it from its
// snap group.
func (m *Manager) MaximizeWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	m.maximizeLocked(w)
	m.persistSessionLocked()
	return nil
}

func (m *Manager) maximizeLocked(w *Window) {
	if w.State == WindowStateMaximized {
		return
	}
	if m.snapshotLocked(w) {
		m.flushNowLocked()
	}
	m.removeFromGroupLocked(w)
	w.State = WindowStateMaximized
	w.Geometry = nil
	m.prefs.States[w.ID] = WindowStateMaximized
	m.scheduleWriteLocked()
	m.log.Debug("window maximized", "window", w.ID)
}

// RestoreWindow returns a window to the normal state at its remembered
// geometry.
func (m *Manager) RestoreWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	m.restoreLocked(w)
	m.persistSessionLocked()
	return nil
}

func (m *Manager) restoreLocked(w *Window) {
	m.removeFromGroupLocked(w)
	w.State = WindowStateNormal
	w.setGeometry(m.restoreGeometryLocked(w))
	w.Placed = false
	m.prefs.States[w.ID] = WindowStateNormal
	m.scheduleWriteLocked()
	m.log.Debug("window restored", "window", w.ID)
}

// ToggleMaximized restores a maximized window and maximizes any other.
func (m *Manager) ToggleMaximized(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	if w.State == WindowStateMaximized {
		m.restoreLocked(w)
	} else {
		m.maximizeLocked(w)
	}
	m.persistSessionLocked()
	return nil
}

// SetWindowTitle sets the title of a window.
func (m *Manager) SetWindowTitle(id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	w.Title = title
	m.persistSessionLocked()
	return nil
}

// MoveWindow moves a window.
func (m *Manager) MoveWindow(id string, x, y float64) error {
	return m.updateGeometry(id, func(r Rect) Rect {
		r.X, r.Y = x, y
		return r
	})
}

// ResizeWindow resizes a window.
func (m *Manager) ResizeWindow(id string, width, height float64) error {
	return m.updateGeometry(id, func(r Rect) Rect {
		r.Width, r.Height = width, height
		return r
	})
}

// MoveResizeWindow moves and resizes a window.
func (m *Manager) MoveResizeWindow(id string, x, y, width, height float64) error {
	return m.updateGeometry(id, func(Rect) Rect {
		return Rect{X: x, Y: y, Width: width, Height: height}
	})
}

// updateGeometry applies fn to a normal, resizable window. Results that
// are not finite are ignored.
func (m *Manager) updateGeometry(id string, fn func(Rect) Rect) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	if w.Geometry == nil || !w.Resizable {
		return nil
	}
	vw, vh := m.viewport.Size()
	next, ok := ClampGeometry(fn(*w.Geometry), vw, vh, w.MinWidth, w.MinHeight)
	if !ok {
		return nil
	}
	w.setGeometry(next)
	w.Placed = false
	m.prefs.Geometries[id] = next
	m.scheduleWriteLocked()
	return nil
}

// SnapAssist describes the layout a zone snap implies, so a shell can
// offer to fill the remaining slots.
type SnapAssist struct {
	LayoutID   LayoutID `json:"layoutId" yaml:"layoutId"`
	SlotID     SlotID   `json:"slotId" yaml:"slotId"`
	EmptySlots []SlotID `json:"emptySlots" yaml:"emptySlots"`
	// Candidates are the other visible windows that are not grouped.
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// SnapToZone places a window in a screen zone. ZoneTop maximizes it.
func (m *Manager) SnapToZone(id string, zone Zone) (SnapAssist, error) {
	layoutID, slotID, ok := InferLayoutFromZone(zone)
	if !ok {
		return SnapAssist{}, ErrInvalidZone
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return SnapAssist{}, ErrWindowNotFound
	}

	if zone == ZoneTop {
		m.maximizeLocked(w)
		m.focusLocked(w)
		m.persistSessionLocked()
		return SnapAssist{LayoutID: layoutID, SlotID: slotID, EmptySlots: []SlotID{}, Candidates: []string{}}, nil
	}

	if m.snapshotLocked(w) {
		m.flushNowLocked()
	}
	m.removeFromGroupLocked(w)
	vw, vh := m.viewport.Size()
	w.State = WindowStateNormal
	w.setGeometry(fitMinimums(ResolveZoneGeometry(zone, vw, vh), w))
	w.Placed = true
	m.focusLocked(w)
	m.persistSessionLocked()

	assist := SnapAssist{
		LayoutID:   layoutID,
		SlotID:     slotID,
		EmptySlots: EmptySlots(layoutID, []SlotID{slotID}),
		Candidates: []string{},
	}
	for _, o := range m.orderedLocked() {
		if o.ID != id && o.State != WindowStateMinimized && o.SnapGroupID == "" {
			assist.Candidates = append(assist.Candidates, o.ID)
		}
	}
	m.log.Debug("window snapped", "window", id, "zone", zone.String())
	return assist, nil
}

// fitMinimums grows r to the window's minimum size.
func fitMinimums(r Rect, w *Window) Rect {
	r.Width = math.Max(r.Width, w.MinWidth)
	r.Height = math.Max(r.Height, w.MinHeight)
	return r
}

// Windows returns copies of all windows, bottom to top.
func (m *Manager) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := m.orderedLocked()
	out := make([]Window, 0, len(ordered))
	for _, w := range ordered {
		out = append(out, w.clone())
	}
	return out
}

// Window returns a copy of a window by ID.
func (m *Manager) Window(id string) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return Window{}, ErrWindowNotFound
	}
	return w.clone(), nil
}

// ActiveWindow returns the focused window, if any.
func (m *Manager) ActiveWindow() (Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[m.activeID]
	if w == nil {
		return Window{}, false
	}
	return w.clone(), true
}

// Prefs returns a copy of the durable window prefs.
func (m *Manager) Prefs() WindowPrefs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.clone()
}

// Viewport returns the current usable viewport size.
func (m *Manager) Viewport() (float64, float64) {
	return m.viewport.Size()
}

// EdgeSnapCandidates returns the geometry of every other normal window.
func (m *Manager) EdgeSnapCandidates(id string) ([]Rect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index[id] == nil {
		return nil, ErrWindowNotFound
	}
	return m.candidatesLocked(id), nil
}

func (m *Manager) candidatesLocked(id string) []Rect {
	var out []Rect
	for _, w := range m.orderedLocked() {
		if w.ID != id && w.State == WindowStateNormal && w.Geometry != nil {
			out = append(out, *w.Geometry)
		}
	}
	return out
}

// DragSnap aligns a proposed drag position of a window with the edges of
// the other windows. It does not move the window.
func (m *Manager) DragSnap(id string, proposed Rect) (EdgeSnapResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index[id] == nil {
		return EdgeSnapResult{}, ErrWindowNotFound
	}
	return ComputeEdgeSnap(proposed, m.candidatesLocked(id)), nil
}

// ResizeSnap aligns the moving edges of a proposed resize with the edges
// of the other windows. It does not resize the window.
func (m *Manager) ResizeSnap(id string, proposed Rect, dir ResizeDirection) (EdgeSnapResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return EdgeSnapResult{}, ErrWindowNotFound
	}
	return ComputeResizeEdgeSnap(proposed, dir, m.candidatesLocked(id), w.MinWidth, w.MinHeight), nil
}

func (m *Manager) addLocked(w *Window) {
	m.windows = append(m.windows, w)
	m.index[w.ID] = w
}

func (m *Manager) takeZLocked() int {
	z := m.nextZ
	m.nextZ++
	return z
}

// orderedLocked returns the windows sorted by ascending z-index.
func (m *Manager) orderedLocked() []*Window {
	out := slices.Clone(m.windows)
	slices.SortStableFunc(out, func(a, b *Window) int { return a.ZIndex - b.ZIndex })
	return out
}

// topWindowIDLocked returns the id of the highest window, skipping
// minimized windows when visibleOnly is set.
func (m *Manager) topWindowIDLocked(visibleOnly bool) string {
	var top *Window
	for _, w := range m.windows {
		if visibleOnly && w.State == WindowStateMinimized {
			continue
		}
		if top == nil || w.ZIndex > top.ZIndex {
			top = w
		}
	}
	if top == nil {
		return ""
	}
	return top.ID
}
