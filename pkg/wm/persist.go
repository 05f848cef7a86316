package wm

import (
	"encoding/json"
	"time"
)

// Storage defaults.
const (
	DefaultSessionKey = "deskshell.session"
	DefaultPrefsKey   = "deskshell.window-prefs"
	DefaultWriteDelay = 200 * time.Millisecond
)

// Store is a string key/value store. Failures are logged by the Manager
// and never surface to callers.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// WindowPrefs holds per-window geometry and state that outlive a window.
type WindowPrefs struct {
	Geometries       map[string]Rect        `json:"geometries"`
	States           map[string]WindowState `json:"states"`
	PreMaxGeometries map[string]Rect        `json:"preMaxGeometries"`
}

func newWindowPrefs() WindowPrefs {
	return WindowPrefs{
		Geometries:       map[string]Rect{},
		States:           map[string]WindowState{},
		PreMaxGeometries: map[string]Rect{},
	}
}

func (p WindowPrefs) clone() WindowPrefs {
	c := newWindowPrefs()
	for k, v := range p.Geometries {
		c.Geometries[k] = v
	}
	for k, v := range p.States {
		c.States[k] = v
	}
	for k, v := range p.PreMaxGeometries {
		c.PreMaxGeometries[k] = v
	}
	return c
}

type rawPrefs struct {
	Geometries       map[string]json.RawMessage `json:"geometries"`
	States           map[string]json.RawMessage `json:"states"`
	PreMaxGeometries map[string]json.RawMessage `json:"preMaxGeometries"`
}

type rectRecord struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// decodePrefs parses a prefs blob, dropping any record that is not a
// complete finite rectangle or a known state name. A blob that is not a
// JSON object yields empty prefs.
func decodePrefs(data string) WindowPrefs {
	prefs := newWindowPrefs()
	var raw rawPrefs
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return prefs
	}
	for id, msg := range raw.Geometries {
		if r, ok := decodeRect(msg); ok {
			prefs.Geometries[id] = r
		}
	}
	for id, msg := range raw.PreMaxGeometries {
		if r, ok := decodeRect(msg); ok {
			prefs.PreMaxGeometries[id] = r
		}
	}
	for id, msg := range raw.States {
		var name string
		if err := json.Unmarshal(msg, &name); err != nil {
			continue
		}
		if s, err := ParseWindowState(name); err == nil {
			prefs.States[id] = s
		}
	}
	return prefs
}

func decodeRect(msg json.RawMessage) (Rect, bool) {
	var rec rectRecord
	if err := json.Unmarshal(msg, &rec); err != nil {
		return Rect{}, false
	}
	if rec.X == nil || rec.Y == nil || rec.Width == nil || rec.Height == nil {
		return Rect{}, false
	}
	r := Rect{X: *rec.X, Y: *rec.Y, Width: *rec.Width, Height: *rec.Height}
	return r, r.Valid()
}

// session is the blob stored under the session key.
type session struct {
	Windows        []Window    `json:"windows"`
	ActiveWindowID string      `json:"activeWindowId,omitempty"`
	NextZIndex     int         `json:"nextZIndex"`
	SnapGroups     []SnapGroup `json:"snapGroups"`
}

func (m *Manager) load(key string) (string, bool) {
	if m.store == nil {
		return "", false
	}
	data, ok, err := m.store.Get(key)
	if err != nil {
		m.log.Warn("storage read failed", "key", key, "err", err)
		return "", false
	}
	return data, ok
}

func (m *Manager) save(key string, v any) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warn("storage encode failed", "key", key, "err", err)
		return
	}
	if err := m.store.Set(key, string(data)); err != nil {
		m.log.Warn("storage write failed", "key", key, "err", err)
	}
}

// hydrateLocked loads prefs and the last session. Windows that do not
// satisfy the registry invariants are repaired or dropped.
func (m *Manager) hydrateLocked() {
	if data, ok := m.load(m.prefsKey); ok {
		m.prefs = decodePrefs(data)
	}

	data, ok := m.load(m.sessionKey)
	if !ok {
		return
	}
	var snap session
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		m.log.Warn("session decode failed", "key", m.sessionKey, "err", err)
		return
	}

	vw, vh := m.viewport.Size()
	for i := range snap.Windows {
		w := snap.Windows[i].clone()
		if w.ID == "" || m.index[w.ID] != nil {
			continue
		}
		if w.MinWidth <= 0 {
			w.MinWidth = DefaultMinWidth
		}
		if w.MinHeight <= 0 {
			w.MinHeight = DefaultMinHeight
		}
		w.SnapGroupID = ""
		w.SnapSlotID = ""
		if w.State == WindowStateNormal {
			var (
				g  Rect
				ok bool
			)
			if w.Geometry != nil {
				g, ok = ClampGeometry(*w.Geometry, vw, vh, w.MinWidth, w.MinHeight)
			}
			if !ok {
				g = m.restoreGeometryLocked(&w)
				w.Placed = false
			}
			w.setGeometry(g)
		} else {
			w.Geometry = nil
		}
		m.addLocked(&w)
	}

	// z-order: keep the saved order but make values strictly increasing.
	ordered := m.orderedLocked()
	prev := 0
	for _, w := range ordered {
		if w.ZIndex <= prev {
			w.ZIndex = prev + 1
		}
		prev = w.ZIndex
	}
	m.nextZ = max(snap.NextZIndex, prev+1, 1)

	for i := range snap.SnapGroups {
		m.rehydrateGroupLocked(snap.SnapGroups[i])
	}

	if w := m.index[snap.ActiveWindowID]; w != nil {
		m.activeID = w.ID
	} else {
		m.activeID = m.topWindowIDLocked(false)
	}
	m.log.Debug("session restored", "windows", len(m.windows), "groups", len(m.groups))
}

// rehydrateGroupLocked keeps the slots whose windows are live, not
// maximized and not already grouped. Groups left with fewer than two slots are dropped.
func (m *Manager) rehydrateGroupLocked(saved SnapGroup) {
	if saved.ID == "" || m.groupLocked(saved.ID) != nil {
		return
	}
	if _, ok := LookupLayout(saved.LayoutID); !ok {
		return
	}
	g := &SnapGroup{ID: saved.ID, LayoutID: saved.LayoutID, Locked: saved.Locked}
	used := map[SlotID]bool{}
	for _, slot := range saved.Slots {
		w := m.index[slot.WindowID]
		if w == nil || w.SnapGroupID != "" || w.State == WindowStateMaximized || used[slot.SlotID] {
			continue
		}
		used[slot.SlotID] = true
		g.Slots = append(g.Slots, slot)
	}
	if len(g.Slots) < 2 {
		return
	}
	for _, slot := range g.Slots {
		w := m.index[slot.WindowID]
		w.SnapGroupID = g.ID
		w.SnapSlotID = slot.SlotID
	}
	m.groups = append(m.groups, g)
}

func (m *Manager) persistSessionLocked() {
	snap := session{
		Windows:        make([]Window, 0, len(m.windows)),
		ActiveWindowID: m.activeID,
		NextZIndex:     m.nextZ,
		SnapGroups:     make([]SnapGroup, 0, len(m.groups)),
	}
	for _, w := range m.windows {
		snap.Windows = append(snap.Windows, w.clone())
	}
	for _, g := range m.groups {
		snap.SnapGroups = append(snap.SnapGroups, g.clone())
	}
	m.save(m.sessionKey, snap)
}

// restoreGeometryLocked returns the geometry a window should come back
// to: its pre-operation snapshot, then its durable geometry, then a
// centered default. Saved rectangles are clamped to the current viewport.
func (m *Manager) restoreGeometryLocked(w *Window) Rect {
	vw, vh := m.viewport.Size()
	if r, ok := m.prefs.PreMaxGeometries[w.ID]; ok {
		if c, ok := ClampGeometry(r, vw, vh, w.MinWidth, w.MinHeight); ok {
			return c
		}
	}
	if r, ok := m.prefs.Geometries[w.ID]; ok {
		if c, ok := ClampGeometry(r, vw, vh, w.MinWidth, w.MinHeight); ok {
			return c
		}
	}
	return DefaultGeometry(vw, vh, w.MinWidth, w.MinHeight)
}

// snapshotLocked records the current normal geometry of w as its
// pre-operation snapshot. Placed windows and group members keep the
// snapshot taken before their first placement. The caller flushes.
func (m *Manager) snapshotLocked(w *Window) bool {
	if w.State != WindowStateNormal || w.Geometry == nil || w.SnapGroupID != "" || w.Placed {
		return false
	}
	m.prefs.PreMaxGeometries[w.ID] = *w.Geometry
	return true
}

// scheduleWriteLocked debounces a prefs and session write. Each call
// replaces the pending timer.
func (m *Manager) scheduleWriteLocked() {
	if m.writeDelay <= 0 {
		m.writeLocked()
		return
	}
	m.pending.Stop()
	m.pendingSeq++
	seq := m.pendingSeq
	m.pending = m.clock.AfterFunc(m.writeDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if seq != m.pendingSeq || m.pending == nil {
			return
		}
		m.pending = nil
		m.writeLocked()
	})
}

// flushNowLocked cancels any pending write and stores prefs immediately.
func (m *Manager) flushNowLocked() {
	m.cancelPendingLocked()
	m.save(m.prefsKey, m.prefs)
}

func (m *Manager) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.pendingSeq++
}

func (m *Manager) writeLocked() {
	m.save(m.prefsKey, m.prefs)
	m.persistSessionLocked()
}
