package wm

import "slices"

// SnapGroupSlot records which window fills a slot and the pixel geometry
// it was given.
type SnapGroupSlot struct {
	SlotID   SlotID `json:"slotId" yaml:"slotId"`
	WindowID string `json:"windowId" yaml:"windowId"`
	Geometry Rect   `json:"geometry" yaml:"geometry"`
}

// SnapGroup is a set of windows arranged together in one layout.
type SnapGroup struct {
	ID       string          `json:"id" yaml:"id"`
	LayoutID LayoutID        `json:"layoutId" yaml:"layoutId"`
	Slots    []SnapGroupSlot `json:"slots" yaml:"slots"`
	Locked   bool            `json:"locked" yaml:"locked"`
}

func (g *SnapGroup) clone() SnapGroup {
	c := *g
	c.Slots = slices.Clone(g.Slots)
	return c
}

// SlotAssignment places one window in one slot of a new group.
type SlotAssignment struct {
	SlotID   SlotID `json:"slotId" yaml:"slotId"`
	WindowID string `json:"windowId" yaml:"windowId"`
}

// CreateSnapGroup arranges windows in the slots of a layout and binds
// them into a group. Assignments naming unknown windows or slots, or
// repeating a window or slot, are skipped.
func (m *Manager) CreateSnapGroup(layoutID LayoutID, assignments []SlotAssignment) (SnapGroup, error) {
	layout, ok := LookupLayout(layoutID)
	if !ok {
		return SnapGroup{}, ErrLayoutNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type placement struct {
		w    *Window
		slot LayoutSlot
	}
	var valid []placement
	seenSlot := map[SlotID]bool{}
	seenWin := map[string]bool{}
	for _, a := range assignments {
		w := m.index[a.WindowID]
		slot, ok := layout.Slot(a.SlotID)
		if w == nil || !ok || seenSlot[a.SlotID] || seenWin[a.WindowID] {
			continue
		}
		seenSlot[a.SlotID] = true
		seenWin[a.WindowID] = true
		valid = append(valid, placement{w: w, slot: slot})
	}
	if len(valid) < 2 {
		return SnapGroup{}, ErrGroupTooSmall
	}

	snapshotted := false
	for _, p := range valid {
		if m.snapshotLocked(p.w) {
			snapshotted = true
		}
	}
	if snapshotted {
		m.flushNowLocked()
	}

	vw, vh := m.viewport.Size()
	g := &SnapGroup{ID: m.newGroupID(), LayoutID: layoutID, Locked: true}
	for _, p := range valid {
		m.removeFromGroupLocked(p.w)
		r := fitMinimums(ResolveSlotGeometry(p.slot, vw, vh), p.w)
		p.w.State = WindowStateNormal
		p.w.setGeometry(r)
		p.w.Placed = true
		p.w.SnapGroupID = g.ID
		p.w.SnapSlotID = p.slot.ID
		g.Slots = append(g.Slots, SnapGroupSlot{SlotID: p.slot.ID, WindowID: p.w.ID, Geometry: r})
	}
	m.groups = append(m.groups, g)
	m.persistSessionLocked()

	m.events.Publish(Event{Type: EventGroupCreated, GroupID: g.ID, LayoutID: layoutID})
	for _, slot := range g.Slots {
		m.events.Publish(Event{Type: EventGroupWindowAdded, GroupID: g.ID, WindowID: slot.WindowID, LayoutID: layoutID, SlotID: slot.SlotID})
	}
	m.log.Debug("snap group created", "group", g.ID, "layout", string(layoutID), "windows", len(g.Slots))
	return g.clone(), nil
}

// SnapGroups returns copies of all snap groups.
func (m *Manager) SnapGroups() []SnapGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SnapGroup, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g.clone())
	}
	return out
}

// SnapGroup returns a copy of a snap group by ID.
func (m *Manager) SnapGroup(id string) (SnapGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.groupLocked(id)
	if g == nil {
		return SnapGroup{}, ErrGroupNotFound
	}
	return g.clone(), nil
}

// SnapGroupSiblings returns the other members of the window's group.
func (m *Manager) SnapGroupSiblings(id string) ([]Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return nil, ErrWindowNotFound
	}
	out := []Window{}
	g := m.groupLocked(w.SnapGroupID)
	if g == nil {
		return out, nil
	}
	for _, slot := range g.Slots {
		if o := m.index[slot.WindowID]; o != nil && o.ID != id {
			out = append(out, o.clone())
		}
	}
	return out, nil
}

// UnsnapWindow takes a window out of its group and returns it to its
// pre-snap geometry. A group left with one window is dissolved.
func (m *Manager) UnsnapWindow(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[id]
	if w == nil {
		return ErrWindowNotFound
	}
	g := m.groupLocked(w.SnapGroupID)
	if g == nil {
		return nil
	}
	m.detachLocked(w, g, true)
	m.checkGroupLocked(g)
	m.persistSessionLocked()
	return nil
}

// UnsnapGroup dissolves a group, returning each member to its pre-snap
// geometry.
func (m *Manager) UnsnapGroup(groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.groupLocked(groupID)
	if g == nil {
		return ErrGroupNotFound
	}
	m.unsnapGroupLocked(g)
	m.persistSessionLocked()
	return nil
}

// UnsnapAll dissolves every group.
func (m *Manager) UnsnapAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.groups) == 0 {
		return
	}
	for _, g := range slices.Clone(m.groups) {
		m.unsnapGroupLocked(g)
	}
	m.persistSessionLocked()
}

// AssignToSlot moves a window into one slot of a layout without changing
// group membership, and focuses it.
func (m *Manager) AssignToSlot(windowID string, layoutID LayoutID, slotID SlotID) (Rect, error) {
	layout, ok := LookupLayout(layoutID)
	if !ok {
		return Rect{}, ErrLayoutNotFound
	}
	slot, ok := layout.Slot(slotID)
	if !ok {
		return Rect{}, ErrSlotNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.index[windowID]
	if w == nil {
		return Rect{}, ErrWindowNotFound
	}
	if m.snapshotLocked(w) {
		m.flushNowLocked()
	}
	vw, vh := m.viewport.Size()
	r := fitMinimums(ResolveSlotGeometry(slot, vw, vh), w)
	w.State = WindowStateNormal
	w.setGeometry(r)
	w.Placed = true
	m.focusLocked(w)
	m.persistSessionLocked()
	return r, nil
}

func (m *Manager) groupLocked(id string) *SnapGroup {
	if id == "" {
		return nil
	}
	for _, g := range m.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// removeFromGroupLocked detaches w from its group without touching its
// geometry.
func (m *Manager) removeFromGroupLocked(w *Window) {
	g := m.groupLocked(w.SnapGroupID)
	if g == nil {
		w.SnapGroupID = ""
		w.SnapSlotID = ""
		return
	}
	m.detachLocked(w, g, false)
	m.checkGroupLocked(g)
}

// detachLocked untags w and drops its slot from g. With restore set, a
// normal window goes back to its pre-snap geometry.
func (m *Manager) detachLocked(w *Window, g *SnapGroup, restore bool) {
	w.SnapGroupID = ""
	w.SnapSlotID = ""
	g.Slots = slices.DeleteFunc(g.Slots, func(s SnapGroupSlot) bool { return s.WindowID == w.ID })
	if restore && w.State == WindowStateNormal {
		w.setGeometry(m.restoreGeometryLocked(w))
		w.Placed = false
	}
	m.events.Publish(Event{Type: EventGroupWindowRemove, GroupID: g.ID, WindowID: w.ID, LayoutID: g.LayoutID})
}

// checkGroupLocked dissolves g once it holds fewer than two windows.
func (m *Manager) checkGroupLocked(g *SnapGroup) {
	if len(g.Slots) >= 2 {
		return
	}
	for _, slot := range g.Slots {
		if w := m.index[slot.WindowID]; w != nil {
			w.SnapGroupID = ""
			w.SnapSlotID = ""
		}
	}
	m.dropGroupLocked(g)
}

func (m *Manager) unsnapGroupLocked(g *SnapGroup) {
	for _, slot := range slices.Clone(g.Slots) {
		if w := m.index[slot.WindowID]; w != nil {
			m.detachLocked(w, g, true)
		}
	}
	m.dropGroupLocked(g)
}

func (m *Manager) dropGroupLocked(g *SnapGroup) {
	g.Slots = nil
	m.groups = slices.DeleteFunc(m.groups, func(o *SnapGroup) bool { return o == g })
	m.events.Publish(Event{Type: EventGroupDissolved, GroupID: g.ID, LayoutID: g.LayoutID})
	m.log.Debug("snap group dissolved", "group", g.ID)
}
