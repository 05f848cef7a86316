/*
Package wm implements the window compositor behind the deskshell desktop.

It covers:
  - Window lifecycle, focus and z-order (Manager)
  - Window states: normal, maximized and minimized
  - Screen-edge snap zones and the layout catalog
  - Snap groups that bind windows into layout slots
  - Edge-to-edge magnetic snapping for drags and resizes
  - Durable per-window geometry with a debounced writer

The Manager is the only owner of window state. Callers receive copies and
change state through its methods. Collaborators (storage, events, the
viewport and the clock) are injected through Config.

Example usage:

	manager := wm.NewManager(wm.Config{Store: kv.NewMemory()})
	win, err := manager.OpenWindow(wm.WindowSpec{ID: "files", Title: "Files"})
	if err != nil {
		// handle error
	}
	if _, err := manager.SnapToZone(win.ID, wm.ZoneLeft); err != nil {
		// handle error
	}
*/
package wm
