package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deskshell/pkg/wm"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

var errMissingParam = errors.New("missing required parameter")

func (s *Server) toolset() []tool {
	idParam := mcp.WithString("id", mcp.Required(), mcp.Description("Window id"))
	return []tool{
		{mcp.NewTool("list_windows",
			mcp.WithDescription("List open windows bottom to top with state, geometry and snap group"),
		), s.handleListWindows},
		{mcp.NewTool("open_window",
			mcp.WithDescription("Open a window, or focus it when the id is already open"),
			idParam,
			mcp.WithString("title", mcp.Description("Window title")),
			mcp.WithString("icon", mcp.Description("Window icon")),
			mcp.WithString("state", mcp.Description("Initial state: normal, maximized or minimized")),
			mcp.WithNumber("x", mcp.Description("Initial X for normal windows")),
			mcp.WithNumber("y", mcp.Description("Initial Y for normal windows")),
			mcp.WithNumber("width", mcp.Description("Initial width")),
			mcp.WithNumber("height", mcp.Description("Initial height")),
		), s.handleOpenWindow},
		{mcp.NewTool("close_window",
			mcp.WithDescription("Close a window, saving its geometry for the next open"),
			idParam,
		), s.windowOp(s.wm.CloseWindow, "closed")},
		{mcp.NewTool("focus_window",
			mcp.WithDescription("Bring a window to the front, restoring it if minimized"),
			idParam,
		), s.windowOp(s.wm.FocusWindow, "")},
		{mcp.NewTool("minimize_window", mcp.WithDescription("Minimize a window"), idParam), s.windowOp(s.wm.MinimizeWindow, "")},
		{mcp.NewTool("maximize_window", mcp.WithDescription("Maximize a window"), idParam), s.windowOp(s.wm.MaximizeWindow, "")},
		{mcp.NewTool("restore_window",
			mcp.WithDescription("Return a window to normal state at its last saved geometry"),
			idParam,
		), s.windowOp(s.wm.RestoreWindow, "")},
		{mcp.NewTool("toggle_window",
			mcp.WithDescription("Maximize a window, or restore it when already maximized"),
			idParam,
		), s.windowOp(s.wm.ToggleMaximized, "")},
		{mcp.NewTool("move_window",
			mcp.WithDescription("Move a normal window; the position is kept on screen"),
			idParam,
			mcp.WithNumber("x", mcp.Required(), mcp.Description("New X")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("New Y")),
		), s.handleMoveWindow},
		{mcp.NewTool("resize_window",
			mcp.WithDescription("Resize a normal resizable window; the size respects its minimums"),
			idParam,
			mcp.WithNumber("width", mcp.Required(), mcp.Description("New width")),
			mcp.WithNumber("height", mcp.Required(), mcp.Description("New height")),
		), s.handleResizeWindow},
		{mcp.NewTool("snap_window",
			mcp.WithDescription("Snap a window to a screen zone and report the implied layout's empty slots"),
			idParam,
			mcp.WithString("zone", mcp.Required(), mcp.Description("left, right, top, top-left, top-right, bottom-left or bottom-right")),
		), s.handleSnapWindow},
		{mcp.NewTool("assign_slot",
			mcp.WithDescription("Place a window in one slot of a layout without grouping it"),
			idParam,
			mcp.WithString("layout", mcp.Required(), mcp.Description("Layout id")),
			mcp.WithString("slot", mcp.Required(), mcp.Description("Slot id")),
		), s.handleAssignSlot},
		{mcp.NewTool("create_snap_group",
			mcp.WithDescription("Tile windows into a locked snap group"),
			mcp.WithString("layout", mcp.Required(), mcp.Description("Layout id")),
			mcp.WithString("assignments", mcp.Required(), mcp.Description("Comma separated slot=window pairs, e.g. 'left=notes,right=terminal'")),
		), s.handleCreateSnapGroup},
		{mcp.NewTool("list_snap_groups", mcp.WithDescription("List snap groups")), s.handleListSnapGroups},
		{mcp.NewTool("unsnap_window",
			mcp.WithDescription("Take a window out of its snap group"),
			idParam,
		), s.windowOp(s.wm.UnsnapWindow, "")},
		{mcp.NewTool("unsnap_all", mcp.WithDescription("Dissolve every snap group")), s.handleUnsnapAll},
		{mcp.NewTool("tile_windows",
			mcp.WithDescription("Tile every visible window"),
			mcp.WithString("mode", mcp.Description("grid (default), columns or rows")),
		), s.handleTile},
		{mcp.NewTool("cascade_windows", mcp.WithDescription("Cascade every visible window")), s.handleCascade},
		{mcp.NewTool("list_layouts", mcp.WithDescription("List the tiling layouts and their slots")), s.handleListLayouts},
		{mcp.NewTool("compute_zone",
			mcp.WithDescription("Report the snap zone under a pointer position"),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Pointer X")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Pointer Y")),
		), s.handleComputeZone},
	}
}

// yamlResult serializes v to YAML for an MCP response.
func yamlResult(v any) *mcp.CallToolResult {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("error: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func stringParam(params map[string]any, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func numberParam(params map[string]any, key string) (float64, bool) {
	switch n := params[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func requireNumbers(params map[string]any, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := numberParam(params, k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errMissingParam, k)
		}
		out[i] = v
	}
	return out, nil
}

func (s *Server) windowResult(id string) *mcp.CallToolResult {
	w, err := s.wm.Window(id)
	if err != nil {
		return errorResult(err)
	}
	return yamlResult(w)
}

// windowOp adapts a single-window operation. A non-empty done message is
// returned instead of the window, for operations that remove it.
func (s *Server) windowOp(op func(id string) error, done string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringParam(request.GetArguments(), "id", "")
		if err := op(id); err != nil {
			return errorResult(err), nil
		}
		if done != "" {
			return yamlResult(map[string]string{"id": id, "result": done}), nil
		}
		return s.windowResult(id), nil
	}
}

func (s *Server) handleListWindows(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(s.wm.Windows()), nil
}

func (s *Server) handleOpenWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	spec := wm.WindowSpec{
		ID:    stringParam(params, "id", ""),
		Title: stringParam(params, "title", ""),
		Icon:  stringParam(params, "icon", ""),
	}
	if name := stringParam(params, "state", ""); name != "" {
		state, err := wm.ParseWindowState(name)
		if err != nil {
			return errorResult(err), nil
		}
		spec.State = &state
	}
	if dims, err := requireNumbers(params, "x", "y", "width", "height"); err == nil {
		spec.Geometry = &wm.Rect{X: dims[0], Y: dims[1], Width: dims[2], Height: dims[3]}
	}
	w, err := s.wm.OpenWindow(spec)
	if err != nil {
		return errorResult(err), nil
	}
	return yamlResult(w), nil
}

func (s *Server) handleMoveWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")
	pos, err := requireNumbers(params, "x", "y")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.wm.MoveWindow(id, pos[0], pos[1]); err != nil {
		return errorResult(err), nil
	}
	return s.windowResult(id), nil
}

func (s *Server) handleResizeWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")
	size, err := requireNumbers(params, "width", "height")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.wm.ResizeWindow(id, size[0], size[1]); err != nil {
		return errorResult(err), nil
	}
	return s.windowResult(id), nil
}

type snapResult struct {
	Window wm.Window     `yaml:"window"`
	Assist wm.SnapAssist `yaml:"assist"`
}

func (s *Server) handleSnapWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")
	zone, err := wm.ParseZone(stringParam(params, "zone", ""))
	if err != nil {
		return errorResult(err), nil
	}
	assist, err := s.wm.SnapToZone(id, zone)
	if err != nil {
		return errorResult(err), nil
	}
	w, err := s.wm.Window(id)
	if err != nil {
		return errorResult(err), nil
	}
	return yamlResult(snapResult{Window: w, Assist: assist}), nil
}

func (s *Server) handleAssignSlot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")
	layout := wm.LayoutID(stringParam(params, "layout", ""))
	slot := wm.SlotID(stringParam(params, "slot", ""))
	if _, err := s.wm.AssignToSlot(id, layout, slot); err != nil {
		return errorResult(err), nil
	}
	return s.windowResult(id), nil
}

// parseAssignments reads "slot=window" pairs separated by commas.
func parseAssignments(raw string) ([]wm.SlotAssignment, error) {
	var out []wm.SlotAssignment
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		slot, window, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("assignment %q is not slot=window", pair)
		}
		out = append(out, wm.SlotAssignment{
			SlotID:   wm.SlotID(strings.TrimSpace(slot)),
			WindowID: strings.TrimSpace(window),
		})
	}
	return out, nil
}

func (s *Server) handleCreateSnapGroup(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	assignments, err := parseAssignments(stringParam(params, "assignments", ""))
	if err != nil {
		return errorResult(err), nil
	}
	g, err := s.wm.CreateSnapGroup(wm.LayoutID(stringParam(params, "layout", "")), assignments)
	if err != nil {
		return errorResult(err), nil
	}
	return yamlResult(g), nil
}

func (s *Server) handleListSnapGroups(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(s.wm.SnapGroups()), nil
}

func (s *Server) handleUnsnapAll(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.wm.UnsnapAll()
	return yamlResult(s.wm.Windows()), nil
}

func (s *Server) handleTile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := wm.ParseTileMode(stringParam(request.GetArguments(), "mode", ""))
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.wm.Tile(mode); err != nil {
		return errorResult(err), nil
	}
	return yamlResult(s.wm.Windows()), nil
}

func (s *Server) handleCascade(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.wm.Cascade(); err != nil {
		return errorResult(err), nil
	}
	return yamlResult(s.wm.Windows()), nil
}

func (s *Server) handleListLayouts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(wm.Layouts()), nil
}

type zoneResult struct {
	Zone     wm.Zone     `yaml:"zone"`
	Geometry *wm.Rect    `yaml:"geometry,omitempty"`
	LayoutID wm.LayoutID `yaml:"layoutId,omitempty"`
	SlotID   wm.SlotID   `yaml:"slotId,omitempty"`
}

func (s *Server) handleComputeZone(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := requireNumbers(request.GetArguments(), "x", "y")
	if err != nil {
		return errorResult(err), nil
	}
	vw, vh := s.wm.Viewport()
	z, rect, ok := wm.ComputeSnapZone(pos[0], pos[1], vw, vh)
	res := zoneResult{Zone: z}
	if ok {
		res.Geometry = &rect
		res.LayoutID, res.SlotID, _ = wm.InferLayoutFromZone(z)
	}
	return yamlResult(res), nil
}
