package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"deskshell/pkg/eventbus"
	"deskshell/pkg/router"
	"deskshell/pkg/wm"

	"pkt.systems/pslog"
)

// APIPrefix is the path every compositor route is mounted under.
const APIPrefix = "/api/v1"

const maxBodyBytes = 1 << 20

var (
	errBadRequest = errors.New("bad request")
	errNoActive   = errors.New("no active window")
	errNoScreen   = errors.New("viewport is not adjustable")
)

// API serves the compositor over JSON.
type API struct {
	wm     *wm.Manager
	screen *wm.Screen
	bus    *eventbus.Bus
	log    pslog.Logger
}

// APIConfig holds the collaborators of an API.
type APIConfig struct {
	Manager *wm.Manager
	// Screen, when set, lets PUT /viewport resize the manager's viewport.
	Screen *wm.Screen
	// Events feeds the /events and /ws streams. Without it both return 404.
	Events *eventbus.Bus
	Logger pslog.Logger
}

// NewAPI returns an API over cfg.Manager.
func NewAPI(cfg APIConfig) *API {
	if cfg.Logger == nil {
		cfg.Logger = pslog.Ctx(context.Background())
	}
	return &API{
		wm:     cfg.Manager,
		screen: cfg.Screen,
		bus:    cfg.Events,
		log:    cfg.Logger.With("component", "api"),
	}
}

// NewHandler builds the full HTTP handler: health probes plus the API
// under APIPrefix, wrapped in recovery, request id, CORS and logging.
func NewHandler(api *API, ready func() bool, logger pslog.Logger) http.Handler {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	r := router.New()
	r.Use(
		router.RecoveryMiddleware(logger),
		router.RequestIDMiddleware(),
		router.CORSMiddleware(),
		router.LoggingMiddleware(logger),
	)
	r.GET("/health", HealthHandler())
	r.GET("/ready", ReadyHandler(ready))
	api.Register(r)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.SetNotFoundHandler(notFound)
	r.SetMethodNotAllowedHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}))
	return r
}

// Register mounts the API routes on r.
func (a *API) Register(r *router.Router) {
	p := APIPrefix
	r.GET(p+"/windows", http.HandlerFunc(a.listWindows))
	r.POST(p+"/windows", http.HandlerFunc(a.openWindow))
	r.GET(p+"/windows/active", http.HandlerFunc(a.activeWindow))
	r.GET(p+"/windows/:id", http.HandlerFunc(a.getWindow))
	r.DELETE(p+"/windows/:id", http.HandlerFunc(a.closeWindow))
	r.POST(p+"/windows/:id/focus", a.windowAction(a.wm.FocusWindow))
	r.POST(p+"/windows/:id/minimize", a.windowAction(a.wm.MinimizeWindow))
	r.POST(p+"/windows/:id/maximize", a.windowAction(a.wm.MaximizeWindow))
	r.POST(p+"/windows/:id/restore", a.windowAction(a.wm.RestoreWindow))
	r.POST(p+"/windows/:id/toggle", a.windowAction(a.wm.ToggleMaximized))
	r.POST(p+"/windows/:id/unsnap", a.windowAction(a.wm.UnsnapWindow))
	r.PUT(p+"/windows/:id/title", http.HandlerFunc(a.setTitle))
	r.POST(p+"/windows/:id/move", http.HandlerFunc(a.moveWindow))
	r.POST(p+"/windows/:id/resize", http.HandlerFunc(a.resizeWindow))
	r.PUT(p+"/windows/:id/geometry", http.HandlerFunc(a.setGeometry))
	r.POST(p+"/windows/:id/snap", http.HandlerFunc(a.snapWindow))
	r.POST(p+"/windows/:id/slot", http.HandlerFunc(a.assignSlot))
	r.GET(p+"/windows/:id/siblings", http.HandlerFunc(a.siblings))
	r.POST(p+"/windows/:id/edge-snap", http.HandlerFunc(a.edgeSnap))
	r.POST(p+"/tile", http.HandlerFunc(a.tile))
	r.POST(p+"/cascade", http.HandlerFunc(a.cascade))
	r.GET(p+"/groups", http.HandlerFunc(a.listGroups))
	r.POST(p+"/groups", http.HandlerFunc(a.createGroup))
	r.DELETE(p+"/groups", http.HandlerFunc(a.unsnapAll))
	r.GET(p+"/groups/:id", http.HandlerFunc(a.getGroup))
	r.DELETE(p+"/groups/:id", http.HandlerFunc(a.unsnapGroup))
	r.GET(p+"/layouts", http.HandlerFunc(a.listLayouts))
	r.GET(p+"/layouts/:id", http.HandlerFunc(a.getLayout))
	r.GET(p+"/layouts/:id/empty-slots", http.HandlerFunc(a.emptySlots))
	r.GET(p+"/zone", http.HandlerFunc(a.zone))
	r.GET(p+"/viewport", http.HandlerFunc(a.getViewport))
	r.PUT(p+"/viewport", http.HandlerFunc(a.setViewport))
	r.GET(p+"/events", http.HandlerFunc(a.events))
	r.GET(p+"/ws", http.HandlerFunc(a.socket))
}

func (a *API) listWindows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.wm.Windows())
}

func (a *API) openWindow(w http.ResponseWriter, r *http.Request) {
	var spec wm.WindowSpec
	if !a.decode(w, r, &spec) {
		return
	}
	_, err := a.wm.Window(spec.ID)
	existed := err == nil
	win, err := a.wm.OpenWindow(spec)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, win)
}

func (a *API) activeWindow(w http.ResponseWriter, r *http.Request) {
	win, ok := a.wm.ActiveWindow()
	if !ok {
		a.fail(w, r, errNoActive)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func (a *API) getWindow(w http.ResponseWriter, r *http.Request) {
	win, err := a.wm.Window(router.Param(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func (a *API) closeWindow(w http.ResponseWriter, r *http.Request) {
	if err := a.wm.CloseWindow(router.Param(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// windowAction adapts a manager operation on one window to a handler that
// responds with the window's new state.
func (a *API) windowAction(op func(id string) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := router.Param(r, "id")
		if err := op(id); err != nil {
			a.fail(w, r, err)
			return
		}
		a.respondWindow(w, r, id)
	})
}

func (a *API) respondWindow(w http.ResponseWriter, r *http.Request, id string) {
	win, err := a.wm.Window(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (a *API) setTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !a.decode(w, r, &req) {
		return
	}
	id := router.Param(r, "id")
	if err := a.wm.SetWindowTitle(id, req.Title); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondWindow(w, r, id)
}

type geometryRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

func (g geometryRequest) require(fields ...string) error {
	values := map[string]*float64{"x": g.X, "y": g.Y, "width": g.Width, "height": g.Height}
	for _, f := range fields {
		v := values[f]
		if v == nil {
			return fmt.Errorf("%w: %s is required", errBadRequest, f)
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("%w: %s must be finite", errBadRequest, f)
		}
	}
	return nil
}

func (a *API) moveWindow(w http.ResponseWriter, r *http.Request) {
	var req geometryRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := req.require("x", "y"); err != nil {
		a.fail(w, r, err)
		return
	}
	id := router.Param(r, "id")
	if err := a.wm.MoveWindow(id, *req.X, *req.Y); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondWindow(w, r, id)
}

func (a *API) resizeWindow(w http.ResponseWriter, r *http.Request) {
	var req geometryRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := req.require("width", "height"); err != nil {
		a.fail(w, r, err)
		return
	}
	id := router.Param(r, "id")
	if err := a.wm.ResizeWindow(id, *req.Width, *req.Height); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondWindow(w, r, id)
}

func (a *API) setGeometry(w http.ResponseWriter, r *http.Request) {
	var req geometryRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := req.require("x", "y", "width", "height"); err != nil {
		a.fail(w, r, err)
		return
	}
	id := router.Param(r, "id")
	if err := a.wm.MoveResizeWindow(id, *req.X, *req.Y, *req.Width, *req.Height); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondWindow(w, r, id)
}

type snapRequest struct {
	Zone string `json:"zone"`
}

type snapResponse struct {
	Window wm.Window     `json:"window"`
	Assist wm.SnapAssist `json:"assist"`
}

func (a *API) snapWindow(w http.ResponseWriter, r *http.Request) {
	var req snapRequest
	if !a.decode(w, r, &req) {
		return
	}
	zone, err := wm.ParseZone(req.Zone)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	id := router.Param(r, "id")
	assist, err := a.wm.SnapToZone(id, zone)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	win, err := a.wm.Window(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapResponse{Window: win, Assist: assist})
}

type slotRequest struct {
	LayoutID wm.LayoutID `json:"layoutId"`
	SlotID   wm.SlotID   `json:"slotId"`
}

func (a *API) assignSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !a.decode(w, r, &req) {
		return
	}
	id := router.Param(r, "id")
	if _, err := a.wm.AssignToSlot(id, req.LayoutID, req.SlotID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.respondWindow(w, r, id)
}

func (a *API) siblings(w http.ResponseWriter, r *http.Request) {
	sibs, err := a.wm.SnapGroupSiblings(router.Param(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if sibs == nil {
		sibs = []wm.Window{}
	}
	writeJSON(w, http.StatusOK, sibs)
}

type edgeSnapRequest struct {
	Geometry  *wm.Rect `json:"geometry"`
	Direction string   `json:"direction,omitempty"`
}

// edgeSnap previews drag snapping, or resize snapping when a direction
// is given. The window is not changed.
func (a *API) edgeSnap(w http.ResponseWriter, r *http.Request) {
	var req edgeSnapRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Geometry == nil {
		a.fail(w, r, fmt.Errorf("%w: geometry is required", errBadRequest))
		return
	}
	id := router.Param(r, "id")
	var (
		res wm.EdgeSnapResult
		err error
	)
	if req.Direction == "" {
		res, err = a.wm.DragSnap(id, *req.Geometry)
	} else {
		dir, perr := wm.ParseResizeDirection(req.Direction)
		if perr != nil {
			a.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, perr))
			return
		}
		res, err = a.wm.ResizeSnap(id, *req.Geometry, dir)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tileRequest struct {
	Mode string `json:"mode"`
}

func (a *API) tile(w http.ResponseWriter, r *http.Request) {
	var req tileRequest
	if r.ContentLength != 0 && !a.decode(w, r, &req) {
		return
	}
	mode, err := wm.ParseTileMode(req.Mode)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := a.wm.Tile(mode); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.wm.Windows())
}

func (a *API) cascade(w http.ResponseWriter, r *http.Request) {
	if err := a.wm.Cascade(); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.wm.Windows())
}

func (a *API) listGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.wm.SnapGroups())
}

type groupRequest struct {
	LayoutID    wm.LayoutID         `json:"layoutId"`
	Assignments []wm.SlotAssignment `json:"assignments"`
}

func (a *API) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !a.decode(w, r, &req) {
		return
	}
	g, err := a.wm.CreateSnapGroup(req.LayoutID, req.Assignments)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := a.wm.SnapGroup(router.Param(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) unsnapGroup(w http.ResponseWriter, r *http.Request) {
	if err := a.wm.UnsnapGroup(router.Param(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) unsnapAll(w http.ResponseWriter, r *http.Request) {
	a.wm.UnsnapAll()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wm.Layouts())
}

func (a *API) getLayout(w http.ResponseWriter, r *http.Request) {
	l, ok := wm.LookupLayout(wm.LayoutID(router.Param(r, "id")))
	if !ok {
		a.fail(w, r, wm.ErrLayoutNotFound)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type emptySlotsResponse struct {
	LayoutID   wm.LayoutID `json:"layoutId"`
	EmptySlots []wm.SlotID `json:"emptySlots"`
}

func (a *API) emptySlots(w http.ResponseWriter, r *http.Request) {
	id := wm.LayoutID(router.Param(r, "id"))
	if _, ok := wm.LookupLayout(id); !ok {
		a.fail(w, r, wm.ErrLayoutNotFound)
		return
	}
	var filled []wm.SlotID
	for _, s := range strings.Split(r.URL.Query().Get("filled"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			filled = append(filled, wm.SlotID(s))
		}
	}
	empty := wm.EmptySlots(id, filled)
	if empty == nil {
		empty = []wm.SlotID{}
	}
	writeJSON(w, http.StatusOK, emptySlotsResponse{LayoutID: id, EmptySlots: empty})
}

type zoneResponse struct {
	Zone     wm.Zone     `json:"zone"`
	Matched  bool        `json:"matched"`
	Geometry *wm.Rect    `json:"geometry,omitempty"`
	LayoutID wm.LayoutID `json:"layoutId,omitempty"`
	SlotID   wm.SlotID   `json:"slotId,omitempty"`
}

func (a *API) zone(w http.ResponseWriter, r *http.Request) {
	x, errX := queryFloat(r, "x")
	y, errY := queryFloat(r, "y")
	if err := errors.Join(errX, errY); err != nil {
		a.fail(w, r, err)
		return
	}
	vw, vh := a.wm.Viewport()
	z, rect, ok := wm.ComputeSnapZone(x, y, vw, vh)
	resp := zoneResponse{Zone: z, Matched: ok}
	if ok {
		resp.Geometry = &rect
		resp.LayoutID, resp.SlotID, _ = wm.InferLayoutFromZone(z)
	}
	writeJSON(w, http.StatusOK, resp)
}

type viewportBody struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Chrome float64 `json:"chrome,omitempty"`
}

func (a *API) getViewport(w http.ResponseWriter, r *http.Request) {
	vw, vh := a.wm.Viewport()
	resp := viewportBody{Width: vw, Height: vh}
	if a.screen != nil {
		resp.Chrome = a.screen.Chrome()
	}
	writeJSON(w, http.StatusOK, resp)
}

// setViewport records a new browser size. Width and height are the full
// browser size; the usable height excludes the taskbar.
func (a *API) setViewport(w http.ResponseWriter, r *http.Request) {
	if a.screen == nil {
		a.fail(w, r, errNoScreen)
		return
	}
	var req viewportBody
	if !a.decode(w, r, &req) {
		return
	}
	if !(req.Width > 0) || !(req.Height > 0) || math.IsInf(req.Width, 0) || math.IsInf(req.Height, 0) {
		a.fail(w, r, fmt.Errorf("%w: width and height must be positive", errBadRequest))
		return
	}
	a.screen.SetSize(req.Width, req.Height)
	a.log.Debug("viewport resized", "width", req.Width, "height", req.Height)
	a.getViewport(w, r)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", errBadRequest, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number", errBadRequest, name)
	}
	return v, nil
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.fail(w, r, fmt.Errorf("%w: decode body: %w", errBadRequest, err))
		return false
	}
	return true
}

// statusFor maps compositor errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wm.ErrWindowNotFound),
		errors.Is(err, wm.ErrLayoutNotFound),
		errors.Is(err, wm.ErrSlotNotFound),
		errors.Is(err, wm.ErrGroupNotFound),
		errors.Is(err, errNoActive):
		return http.StatusNotFound
	case errors.Is(err, wm.ErrGroupTooSmall):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wm.ErrInvalidWindowID),
		errors.Is(err, wm.ErrInvalidZone),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errNoScreen):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		pslog.Ctx(r.Context()).Error("api request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
