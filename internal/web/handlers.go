package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/SkidGo/internal/debug"
	"github.com/cjeanneret/SkidGo/internal/logic/control"
	"github.com/cjeanneret/SkidGo/internal/logic/mixer"
)

// Commander is the part of control.Controller the handlers need.
type Commander interface {
	Command(u control.Update) (control.Snapshot, control.Outputs, error)
	Snapshot() control.Snapshot
	Outputs() control.Outputs
}

// Limits describes the control ranges, sent to the page to configure its sliders.
type Limits struct {
	ThrottleMin        int `json:"throttle_min"`
	ThrottleMax        int `json:"throttle_max"`
	SteerMin           int `json:"steer_min"`
	SteerMax           int `json:"steer_max"`
	ElevatorMinDeg     int `json:"elev_min"`
	ElevatorMaxDeg     int `json:"elev_max"`
	ElevatorNeutralDeg int `json:"elev_neutral"`
	DutyMax            int `json:"duty_max"`
}

// DefaultLimits returns the control ranges for a given motor duty resolution.
func DefaultLimits(dutyMax int) Limits {
	return Limits{
		ThrottleMin:        mixer.ThrottleMin,
		ThrottleMax:        mixer.ThrottleMax,
		SteerMin:           mixer.SteerMin,
		SteerMax:           mixer.SteerMax,
		ElevatorMinDeg:     mixer.ElevatorMinDeg,
		ElevatorMaxDeg:     mixer.ElevatorMaxDeg,
		ElevatorNeutralDeg: mixer.ElevatorNeutralDeg,
		DutyMax:            dutyMax,
	}
}

// StateResponse is the JSON body of GET /state and of websocket replies.
type StateResponse struct {
	State   control.Snapshot `json:"state"`
	Outputs control.Outputs  `json:"outputs"`
	Error   string           `json:"error,omitempty"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Controller  Commander
	Limits      Limits
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If ctl is nil, control routes return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, ctl Commander, limits Limits, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Controller:  ctl,
		Limits:      limits,
		staticFS:    staticFS,
	}
}

// control field names, shared by the query string and websocket messages
const (
	fieldThrottle = "throttle"
	fieldSteer    = "steer"
	fieldElevator = "elev"
)

// ParseUpdate reads the optional throttle, steer and elev query parameters.
// Absent parameters stay nil. Values beyond the int range saturate, the
// controller clamps them anyway; non-integer values are an error.
func ParseUpdate(r *http.Request) (control.Update, error) {
	q := r.URL.Query()
	var u control.Update
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{fieldThrottle, &u.Throttle},
		{fieldSteer, &u.Steer},
		{fieldElevator, &u.Elevator},
	} {
		if !q.Has(f.name) {
			continue
		}
		v, err := parseInt(q.Get(f.name))
		if err != nil {
			return control.Update{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = &v
	}
	return u, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 0)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return int(v), nil
		}
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(v), nil
}

// apply runs one command and fans the result out to SSE clients.
func (h *Handlers) apply(source string, u control.Update) (control.Snapshot, control.Outputs, error) {
	snap, out, err := h.Controller.Command(u)
	debug.Command(source, snap.Throttle, snap.Steer, snap.ElevatorDeg)
	if err != nil {
		log.Printf("apply outputs failed: %v", err)
		h.Broadcaster.Broadcast("error", "Output failed: "+err.Error())
		return snap, out, err
	}
	h.Broadcaster.BroadcastState(snap, out)
	return snap, out, nil
}

// HandleControl handles GET /control?throttle=&steer=&elev=.
// It answers with a plain-text line echoing the stored setpoints.
func (h *Handlers) HandleControl(w http.ResponseWriter, r *http.Request) {
	if h.Controller == nil {
		http.Error(w, "controller not configured", http.StatusServiceUnavailable)
		return
	}

	u, err := ParseUpdate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, _, err := h.apply("http", u)
	if err != nil {
		http.Error(w, "output error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, snap.String())
}

// HandleState returns the current setpoints and the outputs they map to.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	if h.Controller == nil {
		http.Error(w, "controller not configured", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	json.NewEncoder(w).Encode(StateResponse{
		State:   h.Controller.Snapshot(),
		Outputs: h.Controller.Outputs(),
	})
}

// HandleConfig returns the control limits as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Limits)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleNotFound answers every unknown route.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not found", http.StatusNotFound)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
