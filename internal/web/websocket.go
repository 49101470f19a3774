package web

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/SkidGo/internal/logic/control"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebsocket handles GET /ws. The client sends JSON commands with the
// same optional fields as /control, e.g. {"throttle":40,"steer":-10}; each
// one is applied and answered with a StateResponse.
func (h *Handlers) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	if h.Controller == nil {
		http.Error(w, "controller not configured", http.StatusServiceUnavailable)
		return
	}
	w.Header().Add("Cache-Control", "no-cache")

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading websocket: %q", err.Error())
		return
	}
	defer ws.Close()

	// Hijacked connections are not closed by http.Server.Shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			ws.Close()
		case <-done:
		}
	}()

	for {
		var u control.Update
		if err := ws.ReadJSON(&u); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Error reading from control socket: %q", err.Error())
			}
			return
		}

		snap, out, err := h.apply("ws", u)
		resp := StateResponse{State: snap, Outputs: out}
		if err != nil {
			resp.Error = err.Error()
		}
		if err := ws.WriteJSON(resp); err != nil {
			log.Printf("Error writing to control socket: %q", err.Error())
			return
		}
	}
}
