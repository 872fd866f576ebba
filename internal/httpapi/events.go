package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	// Same-origin checks are left to the CORS configuration.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// events streams lifecycle events as JSON text frames until the client goes
// away or the server shuts down. Clients never send anything meaningful;
// reads only service control frames.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	src := eventSource
	if src == nil {
		writeJSONError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()
	ctx, stop := workContext(r)
	defer stop()

	ch, cancel := src.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && zlog != nil {
					zlog.Debug().Err(err).Msg("events client read")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(eventsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			if shuttingDown(ctx) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, errShuttingDown.Error()),
					time.Now().Add(eventsWriteWait))
			}
			return
		}
	}
}
