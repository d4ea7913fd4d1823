package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"traveleasy/apperr"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow all origins for WebSocket connections
		// should only in dev
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsListTrips streams the session user's trip list. The first frame is
// the current snapshot, every following frame a full refreshed list.
func (h *handler) wsListTrips(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		writeError(c, apperr.Auth("Usuário não autenticado. Faça login novamente."))
		return
	}

	stream, err := h.trips.ListTrips(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stream.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	pump(conn, func(write func(v any) error) bool {
		trips, ok := <-stream.Updates()
		if !ok {
			return false
		}
		views := make([]tripView, 0, len(trips))
		for _, t := range trips {
			views = append(views, newTripView(t))
		}
		return write(gin.H{"viagens": views}) == nil
	})
}

// wsWatchTrip streams the live detail of one trip.
func (h *handler) wsWatchTrip(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		writeError(c, apperr.Auth("Usuário não autenticado. Faça login novamente."))
		return
	}
	tripID, err := tripIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	stream, err := h.trips.WatchTrip(c.Request.Context(), sess, tripID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stream.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	pump(conn, func(write func(v any) error) bool {
		detail, ok := <-stream.Updates()
		if !ok {
			return false
		}
		return write(newTripDetailView(&detail)) == nil
	})
}

// pump runs the connection's write side. next blocks on the feed and
// pushes at most one frame through the write callback; pump keeps the
// peer alive with pings and stops when the peer hangs up or the feed
// closes. gorilla connections allow one concurrent writer, so every
// write goes through the frames channel.
func pump(conn *websocket.Conn, next func(write func(v any) error) bool) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	frames := make(chan any)
	go func() {
		defer close(frames)
		write := func(v any) error {
			select {
			case frames <- v:
				return nil
			case <-done:
				return websocket.ErrCloseSent
			}
		}
		for next(write) {
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
