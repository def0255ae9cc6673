package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/engine"
)

const writeTimeout = 10 * time.Second

// conn serializes writes to a websocket connection.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(f)
}

func (c *conn) close(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeTimeout),
	)
}

// Connect streams a table over a websocket. The client first receives a
// state frame, then a change frame for every published change. Text
// messages from the client are command lines.
func (t Tables) Connect(upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := t.table(w, r)
		if !ok {
			return
		}
		log := t.logger(r).WithField("table", r.PathValue("id"))

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("upgrade failed")
			return
		}
		defer ws.Close()
		c := &conn{ws: ws}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// changes wait for the baseline frame
		ready := make(chan struct{})
		observer := func(change engine.StateChange) error {
			select {
			case <-ready:
			case <-ctx.Done():
				return nil
			}
			return c.send(Frame{Type: FrameChange, Change: &change})
		}

		snap, h, err := e.SubscribeWithState(ctx, observer)
		if err != nil {
			c.send(Frame{Type: FrameError, Error: err.Error()})
			return
		}
		defer e.Unsubscribe(h)
		if err := c.send(Frame{Type: FrameState, State: &snap}); err != nil {
			log.WithError(err).Debug("write failed")
			return
		}
		close(ready)

		go func() {
			select {
			case <-e.Done():
				c.close(websocket.CloseGoingAway, "table closed")
				ws.Close()
			case <-ctx.Done():
			}
		}()

		t.readLoop(ctx, log, c, e)
	}
}

func (t Tables) readLoop(ctx context.Context, log logrus.FieldLogger, c *conn, e *engine.Engine) {
	sendState := func(snap engine.Snapshot) error {
		return c.send(Frame{Type: FrameState, State: &snap})
	}
	fail := func(err error) error {
		return c.send(Frame{Type: FrameError, Error: err.Error()})
	}
	for {
		mt, message, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("read failed")
			}
			return
		}
		if mt != websocket.TextMessage {
			c.close(websocket.CloseUnsupportedData, "text frames only")
			return
		}
		if err := executeLines(ctx, e, string(message), sendState, fail); err != nil {
			if !errors.Is(err, engine.ErrClosed) {
				log.WithError(err).Debug("connection closed")
			}
			return
		}
	}
}
