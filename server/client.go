package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cardtable/game"
)

// Client is one websocket connection viewing a table. Its drag controller
// lives server-side so thin clients can forward raw pointer events.
type Client struct {
	Name   string
	conn   *websocket.Conn
	server *Server
	table  *Table
	send   chan []byte
	drag   *game.Drag

	// done is closed once by disconnect; send itself is never closed, so
	// the table can always write to it without racing the teardown
	done     chan struct{}
	doneOnce sync.Once
}

func newClient(conn *websocket.Conn, server *Server, name string) *Client {
	return &Client{
		Name:   name,
		conn:   conn,
		server: server,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
	}
}

// gone reports whether the client has disconnected.
func (c *Client) gone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) sendMessage(msg *Message) {
	select {
	case c.send <- msg.encode():
	default:
	}
}

func (c *Client) readPump() {
	defer c.disconnect()
	c.conn.SetReadLimit(c.server.readLimit())
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected close", "client", c.Name, "error", err)
			}
			break
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendMessage(&Message{Type: ErrorAction, Errors: []string{"malformed message"}})
			continue
		}
		msg.Sender = c.Name
		c.table.commands <- command{client: c, msg: &msg}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			// attach queued messages to the current websocket frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) disconnect() {
	c.doneOnce.Do(func() { close(c.done) })
	// the table may be gone already when the last viewers leave together
	select {
	case c.table.unregister <- c:
	case <-c.table.closed:
	}
	c.conn.Close()
}

// ServeWs upgrades an authenticated request and joins the client to the
// table named by the session query parameter, minting a fresh session id
// when none is supplied.
func ServeWs(s *Server, w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(string)
	if !ok {
		http.Error(w, "not authenticated", http.StatusForbidden)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", "error", err)
		return
	}
	client := newClient(conn, s, user)

	// the pumps start only after registration lands, so a dying connection
	// cannot tear the client down while the join is still in flight
	table := s.table(r.Context(), sessionID)
	for {
		client.table = table
		client.drag = game.NewDrag(table.session, defaultDragConfig)
		select {
		case table.register <- client:
			go client.writePump()
			go client.readPump()
			return
		case <-table.closed:
			// last viewer left while we were joining; spin up a fresh table
			table = s.table(r.Context(), sessionID)
		}
	}
}

// defaultDragConfig matches the reference client layout; clients with a
// different viewport send table.layout after joining.
var defaultDragConfig = game.DragConfig{
	Field: game.Rect{X: 0, Y: 0, W: 1280, H: 620},
	Hand:  game.Rect{X: 0, Y: 620, W: 1280, H: 180},
	CardW: 120,
	CardH: 168,
}
