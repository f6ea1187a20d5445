package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// Drawings travel as base64 image data, so frames get roomy.
	maxMessageSize = 1 << 20
)

// Client is one websocket connection, bound to a (room, player) pair
// after its join_room handshake.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	roomID   string
	playerID string
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, 64)}
}

func (c *Client) sendEvent(ev Event) {
	data, err := marshalEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("event", string(ev.Type)).Msg("marshal event")
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer; drop the frame rather than block the room.
		log.Warn().Str("playerId", c.playerID).Msg("send buffer full, dropping event")
	}
}

func (c *Client) close() {
	_ = c.conn.Close()
}

// readPump pumps inbound envelopes into the dispatcher. A missed pong
// within pongWait tears the connection down, which marks the player
// disconnected with a timestamp for the grace-period sweep.
func (c *Client) readPump(h *Handler) {
	defer func() {
		h.handleDisconnect(c)
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("playerId", c.playerID).Msg("websocket read error")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendEvent(Event{Type: EventError, Payload: map[string]any{"message": "invalid message format"}})
			continue
		}
		h.dispatch(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
