package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spyplus/server/internal/game"
)

// Hub owns the room → connected clients mapping and fans out state to
// every participant of a room. It only reads snapshots; all mutation
// goes through the store.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	store *game.Store
}

func NewHub(store *game.Store) *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool), store: store}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*Client]bool)
	}
	h.rooms[c.roomID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.rooms[c.roomID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

func (h *Hub) clients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

// BroadcastRoom pushes a personalized full-room snapshot to every
// connected participant. Snapshots are per-client so the spy chat log
// only reaches Spies. Extra fields are merged next to the room.
func (h *Hub) BroadcastRoom(roomID string, ev EventType, room *game.Room, extra map[string]any) {
	for _, c := range h.clients(roomID) {
		snap := room.Snapshot(c.playerID)
		var payload any = snap
		if extra != nil {
			merged := map[string]any{"room": snap}
			for k, v := range extra {
				merged[k] = v
			}
			payload = merged
		}
		c.sendEvent(Event{Type: ev, RoomID: roomID, Payload: payload})
	}
}

// BroadcastEvent pushes the same payload to everyone in the room.
func (h *Hub) BroadcastEvent(roomID string, ev Event) {
	ev.RoomID = roomID
	for _, c := range h.clients(roomID) {
		c.sendEvent(ev)
	}
}

// BroadcastSpies pushes an event to Spy-role clients only.
func (h *Hub) BroadcastSpies(roomID string, ev Event, room *game.Room) {
	ev.RoomID = roomID
	snap := room.Snapshot("")
	roles := make(map[string]game.Role, len(snap.Players))
	for _, p := range snap.Players {
		roles[p.ID] = p.Role
	}
	for _, c := range h.clients(roomID) {
		if roles[c.playerID] == game.RoleSpy {
			c.sendEvent(ev)
		}
	}
}

// Sweep runs one pass of timer expiry and idle cleanup, broadcasting
// whatever changed. Wire it to a ticker in main.
func (h *Hub) Sweep(now time.Time) {
	for _, exp := range h.store.ExpireDeadlines(now) {
		log.Info().Str("roomId", exp.Room.ID).Str("from", string(exp.From)).Str("to", string(exp.To)).Msg("phase deadline expired")
		h.broadcastTransition(exp.Room, exp.Tally)
	}
	report := h.store.Cleanup(now)
	for _, id := range report.DeletedRoomIDs {
		h.dropRoomClients(id)
	}
	for _, r := range report.UpdatedRooms {
		h.BroadcastRoom(r.ID, EventRoomUpdate, r, nil)
	}
	for _, r := range report.EndedRooms {
		h.BroadcastRoom(r.ID, EventGameOver, r, nil)
	}
	if n := len(report.DeletedRoomIDs); n > 0 {
		log.Info().Int("deleted", n).Int("remaining", h.store.RoomCount()).Msg("idle room sweep")
	}
}

func (h *Hub) broadcastTransition(room *game.Room, tally *game.TallyResult) {
	switch {
	case room.Snapshot("").Status == game.PhaseGameOver:
		h.BroadcastRoom(room.ID, EventGameOver, room, tallyExtra(tally))
	case tally != nil:
		h.BroadcastRoom(room.ID, EventPlayerEliminated, room, tallyExtra(tally))
	default:
		h.BroadcastRoom(room.ID, EventPhaseChanged, room, nil)
	}
}

func tallyExtra(t *game.TallyResult) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{"tally": t}
}

func (h *Hub) dropRoomClients(roomID string) {
	h.mu.Lock()
	clients := h.rooms[roomID]
	delete(h.rooms, roomID)
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

func marshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
