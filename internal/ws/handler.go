package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spyplus/server/internal/game"
)

// Handler upgrades connections and routes inbound envelopes into the
// room store. Store errors go back to the requesting connection only;
// the rest of the room never sees them.
type Handler struct {
	store    *game.Store
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(store *game.Store, hub *Hub) *Handler {
	return &Handler{
		store: store,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Room codes are shareable identifiers, not credentials;
			// the API is open by design.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve is the gin handler for GET /ws.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := newClient(h.hub, conn)
	go client.writePump()
	go client.readPump(h)
}

func (h *Handler) dispatch(c *Client, env Envelope) {
	roomID := env.RoomID
	if roomID == "" {
		roomID = c.roomID
	}
	switch env.Action {
	case ActionJoinRoom:
		var p joinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		h.handleJoin(c, p)

	case ActionLeaveRoom:
		h.handleLeave(c)

	case ActionStartGame:
		room, err := h.store.StartGame(roomID, c.playerID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		log.Info().Str("roomId", roomID).Str("hostId", c.playerID).Msg("game started")
		h.hub.BroadcastRoom(roomID, EventGameStarted, room, nil)

	case ActionNextPhase:
		room, err := h.store.NextPhase(roomID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventPhaseChanged, room, nil)

	case ActionPlayerReady:
		room, allReady, err := h.store.MarkReady(roomID, c.playerID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventReadyStateChanged, room, map[string]any{"allReady": allReady})

	case ActionStartMission:
		room, err := h.store.StartMission(roomID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventPhaseChanged, room, nil)

	case ActionSubmitDrawing:
		var p drawingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, err := h.store.SubmitDrawing(roomID, game.DrawingSubmission(p))
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventDrawingSubmitted, room, nil)

	case ActionSubmitStory:
		var p storyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, err := h.store.SubmitStory(roomID, game.StoryContribution(p))
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventStorySubmitted, room, nil)

	case ActionSubmitOrder:
		var p orderPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, err := h.store.SubmitOrder(roomID, game.OrderSubmission(p))
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventOrderSubmitted, room, nil)

	case ActionSubmitCode:
		var p codePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, err := h.store.SubmitCodeGuess(roomID, game.CodeGuess(p))
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastRoom(roomID, EventCodeSubmitted, room, nil)

	case ActionSubmitVote:
		var p votePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, tally, err := h.store.SubmitVote(roomID, p.VoterID, p.TargetID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		if tally == nil {
			h.hub.BroadcastRoom(roomID, EventVoteSubmitted, room, nil)
			return
		}
		log.Info().Str("roomId", roomID).Str("eliminated", tally.EliminatedID).Bool("shield", tally.ShieldSaved).Msg("ballot resolved")
		if room.Snapshot("").Status == game.PhaseGameOver {
			h.hub.BroadcastRoom(roomID, EventGameOver, room, tallyExtra(tally))
		} else {
			h.hub.BroadcastRoom(roomID, EventPlayerEliminated, room, tallyExtra(tally))
		}

	case ActionUseAbility:
		var p abilityPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		h.handleAbility(c, roomID, p)

	case ActionChatMessage:
		var p chatPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		_, msg, err := h.store.AppendChat(roomID, c.playerID, p.Message, p.Emoji)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastEvent(roomID, Event{Type: EventChatMessage, Payload: msg})

	case ActionSpyChat:
		var p chatPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
		room, msg, err := h.store.AppendSpyChat(roomID, c.playerID, p.Message, p.Emoji)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.hub.BroadcastSpies(roomID, Event{Type: EventSpyChatMessage, Payload: msg}, room)

	case ActionPing:
		c.sendEvent(Event{Type: EventRoomUpdate, Payload: map[string]any{"pong": true}})

	default:
		// Unrecognized actions are ignored, not fatal.
		log.Debug().Str("action", string(env.Action)).Msg("ignoring unknown action")
	}
}

func (h *Handler) handleJoin(c *Client, p joinPayload) {
	room, err := h.store.MarkConnected(p.RoomID, p.PlayerID, true)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	// Re-joining drops the old room binding first, so broadcasts for
	// the previous room stop reaching this connection. The identity
	// pair is written before register publishes the client to
	// broadcasters; hub.mu orders the write against their reads.
	if c.roomID != "" {
		h.hub.unregister(c)
	}
	c.roomID = p.RoomID
	c.playerID = p.PlayerID
	h.hub.register(c)
	log.Info().Str("roomId", p.RoomID).Str("playerId", p.PlayerID).Msg("player attached")
	c.sendEvent(Event{Type: EventRoomUpdate, RoomID: p.RoomID, Payload: room.Snapshot(p.PlayerID)})
	h.hub.BroadcastRoom(p.RoomID, EventPlayerJoined, room, nil)
}

func (h *Handler) handleLeave(c *Client) {
	if c.roomID == "" {
		return
	}
	roomID := c.roomID
	room, err := h.store.LeaveRoom(roomID, c.playerID)
	h.hub.unregister(c)
	c.roomID, c.playerID = "", ""
	if err != nil || room == nil {
		return
	}
	h.hub.BroadcastRoom(roomID, EventPlayerLeft, room, nil)
}

func (h *Handler) handleDisconnect(c *Client) {
	if c.roomID == "" {
		return
	}
	room, err := h.store.MarkConnected(c.roomID, c.playerID, false)
	if err != nil {
		return
	}
	log.Info().Str("roomId", c.roomID).Str("playerId", c.playerID).Msg("player disconnected")
	h.hub.BroadcastRoom(c.roomID, EventRoomUpdate, room, nil)
}

func (h *Handler) handleAbility(c *Client, roomID string, p abilityPayload) {
	room, res, err := h.store.UseAbility(roomID, p.PlayerID, game.AbilityID(p.AbilityID), p.TargetID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	log.Info().Str("roomId", roomID).Str("playerId", p.PlayerID).Str("ability", p.AbilityID).Msg("ability used")

	if res.Private {
		// Peeks and forensics reveal information to the invoker alone.
		c.sendEvent(Event{Type: EventAbilityUsed, RoomID: roomID, Payload: map[string]any{
			"room": room.Snapshot(c.playerID), "playerId": p.PlayerID, "abilityId": p.AbilityID, "effect": res.Effect,
		}})
		h.hub.BroadcastRoom(roomID, EventRoomUpdate, room, nil)
		return
	}

	h.hub.BroadcastRoom(roomID, EventAbilityUsed, room, map[string]any{
		"playerId": p.PlayerID, "abilityId": p.AbilityID, "targetId": p.TargetID, "effect": res.Effect,
	})
	switch res.Effect {
	case "extra_time_added":
		h.hub.BroadcastEvent(roomID, Event{Type: EventTimerSync, Payload: map[string]any{
			"action": "add_time", "seconds": game.ExtraTimeSeconds,
		}})
	case "revote_forced":
		h.hub.BroadcastRoom(roomID, EventPhaseChanged, room, nil)
	case "secret_scrambled":
		h.hub.BroadcastSpies(roomID, Event{Type: EventSpyChatMessage, Payload: lastSpyMessage(room)}, room)
	}
}

// lastSpyMessage fetches the newest spy-chat entry through a spy-eye
// snapshot, since neutral snapshots strip the faction log.
func lastSpyMessage(room *game.Room) any {
	for _, p := range room.Snapshot("").Players {
		if p.Role != game.RoleSpy {
			continue
		}
		spySnap := room.Snapshot(p.ID)
		if n := len(spySnap.SpyMessages); n > 0 {
			return spySnap.SpyMessages[n-1]
		}
		break
	}
	return nil
}

func (h *Handler) sendError(c *Client, message string) {
	c.sendEvent(Event{Type: EventError, Payload: map[string]any{"message": message}})
}
