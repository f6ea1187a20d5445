package ws

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spyplus/server/internal/game"
)

func newTestHandler(seed int64) (*game.Store, *Hub, *Handler) {
	store := game.NewStore(game.Options{Rand: rand.New(rand.NewSource(seed))})
	hub := NewHub(store)
	return store, hub, NewHandler(store, hub)
}

// attach binds a connectionless client to a room so dispatch and
// broadcast paths can run without a real socket. Events pile up in the
// send buffer.
func attach(hub *Hub, roomID, playerID string) *Client {
	c := newClient(hub, nil)
	c.roomID, c.playerID = roomID, playerID
	hub.register(c)
	return c
}

func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case data := <-c.send:
			var ev Event
			require.NoError(t, json.Unmarshal(data, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []Event) []EventType {
	out := make([]EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func rawEnvelope(action Action, roomID, payload string) Envelope {
	return Envelope{Action: action, RoomID: roomID, Payload: json.RawMessage(payload)}
}

func TestDispatchJoinAttachesAndReplaysState(t *testing.T) {
	store, hub, h := newTestHandler(1)
	room, hostID, err := store.CreateRoom("host")
	require.NoError(t, err)

	c := newClient(hub, nil)
	h.dispatch(c, rawEnvelope(ActionJoinRoom, "",
		fmt.Sprintf(`{"roomId":%q,"playerId":%q}`, room.ID, hostID)))

	require.Equal(t, room.ID, c.roomID)
	require.Equal(t, hostID, c.playerID)

	evs := drain(t, c)
	require.NotEmpty(t, evs)
	require.Equal(t, EventRoomUpdate, evs[0].Type, "the joiner gets the authoritative state first")
	require.Contains(t, eventTypes(evs), EventPlayerJoined)
}

func TestDispatchJoinUnknownRoom(t *testing.T) {
	_, hub, h := newTestHandler(2)
	c := newClient(hub, nil)
	h.dispatch(c, rawEnvelope(ActionJoinRoom, "", `{"roomId":"nope","playerId":"nobody"}`))

	evs := drain(t, c)
	require.Len(t, evs, 1)
	require.Equal(t, EventError, evs[0].Type)
	require.Empty(t, c.roomID, "a failed join must not bind the client")
}

func TestDispatchUnknownActionIgnored(t *testing.T) {
	store, hub, h := newTestHandler(3)
	room, hostID, _ := store.CreateRoom("host")
	c := attach(hub, room.ID, hostID)

	h.dispatch(c, rawEnvelope("do_a_barrel_roll", room.ID, `{}`))
	require.Empty(t, drain(t, c))
}

func TestDispatchErrorGoesToSenderOnly(t *testing.T) {
	store, hub, h := newTestHandler(4)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	host := attach(hub, room.ID, hostID)
	bob := attach(hub, room.ID, bobID)

	h.dispatch(bob, rawEnvelope(ActionStartGame, room.ID, `{}`))

	evs := drain(t, bob)
	require.Len(t, evs, 1)
	require.Equal(t, EventError, evs[0].Type)
	require.Empty(t, drain(t, host), "store failures stay with the requester")
}

func TestDispatchInvalidPayload(t *testing.T) {
	store, hub, h := newTestHandler(5)
	room, hostID, _ := store.CreateRoom("host")
	c := attach(hub, room.ID, hostID)

	h.dispatch(c, rawEnvelope(ActionSubmitVote, room.ID, `{not json`))
	evs := drain(t, c)
	require.Len(t, evs, 1)
	require.Equal(t, EventError, evs[0].Type)
}

func TestDispatchVoteResolutionBroadcastsOutcome(t *testing.T) {
	store, hub, h := newTestHandler(6)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	_, carolID, _ := store.JoinRoom(room.Code, "carol")
	_, err := store.StartGame(room.ID, hostID)
	require.NoError(t, err)

	var spyID string
	for _, p := range room.Players {
		if p.Role == game.RoleSpy {
			spyID = p.ID
		}
	}
	require.NotEmpty(t, spyID)

	clients := map[string]*Client{
		hostID:  attach(hub, room.ID, hostID),
		bobID:   attach(hub, room.ID, bobID),
		carolID: attach(hub, room.ID, carolID),
	}
	room.Status = game.PhaseVoting

	for _, id := range []string{hostID, bobID, carolID} {
		h.dispatch(clients[id], rawEnvelope(ActionSubmitVote, room.ID,
			fmt.Sprintf(`{"voterId":%q,"targetId":%q}`, id, spyID)))
	}

	// Three seats minus the spy leaves two, so the table ends either way;
	// everyone sees game_over carrying the tally.
	for id, c := range clients {
		evs := drain(t, c)
		require.Contains(t, eventTypes(evs), EventGameOver, "client %s", id)
	}
}

func TestSpyChatReachesSpiesOnly(t *testing.T) {
	store, hub, h := newTestHandler(7)
	room, hostID, _ := store.CreateRoom("host")
	store.JoinRoom(room.Code, "bob")
	store.JoinRoom(room.Code, "carol")
	_, err := store.StartGame(room.ID, hostID)
	require.NoError(t, err)

	var spyID string
	var agentIDs []string
	for _, p := range room.Players {
		if p.Role == game.RoleSpy {
			spyID = p.ID
		} else {
			agentIDs = append(agentIDs, p.ID)
		}
	}

	spyClient := attach(hub, room.ID, spyID)
	agentClient := attach(hub, room.ID, agentIDs[0])

	h.dispatch(spyClient, rawEnvelope(ActionSpyChat, room.ID, `{"message":"they know"}`))

	spyEvs := drain(t, spyClient)
	require.Contains(t, eventTypes(spyEvs), EventSpyChatMessage)
	require.NotContains(t, eventTypes(drain(t, agentClient)), EventSpyChatMessage)

	h.dispatch(agentClient, rawEnvelope(ActionSpyChat, room.ID, `{"message":"hello?"}`))
	evs := drain(t, agentClient)
	require.Len(t, evs, 1)
	require.Equal(t, EventError, evs[0].Type, "non-spies cannot post to the faction channel")
}

func TestAbilityPrivateResultStaysWithInvoker(t *testing.T) {
	store, hub, h := newTestHandler(8)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	_, carolID, _ := store.JoinRoom(room.Code, "carol")
	_, err := store.StartGame(room.ID, hostID)
	require.NoError(t, err)

	for _, p := range room.Players {
		if p.ID == hostID {
			p.Abilities = []*game.Ability{{ID: game.AbilityPeekRole, Name: "Reveal Role"}}
		}
	}
	_ = carolID

	hostClient := attach(hub, room.ID, hostID)
	bobClient := attach(hub, room.ID, bobID)

	h.dispatch(hostClient, rawEnvelope(ActionUseAbility, room.ID,
		fmt.Sprintf(`{"playerId":%q,"abilityId":"peek_role","targetId":%q}`, hostID, bobID)))

	hostEvs := drain(t, hostClient)
	require.Contains(t, eventTypes(hostEvs), EventAbilityUsed)

	bobEvs := drain(t, bobClient)
	require.NotContains(t, eventTypes(bobEvs), EventAbilityUsed, "private results never fan out")
	require.Contains(t, eventTypes(bobEvs), EventRoomUpdate)
}

func TestChatBroadcast(t *testing.T) {
	store, hub, h := newTestHandler(9)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	host := attach(hub, room.ID, hostID)
	bob := attach(hub, room.ID, bobID)

	h.dispatch(host, rawEnvelope(ActionChatMessage, room.ID, `{"message":"hi","emoji":"👀"}`))
	require.Contains(t, eventTypes(drain(t, host)), EventChatMessage)
	require.Contains(t, eventTypes(drain(t, bob)), EventChatMessage)
}

func TestReadyStateBroadcastsAllReady(t *testing.T) {
	store, hub, h := newTestHandler(10)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	_, carolID, _ := store.JoinRoom(room.Code, "carol")
	store.StartGame(room.ID, hostID)

	clients := []*Client{
		attach(hub, room.ID, hostID),
		attach(hub, room.ID, bobID),
		attach(hub, room.ID, carolID),
	}

	// player_ready acts on the sending connection's identity.
	for _, c := range clients {
		h.dispatch(c, rawEnvelope(ActionPlayerReady, room.ID, `{}`))
	}

	evs := drain(t, clients[0])
	require.Len(t, evs, 3)
	for _, ev := range evs {
		require.Equal(t, EventReadyStateChanged, ev.Type)
	}
	last, ok := evs[2].Payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, last["allReady"])
}

func TestHandleDisconnectMarksPlayer(t *testing.T) {
	store, hub, h := newTestHandler(11)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	bob := attach(hub, room.ID, bobID)
	_ = hostID

	h.handleDisconnect(bob)

	for _, p := range room.Snapshot("").Players {
		if p.ID == bobID {
			require.False(t, p.IsConnected)
			require.NotNil(t, p.DisconnectedAt)
			return
		}
	}
	t.Fatal("bob missing from the roster")
}

func TestHubSweepBroadcastsForcedTransition(t *testing.T) {
	store, hub, _ := newTestHandler(12)
	room, hostID, _ := store.CreateRoom("host")
	_, bobID, _ := store.JoinRoom(room.Code, "bob")
	_, carolID, _ := store.JoinRoom(room.Code, "carol")
	store.StartGame(room.ID, hostID)

	host := attach(hub, room.ID, hostID)
	attach(hub, room.ID, bobID)
	attach(hub, room.ID, carolID)

	room.Status = game.PhaseDiscussion
	room.PhaseDeadline = time.Now().Add(-time.Second)
	hub.Sweep(time.Now())

	evs := drain(t, host)
	require.Contains(t, eventTypes(evs), EventPhaseChanged)
	require.Equal(t, game.PhaseVoting, room.Snapshot("").Status)
}

func TestRejoinMovesHubRegistration(t *testing.T) {
	store, hub, h := newTestHandler(14)
	roomA, aliceID, _ := store.CreateRoom("alice")
	roomB, bobID, _ := store.CreateRoom("bob")

	c := newClient(hub, nil)
	h.dispatch(c, rawEnvelope(ActionJoinRoom, "",
		fmt.Sprintf(`{"roomId":%q,"playerId":%q}`, roomA.ID, aliceID)))
	require.Len(t, hub.clients(roomA.ID), 1)

	h.dispatch(c, rawEnvelope(ActionJoinRoom, "",
		fmt.Sprintf(`{"roomId":%q,"playerId":%q}`, roomB.ID, bobID)))
	require.Empty(t, hub.clients(roomA.ID), "the old binding must be dropped")
	require.Len(t, hub.clients(roomB.ID), 1)
	require.Equal(t, roomB.ID, c.roomID)
	require.Equal(t, bobID, c.playerID)

	drain(t, c)
	hub.BroadcastRoom(roomA.ID, EventRoomUpdate, roomA, nil)
	require.Empty(t, drain(t, c), "old-room broadcasts must not reach the reattached client")
}

func TestHubUnregisterDropsEmptyRoom(t *testing.T) {
	store, hub, _ := newTestHandler(13)
	room, hostID, _ := store.CreateRoom("host")
	c := attach(hub, room.ID, hostID)

	require.Len(t, hub.clients(room.ID), 1)
	hub.unregister(c)
	require.Empty(t, hub.clients(room.ID))
}
