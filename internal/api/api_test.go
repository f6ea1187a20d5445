package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/spyplus/server/internal/game"
	"github.com/spyplus/server/internal/ws"
)

func newTestRouter(seed int64) (*gin.Engine, *game.Store) {
	gin.SetMode(gin.TestMode)
	store := game.NewStore(game.Options{Rand: rand.New(rand.NewSource(seed))})
	hub := ws.NewHub(store)
	r := gin.New()
	New(store, hub).Register(r)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type roomResponse struct {
	Room     *game.Room `json:"room"`
	PlayerID string     `json:"playerId"`
	Error    string     `json:"error"`
}

func decodeRoom(t *testing.T, w *httptest.ResponseRecorder) roomResponse {
	t.Helper()
	var out roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateRoom(t *testing.T) {
	r, _ := newTestRouter(1)
	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"})
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeRoom(t, w)
	require.NotEmpty(t, out.PlayerID)
	require.NotNil(t, out.Room)
	require.Len(t, out.Room.Code, 6)
	require.Equal(t, game.PhaseWaiting, out.Room.Status)
	require.Equal(t, out.PlayerID, out.Room.HostID)
}

func TestCreateRoomValidation(t *testing.T) {
	r, _ := newTestRouter(2)
	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinRoom(t *testing.T) {
	r, _ := newTestRouter(3)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))

	w := doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": created.Room.Code, "playerName": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeRoom(t, w)
	require.Len(t, out.Room.Players, 2)
	require.NotEqual(t, created.PlayerID, out.PlayerID)
}

func TestJoinRoomErrors(t *testing.T) {
	r, _ := newTestRouter(4)

	// Short codes fail binding before the store sees them.
	w := doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": "ABC", "playerName": "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": "ZZZZZZ", "playerName": "bob"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRoomByCode(t *testing.T) {
	r, _ := newTestRouter(5)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))

	w := doJSON(t, r, http.MethodGet, "/api/rooms/"+created.Room.Code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var room game.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	require.Equal(t, created.Room.ID, room.ID)

	w = doJSON(t, r, http.MethodGet, "/api/rooms/NOPE99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartGame(t *testing.T) {
	r, _ := newTestRouter(6)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))
	joined := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": created.Room.Code, "playerName": "bob"}))
	doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": created.Room.Code, "playerName": "carol"})

	path := fmt.Sprintf("/api/rooms/%s/start", created.Room.ID)

	w := doJSON(t, r, http.MethodPost, path, gin.H{"playerId": joined.PlayerID})
	require.Equal(t, http.StatusForbidden, w.Code, "only the host starts the game")

	w = doJSON(t, r, http.MethodPost, path, gin.H{"playerId": created.PlayerID})
	require.Equal(t, http.StatusOK, w.Code)
	var room game.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	require.Equal(t, game.PhaseRoleReveal, room.Status)
	require.NotNil(t, room.Mission)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"playerId": created.PlayerID})
	require.Equal(t, http.StatusBadRequest, w.Code, "double start is rejected")
}

func TestStartGameNotEnoughPlayers(t *testing.T) {
	r, _ := newTestRouter(7)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/rooms/%s/start", created.Room.ID), gin.H{"playerId": created.PlayerID})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKickPlayer(t *testing.T) {
	r, _ := newTestRouter(8)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))
	joined := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms/join", gin.H{"code": created.Room.Code, "playerName": "bob"}))

	path := fmt.Sprintf("/api/rooms/%s/kick", created.Room.ID)

	w := doJSON(t, r, http.MethodPost, path, gin.H{"hostId": joined.PlayerID, "playerIdToKick": created.PlayerID})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"hostId": created.PlayerID, "playerIdToKick": created.PlayerID})
	require.Equal(t, http.StatusForbidden, w.Code, "the host cannot kick themselves")

	w = doJSON(t, r, http.MethodPost, path, gin.H{"hostId": created.PlayerID, "playerIdToKick": joined.PlayerID})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeRoom(t, w)
	require.Len(t, out.Room.Players, 1)
}

func TestLeaveRoomDeletesLastSeat(t *testing.T) {
	r, store := newTestRouter(9)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/rooms/%s/leave", created.Room.ID), gin.H{"playerId": created.PlayerID})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeRoom(t, w)
	require.Nil(t, out.Room)
	require.Zero(t, store.RoomCount())
}

func TestReconnect(t *testing.T) {
	r, _ := newTestRouter(10)
	created := decodeRoom(t, doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"hostName": "alice"}))

	w := doJSON(t, r, http.MethodPost, "/api/reconnect", gin.H{"roomId": created.Room.ID, "playerId": created.PlayerID})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeRoom(t, w)
	require.Equal(t, created.PlayerID, out.PlayerID)

	w = doJSON(t, r, http.MethodPost, "/api/reconnect", gin.H{"roomId": created.Room.ID, "playerId": "stale"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/reconnect", gin.H{"roomId": "gone", "playerId": created.PlayerID})
	require.Equal(t, http.StatusNotFound, w.Code)
}
