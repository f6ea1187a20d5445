// Package api exposes the request/response room lifecycle: create,
// join, lookup, start, kick, leave, reconnect. Realtime traffic lives
// in internal/ws.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spyplus/server/internal/game"
	"github.com/spyplus/server/internal/ws"
)

type Handler struct {
	store *game.Store
	hub   *ws.Hub
}

func New(store *game.Store, hub *ws.Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/rooms", h.createRoom)
	r.POST("/api/rooms/join", h.joinRoom)
	r.GET("/api/rooms/:code", h.getRoom)
	r.POST("/api/rooms/:roomId/start", h.startGame)
	r.POST("/api/rooms/:roomId/kick", h.kickPlayer)
	r.POST("/api/rooms/:roomId/leave", h.leaveRoom)
	r.POST("/api/reconnect", h.reconnect)
}

type createRoomRequest struct {
	HostName string `json:"hostName" binding:"required"`
}

func (h *Handler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid host name"})
		return
	}
	room, playerID, err := h.store.CreateRoom(req.HostName)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	snap := room.Snapshot(playerID)
	log.Info().Str("roomId", snap.ID).Str("code", snap.Code).Msg("room created")
	c.JSON(http.StatusOK, gin.H{"room": snap, "playerId": playerID})
}

type joinRoomRequest struct {
	Code       string `json:"code" binding:"required,len=6"`
	PlayerName string `json:"playerName" binding:"required"`
}

func (h *Handler) joinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room code or player name"})
		return
	}
	room, playerID, err := h.store.JoinRoom(req.Code, req.PlayerName)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.hub.BroadcastRoom(room.ID, ws.EventPlayerJoined, room, nil)
	c.JSON(http.StatusOK, gin.H{"room": room.Snapshot(playerID), "playerId": playerID})
}

func (h *Handler) getRoom(c *gin.Context) {
	room, err := h.store.RoomByCode(c.Param("code"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, room.Snapshot(""))
}

type startGameRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (h *Handler) startGame(c *gin.Context) {
	var req startGameRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing playerId"})
		return
	}
	room, err := h.store.StartGame(c.Param("roomId"), req.PlayerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.hub.BroadcastRoom(room.ID, ws.EventGameStarted, room, nil)
	c.JSON(http.StatusOK, room.Snapshot(req.PlayerID))
}

type kickRequest struct {
	HostID         string `json:"hostId" binding:"required"`
	PlayerIDToKick string `json:"playerIdToKick" binding:"required"`
}

func (h *Handler) kickPlayer(c *gin.Context) {
	var req kickRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing hostId or playerIdToKick"})
		return
	}
	room, err := h.store.KickPlayer(c.Param("roomId"), req.HostID, req.PlayerIDToKick)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("roomId", room.ID).Str("kicked", req.PlayerIDToKick).Msg("player kicked")
	h.hub.BroadcastRoom(room.ID, ws.EventPlayerKicked, room, nil)
	c.JSON(http.StatusOK, gin.H{"room": room.Snapshot(req.HostID)})
}

type leaveRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (h *Handler) leaveRoom(c *gin.Context) {
	var req leaveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing playerId"})
		return
	}
	room, err := h.store.LeaveRoom(c.Param("roomId"), req.PlayerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if room == nil {
		// Last player out deleted the room.
		c.JSON(http.StatusOK, gin.H{"room": nil})
		return
	}
	h.hub.BroadcastRoom(room.ID, ws.EventPlayerLeft, room, nil)
	c.JSON(http.StatusOK, gin.H{"room": room.Snapshot("")})
}

type reconnectRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
}

func (h *Handler) reconnect(c *gin.Context) {
	var req reconnectRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing roomId or playerId"})
		return
	}
	room, err := h.store.Reconnect(req.RoomID, req.PlayerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("roomId", req.RoomID).Str("playerId", req.PlayerID).Msg("player reconnected")
	c.JSON(http.StatusOK, gin.H{"room": room.Snapshot(req.PlayerID), "playerId": req.PlayerID})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, game.ErrRoomFull), errors.Is(err, game.ErrGameStarted):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotHost), errors.Is(err, game.ErrCannotKickHost):
		return http.StatusForbidden
	case errors.Is(err, game.ErrGameOver):
		return http.StatusGone
	case errors.Is(err, game.ErrInvalidPhase), errors.Is(err, game.ErrNotEnoughPlayers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
