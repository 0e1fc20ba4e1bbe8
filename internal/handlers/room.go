package handlers

import (
	"net/http"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/services"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
}

func NewRoomHandler(roomService *services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

type CreateRoomRequest struct {
	HostUID string `json:"hostUid" binding:"required"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// CreateRoom godoc
// @Summary      Create a game room and return its shareable code
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Host uid"
// @Success      200 {object} CreateRoomResponse
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api/games/create [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(req.HostUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, CreateRoomResponse{RoomID: room.RoomID})
}

// GetRoom godoc
// @Summary      Fetch a durable room record with participants and history
// @Tags         games
// @Produce      json
// @Param        roomId path string true "Room id"
// @Success      200 {object} models.GameRoom
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api/games/{roomId} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, room)
}
