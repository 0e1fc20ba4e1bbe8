package handlers

import (
	"errors"
	"net/http"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/models"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
	roomService *services.RoomService
}

func NewUserHandler(userService *services.UserService, roomService *services.RoomService) *UserHandler {
	return &UserHandler{userService: userService, roomService: roomService}
}

type CreateUserRequest struct {
	UID            string `json:"uid" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio"`
}

// CreateUser godoc
// @Summary      Create a user record, or return the existing one
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User fields"
// @Success      200 {object} models.User
// @Success      201 {object} models.User
// @Failure      400 {object} ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, created, err := h.userService.GetOrCreate(&models.User{
		UID:            req.UID,
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// GetUser godoc
// @Summary      Fetch a user profile by uid
// @Tags         users
// @Produce      json
// @Param        uid path string true "User id"
// @Success      200 {object} models.User
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{uid} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByUID(c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateUserRequest struct {
	Email string `json:"email"`
	services.ProfileUpdate
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Param("uid"), req.Email, req.ProfileUpdate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ClearInvite(c *gin.Context) {
	if err := h.userService.ClearInvite(c.Param("uid")); err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Invite cleared"})
}

// AddFocusSession godoc
// @Summary      Log a completed focus session and update study stats
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        uid path string true "User id"
// @Param        request body models.FocusSession true "Session"
// @Success      200 {object} models.User
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{uid}/focus-session [post]
func (h *UserHandler) AddFocusSession(c *gin.Context) {
	var session models.FocusSession
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.userService.AddFocusSession(c.Param("uid"), session)
	if err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Leaderboard godoc
// @Summary      Top users by study points
// @Tags         leaderboard
// @Produce      json
// @Success      200 {array} services.LeaderboardEntry
// @Security     BearerAuth
// @Router       /api/leaderboard [get]
func (h *UserHandler) Leaderboard(c *gin.Context) {
	entries, err := h.userService.Leaderboard(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *UserHandler) FriendsLeaderboard(c *gin.Context) {
	entries, err := h.userService.FriendsLeaderboard(c.Param("uid"))
	if err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type FriendRequestRequest struct {
	TargetEmail string `json:"targetEmail" binding:"required,email"`
}

func (h *UserHandler) SendFriendRequest(c *gin.Context) {
	var req FriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.userService.SendFriendRequest(c.Param("uid"), req.TargetEmail); err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request sent"})
}

type FriendDecisionRequest struct {
	FromUID string `json:"fromUid" binding:"required"`
}

func (h *UserHandler) AcceptFriendRequest(c *gin.Context) {
	var req FriendDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.userService.AcceptFriendRequest(c.Param("uid"), req.FromUID); err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

func (h *UserHandler) RejectFriendRequest(c *gin.Context) {
	var req FriendDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.userService.RejectFriendRequest(c.Param("uid"), req.FromUID); err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request rejected"})
}

func (h *UserHandler) AddVideo(c *gin.Context) {
	var video models.Video
	if err := c.ShouldBindJSON(&video); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	videos, err := h.userService.AddVideo(c.Param("uid"), video)
	if err != nil {
		h.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// MatchHistory godoc
// @Summary      Match history across every room the user joined
// @Tags         users
// @Produce      json
// @Param        uid path string true "User id"
// @Success      200 {array} services.MatchSummary
// @Security     BearerAuth
// @Router       /api/users/{uid}/match-history [get]
func (h *UserHandler) MatchHistory(c *gin.Context) {
	summaries, err := h.roomService.MatchHistoryForUser(c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch match history"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *UserHandler) renderServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
