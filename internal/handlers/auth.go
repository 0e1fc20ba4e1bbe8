package handlers

import (
	"net/http"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type TokenRequest struct {
	UID string `json:"uid" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken godoc
// @Summary      Exchange a uid for an API token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "User id"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.IssueToken(req.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
