package handlers

import (
	"net/http"

	"github.com/dhelicopters/pubquiz/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"quizmaster"`
	Password string `json:"password" binding:"required,min=8" example:"hunter2hunter2"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"quizmaster"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary      Register a quizmaster account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Credentials"
// @Success      201 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// Login godoc
// @Summary      Log in as quizmaster
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
