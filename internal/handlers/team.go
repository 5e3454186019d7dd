package handlers

import (
	"net/http"

	"github.com/dhelicopters/pubquiz/internal/middleware"
	"github.com/dhelicopters/pubquiz/internal/services"
	"github.com/dhelicopters/pubquiz/internal/ws"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	quizService *services.QuizService
	registry    *ws.Registry
}

func NewTeamHandler(quizService *services.QuizService, registry *ws.Registry) *TeamHandler {
	return &TeamHandler{quizService: quizService, registry: registry}
}

type JoinTeamRequest struct {
	TeamName string `json:"team_name" binding:"required,min=1,max=100" example:"The Quizzards"`
}

type DefinitiveTeamsRequest struct {
	TeamNames []string `json:"team_names" binding:"required"`
}

// ListTeams godoc
// @Summary      Joined teams of a quiz
// @Tags         teams
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Success      200 {array} Team
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/teams [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	teams, err := h.quizService.JoinedTeams(accountID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// JoinTeam godoc
// @Summary      Join a quiz as a team
// @Description  Returns the team with its session token; idempotent for a pending name
// @Tags         teams
// @Accept       json
// @Produce      json
// @Param        code path string true "Quiz code"
// @Param        request body JoinTeamRequest true "Team name"
// @Success      201 {object} Team
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/teams [post]
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	code := c.Param("code")

	var req JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	team, err := h.quizService.AddJoinedTeam(code, req.TeamName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.registry.Broadcast(code, ws.AudienceOwner, ws.EventJoinedTeams)
	c.JSON(http.StatusCreated, team)
}

// SetDefinitiveTeams godoc
// @Summary      Replace the definitive roster
// @Description  Teams absent from the list are demoted and their live connections closed
// @Tags         teams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Param        request body DefinitiveTeamsRequest true "Definitive team names"
// @Success      200 {array} Team
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/teams [put]
func (h *TeamHandler) SetDefinitiveTeams(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)
	code := c.Param("code")

	var req DefinitiveTeamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Prune and notify under the same per-quiz lock as the replace, so two
	// concurrent roster PUTs cannot close a team kept by the later one.
	// Both calls only enqueue; neither waits on the network.
	teams, err := h.quizService.SetDefinitiveTeams(accountID, code, req.TeamNames, func(keep []string) {
		h.registry.PruneTeams(code, keep)
		h.registry.Broadcast(code, ws.AudienceTeams, ws.EventDefinitiveTeams)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, teams)
}
