package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dhelicopters/pubquiz/internal/logging"
	"github.com/dhelicopters/pubquiz/internal/services"
	"github.com/dhelicopters/pubquiz/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	registry    *ws.Registry
	authService *services.AuthService
	quizService *services.QuizService
	guard       *services.AuthorizationGuard
}

func NewWSHandler(registry *ws.Registry, authService *services.AuthService, quizService *services.QuizService, guard *services.AuthorizationGuard) *WSHandler {
	return &WSHandler{registry: registry, authService: authService, quizService: quizService, guard: guard}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// identifyMessage lets a connected client bind to a team after the fact,
// e.g. a client that connected before joining a quiz.
type identifyMessage struct {
	Type      string `json:"type"`
	TeamToken string `json:"team_token"`
}

// HandleWebSocket godoc
// @Summary      Real-time quiz updates
// @Description  Connects as owner (token query param), team (team_token query param) or scoreboard
// @Tags         websocket
// @Param        code path string true "Quiz code"
// @Param        token query string false "Quizmaster JWT"
// @Param        team_token query string false "Team session token"
// @Router       /ws/quizzes/{code} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	code := c.Param("code")

	quiz, err := h.quizService.GetQuiz(code)
	if err != nil {
		respondError(c, err)
		return
	}

	identity := h.resolveIdentity(c, quiz.Code)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.registry.Bind(conn, identity)
	defer h.registry.Remove(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg identifyMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "identify" {
			continue
		}
		team, teamQuiz, err := h.quizService.TeamByToken(msg.TeamToken)
		if err != nil || teamQuiz.Code != code {
			continue
		}
		h.registry.Bind(conn, ws.Identity{
			Role:     ws.RoleTeam,
			QuizCode: code,
			TeamName: team.Name,
		})
	}
}

// resolveIdentity binds the connection's role once, from the credentials on
// the upgrade request: owner JWT, team token, or scoreboard by default.
func (h *WSHandler) resolveIdentity(c *gin.Context, code string) ws.Identity {
	if token := c.Query("token"); token != "" {
		if accountID, err := h.authService.ValidateToken(token); err == nil {
			quiz, err := h.quizService.GetQuiz(code)
			if err == nil && h.guard.IsOwner(accountID, quiz) {
				return ws.Identity{Role: ws.RoleOwner, QuizCode: code}
			}
		}
	}

	if token := c.Query("team_token"); token != "" {
		if team, quiz, err := h.quizService.TeamByToken(token); err == nil && quiz.Code == code {
			return ws.Identity{Role: ws.RoleTeam, QuizCode: code, TeamName: team.Name}
		}
	}

	return ws.Identity{Role: ws.RoleScoreboard, QuizCode: code}
}
