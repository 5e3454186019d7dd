package middleware

import (
	"net/http"
	"strings"

	"github.com/dhelicopters/pubquiz/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	// ContextAccountID holds the authenticated quizmaster account id.
	ContextAccountID = "account_id"
	// ContextTeamName and ContextTeamQuizCode hold the team binding resolved
	// from a team session token.
	ContextTeamName     = "team_name"
	ContextTeamQuizCode = "team_quiz_code"
)

func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := accountFromHeader(c, authService)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set(ContextAccountID, accountID)
		c.Next()
	}
}

// TeamAuth resolves the X-Team-Token header to a team binding.
func TeamAuth(quizService *services.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Team-Token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "team token required"})
			return
		}

		team, quiz, err := quizService.TeamByToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid team token"})
			return
		}

		c.Set(ContextTeamName, team.Name)
		c.Set(ContextTeamQuizCode, quiz.Code)
		c.Next()
	}
}

// ActorAuth accepts either a quizmaster JWT or a team token, so one route can
// serve both actors. Exactly one identity ends up in the context.
func ActorAuth(authService *services.AuthService, quizService *services.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if accountID, ok := accountFromHeader(c, authService); ok {
			c.Set(ContextAccountID, accountID)
			c.Next()
			return
		}

		if token := c.GetHeader("X-Team-Token"); token != "" {
			team, quiz, err := quizService.TeamByToken(token)
			if err == nil {
				c.Set(ContextTeamName, team.Name)
				c.Set(ContextTeamQuizCode, quiz.Code)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
	}
}

func accountFromHeader(c *gin.Context, authService *services.AuthService) (uint, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return 0, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	accountID, err := authService.ValidateToken(parts[1])
	if err != nil {
		return 0, false
	}
	return accountID, true
}
