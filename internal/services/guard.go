package services

import (
	"github.com/dhelicopters/pubquiz/internal/models"
	"github.com/dhelicopters/pubquiz/internal/quizerr"
)

// AuthorizationGuard centralizes the ownership policy for mutating quiz
// operations: configuration, question lifecycle control and judging require
// the quiz owner; answer submission only requires a team bound to the quiz.
type AuthorizationGuard struct{}

func NewAuthorizationGuard() *AuthorizationGuard {
	return &AuthorizationGuard{}
}

func (g *AuthorizationGuard) IsOwner(accountID uint, quiz *models.Quiz) bool {
	return quiz != nil && accountID != 0 && quiz.OwnerID == accountID
}

// RequireOwner fails with Forbidden when the actor does not own the quiz.
func (g *AuthorizationGuard) RequireOwner(accountID uint, quiz *models.Quiz) error {
	if !g.IsOwner(accountID, quiz) {
		return quizerr.Forbidden("not the quiz owner")
	}
	return nil
}
