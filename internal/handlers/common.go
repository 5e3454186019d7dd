package handlers

import (
	"github.com/dhelicopters/pubquiz/internal/logging"
	"github.com/dhelicopters/pubquiz/internal/models"
	"github.com/dhelicopters/pubquiz/internal/quizerr"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type aliases so swag can resolve models in annotations.
type Quiz = models.Quiz
type Question = models.Question
type Team = models.Team

// respondError maps the failure taxonomy to transport status codes. Internal
// failures are logged with their cause; the client only sees the message.
func respondError(c *gin.Context, err error) {
	qe := quizerr.From(err)
	if qe.Kind == quizerr.KindInternal {
		logging.WithError(err).Error("request failed", "path", c.FullPath())
	}
	c.JSON(qe.HTTPStatus(), ErrorResponse{Error: qe.Message})
}
