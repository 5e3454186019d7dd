package handlers

import (
	"net/http"

	"github.com/dhelicopters/pubquiz/internal/middleware"
	"github.com/dhelicopters/pubquiz/internal/quizerr"
	"github.com/dhelicopters/pubquiz/internal/services"
	"github.com/dhelicopters/pubquiz/internal/ws"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	quizService *services.QuizService
	guard       *services.AuthorizationGuard
	registry    *ws.Registry
}

func NewQuestionHandler(quizService *services.QuizService, guard *services.AuthorizationGuard, registry *ws.Registry) *QuestionHandler {
	return &QuestionHandler{quizService: quizService, guard: guard, registry: registry}
}

// ActiveQuestionRequest opens a question (id) or closes the open one (closed).
type ActiveQuestionRequest struct {
	ID     uint `json:"id" example:"12"`
	Closed uint `json:"closed" example:"12"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer" binding:"required" example:"Canberra"`
}

type ActiveQuestionResponse struct {
	QuestionID  uint   `json:"question_id"`
	Question    string `json:"question"`
	Category    string `json:"category"`
	IsClosed    bool   `json:"is_closed"`
	IsValidated bool   `json:"is_validated"`
	Answer      string `json:"answer,omitempty"`
}

// SetActiveQuestion godoc
// @Summary      Open or close a question
// @Description  Body {"id": n} opens question n; {"closed": n} closes it
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Param        request body ActiveQuestionRequest true "Transition"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/active-questions [put]
func (h *QuestionHandler) SetActiveQuestion(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)
	code := c.Param("code")

	var req ActiveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	switch {
	case req.ID != 0:
		if err := h.quizService.SetActiveQuestion(accountID, code, req.ID); err != nil {
			respondError(c, err)
			return
		}
		h.registry.Broadcast(code, ws.AudienceTeams, ws.EventActiveQuestion)
	case req.Closed != 0:
		if err := h.quizService.SetClosedQuestion(accountID, code, req.Closed); err != nil {
			respondError(c, err)
			return
		}
		h.registry.Broadcast(code, ws.AudienceTeams, ws.EventClosedQuestion)
	default:
		respondError(c, quizerr.InvalidInput("either id or closed required"))
		return
	}

	c.Status(http.StatusNoContent)
}

// GetActiveQuestion godoc
// @Summary      The question currently open for answers
// @Description  The expected answer is included only for the quiz owner
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Success      200 {object} ActiveQuestionResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/active-questions [get]
func (h *QuestionHandler) GetActiveQuestion(c *gin.Context) {
	code := c.Param("code")

	current, err := h.quizService.ActiveQuestion(code)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ActiveQuestionResponse{
		QuestionID:  current.QuestionID,
		Question:    current.Question.Text,
		Category:    current.Category,
		IsClosed:    current.IsClosed,
		IsValidated: current.IsValidated,
	}

	if accountID := c.GetUint(middleware.ContextAccountID); accountID != 0 {
		quiz, err := h.quizService.GetQuiz(code)
		if err != nil {
			respondError(c, err)
			return
		}
		if h.guard.IsOwner(accountID, quiz) {
			resp.Answer = current.Question.Answer
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetGivenAnswers godoc
// @Summary      Answers submitted for the active question
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Success      200 {array} services.GivenAnswer
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/active-questions/answers [get]
func (h *QuestionHandler) GetGivenAnswers(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	answers, err := h.quizService.GivenAnswers(accountID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// PutAnswers serves both actors on the answers resource, as the actor
// middleware resolves exactly one identity: the owner judges the closed
// question, a team submits its answer to the open one.
//
// PutAnswers godoc
// @Summary      Judge answers (owner) or submit an answer (team)
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Param        request body []services.Judgement true "Judgements (owner) or {\"answer\": text} (team)"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/active-questions/answers [put]
func (h *QuestionHandler) PutAnswers(c *gin.Context) {
	code := c.Param("code")

	if accountID := c.GetUint(middleware.ContextAccountID); accountID != 0 {
		var judgements []services.Judgement
		if err := c.ShouldBindJSON(&judgements); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		if err := h.quizService.JudgeAnswers(accountID, code, judgements); err != nil {
			respondError(c, err)
			return
		}

		h.registry.Broadcast(code, ws.AudienceTeams, ws.EventJudgedQuestions)
		h.registry.Broadcast(code, ws.AudienceScoreboard, ws.EventJudgedQuestions)
		c.Status(http.StatusNoContent)
		return
	}

	teamName := c.GetString(middleware.ContextTeamName)
	if c.GetString(middleware.ContextTeamQuizCode) != code {
		respondError(c, quizerr.Forbidden("team is not part of this quiz"))
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.quizService.SubmitTeamAnswer(code, teamName, req.Answer); err != nil {
		respondError(c, err)
		return
	}

	h.registry.Broadcast(code, ws.AudienceOwner, ws.EventGivenTeamAnswers)
	c.Status(http.StatusNoContent)
}
