package handlers

import (
	"net/http"

	"github.com/dhelicopters/pubquiz/internal/middleware"
	"github.com/dhelicopters/pubquiz/internal/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

type CreateQuizRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255" example:"Friday Pub Quiz"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ConfigureRoundRequest struct {
	Categories []string `json:"categories" binding:"required"`
}

// CreateQuiz godoc
// @Summary      Create a quiz
// @Description  Create a quiz owned by the authenticated account; returns its join code
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateQuizRequest true "Quiz data"
// @Success      201 {object} Quiz
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(accountID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz godoc
// @Summary      Get a quiz summary
// @Tags         quizzes
// @Produce      json
// @Param        code path string true "Quiz code"
// @Success      200 {object} Quiz
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizService.GetQuiz(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// SetActive godoc
// @Summary      Activate or deactivate a quiz
// @Description  Deactivating recomputes all definitive team points
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Param        request body SetActiveRequest true "Target state"
// @Success      200 {object} Quiz
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code} [put]
func (h *QuizHandler) SetActive(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	quiz, err := h.quizService.SetActive(accountID, c.Param("code"), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetScore godoc
// @Summary      Current score per definitive team
// @Tags         quizzes
// @Produce      json
// @Param        code path string true "Quiz code"
// @Success      200 {array} services.TeamScore
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/score [get]
func (h *QuizHandler) GetScore(c *gin.Context) {
	scores, err := h.quizService.Score(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

// ListCategories godoc
// @Summary      List question catalog categories
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} string
// @Router       /api/v1/categories [get]
func (h *QuizHandler) ListCategories(c *gin.Context) {
	categories, err := h.quizService.Categories()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ConfigureRound godoc
// @Summary      Configure the round's question set by categories
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Param        request body ConfigureRoundRequest true "Round categories"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/categories [put]
func (h *QuizHandler) ConfigureRound(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	var req ConfigureRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.quizService.ConfigureRound(accountID, c.Param("code"), req.Categories); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRoundQuestions godoc
// @Summary      Question set of the current round
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Quiz code"
// @Success      200 {array} Question
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{code}/categories/questions [get]
func (h *QuizHandler) GetRoundQuestions(c *gin.Context) {
	accountID := c.GetUint(middleware.ContextAccountID)

	questions, err := h.quizService.RoundQuestions(accountID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}
