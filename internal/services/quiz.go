package services

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/dhelicopters/pubquiz/internal/models"
	"github.com/dhelicopters/pubquiz/internal/quizerr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizService is the sole authority for state transitions of a quiz:
// activation, round configuration, team roster, the active-question lifecycle
// and judging. Mutations on one quiz are serialized through a per-code lock;
// broadcasting is the caller's concern and happens after the mutation returns.
type QuizService struct {
	db    *gorm.DB
	guard *AuthorizationGuard

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewQuizService(db *gorm.DB, guard *AuthorizationGuard) *QuizService {
	return &QuizService{
		db:    db,
		guard: guard,
		locks: make(map[string]*sync.Mutex),
	}
}

// lock serializes mutations per quiz code. The returned func releases it.
func (s *QuizService) lock(code string) func() {
	s.mu.Lock()
	l, ok := s.locks[code]
	if !ok {
		l = &sync.Mutex{}
		s.locks[code] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *QuizService) findQuiz(code string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.Where("code = ?", code).First(&quiz).Error; err != nil {
		return nil, quizerr.NotFound("quiz not found")
	}
	return &quiz, nil
}

func (s *QuizService) CreateQuiz(ownerID uint, name string) (*models.Quiz, error) {
	if name == "" {
		return nil, quizerr.InvalidInput("quiz name required")
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		Code:    code,
		OwnerID: ownerID,
		Name:    name,
	}
	if err := s.db.Create(&quiz).Error; err != nil {
		return nil, quizerr.Internal("creating quiz", err)
	}
	return &quiz, nil
}

func (s *QuizService) GetQuiz(code string) (*models.Quiz, error) {
	return s.findQuiz(code)
}

// SetActive toggles the quiz. Deactivating recomputes every team's points over
// the judged answers so the final standings are durable.
func (s *QuizService) SetActive(actorID uint, code string, active bool) (*models.Quiz, error) {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return nil, err
	}

	quiz.IsActive = active
	if err := s.db.Save(quiz).Error; err != nil {
		return nil, quizerr.Internal("saving quiz", err)
	}

	if !active {
		if err := s.recomputePoints(s.db, quiz.ID); err != nil {
			return nil, err
		}
	}
	return quiz, nil
}

// ConfigureRound replaces the round's question set with the questions of the
// given categories, starts a fresh round and recomputes points.
func (s *QuizService) ConfigureRound(actorID uint, code string, categories []string) error {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return err
	}
	if len(categories) == 0 {
		return quizerr.InvalidInput("no categories selected")
	}

	var questions []models.Question
	if err := s.db.Where("category IN ?", categories).Find(&questions).Error; err != nil {
		return quizerr.Internal("loading questions", err)
	}
	if len(questions) == 0 {
		return quizerr.InvalidInput("categories resolve to zero questions")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.RoundQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.ActiveQuestion{}).Error; err != nil {
			return err
		}

		quiz.RoundNumber++
		quiz.QuestionNumber = 0
		if err := tx.Save(quiz).Error; err != nil {
			return err
		}

		rows := make([]models.RoundQuestion, 0, len(questions))
		for _, q := range questions {
			rows = append(rows, models.RoundQuestion{
				QuizID:      quiz.ID,
				RoundNumber: quiz.RoundNumber,
				QuestionID:  q.ID,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return quizerr.Internal("configuring round", err)
	}

	return s.recomputePoints(s.db, quiz.ID)
}

// RoundQuestions returns the fixed question set of the current round.
func (s *QuizService) RoundQuestions(actorID uint, code string) ([]models.Question, error) {
	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return nil, err
	}

	var rows []models.RoundQuestion
	if err := s.db.Where("quiz_id = ? AND round_number = ?", quiz.ID, quiz.RoundNumber).
		Preload("Question").
		Find(&rows).Error; err != nil {
		return nil, quizerr.Internal("loading round questions", err)
	}

	questions := make([]models.Question, len(rows))
	for i, r := range rows {
		questions[i] = r.Question
	}
	return questions, nil
}

// Categories lists the distinct categories of the question catalog.
func (s *QuizService) Categories() ([]string, error) {
	var categories []string
	if err := s.db.Model(&models.Question{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, quizerr.Internal("loading categories", err)
	}
	return categories, nil
}

func (s *QuizService) JoinedTeams(actorID uint, code string) ([]models.Team, error) {
	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return nil, err
	}

	var teams []models.Team
	if err := s.db.Where("quiz_id = ?", quiz.ID).
		Order("joined_at ASC").
		Find(&teams).Error; err != nil {
		return nil, quizerr.Internal("loading teams", err)
	}
	return teams, nil
}

// AddJoinedTeam appends a team to the joined-but-not-definitive list.
// Idempotent for a pending name; a name already on the definitive roster
// fails with Conflict.
func (s *QuizService) AddJoinedTeam(code, name string) (*models.Team, error) {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, quizerr.InvalidInput("team name required")
	}

	var existing models.Team
	if err := s.db.Where("quiz_id = ? AND name = ?", quiz.ID, name).First(&existing).Error; err == nil {
		if existing.IsDefinitive {
			return nil, quizerr.Conflict("team name already taken")
		}
		return &existing, nil
	}

	team := models.Team{
		QuizID:   quiz.ID,
		Name:     name,
		Token:    uuid.NewString(),
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&team).Error; err != nil {
		return nil, quizerr.Internal("creating team", err)
	}
	return &team, nil
}

// SetDefinitiveTeams replaces the definitive roster. Teams absent from names
// are demoted; this is a destructive replace, not a merge. onReplaced, if
// non-nil, runs with the new roster names while the per-quiz lock is still
// held, so connection pruning cannot interleave with a concurrent replace.
// It must not block on network I/O.
func (s *QuizService) SetDefinitiveTeams(actorID uint, code string, names []string, onReplaced func(keep []string)) ([]models.Team, error) {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var teams []models.Team
		if err := tx.Where("quiz_id = ?", quiz.ID).Find(&teams).Error; err != nil {
			return err
		}
		for i := range teams {
			definitive := keep[teams[i].Name]
			if teams[i].IsDefinitive == definitive {
				continue
			}
			teams[i].IsDefinitive = definitive
			if err := tx.Save(&teams[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, quizerr.Internal("replacing roster", err)
	}

	if err := s.recomputePoints(s.db, quiz.ID); err != nil {
		return nil, err
	}

	var definitive []models.Team
	if err := s.db.Where("quiz_id = ? AND is_definitive = ?", quiz.ID, true).
		Order("joined_at ASC").
		Find(&definitive).Error; err != nil {
		return nil, quizerr.Internal("loading roster", err)
	}

	if onReplaced != nil {
		rosterNames := make([]string, len(definitive))
		for i, team := range definitive {
			rosterNames[i] = team.Name
		}
		onReplaced(rosterNames)
	}
	return definitive, nil
}

// SetActiveQuestion opens a question for answers. Only legal when no question
// is active or the previous one has been validated.
func (s *QuizService) SetActiveQuestion(actorID uint, code string, questionID uint) error {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return err
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).First(&current).Error; err == nil {
		if !current.IsValidated {
			return quizerr.InvalidState("previous question has not been validated")
		}
	}

	var row models.RoundQuestion
	if err := s.db.Where("quiz_id = ? AND round_number = ? AND question_id = ?",
		quiz.ID, quiz.RoundNumber, questionID).
		Preload("Question").
		First(&row).Error; err != nil {
		return quizerr.NotFound("question is not part of the current round")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.ActiveQuestion{}).Error; err != nil {
			return err
		}
		active := models.ActiveQuestion{
			QuizID:     quiz.ID,
			QuestionID: questionID,
			Category:   row.Question.Category,
		}
		if err := tx.Create(&active).Error; err != nil {
			return err
		}

		quiz.QuestionNumber++
		return tx.Save(quiz).Error
	})
	if err != nil {
		return quizerr.Internal("setting active question", err)
	}
	return nil
}

// SetClosedQuestion transitions the active question to closed; answer
// submissions are rejected from this point.
func (s *QuizService) SetClosedQuestion(actorID uint, code string, questionID uint) error {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return err
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).First(&current).Error; err != nil {
		return quizerr.InvalidState("no active question")
	}
	if current.QuestionID != questionID {
		return quizerr.InvalidState("question is not the active one")
	}
	if current.IsClosed {
		return quizerr.InvalidState("question already closed")
	}

	current.IsClosed = true
	if err := s.db.Save(&current).Error; err != nil {
		return quizerr.Internal("closing question", err)
	}
	return nil
}

// ActiveQuestion returns the current question with its catalog entry loaded.
func (s *QuizService) ActiveQuestion(code string) (*models.ActiveQuestion, error) {
	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).
		Preload("Question").
		First(&current).Error; err != nil {
		return nil, quizerr.NotFound("no active question")
	}
	return &current, nil
}

// SubmitTeamAnswer records a team's answer while the question is open.
// A resubmission overwrites the previous text (last write wins).
func (s *QuizService) SubmitTeamAnswer(code, teamName, text string) error {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return err
	}
	if text == "" {
		return quizerr.InvalidInput("answer required")
	}

	var team models.Team
	if err := s.db.Where("quiz_id = ? AND name = ?", quiz.ID, teamName).First(&team).Error; err != nil {
		return quizerr.NotFound("team not found")
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).First(&current).Error; err != nil {
		return quizerr.InvalidState("no active question")
	}
	if current.IsClosed {
		return quizerr.InvalidState("question is closed for answers")
	}

	var answer models.Answer
	err = s.db.Where("quiz_id = ? AND question_id = ? AND team_id = ?",
		quiz.ID, current.QuestionID, team.ID).First(&answer).Error
	if err == nil {
		answer.Text = text
		answer.Correct = nil
		if err := s.db.Save(&answer).Error; err != nil {
			return quizerr.Internal("saving answer", err)
		}
		return nil
	}

	answer = models.Answer{
		QuizID:     quiz.ID,
		QuestionID: current.QuestionID,
		TeamID:     team.ID,
		Text:       text,
	}
	if err := s.db.Create(&answer).Error; err != nil {
		return quizerr.Internal("saving answer", err)
	}
	return nil
}

// GivenAnswer is a submitted answer with its team, as shown to the quizmaster.
type GivenAnswer struct {
	TeamName string `json:"team_name"`
	Answer   string `json:"answer"`
	Correct  *bool  `json:"correct"`
}

func (s *QuizService) GivenAnswers(actorID uint, code string) ([]GivenAnswer, error) {
	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return nil, err
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).First(&current).Error; err != nil {
		return nil, quizerr.InvalidState("no active question")
	}

	var answers []models.Answer
	if err := s.db.Where("quiz_id = ? AND question_id = ?", quiz.ID, current.QuestionID).
		Preload("Team").
		Find(&answers).Error; err != nil {
		return nil, quizerr.Internal("loading answers", err)
	}

	given := make([]GivenAnswer, len(answers))
	for i, a := range answers {
		given[i] = GivenAnswer{TeamName: a.Team.Name, Answer: a.Text, Correct: a.Correct}
	}
	return given, nil
}

// Judgement marks one team's answer to the closed question correct or not.
type Judgement struct {
	TeamName string `json:"team_name" binding:"required"`
	Correct  bool   `json:"correct"`
}

// JudgeAnswers marks the named answers and transitions the question to
// validated. Teams that never submitted simply score nothing for it.
func (s *QuizService) JudgeAnswers(actorID uint, code string, judgements []Judgement) error {
	defer s.lock(code)()

	quiz, err := s.findQuiz(code)
	if err != nil {
		return err
	}
	if err := s.guard.RequireOwner(actorID, quiz); err != nil {
		return err
	}

	var current models.ActiveQuestion
	if err := s.db.Where("quiz_id = ?", quiz.ID).First(&current).Error; err != nil {
		return quizerr.InvalidState("no active question")
	}
	if !current.IsClosed {
		return quizerr.InvalidState("question must be closed before judging")
	}
	if current.IsValidated {
		return quizerr.InvalidState("question already validated")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, j := range judgements {
			var team models.Team
			if err := tx.Where("quiz_id = ? AND name = ?", quiz.ID, j.TeamName).First(&team).Error; err != nil {
				return quizerr.NotFound("team not found: " + j.TeamName)
			}
			if err := tx.Model(&models.Answer{}).
				Where("quiz_id = ? AND question_id = ? AND team_id = ?", quiz.ID, current.QuestionID, team.ID).
				Update("correct", j.Correct).Error; err != nil {
				return err
			}
		}

		current.IsValidated = true
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		return s.recomputePoints(tx, quiz.ID)
	})
	if err != nil {
		if qe := quizerr.From(err); qe.Kind != quizerr.KindInternal {
			return qe
		}
		return quizerr.Internal("judging answers", err)
	}
	return nil
}

// TeamScore is one definitive team's judged-correct total.
type TeamScore struct {
	TeamName string `json:"team_name"`
	Points   int    `json:"points"`
}

// Score sums judged-correct answers per definitive team. Ties are preserved;
// rank assignment is a presentation concern.
func (s *QuizService) Score(code string) ([]TeamScore, error) {
	quiz, err := s.findQuiz(code)
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	if err := s.db.Where("quiz_id = ? AND is_definitive = ?", quiz.ID, true).
		Order("name ASC").
		Find(&teams).Error; err != nil {
		return nil, quizerr.Internal("loading teams", err)
	}

	scores := make([]TeamScore, len(teams))
	for i, team := range teams {
		var count int64
		if err := s.db.Model(&models.Answer{}).
			Where("quiz_id = ? AND team_id = ? AND correct = ?", quiz.ID, team.ID, true).
			Count(&count).Error; err != nil {
			return nil, quizerr.Internal("counting answers", err)
		}
		scores[i] = TeamScore{TeamName: team.Name, Points: int(count)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Points > scores[b].Points
	})
	return scores, nil
}

// TeamByToken resolves a team session token to its team and quiz.
func (s *QuizService) TeamByToken(token string) (*models.Team, *models.Quiz, error) {
	var team models.Team
	if err := s.db.Where("token = ?", token).First(&team).Error; err != nil {
		return nil, nil, quizerr.NotFound("team not found")
	}

	var quiz models.Quiz
	if err := s.db.First(&quiz, team.QuizID).Error; err != nil {
		return nil, nil, quizerr.NotFound("quiz not found")
	}
	return &team, &quiz, nil
}

// recomputePoints refreshes every team's cached points from judged answers.
func (s *QuizService) recomputePoints(tx *gorm.DB, quizID uint) error {
	var teams []models.Team
	if err := tx.Where("quiz_id = ?", quizID).Find(&teams).Error; err != nil {
		return quizerr.Internal("loading teams", err)
	}

	for i := range teams {
		var count int64
		if err := tx.Model(&models.Answer{}).
			Where("quiz_id = ? AND team_id = ? AND correct = ?", quizID, teams[i].ID, true).
			Count(&count).Error; err != nil {
			return quizerr.Internal("counting answers", err)
		}
		if err := tx.Model(&models.Team{}).
			Where("id = ?", teams[i].ID).
			Update("points", int(count)).Error; err != nil {
			return quizerr.Internal("updating points", err)
		}
	}
	return nil
}

func (s *QuizService) generateUniqueCode() (string, error) {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		var count int64
		if err := s.db.Model(&models.Quiz{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", quizerr.Internal("generating quiz code", err)
		}
		if count == 0 {
			return code, nil
		}
	}
}
