package models

// ActiveQuestion is the single question currently open for team answers.
// At most one row exists per quiz; the row cycles through
// active -> closed -> validated and is replaced by the next question.
type ActiveQuestion struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	QuizID      uint     `gorm:"not null;uniqueIndex" json:"quiz_id"`
	QuestionID  uint     `gorm:"not null" json:"question_id"`
	Question    Question `gorm:"foreignKey:QuestionID" json:"-"`
	Category    string   `gorm:"size:100;not null" json:"category"`
	IsClosed    bool     `gorm:"not null;default:false" json:"is_closed"`
	IsValidated bool     `gorm:"not null;default:false" json:"is_validated"`
}
