package models

type Question struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Category string `gorm:"size:100;not null;index" json:"category"`
	Text     string `gorm:"type:text;not null" json:"question"`
	Answer   string `gorm:"type:text;not null" json:"answer,omitempty"`
}

// RoundQuestion links a quiz's current round to its fixed question set.
type RoundQuestion struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	QuizID      uint     `gorm:"not null;uniqueIndex:idx_round_question" json:"quiz_id"`
	RoundNumber int      `gorm:"not null" json:"round_number"`
	QuestionID  uint     `gorm:"not null;uniqueIndex:idx_round_question" json:"question_id"`
	Question    Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}
