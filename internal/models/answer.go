package models

import "time"

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuizID     uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"quiz_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"question_id"`
	TeamID     uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"team_id"`
	Team       Team      `gorm:"foreignKey:TeamID" json:"-"`
	Text       string    `gorm:"type:text;not null" json:"answer"`
	Correct    *bool     `json:"correct"`
	UpdatedAt  time.Time `json:"updated_at"`
}
