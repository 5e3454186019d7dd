package models

import "time"

type Quiz struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	OwnerID        uint      `gorm:"not null;index" json:"owner_id"`
	Owner          Account   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	IsActive       bool      `gorm:"not null;default:false" json:"is_active"`
	RoundNumber    int       `gorm:"not null;default:0" json:"round_number"`
	QuestionNumber int       `gorm:"not null;default:0" json:"question_number"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
