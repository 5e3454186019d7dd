package models

import "time"

type Team struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuizID       uint      `gorm:"not null;uniqueIndex:idx_team_name" json:"quiz_id"`
	Name         string    `gorm:"size:100;not null;uniqueIndex:idx_team_name" json:"team_name"`
	Token        string    `gorm:"size:36;index" json:"token,omitempty"`
	IsDefinitive bool      `gorm:"not null;default:false" json:"is_definitive"`
	Points       int       `gorm:"not null;default:0" json:"points"`
	JoinedAt     time.Time `json:"joined_at"`
}
