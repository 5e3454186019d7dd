package database

import (
	"fmt"

	"github.com/dhelicopters/pubquiz/internal/config"
	"github.com/dhelicopters/pubquiz/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Quiz{},
		&models.Question{},
		&models.RoundQuestion{},
		&models.Team{},
		&models.ActiveQuestion{},
		&models.Answer{},
	)
}
