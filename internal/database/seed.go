package database

import (
	"github.com/dhelicopters/pubquiz/internal/models"

	"gorm.io/gorm"
)

// SeedQuestions loads the question catalog if it is empty.
// Idempotent: does nothing when questions already exist.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	questions := []models.Question{
		{Category: "geography", Text: "What is the capital of Australia?", Answer: "Canberra"},
		{Category: "geography", Text: "Which river flows through Paris?", Answer: "Seine"},
		{Category: "geography", Text: "Which country has the most time zones?", Answer: "France"},
		{Category: "geography", Text: "What is the smallest country in the world?", Answer: "Vatican City"},
		{Category: "history", Text: "In which year did the Berlin Wall fall?", Answer: "1989"},
		{Category: "history", Text: "Who was the first emperor of Rome?", Answer: "Augustus"},
		{Category: "history", Text: "Which ship sank on its maiden voyage in 1912?", Answer: "Titanic"},
		{Category: "history", Text: "Which ancient wonder stood in Alexandria?", Answer: "The Lighthouse"},
		{Category: "music", Text: "Which band released the album Abbey Road?", Answer: "The Beatles"},
		{Category: "music", Text: "How many strings does a standard violin have?", Answer: "Four"},
		{Category: "music", Text: "Who composed The Four Seasons?", Answer: "Vivaldi"},
		{Category: "music", Text: "Which instrument does a pianist play?", Answer: "Piano"},
		{Category: "sports", Text: "How many players are on a volleyball team on court?", Answer: "Six"},
		{Category: "sports", Text: "In which sport is the Ryder Cup contested?", Answer: "Golf"},
		{Category: "sports", Text: "How long is an Olympic swimming pool?", Answer: "50 metres"},
		{Category: "sports", Text: "Which country hosted the 1998 FIFA World Cup?", Answer: "France"},
		{Category: "science", Text: "What is the chemical symbol for gold?", Answer: "Au"},
		{Category: "science", Text: "What planet is known as the Red Planet?", Answer: "Mars"},
		{Category: "science", Text: "What gas do plants absorb from the atmosphere?", Answer: "Carbon dioxide"},
		{Category: "science", Text: "What is the speed of light, roughly, in km/s?", Answer: "300,000"},
	}

	return db.Create(&questions).Error
}
