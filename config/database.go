package config

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cardbook/cardbook-api/models"
)

var Database *gorm.DB

func Connect() error {
	var err error
	dbURL := os.Getenv("DB_URL")
	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the schedule store's optimistic
	// create path depends on.
	Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
		&models.User{},
		&models.FlashcardSet{},
		&models.Flashcard{},
		&models.CardSchedule{},
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
