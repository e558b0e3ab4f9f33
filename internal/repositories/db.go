package repositories

import (
	"log"

	"github.com/astralpath/interstellar/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDatabase opens the Postgres connection and runs migrations.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors.
func ConnectDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatal("Migration failed:", err)
	}
	log.Println("Successfully connected to database")
	return db
}
