package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/fablesmith/storyforge/internal/models"
	"github.com/fablesmith/storyforge/internal/project"
)

// Connect opens the MySQL connection and migrates the schema. It is fatal on
// failure; both binaries need the database before they can do anything.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&project.StoryProject{},
		&project.StoryPage{},
		&project.StoryVersion{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	return gdb
}
