package storage

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lyceum/internal/config"
	"lyceum/internal/models"
)

// DB is the global database connection pool.
var DB *gorm.DB

// InitDB initializes the database connection using the provided configuration.
//
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey on every dialect; the relationship and chat services
// rely on that to turn racing inserts into well-defined outcomes.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		var dsnParts []string
		dsnParts = append(dsnParts, fmt.Sprintf("host=%s", cfg.Host))
		dsnParts = append(dsnParts, fmt.Sprintf("port=%d", cfg.Port))
		dsnParts = append(dsnParts, fmt.Sprintf("user=%s", cfg.User))
		dsnParts = append(dsnParts, fmt.Sprintf("dbname=%s", cfg.DBName))

		if cfg.Password != "" {
			dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
		}

		dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))

		dialector = postgres.Open(strings.Join(dsnParts, " "))
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	return db, nil
}

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
func AutoMigrateTables(db *gorm.DB) error {
	log.Println("Running database migrations...")
	err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
		&models.LedgerEntry{},
		&models.Testbank{},
		&models.Question{},
		&models.Post{},
		&models.PostUpvote{},
		&models.Comment{},
		&models.Course{},
		&models.Club{},
		&models.ClubMember{},
		&models.Report{},
		&models.Challenge{},
		&models.Notification{},
	)
	if err != nil {
		log.Printf("Database migration failed: %v", err)
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration complete.")
	return nil
}
