package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT open the database in init(): cmd entrypoints decide the path
	// (on-disk per device, in-memory for tests) after env is settled.
}

// DefaultLocalDBPath is the on-device sqlite file used when POS_LOCAL_DB_PATH
// is not set.
const DefaultLocalDBPath = "pos_local.db"

// OpenLocalDatabase opens (or creates) the device-local sqlite database and
// sets the global DB. sqlite tolerates exactly one writer, which matches the
// single-logical-writer model of the engine, so the pool is pinned to one
// open connection.
func OpenLocalDatabase() error {
	path := strings.TrimSpace(os.Getenv("POS_LOCAL_DB_PATH"))
	if path == "" {
		path = DefaultLocalDBPath
	}
	return OpenLocalDatabaseAt(path)
}

func OpenLocalDatabaseAt(path string) error {
	opened, err := gorm.Open(sqlite.Open(path), initConfig())
	if err != nil {
		return err
	}
	if sqlDB, derr := opened.DB(); derr == nil && sqlDB != nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}
	db = opened
	return nil
}

// OpenLocalDatabaseWithRetry keeps trying to open the local database with a
// capped exponential sleep. Useful when another process of the same app still
// holds the file lock during a restart.
func OpenLocalDatabaseWithRetry() {
	var attempt int
	for {
		attempt++
		err := OpenLocalDatabase()
		if err == nil {
			log.Printf("opened local database (attempt=%d)", attempt)
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to open local database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// InitConfig Initialize Config
func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

// InitLog Connection Log Configuration
func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

// InitNamingStrategy Init NamingStrategy
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
