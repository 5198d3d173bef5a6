// Package database stores encoder runs and their RDS distribution snapshots
// in SQLite through GORM.
package database

import (
	"database/sql"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path  string // Path to SQLite database file
	Debug bool   // Log every statement
}

// DB wraps the GORM database instance
type DB struct {
	db *gorm.DB
}

// NewDB opens the run store with the pure Go SQLite driver and migrates it
func NewDB(config Config, log *log.Logger) (*DB, error) {
	// GORM logs through the caller's logger, or not at all
	var gormLog logger.Interface
	if log != nil {
		level := logger.Warn
		if config.Debug {
			level = logger.Info // every statement
		}
		gormLog = logger.New(
			log,
			logger.Config{
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true, // Get on a missing run is not an error worth logging
				Colorful:                  false,
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	// modernc.org/sqlite registers itself as "sqlite"; no cgo
	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, err
	}

	// PRAGMAs go through the underlying connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := configureSQLite(sqlDB); err != nil {
		return nil, err
	}

	// Snapshots reference runs, so runs migrate first
	if err := db.AutoMigrate(&Run{}, &DistributionSnapshot{}); err != nil {
		return nil, err
	}

	if log != nil {
		log.Printf("Run store opened: %s", config.Path)
	}

	return &DB{db: db}, nil
}

// configureSQLite applies connection PRAGMAs
func configureSQLite(sqlDB *sql.DB) error {
	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",   // readers keep working while a run is written
		"PRAGMA synchronous=NORMAL", // WAL makes this safe against corruption
		"PRAGMA busy_timeout=5000",  // milliseconds to wait on a locked file
		"PRAGMA foreign_keys=ON",    // snapshot cascade on run delete
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// Runs returns a repository over the run tables
func (db *DB) Runs() *RunRepository {
	return NewRunRepository(db.db)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Stats returns connection pool statistics
func (db *DB) Stats() (sql.DBStats, error) {
	sqlDB, err := db.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
