package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	driver string
}

// Options selects the driver and connection target
type Options struct {
	Driver  string // sqlite (default) or postgres
	Path    string // sqlite file path, ":memory:" or empty for in-memory
	DSN     string // postgres connection string
	Verbose bool
}

// Initialize creates a sqlite connection, kept for callers that only need a local file
func Initialize(dbPath string, verbose bool) (*DB, error) {
	return Open(Options{Driver: "sqlite", Path: dbPath, Verbose: verbose})
}

// Open creates a new database connection with the provided options
func Open(opts Options) (*DB, error) {
	logLevel := logger.Error
	if opts.Verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		dialector gorm.Dialector
		inMemory  bool
	)

	switch opts.Driver {
	case "", "sqlite":
		path := opts.Path
		if path == "" || path == ":memory:" {
			inMemory = true
			path = ":memory:"
		} else {
			dir := filepath.Dir(path)
			if dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
		dialector = sqlite.Open(sqliteDSN(path))
		opts.Driver = "sqlite"
	case "postgres":
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	// Every in-memory sqlite connection is its own database
	if inMemory {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Printf("[INFO] Connected to %s database", opts.Driver)
	return &DB{DB: db, driver: opts.Driver}, nil
}

// sqliteDSN turns on foreign keys so episode deletes cascade to transcript nodes
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// Driver returns the name of the active driver
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// AutoMigrate runs GORM auto migration for the provided models
func (db *DB) AutoMigrate(models ...any) error {
	if err := db.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	log.Printf("[INFO] Successfully migrated %d model(s)", len(models))
	return nil
}

// Migrate applies the schema for every application model
func (db *DB) Migrate() error {
	return db.AutoMigrate(models.All()...)
}

// TableStatus describes one managed table for `migrate status`
type TableStatus struct {
	Table  string
	Exists bool
	Rows   int64
}

// Status reports which application tables exist and how many rows they hold
func (db *DB) Status(ctx context.Context) ([]TableStatus, error) {
	var statuses []TableStatus
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db.DB}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parsing model: %w", err)
		}

		status := TableStatus{Table: stmt.Schema.Table}
		status.Exists = db.DB.Migrator().HasTable(model)
		if status.Exists {
			if err := db.DB.WithContext(ctx).Model(model).Count(&status.Rows).Error; err != nil {
				return nil, fmt.Errorf("counting %s: %w", status.Table, err)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// DropAll removes every application table, children first
func (db *DB) DropAll() error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.DB.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("dropping table: %w", err)
		}
	}
	log.Printf("[WARN] Dropped %d table(s)", len(all))
	return nil
}
