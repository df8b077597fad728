package orm

import (
	"fmt"
	"strings"

	"foodgram/config"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the PostgreSQL-backed persistence layer.
type DB struct {
	dbGorm *gorm.DB
}

// InitDB connects using the application config and runs migrations. Any
// failure is fatal.
func InitDB(cfg *config.AppConfig) *DB {
	dsn := fmt.Sprintf(
		"host='%s' port='%d' user='%s' password='%s' dbname='%s' sslmode='%s'",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	dsnRedacted := dsn
	if cfg.Database.Password != "" {
		dsnRedacted = strings.ReplaceAll(dsn, cfg.Database.Password, "*****")
	}
	log.Debug().
		Msgf("Connecting to postgres using the following information: %s", dsnRedacted)

	db, err := Connect(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize the database")
	}

	log.Debug().Msg("Successfully connected to the database")

	return db
}

// Connect opens a connection for the given DSN and migrates the schema.
func Connect(dsn string) (*DB, error) {
	dbGorm, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := migrate(dbGorm); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &DB{dbGorm: dbGorm}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.dbGorm.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	return sqlDB.Close()
}

func migrate(dbGorm *gorm.DB) error {
	err := dbGorm.AutoMigrate(
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&IngredientAmount{},
		&Favourite{},
		&ShoppingCartEntry{},
		&Follow{},
	)
	if err != nil {
		return err
	}

	// Tag colours are unique regardless of case
	return dbGorm.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_color_lower ON tags (LOWER(color))",
	).Error
}
