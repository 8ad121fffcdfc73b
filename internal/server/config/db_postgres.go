package config

import (
	"database/sql"
	"errors"
	"time"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v4/stdlib"
)

// OpenDB открывает пул соединений с PostgreSQL (драйвер pgx), проверяет доступность
// базы и при включённых миграциях накатывает их (golang-migrate).
//
// Если миграции уже применены, migrate.ErrNoChange ошибкой не считается.
func OpenDB(cfg DBConfig, mig MigrationsConfig, log *logger.HTTPLogger) (*sql.DB, error) {
	customLog := log.Sugar()

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		customLog.Errorf("error to connect db: %v", err)
		return nil, err
	}
	configurePool(db, cfg)

	if err = db.Ping(); err != nil {
		customLog.Errorf("error check db connection: %v", err)
		_ = db.Close()
		return nil, err
	}

	if !mig.Enabled {
		return db, nil
	}

	if err = Migrate(db, mig.Path); err != nil {
		customLog.Errorf("error applying migrations: %v", err)
		_ = db.Close()
		return nil, err
	}

	customLog.Info("migrations applied successfully")
	return db, nil
}

// Migrate применяет миграции из sourceURL (например file://migrations/postgres).
func Migrate(db *sql.DB, sourceURL string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return err
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func configurePool(db *sql.DB, cfg DBConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
}
