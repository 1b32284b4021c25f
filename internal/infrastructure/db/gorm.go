package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open picks the dialector for driver; dsn is a MySQL or Postgres DSN or a
// sqlite path.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverMySQL, "":
		return OpenGormWithDialector(mysql.Open(dsn))
	case DriverPostgres:
		return OpenGormWithDialector(postgres.Open(dsn))
	case DriverSQLite:
		db, err := OpenGormWithDialector(sqlite.Open(dsn))
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", driver)
	}
}

// OpenGormWithDialector configures the pool and pings before returning.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	slog.Info("gorm: connected", "dialect", dial.Name())
	return db, nil
}

// Ping adapts db to a health probe.
func Ping(g *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := g.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
