// Package database builds the shared MySQL connection pool.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/parking-zone-service/internal/config"
)

// Open connects to MySQL using cfg and verifies the connection before
// returning the pool. Pool sizing comes from configuration so deployments
// can tune it against their database tier.
func Open(cfg config.Config) (*sql.DB, error) {
	creds := cfg.DBUser
	if cfg.DBPass != "" {
		creds += ":" + cfg.DBPass
	}
	// DATETIME columns scan into time.Time, normalized to UTC.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		creds, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
