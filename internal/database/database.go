// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also serves MariaDB.
//
// Public entry points:
//
//	Open(ctx, cfg)     – pool sized from config.Database, pinged before return.
//	Migrate(ctx, db)   – applies the embedded goose migrations.
//
// Callers should Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/demosite/internal/config"
)

// Defaults applied when the config leaves pool sizes at zero.
const (
	defaultMaxOpen = 15
	defaultMaxIdle = 5
	connLifetime   = 30 * time.Minute
)

// Open returns a pinged *sqlx.DB for cfg.
func Open(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpen
	}
	if maxIdle == 0 {
		maxIdle = defaultMaxIdle
	}

	db, err := sqlx.Open("mysql", cfg.DSNWithPassword())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicate reports whether err is a MySQL unique-key violation.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
