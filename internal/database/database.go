// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package database is the DuckDB marketplace store.
//
// It owns the listings, bids and reviews tables and implements
// recommend.DataSource over them. Bids are implicit feedback and reviews
// explicit feedback.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/logging"
)

const defaultQueryTimeout = 30 * time.Second

// DB wraps the DuckDB connection.
type DB struct {
	conn         *sql.DB
	cfg          config.DatabaseConfig
	queryTimeout time.Duration
}

// New opens the database at cfg.Path (in memory when empty) and creates the
// schema.
func New(cfg config.DatabaseConfig) (*DB, error) {
	if cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, queryTimeout: cfg.QueryTimeout}
	if db.queryTimeout <= 0 {
		db.queryTimeout = defaultQueryTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), db.queryTimeout)
	defer cancel()

	if err := db.configure(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := db.createTables(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func (db *DB) configure(ctx context.Context) error {
	threads := db.cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	db.conn.SetMaxOpenConns(threads)
	db.conn.SetMaxIdleConns(threads)

	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("SET threads = %d", threads)); err != nil {
		return fmt.Errorf("set threads: %w", err)
	}
	if db.cfg.MaxMemory != "" {
		stmt := fmt.Sprintf("SET max_memory = '%s'", strings.ReplaceAll(db.cfg.MaxMemory, "'", "''"))
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set max_memory: %w", err)
		}
	}
	return nil
}

// Conn returns the underlying connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints file-backed databases and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.cfg.Path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), db.queryTimeout)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// withTimeout bounds a single query.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("close failed")
	}
}
