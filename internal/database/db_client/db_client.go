package db_client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(host, port, user, pass, database string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		user, pass, host, port, database,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxIdleTime(time.Minute)
	return db, db.Ping()
}

// Bootstrap creates the schema on an empty database. Every statement is
// idempotent so it is safe to run at each boot.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS auctions (
			id             TEXT PRIMARY KEY,
			seller_id      TEXT NOT NULL,
			title          TEXT NOT NULL DEFAULT '',
			starting_price DOUBLE PRECISION NOT NULL,
			current_price  DOUBLE PRECISION NOT NULL,
			reserve_price  DOUBLE PRECISION,
			bid_increment  DOUBLE PRECISION NOT NULL,
			starts_at      TIMESTAMPTZ,
			ends_at        TIMESTAMPTZ,
			cancelled      BOOLEAN NOT NULL DEFAULT FALSE,
			settled        BOOLEAN NOT NULL DEFAULT FALSE,
			total_bids     INTEGER NOT NULL DEFAULT 0,
			winner_id      TEXT NOT NULL DEFAULT '',
			winning_bid_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id           TEXT PRIMARY KEY,
			auction_id   TEXT NOT NULL REFERENCES auctions(id),
			bidder_id    TEXT NOT NULL,
			amount       DOUBLE PRECISION NOT NULL,
			bid_time     TIMESTAMPTZ NOT NULL,
			is_winning   BOOLEAN NOT NULL DEFAULT FALSE,
			status       TEXT NOT NULL,
			is_auto_bid  BOOLEAN NOT NULL DEFAULT FALSE,
			max_auto_bid DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS bids_auction_idx ON bids (auction_id)`,
		`CREATE INDEX IF NOT EXISTS auctions_ends_at_idx ON auctions (ends_at)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
