package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet.
// The UNIQUE (campaign_id, user_id) constraint on vouchers backs the
// duplicate-claim guard; the capacity guard counts rows instead of keeping
// a separately mutated counter.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			id TEXT PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			zip TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			store_id TEXT NOT NULL REFERENCES stores(id),
			status TEXT NOT NULL DEFAULT 'CREATED',
			tags TEXT NOT NULL DEFAULT '',
			inventory INT NOT NULL DEFAULT 0 CHECK (inventory >= 0),
			likes INT NOT NULL DEFAULT 0,
			pin INT NOT NULL,
			terms TEXT NOT NULL DEFAULT '',
			amount BIGINT NOT NULL DEFAULT 0,
			start_date TIMESTAMP WITH TIME ZONE,
			end_date TIMESTAMP WITH TIME ZONE,
			category TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS vouchers (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id),
			status TEXT NOT NULL DEFAULT 'CLAIMED',
			user_id TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			claimed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			consumed_at TIMESTAMP WITH TIME ZONE,
			UNIQUE (campaign_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_campaign ON vouchers (campaign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_user ON vouchers (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_end_date ON campaigns (end_date, status)`,
	}

	for _, stmt := range statements {
		if _, err := db.Postgres.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
