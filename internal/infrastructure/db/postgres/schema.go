package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS point_balances (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE,
		total_points NUMERIC NOT NULL DEFAULT 0,
		available_points NUMERIC NOT NULL DEFAULT 0,
		pending_points NUMERIC NOT NULL DEFAULT 0,
		lifetime_earned NUMERIC NOT NULL DEFAULT 0,
		lifetime_spent NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		version INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS point_transactions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		transaction_type TEXT NOT NULL,
		points_amount NUMERIC NOT NULL,
		balance_after NUMERIC,
		source TEXT NOT NULL DEFAULT '',
		source_id UUID,
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		expiry_date TIMESTAMPTZ,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS point_transactions_user_id_idx
		ON point_transactions (user_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS point_transactions_expiry_idx
		ON point_transactions (expiry_date)
		WHERE expiry_date IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS earning_rules (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		rule_type TEXT NOT NULL,
		points_per_unit NUMERIC NOT NULL,
		unit_type TEXT NOT NULL,
		multiplier NUMERIC NOT NULL DEFAULT 1,
		min_amount NUMERIC,
		max_points NUMERIC,
		tier_restrictions JSONB,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
}

// Bootstrap creates missing tables and indexes.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	return nil
}
