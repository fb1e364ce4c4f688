package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements run in order at startup. Statuses, roles and categories
// are closed sets enforced both here and at the service boundary.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL CHECK(role IN ('ministry','citizen','employee')),
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS waste_requests (
		id TEXT PRIMARY KEY,
		citizen_id TEXT NOT NULL REFERENCES users(id),
		address TEXT NOT NULL,
		category TEXT NOT NULL CHECK(category IN ('mixed','organic','recyclable','hazardous')),
		quantity_kg DOUBLE PRECISION NOT NULL,
		preferred_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'requested' CHECK(status IN (
			'requested','assigned','collected','segregated','recycled','cancelled'
		)),
		assigned_employee_id TEXT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS segregation_records (
		id TEXT PRIMARY KEY,
		request_id TEXT UNIQUE NOT NULL REFERENCES waste_requests(id),
		organic_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		recyclable_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		hazardous_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS recycling_batches (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES waste_requests(id),
		material TEXT NOT NULL,
		output_product TEXT NOT NULL,
		output_weight_kg DOUBLE PRECISION NOT NULL,
		processed_by TEXT NOT NULL REFERENCES users(id),
		processed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		points INTEGER NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','approved','rejected')),
		approved_by TEXT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waste_requests_citizen ON waste_requests(citizen_id)`,
	`CREATE INDEX IF NOT EXISTS idx_waste_requests_employee ON waste_requests(assigned_employee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rewards_user ON rewards(user_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.Migrate: %w", err)
		}
	}
	return nil
}
