package database

import (
	"context"
	"fmt"
)

// Lists and users are stored one row per document. Embedded arrays live in
// JSONB columns so a single UPDATE can test and change them atomically.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			invitations   JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX idx_users_invitations ON users USING GIN (invitations jsonb_path_ops);
	`},
	{"shopping_lists", `
		CREATE TABLE shopping_lists (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
			owner       JSONB NOT NULL,
			members     JSONB NOT NULL DEFAULT '[]'::jsonb,
			items       JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			archived_at TIMESTAMPTZ
		);

		CREATE INDEX idx_shopping_lists_members ON shopping_lists USING GIN (members jsonb_path_ops);
	`},
}

func Migrate(ctx context.Context, db *DB) error {
	for _, t := range schema {
		var exists bool
		err := db.QueryRow(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)",
			t.table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", t.table, err)
		}
		if exists {
			continue
		}

		if _, err := db.Exec(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.table, err)
		}
	}
	return nil
}
