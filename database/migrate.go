package database

import (
	"context"
	"database/sql"
	"fmt"
)

var (
	createMembersTableSQL = `
CREATE TABLE IF NOT EXISTS %s_members (
    ring_id       VARCHAR       NOT NULL,
    address       VARCHAR       NOT NULL,
    node_id       BIGINT        NOT NULL,
    last_seen     TIMESTAMPTZ   NOT NULL,

    PRIMARY KEY (ring_id, address)
);`

	createMembersIndexSQL = `
CREATE INDEX IF NOT EXISTS %s
ON %s_members (ring_id, last_seen DESC);`
)

// Migrate creates the members table with its index.
func Migrate(ctx context.Context, db *sql.DB, tableName string) error {
	if err := createMembersTable(ctx, db, tableName); err != nil {
		return err
	}

	if err := createMembersIndex(ctx, db, tableName); err != nil {
		return err
	}

	return nil
}

func createMembersTable(ctx context.Context, db *sql.DB, tableName string) error {
	var query = fmt.Sprintf(createMembersTableSQL, tableName)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create members table: %w", err)
	}
	return nil
}

func createMembersIndex(ctx context.Context, db *sql.DB, tableName string) error {
	var (
		indexName = fmt.Sprintf("%s_members_last_seen_idx", tableName)
		query     = fmt.Sprintf(createMembersIndexSQL, indexName, tableName)
	)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create members index: %w", err)
	}
	return nil
}
