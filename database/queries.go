package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is an interface that both sql.DB and sql.Tx implement.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries provides table-aware database operations.
type Queries struct {
	db        DBTX
	tableName string
}

// NewQueries creates a new Queries instance with the given table name.
func NewQueries(db DBTX, tableName string) *Queries {
	return &Queries{
		db:        db,
		tableName: tableName,
	}
}

var (
	upsertMemberSQL = `
INSERT INTO %s_members (ring_id, address, node_id, last_seen)
VALUES ($1, $2, $3, $4)
ON CONFLICT (ring_id, address)
DO UPDATE SET
    node_id = EXCLUDED.node_id,
    last_seen = EXCLUDED.last_seen;`

	getMemberSQL = `
SELECT ring_id, node_id, address, last_seen
FROM %s_members
WHERE ring_id = $1 AND address = $2;`

	listMembersSQL = `
SELECT ring_id, node_id, address, last_seen
FROM %s_members
WHERE ring_id = $1 AND last_seen >= $2
ORDER BY last_seen DESC, address ASC;`

	deleteMemberSQL = `
DELETE FROM %s_members
WHERE ring_id = $1 AND address = $2;`

	deleteStaleMembersSQL = `
DELETE FROM %s_members
WHERE ring_id = $1 AND last_seen < $2;`
)

// UpsertMember inserts or refreshes a member registration.
func (q *Queries) UpsertMember(ctx context.Context, member *MemberRecord) error {
	var query = fmt.Sprintf(upsertMemberSQL, q.tableName)
	_, err := q.db.ExecContext(ctx, query,
		member.RingID, member.Address, int64(member.NodeID), member.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// GetMember retrieves a single member by address, or nil if it is not registered.
func (q *Queries) GetMember(ctx context.Context, ringID string, address string) (*MemberRecord, error) {
	var (
		query  = fmt.Sprintf(getMemberSQL, q.tableName)
		member MemberRecord
		nodeID int64
		err    = q.db.QueryRowContext(ctx, query, ringID, address).Scan(
			&member.RingID, &nodeID, &member.Address, &member.LastSeen,
		)
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	member.NodeID = uint64(nodeID)
	return &member, nil
}

// ListMembers returns members seen at or after since, most recently seen first.
func (q *Queries) ListMembers(ctx context.Context, ringID string, since time.Time) ([]*MemberRecord, error) {
	var (
		query     = fmt.Sprintf(listMembersSQL, q.tableName)
		rows, err = q.db.QueryContext(ctx, query, ringID, since)
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*MemberRecord
	for rows.Next() {
		var (
			member MemberRecord
			nodeID int64
		)
		if err := rows.Scan(&member.RingID, &nodeID, &member.Address, &member.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.NodeID = uint64(nodeID)
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return members, nil
}

// DeleteMember removes a member by address.
func (q *Queries) DeleteMember(ctx context.Context, ringID string, address string) error {
	var query = fmt.Sprintf(deleteMemberSQL, q.tableName)
	_, err := q.db.ExecContext(ctx, query, ringID, address)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// DeleteStaleMembers removes members not seen since the given time.
// Returns the number of removed rows.
func (q *Queries) DeleteStaleMembers(ctx context.Context, ringID string, before time.Time) (int64, error) {
	var query = fmt.Sprintf(deleteStaleMembersSQL, q.tableName)
	result, err := q.db.ExecContext(ctx, query, ringID, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale members: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted members: %w", err)
	}
	return count, nil
}
