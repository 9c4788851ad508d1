package chordring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go-chordring/database"
)

var (
	// ErrInvalidRingID is returned when the ringID contains invalid characters
	ErrInvalidRingID = errors.New("ringID must contain only lowercase letters, numbers, and underscores, and start with a letter")

	// validRingIDPattern validates PostgreSQL-safe identifiers
	validRingIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Directory is a shared list of ring members a new node can join through.
// It only helps bootstrapping; the ring itself never consults it.
type Directory interface {
	Register(ctx context.Context, node NodeInfo) error
	Contacts(ctx context.Context) ([]NodeInfo, error)
}

// PostgresDirectory keeps member registrations in a PostgreSQL table.
type PostgresDirectory struct {
	ringID    string
	queries   *database.Queries
	memberTTL time.Duration
}

// NewPostgresDirectory validates ringID, migrates the members table and
// returns a directory whose registrations expire after memberTTL.
// The ringID must be a valid PostgreSQL identifier (lowercase letters, numbers, underscores, starting with a letter).
func NewPostgresDirectory(ctx context.Context, db *sql.DB, ringID string, memberTTL time.Duration) (*PostgresDirectory, error) {
	if err := ValidateRingID(ringID); err != nil {
		return nil, fmt.Errorf("invalid ringID: %w", err)
	}

	if err := database.Migrate(ctx, db, ringID); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresDirectory{
		ringID:    ringID,
		queries:   database.NewQueries(db, ringID),
		memberTTL: memberTTL,
	}, nil
}

// Register records node as alive now.
func (d *PostgresDirectory) Register(ctx context.Context, node NodeInfo) error {
	var record = &database.MemberRecord{
		RingID:   d.ringID,
		NodeID:   uint64(node.ID),
		Address:  node.Addr,
		LastSeen: time.Now(),
	}

	if err := d.queries.UpsertMember(ctx, record); err != nil {
		return fmt.Errorf("failed to register %s: %w", node, err)
	}
	return nil
}

// Contacts returns members registered within the TTL, most recent first.
func (d *PostgresDirectory) Contacts(ctx context.Context) ([]NodeInfo, error) {
	var records, err = d.queries.ListMembers(ctx, d.ringID, time.Now().Add(-d.memberTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	var contacts = make([]NodeInfo, len(records))
	for i, record := range records {
		contacts[i] = NodeInfo{
			ID:   ID(record.NodeID),
			Addr: record.Address,
		}
	}
	return contacts, nil
}

// Remove deletes the registration of the node at addr.
func (d *PostgresDirectory) Remove(ctx context.Context, addr string) error {
	if err := d.queries.DeleteMember(ctx, d.ringID, addr); err != nil {
		return fmt.Errorf("failed to remove %s: %w", addr, err)
	}
	return nil
}

// Prune deletes registrations older than the TTL.
func (d *PostgresDirectory) Prune(ctx context.Context) (int64, error) {
	var removed, err = d.queries.DeleteStaleMembers(ctx, d.ringID, time.Now().Add(-d.memberTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to prune directory: %w", err)
	}
	return removed, nil
}

// ValidateRingID checks if the ringID is valid for use as a PostgreSQL identifier.
func ValidateRingID(ringID string) error {
	if ringID == "" {
		return errors.New("ringID cannot be empty")
	}

	if len(ringID) > 63 {
		return errors.New("ringID must be 63 characters or less")
	}

	if !validRingIDPattern.MatchString(ringID) {
		return ErrInvalidRingID
	}

	return nil
}
