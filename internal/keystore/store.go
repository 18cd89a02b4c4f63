// Package keystore persists controller credentials in SQLite.
//
// Each record maps a controller address (host:port) to the two halves of
// its encryption key and an optional user code for security commands.
// Key halves are validated on save so a malformed key is caught at
// provisioning time rather than at the first connection attempt.
package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
)

var (
	// ErrNotFound is returned when no credentials exist for an address.
	ErrNotFound = errors.New("keystore: not found")

	// ErrInvalidKey is returned when a key half fails validation.
	ErrInvalidKey = errors.New("keystore: invalid key")

	// ErrInvalidAddress is returned when the address is empty.
	ErrInvalidAddress = errors.New("keystore: invalid address")
)

// Credentials holds everything needed to open a session to one controller.
type Credentials struct {
	Address   string    `json:"address"`
	KeyPart1  string    `json:"key_part1"`
	KeyPart2  string    `json:"key_part2"`
	UserCode  string    `json:"user_code,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Secret returns the combined wire secret (both halves joined by a dash).
func (c Credentials) Secret() string {
	return c.KeyPart1 + "-" + c.KeyPart2
}

// Store defines the interface for credential persistence.
type Store interface {
	Save(ctx context.Context, creds Credentials) error
	Get(ctx context.Context, address string) (Credentials, error)
	Delete(ctx context.Context, address string) error
	List(ctx context.Context) ([]Credentials, error)
}

// SQLiteStore persists credentials in the controller_credentials table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a credential store backed by the given database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts or replaces the credentials for an address.
// Both key halves must match the controller key format
// (eight uppercase hex pairs joined by dashes).
func (s *SQLiteStore) Save(ctx context.Context, creds Credentials) error {
	if creds.Address == "" {
		return ErrInvalidAddress
	}
	if !omni.ValidKeyPart(creds.KeyPart1) {
		return fmt.Errorf("%w: key_part1 %q", ErrInvalidKey, creds.KeyPart1)
	}
	if !omni.ValidKeyPart(creds.KeyPart2) {
		return fmt.Errorf("%w: key_part2 %q", ErrInvalidKey, creds.KeyPart2)
	}

	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO controller_credentials (address, key_part1, key_part2, user_code, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		   key_part1 = excluded.key_part1,
		   key_part2 = excluded.key_part2,
		   user_code = excluded.user_code,
		   updated_at = excluded.updated_at`,
		creds.Address, creds.KeyPart1, creds.KeyPart2,
		nullableString(creds.UserCode),
		creds.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Get returns the credentials for an address.
func (s *SQLiteStore) Get(ctx context.Context, address string) (Credentials, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT address, key_part1, key_part2, user_code, updated_at
		 FROM controller_credentials WHERE address = ?`, address)

	creds, err := scanCredentials(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("loading credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credentials for an address. Deleting an address
// that has no credentials is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, address string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM controller_credentials WHERE address = ?", address)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// List returns all stored credentials ordered by address.
func (s *SQLiteStore) List(ctx context.Context) ([]Credentials, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT address, key_part1, key_part2, user_code, updated_at
		 FROM controller_credentials ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var out []Credentials
	for rows.Next() {
		creds, err := scanCredentials(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credentials: %w", err)
		}
		out = append(out, creds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return out, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredentials(s scanner) (Credentials, error) {
	var creds Credentials
	var userCode sql.NullString
	var updatedAt string

	if err := s.Scan(&creds.Address, &creds.KeyPart1, &creds.KeyPart2,
		&userCode, &updatedAt); err != nil {
		return Credentials{}, err
	}
	if userCode.Valid {
		creds.UserCode = userCode.String
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Credentials{}, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	creds.UpdatedAt = t
	return creds, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
