package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Upsert inserts a device or updates the existing row with the
	// same controller/kind/number. Timestamps are managed internally.
	Upsert(ctx context.Context, d *Device) error

	// GetByID retrieves a device by its registry ID.
	// Returns ErrDeviceNotFound if no such device exists.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices ordered by controller, kind, number.
	List(ctx context.Context) ([]Device, error)

	// ListByController retrieves all devices belonging to one controller.
	ListByController(ctx context.Context, controller string) ([]Device, error)

	// UpdateState replaces the stored state for a device.
	UpdateState(ctx context.Context, id string, state State) error

	// Delete removes a device by ID.
	Delete(ctx context.Context, id string) error

	// DeleteStale removes rows for a controller and kind whose object
	// numbers are not in keep. Used after re-enumeration so objects
	// deleted from the controller disappear from the registry.
	DeleteStale(ctx context.Context, controller, kind string, keep []int) error
}

// SQLiteRepository persists devices in the devices table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a device repository backed by the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or updates a device row.
func (r *SQLiteRepository) Upsert(ctx context.Context, d *Device) error {
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = ObjectID(d.Controller, d.Kind, d.Number)
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	stateJSON, err := marshalState(d.State)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO devices (id, controller, kind, number, name, area, type_code, type_name,
		                      dimmable, state, state_updated_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   area = excluded.area,
		   type_code = excluded.type_code,
		   type_name = excluded.type_name,
		   dimmable = excluded.dimmable,
		   updated_at = excluded.updated_at`,
		d.ID, d.Controller, d.Kind, d.Number, d.Name, d.Area, d.TypeCode,
		nullableString(d.TypeName), boolToInt(d.Dimmable), stateJSON,
		nullableTime(d.StateUpdatedAt),
		d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by its registry ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" FROM devices WHERE id = ?", id)

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading device: %w", err)
	}
	return d, nil
}

// List retrieves all devices ordered by controller, kind and number.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	return r.query(ctx, selectColumns+" FROM devices ORDER BY controller, kind, number")
}

// ListByController retrieves all devices belonging to one controller.
func (r *SQLiteRepository) ListByController(ctx context.Context, controller string) ([]Device, error) {
	return r.query(ctx,
		selectColumns+" FROM devices WHERE controller = ? ORDER BY kind, number",
		controller)
}

// UpdateState replaces the stored state for a device.
func (r *SQLiteRepository) UpdateState(ctx context.Context, id string, state State) error {
	stateJSON, err := marshalState(state)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET state = ?, state_updated_at = ?, updated_at = ? WHERE id = ?`,
		stateJSON, now, now, id)
	if err != nil {
		return fmt.Errorf("updating device state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return nil
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return nil
}

// DeleteStale removes rows for a controller and kind not listed in keep.
func (r *SQLiteRepository) DeleteStale(ctx context.Context, controller, kind string, keep []int) error {
	query := "DELETE FROM devices WHERE controller = ? AND kind = ?"
	args := []any{controller, kind}

	if len(keep) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
		query += " AND number NOT IN (" + placeholders + ")"
		for _, n := range keep {
			args = append(args, n)
		}
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting stale devices: %w", err)
	}
	return nil
}

// selectColumns is the shared column list for device queries.
const selectColumns = `SELECT id, controller, kind, number, name, area, type_code, type_name,
	dimmable, state, state_updated_at, created_at, updated_at`

// query runs a device SELECT and scans all rows.
func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*Device, error) {
	var d Device
	var typeName sql.NullString
	var dimmable int
	var stateJSON string
	var stateUpdatedAt sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&d.ID, &d.Controller, &d.Kind, &d.Number, &d.Name,
		&d.Area, &d.TypeCode, &typeName, &dimmable, &stateJSON,
		&stateUpdatedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if typeName.Valid {
		d.TypeName = typeName.String
	}
	d.Dimmable = dimmable != 0

	if stateJSON != "" {
		var state State
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
			return nil, fmt.Errorf("parsing state JSON: %w", err)
		}
		d.State = state
	}

	if stateUpdatedAt.Valid && stateUpdatedAt.String != "" {
		t, err := time.Parse(time.RFC3339, stateUpdatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing state_updated_at %q: %w", stateUpdatedAt.String, err)
		}
		d.StateUpdatedAt = &t
	}

	var err error
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}

	return &d, nil
}

// marshalState serialises a state map, treating nil as the empty object.
func marshalState(s State) (string, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshalling state: %w", err)
	}
	return string(b), nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime returns nil for nil times, or the RFC3339 string otherwise.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
