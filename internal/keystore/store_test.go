package keystore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the credentials table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE controller_credentials (
			address TEXT PRIMARY KEY,
			key_part1 TEXT NOT NULL,
			key_part2 TEXT NOT NULL,
			user_code TEXT,
			updated_at TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // test cleanup
	})
	return db
}

func testCredentials(address string) Credentials {
	return Credentials{
		Address:  address,
		KeyPart1: "01-23-45-67-89-AB-CD-EF",
		KeyPart2: "FE-DC-BA-98-76-54-32-10",
		UserCode: "1234",
	}
}

func TestSaveAndGet(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	want := testCredentials("192.168.1.50:4369")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "192.168.1.50:4369")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.KeyPart1 != want.KeyPart1 || got.KeyPart2 != want.KeyPart2 {
		t.Errorf("Get() key halves = %s / %s, want %s / %s",
			got.KeyPart1, got.KeyPart2, want.KeyPart1, want.KeyPart2)
	}
	if got.UserCode != "1234" {
		t.Errorf("Get() user code = %q, want 1234", got.UserCode)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Get() did not populate UpdatedAt")
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	creds := testCredentials("192.168.1.50:4369")
	if err := store.Save(ctx, creds); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	creds.KeyPart2 = "00-11-22-33-44-55-66-77"
	creds.UserCode = ""
	if err := store.Save(ctx, creds); err != nil {
		t.Fatalf("Save() replace unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "192.168.1.50:4369")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.KeyPart2 != "00-11-22-33-44-55-66-77" {
		t.Errorf("Get() key_part2 = %s, want replacement", got.KeyPart2)
	}
	if got.UserCode != "" {
		t.Errorf("Get() user code = %q, want empty after replace", got.UserCode)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() returned %d records, want 1", len(all))
	}
}

func TestSaveValidation(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Credentials)
		want   error
	}{
		{"empty address", func(c *Credentials) { c.Address = "" }, ErrInvalidAddress},
		{"lowercase hex", func(c *Credentials) { c.KeyPart1 = "01-23-45-67-89-ab-cd-ef" }, ErrInvalidKey},
		{"short key", func(c *Credentials) { c.KeyPart2 = "01-23-45-67-89-AB-CD" }, ErrInvalidKey},
		{"no dashes", func(c *Credentials) { c.KeyPart2 = "0123456789ABCDEF" }, ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := testCredentials("192.168.1.50:4369")
			tt.mutate(&creds)
			if err := store.Save(ctx, creds); !errors.Is(err, tt.want) {
				t.Errorf("Save() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))

	_, err := store.Get(context.Background(), "10.0.0.1:4369")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.Save(ctx, testCredentials("192.168.1.50:4369")); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "192.168.1.50:4369"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "192.168.1.50:4369"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "192.168.1.50:4369"); err != nil {
		t.Errorf("Delete() of missing record = %v, want nil", err)
	}
}

func TestListOrdered(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	for _, addr := range []string{"192.168.1.60:4369", "192.168.1.50:4369"} {
		if err := store.Save(ctx, testCredentials(addr)); err != nil {
			t.Fatalf("Save(%s) unexpected error: %v", addr, err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(all))
	}
	if all[0].Address != "192.168.1.50:4369" || all[1].Address != "192.168.1.60:4369" {
		t.Errorf("List() order = %s, %s; want ascending by address",
			all[0].Address, all[1].Address)
	}
}

func TestCredentialsSecret(t *testing.T) {
	creds := testCredentials("192.168.1.50:4369")
	want := "01-23-45-67-89-AB-CD-EF-FE-DC-BA-98-76-54-32-10"
	if got := creds.Secret(); got != want {
		t.Errorf("Secret() = %q, want %q", got, want)
	}
}
