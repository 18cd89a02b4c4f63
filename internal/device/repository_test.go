package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			controller TEXT NOT NULL,
			kind TEXT NOT NULL,
			number INTEGER NOT NULL,
			name TEXT NOT NULL,
			area INTEGER NOT NULL DEFAULT 0,
			type_code INTEGER NOT NULL DEFAULT 0,
			type_name TEXT,
			dimmable INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL DEFAULT '{}',
			state_updated_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(controller, kind, number)
		) STRICT;
		CREATE INDEX idx_devices_controller ON devices(controller);
		CREATE INDEX idx_devices_kind ON devices(controller, kind);
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

const testController = "192.168.1.50:4369"

func testUnit(number int, name string) *Device {
	return &Device{
		Controller: testController,
		Kind:       KindUnit,
		Number:     number,
		Name:       name,
		Area:       1,
		TypeCode:   1,
		TypeName:   "Standard",
		Dimmable:   true,
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testUnit(1, "Porch Light")
	if err := repo.Upsert(ctx, d); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}
	if d.ID != "192.168.1.50:4369/unit/1" {
		t.Errorf("Upsert() assigned ID %q", d.ID)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.Name != "Porch Light" || got.Kind != KindUnit || !got.Dimmable {
		t.Errorf("GetByID() = %+v, want porch light unit", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("GetByID() timestamps not populated")
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, testUnit(1, "Porch Light")); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	// Second enumeration sees a renamed object.
	if err := repo.Upsert(ctx, testUnit(1, "Front Porch")); err != nil {
		t.Fatalf("Upsert() replace unexpected error: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d devices, want 1", len(all))
	}
	if all[0].Name != "Front Porch" {
		t.Errorf("List()[0].Name = %q, want renamed object", all[0].Name)
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Device)
		want   error
	}{
		{"no controller", func(d *Device) { d.Controller = "" }, ErrInvalidController},
		{"bad kind", func(d *Device) { d.Kind = "thermostat" }, ErrInvalidKind},
		{"zero number", func(d *Device) { d.Number = 0 }, ErrInvalidNumber},
		{"no name", func(d *Device) { d.Name = "" }, ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testUnit(1, "Porch Light")
			tt.mutate(d)
			if err := repo.Upsert(ctx, d); !errors.Is(err, tt.want) {
				t.Errorf("Upsert() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "10.0.0.1:4369/unit/99")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestListByController(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, d := range []*Device{
		testUnit(2, "Pump Flag"),
		testUnit(1, "Porch Light"),
		{Controller: "10.0.0.9:4369", Kind: KindUnit, Number: 1, Name: "Other House"},
	} {
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert() unexpected error: %v", err)
		}
	}

	devices, err := repo.ListByController(ctx, testController)
	if err != nil {
		t.Fatalf("ListByController() unexpected error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListByController() returned %d devices, want 2", len(devices))
	}
	if devices[0].Number != 1 || devices[1].Number != 2 {
		t.Errorf("ListByController() order = %d, %d; want ascending by number",
			devices[0].Number, devices[1].Number)
	}
}

func TestUpdateState(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testUnit(1, "Porch Light")
	if err := repo.Upsert(ctx, d); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	state := State{"on": true, "level": float64(75), "text": "75%"}
	if err := repo.UpdateState(ctx, d.ID, state); err != nil {
		t.Fatalf("UpdateState() unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.State["text"] != "75%" || got.State["on"] != true {
		t.Errorf("GetByID() state = %v, want updated state", got.State)
	}
	if got.StateUpdatedAt == nil {
		t.Error("GetByID() StateUpdatedAt not set after update")
	}

	if err := repo.UpdateState(ctx, "missing", state); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateState() missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestDeleteStale(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for n := 1; n <= 4; n++ {
		if err := repo.Upsert(ctx, testUnit(n, "Unit")); err != nil {
			t.Fatalf("Upsert(%d) unexpected error: %v", n, err)
		}
	}

	// Units 2 and 4 vanished from the controller.
	if err := repo.DeleteStale(ctx, testController, KindUnit, []int{1, 3}); err != nil {
		t.Fatalf("DeleteStale() unexpected error: %v", err)
	}

	devices, err := repo.ListByController(ctx, testController)
	if err != nil {
		t.Fatalf("ListByController() unexpected error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListByController() returned %d devices, want 2", len(devices))
	}
	if devices[0].Number != 1 || devices[1].Number != 3 {
		t.Errorf("surviving numbers = %d, %d; want 1, 3", devices[0].Number, devices[1].Number)
	}

	// An empty keep list wipes the kind entirely.
	if err := repo.DeleteStale(ctx, testController, KindUnit, nil); err != nil {
		t.Fatalf("DeleteStale(nil) unexpected error: %v", err)
	}
	devices, err = repo.ListByController(ctx, testController)
	if err != nil {
		t.Fatalf("ListByController() unexpected error: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("ListByController() returned %d devices after full wipe, want 0", len(devices))
	}
}
