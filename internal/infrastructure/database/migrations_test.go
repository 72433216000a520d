package database

import (
	"context"
	"embed"
	"testing"
	"time"
)

//go:embed testdata/*.sql
var fixtureFS embed.FS

// useFixtureMigrations points the migration loader at the testdata
// fixtures for the duration of one test.
func useFixtureMigrations(t *testing.T) {
	t.Helper()

	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})

	MigrationsFS = fixtureFS
	MigrationsDir = "testdata"
}

// tableExists reports whether name is present in sqlite_master.
func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count > 0
}

func TestMigrate(t *testing.T) {
	useFixtureMigrations(t)

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if !tableExists(t, db, "filament_spools") {
		t.Fatal("filament_spools table not created by migration")
	}

	// The fixture schema is usable, not just present.
	_, err := db.ExecContext(ctx,
		"INSERT INTO filament_spools (material, colour, grams_remaining) VALUES (?, ?, ?)",
		"PLA", "galaxy black", 750.0,
	)
	if err != nil {
		t.Errorf("inserting into migrated table: %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 0 {
		t.Errorf("status = %d applied / %d pending, want 1/0", len(applied), len(pending))
	}

	// Idempotent on re-run.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useFixtureMigrations(t)

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "filament_spools") {
		t.Error("filament_spools table survived rollback")
	}

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("%d applied migrations after rollback, want 0", len(applied))
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	origFS := MigrationsFS
	origDir := MigrationsDir
	defer func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	}()

	var emptyFS embed.FS
	MigrationsFS = emptyFS
	MigrationsDir = "."

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
}

func TestGetMigrationStatus_PendingBeforeApply(t *testing.T) {
	useFixtureMigrations(t)

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 0 || len(pending) != 1 {
		t.Errorf("status = %d applied / %d pending, want 0/1", len(applied), len(pending))
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "up migration",
			filename:    "20260805_000000_initial_schema.up.sql",
			wantVersion: "20260805_000000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "down migration",
			filename:    "20260805_000000_initial_schema.down.sql",
			wantVersion: "20260805_000000",
			wantIsUp:    false,
			wantOk:      true,
		},
		{
			name:     "not a sql file",
			filename: "notes.md",
			wantOk:   false,
		},
		{
			name:     "missing direction suffix",
			filename: "20260805_000000_initial_schema.sql",
			wantOk:   false,
		},
		{
			name:     "no version prefix",
			filename: "schema.up.sql",
			wantOk:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantIsUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260805_000000_initial_schema.up.sql", "initial_schema"},
		{"20260118_120000_create_filament_spools.down.sql", "create_filament_spools"},
		{"20260901_083000_add_site_to_job_history.up.sql", "add_site_to_job_history"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
