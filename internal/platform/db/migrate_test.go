package db

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
)

func TestMigrator_Load(t *testing.T) {
	fsys := fstest.MapFS{
		"003_dataload.sql":     {Data: []byte("CREATE TABLE dataload (dataload_id SERIAL PRIMARY KEY);")},
		"001_registry.sql":     {Data: []byte("CREATE TABLE study (study_id SERIAL PRIMARY KEY);")},
		"002_saved_search.sql": {Data: []byte("CREATE TABLE web_user (web_user_id SERIAL PRIMARY KEY);")},
		"README.md":            {Data: []byte("# notes")},
		"seed.sql":             {Data: []byte("SELECT 1;")},
		"abc_bad.sql":          {Data: []byte("SELECT 1;")},
		"archive/004_old.sql":  {Data: []byte("SELECT 1;")},
	}

	migrations, err := NewMigrator(nil, fsys, "", zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []string{"001_registry.sql", "002_saved_search.sql", "003_dataload.sql"} {
		if migrations[i].Name != want {
			t.Errorf("migration %d = %s, want %s", i, migrations[i].Name, want)
		}
		if migrations[i].Version != i+1 {
			t.Errorf("migration %d version = %d", i, migrations[i].Version)
		}
	}
	if !strings.Contains(migrations[0].SQL, "CREATE TABLE study") {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestMigrator_LoadDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, fsys, "", zerolog.Nop()).Load(); err == nil {
		t.Fatal("expected error for duplicate version")
	}
}

func TestMigrator_Table(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{}, "", zerolog.Nop())
	if got := m.table(); got != `"public"."schema_migrations"` {
		t.Errorf("unexpected table %s", got)
	}
	m = NewMigrator(nil, fstest.MapFS{}, "ct", zerolog.Nop())
	if got := m.table(); got != `"ct"."schema_migrations"` {
		t.Errorf("unexpected table %s", got)
	}
}

func TestMigrator_RepositoryMigrations(t *testing.T) {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("migrations directory not found: %v", err)
	}

	migrations, err := NewMigrator(nil, os.DirFS(dir), "", zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) < 3 {
		t.Fatalf("expected at least 3 migrations, got %d", len(migrations))
	}
	for i, mig := range migrations {
		if mig.Version != i+1 {
			t.Errorf("gap in migration versions at %s", mig.Name)
		}
		if strings.TrimSpace(mig.SQL) == "" {
			t.Errorf("migration %s is empty", mig.Name)
		}
	}
}
