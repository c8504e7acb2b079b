package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func sqlFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestParseMigrations(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		files   fstest.MapFS
		wantErr string
	}{
		"missing down": {
			files:   fstest.MapFS{"sql/migrations/0001_init.up.sql": sqlFile("CREATE TABLE a (id INT);")},
			wantErr: "both up and down",
		},
		"bad file name": {
			files:   fstest.MapFS{"sql/migrations/not_a_migration.sql": sqlFile("SELECT 1;")},
			wantErr: "invalid migration file name",
		},
		"empty body": {
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   sqlFile("   \n"),
				"sql/migrations/0001_init.down.sql": sqlFile("DROP TABLE a;"),
			},
			wantErr: "is empty",
		},
		"name clash": {
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    sqlFile("CREATE TABLE a (id INT);"),
				"sql/migrations/0001_other.down.sql": sqlFile("DROP TABLE a;"),
			},
			wantErr: "two names",
		},
		"no files": {
			files:   fstest.MapFS{"sql/migrations/README.md": sqlFile("docs")},
			wantErr: "no migration files",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseMigrations(tc.files)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseMigrations_SortsByVersion(t *testing.T) {
	t.Parallel()

	migrations, err := parseMigrations(fstest.MapFS{
		"sql/migrations/0010_late.up.sql":   sqlFile("CREATE INDEX x ON a (id);"),
		"sql/migrations/0010_late.down.sql": sqlFile("DROP INDEX x;"),
		"sql/migrations/0002_init.up.sql":   sqlFile("CREATE TABLE a (id INT);"),
		"sql/migrations/0002_init.down.sql": sqlFile("DROP TABLE a;"),
	})
	if err != nil {
		t.Fatalf("parseMigrations: %v", err)
	}
	if len(migrations) != 2 || migrations[0].ID() != "0002_init" || migrations[1].ID() != "0010_late" {
		t.Fatalf("unexpected order: %+v", migrations)
	}
	if migrations[1].DownSQL != "DROP INDEX x;" {
		t.Fatalf("down body not attached: %q", migrations[1].DownSQL)
	}
}

func TestParseMigrations_EmbeddedCatalogSchema(t *testing.T) {
	t.Parallel()

	migrations, err := parseMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations are invalid: %v", err)
	}
	if len(migrations) == 0 || migrations[0].ID() != "0001_init_catalog" {
		t.Fatalf("unexpected embedded migrations: %+v", migrations)
	}
	for _, table := range catalogTables {
		if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("init migration does not create table %s", table)
		}
	}
	if last := migrations[len(migrations)-1]; last.ID() != "0002_idempotency_location" {
		t.Fatalf("expected location migration last, got %s", last.ID())
	}
}

func TestPendingMigrations(t *testing.T) {
	t.Parallel()

	all := []migration{{Version: 1, Name: "init_catalog"}, {Version: 2, Name: "add_index"}}

	if got := pendingMigrations(all, []int64{1}); len(got) != 1 || got[0] != "0002_add_index" {
		t.Fatalf("unexpected pending migrations: %v", got)
	}
	if got := pendingMigrations(all, []int64{1, 2}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
