package sqlite

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"ideavault/internal/storage/storagetest"
	"ideavault/internal/vault"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) vault.Store {
		return openTestStore(t)
	})
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

// TestIndexesExist verifies that the lookup indexes are created by the migration.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_notes_problem", "idx_notes_idea", "idx_links_problem", "idx_links_idea"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

// TestForeignKeysEnabled verifies the foreign_keys pragma is on for the
// connection, since the cascade and set-null behaviors depend on it.
func TestForeignKeysEnabled(t *testing.T) {
	s := openTestStore(t)

	var enabled int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys = %d, want 1", enabled)
	}
}

// TestSchemaRejectsBadSeverity verifies the CHECK constraint fires even for
// writes that bypass the validation layer.
func TestSchemaRejectsBadSeverity(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`INSERT INTO problems (title, description, observed_context, severity, frequency, status, tags, created_at, updated_at)
		VALUES ('x', '', '', 9, 'daily', 'open', '', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	if err == nil {
		t.Fatal("expected CHECK constraint violation for severity 9")
	}
}

// TestLinkUniqueIndex verifies the links table rejects duplicate pairs at the
// schema level.
func TestLinkUniqueIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pid, err := s.CreateProblem(ctx, vault.ProblemFields{
		Title: "p", Severity: 3, Frequency: vault.FrequencyWeekly, Status: vault.ProblemOpen,
	})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	iid, err := s.CreateIdea(ctx, vault.IdeaFields{Title: "i", Status: vault.IdeaNew})
	if err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}

	if _, err := s.db.Exec("INSERT INTO links (problem_id, idea_id) VALUES (?, ?)", pid, iid); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.db.Exec("INSERT INTO links (problem_id, idea_id) VALUES (?, ?)", pid, iid); err == nil {
		t.Fatal("expected UNIQUE constraint violation for duplicate link pair")
	}
}

// TestLinkRejectsMissingProblem verifies a link to a nonexistent problem is a
// real error, not a silent no-op.
func TestLinkRejectsMissingProblem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	iid, err := s.CreateIdea(ctx, vault.IdeaFields{Title: "i", Status: vault.IdeaNew})
	if err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}

	if _, err := s.LinkProblemToIdea(ctx, 42, iid); err == nil {
		t.Fatal("expected foreign key error for missing problem")
	}
}

// TestClearAllResetsSequences verifies ids restart from 1 after a wipe.
func TestClearAllResetsSequences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for j := 0; j < 3; j++ {
		if _, err := s.CreateProblem(ctx, vault.ProblemFields{
			Title: "p", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
		}); err != nil {
			t.Fatalf("CreateProblem %d: %v", j, err)
		}
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	id, err := s.CreateProblem(ctx, vault.ProblemFields{
		Title: "fresh", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
	})
	if err != nil {
		t.Fatalf("CreateProblem after clear: %v", err)
	}
	if id != 1 {
		t.Errorf("id after ClearAll = %d, want 1", id)
	}
}
