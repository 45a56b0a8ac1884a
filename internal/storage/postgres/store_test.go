package postgres

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"

	"ideavault/internal/storage/storagetest"
	"ideavault/internal/vault"
)

// openTestStore connects to the database named by IDEAVAULT_TEST_POSTGRES_DSN
// and wipes it so every test starts from an empty vault. The test is skipped
// when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("IDEAVAULT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("IDEAVAULT_TEST_POSTGRES_DSN not set, skipping postgres tests")
	}

	s, err := Open(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", dsn, err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) vault.Store {
		return openTestStore(t)
	})
}

// TestSchemaIdempotent verifies a second Open against an existing schema
// succeeds without error.
func TestSchemaIdempotent(t *testing.T) {
	s1 := openTestStore(t)
	s1.Close()

	s2 := openTestStore(t)
	if err := s2.db.Ping(); err != nil {
		t.Fatalf("ping after reopen: %v", err)
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
