package redis

import (
	"context"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"ideavault/internal/storage/storagetest"
	"ideavault/internal/vault"
)

// openTestStore connects to the server named by IDEAVAULT_TEST_REDIS_ADDR and
// wipes the test prefix so every test starts from an empty vault. The test is
// skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("IDEAVAULT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDEAVAULT_TEST_REDIS_ADDR not set, skipping redis tests")
	}

	s, err := Open(addr, "", 0, "ideavault-test:", zap.NewNop())
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", addr, err)
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

// TestKeysAreNamespaced verifies every key the store writes carries the
// configured prefix, so vaults can share a server.
func TestKeysAreNamespaced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateProblem(ctx, vault.ProblemFields{
		Title: "p", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}

	for _, key := range []string{"problems", "counter:problems"} {
		exists, err := s.rdb.Exists(ctx, s.prefix+key).Result()
		if err != nil {
			t.Fatalf("EXISTS %s: %v", key, err)
		}
		if exists != 1 {
			t.Errorf("expected key %s%s to exist", s.prefix, key)
		}
	}
}

// TestCountersSurviveCollectionWipe verifies INCR-backed ids stay monotonic
// across ClearAll-then-import flows that only reset what they name.
func TestCountersSurviveCollectionWipe(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for j := 0; j < 3; j++ {
		id, err := s.CreateProblem(ctx, vault.ProblemFields{
			Title: fmt.Sprintf("p%d", j), Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
		})
		if err != nil {
			t.Fatalf("CreateProblem %d: %v", j, err)
		}
		last = id
	}

	// Deleting records must not rewind the counter.
	for id := int64(1); id <= last; id++ {
		if _, err := s.DeleteProblem(ctx, id); err != nil {
			t.Fatalf("DeleteProblem %d: %v", id, err)
		}
	}

	id, err := s.CreateProblem(ctx, vault.ProblemFields{
		Title: "after", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
	})
	if err != nil {
		t.Fatalf("CreateProblem after deletes: %v", err)
	}
	if id != last+1 {
		t.Errorf("id after deletes = %d, want %d", id, last+1)
	}
}
