package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"ideavault/internal/storage/sqlite"
	"ideavault/internal/vault"
)

// noCloseStore keeps a shared test store alive across command invocations,
// since every command closes the store it opened.
type noCloseStore struct {
	vault.Store
}

func (noCloseStore) Close() error { return nil }

// useMemoryStore points openStore at a single in-memory vault for the
// duration of the test and returns it for direct assertions.
func useMemoryStore(t *testing.T) vault.Store {
	t.Helper()

	s, err := sqlite.Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	old := openStore
	openStore = func() (vault.Store, error) {
		return noCloseStore{s}, nil
	}
	t.Cleanup(func() { openStore = old })

	return s
}

// resetFlags clears flag values and Changed markers so invocations don't
// leak state into each other.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunReportsError(t *testing.T) {
	useMemoryStore(t)

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--no-color", "problem", "show", "99"})
	defer rootCmd.SetArgs(nil)

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stderr = w

	code := run()

	w.Close()
	os.Stderr = oldStderr
	var stderr bytes.Buffer
	if _, err := stderr.ReadFrom(r); err != nil {
		t.Fatalf("reading stderr: %v", err)
	}

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if got := stderr.String(); !strings.Contains(got, "✗") || !strings.Contains(got, "not found") {
		t.Errorf("stderr = %q, want the error marker and message", got)
	}
}

func TestRunSucceeds(t *testing.T) {
	useMemoryStore(t)

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--no-color", "problem", "list"})
	defer rootCmd.SetArgs(nil)

	if code := run(); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}

func TestHasTag(t *testing.T) {
	tests := []struct {
		tags, tag string
		want      bool
	}{
		{"onboarding,churn", "churn", true},
		{"onboarding, churn", "churn", true},
		{"onboarding,churn", "Churn", true},
		{"onboarding,churn", "pricing", false},
		{"", "pricing", false},
	}
	for _, tt := range tests {
		if got := hasTag(tt.tags, tt.tag); got != tt.want {
			t.Errorf("hasTag(%q, %q) = %v, want %v", tt.tags, tt.tag, got, tt.want)
		}
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestProblemAddAndList(t *testing.T) {
	useMemoryStore(t)

	if _, err := runCommand(t, "--no-color", "problem", "add",
		"--title", "Slow onboarding", "--severity", "4", "--frequency", "daily",
		"--tags", "onboarding,churn"); err != nil {
		t.Fatalf("problem add: %v", err)
	}

	out, err := runCommand(t, "--no-color", "problem", "list")
	if err != nil {
		t.Fatalf("problem list: %v", err)
	}
	if !strings.Contains(out, "#1") || !strings.Contains(out, "Slow onboarding") {
		t.Errorf("list output missing the new problem: %q", out)
	}
	if !strings.Contains(out, "sev 4/5") {
		t.Errorf("list output missing severity: %q", out)
	}
}

func TestProblemAddRejectsBadSeverity(t *testing.T) {
	useMemoryStore(t)

	_, err := runCommand(t, "--no-color", "problem", "add", "--title", "x", "--severity", "9")
	if err == nil {
		t.Fatal("expected validation error for severity 9")
	}
	if !strings.Contains(err.Error(), "severity") {
		t.Errorf("error = %q, want it to mention severity", err.Error())
	}
}

func TestProblemListStatusFilter(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	for _, status := range []vault.ProblemStatus{vault.ProblemOpen, vault.ProblemSolved} {
		if _, err := store.CreateProblem(ctx, vault.ProblemFields{
			Title: "p-" + string(status), Severity: 2, Frequency: vault.FrequencyRare, Status: status,
		}); err != nil {
			t.Fatalf("CreateProblem: %v", err)
		}
	}

	out, err := runCommand(t, "--no-color", "problem", "list", "--status", "solved")
	if err != nil {
		t.Fatalf("problem list: %v", err)
	}
	if !strings.Contains(out, "p-solved") {
		t.Errorf("expected solved problem in output: %q", out)
	}
	if strings.Contains(out, "p-open") {
		t.Errorf("open problem should be filtered out: %q", out)
	}
}

func TestProblemEditPartial(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	id, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "Slow onboarding", Description: "original", Severity: 4,
		Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
	})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}

	if _, err := runCommand(t, "--no-color", "problem", "edit", "1", "--status", "solved"); err != nil {
		t.Fatalf("problem edit: %v", err)
	}

	p, err := store.GetProblem(ctx, id)
	if err != nil {
		t.Fatalf("GetProblem: %v", err)
	}
	if p.Status != vault.ProblemSolved {
		t.Errorf("status = %q, want solved", p.Status)
	}
	// Untouched fields survive the edit.
	if p.Title != "Slow onboarding" || p.Description != "original" || p.Severity != 4 {
		t.Errorf("unrelated fields changed: %+v", p.ProblemFields)
	}
}

func TestProblemRmMissing(t *testing.T) {
	useMemoryStore(t)

	_, err := runCommand(t, "--no-color", "problem", "rm", "99", "--confirm")
	if err == nil {
		t.Fatal("expected error for missing problem")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want it to mention 'not found'", err.Error())
	}
}

func TestProblemRmRequiresConfirm(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	id, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "Slow onboarding", Severity: 4, Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
	})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}

	if _, err := runCommand(t, "--no-color", "problem", "rm", "1"); err != nil {
		t.Fatalf("problem rm without --confirm should not error: %v", err)
	}
	p, err := store.GetProblem(ctx, id)
	if err != nil {
		t.Fatalf("GetProblem: %v", err)
	}
	if p == nil {
		t.Fatal("problem deleted without --confirm")
	}

	if _, err := runCommand(t, "--no-color", "problem", "rm", "1", "--confirm"); err != nil {
		t.Fatalf("problem rm --confirm: %v", err)
	}
	p, err = store.GetProblem(ctx, id)
	if err != nil {
		t.Fatalf("GetProblem: %v", err)
	}
	if p != nil {
		t.Error("problem survived rm --confirm")
	}
}

func TestProblemListFilters(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	if _, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "Slow onboarding", Description: "New users stall on setup",
		Severity: 4, Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if _, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "No audit trail", Severity: 2, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}

	out, err := runCommand(t, "--no-color", "problem", "list", "--severity", "4")
	if err != nil {
		t.Fatalf("problem list --severity: %v", err)
	}
	if !strings.Contains(out, "Slow onboarding") || strings.Contains(out, "No audit trail") {
		t.Errorf("severity filter wrong: %q", out)
	}

	out, err = runCommand(t, "--no-color", "problem", "list", "--search", "users stall")
	if err != nil {
		t.Fatalf("problem list --search: %v", err)
	}
	if !strings.Contains(out, "Slow onboarding") || strings.Contains(out, "No audit trail") {
		t.Errorf("search filter wrong: %q", out)
	}

	out, err = runCommand(t, "--no-color", "problem", "list", "--search", "nothing matches this")
	if err != nil {
		t.Fatalf("problem list --search: %v", err)
	}
	if !strings.Contains(out, "No problems found.") {
		t.Errorf("expected empty result message, got %q", out)
	}
}

func TestLinkAndShow(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	if _, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "Slow onboarding", Severity: 4, Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if _, err := store.CreateIdea(ctx, vault.IdeaFields{
		Title: "Guided setup wizard", Status: vault.IdeaNew,
	}); err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}

	if _, err := runCommand(t, "--no-color", "link", "1", "1"); err != nil {
		t.Fatalf("link: %v", err)
	}

	out, err := runCommand(t, "--no-color", "problem", "show", "1")
	if err != nil {
		t.Fatalf("problem show: %v", err)
	}
	if !strings.Contains(out, "Guided setup wizard") {
		t.Errorf("show output missing linked idea: %q", out)
	}

	out, err = runCommand(t, "--no-color", "idea", "show", "1")
	if err != nil {
		t.Fatalf("idea show: %v", err)
	}
	if !strings.Contains(out, "Slow onboarding") {
		t.Errorf("show output missing linked problem: %q", out)
	}

	// Linking the same pair again is a warning, not an error.
	if _, err := runCommand(t, "--no-color", "link", "1", "1"); err != nil {
		t.Fatalf("duplicate link should not error: %v", err)
	}
}

func TestIdeaSetProblems(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	for j := 0; j < 3; j++ {
		if _, err := store.CreateProblem(ctx, vault.ProblemFields{
			Title: "p", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
		}); err != nil {
			t.Fatalf("CreateProblem: %v", err)
		}
	}
	if _, err := store.CreateIdea(ctx, vault.IdeaFields{Title: "i", Status: vault.IdeaNew}); err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}
	if _, err := store.LinkProblemToIdea(ctx, 3, 1); err != nil {
		t.Fatalf("LinkProblemToIdea: %v", err)
	}

	if _, err := runCommand(t, "--no-color", "idea", "set-problems", "1", "1", "2"); err != nil {
		t.Fatalf("set-problems: %v", err)
	}

	ids, err := store.LinkedProblemIDsForIdea(ctx, 1)
	if err != nil {
		t.Fatalf("LinkedProblemIDsForIdea: %v", err)
	}
	if len(ids) != 2 || ids[0] == 3 || ids[1] == 3 {
		t.Errorf("linked ids = %v, want [1 2]", ids)
	}
}

func TestNoteAddAttachedToMissingProblem(t *testing.T) {
	useMemoryStore(t)

	_, err := runCommand(t, "--no-color", "note", "add", "--content", "x", "--problem", "42")
	if err == nil {
		t.Fatal("expected error for note attached to missing problem")
	}
}

func TestDataExportImportRoundTrip(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	if _, err := runCommand(t, "--no-color", "problem", "add", "--title", "Slow onboarding", "--severity", "4"); err != nil {
		t.Fatalf("problem add: %v", err)
	}
	if _, err := runCommand(t, "--no-color", "idea", "add", "--title", "Guided setup wizard", "--score", "70"); err != nil {
		t.Fatalf("idea add: %v", err)
	}
	if _, err := runCommand(t, "--no-color", "link", "1", "1"); err != nil {
		t.Fatalf("link: %v", err)
	}

	path := filepath.Join(t.TempDir(), "vault.json")
	if _, err := runCommand(t, "--no-color", "data", "export", "--output", path); err != nil {
		t.Fatalf("data export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "Slow onboarding") {
		t.Errorf("export file missing records: %s", data)
	}

	if _, err := runCommand(t, "--no-color", "data", "clear", "--confirm"); err != nil {
		t.Fatalf("data clear: %v", err)
	}
	problems, err := store.ListProblems(ctx)
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected empty vault after clear, got %d problems", len(problems))
	}

	if _, err := runCommand(t, "--no-color", "data", "import", path); err != nil {
		t.Fatalf("data import: %v", err)
	}

	p, err := store.GetProblem(ctx, 1)
	if err != nil {
		t.Fatalf("GetProblem: %v", err)
	}
	if p == nil || p.Title != "Slow onboarding" {
		t.Errorf("problem not restored: %+v", p)
	}
	ids, err := store.LinkedProblemIDsForIdea(ctx, 1)
	if err != nil {
		t.Fatalf("LinkedProblemIDsForIdea: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("links not restored: %v", ids)
	}
}

func TestDataClearRequiresConfirm(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	if _, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "p", Severity: 1, Frequency: vault.FrequencyRare, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}

	if _, err := runCommand(t, "--no-color", "data", "clear"); err != nil {
		t.Fatalf("data clear without --confirm should not error: %v", err)
	}

	problems, err := store.ListProblems(ctx)
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	if len(problems) != 1 {
		t.Errorf("vault should be untouched without --confirm, got %d problems", len(problems))
	}
}

func TestDashboard(t *testing.T) {
	store := useMemoryStore(t)
	ctx := context.Background()

	out, err := runCommand(t, "--no-color", "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, "vault is empty") {
		t.Errorf("empty dashboard should say so: %q", out)
	}

	if _, err := store.CreateProblem(ctx, vault.ProblemFields{
		Title: "Slow onboarding", Severity: 4, Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
	}); err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if _, err := store.CreateIdea(ctx, vault.IdeaFields{Title: "Wizard", Status: vault.IdeaNew}); err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}

	out, err = runCommand(t, "--no-color", "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, want := range []string{"Problems (1)", "Ideas (1)", "Notes (0)", "open", "new", "Slow onboarding", "Wizard"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard output missing %q: %q", want, out)
		}
	}
}
