// Package sqlite implements the vault.Store contract on a local SQLite file.
// Field constraints, enum membership, link uniqueness, and the cascade /
// set-null rules are declared in the schema and enforced by the engine.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ideavault/internal/vault"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the four vault collections.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ vault.Store = (*Store)(nil)

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string, log *zap.Logger) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "ideavault.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors and to
	// keep the session pragmas below in effect.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	// Cascade and set-null actions depend on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Debug("sqlite store opened", zap.String("dsn", dsn))
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}

		s.log.Debug("applied migration", zap.Int("version", version))
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Whole-store operations ---

// ExportAll returns every record from all four collections, in insertion
// order, plus the id counters.
func (s *Store) ExportAll(ctx context.Context) (*vault.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning export transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := exportTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	return snap, tx.Commit()
}

func exportTx(ctx context.Context, tx *sql.Tx) (*vault.Snapshot, error) {
	snap := &vault.Snapshot{
		Problems: make([]vault.Problem, 0),
		Ideas:    make([]vault.Idea, 0),
		Notes:    make([]vault.Note, 0),
		Links:    make([]vault.Link, 0),
		Counters: make(map[string]int64, 4),
	}

	rows, err := tx.QueryContext(ctx, "SELECT "+problemCols+" FROM problems ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("exporting problems: %w", err)
	}
	snap.Problems, err = collectProblems(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, "SELECT "+ideaCols+" FROM ideas ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("exporting ideas: %w", err)
	}
	snap.Ideas, err = collectIdeas(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, "SELECT "+noteCols+" FROM notes ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("exporting notes: %w", err)
	}
	snap.Notes, err = collectNotes(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, "SELECT id, problem_id, idea_id FROM links ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("exporting links: %w", err)
	}
	snap.Links, err = collectLinks(rows)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{"problems", "ideas", "notes", "links"} {
		var seq int64
		err := tx.QueryRowContext(ctx, "SELECT seq FROM sqlite_sequence WHERE name = ?", name).Scan(&seq)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("reading sequence for %s: %w", name, err)
		}
		snap.Counters[name] = seq
	}

	return snap, nil
}

// ImportAll replaces the collections present in snap (nil slices leave the
// corresponding collection untouched). The merged post-import state is
// validated before anything is written; an invalid snapshot returns
// (false, nil) with the store unchanged.
func (s *Store) ImportAll(ctx context.Context, snap *vault.Snapshot) (bool, error) {
	if snap == nil {
		return false, nil
	}

	current, err := s.ExportAll(ctx)
	if err != nil {
		return false, err
	}

	merged := mergeSnapshot(current, snap)
	if err := vault.ValidateState(merged.Problems, merged.Ideas, merged.Notes, merged.Links); err != nil {
		s.log.Debug("rejecting snapshot", zap.Error(err))
		return false, nil
	}
	if err := vault.ValidateCounters(snap.Counters, merged.Problems, merged.Ideas, merged.Notes, merged.Links); err != nil {
		s.log.Debug("rejecting snapshot", zap.Error(err))
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	// Rewrite all four collections from the merged state. Untouched
	// collections are reinserted verbatim, which keeps engine-level FK
	// actions from firing against them mid-replacement.
	for _, table := range []string{"links", "notes", "problems", "ideas"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return false, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, p := range merged.Problems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO problems (id, title, description, observed_context, severity, frequency, status, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.ObservedContext, p.Severity, string(p.Frequency), string(p.Status), p.Tags,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		); err != nil {
			return false, fmt.Errorf("importing problem %d: %w", p.ID, err)
		}
	}
	for _, i := range merged.Ideas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ideas (id, title, pitch, target_user, value_prop, differentiation, assumptions, risks, status, score, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i.ID, i.Title, i.Pitch, i.TargetUser, i.ValueProp, i.Differentiation, i.Assumptions, i.Risks,
			string(i.Status), scoreValue(i.Score), i.Tags, formatTime(i.CreatedAt), formatTime(i.UpdatedAt),
		); err != nil {
			return false, fmt.Errorf("importing idea %d: %w", i.ID, err)
		}
	}
	for _, n := range merged.Notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, note_type, content, links, problem_id, idea_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, string(n.Type), n.Content, n.Links, refValue(n.ProblemID), refValue(n.IdeaID), formatTime(n.CreatedAt),
		); err != nil {
			return false, fmt.Errorf("importing note %d: %w", n.ID, err)
		}
	}
	for _, l := range merged.Links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (id, problem_id, idea_id) VALUES (?, ?, ?)`,
			l.ID, l.ProblemID, l.IdeaID,
		); err != nil {
			return false, fmt.Errorf("importing link %d: %w", l.ID, err)
		}
	}

	for name, seq := range snap.Counters {
		if err := setSequence(ctx, tx, name, seq); err != nil {
			return false, fmt.Errorf("setting sequence for %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing import: %w", err)
	}

	s.log.Debug("imported snapshot",
		zap.Int("problems", len(merged.Problems)),
		zap.Int("ideas", len(merged.Ideas)),
		zap.Int("notes", len(merged.Notes)),
		zap.Int("links", len(merged.Links)))
	return true, nil
}

// ClearAll empties every collection and resets the id counters to zero.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning clear transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"links", "notes", "problems", "ideas"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sqlite_sequence WHERE name IN ('problems', 'ideas', 'notes', 'links')",
	); err != nil {
		return fmt.Errorf("resetting sequences: %w", err)
	}

	return tx.Commit()
}

// mergeSnapshot overlays the collections present in snap onto current.
func mergeSnapshot(current, snap *vault.Snapshot) *vault.Snapshot {
	merged := &vault.Snapshot{
		Problems: current.Problems,
		Ideas:    current.Ideas,
		Notes:    current.Notes,
		Links:    current.Links,
	}
	if snap.Problems != nil {
		merged.Problems = snap.Problems
	}
	if snap.Ideas != nil {
		merged.Ideas = snap.Ideas
	}
	if snap.Notes != nil {
		merged.Notes = snap.Notes
	}
	if snap.Links != nil {
		merged.Links = snap.Links
	}
	return merged
}

func setSequence(ctx context.Context, tx *sql.Tx, name string, seq int64) error {
	res, err := tx.ExecContext(ctx, "UPDATE sqlite_sequence SET seq = ? WHERE name = ?", seq, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = tx.ExecContext(ctx, "INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", name, seq)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func scoreValue(score *int) any {
	if score == nil {
		return nil
	}
	return *score
}

func refValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
