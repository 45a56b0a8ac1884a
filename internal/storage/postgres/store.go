// Package postgres implements the vault.Store contract on a PostgreSQL
// database via the pgx stdlib driver. The schema mirrors the sqlite backend:
// constraints, link uniqueness, and the cascade / set-null rules live in the
// engine.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"

	"ideavault/internal/vault"
)

const schema = `
CREATE TABLE IF NOT EXISTS problems (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	observed_context TEXT NOT NULL DEFAULT '',
	severity INTEGER NOT NULL CHECK (severity BETWEEN 1 AND 5),
	frequency TEXT NOT NULL CHECK (frequency IN ('rare', 'weekly', 'daily')),
	status TEXT NOT NULL CHECK (status IN ('open', 'solved', 'ignored')),
	tags TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ideas (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	title TEXT NOT NULL,
	pitch TEXT NOT NULL DEFAULT '',
	target_user TEXT NOT NULL DEFAULT '',
	value_prop TEXT NOT NULL DEFAULT '',
	differentiation TEXT NOT NULL DEFAULT '',
	assumptions TEXT NOT NULL DEFAULT '',
	risks TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK (status IN ('new', 'researching', 'validating', 'building', 'parked')),
	score INTEGER CHECK (score IS NULL OR score BETWEEN 0 AND 100),
	tags TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	note_type TEXT NOT NULL CHECK (note_type IN ('interview', 'competitor', 'pricing', 'tech', 'general')),
	content TEXT NOT NULL DEFAULT '',
	links TEXT NOT NULL DEFAULT '',
	problem_id BIGINT REFERENCES problems(id) ON DELETE SET NULL,
	idea_id BIGINT REFERENCES ideas(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	problem_id BIGINT NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
	idea_id BIGINT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
	UNIQUE (problem_id, idea_id)
);

CREATE INDEX IF NOT EXISTS idx_notes_problem ON notes(problem_id);
CREATE INDEX IF NOT EXISTS idx_notes_idea ON notes(idea_id);
CREATE INDEX IF NOT EXISTS idx_links_problem ON links(problem_id);
CREATE INDEX IF NOT EXISTS idx_links_idea ON links(idea_id);
`

// collection id counters map onto the identity sequences behind these tables.
var counterTables = []string{"problems", "ideas", "notes", "links"}

// Store wraps a PostgreSQL connection pool holding the four vault collections.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ vault.Store = (*Store)(nil)

// Open connects to PostgreSQL with the given DSN and ensures the schema
// exists.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	log.Debug("postgres store opened")
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
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
		Counters: make(map[string]int64, len(counterTables)),
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

	for _, name := range counterTables {
		seq, err := readSequence(ctx, tx, name)
		if err != nil {
			return nil, err
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
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.Title, p.Description, p.ObservedContext, p.Severity, string(p.Frequency), string(p.Status), p.Tags,
			p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return false, fmt.Errorf("importing problem %d: %w", p.ID, err)
		}
	}
	for _, i := range merged.Ideas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ideas (id, title, pitch, target_user, value_prop, differentiation, assumptions, risks, status, score, tags, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			i.ID, i.Title, i.Pitch, i.TargetUser, i.ValueProp, i.Differentiation, i.Assumptions, i.Risks,
			string(i.Status), scoreValue(i.Score), i.Tags, i.CreatedAt, i.UpdatedAt,
		); err != nil {
			return false, fmt.Errorf("importing idea %d: %w", i.ID, err)
		}
	}
	for _, n := range merged.Notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, note_type, content, links, problem_id, idea_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			n.ID, string(n.Type), n.Content, n.Links, refValue(n.ProblemID), refValue(n.IdeaID), n.CreatedAt,
		); err != nil {
			return false, fmt.Errorf("importing note %d: %w", n.ID, err)
		}
	}
	for _, l := range merged.Links {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (id, problem_id, idea_id) VALUES ($1, $2, $3)`,
			l.ID, l.ProblemID, l.IdeaID,
		); err != nil {
			return false, fmt.Errorf("importing link %d: %w", l.ID, err)
		}
	}

	// Explicit-id inserts do not advance identity sequences, so resync every
	// counter: provided values are authoritative, otherwise keep the larger
	// of the previous counter and the highest reinserted id.
	maxIDs := map[string]int64{
		"problems": maxProblemID(merged.Problems),
		"ideas":    maxIdeaID(merged.Ideas),
		"notes":    maxNoteID(merged.Notes),
		"links":    maxLinkID(merged.Links),
	}
	for _, name := range counterTables {
		desired, provided := snap.Counters[name]
		if !provided {
			desired = current.Counters[name]
			if maxIDs[name] > desired {
				desired = maxIDs[name]
			}
		}
		if err := setSequence(ctx, tx, name, desired); err != nil {
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
	_, err := s.db.ExecContext(ctx, "TRUNCATE links, notes, problems, ideas RESTART IDENTITY")
	if err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}
	return nil
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

// readSequence reports how many ids the table's identity sequence has issued.
func readSequence(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seqName string
	if err := tx.QueryRowContext(ctx,
		"SELECT pg_get_serial_sequence($1, 'id')", table).Scan(&seqName); err != nil {
		return 0, fmt.Errorf("resolving sequence for %s: %w", table, err)
	}

	var last int64
	var called bool
	if err := tx.QueryRowContext(ctx,
		"SELECT last_value, is_called FROM "+seqName).Scan(&last, &called); err != nil {
		return 0, fmt.Errorf("reading sequence for %s: %w", table, err)
	}
	if !called {
		return 0, nil
	}
	return last, nil
}

func setSequence(ctx context.Context, tx *sql.Tx, table string, seq int64) error {
	var seqName string
	if err := tx.QueryRowContext(ctx,
		"SELECT pg_get_serial_sequence($1, 'id')", table).Scan(&seqName); err != nil {
		return fmt.Errorf("resolving sequence for %s: %w", table, err)
	}

	// setval cannot go below 1; a zero counter is a fresh sequence instead.
	var err error
	if seq <= 0 {
		_, err = tx.ExecContext(ctx, "SELECT setval($1, 1, false)", seqName)
	} else {
		_, err = tx.ExecContext(ctx, "SELECT setval($1, $2, true)", seqName, seq)
	}
	return err
}

func maxProblemID(ps []vault.Problem) int64 {
	var m int64
	for _, p := range ps {
		if p.ID > m {
			m = p.ID
		}
	}
	return m
}

func maxIdeaID(is []vault.Idea) int64 {
	var m int64
	for _, i := range is {
		if i.ID > m {
			m = i.ID
		}
	}
	return m
}

func maxNoteID(ns []vault.Note) int64 {
	var m int64
	for _, n := range ns {
		if n.ID > m {
			m = n.ID
		}
	}
	return m
}

func maxLinkID(ls []vault.Link) int64 {
	var m int64
	for _, l := range ls {
		if l.ID > m {
			m = l.ID
		}
	}
	return m
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
