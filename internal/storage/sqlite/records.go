package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ideavault/internal/vault"
)

const (
	problemCols = "id, title, description, observed_context, severity, frequency, status, tags, created_at, updated_at"
	ideaCols    = "id, title, pitch, target_user, value_prop, differentiation, assumptions, risks, status, score, tags, created_at, updated_at"
	noteCols    = "id, note_type, content, links, problem_id, idea_id, created_at"

	// Newest first; ties resolve to insertion order.
	listOrder = "created_at DESC, id ASC"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanProblem(sc scanner) (vault.Problem, error) {
	var p vault.Problem
	var createdAt, updatedAt string
	if err := sc.Scan(&p.ID, &p.Title, &p.Description, &p.ObservedContext, &p.Severity,
		&p.Frequency, &p.Status, &p.Tags, &createdAt, &updatedAt); err != nil {
		return vault.Problem{}, err
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return vault.Problem{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return vault.Problem{}, err
	}
	return p, nil
}

func collectProblems(rows *sql.Rows) ([]vault.Problem, error) {
	defer rows.Close()
	results := make([]vault.Problem, 0)
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func scanIdea(sc scanner) (vault.Idea, error) {
	var i vault.Idea
	var score sql.NullInt64
	var createdAt, updatedAt string
	if err := sc.Scan(&i.ID, &i.Title, &i.Pitch, &i.TargetUser, &i.ValueProp, &i.Differentiation,
		&i.Assumptions, &i.Risks, &i.Status, &score, &i.Tags, &createdAt, &updatedAt); err != nil {
		return vault.Idea{}, err
	}
	if score.Valid {
		v := int(score.Int64)
		i.Score = &v
	}
	var err error
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return vault.Idea{}, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return vault.Idea{}, err
	}
	return i, nil
}

func collectIdeas(rows *sql.Rows) ([]vault.Idea, error) {
	defer rows.Close()
	results := make([]vault.Idea, 0)
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

func scanNote(sc scanner) (vault.Note, error) {
	var n vault.Note
	var problemID, ideaID sql.NullInt64
	var createdAt string
	if err := sc.Scan(&n.ID, &n.Type, &n.Content, &n.Links, &problemID, &ideaID, &createdAt); err != nil {
		return vault.Note{}, err
	}
	if problemID.Valid {
		v := problemID.Int64
		n.ProblemID = &v
	}
	if ideaID.Valid {
		v := ideaID.Int64
		n.IdeaID = &v
	}
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return vault.Note{}, err
	}
	return n, nil
}

func collectNotes(rows *sql.Rows) ([]vault.Note, error) {
	defer rows.Close()
	results := make([]vault.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

func collectLinks(rows *sql.Rows) ([]vault.Link, error) {
	defer rows.Close()
	results := make([]vault.Link, 0)
	for rows.Next() {
		var l vault.Link
		if err := rows.Scan(&l.ID, &l.ProblemID, &l.IdeaID); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// --- Problems ---

func (s *Store) CreateProblem(ctx context.Context, f vault.ProblemFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	now := formatTime(vault.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO problems (title, description, observed_context, severity, frequency, status, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Title, f.Description, f.ObservedContext, f.Severity, string(f.Frequency), string(f.Status), f.Tags, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting problem: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetProblem(ctx context.Context, id int64) (*vault.Problem, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+problemCols+" FROM problems WHERE id = ?", id)
	p, err := scanProblem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting problem %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListProblems(ctx context.Context) ([]vault.Problem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+problemCols+" FROM problems ORDER BY "+listOrder)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	return collectProblems(rows)
}

func (s *Store) UpdateProblem(ctx context.Context, id int64, f vault.ProblemFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE problems
		SET title = ?, description = ?, observed_context = ?, severity = ?, frequency = ?, status = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		f.Title, f.Description, f.ObservedContext, f.Severity, string(f.Frequency), string(f.Status), f.Tags,
		formatTime(vault.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("updating problem %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteProblem(ctx context.Context, id int64) (bool, error) {
	// Link removal and note set-null happen via FK actions.
	res, err := s.db.ExecContext(ctx, "DELETE FROM problems WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting problem %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountProblemsByStatus(ctx context.Context) (map[vault.ProblemStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM problems GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting problems: %w", err)
	}
	defer rows.Close()

	counts := make(map[vault.ProblemStatus]int)
	for rows.Next() {
		var status vault.ProblemStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *Store) RecentProblems(ctx context.Context, limit int) ([]vault.Problem, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+problemCols+" FROM problems ORDER BY "+listOrder+" LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent problems: %w", err)
	}
	return collectProblems(rows)
}

// --- Ideas ---

func (s *Store) CreateIdea(ctx context.Context, f vault.IdeaFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	now := formatTime(vault.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ideas (title, pitch, target_user, value_prop, differentiation, assumptions, risks, status, score, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Title, f.Pitch, f.TargetUser, f.ValueProp, f.Differentiation, f.Assumptions, f.Risks,
		string(f.Status), scoreValue(f.Score), f.Tags, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting idea: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetIdea(ctx context.Context, id int64) (*vault.Idea, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+ideaCols+" FROM ideas WHERE id = ?", id)
	i, err := scanIdea(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting idea %d: %w", id, err)
	}
	return &i, nil
}

func (s *Store) ListIdeas(ctx context.Context) ([]vault.Idea, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+ideaCols+" FROM ideas ORDER BY "+listOrder)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	return collectIdeas(rows)
}

func (s *Store) UpdateIdea(ctx context.Context, id int64, f vault.IdeaFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE ideas
		SET title = ?, pitch = ?, target_user = ?, value_prop = ?, differentiation = ?, assumptions = ?, risks = ?, status = ?, score = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		f.Title, f.Pitch, f.TargetUser, f.ValueProp, f.Differentiation, f.Assumptions, f.Risks,
		string(f.Status), scoreValue(f.Score), f.Tags, formatTime(vault.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("updating idea %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteIdea(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting idea %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountIdeasByStatus(ctx context.Context) (map[vault.IdeaStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM ideas GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting ideas: %w", err)
	}
	defer rows.Close()

	counts := make(map[vault.IdeaStatus]int)
	for rows.Next() {
		var status vault.IdeaStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *Store) RecentIdeas(ctx context.Context, limit int) ([]vault.Idea, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ideaCols+" FROM ideas ORDER BY "+listOrder+" LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent ideas: %w", err)
	}
	return collectIdeas(rows)
}

// --- Problem-idea links ---

func (s *Store) LinkProblemToIdea(ctx context.Context, problemID, ideaID int64) (bool, error) {
	// OR IGNORE turns a duplicate pair into a no-op; FK violations still error.
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO links (problem_id, idea_id) VALUES (?, ?)", problemID, ideaID)
	if err != nil {
		return false, fmt.Errorf("linking problem %d to idea %d: %w", problemID, ideaID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) UnlinkProblemFromIdea(ctx context.Context, problemID, ideaID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM links WHERE problem_id = ? AND idea_id = ?", problemID, ideaID)
	if err != nil {
		return false, fmt.Errorf("unlinking problem %d from idea %d: %w", problemID, ideaID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) IdeasForProblem(ctx context.Context, problemID int64) ([]vault.Idea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify(ideaCols, "i")+`
		FROM ideas i
		JOIN links l ON l.idea_id = i.id
		WHERE l.problem_id = ?
		ORDER BY i.created_at DESC, i.id ASC`, problemID)
	if err != nil {
		return nil, fmt.Errorf("selecting ideas for problem %d: %w", problemID, err)
	}
	return collectIdeas(rows)
}

func (s *Store) ProblemsForIdea(ctx context.Context, ideaID int64) ([]vault.Problem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify(problemCols, "p")+`
		FROM problems p
		JOIN links l ON l.problem_id = p.id
		WHERE l.idea_id = ?
		ORDER BY p.created_at DESC, p.id ASC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("selecting problems for idea %d: %w", ideaID, err)
	}
	return collectProblems(rows)
}

func (s *Store) LinkedProblemIDsForIdea(ctx context.Context, ideaID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT problem_id FROM links WHERE idea_id = ? ORDER BY id ASC", ideaID)
	if err != nil {
		return nil, fmt.Errorf("selecting problem ids for idea %d: %w", ideaID, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) SetProblemLinksForIdea(ctx context.Context, ideaID int64, problemIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning link replacement: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE idea_id = ?", ideaID); err != nil {
		return fmt.Errorf("clearing links for idea %d: %w", ideaID, err)
	}

	seen := make(map[int64]bool, len(problemIDs))
	for _, pid := range problemIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO links (problem_id, idea_id) VALUES (?, ?)", pid, ideaID); err != nil {
			return fmt.Errorf("linking problem %d to idea %d: %w", pid, ideaID, err)
		}
	}

	return tx.Commit()
}

// qualify prefixes every column in a comma-separated list with a table alias.
func qualify(cols, alias string) string {
	parts := strings.Split(cols, ", ")
	for i, col := range parts {
		parts[i] = alias + "." + col
	}
	return strings.Join(parts, ", ")
}

// --- Notes ---

func (s *Store) CreateNote(ctx context.Context, f vault.NoteFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (note_type, content, links, problem_id, idea_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(f.Type), f.Content, f.Links, refValue(f.ProblemID), refValue(f.IdeaID), formatTime(vault.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting note: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetNote(ctx context.Context, id int64) (*vault.Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noteCols+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting note %d: %w", id, err)
	}
	return &n, nil
}

func (s *Store) ListNotes(ctx context.Context) ([]vault.Note, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+noteCols+" FROM notes ORDER BY "+listOrder)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return collectNotes(rows)
}

func (s *Store) UpdateNote(ctx context.Context, id int64, f vault.NoteFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET note_type = ?, content = ?, links = ?, problem_id = ?, idea_id = ?
		WHERE id = ?`,
		string(f.Type), f.Content, f.Links, refValue(f.ProblemID), refValue(f.IdeaID), id,
	)
	if err != nil {
		return false, fmt.Errorf("updating note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) NotesForProblem(ctx context.Context, problemID int64) ([]vault.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteCols+" FROM notes WHERE problem_id = ? ORDER BY "+listOrder, problemID)
	if err != nil {
		return nil, fmt.Errorf("selecting notes for problem %d: %w", problemID, err)
	}
	return collectNotes(rows)
}

func (s *Store) NotesForIdea(ctx context.Context, ideaID int64) ([]vault.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+noteCols+" FROM notes WHERE idea_id = ? ORDER BY "+listOrder, ideaID)
	if err != nil {
		return nil, fmt.Errorf("selecting notes for idea %d: %w", ideaID, err)
	}
	return collectNotes(rows)
}
