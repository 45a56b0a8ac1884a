package redis

import (
	"context"
	"fmt"
	"sort"

	"ideavault/internal/vault"
)

// Collections are stored in id order; list views sort newest first with ties
// resolving to insertion order, matching the SQL backends.

func sortProblemsNewestFirst(ps []vault.Problem) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.After(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

func sortIdeasNewestFirst(is []vault.Idea) {
	sort.SliceStable(is, func(i, j int) bool {
		if !is[i].CreatedAt.Equal(is[j].CreatedAt) {
			return is[i].CreatedAt.After(is[j].CreatedAt)
		}
		return is[i].ID < is[j].ID
	})
}

func sortNotesNewestFirst(ns []vault.Note) {
	sort.SliceStable(ns, func(i, j int) bool {
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return ns[i].ID < ns[j].ID
	})
}

func (s *Store) problemExists(ctx context.Context, id int64) (bool, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range problems {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ideaExists(ctx context.Context, id int64) (bool, error) {
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return false, err
	}
	for _, i := range ideas {
		if i.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// --- Problems ---

func (s *Store) CreateProblem(ctx context.Context, f vault.ProblemFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return 0, err
	}
	id, err := s.nextID(ctx, "problems")
	if err != nil {
		return 0, err
	}

	now := vault.Now()
	problems = append(problems, vault.Problem{
		ID:            id,
		ProblemFields: f,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err := s.save(ctx, "problems", problems); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetProblem(ctx context.Context, id int64) (*vault.Problem, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) ListProblems(ctx context.Context) ([]vault.Problem, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return nil, err
	}
	sortProblemsNewestFirst(problems)
	return problems, nil
}

func (s *Store) UpdateProblem(ctx context.Context, id int64, f vault.ProblemFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return false, err
	}
	for i := range problems {
		if problems[i].ID != id {
			continue
		}
		problems[i].ProblemFields = f
		problems[i].UpdatedAt = vault.Now()
		if err := s.save(ctx, "problems", problems); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *Store) DeleteProblem(ctx context.Context, id int64) (bool, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return false, err
	}

	kept := problems[:0]
	found := false
	for _, p := range problems {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return false, nil
	}
	if err := s.save(ctx, "problems", kept); err != nil {
		return false, err
	}

	// Cascade: drop links to the problem, null note references to it.
	links, err := s.loadLinks(ctx)
	if err != nil {
		return false, err
	}
	keptLinks := links[:0]
	for _, l := range links {
		if l.ProblemID == id {
			continue
		}
		keptLinks = append(keptLinks, l)
	}
	if len(keptLinks) != len(links) {
		if err := s.save(ctx, "links", keptLinks); err != nil {
			return false, err
		}
	}

	notes, err := s.loadNotes(ctx)
	if err != nil {
		return false, err
	}
	changed := false
	for i := range notes {
		if notes[i].ProblemID != nil && *notes[i].ProblemID == id {
			notes[i].ProblemID = nil
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, "notes", notes); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (s *Store) CountProblemsByStatus(ctx context.Context) (map[vault.ProblemStatus]int, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[vault.ProblemStatus]int)
	for _, p := range problems {
		counts[p.Status]++
	}
	return counts, nil
}

func (s *Store) RecentProblems(ctx context.Context, limit int) ([]vault.Problem, error) {
	problems, err := s.ListProblems(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(problems) {
		problems = problems[:limit]
	}
	return problems, nil
}

// --- Ideas ---

func (s *Store) CreateIdea(ctx context.Context, f vault.IdeaFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return 0, err
	}
	id, err := s.nextID(ctx, "ideas")
	if err != nil {
		return 0, err
	}

	now := vault.Now()
	ideas = append(ideas, vault.Idea{
		ID:         id,
		IdeaFields: f,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err := s.save(ctx, "ideas", ideas); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetIdea(ctx context.Context, id int64) (*vault.Idea, error) {
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return nil, err
	}
	for _, i := range ideas {
		if i.ID == id {
			return &i, nil
		}
	}
	return nil, nil
}

func (s *Store) ListIdeas(ctx context.Context) ([]vault.Idea, error) {
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return nil, err
	}
	sortIdeasNewestFirst(ideas)
	return ideas, nil
}

func (s *Store) UpdateIdea(ctx context.Context, id int64, f vault.IdeaFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return false, err
	}
	for i := range ideas {
		if ideas[i].ID != id {
			continue
		}
		ideas[i].IdeaFields = f
		ideas[i].UpdatedAt = vault.Now()
		if err := s.save(ctx, "ideas", ideas); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *Store) DeleteIdea(ctx context.Context, id int64) (bool, error) {
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return false, err
	}

	kept := ideas[:0]
	found := false
	for _, i := range ideas {
		if i.ID == id {
			found = true
			continue
		}
		kept = append(kept, i)
	}
	if !found {
		return false, nil
	}
	if err := s.save(ctx, "ideas", kept); err != nil {
		return false, err
	}

	links, err := s.loadLinks(ctx)
	if err != nil {
		return false, err
	}
	keptLinks := links[:0]
	for _, l := range links {
		if l.IdeaID == id {
			continue
		}
		keptLinks = append(keptLinks, l)
	}
	if len(keptLinks) != len(links) {
		if err := s.save(ctx, "links", keptLinks); err != nil {
			return false, err
		}
	}

	notes, err := s.loadNotes(ctx)
	if err != nil {
		return false, err
	}
	changed := false
	for i := range notes {
		if notes[i].IdeaID != nil && *notes[i].IdeaID == id {
			notes[i].IdeaID = nil
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, "notes", notes); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (s *Store) CountIdeasByStatus(ctx context.Context) (map[vault.IdeaStatus]int, error) {
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[vault.IdeaStatus]int)
	for _, i := range ideas {
		counts[i.Status]++
	}
	return counts, nil
}

func (s *Store) RecentIdeas(ctx context.Context, limit int) ([]vault.Idea, error) {
	ideas, err := s.ListIdeas(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(ideas) {
		ideas = ideas[:limit]
	}
	return ideas, nil
}

// --- Problem-idea links ---

func (s *Store) LinkProblemToIdea(ctx context.Context, problemID, ideaID int64) (bool, error) {
	if ok, err := s.problemExists(ctx, problemID); err != nil {
		return false, err
	} else if !ok {
		return false, fmt.Errorf("linking problem %d to idea %d: problem does not exist", problemID, ideaID)
	}
	if ok, err := s.ideaExists(ctx, ideaID); err != nil {
		return false, err
	} else if !ok {
		return false, fmt.Errorf("linking problem %d to idea %d: idea does not exist", problemID, ideaID)
	}

	links, err := s.loadLinks(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range links {
		if l.ProblemID == problemID && l.IdeaID == ideaID {
			return false, nil
		}
	}

	id, err := s.nextID(ctx, "links")
	if err != nil {
		return false, err
	}
	links = append(links, vault.Link{ID: id, ProblemID: problemID, IdeaID: ideaID})
	if err := s.save(ctx, "links", links); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) UnlinkProblemFromIdea(ctx context.Context, problemID, ideaID int64) (bool, error) {
	links, err := s.loadLinks(ctx)
	if err != nil {
		return false, err
	}
	kept := links[:0]
	found := false
	for _, l := range links {
		if l.ProblemID == problemID && l.IdeaID == ideaID {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return false, nil
	}
	if err := s.save(ctx, "links", kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) IdeasForProblem(ctx context.Context, problemID int64) ([]vault.Idea, error) {
	links, err := s.loadLinks(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool)
	for _, l := range links {
		if l.ProblemID == problemID {
			wanted[l.IdeaID] = true
		}
	}

	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]vault.Idea, 0, len(wanted))
	for _, i := range ideas {
		if wanted[i.ID] {
			matched = append(matched, i)
		}
	}
	sortIdeasNewestFirst(matched)
	return matched, nil
}

func (s *Store) ProblemsForIdea(ctx context.Context, ideaID int64) ([]vault.Problem, error) {
	links, err := s.loadLinks(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool)
	for _, l := range links {
		if l.IdeaID == ideaID {
			wanted[l.ProblemID] = true
		}
	}

	problems, err := s.loadProblems(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]vault.Problem, 0, len(wanted))
	for _, p := range problems {
		if wanted[p.ID] {
			matched = append(matched, p)
		}
	}
	sortProblemsNewestFirst(matched)
	return matched, nil
}

func (s *Store) LinkedProblemIDsForIdea(ctx context.Context, ideaID int64) ([]int64, error) {
	links, err := s.loadLinks(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })

	ids := make([]int64, 0)
	for _, l := range links {
		if l.IdeaID == ideaID {
			ids = append(ids, l.ProblemID)
		}
	}
	return ids, nil
}

func (s *Store) SetProblemLinksForIdea(ctx context.Context, ideaID int64, problemIDs []int64) error {
	if ok, err := s.ideaExists(ctx, ideaID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("setting links for idea %d: idea does not exist", ideaID)
	}
	for _, pid := range problemIDs {
		if ok, err := s.problemExists(ctx, pid); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("linking problem %d to idea %d: problem does not exist", pid, ideaID)
		}
	}

	links, err := s.loadLinks(ctx)
	if err != nil {
		return err
	}
	kept := links[:0]
	for _, l := range links {
		if l.IdeaID == ideaID {
			continue
		}
		kept = append(kept, l)
	}

	seen := make(map[int64]bool, len(problemIDs))
	for _, pid := range problemIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		id, err := s.nextID(ctx, "links")
		if err != nil {
			return err
		}
		kept = append(kept, vault.Link{ID: id, ProblemID: pid, IdeaID: ideaID})
	}

	return s.save(ctx, "links", kept)
}

// --- Notes ---

func (s *Store) CreateNote(ctx context.Context, f vault.NoteFields) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if f.ProblemID != nil {
		if ok, err := s.problemExists(ctx, *f.ProblemID); err != nil {
			return 0, err
		} else if !ok {
			return 0, fmt.Errorf("creating note: problem %d does not exist", *f.ProblemID)
		}
	}
	if f.IdeaID != nil {
		if ok, err := s.ideaExists(ctx, *f.IdeaID); err != nil {
			return 0, err
		} else if !ok {
			return 0, fmt.Errorf("creating note: idea %d does not exist", *f.IdeaID)
		}
	}

	notes, err := s.loadNotes(ctx)
	if err != nil {
		return 0, err
	}
	id, err := s.nextID(ctx, "notes")
	if err != nil {
		return 0, err
	}

	notes = append(notes, vault.Note{
		ID:         id,
		NoteFields: f,
		CreatedAt:  vault.Now(),
	})
	if err := s.save(ctx, "notes", notes); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetNote(ctx context.Context, id int64) (*vault.Note, error) {
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, nil
}

func (s *Store) ListNotes(ctx context.Context) ([]vault.Note, error) {
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	sortNotesNewestFirst(notes)
	return notes, nil
}

func (s *Store) UpdateNote(ctx context.Context, id int64, f vault.NoteFields) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	if f.ProblemID != nil {
		if ok, err := s.problemExists(ctx, *f.ProblemID); err != nil {
			return false, err
		} else if !ok {
			return false, fmt.Errorf("updating note %d: problem %d does not exist", id, *f.ProblemID)
		}
	}
	if f.IdeaID != nil {
		if ok, err := s.ideaExists(ctx, *f.IdeaID); err != nil {
			return false, err
		} else if !ok {
			return false, fmt.Errorf("updating note %d: idea %d does not exist", id, *f.IdeaID)
		}
	}

	notes, err := s.loadNotes(ctx)
	if err != nil {
		return false, err
	}
	for i := range notes {
		if notes[i].ID != id {
			continue
		}
		notes[i].NoteFields = f
		if err := s.save(ctx, "notes", notes); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) (bool, error) {
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return false, err
	}
	kept := notes[:0]
	found := false
	for _, n := range notes {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	if !found {
		return false, nil
	}
	if err := s.save(ctx, "notes", kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) NotesForProblem(ctx context.Context, problemID int64) ([]vault.Note, error) {
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]vault.Note, 0)
	for _, n := range notes {
		if n.ProblemID != nil && *n.ProblemID == problemID {
			matched = append(matched, n)
		}
	}
	sortNotesNewestFirst(matched)
	return matched, nil
}

func (s *Store) NotesForIdea(ctx context.Context, ideaID int64) ([]vault.Note, error) {
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]vault.Note, 0)
	for _, n := range notes {
		if n.IdeaID != nil && *n.IdeaID == ideaID {
			matched = append(matched, n)
		}
	}
	sortNotesNewestFirst(matched)
	return matched, nil
}
