package vault

import "context"

// Store is the record-access contract shared by all persistence backends.
// Backends are constructed explicitly at startup and closed at shutdown.
//
// Failure semantics: a missing id is reported as (nil, nil) or (false, nil),
// never as an error. Creating a duplicate problem-idea link is a (false, nil)
// no-op. Errors are reserved for constraint violations and backend faults.
// Every operation either fully succeeds or leaves the store unchanged, except
// for the cascade effects of deletes (links removed, note references nulled).
type Store interface {
	// Problems.
	CreateProblem(ctx context.Context, fields ProblemFields) (int64, error)
	GetProblem(ctx context.Context, id int64) (*Problem, error)
	ListProblems(ctx context.Context) ([]Problem, error)
	UpdateProblem(ctx context.Context, id int64, fields ProblemFields) (bool, error)
	DeleteProblem(ctx context.Context, id int64) (bool, error)
	CountProblemsByStatus(ctx context.Context) (map[ProblemStatus]int, error)
	RecentProblems(ctx context.Context, limit int) ([]Problem, error)

	// Ideas.
	CreateIdea(ctx context.Context, fields IdeaFields) (int64, error)
	GetIdea(ctx context.Context, id int64) (*Idea, error)
	ListIdeas(ctx context.Context) ([]Idea, error)
	UpdateIdea(ctx context.Context, id int64, fields IdeaFields) (bool, error)
	DeleteIdea(ctx context.Context, id int64) (bool, error)
	CountIdeasByStatus(ctx context.Context) (map[IdeaStatus]int, error)
	RecentIdeas(ctx context.Context, limit int) ([]Idea, error)

	// Problem-idea links.
	LinkProblemToIdea(ctx context.Context, problemID, ideaID int64) (bool, error)
	UnlinkProblemFromIdea(ctx context.Context, problemID, ideaID int64) (bool, error)
	IdeasForProblem(ctx context.Context, problemID int64) ([]Idea, error)
	ProblemsForIdea(ctx context.Context, ideaID int64) ([]Problem, error)
	LinkedProblemIDsForIdea(ctx context.Context, ideaID int64) ([]int64, error)
	SetProblemLinksForIdea(ctx context.Context, ideaID int64, problemIDs []int64) error

	// Notes.
	CreateNote(ctx context.Context, fields NoteFields) (int64, error)
	GetNote(ctx context.Context, id int64) (*Note, error)
	ListNotes(ctx context.Context) ([]Note, error)
	UpdateNote(ctx context.Context, id int64, fields NoteFields) (bool, error)
	DeleteNote(ctx context.Context, id int64) (bool, error)
	NotesForProblem(ctx context.Context, problemID int64) ([]Note, error)
	NotesForIdea(ctx context.Context, ideaID int64) ([]Note, error)

	// Whole-store operations.
	ExportAll(ctx context.Context) (*Snapshot, error)
	ImportAll(ctx context.Context, snap *Snapshot) (bool, error)
	ClearAll(ctx context.Context) error

	Close() error
}
