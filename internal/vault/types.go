// Package vault defines the Idea Vault record types and the Store contract
// implemented by every persistence backend.
package vault

import "time"

// Frequency is how often a problem is observed.
type Frequency string

const (
	FrequencyRare   Frequency = "rare"
	FrequencyWeekly Frequency = "weekly"
	FrequencyDaily  Frequency = "daily"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyRare, FrequencyWeekly, FrequencyDaily:
		return true
	}
	return false
}

// ProblemStatus is the lifecycle state of a problem.
type ProblemStatus string

const (
	ProblemOpen    ProblemStatus = "open"
	ProblemSolved  ProblemStatus = "solved"
	ProblemIgnored ProblemStatus = "ignored"
)

func (s ProblemStatus) Valid() bool {
	switch s {
	case ProblemOpen, ProblemSolved, ProblemIgnored:
		return true
	}
	return false
}

// IdeaStatus is the validation stage of an idea.
type IdeaStatus string

const (
	IdeaNew         IdeaStatus = "new"
	IdeaResearching IdeaStatus = "researching"
	IdeaValidating  IdeaStatus = "validating"
	IdeaBuilding    IdeaStatus = "building"
	IdeaParked      IdeaStatus = "parked"
)

func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaNew, IdeaResearching, IdeaValidating, IdeaBuilding, IdeaParked:
		return true
	}
	return false
}

// NoteType classifies a note.
type NoteType string

const (
	NoteInterview  NoteType = "interview"
	NoteCompetitor NoteType = "competitor"
	NotePricing    NoteType = "pricing"
	NoteTech       NoteType = "tech"
	NoteGeneral    NoteType = "general"
)

func (t NoteType) Valid() bool {
	switch t {
	case NoteInterview, NoteCompetitor, NotePricing, NoteTech, NoteGeneral:
		return true
	}
	return false
}

// ProblemFields holds the mutable fields of a problem.
type ProblemFields struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	ObservedContext string        `json:"observed_context"`
	Severity        int           `json:"severity"`
	Frequency       Frequency     `json:"frequency"`
	Status          ProblemStatus `json:"status"`
	Tags            string        `json:"tags"`
}

// Problem is a recorded pain point.
type Problem struct {
	ID int64 `json:"id"`
	ProblemFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdeaFields holds the mutable fields of an idea.
type IdeaFields struct {
	Title           string     `json:"title"`
	Pitch           string     `json:"pitch"`
	TargetUser      string     `json:"target_user"`
	ValueProp       string     `json:"value_prop"`
	Differentiation string     `json:"differentiation"`
	Assumptions     string     `json:"assumptions"`
	Risks           string     `json:"risks"`
	Status          IdeaStatus `json:"status"`
	Score           *int       `json:"score"`
	Tags            string     `json:"tags"`
}

// Idea is a candidate solution.
type Idea struct {
	ID int64 `json:"id"`
	IdeaFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteFields holds the mutable fields of a note.
type NoteFields struct {
	Type      NoteType `json:"note_type"`
	Content   string   `json:"content"`
	Links     string   `json:"links"`
	ProblemID *int64   `json:"problem_id"`
	IdeaID    *int64   `json:"idea_id"`
}

// Note is a freeform annotation, optionally attached to a problem and/or idea.
type Note struct {
	ID int64 `json:"id"`
	NoteFields
	CreatedAt time.Time `json:"created_at"`
}

// Link associates one problem with one idea. The (ProblemID, IdeaID) pair is
// unique within a store.
type Link struct {
	ID        int64 `json:"id"`
	ProblemID int64 `json:"problem_id"`
	IdeaID    int64 `json:"idea_id"`
}

// Snapshot is a full-store export. A nil collection slice on import means
// "leave that collection untouched"; an empty non-nil slice replaces it with
// nothing. Counters map collection names (problems, ideas, notes, links) to
// their id counters.
type Snapshot struct {
	Problems []Problem        `json:"problems"`
	Ideas    []Idea           `json:"ideas"`
	Notes    []Note           `json:"notes"`
	Links    []Link           `json:"links"`
	Counters map[string]int64 `json:"counters"`
}

// Now returns the timestamp used for created_at/updated_at stamps. Second
// precision keeps values identical across backends and the export format.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
