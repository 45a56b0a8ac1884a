package vault

import "fmt"

// Validation is declared once here and used by every backend. The SQL
// backends additionally enforce the same rules with CHECK and FK constraints;
// the key-value backend has only these checks.

func (f ProblemFields) Validate() error {
	if f.Severity < 1 || f.Severity > 5 {
		return fmt.Errorf("severity must be between 1 and 5, got %d", f.Severity)
	}
	if !f.Frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", f.Frequency)
	}
	if !f.Status.Valid() {
		return fmt.Errorf("invalid problem status %q", f.Status)
	}
	return nil
}

func (f IdeaFields) Validate() error {
	if !f.Status.Valid() {
		return fmt.Errorf("invalid idea status %q", f.Status)
	}
	if f.Score != nil && (*f.Score < 0 || *f.Score > 100) {
		return fmt.Errorf("score must be between 0 and 100, got %d", *f.Score)
	}
	return nil
}

func (f NoteFields) Validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("invalid note type %q", f.Type)
	}
	return nil
}

// ValidateState checks a full store state: field constraints on every record,
// id uniqueness per collection, link-pair uniqueness, and referential
// integrity of links and note attachments. Backends run it against the
// post-import state before applying a snapshot, so all three reject the same
// payloads and no engine-level constraint ever fires mid-import.
func ValidateState(problems []Problem, ideas []Idea, notes []Note, links []Link) error {
	problemIDs := make(map[int64]bool, len(problems))
	for _, p := range problems {
		if err := p.ProblemFields.Validate(); err != nil {
			return fmt.Errorf("problem %d: %w", p.ID, err)
		}
		if problemIDs[p.ID] {
			return fmt.Errorf("duplicate problem id %d", p.ID)
		}
		problemIDs[p.ID] = true
	}

	ideaIDs := make(map[int64]bool, len(ideas))
	for _, i := range ideas {
		if err := i.IdeaFields.Validate(); err != nil {
			return fmt.Errorf("idea %d: %w", i.ID, err)
		}
		if ideaIDs[i.ID] {
			return fmt.Errorf("duplicate idea id %d", i.ID)
		}
		ideaIDs[i.ID] = true
	}

	noteIDs := make(map[int64]bool, len(notes))
	for _, n := range notes {
		if err := n.NoteFields.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", n.ID, err)
		}
		if noteIDs[n.ID] {
			return fmt.Errorf("duplicate note id %d", n.ID)
		}
		noteIDs[n.ID] = true
		if n.ProblemID != nil && !problemIDs[*n.ProblemID] {
			return fmt.Errorf("note %d references missing problem %d", n.ID, *n.ProblemID)
		}
		if n.IdeaID != nil && !ideaIDs[*n.IdeaID] {
			return fmt.Errorf("note %d references missing idea %d", n.ID, *n.IdeaID)
		}
	}

	linkIDs := make(map[int64]bool, len(links))
	pairs := make(map[[2]int64]bool, len(links))
	for _, l := range links {
		if linkIDs[l.ID] {
			return fmt.Errorf("duplicate link id %d", l.ID)
		}
		linkIDs[l.ID] = true
		pair := [2]int64{l.ProblemID, l.IdeaID}
		if pairs[pair] {
			return fmt.Errorf("duplicate link pair (%d, %d)", l.ProblemID, l.IdeaID)
		}
		pairs[pair] = true
		if !problemIDs[l.ProblemID] {
			return fmt.Errorf("link %d references missing problem %d", l.ID, l.ProblemID)
		}
		if !ideaIDs[l.IdeaID] {
			return fmt.Errorf("link %d references missing idea %d", l.ID, l.IdeaID)
		}
	}

	return nil
}

// ValidateCounters rejects negative counter values, unknown collection names,
// and counters below the highest id in the corresponding collection. A
// counter behind its collection would let a later create reissue an id that
// already exists, so backends check provided counters against the merged
// post-import state.
func ValidateCounters(counters map[string]int64, problems []Problem, ideas []Idea, notes []Note, links []Link) error {
	maxIDs := map[string]int64{"problems": 0, "ideas": 0, "notes": 0, "links": 0}
	for _, p := range problems {
		if p.ID > maxIDs["problems"] {
			maxIDs["problems"] = p.ID
		}
	}
	for _, i := range ideas {
		if i.ID > maxIDs["ideas"] {
			maxIDs["ideas"] = i.ID
		}
	}
	for _, n := range notes {
		if n.ID > maxIDs["notes"] {
			maxIDs["notes"] = n.ID
		}
	}
	for _, l := range links {
		if l.ID > maxIDs["links"] {
			maxIDs["links"] = l.ID
		}
	}

	for name, v := range counters {
		max, known := maxIDs[name]
		if !known {
			return fmt.Errorf("unknown counter %q", name)
		}
		if v < 0 {
			return fmt.Errorf("counter %q is negative: %d", name, v)
		}
		if v < max {
			return fmt.Errorf("counter %q is %d, below the collection's highest id %d", name, v, max)
		}
	}
	return nil
}
