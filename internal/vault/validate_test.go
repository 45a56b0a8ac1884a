package vault

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validProblemFields() ProblemFields {
	return ProblemFields{
		Title:     "Slow onboarding",
		Severity:  3,
		Frequency: FrequencyWeekly,
		Status:    ProblemOpen,
	}
}

func validIdeaFields() IdeaFields {
	return IdeaFields{Title: "Guided setup wizard", Status: IdeaNew}
}

func TestProblemFieldsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProblemFields)
		wantErr bool
	}{
		{"valid", func(f *ProblemFields) {}, false},
		{"severity too low", func(f *ProblemFields) { f.Severity = 0 }, true},
		{"severity too high", func(f *ProblemFields) { f.Severity = 6 }, true},
		{"severity boundaries", func(f *ProblemFields) { f.Severity = 5 }, false},
		{"bad frequency", func(f *ProblemFields) { f.Frequency = "hourly" }, true},
		{"bad status", func(f *ProblemFields) { f.Status = "closed" }, true},
		{"empty title allowed", func(f *ProblemFields) { f.Title = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validProblemFields()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIdeaFieldsValidate(t *testing.T) {
	score := func(n int) *int { return &n }

	tests := []struct {
		name    string
		mutate  func(*IdeaFields)
		wantErr bool
	}{
		{"valid without score", func(f *IdeaFields) {}, false},
		{"valid score", func(f *IdeaFields) { f.Score = score(100) }, false},
		{"zero score", func(f *IdeaFields) { f.Score = score(0) }, false},
		{"score too high", func(f *IdeaFields) { f.Score = score(101) }, true},
		{"negative score", func(f *IdeaFields) { f.Score = score(-1) }, true},
		{"bad status", func(f *IdeaFields) { f.Status = "shipped" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validIdeaFields()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNoteFieldsValidate(t *testing.T) {
	require.NoError(t, NoteFields{Type: NoteGeneral, Content: "x"}.Validate())
	require.Error(t, NoteFields{Type: "diary", Content: "x"}.Validate())
}

func TestValidateState(t *testing.T) {
	p := Problem{ID: 1, ProblemFields: validProblemFields()}
	i := Idea{ID: 1, IdeaFields: validIdeaFields()}
	pid, iid := int64(1), int64(1)

	t.Run("consistent state", func(t *testing.T) {
		notes := []Note{{ID: 1, NoteFields: NoteFields{Type: NoteGeneral, Content: "n", ProblemID: &pid, IdeaID: &iid}}}
		links := []Link{{ID: 1, ProblemID: 1, IdeaID: 1}}
		require.NoError(t, ValidateState([]Problem{p}, []Idea{i}, notes, links))
	})

	t.Run("dangling link problem", func(t *testing.T) {
		links := []Link{{ID: 1, ProblemID: 99, IdeaID: 1}}
		require.Error(t, ValidateState([]Problem{p}, []Idea{i}, nil, links))
	})

	t.Run("dangling note idea", func(t *testing.T) {
		missing := int64(42)
		notes := []Note{{ID: 1, NoteFields: NoteFields{Type: NoteGeneral, Content: "n", IdeaID: &missing}}}
		require.Error(t, ValidateState([]Problem{p}, []Idea{i}, notes, nil))
	})

	t.Run("duplicate link pair", func(t *testing.T) {
		links := []Link{
			{ID: 1, ProblemID: 1, IdeaID: 1},
			{ID: 2, ProblemID: 1, IdeaID: 1},
		}
		require.Error(t, ValidateState([]Problem{p}, []Idea{i}, nil, links))
	})

	t.Run("duplicate record id", func(t *testing.T) {
		require.Error(t, ValidateState([]Problem{p, p}, nil, nil, nil))
	})

	t.Run("invalid record field", func(t *testing.T) {
		bad := p
		bad.Severity = 9
		require.Error(t, ValidateState([]Problem{bad}, nil, nil, nil))
	})

	t.Run("empty state", func(t *testing.T) {
		require.NoError(t, ValidateState(nil, nil, nil, nil))
	})
}

func TestValidateCounters(t *testing.T) {
	require.NoError(t, ValidateCounters(map[string]int64{"problems": 3, "ideas": 0, "notes": 1, "links": 2}, nil, nil, nil, nil))
	require.NoError(t, ValidateCounters(nil, nil, nil, nil, nil))
	require.Error(t, ValidateCounters(map[string]int64{"problems": -1}, nil, nil, nil, nil))
	require.Error(t, ValidateCounters(map[string]int64{"widgets": 1}, nil, nil, nil, nil))

	problems := []Problem{{ID: 5}}
	// A counter behind the collection's highest id would reissue id 5.
	require.Error(t, ValidateCounters(map[string]int64{"problems": 2}, problems, nil, nil, nil))
	require.NoError(t, ValidateCounters(map[string]int64{"problems": 5}, problems, nil, nil, nil))
	require.NoError(t, ValidateCounters(map[string]int64{"problems": 9}, problems, nil, nil, nil))
	// An absent counter is not checked; the import path resyncs it instead.
	require.NoError(t, ValidateCounters(map[string]int64{"ideas": 0}, problems, nil, nil, nil))
}
