// Package storagetest holds the behavioral contract suite shared by every
// vault.Store implementation. Backend test packages supply a factory that
// returns an empty store with zeroed counters; the suite asserts identical
// observable behavior across backends.
package storagetest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"ideavault/internal/vault"
)

// Factory returns a fresh, empty store. Cleanup is the caller's job,
// typically via t.Cleanup inside the factory.
type Factory func(t *testing.T) vault.Store

// Run executes the full contract suite against the given factory.
func Run(t *testing.T, open Factory) {
	t.Run("ProblemRoundTrip", func(t *testing.T) { testProblemRoundTrip(t, open) })
	t.Run("ProblemNotFound", func(t *testing.T) { testProblemNotFound(t, open) })
	t.Run("ProblemUpdate", func(t *testing.T) { testProblemUpdate(t, open) })
	t.Run("ProblemDeleteCascades", func(t *testing.T) { testProblemDeleteCascades(t, open) })
	t.Run("IdeaRoundTrip", func(t *testing.T) { testIdeaRoundTrip(t, open) })
	t.Run("IdeaDeleteCascades", func(t *testing.T) { testIdeaDeleteCascades(t, open) })
	t.Run("ValidationRejected", func(t *testing.T) { testValidationRejected(t, open) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, open) })
	t.Run("CountByStatus", func(t *testing.T) { testCountByStatus(t, open) })
	t.Run("Recent", func(t *testing.T) { testRecent(t, open) })
	t.Run("LinkIdempotency", func(t *testing.T) { testLinkIdempotency(t, open) })
	t.Run("LinkJoins", func(t *testing.T) { testLinkJoins(t, open) })
	t.Run("SetProblemLinksForIdea", func(t *testing.T) { testSetProblemLinks(t, open) })
	t.Run("Notes", func(t *testing.T) { testNotes(t, open) })
	t.Run("NoteDanglingReference", func(t *testing.T) { testNoteDanglingReference(t, open) })
	t.Run("IDsAreMonotonic", func(t *testing.T) { testIDsAreMonotonic(t, open) })
	t.Run("ExportClearImport", func(t *testing.T) { testExportClearImport(t, open) })
	t.Run("ImportPartial", func(t *testing.T) { testImportPartial(t, open) })
	t.Run("ImportInvalid", func(t *testing.T) { testImportInvalid(t, open) })
	t.Run("ImportUnderstatedCounter", func(t *testing.T) { testImportUnderstatedCounter(t, open) })
	t.Run("OnboardingScenario", func(t *testing.T) { testOnboardingScenario(t, open) })
}

var ctx = context.Background()

func score(n int) *int { return &n }

func problemFields() vault.ProblemFields {
	return vault.ProblemFields{
		Title:           "Slow onboarding",
		Description:     "New users abandon setup",
		ObservedContext: "B2B SaaS trials",
		Severity:        4,
		Frequency:       vault.FrequencyDaily,
		Status:          vault.ProblemOpen,
		Tags:            "onboarding,churn",
	}
}

func ideaFields() vault.IdeaFields {
	return vault.IdeaFields{
		Title:           "Guided setup wizard",
		Pitch:           "Hold the user's hand through setup",
		TargetUser:      "Trial admins",
		ValueProp:       "First value in five minutes",
		Differentiation: "Product-specific checklists",
		Assumptions:     "Setup friction is the main churn driver",
		Risks:           "Wizard fatigue",
		Status:          vault.IdeaNew,
		Score:           score(70),
		Tags:            "onboarding",
	}
}

func mustCreateProblem(t *testing.T, s vault.Store, f vault.ProblemFields) int64 {
	t.Helper()
	id, err := s.CreateProblem(ctx, f)
	require.NoError(t, err)
	return id
}

func mustCreateIdea(t *testing.T, s vault.Store, f vault.IdeaFields) int64 {
	t.Helper()
	id, err := s.CreateIdea(ctx, f)
	require.NoError(t, err)
	return id
}

func mustCreateNote(t *testing.T, s vault.Store, f vault.NoteFields) int64 {
	t.Helper()
	id, err := s.CreateNote(ctx, f)
	require.NoError(t, err)
	return id
}

func testProblemRoundTrip(t *testing.T, open Factory) {
	s := open(t)
	f := problemFields()

	id := mustCreateProblem(t, s, f)
	require.Equal(t, int64(1), id)

	got, err := s.GetProblem(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, got.ID)
	require.Equal(t, f, got.ProblemFields)
	require.False(t, got.CreatedAt.IsZero())
	require.True(t, got.CreatedAt.Equal(got.UpdatedAt), "created_at must equal updated_at on create")
}

func testProblemNotFound(t *testing.T, open Factory) {
	s := open(t)

	got, err := s.GetProblem(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, got)

	ok, err := s.DeleteProblem(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.UpdateProblem(ctx, 42, problemFields())
	require.NoError(t, err)
	require.False(t, ok)
}

func testProblemUpdate(t *testing.T, open Factory) {
	s := open(t)
	id := mustCreateProblem(t, s, problemFields())

	updated := problemFields()
	updated.Title = "Slow onboarding (enterprise)"
	updated.Severity = 5
	updated.Status = vault.ProblemSolved
	updated.Tags = ""

	ok, err := s.UpdateProblem(ctx, id, updated)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetProblem(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, updated, got.ProblemFields)
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))

	// A failed update must not touch any record.
	other := problemFields()
	other.Title = "untouched"
	ok, err = s.UpdateProblem(ctx, 99, other)
	require.NoError(t, err)
	require.False(t, ok)

	again, err := s.GetProblem(ctx, id)
	require.NoError(t, err)
	require.Equal(t, updated, again.ProblemFields)
}

func testProblemDeleteCascades(t *testing.T, open Factory) {
	s := open(t)
	pid := mustCreateProblem(t, s, problemFields())
	iid := mustCreateIdea(t, s, ideaFields())

	created, err := s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.True(t, created)

	nid := mustCreateNote(t, s, vault.NoteFields{
		Type:      vault.NoteInterview,
		Content:   "User quit during setup",
		ProblemID: &pid,
	})

	ok, err := s.DeleteProblem(ctx, pid)
	require.NoError(t, err)
	require.True(t, ok)

	// The link is gone.
	ideas, err := s.ProblemsForIdea(ctx, iid)
	require.NoError(t, err)
	require.Empty(t, ideas)
	removed, err := s.UnlinkProblemFromIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.False(t, removed)

	// The note survives with its reference nulled.
	note, err := s.GetNote(ctx, nid)
	require.NoError(t, err)
	require.NotNil(t, note)
	require.Nil(t, note.ProblemID)
	require.Equal(t, "User quit during setup", note.Content)

	// The idea is untouched.
	idea, err := s.GetIdea(ctx, iid)
	require.NoError(t, err)
	require.NotNil(t, idea)
}

func testIdeaRoundTrip(t *testing.T, open Factory) {
	s := open(t)

	f := ideaFields()
	id := mustCreateIdea(t, s, f)

	got, err := s.GetIdea(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, f, got.IdeaFields)
	require.True(t, got.CreatedAt.Equal(got.UpdatedAt))

	// Score is optional; absent round-trips as nil.
	bare := vault.IdeaFields{Title: "No score yet", Status: vault.IdeaParked}
	id2 := mustCreateIdea(t, s, bare)
	got2, err := s.GetIdea(ctx, id2)
	require.NoError(t, err)
	require.Nil(t, got2.Score)

	// Update can set and clear the score.
	bare.Score = score(15)
	ok, err := s.UpdateIdea(ctx, id2, bare)
	require.NoError(t, err)
	require.True(t, ok)
	got2, err = s.GetIdea(ctx, id2)
	require.NoError(t, err)
	require.NotNil(t, got2.Score)
	require.Equal(t, 15, *got2.Score)

	bare.Score = nil
	ok, err = s.UpdateIdea(ctx, id2, bare)
	require.NoError(t, err)
	require.True(t, ok)
	got2, err = s.GetIdea(ctx, id2)
	require.NoError(t, err)
	require.Nil(t, got2.Score)
}

func testIdeaDeleteCascades(t *testing.T, open Factory) {
	s := open(t)
	pid := mustCreateProblem(t, s, problemFields())
	iid := mustCreateIdea(t, s, ideaFields())

	_, err := s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)

	nid := mustCreateNote(t, s, vault.NoteFields{
		Type:    vault.NoteCompetitor,
		Content: "Competitor ships a wizard",
		IdeaID:  &iid,
	})

	ok, err := s.DeleteIdea(ctx, iid)
	require.NoError(t, err)
	require.True(t, ok)

	ideas, err := s.IdeasForProblem(ctx, pid)
	require.NoError(t, err)
	require.Empty(t, ideas)

	note, err := s.GetNote(ctx, nid)
	require.NoError(t, err)
	require.NotNil(t, note)
	require.Nil(t, note.IdeaID)
	require.Equal(t, "Competitor ships a wizard", note.Content)
}

func testValidationRejected(t *testing.T, open Factory) {
	s := open(t)

	bad := problemFields()
	bad.Severity = 6
	_, err := s.CreateProblem(ctx, bad)
	require.Error(t, err)

	bad = problemFields()
	bad.Frequency = "hourly"
	_, err = s.CreateProblem(ctx, bad)
	require.Error(t, err)

	badIdea := ideaFields()
	badIdea.Score = score(101)
	_, err = s.CreateIdea(ctx, badIdea)
	require.Error(t, err)

	badNote := vault.NoteFields{Type: "diary", Content: "x"}
	_, err = s.CreateNote(ctx, badNote)
	require.Error(t, err)

	// Nothing was persisted.
	problems, err := s.ListProblems(ctx)
	require.NoError(t, err)
	require.Empty(t, problems)
	ideas, err := s.ListIdeas(ctx)
	require.NoError(t, err)
	require.Empty(t, ideas)
}

func testListOrdering(t *testing.T, open Factory) {
	s := open(t)

	var ids []int64
	for _, title := range []string{"first", "second", "third"} {
		f := problemFields()
		f.Title = title
		ids = append(ids, mustCreateProblem(t, s, f))
	}

	got, err := s.ListProblems(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(ids))

	// Newest first, equal timestamps in insertion order.
	expected := make([]vault.Problem, len(got))
	copy(expected, got)
	sort.SliceStable(expected, func(i, j int) bool {
		if !expected[i].CreatedAt.Equal(expected[j].CreatedAt) {
			return expected[i].CreatedAt.After(expected[j].CreatedAt)
		}
		return expected[i].ID < expected[j].ID
	})
	require.Equal(t, expected, got)

	// All created within the same second means pure insertion order.
	if got[0].CreatedAt.Equal(got[len(got)-1].CreatedAt) {
		require.Equal(t, []int64{ids[0], ids[1], ids[2]}, []int64{got[0].ID, got[1].ID, got[2].ID})
	}
}

func testCountByStatus(t *testing.T, open Factory) {
	s := open(t)

	counts, err := s.CountProblemsByStatus(ctx)
	require.NoError(t, err)
	require.Empty(t, counts)

	ideaCounts, err := s.CountIdeasByStatus(ctx)
	require.NoError(t, err)
	require.Empty(t, ideaCounts)

	for _, status := range []vault.ProblemStatus{vault.ProblemOpen, vault.ProblemOpen, vault.ProblemSolved} {
		f := problemFields()
		f.Status = status
		mustCreateProblem(t, s, f)
	}

	counts, err = s.CountProblemsByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, map[vault.ProblemStatus]int{
		vault.ProblemOpen:   2,
		vault.ProblemSolved: 1,
	}, counts)
}

func testRecent(t *testing.T, open Factory) {
	s := open(t)

	for i := 0; i < 4; i++ {
		mustCreateProblem(t, s, problemFields())
	}

	all, err := s.ListProblems(ctx)
	require.NoError(t, err)

	recent, err := s.RecentProblems(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, all[:2], recent)

	// Limit larger than the collection returns everything.
	recent, err = s.RecentProblems(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, all, recent)

	// Zero and negative limits return nothing.
	for _, limit := range []int{0, -1} {
		recent, err = s.RecentProblems(ctx, limit)
		require.NoError(t, err)
		require.Empty(t, recent)

		ideas, err := s.RecentIdeas(ctx, limit)
		require.NoError(t, err)
		require.Empty(t, ideas)
	}
}

func testLinkIdempotency(t *testing.T, open Factory) {
	s := open(t)
	pid := mustCreateProblem(t, s, problemFields())
	iid := mustCreateIdea(t, s, ideaFields())

	created, err := s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.False(t, created, "duplicate link must be a no-op, not an error")

	removed, err := s.UnlinkProblemFromIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.UnlinkProblemFromIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.False(t, removed)
}

func testLinkJoins(t *testing.T, open Factory) {
	s := open(t)
	p1 := mustCreateProblem(t, s, problemFields())
	p2f := problemFields()
	p2f.Title = "No audit trail"
	p2 := mustCreateProblem(t, s, p2f)
	i1 := mustCreateIdea(t, s, ideaFields())

	for _, pid := range []int64{p1, p2} {
		created, err := s.LinkProblemToIdea(ctx, pid, i1)
		require.NoError(t, err)
		require.True(t, created)
	}

	problems, err := s.ProblemsForIdea(ctx, i1)
	require.NoError(t, err)
	require.Len(t, problems, 2)

	ideas, err := s.IdeasForProblem(ctx, p2)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	require.Equal(t, i1, ideas[0].ID)

	ids, err := s.LinkedProblemIDsForIdea(ctx, i1)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{p1, p2}, ids)
}

func testSetProblemLinks(t *testing.T, open Factory) {
	s := open(t)
	p1 := mustCreateProblem(t, s, problemFields())
	p2 := mustCreateProblem(t, s, problemFields())
	p3 := mustCreateProblem(t, s, problemFields())
	iid := mustCreateIdea(t, s, ideaFields())

	// Prior state must not matter.
	_, err := s.LinkProblemToIdea(ctx, p3, iid)
	require.NoError(t, err)

	require.NoError(t, s.SetProblemLinksForIdea(ctx, iid, []int64{p1, p2, p2}))

	ids, err := s.LinkedProblemIDsForIdea(ctx, iid)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{p1, p2}, ids)

	// Empty set clears all links for the idea.
	require.NoError(t, s.SetProblemLinksForIdea(ctx, iid, nil))
	ids, err = s.LinkedProblemIDsForIdea(ctx, iid)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func testNotes(t *testing.T, open Factory) {
	s := open(t)
	pid := mustCreateProblem(t, s, problemFields())
	iid := mustCreateIdea(t, s, ideaFields())

	n1 := mustCreateNote(t, s, vault.NoteFields{
		Type:      vault.NoteInterview,
		Content:   "Interview with trial admin",
		Links:     "https://example.com/call-notes",
		ProblemID: &pid,
		IdeaID:    &iid,
	})
	n2 := mustCreateNote(t, s, vault.NoteFields{
		Type:    vault.NoteGeneral,
		Content: "Unattached thought",
	})

	got, err := s.GetNote(ctx, n1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, vault.NoteInterview, got.Type)
	require.NotNil(t, got.ProblemID)
	require.NotNil(t, got.IdeaID)
	require.Equal(t, pid, *got.ProblemID)
	require.Equal(t, iid, *got.IdeaID)

	forProblem, err := s.NotesForProblem(ctx, pid)
	require.NoError(t, err)
	require.Len(t, forProblem, 1)
	require.Equal(t, n1, forProblem[0].ID)

	forIdea, err := s.NotesForIdea(ctx, iid)
	require.NoError(t, err)
	require.Len(t, forIdea, 1)

	// Update can detach the note.
	ok, err := s.UpdateNote(ctx, n1, vault.NoteFields{Type: vault.NoteTech, Content: "reclassified"})
	require.NoError(t, err)
	require.True(t, ok)
	got, err = s.GetNote(ctx, n1)
	require.NoError(t, err)
	require.Nil(t, got.ProblemID)
	require.Equal(t, vault.NoteTech, got.Type)

	// Note deletion is a hard delete and never cascades.
	ok, err = s.DeleteNote(ctx, n2)
	require.NoError(t, err)
	require.True(t, ok)
	gone, err := s.GetNote(ctx, n2)
	require.NoError(t, err)
	require.Nil(t, gone)

	p, err := s.GetProblem(ctx, pid)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func testNoteDanglingReference(t *testing.T, open Factory) {
	s := open(t)

	missing := int64(99)
	_, err := s.CreateNote(ctx, vault.NoteFields{
		Type:      vault.NoteGeneral,
		Content:   "points nowhere",
		ProblemID: &missing,
	})
	require.Error(t, err)
}

func testIDsAreMonotonic(t *testing.T, open Factory) {
	s := open(t)

	id1 := mustCreateProblem(t, s, problemFields())
	id2 := mustCreateProblem(t, s, problemFields())
	require.Greater(t, id2, id1)

	// Deleting the latest record must not free its id.
	ok, err := s.DeleteProblem(ctx, id2)
	require.NoError(t, err)
	require.True(t, ok)

	id3 := mustCreateProblem(t, s, problemFields())
	require.Greater(t, id3, id2)
}

func buildState(t *testing.T, s vault.Store) (pid, iid, nid int64) {
	t.Helper()
	pid = mustCreateProblem(t, s, problemFields())
	iid = mustCreateIdea(t, s, ideaFields())
	created, err := s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.True(t, created)
	nid = mustCreateNote(t, s, vault.NoteFields{
		Type:      vault.NotePricing,
		Content:   "Pricing research",
		ProblemID: &pid,
	})
	return pid, iid, nid
}

func testExportClearImport(t *testing.T, open Factory) {
	s := open(t)
	pid, iid, nid := buildState(t, s)

	snap, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Problems, 1)
	require.Len(t, snap.Ideas, 1)
	require.Len(t, snap.Notes, 1)
	require.Len(t, snap.Links, 1)
	require.Equal(t, int64(1), snap.Counters["problems"])
	require.Equal(t, int64(1), snap.Counters["ideas"])
	require.Equal(t, int64(1), snap.Counters["notes"])
	require.Equal(t, int64(1), snap.Counters["links"])

	require.NoError(t, s.ClearAll(ctx))

	problems, err := s.ListProblems(ctx)
	require.NoError(t, err)
	require.Empty(t, problems)

	restored, err := s.ImportAll(ctx, snap)
	require.NoError(t, err)
	require.True(t, restored)

	p, err := s.GetProblem(ctx, pid)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, snap.Problems[0], *p)

	i, err := s.GetIdea(ctx, iid)
	require.NoError(t, err)
	require.NotNil(t, i)
	require.Equal(t, snap.Ideas[0], *i)

	n, err := s.GetNote(ctx, nid)
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Equal(t, snap.Notes[0], *n)

	ids, err := s.LinkedProblemIDsForIdea(ctx, iid)
	require.NoError(t, err)
	require.Equal(t, []int64{pid}, ids)

	// Counters were restored, so new ids continue after the imported ones.
	next := mustCreateProblem(t, s, problemFields())
	require.Equal(t, pid+1, next)
}

func testImportPartial(t *testing.T, open Factory) {
	s := open(t)
	pid, iid, _ := buildState(t, s)

	replacement := &vault.Snapshot{
		Notes: []vault.Note{
			{ID: 7, NoteFields: vault.NoteFields{Type: vault.NoteGeneral, Content: "replaced"}, CreatedAt: vault.Now()},
		},
	}
	ok, err := s.ImportAll(ctx, replacement)
	require.NoError(t, err)
	require.True(t, ok)

	notes, err := s.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, int64(7), notes[0].ID)
	require.Equal(t, "replaced", notes[0].Content)

	// Problems, ideas, and links were left untouched.
	p, err := s.GetProblem(ctx, pid)
	require.NoError(t, err)
	require.NotNil(t, p)
	ids, err := s.LinkedProblemIDsForIdea(ctx, iid)
	require.NoError(t, err)
	require.Equal(t, []int64{pid}, ids)
}

func testImportInvalid(t *testing.T, open Factory) {
	s := open(t)
	buildState(t, s)

	before, err := s.ExportAll(ctx)
	require.NoError(t, err)

	bad := &vault.Snapshot{
		Problems: []vault.Problem{{
			ID: 1,
			ProblemFields: vault.ProblemFields{
				Title: "broken", Severity: 9, Frequency: vault.FrequencyDaily, Status: vault.ProblemOpen,
			},
			CreatedAt: vault.Now(), UpdatedAt: vault.Now(),
		}},
	}
	ok, err := s.ImportAll(ctx, bad)
	require.NoError(t, err)
	require.False(t, ok)

	// A snapshot whose links dangle after merging is rejected too.
	dangling := &vault.Snapshot{
		Links: []vault.Link{{ID: 1, ProblemID: 42, IdeaID: 1}},
	}
	ok, err = s.ImportAll(ctx, dangling)
	require.NoError(t, err)
	require.False(t, ok)

	after, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after, "rejected import must leave the store unchanged")
}

func testImportUnderstatedCounter(t *testing.T, open Factory) {
	s := open(t)

	// A counter behind the collection's highest id would let a later create
	// reissue id 5.
	understated := &vault.Snapshot{
		Problems: []vault.Problem{{
			ID:            5,
			ProblemFields: problemFields(),
			CreatedAt:     vault.Now(), UpdatedAt: vault.Now(),
		}},
		Counters: map[string]int64{"problems": 2},
	}
	ok, err := s.ImportAll(ctx, understated)
	require.NoError(t, err)
	require.False(t, ok, "a counter below the collection's highest id must be rejected")

	after, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Empty(t, after.Problems, "rejected import must leave the store unchanged")
	require.Zero(t, after.Counters["problems"])

	// The same snapshot with an honest counter is accepted, and new ids
	// continue past it.
	understated.Counters["problems"] = 5
	ok, err = s.ImportAll(ctx, understated)
	require.NoError(t, err)
	require.True(t, ok)

	pid := mustCreateProblem(t, s, problemFields())
	require.Equal(t, int64(6), pid)
}

func testOnboardingScenario(t *testing.T, open Factory) {
	s := open(t)

	pid, err := s.CreateProblem(ctx, vault.ProblemFields{
		Title:     "Slow onboarding",
		Severity:  4,
		Frequency: vault.FrequencyDaily,
		Status:    vault.ProblemOpen,
	})
	require.NoError(t, err)

	iid, err := s.CreateIdea(ctx, vault.IdeaFields{
		Title:  "Guided setup wizard",
		Status: vault.IdeaNew,
	})
	require.NoError(t, err)

	created, err := s.LinkProblemToIdea(ctx, pid, iid)
	require.NoError(t, err)
	require.True(t, created)

	ideas, err := s.IdeasForProblem(ctx, pid)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	require.Equal(t, "Guided setup wizard", ideas[0].Title)

	problems, err := s.ProblemsForIdea(ctx, iid)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	require.Equal(t, "Slow onboarding", problems[0].Title)
}
