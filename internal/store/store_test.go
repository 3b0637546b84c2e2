package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/models"
	"github.com/p-blackswan/lifeos/internal/structure"
)

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lifeos.db")
	s, err := New(dbPath, zerolog.Nop())
	require.NoError(t, err)
	s.SetClock(func() time.Time { return fixedNow })
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_CreatesDB(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"structures", "habits", "goals", "events", "notes", "meta"}
	for _, table := range tables {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "2", version)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lifeos.db")
	s, err := New(dbPath, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.CreateStructure(context.Background(), "u1", structure.Draft{Name: "Work", Levels: []string{"Area"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := New(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()
	list, err := s2.ListStructures(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStructures_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.ListStructures(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	created, err := s.CreateStructure(ctx, "u1", structure.Draft{Levels: structure.DefaultLevels})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, structure.DefaultName, created.Name)

	work, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: " Work ", Levels: []string{"Area", " ", "Stream"}})
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, []string{"Area", "Stream"}, work.Levels)

	list, err := s.ListStructures(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, work.ID, list[1].ID)

	updated, err := s.UpdateStructureLevels(ctx, "u1", work.ID, []string{"Area", "Stream", "Ticket"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Area", "Stream", "Ticket"}, updated.Levels)

	_, err = s.UpdateStructureLevels(ctx, "u1", work.ID, []string{" "})
	assert.ErrorIs(t, err, structure.ErrInvalid)

	require.NoError(t, s.DeleteStructure(ctx, "u1", work.ID))
	_, err = s.GetStructure(ctx, "u1", work.ID)
	assert.ErrorIs(t, err, lerrors.ErrNotFound)
}

func TestStructures_InvalidDraft(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateStructure(context.Background(), "u1", structure.Draft{Name: "x", Levels: []string{""}})
	assert.ErrorIs(t, err, structure.ErrInvalid)
}

func TestStructures_ScopedByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: "Mine", Levels: []string{"A"}})
	require.NoError(t, err)

	_, err = s.GetStructure(ctx, "u2", st.ID)
	assert.ErrorIs(t, err, lerrors.ErrNotFound)
	assert.ErrorIs(t, s.DeleteStructure(ctx, "u2", st.ID), lerrors.ErrNotFound)
	_, err = s.UpdateStructureLevels(ctx, "u2", st.ID, []string{"B"})
	assert.ErrorIs(t, err, lerrors.ErrNotFound)
}

func TestStructures_MalformedLevelsColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: "Odd", Levels: []string{"A"}})
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE structures SET levels = '{"not":"a list"}' WHERE id = ?`, st.ID)
	require.NoError(t, err)

	got, err := s.GetStructure(ctx, "u1", st.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Levels)
}

func TestHabits_ToggleAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: "Health", Levels: []string{"Area"}})
	require.NoError(t, err)

	h, err := s.CreateHabit(ctx, "u1", HabitInput{Name: "Run", StructureID: st.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{}, h.CompletedDates)
	assert.Equal(t, fixedNow, h.CreatedAt)

	_, err = s.CreateHabit(ctx, "u1", HabitInput{Name: "Read"})
	require.NoError(t, err)

	h, err = s.ToggleHabitDate(ctx, "u1", h.ID, "2026-03-10")
	require.NoError(t, err)
	h, err = s.ToggleHabitDate(ctx, "u1", h.ID, "2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08", "2026-03-10"}, h.CompletedDates)

	h, err = s.ToggleHabitDate(ctx, "u1", h.ID, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08"}, h.CompletedDates)

	stored, err := s.GetHabit(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-08"}, stored.CompletedDates)

	all, err := s.ListHabits(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	scoped, err := s.ListHabits(ctx, "u1", st.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Run", scoped[0].Name)
}

func TestHabits_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHabit(ctx, "u1", HabitInput{Name: "  "})
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)

	_, err = s.CreateHabit(ctx, "u1", HabitInput{Name: "Run", StructureID: "missing"})
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)

	h, err := s.CreateHabit(ctx, "u1", HabitInput{Name: "Run"})
	require.NoError(t, err)
	_, err = s.ToggleHabitDate(ctx, "u1", h.ID, "10/03/2026")
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)
	_, err = s.ToggleHabitDate(ctx, "u1", "nope", "2026-03-10")
	assert.ErrorIs(t, err, lerrors.ErrNotFound)

	require.NoError(t, s.DeleteHabit(ctx, "u1", h.ID))
	assert.ErrorIs(t, s.DeleteHabit(ctx, "u1", h.ID), lerrors.ErrNotFound)
}

func TestDeleteStructure_UnscopesEntities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: "Health", Levels: []string{"Area"}})
	require.NoError(t, err)
	h, err := s.CreateHabit(ctx, "u1", HabitInput{Name: "Run", StructureID: st.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteStructure(ctx, "u1", st.ID))

	got, err := s.GetHabit(ctx, "u1", h.ID)
	require.NoError(t, err)
	assert.Empty(t, got.StructureID)
}

func TestGoals_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, "u1", GoalInput{Title: "Ship", ProgressPercent: 40})
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, g.Status)

	_, err = s.CreateGoal(ctx, "u1", GoalInput{Title: "Bad", ProgressPercent: 140})
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)
	_, err = s.CreateGoal(ctx, "u1", GoalInput{Title: "Bad", Status: "Paused"})
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)

	progress := 75.0
	status := models.GoalOnHold
	updated, err := s.UpdateGoal(ctx, "u1", g.ID, GoalPatch{ProgressPercent: &progress, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.ProgressPercent)
	assert.Equal(t, models.GoalOnHold, updated.Status)
	assert.Equal(t, "Ship", updated.Title)

	list, err := s.ListGoals(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, updated, list[0])

	_, err = s.UpdateGoal(ctx, "u2", g.ID, GoalPatch{})
	assert.ErrorIs(t, err, lerrors.ErrNotFound)

	require.NoError(t, s.DeleteGoal(ctx, "u1", g.ID))
	list, err = s.ListGoals(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEvents_RangeAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	late := time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC)
	early := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for _, in := range []EventInput{
		{Title: "Late", StartDate: late},
		{Title: "Early", StartDate: early, EndDate: early.Add(time.Hour), Type: models.EventTask},
		{Title: "April", StartDate: april},
	} {
		_, err := s.CreateEvent(ctx, "u1", in)
		require.NoError(t, err)
	}

	march, err := s.ListEvents(ctx, "u1", "", EventRange{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "Early", march[0].Title)
	assert.Equal(t, models.EventTask, march[0].Type)
	assert.Equal(t, "Late", march[1].Title)
	assert.Equal(t, late, march[1].EndDate)

	all, err := s.ListEvents(ctx, "u1", "", EventRange{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEvents_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	cases := []EventInput{
		{Title: "", StartDate: start},
		{Title: "No start"},
		{Title: "Backwards", StartDate: start, EndDate: start.Add(-time.Hour)},
		{Title: "Odd", StartDate: start, Type: "meeting"},
	}
	for _, in := range cases {
		_, err := s.CreateEvent(ctx, "u1", in)
		assert.ErrorIs(t, err, lerrors.ErrInvalidInput, in.Title)
	}
}

func TestNotes_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateNote(ctx, "u1", NoteInput{Title: "First", Content: "a"})
	require.NoError(t, err)
	s.SetClock(func() time.Time { return fixedNow.Add(time.Minute) })
	second, err := s.CreateNote(ctx, "u1", NoteInput{Title: "Second"})
	require.NoError(t, err)

	list, err := s.ListNotes(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = s.CreateNote(ctx, "u1", NoteInput{})
	assert.ErrorIs(t, err, lerrors.ErrInvalidInput)

	require.NoError(t, s.DeleteNote(ctx, "u1", first.ID))
	assert.ErrorIs(t, s.DeleteNote(ctx, "u1", first.ID), lerrors.ErrNotFound)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateStructure(ctx, "u1", structure.Draft{Name: "A", Levels: []string{"x"}})
	require.NoError(t, err)
	_, err = s.CreateHabit(ctx, "u2", HabitInput{Name: "Run"})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, "u2", NoteInput{Title: "n"})
	require.NoError(t, err)

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Users: 2, Structures: 1, Habits: 1, Notes: 1}, c)
}
