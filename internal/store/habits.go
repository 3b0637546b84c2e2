package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/models"
)

// HabitInput is the user-supplied part of a habit.
type HabitInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StructureID string `json:"structure_id"`
}

// CreateHabit stores a new habit with no completions.
func (s *Store) CreateHabit(ctx context.Context, userID string, in HabitInput) (models.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Habit{}, fmt.Errorf("habit name is required: %w", lerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ownsStructure(ctx, userID, in.StructureID); err != nil {
		return models.Habit{}, err
	}

	h := models.Habit{
		ID:             uuid.New().String(),
		UserID:         userID,
		StructureID:    in.StructureID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		CompletedDates: []string{},
		CreatedAt:      fromMillis(s.now().UnixMilli()),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habits (id, user_id, structure_id, name, description, completed_dates, created_at)
		 VALUES (?, ?, ?, ?, ?, '[]', ?)`,
		h.ID, userID, nullable(h.StructureID), h.Name, h.Description, h.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to create habit: %w", err)
	}
	return h, nil
}

// ListHabits returns the user's habits, optionally limited to one structure.
func (s *Store) ListHabits(ctx context.Context, userID, structureID string) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := structureFilter(
		`SELECT id, user_id, structure_id, name, description, completed_dates, created_at
		 FROM habits WHERE user_id = ?`, []any{userID}, structureID)
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	out := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHabit returns one habit owned by userID.
func (s *Store) GetHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getHabit(ctx, userID, id)
}

func (s *Store) getHabit(ctx context.Context, userID, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, structure_id, name, description, completed_dates, created_at
		 FROM habits WHERE user_id = ? AND id = ?`, userID, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, notFound("habit", id)
	}
	return h, err
}

// ToggleHabitDate marks date complete, or clears it if it was already complete.
// The stored list stays sorted and free of duplicates.
func (s *Store) ToggleHabitDate(ctx context.Context, userID, id, date string) (models.Habit, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.Habit{}, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, lerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.getHabit(ctx, userID, id)
	if err != nil {
		return models.Habit{}, err
	}

	set := make(map[string]struct{}, len(h.CompletedDates))
	for _, d := range h.CompletedDates {
		set[d] = struct{}{}
	}
	if _, done := set[date]; done {
		delete(set, date)
	} else {
		set[date] = struct{}{}
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	encoded, err := json.Marshal(dates)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to encode completed dates: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE habits SET completed_dates = ? WHERE user_id = ? AND id = ?`,
		string(encoded), userID, id,
	); err != nil {
		return models.Habit{}, fmt.Errorf("failed to toggle habit date: %w", err)
	}
	h.CompletedDates = dates
	return h, nil
}

// DeleteHabit removes a habit.
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	return checkAffected(res, "habit", id)
}

func scanHabit(r rowScanner) (models.Habit, error) {
	var h models.Habit
	var structureID sql.NullString
	var dates string
	var createdAt int64
	if err := r.Scan(&h.ID, &h.UserID, &structureID, &h.Name, &h.Description, &dates, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("failed to scan habit: %w", err)
	}
	h.StructureID = structureID.String
	h.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(dates), &h.CompletedDates); err != nil || h.CompletedDates == nil {
		h.CompletedDates = []string{}
	}
	return h, nil
}
