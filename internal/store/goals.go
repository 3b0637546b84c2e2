package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/models"
)

// GoalInput is the user-supplied part of a new goal.
type GoalInput struct {
	Title           string            `json:"title"`
	StructureID     string            `json:"structure_id"`
	Status          models.GoalStatus `json:"status"`
	ProgressPercent float64           `json:"progress_percent"`
}

// GoalPatch updates the fields that are non-nil.
type GoalPatch struct {
	Title           *string            `json:"title"`
	Status          *models.GoalStatus `json:"status"`
	ProgressPercent *float64           `json:"progress_percent"`
}

func validStatus(st models.GoalStatus) bool {
	switch st {
	case models.GoalActive, models.GoalCompleted, models.GoalOnHold:
		return true
	}
	return false
}

func validProgress(p float64) bool {
	return p >= 0 && p <= 100
}

// CreateGoal stores a new goal. Status defaults to Active.
func (s *Store) CreateGoal(ctx context.Context, userID string, in GoalInput) (models.Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Goal{}, fmt.Errorf("goal title is required: %w", lerrors.ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = models.GoalActive
	}
	if !validStatus(in.Status) {
		return models.Goal{}, fmt.Errorf("unknown goal status %q: %w", in.Status, lerrors.ErrInvalidInput)
	}
	if !validProgress(in.ProgressPercent) {
		return models.Goal{}, fmt.Errorf("progress must be within 0..100: %w", lerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ownsStructure(ctx, userID, in.StructureID); err != nil {
		return models.Goal{}, err
	}

	g := models.Goal{
		ID:              uuid.New().String(),
		UserID:          userID,
		StructureID:     in.StructureID,
		Title:           title,
		Status:          in.Status,
		ProgressPercent: in.ProgressPercent,
		CreatedAt:       fromMillis(s.now().UnixMilli()),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, structure_id, title, status, progress_percent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, userID, nullable(g.StructureID), g.Title, string(g.Status), g.ProgressPercent, g.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return models.Goal{}, fmt.Errorf("failed to create goal: %w", err)
	}
	return g, nil
}

// ListGoals returns the user's goals, optionally limited to one structure.
func (s *Store) ListGoals(ctx context.Context, userID, structureID string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := structureFilter(
		`SELECT id, user_id, structure_id, title, status, progress_percent, created_at
		 FROM goals WHERE user_id = ?`, []any{userID}, structureID)
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	out := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoal applies a patch and returns the updated goal.
func (s *Store) UpdateGoal(ctx context.Context, userID, id string, p GoalPatch) (models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, structure_id, title, status, progress_percent, created_at
		 FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Goal{}, notFound("goal", id)
	}
	if err != nil {
		return models.Goal{}, err
	}

	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return models.Goal{}, fmt.Errorf("goal title is required: %w", lerrors.ErrInvalidInput)
		}
		g.Title = t
	}
	if p.Status != nil {
		if !validStatus(*p.Status) {
			return models.Goal{}, fmt.Errorf("unknown goal status %q: %w", *p.Status, lerrors.ErrInvalidInput)
		}
		g.Status = *p.Status
	}
	if p.ProgressPercent != nil {
		if !validProgress(*p.ProgressPercent) {
			return models.Goal{}, fmt.Errorf("progress must be within 0..100: %w", lerrors.ErrInvalidInput)
		}
		g.ProgressPercent = *p.ProgressPercent
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, status = ?, progress_percent = ? WHERE user_id = ? AND id = ?`,
		g.Title, string(g.Status), g.ProgressPercent, userID, id,
	); err != nil {
		return models.Goal{}, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return checkAffected(res, "goal", id)
}

func scanGoal(r rowScanner) (models.Goal, error) {
	var g models.Goal
	var structureID sql.NullString
	var status string
	var createdAt int64
	if err := r.Scan(&g.ID, &g.UserID, &structureID, &g.Title, &status, &g.ProgressPercent, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("failed to scan goal: %w", err)
	}
	g.StructureID = structureID.String
	g.Status = models.GoalStatus(status)
	g.CreatedAt = fromMillis(createdAt)
	return g, nil
}
