package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/models"
)

// NoteInput is the user-supplied part of a note.
type NoteInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	StructureID string `json:"structure_id"`
}

// CreateNote stores a new note.
func (s *Store) CreateNote(ctx context.Context, userID string, in NoteInput) (models.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Note{}, fmt.Errorf("note title is required: %w", lerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ownsStructure(ctx, userID, in.StructureID); err != nil {
		return models.Note{}, err
	}

	now := fromMillis(s.now().UnixMilli())
	n := models.Note{
		ID:          uuid.New().String(),
		UserID:      userID,
		StructureID: in.StructureID,
		Title:       title,
		Content:     in.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, structure_id, title, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, userID, nullable(n.StructureID), n.Title, n.Content, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("failed to create note: %w", err)
	}
	return n, nil
}

// ListNotes returns the user's notes, most recently updated first.
func (s *Store) ListNotes(ctx context.Context, userID, structureID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := structureFilter(
		`SELECT id, user_id, structure_id, title, content, created_at, updated_at
		 FROM notes WHERE user_id = ?`, []any{userID}, structureID)
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY updated_at DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		var structureID sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(&n.ID, &n.UserID, &structureID, &n.Title, &n.Content, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.StructureID = structureID.String
		n.CreatedAt = fromMillis(createdAt)
		n.UpdatedAt = fromMillis(updatedAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return checkAffected(res, "note", id)
}
