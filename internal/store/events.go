package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/models"
)

// EventInput is the user-supplied part of a calendar event. A zero EndDate
// means the event ends when it starts.
type EventInput struct {
	Title       string           `json:"title"`
	StructureID string           `json:"structure_id"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	AllDay      bool             `json:"all_day"`
	Type        models.EventType `json:"type"`
}

// EventRange bounds ListEvents by start time. Zero values are open ends.
type EventRange struct {
	From time.Time
	To   time.Time
}

// CreateEvent stores a new event.
func (s *Store) CreateEvent(ctx context.Context, userID string, in EventInput) (models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Event{}, fmt.Errorf("event title is required: %w", lerrors.ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return models.Event{}, fmt.Errorf("event start_date is required: %w", lerrors.ErrInvalidInput)
	}
	if in.EndDate.IsZero() {
		in.EndDate = in.StartDate
	}
	if in.EndDate.Before(in.StartDate) {
		return models.Event{}, fmt.Errorf("event ends before it starts: %w", lerrors.ErrInvalidInput)
	}
	switch in.Type {
	case "":
		in.Type = models.EventPlain
	case models.EventPlain, models.EventTask:
	default:
		return models.Event{}, fmt.Errorf("unknown event type %q: %w", in.Type, lerrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ownsStructure(ctx, userID, in.StructureID); err != nil {
		return models.Event{}, err
	}

	e := models.Event{
		ID:          uuid.New().String(),
		UserID:      userID,
		StructureID: in.StructureID,
		Title:       title,
		StartDate:   fromMillis(in.StartDate.UnixMilli()),
		EndDate:     fromMillis(in.EndDate.UnixMilli()),
		AllDay:      in.AllDay,
		Type:        in.Type,
		CreatedAt:   fromMillis(s.now().UnixMilli()),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, user_id, structure_id, title, start_at, end_at, all_day, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, nullable(e.StructureID), e.Title,
		e.StartDate.UnixMilli(), e.EndDate.UnixMilli(), e.AllDay, string(e.Type), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

// ListEvents returns the user's events ordered by start time.
func (s *Store) ListEvents(ctx context.Context, userID, structureID string, r EventRange) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := structureFilter(
		`SELECT id, user_id, structure_id, title, start_at, end_at, all_day, type, created_at
		 FROM events WHERE user_id = ?`, []any{userID}, structureID)
	if !r.From.IsZero() {
		query += ` AND start_at >= ?`
		args = append(args, r.From.UnixMilli())
	}
	if !r.To.IsZero() {
		query += ` AND start_at < ?`
		args = append(args, r.To.UnixMilli())
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY start_at, rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffected(res, "event", id)
}

func scanEvent(r rowScanner) (models.Event, error) {
	var e models.Event
	var structureID sql.NullString
	var typ string
	var start, end, createdAt int64
	if err := r.Scan(&e.ID, &e.UserID, &structureID, &e.Title, &start, &end, &e.AllDay, &typ, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan event: %w", err)
	}
	e.StructureID = structureID.String
	e.StartDate = fromMillis(start)
	e.EndDate = fromMillis(end)
	e.Type = models.EventType(typ)
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}
