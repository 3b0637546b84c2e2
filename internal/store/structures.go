package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/structure"
)

// ListStructures returns the user's structures in creation order.
func (s *Store) ListStructures(ctx context.Context, userID string) ([]structure.Structure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, levels FROM structures WHERE user_id = ? ORDER BY created_at, rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list structures: %w", err)
	}
	defer rows.Close()

	out := []structure.Structure{}
	for rows.Next() {
		st, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetStructure returns one structure owned by userID.
func (s *Store) GetStructure(ctx context.Context, userID, id string) (structure.Structure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, levels FROM structures WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	st, err := scanStructure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return structure.Structure{}, notFound("structure", id)
	}
	return st, err
}

// CreateStructure normalizes and persists a draft.
func (s *Store) CreateStructure(ctx context.Context, userID string, d structure.Draft) (structure.Structure, error) {
	if err := d.Validate(); err != nil {
		return structure.Structure{}, err
	}
	d = d.Normalize()

	levels, err := json.Marshal(d.Levels)
	if err != nil {
		return structure.Structure{}, fmt.Errorf("failed to encode levels: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := structure.Structure{ID: uuid.New().String(), Name: d.Name, Levels: d.Levels}
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO structures (id, user_id, name, levels, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, userID, st.Name, string(levels), now, now,
	)
	if err != nil {
		return structure.Structure{}, fmt.Errorf("failed to create structure: %w", err)
	}
	s.logger.Debug().Str("user", userID).Str("structure", st.ID).Msg("Structure created")
	return st, nil
}

// UpdateStructureLevels replaces the level list. Empty labels are dropped; a
// list with nothing left is rejected with structure.ErrInvalid.
func (s *Store) UpdateStructureLevels(ctx context.Context, userID, id string, levels []string) (structure.Structure, error) {
	cleaned := structure.CleanLevels(levels)
	if len(cleaned) == 0 {
		return structure.Structure{}, structure.ErrInvalid
	}
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return structure.Structure{}, fmt.Errorf("failed to encode levels: %w", err)
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE structures SET levels = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		string(encoded), s.now().UnixMilli(), userID, id,
	)
	s.mu.Unlock()
	if err != nil {
		return structure.Structure{}, fmt.Errorf("failed to update structure levels: %w", err)
	}
	if err := checkAffected(res, "structure", id); err != nil {
		return structure.Structure{}, err
	}
	return s.GetStructure(ctx, userID, id)
}

// DeleteStructure removes a structure. Entities that referenced it become unscoped.
func (s *Store) DeleteStructure(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM structures WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete structure: %w", err)
	}
	return checkAffected(res, "structure", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStructure(r rowScanner) (structure.Structure, error) {
	var st structure.Structure
	var levels string
	if err := r.Scan(&st.ID, &st.Name, &levels); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, err
		}
		return st, fmt.Errorf("failed to scan structure: %w", err)
	}
	// Decoded leniently, same as at the API boundary.
	st = structure.FromAPI(structure.APIStructure{ID: st.ID, Name: st.Name, Levels: json.RawMessage(levels)})
	return st, nil
}

// ownsStructure verifies an optional structure reference. Callers hold s.mu.
func (s *Store) ownsStructure(ctx context.Context, userID, structureID string) error {
	if structureID == "" {
		return nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM structures WHERE user_id = ? AND id = ?`, userID, structureID,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check structure: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("structure %s: %w", structureID, lerrors.ErrInvalidInput)
	}
	return nil
}
