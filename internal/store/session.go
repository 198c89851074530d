package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one finished detection session.
type SessionRecord struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Frames     uint64    `json:"frames"`
	Detections uint64    `json:"detections"`
	Accuracy   float64   `json:"accuracy"`
	// Error is why the session ended on its own, empty after a normal stop.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the session ran.
func (s *SessionRecord) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository stores finished detection sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts rec, assigning an ID when it has none.
func (r *SessionRepository) Create(rec *SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, username, started_at, ended_at, frames, detections, accuracy, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.StartedAt, rec.EndedAt,
		int64(rec.Frames), int64(rec.Detections), rec.Accuracy, rec.Error,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*SessionRecord, error) {
	row := r.db.QueryRow(
		`SELECT id, username, started_at, ended_at, frames, detections, accuracy, error
		 FROM sessions WHERE id = ?`,
		id,
	)

	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns the most recent sessions first. A limit of zero or less
// returns every session; a non-empty username filters by user.
func (r *SessionRepository) List(username string, limit int) ([]*SessionRecord, error) {
	query := `SELECT id, username, started_at, ended_at, frames, detections, accuracy, error
		 FROM sessions`
	var args []any
	if username != "" {
		query += ` WHERE username = ?`
		args = append(args, username)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}

	return sessions, rows.Err()
}

// Delete removes a session by its ID.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*SessionRecord, error) {
	rec := &SessionRecord{}
	var frames, detections int64
	err := s.Scan(&rec.ID, &rec.Username, &rec.StartedAt, &rec.EndedAt,
		&frames, &detections, &rec.Accuracy, &rec.Error)
	if err != nil {
		return nil, err
	}
	rec.Frames = uint64(frames)
	rec.Detections = uint64(detections)
	return rec, nil
}
