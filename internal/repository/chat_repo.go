package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutoria-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Insert(ctx context.Context, turn *models.ChatTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	query := `INSERT INTO chat_turns (session_id, user_id, ts, role, message, file_name, stored_name, file_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		turn.SessionID, turn.UserID, turn.Timestamp, turn.Role, turn.Message,
		turn.FileName, turn.StoredName, turn.FileType,
	)
	return err
}

// QueryRecent returns the newest limit turns of a session in chronological
// order. The scan runs newest-first so the limit trims old turns, not new
// ones, and the slice is reversed before returning.
func (r *ChatRepo) QueryRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	query := `SELECT session_id, user_id, ts, role, message, file_name, stored_name, file_type
		FROM chat_turns WHERE session_id = $1
		ORDER BY ts DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		err := rows.Scan(
			&t.SessionID, &t.UserID, &t.Timestamp, &t.Role, &t.Message,
			&t.FileName, &t.StoredName, &t.FileType,
		)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListBySession returns every turn of a session in chronological order.
func (r *ChatRepo) ListBySession(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	query := `SELECT session_id, user_id, ts, role, message, file_name, stored_name, file_type
		FROM chat_turns WHERE session_id = $1
		ORDER BY ts ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		err := rows.Scan(
			&t.SessionID, &t.UserID, &t.Timestamp, &t.Role, &t.Message,
			&t.FileName, &t.StoredName, &t.FileType,
		)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// LatestStoredFile returns the stored object name of the most recent turn in
// the session that carried a file attachment, or nil if none did.
func (r *ChatRepo) LatestStoredFile(ctx context.Context, sessionID string) (*string, error) {
	var stored *string
	query := `SELECT stored_name FROM chat_turns
		WHERE session_id = $1 AND stored_name IS NOT NULL
		ORDER BY ts DESC, id DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}
