package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutoria-backend/internal/models"
)

// ErrSessionNotFound is returned when a session id resolves to no row.
var ErrSessionNotFound = errors.New("session not found")

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// ConstructSessionID builds a fresh session id of the form
// "{user_id}-{suffix}" where suffix is 8 random alphanumerics.
func ConstructSessionID(userID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return userID + "-" + suffix
}

func (r *SessionRepo) Create(ctx context.Context, userID string) (*models.Session, error) {
	s := &models.Session{
		UserID:    userID,
		SessionID: ConstructSessionID(userID),
		Title:     "New Chat",
	}

	query := `INSERT INTO chat_sessions (session_id, user_id, title)
		VALUES ($1, $2, $3) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, s.SessionID, s.UserID, s.Title).Scan(&s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	s := &models.Session{}
	query := `SELECT session_id, user_id, created_at, title, summary,
		message_count, message_count_summarized, is_deleted, has_ended
		FROM chat_sessions WHERE session_id = $1 AND is_deleted = FALSE`

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&s.SessionID, &s.UserID, &s.CreatedAt, &s.Title, &s.Summary,
		&s.MessageCount, &s.MessageCountSummarized, &s.IsDeleted, &s.HasEnded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	query := `SELECT session_id, user_id, created_at, title, summary,
		message_count, message_count_summarized, is_deleted, has_ended
		FROM chat_sessions WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s := &models.Session{}
		err := rows.Scan(
			&s.SessionID, &s.UserID, &s.CreatedAt, &s.Title, &s.Summary,
			&s.MessageCount, &s.MessageCountSummarized, &s.IsDeleted, &s.HasEnded,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// IncrementMessageCount bumps message_count by one and returns the new value.
func (r *SessionRepo) IncrementMessageCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"UPDATE chat_sessions SET message_count = message_count + 1 WHERE session_id = $1 RETURNING message_count",
		sessionID,
	).Scan(&count)
	return count, err
}

func (r *SessionRepo) UpdateTitle(ctx context.Context, sessionID, title string) error {
	_, err := r.pool.Exec(ctx, "UPDATE chat_sessions SET title = $1 WHERE session_id = $2", title, sessionID)
	return err
}

// UpdateSummary records a new rolling summary together with the message
// count it covers, so the summarizer can tell how far behind it is.
func (r *SessionRepo) UpdateSummary(ctx context.Context, sessionID, summary string, countSummarized int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET summary = $1, message_count_summarized = $2 WHERE session_id = $3",
		summary, countSummarized, sessionID,
	)
	return err
}

func (r *SessionRepo) End(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, "UPDATE chat_sessions SET has_ended = TRUE WHERE session_id = $1", sessionID)
	return err
}

func (r *SessionRepo) SoftDelete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, "UPDATE chat_sessions SET is_deleted = TRUE WHERE session_id = $1", sessionID)
	return err
}
