package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutoria-backend/internal/models"
)

// ErrQuizNotFound is returned when no quiz state exists for a session.
var ErrQuizNotFound = errors.New("quiz session not found")

// quizHistoryCap bounds the tutoring transcript kept per quiz session.
const quizHistoryCap = 20

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

// CreateSession inserts the quiz state row and its question set in one
// transaction so a half-created quiz can never be observed.
func (r *QuizRepo) CreateSession(ctx context.Context, qs *models.QuizSession, questions []models.QuizQuestion) error {
	historyBytes, _ := json.Marshal(qs.History)
	if historyBytes == nil {
		historyBytes = []byte("[]")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_sessions (session_id, topic, grade, total_questions, current_question, score, state, history)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING started_at, updated_at`,
		qs.SessionID, qs.Topic, qs.Grade, qs.TotalQuestions, qs.CurrentQuestion, qs.Score, qs.State, historyBytes,
	).Scan(&qs.StartedAt, &qs.UpdatedAt)
	if err != nil {
		return err
	}

	for _, q := range questions {
		optionBytes, _ := json.Marshal(q.Options)
		if optionBytes == nil {
			optionBytes = []byte("{}")
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO quiz_questions (session_id, q_index, question, options, correct, explanation, topic, grade)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			q.SessionID, q.Index, q.Question, optionBytes, q.Correct, q.Explanation, q.Topic, q.Grade,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *QuizRepo) GetSession(ctx context.Context, sessionID string) (*models.QuizSession, error) {
	qs := &models.QuizSession{}
	var historyBytes []byte

	query := `SELECT session_id, topic, grade, total_questions, current_question, score, state, history, started_at, updated_at
		FROM quiz_sessions WHERE session_id = $1`

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&qs.SessionID, &qs.Topic, &qs.Grade, &qs.TotalQuestions,
		&qs.CurrentQuestion, &qs.Score, &qs.State, &historyBytes,
		&qs.StartedAt, &qs.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(historyBytes, &qs.History); err != nil {
		return nil, err
	}
	return qs, nil
}

func (r *QuizRepo) GetQuestion(ctx context.Context, sessionID string, index int) (*models.QuizQuestion, error) {
	q := &models.QuizQuestion{}
	var optionBytes []byte

	query := `SELECT session_id, q_index, question, options, correct, explanation, topic, grade,
		user_answer, is_correct, answered_at
		FROM quiz_questions WHERE session_id = $1 AND q_index = $2`

	err := r.pool.QueryRow(ctx, query, sessionID, index).Scan(
		&q.SessionID, &q.Index, &q.Question, &optionBytes, &q.Correct, &q.Explanation,
		&q.Topic, &q.Grade, &q.UserAnswer, &q.IsCorrect, &q.AnsweredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(optionBytes, &q.Options); err != nil {
		return nil, err
	}
	return q, nil
}

// RecordAnswer stores the grading outcome on the question row and advances
// the session cursor and score in the same transaction.
func (r *QuizRepo) RecordAnswer(ctx context.Context, sessionID string, index int, answer string, isCorrect bool, completed bool) error {
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE quiz_questions SET user_answer = $1, is_correct = $2, answered_at = $3
		 WHERE session_id = $4 AND q_index = $5`,
		answer, isCorrect, now, sessionID, index,
	)
	if err != nil {
		return err
	}

	scoreDelta := 0
	if isCorrect {
		scoreDelta = 1
	}
	state := models.QuizInProgress
	if completed {
		state = models.QuizCompleted
	}

	_, err = tx.Exec(ctx,
		`UPDATE quiz_sessions SET current_question = current_question + 1,
		 score = score + $1, state = $2, updated_at = $3
		 WHERE session_id = $4`,
		scoreDelta, state, now, sessionID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AppendHistory adds one tutoring exchange to the session transcript,
// dropping the oldest entries beyond the cap.
func (r *QuizRepo) AppendHistory(ctx context.Context, sessionID string, entry models.QuizHistoryEntry) error {
	qs, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	history := capHistory(append(qs.History, entry))
	historyBytes, err := json.Marshal(history)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		"UPDATE quiz_sessions SET history = $1, updated_at = NOW() WHERE session_id = $2",
		historyBytes, sessionID,
	)
	return err
}

// capHistory keeps the newest quizHistoryCap entries.
func capHistory(history []models.QuizHistoryEntry) []models.QuizHistoryEntry {
	if len(history) > quizHistoryCap {
		return history[len(history)-quizHistoryCap:]
	}
	return history
}
