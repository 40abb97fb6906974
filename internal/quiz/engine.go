// Package quiz tracks multiple-choice quiz progress as an explicit state
// machine over persisted session and question rows.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tutoria-backend/internal/models"
)

var (
	// ErrStaleAnswer signals an answer for any question other than the
	// current one, including answers arriving after completion.
	ErrStaleAnswer = errors.New("answer does not target the current question")

	// ErrInvalidChoice signals a submitted label outside A-D.
	ErrInvalidChoice = errors.New("answer must be one of A, B, C or D")

	// ErrBadQuestionSet signals a generated question set that violates the
	// four-option shape.
	ErrBadQuestionSet = errors.New("question set is malformed")
)

// Store is the persistence surface the engine drives. *repository.QuizRepo
// satisfies it.
type Store interface {
	CreateSession(ctx context.Context, qs *models.QuizSession, questions []models.QuizQuestion) error
	GetSession(ctx context.Context, sessionID string) (*models.QuizSession, error)
	GetQuestion(ctx context.Context, sessionID string, index int) (*models.QuizQuestion, error)
	RecordAnswer(ctx context.Context, sessionID string, index int, answer string, isCorrect bool, completed bool) error
	AppendHistory(ctx context.Context, sessionID string, entry models.QuizHistoryEntry) error
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Create validates a generated question set and persists it together with a
// fresh in-progress session.
func (e *Engine) Create(ctx context.Context, sessionID, topic string, grade int, questions []models.QuizQuestion) (*models.QuizSession, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions generated", ErrBadQuestionSet)
	}

	for i := range questions {
		q := &questions[i]
		q.SessionID = sessionID
		q.Index = i
		q.Topic = topic
		q.Grade = grade
		q.Correct = normalizeLabel(q.Correct)

		if len(q.Options) != len(models.QuizOptionLabels) {
			return nil, fmt.Errorf("%w: question %d has %d options", ErrBadQuestionSet, i, len(q.Options))
		}
		normalized := make(map[string]string, len(q.Options))
		for label, text := range q.Options {
			normalized[normalizeLabel(label)] = text
		}
		for _, label := range models.QuizOptionLabels {
			if _, ok := normalized[label]; !ok {
				return nil, fmt.Errorf("%w: question %d is missing option %s", ErrBadQuestionSet, i, label)
			}
		}
		q.Options = normalized

		if !validLabel(q.Correct) {
			return nil, fmt.Errorf("%w: question %d has correct label %q", ErrBadQuestionSet, i, q.Correct)
		}
	}

	qs := &models.QuizSession{
		SessionID:      sessionID,
		Topic:          topic,
		Grade:          grade,
		TotalQuestions: len(questions),
		State:          models.QuizInProgress,
		History:        []models.QuizHistoryEntry{},
	}
	if err := e.store.CreateSession(ctx, qs, questions); err != nil {
		return nil, err
	}
	return qs, nil
}

// Answer grades a submitted label against the current question. Only the
// current question of an in-progress quiz is answerable; anything else is a
// stale answer. Each question records its answer at most once.
func (e *Engine) Answer(ctx context.Context, sessionID string, index int, submitted string) (*models.AnswerResult, error) {
	qs, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if qs.State != models.QuizInProgress || index != qs.CurrentQuestion {
		return nil, fmt.Errorf("%w: got question %d, current is %d (%s)",
			ErrStaleAnswer, index, qs.CurrentQuestion, qs.State)
	}

	label := normalizeLabel(submitted)
	if !validLabel(label) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, submitted)
	}

	q, err := e.store.GetQuestion(ctx, sessionID, index)
	if err != nil {
		return nil, err
	}
	if q.UserAnswer != nil {
		return nil, fmt.Errorf("%w: question %d already answered", ErrStaleAnswer, index)
	}

	correct := normalizeLabel(q.Correct)
	isCorrect := label == correct
	completed := qs.CurrentQuestion+1 == qs.TotalQuestions

	if err := e.store.RecordAnswer(ctx, sessionID, index, label, isCorrect, completed); err != nil {
		return nil, err
	}

	return &models.AnswerResult{
		IsCorrect:         isCorrect,
		UserAnswer:        label,
		CorrectAnswer:     correct,
		UserChoiceText:    q.Options[label],
		CorrectChoiceText: q.Options[correct],
		Explanation:       q.Explanation,
		Completed:         completed,
	}, nil
}

// Status reports progress without mutating anything.
func (e *Engine) Status(ctx context.Context, sessionID string) (*models.QuizProgress, error) {
	qs, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.QuizProgress{
		SessionID:       qs.SessionID,
		CurrentQuestion: qs.CurrentQuestion,
		Score:           qs.Score,
		TotalQuestions:  qs.TotalQuestions,
		State:           qs.State,
		Topic:           qs.Topic,
		Grade:           qs.Grade,
	}, nil
}

// CurrentQuestion returns the question awaiting an answer, with grading
// fields blanked so they cannot reach the model prompt.
func (e *Engine) CurrentQuestion(ctx context.Context, sessionID string) (*models.QuizQuestion, error) {
	qs, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if qs.State != models.QuizInProgress {
		return nil, fmt.Errorf("%w: quiz is %s", ErrStaleAnswer, qs.State)
	}

	q, err := e.store.GetQuestion(ctx, sessionID, qs.CurrentQuestion)
	if err != nil {
		return nil, err
	}
	q.Correct = ""
	q.Explanation = ""
	return q, nil
}

// RecordExchange appends one tutoring exchange to the quiz transcript.
func (e *Engine) RecordExchange(ctx context.Context, sessionID string, entry models.QuizHistoryEntry) error {
	return e.store.AppendHistory(ctx, sessionID, entry)
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func validLabel(s string) bool {
	for _, label := range models.QuizOptionLabels {
		if s == label {
			return true
		}
	}
	return false
}
