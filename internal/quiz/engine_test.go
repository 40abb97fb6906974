package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutoria-backend/internal/models"
)

// memStore keeps quiz state in memory with the same write semantics as the
// database-backed store.
type memStore struct {
	sessions  map[string]*models.QuizSession
	questions map[string]map[int]*models.QuizQuestion
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[string]*models.QuizSession),
		questions: make(map[string]map[int]*models.QuizQuestion),
	}
}

func (m *memStore) CreateSession(_ context.Context, qs *models.QuizSession, questions []models.QuizQuestion) error {
	copied := *qs
	m.sessions[qs.SessionID] = &copied
	byIndex := make(map[int]*models.QuizQuestion, len(questions))
	for i := range questions {
		q := questions[i]
		byIndex[q.Index] = &q
	}
	m.questions[qs.SessionID] = byIndex
	return nil
}

func (m *memStore) GetSession(_ context.Context, sessionID string) (*models.QuizSession, error) {
	qs, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.New("quiz session not found")
	}
	copied := *qs
	return &copied, nil
}

func (m *memStore) GetQuestion(_ context.Context, sessionID string, index int) (*models.QuizQuestion, error) {
	q, ok := m.questions[sessionID][index]
	if !ok {
		return nil, errors.New("question not found")
	}
	copied := *q
	return &copied, nil
}

func (m *memStore) RecordAnswer(_ context.Context, sessionID string, index int, answer string, isCorrect bool, completed bool) error {
	qs := m.sessions[sessionID]
	q := m.questions[sessionID][index]

	now := time.Now()
	q.UserAnswer = &answer
	q.IsCorrect = &isCorrect
	q.AnsweredAt = &now

	qs.CurrentQuestion++
	if isCorrect {
		qs.Score++
	}
	if completed {
		qs.State = models.QuizCompleted
	}
	return nil
}

func (m *memStore) AppendHistory(_ context.Context, sessionID string, entry models.QuizHistoryEntry) error {
	qs := m.sessions[sessionID]
	qs.History = append(qs.History, entry)
	return nil
}

func sampleQuestions(n int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, n)
	for i := range questions {
		questions[i] = models.QuizQuestion{
			Question: "What is the answer?",
			Options: map[string]string{
				"A": "first", "B": "second", "C": "third", "D": "fourth",
			},
			Correct:     "B",
			Explanation: "because",
		}
	}
	return questions
}

func mustCreate(t *testing.T, e *Engine, sessionID string, n int) *models.QuizSession {
	t.Helper()
	qs, err := e.Create(context.Background(), sessionID, "fractions", 5, sampleQuestions(n))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return qs
}

func TestCreateValidatesQuestionShape(t *testing.T) {
	e := NewEngine(newMemStore())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(qs []models.QuizQuestion)
	}{
		{"no questions", nil},
		{"missing option", func(qs []models.QuizQuestion) { delete(qs[0].Options, "C") }},
		{"bad correct label", func(qs []models.QuizQuestion) { qs[0].Correct = "E" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var questions []models.QuizQuestion
			if tc.mutate != nil {
				questions = sampleQuestions(2)
				tc.mutate(questions)
			}
			_, err := e.Create(ctx, "s1", "fractions", 5, questions)
			if !errors.Is(err, ErrBadQuestionSet) {
				t.Errorf("Expected ErrBadQuestionSet, got %v", err)
			}
		})
	}
}

func TestCreateNormalizesLabels(t *testing.T) {
	e := NewEngine(newMemStore())
	questions := sampleQuestions(1)
	questions[0].Correct = " b "
	questions[0].Options = map[string]string{
		"a": "first", " B": "second", "c": "third", "d ": "fourth",
	}

	qs, err := e.Create(context.Background(), "s1", "fractions", 5, questions)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if qs.State != models.QuizInProgress {
		t.Errorf("Expected in_progress state, got %s", qs.State)
	}

	result, err := e.Answer(context.Background(), "s1", 0, "b")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !result.IsCorrect {
		t.Error("Expected normalized answer to grade correct")
	}
}

func TestAnswerAdvancesAndCompletes(t *testing.T) {
	store := newMemStore()
	e := NewEngine(store)
	ctx := context.Background()
	mustCreate(t, e, "s1", 2)

	first, err := e.Answer(ctx, "s1", 0, "B")
	if err != nil {
		t.Fatalf("Answer 0 failed: %v", err)
	}
	if !first.IsCorrect || first.Completed {
		t.Errorf("Expected correct, not completed; got %+v", first)
	}

	second, err := e.Answer(ctx, "s1", 1, "a")
	if err != nil {
		t.Fatalf("Answer 1 failed: %v", err)
	}
	if second.IsCorrect {
		t.Error("Expected wrong answer to grade incorrect")
	}
	if !second.Completed {
		t.Error("Expected final answer to complete the quiz")
	}
	if second.CorrectAnswer != "B" || second.CorrectChoiceText != "second" {
		t.Errorf("Expected correct answer B/second, got %s/%s", second.CorrectAnswer, second.CorrectChoiceText)
	}

	status, err := e.Status(ctx, "s1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Score != 1 || status.CurrentQuestion != 2 || status.State != models.QuizCompleted {
		t.Errorf("Unexpected final status: %+v", status)
	}
}

func TestAnswerRejectsStaleIndex(t *testing.T) {
	e := NewEngine(newMemStore())
	ctx := context.Background()
	mustCreate(t, e, "s1", 3)

	if _, err := e.Answer(ctx, "s1", 1, "A"); !errors.Is(err, ErrStaleAnswer) {
		t.Errorf("Expected ErrStaleAnswer for future index, got %v", err)
	}

	if _, err := e.Answer(ctx, "s1", 0, "A"); err != nil {
		t.Fatalf("Answer 0 failed: %v", err)
	}
	if _, err := e.Answer(ctx, "s1", 0, "A"); !errors.Is(err, ErrStaleAnswer) {
		t.Errorf("Expected ErrStaleAnswer for re-answer, got %v", err)
	}
}

func TestAnswerRejectsAfterCompletion(t *testing.T) {
	e := NewEngine(newMemStore())
	ctx := context.Background()
	mustCreate(t, e, "s1", 1)

	if _, err := e.Answer(ctx, "s1", 0, "B"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := e.Answer(ctx, "s1", 1, "B"); !errors.Is(err, ErrStaleAnswer) {
		t.Errorf("Expected ErrStaleAnswer on completed quiz, got %v", err)
	}
}

func TestAnswerRejectsInvalidLabel(t *testing.T) {
	e := NewEngine(newMemStore())
	mustCreate(t, e, "s1", 1)

	if _, err := e.Answer(context.Background(), "s1", 0, "maybe"); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice, got %v", err)
	}
}

func TestCurrentQuestionHidesGrading(t *testing.T) {
	e := NewEngine(newMemStore())
	mustCreate(t, e, "s1", 1)

	q, err := e.CurrentQuestion(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}
	if q.Correct != "" || q.Explanation != "" {
		t.Errorf("Expected grading fields blanked, got correct=%q explanation=%q", q.Correct, q.Explanation)
	}
	if len(q.Options) != 4 {
		t.Errorf("Expected 4 options, got %d", len(q.Options))
	}
}
