package agents

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/quiz"
)

// quizStore is an in-memory quiz.Store for exercising the quizzer tools.
type quizStore struct {
	session   *models.QuizSession
	questions []models.QuizQuestion
}

func (s *quizStore) CreateSession(_ context.Context, qs *models.QuizSession, questions []models.QuizQuestion) error {
	copied := *qs
	s.session = &copied
	s.questions = append([]models.QuizQuestion(nil), questions...)
	return nil
}

func (s *quizStore) GetSession(_ context.Context, sessionID string) (*models.QuizSession, error) {
	if s.session == nil || s.session.SessionID != sessionID {
		return nil, fmt.Errorf("quiz session not found: %s", sessionID)
	}
	copied := *s.session
	return &copied, nil
}

func (s *quizStore) GetQuestion(_ context.Context, sessionID string, index int) (*models.QuizQuestion, error) {
	if index < 0 || index >= len(s.questions) {
		return nil, fmt.Errorf("question %d not found", index)
	}
	copied := s.questions[index]
	return &copied, nil
}

func (s *quizStore) RecordAnswer(_ context.Context, _ string, index int, answer string, isCorrect bool, completed bool) error {
	s.questions[index].UserAnswer = &answer
	s.questions[index].IsCorrect = &isCorrect
	s.session.CurrentQuestion++
	if isCorrect {
		s.session.Score++
	}
	if completed {
		s.session.State = models.QuizCompleted
	}
	return nil
}

func (s *quizStore) AppendHistory(_ context.Context, _ string, entry models.QuizHistoryEntry) error {
	s.session.History = append(s.session.History, entry)
	return nil
}

func testQuestions() []models.QuizQuestion {
	options := map[string]string{"A": "2", "B": "3", "C": "4", "D": "5"}
	return []models.QuizQuestion{
		{Question: "1+1?", Options: options, Correct: "A", Explanation: "One plus one is two."},
		{Question: "2+2?", Options: options, Correct: "C", Explanation: "Two plus two is four."},
	}
}

func TestSubmitAnswerRecordsExchange(t *testing.T) {
	store := &quizStore{}
	engine := quiz.NewEngine(store)
	if _, err := engine.Create(context.Background(), "quiz-test", "addition", 2, testQuestions()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tool := submitAnswerTool(engine)
	out, err := tool.Run(context.Background(), map[string]any{
		"quiz_session_id": "quiz-test",
		"question_index":  float64(0),
		"answer":          "b",
	})
	if err != nil {
		t.Fatalf("submit_answer failed: %v", err)
	}
	if correct, _ := out["is_correct"].(bool); correct {
		t.Error("Expected wrong answer to be graded incorrect")
	}

	history := store.session.History
	if len(history) != 1 {
		t.Fatalf("Expected 1 transcript entry after answering, got %d", len(history))
	}
	if !strings.Contains(history[0].Student, "question 1") || !strings.Contains(history[0].Student, "B") {
		t.Errorf("Unexpected student line: %q", history[0].Student)
	}
	if !strings.Contains(history[0].Tutor, "the answer was A") || !strings.Contains(history[0].Tutor, "One plus one") {
		t.Errorf("Unexpected tutor line: %q", history[0].Tutor)
	}
	if history[0].Timestamp.IsZero() {
		t.Error("Expected exchange timestamp to be set")
	}
}

func TestAnswerExchangeCorrect(t *testing.T) {
	entry := answerExchange(1, &models.AnswerResult{
		IsCorrect:   true,
		UserAnswer:  "C",
		Explanation: "Two plus two is four.",
	})

	if !strings.Contains(entry.Student, "question 2") {
		t.Errorf("Expected 1-based question number, got %q", entry.Student)
	}
	if !strings.HasPrefix(entry.Tutor, "Correct.") || !strings.Contains(entry.Tutor, "four") {
		t.Errorf("Unexpected tutor line: %q", entry.Tutor)
	}
}
