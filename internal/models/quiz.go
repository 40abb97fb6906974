package models

import "time"

// Quiz session states.
const (
	QuizInProgress = "in_progress"
	QuizCompleted  = "completed"
)

// Option labels are fixed: every question carries exactly these four.
var QuizOptionLabels = []string{"A", "B", "C", "D"}

// QuizSession tracks a quiz's progress. CurrentQuestion and Score advance
// strictly by +1 per answered question; state flips to completed exactly once.
type QuizSession struct {
	SessionID       string             `json:"session_id"`
	Topic           string             `json:"topic"`
	Grade           int                `json:"grade"`
	TotalQuestions  int                `json:"total_questions"`
	CurrentQuestion int                `json:"current_question"`
	Score           int                `json:"score"`
	State           string             `json:"state"`
	History         []QuizHistoryEntry `json:"history"`
	StartedAt       time.Time          `json:"started_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// QuizHistoryEntry is one conversational exchange inside a quiz session.
// The history is bounded to the most recent entries.
type QuizHistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Student   string    `json:"student"`
	Tutor     string    `json:"tutor"`
}

// QuizQuestion is one generated question, immutable after creation except for
// the single answer-recording update.
type QuizQuestion struct {
	SessionID   string            `json:"session_id"`
	Index       int               `json:"q_index"`
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"` // labels A-D
	Correct     string            `json:"correct"`
	Explanation string            `json:"explanation"`
	Topic       string            `json:"topic"`
	Grade       int               `json:"grade"`
	UserAnswer  *string           `json:"user_answer,omitempty"`
	IsCorrect   *bool             `json:"is_correct,omitempty"`
	AnsweredAt  *time.Time        `json:"answered_at,omitempty"`
}

// AnswerResult is the outcome of evaluating a submitted answer.
type AnswerResult struct {
	IsCorrect         bool   `json:"is_correct"`
	UserAnswer        string `json:"user_answer"`
	CorrectAnswer     string `json:"correct_answer"`
	UserChoiceText    string `json:"user_choice_text"`
	CorrectChoiceText string `json:"correct_choice_text"`
	Explanation       string `json:"explanation"`
	Completed         bool   `json:"completed"`
}

// QuizProgress is the read-only status view of a quiz session.
type QuizProgress struct {
	SessionID       string `json:"session_id"`
	CurrentQuestion int    `json:"current_question"`
	Score           int    `json:"score"`
	TotalQuestions  int    `json:"total_questions"`
	State           string `json:"state"`
	Topic           string `json:"topic"`
	Grade           int    `json:"grade"`
}
