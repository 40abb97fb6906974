package agents

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/quiz"
)

// NewQuizzer builds the quiz orchestrator. Question generation runs through
// a JSON-mode model call; grading and progress go through the quiz engine;
// curriculum context comes from invoking the curriculum agent as a tool.
func NewQuizzer(client *genai.Client, modelName string, engine *quiz.Engine, curriculum Runtime) *Agent {
	generator := newJSONModel(client, modelName)

	tools := NewToolset(
		curriculumContextTool(curriculum),
		createQuizTool(generator, engine),
		submitAnswerTool(engine),
		quizStatusTool(engine),
	)
	return New("quizzer", client, modelName, quizzerPersona, tools)
}

func curriculumContextTool(curriculum Runtime) Tool {
	return Tool{
		Name:        "fetch_curriculum_context",
		Description: "Ask the curriculum tutor for reference material on a topic, to ground quiz questions. Call this before create_quiz for curriculum topics.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: "The topic to gather material for.",
				},
			},
			Required: []string{"topic"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			topic := stringArg(args, "topic")
			if topic == "" {
				return nil, fmt.Errorf("topic is required")
			}

			material, err := curriculum.Invoke(ctx,
				"Collect the key curriculum facts a quiz about the following topic should test. Topic: "+topic)
			if err != nil {
				return nil, fmt.Errorf("curriculum lookup failed: %w", err)
			}
			return map[string]any{"status": "ok", "context": material}, nil
		},
	}
}

func createQuizTool(generator *genai.GenerativeModel, engine *quiz.Engine) Tool {
	return Tool{
		Name:        "create_quiz",
		Description: "Generate a new multiple-choice quiz and start a quiz session. Returns the quiz session id and the first question.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: "Quiz topic.",
				},
				"grade": {
					Type:        genai.TypeInteger,
					Description: "Student grade level, 1-12.",
				},
				"question_count": {
					Type:        genai.TypeInteger,
					Description: "Number of questions, default 5.",
				},
				"context": {
					Type:        genai.TypeString,
					Description: "Curriculum context from fetch_curriculum_context, when available.",
				},
			},
			Required: []string{"topic", "grade"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			topic := stringArg(args, "topic")
			if topic == "" {
				return nil, fmt.Errorf("topic is required")
			}
			grade := intArg(args, "grade", 0)
			count := intArg(args, "question_count", 5)
			if count < 1 || count > 20 {
				count = 5
			}

			questions, err := generateQuestions(ctx, generator, topic, grade, count, stringArg(args, "context"))
			if err != nil {
				return nil, err
			}

			quizID := "quiz-" + uuid.NewString()
			if _, err := engine.Create(ctx, quizID, topic, grade, questions); err != nil {
				return nil, err
			}

			first, err := engine.CurrentQuestion(ctx, quizID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"status":          "ok",
				"quiz_session_id": quizID,
				"total_questions": count,
				"first_question":  first,
			}, nil
		},
	}
}

func submitAnswerTool(engine *quiz.Engine) Tool {
	return Tool{
		Name:        "submit_answer",
		Description: "Grade the student's answer to the current question and advance the quiz. Returns correctness, the correct choice and an explanation, plus the next question if any.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"quiz_session_id": {
					Type:        genai.TypeString,
					Description: "Quiz session id from create_quiz.",
				},
				"question_index": {
					Type:        genai.TypeInteger,
					Description: "0-based index of the question being answered.",
				},
				"answer": {
					Type:        genai.TypeString,
					Description: "The student's chosen option label: A, B, C or D.",
				},
			},
			Required: []string{"quiz_session_id", "question_index", "answer"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			quizID := stringArg(args, "quiz_session_id")
			if quizID == "" {
				return nil, fmt.Errorf("quiz_session_id is required")
			}

			index := intArg(args, "question_index", -1)
			result, err := engine.Answer(ctx, quizID, index, stringArg(args, "answer"))
			if err != nil {
				return nil, err
			}

			// The quiz transcript is advisory context; a failed append must
			// not undo a recorded answer.
			if err := engine.RecordExchange(ctx, quizID, answerExchange(index, result)); err != nil {
				log.Printf("failed to record quiz exchange quiz=%s: %v", quizID, err)
			}

			out := map[string]any{
				"status":              "ok",
				"is_correct":          result.IsCorrect,
				"correct_answer":      result.CorrectAnswer,
				"correct_choice_text": result.CorrectChoiceText,
				"explanation":         result.Explanation,
				"completed":           result.Completed,
			}
			if !result.Completed {
				next, err := engine.CurrentQuestion(ctx, quizID)
				if err == nil {
					out["next_question"] = next
				}
			} else if progress, err := engine.Status(ctx, quizID); err == nil {
				out["final_score"] = progress.Score
				out["total_questions"] = progress.TotalQuestions
			}
			return out, nil
		},
	}
}

// answerExchange condenses one graded answer into a transcript entry.
func answerExchange(index int, result *models.AnswerResult) models.QuizHistoryEntry {
	tutor := "Correct."
	if !result.IsCorrect {
		tutor = fmt.Sprintf("Incorrect, the answer was %s.", result.CorrectAnswer)
	}
	if result.Explanation != "" {
		tutor += " " + result.Explanation
	}
	return models.QuizHistoryEntry{
		Timestamp: time.Now().UTC(),
		Student:   fmt.Sprintf("Answered question %d with %s.", index+1, result.UserAnswer),
		Tutor:     tutor,
	}
}

func quizStatusTool(engine *quiz.Engine) Tool {
	return Tool{
		Name:        "quiz_status",
		Description: "Report where a quiz session stands: current question index, score, total questions and state.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"quiz_session_id": {
					Type:        genai.TypeString,
					Description: "Quiz session id from create_quiz.",
				},
			},
			Required: []string{"quiz_session_id"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			quizID := stringArg(args, "quiz_session_id")
			if quizID == "" {
				return nil, fmt.Errorf("quiz_session_id is required")
			}

			progress, err := engine.Status(ctx, quizID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"status": "ok", "progress": progress}, nil
		},
	}
}

func generateQuestions(ctx context.Context, generator *genai.GenerativeModel, topic string, grade, count int, curriculumContext string) ([]models.QuizQuestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `Write %d multiple-choice questions about %q for a grade %d student.

Return a JSON array. Each element must have exactly these fields:
- "question": the question text
- "options": an object with exactly the keys "A", "B", "C", "D"
- "correct": the label of the correct option
- "explanation": one or two sentences explaining the correct answer

Vary which label is correct. Return only the JSON array.`, count, topic, grade)

	if curriculumContext != "" {
		fmt.Fprintf(&b, "\n\nBase the questions strictly on this curriculum material:\n%s", curriculumContext)
	}

	var questions []models.QuizQuestion
	if err := generateJSON(ctx, generator, b.String(), &questions); err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}
	return questions, nil
}
