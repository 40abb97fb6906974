// Package worker runs the background summarizers that keep each session's
// rolling summary close to its transcript.
package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/repository"
)

const summaryQueue = "queue:session-summary"

// Enqueuer pushes session ids onto the summary queue. It is the
// chat.SummaryQueue implementation handed to the coordinator.
type Enqueuer struct {
	redis *redis.Client
}

func NewEnqueuer(redisClient *redis.Client) *Enqueuer {
	return &Enqueuer{redis: redisClient}
}

func (e *Enqueuer) Enqueue(ctx context.Context, sessionID string) error {
	return e.redis.LPush(ctx, summaryQueue, sessionID).Err()
}

type Pool struct {
	redis       *redis.Client
	summarizer  *genai.GenerativeModel
	sessionRepo *repository.SessionRepo
	chatRepo    *repository.ChatRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	client *genai.Client,
	modelName string,
	sessionRepo *repository.SessionRepo,
	chatRepo *repository.ChatRepo,
	workerCount int,
) *Pool {
	summarizer := client.GenerativeModel(modelName)
	summarizer.SetTemperature(0.2)

	return &Pool{
		redis:       redisClient,
		summarizer:  summarizer,
		sessionRepo: sessionRepo,
		chatRepo:    chatRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d summary worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Summary worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, summaryQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}
		sessionID := result[1]

		// A session can be enqueued from several turns; only one worker
		// summarizes it at a time.
		lockKey := "summary_lock:" + sessionID
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 5*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		if err := p.summarize(ctx, sessionID); err != nil {
			log.Printf("Summary worker %d: session %s: %v", id, sessionID, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) summarize(ctx context.Context, sessionID string) error {
	session, err := p.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	turns, err := p.chatRepo.QueryRecent(ctx, sessionID, 40)
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}
	if len(turns) == 0 {
		return nil
	}

	prompt := buildSummaryPrompt(session.Summary, turns)

	resp, err := p.summarizer.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("summary generation failed: %w", err)
	}
	summary := flattenResponse(resp)
	if summary == "" {
		return fmt.Errorf("summary generation returned no text")
	}

	if err := p.sessionRepo.UpdateSummary(ctx, sessionID, summary, session.MessageCount); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	// First summarization also names the session.
	if session.Title == "New Chat" {
		if title := deriveTitle(turns); title != "" {
			if err := p.sessionRepo.UpdateTitle(ctx, sessionID, title); err != nil {
				log.Printf("failed to update title for session %s: %v", sessionID, err)
			}
		}
	}

	log.Printf("Summarized session %s through %d messages", sessionID, session.MessageCount)
	return nil
}

func buildSummaryPrompt(previous string, turns []models.ChatTurn) string {
	var b strings.Builder
	b.WriteString("Summarize this tutoring conversation in a compact paragraph. ")
	b.WriteString("Keep the topics covered, what the student struggled with, and any open follow-ups. ")
	b.WriteString("Return only the summary text.\n")

	if previous != "" {
		b.WriteString("\nPrevious summary:\n")
		b.WriteString(previous)
		b.WriteString("\n")
	}

	b.WriteString("\nConversation:\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Message)
	}
	return b.String()
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// deriveTitle names the session after its first user message.
func deriveTitle(turns []models.ChatTurn) string {
	for _, turn := range turns {
		if turn.Role != models.RoleUser {
			continue
		}
		title := strings.TrimSpace(turn.Message)
		if runes := []rune(title); len(runes) > 60 {
			title = strings.TrimSpace(string(runes[:60])) + "..."
		}
		return title
	}
	return ""
}
