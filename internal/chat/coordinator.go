// Package chat drives the lifecycle of one conversational turn: session
// resolution, persistence, history compilation, agent streaming with
// reasoning-span filtering, ordered delivery and final-turn persistence.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"tutoria-backend/internal/agents"
	"tutoria-backend/internal/models"
	"tutoria-backend/internal/stream"
)

// Channel delivers ordered events for one turn back to the client.
type Channel interface {
	Deliver(ctx context.Context, event models.DeliveryEvent) error
}

// SessionStore is the session persistence surface the coordinator needs.
// *repository.SessionRepo satisfies it.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Create(ctx context.Context, userID string) (*models.Session, error)
	IncrementMessageCount(ctx context.Context, sessionID string) (int, error)
}

// TurnStore is the transcript persistence surface. *repository.ChatRepo
// satisfies it.
type TurnStore interface {
	Insert(ctx context.Context, turn *models.ChatTurn) error
	QueryRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
	LatestStoredFile(ctx context.Context, sessionID string) (*string, error)
}

// SummaryQueue enqueues sessions whose transcript has outgrown the rolling
// summary. May be nil when summarization is disabled.
type SummaryQueue interface {
	Enqueue(ctx context.Context, sessionID string) error
}

type Coordinator struct {
	sessions      SessionStore
	turns         TurnStore
	registry      *agents.Registry
	contextWindow int

	summaries      SummaryQueue
	summarizeAfter int
}

func NewCoordinator(sessions SessionStore, turns TurnStore, registry *agents.Registry, contextWindow int) *Coordinator {
	if contextWindow <= 0 {
		contextWindow = 8
	}
	return &Coordinator{
		sessions:      sessions,
		turns:         turns,
		registry:      registry,
		contextWindow: contextWindow,
	}
}

// WithSummarization enables summary enqueueing once a session accumulates
// summarizeAfter messages beyond its last summary.
func (c *Coordinator) WithSummarization(queue SummaryQueue, summarizeAfter int) *Coordinator {
	c.summaries = queue
	c.summarizeAfter = summarizeAfter
	return c
}

// Handle runs one turn end to end and returns the final assistant text.
// Delivery events for the turn are strictly ordered: start_of_message, one
// in_progress per non-empty filtered fragment, end_of_message. On failure a
// best-effort error event is delivered and the error is returned.
func (c *Coordinator) Handle(ctx context.Context, req models.TurnRequest, ch Channel) (string, error) {
	text, session, err := c.handle(ctx, req, ch)
	if err != nil {
		c.deliverError(ctx, ch, req, session, err)
		return "", err
	}
	return text, nil
}

func (c *Coordinator) handle(ctx context.Context, req models.TurnRequest, ch Channel) (string, *models.Session, error) {
	// 1. Resolve or create the session.
	var session *models.Session
	var err error
	if req.SessionID != "" {
		session, err = c.sessions.Get(ctx, req.SessionID)
	} else {
		session, err = c.sessions.Create(ctx, req.UserID)
	}
	if err != nil {
		return "", nil, err
	}

	// 2. Persist the inbound user turn, then bump the message count.
	userTurn := &models.ChatTurn{
		SessionID: session.SessionID,
		UserID:    req.UserID,
		Role:      models.RoleUser,
		Message:   req.UserInput,
	}
	if req.FileInput != nil {
		userTurn.FileName = &req.FileInput.FileName
		userTurn.StoredName = &req.FileInput.StoredName
		userTurn.FileType = &req.FileInput.FileType
	}
	if err := c.turns.Insert(ctx, userTurn); err != nil {
		return "", session, fmt.Errorf("failed to persist user turn: %w", err)
	}
	messageCount, err := c.sessions.IncrementMessageCount(ctx, session.SessionID)
	if err != nil {
		return "", session, fmt.Errorf("failed to update session: %w", err)
	}

	// 3. Compile bounded history. The just-persisted user turn comes back
	// as the newest entry; it is passed separately as the input, so drop it.
	recent, err := c.turns.QueryRecent(ctx, session.SessionID, 2*c.contextWindow)
	if err != nil {
		return "", session, fmt.Errorf("failed to load history: %w", err)
	}
	if n := len(recent); n > 0 && recent[n-1].Role == models.RoleUser && recent[n-1].Message == req.UserInput {
		recent = recent[:n-1]
	}
	history := CompileHistory(recent, session.Summary)

	// 4. Select the agent.
	runtime, err := c.registry.Get(req.Agent)
	if err != nil {
		return "", session, err
	}

	// 5. Stream through the reasoning filter, delivering as we go.
	if err := c.deliver(ctx, ch, session, req, "", models.EventStartOfMessage); err != nil {
		log.Printf("delivery failed (start_of_message) session=%s: %v", session.SessionID, err)
	}

	input := composeInput(req)
	if req.FileInput == nil {
		// Turns like "explain page 3 of the file I sent" arrive without an
		// attachment; remind the agent what the session already holds.
		stored, err := c.turns.LatestStoredFile(ctx, session.SessionID)
		if err != nil {
			log.Printf("failed to look up session attachments session=%s: %v", session.SessionID, err)
		} else if stored != nil {
			input += fmt.Sprintf("\n\n[Earlier in this session the student uploaded a file stored as %q. Use the fetch_document tool if their message refers to it.]", *stored)
		}
	}

	tokens, err := runtime.Stream(ctx, history, input)
	if err != nil {
		return "", session, fmt.Errorf("failed to start agent stream: %w", err)
	}

	filter := stream.NewThinkingFilter()
	var assembled strings.Builder

	emit := func(fragment string) {
		if fragment == "" {
			return
		}
		assembled.WriteString(fragment)
		// Delivery is best-effort: a lost client must not lose the transcript.
		if err := c.deliver(ctx, ch, session, req, fragment, models.EventInProgress); err != nil {
			log.Printf("delivery failed (in_progress) session=%s: %v", session.SessionID, err)
		}
	}

	for {
		fragment, err := tokens.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep whatever was already produced before re-raising.
			if partial := assembled.String() + filter.Flush(); strings.TrimSpace(partial) != "" {
				if perr := c.persistAssistantTurn(ctx, session, req, partial); perr != nil {
					log.Printf("failed to persist partial transcript session=%s: %v", session.SessionID, perr)
				}
			}
			return "", session, fmt.Errorf("stream failed: %w", err)
		}
		emit(filter.Feed(fragment))
	}
	emit(filter.Flush())

	// 6. Close the turn and persist the assembled response exactly once.
	finalText := assembled.String()
	if err := c.deliver(ctx, ch, session, req, finalText, models.EventEndOfMessage); err != nil {
		log.Printf("delivery failed (end_of_message) session=%s: %v", session.SessionID, err)
	}
	if err := c.persistAssistantTurn(ctx, session, req, finalText); err != nil {
		return "", session, err
	}

	c.maybeEnqueueSummary(ctx, session, messageCount)

	return finalText, session, nil
}

func (c *Coordinator) persistAssistantTurn(ctx context.Context, session *models.Session, req models.TurnRequest, text string) error {
	turn := &models.ChatTurn{
		SessionID: session.SessionID,
		UserID:    req.UserID,
		Role:      models.RoleAssistant,
		Message:   text,
	}
	if err := c.turns.Insert(ctx, turn); err != nil {
		return fmt.Errorf("failed to persist assistant turn: %w", err)
	}
	if _, err := c.sessions.IncrementMessageCount(ctx, session.SessionID); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (c *Coordinator) maybeEnqueueSummary(ctx context.Context, session *models.Session, messageCount int) {
	if c.summaries == nil || c.summarizeAfter <= 0 {
		return
	}
	// messageCount was read after the user turn; the assistant turn adds one.
	if messageCount+1-session.MessageCountSummarized < c.summarizeAfter {
		return
	}
	if err := c.summaries.Enqueue(ctx, session.SessionID); err != nil {
		log.Printf("failed to enqueue summary for session=%s: %v", session.SessionID, err)
	}
}

func (c *Coordinator) deliver(ctx context.Context, ch Channel, session *models.Session, req models.TurnRequest, response, eventType string) error {
	return ch.Deliver(ctx, models.DeliveryEvent{
		SessionID:     session.SessionID,
		UserInput:     req.UserInput,
		AgentResponse: response,
		Type:          eventType,
	})
}

func (c *Coordinator) deliverError(ctx context.Context, ch Channel, req models.TurnRequest, session *models.Session, cause error) {
	event := models.DeliveryEvent{
		SessionID: req.SessionID,
		UserInput: req.UserInput,
		Type:      models.EventError,
		Error:     cause.Error(),
	}
	if session != nil {
		event.SessionID = session.SessionID
	}
	if err := ch.Deliver(ctx, event); err != nil {
		log.Printf("delivery failed (error event) session=%s: %v", event.SessionID, err)
	}
}

// composeInput appends an attachment note so the agent knows a document
// accompanies the message and how to fetch it, plus any agent-specific
// payload fields the client sent alongside the message.
func composeInput(req models.TurnRequest) string {
	input := req.UserInput
	if req.FileInput != nil {
		input += fmt.Sprintf("\n\n[The student attached a file: %s (stored as %q, type %s). Use the fetch_document tool to read it.]",
			req.FileInput.FileName, req.FileInput.StoredName, req.FileInput.FileType)
	}
	if len(req.Payload) > 0 {
		if extra, err := json.Marshal(req.Payload); err == nil {
			input += "\n\n[Additional context from the client: " + string(extra) + "]"
		}
	}
	return input
}
