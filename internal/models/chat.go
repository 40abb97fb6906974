package models

import "time"

// Roles stored on chat turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in compiled model context.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatTurn is one persisted message within a session. Immutable once written.
type ChatTurn struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
	Role       string    `json:"role"`
	Message    string    `json:"message"`
	FileName   *string   `json:"file_name,omitempty"`
	StoredName *string   `json:"stored_name,omitempty"`
	FileType   *string   `json:"file_type,omitempty"`
}

// Session is one bounded conversation between a user and an agent persona.
type Session struct {
	UserID                 string    `json:"user_id"`
	SessionID              string    `json:"session_id"`
	CreatedAt              time.Time `json:"created_at"`
	Title                  string    `json:"title"`
	Summary                string    `json:"summary"`
	MessageCount           int       `json:"message_count"`
	MessageCountSummarized int       `json:"message_count_summarized"`
	IsDeleted              bool      `json:"is_deleted"`
	HasEnded               bool      `json:"has_ended"`
}

// FileInput describes an attachment referenced by an inbound turn. The file
// itself lives in the artifact store under StoredName.
type FileInput struct {
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	StoredName string `json:"s3_file_name"`
	FileSize   int64  `json:"file_size"`
}

// TurnRequest is one inbound WebSocket message, one per turn.
type TurnRequest struct {
	Agent     string         `json:"agent"`
	UserID    string         `json:"user_id"`
	UserInput string         `json:"user_input"`
	SessionID string         `json:"session_id,omitempty"`
	FileInput *FileInput     `json:"file_input,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Delivery event types, strictly ordered per turn: start, zero or more
// in_progress, then end. An error event terminates a failed turn.
const (
	EventStartOfMessage = "start_of_message"
	EventInProgress     = "in_progress"
	EventEndOfMessage   = "end_of_message"
	EventError          = "error"
)

// DeliveryEvent is one outbound push to the client.
type DeliveryEvent struct {
	SessionID     string `json:"session_id,omitempty"`
	UserInput     string `json:"user_input,omitempty"`
	AgentResponse string `json:"agent_response,omitempty"`
	Type          string `json:"type"`
	Error         string `json:"error,omitempty"`
}

// Ack is the processing acknowledgment pushed before session handling begins.
type Ack struct {
	Message      string `json:"message"`
	ConnectionID string `json:"connectionId"`
}
