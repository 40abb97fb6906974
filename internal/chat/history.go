package chat

import "tutoria-backend/internal/models"

// CompileHistory maps persisted turns to model messages in chronological
// order. A non-empty rolling summary is prepended as a synthetic user
// message so the model sees it as earliest context.
func CompileHistory(turns []models.ChatTurn, summary string) []models.ChatMessage {
	history := make([]models.ChatMessage, 0, len(turns)+1)

	if summary != "" {
		history = append(history, models.ChatMessage{
			Role:    models.RoleUser,
			Content: "Summary of the conversation so far:\n" + summary,
		})
	}

	for _, turn := range turns {
		history = append(history, models.ChatMessage{
			Role:    turn.Role,
			Content: turn.Message,
		})
	}
	return history
}
