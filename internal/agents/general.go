package agents

import (
	"github.com/google/generative-ai-go/genai"

	"tutoria-backend/internal/services"
)

// NewGeneral builds the router/general tutor. It carries the document tools
// so attached study material stays readable in the default mode; routing to
// specialists is a conversational recommendation, not a dispatch.
func NewGeneral(client *genai.Client, modelName string, docs *services.DocumentService) *Agent {
	tools := NewToolset(
		documentTool(docs),
		documentSectionsTool(docs),
	)
	return New("general", client, modelName, generalPersona, tools)
}
