package agents

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"tutoria-backend/internal/retrieval"
	"tutoria-backend/internal/services"
)

// NewCurriculum builds the curriculum tutor. Its answers are grounded in
// knowledge-base retrieval; retrieval failures surface as structured error
// payloads so the persona can degrade gracefully.
func NewCurriculum(client *genai.Client, modelName string, retriever *retrieval.Retriever, docs *services.DocumentService) *Agent {
	tools := NewToolset(
		retrievalTool(retriever),
		documentTool(docs),
	)
	return New("curriculum", client, modelName, curriculumPersona, tools)
}

func retrievalTool(retriever *retrieval.Retriever) Tool {
	return Tool{
		Name:        "retrieve_from_kb",
		Description: "Search the curriculum knowledge base. Returns the most relevant passages with relevance scores.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "What to look up, phrased as a full question or topic.",
				},
			},
			Required: []string{"query"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			query := stringArg(args, "query")
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}

			results, err := retriever.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return map[string]any{
					"status":  "ok",
					"results": []retrieval.Result{},
					"message": missingContentMessage,
				}, nil
			}
			return map[string]any{
				"status":  "ok",
				"results": results,
				"count":   len(results),
			}, nil
		},
	}
}

func documentTool(docs *services.DocumentService) Tool {
	return Tool{
		Name:        "fetch_document",
		Description: "Read the text of a document the student uploaded, by its stored file name.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"stored_name": {
					Type:        genai.TypeString,
					Description: "Stored object name of the uploaded file, as given in the attachment note.",
				},
			},
			Required: []string{"stored_name"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			storedName := stringArg(args, "stored_name")
			if storedName == "" {
				return nil, fmt.Errorf("stored_name is required")
			}

			text, err := docs.ExtractText(ctx, storedName)
			if err != nil {
				return nil, err
			}
			return map[string]any{"status": "ok", "text": text}, nil
		},
	}
}

func documentSectionsTool(docs *services.DocumentService) Tool {
	return Tool{
		Name:        "fetch_document_sections",
		Description: "Read an uploaded document split into sections (pages for PDFs, paragraphs otherwise), for citing where in the document something appears.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"stored_name": {
					Type:        genai.TypeString,
					Description: "Stored object name of the uploaded file, as given in the attachment note.",
				},
			},
			Required: []string{"stored_name"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			storedName := stringArg(args, "stored_name")
			if storedName == "" {
				return nil, fmt.Errorf("stored_name is required")
			}

			sections, err := docs.ExtractSections(ctx, storedName)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"status":   "ok",
				"sections": sections,
				"count":    len(sections),
			}, nil
		},
	}
}
