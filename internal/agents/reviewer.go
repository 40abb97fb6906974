package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/retrieval"
	"tutoria-backend/internal/services"
)

// reviewerTools carries the collaborators and the per-topic outline cache
// shared by the reviewer's two tools. The cache lets render_reviewer_pdf
// reuse the outline build_outline just produced instead of forcing the
// model to round-trip the whole structure.
type reviewerTools struct {
	retriever *retrieval.Retriever
	generator *genai.GenerativeModel
	pdfs      *services.PDFService

	mu       sync.Mutex
	outlines map[string]*models.ReviewOutline
}

// NewReviewer builds the reviewer. It refuses to produce review sheets for
// topics with no retrieved reference material.
func NewReviewer(client *genai.Client, modelName string, retriever *retrieval.Retriever, pdfs *services.PDFService) *Agent {
	rt := &reviewerTools{
		retriever: retriever,
		generator: newJSONModel(client, modelName),
		pdfs:      pdfs,
		outlines:  make(map[string]*models.ReviewOutline),
	}

	tools := NewToolset(
		rt.buildOutlineTool(),
		rt.renderPDFTool(),
	)
	return New("reviewer", client, modelName, reviewerPersona, tools)
}

func (rt *reviewerTools) buildOutlineTool() Tool {
	return Tool{
		Name:        "build_outline",
		Description: "Retrieve curriculum material for a topic and build a structured review outline from it. Reports missing_content when no material exists.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: "Lesson topic to build the review sheet for.",
				},
			},
			Required: []string{"topic"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			topic := stringArg(args, "topic")
			if topic == "" {
				return nil, fmt.Errorf("topic is required")
			}

			results, err := rt.retriever.Search(ctx, topic)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return map[string]any{
					"status":  "missing_content",
					"message": missingContentMessage,
				}, nil
			}

			outline, err := rt.generateOutline(ctx, topic, results)
			if err != nil {
				return nil, err
			}

			rt.mu.Lock()
			rt.outlines[outlineKey(topic)] = outline
			rt.mu.Unlock()

			return map[string]any{"status": "ok", "outline": outline}, nil
		},
	}
}

func (rt *reviewerTools) renderPDFTool() Tool {
	return Tool{
		Name:        "render_reviewer_pdf",
		Description: "Render the outline built for a topic into a PDF review sheet and return its download URL. Requires a prior build_outline call for the same topic.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: "The same topic passed to build_outline.",
				},
			},
			Required: []string{"topic"},
		},
		Run: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			topic := stringArg(args, "topic")
			if topic == "" {
				return nil, fmt.Errorf("topic is required")
			}

			rt.mu.Lock()
			outline := rt.outlines[outlineKey(topic)]
			rt.mu.Unlock()
			if outline == nil {
				return nil, fmt.Errorf("no outline built for %q; call build_outline first", topic)
			}

			url, err := rt.pdfs.RenderReviewer(ctx, outline)
			if err != nil {
				return nil, err
			}
			return map[string]any{"status": "ok", "url": url}, nil
		},
	}
}

func (rt *reviewerTools) generateOutline(ctx context.Context, topic string, results []retrieval.Result) (*models.ReviewOutline, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `Build a review sheet outline for the topic %q using only the
reference material below.

Return a JSON object with exactly these fields:
- "Lesson Overview": a short paragraph
- "Learning Objectives": an array of objective strings
- "Key Concepts and Explanations": an array of {"subtopic", "explanation"} objects
- "Application or Examples": an array of worked examples or applications
- "Memory Tips": an array of mnemonic or memory aid strings
- "Quick Recap": an array of one-line recap statements

Reference material:
`, topic)
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, r.Content)
	}

	outline := &models.ReviewOutline{}
	if err := generateJSON(ctx, rt.generator, b.String(), outline); err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}
	outline.Topic = topic
	return outline, nil
}

func outlineKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
