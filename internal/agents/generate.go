package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// generateJSON runs one non-streaming generation expected to produce a JSON
// document and decodes it into out.
func generateJSON(ctx context.Context, model *genai.GenerativeModel, prompt string, out any) error {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return fmt.Errorf("model returned no content")
	}

	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
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

// stripCodeFence unwraps ```json ... ``` fencing the model sometimes adds
// despite the JSON response mime type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// newJSONModel returns a generation model configured for structured JSON
// output, used for question and outline generation.
func newJSONModel(client *genai.Client, modelName string) *genai.GenerativeModel {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"
	return model
}
