package agents

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tutoria-backend/internal/services"
)

type memArtifacts struct {
	objects map[string][]byte
}

func (m *memArtifacts) PutObject(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return "mem://" + key, nil
}

func (m *memArtifacts) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return data, nil
}

func newTestDocs(t *testing.T, storedName, content string) *services.DocumentService {
	t.Helper()
	store := &memArtifacts{}
	if _, err := store.PutObject(context.Background(), storedName, []byte(content), "text/plain"); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}
	return services.NewDocumentService(store)
}

func TestDocumentToolReadsStoredFile(t *testing.T) {
	docs := newTestDocs(t, "u1/notes.txt", "Photosynthesis converts light into energy.")
	tool := documentTool(docs)

	out, err := tool.Run(context.Background(), map[string]any{"stored_name": "u1/notes.txt"})
	if err != nil {
		t.Fatalf("fetch_document failed: %v", err)
	}
	text, _ := out["text"].(string)
	if !strings.Contains(text, "Photosynthesis") {
		t.Errorf("Expected document text in payload, got %q", text)
	}

	if _, err := tool.Run(context.Background(), map[string]any{}); err == nil {
		t.Error("Expected error for missing stored_name")
	}
}

func TestDocumentSectionsToolSplitsParagraphs(t *testing.T) {
	docs := newTestDocs(t, "u1/notes.md", "First paragraph.\n\nSecond paragraph.")
	tool := documentSectionsTool(docs)

	out, err := tool.Run(context.Background(), map[string]any{"stored_name": "u1/notes.md"})
	if err != nil {
		t.Fatalf("fetch_document_sections failed: %v", err)
	}

	sections, _ := out["sections"].([]string)
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d: %v", len(sections), sections)
	}
	if sections[0] != "First paragraph." || sections[1] != "Second paragraph." {
		t.Errorf("Unexpected sections: %v", sections)
	}
	if count, _ := out["count"].(int); count != 2 {
		t.Errorf("Expected count 2, got %v", out["count"])
	}
}
