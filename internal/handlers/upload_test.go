package handlers

import (
	"strings"
	"testing"
)

func TestChunkTextSplitsOnParagraphs(t *testing.T) {
	para := strings.Repeat("x", 600)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := chunkText(text, 1500)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "\n\n") {
		t.Error("Expected first chunk to hold two paragraphs")
	}
}

func TestChunkTextSkipsEmpty(t *testing.T) {
	if chunks := chunkText("   \n\n  \n\n", 100); len(chunks) != 0 {
		t.Errorf("Expected no chunks for blank text, got %v", chunks)
	}
}
