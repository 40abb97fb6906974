package worker

import (
	"strings"
	"testing"

	"tutoria-backend/internal/models"
)

func TestDeriveTitle(t *testing.T) {
	turns := []models.ChatTurn{
		{Role: models.RoleAssistant, Message: "Hello!"},
		{Role: models.RoleUser, Message: "  Help me with long division  "},
	}

	if got := deriveTitle(turns); got != "Help me with long division" {
		t.Errorf("Expected title from first user turn, got %q", got)
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := strings.Repeat("word ", 30)
	turns := []models.ChatTurn{{Role: models.RoleUser, Message: long}}

	got := deriveTitle(turns)
	if len([]rune(got)) > 64 {
		t.Errorf("Expected truncated title, got %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}

func TestBuildSummaryPromptIncludesContext(t *testing.T) {
	turns := []models.ChatTurn{
		{Role: models.RoleUser, Message: "what is a verb"},
		{Role: models.RoleAssistant, Message: "a doing word"},
	}

	prompt := buildSummaryPrompt("They reviewed nouns.", turns)

	if !strings.Contains(prompt, "They reviewed nouns.") {
		t.Error("Expected previous summary in prompt")
	}
	userIdx := strings.Index(prompt, "what is a verb")
	assistantIdx := strings.Index(prompt, "a doing word")
	if userIdx < 0 || assistantIdx < 0 || userIdx > assistantIdx {
		t.Error("Expected transcript in order in prompt")
	}
}
