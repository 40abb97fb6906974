package repository

import (
	"fmt"
	"testing"

	"tutoria-backend/internal/models"
)

func TestCapHistoryKeepsNewestEntries(t *testing.T) {
	var history []models.QuizHistoryEntry
	for i := 0; i < quizHistoryCap+5; i++ {
		history = append(history, models.QuizHistoryEntry{Student: fmt.Sprintf("exchange %d", i)})
	}

	capped := capHistory(history)
	if len(capped) != quizHistoryCap {
		t.Fatalf("Expected %d entries, got %d", quizHistoryCap, len(capped))
	}
	if capped[0].Student != "exchange 5" {
		t.Errorf("Expected oldest entries dropped, first is %q", capped[0].Student)
	}
	if capped[len(capped)-1].Student != fmt.Sprintf("exchange %d", quizHistoryCap+4) {
		t.Errorf("Expected newest entry kept, last is %q", capped[len(capped)-1].Student)
	}
}

func TestCapHistoryUnderCap(t *testing.T) {
	history := []models.QuizHistoryEntry{{Student: "only one"}}
	if capped := capHistory(history); len(capped) != 1 {
		t.Errorf("Expected history under the cap untouched, got %d entries", len(capped))
	}
}
