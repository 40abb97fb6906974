package repository

import (
	"strings"
	"testing"
)

func TestConstructSessionID(t *testing.T) {
	id := ConstructSessionID("student42")

	if !strings.HasPrefix(id, "student42-") {
		t.Fatalf("Expected user id prefix, got %q", id)
	}

	suffix := strings.TrimPrefix(id, "student42-")
	if len(suffix) != 8 {
		t.Errorf("Expected 8-character suffix, got %q", suffix)
	}
	for _, c := range suffix {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			t.Errorf("Expected alphanumeric suffix, got %q", suffix)
			break
		}
	}
}

func TestConstructSessionIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := ConstructSessionID("u1")
		if seen[id] {
			t.Fatalf("Duplicate session id generated: %q", id)
		}
		seen[id] = true
	}
}
