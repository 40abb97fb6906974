package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestDispatchRunsRegisteredTool(t *testing.T) {
	ts := NewToolset(Tool{
		Name: "echo",
		Run: func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"status": "ok", "echo": args["msg"]}, nil
		},
	})

	resp := ts.Dispatch(context.Background(), genai.FunctionCall{
		Name: "echo",
		Args: map[string]any{"msg": "hi"},
	})

	if resp.Name != "echo" {
		t.Errorf("Expected response name echo, got %q", resp.Name)
	}
	if resp.Response["echo"] != "hi" {
		t.Errorf("Expected echoed payload, got %v", resp.Response)
	}
}

func TestDispatchConvertsErrorsToPayload(t *testing.T) {
	ts := NewToolset(Tool{
		Name: "broken",
		Run: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("backend unreachable")
		},
	})

	tests := []struct {
		name     string
		call     string
		expected string
	}{
		{"tool failure", "broken", "backend unreachable"},
		{"unknown tool", "missing", `unknown tool "missing"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.Dispatch(context.Background(), genai.FunctionCall{Name: tc.call})
			if resp.Response["status"] != "error" {
				t.Fatalf("Expected error status, got %v", resp.Response)
			}
			if resp.Response["message"] != tc.expected {
				t.Errorf("Expected message %q, got %q", tc.expected, resp.Response["message"])
			}
		})
	}
}

func TestDispatchOnNilToolset(t *testing.T) {
	var ts *Toolset
	resp := ts.Dispatch(context.Background(), genai.FunctionCall{Name: "anything"})
	if resp.Response["status"] != "error" {
		t.Errorf("Expected error status from nil toolset, got %v", resp.Response)
	}
	if ts.Declarations() != nil {
		t.Error("Expected nil declarations from nil toolset")
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"name":  "fractions",
		"count": float64(7),
		"flag":  true,
	}

	if got := stringArg(args, "name"); got != "fractions" {
		t.Errorf("stringArg: expected fractions, got %q", got)
	}
	if got := stringArg(args, "flag"); got != "" {
		t.Errorf("stringArg: expected empty for non-string, got %q", got)
	}
	if got := intArg(args, "count", 3); got != 7 {
		t.Errorf("intArg: expected 7, got %d", got)
	}
	if got := intArg(args, "missing", 3); got != 3 {
		t.Errorf("intArg: expected fallback 3, got %d", got)
	}
}

type scriptedStream struct {
	fragments []string
	err       error
}

func (s *scriptedStream) Next() (string, error) {
	if len(s.fragments) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	frag := s.fragments[0]
	s.fragments = s.fragments[1:]
	return frag, nil
}

func TestDrainStripsReasoning(t *testing.T) {
	ts := &scriptedStream{fragments: []string{
		"<thinking>plan the ans", "wer</thinking>", "The answer ", "is 4.",
	}}

	text, err := Drain(ts)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if text != "The answer is 4." {
		t.Errorf("Expected visible text only, got %q", text)
	}
}

func TestDrainPropagatesStreamError(t *testing.T) {
	wantErr := errors.New("stream cut")
	ts := &scriptedStream{fragments: []string{"partial "}, err: wantErr}

	if _, err := Drain(ts); !errors.Is(err, wantErr) {
		t.Errorf("Expected stream error, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n[1,2]\n```", "[1,2]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFence(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRegistryResolvesNames(t *testing.T) {
	reg := NewRegistry(&Agent{name: "general"}, &Agent{name: "quizzer"})

	rt, err := reg.Get("")
	if err != nil {
		t.Fatalf("Get default failed: %v", err)
	}
	if rt.Name() != "general" {
		t.Errorf("Expected default agent general, got %q", rt.Name())
	}

	if _, err := reg.Get("astrologer"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("Expected ErrUnknownAgent, got %v", err)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "general" || names[1] != "quizzer" {
		t.Errorf("Unexpected names: %v", names)
	}
}
