package agents

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// Tool is one declared capability the model may invoke mid-generation. Run
// returns the payload handed back to the model; errors are converted into a
// structured error payload at the dispatch boundary, never propagated.
type Tool struct {
	Name        string
	Description string
	Parameters  *genai.Schema
	Run         func(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Toolset is a named capability registry. The model's choice of tool
// arrives as a FunctionCall and is resolved here.
type Toolset struct {
	byName map[string]Tool
	decls  []*genai.FunctionDeclaration
}

func NewToolset(tools ...Tool) *Toolset {
	ts := &Toolset{byName: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		ts.byName[tool.Name] = tool
		ts.decls = append(ts.decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return ts
}

// Declarations returns the tool schema advertised to the model.
func (ts *Toolset) Declarations() []*genai.Tool {
	if ts == nil || len(ts.decls) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: ts.decls}}
}

// Dispatch runs one function call. Unknown names and tool errors both come
// back as {"status": "error"} payloads so the model can react in-band.
func (ts *Toolset) Dispatch(ctx context.Context, call genai.FunctionCall) genai.FunctionResponse {
	if ts == nil {
		return errorResponse(call.Name, fmt.Errorf("no tools available"))
	}
	tool, ok := ts.byName[call.Name]
	if !ok {
		return errorResponse(call.Name, fmt.Errorf("unknown tool %q", call.Name))
	}

	result, err := tool.Run(ctx, call.Args)
	if err != nil {
		return errorResponse(call.Name, err)
	}
	if result == nil {
		result = map[string]any{"status": "ok"}
	}
	return genai.FunctionResponse{Name: call.Name, Response: result}
}

// DispatchAll resolves a batch of calls into response parts, preserving
// call order.
func (ts *Toolset) DispatchAll(ctx context.Context, calls []genai.FunctionCall) []genai.Part {
	parts := make([]genai.Part, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, ts.Dispatch(ctx, call))
	}
	return parts
}

func errorResponse(name string, err error) genai.FunctionResponse {
	return genai.FunctionResponse{
		Name: name,
		Response: map[string]any{
			"status":  "error",
			"message": err.Error(),
		},
	}
}

// stringArg reads a string argument, tolerating absence.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
