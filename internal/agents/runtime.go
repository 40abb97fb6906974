// Package agents wraps generative-model sessions in fixed personas with
// bounded toolsets, exposing each as a streaming runtime.
package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/stream"
)

// maxToolRounds bounds how many times one turn may loop through tool calls
// before the stream is forced to finish.
const maxToolRounds = 4

// TokenStream yields incremental response fragments. Next returns io.EOF
// after the final fragment; a stream is finite and not restartable.
type TokenStream interface {
	Next() (string, error)
}

// Runtime is the contract every persona variant satisfies.
type Runtime interface {
	Name() string
	Stream(ctx context.Context, history []models.ChatMessage, input string) (TokenStream, error)
	Invoke(ctx context.Context, input string) (string, error)
}

// Agent binds a persona and toolset to a generative model.
type Agent struct {
	name  string
	model *genai.GenerativeModel
	tools *Toolset
}

func New(name string, client *genai.Client, modelName, persona string, tools *Toolset) *Agent {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	model.SetTopP(0.95)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(persona)}}
	if decls := tools.Declarations(); decls != nil {
		model.Tools = decls
	}
	return &Agent{name: name, model: model, tools: tools}
}

func (a *Agent) Name() string {
	return a.name
}

// Stream opens a chat session seeded with the compiled history and starts
// streaming the model's answer to input. Tool calls are resolved inside the
// returned stream; the caller only ever sees text fragments.
func (a *Agent) Stream(ctx context.Context, history []models.ChatMessage, input string) (TokenStream, error) {
	cs := a.model.StartChat()
	cs.History = toModelHistory(history)

	return &modelStream{
		ctx:     ctx,
		tools:   a.tools,
		session: cs,
		iter:    cs.SendMessageStream(ctx, genai.Text(input)),
	}, nil
}

// Invoke runs a full turn without history and blocks until the stream is
// drained, returning the assembled visible text. This is the form used when
// one agent calls another as a tool.
func (a *Agent) Invoke(ctx context.Context, input string) (string, error) {
	ts, err := a.Stream(ctx, nil, input)
	if err != nil {
		return "", err
	}
	return Drain(ts)
}

// Drain consumes a stream to completion, stripping reasoning spans, and
// returns the assembled text.
func Drain(ts TokenStream) (string, error) {
	filter := stream.NewThinkingFilter()
	var b strings.Builder
	for {
		frag, err := ts.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		b.WriteString(filter.Feed(frag))
	}
	b.WriteString(filter.Flush())
	return strings.TrimSpace(b.String()), nil
}

// modelStream adapts the SDK's response iterator to TokenStream, resolving
// function calls between generation rounds.
type modelStream struct {
	ctx     context.Context
	tools   *Toolset
	session *genai.ChatSession
	iter    *genai.GenerateContentResponseIterator

	queue  []string
	calls  []genai.FunctionCall
	rounds int
	done   bool
}

func (s *modelStream) Next() (string, error) {
	for {
		if len(s.queue) > 0 {
			frag := s.queue[0]
			s.queue = s.queue[1:]
			return frag, nil
		}
		if s.done {
			return "", io.EOF
		}

		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			if len(s.calls) > 0 && s.rounds < maxToolRounds {
				parts := s.tools.DispatchAll(s.ctx, s.calls)
				s.calls = nil
				s.rounds++
				s.iter = s.session.SendMessageStream(s.ctx, parts...)
				continue
			}
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("model stream failed: %w", err)
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				switch p := part.(type) {
				case genai.Text:
					if p != "" {
						s.queue = append(s.queue, string(p))
					}
				case genai.FunctionCall:
					s.calls = append(s.calls, p)
				}
			}
		}
	}
}

func toModelHistory(history []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}
