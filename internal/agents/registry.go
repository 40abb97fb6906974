package agents

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownAgent is returned for agent names outside the registered set.
var ErrUnknownAgent = errors.New("unknown agent")

// DefaultAgent handles turns that don't name an agent.
const DefaultAgent = "general"

// Registry resolves agent names to runtimes.
type Registry struct {
	agents map[string]Runtime
}

func NewRegistry(runtimes ...Runtime) *Registry {
	agents := make(map[string]Runtime, len(runtimes))
	for _, rt := range runtimes {
		agents[rt.Name()] = rt
	}
	return &Registry{agents: agents}
}

// Get resolves a runtime by name. An empty name resolves to the default
// agent.
func (r *Registry) Get(name string) (Runtime, error) {
	if name == "" {
		name = DefaultAgent
	}
	rt, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	return rt, nil
}

// Names lists the registered agent names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
