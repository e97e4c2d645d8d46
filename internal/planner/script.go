// internal/planner/script.go
package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrScriptExhausted is returned once every recorded response was replayed.
var ErrScriptExhausted = errors.New("planner: script exhausted")

// ScriptedPlanner replays recorded responses in order, one per request.
type ScriptedPlanner struct {
	mu        sync.Mutex
	responses []Response
	next      int
	requests  []Request
}

type scriptFile struct {
	Responses []Response `json:"responses"`
}

// NewScriptedPlanner builds a planner that answers with responses in order.
func NewScriptedPlanner(responses ...Response) *ScriptedPlanner {
	return &ScriptedPlanner{responses: responses}
}

// LoadScript reads a recorded script. The file holds either a single
// response object, an array of responses, or {"responses": [...]}.
func LoadScript(path string) (*ScriptedPlanner, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not expand script path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("could not read script: %w", err)
	}
	responses, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse script %s: %w", expanded, err)
	}
	return NewScriptedPlanner(responses...), nil
}

// ParseScript decodes the script formats accepted by LoadScript.
func ParseScript(data []byte) ([]Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty script")
	}
	if trimmed[0] == '[' {
		var list []Response
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped scriptFile
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Responses != nil {
		return wrapped.Responses, nil
	}
	var single Response
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []Response{single}, nil
}

// Plan returns the next recorded response.
func (s *ScriptedPlanner) Plan(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.next >= len(s.responses) {
		return nil, ErrScriptExhausted
	}
	resp := s.responses[s.next]
	s.next++
	return &resp, nil
}

// Remaining reports how many responses are left.
func (s *ScriptedPlanner) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses) - s.next
}

// Requests returns the requests seen so far.
func (s *ScriptedPlanner) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}
