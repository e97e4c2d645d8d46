// internal/planner/planner.go
package planner

import (
	"context"
	"errors"

	"github.com/xkilldash9x/ghost/internal/state"
)

var (
	// ErrBusy is returned by Submit while another round-trip is outstanding.
	ErrBusy = errors.New("planner: a planning round-trip is already in progress")
	// ErrAborted reports a round-trip whose result was discarded by an abort.
	ErrAborted = errors.New("planner: planning round-trip aborted")
	// ErrUnknownTool marks a tool call whose name is outside the closed tool set.
	ErrUnknownTool = errors.New("planner: unknown tool")
	// ErrInvalidArguments marks a known tool call whose arguments cannot be
	// decoded into its payload.
	ErrInvalidArguments = errors.New("planner: invalid tool arguments")
)

// Request is everything a planner sees for one instruction.
type Request struct {
	Instruction string
	// Image is a PNG of exactly the visible region, Width x Height pixels.
	Image   []byte
	Objects []ObjectDescription
	Width   int
	Height  int
	// Reference is the most recently uploaded image, if any.
	Reference *state.ReferenceImage
}

// ToolCall is one proposed action. Point-valued arguments are in screen
// space, relative to the request image.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Response is the planner's answer. Calls are in execution order.
type Response struct {
	Calls []ToolCall `json:"calls"`
	Text  string     `json:"text,omitempty"`
}

// Planner turns an instruction plus the visible workspace into tool calls.
type Planner interface {
	Plan(ctx context.Context, req Request) (*Response, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, req Request) (*Response, error)

func (f PlannerFunc) Plan(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
