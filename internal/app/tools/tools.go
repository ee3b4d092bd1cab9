package tools

import "context"

// ToolContext carries the call metadata.
type ToolContext struct {
	StudentID string
	SessionID string
	RequestID string
}

// Tool is an action the mentorship flow can trigger after a session. Input
// and output are loose JSON-like maps.
type Tool interface {
	Name() string
	Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error)
}
