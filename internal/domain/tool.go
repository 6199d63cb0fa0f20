package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Tool is the interface for agent capabilities (shell, file ops, memory, web).
// Execute receives the shared batch context so tools can see the conversation
// snapshot and write through the memory handle.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any, tc *ToolContext) (string, error)
}

// ToolDefinition describes a registered tool for prompts and introspection.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolResult is the outcome of exactly one tool call. Payload holds the tool
// output on success or a human-readable failure description otherwise.
type ToolResult struct {
	Success bool
	Payload string
}

// Serialization status lines. The payload follows verbatim, so the canonical
// form round-trips byte for byte through ParseToolResult.
const (
	resultStatusOK     = "status=success"
	resultStatusFailed = "status=failure"
)

// Serialize returns the canonical textual form of the result: a status line
// followed by the payload unchanged.
func (r ToolResult) Serialize() string {
	status := resultStatusFailed
	if r.Success {
		status = resultStatusOK
	}
	return status + "\n" + r.Payload
}

// ParseToolResult recovers a ToolResult from its canonical serialization.
func ParseToolResult(s string) (ToolResult, error) {
	status, payload, found := strings.Cut(s, "\n")
	if !found {
		status = s
	}
	switch status {
	case resultStatusOK:
		return ToolResult{Success: true, Payload: payload}, nil
	case resultStatusFailed:
		return ToolResult{Success: false, Payload: payload}, nil
	default:
		return ToolResult{}, fmt.Errorf("unrecognized result status line %q", status)
	}
}

// Settings is the immutable settings snapshot visible to one batch of calls.
type Settings struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ToolContext is the execution context shared by every call in one batch.
// It is assembled once per batch and never mutated mid-batch: tool side
// effects reach later calls only through the Memory handle.
type ToolContext struct {
	WorkingDir   string
	ProjectPath  string
	Conversation []Message
	Settings     Settings
	Memory       MemoryStore
}

// ExecutionSummary is a lightweight record of one past tool execution,
// retained by the registry for introspection.
type ExecutionSummary struct {
	ID      string
	Tool    string
	At      time.Time
	Success bool
}
