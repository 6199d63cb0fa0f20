package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mentat/internal/domain"

	"github.com/google/uuid"
)

const defaultHistorySize = 100

// Registry holds all available tools, dispatches calls to them, and keeps a
// bounded history of past executions for introspection.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]domain.Tool
	logger  *slog.Logger
	history []domain.ExecutionSummary // ring, newest last
	maxHist int
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]domain.Tool),
		logger:  logger,
		maxHist: defaultHistorySize,
	}
}

func (r *Registry) Register(t domain.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.logger.Debug("registered tool", "name", t.Name())
}

func (r *Registry) Get(name string) domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// ParseAndExecute interprets a marker payload's internal name/argument
// structure and runs the named tool. The payload is either call syntax,
// name(key="value", ...), or a JSON object {"name": ..., "arguments": {...}}
// for models that emit JSON. Any failure (unparseable payload, unknown
// tool, tool error) comes back as a failure result, never an error.
func (r *Registry) ParseAndExecute(ctx context.Context, payload string, tc *domain.ToolContext) domain.ToolResult {
	name, args, err := ParsePayload(payload)
	if err != nil {
		return r.record("", domain.ToolResult{
			Success: false,
			Payload: fmt.Sprintf("cannot parse tool call: %v", err),
		})
	}
	return r.Execute(ctx, name, args, tc)
}

// Execute dispatches a single named tool with an explicit parameter set,
// validating declared required parameters first.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, tc *domain.ToolContext) domain.ToolResult {
	t := r.Get(name)
	if t == nil {
		return r.record(name, domain.ToolResult{
			Success: false,
			Payload: fmt.Sprintf("unknown tool: %s (available: %v)", name, r.Names()),
		})
	}

	if err := validateRequired(t.Parameters(), args); err != nil {
		return r.record(name, domain.ToolResult{
			Success: false,
			Payload: fmt.Sprintf("invalid arguments for %s: %v", name, err),
		})
	}

	output, err := t.Execute(ctx, args, tc)
	if err != nil {
		return r.record(name, domain.ToolResult{
			Success: false,
			Payload: fmt.Sprintf("tool %s failed: %v", name, err),
		})
	}
	return r.record(name, domain.ToolResult{Success: true, Payload: output})
}

// GetAllTools returns descriptors for every registered tool.
func (r *Registry) GetAllTools() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// GetRecentExecutions returns up to count summaries, newest first.
func (r *Registry) GetRecentExecutions(count int) []domain.ExecutionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if count <= 0 || count > len(r.history) {
		count = len(r.history)
	}
	out := make([]domain.ExecutionSummary, 0, count)
	for i := len(r.history) - 1; i >= len(r.history)-count; i-- {
		out = append(out, r.history[i])
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// record appends an execution summary and passes the result through.
func (r *Registry) record(name string, result domain.ToolResult) domain.ToolResult {
	r.mu.Lock()
	r.history = append(r.history, domain.ExecutionSummary{
		ID:      uuid.NewString(),
		Tool:    name,
		At:      time.Now(),
		Success: result.Success,
	})
	if len(r.history) > r.maxHist {
		r.history = r.history[len(r.history)-r.maxHist:]
	}
	r.mu.Unlock()
	return result
}

// validateRequired checks args against the "required" list of a JSON Schema
// parameters object.
func validateRequired(schema map[string]any, args map[string]any) error {
	required, ok := schema["required"].([]string)
	if !ok {
		if anyList, ok := schema["required"].([]any); ok {
			for _, item := range anyList {
				if s, ok := item.(string); ok {
					required = append(required, s)
				}
			}
		}
	}
	for _, key := range required {
		if _, present := args[key]; !present {
			return fmt.Errorf("missing required parameter: %s", key)
		}
	}
	return nil
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ArgsString extracts a string argument, serializing non-string values.
func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
