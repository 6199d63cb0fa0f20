package tool

import (
	"context"
	"fmt"
	"strings"

	"mentat/internal/domain"
)

// --- RememberTool ---

// RememberTool persists a fact under a key through the call's memory store.
type RememberTool struct{}

func NewRememberTool() *RememberTool { return &RememberTool{} }

func (t *RememberTool) Name() string { return "remember" }

func (t *RememberTool) Description() string {
	return "Store a fact in long-term memory under a key so it survives across conversations."
}

func (t *RememberTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"key":   {Type: "string", Description: "Short identifier for the fact (e.g. 'user_timezone')"},
			"value": {Type: "string", Description: "The fact to remember"},
		},
		[]string{"key", "value"},
	)
}

func (t *RememberTool) Execute(ctx context.Context, args map[string]any, tc *domain.ToolContext) (string, error) {
	if tc == nil || tc.Memory == nil {
		return "", fmt.Errorf("memory store not available")
	}
	key := strings.TrimSpace(ArgsString(args, "key"))
	value := ArgsString(args, "value")
	if key == "" {
		return "", fmt.Errorf("missing argument: key")
	}
	if err := tc.Memory.Store(ctx, key, value, domain.MemoryLongTerm); err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}
	return fmt.Sprintf("Remembered %q", key), nil
}

// --- RecallTool ---

// RecallTool looks up a previously stored fact by key.
type RecallTool struct{}

func NewRecallTool() *RecallTool { return &RecallTool{} }

func (t *RecallTool) Name() string { return "recall" }

func (t *RecallTool) Description() string {
	return "Retrieve a fact previously stored in memory by its key."
}

func (t *RecallTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"key": {Type: "string", Description: "The key the fact was stored under"},
		},
		[]string{"key"},
	)
}

func (t *RecallTool) Execute(ctx context.Context, args map[string]any, tc *domain.ToolContext) (string, error) {
	if tc == nil || tc.Memory == nil {
		return "", fmt.Errorf("memory store not available")
	}
	key := strings.TrimSpace(ArgsString(args, "key"))
	if key == "" {
		return "", fmt.Errorf("missing argument: key")
	}
	value, found, err := tc.Memory.Retrieve(ctx, key)
	if err != nil {
		return "", fmt.Errorf("retrieve memory: %w", err)
	}
	if !found {
		return "", fmt.Errorf("nothing stored under %q", key)
	}
	return value, nil
}

var (
	_ domain.Tool = (*RememberTool)(nil)
	_ domain.Tool = (*RecallTool)(nil)
)
