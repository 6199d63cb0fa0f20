package agent

import (
	"context"
	"fmt"
	"log/slog"

	"mentat/internal/domain"
)

// Dispatcher is the tool registry surface the orchestrator depends on.
type Dispatcher interface {
	ParseAndExecute(ctx context.Context, payload string, tc *domain.ToolContext) domain.ToolResult
	Execute(ctx context.Context, name string, args map[string]any, tc *domain.ToolContext) domain.ToolResult
}

// Orchestrator dispatches parsed tool call payloads through the registry,
// one at a time, isolating failures at single-call granularity.
type Orchestrator struct {
	registry Dispatcher
	builder  *ContextBuilder
	logger   *slog.Logger
}

func NewOrchestrator(registry Dispatcher, builder *ContextBuilder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{registry: registry, builder: builder, logger: logger}
}

// ExecuteBatch runs the payloads strictly in sequence against one shared
// context and returns one result per payload, in the same order. Call i+1
// does not start until call i has completed. A failing call becomes a
// failure result with a human-readable description; the remaining calls run
// unaffected. Cancelling ctx stops the batch at the next call boundary, with
// the unstarted calls reported as cancelled failures so the result sequence
// keeps its full length.
func (o *Orchestrator) ExecuteBatch(ctx context.Context, payloads []string, tc *domain.ToolContext) []domain.ToolResult {
	results := make([]domain.ToolResult, 0, len(payloads))

	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			for range payloads[i:] {
				results = append(results, domain.ToolResult{
					Success: false,
					Payload: fmt.Sprintf("tool call not started: %v", err),
				})
			}
			break
		}

		o.logger.Info("dispatching tool call", "index", i+1, "of", len(payloads))
		result := o.registry.ParseAndExecute(ctx, payload, tc)
		if result.Success {
			o.logger.Info("tool call succeeded", "index", i+1, "output_len", len(result.Payload))
		} else {
			o.logger.Info("tool call failed", "index", i+1, "reason", result.Payload)
		}
		results = append(results, result)
	}

	return results
}

// ExecuteDirect invokes a single named tool with an explicit parameter set,
// bypassing the marker-parsing path. It builds its own single-call context,
// shares the batch path's failure isolation, and immediately appends a
// standalone result message to the conversation so manual invocations stay
// visible without waiting on batch formatting.
func (o *Orchestrator) ExecuteDirect(ctx context.Context, name string, args map[string]any, conv *Conversation) domain.ToolResult {
	var snapshot []domain.Message
	if conv != nil {
		snapshot = conv.Snapshot()
	}
	tc := o.builder.Build(snapshot)

	o.logger.Info("dispatching direct tool call", "tool", name)
	result := o.registry.Execute(ctx, name, args, tc)
	if result.Success {
		o.logger.Info("direct tool call succeeded", "tool", name, "output_len", len(result.Payload))
	} else {
		o.logger.Info("direct tool call failed", "tool", name, "reason", result.Payload)
	}

	if conv != nil {
		conv.Append(domain.Message{
			Role:    domain.RoleTool,
			Content: fmt.Sprintf("Tool %s\n%s", name, result.Serialize()),
			Metadata: map[string]string{
				domain.MetaCollapsible: "true",
				domain.MetaCollapsed:   "true",
			},
		})
	}

	return result
}
