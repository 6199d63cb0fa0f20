package agent

import (
	"context"
	"fmt"
	"log/slog"

	"mentat/internal/domain"
)

const defaultMaxContinuations = 8

// passState is one state of the response loop.
type passState int

const (
	stateIdle passState = iota
	stateGenerating
	stateDetecting
	stateExecuting
	stateAugmenting
	stateDeciding
)

// Engine coordinates one orchestration pass: generate an assistant message,
// detect tool calls in it, execute them, merge the results back into the
// conversation, and decide whether to generate again. One Engine serves many
// conversations, but passes against the same conversation must be serialized
// by the caller.
type Engine struct {
	provider         domain.Provider
	orchestrator     *Orchestrator
	builder          *ContextBuilder
	prompt           *PromptBuilder
	logger           *slog.Logger
	settings         domain.Settings
	maxContinuations int
}

// EngineConfig holds the engine's collaborators and tuning parameters.
type EngineConfig struct {
	Provider         domain.Provider
	Orchestrator     *Orchestrator
	Builder          *ContextBuilder
	Prompt           *PromptBuilder
	Logger           *slog.Logger
	Settings         domain.Settings
	MaxContinuations int
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.MaxContinuations <= 0 {
		cfg.MaxContinuations = defaultMaxContinuations
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		provider:         cfg.Provider,
		orchestrator:     cfg.Orchestrator,
		builder:          cfg.Builder,
		prompt:           cfg.Prompt,
		logger:           cfg.Logger,
		settings:         cfg.Settings,
		maxContinuations: cfg.MaxContinuations,
	}
}

// RunPass drives the state machine until it reaches Idle and returns the
// final assistant text. A batch with zero extracted calls ends the pass with
// no context build and no augmentation. Automatic continuation fires only
// when the batch is non-empty and every result succeeded; one failure
// anywhere suppresses it, leaving the failure text in the conversation for
// manual follow-up. Consecutive continuations are capped so a trivially
// succeeding tool cannot loop forever.
func (e *Engine) RunPass(ctx context.Context, conv *Conversation) (string, error) {
	continuations := 0
	state := stateGenerating

	var calls []string
	var results []domain.ToolResult

	for state != stateIdle {
		switch state {
		case stateGenerating:
			msg, err := e.generate(ctx, conv)
			if err != nil {
				return "", fmt.Errorf("generation: %w", err)
			}
			conv.Append(msg)
			state = stateDetecting

		case stateDetecting:
			last, ok := conv.LastAssistant()
			if !ok || !ContainsToolCalls(last.Content) {
				state = stateIdle
				break
			}
			calls = ExtractToolCalls(last.Content)
			if len(calls) == 0 {
				state = stateIdle
				break
			}
			e.logger.Info("detected tool calls", "count", len(calls), "conversation", conv.ID)
			state = stateExecuting

		case stateExecuting:
			tc := e.builder.Build(conv.Snapshot())
			results = e.orchestrator.ExecuteBatch(ctx, calls, tc)
			state = stateAugmenting

		case stateAugmenting:
			AppendResults(conv, results)
			state = stateDeciding

		case stateDeciding:
			if !allSucceeded(results) {
				e.logger.Info("batch had failures, stopping pass", "conversation", conv.ID)
				state = stateIdle
				break
			}
			if continuations >= e.maxContinuations {
				e.logger.Warn("continuation cap reached, stopping pass",
					"cap", e.maxContinuations, "conversation", conv.ID)
				state = stateIdle
				break
			}
			continuations++
			state = stateGenerating
		}
	}

	return e.finalText(conv), nil
}

// generate delegates to the provider for the next assistant message.
func (e *Engine) generate(ctx context.Context, conv *Conversation) (domain.Message, error) {
	messages, err := e.prompt.BuildMessages(ctx, conv)
	if err != nil {
		return domain.Message{}, err
	}

	resp, err := e.provider.Chat(ctx, domain.ChatRequest{
		Messages:    messages,
		Model:       e.settings.Model,
		MaxTokens:   e.settings.MaxTokens,
		Temperature: e.settings.Temperature,
	})
	if err != nil {
		return domain.Message{}, err
	}

	e.logger.Debug("assistant message generated",
		"conversation", conv.ID,
		"content_len", len(resp.Content),
		"latency_ms", resp.LatencyMs,
	)
	return domain.Message{Role: domain.RoleAssistant, Content: resp.Content}, nil
}

// finalText returns the last assistant message with marker pairs stripped.
func (e *Engine) finalText(conv *Conversation) string {
	last, ok := conv.LastAssistant()
	if !ok {
		return ""
	}
	return StripToolCalls(last.Content)
}

// allSucceeded reports whether a non-empty result sequence is all-success.
// An empty sequence is not a success: it must never trigger continuation.
func allSucceeded(results []domain.ToolResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
