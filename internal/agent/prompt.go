package agent

import (
	"context"
	"fmt"
	"strings"

	"mentat/internal/domain"
)

// ToolCatalog is the registry introspection surface the prompt needs.
type ToolCatalog interface {
	GetAllTools() []domain.ToolDefinition
}

// PromptBuilder assembles the message sequence sent to the provider: a
// system message describing the assistant, its tools, and the marker
// protocol, followed by the conversation history.
type PromptBuilder struct {
	workspace string
	memory    domain.MemoryStore
	catalog   ToolCatalog
	extra     string // persona text appended to the system prompt
}

type PromptConfig struct {
	Workspace string
	Memory    domain.MemoryStore
	Catalog   ToolCatalog
	Extra     string
}

func NewPromptBuilder(cfg PromptConfig) *PromptBuilder {
	return &PromptBuilder{
		workspace: cfg.Workspace,
		memory:    cfg.Memory,
		catalog:   cfg.Catalog,
		extra:     cfg.Extra,
	}
}

const basePrompt = `You are Mentat, a personal AI assistant with access to tools.

To use a tool, emit a call wrapped in markers, one pair per call:

<tool_call>tool_name(param="value", other="value")</tool_call>

Rules:
- Emit markers only when you actually want the tool to run.
- You may emit several calls in one response; they run in order.
- After your calls run, their results are appended to the conversation and
  you will be asked to continue.
- When you have the final answer, respond with plain text and no markers.`

// BuildMessages returns the system message plus the conversation history.
func (p *PromptBuilder) BuildMessages(ctx context.Context, conv *Conversation) ([]domain.Message, error) {
	var b strings.Builder
	b.WriteString(basePrompt)

	if p.workspace != "" {
		fmt.Fprintf(&b, "\n\nWorkspace directory: %s", p.workspace)
	}

	if p.catalog != nil {
		tools := p.catalog.GetAllTools()
		if len(tools) > 0 {
			b.WriteString("\n\nAvailable tools:")
			for _, t := range tools {
				fmt.Fprintf(&b, "\n- %s: %s", t.Name, t.Description)
			}
		}
	}

	if p.memory != nil {
		history := conv.Snapshot()
		if memCtx := p.memory.BuildContext(history); memCtx != "" {
			b.WriteString("\n\n")
			b.WriteString(memCtx)
		}
	}

	if p.extra != "" {
		b.WriteString("\n\n")
		b.WriteString(p.extra)
	}

	messages := []domain.Message{{Role: domain.RoleSystem, Content: b.String()}}
	messages = append(messages, conv.Snapshot()...)
	return messages, nil
}
