package agent

import (
	"os"

	"mentat/internal/domain"
)

// ContextBuilder assembles the execution context shared by one batch of tool
// calls. Build is side-effect-free assembly: it reads configuration set at
// construction time and snapshots the conversation. It runs exactly once per
// batch, never once per call.
type ContextBuilder struct {
	workingDir  string
	projectPath string
	settings    domain.Settings
	memory      domain.MemoryStore
}

type ContextBuilderConfig struct {
	WorkingDir  string
	ProjectPath string
	Settings    domain.Settings
	Memory      domain.MemoryStore
}

func NewContextBuilder(cfg ContextBuilderConfig) *ContextBuilder {
	return &ContextBuilder{
		workingDir:  cfg.WorkingDir,
		projectPath: cfg.ProjectPath,
		settings:    cfg.Settings,
		memory:      cfg.Memory,
	}
}

// Build returns the context for one batch. A missing working directory falls
// back to the process default rather than failing; the conversation snapshot
// is empty when there is no active conversation. The memory field is a handle
// to the shared store, so writes by earlier calls in the batch are visible to
// later ones even though the context itself never changes.
func (b *ContextBuilder) Build(conversation []domain.Message) *domain.ToolContext {
	workingDir := b.workingDir
	if workingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workingDir = wd
		} else {
			workingDir = "."
		}
	}

	snapshot := make([]domain.Message, len(conversation))
	copy(snapshot, conversation)

	return &domain.ToolContext{
		WorkingDir:   workingDir,
		ProjectPath:  b.projectPath,
		Conversation: snapshot,
		Settings:     b.settings,
		Memory:       b.memory,
	}
}
