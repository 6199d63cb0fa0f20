package agent

import (
	"context"
	"testing"

	"mentat/internal/domain"
)

// fakeMemory implements domain.MemoryStore for tests.
type fakeMemory struct {
	entries map[string]string
	cleared bool
	project string
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{entries: make(map[string]string)}
}

func (f *fakeMemory) Store(_ context.Context, key, value, _ string) error {
	f.entries[key] = value
	return nil
}

func (f *fakeMemory) Retrieve(_ context.Context, key string) (string, bool, error) {
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeMemory) ClearShortTerm()                        { f.cleared = true }
func (f *fakeMemory) BuildContext(_ []domain.Message) string { return "" }
func (f *fakeMemory) SetProjectContext(ctx string)           { f.project = ctx }

func TestContextBuilder_Build(t *testing.T) {
	mem := newFakeMemory()
	b := NewContextBuilder(ContextBuilderConfig{
		WorkingDir:  "/tmp/ws",
		ProjectPath: "/tmp/proj",
		Settings:    domain.Settings{Provider: "ollama", Model: "llama3.1:8b"},
		Memory:      mem,
	})

	conv := []domain.Message{{Role: domain.RoleUser, Content: "hi"}}
	tc := b.Build(conv)

	if tc.WorkingDir != "/tmp/ws" || tc.ProjectPath != "/tmp/proj" {
		t.Fatalf("paths not propagated: %+v", tc)
	}
	if tc.Settings.Provider != "ollama" {
		t.Fatalf("settings not propagated: %+v", tc.Settings)
	}
	if len(tc.Conversation) != 1 || tc.Conversation[0].Content != "hi" {
		t.Fatalf("conversation snapshot wrong: %+v", tc.Conversation)
	}
	if tc.Memory != domain.MemoryStore(mem) {
		t.Fatal("memory must be a shared handle, not a copy")
	}
}

func TestContextBuilder_SnapshotIsolation(t *testing.T) {
	b := NewContextBuilder(ContextBuilderConfig{WorkingDir: "/tmp/ws"})
	conv := []domain.Message{{Role: domain.RoleUser, Content: "original"}}
	tc := b.Build(conv)

	conv[0].Content = "mutated"
	if tc.Conversation[0].Content != "original" {
		t.Fatal("snapshot must not alias the caller's slice")
	}
}

func TestContextBuilder_WorkingDirFallback(t *testing.T) {
	b := NewContextBuilder(ContextBuilderConfig{})
	tc := b.Build(nil)
	if tc.WorkingDir == "" {
		t.Fatal("missing working directory must fall back to a process default")
	}
	if len(tc.Conversation) != 0 {
		t.Fatalf("expected empty snapshot, got %d messages", len(tc.Conversation))
	}
}
