package agent

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"mentat/internal/domain"
)

// fakeDispatcher records calls and returns scripted results.
type fakeDispatcher struct {
	results  map[string]domain.ToolResult // payload or name -> result
	payloads []string
	directs  []string
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{results: make(map[string]domain.ToolResult)}
}

func (f *fakeDispatcher) ParseAndExecute(_ context.Context, payload string, _ *domain.ToolContext) domain.ToolResult {
	f.payloads = append(f.payloads, payload)
	if r, ok := f.results[payload]; ok {
		return r
	}
	return domain.ToolResult{Success: true, Payload: "ok: " + payload}
}

func (f *fakeDispatcher) Execute(_ context.Context, name string, _ map[string]any, _ *domain.ToolContext) domain.ToolResult {
	f.directs = append(f.directs, name)
	if r, ok := f.results[name]; ok {
		return r
	}
	return domain.ToolResult{Success: true, Payload: "ok: " + name}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestOrchestrator(d *fakeDispatcher) *Orchestrator {
	builder := NewContextBuilder(ContextBuilderConfig{WorkingDir: "/tmp/ws", Memory: newFakeMemory()})
	return NewOrchestrator(d, builder, testLogger())
}

func TestExecuteBatch_AllSucceed(t *testing.T) {
	d := newFakeDispatcher()
	o := newTestOrchestrator(d)

	payloads := []string{`read_file(path="a")`, `read_file(path="b")`}
	results := o.ExecuteBatch(context.Background(), payloads, &domain.ToolContext{})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Errorf("result %d should succeed: %+v", i, r)
		}
	}
	if d.payloads[0] != payloads[0] || d.payloads[1] != payloads[1] {
		t.Fatalf("dispatch order wrong: %v", d.payloads)
	}
}

func TestExecuteBatch_FailureIsolated(t *testing.T) {
	d := newFakeDispatcher()
	d.results[`read_file(path="missing")`] = domain.ToolResult{Success: false, Payload: "file not found"}
	o := newTestOrchestrator(d)

	payloads := []string{`read_file(path="missing")`, `shell(command="ls")`}
	results := o.ExecuteBatch(context.Background(), payloads, &domain.ToolContext{})

	if len(results) != len(payloads) {
		t.Fatalf("result length must match call count: %d != %d", len(results), len(payloads))
	}
	if results[0].Success {
		t.Fatal("first result should fail")
	}
	if results[0].Payload == "" {
		t.Fatal("failure result must carry a description")
	}
	if !results[1].Success {
		t.Fatal("failure must not abort the sibling call")
	}
}

func TestExecuteBatch_Empty(t *testing.T) {
	o := newTestOrchestrator(newFakeDispatcher())
	if results := o.ExecuteBatch(context.Background(), nil, &domain.ToolContext{}); len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestExecuteBatch_CancelledContext(t *testing.T) {
	d := newFakeDispatcher()
	o := newTestOrchestrator(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.ExecuteBatch(ctx, []string{"a()", "b()"}, &domain.ToolContext{})
	if len(results) != 2 {
		t.Fatalf("cancelled batch must keep full result length, got %d", len(results))
	}
	for _, r := range results {
		if r.Success {
			t.Fatal("cancelled calls must report failure")
		}
	}
	if len(d.payloads) != 0 {
		t.Fatal("no call should be dispatched after cancellation")
	}
}

func TestExecuteDirect_AppendsResultMessage(t *testing.T) {
	d := newFakeDispatcher()
	o := newTestOrchestrator(d)
	conv := NewConversation("c1", nil)

	result := o.ExecuteDirect(context.Background(), "shell", map[string]any{"command": "ls"}, conv)
	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if len(d.directs) != 1 || d.directs[0] != "shell" {
		t.Fatalf("direct dispatch not recorded: %v", d.directs)
	}

	last, ok := conv.Last()
	if !ok || last.Role != domain.RoleTool {
		t.Fatalf("expected appended tool message, got %+v", last)
	}
	if !last.Collapsed() {
		t.Fatal("direct result message must carry collapsed metadata")
	}
	if !strings.Contains(last.Content, "status=success") {
		t.Fatalf("message must embed the serialized result: %q", last.Content)
	}
}

func TestExecuteDirect_FailureStillAppended(t *testing.T) {
	d := newFakeDispatcher()
	d.results["shell"] = domain.ToolResult{Success: false, Payload: "denied"}
	o := newTestOrchestrator(d)
	conv := NewConversation("c1", nil)

	result := o.ExecuteDirect(context.Background(), "shell", nil, conv)
	if result.Success {
		t.Fatal("expected failure result")
	}
	last, _ := conv.Last()
	if !strings.Contains(last.Content, "status=failure") {
		t.Fatalf("failure must remain visible in the conversation: %q", last.Content)
	}
}
