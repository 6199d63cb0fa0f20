package channel

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"mentat/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// captureBus records published messages and registered handlers.
type captureBus struct {
	published []domain.InboundMessage
	handlers  map[string]func(domain.OutboundMessage)
}

func newCaptureBus() *captureBus {
	return &captureBus{handlers: map[string]func(domain.OutboundMessage){}}
}

func (b *captureBus) Publish(msg domain.InboundMessage) { b.published = append(b.published, msg) }
func (b *captureBus) Subscribe() <-chan domain.InboundMessage {
	return make(chan domain.InboundMessage)
}
func (b *captureBus) SendOutbound(msg domain.OutboundMessage) {
	if h, ok := b.handlers[msg.Channel]; ok {
		h(msg)
	}
}
func (b *captureBus) OnOutbound(name string, h func(domain.OutboundMessage)) { b.handlers[name] = h }
func (b *captureBus) Close()                                                {}

var _ domain.MessageBus = (*captureBus)(nil)

func TestCLI_PublishesInput(t *testing.T) {
	in := strings.NewReader("hello assistant\n/quit\n")
	var out bytes.Buffer
	cli := NewCLI(CLIConfig{Logger: testLogger(), In: in, Out: &out})
	bus := newCaptureBus()

	if err := cli.Start(context.Background(), bus); err != nil {
		t.Fatalf("start: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(bus.published))
	}
	msg := bus.published[0]
	if msg.Channel != "cli" || msg.Content != "hello assistant" {
		t.Fatalf("unexpected inbound: %+v", msg)
	}
	cli.stopThinking()
}

func TestCLI_SkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n   \n")
	var out bytes.Buffer
	cli := NewCLI(CLIConfig{Logger: testLogger(), In: in, Out: &out})
	bus := newCaptureBus()

	if err := cli.Start(context.Background(), bus); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no published messages, got %d", len(bus.published))
	}
}

func TestCLI_FoldsCollapsedMessages(t *testing.T) {
	var out bytes.Buffer
	cli := NewCLI(CLIConfig{Logger: testLogger(), In: strings.NewReader(""), Out: &out})

	cli.render(domain.OutboundMessage{
		Channel: "cli",
		Message: domain.Message{
			Role:     domain.RoleTool,
			Content:  "Tool execution results:\n\n## Tool Call 1\nstatus=success\nok",
			Metadata: map[string]string{domain.MetaCollapsible: "true", domain.MetaCollapsed: "true"},
		},
	})

	if !strings.Contains(out.String(), "tool results hidden") {
		t.Fatalf("expected folded notice, got %q", out.String())
	}
	if strings.Contains(out.String(), "status=success") {
		t.Fatalf("expected raw results to be hidden, got %q", out.String())
	}
}

func TestCLI_ShowResults(t *testing.T) {
	var out bytes.Buffer
	cli := NewCLI(CLIConfig{Logger: testLogger(), In: strings.NewReader(""), Out: &out, ShowResults: true})

	cli.render(domain.OutboundMessage{
		Channel: "cli",
		Message: domain.Message{
			Role:     domain.RoleTool,
			Content:  "Tool execution results:\n\n## Tool Call 1\nstatus=success\nok",
			Metadata: map[string]string{domain.MetaCollapsed: "true"},
		},
	})

	if !strings.Contains(out.String(), "status=success") {
		t.Fatalf("expected results shown, got %q", out.String())
	}
}
