// Package bus provides the in-process message bus connecting channels to
// the agent service.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"mentat/internal/domain"
)

const defaultFullWait = 10 * time.Second

// Bus routes inbound messages from channels to the agent service over a
// buffered Go channel, and outbound messages back to channels through
// per-channel routes registered with OnOutbound.
type Bus struct {
	inbound  chan domain.InboundMessage
	fullWait time.Duration

	mu     sync.RWMutex
	routes map[string]func(domain.OutboundMessage)
	closed bool

	logger *slog.Logger
}

// New creates a Bus with the given inbound buffer size.
func New(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		inbound:  make(chan domain.InboundMessage, bufferSize),
		fullWait: defaultFullWait,
		routes:   make(map[string]func(domain.OutboundMessage)),
		logger:   logger,
	}
}

// Publish enqueues an inbound message. When the buffer is full it blocks up
// to fullWait before dropping, so a slow agent stalls producers instead of
// silently losing their messages.
func (b *Bus) Publish(msg domain.InboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("publish on closed bus dropped", "channel", msg.Channel)
		return
	}

	select {
	case b.inbound <- msg:
		return
	default:
	}

	b.logger.Warn("inbound buffer full, waiting", "channel", msg.Channel, "sender", msg.SenderID)
	timer := time.NewTimer(b.fullWait)
	defer timer.Stop()
	select {
	case b.inbound <- msg:
		b.logger.Info("message delivered after wait", "channel", msg.Channel)
	case <-timer.C:
		b.logger.Error("inbound message dropped",
			"channel", msg.Channel,
			"sender", msg.SenderID,
			"waited", b.fullWait,
		)
	}
}

// Subscribe returns the inbound stream. The channel closes when Close runs.
func (b *Bus) Subscribe() <-chan domain.InboundMessage {
	return b.inbound
}

// SendOutbound delivers a message to the route registered for its channel.
// Messages for channels without a route are dropped with a warning.
func (b *Bus) SendOutbound(msg domain.OutboundMessage) {
	b.mu.RLock()
	route, ok := b.routes[msg.Channel]
	b.mu.RUnlock()

	if !ok {
		b.logger.Warn("no route for outbound channel", "channel", msg.Channel)
		return
	}
	route(msg)
}

// OnOutbound registers the delivery function for a channel, replacing any
// earlier registration.
func (b *Bus) OnOutbound(channelName string, handler func(domain.OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[channelName] = handler
}

// Close shuts the inbound stream. Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}

var _ domain.MessageBus = (*Bus)(nil)
