package domain

import "context"

// MessageBus routes messages between channels and the agent service.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	SendOutbound(msg OutboundMessage)
	OnOutbound(channelName string, handler func(OutboundMessage))
	Close()
}

// Channel is an interaction surface (CLI, WebSocket, Telegram). Start blocks
// until the context is cancelled or the channel shuts down.
type Channel interface {
	Name() string
	Start(ctx context.Context, bus MessageBus) error
	Stop() error
}
