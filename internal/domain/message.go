package domain

import "time"

// Message roles. Tool result messages use RoleTool so UIs can distinguish
// them from user and assistant turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Metadata keys written on aggregate tool result messages. They are
// presentation hints: the UI layer decides what "collapsed" looks like.
const (
	MetaCollapsible = "collapsible"
	MetaCollapsed   = "collapsed"
)

// Message is a single conversation entry. The agent subsystem only ever
// appends messages; it never reorders or deletes them.
type Message struct {
	Role     string            `json:"role"` // user | assistant | system | tool
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Collapsed reports whether a message carries the collapsed-by-default hint.
func (m Message) Collapsed() bool {
	return m.Metadata[MetaCollapsed] == "true"
}

// InboundMessage is a user message arriving from a channel.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	Timestamp time.Time
}

// OutboundMessage carries a conversation entry back to a channel for
// delivery. Format is a rendering hint (text | markdown).
type OutboundMessage struct {
	Channel string
	ChatID  string
	Message Message
	Format  string
}
