package domain

import (
	"context"
	"time"
)

// Memory entry kinds. Short-term entries live in process memory and are
// dropped by ClearShortTerm; long-term entries persist across restarts.
const (
	MemoryShortTerm = "short_term"
	MemoryLongTerm  = "long_term"
)

// MemoryStore is the persistent memory collaborator shared by tools and the
// prompt builder. Batch contexts hold a handle to it, never a copy, so a
// write by call i is visible to call i+1 in the same batch.
type MemoryStore interface {
	Store(ctx context.Context, key, value, kind string) error
	Retrieve(ctx context.Context, key string) (string, bool, error)
	ClearShortTerm()
	BuildContext(history []Message) string
	SetProjectContext(context string)
}

// ConversationStore handles persistence of conversations and their messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)

	AddMessage(ctx context.Context, convID string, msg Message) error
	GetMessages(ctx context.Context, convID string, limit int) ([]Message, error)

	Close() error
}

// Conversation is a persisted conversation header.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
