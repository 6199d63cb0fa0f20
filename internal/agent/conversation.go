package agent

import "mentat/internal/domain"

// Conversation is the in-memory message sequence for one chat session.
// The engine appends to it during a pass; it is single-writer for the
// duration of the pass (concurrent passes against the same conversation are
// serialized by Service).
type Conversation struct {
	ID       string
	messages []domain.Message
	appended []domain.Message // messages added since construction, for persistence
}

func NewConversation(id string, history []domain.Message) *Conversation {
	msgs := make([]domain.Message, len(history))
	copy(msgs, history)
	return &Conversation{ID: id, messages: msgs}
}

// Append adds a message. Messages are never reordered or deleted.
func (c *Conversation) Append(msg domain.Message) {
	c.messages = append(c.messages, msg)
	c.appended = append(c.appended, msg)
}

// Snapshot returns a copy of the current message sequence.
func (c *Conversation) Snapshot() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int { return len(c.messages) }

// Last returns the most recent message.
func (c *Conversation) Last() (domain.Message, bool) {
	if len(c.messages) == 0 {
		return domain.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant message.
func (c *Conversation) LastAssistant() (domain.Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == domain.RoleAssistant {
			return c.messages[i], true
		}
	}
	return domain.Message{}, false
}

// Appended returns the messages added since the conversation was loaded.
func (c *Conversation) Appended() []domain.Message {
	out := make([]domain.Message, len(c.appended))
	copy(out, c.appended)
	return out
}
