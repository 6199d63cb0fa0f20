package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mentat/internal/domain"

	"github.com/google/uuid"
)

// SessionManager maps channel:chatID session keys to persisted conversations
// and loads/saves their history.
type SessionManager struct {
	store  domain.ConversationStore
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]string // session key -> conversation ID
}

func NewSessionManager(store domain.ConversationStore, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		store:    store,
		logger:   logger,
		sessions: make(map[string]string),
	}
}

// GetOrCreateConversation returns the conversation ID for a session key,
// creating a new conversation when the key is unseen.
func (sm *SessionManager) GetOrCreateConversation(ctx context.Context, sessionKey, provider string) (string, error) {
	sm.mu.Lock()
	convID, ok := sm.sessions[sessionKey]
	sm.mu.Unlock()

	if ok {
		return convID, nil
	}

	convID = uuid.NewString()
	if err := sm.store.CreateConversation(ctx, domain.Conversation{
		ID:       convID,
		Provider: provider,
	}); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	sm.mu.Lock()
	sm.sessions[sessionKey] = convID
	sm.mu.Unlock()

	sm.logger.Debug("created conversation", "session", sessionKey, "conversation", convID)
	return convID, nil
}

// Load returns a Conversation populated with up to limit persisted messages.
func (sm *SessionManager) Load(ctx context.Context, convID string, limit int) (*Conversation, error) {
	history, err := sm.store.GetMessages(ctx, convID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return NewConversation(convID, history), nil
}

// Persist saves the messages appended to conv during a pass.
func (sm *SessionManager) Persist(ctx context.Context, conv *Conversation) {
	for _, msg := range conv.Appended() {
		if err := sm.store.AddMessage(ctx, conv.ID, msg); err != nil {
			sm.logger.Warn("failed to persist message", "conversation", conv.ID, "err", err)
		}
	}
}

// UpdateTitle derives a short title from the first user message.
func (sm *SessionManager) UpdateTitle(ctx context.Context, convID, firstUserMsg string) {
	title := generateTitle(firstUserMsg)
	if err := sm.store.UpdateTitle(ctx, convID, title); err != nil {
		sm.logger.Warn("failed to update title", "conversation", convID, "err", err)
	}
}

// ClearSession forgets the session key mapping; the next message starts a
// fresh conversation.
func (sm *SessionManager) ClearSession(sessionKey string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionKey)
	sm.mu.Unlock()
}

const maxTitleLen = 50

func generateTitle(msg string) string {
	title := strings.TrimSpace(msg)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen] + "..."
	}
	return title
}
