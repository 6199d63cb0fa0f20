package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mentat/internal/domain"
)

const defaultHistoryLimit = 50

// Service consumes inbound messages from the bus and runs one orchestration
// pass per message. Passes against the same conversation are serialized with
// a per-session lock; distinct sessions may run concurrently.
type Service struct {
	engine       *Engine
	sessions     *SessionManager
	bus          domain.MessageBus
	logger       *slog.Logger
	provider     string
	historyLimit int

	locks sync.Map // session key -> *sync.Mutex
}

type ServiceConfig struct {
	Engine       *Engine
	Sessions     *SessionManager
	Bus          domain.MessageBus
	Logger       *slog.Logger
	Provider     string
	HistoryLimit int
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		engine:       cfg.Engine,
		sessions:     cfg.Sessions,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		provider:     cfg.Provider,
		historyLimit: cfg.HistoryLimit,
	}
}

// Run consumes inbound messages until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("agent service started")
	inbound := s.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("agent service stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				s.logger.Info("inbound channel closed, agent service stopping")
				return
			}
			go s.process(ctx, msg)
		}
	}
}

// ProcessDirect handles a message synchronously and returns the final
// assistant text. Used by the one-shot CLI command.
func (s *Service) ProcessDirect(ctx context.Context, content, channel, chatID string) (string, error) {
	return s.handle(ctx, domain.InboundMessage{
		Channel:   channel,
		ChatID:    chatID,
		SenderID:  "user",
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (s *Service) process(ctx context.Context, msg domain.InboundMessage) {
	s.logger.Info("processing message",
		"channel", msg.Channel,
		"sender", msg.SenderID,
		"content_len", len(msg.Content),
	)

	reply, err := s.handle(ctx, msg)
	if err != nil {
		s.logger.Error("message processing failed", "err", err)
		reply = fmt.Sprintf("Sorry, I encountered an error: %s", err.Error())
	}

	s.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Message: domain.Message{Role: domain.RoleAssistant, Content: reply},
		Format:  "markdown",
	})
}

// handle runs one full pass for an inbound message under the session lock.
func (s *Service) handle(ctx context.Context, msg domain.InboundMessage) (string, error) {
	sessionKey := msg.Channel + ":" + msg.ChatID

	lock := s.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	convID, err := s.sessions.GetOrCreateConversation(ctx, sessionKey, s.provider)
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}

	conv, err := s.sessions.Load(ctx, convID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load history, continuing without it", "err", err)
		conv = NewConversation(convID, nil)
	}
	firstMessage := conv.Len() == 0

	conv.Append(domain.Message{Role: domain.RoleUser, Content: msg.Content})

	reply, err := s.engine.RunPass(ctx, conv)
	if err != nil {
		return "", err
	}

	// Forward appended tool messages so UIs can render (and fold) them.
	for _, m := range conv.Appended() {
		if m.Role == domain.RoleTool {
			s.bus.SendOutbound(domain.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Message: m,
				Format:  "text",
			})
		}
	}

	s.sessions.Persist(ctx, conv)
	if firstMessage {
		s.sessions.UpdateTitle(ctx, convID, msg.Content)
	}

	return reply, nil
}

func (s *Service) sessionLock(key string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
