package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"mentat/internal/domain"
)

// Memory implements domain.MemoryStore: short-term entries live in an
// in-process map and vanish on ClearShortTerm or restart; long-term entries
// go through the SQLite store. One Memory instance is shared as a handle by
// every batch context, so writes by one tool call are visible to the next.
type Memory struct {
	store  *SQLiteStore
	logger *slog.Logger

	mu         sync.RWMutex
	shortTerm  map[string]string
	projectCtx string

	contextLimit int
}

type Config struct {
	Store        *SQLiteStore
	ContextLimit int // max long-term entries rendered by BuildContext
	Logger       *slog.Logger
}

func New(cfg Config) *Memory {
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Memory{
		store:        cfg.Store,
		logger:       cfg.Logger,
		shortTerm:    make(map[string]string),
		contextLimit: cfg.ContextLimit,
	}
}

func (m *Memory) Store(ctx context.Context, key, value, kind string) error {
	switch kind {
	case domain.MemoryShortTerm:
		m.mu.Lock()
		m.shortTerm[key] = value
		m.mu.Unlock()
		return nil
	case domain.MemoryLongTerm:
		return m.store.SaveEntry(ctx, key, value, kind)
	default:
		return fmt.Errorf("unknown memory kind: %s", kind)
	}
}

// Retrieve checks short-term entries first, then the persistent store.
func (m *Memory) Retrieve(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	value, ok := m.shortTerm[key]
	m.mu.RUnlock()
	if ok {
		return value, true, nil
	}
	return m.store.GetEntry(ctx, key)
}

func (m *Memory) ClearShortTerm() {
	m.mu.Lock()
	m.shortTerm = make(map[string]string)
	m.mu.Unlock()
}

func (m *Memory) SetProjectContext(context string) {
	m.mu.Lock()
	m.projectCtx = context
	m.mu.Unlock()
}

// BuildContext renders the project context, recent long-term entries, and
// entries matching keywords from the latest user message as a text block for
// the system prompt. Rendering stays deterministic for a given store state
// and history.
func (m *Memory) BuildContext(history []domain.Message) string {
	m.mu.RLock()
	project := m.projectCtx
	m.mu.RUnlock()

	var b strings.Builder
	if project != "" {
		b.WriteString("Project context: ")
		b.WriteString(project)
		b.WriteString("\n")
	}

	limit := m.contextLimit
	if len(history) == 0 {
		// Fresh conversation: keep the prompt lean.
		limit = limit / 2
		if limit < 1 {
			limit = 1
		}
	}

	entries, err := m.store.RecentEntries(context.Background(), domain.MemoryLongTerm, limit)
	if err != nil {
		m.logger.Warn("failed to load memory entries for context", "err", err)
		return b.String()
	}
	if len(entries) > 0 {
		b.WriteString("Remembered facts:\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Value)
		}
	}

	if relevant := m.relevantEntries(history, entries); len(relevant) > 0 {
		b.WriteString("Relevant memories:\n")
		for _, e := range relevant {
			fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Value)
		}
	}
	return b.String()
}

// relevantEntries searches stored memories for keywords from the latest user
// message, skipping entries the recent list already covers.
func (m *Memory) relevantEntries(history []domain.Message, already []Entry) []Entry {
	terms := queryTerms(history)
	if len(terms) == 0 {
		return nil
	}

	matches, err := m.store.SearchEntries(context.Background(), domain.MemoryLongTerm, terms, 10)
	if err != nil {
		m.logger.Warn("memory search failed", "err", err)
		return nil
	}

	covered := make(map[string]bool, len(already))
	for _, e := range already {
		covered[e.Key] = true
	}

	var relevant []Entry
	for _, e := range matches {
		if !covered[e.Key] {
			relevant = append(relevant, e)
		}
	}
	return relevant
}

// searchStopwords are too common to select memories on.
var searchStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "are": true,
	"was": true, "can": true, "what": true, "how": true, "that": true,
	"this": true, "with": true, "please": true, "tell": true, "about": true,
}

const maxQueryTerms = 8

// queryTerms pulls lowercase keywords from the newest user message. Short
// words and stopwords are skipped so LIKE matching stays selective.
func queryTerms(history []domain.Message) []string {
	var latest string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			latest = history[i].Content
			break
		}
	}
	if latest == "" {
		return nil
	}

	fields := strings.FieldsFunc(strings.ToLower(latest), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || searchStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return terms
}

var _ domain.MemoryStore = (*Memory)(nil)
