package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"mentat/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ConversationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := domain.Conversation{ID: "c1", Title: "test", Provider: "ollama"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "test" {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	if err := store.UpdateTitle(ctx, "c1", "renamed"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	got, _ = store.GetConversation(ctx, "c1")
	if got.Title != "renamed" {
		t.Fatalf("title not updated: %q", got.Title)
	}

	missing, err := store.GetConversation(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing conversation, got %+v, %v", missing, err)
	}
}

func TestStore_MessagesOrderAndMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateConversation(ctx, domain.Conversation{ID: "c1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "second"},
		{Role: domain.RoleTool, Content: "third", Metadata: map[string]string{
			domain.MetaCollapsible: "true",
			domain.MetaCollapsed:   "true",
		}},
	}
	for _, m := range msgs {
		if err := store.AddMessage(ctx, "c1", m); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := store.GetMessages(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range msgs {
		if got[i].Content != m.Content {
			t.Errorf("message %d out of order: want %q, got %q", i, m.Content, got[i].Content)
		}
	}
	if !got[2].Collapsed() {
		t.Fatal("tool message metadata lost")
	}
}

func TestStore_MessageLimitKeepsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.CreateConversation(ctx, domain.Conversation{ID: "c1"})
	for _, c := range []string{"a", "b", "c", "d"} {
		store.AddMessage(ctx, "c1", domain.Message{Role: domain.RoleUser, Content: c})
	}

	got, err := store.GetMessages(ctx, "c1", 2)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(got) != 2 || got[0].Content != "c" || got[1].Content != "d" {
		t.Fatalf("expected newest two in order, got %+v", got)
	}
}

func TestStore_EntryUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveEntry(ctx, "lang", "go", domain.MemoryLongTerm); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveEntry(ctx, "lang", "golang", domain.MemoryLongTerm); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	value, ok, err := store.GetEntry(ctx, "lang")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if value != "golang" {
		t.Fatalf("expected upserted value, got %q", value)
	}

	_, ok, err = store.GetEntry(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected absent entry, got ok=%v err=%v", ok, err)
	}
}

func TestStore_SearchEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.SaveEntry(ctx, "favorite-distro", "Debian stable", domain.MemoryLongTerm)
	store.SaveEntry(ctx, "editor", "vim", domain.MemoryLongTerm)
	store.SaveEntry(ctx, "scratch", "debian notes", domain.MemoryShortTerm)

	// Case-insensitive match on key or value, scoped to the kind.
	got, err := store.SearchEntries(ctx, domain.MemoryLongTerm, []string{"debian"}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Key != "favorite-distro" {
		t.Fatalf("expected the long-term debian entry, got %+v", got)
	}

	got, err = store.SearchEntries(ctx, domain.MemoryLongTerm, []string{"emacs", "editor"}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Key != "editor" {
		t.Fatalf("expected match on any term, got %+v", got)
	}

	got, err = store.SearchEntries(ctx, domain.MemoryLongTerm, nil, 10)
	if err != nil || got != nil {
		t.Fatalf("expected nothing without terms, got %+v err=%v", got, err)
	}
}
