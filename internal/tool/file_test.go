package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mentat/internal/domain"
)

func TestReadWriteFile(t *testing.T) {
	ws := t.TempDir()
	write := NewWriteFileTool(ws)
	read := NewReadFileTool(ws)

	out, err := write.Execute(context.Background(), map[string]any{
		"path":    "sub/notes.txt",
		"content": "hello from test",
	}, nil)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out, "15 bytes") {
		t.Fatalf("unexpected write summary: %q", out)
	}

	got, err := read.Execute(context.Background(), map[string]any{"path": "sub/notes.txt"}, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hello from test" {
		t.Fatalf("expected round-trip content, got %q", got)
	}
}

func TestReadFile_MissingArg(t *testing.T) {
	read := NewReadFileTool(t.TempDir())
	if _, err := read.Execute(context.Background(), map[string]any{}, nil); err == nil {
		t.Fatal("expected error without path")
	}
}

func TestResolvePath_BlocksTraversal(t *testing.T) {
	ws := t.TempDir()
	read := NewReadFileTool(ws)

	_, err := read.Execute(context.Background(), map[string]any{"path": "../../etc/passwd"}, nil)
	if err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if !strings.Contains(err.Error(), "outside workspace") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileTools_PreferContextWorkingDir(t *testing.T) {
	fallback := t.TempDir()
	callDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(callDir, "a.txt"), []byte("from call dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	read := NewReadFileTool(fallback)
	tc := &domain.ToolContext{WorkingDir: callDir}
	got, err := read.Execute(context.Background(), map[string]any{"path": "a.txt"}, tc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "from call dir" {
		t.Fatalf("expected call context dir to win, got %q", got)
	}
}

func TestListDir(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "a.txt"), []byte("aa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(ws, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	list := NewListDirTool(ws)
	out, err := list.Execute(context.Background(), map[string]any{}, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "a.txt 2") {
		t.Fatalf("expected file with size, got %q", out)
	}
	if !strings.Contains(out, "sub") {
		t.Fatalf("expected directory entry, got %q", out)
	}
}
