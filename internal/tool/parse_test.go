package tool

import (
	"reflect"
	"testing"
)

func TestParsePayload_CallSyntax(t *testing.T) {
	cases := []struct {
		name     string
		payload  string
		wantName string
		wantArgs map[string]any
	}{
		{
			name:     "single string arg",
			payload:  `read_file(path="notes.txt")`,
			wantName: "read_file",
			wantArgs: map[string]any{"path": "notes.txt"},
		},
		{
			name:     "multiple args with spaces",
			payload:  `write_file(path="a.txt", content="hello world")`,
			wantName: "write_file",
			wantArgs: map[string]any{"path": "a.txt", "content": "hello world"},
		},
		{
			name:     "escaped quotes and newlines",
			payload:  `shell(command="echo \"hi\"\nls")`,
			wantName: "shell",
			wantArgs: map[string]any{"command": "echo \"hi\"\nls"},
		},
		{
			name:     "bare number and bool",
			payload:  `shell(command="sleep 1", timeout=60, verbose=true)`,
			wantName: "shell",
			wantArgs: map[string]any{"command": "sleep 1", "timeout": float64(60), "verbose": true},
		},
		{
			name:     "no arguments",
			payload:  `list_dir()`,
			wantName: "list_dir",
			wantArgs: map[string]any{},
		},
		{
			name:     "bare name",
			payload:  `list_dir`,
			wantName: "list_dir",
			wantArgs: map[string]any{},
		},
		{
			name:     "surrounding whitespace",
			payload:  "\n  recall(key=\"tz\")  \n",
			wantName: "recall",
			wantArgs: map[string]any{"key": "tz"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, args, err := ParsePayload(tc.payload)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if name != tc.wantName {
				t.Fatalf("expected name %q, got %q", tc.wantName, name)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("expected args %v, got %v", tc.wantArgs, args)
			}
		})
	}
}

func TestParsePayload_JSON(t *testing.T) {
	name, args, err := ParsePayload(`{"name": "shell", "arguments": {"command": "ls"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != "shell" {
		t.Fatalf("expected 'shell', got %q", name)
	}
	if args["command"] != "ls" {
		t.Fatalf("expected command arg, got %v", args)
	}

	// Arguments may be absent.
	name, args, err = ParsePayload(`{"name": "list_dir"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != "list_dir" || args == nil {
		t.Fatalf("expected list_dir with empty args, got %q %v", name, args)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		`read_file(path=`,
		`read_file(path="unterminated)`,
		`(path="x")`,
		`1read_file(path="x")`,
		`{"arguments": {}}`,
		`{not json}`,
		`shell(="x")`,
		`shell(command="a" path="b")`,
	}
	for _, payload := range cases {
		if _, _, err := ParsePayload(payload); err == nil {
			t.Fatalf("expected error for payload %q", payload)
		}
	}
}
