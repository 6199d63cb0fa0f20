package agent

import "testing"

func TestExtractToolCalls_Single(t *testing.T) {
	input := `<tool_call>read_file(path="a.txt")</tool_call>`
	calls := ExtractToolCalls(input)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0] != `read_file(path="a.txt")` {
		t.Fatalf("unexpected payload: %q", calls[0])
	}
}

func TestExtractToolCalls_MultipleInOrder(t *testing.T) {
	input := "I'll check both files.\n" +
		"<tool_call>read_file(path=\"a.txt\")</tool_call>\n" +
		"then\n" +
		"<tool_call>read_file(path=\"b.txt\")</tool_call>"
	calls := ExtractToolCalls(input)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0] != `read_file(path="a.txt")` || calls[1] != `read_file(path="b.txt")` {
		t.Fatalf("calls out of document order: %v", calls)
	}
}

func TestExtractToolCalls_MultilinePayload(t *testing.T) {
	input := "<tool_call>\n  write_file(path=\"x\",\n  content=\"hi\")\n</tool_call>"
	calls := ExtractToolCalls(input)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0] != "write_file(path=\"x\",\n  content=\"hi\")" {
		t.Fatalf("payload not trimmed correctly: %q", calls[0])
	}
}

func TestExtractToolCalls_NoMarkers(t *testing.T) {
	if calls := ExtractToolCalls("just a plain answer"); len(calls) != 0 {
		t.Fatalf("expected 0 calls, got %d", len(calls))
	}
}

func TestExtractToolCalls_UnmatchedOpener(t *testing.T) {
	input := "thinking... <tool_call>shell(command=\"ls\")"
	if calls := ExtractToolCalls(input); len(calls) != 0 {
		t.Fatalf("unmatched opener must yield nothing, got %v", calls)
	}
}

func TestExtractToolCalls_NestedOpenerIsLiteral(t *testing.T) {
	input := "<tool_call>outer <tool_call> inner</tool_call>"
	calls := ExtractToolCalls(input)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0] != "outer <tool_call> inner" {
		t.Fatalf("inner opener must be literal payload text: %q", calls[0])
	}
}

func TestExtractToolCalls_EmptyPayload(t *testing.T) {
	calls := ExtractToolCalls("<tool_call>   </tool_call>")
	if len(calls) != 1 || calls[0] != "" {
		t.Fatalf("expected one empty payload per matched pair, got %v", calls)
	}
}

func TestContainsToolCalls(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"<tool_call>x</tool_call>", true},
		{"no markers here", false},
		{"<tool_call> only opener", false},
		{"only closer </tool_call>", false},
	}
	for _, c := range cases {
		if got := ContainsToolCalls(c.input); got != c.want {
			t.Errorf("ContainsToolCalls(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestStripToolCalls(t *testing.T) {
	input := "Let me look.\n<tool_call>read_file(path=\"a\")</tool_call>\nDone."
	out := StripToolCalls(input)
	if out != "Let me look.\n\nDone." {
		t.Fatalf("unexpected stripped text: %q", out)
	}
}
