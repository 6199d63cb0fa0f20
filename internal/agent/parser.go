package agent

import "strings"

// Tool call markers. Models are instructed (see prompt.go) to wrap each call
// in exactly one pair; the payload between the markers is handed to the tool
// registry untouched apart from whitespace trimming.
const (
	toolCallOpen  = "<tool_call>"
	toolCallClose = "</tool_call>"
)

// ContainsToolCalls is a cheap gate used before full extraction: both markers
// must be present somewhere in the text.
func ContainsToolCalls(text string) bool {
	return strings.Contains(text, toolCallOpen) && strings.Contains(text, toolCallClose)
}

// ExtractToolCalls scans text for <tool_call>...</tool_call> pairs and
// returns the trimmed payloads in document order. The scan is a single
// forward pass over the fixed tokens; no regex, no backtracking.
//
// An opening marker with no later closing marker yields nothing: partial
// markers are a model artifact, not an error worth surfacing. An opening
// marker inside a payload is literal text: the scanner pairs each opener
// with the next closer and never nests.
func ExtractToolCalls(text string) []string {
	var calls []string
	for {
		start := strings.Index(text, toolCallOpen)
		if start < 0 {
			break
		}
		rest := text[start+len(toolCallOpen):]
		end := strings.Index(rest, toolCallClose)
		if end < 0 {
			break // unmatched opener, drop silently
		}
		// One payload per matched pair, even when empty: the registry
		// reports an empty call as a normal failure result.
		calls = append(calls, strings.TrimSpace(rest[:end]))
		text = rest[end+len(toolCallClose):]
	}
	return calls
}

// StripToolCalls returns text with all well-formed marker pairs removed,
// used when rendering an assistant message that also carried calls.
func StripToolCalls(text string) string {
	var b strings.Builder
	for {
		start := strings.Index(text, toolCallOpen)
		if start < 0 {
			b.WriteString(text)
			break
		}
		rest := text[start+len(toolCallOpen):]
		end := strings.Index(rest, toolCallClose)
		if end < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:start])
		text = rest[end+len(toolCallClose):]
	}
	return strings.TrimSpace(b.String())
}
