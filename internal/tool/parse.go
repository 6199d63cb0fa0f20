package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParsePayload extracts a tool name and arguments from a marker payload.
//
// The primary form is call syntax:
//
//	read_file(path="notes.txt")
//	shell(command="ls -la", timeout=60)
//
// Some models emit JSON objects instead, so a payload starting with '{' is
// decoded as {"name": "...", "arguments": {...}}.
func ParsePayload(payload string) (string, map[string]any, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", nil, fmt.Errorf("empty payload")
	}
	if strings.HasPrefix(payload, "{") {
		return parseJSONCall(payload)
	}
	return parseCallSyntax(payload)
}

func parseJSONCall(payload string) (string, map[string]any, error) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(payload), &call); err != nil {
		return "", nil, fmt.Errorf("invalid JSON call: %w", err)
	}
	if call.Name == "" {
		return "", nil, fmt.Errorf("JSON call has no name")
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	return call.Name, call.Arguments, nil
}

func parseCallSyntax(payload string) (string, map[string]any, error) {
	open := strings.IndexByte(payload, '(')
	if open < 0 {
		// Bare name, no arguments.
		name := strings.TrimSpace(payload)
		if !validName(name) {
			return "", nil, fmt.Errorf("invalid tool name: %q", name)
		}
		return name, map[string]any{}, nil
	}
	name := strings.TrimSpace(payload[:open])
	if !validName(name) {
		return "", nil, fmt.Errorf("invalid tool name: %q", name)
	}
	if !strings.HasSuffix(payload, ")") {
		return "", nil, fmt.Errorf("unterminated argument list")
	}
	args, err := parseArgs(payload[open+1 : len(payload)-1])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// parseArgs reads a comma-separated key=value list. String values are
// double-quoted with \" and \\ escapes; anything unquoted is tried as a
// number or bool and kept as a raw string otherwise.
func parseArgs(s string) (map[string]any, error) {
	args := make(map[string]any)
	i := 0
	n := len(s)

	skipSpace := func() {
		for i < n && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
	}

	for {
		skipSpace()
		if i >= n {
			return args, nil
		}

		start := i
		for i < n && s[i] != '=' && s[i] != ',' {
			i++
		}
		if i >= n || s[i] != '=' {
			return nil, fmt.Errorf("expected key=value at %q", s[start:])
		}
		key := strings.TrimSpace(s[start:i])
		if key == "" {
			return nil, fmt.Errorf("empty argument key")
		}
		i++ // consume '='
		skipSpace()
		if i >= n {
			return nil, fmt.Errorf("missing value for %s", key)
		}

		if s[i] == '"' {
			val, next, err := parseQuoted(s, i)
			if err != nil {
				return nil, fmt.Errorf("value for %s: %w", key, err)
			}
			args[key] = val
			i = next
		} else {
			start = i
			for i < n && s[i] != ',' {
				i++
			}
			args[key] = coerceBare(strings.TrimSpace(s[start:i]))
		}

		skipSpace()
		if i < n {
			if s[i] != ',' {
				return nil, fmt.Errorf("expected ',' after value for %s", key)
			}
			i++
		}
	}
}

func parseQuoted(s string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1 // past opening quote
	for i < len(s) {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			switch s[i+1] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i+1])
			}
			i += 2
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func coerceBare(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
