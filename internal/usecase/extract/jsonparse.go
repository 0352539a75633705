package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

// fields is a model reply decoded as a JSON object, values left raw for per-field coercion.
type fields map[string]json.RawMessage

// parseReply decodes a model reply into fields. It strips a surrounding code fence,
// tries the whole text, then the first balanced {...} span. A fence written on a
// single line is stripped to nothing, so the raw reply is scanned last.
// ok is false when nothing parses.
func parseReply(text string) (f fields, ok bool) {
	raw := strings.TrimSpace(text)
	text = stripFence(raw)

	if text != "" {
		if f, ok := decodeObject(text); ok {
			return f, true
		}
		if f, ok := decodeSpan(text); ok {
			return f, true
		}
	}
	if text != raw {
		if f, ok := decodeSpan(raw); ok {
			return f, true
		}
	}
	return fields{}, false
}

func decodeSpan(text string) (fields, bool) {
	if span := firstObject(text); span != "" {
		return decodeObject(span)
	}
	return nil, false
}

func decodeObject(s string) (fields, bool) {
	var f fields
	if err := json.Unmarshal([]byte(s), &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

// stripFence removes a leading ```lang line and a trailing ``` line.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// firstObject returns the first balanced {...} span, skipping braces inside JSON strings.
func firstObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// rawKind classifies a raw JSON value by its first byte.
type rawKind int

const (
	kindAbsent rawKind = iota
	kindString
	kindNumber
	kindOther
)

func kindOf(raw json.RawMessage) rawKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return kindAbsent
	}
	switch c := raw[0]; {
	case c == '"':
		return kindString
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	default:
		return kindOther
	}
}
