package utils

import (
	"encoding/json"
	"strings"

	"k8s.io/klog/v2"
)

// ExtractJSON pulls the first well-formed JSON object out of model output.
// Handles the object being wrapped in a ```json fenced block or embedded in
// surrounding prose. Returns the input unchanged when no object is found.
func ExtractJSON(content string) string {
	if fenced := extractFencedBlock(content); fenced != "" {
		if obj := extractBalancedObject(fenced); obj != "" {
			return obj
		}
	}
	if obj := extractBalancedObject(content); obj != "" {
		return obj
	}
	return content
}

// extractFencedBlock returns the body of the first ``` fenced code block,
// skipping an optional language tag on the opening line.
func extractFencedBlock(content string) string {
	open := strings.Index(content, "```")
	if open < 0 {
		return ""
	}
	body := content[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// drop the language tag ("json", "JSON", ...) with its newline
		tag := strings.TrimSpace(body[:nl])
		if len(tag) <= 10 && !strings.ContainsAny(tag, "{}") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return body
	}
	return body[:end]
}

// extractBalancedObject scans for the first brace-balanced {...} span.
// Braces inside JSON string literals are skipped.
func extractBalancedObject(content string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON marshal failed: %v", err)
		return ""
	}
	return string(jsonData)
}
