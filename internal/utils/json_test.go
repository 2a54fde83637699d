package utils

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExtractJSONFromCodeBlock(t *testing.T) {
	content := "Here is the analysis you asked for:\n```json\n" +
		`{"agent": "Legal", "risk_score": 4}` + "\n```\nLet me know if you need more."
	extracted := ExtractJSON(content)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		t.Fatalf("extracted content is not valid JSON: %v\n%s", err, extracted)
	}
	if parsed["agent"] != "Legal" {
		t.Fatalf("unexpected agent: %v", parsed["agent"])
	}
}

func TestExtractJSONFromProse(t *testing.T) {
	content := `Sure! The verdict is {"agent": "Finance", "features": {"auto_renewal": true}} as requested.`
	extracted := ExtractJSON(content)
	if !strings.HasPrefix(extracted, "{") || !strings.HasSuffix(extracted, "}") {
		t.Fatalf("expected a bare object, got: %s", extracted)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		t.Fatalf("extracted content is not valid JSON: %v", err)
	}
	if parsed["agent"] != "Finance" {
		t.Fatalf("unexpected agent: %v", parsed["agent"])
	}
}

func TestExtractJSONNestedObjects(t *testing.T) {
	content := `prefix {"outer": {"inner": {"deep": 1}}, "tail": "x"} suffix`
	extracted := ExtractJSON(content)
	if extracted != `{"outer": {"inner": {"deep": 1}}, "tail": "x"}` {
		t.Fatalf("unexpected extraction: %s", extracted)
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	content := `{"analysis": "clause 4.2 says {payment} is due", "risk_score": 2}`
	extracted := ExtractJSON(content)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		t.Fatalf("extracted content is not valid JSON: %v", err)
	}
	if parsed["risk_score"] != float64(2) {
		t.Fatalf("unexpected risk_score: %v", parsed["risk_score"])
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	content := "no json here at all"
	if got := ExtractJSON(content); got != content {
		t.Fatalf("expected passthrough, got: %s", got)
	}
}
