package parse

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseJSONObjectWithChoices(t *testing.T) {
	input := "```json\n{\"description\": \"hats\", \"choices\": [\"top_hat\", null, \"beret\"]}\n```"
	out := ParseJSONObject(input, "hats")

	var obj map[string]any
	if err := json.Unmarshal([]byte(out), &obj); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if obj["description"] != "hats" {
		t.Errorf("description = %v", obj["description"])
	}
	choices := obj["choices"].([]any)
	want := []any{"top hat", "beret"}
	if !reflect.DeepEqual(choices, want) {
		t.Errorf("choices = %v, want %v", choices, want)
	}
}

func TestParseJSONObjectVerbatimWithoutChoices(t *testing.T) {
	input := `prefix {"error": "no can do"} suffix`
	out := ParseJSONObject(input, "topic")
	if out != `{"error": "no can do"}` {
		t.Errorf("expected extracted object verbatim, got %q", out)
	}
}

func TestParseJSONObjectFallback(t *testing.T) {
	input := "Here are a few options:\n- stone_golem\n- marble titan\n"
	out := ParseJSONObject(input, "statues")

	var obj map[string]any
	if err := json.Unmarshal([]byte(out), &obj); err != nil {
		t.Fatalf("fallback output is not valid JSON: %v", err)
	}
	desc := obj["description"].(string)
	if desc != "AI-generated content for statues (fallback mode)" {
		t.Errorf("description = %q", desc)
	}
	choices := obj["choices"].([]any)
	want := []any{"stone golem", "marble titan"}
	if !reflect.DeepEqual(choices, want) {
		t.Errorf("choices = %v, want %v", choices, want)
	}
}
