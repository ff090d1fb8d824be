package gateway

import (
	"strings"
	"testing"
)

func TestBuildPrompts(t *testing.T) {
	content := map[string]any{"title": "Hello"}
	system, user, err := BuildPrompts(content, Options{
		SourceLanguage: "en",
		TargetLanguage: "de",
		PromptContext:  "blog posts about cooking",
		Glossary:       map[string]string{"skillet": "Pfanne", "oven": "Ofen"},
	})
	if err != nil {
		t.Fatalf("BuildPrompts() error = %v", err)
	}

	for _, want := range []string{"from en to de", "blog posts about cooking", "oven -> Ofen", "skillet -> Pfanne", "only the translated JSON"} {
		if !strings.Contains(system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, system)
		}
	}
	// Glossary is rendered in deterministic order.
	if strings.Index(system, "oven") > strings.Index(system, "skillet") {
		t.Fatalf("glossary pairs not sorted:\n%s", system)
	}
	if !strings.Contains(user, `"title": "Hello"`) {
		t.Fatalf("user prompt missing content block:\n%s", user)
	}
}

func TestBuildPrompts_NoOptionalSections(t *testing.T) {
	system, _, err := BuildPrompts(map[string]any{"a": "b"}, Options{TargetLanguage: "fr"})
	if err != nil {
		t.Fatalf("BuildPrompts() error = %v", err)
	}
	if strings.Contains(system, "Context for this content") {
		t.Fatalf("context section rendered without context:\n%s", system)
	}
	if strings.Contains(system, "preferred translations") {
		t.Fatalf("glossary section rendered without glossary:\n%s", system)
	}
	if !strings.Contains(system, "to fr") {
		t.Fatalf("target language missing:\n%s", system)
	}
}
