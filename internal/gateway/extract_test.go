package gateway

import (
	"errors"
	"testing"
)

func TestExtractJSON_Strict(t *testing.T) {
	out, err := ExtractJSON(`{"title": "Hallo"}`)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if out["title"] != "Hallo" {
		t.Fatalf("ExtractJSON() = %v", out)
	}
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	reply := "Here is the translation:\n```json\n{\"title\": \"Hallo\"}\n```\nLet me know if you need anything else."
	out, err := ExtractJSON(reply)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if out["title"] != "Hallo" {
		t.Fatalf("ExtractJSON() = %v", out)
	}
}

func TestExtractJSON_BraceSubstring(t *testing.T) {
	reply := `Sure! The translated document is {"title": "Hallo", "tags": ["x"]} as requested.`
	out, err := ExtractJSON(reply)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if out["title"] != "Hallo" {
		t.Fatalf("ExtractJSON() = %v", out)
	}
}

func TestExtractJSON_Unparsable(t *testing.T) {
	for _, reply := range []string{"", "I cannot translate that.", "``` nope ```", "{broken"} {
		if _, err := ExtractJSON(reply); !errors.Is(err, ErrUnparsable) {
			t.Fatalf("ExtractJSON(%q) error = %v, want ErrUnparsable", reply, err)
		}
	}
}
