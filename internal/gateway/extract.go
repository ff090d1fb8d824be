package gateway

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnparsable marks a reply that none of the extraction strategies could
// turn into a JSON object.
var ErrUnparsable = errors.New("no JSON object found in reply")

// ExtractJSON parses a provider reply that may wrap its JSON in explanatory
// text or fenced blocks. Strategies, in order: strict parse of the whole
// reply, extraction from a fenced code block, extraction of the largest
// brace-delimited substring.
func ExtractJSON(reply string) (map[string]any, error) {
	s := strings.TrimSpace(reply)
	if s == "" {
		return nil, ErrUnparsable
	}

	if out, ok := tryParse(s); ok {
		return out, nil
	}

	if inner, ok := fencedBlock(s); ok {
		if out, ok := tryParse(inner); ok {
			return out, nil
		}
	}

	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			if out, ok := tryParse(s[i : j+1]); ok {
				return out, nil
			}
		}
	}

	return nil, ErrUnparsable
}

func tryParse(s string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}

// fencedBlock returns the contents of the first ``` fence, stripping an
// optional language token like "json".
func fencedBlock(s string) (string, bool) {
	idx := strings.Index(s, "```")
	if idx < 0 {
		return "", false
	}
	rest := s[idx+3:]
	rest = strings.TrimPrefix(rest, "json")
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
