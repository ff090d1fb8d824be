package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns a hex digest of the given content map, stable under key
// reordering: encoding/json serializes map keys in sorted order at every
// nesting level, so two maps with equal content always produce equal digests.
// This is a change-detection oracle, not a security primitive.
func Hash(content map[string]any) (string, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to serialize content: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
