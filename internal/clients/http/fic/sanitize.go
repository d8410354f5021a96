package fic

import (
	"bytes"
	"encoding/json"
	"fmt"

	credentialsdomain "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
)

// encodePayload serialises payload after stripping unsafe characters from
// every string value at any depth. Numbers keep their original literal.
func encodePayload(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return json.Marshal(sanitizeValue(tree))
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return credentialsdomain.SanitizeInput(val)
	case map[string]any:
		for k, item := range val {
			val[k] = sanitizeValue(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = sanitizeValue(item)
		}
		return val
	default:
		return val
	}
}
