package deck

import (
	"encoding/json"
	"fmt"
)

// CardImport is one card descriptor in a JSON deck file.
type CardImport struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	ImageURL string         `json:"imageUrl,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeckImport is the external deck representation. It exists only during the
// import pipeline and is never persisted directly.
type DeckImport struct {
	Name  string       `json:"name"`
	Cards []CardImport `json:"cards"`
}

// ParseJSON decodes a raw deck file into an untyped document for
// validation. Syntax errors are fatal to the import attempt only.
func ParseJSON(data []byte, maxBytes int) (any, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, fmt.Errorf("deck file is %d bytes, exceeding the %d byte import limit", len(data), maxBytes)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return raw, nil
}

// DecodeDeckImport converts a validated document into a DeckImport.
func DecodeDeckImport(raw any) (*DeckImport, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var imp DeckImport
	if err := json.Unmarshal(data, &imp); err != nil {
		return nil, err
	}
	return &imp, nil
}
