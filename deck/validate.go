package deck

import "fmt"

const (
	MinDeckCards   = 1
	MaxDeckCards   = 500
	MaxCardNameLen = 120

	// Decks past this size stay valid but get a performance warning.
	largeDeckThreshold = 100
)

// ValidationResult collects every violation found in one pass so the
// caller can surface the complete list at once.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateDeckImport checks a decoded deck document against the import
// constraints. Per-card checks never short-circuit; a rejected import
// reports everything wrong with it.
func ValidateDeckImport(raw any) ValidationResult {
	res := ValidationResult{}
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		res.errorf("deck must be a JSON object")
		return res
	}

	name, ok := doc["name"].(string)
	if !ok || name == "" {
		res.errorf("deck name must be a non-empty string")
	}

	cards, ok := doc["cards"].([]any)
	if !ok {
		res.errorf("cards must be an array")
		return res
	}

	if len(cards) < MinDeckCards {
		res.errorf("deck must contain at least %d card(s)", MinDeckCards)
	}
	if len(cards) > MaxDeckCards {
		res.errorf("deck must contain at most %d cards, got %d", MaxDeckCards, len(cards))
	}
	if len(cards) > largeDeckThreshold {
		res.warnf("deck has %d cards; decks over %d may render slowly", len(cards), largeDeckThreshold)
	}

	seen := map[string]bool{}
	for i, raw := range cards {
		card, ok := raw.(map[string]any)
		if !ok {
			res.errorf("card %d: must be an object", i+1)
			continue
		}
		id, ok := card["id"].(string)
		if !ok || id == "" {
			res.errorf("card %d: id must be a non-empty string", i+1)
		} else if seen[id] {
			res.errorf("card %d: duplicate id %q", i+1, id)
		} else {
			seen[id] = true
		}
		name, ok := card["name"].(string)
		if !ok || name == "" {
			res.errorf("card %d: name must be a non-empty string", i+1)
		} else if len(name) > MaxCardNameLen {
			res.errorf("card %d: name exceeds %d characters", i+1, MaxCardNameLen)
		}
		if u, present := card["imageUrl"]; present {
			if _, ok := u.(string); !ok {
				res.errorf("card %d: imageUrl must be a string", i+1)
			}
		}
		if m, present := card["metadata"]; present {
			if _, ok := m.(map[string]any); !ok {
				res.errorf("card %d: metadata must be an object", i+1)
			}
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}
