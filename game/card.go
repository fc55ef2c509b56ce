package game

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Provenance records where a card came from.
type Provenance string

const (
	ProvenanceDefault Provenance = "default"
	ProvenanceJSON    Provenance = "json-import"
	ProvenanceTTS     Provenance = "tts-import"
)

// Card is a playable unit. Cards are immutable once created; placement and
// position are tracked by the session, never on the card itself.
type Card struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ImageURL   string         `json:"imageUrl,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Provenance Provenance     `json:"provenance"`
	// JSONID keeps the id a JSON import supplied, for debugging and
	// dedup. It is never used as the live identifier.
	JSONID string `json:"jsonId,omitempty"`
	// TTSCode keeps the raw code a TTS import was built from.
	TTSCode   string    `json:"ttsCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCardID generates a fresh globally unique card identifier.
func NewCardID() string {
	return ulid.Make().String()
}

// Position locates a placed card in playfield-local pixel coordinates.
// Z is the stacking rank; higher renders above lower.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z int     `json:"z"`
}

// DefaultDeckSize is the size of the test deck a fresh session starts with.
const DefaultDeckSize = 30

// GenerateTestDeck produces n cards named "Card 1".."Card n" with a
// sequential index in their metadata. This is the default and reset state.
func GenerateTestDeck(n int) []Card {
	now := time.Now()
	cards := make([]Card, 0, n)
	for i := 1; i <= n; i++ {
		cards = append(cards, Card{
			ID:         NewCardID(),
			Name:       fmt.Sprintf("Card %d", i),
			Metadata:   map[string]any{"index": i},
			Provenance: ProvenanceDefault,
			CreatedAt:  now,
		})
	}
	return cards
}
