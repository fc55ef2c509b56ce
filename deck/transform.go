package deck

import (
	"sort"
	"time"

	"cardtable/game"
)

// CardsFromCodes turns decoded TTS codes into canonical cards. Identifiers
// are freshly generated because one set/number can repeat across decks;
// the raw code is kept for traceability.
func CardsFromCodes(codes []TTSCode) []game.Card {
	now := time.Now()
	cards := make([]game.Card, 0, len(codes))
	for _, c := range codes {
		cards = append(cards, game.Card{
			ID:       game.NewCardID(),
			Name:     c.ImageCode,
			ImageURL: c.ImageURL,
			Metadata: map[string]any{
				"set":       c.Set,
				"number":    c.Number,
				"imageCode": c.ImageCode,
			},
			Provenance: game.ProvenanceTTS,
			TTSCode:    c.Raw,
			CreatedAt:  now,
		})
	}
	return cards
}

// CardsFromImport turns a validated JSON deck into canonical cards. The
// import's own ids are kept as JSONID but never reused as live
// identifiers, so independently authored decks cannot collide.
func CardsFromImport(imp *DeckImport) []game.Card {
	now := time.Now()
	cards := make([]game.Card, 0, len(imp.Cards))
	for _, c := range imp.Cards {
		cards = append(cards, game.Card{
			ID:         game.NewCardID(),
			Name:       c.Name,
			ImageURL:   c.ImageURL,
			Metadata:   c.Metadata,
			Provenance: game.ProvenanceJSON,
			JSONID:     c.ID,
			CreatedAt:  now,
		})
	}
	return cards
}

// DeckNameFromCodes synthesizes a display name for a TTS import, which has
// no name of its own.
func DeckNameFromCodes(codes []TTSCode) string {
	if len(codes) == 0 {
		return "TTS Deck"
	}
	return "TTS Deck (" + codes[0].Set + ")"
}

// DedupeByName drops every card whose display name was already seen; the
// first occurrence wins. Two distinct cards sharing a name but differing
// in metadata collapse to one, matching the original import behavior.
func DedupeByName(cards []game.Card) []game.Card {
	seen := map[string]bool{}
	out := make([]game.Card, 0, len(cards))
	for _, c := range cards {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

// SortByName orders cards alphabetically, preserving the relative order of
// cards with equal names.
func SortByName(cards []game.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Name < cards[j].Name
	})
}
