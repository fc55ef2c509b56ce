package deck

import (
	"reflect"
	"testing"

	"cardtable/game"
)

func TestCardsFromCodes(t *testing.T) {
	p := NewTTSParser()
	res := p.Parse("OGN-253-1 OGN-253-1")
	cards := CardsFromCodes(res.Codes)
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	if cards[0].ID == cards[1].ID {
		t.Error("repeated codes must get distinct identifiers")
	}
	c := cards[0]
	if c.Name != "OGN-253" || c.Provenance != game.ProvenanceTTS || c.TTSCode != "OGN-253-1" {
		t.Errorf("card = %+v", c)
	}
	wantMeta := map[string]any{"set": "OGN", "number": "253", "imageCode": "OGN-253"}
	if !reflect.DeepEqual(c.Metadata, wantMeta) {
		t.Errorf("metadata = %v, want %v", c.Metadata, wantMeta)
	}
	if c.ImageURL != DefaultImageBaseURL+"OGN-253.jpg" {
		t.Errorf("imageURL = %q", c.ImageURL)
	}
}

func TestCardsFromImport(t *testing.T) {
	imp := &DeckImport{
		Name: "Test",
		Cards: []CardImport{
			{ID: "orig-1", Name: "Alpha", ImageURL: "https://x/a.jpg"},
			{ID: "orig-2", Name: "Beta"},
		},
	}
	cards := CardsFromImport(imp)
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	for i, c := range cards {
		if c.Provenance != game.ProvenanceJSON {
			t.Errorf("card %d provenance = %q", i, c.Provenance)
		}
		if c.JSONID != imp.Cards[i].ID {
			t.Errorf("card %d jsonId = %q, want %q", i, c.JSONID, imp.Cards[i].ID)
		}
		if c.ID == c.JSONID || c.ID == "" {
			t.Errorf("card %d must get a fresh live identifier, got %q", i, c.ID)
		}
	}
}

func TestDeckNameFromCodes(t *testing.T) {
	p := NewTTSParser()
	res := p.Parse("OGN-253-1 ALT-1-1")
	if got := DeckNameFromCodes(res.Codes); got != "TTS Deck (OGN)" {
		t.Errorf("name = %q, want %q", got, "TTS Deck (OGN)")
	}
	if got := DeckNameFromCodes(nil); got != "TTS Deck" {
		t.Errorf("empty name = %q, want %q", got, "TTS Deck")
	}
}

func TestDedupeByNameFirstWins(t *testing.T) {
	cards := []game.Card{
		{ID: "1", Name: "Alpha", Metadata: map[string]any{"v": 1}},
		{ID: "2", Name: "Beta"},
		{ID: "3", Name: "Alpha", Metadata: map[string]any{"v": 2}},
	}
	out := DedupeByName(cards)
	if len(out) != 2 {
		t.Fatalf("deduped = %d, want 2", len(out))
	}
	// same display name collapses even when the metadata differs
	if out[0].ID != "1" || out[1].ID != "2" {
		t.Errorf("wrong survivors: %v", out)
	}
}

func TestSortByNameStable(t *testing.T) {
	cards := []game.Card{
		{ID: "1", Name: "Beta"},
		{ID: "2", Name: "Alpha"},
		{ID: "3", Name: "Beta"},
	}
	SortByName(cards)
	want := []string{"2", "1", "3"}
	for i, c := range cards {
		if c.ID != want[i] {
			t.Fatalf("order = %v, want ids %v", cards, want)
		}
	}
}
