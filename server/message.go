package server

import (
	"encoding/json"

	"cardtable/game"
)

const (
	// client -> server
	DrawAction      = "game.draw"
	MoveAction      = "game.move"
	PositionAction  = "game.position"
	ReturnAction    = "game.return"
	DiscardAction   = "game.discard"
	ImportAction    = "game.import"
	ImportTTSAction = "game.import-tts"
	ResetAction     = "game.reset"
	LayoutAction    = "table.layout"

	PointerDownAction   = "pointer.down"
	PointerMoveAction   = "pointer.move"
	PointerUpAction     = "pointer.up"
	PointerCancelAction = "pointer.cancel"

	// server -> client
	StateAction   = "game.state"
	WarningAction = "game.warning"
	ErrorAction   = "game.error"
	DropAction    = "game.drop"
)

// Message is the wire format in both directions. Fields are sparse; which
// ones are set depends on Type.
type Message struct {
	Type   string `json:"type"`
	Sender string `json:"sender,omitempty"`

	CardID string  `json:"cardId,omitempty"`
	Zone   string  `json:"zone,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	CardX  float64 `json:"cardX"`
	CardY  float64 `json:"cardY"`

	Text   string          `json:"text,omitempty"`
	Deck   json.RawMessage `json:"deck,omitempty"`
	Dedupe bool            `json:"dedupe,omitempty"`
	Sort   bool            `json:"sort,omitempty"`

	Layout *Layout `json:"layout,omitempty"`

	State    *StateView `json:"state,omitempty"`
	Result   string     `json:"result,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

func (m *Message) encode() []byte {
	data, _ := json.Marshal(m)
	return data
}

// Layout describes the client's zone geometry for pointer-event drags.
type Layout struct {
	Field game.Rect `json:"field"`
	Hand  game.Rect `json:"hand"`
	CardW float64   `json:"cardW"`
	CardH float64   `json:"cardH"`
}

// CardView is the client-facing representation of a card, with its
// position when the card is on the playfield.
type CardView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        int     `json:"z"`
}

// StateView is the full session state broadcast after every mutation.
type StateView struct {
	SessionID     string     `json:"sessionId"`
	DeckName      string     `json:"deckName"`
	DeckRemaining int        `json:"deckRemaining"`
	DeckTotal     int        `json:"deckTotal"`
	Hand          []CardView `json:"hand"`
	Field         []CardView `json:"field"`
}

func stateView(s *game.Session) *StateView {
	remaining, total := s.DeckCount()
	view := &StateView{
		SessionID:     s.ID(),
		DeckName:      s.DeckName(),
		DeckRemaining: remaining,
		DeckTotal:     total,
		Hand:          []CardView{},
		Field:         []CardView{},
	}
	for _, c := range s.Hand() {
		view.Hand = append(view.Hand, CardView{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL})
	}
	for _, c := range s.Field() {
		cv := CardView{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL}
		if pos, ok := s.PositionOf(c.ID); ok {
			cv.X, cv.Y, cv.Z = pos.X, pos.Y, pos.Z
		}
		view.Field = append(view.Field, cv)
	}
	return view
}
