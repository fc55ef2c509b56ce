package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrDeckEmpty is returned by DrawCard when there is nothing left to draw.
var ErrDeckEmpty = errors.New("deck is empty")

// DefaultDebounce is the quiet window before a dirty session is persisted.
const DefaultDebounce = 2 * time.Second

// Session is the aggregate of deck, hand and playfield for one player,
// and the only owner of its cards. All mutation goes through its
// operations; every mutation marks it dirty and schedules a debounced
// snapshot save.
type Session struct {
	id string

	mu        sync.Mutex
	deckName  string
	deckTotal int
	deck      []Card
	hand      []Card
	field     []Card
	positions map[string]Position
	zcounter  int

	saver *saver
	log   *slog.Logger
	warn  func(msg string)
}

type Option func(*Session)

// WithStore attaches a snapshot store and debounce window. Without it the
// session plays entirely in memory.
func WithStore(store SnapshotStore, debounce time.Duration) Option {
	return func(s *Session) {
		if debounce <= 0 {
			debounce = DefaultDebounce
		}
		s.saver = newSaver(store, s, debounce)
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithWarnFunc installs the sink for non-fatal, user-visible warnings such
// as persistence failures.
func WithWarnFunc(warn func(msg string)) Option {
	return func(s *Session) { s.warn = warn }
}

// NewSession creates a session in its default state: test deck, empty
// hand, empty playfield.
func NewSession(id string, opts ...Option) *Session {
	s := &Session{
		id:  id,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.installDefaults()
	return s
}

// LoadSession restores the last persisted snapshot for id, or initializes
// defaults when none exists. On a load failure the session still starts
// playable from defaults; the error is returned so the caller can warn.
func LoadSession(ctx context.Context, id string, store SnapshotStore, opts ...Option) (*Session, error) {
	s := NewSession(id, opts...)
	snap, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s, nil
		}
		return s, err
	}
	s.restore(snap)
	return s, nil
}

func (s *Session) installDefaults() {
	s.deckName = "Test Deck"
	s.deck = GenerateTestDeck(DefaultDeckSize)
	s.deckTotal = len(s.deck)
	s.hand = nil
	s.field = nil
	s.positions = map[string]Position{}
	s.zcounter = 0
}

func (s *Session) restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deckName = snap.DeckName
	s.deckTotal = snap.DeckTotal
	s.deck = append([]Card(nil), snap.Deck...)
	s.hand = append([]Card(nil), snap.Hand...)
	s.field = append([]Card(nil), snap.Field...)
	s.positions = map[string]Position{}
	s.zcounter = 0
	for id, pos := range snap.Positions {
		s.positions[id] = pos
		if pos.Z > s.zcounter {
			s.zcounter = pos.Z
		}
	}
}

// DrawCard removes the top card from the deck and appends it to the hand.
func (s *Session) DrawCard() (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deck) == 0 {
		return Card{}, ErrDeckEmpty
	}
	card := s.deck[0]
	s.deck = s.deck[1:]
	s.hand = append(s.hand, card)
	s.markDirty()
	return card, nil
}

// ReplaceDeck installs an imported deck and resets hand and playfield.
// Callers run validation first; a rejected import never reaches here.
func (s *Session) ReplaceDeck(name string, cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deckName = name
	s.deck = append([]Card(nil), cards...)
	s.deckTotal = len(cards)
	s.hand = nil
	s.field = nil
	s.positions = map[string]Position{}
	s.zcounter = 0
	s.markDirty()
}

// MoveCardToPlayfield moves a hand card onto the playfield at (x, y) with
// the next z-order. Unknown ids are a no-op.
func (s *Session) MoveCardToPlayfield(cardID string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.hand, cardID)
	if i < 0 {
		return false
	}
	card := s.hand[i]
	s.hand = append(s.hand[:i], s.hand[i+1:]...)
	s.field = append(s.field, card)
	s.zcounter++
	s.positions[card.ID] = Position{X: x, Y: y, Z: s.zcounter}
	s.markDirty()
	return true
}

// UpdateCardPosition repositions a playfield card and bumps it to the top
// of the stacking order. Unknown ids are a no-op.
func (s *Session) UpdateCardPosition(cardID string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[cardID]; !ok {
		return false
	}
	s.zcounter++
	s.positions[cardID] = Position{X: x, Y: y, Z: s.zcounter}
	s.markDirty()
	return true
}

// MoveCardToHand returns a playfield card to the hand, dropping its
// position entry.
func (s *Session) MoveCardToHand(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.field, cardID)
	if i < 0 {
		return false
	}
	card := s.field[i]
	s.field = append(s.field[:i], s.field[i+1:]...)
	delete(s.positions, cardID)
	s.hand = append(s.hand, card)
	s.markDirty()
	return true
}

// DiscardCard permanently removes a card from whichever collection holds
// it, along with any position entry.
func (s *Session) DiscardCard(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.hand, cardID); i >= 0 {
		s.hand = append(s.hand[:i], s.hand[i+1:]...)
		s.markDirty()
		return true
	}
	if i := indexOf(s.field, cardID); i >= 0 {
		s.field = append(s.field[:i], s.field[i+1:]...)
		delete(s.positions, cardID)
		s.markDirty()
		return true
	}
	return false
}

// ResetGame reinstalls the default test deck with an empty hand and
// playfield.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installDefaults()
	s.markDirty()
}

// Snapshot captures the current state for persistence or inspection.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &Snapshot{
		SessionID: s.id,
		DeckName:  s.deckName,
		DeckTotal: s.deckTotal,
		Deck:      append([]Card(nil), s.deck...),
		Hand:      append([]Card(nil), s.hand...),
		Field:     append([]Card(nil), s.field...),
		Positions: make(map[string]Position, len(s.positions)),
		SavedAt:   time.Now(),
	}
	for id, pos := range s.positions {
		snap.Positions[id] = pos
	}
	return snap
}

// Flush persists any pending dirty state immediately. Used on shutdown so
// the debounce window cannot swallow the final write.
func (s *Session) Flush(ctx context.Context) {
	if s.saver != nil {
		s.saver.flush(ctx)
	}
}

// Close stops the pending save timer without writing.
func (s *Session) Close() {
	if s.saver != nil {
		s.saver.stop()
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) DeckName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deckName
}

// DeckCount reports remaining and original deck sizes for "N/total"
// display.
func (s *Session) DeckCount() (remaining, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deck), s.deckTotal
}

func (s *Session) Hand() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Card(nil), s.hand...)
}

func (s *Session) Field() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Card(nil), s.field...)
}

func (s *Session) PositionOf(cardID string) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[cardID]
	return pos, ok
}

func (s *Session) InHand(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.hand, cardID) >= 0
}

func (s *Session) OnField(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.field, cardID) >= 0
}

// markDirty schedules a debounced save. Callers hold s.mu.
func (s *Session) markDirty() {
	if s.saver != nil {
		s.saver.schedule()
	}
}

func (s *Session) warnf(msg string) {
	s.log.Warn(msg, "session", s.id)
	if s.warn != nil {
		s.warn(msg)
	}
}

func indexOf(cards []Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
