package game

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a SnapshotStore when no snapshot exists for a
// session yet. Callers treat it as "start from defaults".
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the persisted form of a session: deck, hand and playfield
// plus the position map, serialized as one record keyed by session id.
type Snapshot struct {
	SessionID string              `json:"sessionId"`
	DeckName  string              `json:"deckName"`
	DeckTotal int                 `json:"deckTotal"`
	Deck      []Card              `json:"deck"`
	Hand      []Card              `json:"hand"`
	Field     []Card              `json:"field"`
	Positions map[string]Position `json:"positions"`
	SavedAt   time.Time           `json:"savedAt"`
}

// SnapshotStore is the persistence collaborator. The session never
// constructs one itself; it is injected so state stays testable without a
// live database.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
}
