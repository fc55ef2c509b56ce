package game

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// saver coalesces bursts of mutations into one snapshot write after a
// quiet period. A superseding schedule cancels the prior one, so N rapid
// position updates collapse to a single save. Save failures are surfaced
// as warnings; in-memory state stays authoritative.
type saver struct {
	store    SnapshotStore
	session  *Session
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func newSaver(store SnapshotStore, session *Session, interval time.Duration) *saver {
	return &saver{store: store, session: session, interval: interval}
}

func (s *saver) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, func() { s.save(context.Background()) })
}

// flush cancels any pending timer and saves immediately.
func (s *saver) flush(ctx context.Context) {
	s.stop()
	s.save(ctx)
}

func (s *saver) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *saver) save(ctx context.Context) {
	snap := s.session.Snapshot()
	if err := s.store.Save(ctx, snap.SessionID, snap); err != nil {
		s.session.warnf(fmt.Sprintf("could not save game state: %v", err))
	}
}
