package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cardtable/deck"
	"cardtable/game"
)

// testTable builds a table wired to an in-memory broker, bypassing the
// websocket layer; commands are applied directly.
func testTable(t *testing.T) (*Table, *Client, *Subscriber) {
	t.Helper()
	srv := &Server{
		broker:    NewMemoryBroker(),
		tts:       deck.NewTTSParser(),
		maxImport: deck.DefaultMaxImportBytes,
		log:       slog.Default(),
		tables:    map[string]*Table{},
	}
	table := newTable("s1", srv)
	table.session = game.NewSession("s1")
	client := &Client{Name: "alice", server: srv, table: table, send: make(chan []byte, 16), done: make(chan struct{})}
	client.drag = game.NewDrag(table.session, defaultDragConfig)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sub := srv.broker.Subscribe(ctx, table.ID)
	return table, client, sub
}

func decodeMessage(t *testing.T, raw []byte) *Message {
	t.Helper()
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("broadcast not a Message: %v", err)
	}
	return &msg
}

func nextBroadcast(t *testing.T, sub *Subscriber) *Message {
	t.Helper()
	select {
	case raw := <-sub.Channel:
		return decodeMessage(t, raw)
	default:
		t.Fatal("no broadcast published")
		return nil
	}
}

func TestTableDrawBroadcastsState(t *testing.T) {
	table, client, sub := testTable(t)

	table.apply(client, &Message{Type: DrawAction})
	msg := nextBroadcast(t, sub)
	if msg.Type != StateAction || msg.State == nil {
		t.Fatalf("broadcast = %+v, want a state message", msg)
	}
	if len(msg.State.Hand) != 1 || msg.State.DeckRemaining != game.DefaultDeckSize-1 {
		t.Errorf("state = %+v, want one drawn card", msg.State)
	}
}

func TestTableImportRejectsInvalidDeck(t *testing.T) {
	table, client, sub := testTable(t)
	remainingBefore, _ := table.session.DeckCount()

	table.apply(client, &Message{
		Type: ImportAction,
		Deck: json.RawMessage(`{"name": "Test", "cards": []}`),
	})

	select {
	case <-sub.Channel:
		t.Fatal("rejected import still broadcast state")
	default:
	}
	select {
	case raw := <-client.send:
		msg := decodeMessage(t, raw)
		if msg.Type != ErrorAction || len(msg.Errors) == 0 {
			t.Fatalf("reply = %+v, want validation errors", msg)
		}
		if !strings.Contains(strings.Join(msg.Errors, " "), "at least") {
			t.Errorf("errors = %v, want minimum-size violation", msg.Errors)
		}
	default:
		t.Fatal("no error reply sent to the importing client")
	}
	if remaining, _ := table.session.DeckCount(); remaining != remainingBefore {
		t.Error("rejected import mutated the deck")
	}
}

func TestTableImportReplacesDeck(t *testing.T) {
	table, client, sub := testTable(t)

	table.apply(client, &Message{
		Type: ImportAction,
		Deck: json.RawMessage(`{
			"name": "My Deck",
			"cards": [
				{"id": "a", "name": "Alpha"},
				{"id": "b", "name": "Beta"}
			]
		}`),
	})
	msg := nextBroadcast(t, sub)
	if msg.State == nil || msg.State.DeckName != "My Deck" || msg.State.DeckTotal != 2 {
		t.Fatalf("state = %+v, want imported deck of 2", msg.State)
	}
}

func TestTableImportTTSKeepsWarnings(t *testing.T) {
	table, client, sub := testTable(t)

	table.apply(client, &Message{Type: ImportTTSAction, Text: "OGN-253-1 OGN-254-1\nBAD"})
	msg := nextBroadcast(t, sub)
	if msg.State == nil || msg.State.DeckTotal != 2 {
		t.Fatalf("state = %+v, want 2-card TTS deck", msg.State)
	}
	if msg.State.DeckName != "TTS Deck (OGN)" {
		t.Errorf("deck name = %q", msg.State.DeckName)
	}

	select {
	case raw := <-client.send:
		warn := decodeMessage(t, raw)
		if warn.Type != WarningAction || len(warn.Warnings) != 1 {
			t.Fatalf("reply = %+v, want one token warning", warn)
		}
	default:
		t.Fatal("partial import produced no warning reply")
	}
}

func TestTablePointerDragCommitsDrop(t *testing.T) {
	table, client, sub := testTable(t)
	table.apply(client, &Message{Type: DrawAction})
	state := nextBroadcast(t, sub)
	cardID := state.State.Hand[0].ID

	handY := defaultDragConfig.Hand.Y + 10
	table.apply(client, &Message{
		Type: PointerDownAction, CardID: cardID, Zone: "hand",
		X: 100, Y: handY, CardX: 100, CardY: handY,
	})
	table.apply(client, &Message{Type: PointerMoveAction, X: 300, Y: 200})
	table.apply(client, &Message{Type: PointerUpAction, X: 300, Y: 200})

	if pos, ok := table.session.PositionOf(cardID); !ok || pos.X != 300 || pos.Y != 200 {
		t.Fatalf("position = %+v, want drop at (300, 200)", pos)
	}
	select {
	case raw := <-client.send:
		drop := decodeMessage(t, raw)
		if drop.Type != DropAction || drop.Result != "field" {
			t.Errorf("drop reply = %+v", drop)
		}
	default:
		t.Fatal("no drop result sent")
	}
	if nextBroadcast(t, sub).State == nil {
		t.Error("drop did not broadcast state")
	}
}

func TestTableRegisterAfterDisconnectShutsDownCleanly(t *testing.T) {
	table, client, _ := testTable(t)
	go table.run()

	// a connection that died mid-join still lands on the register channel
	close(client.done)
	table.register <- client

	select {
	case <-table.closed:
	case <-time.After(time.Second):
		t.Fatal("table kept running for a client that already left")
	}
}

func TestTableSkipsDeadClientOnRegister(t *testing.T) {
	table, alive, sub := testTable(t)
	go table.run()
	table.register <- alive
	select {
	case <-alive.send:
	case <-time.After(time.Second):
		t.Fatal("no initial state sent to the joining client")
	}

	dead := &Client{Name: "bob", server: table.server, table: table, send: make(chan []byte, 1), done: make(chan struct{})}
	close(dead.done)
	table.register <- dead

	table.commands <- command{client: alive, msg: &Message{Type: DrawAction}}
	select {
	case raw := <-sub.Channel:
		if msg := decodeMessage(t, raw); msg.Type != StateAction {
			t.Fatalf("broadcast = %+v, want state after draw", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("table stopped serving after a dead client joined")
	}

	table.unregister <- alive
	select {
	case <-table.closed:
	case <-time.After(time.Second):
		t.Fatal("table did not shut down after the last viewer left")
	}
}

func TestReadLimitFollowsImportCap(t *testing.T) {
	srv := New(nil, NewMemoryBroker(), Options{MaxImportBytes: 1 << 20})
	if got := srv.readLimit(); got != int64(1<<20+messageOverhead) {
		t.Errorf("readLimit() = %d, want configured cap plus envelope", got)
	}
	def := New(nil, NewMemoryBroker(), Options{})
	if got := def.readLimit(); got != int64(deck.DefaultMaxImportBytes+messageOverhead) {
		t.Errorf("default readLimit() = %d", got)
	}
}

func TestTableResetBroadcastsDefaults(t *testing.T) {
	table, client, sub := testTable(t)
	table.apply(client, &Message{Type: ImportTTSAction, Text: "OGN-1-1"})
	nextBroadcast(t, sub)

	table.apply(client, &Message{Type: ResetAction})
	msg := nextBroadcast(t, sub)
	if msg.State.DeckTotal != game.DefaultDeckSize || msg.State.DeckName != "Test Deck" {
		t.Errorf("state after reset = %+v", msg.State)
	}
}
